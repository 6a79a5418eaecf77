package ginserver

import (
	"net/http"
	"time"

	gin "github.com/gin-gonic/gin"
	"github.com/google/uuid"

	"villabay/internal/app/commands"
	"villabay/internal/app/dto"
	bookingapp "villabay/internal/app/handlers/booking"
	"villabay/internal/app/queries"
)

type BookingHandler struct {
	Commands commands.Bus
	Queries  queries.Bus
}

type createBookingRequest struct {
	VillaID  string    `json:"villa_uid"`
	CheckIn  time.Time `json:"check_in"`
	CheckOut time.Time `json:"check_out"`
	Guests   int       `json:"guests"`
}

func (h BookingHandler) Create(c *gin.Context) {
	act, ok := requireActor(c)
	if !ok {
		return
	}
	var req createBookingRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}
	cmd := bookingapp.CreateBookingCommand{
		CommandID:       generateCommandID(),
		VillaID:         req.VillaID,
		CheckIn:         req.CheckIn,
		CheckOut:        req.CheckOut,
		Guests:          req.Guests,
		Actor:           act,
		IdempotencyKeyV: c.GetHeader("Idempotency-Key"),
	}
	result, err := commands.Dispatch[bookingapp.CreateBookingCommand, *dto.Booking](c.Request.Context(), h.Commands, cmd)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusCreated, result)
}

func (h BookingHandler) Approve(c *gin.Context) {
	act, ok := requireActor(c)
	if !ok {
		return
	}
	cmd := bookingapp.ApproveBookingCommand{BookingID: c.Param("id"), Actor: act}
	result, err := commands.Dispatch[bookingapp.ApproveBookingCommand, *dto.Booking](c.Request.Context(), h.Commands, cmd)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, result)
}

func (h BookingHandler) Reject(c *gin.Context) {
	act, ok := requireActor(c)
	if !ok {
		return
	}
	var req struct {
		Reason string `json:"reason"`
	}
	_ = c.ShouldBindJSON(&req)
	cmd := bookingapp.RejectBookingCommand{BookingID: c.Param("id"), Reason: req.Reason, Actor: act}
	result, err := commands.Dispatch[bookingapp.RejectBookingCommand, *dto.Booking](c.Request.Context(), h.Commands, cmd)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, result)
}

func (h BookingHandler) Cancel(c *gin.Context) {
	act, ok := requireActor(c)
	if !ok {
		return
	}
	var req struct {
		Reason string `json:"reason"`
	}
	_ = c.ShouldBindJSON(&req)
	cmd := bookingapp.CancelBookingCommand{BookingID: c.Param("id"), Reason: req.Reason, Actor: act}
	result, err := commands.Dispatch[bookingapp.CancelBookingCommand, *dto.Booking](c.Request.Context(), h.Commands, cmd)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, result)
}

func (h BookingHandler) Pay(c *gin.Context) {
	act, ok := requireActor(c)
	if !ok {
		return
	}
	var req struct {
		Method string `json:"payment_method"`
	}
	_ = c.ShouldBindJSON(&req)
	if req.Method == "" {
		req.Method = "card"
	}
	cmd := bookingapp.PayBookingCommand{
		BookingID:       c.Param("id"),
		Method:          req.Method,
		Actor:           act,
		IdempotencyKeyV: c.GetHeader("Idempotency-Key"),
	}
	result, err := commands.Dispatch[bookingapp.PayBookingCommand, *dto.Booking](c.Request.Context(), h.Commands, cmd)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, result)
}

func (h BookingHandler) ReconcilePayment(c *gin.Context) {
	act, ok := requireActor(c)
	if !ok {
		return
	}
	cmd := bookingapp.ReconcilePaymentCommand{BookingID: c.Param("id"), Actor: act}
	result, err := commands.Dispatch[bookingapp.ReconcilePaymentCommand, *dto.Booking](c.Request.Context(), h.Commands, cmd)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, result)
}

func (h BookingHandler) ListMine(c *gin.Context) {
	act, ok := requireActor(c)
	if !ok {
		return
	}
	q := bookingapp.ListGuestBookingsQuery{GuestID: act.UserUID, Actor: act}
	result, err := queries.Ask[bookingapp.ListGuestBookingsQuery, dto.BookingCollection](c.Request.Context(), h.Queries, q)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, result)
}

func generateCommandID() string {
	return uuid.NewString()
}

var _ BookingHTTP = BookingHandler{}
