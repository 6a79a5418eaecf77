package ginserver

import (
	"net/http"
	"time"

	gin "github.com/gin-gonic/gin"

	"villabay/internal/app/commands"
	"villabay/internal/app/dto"
	availabilityapp "villabay/internal/app/handlers/availability"
	"villabay/internal/app/queries"
	domainavailability "villabay/internal/domain/availability"
	"villabay/internal/domain/shared/money"
)

type AvailabilityHandler struct {
	Commands commands.Bus
	Queries  queries.Bus
	Currency string
}

func (h AvailabilityHandler) Quote(c *gin.Context) {
	checkIn, ok := parseDateQuery(c, "check_in")
	if !ok {
		return
	}
	checkOut, ok := parseDateQuery(c, "check_out")
	if !ok {
		return
	}
	q := availabilityapp.QuoteStayQuery{
		VillaID:  c.Param("id"),
		CheckIn:  checkIn,
		CheckOut: checkOut,
	}
	result, err := queries.Ask[availabilityapp.QuoteStayQuery, *dto.Quote](c.Request.Context(), h.Queries, q)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, result)
}

type setAvailabilityRequest struct {
	CheckIn   time.Time `json:"check_in"`
	CheckOut  time.Time `json:"check_out"`
	Available bool      `json:"available"`
	Source    string    `json:"source"`
}

func (h AvailabilityHandler) SetAvailability(c *gin.Context) {
	act, ok := requireActor(c)
	if !ok {
		return
	}
	var req setAvailabilityRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}
	cmd := availabilityapp.SetAvailabilityCommand{
		VillaID:   c.Param("id"),
		CheckIn:   req.CheckIn,
		CheckOut:  req.CheckOut,
		Available: req.Available,
		Source:    domainavailability.Source(req.Source),
		Actor:     act,
	}
	if _, err := commands.Dispatch[availabilityapp.SetAvailabilityCommand, struct{}](c.Request.Context(), h.Commands, cmd); err != nil {
		respondError(c, err)
		return
	}
	c.Status(http.StatusNoContent)
}

type addPricingRuleRequest struct {
	CheckIn     time.Time `json:"check_in"`
	CheckOut    time.Time `json:"check_out"`
	NightlyRate int64     `json:"nightly_rate"`
	Notes       string    `json:"notes"`
}

func (h AvailabilityHandler) AddPricingRule(c *gin.Context) {
	act, ok := requireActor(c)
	if !ok {
		return
	}
	var req addPricingRuleRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}
	rate, err := money.New(req.NightlyRate, h.Currency)
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}
	cmd := availabilityapp.AddPricingRuleCommand{
		VillaID:     c.Param("id"),
		CheckIn:     req.CheckIn,
		CheckOut:    req.CheckOut,
		NightlyRate: rate,
		Notes:       req.Notes,
		Actor:       act,
	}
	ruleID, err := commands.Dispatch[availabilityapp.AddPricingRuleCommand, string](c.Request.Context(), h.Commands, cmd)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusCreated, gin.H{"rule_id": ruleID})
}

func parseDateQuery(c *gin.Context, key string) (time.Time, bool) {
	raw := c.Query(key)
	t, err := time.Parse("2006-01-02", raw)
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid " + key + ": expected YYYY-MM-DD"})
		return time.Time{}, false
	}
	return t, true
}

var _ AvailabilityHTTP = AvailabilityHandler{}
