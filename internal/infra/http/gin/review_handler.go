package ginserver

import (
	"net/http"

	gin "github.com/gin-gonic/gin"

	"villabay/internal/app/commands"
	"villabay/internal/app/dto"
	reviewapp "villabay/internal/app/handlers/reviews"
	"villabay/internal/app/queries"
	domainreview "villabay/internal/domain/review"
)

type ReviewHandler struct {
	Commands commands.Bus
	Queries  queries.Bus
}

type recordReviewRequest struct {
	Direction string `json:"direction"`
	Rating    int    `json:"rating"`
	Text      string `json:"text"`
}

func (h ReviewHandler) Record(c *gin.Context) {
	act, ok := requireActor(c)
	if !ok {
		return
	}
	var req recordReviewRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}
	cmd := reviewapp.RecordReviewCommand{
		BookingID: c.Param("id"),
		Direction: domainreview.Direction(req.Direction),
		Rating:    req.Rating,
		Text:      req.Text,
		Actor:     act,
	}
	result, err := commands.Dispatch[reviewapp.RecordReviewCommand, *dto.Review](c.Request.Context(), h.Commands, cmd)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusCreated, result)
}

func (h ReviewHandler) Eligibility(c *gin.Context) {
	act, ok := requireActor(c)
	if !ok {
		return
	}
	q := reviewapp.ReviewEligibilityQuery{
		BookingID: c.Param("id"),
		Direction: domainreview.Direction(c.Query("direction")),
		Actor:     act,
	}
	result, err := queries.Ask[reviewapp.ReviewEligibilityQuery, dto.Eligibility](c.Request.Context(), h.Queries, q)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, result)
}

var _ ReviewHTTP = ReviewHandler{}
