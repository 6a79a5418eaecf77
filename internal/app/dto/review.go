package dto

import (
	"time"

	domainreview "villabay/internal/domain/review"
)

type Review struct {
	ID        string    `json:"id"`
	BookingID string    `json:"booking_id"`
	VillaID   string    `json:"villa_id"`
	Direction string    `json:"direction"`
	AuthorID  string    `json:"author_id"`
	SubjectID string    `json:"subject_id"`
	Rating    int       `json:"rating"`
	Text      string    `json:"text,omitempty"`
	CreatedAt time.Time `json:"created_at"`
}

func MapReview(r *domainreview.Review) Review {
	return Review{
		ID:        r.ID,
		BookingID: string(r.BookingID),
		VillaID:   string(r.VillaID),
		Direction: string(r.Direction),
		AuthorID:  r.AuthorID,
		SubjectID: r.SubjectID,
		Rating:    r.Rating,
		Text:      r.Text,
		CreatedAt: r.CreatedAt,
	}
}

type Eligibility struct {
	BookingID string `json:"booking_id"`
	Direction string `json:"direction"`
	CanReview bool   `json:"can_review"`
	Reason    string `json:"reason,omitempty"`
}
