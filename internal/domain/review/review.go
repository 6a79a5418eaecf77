package review

import (
	"context"
	"strings"
	"time"

	"villabay/internal/domain/booking"
	"villabay/internal/domain/shared/events"
	"villabay/internal/domain/shared/fault"
	"villabay/internal/domain/villa"
)

var (
	ErrNotFound      = fault.New(fault.KindNotFound, "review: not found")
	ErrInvalidRating = fault.New(fault.KindValidation, "review: rating must be between 1 and 5")
	ErrBadDirection  = fault.New(fault.KindValidation, "review: unknown direction")
)

// Direction keys a review to one side of a completed stay. At most one
// review may exist per booking per direction.
type Direction string

const (
	GuestOnVilla Direction = "guest_on_villa"
	HostOnGuest  Direction = "host_on_guest"
)

func (d Direction) Valid() bool {
	return d == GuestOnVilla || d == HostOnGuest
}

type Review struct {
	ID        string
	BookingID booking.ID
	VillaID   villa.ID
	Direction Direction
	AuthorID  string
	SubjectID string
	Rating    int
	Text      string
	CreatedAt time.Time
	events.EventRecorder
}

type Repository interface {
	ByBookingAndDirection(ctx context.Context, bookingID booking.ID, direction Direction) (*Review, error)
	ListByVilla(ctx context.Context, villaID villa.ID, limit, offset int) ([]*Review, error)
	Save(ctx context.Context, r *Review) error
}

type SubmitParams struct {
	ID        string
	BookingID booking.ID
	VillaID   villa.ID
	Direction Direction
	AuthorID  string
	SubjectID string
	Rating    int
	Text      string
	CreatedAt time.Time
}

func Submit(params SubmitParams) (*Review, error) {
	if !params.Direction.Valid() {
		return nil, ErrBadDirection
	}
	if params.Rating < 1 || params.Rating > 5 {
		return nil, ErrInvalidRating
	}
	r := &Review{
		ID:        params.ID,
		BookingID: params.BookingID,
		VillaID:   params.VillaID,
		Direction: params.Direction,
		AuthorID:  params.AuthorID,
		SubjectID: params.SubjectID,
		Rating:    params.Rating,
		Text:      strings.TrimSpace(params.Text),
		CreatedAt: params.CreatedAt.UTC(),
	}
	r.Record(Submitted{ReviewID: r.ID, BookingID: r.BookingID, VillaID: r.VillaID, Direction: r.Direction, Rating: r.Rating, At: r.CreatedAt})
	return r, nil
}

type Submitted struct {
	ReviewID  string
	BookingID booking.ID
	VillaID   villa.ID
	Direction Direction
	Rating    int
	At        time.Time
}

func (e Submitted) EventName() string     { return "review.submitted" }
func (e Submitted) AggregateID() string   { return e.ReviewID }
func (e Submitted) OccurredAt() time.Time { return e.At }
