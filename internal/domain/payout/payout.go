package payout

import (
	"context"
	"time"

	"villabay/internal/domain/booking"
	"villabay/internal/domain/shared/fault"
	"villabay/internal/domain/shared/money"
)

var ErrDuplicate = fault.New(fault.KindConflict, "payout: already scheduled for booking")

type Status string

const (
	StatusScheduled Status = "scheduled"
	StatusPaid      Status = "paid"
)

// Payout is the host-side settlement record created when a booking
// completes. The amount is the booking's derived payout_amount; the
// transfer itself happens outside this engine.
type Payout struct {
	ID        string
	HostID    string
	BookingID booking.ID
	Amount    money.Money
	Status    Status
	CreatedAt time.Time
}

type Repository interface {
	ByBooking(ctx context.Context, bookingID booking.ID) (*Payout, error)
	Save(ctx context.Context, p *Payout) error
}
