package villa

import (
	"context"

	"villabay/internal/domain/shared/fault"
	"villabay/internal/domain/shared/money"
)

var (
	ErrNotFound = fault.New(fault.KindNotFound, "villa: not found")
	ErrNotLive  = fault.New(fault.KindState, "villa: listing is not live")
)

type ID string

type Status string

const (
	StatusDraft     Status = "draft"
	StatusPending   Status = "pending_approval"
	StatusLive      Status = "live"
	StatusSuspended Status = "suspended"
)

// Villa is the listing record as seen by the booking engine. Listing
// CRUD and moderation live elsewhere; the engine only reads it, and
// only Status gates bookability.
type Villa struct {
	ID            ID
	HostID        string
	Status        Status
	Name          string
	GuestLimit    int
	MinStayNights int
	MaxStayNights int
	InstantBook   bool
	NightlyRate   money.Money
	CleaningFee   money.Money
}

type Repository interface {
	ByID(ctx context.Context, id ID) (*Villa, error)
	Save(ctx context.Context, v *Villa) error
}

// Bookable returns nil only for live listings.
func (v *Villa) Bookable() error {
	if v.Status != StatusLive {
		return ErrNotLive
	}
	return nil
}

// AcceptsGuests checks the party size against the villa capacity.
func (v *Villa) AcceptsGuests(count int) bool {
	return count > 0 && count <= v.GuestLimit
}

// AcceptsStay checks the number of nights against min/max stay limits.
// A zero max means no upper bound.
func (v *Villa) AcceptsStay(nights int) bool {
	if nights < v.MinStayNights {
		return false
	}
	if v.MaxStayNights > 0 && nights > v.MaxStayNights {
		return false
	}
	return true
}
