package memory

import (
	"context"
	"errors"

	"villabay/internal/app/uow"
	domainavailability "villabay/internal/domain/availability"
	domainbooking "villabay/internal/domain/booking"
	domainpayout "villabay/internal/domain/payout"
	domainreview "villabay/internal/domain/review"
	domainvilla "villabay/internal/domain/villa"
)

// ErrFactoryMisconfigured indicates missing repositories.
var ErrFactoryMisconfigured = errors.New("memory: unit of work factory misconfigured")

// Factory wires in-memory repositories into a unit-of-work boundary.
type Factory struct {
	VillaRepo        domainvilla.Repository
	AvailabilityRepo domainavailability.Repository
	BookingRepo      domainbooking.Repository
	ReviewRepo       domainreview.Repository
	PayoutRepo       domainpayout.Repository
}

// NewFactory builds a factory over a fresh set of empty repositories.
func NewFactory() Factory {
	return Factory{
		VillaRepo:        NewVillaRepository(),
		AvailabilityRepo: NewAvailabilityRepository(),
		BookingRepo:      NewBookingRepository(),
		ReviewRepo:       NewReviewRepository(),
		PayoutRepo:       NewPayoutRepository(),
	}
}

// Begin starts a lightweight transaction boundary. No isolation is provided but
// the abstraction matches the application ports.
func (f Factory) Begin(ctx context.Context, opts uow.TxOptions) (uow.UnitOfWork, error) {
	if f.VillaRepo == nil || f.AvailabilityRepo == nil || f.BookingRepo == nil || f.ReviewRepo == nil || f.PayoutRepo == nil {
		return nil, ErrFactoryMisconfigured
	}
	return &Unit{
		villas:       f.VillaRepo,
		availability: f.AvailabilityRepo,
		bookings:     f.BookingRepo,
		reviews:      f.ReviewRepo,
		payouts:      f.PayoutRepo,
	}, nil
}

// Unit is a lightweight uow.UnitOfWork backed by in-memory stores.
type Unit struct {
	villas       domainvilla.Repository
	availability domainavailability.Repository
	bookings     domainbooking.Repository
	reviews      domainreview.Repository
	payouts      domainpayout.Repository
}

func (u *Unit) Villas() domainvilla.Repository {
	return u.villas
}

func (u *Unit) Availability() domainavailability.Repository {
	return u.availability
}

func (u *Unit) Bookings() domainbooking.Repository {
	return u.bookings
}

func (u *Unit) Reviews() domainreview.Repository {
	return u.reviews
}

func (u *Unit) Payouts() domainpayout.Repository {
	return u.payouts
}

func (u *Unit) Commit(ctx context.Context) error {
	return nil
}

func (u *Unit) Rollback(ctx context.Context) error {
	return nil
}

var _ uow.Factory = Factory{}
