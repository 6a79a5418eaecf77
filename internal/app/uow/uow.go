package uow

import (
	"context"

	domainavailability "villabay/internal/domain/availability"
	domainbooking "villabay/internal/domain/booking"
	domainpayout "villabay/internal/domain/payout"
	domainreview "villabay/internal/domain/review"
	domainvilla "villabay/internal/domain/villa"
)

// UnitOfWork coordinates repositories inside a transaction boundary.
type UnitOfWork interface {
	Villas() domainvilla.Repository
	Availability() domainavailability.Repository
	Bookings() domainbooking.Repository
	Reviews() domainreview.Repository
	Payouts() domainpayout.Repository

	Commit(ctx context.Context) error
	Rollback(ctx context.Context) error
}

// Factory starts unit of work instances.
type Factory interface {
	Begin(ctx context.Context, opts TxOptions) (UnitOfWork, error)
}

// TxOptions configure transaction boundaries.
type TxOptions struct {
	ReadOnly bool
}
