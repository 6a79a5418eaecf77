package mongo

import (
	"context"
	"errors"

	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"

	"villabay/internal/app/uow"
	domainavailability "villabay/internal/domain/availability"
	domainbooking "villabay/internal/domain/booking"
	domainpayout "villabay/internal/domain/payout"
	domainreview "villabay/internal/domain/review"
	domainvilla "villabay/internal/domain/villa"
)

var ErrUnitOfWorkNotConfigured = errors.New("mongo: unit of work factory missing database")

// Factory wires Mongo transactions into the generic UnitOfWork interface.
type Factory struct {
	DB *mongo.Database

	VillaRepo        domainvilla.Repository
	AvailabilityRepo domainavailability.Repository
	BookingRepo      domainbooking.Repository
	ReviewRepo       domainreview.Repository
	PayoutRepo       domainpayout.Repository
}

// NewFactory builds the factory with repositories over db.
func NewFactory(db *mongo.Database) Factory {
	return Factory{
		DB:               db,
		VillaRepo:        NewVillaRepository(db),
		AvailabilityRepo: NewCalendarRepository(db),
		BookingRepo:      NewBookingRepository(db),
		ReviewRepo:       NewReviewRepository(db),
		PayoutRepo:       NewPayoutRepository(db),
	}
}

// Begin starts a MongoDB session/transaction.
func (f Factory) Begin(ctx context.Context, opts uow.TxOptions) (uow.UnitOfWork, error) {
	if f.DB == nil {
		return nil, ErrUnitOfWorkNotConfigured
	}
	session, err := f.DB.Client().StartSession()
	if err != nil {
		return nil, err
	}
	txnOpts := options.Transaction().SetReadConcern(f.DB.ReadConcern()).SetWriteConcern(f.DB.WriteConcern())
	if err := session.StartTransaction(txnOpts); err != nil {
		session.EndSession(ctx)
		return nil, err
	}
	return &Unit{
		db:           f.DB,
		session:      session,
		villas:       f.VillaRepo,
		availability: f.AvailabilityRepo,
		bookings:     f.BookingRepo,
		reviews:      f.ReviewRepo,
		payouts:      f.PayoutRepo,
	}, nil
}

type Unit struct {
	db      *mongo.Database
	session mongo.Session

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
	defer u.session.EndSession(ctx)
	return u.session.CommitTransaction(ctx)
}

func (u *Unit) Rollback(ctx context.Context) error {
	defer u.session.EndSession(ctx)
	return u.session.AbortTransaction(ctx)
}

// InjectContext ensures the Mongo session is available in context for downstream repos.
func (u *Unit) InjectContext(ctx context.Context) context.Context {
	return mongo.NewSessionContext(ctx, u.session)
}

var _ uow.Factory = Factory{}
