package middleware_test

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"villabay/internal/app/commands"
	"villabay/internal/app/middleware"
	"villabay/internal/app/uow"
	domainavailability "villabay/internal/domain/availability"
	domainbooking "villabay/internal/domain/booking"
	domainpayout "villabay/internal/domain/payout"
	domainreview "villabay/internal/domain/review"
	domainvilla "villabay/internal/domain/villa"
)

type sessionKey struct{}

// injectingUnit mimics a session-carrying unit of work: repository
// calls only join its transaction when the session rides the context.
type injectingUnit struct {
	committed  bool
	rolledBack bool
}

func (u *injectingUnit) Villas() domainvilla.Repository { return nil }

func (u *injectingUnit) Availability() domainavailability.Repository { return nil }

func (u *injectingUnit) Bookings() domainbooking.Repository { return nil }

func (u *injectingUnit) Reviews() domainreview.Repository { return nil }

func (u *injectingUnit) Payouts() domainpayout.Repository { return nil }

func (u *injectingUnit) Commit(ctx context.Context) error {
	u.committed = true
	return nil
}

func (u *injectingUnit) Rollback(ctx context.Context) error {
	u.rolledBack = true
	return nil
}

func (u *injectingUnit) InjectContext(ctx context.Context) context.Context {
	return context.WithValue(ctx, sessionKey{}, u)
}

type injectingFactory struct {
	unit *injectingUnit
}

func (f injectingFactory) Begin(ctx context.Context, opts uow.TxOptions) (uow.UnitOfWork, error) {
	return f.unit, nil
}

type ctxRecorder struct {
	sessionSeen bool
	unitSeen    bool
}

func (h *ctxRecorder) Handle(ctx context.Context, cmd echoCommand) (*echoResult, error) {
	_, h.sessionSeen = ctx.Value(sessionKey{}).(*injectingUnit)
	_, h.unitSeen = uow.FromContext(ctx)
	return &echoResult{Value: cmd.Value}, nil
}

func TestTransactionThreadsSessionContext(t *testing.T) {
	unit := &injectingUnit{}
	rec := &ctxRecorder{}
	base := commands.NewInMemoryBus()
	commands.Register[echoCommand, *echoResult](base, echoCommand{}.Key(), rec)
	bus := middleware.Chain(base, middleware.Transaction(injectingFactory{unit: unit}, nil))

	_, err := commands.Dispatch[echoCommand, *echoResult](context.Background(), bus, echoCommand{Value: "one"})
	require.NoError(t, err)

	assert.True(t, rec.sessionSeen, "handler context must carry the backend session")
	assert.True(t, rec.unitSeen)
	assert.True(t, unit.committed)
	assert.False(t, unit.rolledBack)
}

func TestRequireInjectsSessionContext(t *testing.T) {
	unit := &injectingUnit{}

	ctx, got, managed, err := uow.Require(context.Background(), injectingFactory{unit: unit}, uow.TxOptions{})
	require.NoError(t, err)
	assert.True(t, managed)
	assert.Same(t, unit, got.(*injectingUnit))
	_, ok := ctx.Value(sessionKey{}).(*injectingUnit)
	assert.True(t, ok, "self-managed units must thread their session too")
}
