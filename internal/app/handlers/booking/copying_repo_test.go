package booking

import (
	"context"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	domainbooking "villabay/internal/domain/booking"
	"villabay/internal/domain/shared/daterange"
	"villabay/internal/domain/shared/events"
	domainvilla "villabay/internal/domain/villa"
)

// copyingBookingRepo decodes a fresh aggregate per read, the way the
// document store does, so handler state checks cannot lean on pointer
// aliasing. When primed with a rendezvous count, ByID blocks until that
// many reads are in flight, forcing racers to take their snapshots
// before either enters the villa lock.
type copyingBookingRepo struct {
	inner domainbooking.Repository

	mu    sync.Mutex
	reads int
	gate  chan struct{}
	await int
}

func newCopyingBookingRepo(inner domainbooking.Repository, rendezvous int) *copyingBookingRepo {
	r := &copyingBookingRepo{inner: inner, await: rendezvous}
	if rendezvous > 0 {
		r.gate = make(chan struct{})
	}
	return r
}

func (r *copyingBookingRepo) ByID(ctx context.Context, id domainbooking.ID) (*domainbooking.Booking, error) {
	b, err := r.inner.ByID(ctx, id)
	if err != nil {
		return nil, err
	}
	if r.gate != nil {
		r.mu.Lock()
		r.reads++
		if r.reads == r.await {
			close(r.gate)
		}
		r.mu.Unlock()
		<-r.gate
	}
	cp := *b
	cp.Payments = append([]domainbooking.PaymentRecord(nil), b.Payments...)
	cp.EventRecorder = events.EventRecorder{}
	return &cp, nil
}

func (r *copyingBookingRepo) Save(ctx context.Context, b *domainbooking.Booking) error {
	return r.inner.Save(ctx, b)
}

func (r *copyingBookingRepo) ActiveOverlapping(ctx context.Context, villaID domainvilla.ID, dr daterange.DateRange) ([]*domainbooking.Booking, error) {
	return r.inner.ActiveOverlapping(ctx, villaID, dr)
}

func (r *copyingBookingRepo) ListByGuest(ctx context.Context, guestID string) ([]*domainbooking.Booking, error) {
	return r.inner.ListByGuest(ctx, guestID)
}

func (r *copyingBookingRepo) ListDueForCompletion(ctx context.Context, now time.Time) ([]*domainbooking.Booking, error) {
	return r.inner.ListDueForCompletion(ctx, now)
}

// Two pays race on one confirmed booking. Both take a pre-lock snapshot
// before either charges; the loser must still see the winner's payment
// once inside the lock, so the processor is hit exactly once.
func TestPayBookingChargesOnceWithSnapshotReads(t *testing.T) {
	e := newEnv()
	e.factory.BookingRepo = newCopyingBookingRepo(e.factory.BookingRepo, 2)
	v := e.seedVilla(t, nil)
	checkIn, checkOut := futureStay(3)
	b := e.seedConfirmedBooking(t, "bk-1", v, checkIn, checkOut)
	h := payHandler(e)

	errs := make([]error, 2)
	var wg sync.WaitGroup
	wg.Add(2)
	for i := 0; i < 2; i++ {
		go func(i int) {
			defer wg.Done()
			_, errs[i] = h.Handle(context.Background(), PayBookingCommand{
				BookingID: string(b.ID), Method: "card", Actor: guestActor(),
			})
		}(i)
	}
	wg.Wait()

	wins, alreadyPaid := 0, 0
	for _, err := range errs {
		switch {
		case err == nil:
			wins++
		case assert.ErrorIs(t, err, domainbooking.ErrAlreadyPaid):
			alreadyPaid++
		}
	}
	assert.Equal(t, 1, wins)
	assert.Equal(t, 1, alreadyPaid)
	assert.Equal(t, 1, e.settlement.ChargeCount(string(b.ID)))

	stored, err := e.factory.BookingRepo.ByID(context.Background(), b.ID)
	require.NoError(t, err)
	assert.Equal(t, domainbooking.StatusPaid, stored.Status)
}

// Two cancels race on one paid booking; only the winner may refund.
func TestCancelBookingRefundsOnceWithSnapshotReads(t *testing.T) {
	e := newEnv()
	e.factory.BookingRepo = newCopyingBookingRepo(e.factory.BookingRepo, 2)
	v := e.seedVilla(t, nil)
	checkIn, checkOut := futureStay(3)
	b := e.seedPaidBooking(t, "bk-1", v, checkIn, checkOut)
	cal, err := e.factory.AvailabilityRepo.Calendar(context.Background(), v.ID)
	require.NoError(t, err)
	require.NoError(t, cal.Hold(b.Range, string(b.ID), b.CreatedAt))
	require.NoError(t, e.factory.AvailabilityRepo.Save(context.Background(), cal))
	h := cancelHandler(e)

	errs := make([]error, 2)
	var wg sync.WaitGroup
	wg.Add(2)
	for i := 0; i < 2; i++ {
		go func(i int) {
			defer wg.Done()
			_, errs[i] = h.Handle(context.Background(), CancelBookingCommand{
				BookingID: string(b.ID), Reason: "change of plans", Actor: guestActor(),
			})
		}(i)
	}
	wg.Wait()

	wins, invalidState := 0, 0
	for _, err := range errs {
		switch {
		case err == nil:
			wins++
		case assert.ErrorIs(t, err, domainbooking.ErrInvalidState):
			invalidState++
		}
	}
	assert.Equal(t, 1, wins)
	assert.Equal(t, 1, invalidState)
	assert.Equal(t, 1, e.settlement.RefundCount("tx-bk-1"))

	stored, err := e.factory.BookingRepo.ByID(context.Background(), b.ID)
	require.NoError(t, err)
	assert.Equal(t, domainbooking.StatusCancelled, stored.Status)
	require.Len(t, stored.Payments, 1)
	assert.Equal(t, domainbooking.PaymentRefunded, stored.Payments[0].Status)
}
