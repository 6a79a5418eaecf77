package booking

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	domainbooking "villabay/internal/domain/booking"
	"villabay/internal/domain/payout"
	"villabay/internal/domain/shared/daterange"
)

func sweepHandler(e *env) *CompleteDueBookingsHandler {
	return &CompleteDueBookingsHandler{
		UoWFactory: e.factory,
		Locks:      e.locks,
		Outbox:     e.outbox,
	}
}

func TestSweepCompletesDueBooking(t *testing.T) {
	e := newEnv()
	v := e.seedVilla(t, nil)
	now := daterange.Day(time.Now().UTC())
	b := e.seedPaidBooking(t, "bk-1", v, now.AddDate(0, 0, -5), now.AddDate(0, 0, -2))

	count, err := sweepHandler(e).Handle(context.Background(), CompleteDueBookingsCommand{Now: now})
	require.NoError(t, err)
	assert.Equal(t, 1, count)

	stored, err := e.factory.BookingRepo.ByID(context.Background(), b.ID)
	require.NoError(t, err)
	assert.Equal(t, domainbooking.StatusCompleted, stored.Status)
	assert.True(t, stored.ReviewPrompted)

	p, err := e.factory.PayoutRepo.ByBooking(context.Background(), b.ID)
	require.NoError(t, err)
	assert.Equal(t, v.HostID, p.HostID)
	assert.Equal(t, payout.StatusScheduled, p.Status)
	assert.Equal(t, stored.PayoutAmount.Amount, p.Amount.Amount)
}

func TestSweepSecondRunIsNoop(t *testing.T) {
	e := newEnv()
	v := e.seedVilla(t, nil)
	now := daterange.Day(time.Now().UTC())
	b := e.seedPaidBooking(t, "bk-1", v, now.AddDate(0, 0, -5), now.AddDate(0, 0, -2))

	h := sweepHandler(e)
	_, err := h.Handle(context.Background(), CompleteDueBookingsCommand{Now: now})
	require.NoError(t, err)

	count, err := h.Handle(context.Background(), CompleteDueBookingsCommand{Now: now})
	require.NoError(t, err)
	assert.Equal(t, 0, count)

	p, err := e.factory.PayoutRepo.ByBooking(context.Background(), b.ID)
	require.NoError(t, err)
	assert.Equal(t, payout.StatusScheduled, p.Status)
}

func TestSweepSkipsUndueBookings(t *testing.T) {
	e := newEnv()
	v := e.seedVilla(t, nil)
	now := daterange.Day(time.Now().UTC())
	// Still in progress, and a confirmed one that was never paid.
	inProgress := e.seedPaidBooking(t, "bk-1", v, now.AddDate(0, 0, -1), now.AddDate(0, 0, 2))
	unpaid := e.seedConfirmedBooking(t, "bk-2", v, now.AddDate(0, 1, 0), now.AddDate(0, 1, 3))

	count, err := sweepHandler(e).Handle(context.Background(), CompleteDueBookingsCommand{Now: now})
	require.NoError(t, err)
	assert.Equal(t, 0, count)

	stored, err := e.factory.BookingRepo.ByID(context.Background(), inProgress.ID)
	require.NoError(t, err)
	assert.Equal(t, domainbooking.StatusPaid, stored.Status)
	stored, err = e.factory.BookingRepo.ByID(context.Background(), unpaid.ID)
	require.NoError(t, err)
	assert.Equal(t, domainbooking.StatusConfirmed, stored.Status)
}

func TestSweepEmitsCompletedEvent(t *testing.T) {
	e := newEnv()
	v := e.seedVilla(t, nil)
	now := daterange.Day(time.Now().UTC())
	e.seedPaidBooking(t, "bk-1", v, now.AddDate(0, 0, -5), now.AddDate(0, 0, -2))

	_, err := sweepHandler(e).Handle(context.Background(), CompleteDueBookingsCommand{Now: now})
	require.NoError(t, err)

	records := e.outbox.Pending()
	require.Len(t, records, 1)
	assert.Equal(t, "booking.completed", records[0].Name)
}
