package booking

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"villabay/internal/app/actor"
	domainbooking "villabay/internal/domain/booking"
	"villabay/internal/domain/shared/daterange"
)

func cancelHandler(e *env) *CancelBookingHandler {
	return &CancelBookingHandler{
		UoWFactory: e.factory,
		Locks:      e.locks,
		Settlement: e.settlement,
		Outbox:     e.outbox,
	}
}

func TestCancelBookingReopensDates(t *testing.T) {
	e := newEnv()
	v := e.seedVilla(t, nil)
	create := &CreateBookingHandler{UoWFactory: e.factory, Locks: e.locks, Fees: e.fees, Outbox: e.outbox}
	checkIn, checkOut := futureStay(3)
	result, err := create.Handle(context.Background(), createCommand(string(v.ID), checkIn, checkOut))
	require.NoError(t, err)

	cancelled, err := cancelHandler(e).Handle(context.Background(), CancelBookingCommand{
		BookingID: result.ID, Reason: "change of plans", Actor: guestActor(),
	})
	require.NoError(t, err)

	assert.Equal(t, "cancelled", cancelled.Status)
	assert.Equal(t, "change of plans", cancelled.CancellationReason)
	require.NotNil(t, cancelled.CancelledAt)

	cal, err := e.factory.AvailabilityRepo.Calendar(context.Background(), v.ID)
	require.NoError(t, err)
	dr, err := daterange.New(checkIn, checkOut)
	require.NoError(t, err)
	assert.True(t, cal.CanReserve(dr))
}

func TestCancelPaidBookingRefundsFirst(t *testing.T) {
	e := newEnv()
	v := e.seedVilla(t, nil)
	checkIn, checkOut := futureStay(3)
	b := e.seedPaidBooking(t, "bk-1", v, checkIn, checkOut)
	cal, err := e.factory.AvailabilityRepo.Calendar(context.Background(), v.ID)
	require.NoError(t, err)
	require.NoError(t, cal.Hold(b.Range, string(b.ID), b.CreatedAt))
	require.NoError(t, e.factory.AvailabilityRepo.Save(context.Background(), cal))

	result, err := cancelHandler(e).Handle(context.Background(), CancelBookingCommand{
		BookingID: string(b.ID), Reason: "host request", Actor: hostActor(),
	})
	require.NoError(t, err)

	assert.Equal(t, "cancelled", result.Status)
	stored, err := e.factory.BookingRepo.ByID(context.Background(), b.ID)
	require.NoError(t, err)
	require.Len(t, stored.Payments, 1)
	assert.Equal(t, domainbooking.PaymentRefunded, stored.Payments[0].Status)
	require.NotNil(t, stored.Payments[0].RefundedAt)
}

func TestCancelBookingStrangerForbidden(t *testing.T) {
	e := newEnv()
	v := e.seedVilla(t, nil)
	checkIn, checkOut := futureStay(3)
	b := e.seedConfirmedBooking(t, "bk-1", v, checkIn, checkOut)

	_, err := cancelHandler(e).Handle(context.Background(), CancelBookingCommand{
		BookingID: string(b.ID), Reason: "nope",
		Actor: actor.Actor{UserUID: "stranger", Type: actor.TypeGuest, EmailVerified: true},
	})
	assert.ErrorIs(t, err, actor.ErrForbidden)
}

func TestCancelCompletedBookingFails(t *testing.T) {
	e := newEnv()
	v := e.seedVilla(t, nil)
	past := daterange.Day(time.Now().UTC()).AddDate(0, 0, -10)
	b := e.seedPaidBooking(t, "bk-1", v, past, past.AddDate(0, 0, 3))
	require.NoError(t, b.Complete(time.Now().UTC()))
	require.NoError(t, e.factory.BookingRepo.Save(context.Background(), b))

	_, err := cancelHandler(e).Handle(context.Background(), CancelBookingCommand{
		BookingID: string(b.ID), Reason: "too late", Actor: guestActor(),
	})
	assert.ErrorIs(t, err, domainbooking.ErrInvalidState)
}
