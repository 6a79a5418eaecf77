package booking

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"villabay/internal/app/actor"
	domainbooking "villabay/internal/domain/booking"
	"villabay/internal/domain/shared/daterange"
	domainvilla "villabay/internal/domain/villa"
)

func pendingBooking(t *testing.T, e *env, v *domainvilla.Villa) string {
	t.Helper()
	create := &CreateBookingHandler{UoWFactory: e.factory, Locks: e.locks, Fees: e.fees, Outbox: e.outbox}
	checkIn, checkOut := futureStay(3)
	result, err := create.Handle(context.Background(), createCommand(string(v.ID), checkIn, checkOut))
	require.NoError(t, err)
	require.Equal(t, "pending", result.Status)
	return result.ID
}

func TestApproveBookingConfirms(t *testing.T) {
	e := newEnv()
	v := e.seedVilla(t, nil)
	id := pendingBooking(t, e, v)

	h := &ApproveBookingHandler{UoWFactory: e.factory, Locks: e.locks, Outbox: e.outbox}
	result, err := h.Handle(context.Background(), ApproveBookingCommand{BookingID: id, Actor: hostActor()})
	require.NoError(t, err)

	assert.Equal(t, "confirmed", result.Status)
	assert.EqualValues(t, 89_200, result.PayoutAmount.Amount)
}

func TestApproveBookingGuestForbidden(t *testing.T) {
	e := newEnv()
	v := e.seedVilla(t, nil)
	id := pendingBooking(t, e, v)

	h := &ApproveBookingHandler{UoWFactory: e.factory, Locks: e.locks, Outbox: e.outbox}
	_, err := h.Handle(context.Background(), ApproveBookingCommand{BookingID: id, Actor: guestActor()})
	assert.ErrorIs(t, err, actor.ErrForbidden)
}

func TestApproveTwiceFails(t *testing.T) {
	e := newEnv()
	v := e.seedVilla(t, nil)
	id := pendingBooking(t, e, v)

	h := &ApproveBookingHandler{UoWFactory: e.factory, Locks: e.locks, Outbox: e.outbox}
	_, err := h.Handle(context.Background(), ApproveBookingCommand{BookingID: id, Actor: hostActor()})
	require.NoError(t, err)
	_, err = h.Handle(context.Background(), ApproveBookingCommand{BookingID: id, Actor: hostActor()})
	assert.ErrorIs(t, err, domainbooking.ErrInvalidState)
}

func TestRejectBookingReleasesDates(t *testing.T) {
	e := newEnv()
	v := e.seedVilla(t, nil)
	create := &CreateBookingHandler{UoWFactory: e.factory, Locks: e.locks, Fees: e.fees, Outbox: e.outbox}
	checkIn, checkOut := futureStay(3)
	result, err := create.Handle(context.Background(), createCommand(string(v.ID), checkIn, checkOut))
	require.NoError(t, err)

	h := &RejectBookingHandler{UoWFactory: e.factory, Locks: e.locks, Outbox: e.outbox}
	rejected, err := h.Handle(context.Background(), RejectBookingCommand{BookingID: result.ID, Reason: "dates blocked", Actor: hostActor()})
	require.NoError(t, err)

	assert.Equal(t, "rejected", rejected.Status)
	assert.Equal(t, "dates blocked", rejected.CancellationReason)

	cal, err := e.factory.AvailabilityRepo.Calendar(context.Background(), v.ID)
	require.NoError(t, err)
	dr, err := daterange.New(checkIn, checkOut)
	require.NoError(t, err)
	assert.True(t, cal.CanReserve(dr))
}

func TestRejectConfirmedBookingFails(t *testing.T) {
	e := newEnv()
	v := e.seedVilla(t, nil)
	checkIn, checkOut := futureStay(3)
	b := e.seedConfirmedBooking(t, "bk-1", v, checkIn, checkOut)

	h := &RejectBookingHandler{UoWFactory: e.factory, Locks: e.locks, Outbox: e.outbox}
	_, err := h.Handle(context.Background(), RejectBookingCommand{BookingID: string(b.ID), Reason: "late", Actor: hostActor()})
	assert.ErrorIs(t, err, domainbooking.ErrInvalidState)
}
