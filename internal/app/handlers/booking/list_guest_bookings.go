package booking

import (
	"context"

	"villabay/internal/app/actor"
	"villabay/internal/app/dto"
	"villabay/internal/app/queries"
	"villabay/internal/app/uow"
)

const listGuestBookingsKey = "booking.list_by_guest"

type ListGuestBookingsQuery struct {
	GuestID string
	Actor   actor.Actor
}

func (q ListGuestBookingsQuery) Key() string { return listGuestBookingsKey }

type ListGuestBookingsHandler struct {
	UoWFactory uow.Factory
}

func (h *ListGuestBookingsHandler) Handle(ctx context.Context, q ListGuestBookingsQuery) (dto.BookingCollection, error) {
	if q.Actor.UserUID != q.GuestID && !q.Actor.IsAdmin() {
		return dto.BookingCollection{}, actor.ErrForbidden
	}

	ctx, unit, managed, err := uow.Require(ctx, h.UoWFactory, uow.TxOptions{ReadOnly: true})
	if err != nil {
		return dto.BookingCollection{}, err
	}
	if managed {
		defer func() { _ = unit.Rollback(ctx) }()
	}

	list, err := unit.Bookings().ListByGuest(ctx, q.GuestID)
	if err != nil {
		return dto.BookingCollection{}, err
	}
	return dto.MapBookingCollection(list), nil
}

var _ queries.Handler[ListGuestBookingsQuery, dto.BookingCollection] = (*ListGuestBookingsHandler)(nil)
