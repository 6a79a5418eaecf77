package booking

import (
	"context"
	"log/slog"
	"time"

	"villabay/internal/app/actor"
	"villabay/internal/app/commands"
	"villabay/internal/app/coordinator"
	"villabay/internal/app/dto"
	"villabay/internal/app/outbox"
	"villabay/internal/app/uow"
	domainbooking "villabay/internal/domain/booking"
)

const (
	approveBookingKey = "booking.approve"
	rejectBookingKey  = "booking.reject"
)

type ApproveBookingCommand struct {
	BookingID string
	Actor     actor.Actor
}

func (c ApproveBookingCommand) Key() string { return approveBookingKey }

// ApproveBookingHandler lets the villa's host accept a pending request.
// Approving anything but a pending booking is a state error; the dates
// are already held, so no calendar work happens here.
type ApproveBookingHandler struct {
	UoWFactory uow.Factory
	Locks      *coordinator.VillaLocks
	Outbox     outbox.Outbox
	Encoder    outbox.EventEncoder
	Logger     *slog.Logger
}

func (h *ApproveBookingHandler) Handle(ctx context.Context, cmd ApproveBookingCommand) (*dto.Booking, error) {
	return hostDecision(ctx, h.UoWFactory, h.Locks, h.Outbox, h.Encoder, cmd.BookingID, cmd.Actor,
		func(_ context.Context, b *domainbooking.Booking, _ uow.UnitOfWork, now time.Time) error {
			return b.Confirm(now)
		}, h.Logger, "booking approved")
}

type RejectBookingCommand struct {
	BookingID string
	Reason    string
	Actor     actor.Actor
}

func (c RejectBookingCommand) Key() string { return rejectBookingKey }

// RejectBookingHandler is the host's terminal decline of a pending
// request; the calendar hold is released so the dates reopen.
type RejectBookingHandler struct {
	UoWFactory uow.Factory
	Locks      *coordinator.VillaLocks
	Outbox     outbox.Outbox
	Encoder    outbox.EventEncoder
	Logger     *slog.Logger
}

func (h *RejectBookingHandler) Handle(ctx context.Context, cmd RejectBookingCommand) (*dto.Booking, error) {
	return hostDecision(ctx, h.UoWFactory, h.Locks, h.Outbox, h.Encoder, cmd.BookingID, cmd.Actor,
		func(ctx context.Context, b *domainbooking.Booking, unit uow.UnitOfWork, now time.Time) error {
			if err := b.Reject(cmd.Reason, now); err != nil {
				return err
			}
			return releaseDates(ctx, unit, b, now)
		}, h.Logger, "booking rejected")
}

// hostDecision wraps the shared load-authorize-mutate-save path of the
// two host decisions, all under the villa lock.
func hostDecision(
	ctx context.Context,
	factory uow.Factory,
	locks *coordinator.VillaLocks,
	box outbox.Outbox,
	encoder outbox.EventEncoder,
	bookingID string,
	act actor.Actor,
	mutate func(ctx context.Context, b *domainbooking.Booking, unit uow.UnitOfWork, now time.Time) error,
	logger *slog.Logger,
	msg string,
) (*dto.Booking, error) {
	ctx, unit, managed, err := uow.Require(ctx, factory, uow.TxOptions{})
	if err != nil {
		return nil, err
	}
	committed := false
	if managed {
		defer func() {
			if !committed {
				_ = unit.Rollback(ctx)
			}
		}()
	}

	b, err := unit.Bookings().ByID(ctx, domainbooking.ID(bookingID))
	if err != nil {
		return nil, err
	}
	if act.UserUID != b.HostID && !act.IsAdmin() {
		return nil, actor.ErrForbidden
	}

	now := time.Now().UTC()
	err = locks.Do(b.VillaID, func() error {
		// Re-load under the lock so the decision runs against the
		// current state, not the pre-lock snapshot.
		b, err = unit.Bookings().ByID(ctx, b.ID)
		if err != nil {
			return err
		}
		if err := mutate(ctx, b, unit, now); err != nil {
			return err
		}
		if err := unit.Bookings().Save(ctx, b); err != nil {
			return err
		}
		return outbox.Drain(ctx, box, encoder, &b.EventRecorder)
	})
	if err != nil {
		return nil, err
	}

	if managed {
		if err := unit.Commit(ctx); err != nil {
			return nil, err
		}
		committed = true
	}
	if logger != nil {
		logger.Info(msg, "booking_id", b.ID, "villa_id", b.VillaID, "actor", act.UserUID)
	}
	result := dto.MapBooking(b)
	return &result, nil
}

// releaseDates reopens the calendar nights held by the booking.
func releaseDates(ctx context.Context, unit uow.UnitOfWork, b *domainbooking.Booking, now time.Time) error {
	cal, err := unit.Availability().Calendar(ctx, b.VillaID)
	if err != nil {
		return err
	}
	if err := cal.Release(string(b.ID), now); err != nil {
		return err
	}
	return unit.Availability().Save(ctx, cal)
}

var _ commands.Handler[ApproveBookingCommand, *dto.Booking] = (*ApproveBookingHandler)(nil)
var _ commands.Handler[RejectBookingCommand, *dto.Booking] = (*RejectBookingHandler)(nil)
