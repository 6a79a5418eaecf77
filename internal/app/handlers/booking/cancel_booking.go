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
	"villabay/internal/app/policies"
	"villabay/internal/app/uow"
	domainbooking "villabay/internal/domain/booking"
	"villabay/internal/domain/shared/fault"
)

const cancelBookingKey = "booking.cancel"

type CancelBookingCommand struct {
	BookingID string
	Reason    string
	Actor     actor.Actor
}

func (c CancelBookingCommand) Key() string { return cancelBookingKey }

// CancelBookingHandler cancels a pending, confirmed or paid booking and
// reopens its dates. For paid bookings the refund goes out first; if
// the settlement adapter fails, the booking stays exactly as it was.
type CancelBookingHandler struct {
	UoWFactory uow.Factory
	Locks      *coordinator.VillaLocks
	Settlement policies.SettlementPort
	Outbox     outbox.Outbox
	Encoder    outbox.EventEncoder
	Logger     *slog.Logger
}

func (h *CancelBookingHandler) Handle(ctx context.Context, cmd CancelBookingCommand) (*dto.Booking, error) {
	ctx, unit, managed, err := uow.Require(ctx, h.UoWFactory, uow.TxOptions{})
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

	b, err := unit.Bookings().ByID(ctx, domainbooking.ID(cmd.BookingID))
	if err != nil {
		return nil, err
	}
	if !cmd.Actor.CanTransition(b.GuestID, b.HostID) {
		return nil, actor.ErrForbidden
	}

	now := time.Now().UTC()
	err = h.Locks.Do(b.VillaID, func() error {
		// Re-load under the lock so a concurrent cancel or payment is
		// visible before the refund decision is made.
		b, err = unit.Bookings().ByID(ctx, b.ID)
		if err != nil {
			return err
		}
		if !b.Status.Active() {
			return domainbooking.ErrInvalidState
		}
		if paid := b.PaidPayment(); paid != nil {
			if h.Settlement == nil {
				return fault.New(fault.KindDependency, "booking: settlement adapter unavailable for refund")
			}
			res, err := h.Settlement.Refund(ctx, paid.TransactionID, paid.Total)
			if err != nil {
				return fault.Wrap(fault.KindDependency, err)
			}
			if res.Status != policies.SettlementSucceeded {
				return fault.New(fault.KindDependency, "booking: refund was not accepted")
			}
			if err := b.MarkRefunded(now); err != nil {
				return err
			}
		}
		if err := b.Cancel(cmd.Reason, now); err != nil {
			return err
		}
		if err := releaseDates(ctx, unit, b, now); err != nil {
			return err
		}
		if err := unit.Bookings().Save(ctx, b); err != nil {
			return err
		}
		return outbox.Drain(ctx, h.Outbox, h.Encoder, &b.EventRecorder)
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
	if h.Logger != nil {
		h.Logger.Info("booking cancelled", "booking_id", b.ID, "villa_id", b.VillaID, "actor", cmd.Actor.UserUID, "reason", cmd.Reason)
	}
	result := dto.MapBooking(b)
	return &result, nil
}

var _ commands.Handler[CancelBookingCommand, *dto.Booking] = (*CancelBookingHandler)(nil)
