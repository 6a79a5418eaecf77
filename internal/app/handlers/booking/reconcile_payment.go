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

const reconcilePaymentKey = "booking.reconcile_payment"

type ReconcilePaymentCommand struct {
	BookingID string
	Actor     actor.Actor
}

func (c ReconcilePaymentCommand) Key() string { return reconcilePaymentKey }

// ReconcilePaymentHandler resolves a pending payment attempt by asking
// the processor what actually happened to the charge.
type ReconcilePaymentHandler struct {
	UoWFactory uow.Factory
	Locks      *coordinator.VillaLocks
	Settlement policies.SettlementPort
	Outbox     outbox.Outbox
	Encoder    outbox.EventEncoder
	Logger     *slog.Logger
}

func (h *ReconcilePaymentHandler) Handle(ctx context.Context, cmd ReconcilePaymentCommand) (*dto.Booking, error) {
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
	if cmd.Actor.UserUID != b.GuestID && !cmd.Actor.IsAdmin() {
		return nil, actor.ErrForbidden
	}

	now := time.Now().UTC()
	err = h.Locks.Do(b.VillaID, func() error {
		// Re-load under the lock: a concurrent reconcile may have
		// already resolved the pending attempt.
		b, err = unit.Bookings().ByID(ctx, b.ID)
		if err != nil {
			return err
		}
		pending := b.PendingPayment()
		if pending == nil {
			return ErrNothingToReconcile
		}

		res, lookupErr := h.Settlement.Lookup(ctx, string(b.ID))
		if lookupErr != nil {
			return fault.Wrap(fault.KindDependency, lookupErr)
		}
		switch res.Status {
		case policies.SettlementSucceeded:
			if err := b.ResolvePayment(pending.ID, domainbooking.PaymentPaid, res.TransactionID, now); err != nil {
				return err
			}
		case policies.SettlementFailed:
			if err := b.ResolvePayment(pending.ID, domainbooking.PaymentFailed, res.TransactionID, now); err != nil {
				return err
			}
		default:
			return ErrChargeAmbiguous
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
		h.Logger.Info("payment reconciled", "booking_id", b.ID, "status", b.Status)
	}
	result := dto.MapBooking(b)
	return &result, nil
}

var _ commands.Handler[ReconcilePaymentCommand, *dto.Booking] = (*ReconcilePaymentHandler)(nil)
