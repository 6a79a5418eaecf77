package booking

import (
	"context"
	"log/slog"
	"time"

	"github.com/google/uuid"

	"villabay/internal/app/actor"
	"villabay/internal/app/commands"
	"villabay/internal/app/coordinator"
	"villabay/internal/app/dto"
	"villabay/internal/app/middleware"
	"villabay/internal/app/outbox"
	"villabay/internal/app/policies"
	"villabay/internal/app/uow"
	domainbooking "villabay/internal/domain/booking"
	"villabay/internal/domain/shared/fault"
)

const payBookingKey = "booking.pay"

var (
	ErrChargeDeclined     = fault.New(fault.KindDependency, "booking: charge was declined by the processor")
	ErrChargeAmbiguous    = fault.New(fault.KindDependency, "booking: charge outcome unknown, reconciliation required")
	ErrUnresolvedPayment  = fault.New(fault.KindState, "booking: a pending payment attempt must be reconciled first")
	ErrNothingToReconcile = fault.New(fault.KindState, "booking: no pending payment attempt to reconcile")
)

type PayBookingCommand struct {
	BookingID       string
	Method          string
	Actor           actor.Actor
	IdempotencyKeyV string
}

func (c PayBookingCommand) Key() string { return payBookingKey }

func (c PayBookingCommand) IdempotencyKey() string { return c.IdempotencyKeyV }

func (c PayBookingCommand) ResultPrototype() any { return &dto.Booking{} }

// PayBookingHandler settles a confirmed booking through the external
// processor. Exactly-once is enforced here, not by the adapter: the
// paid-record check and the charge run under the villa lock, so a
// second concurrent pay sees the first one's outcome.
type PayBookingHandler struct {
	UoWFactory uow.Factory
	Locks      *coordinator.VillaLocks
	Settlement policies.SettlementPort
	Outbox     outbox.Outbox
	Encoder    outbox.EventEncoder
	Logger     *slog.Logger
}

func (h *PayBookingHandler) Handle(ctx context.Context, cmd PayBookingCommand) (*dto.Booking, error) {
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
		// Re-load under the lock: the pre-lock snapshot may predate a
		// concurrent pay that already settled this booking.
		b, err = unit.Bookings().ByID(ctx, b.ID)
		if err != nil {
			return err
		}
		if b.PaidPayment() != nil {
			return domainbooking.ErrAlreadyPaid
		}
		if b.Status != domainbooking.StatusConfirmed {
			return domainbooking.ErrInvalidState
		}
		if b.PendingPayment() != nil {
			return ErrUnresolvedPayment
		}

		res, chargeErr := h.Settlement.Charge(ctx, string(b.ID), cmd.Method, b.Price.Total)
		record := domainbooking.PaymentRecord{
			ID:        uuid.NewString(),
			BookingID: b.ID,
			Method:    cmd.Method,
			Total:     b.Price.Total,
			CreatedAt: now,
		}
		switch {
		case chargeErr != nil || res.Status == policies.SettlementUnknown:
			// Ambiguous outcome: the ledger records a pending attempt
			// and the booking stays confirmed until reconciliation.
			record.Status = domainbooking.PaymentPending
			b.RecordPaymentAttempt(record, now)
			if err := unit.Bookings().Save(ctx, b); err != nil {
				return err
			}
			if chargeErr != nil {
				return fault.Wrap(fault.KindDependency, chargeErr)
			}
			return ErrChargeAmbiguous
		case res.Status == policies.SettlementFailed:
			record.Status = domainbooking.PaymentFailed
			record.TransactionID = res.TransactionID
			b.RecordPaymentAttempt(record, now)
			if err := unit.Bookings().Save(ctx, b); err != nil {
				return err
			}
			return ErrChargeDeclined
		}

		paidAt := now
		record.Status = domainbooking.PaymentPaid
		record.TransactionID = res.TransactionID
		record.PaidAt = &paidAt
		if err := b.MarkPaid(record, now); err != nil {
			return err
		}
		if err := unit.Bookings().Save(ctx, b); err != nil {
			return err
		}
		return outbox.Drain(ctx, h.Outbox, h.Encoder, &b.EventRecorder)
	})
	if err != nil {
		// Failed and ambiguous attempts are part of the ledger audit
		// trail, so the surrounding transaction still commits.
		if managed && (fault.IsKind(err, fault.KindDependency)) {
			if commitErr := unit.Commit(ctx); commitErr == nil {
				committed = true
			}
		}
		return nil, err
	}

	if managed {
		if err := unit.Commit(ctx); err != nil {
			return nil, err
		}
		committed = true
	}
	if h.Logger != nil {
		h.Logger.Info("booking paid", "booking_id", b.ID, "villa_id", b.VillaID, "total", b.Price.Total.Amount)
	}
	result := dto.MapBooking(b)
	return &result, nil
}

var _ commands.Handler[PayBookingCommand, *dto.Booking] = (*PayBookingHandler)(nil)
var _ middleware.IdempotentCommand = (*PayBookingCommand)(nil)
