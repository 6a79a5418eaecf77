package booking

import (
	"context"
	"log/slog"
	"time"

	"github.com/google/uuid"

	"villabay/internal/app/commands"
	"villabay/internal/app/coordinator"
	"villabay/internal/app/outbox"
	"villabay/internal/app/uow"
	domainbooking "villabay/internal/domain/booking"
	"villabay/internal/domain/payout"
	"villabay/internal/domain/shared/fault"
)

const completeDueBookingsKey = "booking.complete_due"

// CompleteDueBookingsCommand is dispatched by the background sweeper.
// Now is injectable so tests can move the clock past a checkout date.
type CompleteDueBookingsCommand struct {
	Now time.Time
}

func (c CompleteDueBookingsCommand) Key() string { return completeDueBookingsKey }

// CompleteDueBookingsHandler closes paid stays whose checkout date has
// passed: the booking completes, both review directions unlock, and a
// payout is scheduled for the host. Each booking fails or succeeds on
// its own; one bad record does not block the sweep.
type CompleteDueBookingsHandler struct {
	UoWFactory uow.Factory
	Locks      *coordinator.VillaLocks
	Outbox     outbox.Outbox
	Encoder    outbox.EventEncoder
	Logger     *slog.Logger
}

func (h *CompleteDueBookingsHandler) Handle(ctx context.Context, cmd CompleteDueBookingsCommand) (int, error) {
	ctx, unit, managed, err := uow.Require(ctx, h.UoWFactory, uow.TxOptions{})
	if err != nil {
		return 0, err
	}
	committed := false
	if managed {
		defer func() {
			if !committed {
				_ = unit.Rollback(ctx)
			}
		}()
	}

	now := cmd.Now
	if now.IsZero() {
		now = time.Now()
	}
	now = now.UTC()

	due, err := unit.Bookings().ListDueForCompletion(ctx, now)
	if err != nil {
		return 0, err
	}

	completed := 0
	for _, b := range due {
		b := b
		err := h.Locks.Do(b.VillaID, func() error {
			if err := b.Complete(now); err != nil {
				return err
			}
			if err := b.PromptReview(now); err != nil {
				return err
			}
			if err := h.schedulePayout(ctx, unit, b, now); err != nil {
				return err
			}
			if err := unit.Bookings().Save(ctx, b); err != nil {
				return err
			}
			return outbox.Drain(ctx, h.Outbox, h.Encoder, &b.EventRecorder)
		})
		if err != nil {
			if h.Logger != nil {
				h.Logger.Warn("completion sweep skipped booking", "booking_id", b.ID, "error", err)
			}
			continue
		}
		completed++
	}

	if managed {
		if err := unit.Commit(ctx); err != nil {
			return 0, err
		}
		committed = true
	}
	if h.Logger != nil && completed > 0 {
		h.Logger.Info("completion sweep finished", "completed", completed)
	}
	return completed, nil
}

func (h *CompleteDueBookingsHandler) schedulePayout(ctx context.Context, unit uow.UnitOfWork, b *domainbooking.Booking, now time.Time) error {
	_, err := unit.Payouts().ByBooking(ctx, b.ID)
	if err == nil {
		return nil
	}
	if !fault.IsKind(err, fault.KindNotFound) {
		return err
	}
	p := &payout.Payout{
		ID:        uuid.NewString(),
		HostID:    b.HostID,
		BookingID: b.ID,
		Amount:    b.PayoutAmount,
		Status:    payout.StatusScheduled,
		CreatedAt: now,
	}
	return unit.Payouts().Save(ctx, p)
}

var _ commands.Handler[CompleteDueBookingsCommand, int] = (*CompleteDueBookingsHandler)(nil)
