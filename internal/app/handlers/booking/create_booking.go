package booking

import (
	"context"
	"log/slog"
	"time"

	"villabay/internal/app/actor"
	"villabay/internal/app/commands"
	"villabay/internal/app/coordinator"
	"villabay/internal/app/dto"
	"villabay/internal/app/middleware"
	"villabay/internal/app/outbox"
	"villabay/internal/app/policies"
	"villabay/internal/app/uow"
	domainbooking "villabay/internal/domain/booking"
	"villabay/internal/domain/shared/daterange"
	"villabay/internal/domain/shared/fault"
	domainvilla "villabay/internal/domain/villa"
)

const createBookingKey = "booking.create"

var (
	ErrCheckInPast   = fault.New(fault.KindValidation, "booking: check-in date is in the past")
	ErrGuestLimit    = fault.New(fault.KindValidation, "booking: guest count exceeds villa capacity")
	ErrStayLength    = fault.New(fault.KindValidation, "booking: stay length outside villa limits")
	ErrDatesConflict = fault.New(fault.KindConflict, "booking: requested dates are no longer available")
)

type CreateBookingCommand struct {
	CommandID       string
	Actor           actor.Actor
	VillaID         string
	CheckIn         time.Time
	CheckOut        time.Time
	Guests          int
	IdempotencyKeyV string
}

func (c CreateBookingCommand) Key() string { return createBookingKey }

func (c CreateBookingCommand) IdempotencyKey() string { return c.IdempotencyKeyV }

func (c CreateBookingCommand) ResultPrototype() any { return &dto.Booking{} }

// CreateBookingHandler runs the full reservation path: availability
// check, quote, ledger write and calendar hold, all inside the villa's
// exclusive section so concurrent requests for overlapping dates
// cannot both succeed.
type CreateBookingHandler struct {
	UoWFactory uow.Factory
	Locks      *coordinator.VillaLocks
	Fees       policies.FeePolicy
	Outbox     outbox.Outbox
	Encoder    outbox.EventEncoder
	Logger     *slog.Logger
}

func (h *CreateBookingHandler) Handle(ctx context.Context, cmd CreateBookingCommand) (*dto.Booking, error) {
	if !cmd.Actor.EmailVerified {
		return nil, actor.ErrUnverifiedEmail
	}
	dr, err := daterange.New(cmd.CheckIn, cmd.CheckOut)
	if err != nil {
		return nil, fault.Wrap(fault.KindValidation, err)
	}
	now := time.Now().UTC()
	if dr.CheckIn.Before(daterange.Day(now)) {
		return nil, ErrCheckInPast
	}

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

	v, err := unit.Villas().ByID(ctx, domainvilla.ID(cmd.VillaID))
	if err != nil {
		return nil, err
	}
	if err := v.Bookable(); err != nil {
		return nil, err
	}
	if !v.AcceptsGuests(cmd.Guests) {
		if cmd.Guests <= 0 {
			return nil, domainbooking.ErrInvalidGuests
		}
		return nil, ErrGuestLimit
	}
	if !v.AcceptsStay(dr.Nights()) {
		return nil, ErrStayLength
	}

	var b *domainbooking.Booking

	// The availability read and ledger write must be one atomic unit
	// per villa; everything below runs under the villa lock.
	err = h.Locks.Do(v.ID, func() error {
		cal, err := unit.Availability().Calendar(ctx, v.ID)
		if err != nil {
			return err
		}
		if !cal.CanReserve(dr) {
			return ErrDatesConflict
		}
		overlapping, err := unit.Bookings().ActiveOverlapping(ctx, v.ID, dr)
		if err != nil {
			return err
		}
		if len(overlapping) > 0 {
			return ErrDatesConflict
		}

		quote, err := cal.Quote(dr, v.NightlyRate)
		if err != nil {
			return err
		}
		price := domainbooking.PriceBreakdown{
			Nights:          dr.Nights(),
			NightlySubtotal: quote.Subtotal,
			CleaningFee:     v.CleaningFee,
			ServiceFee:      h.Fees.ServiceFee(quote.Subtotal),
			TaxFee:          h.Fees.TaxFee(quote.Subtotal),
		}

		b, err = domainbooking.NewBooking(domainbooking.CreateParams{
			ID:          domainbooking.ID(cmd.CommandID),
			VillaID:     v.ID,
			GuestID:     cmd.Actor.UserUID,
			HostID:      v.HostID,
			Range:       dr,
			Guests:      cmd.Guests,
			InstantBook: v.InstantBook,
			Price:       price,
			CreatedAt:   now,
		})
		if err != nil {
			return err
		}
		if v.InstantBook {
			if err := b.Confirm(now); err != nil {
				return err
			}
		}

		// Dates close immediately, pending included, so a second
		// request cannot double-hold while the host decides.
		if err := cal.Hold(dr, string(b.ID), now); err != nil {
			return err
		}
		if err := unit.Availability().Save(ctx, cal); err != nil {
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
		h.Logger.Info("booking created", "booking_id", b.ID, "villa_id", v.ID, "status", b.Status, "guest_id", b.GuestID)
	}
	result := dto.MapBooking(b)
	return &result, nil
}

var _ commands.Handler[CreateBookingCommand, *dto.Booking] = (*CreateBookingHandler)(nil)
var _ middleware.IdempotentCommand = (*CreateBookingCommand)(nil)
