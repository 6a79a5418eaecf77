package availability

import (
	"context"
	"log/slog"
	"time"

	"villabay/internal/app/actor"
	"villabay/internal/app/commands"
	"villabay/internal/app/coordinator"
	"villabay/internal/app/uow"
	domainavailability "villabay/internal/domain/availability"
	"villabay/internal/domain/shared/daterange"
	"villabay/internal/domain/shared/fault"
	domainvilla "villabay/internal/domain/villa"
)

const setAvailabilityKey = "availability.set"

var ErrDatesHeld = fault.New(fault.KindConflict, "availability: dates are held by an active booking")

// SetAvailabilityCommand lets the host close or reopen calendar dates
// by hand, or apply an external calendar sync. Booking-held dates are
// managed by the ledger and cannot be touched here.
type SetAvailabilityCommand struct {
	VillaID   string
	CheckIn   time.Time
	CheckOut  time.Time
	Available bool
	Source    domainavailability.Source
	Actor     actor.Actor
}

func (c SetAvailabilityCommand) Key() string { return setAvailabilityKey }

type SetAvailabilityHandler struct {
	UoWFactory uow.Factory
	Locks      *coordinator.VillaLocks
	Logger     *slog.Logger
}

func (h *SetAvailabilityHandler) Handle(ctx context.Context, cmd SetAvailabilityCommand) (struct{}, error) {
	dr, err := daterange.New(cmd.CheckIn, cmd.CheckOut)
	if err != nil {
		return struct{}{}, fault.Wrap(fault.KindValidation, err)
	}
	source := cmd.Source
	if source == "" {
		source = domainavailability.SourceManual
	}
	if source == domainavailability.SourceBooking {
		return struct{}{}, fault.New(fault.KindValidation, "availability: booking source is reserved for the ledger")
	}

	ctx, unit, managed, err := uow.Require(ctx, h.UoWFactory, uow.TxOptions{})
	if err != nil {
		return struct{}{}, err
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
		return struct{}{}, err
	}
	if cmd.Actor.UserUID != v.HostID && !cmd.Actor.IsAdmin() {
		return struct{}{}, actor.ErrForbidden
	}

	now := time.Now().UTC()
	err = h.Locks.Do(v.ID, func() error {
		overlapping, err := unit.Bookings().ActiveOverlapping(ctx, v.ID, dr)
		if err != nil {
			return err
		}
		if len(overlapping) > 0 {
			return ErrDatesHeld
		}

		cal, err := unit.Availability().Calendar(ctx, v.ID)
		if err != nil {
			return err
		}
		cal.SetAvailability(dr, cmd.Available, source, now)
		return unit.Availability().Save(ctx, cal)
	})
	if err != nil {
		return struct{}{}, err
	}

	if managed {
		if err := unit.Commit(ctx); err != nil {
			return struct{}{}, err
		}
		committed = true
	}
	if h.Logger != nil {
		h.Logger.Info("availability updated", "villa_id", v.ID, "available", cmd.Available, "source", source)
	}
	return struct{}{}, nil
}

var _ commands.Handler[SetAvailabilityCommand, struct{}] = (*SetAvailabilityHandler)(nil)
