package availability

import (
	"context"
	"log/slog"
	"time"

	"github.com/google/uuid"

	"villabay/internal/app/actor"
	"villabay/internal/app/commands"
	"villabay/internal/app/coordinator"
	"villabay/internal/app/uow"
	domainavailability "villabay/internal/domain/availability"
	"villabay/internal/domain/shared/daterange"
	"villabay/internal/domain/shared/fault"
	"villabay/internal/domain/shared/money"
	domainvilla "villabay/internal/domain/villa"
)

const addPricingRuleKey = "availability.add_pricing_rule"

type AddPricingRuleCommand struct {
	VillaID     string
	CheckIn     time.Time
	CheckOut    time.Time
	NightlyRate money.Money
	Notes       string
	Actor       actor.Actor
}

func (c AddPricingRuleCommand) Key() string { return addPricingRuleKey }

// AddPricingRuleHandler overlays a seasonal or promotional rate on the
// villa calendar. Rules only affect future quotes; existing bookings
// keep their snapshotted price.
type AddPricingRuleHandler struct {
	UoWFactory uow.Factory
	Locks      *coordinator.VillaLocks
	Logger     *slog.Logger
}

func (h *AddPricingRuleHandler) Handle(ctx context.Context, cmd AddPricingRuleCommand) (string, error) {
	dr, err := daterange.New(cmd.CheckIn, cmd.CheckOut)
	if err != nil {
		return "", fault.Wrap(fault.KindValidation, err)
	}

	ctx, unit, managed, err := uow.Require(ctx, h.UoWFactory, uow.TxOptions{})
	if err != nil {
		return "", err
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
		return "", err
	}
	if cmd.Actor.UserUID != v.HostID && !cmd.Actor.IsAdmin() {
		return "", actor.ErrForbidden
	}

	rule := domainavailability.PricingRule{
		ID:          uuid.NewString(),
		Range:       dr,
		NightlyRate: cmd.NightlyRate,
		Notes:       cmd.Notes,
		CreatedAt:   time.Now().UTC(),
	}
	err = h.Locks.Do(v.ID, func() error {
		cal, err := unit.Availability().Calendar(ctx, v.ID)
		if err != nil {
			return err
		}
		if err := cal.AddRule(rule); err != nil {
			return err
		}
		return unit.Availability().Save(ctx, cal)
	})
	if err != nil {
		return "", err
	}

	if managed {
		if err := unit.Commit(ctx); err != nil {
			return "", err
		}
		committed = true
	}
	if h.Logger != nil {
		h.Logger.Info("pricing rule added", "villa_id", v.ID, "rule_id", rule.ID, "rate", cmd.NightlyRate.Amount)
	}
	return rule.ID, nil
}

var _ commands.Handler[AddPricingRuleCommand, string] = (*AddPricingRuleHandler)(nil)
