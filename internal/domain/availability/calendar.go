package availability

import (
	"context"
	"time"

	"villabay/internal/domain/shared/daterange"
	"villabay/internal/domain/shared/fault"
	"villabay/internal/domain/shared/money"
	"villabay/internal/domain/villa"
)

var (
	ErrDatesUnavailable = fault.New(fault.KindConflict, "availability: dates are not available")
	ErrHoldNotFound     = fault.New(fault.KindNotFound, "availability: no hold for booking")
	ErrRuleRange        = fault.New(fault.KindValidation, "availability: pricing rule range invalid")
)

// Source records why a calendar date was touched.
type Source string

const (
	SourceManual  Source = "manual"
	SourceSync    Source = "sync"
	SourceBooking Source = "booking"
)

const dayKeyFormat = "2006-01-02"

// Entry is the availability state of a single villa night. Absence of
// an entry means the night is open.
type Entry struct {
	Date      time.Time
	Available bool
	Source    Source
	Reference string
	UpdatedAt time.Time
}

// PricingRule overrides the villa base rate for a date range. When
// several rules cover a night the one with the shortest total span
// wins; equal spans resolve to the most recently created rule.
type PricingRule struct {
	ID          string
	Range       daterange.DateRange
	NightlyRate money.Money
	Notes       string
	CreatedAt   time.Time
}

// Calendar is the per-villa availability index: date-level entries plus
// the pricing rule overlay. It is a pure bookkeeping structure; writes
// reach it only through the reservation coordinator's villa lock.
type Calendar struct {
	VillaID villa.ID
	Entries map[string]Entry
	Rules   []PricingRule
	Version int64
}

type Repository interface {
	Calendar(ctx context.Context, id villa.ID) (*Calendar, error)
	Save(ctx context.Context, cal *Calendar) error
}

func NewCalendar(id villa.ID) *Calendar {
	return &Calendar{VillaID: id, Entries: make(map[string]Entry)}
}

func dayKey(t time.Time) string {
	return daterange.Day(t).Format(dayKeyFormat)
}

// CanReserve reports whether every night in the range is open: no
// entry at all, or an entry still marked available.
func (c *Calendar) CanReserve(r daterange.DateRange) bool {
	free := true
	r.EachNight(func(d time.Time) bool {
		if e, ok := c.Entries[dayKey(d)]; ok && !e.Available {
			free = false
			return false
		}
		return true
	})
	return free
}

// Hold marks every night of the stay unavailable with source=booking.
// Dates close the moment a booking is accepted, pending included, so a
// second request for the same nights fails instead of double-holding.
func (c *Calendar) Hold(r daterange.DateRange, bookingID string, now time.Time) error {
	if !c.CanReserve(r) {
		return ErrDatesUnavailable
	}
	r.EachNight(func(d time.Time) bool {
		c.Entries[dayKey(d)] = Entry{
			Date:      d,
			Available: false,
			Source:    SourceBooking,
			Reference: bookingID,
			UpdatedAt: now.UTC(),
		}
		return true
	})
	return nil
}

// Release restores every night held by the given booking. Nights closed
// by other sources are left untouched.
func (c *Calendar) Release(bookingID string, now time.Time) error {
	released := false
	for key, e := range c.Entries {
		if e.Source == SourceBooking && e.Reference == bookingID {
			delete(c.Entries, key)
			released = true
		}
	}
	if !released {
		return ErrHoldNotFound
	}
	return nil
}

// SetAvailability records a manual or external-sync override for every
// night in the range.
func (c *Calendar) SetAvailability(r daterange.DateRange, available bool, source Source, now time.Time) {
	if source == "" {
		source = SourceManual
	}
	r.EachNight(func(d time.Time) bool {
		c.Entries[dayKey(d)] = Entry{
			Date:      d,
			Available: available,
			Source:    source,
			UpdatedAt: now.UTC(),
		}
		return true
	})
}

// AddRule appends a pricing rule after validating its range.
func (c *Calendar) AddRule(rule PricingRule) error {
	if err := rule.Range.Validate(); err != nil {
		return ErrRuleRange
	}
	if rule.NightlyRate.Amount < 0 {
		return ErrRuleRange
	}
	c.Rules = append(c.Rules, rule)
	return nil
}

// NightRate is one night of a quote.
type NightRate struct {
	Date time.Time
	Rate money.Money
}

// Quote resolves the nightly price for every night of the stay and the
// pre-fee subtotal. Nights with no covering rule use the base rate.
func (c *Calendar) Quote(r daterange.DateRange, baseRate money.Money) (Quote, error) {
	if err := r.Validate(); err != nil {
		return Quote{}, fault.Wrap(fault.KindValidation, err)
	}
	q := Quote{Nights: make([]NightRate, 0, r.Nights()), Subtotal: money.Money{Currency: baseRate.Currency}}
	var err error
	r.EachNight(func(d time.Time) bool {
		rate := c.rateFor(d, baseRate)
		q.Nights = append(q.Nights, NightRate{Date: d, Rate: rate})
		q.Subtotal, err = q.Subtotal.Add(rate)
		return err == nil
	})
	if err != nil {
		return Quote{}, err
	}
	return q, nil
}

// Quote is the per-night price breakdown before fees.
type Quote struct {
	Nights   []NightRate
	Subtotal money.Money
}

func (c *Calendar) rateFor(night time.Time, base money.Money) money.Money {
	var best *PricingRule
	for i := range c.Rules {
		rule := &c.Rules[i]
		if !rule.Range.ContainsDate(night) {
			continue
		}
		if best == nil {
			best = rule
			continue
		}
		switch {
		case rule.Range.Span() < best.Range.Span():
			best = rule
		case rule.Range.Span() == best.Range.Span() && rule.CreatedAt.After(best.CreatedAt):
			best = rule
		}
	}
	if best == nil {
		return base
	}
	return best.NightlyRate
}
