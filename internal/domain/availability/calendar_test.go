package availability

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"villabay/internal/domain/shared/daterange"
	"villabay/internal/domain/shared/money"
	"villabay/internal/domain/villa"
)

func day(d int) time.Time {
	return time.Date(2026, time.July, d, 0, 0, 0, 0, time.UTC)
}

func mustRange(t *testing.T, from, to int) daterange.DateRange {
	t.Helper()
	dr, err := daterange.New(day(from), day(to))
	require.NoError(t, err)
	return dr
}

func TestHoldClosesEveryNight(t *testing.T) {
	cal := NewCalendar(villa.ID("villa-1"))
	now := time.Now()
	stay := mustRange(t, 10, 13)

	require.True(t, cal.CanReserve(stay))
	require.NoError(t, cal.Hold(stay, "bk-1", now))

	assert.False(t, cal.CanReserve(stay))
	assert.False(t, cal.CanReserve(mustRange(t, 12, 14)))
	// checkout day stays open for the next stay
	assert.True(t, cal.CanReserve(mustRange(t, 13, 15)))
}

func TestHoldRefusesClosedDates(t *testing.T) {
	cal := NewCalendar(villa.ID("villa-1"))
	now := time.Now()
	require.NoError(t, cal.Hold(mustRange(t, 10, 13), "bk-1", now))

	err := cal.Hold(mustRange(t, 12, 14), "bk-2", now)
	assert.ErrorIs(t, err, ErrDatesUnavailable)
}

func TestReleaseRestoresOnlyOwnNights(t *testing.T) {
	cal := NewCalendar(villa.ID("villa-1"))
	now := time.Now()
	require.NoError(t, cal.Hold(mustRange(t, 10, 13), "bk-1", now))
	cal.SetAvailability(mustRange(t, 20, 22), false, SourceManual, now)

	require.NoError(t, cal.Release("bk-1", now))

	assert.True(t, cal.CanReserve(mustRange(t, 10, 13)))
	assert.False(t, cal.CanReserve(mustRange(t, 20, 22)))
}

func TestReleaseUnknownBooking(t *testing.T) {
	cal := NewCalendar(villa.ID("villa-1"))
	err := cal.Release("bk-missing", time.Now())
	assert.ErrorIs(t, err, ErrHoldNotFound)
}

func TestSetAvailabilityReopensDates(t *testing.T) {
	cal := NewCalendar(villa.ID("villa-1"))
	now := time.Now()
	cal.SetAvailability(mustRange(t, 10, 12), false, SourceSync, now)
	require.False(t, cal.CanReserve(mustRange(t, 10, 12)))

	cal.SetAvailability(mustRange(t, 10, 12), true, SourceManual, now)
	assert.True(t, cal.CanReserve(mustRange(t, 10, 12)))
}

func TestQuoteUsesBaseRateWithoutRules(t *testing.T) {
	cal := NewCalendar(villa.ID("villa-1"))
	base := money.Must(30_000, "USD")

	q, err := cal.Quote(mustRange(t, 10, 13), base)
	require.NoError(t, err)
	require.Len(t, q.Nights, 3)
	assert.EqualValues(t, 90_000, q.Subtotal.Amount)
	for _, n := range q.Nights {
		assert.EqualValues(t, 30_000, n.Rate.Amount)
	}
}

func TestQuoteAppliesRulePerNight(t *testing.T) {
	cal := NewCalendar(villa.ID("villa-1"))
	base := money.Must(30_000, "USD")
	require.NoError(t, cal.AddRule(PricingRule{
		ID:          "rule-peak",
		Range:       mustRange(t, 10, 12),
		NightlyRate: money.Must(40_000, "USD"),
		CreatedAt:   day(1),
	}))

	q, err := cal.Quote(mustRange(t, 9, 13), base)
	require.NoError(t, err)
	require.Len(t, q.Nights, 4)
	assert.EqualValues(t, 30_000, q.Nights[0].Rate.Amount)
	assert.EqualValues(t, 40_000, q.Nights[1].Rate.Amount)
	assert.EqualValues(t, 40_000, q.Nights[2].Rate.Amount)
	assert.EqualValues(t, 30_000, q.Nights[3].Rate.Amount)
	assert.EqualValues(t, 140_000, q.Subtotal.Amount)
}

func TestQuoteShortestSpanWins(t *testing.T) {
	cal := NewCalendar(villa.ID("villa-1"))
	base := money.Must(30_000, "USD")
	require.NoError(t, cal.AddRule(PricingRule{
		ID:          "rule-season",
		Range:       mustRange(t, 1, 28),
		NightlyRate: money.Must(35_000, "USD"),
		CreatedAt:   day(1),
	}))
	require.NoError(t, cal.AddRule(PricingRule{
		ID:          "rule-weekend",
		Range:       mustRange(t, 11, 13),
		NightlyRate: money.Must(50_000, "USD"),
		CreatedAt:   day(2),
	}))

	q, err := cal.Quote(mustRange(t, 10, 13), base)
	require.NoError(t, err)
	assert.EqualValues(t, 35_000, q.Nights[0].Rate.Amount)
	assert.EqualValues(t, 50_000, q.Nights[1].Rate.Amount)
	assert.EqualValues(t, 50_000, q.Nights[2].Rate.Amount)
}

func TestQuoteEqualSpanLatestCreatedWins(t *testing.T) {
	cal := NewCalendar(villa.ID("villa-1"))
	base := money.Must(30_000, "USD")
	require.NoError(t, cal.AddRule(PricingRule{
		ID:          "rule-old",
		Range:       mustRange(t, 10, 12),
		NightlyRate: money.Must(32_000, "USD"),
		CreatedAt:   day(1),
	}))
	require.NoError(t, cal.AddRule(PricingRule{
		ID:          "rule-new",
		Range:       mustRange(t, 10, 12),
		NightlyRate: money.Must(45_000, "USD"),
		CreatedAt:   day(2),
	}))

	q, err := cal.Quote(mustRange(t, 10, 12), base)
	require.NoError(t, err)
	assert.EqualValues(t, 45_000, q.Nights[0].Rate.Amount)
	assert.EqualValues(t, 45_000, q.Nights[1].Rate.Amount)
}

func TestAddRuleValidatesRange(t *testing.T) {
	cal := NewCalendar(villa.ID("villa-1"))
	err := cal.AddRule(PricingRule{
		ID:          "rule-bad",
		Range:       daterange.DateRange{CheckIn: day(13), CheckOut: day(10)},
		NightlyRate: money.Must(40_000, "USD"),
	})
	assert.ErrorIs(t, err, ErrRuleRange)
}
