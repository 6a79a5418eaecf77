package money

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNewValidatesCurrency(t *testing.T) {
	m, err := New(10_000, "usd")
	require.NoError(t, err)
	assert.Equal(t, "USD", m.Currency)
	assert.EqualValues(t, 10_000, m.Amount)

	_, err = New(100, "us")
	assert.ErrorIs(t, err, ErrInvalidCurrency)
}

func TestAddAndSubRequireSameCurrency(t *testing.T) {
	a := Must(30_000, "USD")
	b := Must(5_000, "USD")

	sum, err := a.Add(b)
	require.NoError(t, err)
	assert.EqualValues(t, 35_000, sum.Amount)

	diff, err := a.Sub(b)
	require.NoError(t, err)
	assert.EqualValues(t, 25_000, diff.Amount)

	_, err = a.Add(Must(100, "EUR"))
	assert.ErrorIs(t, err, ErrCurrencyMismatch)
}

func TestPercentTruncates(t *testing.T) {
	m := Must(10_050, "USD")
	assert.EqualValues(t, 1206, m.Percent(12).Amount)
	assert.EqualValues(t, 0, m.Percent(0).Amount)
	assert.EqualValues(t, 0, m.Percent(-5).Amount)
	assert.Equal(t, "USD", m.Percent(12).Currency)
}

func TestMultiply(t *testing.T) {
	m := Must(30_000, "USD")
	assert.EqualValues(t, 90_000, m.Multiply(3).Amount)
	assert.True(t, Must(0, "USD").IsZero())
}
