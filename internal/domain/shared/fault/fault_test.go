package fault

import (
	"errors"
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestKindOfWalksChain(t *testing.T) {
	base := New(KindConflict, "dates taken")
	wrapped := fmt.Errorf("creating booking: %w", base)

	assert.Equal(t, KindConflict, KindOf(wrapped))
	assert.True(t, IsKind(wrapped, KindConflict))
	assert.False(t, IsKind(wrapped, KindValidation))
}

func TestWrapPreservesOriginal(t *testing.T) {
	cause := errors.New("connection reset")
	err := Wrap(KindDependency, cause)

	assert.Equal(t, KindDependency, KindOf(err))
	assert.ErrorIs(t, err, cause)
	assert.Equal(t, "connection reset", err.Error())
}

func TestWrapNilIsNil(t *testing.T) {
	assert.NoError(t, Wrap(KindDependency, nil))
}

func TestSentinelsCompareWithErrorsIs(t *testing.T) {
	sentinel := New(KindState, "booking: invalid state transition")
	wrapped := fmt.Errorf("approve: %w", sentinel)
	assert.ErrorIs(t, wrapped, sentinel)
}

func TestKindOfUntagged(t *testing.T) {
	assert.Equal(t, Kind(""), KindOf(errors.New("plain")))
	assert.Equal(t, Kind(""), KindOf(nil))
}
