package middleware_test

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"villabay/internal/app/commands"
	"villabay/internal/app/middleware"
	"villabay/internal/domain/shared/fault"
	"villabay/internal/infra/storage/memory"
)

type echoResult struct {
	Value string `json:"value"`
}

type echoCommand struct {
	Value string
	Idem  string
}

func (c echoCommand) Key() string            { return "test.echo" }
func (c echoCommand) IdempotencyKey() string { return c.Idem }
func (c echoCommand) ResultPrototype() any   { return &echoResult{} }

type echoHandler struct {
	calls int
	fail  error
}

func (h *echoHandler) Handle(ctx context.Context, cmd echoCommand) (*echoResult, error) {
	h.calls++
	if h.fail != nil {
		return nil, h.fail
	}
	return &echoResult{Value: cmd.Value}, nil
}

func newBus(h *echoHandler) commands.Bus {
	base := commands.NewInMemoryBus()
	commands.Register[echoCommand, *echoResult](base, echoCommand{}.Key(), h)
	return middleware.Chain(base, middleware.Idempotency(memory.NewIdempotencyStore(), nil))
}

func TestIdempotencyReplaysResult(t *testing.T) {
	h := &echoHandler{}
	bus := newBus(h)

	first, err := commands.Dispatch[echoCommand, *echoResult](context.Background(), bus, echoCommand{Value: "one", Idem: "key-1"})
	require.NoError(t, err)
	assert.Equal(t, "one", first.Value)

	// Same key, different payload: the stored result wins and the
	// handler does not run again.
	second, err := commands.Dispatch[echoCommand, *echoResult](context.Background(), bus, echoCommand{Value: "two", Idem: "key-1"})
	require.NoError(t, err)
	assert.Equal(t, "one", second.Value)
	assert.Equal(t, 1, h.calls)
}

func TestIdempotencyReplaysError(t *testing.T) {
	h := &echoHandler{fail: errors.New("processor exploded")}
	bus := newBus(h)

	_, err := commands.Dispatch[echoCommand, *echoResult](context.Background(), bus, echoCommand{Value: "one", Idem: "key-1"})
	require.Error(t, err)

	h.fail = nil
	_, err = commands.Dispatch[echoCommand, *echoResult](context.Background(), bus, echoCommand{Value: "one", Idem: "key-1"})
	require.Error(t, err)
	assert.Equal(t, "processor exploded", err.Error())
	assert.Equal(t, 1, h.calls)
}

func TestIdempotencyReplayKeepsErrorKind(t *testing.T) {
	h := &echoHandler{fail: fault.New(fault.KindConflict, "dates are taken")}
	bus := newBus(h)

	_, err := commands.Dispatch[echoCommand, *echoResult](context.Background(), bus, echoCommand{Value: "one", Idem: "key-1"})
	require.Error(t, err)

	// The replayed error must map to the same HTTP status as the
	// original, so the kind survives the round trip through the store.
	h.fail = nil
	_, err = commands.Dispatch[echoCommand, *echoResult](context.Background(), bus, echoCommand{Value: "one", Idem: "key-1"})
	require.Error(t, err)
	assert.True(t, fault.IsKind(err, fault.KindConflict))
	assert.Equal(t, "dates are taken", err.Error())
	assert.Equal(t, 1, h.calls)
}

func TestIdempotencyEmptyKeyPassesThrough(t *testing.T) {
	h := &echoHandler{}
	bus := newBus(h)

	_, err := commands.Dispatch[echoCommand, *echoResult](context.Background(), bus, echoCommand{Value: "one"})
	require.NoError(t, err)
	_, err = commands.Dispatch[echoCommand, *echoResult](context.Background(), bus, echoCommand{Value: "one"})
	require.NoError(t, err)
	assert.Equal(t, 2, h.calls)
}

func TestIdempotencyDistinctKeys(t *testing.T) {
	h := &echoHandler{}
	bus := newBus(h)

	_, err := commands.Dispatch[echoCommand, *echoResult](context.Background(), bus, echoCommand{Value: "one", Idem: "key-1"})
	require.NoError(t, err)
	result, err := commands.Dispatch[echoCommand, *echoResult](context.Background(), bus, echoCommand{Value: "two", Idem: "key-2"})
	require.NoError(t, err)
	assert.Equal(t, "two", result.Value)
	assert.Equal(t, 2, h.calls)
}
