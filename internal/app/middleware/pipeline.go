package middleware

import (
	"context"

	"villabay/internal/app/commands"
)

// CommandMiddleware wraps a command bus with additional behavior
// (idempotency, transactions, outbox flushing).
type CommandMiddleware func(next commands.Bus) commands.Bus

// Chain builds a command bus wrapped with the provided middleware
// (outermost first).
func Chain(base commands.Bus, mws ...CommandMiddleware) commands.Bus {
	wrapped := base
	for i := len(mws) - 1; i >= 0; i-- {
		wrapped = mws[i](wrapped)
	}
	return wrapped
}

// commandFunc allows lightweight middleware composition without new
// structs per wrapper.
type commandFunc func(ctx context.Context, cmd commands.Command) (any, error)

func (f commandFunc) Dispatch(ctx context.Context, cmd commands.Command) (any, error) {
	return f(ctx, cmd)
}

func wrap(next commands.Bus) commandFunc {
	return func(ctx context.Context, cmd commands.Command) (any, error) {
		return next.Dispatch(ctx, cmd)
	}
}
