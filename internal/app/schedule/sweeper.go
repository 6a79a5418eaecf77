package schedule

import (
	"context"
	"errors"
	"log/slog"
	"time"

	"villabay/internal/app/commands"
	bookingapp "villabay/internal/app/handlers/booking"
)

var ErrSweeperNotConfigured = errors.New("schedule: sweeper missing command bus")

// Sweeper periodically completes paid stays whose checkout has passed.
type Sweeper struct {
	Commands commands.Bus
	Interval time.Duration
	Logger   *slog.Logger
}

func (s *Sweeper) Run(ctx context.Context) error {
	if s.Commands == nil {
		return ErrSweeperNotConfigured
	}
	ticker := time.NewTicker(s.interval())
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-ticker.C:
			s.sweepOnce(ctx)
		}
	}
}

func (s *Sweeper) sweepOnce(ctx context.Context) {
	cmd := bookingapp.CompleteDueBookingsCommand{Now: time.Now()}
	count, err := commands.Dispatch[bookingapp.CompleteDueBookingsCommand, int](ctx, s.Commands, cmd)
	if err != nil {
		if s.Logger != nil {
			s.Logger.Warn("completion sweep failed", "error", err)
		}
		return
	}
	if count > 0 && s.Logger != nil {
		s.Logger.Info("completion sweep", "completed", count)
	}
}

func (s *Sweeper) interval() time.Duration {
	if s.Interval <= 0 {
		return time.Minute
	}
	return s.Interval
}
