package obs

import (
	"log/slog"
	"os"
	"time"

	"github.com/lmittmann/tint"
)

// NewLogger builds the process-wide slog logger: tinted console output
// for dev and local, JSON everywhere else. The env value comes from
// config.AppEnv.
func NewLogger(env string) *slog.Logger {
	level := slog.LevelInfo
	out := os.Stdout
	if env == "dev" || env == "local" {
		return slog.New(tint.NewHandler(out, &tint.Options{
			Level:      level,
			TimeFormat: time.RFC3339,
			AddSource:  true,
		}))
	}
	return slog.New(slog.NewJSONHandler(out, &slog.HandlerOptions{
		Level:     level,
		AddSource: true,
	}))
}
