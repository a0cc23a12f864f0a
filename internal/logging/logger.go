package logging

import (
	"io"
	"log/slog"
	"math"
	"os"
	"time"

	"github.com/lmittmann/tint"

	"github.com/i474232898/weather-friend/internal/config"
)

// New builds the process logger: colored text in dev, JSON in prod.
func New(cfg *config.Settings, version string, appName string) *slog.Logger {
	if cfg.AppEnv == "dev" {
		h := tint.NewHandler(os.Stdout, &tint.Options{
			Level:      cfg.LogLevel,
			AddSource:  true,
			TimeFormat: time.Kitchen,
		})
		return slog.New(h).With("app", appName)
	}

	h := slog.NewJSONHandler(os.Stdout, &slog.HandlerOptions{
		Level: cfg.LogLevel,
	})
	return slog.New(h).With(
		"app", appName,
		"version", version,
	)
}

// Discard returns a logger that drops everything. Used when no logger is injected.
func Discard() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, &slog.HandlerOptions{Level: slog.Level(math.MaxInt)}))
}
