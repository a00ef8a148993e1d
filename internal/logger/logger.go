package logger

import (
	"log/slog"
	"os"

	"github.com/tailglowbot/tailglow/internal/config"
)

// Setup initializes structured logging for the application.
func Setup(cfg *config.Config) *slog.Logger {
	opts := &slog.HandlerOptions{
		Level: cfg.LogLevel,
	}

	var handler slog.Handler
	if cfg.Environment == "production" {
		handler = slog.NewJSONHandler(os.Stdout, opts)
	} else {
		handler = slog.NewTextHandler(os.Stdout, opts)
	}

	logger := slog.New(handler)
	slog.SetDefault(logger)

	return logger
}

// WithBattle returns a logger scoped to a single battle room.
func WithBattle(logger *slog.Logger, roomID string) *slog.Logger {
	return logger.With(slog.String("battle", roomID))
}

// WithError adds error context to a logger.
func WithError(logger *slog.Logger, err error) *slog.Logger {
	return logger.With(slog.String("error", err.Error()))
}
