package app

import (
	"log/slog"
	"os"
)

// NewLogger picks the slog handler by environment: JSON at INFO for prod,
// text at DEBUG everywhere else.
func NewLogger(env string) *slog.Logger {
	var h slog.Handler
	if env == "prod" {
		h = slog.NewJSONHandler(os.Stdout, &slog.HandlerOptions{Level: slog.LevelInfo})
	} else {
		h = slog.NewTextHandler(os.Stdout, &slog.HandlerOptions{Level: slog.LevelDebug})
	}
	return slog.New(h)
}
