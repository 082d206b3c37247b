package atomidtesting

import (
	"log/slog"
	"os"
	"strings"

	"github.com/malbeclabs/atomid/utils/pkg/logger"
)

// NewLogger returns the project logger writing uncolored to stderr at the
// level named by DEBUG. Tests are quiet unless DEBUG is set.
func NewLogger() *slog.Logger {
	return logger.NewWithLevel(os.Stderr, LevelFromEnv(os.Getenv("DEBUG")), true)
}

// LevelFromEnv maps a DEBUG value to a level: "2" or "debug", "1" or "info",
// "warn"; anything else logs errors only.
func LevelFromEnv(v string) slog.Level {
	switch strings.ToLower(strings.TrimSpace(v)) {
	case "2", "debug":
		return slog.LevelDebug
	case "1", "info":
		return slog.LevelInfo
	case "warn":
		return slog.LevelWarn
	default:
		return slog.LevelError
	}
}
