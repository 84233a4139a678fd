package logger

import (
	"os"
	"strings"
	"time"

	"github.com/rs/zerolog"
)

// Logger is the process-wide root logger. Components derive their own
// sub-logger via Logger.With().Str("component", ...). The default writes to
// stderr so components built before Init still log somewhere sensible.
var Logger = zerolog.New(os.Stderr).With().Timestamp().Logger()

// Init configures the root logger. Level comes from LOG_LEVEL
// (debug|info|warn|error, default info); LOG_PRETTY=true switches to the
// human-readable console writer for local runs.
func Init() {
	zerolog.TimeFieldFormat = time.RFC3339

	level := zerolog.InfoLevel
	if raw := strings.ToLower(os.Getenv("LOG_LEVEL")); raw != "" {
		if parsed, err := zerolog.ParseLevel(raw); err == nil {
			level = parsed
		}
	}

	out := zerolog.New(os.Stdout)
	if strings.EqualFold(os.Getenv("LOG_PRETTY"), "true") {
		out = zerolog.New(zerolog.ConsoleWriter{Out: os.Stdout, TimeFormat: "15:04:05"})
	}

	Logger = out.Level(level).With().Timestamp().Logger()
}

// With returns a component-scoped sub-logger.
func With(component string) zerolog.Logger {
	return Logger.With().Str("component", component).Logger()
}
