package observability

import (
	"os"
	"time"

	"github.com/rs/zerolog"
)

func init() {
	zerolog.TimeFieldFormat = time.RFC3339Nano
}

// NewLogger returns a component-tagged JSON logger on stdout. The global
// level comes from ROUTER_LOG_LEVEL (zerolog level names); unset or
// unparseable means info.
func NewLogger(component string) zerolog.Logger {
	return NewLoggerWithLevel(component, envLevel())
}

// NewLoggerWithLevel is NewLogger with an explicit level, for tests and
// for components that need to be quieter than the global setting.
func NewLoggerWithLevel(component string, level zerolog.Level) zerolog.Logger {
	return zerolog.New(os.Stdout).
		Level(level).
		With().
		Timestamp().
		Str("component", component).
		Logger()
}

func envLevel() zerolog.Level {
	raw := os.Getenv("ROUTER_LOG_LEVEL")
	if raw == "" {
		return zerolog.InfoLevel
	}
	level, err := zerolog.ParseLevel(raw)
	if err != nil {
		return zerolog.InfoLevel
	}
	return level
}
