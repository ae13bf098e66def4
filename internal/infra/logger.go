package infra

import (
	"os"
	"time"

	"github.com/rs/zerolog"
)

// NewLogger constructs the service logger. Development builds log debug and
// pretty-print to the console; everything else emits JSON at info level.
func NewLogger(appEnv string) zerolog.Logger {
	level := zerolog.InfoLevel
	if appEnv == "development" {
		level = zerolog.DebugLevel
	}

	logger := zerolog.New(os.Stdout).
		Level(level).
		With().
		Timestamp().
		Str("service", "comercio").
		Logger()

	if appEnv == "development" {
		logger = logger.Output(zerolog.ConsoleWriter{Out: os.Stdout, TimeFormat: time.RFC3339})
	}

	return logger
}

// Logger aliases zerolog.Logger so the rest of the codebase can take a logger
// without importing the third-party module directly.
type Logger = zerolog.Logger
