// Package logx builds the process logger.
package logx

import (
	"os"

	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"
	"storefront/internal/config"
)

// New returns the logger for env and installs it as the zerolog global.
// Production logs JSON at info level; everything else gets a console writer
// with callers at debug level.
func New(env config.Environment) zerolog.Logger {
	var logger zerolog.Logger
	if env.IsProduction() {
		logger = zerolog.New(os.Stdout).With().Timestamp().Logger().Level(zerolog.InfoLevel)
	} else {
		logger = zerolog.New(zerolog.NewConsoleWriter()).With().Timestamp().Caller().Logger().Level(zerolog.DebugLevel)
	}
	log.Logger = logger
	return logger
}

// Component tags logger with a component name.
func Component(logger zerolog.Logger, name string) zerolog.Logger {
	return logger.With().Str("component", name).Logger()
}
