// Package logging configures the process-wide zerolog sink, grounded
// on grimnir_radio/internal/logging — the one pack repo building a
// leveled, scoped, structured log sink rather than bare log.Printf
// calls.
package logging

import (
	"io"
	"os"

	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"
)

// Setup configures zerolog for the process. environment "development"
// enables debug-level, human-readable console output; anything else
// runs at info level.
func Setup(environment string) zerolog.Logger {
	return SetupWithWriter(environment, nil)
}

// SetupWithWriter configures zerolog with an additional writer — a
// file the daemon tees its JSON log lines into alongside the console,
// for example.
func SetupWithWriter(environment string, additionalWriter io.Writer) zerolog.Logger {
	zerolog.TimeFieldFormat = zerolog.TimeFormatUnix
	level := zerolog.InfoLevel
	if environment == "development" {
		level = zerolog.DebugLevel
	}

	consoleWriter := zerolog.ConsoleWriter{Out: os.Stdout}

	var writer io.Writer = consoleWriter
	if additionalWriter != nil {
		writer = zerolog.MultiLevelWriter(consoleWriter, additionalWriter)
	}

	logger := zerolog.New(writer).With().Timestamp().Logger().Level(level)
	log.Logger = logger
	return logger
}

// Scoped returns logger with component attached as a field, so each
// package (reader, montage, worker) tags its lines without repeating
// itself at every call site.
func Scoped(logger zerolog.Logger, component string) zerolog.Logger {
	return logger.With().Str("component", component).Logger()
}
