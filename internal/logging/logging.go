// Package logging configures the process-wide zerolog logger: a
// terminal-aware console writer for interactive use, structured JSON
// otherwise.
package logging

import (
	"os"
	"time"

	"github.com/rs/zerolog"
	"golang.org/x/term"
)

// New builds a zerolog.Logger writing to stderr: a human-readable console
// writer when stderr is a terminal, structured JSON otherwise. level is
// parsed with zerolog.ParseLevel; an unrecognised level falls back to info.
func New(level string) zerolog.Logger {
	lvl, err := zerolog.ParseLevel(level)
	if err != nil {
		lvl = zerolog.InfoLevel
	}

	var output = os.Stderr
	var writer zerolog.ConsoleWriter
	if term.IsTerminal(int(output.Fd())) {
		writer = zerolog.ConsoleWriter{Out: output, TimeFormat: time.RFC3339}
		return zerolog.New(writer).Level(lvl).With().Timestamp().Logger()
	}
	return zerolog.New(output).Level(lvl).With().Timestamp().Logger()
}

// Adapter satisfies the small Warnf/Infof logging seams consumed by the
// scanner, index, and watch packages, without those packages importing
// zerolog directly.
type Adapter struct {
	Logger zerolog.Logger
}

func (a Adapter) Warnf(format string, args ...any) {
	a.Logger.Warn().Msgf(format, args...)
}

func (a Adapter) Infof(format string, args ...any) {
	a.Logger.Info().Msgf(format, args...)
}
