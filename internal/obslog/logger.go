// Package obslog bootstraps the process-wide zerolog logger: a console
// writer for interactive use, structured JSON otherwise, RFC3339
// timestamps in both.
package obslog

import (
	"os"
	"time"

	"github.com/rs/zerolog"
)

// New configures and returns the root logger. pretty selects a
// human-readable console writer (for local/dev use); false emits
// structured JSON suitable for log aggregation in production.
func New(pretty bool, level zerolog.Level) zerolog.Logger {
	zerolog.TimeFieldFormat = time.RFC3339

	var out zerolog.Logger
	if pretty {
		out = zerolog.New(zerolog.ConsoleWriter{Out: os.Stderr, TimeFormat: time.RFC3339})
	} else {
		out = zerolog.New(os.Stderr)
	}
	return out.With().Timestamp().Logger().Level(level)
}
