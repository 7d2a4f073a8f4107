// Package cli implements the tableau command-line interface.
//
// The CLI is built on cobra and shares a [pipeline.Runner] with the HTTP
// server, so results computed by either end up in the same cache.
//
// # Commands
//
//   - check: decide consistency of a knowledge base
//   - models: enumerate the completions of a knowledge base
//   - render: draw the first model as SVG, DOT or JSON
//   - explore: browse completions interactively
//   - serve: run the HTTP API
//   - cache: inspect or clear the result cache
//
// # Logging
//
// All commands support --verbose (-v) for debug-level logging, which
// includes the reasoner's branch and clash events.
package cli

import (
	"io"
	"time"

	"github.com/charmbracelet/log"
)

// newLogger creates a logger that writes to w at the given level.
// Timestamps are formatted as "HH:MM:SS.ms" (e.g., "14:32:01.45").
func newLogger(w io.Writer, level log.Level) *log.Logger {
	return log.NewWithOptions(w, log.Options{
		ReportTimestamp: true,
		TimeFormat:      "15:04:05.00",
		Level:           level,
	})
}

// progress tracks the start time of an operation and logs completion with elapsed duration.
type progress struct {
	logger *log.Logger
	start  time.Time
}

func newProgress(l *log.Logger) *progress {
	return &progress{logger: l, start: time.Now()}
}

// done logs msg along with the elapsed time, e.g. "Checked family.toml (12ms)".
func (p *progress) done(msg string, keyvals ...any) {
	p.logger.Info(msg, append(keyvals, "elapsed", time.Since(p.start).Round(time.Millisecond))...)
}
