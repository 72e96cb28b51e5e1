// Package pglog is the logging facade every component forwards child
// process output and internal progress messages through.
package pglog

import (
	"io"
	"log/slog"
	"os"
)

// Config controls the verbosity of a logger built by New.
type Config struct {
	// Debug selects slog.LevelDebug; takes priority over Verbose.
	Debug bool
	// Verbose selects slog.LevelInfo.
	Verbose bool
	// Output defaults to os.Stderr when nil.
	Output io.Writer
}

// New builds a dedicated *slog.Logger for one Database handle. Unlike the
// global default logger, each handle gets its own so that several embedded
// clusters can run in one process (e.g. a test suite) without one handle's
// verbosity flag silently changing another's output.
func New(cfg Config) *slog.Logger {
	level := slog.LevelWarn
	if cfg.Verbose {
		level = slog.LevelInfo
	}
	if cfg.Debug {
		level = slog.LevelDebug
	}
	out := cfg.Output
	if out == nil {
		out = os.Stderr
	}
	h := slog.NewTextHandler(out, &slog.HandlerOptions{Level: level})
	return slog.New(h)
}

// ChildLine forwards one line of child stdout/stderr at Info level, whatever
// the logger's verbosity; it does not switch to Debug in verbose mode. The
// default logger built by New sits at Warn, so child output only surfaces
// once Verbose or Debug is enabled.
func ChildLine(l *slog.Logger, stream string, line string) {
	l.Info("child output", slog.String("stream", stream), slog.String("line", line))
}
