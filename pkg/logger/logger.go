// Package logger builds the slog loggers used across folio. Commands get a
// pretty terminal logger or a plain text one, and the API server can
// additionally mirror records as JSON into a log file.
package logger

import (
	"context"
	"io"
	"log/slog"
	"os"

	charmlog "github.com/charmbracelet/log"
)

type config struct {
	level     slog.Level
	pretty    bool
	json      bool
	source    bool
	component string
	writers   []io.Writer
}

// New creates a *slog.Logger configured by the given options.
// Without options it is a text handler at Info level writing to os.Stdout.
func New(opts ...Option) *slog.Logger {
	c := &config{level: slog.LevelInfo}
	for _, opt := range opts {
		opt(c)
	}

	l := slog.New(c.handler(c.output()))
	if c.component != "" {
		l = l.With("component", c.component)
	}
	return l
}

func (c *config) output() io.Writer {
	switch len(c.writers) {
	case 0:
		return os.Stdout
	case 1:
		return c.writers[0]
	default:
		return io.MultiWriter(c.writers...)
	}
}

func (c *config) handler(w io.Writer) slog.Handler {
	if c.pretty {
		return charmlog.NewWithOptions(w, charmlog.Options{
			Level:           charmlog.Level(c.level),
			ReportTimestamp: true,
			ReportCaller:    c.source,
		})
	}

	opts := &slog.HandlerOptions{Level: c.level, AddSource: c.source}
	if c.json {
		return slog.NewJSONHandler(w, opts)
	}
	return slog.NewTextHandler(w, opts)
}

// Nop returns a logger that discards everything.
func Nop() *slog.Logger {
	return slog.New(nopHandler{})
}

type nopHandler struct{}

func (nopHandler) Enabled(context.Context, slog.Level) bool  { return false }
func (nopHandler) Handle(context.Context, slog.Record) error { return nil }
func (h nopHandler) WithAttrs([]slog.Attr) slog.Handler      { return h }
func (h nopHandler) WithGroup(string) slog.Handler           { return h }
