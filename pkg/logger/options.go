package logger

import (
	"io"
	"log/slog"
)

// Option configures a Logger created with New.
type Option func(*config)

// WithDebug lowers the level to Debug when debug is true.
func WithDebug(debug bool) Option {
	return func(c *config) {
		c.level = slog.LevelInfo
		if debug {
			c.level = slog.LevelDebug
		}
	}
}

// WithPretty selects the charmbracelet/log handler for terminals. It takes
// precedence over WithJSON.
func WithPretty(pretty bool) Option {
	return func(c *config) { c.pretty = pretty }
}

// WithJSON selects slog's JSON handler.
func WithJSON(json bool) Option {
	return func(c *config) { c.json = json }
}

// WithWriter replaces the output writers with w.
func WithWriter(w io.Writer) Option {
	return WithWriters(w)
}

// WithWriters writes to every w.
func WithWriters(w ...io.Writer) Option {
	return func(c *config) { c.writers = w }
}

// WithSource adds the caller's file:line to each record.
func WithSource(source bool) Option {
	return func(c *config) { c.source = source }
}

// WithComponent tags every record with component=name, such as the command
// or subsystem emitting it.
func WithComponent(name string) Option {
	return func(c *config) { c.component = name }
}
