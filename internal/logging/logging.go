package logging

import (
	"io"
	"log/slog"
	"os"
	"strings"

	"github.com/pterm/pterm"
)

// Options configures New.
type Options struct {
	Level  string    // debug, info, warn, error
	JSON   bool      // JSON lines instead of the colourful terminal format
	Writer io.Writer // defaults to stderr
}

// New returns a slog logger rendered by pterm.
func New(opts Options) *slog.Logger {
	w := opts.Writer
	if w == nil {
		w = os.Stderr
	}

	pl := pterm.DefaultLogger.
		WithLevel(ParseLevel(opts.Level)).
		WithWriter(w)
	if opts.JSON {
		pl = pl.WithFormatter(pterm.LogFormatterJSON)
	}

	return slog.New(pterm.NewSlogHandler(pl))
}

// Discard returns a logger that drops everything.
func Discard() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

// ParseLevel maps a level name to pterm's levels. Unknown names mean info.
func ParseLevel(s string) pterm.LogLevel {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "trace":
		return pterm.LogLevelTrace
	case "debug":
		return pterm.LogLevelDebug
	case "warn", "warning":
		return pterm.LogLevelWarn
	case "error":
		return pterm.LogLevelError
	case "off", "disabled", "none":
		return pterm.LogLevelDisabled
	default:
		return pterm.LogLevelInfo
	}
}
