package logging

import (
	"fmt"
	"io"
	"log/slog"
)

// Log output formats.
const (
	FormatText = "text"
	FormatJSON = "json"
)

// New builds the process logger writing to w in the given format.
func New(w io.Writer, format string, debug bool) (*slog.Logger, error) {
	opts := &slog.HandlerOptions{Level: slog.LevelInfo}
	if debug {
		opts.Level = slog.LevelDebug
	}

	switch format {
	case FormatText, "":
		return slog.New(slog.NewTextHandler(w, opts)), nil
	case FormatJSON:
		return slog.New(slog.NewJSONHandler(w, opts)), nil
	default:
		return nil, fmt.Errorf("unknown log format %q (supported: %s, %s)", format, FormatText, FormatJSON)
	}
}
