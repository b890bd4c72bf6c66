package logging

import (
	"fmt"
	"io"
	"log/slog"
	"strings"
)

// Formats accepted by Open.
const (
	FormatText = "text"
	FormatJSON = "json"
)

// Open creates a logger writing format ("text" or "json", empty means text) to w.
// Commands pass Stderr so Stdout stays free for rendered frames and MCP stdio.
func Open(w io.Writer, format string, level slog.Level) (*slog.Logger, error) {
	switch strings.ToLower(format) {
	case "", FormatText:
		return slog.New(slog.NewTextHandler(w, handlerOptions(level))), nil
	case FormatJSON:
		return slog.New(slog.NewJSONHandler(w, handlerOptions(level))), nil
	}
	return nil, fmt.Errorf("unknown log format %q (want text or json)", format)
}

// NewNop returns a no-op logger.
func NewNop() *slog.Logger {
	return slog.New(slog.DiscardHandler)
}

// handlerOptions shortens "error" to "err" so every component logs failures under one key.
func handlerOptions(level slog.Level) *slog.HandlerOptions {
	return &slog.HandlerOptions{
		Level: level,
		ReplaceAttr: func(_ []string, a slog.Attr) slog.Attr {
			if a.Key == "error" {
				a.Key = "err"
			}
			return a
		},
	}
}
