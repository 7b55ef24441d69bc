// Copyright (c) Microsoft. All rights reserved.

package config

import (
	"io"
	"log/slog"
	"os"
	"strings"
)

// NewLogger builds a slog logger writing to w. A non-empty DEBUG environment
// variable forces the debug level.
func NewLogger(s LogSettings, w io.Writer) *slog.Logger {
	opts := &slog.HandlerOptions{Level: ParseLevel(s.Level)}
	if os.Getenv("DEBUG") != "" {
		opts.Level = slog.LevelDebug
	}
	if strings.EqualFold(s.Format, "json") {
		return slog.New(slog.NewJSONHandler(w, opts))
	}
	return slog.New(slog.NewTextHandler(w, opts))
}

// ParseLevel maps debug, info, warn and error to slog levels. Anything else
// is info.
func ParseLevel(level string) slog.Level {
	switch strings.ToLower(strings.TrimSpace(level)) {
	case "debug":
		return slog.LevelDebug
	case "warn", "warning":
		return slog.LevelWarn
	case "error":
		return slog.LevelError
	default:
		return slog.LevelInfo
	}
}
