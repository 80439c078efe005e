package main

import (
	"io"
	"log/slog"
	"strings"
	"time"

	"github.com/lmittmann/tint"
)

// NewLogger returns a structured slog.Logger writing to w. format "text"
// selects a coloured console handler; anything else emits JSON.
func NewLogger(w io.Writer, level slog.Leveler, format string) *slog.Logger {
	if strings.EqualFold(format, "text") {
		return slog.New(tint.NewHandler(w, &tint.Options{Level: level, TimeFormat: time.TimeOnly}))
	}
	return slog.New(slog.NewJSONHandler(w, &slog.HandlerOptions{Level: level}))
}

// parseLevel maps debug/info/warn/error to a slog level, defaulting to info.
func parseLevel(s string) slog.Level {
	var l slog.Level
	if err := l.UnmarshalText([]byte(strings.TrimSpace(s))); err != nil {
		return slog.LevelInfo
	}
	return l
}
