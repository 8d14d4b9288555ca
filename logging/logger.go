// Package logging provides the structured logger used across imgvec.
package logging

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"os"
	"strings"
)

// Logger wraps slog.Logger with consistent imgvec field names.
type Logger struct {
	*slog.Logger
}

// NewLogger creates a Logger with the given handler.
// If handler is nil, uses a text handler to stderr at info level.
func NewLogger(handler slog.Handler) *Logger {
	if handler == nil {
		handler = slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: slog.LevelInfo})
	}
	return &Logger{Logger: slog.New(handler)}
}

// NewJSONLogger creates a Logger writing JSON to w.
func NewJSONLogger(w io.Writer, level slog.Level) *Logger {
	return NewLogger(slog.NewJSONHandler(w, &slog.HandlerOptions{Level: level}))
}

// NewTextLogger creates a Logger writing human-readable text to w.
func NewTextLogger(w io.Writer, level slog.Level) *Logger {
	return NewLogger(slog.NewTextHandler(w, &slog.HandlerOptions{Level: level}))
}

// NoopLogger creates a Logger that discards all output.
func NoopLogger() *Logger {
	return NewLogger(slog.DiscardHandler)
}

// ParseLevel maps debug, info, warn and error to slog levels.
func ParseLevel(s string) (slog.Level, error) {
	var level slog.Level
	if err := level.UnmarshalText([]byte(strings.TrimSpace(s))); err != nil {
		return slog.LevelInfo, fmt.Errorf("logging: invalid level %q", s)
	}
	return level, nil
}

// New builds a stderr logger from a level name and a format (json or text).
func New(level, format string) (*Logger, error) {
	lvl, err := ParseLevel(level)
	if err != nil {
		return nil, err
	}
	switch strings.ToLower(format) {
	case "json":
		return NewJSONLogger(os.Stderr, lvl), nil
	case "", "text":
		return NewTextLogger(os.Stderr, lvl), nil
	}
	return nil, fmt.Errorf("logging: invalid format %q", format)
}

// With returns a Logger with the given attributes added.
func (l *Logger) With(args ...any) *Logger {
	return &Logger{Logger: l.Logger.With(args...)}
}

// LogIngest logs the outcome of one image ingestion.
func (l *Logger) LogIngest(ctx context.Context, id string, dimension int, err error) {
	if err != nil {
		l.WarnContext(ctx, "ingest rejected",
			"id", id,
			"error", err,
		)
		return
	}
	l.DebugContext(ctx, "ingest stored",
		"id", id,
		"dimension", dimension,
	)
}

// LogBatch logs a batch ingestion summary.
func (l *Logger) LogBatch(ctx context.Context, total, stored, rejected int) {
	if rejected > 0 {
		l.WarnContext(ctx, "batch ingest completed with rejections",
			"total", total,
			"stored", stored,
			"rejected", rejected,
		)
		return
	}
	l.InfoContext(ctx, "batch ingest completed",
		"total", total,
		"stored", stored,
	)
}

// LogQuery logs a similarity query.
func (l *Logger) LogQuery(ctx context.Context, k, candidates, matches int, err error) {
	if err != nil {
		l.ErrorContext(ctx, "query failed",
			"k", k,
			"error", err,
		)
		return
	}
	l.DebugContext(ctx, "query completed",
		"k", k,
		"candidates", candidates,
		"matches", matches,
	)
}

// LogRemove logs a record deletion.
func (l *Logger) LogRemove(ctx context.Context, id string, err error) {
	if err != nil {
		l.WarnContext(ctx, "remove failed",
			"id", id,
			"error", err,
		)
		return
	}
	l.InfoContext(ctx, "record removed", "id", id)
}

// LogCorrupt logs a stored record that was skipped during a scan.
func (l *Logger) LogCorrupt(ctx context.Context, id string, err error) {
	l.WarnContext(ctx, "skipping corrupt record",
		"id", id,
		"error", err,
	)
}

// LogExcluded logs a candidate left out of ranking.
func (l *Logger) LogExcluded(ctx context.Context, id, reason string) {
	l.WarnContext(ctx, "candidate excluded from ranking",
		"id", id,
		"reason", reason,
	)
}
