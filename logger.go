package pointflow

import (
	"context"
	"io"
	"log/slog"
	"os"
	"time"
)

// Logger wraps slog.Logger with pointflow-specific context.
// This provides structured logging with consistent field names.
type Logger struct {
	*slog.Logger
}

// NewLogger creates a new Logger with the given handler.
// If handler is nil, uses default text handler to stderr.
func NewLogger(handler slog.Handler) *Logger {
	if handler == nil {
		handler = slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{
			Level: slog.LevelInfo,
		})
	}
	return &Logger{
		Logger: slog.New(handler),
	}
}

// NewJSONLogger creates a Logger that outputs JSON-formatted logs.
// level sets the minimum log level (e.g., slog.LevelDebug, slog.LevelInfo).
func NewJSONLogger(level slog.Level) *Logger {
	handler := slog.NewJSONHandler(os.Stderr, &slog.HandlerOptions{
		Level: level,
	})
	return &Logger{
		Logger: slog.New(handler),
	}
}

// NewTextLogger creates a Logger that outputs human-readable text logs.
func NewTextLogger(level slog.Level) *Logger {
	handler := slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{
		Level: level,
	})
	return &Logger{
		Logger: slog.New(handler),
	}
}

// NoopLogger creates a Logger that discards all log output.
// Use this to disable logging entirely.
func NoopLogger() *Logger {
	return &Logger{
		Logger: slog.New(slog.NewTextHandler(io.Discard, nil)),
	}
}

// WithStage adds the stage tag to the logger.
func (l *Logger) WithStage(tag string) *Logger {
	return &Logger{
		Logger: l.Logger.With("stage", tag),
	}
}

// WithRun adds the run id to the logger.
func (l *Logger) WithRun(id string) *Logger {
	return &Logger{
		Logger: l.Logger.With("run_id", id),
	}
}

// WithCount adds a count field to the logger.
func (l *Logger) WithCount(count int) *Logger {
	return &Logger{
		Logger: l.Logger.With("count", count),
	}
}

// LogLoad logs a pipeline load.
func (l *Logger) LogLoad(ctx context.Context, stages int, err error) {
	if err != nil {
		l.ErrorContext(ctx, "load failed",
			"error", err,
		)
	} else {
		l.DebugContext(ctx, "load completed",
			"stages", stages,
		)
	}
}

// LogExecute logs a pipeline execution.
func (l *Logger) LogExecute(ctx context.Context, streamed bool, points int, elapsed time.Duration, err error) {
	if err != nil {
		l.ErrorContext(ctx, "execute failed",
			"streamed", streamed,
			"elapsed", elapsed,
			"error", err,
		)
	} else {
		l.InfoContext(ctx, "execute completed",
			"streamed", streamed,
			"points", points,
			"elapsed", elapsed,
		)
	}
}

// LogStage logs the completion of one stage.
func (l *Logger) LogStage(ctx context.Context, tag, typ string, elapsed time.Duration, err error) {
	if err != nil {
		l.WarnContext(ctx, "stage failed",
			"stage", tag,
			"type", typ,
			"error", err,
		)
	} else {
		l.DebugContext(ctx, "stage completed",
			"stage", tag,
			"type", typ,
			"elapsed", elapsed,
		)
	}
}
