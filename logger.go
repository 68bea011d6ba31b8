package typedann

import (
	"log/slog"
	"os"
)

// Logger wraps slog.Logger with index-specific helpers.
type Logger struct {
	*slog.Logger
}

// NewLogger creates a Logger with the given handler.
// If handler is nil, logs are written as text to stderr at info level.
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

// NewJSONLogger creates a Logger that writes JSON to stderr.
func NewJSONLogger(level slog.Level) *Logger {
	return NewLogger(slog.NewJSONHandler(os.Stderr, &slog.HandlerOptions{
		Level: level,
	}))
}

// NewTextLogger creates a Logger that writes human-readable text to stderr.
func NewTextLogger(level slog.Level) *Logger {
	return NewLogger(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{
		Level: level,
	}))
}

// NoopLogger creates a Logger that discards all output.
func NoopLogger() *Logger {
	return NewLogger(slog.DiscardHandler)
}

// WithKey adds a key field.
func (l *Logger) WithKey(key Key) *Logger {
	return &Logger{
		Logger: l.Logger.With("key", key),
	}
}

// WithDimensions adds a dimensions field.
func (l *Logger) WithDimensions(dims int) *Logger {
	return &Logger{
		Logger: l.Logger.With("dimensions", dims),
	}
}

// LogInsert logs an add operation.
func (l *Logger) LogInsert(key Key, err error) {
	if err != nil {
		l.Error("add failed",
			"key", key,
			"error", err,
		)
	} else {
		l.Debug("add completed",
			"key", key,
		)
	}
}

// LogBatchInsert logs a batch insertion.
func (l *Logger) LogBatchInsert(count, failed int, err error) {
	if err != nil {
		l.Warn("batch insert aborted",
			"total", count,
			"failed", failed,
			"error", err,
		)
	} else {
		l.Info("batch insert completed",
			"count", count,
		)
	}
}

// LogSearch logs a search.
func (l *Logger) LogSearch(count, found int, err error) {
	if err != nil {
		l.Error("search failed",
			"count", count,
			"error", err,
		)
	} else {
		l.Debug("search completed",
			"count", count,
			"results", found,
		)
	}
}

// LogRemove logs a remove operation.
func (l *Logger) LogRemove(key Key, removed int, err error) {
	if err != nil {
		l.Error("remove failed",
			"key", key,
			"error", err,
		)
	} else {
		l.Debug("remove completed",
			"key", key,
			"removed", removed,
		)
	}
}

// LogPersist logs save, load and view operations. target is a path or
// "buffer".
func (l *Logger) LogPersist(op, target string, err error) {
	if err != nil {
		l.Error(op+" failed",
			"target", target,
			"error", err,
		)
	} else {
		l.Info(op+" completed",
			"target", target,
		)
	}
}
