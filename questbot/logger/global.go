package logger

import (
	"log/slog"
	"time"
)

// LogQuery records a raw statement. Successful statements log at debug.
func LogQuery(operation, query string, took time.Duration, rows int64, err error) {
	attrs := []any{
		slog.String("type", "db"),
		slog.String("operation", operation),
		slog.String("query", query),
		slog.Duration("took", took),
	}
	if err != nil {
		slog.Error("Query failed", append(attrs, slog.Any("error", err))...)
		return
	}
	slog.Debug("Query executed", append(attrs, slog.Int64("affected_rows", rows))...)
}

// LogLifecycle records a submission state change.
func LogLifecycle(event string, submissionID int64, attrs ...any) {
	base := []any{
		slog.String("type", "sys"),
		slog.String("event", event),
		slog.Int64("submission_id", submissionID),
	}
	slog.Info("Submission "+event, append(base, attrs...)...)
}

func LogError(msg string, err error, attrs ...any) {
	base := []any{
		slog.String("type", "error"),
		slog.Any("error", err),
	}
	slog.Error(msg, append(base, attrs...)...)
}
