package services

import (
	"context"
	"log/slog"
	"runtime/debug"
)

// LogError records a failure with the operation it happened in, the request
// parameters and a stack trace.
func LogError(ctx context.Context, logger *slog.Logger, err error, message, location string, params ...any) {
	if logger == nil {
		logger = slog.Default()
	}
	logger.LogAttrs(ctx, slog.LevelError, message,
		slog.String("error", errorText(err)),
		slog.String("location", location),
		slog.Group("params", params...),
		slog.String("trace", string(debug.Stack())),
	)
}

func errorText(err error) string {
	if err == nil {
		return ""
	}
	return err.Error()
}
