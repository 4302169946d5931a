package application

import (
	"context"
	"errors"
	"log/slog"

	"github.com/example/exterminus/internal/logging"
)

func defaultLogger(logger *slog.Logger) *slog.Logger {
	if logger != nil {
		return logger
	}
	return slog.Default()
}

func serviceLogger(ctx context.Context, base *slog.Logger, serviceName, operation string, attrs ...any) *slog.Logger {
	logger := logging.FromContext(ctx)
	if logger == nil {
		logger = base
	}
	if logger == nil {
		logger = slog.Default()
	}

	pairs := []any{"service", serviceName}
	if operation != "" {
		pairs = append(pairs, "operation", operation)
	}
	if len(attrs) > 0 {
		pairs = append(pairs, attrs...)
	}
	return logger.With(pairs...)
}

// logFailure records err at a level matching its kind. Expected outcomes such
// as validation failures log at INFO, everything else at ERROR.
func logFailure(ctx context.Context, logger *slog.Logger, msg string, err error) {
	kind := ErrorKind(err)
	if kind == "unexpected" {
		logger.ErrorContext(ctx, msg, "error", err, "error_kind", kind)
		return
	}
	logger.InfoContext(ctx, msg, "error", err, "error_kind", kind)
}

// ErrorKind maps sentinel and validation errors to a stable logging label.
func ErrorKind(err error) string {
	if err == nil {
		return ""
	}
	switch {
	case errors.Is(err, ErrUnauthorized):
		return "unauthorized"
	case errors.Is(err, ErrNotFound):
		return "not_found"
	case errors.Is(err, ErrLocked):
		return "locked"
	case errors.Is(err, ErrSessionExpired):
		return "session_expired"
	}

	var vErr *ValidationError
	if errors.As(err, &vErr) {
		return "validation"
	}

	return "unexpected"
}
