package http

import (
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/v5"
)

func defaultLogger(logger *slog.Logger) *slog.Logger {
	if logger != nil {
		return logger
	}
	return slog.Default()
}

// handlerLogger tags the request logger with the handler, its operation and
// the matched route pattern. fallback is used outside RequestLogger.
func handlerLogger(r *http.Request, fallback *slog.Logger, handlerName, operation string, attrs ...any) *slog.Logger {
	logger := LoggerFromContext(r.Context())
	if logger == nil {
		logger = defaultLogger(fallback)
	}

	pairs := []any{"handler", handlerName, "operation", operation}
	if rctx := chi.RouteContext(r.Context()); rctx != nil {
		if pattern := rctx.RoutePattern(); pattern != "" {
			pairs = append(pairs, "route", pattern)
		}
	}
	return logger.With(append(pairs, attrs...)...)
}
