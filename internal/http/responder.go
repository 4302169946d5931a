package http

import (
	"context"
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"
	"strings"

	"github.com/example/exterminus/internal/application"
)

var (
	errBadRequestBody  = errors.New("Request body is malformed.")
	errInvalidJobID    = errors.New("Job id is invalid.")
	errInvalidUserID   = errors.New("User id is invalid.")
	errInvalidTimeOff  = errors.New("Time off id is invalid.")
	errInvalidMonth    = errors.New("Year and month must be numbers.")
	errMissingToken    = errors.New("Authentication is required.")
	errInvalidToken    = errors.New("Token is invalid or expired.")
	errForbidden       = errors.New("You do not have permission to perform this action.")
	errLockedDate      = errors.New("Date is locked. Cannot add job.")
	errSessionExpired  = errors.New("Session expired. Please log in again.")
	errStorageDegraded = errors.New("Storage is unavailable.")
)

type responder struct {
	logger *slog.Logger
}

func newResponder(logger *slog.Logger) responder {
	if logger == nil {
		logger = slog.Default()
	}
	return responder{logger: logger}
}

func (r responder) writeJSON(ctx context.Context, w http.ResponseWriter, status int, payload any) {
	if w == nil {
		return
	}

	if status == http.StatusNoContent || payload == nil {
		w.WriteHeader(status)
		return
	}

	w.Header().Set("Content-Type", "application/json; charset=utf-8")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(payload); err != nil {
		r.loggerFor(ctx).ErrorContext(ctx, "failed to encode response", "error", err)
	}
}

func (r responder) writeError(ctx context.Context, w http.ResponseWriter, status int, err error) {
	message := statusMessage(status)
	if err != nil {
		if msg := strings.TrimSpace(err.Error()); msg != "" {
			message = msg
		}
		logger := r.loggerFor(ctx)
		if status >= http.StatusInternalServerError {
			logger.ErrorContext(ctx, "request failed", "status", status, "error", err)
		} else {
			logger.InfoContext(ctx, "request rejected", "status", status, "error", err)
		}
	}

	r.writeJSON(ctx, w, status, errorResponse{Message: message})
}

func (r responder) handleServiceError(ctx context.Context, w http.ResponseWriter, err error) {
	if err == nil {
		r.writeError(ctx, w, http.StatusInternalServerError, errors.New("unknown error"))
		return
	}

	switch {
	case errors.Is(err, application.ErrUnauthorized):
		r.writeJSON(ctx, w, http.StatusForbidden, errorResponse{
			ErrorCode: "AUTH_FORBIDDEN",
			Message:   errForbidden.Error(),
		})
	case errors.Is(err, application.ErrSessionExpired):
		r.writeJSON(ctx, w, http.StatusUnauthorized, errorResponse{
			ErrorCode: "SESSION_EXPIRED",
			Message:   errSessionExpired.Error(),
		})
	case errors.Is(err, application.ErrNotFound):
		r.writeJSON(ctx, w, http.StatusNotFound, errorResponse{Message: statusMessage(http.StatusNotFound)})
	case errors.Is(err, application.ErrLocked):
		r.writeJSON(ctx, w, http.StatusConflict, errorResponse{
			ErrorCode: "DATE_LOCKED",
			Message:   errLockedDate.Error(),
		})
	default:
		if body, ok := validationBody(err); ok {
			r.writeJSON(ctx, w, http.StatusUnprocessableEntity, body)
			return
		}

		r.loggerFor(ctx).ErrorContext(ctx, "request failed", "error", err)
		r.writeJSON(ctx, w, http.StatusInternalServerError, errorResponse{Message: statusMessage(http.StatusInternalServerError)})
	}
}

func (r responder) loggerFor(ctx context.Context) *slog.Logger {
	if logger := LoggerFromContext(ctx); logger != nil {
		return logger
	}
	return r.logger
}

func validationBody(err error) (errorResponse, bool) {
	var vErr *application.ValidationError
	if !errors.As(err, &vErr) {
		return errorResponse{}, false
	}
	message := vErr.Message
	if message == "" {
		message = statusMessage(http.StatusUnprocessableEntity)
	}
	return errorResponse{Message: message, Errors: vErr.FieldErrors}, true
}

func statusMessage(status int) string {
	switch status {
	case http.StatusBadRequest:
		return "Request is malformed."
	case http.StatusUnauthorized:
		return errMissingToken.Error()
	case http.StatusForbidden:
		return errForbidden.Error()
	case http.StatusNotFound:
		return "Not found."
	case http.StatusConflict:
		return "Request conflicts with the current state."
	case http.StatusUnprocessableEntity:
		return "Request is invalid."
	case http.StatusServiceUnavailable:
		return errStorageDegraded.Error()
	default:
		return "Internal server error."
	}
}

type errorResponse struct {
	ErrorCode string            `json:"error_code,omitempty"`
	Message   string            `json:"message"`
	Errors    map[string]string `json:"errors,omitempty"`
}
