package http

import (
	"context"
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/example/exterminus/internal/application"
	"github.com/example/exterminus/internal/schedule"
)

type lockService interface {
	ToggleLock(ctx context.Context, principal application.Principal, rawDate string) (application.LockState, error)
}

// LockHandler serves day lock toggling.
type LockHandler struct {
	service   lockService
	responder responder
}

// NewLockHandler wires the lock service.
func NewLockHandler(service lockService, logger *slog.Logger) *LockHandler {
	return &LockHandler{service: service, responder: newResponder(logger)}
}

func (h *LockHandler) Toggle(w http.ResponseWriter, r *http.Request) {
	principal, _ := PrincipalFromContext(r.Context())
	state, err := h.service.ToggleLock(r.Context(), principal, chi.URLParam(r, "date"))
	if err != nil {
		h.responder.handleServiceError(r.Context(), w, err)
		return
	}
	h.responder.writeJSON(r.Context(), w, http.StatusOK, lockDTO{Date: schedule.FormatDate(state.Date), Locked: state.Locked})
}

type lockDTO struct {
	Date   string `json:"date"`
	Locked bool   `json:"locked"`
}
