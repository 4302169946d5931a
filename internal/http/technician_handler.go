package http

import (
	"context"
	"log/slog"
	"net/http"

	"github.com/example/exterminus/internal/application"
	"github.com/example/exterminus/internal/persistence"
)

type technicianService interface {
	ListTechnicians(ctx context.Context) ([]persistence.Technician, error)
	PromoteUser(ctx context.Context, principal application.Principal, userID int64, role string) (application.User, error)
}

// TechnicianHandler serves the roster and role changes.
type TechnicianHandler struct {
	service   technicianService
	validator *requestValidator
	responder responder
	logger    *slog.Logger
}

// NewTechnicianHandler wires the technician service.
func NewTechnicianHandler(service technicianService, logger *slog.Logger) (*TechnicianHandler, error) {
	v, err := newRequestValidator()
	if err != nil {
		return nil, err
	}
	return &TechnicianHandler{service: service, validator: v, responder: newResponder(logger), logger: defaultLogger(logger)}, nil
}

func (h *TechnicianHandler) List(w http.ResponseWriter, r *http.Request) {
	technicians, err := h.service.ListTechnicians(r.Context())
	if err != nil {
		h.responder.handleServiceError(r.Context(), w, err)
		return
	}
	out := make([]technicianDTO, 0, len(technicians))
	for _, tech := range technicians {
		out = append(out, technicianDTO{ID: tech.ID, Name: tech.Name})
	}
	h.responder.writeJSON(r.Context(), w, http.StatusOK, listTechniciansResponse{Technicians: out})
}

func (h *TechnicianHandler) PromoteUser(w http.ResponseWriter, r *http.Request) {
	userID, ok := pathID(r, "id")
	if !ok {
		h.responder.writeError(r.Context(), w, http.StatusBadRequest, errInvalidUserID)
		return
	}
	var req promoteRequest
	if err := decodeJSON(w, r, &req); err != nil {
		h.responder.writeError(r.Context(), w, http.StatusBadRequest, errBadRequestBody)
		return
	}
	if err := h.validator.check(req); err != nil {
		h.responder.handleServiceError(r.Context(), w, err)
		return
	}

	principal, _ := PrincipalFromContext(r.Context())
	user, err := h.service.PromoteUser(r.Context(), principal, userID, req.Role)
	if err != nil {
		h.responder.handleServiceError(r.Context(), w, err)
		return
	}
	handlerLogger(r, h.logger, "TechnicianHandler", "PromoteUser").
		InfoContext(r.Context(), "role updated", "target_user_id", user.ID, "role", user.Role)
	h.responder.writeJSON(r.Context(), w, http.StatusOK, userResponse{User: userDTO{
		ID:        user.ID,
		Username:  user.Username,
		FirstName: user.FirstName,
		LastName:  user.LastName,
		Role:      user.Role,
	}})
}

type promoteRequest struct {
	Role string `json:"role" validate:"required,max=32"`
}

type technicianDTO struct {
	ID   int64  `json:"id"`
	Name string `json:"name"`
}

type listTechniciansResponse struct {
	Technicians []technicianDTO `json:"technicians"`
}

type userDTO struct {
	ID        int64  `json:"id"`
	Username  string `json:"username"`
	FirstName string `json:"first_name,omitempty"`
	LastName  string `json:"last_name,omitempty"`
	Role      string `json:"role"`
}

type userResponse struct {
	User userDTO `json:"user"`
}
