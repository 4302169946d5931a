package http

import (
	"context"
	"log/slog"
	"net/http"

	"github.com/example/exterminus/internal/application"
	"github.com/example/exterminus/internal/schedule"
)

type timeOffService interface {
	AddTimeOff(ctx context.Context, principal application.Principal, input application.TimeOffInput) (application.TimeOffEntry, error)
	DeleteTimeOff(ctx context.Context, principal application.Principal, id int64) error
}

// TimeOffHandler serves technician time off.
type TimeOffHandler struct {
	service   timeOffService
	validator *requestValidator
	responder responder
}

// NewTimeOffHandler wires the time-off service.
func NewTimeOffHandler(service timeOffService, logger *slog.Logger) (*TimeOffHandler, error) {
	v, err := newRequestValidator()
	if err != nil {
		return nil, err
	}
	return &TimeOffHandler{service: service, validator: v, responder: newResponder(logger)}, nil
}

func (h *TimeOffHandler) Create(w http.ResponseWriter, r *http.Request) {
	var req timeOffRequest
	if err := decodeJSON(w, r, &req); err != nil {
		h.responder.writeError(r.Context(), w, http.StatusBadRequest, errBadRequestBody)
		return
	}
	if err := h.validator.check(req); err != nil {
		h.responder.handleServiceError(r.Context(), w, err)
		return
	}

	principal, _ := PrincipalFromContext(r.Context())
	entry, err := h.service.AddTimeOff(r.Context(), principal, application.TimeOffInput{
		TechnicianID: string(req.TechnicianID),
		StartDate:    req.StartDate,
		EndDate:      req.EndDate,
		Reason:       req.Reason,
	})
	if err != nil {
		h.responder.handleServiceError(r.Context(), w, err)
		return
	}
	h.responder.writeJSON(r.Context(), w, http.StatusCreated, timeOffResponse{TimeOff: toTimeOffDTO(entry)})
}

func (h *TimeOffHandler) Delete(w http.ResponseWriter, r *http.Request) {
	id, ok := pathID(r, "id")
	if !ok {
		h.responder.writeError(r.Context(), w, http.StatusBadRequest, errInvalidTimeOff)
		return
	}
	principal, _ := PrincipalFromContext(r.Context())
	if err := h.service.DeleteTimeOff(r.Context(), principal, id); err != nil {
		h.responder.handleServiceError(r.Context(), w, err)
		return
	}
	h.responder.writeJSON(r.Context(), w, http.StatusNoContent, nil)
}

type timeOffRequest struct {
	TechnicianID flexibleText `json:"technician_id" validate:"max=32"`
	StartDate    string       `json:"start_date" validate:"max=10"`
	EndDate      string       `json:"end_date" validate:"max=10"`
	Reason       string       `json:"reason" validate:"max=500"`
}

type timeOffResponse struct {
	TimeOff timeOffDTO `json:"time_off"`
}

type timeOffDTO struct {
	ID             int64  `json:"id"`
	TechnicianID   int64  `json:"technician_id"`
	TechnicianName string `json:"technician_name"`
	StartDate      string `json:"start_date"`
	EndDate        string `json:"end_date"`
	Reason         string `json:"reason,omitempty"`
}

func toTimeOffDTO(entry application.TimeOffEntry) timeOffDTO {
	return timeOffDTO{
		ID:             entry.ID,
		TechnicianID:   entry.TechnicianID,
		TechnicianName: entry.TechnicianName,
		StartDate:      schedule.FormatDate(entry.StartDate),
		EndDate:        schedule.FormatDate(entry.EndDate),
		Reason:         entry.Reason,
	}
}
