package http

import (
	"context"
	"errors"
	"log/slog"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/go-chi/chi/v5"

	"github.com/example/exterminus/internal/application"
	"github.com/example/exterminus/internal/schedule"
	"github.com/example/exterminus/internal/scheduler"
)

type jobService interface {
	CreateJob(ctx context.Context, principal application.Principal, form scheduler.JobForm) (application.Job, error)
	GetJob(ctx context.Context, id int64) (application.Job, error)
	MoveJob(ctx context.Context, principal application.Principal, id int64, rawStart string) (application.Job, error)
	EditJob(ctx context.Context, principal application.Principal, id int64, form scheduler.JobForm) (application.Job, error)
	DeleteJob(ctx context.Context, principal application.Principal, id int64) error
}

// JobHandler serves the job endpoints.
type JobHandler struct {
	service   jobService
	validator *requestValidator
	responder responder
	logger    *slog.Logger
}

// NewJobHandler wires the job service.
func NewJobHandler(service jobService, logger *slog.Logger) (*JobHandler, error) {
	v, err := newRequestValidator()
	if err != nil {
		return nil, err
	}
	return &JobHandler{service: service, validator: v, responder: newResponder(logger), logger: defaultLogger(logger)}, nil
}

func (h *JobHandler) Create(w http.ResponseWriter, r *http.Request) {
	var req jobRequest
	if err := decodeJSON(w, r, &req); err != nil {
		h.responder.writeError(r.Context(), w, http.StatusBadRequest, errBadRequestBody)
		return
	}
	if err := h.validator.check(req); err != nil {
		h.responder.handleServiceError(r.Context(), w, err)
		return
	}

	principal, _ := PrincipalFromContext(r.Context())
	job, err := h.service.CreateJob(r.Context(), principal, req.toForm())
	if err != nil {
		h.responder.handleServiceError(r.Context(), w, err)
		return
	}

	handlerLogger(r, h.logger, "JobHandler", "Create").InfoContext(r.Context(), "job created", "job_id", job.ID)
	h.responder.writeJSON(r.Context(), w, http.StatusCreated, jobResponse{Job: toJobDTO(job)})
}

func (h *JobHandler) Get(w http.ResponseWriter, r *http.Request) {
	id, ok := pathID(r, "id")
	if !ok {
		h.responder.writeError(r.Context(), w, http.StatusBadRequest, errInvalidJobID)
		return
	}
	job, err := h.service.GetJob(r.Context(), id)
	if err != nil {
		h.responder.handleServiceError(r.Context(), w, err)
		return
	}
	h.responder.writeJSON(r.Context(), w, http.StatusOK, jobResponse{Job: toJobDTO(job)})
}

func (h *JobHandler) Move(w http.ResponseWriter, r *http.Request) {
	id, ok := pathID(r, "id")
	if !ok {
		h.responder.writeError(r.Context(), w, http.StatusBadRequest, errInvalidJobID)
		return
	}
	var req moveRequest
	if err := decodeJSON(w, r, &req); err != nil {
		h.responder.writeError(r.Context(), w, http.StatusBadRequest, errBadRequestBody)
		return
	}
	if err := h.validator.check(req); err != nil {
		h.responder.handleServiceError(r.Context(), w, err)
		return
	}

	principal, _ := PrincipalFromContext(r.Context())
	job, err := h.service.MoveJob(r.Context(), principal, id, req.StartDate)
	if err != nil {
		h.responder.handleServiceError(r.Context(), w, err)
		return
	}
	h.responder.writeJSON(r.Context(), w, http.StatusOK, jobResponse{Job: toJobDTO(job)})
}

func (h *JobHandler) Edit(w http.ResponseWriter, r *http.Request) {
	id, ok := pathID(r, "id")
	if !ok {
		h.responder.writeError(r.Context(), w, http.StatusBadRequest, errInvalidJobID)
		return
	}
	var req jobRequest
	if err := decodeJSON(w, r, &req); err != nil {
		h.responder.writeError(r.Context(), w, http.StatusBadRequest, errBadRequestBody)
		return
	}
	if err := h.validator.check(req); err != nil {
		h.responder.handleServiceError(r.Context(), w, err)
		return
	}

	principal, _ := PrincipalFromContext(r.Context())
	job, err := h.service.EditJob(r.Context(), principal, id, req.toForm())
	if err != nil {
		var vErr *application.ValidationError
		if errors.As(err, &vErr) && job.ID != 0 {
			// The current job lets the client re-render the form.
			body, _ := validationBody(err)
			current := toJobDTO(job)
			h.responder.writeJSON(r.Context(), w, http.StatusUnprocessableEntity, editFailureResponse{errorResponse: body, Job: &current})
			return
		}
		h.responder.handleServiceError(r.Context(), w, err)
		return
	}
	h.responder.writeJSON(r.Context(), w, http.StatusOK, jobResponse{Job: toJobDTO(job)})
}

func (h *JobHandler) Delete(w http.ResponseWriter, r *http.Request) {
	id, ok := pathID(r, "id")
	if !ok {
		h.responder.writeError(r.Context(), w, http.StatusBadRequest, errInvalidJobID)
		return
	}
	principal, _ := PrincipalFromContext(r.Context())
	if err := h.service.DeleteJob(r.Context(), principal, id); err != nil {
		h.responder.handleServiceError(r.Context(), w, err)
		return
	}
	h.responder.writeJSON(r.Context(), w, http.StatusNoContent, nil)
}

func pathID(r *http.Request, name string) (int64, bool) {
	id, err := strconv.ParseInt(strings.TrimSpace(chi.URLParam(r, name)), 10, 64)
	if err != nil || id <= 0 {
		return 0, false
	}
	return id, true
}

type jobRequest struct {
	Title            string       `json:"title" validate:"max=200"`
	JobType          string       `json:"job_type" validate:"max=64"`
	CustomType       string       `json:"custom_type" validate:"max=64"`
	Price            flexibleText `json:"price" validate:"max=32"`
	StartDate        string       `json:"start_date" validate:"max=10"`
	EndDate          string       `json:"end_date" validate:"max=10"`
	StartTime        string       `json:"start_time" validate:"max=8"`
	EndTime          string       `json:"end_time" validate:"max=8"`
	TimeRange        string       `json:"time_range" validate:"max=32"`
	Notes            string       `json:"notes" validate:"max=4000"`
	TechnicianID     flexibleText `json:"technician_id" validate:"max=32"`
	ReiQuantity      flexibleText `json:"rei_quantity" validate:"max=16"`
	ReiZip           string       `json:"rei_zip" validate:"max=10"`
	ExclusionSubtype string       `json:"exclusion_subtype" validate:"max=64"`
	FumigationType   string       `json:"fumigation_type" validate:"max=64"`
	TargetPest       string       `json:"target_pest" validate:"max=64"`
	CustomPest       string       `json:"custom_pest" validate:"max=64"`
}

func (r jobRequest) toForm() scheduler.JobForm {
	return scheduler.JobForm{
		Title:            r.Title,
		JobType:          r.JobType,
		CustomType:       r.CustomType,
		Price:            string(r.Price),
		StartDate:        r.StartDate,
		EndDate:          r.EndDate,
		StartTime:        r.StartTime,
		EndTime:          r.EndTime,
		TimeRange:        r.TimeRange,
		Notes:            r.Notes,
		Technician:       string(r.TechnicianID),
		ReiQuantity:      string(r.ReiQuantity),
		ReiZip:           r.ReiZip,
		ExclusionSubtype: r.ExclusionSubtype,
		FumigationType:   r.FumigationType,
		TargetPest:       r.TargetPest,
		CustomPest:       r.CustomPest,
	}
}

type moveRequest struct {
	StartDate string `json:"start_date" validate:"required,max=10"`
}

type jobResponse struct {
	Job jobDTO `json:"job"`
}

type editFailureResponse struct {
	errorResponse
	Job *jobDTO `json:"job,omitempty"`
}

type jobDTO struct {
	ID                     int64    `json:"id"`
	Title                  string   `json:"title"`
	DisplayTitle           string   `json:"display_title"`
	JobType                string   `json:"job_type,omitempty"`
	Price                  *float64 `json:"price"`
	StartDate              string   `json:"start_date"`
	EndDate                *string  `json:"end_date"`
	StartTime              string   `json:"start_time,omitempty"`
	EndTime                string   `json:"end_time,omitempty"`
	TimeRange              string   `json:"time_range,omitempty"`
	Notes                  string   `json:"notes,omitempty"`
	TechnicianID           *int64   `json:"technician_id"`
	TechnicianName         string   `json:"technician_name,omitempty"`
	TechnicianLabel        string   `json:"technician_label,omitempty"`
	TwoMan                 bool     `json:"two_man"`
	ReiQuantity            *int64   `json:"rei_quantity,omitempty"`
	ReiZip                 string   `json:"rei_zip,omitempty"`
	ReiCityName            string   `json:"rei_city_name,omitempty"`
	ExclusionSubtype       string   `json:"exclusion_subtype,omitempty"`
	FumigationType         string   `json:"fumigation_type,omitempty"`
	TargetPest             string   `json:"target_pest,omitempty"`
	CustomPest             string   `json:"custom_pest,omitempty"`
	CreatedBy              *int64   `json:"created_by"`
	CreatedByUsername      string   `json:"created_by_username,omitempty"`
	CreatedAt              string   `json:"created_at,omitempty"`
	LastModified           *string  `json:"last_modified"`
	LastModifiedBy         *int64   `json:"last_modified_by"`
	LastModifiedByUsername string   `json:"last_modified_by_username,omitempty"`
}

func toJobDTO(job application.Job) jobDTO {
	dto := jobDTO{
		ID:                     job.ID,
		Title:                  job.Title,
		DisplayTitle:           job.DisplayTitle,
		JobType:                job.JobType,
		Price:                  job.Price,
		StartDate:              schedule.FormatDate(job.StartDate),
		StartTime:              job.StartTime,
		EndTime:                job.EndTime,
		TimeRange:              job.TimeRange,
		Notes:                  job.Notes,
		TechnicianID:           job.TechnicianID,
		TechnicianName:         job.TechnicianName,
		TechnicianLabel:        job.TechnicianLabel,
		TwoMan:                 job.TwoMan,
		ReiQuantity:            job.ReiQuantity,
		ReiZip:                 job.ReiZip,
		ReiCityName:            job.ReiCityName,
		ExclusionSubtype:       job.ExclusionSubtype,
		FumigationType:         job.FumigationType,
		TargetPest:             job.TargetPest,
		CustomPest:             job.CustomPest,
		CreatedBy:              job.CreatedBy,
		CreatedByUsername:      job.CreatedByUsername,
		LastModifiedBy:         job.LastModifiedBy,
		LastModifiedByUsername: job.LastModifiedByUsername,
	}
	if job.EndDate != nil {
		end := schedule.FormatDate(*job.EndDate)
		dto.EndDate = &end
	}
	if !job.CreatedAt.IsZero() {
		dto.CreatedAt = job.CreatedAt.UTC().Format(time.RFC3339)
	}
	if job.LastModified != nil {
		modified := job.LastModified.UTC().Format(time.RFC3339)
		dto.LastModified = &modified
	}
	return dto
}
