package http

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"strconv"
	"time"

	"github.com/go-chi/chi/v5"

	"github.com/example/exterminus/internal/application"
	"github.com/example/exterminus/internal/schedule"
)

type calendarService interface {
	MonthView(ctx context.Context, year int, month time.Month) (application.MonthView, error)
	DayView(ctx context.Context, rawDate string) (application.DayView, error)
}

// WorkbookWriter renders a month view as a spreadsheet.
type WorkbookWriter func(view application.MonthView, w io.Writer) error

const xlsxContentType = "application/vnd.openxmlformats-officedocument.spreadsheetml.sheet"

// CalendarHandler serves month, day and export views.
type CalendarHandler struct {
	service   calendarService
	workbook  WorkbookWriter
	responder responder
	logger    *slog.Logger
}

// NewCalendarHandler wires the calendar service. workbook may be nil, which
// disables the export endpoint.
func NewCalendarHandler(service calendarService, workbook WorkbookWriter, logger *slog.Logger) *CalendarHandler {
	return &CalendarHandler{service: service, workbook: workbook, responder: newResponder(logger), logger: defaultLogger(logger)}
}

func (h *CalendarHandler) Month(w http.ResponseWriter, r *http.Request) {
	year, month, ok := pathMonth(r)
	if !ok {
		h.responder.writeError(r.Context(), w, http.StatusBadRequest, errInvalidMonth)
		return
	}
	view, err := h.service.MonthView(r.Context(), year, month)
	if err != nil {
		h.responder.handleServiceError(r.Context(), w, err)
		return
	}
	h.responder.writeJSON(r.Context(), w, http.StatusOK, toMonthDTO(view))
}

func (h *CalendarHandler) Day(w http.ResponseWriter, r *http.Request) {
	view, err := h.service.DayView(r.Context(), chi.URLParam(r, "date"))
	if err != nil {
		h.responder.handleServiceError(r.Context(), w, err)
		return
	}
	h.responder.writeJSON(r.Context(), w, http.StatusOK, toDayDTO(view))
}

func (h *CalendarHandler) Export(w http.ResponseWriter, r *http.Request) {
	if h.workbook == nil {
		h.responder.writeError(r.Context(), w, http.StatusNotFound, nil)
		return
	}
	year, month, ok := pathMonth(r)
	if !ok {
		h.responder.writeError(r.Context(), w, http.StatusBadRequest, errInvalidMonth)
		return
	}
	view, err := h.service.MonthView(r.Context(), year, month)
	if err != nil {
		h.responder.handleServiceError(r.Context(), w, err)
		return
	}

	var buf bytes.Buffer
	if err := h.workbook(view, &buf); err != nil {
		h.responder.writeError(r.Context(), w, http.StatusInternalServerError, err)
		return
	}

	filename := fmt.Sprintf("calendar-%04d-%02d.xlsx", year, int(month))
	w.Header().Set("Content-Type", xlsxContentType)
	w.Header().Set("Content-Disposition", fmt.Sprintf("attachment; filename=%q", filename))
	w.Header().Set("Content-Length", strconv.Itoa(buf.Len()))
	w.WriteHeader(http.StatusOK)
	if _, err := buf.WriteTo(w); err != nil {
		handlerLogger(r, h.logger, "CalendarHandler", "Export").WarnContext(r.Context(), "export write interrupted", "error", err)
	}
}

func pathMonth(r *http.Request) (int, time.Month, bool) {
	year, err := strconv.Atoi(chi.URLParam(r, "year"))
	if err != nil {
		return 0, 0, false
	}
	month, err := strconv.Atoi(chi.URLParam(r, "month"))
	if err != nil {
		return 0, 0, false
	}
	return year, time.Month(month), true
}

type monthDTO struct {
	Year          int                     `json:"year"`
	Month         int                     `json:"month"`
	Weeks         [][]string              `json:"weeks"`
	JobsByDate    map[string][]jobDTO     `json:"jobs_by_date"`
	TimeOffByDate map[string][]timeOffDTO `json:"time_off_by_date"`
	Locked        []string                `json:"locked_dates"`
	Holidays      map[string]string       `json:"holidays"`
	TypeAbbr      map[string]string       `json:"type_abbr"`
}

type dayDTO struct {
	Date    string       `json:"date"`
	Locked  bool         `json:"locked"`
	Jobs    []jobDTO     `json:"jobs"`
	TimeOff []timeOffDTO `json:"time_off"`
}

func toMonthDTO(view application.MonthView) monthDTO {
	dto := monthDTO{
		Year:          view.Year,
		Month:         int(view.Month),
		Weeks:         make([][]string, 0, len(view.Weeks)),
		JobsByDate:    make(map[string][]jobDTO, len(view.JobsByDate)),
		TimeOffByDate: make(map[string][]timeOffDTO, len(view.TimeOffByDate)),
		Locked:        []string{},
		Holidays:      view.Holidays,
		TypeAbbr:      view.TypeAbbr,
	}
	for _, week := range view.Weeks {
		days := make([]string, 0, len(week))
		for _, day := range week {
			days = append(days, schedule.FormatDate(day))
		}
		dto.Weeks = append(dto.Weeks, days)
		for _, key := range days {
			if view.Locked[key] {
				dto.Locked = append(dto.Locked, key)
			}
		}
	}
	for key, jobs := range view.JobsByDate {
		out := make([]jobDTO, 0, len(jobs))
		for _, job := range jobs {
			out = append(out, toJobDTO(job))
		}
		dto.JobsByDate[key] = out
	}
	for key, entries := range view.TimeOffByDate {
		out := make([]timeOffDTO, 0, len(entries))
		for _, entry := range entries {
			out = append(out, toTimeOffDTO(entry))
		}
		dto.TimeOffByDate[key] = out
	}
	if dto.Holidays == nil {
		dto.Holidays = map[string]string{}
	}
	return dto
}

func toDayDTO(view application.DayView) dayDTO {
	dto := dayDTO{
		Date:    schedule.FormatDate(view.Date),
		Locked:  view.Locked,
		Jobs:    make([]jobDTO, 0, len(view.Jobs)),
		TimeOff: make([]timeOffDTO, 0, len(view.TimeOff)),
	}
	for _, job := range view.Jobs {
		dto.Jobs = append(dto.Jobs, toJobDTO(job))
	}
	for _, entry := range view.TimeOff {
		dto.TimeOff = append(dto.TimeOff, toTimeOffDTO(entry))
	}
	return dto
}
