package application

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/example/exterminus/internal/persistence"
	"github.com/example/exterminus/internal/schedule"
	"github.com/example/exterminus/internal/scheduler"
)

// CalendarJobReader lists jobs for calendar windows.
type CalendarJobReader interface {
	ListJobsOverlapping(ctx context.Context, from, to time.Time) ([]persistence.JobDetail, error)
}

// CalendarTimeOffReader lists time off for calendar windows.
type CalendarTimeOffReader interface {
	ListTimeOffOverlapping(ctx context.Context, from, to time.Time) ([]persistence.TimeOffDetail, error)
}

// HolidayProvider returns the holidays of a month keyed by YYYY-MM-DD.
type HolidayProvider interface {
	Holidays(ctx context.Context, year int, month time.Month) (map[string]string, error)
}

// CalendarService assembles month and day views.
type CalendarService struct {
	jobs     CalendarJobReader
	timeOff  CalendarTimeOffReader
	locks    LockRepository
	holidays HolidayProvider
	logger   *slog.Logger
}

// NewCalendarService wires the calendar readers. holidays may be nil.
func NewCalendarService(jobs CalendarJobReader, timeOff CalendarTimeOffReader, locks LockRepository, holidays HolidayProvider, logger *slog.Logger) *CalendarService {
	return &CalendarService{
		jobs:     jobs,
		timeOff:  timeOff,
		locks:    locks,
		holidays: holidays,
		logger:   defaultLogger(logger),
	}
}

// MonthView builds the padded month grid and places every job and time-off
// window on each grid date it covers.
func (s *CalendarService) MonthView(ctx context.Context, year int, month time.Month) (MonthView, error) {
	if s == nil || s.jobs == nil || s.timeOff == nil || s.locks == nil {
		return MonthView{}, fmt.Errorf("CalendarService is not configured")
	}
	if month < time.January || month > time.December || year < 1 {
		return MonthView{}, newValidationError("Month is invalid.")
	}
	logger := serviceLogger(ctx, s.logger, "CalendarService", "MonthView", "year", year, "month", int(month))

	grid := schedule.NewMonthGrid(year, month)
	window := grid.Bounds()

	view := MonthView{
		Year:          year,
		Month:         month,
		Weeks:         grid.Weeks,
		JobsByDate:    make(map[string][]Job),
		TimeOffByDate: make(map[string][]TimeOffEntry),
		Locked:        make(map[string]bool),
		Holidays:      map[string]string{},
		TypeAbbr:      scheduler.TypeAbbreviations(),
	}

	locks, err := s.locks.ListLocks(ctx, window.Start, window.Last())
	if err != nil {
		return MonthView{}, mapRepoError(err)
	}
	for _, lock := range locks {
		view.Locked[schedule.FormatDate(lock.Date)] = true
	}

	jobs, err := s.jobs.ListJobsOverlapping(ctx, window.Start, window.Last())
	if err != nil {
		return MonthView{}, mapRepoError(err)
	}
	for _, detail := range jobs {
		job := newJob(detail)
		for _, day := range coveredDays(jobSpan(detail.Job), window) {
			key := schedule.FormatDate(day)
			view.JobsByDate[key] = append(view.JobsByDate[key], job)
		}
	}

	entries, err := s.timeOff.ListTimeOffOverlapping(ctx, window.Start, window.Last())
	if err != nil {
		return MonthView{}, mapRepoError(err)
	}
	for _, detail := range entries {
		entry := newTimeOffEntry(detail)
		for _, day := range coveredDays(schedule.NewSpan(detail.StartDate, detail.EndDate), window) {
			key := schedule.FormatDate(day)
			view.TimeOffByDate[key] = append(view.TimeOffByDate[key], entry)
		}
	}

	if s.holidays != nil {
		holidays, err := s.holidays.Holidays(ctx, year, month)
		switch {
		case err == nil:
			view.Holidays = holidays
		case errors.Is(err, context.Canceled):
			return MonthView{}, err
		default:
			logger.WarnContext(ctx, "holiday lookup failed", "error", err)
		}
	}

	return view, nil
}

// DayView returns the lock state, jobs and time off of a single date.
func (s *CalendarService) DayView(ctx context.Context, rawDate string) (DayView, error) {
	if s == nil || s.jobs == nil || s.timeOff == nil || s.locks == nil {
		return DayView{}, fmt.Errorf("CalendarService is not configured")
	}
	day, ok := schedule.ParseDate(rawDate)
	if !ok {
		return DayView{}, newValidationError(MsgDateInvalid)
	}

	locked, err := s.locks.IsLocked(ctx, day)
	if err != nil {
		return DayView{}, mapRepoError(err)
	}

	jobs, err := s.jobs.ListJobsOverlapping(ctx, day, day)
	if err != nil {
		return DayView{}, mapRepoError(err)
	}
	entries, err := s.timeOff.ListTimeOffOverlapping(ctx, day, day)
	if err != nil {
		return DayView{}, mapRepoError(err)
	}

	view := DayView{
		Date:    day,
		Locked:  locked,
		Jobs:    make([]Job, 0, len(jobs)),
		TimeOff: make([]TimeOffEntry, 0, len(entries)),
	}
	for _, detail := range jobs {
		view.Jobs = append(view.Jobs, newJob(detail))
	}
	for _, detail := range entries {
		view.TimeOff = append(view.TimeOff, newTimeOffEntry(detail))
	}
	return view, nil
}

func jobSpan(job persistence.Job) schedule.Span {
	var end time.Time
	if job.EndDate != nil {
		end = *job.EndDate
	}
	return schedule.NewSpan(job.StartDate, end)
}

func coveredDays(span, window schedule.Span) []time.Time {
	clipped, ok := span.Clip(window)
	if !ok {
		return nil
	}
	return clipped.Days()
}
