package testfixtures

import (
	"context"
	"io"
	"log/slog"
	"time"

	"github.com/example/exterminus/internal/application"
	"github.com/example/exterminus/internal/scheduler"
)

// StaticHolidays is a holiday provider serving a fixed YYYY-MM-DD table.
type StaticHolidays map[string]string

// Holidays returns the entries of the table that fall in month.
func (s StaticHolidays) Holidays(_ context.Context, year int, month time.Month) (map[string]string, error) {
	out := make(map[string]string)
	for key, name := range s {
		day, err := time.Parse(time.DateOnly, key)
		if err != nil {
			continue
		}
		if day.Year() == year && day.Month() == month {
			out[key] = name
		}
	}
	return out, nil
}

// StaticZips resolves ZIP codes from a fixed table. Unknown codes have no city.
type StaticZips map[string]string

// LookupCity implements scheduler.ZipLookup.
func (s StaticZips) LookupCity(_ context.Context, zip string) (string, error) {
	return s[zip], nil
}

// ServiceFactory assists tests with constructing application services over a
// SQLite harness.
type ServiceFactory struct {
	Holidays application.HolidayProvider
	Zips     scheduler.ZipLookup
	Logger   *slog.Logger
}

// ServiceFactoryOption configures a ServiceFactory instance.
type ServiceFactoryOption func(*ServiceFactory)

// NewServiceFactory constructs a ServiceFactory with defaults.
func NewServiceFactory(opts ...ServiceFactoryOption) *ServiceFactory {
	factory := &ServiceFactory{
		Holidays: StaticHolidays{},
		Zips:     StaticZips{},
		Logger:   slog.New(slog.NewTextHandler(io.Discard, nil)),
	}
	for _, opt := range opts {
		opt(factory)
	}
	return factory
}

// WithHolidays overrides the holiday provider.
func WithHolidays(holidays application.HolidayProvider) ServiceFactoryOption {
	return func(factory *ServiceFactory) {
		factory.Holidays = holidays
	}
}

// WithZips overrides the ZIP lookup.
func WithZips(zips scheduler.ZipLookup) ServiceFactoryOption {
	return func(factory *ServiceFactory) {
		factory.Zips = zips
	}
}

// Services bundles every application service over one storage.
type Services struct {
	Jobs        *application.JobService
	Locks       *application.LockService
	Calendar    *application.CalendarService
	TimeOff     *application.TimeOffService
	Technicians *application.TechnicianService
}

// Build wires the services to the harness repositories.
func (f *ServiceFactory) Build(h *SQLiteHarness) Services {
	composer := scheduler.NewComposer(h.Technicians, f.Zips, f.Logger)
	return Services{
		Jobs:        application.NewJobService(h.Jobs, composer, f.Logger),
		Locks:       application.NewLockService(h.Locks, f.Logger),
		Calendar:    application.NewCalendarService(h.Jobs, h.TimeOff, h.Locks, f.Holidays, f.Logger),
		TimeOff:     application.NewTimeOffService(h.TimeOff, h.Technicians, h.Users, f.Logger),
		Technicians: application.NewTechnicianService(h.Technicians, h.Users, f.Logger),
	}
}
