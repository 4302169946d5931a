package testfixtures

import (
	"context"
	"fmt"
	"sync/atomic"
	"testing"
	"time"

	"github.com/example/exterminus/internal/persistence"
)

var userCounter uint64

// referenceTime is a Monday morning.
var referenceTime = time.Date(2025, time.January, 6, 9, 0, 0, 0, time.UTC)

// ReferenceTime returns the canonical baseline timestamp used by fixtures.
func ReferenceTime() time.Time {
	return referenceTime
}

// Day returns the calendar date at UTC midnight.
func Day(year int, month time.Month, day int) time.Time {
	return time.Date(year, month, day, 0, 0, 0, 0, time.UTC)
}

// ----------------------------- User fixtures -----------------------------

// UserOption configures the generated user fixture.
type UserOption func(*persistence.User)

// NewUser returns a manager account with a unique username.
func NewUser(opts ...UserOption) persistence.User {
	idx := atomic.AddUint64(&userCounter, 1)
	user := persistence.User{
		FirstName: "Pat",
		LastName:  fmt.Sprintf("User%03d", idx),
		Username:  fmt.Sprintf("user-%03d", idx),
		Role:      "manager",
	}
	for _, opt := range opts {
		opt(&user)
	}
	return user
}

// WithRole overrides the account role.
func WithRole(role string) UserOption {
	return func(u *persistence.User) {
		u.Role = role
	}
}

// WithName overrides the first and last name.
func WithName(first, last string) UserOption {
	return func(u *persistence.User) {
		u.FirstName = first
		u.LastName = last
	}
}

// WithUsername overrides the generated username.
func WithUsername(username string) UserOption {
	return func(u *persistence.User) {
		u.Username = username
	}
}

// SeedUser stores a user built from opts.
func SeedUser(tb testing.TB, users persistence.UserRepository, opts ...UserOption) persistence.User {
	tb.Helper()
	user, err := users.CreateUser(context.Background(), NewUser(opts...))
	if err != nil {
		tb.Fatalf("failed to seed user: %v", err)
	}
	return user
}

// SeedTechnician adds name to the roster.
func SeedTechnician(tb testing.TB, technicians persistence.TechnicianRepository, name string) persistence.Technician {
	tb.Helper()
	tech, err := technicians.EnsureTechnician(context.Background(), name)
	if err != nil {
		tb.Fatalf("failed to seed technician %q: %v", name, err)
	}
	return tech
}

// ----------------------------- Job fixtures ------------------------------

// JobOption configures the generated job fixture.
type JobOption func(*persistence.Job)

// NewJob returns a single-day general job on the reference date.
func NewJob(opts ...JobOption) persistence.Job {
	job := persistence.Job{
		Title:     "General pest service",
		JobType:   "general",
		StartDate: Day(referenceTime.Year(), referenceTime.Month(), referenceTime.Day()),
		TimeRange: "any",
	}
	for _, opt := range opts {
		opt(&job)
	}
	return job
}

// WithSpan sets the job dates. A zero end leaves the job single day.
func WithSpan(start, end time.Time) JobOption {
	return func(j *persistence.Job) {
		j.StartDate = start
		j.EndDate = nil
		if !end.IsZero() {
			j.EndDate = &end
		}
	}
}

// WithTitle overrides the job title and type.
func WithTitle(title, jobType string) JobOption {
	return func(j *persistence.Job) {
		j.Title = title
		j.JobType = jobType
	}
}

// WithTechnician assigns the job to a technician.
func WithTechnician(id int64) JobOption {
	return func(j *persistence.Job) {
		j.TechnicianID = &id
	}
}

// WithCreator records the creating user.
func WithCreator(id int64) JobOption {
	return func(j *persistence.Job) {
		j.CreatedBy = &id
	}
}

// SeedJob stores a job built from opts.
func SeedJob(tb testing.TB, jobs persistence.JobRepository, opts ...JobOption) persistence.Job {
	tb.Helper()
	job, err := jobs.CreateJobIfUnlocked(context.Background(), NewJob(opts...))
	if err != nil {
		tb.Fatalf("failed to seed job: %v", err)
	}
	return job
}

// SeedTimeOff stores a time-off window for technicianID.
func SeedTimeOff(tb testing.TB, entries persistence.TimeOffRepository, technicianID int64, start, end time.Time, reason string) persistence.TimeOff {
	tb.Helper()
	entry, err := entries.CreateTimeOff(context.Background(), persistence.TimeOff{
		TechnicianID: technicianID,
		StartDate:    start,
		EndDate:      end,
		Reason:       reason,
	})
	if err != nil {
		tb.Fatalf("failed to seed time off: %v", err)
	}
	return entry
}
