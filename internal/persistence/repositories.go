package persistence

import (
	"context"
	"time"
)

// UserRepository reads accounts and changes their role.
type UserRepository interface {
	CreateUser(ctx context.Context, user User) (User, error)
	GetUser(ctx context.Context, id int64) (User, error)
	// UpdateUserRole sets the role and, when rosterName is not empty, ensures a
	// technician with that name exists, in one transaction.
	UpdateUserRole(ctx context.Context, id int64, role, rosterName string) error
}

// TechnicianRepository manages the technician roster.
type TechnicianRepository interface {
	TechnicianExists(ctx context.Context, id int64) (bool, error)
	ListTechnicians(ctx context.Context) ([]Technician, error)
	EnsureTechnician(ctx context.Context, name string) (Technician, error)
}

// JobRepository stores jobs.
type JobRepository interface {
	// CreateJobIfUnlocked inserts job unless its start date is locked, in
	// which case ErrLocked is returned and nothing is written.
	CreateJobIfUnlocked(ctx context.Context, job Job) (Job, error)
	GetJob(ctx context.Context, id int64) (JobDetail, error)
	// RescheduleJob loads the job, asks plan for its new dates and stores them
	// with audit columns in one transaction.
	RescheduleJob(ctx context.Context, id int64, modifiedBy *int64, plan func(Job) (time.Time, *time.Time)) (Job, error)
	UpdateJob(ctx context.Context, id int64, update JobUpdate) error
	DeleteJob(ctx context.Context, id int64) error
	// ListJobsOverlapping returns jobs whose span intersects [from, to],
	// ordered by start date then id.
	ListJobsOverlapping(ctx context.Context, from, to time.Time) ([]JobDetail, error)
}

// LockRepository stores day locks.
type LockRepository interface {
	IsLocked(ctx context.Context, day time.Time) (bool, error)
	// ToggleLock flips the lock for day atomically and reports the new state.
	ToggleLock(ctx context.Context, day time.Time, actor *int64) (bool, error)
	ListLocks(ctx context.Context, from, to time.Time) ([]Lock, error)
}

// TimeOffRepository stores technician time off.
type TimeOffRepository interface {
	CreateTimeOff(ctx context.Context, entry TimeOff) (TimeOff, error)
	GetTimeOff(ctx context.Context, id int64) (TimeOffDetail, error)
	DeleteTimeOff(ctx context.Context, id int64) error
	ListTimeOffOverlapping(ctx context.Context, from, to time.Time) ([]TimeOffDetail, error)
}
