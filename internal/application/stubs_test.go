package application

import (
	"context"
	"io"
	"log/slog"
	"sort"
	"sync"
	"time"

	"github.com/example/exterminus/internal/persistence"
	"github.com/example/exterminus/internal/schedule"
	"github.com/example/exterminus/internal/scheduler"
)

func discardLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

func date(year int, month time.Month, d int) time.Time {
	return time.Date(year, month, d, 0, 0, 0, 0, time.UTC)
}

func datePtr(year int, month time.Month, d int) *time.Time {
	t := date(year, month, d)
	return &t
}

// memoryStore is an in-memory stand-in for the SQLite repositories.
type memoryStore struct {
	mu        sync.Mutex
	nextID    int64
	jobs      map[int64]persistence.JobDetail
	locks     map[string]persistence.Lock
	timeOff   map[int64]persistence.TimeOffDetail
	users     map[int64]persistence.User
	techs     map[int64]string
	roleCalls []string
	failWith  error
}

func newMemoryStore() *memoryStore {
	return &memoryStore{
		jobs:    make(map[int64]persistence.JobDetail),
		locks:   make(map[string]persistence.Lock),
		timeOff: make(map[int64]persistence.TimeOffDetail),
		users:   make(map[int64]persistence.User),
		techs:   make(map[int64]string),
	}
}

func (m *memoryStore) id() int64 {
	m.nextID++
	return m.nextID
}

func (m *memoryStore) CreateJobIfUnlocked(_ context.Context, job persistence.Job) (persistence.Job, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.failWith != nil {
		return persistence.Job{}, m.failWith
	}
	if _, ok := m.locks[schedule.FormatDate(job.StartDate)]; ok {
		return persistence.Job{}, persistence.ErrLocked
	}
	if job.CreatedBy != nil {
		if _, ok := m.users[*job.CreatedBy]; !ok {
			return persistence.Job{}, persistence.ErrUnknownUser
		}
	}
	job.ID = m.id()
	m.jobs[job.ID] = m.detail(job)
	return job, nil
}

func (m *memoryStore) detail(job persistence.Job) persistence.JobDetail {
	d := persistence.JobDetail{Job: job}
	if job.TechnicianID != nil {
		d.TechnicianName = m.techs[*job.TechnicianID]
	}
	if job.CreatedBy != nil {
		d.CreatedByUsername = m.users[*job.CreatedBy].Username
	}
	if job.LastModifiedBy != nil {
		d.LastModifiedByUsername = m.users[*job.LastModifiedBy].Username
	}
	return d
}

func (m *memoryStore) GetJob(_ context.Context, id int64) (persistence.JobDetail, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	job, ok := m.jobs[id]
	if !ok {
		return persistence.JobDetail{}, persistence.ErrNotFound
	}
	return job, nil
}

func (m *memoryStore) RescheduleJob(_ context.Context, id int64, modifiedBy *int64, plan func(persistence.Job) (time.Time, *time.Time)) (persistence.Job, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	current, ok := m.jobs[id]
	if !ok {
		return persistence.Job{}, persistence.ErrNotFound
	}
	job := current.Job
	job.StartDate, job.EndDate = plan(job)
	now := time.Now()
	job.LastModified = &now
	job.LastModifiedBy = modifiedBy
	m.jobs[id] = m.detail(job)
	return job, nil
}

func (m *memoryStore) UpdateJob(_ context.Context, id int64, update persistence.JobUpdate) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	current, ok := m.jobs[id]
	if !ok {
		return persistence.ErrNotFound
	}
	job := current.Job
	job.Title = update.Title
	job.JobType = update.JobType
	job.Price = update.Price
	job.StartDate = update.StartDate
	job.EndDate = update.EndDate
	job.StartTime = update.StartTime
	job.EndTime = update.EndTime
	job.TimeRange = update.TimeRange
	job.Notes = update.Notes
	job.FumigationType = update.FumigationType
	job.TargetPest = update.TargetPest
	job.TechnicianID = update.TechnicianID
	job.TwoMan = update.TwoMan
	job.LastModifiedBy = update.ModifiedBy
	m.jobs[id] = m.detail(job)
	return nil
}

func (m *memoryStore) DeleteJob(_ context.Context, id int64) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	delete(m.jobs, id)
	return nil
}

func (m *memoryStore) ListJobsOverlapping(_ context.Context, from, to time.Time) ([]persistence.JobDetail, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	window := schedule.NewSpan(from, to)
	var out []persistence.JobDetail
	for _, job := range m.jobs {
		if jobSpan(job.Job).Overlaps(window) {
			out = append(out, job)
		}
	}
	sort.Slice(out, func(i, j int) bool {
		if !out[i].StartDate.Equal(out[j].StartDate) {
			return out[i].StartDate.Before(out[j].StartDate)
		}
		return out[i].ID < out[j].ID
	})
	return out, nil
}

func (m *memoryStore) IsLocked(_ context.Context, day time.Time) (bool, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	_, ok := m.locks[schedule.FormatDate(day)]
	return ok, nil
}

func (m *memoryStore) ToggleLock(_ context.Context, day time.Time, actor *int64) (bool, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	key := schedule.FormatDate(day)
	if _, ok := m.locks[key]; ok {
		delete(m.locks, key)
		return false, nil
	}
	m.locks[key] = persistence.Lock{ID: m.id(), Date: day, LockedBy: actor}
	return true, nil
}

func (m *memoryStore) ListLocks(_ context.Context, from, to time.Time) ([]persistence.Lock, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	var out []persistence.Lock
	for _, lock := range m.locks {
		if !lock.Date.Before(from) && !lock.Date.After(to) {
			out = append(out, lock)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Date.Before(out[j].Date) })
	return out, nil
}

func (m *memoryStore) CreateTimeOff(_ context.Context, entry persistence.TimeOff) (persistence.TimeOff, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	entry.ID = m.id()
	m.timeOff[entry.ID] = persistence.TimeOffDetail{TimeOff: entry, TechnicianName: m.techs[entry.TechnicianID]}
	return entry, nil
}

func (m *memoryStore) GetTimeOff(_ context.Context, id int64) (persistence.TimeOffDetail, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	entry, ok := m.timeOff[id]
	if !ok {
		return persistence.TimeOffDetail{}, persistence.ErrNotFound
	}
	return entry, nil
}

func (m *memoryStore) DeleteTimeOff(_ context.Context, id int64) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if _, ok := m.timeOff[id]; !ok {
		return persistence.ErrNotFound
	}
	delete(m.timeOff, id)
	return nil
}

func (m *memoryStore) ListTimeOffOverlapping(_ context.Context, from, to time.Time) ([]persistence.TimeOffDetail, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	window := schedule.NewSpan(from, to)
	var out []persistence.TimeOffDetail
	for _, entry := range m.timeOff {
		if schedule.NewSpan(entry.StartDate, entry.EndDate).Overlaps(window) {
			out = append(out, entry)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	return out, nil
}

func (m *memoryStore) TechnicianExists(_ context.Context, id int64) (bool, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	_, ok := m.techs[id]
	return ok, nil
}

func (m *memoryStore) ListTechnicians(context.Context) ([]persistence.Technician, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	var out []persistence.Technician
	for id, name := range m.techs {
		out = append(out, persistence.Technician{ID: id, Name: name})
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Name < out[j].Name })
	return out, nil
}

func (m *memoryStore) GetUser(_ context.Context, id int64) (persistence.User, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	user, ok := m.users[id]
	if !ok {
		return persistence.User{}, persistence.ErrNotFound
	}
	return user, nil
}

func (m *memoryStore) UpdateUserRole(_ context.Context, id int64, role, rosterName string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	user, ok := m.users[id]
	if !ok {
		return persistence.ErrNotFound
	}
	user.Role = role
	m.users[id] = user
	m.roleCalls = append(m.roleCalls, role+"|"+rosterName)
	return nil
}

func (m *memoryStore) addUser(user persistence.User) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.users[user.ID] = user
}

func (m *memoryStore) addTechnician(id int64, name string) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.techs[id] = name
}

func newTestJobService(store *memoryStore) *JobService {
	return NewJobService(store, scheduler.NewComposer(store, nil, discardLogger()), discardLogger())
}
