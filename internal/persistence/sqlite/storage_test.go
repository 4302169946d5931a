package sqlite

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"path/filepath"
	"sync"
	"testing"
	"time"

	"github.com/example/exterminus/internal/persistence"
	"github.com/example/exterminus/internal/persistence/sqlite/migration"
)

func newTestStorage(t *testing.T) *Storage {
	t.Helper()

	cfg := migration.TempFileTestSQLiteConfig(filepath.Join(t.TempDir(), "exterminus.db"))
	storage, err := Open(cfg, slog.New(slog.NewTextHandler(io.Discard, nil)))
	if err != nil {
		t.Fatalf("failed to open storage: %v", err)
	}
	t.Cleanup(func() { _ = storage.Close() })

	if err := storage.Migrate(context.Background()); err != nil {
		t.Fatalf("failed to migrate: %v", err)
	}
	return storage
}

func day(year int, month time.Month, d int) time.Time {
	return time.Date(year, month, d, 0, 0, 0, 0, time.UTC)
}

func ptr[T any](v T) *T { return &v }

func seedUser(t *testing.T, s *Storage, username string) persistence.User {
	t.Helper()
	user, err := s.Users.CreateUser(context.Background(), persistence.User{FirstName: "Pat", LastName: "Lee", Username: username, Role: "manager"})
	if err != nil {
		t.Fatalf("CreateUser failed: %v", err)
	}
	return user
}

func TestStorage_MigrateIsIdempotent(t *testing.T) {
	t.Parallel()

	storage := newTestStorage(t)
	if err := storage.Migrate(context.Background()); err != nil {
		t.Fatalf("second Migrate failed: %v", err)
	}
	if err := storage.Ping(context.Background()); err != nil {
		t.Fatalf("Ping failed: %v", err)
	}
}

func TestJobRepository_CreateAndGet(t *testing.T) {
	t.Parallel()

	ctx := context.Background()
	storage := newTestStorage(t)
	user := seedUser(t, storage, "pat")
	tech, err := storage.Technicians.EnsureTechnician(ctx, "Alice Smith")
	if err != nil {
		t.Fatalf("EnsureTechnician failed: %v", err)
	}

	created, err := storage.Jobs.CreateJobIfUnlocked(ctx, persistence.Job{
		Title:        "Termite treatment",
		JobType:      "borate",
		Price:        ptr(125.5),
		StartDate:    day(2025, time.January, 5),
		EndDate:      ptr(day(2025, time.January, 7)),
		StartTime:    "09:00",
		EndTime:      "11:00",
		TimeRange:    "9-11",
		TechnicianID: &tech.ID,
		CreatedBy:    &user.ID,
	})
	if err != nil {
		t.Fatalf("CreateJobIfUnlocked failed: %v", err)
	}
	if created.ID == 0 || created.CreatedAt.IsZero() {
		t.Fatalf("expected id and created_at to be assigned, got %+v", created)
	}

	detail, err := storage.Jobs.GetJob(ctx, created.ID)
	if err != nil {
		t.Fatalf("GetJob failed: %v", err)
	}
	if detail.TechnicianName != "Alice Smith" || detail.CreatedByUsername != "pat" {
		t.Fatalf("expected joined names, got %+v", detail)
	}
	if detail.Price == nil || *detail.Price != 125.5 {
		t.Fatalf("expected price 125.5, got %v", detail.Price)
	}
	if detail.EndDate == nil || !detail.EndDate.Equal(day(2025, time.January, 7)) {
		t.Fatalf("expected end date 2025-01-07, got %v", detail.EndDate)
	}
	if detail.Notes != "" || detail.ReiQuantity != nil {
		t.Fatalf("expected empty optional fields, got %+v", detail)
	}

	if _, err := storage.Jobs.GetJob(ctx, created.ID+100); !errors.Is(err, persistence.ErrNotFound) {
		t.Fatalf("expected ErrNotFound, got %v", err)
	}
}

func TestJobRepository_CreateOnLockedDateWritesNothing(t *testing.T) {
	t.Parallel()

	ctx := context.Background()
	storage := newTestStorage(t)
	user := seedUser(t, storage, "pat")

	if _, err := storage.Locks.ToggleLock(ctx, day(2025, time.March, 3), &user.ID); err != nil {
		t.Fatalf("ToggleLock failed: %v", err)
	}

	_, err := storage.Jobs.CreateJobIfUnlocked(ctx, persistence.Job{Title: "Spray", StartDate: day(2025, time.March, 3), CreatedBy: &user.ID})
	if !errors.Is(err, persistence.ErrLocked) {
		t.Fatalf("expected ErrLocked, got %v", err)
	}

	// Only the start date is checked.
	if _, err := storage.Jobs.CreateJobIfUnlocked(ctx, persistence.Job{
		Title:     "Tent",
		StartDate: day(2025, time.March, 2),
		EndDate:   ptr(day(2025, time.March, 4)),
		CreatedBy: &user.ID,
	}); err != nil {
		t.Fatalf("expected job spanning a locked day to be accepted, got %v", err)
	}

	jobs, err := storage.Jobs.ListJobsOverlapping(ctx, day(2025, time.March, 3), day(2025, time.March, 3))
	if err != nil {
		t.Fatalf("ListJobsOverlapping failed: %v", err)
	}
	if len(jobs) != 1 || jobs[0].Title != "Tent" {
		t.Fatalf("expected only the spanning job, got %+v", jobs)
	}
}

func TestJobRepository_CreateRejectsUnknownCreatorAndTwoManConflict(t *testing.T) {
	t.Parallel()

	ctx := context.Background()
	storage := newTestStorage(t)

	_, err := storage.Jobs.CreateJobIfUnlocked(ctx, persistence.Job{Title: "Spray", StartDate: day(2025, time.May, 1), CreatedBy: ptr(int64(42))})
	if !errors.Is(err, persistence.ErrUnknownUser) {
		t.Fatalf("expected ErrUnknownUser, got %v", err)
	}

	tech, err := storage.Technicians.EnsureTechnician(ctx, "Bob")
	if err != nil {
		t.Fatalf("EnsureTechnician failed: %v", err)
	}
	_, err = storage.Jobs.CreateJobIfUnlocked(ctx, persistence.Job{Title: "Spray", StartDate: day(2025, time.May, 1), TechnicianID: &tech.ID, TwoMan: true})
	if !errors.Is(err, persistence.ErrConstraintViolation) {
		t.Fatalf("expected ErrConstraintViolation, got %v", err)
	}
}

func TestJobRepository_RescheduleJob(t *testing.T) {
	t.Parallel()

	ctx := context.Background()
	storage := newTestStorage(t)
	user := seedUser(t, storage, "mover")

	job, err := storage.Jobs.CreateJobIfUnlocked(ctx, persistence.Job{Title: "Exclusion", StartDate: day(2025, time.January, 5), EndDate: ptr(day(2025, time.January, 7))})
	if err != nil {
		t.Fatalf("CreateJobIfUnlocked failed: %v", err)
	}

	moved, err := storage.Jobs.RescheduleJob(ctx, job.ID, &user.ID, func(current persistence.Job) (time.Time, *time.Time) {
		if !current.StartDate.Equal(day(2025, time.January, 5)) {
			t.Errorf("plan received unexpected job %+v", current)
		}
		return day(2025, time.January, 10), ptr(day(2025, time.January, 12))
	})
	if err != nil {
		t.Fatalf("RescheduleJob failed: %v", err)
	}
	if !moved.StartDate.Equal(day(2025, time.January, 10)) || moved.EndDate == nil || !moved.EndDate.Equal(day(2025, time.January, 12)) {
		t.Fatalf("unexpected moved dates %v - %v", moved.StartDate, moved.EndDate)
	}
	if moved.LastModified == nil || moved.LastModifiedBy == nil || *moved.LastModifiedBy != user.ID {
		t.Fatalf("expected audit columns to be stamped, got %+v", moved)
	}

	_, err = storage.Jobs.RescheduleJob(ctx, 9999, &user.ID, func(persistence.Job) (time.Time, *time.Time) {
		t.Errorf("plan must not run for a missing job")
		return time.Time{}, nil
	})
	if !errors.Is(err, persistence.ErrNotFound) {
		t.Fatalf("expected ErrNotFound, got %v", err)
	}
}

func TestJobRepository_UpdateAndDelete(t *testing.T) {
	t.Parallel()

	ctx := context.Background()
	storage := newTestStorage(t)
	user := seedUser(t, storage, "editor")

	job, err := storage.Jobs.CreateJobIfUnlocked(ctx, persistence.Job{Title: "Old", StartDate: day(2025, time.June, 1), Notes: "gate code 12"})
	if err != nil {
		t.Fatalf("CreateJobIfUnlocked failed: %v", err)
	}

	update := persistence.JobUpdate{
		Title:      "New",
		JobType:    "fumigation",
		StartDate:  day(2025, time.June, 2),
		EndDate:    ptr(day(2025, time.June, 3)),
		TimeRange:  "any",
		TwoMan:     true,
		ModifiedBy: &user.ID,
	}
	if err := storage.Jobs.UpdateJob(ctx, job.ID, update); err != nil {
		t.Fatalf("UpdateJob failed: %v", err)
	}

	detail, err := storage.Jobs.GetJob(ctx, job.ID)
	if err != nil {
		t.Fatalf("GetJob failed: %v", err)
	}
	if detail.Title != "New" || !detail.TwoMan || detail.Notes != "" || detail.LastModifiedByUsername != "editor" {
		t.Fatalf("unexpected job after update %+v", detail)
	}

	if err := storage.Jobs.UpdateJob(ctx, job.ID+1, update); !errors.Is(err, persistence.ErrNotFound) {
		t.Fatalf("expected ErrNotFound, got %v", err)
	}

	if err := storage.Jobs.DeleteJob(ctx, job.ID); err != nil {
		t.Fatalf("DeleteJob failed: %v", err)
	}
	if err := storage.Jobs.DeleteJob(ctx, job.ID); err != nil {
		t.Fatalf("expected deleting a missing job to succeed, got %v", err)
	}
}

func TestJobRepository_ListJobsOverlappingOrdersByStartThenID(t *testing.T) {
	t.Parallel()

	ctx := context.Background()
	storage := newTestStorage(t)

	for _, job := range []persistence.Job{
		{Title: "second", StartDate: day(2025, time.April, 2)},
		{Title: "first", StartDate: day(2025, time.March, 30), EndDate: ptr(day(2025, time.April, 1))},
		{Title: "third", StartDate: day(2025, time.April, 2)},
		{Title: "outside", StartDate: day(2025, time.May, 1)},
	} {
		if _, err := storage.Jobs.CreateJobIfUnlocked(ctx, job); err != nil {
			t.Fatalf("CreateJobIfUnlocked failed: %v", err)
		}
	}

	jobs, err := storage.Jobs.ListJobsOverlapping(ctx, day(2025, time.April, 1), day(2025, time.April, 30))
	if err != nil {
		t.Fatalf("ListJobsOverlapping failed: %v", err)
	}
	var titles []string
	for _, job := range jobs {
		titles = append(titles, job.Title)
	}
	if len(titles) != 3 || titles[0] != "first" || titles[1] != "second" || titles[2] != "third" {
		t.Fatalf("unexpected order %v", titles)
	}
}

func TestLockRepository_ToggleFlips(t *testing.T) {
	t.Parallel()

	ctx := context.Background()
	storage := newTestStorage(t)
	user := seedUser(t, storage, "locker")
	date := day(2025, time.July, 4)

	locked, err := storage.Locks.ToggleLock(ctx, date, &user.ID)
	if err != nil || !locked {
		t.Fatalf("expected first toggle to lock, got %v, %v", locked, err)
	}
	if ok, _ := storage.Locks.IsLocked(ctx, date); !ok {
		t.Fatalf("expected date to be locked")
	}

	locks, err := storage.Locks.ListLocks(ctx, day(2025, time.July, 1), day(2025, time.July, 31))
	if err != nil {
		t.Fatalf("ListLocks failed: %v", err)
	}
	if len(locks) != 1 || locks[0].LockedBy == nil || *locks[0].LockedBy != user.ID {
		t.Fatalf("unexpected locks %+v", locks)
	}

	locked, err = storage.Locks.ToggleLock(ctx, date, &user.ID)
	if err != nil || locked {
		t.Fatalf("expected second toggle to unlock, got %v, %v", locked, err)
	}
	if ok, _ := storage.Locks.IsLocked(ctx, date); ok {
		t.Fatalf("expected date to be unlocked")
	}
}

func TestLockRepository_ConcurrentTogglesStayConsistent(t *testing.T) {
	t.Parallel()

	ctx := context.Background()
	storage := newTestStorage(t)
	user := seedUser(t, storage, "racer")
	date := day(2025, time.August, 1)

	const toggles = 8
	var wg sync.WaitGroup
	errs := make(chan error, toggles)
	for i := 0; i < toggles; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			if _, err := storage.Locks.ToggleLock(ctx, date, &user.ID); err != nil {
				errs <- err
			}
		}()
	}
	wg.Wait()
	close(errs)
	for err := range errs {
		t.Fatalf("ToggleLock failed: %v", err)
	}

	locked, err := storage.Locks.IsLocked(ctx, date)
	if err != nil {
		t.Fatalf("IsLocked failed: %v", err)
	}
	if locked {
		t.Fatalf("expected an even number of toggles to leave the date unlocked")
	}
}

func TestTimeOffRepository(t *testing.T) {
	t.Parallel()

	ctx := context.Background()
	storage := newTestStorage(t)
	tech, err := storage.Technicians.EnsureTechnician(ctx, "Carol")
	if err != nil {
		t.Fatalf("EnsureTechnician failed: %v", err)
	}

	entry, err := storage.TimeOff.CreateTimeOff(ctx, persistence.TimeOff{
		TechnicianID: tech.ID,
		StartDate:    day(2025, time.January, 30),
		EndDate:      day(2025, time.February, 2),
		Reason:       "vacation",
	})
	if err != nil {
		t.Fatalf("CreateTimeOff failed: %v", err)
	}

	entries, err := storage.TimeOff.ListTimeOffOverlapping(ctx, day(2025, time.February, 1), day(2025, time.February, 28))
	if err != nil {
		t.Fatalf("ListTimeOffOverlapping failed: %v", err)
	}
	if len(entries) != 1 || entries[0].TechnicianName != "Carol" {
		t.Fatalf("unexpected entries %+v", entries)
	}

	_, err = storage.TimeOff.CreateTimeOff(ctx, persistence.TimeOff{TechnicianID: tech.ID, StartDate: day(2025, time.March, 2), EndDate: day(2025, time.March, 1)})
	if !errors.Is(err, persistence.ErrConstraintViolation) {
		t.Fatalf("expected ErrConstraintViolation, got %v", err)
	}
	_, err = storage.TimeOff.CreateTimeOff(ctx, persistence.TimeOff{TechnicianID: tech.ID + 50, StartDate: day(2025, time.March, 1), EndDate: day(2025, time.March, 1)})
	if !errors.Is(err, persistence.ErrForeignKeyViolation) {
		t.Fatalf("expected ErrForeignKeyViolation, got %v", err)
	}

	if err := storage.TimeOff.DeleteTimeOff(ctx, entry.ID); err != nil {
		t.Fatalf("DeleteTimeOff failed: %v", err)
	}
	if _, err := storage.TimeOff.GetTimeOff(ctx, entry.ID); !errors.Is(err, persistence.ErrNotFound) {
		t.Fatalf("expected ErrNotFound, got %v", err)
	}
	if err := storage.TimeOff.DeleteTimeOff(ctx, entry.ID); !errors.Is(err, persistence.ErrNotFound) {
		t.Fatalf("expected ErrNotFound on second delete, got %v", err)
	}
}

func TestUserRepository_UpdateUserRoleEnsuresRosterEntry(t *testing.T) {
	t.Parallel()

	ctx := context.Background()
	storage := newTestStorage(t)
	user := seedUser(t, storage, "  Dana ")
	if user.Username != "dana" {
		t.Fatalf("expected normalized username, got %q", user.Username)
	}
	if _, err := storage.Users.CreateUser(ctx, persistence.User{Username: "DANA"}); !errors.Is(err, persistence.ErrDuplicate) {
		t.Fatalf("expected ErrDuplicate, got %v", err)
	}

	for i := 0; i < 2; i++ {
		if err := storage.Users.UpdateUserRole(ctx, user.ID, "technician", "Pat Lee"); err != nil {
			t.Fatalf("UpdateUserRole failed: %v", err)
		}
	}

	fetched, err := storage.Users.GetUser(ctx, user.ID)
	if err != nil {
		t.Fatalf("GetUser failed: %v", err)
	}
	if fetched.Role != "technician" {
		t.Fatalf("expected technician role, got %q", fetched.Role)
	}

	roster, err := storage.Technicians.ListTechnicians(ctx)
	if err != nil {
		t.Fatalf("ListTechnicians failed: %v", err)
	}
	if len(roster) != 1 || roster[0].Name != "Pat Lee" {
		t.Fatalf("expected a single roster entry, got %+v", roster)
	}

	if err := storage.Users.UpdateUserRole(ctx, user.ID+10, "admin", ""); !errors.Is(err, persistence.ErrNotFound) {
		t.Fatalf("expected ErrNotFound, got %v", err)
	}
}

func TestTechnicianRepository_EnsureIsIdempotent(t *testing.T) {
	t.Parallel()

	ctx := context.Background()
	storage := newTestStorage(t)

	first, err := storage.Technicians.EnsureTechnician(ctx, "Eve")
	if err != nil {
		t.Fatalf("EnsureTechnician failed: %v", err)
	}
	second, err := storage.Technicians.EnsureTechnician(ctx, " Eve ")
	if err != nil {
		t.Fatalf("EnsureTechnician failed: %v", err)
	}
	if first.ID != second.ID {
		t.Fatalf("expected the same roster entry, got %d and %d", first.ID, second.ID)
	}

	exists, err := storage.Technicians.TechnicianExists(ctx, first.ID)
	if err != nil || !exists {
		t.Fatalf("expected technician to exist, got %v, %v", exists, err)
	}
	exists, err = storage.Technicians.TechnicianExists(ctx, first.ID+1)
	if err != nil || exists {
		t.Fatalf("expected unknown technician, got %v, %v", exists, err)
	}
}
