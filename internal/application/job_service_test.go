package application

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/example/exterminus/internal/persistence"
	"github.com/example/exterminus/internal/scheduler"
)

var manager = Principal{UserID: 1, Role: RoleManager}

func seededStore() *memoryStore {
	store := newMemoryStore()
	store.addUser(persistence.User{ID: 1, Username: "manny", FirstName: "Manny", LastName: "Ager", Role: RoleManager})
	store.addTechnician(10, "Alice Smith")
	return store
}

func TestJobService_CreateJob(t *testing.T) {
	t.Parallel()

	store := seededStore()
	service := newTestJobService(store)

	job, err := service.CreateJob(context.Background(), manager, scheduler.JobForm{
		Title:      "Spray",
		JobType:    "power spray",
		StartDate:  "2025-06-10",
		StartTime:  "9",
		EndTime:    "11:30",
		Technician: "10",
	})
	if err != nil {
		t.Fatalf("CreateJob returned error: %v", err)
	}
	if job.TechnicianName != "Alice Smith" || job.CreatedByUsername != "manny" {
		t.Fatalf("expected joined names, got %+v", job.JobDetail)
	}
	if job.TimeRange != "9-11" || job.StartTime != "09:00" {
		t.Fatalf("expected normalized times, got %q %q", job.StartTime, job.TimeRange)
	}
	if job.EndDate == nil || !job.EndDate.Equal(date(2025, time.June, 10)) {
		t.Fatalf("expected end date to default to start, got %v", job.EndDate)
	}
	if job.TechnicianLabel != "Alice Smith" || job.DisplayTitle != "Spray" {
		t.Fatalf("unexpected labels %q %q", job.TechnicianLabel, job.DisplayTitle)
	}
}

func TestJobService_CreateJobOnLockedDate(t *testing.T) {
	t.Parallel()

	store := seededStore()
	if _, err := store.ToggleLock(context.Background(), date(2025, time.June, 10), nil); err != nil {
		t.Fatalf("ToggleLock failed: %v", err)
	}
	service := newTestJobService(store)

	_, err := service.CreateJob(context.Background(), manager, scheduler.JobForm{Title: "Spray", StartDate: "06/10/2025"})
	if !errors.Is(err, ErrLocked) {
		t.Fatalf("expected ErrLocked, got %v", err)
	}
	if len(store.jobs) != 0 {
		t.Fatalf("expected no job to be written, got %d", len(store.jobs))
	}
}

func TestJobService_CreateJobFailures(t *testing.T) {
	t.Parallel()

	cases := map[string]struct {
		principal Principal
		form      scheduler.JobForm
		want      string
		wantErr   error
	}{
		"missing start": {
			principal: manager,
			form:      scheduler.JobForm{Title: "Spray"},
			want:      scheduler.MsgStartRequired,
		},
		"missing title": {
			principal: manager,
			form:      scheduler.JobForm{StartDate: "2025-06-10"},
			want:      scheduler.MsgTitleRequired,
		},
		"bad times": {
			principal: manager,
			form:      scheduler.JobForm{Title: "Spray", StartDate: "2025-06-10", StartTime: "14:00", EndTime: "13:00"},
			want:      scheduler.MsgEndTimeOrder,
		},
		"deleted user": {
			principal: Principal{UserID: 99, Role: RoleManager},
			form:      scheduler.JobForm{Title: "Spray", StartDate: "2025-06-10"},
			wantErr:   ErrSessionExpired,
		},
	}

	for name, tc := range cases {
		t.Run(name, func(t *testing.T) {
			t.Parallel()
			service := newTestJobService(seededStore())
			_, err := service.CreateJob(context.Background(), tc.principal, tc.form)
			if tc.wantErr != nil {
				if !errors.Is(err, tc.wantErr) {
					t.Fatalf("expected %v, got %v", tc.wantErr, err)
				}
				return
			}
			var vErr *ValidationError
			if !errors.As(err, &vErr) || vErr.Message != tc.want {
				t.Fatalf("expected validation %q, got %v", tc.want, err)
			}
		})
	}
}

func TestJobService_CreateJobPropagatesInfrastructureErrors(t *testing.T) {
	t.Parallel()

	store := seededStore()
	store.failWith = errors.New("disk full")
	_, err := newTestJobService(store).CreateJob(context.Background(), manager, scheduler.JobForm{Title: "Spray", StartDate: "2025-06-10"})
	if err == nil || ErrorKind(err) != "unexpected" {
		t.Fatalf("expected unexpected error, got %v", err)
	}
}

func TestJobService_MoveJobPreservesDuration(t *testing.T) {
	t.Parallel()

	store := seededStore()
	service := newTestJobService(store)
	ctx := context.Background()

	created, err := service.CreateJob(ctx, manager, scheduler.JobForm{Title: "Tent", StartDate: "2025-01-05", EndDate: "2025-01-07"})
	if err != nil {
		t.Fatalf("CreateJob returned error: %v", err)
	}

	moved, err := service.MoveJob(ctx, manager, created.ID, "2025-01-10")
	if err != nil {
		t.Fatalf("MoveJob returned error: %v", err)
	}
	if !moved.StartDate.Equal(date(2025, time.January, 10)) || !moved.EndDate.Equal(date(2025, time.January, 12)) {
		t.Fatalf("expected 2025-01-10..12, got %v..%v", moved.StartDate, moved.EndDate)
	}
	if moved.LastModifiedBy == nil || *moved.LastModifiedBy != manager.UserID {
		t.Fatalf("expected last_modified_by to be stamped, got %v", moved.LastModifiedBy)
	}
}

func TestJobService_MoveJobWithoutEndDate(t *testing.T) {
	t.Parallel()

	store := seededStore()
	store.jobs[5] = persistence.JobDetail{Job: persistence.Job{ID: 5, Title: "Inspect", StartDate: date(2025, time.February, 27)}}
	service := newTestJobService(store)

	moved, err := service.MoveJob(context.Background(), manager, 5, "2025-02-28")
	if err != nil {
		t.Fatalf("MoveJob returned error: %v", err)
	}
	if moved.EndDate == nil || !moved.EndDate.Equal(date(2025, time.February, 28)) {
		t.Fatalf("expected zero-length move to end on the new start, got %v", moved.EndDate)
	}

	if _, err := service.MoveJob(context.Background(), manager, 404, "2025-03-01"); !errors.Is(err, ErrNotFound) {
		t.Fatalf("expected ErrNotFound, got %v", err)
	}
	var vErr *ValidationError
	if _, err := service.MoveJob(context.Background(), manager, 5, "someday"); !errors.As(err, &vErr) {
		t.Fatalf("expected validation error, got %v", err)
	}
}

func TestJobService_EditJob(t *testing.T) {
	t.Parallel()

	store := seededStore()
	service := newTestJobService(store)
	ctx := context.Background()

	created, err := service.CreateJob(ctx, manager, scheduler.JobForm{Title: "Old", StartDate: "2025-03-01", Price: "100"})
	if err != nil {
		t.Fatalf("CreateJob returned error: %v", err)
	}

	edited, err := service.EditJob(ctx, manager, created.ID, scheduler.JobForm{
		Title:      "New",
		JobType:    "fumigation",
		StartDate:  "2025-03-02",
		EndDate:    "2025-03-04",
		Technician: scheduler.TwoManSelector,
		Price:      "$250.00",
	})
	if err != nil {
		t.Fatalf("EditJob returned error: %v", err)
	}
	if edited.Title != "New" || !edited.TwoMan || edited.TechnicianLabel != "Two Man" {
		t.Fatalf("unexpected edited job %+v", edited)
	}
	if edited.Price == nil || *edited.Price != 250 {
		t.Fatalf("expected price 250, got %v", edited.Price)
	}

	current, err := service.EditJob(ctx, manager, created.ID, scheduler.JobForm{Title: "Bad", StartDate: "2025-03-05", EndDate: "2025-03-01"})
	var vErr *ValidationError
	if !errors.As(err, &vErr) || vErr.Message != scheduler.MsgEndBeforeStart {
		t.Fatalf("expected end-before-start validation, got %v", err)
	}
	if current.Title != "New" {
		t.Fatalf("expected the current job to be returned with the error, got %q", current.Title)
	}

	if _, err := service.EditJob(ctx, manager, 404, scheduler.JobForm{Title: "x", StartDate: "2025-03-01"}); !errors.Is(err, ErrNotFound) {
		t.Fatalf("expected ErrNotFound, got %v", err)
	}
}

func TestJobService_EditReiJobKeepsInvariant(t *testing.T) {
	t.Parallel()

	store := seededStore()
	store.jobs[3] = persistence.JobDetail{Job: persistence.Job{ID: 3, Title: "REIs", JobType: "rei", StartDate: date(2025, time.April, 1)}}
	service := newTestJobService(store)

	edited, err := service.EditJob(context.Background(), manager, 3, scheduler.JobForm{
		JobType:   "rei",
		StartDate: "2025-04-02",
		EndDate:   "2025-04-09",
		Price:     "75",
	})
	if err != nil {
		t.Fatalf("EditJob returned error: %v", err)
	}
	if edited.Title != scheduler.ReiTitle || edited.Price != nil || !edited.EndDate.Equal(edited.StartDate) {
		t.Fatalf("expected REI invariant, got %+v", edited.Job)
	}
}

func TestJobService_DeleteJobIsUnconditional(t *testing.T) {
	t.Parallel()

	store := seededStore()
	service := newTestJobService(store)
	store.jobs[8] = persistence.JobDetail{Job: persistence.Job{ID: 8, Title: "x", StartDate: date(2025, time.May, 1)}}

	if err := service.DeleteJob(context.Background(), manager, 8); err != nil {
		t.Fatalf("DeleteJob returned error: %v", err)
	}
	if err := service.DeleteJob(context.Background(), manager, 8); err != nil {
		t.Fatalf("expected second delete to succeed, got %v", err)
	}
	if _, err := service.GetJob(context.Background(), 8); !errors.Is(err, ErrNotFound) {
		t.Fatalf("expected ErrNotFound after delete, got %v", err)
	}
}
