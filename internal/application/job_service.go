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

// JobRepository captures the persistence interactions needed by the job service.
type JobRepository interface {
	CreateJobIfUnlocked(ctx context.Context, job persistence.Job) (persistence.Job, error)
	GetJob(ctx context.Context, id int64) (persistence.JobDetail, error)
	RescheduleJob(ctx context.Context, id int64, modifiedBy *int64, plan func(persistence.Job) (time.Time, *time.Time)) (persistence.Job, error)
	UpdateJob(ctx context.Context, id int64, update persistence.JobUpdate) error
	DeleteJob(ctx context.Context, id int64) error
}

// PayloadComposer turns raw job forms into validated payloads.
type PayloadComposer interface {
	ComposeNew(ctx context.Context, form scheduler.JobForm) (scheduler.Payload, error)
	ComposeEdit(ctx context.Context, form scheduler.JobForm) (scheduler.Payload, error)
}

// JobService creates, moves, edits and deletes jobs.
type JobService struct {
	jobs     JobRepository
	composer PayloadComposer
	logger   *slog.Logger
}

// NewJobService wires dependencies for job operations.
func NewJobService(jobs JobRepository, composer PayloadComposer, logger *slog.Logger) *JobService {
	return &JobService{jobs: jobs, composer: composer, logger: defaultLogger(logger)}
}

// CreateJob composes form into a job and stores it unless its start date is
// locked. The principal is recorded as the creator.
func (s *JobService) CreateJob(ctx context.Context, principal Principal, form scheduler.JobForm) (Job, error) {
	if s == nil || s.jobs == nil || s.composer == nil {
		return Job{}, fmt.Errorf("JobService is not configured")
	}
	logger := serviceLogger(ctx, s.logger, "JobService", "CreateJob", "user_id", principal.UserID)

	payload, err := s.composer.ComposeNew(ctx, form)
	if err != nil {
		err = fromComposerError(err)
		logFailure(ctx, logger, "job rejected", err)
		return Job{}, err
	}

	job := jobFromPayload(payload)
	job.CreatedBy = principal.actor()

	created, err := s.jobs.CreateJobIfUnlocked(ctx, job)
	if err != nil {
		err = mapRepoError(err)
		logFailure(ctx, logger, "job not created", err)
		return Job{}, err
	}

	logger.InfoContext(ctx, "job created", "job_id", created.ID, "start_date", schedule.FormatDate(created.StartDate))
	return s.GetJob(ctx, created.ID)
}

// GetJob returns a job with its technician and audit names.
func (s *JobService) GetJob(ctx context.Context, id int64) (Job, error) {
	if s == nil || s.jobs == nil {
		return Job{}, fmt.Errorf("JobService is not configured")
	}
	detail, err := s.jobs.GetJob(ctx, id)
	if err != nil {
		return Job{}, mapRepoError(err)
	}
	return newJob(detail), nil
}

// MoveJob reschedules a job to start on rawStart, keeping its length. A job
// without an end date is treated as a single day.
func (s *JobService) MoveJob(ctx context.Context, principal Principal, id int64, rawStart string) (Job, error) {
	if s == nil || s.jobs == nil {
		return Job{}, fmt.Errorf("JobService is not configured")
	}
	logger := serviceLogger(ctx, s.logger, "JobService", "MoveJob", "user_id", principal.UserID, "job_id", id)

	newStart, ok := schedule.ParseDate(rawStart)
	if !ok {
		err := newValidationError(scheduler.MsgStartInvalid)
		logFailure(ctx, logger, "move rejected", err)
		return Job{}, err
	}

	moved, err := s.jobs.RescheduleJob(ctx, id, principal.actor(), func(current persistence.Job) (time.Time, *time.Time) {
		var end time.Time
		if current.EndDate != nil {
			end = *current.EndDate
		}
		shifted := schedule.NewSpan(current.StartDate, end).Shift(newStart)
		return shifted.Start, &shifted.End
	})
	if err != nil {
		err = mapRepoError(err)
		logFailure(ctx, logger, "move failed", err)
		return Job{}, err
	}

	logger.InfoContext(ctx, "job moved", "start_date", schedule.FormatDate(moved.StartDate))
	return s.GetJob(ctx, id)
}

// EditJob revalidates form and overwrites the job's editable fields. On a
// validation failure the current job is returned alongside the error so the
// caller can re-render it.
func (s *JobService) EditJob(ctx context.Context, principal Principal, id int64, form scheduler.JobForm) (Job, error) {
	if s == nil || s.jobs == nil || s.composer == nil {
		return Job{}, fmt.Errorf("JobService is not configured")
	}
	logger := serviceLogger(ctx, s.logger, "JobService", "EditJob", "user_id", principal.UserID, "job_id", id)

	current, err := s.GetJob(ctx, id)
	if err != nil {
		logFailure(ctx, logger, "edit failed", err)
		return Job{}, err
	}

	payload, err := s.composer.ComposeEdit(ctx, form)
	if err != nil {
		err = fromComposerError(err)
		logFailure(ctx, logger, "edit rejected", err)
		var vErr *ValidationError
		if errors.As(err, &vErr) {
			return current, err
		}
		return Job{}, err
	}

	update := persistence.JobUpdate{
		Title:          payload.Title,
		JobType:        payload.JobType,
		Price:          payload.Price,
		StartDate:      payload.StartDate,
		EndDate:        optionalDate(payload.EndDate),
		StartTime:      payload.StartTime,
		EndTime:        payload.EndTime,
		TimeRange:      payload.TimeRange,
		Notes:          payload.Notes,
		FumigationType: payload.FumigationType,
		TargetPest:     payload.TargetPest,
		TechnicianID:   payload.Assignment.TechnicianID,
		TwoMan:         payload.Assignment.TwoMan,
		ModifiedBy:     principal.actor(),
	}
	if err := s.jobs.UpdateJob(ctx, id, update); err != nil {
		err = mapRepoError(err)
		logFailure(ctx, logger, "edit failed", err)
		return Job{}, err
	}

	logger.InfoContext(ctx, "job edited")
	return s.GetJob(ctx, id)
}

// DeleteJob removes a job. Deleting a job that does not exist succeeds.
func (s *JobService) DeleteJob(ctx context.Context, principal Principal, id int64) error {
	if s == nil || s.jobs == nil {
		return fmt.Errorf("JobService is not configured")
	}
	logger := serviceLogger(ctx, s.logger, "JobService", "DeleteJob", "user_id", principal.UserID, "job_id", id)

	if err := s.jobs.DeleteJob(ctx, id); err != nil {
		err = mapRepoError(err)
		logFailure(ctx, logger, "delete failed", err)
		return err
	}
	logger.InfoContext(ctx, "job deleted")
	return nil
}

func jobFromPayload(p scheduler.Payload) persistence.Job {
	return persistence.Job{
		Title:            p.Title,
		JobType:          p.JobType,
		Price:            p.Price,
		StartDate:        p.StartDate,
		EndDate:          optionalDate(p.EndDate),
		StartTime:        p.StartTime,
		EndTime:          p.EndTime,
		TimeRange:        p.TimeRange,
		Notes:            p.Notes,
		TechnicianID:     p.Assignment.TechnicianID,
		TwoMan:           p.Assignment.TwoMan,
		ReiQuantity:      p.ReiQuantity,
		ReiZip:           p.ReiZip,
		ReiCityName:      p.ReiCityName,
		ExclusionSubtype: p.ExclusionSubtype,
		FumigationType:   p.FumigationType,
		TargetPest:       p.TargetPest,
		CustomPest:       p.CustomPest,
	}
}

func optionalDate(day time.Time) *time.Time {
	if day.IsZero() {
		return nil
	}
	return &day
}
