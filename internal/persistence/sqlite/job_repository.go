package sqlite

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/example/exterminus/internal/persistence"
)

const jobDetailSelect = `
	SELECT j.id, j.title, j.job_type, j.price, j.start_date, j.end_date,
		j.start_time, j.end_time, j.time_range, j.notes,
		j.technician_id, j.two_man, j.rei_quantity, j.rei_zip, j.rei_city_name,
		j.exclusion_subtype, j.fumigation_type, j.target_pest, j.custom_pest,
		j.created_by, j.created_at, j.last_modified, j.last_modified_by,
		t.name, cu.username, mu.username
	FROM jobs j
	LEFT JOIN technicians t ON t.id = j.technician_id
	LEFT JOIN users cu ON cu.id = j.created_by
	LEFT JOIN users mu ON mu.id = j.last_modified_by`

// JobRepository implements persistence.JobRepository using SQLite
type JobRepository struct {
	pool   *ConnectionPool
	helper *QueryHelper
	mapper *ErrorMapper
}

// NewJobRepository creates a new SQLite job repository
func NewJobRepository(pool *ConnectionPool) *JobRepository {
	return &JobRepository{
		pool:   pool,
		helper: NewQueryHelper(pool),
		mapper: NewErrorMapper(),
	}
}

// CreateJobIfUnlocked checks the start-date lock and the creator, then
// inserts the job, all inside one transaction.
func (r *JobRepository) CreateJobIfUnlocked(ctx context.Context, job persistence.Job) (persistence.Job, error) {
	if job.StartDate.IsZero() || job.Title == "" {
		return persistence.Job{}, persistence.ErrConstraintViolation
	}

	var created persistence.Job
	err := r.pool.WithTransaction(ctx, func(tx *sql.Tx) error {
		locked, err := lockExists(ctx, tx, job.StartDate)
		if err != nil {
			return r.mapper.MapError(err)
		}
		if locked {
			return persistence.ErrLocked
		}

		if job.CreatedBy != nil {
			exists, err := rowExists(ctx, tx, `SELECT 1 FROM users WHERE id = ?`, *job.CreatedBy)
			if err != nil {
				return r.mapper.MapError(err)
			}
			if !exists {
				return persistence.ErrUnknownUser
			}
		}

		const query = `
			INSERT INTO jobs (
				title, job_type, price, start_date, end_date, start_time, end_time, time_range,
				notes, technician_id, two_man, rei_quantity, rei_zip, rei_city_name,
				exclusion_subtype, fumigation_type, target_pest, custom_pest, created_by
			) VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`

		result, err := tx.ExecContext(ctx, query,
			job.Title,
			nullString(job.JobType),
			nullFloat64(job.Price),
			formatDate(job.StartDate),
			nullDate(job.EndDate),
			nullString(job.StartTime),
			nullString(job.EndTime),
			nullString(job.TimeRange),
			nullString(job.Notes),
			nullInt64(job.TechnicianID),
			boolToInt(job.TwoMan),
			nullInt64(job.ReiQuantity),
			nullString(job.ReiZip),
			nullString(job.ReiCityName),
			nullString(job.ExclusionSubtype),
			nullString(job.FumigationType),
			nullString(job.TargetPest),
			nullString(job.CustomPest),
			nullInt64(job.CreatedBy),
		)
		if err != nil {
			return r.mapper.MapError(err)
		}

		id, err := result.LastInsertId()
		if err != nil {
			return fmt.Errorf("failed to read job id: %w", err)
		}

		detail, err := scanJobDetail(tx.QueryRowContext(ctx, jobDetailSelect+` WHERE j.id = ?`, id))
		if err != nil {
			return r.mapper.MapError(err)
		}
		created = detail.Job
		return nil
	})
	if err != nil {
		return persistence.Job{}, err
	}
	return created, nil
}

// GetJob retrieves a job with its technician and audit usernames
func (r *JobRepository) GetJob(ctx context.Context, id int64) (persistence.JobDetail, error) {
	detail, err := scanJobDetail(r.helper.QueryRow(ctx, jobDetailSelect+` WHERE j.id = ?`, id))
	if err != nil {
		return persistence.JobDetail{}, r.mapper.MapError(err)
	}
	return detail, nil
}

// RescheduleJob moves a job to the dates chosen by plan and stamps the
// modification audit columns.
func (r *JobRepository) RescheduleJob(ctx context.Context, id int64, modifiedBy *int64, plan func(persistence.Job) (time.Time, *time.Time)) (persistence.Job, error) {
	var moved persistence.Job
	err := r.pool.WithTransaction(ctx, func(tx *sql.Tx) error {
		current, err := scanJobDetail(tx.QueryRowContext(ctx, jobDetailSelect+` WHERE j.id = ?`, id))
		if err != nil {
			return r.mapper.MapError(err)
		}

		start, end := plan(current.Job)
		const query = `
			UPDATE jobs
			SET start_date = ?, end_date = ?, last_modified = CURRENT_TIMESTAMP, last_modified_by = ?
			WHERE id = ?`
		if _, err := tx.ExecContext(ctx, query, formatDate(start), nullDate(end), nullInt64(modifiedBy), id); err != nil {
			return r.mapAuditError(err)
		}

		updated, err := scanJobDetail(tx.QueryRowContext(ctx, jobDetailSelect+` WHERE j.id = ?`, id))
		if err != nil {
			return r.mapper.MapError(err)
		}
		moved = updated.Job
		return nil
	})
	if err != nil {
		return persistence.Job{}, err
	}
	return moved, nil
}

// UpdateJob overwrites the editable columns of a job
func (r *JobRepository) UpdateJob(ctx context.Context, id int64, update persistence.JobUpdate) error {
	if update.StartDate.IsZero() || update.Title == "" {
		return persistence.ErrConstraintViolation
	}

	const query = `
		UPDATE jobs
		SET title = ?, job_type = ?, price = ?, start_date = ?, end_date = ?,
			start_time = ?, end_time = ?, time_range = ?, notes = ?,
			fumigation_type = ?, target_pest = ?, technician_id = ?, two_man = ?,
			last_modified = CURRENT_TIMESTAMP, last_modified_by = ?
		WHERE id = ?`

	result, err := r.helper.Exec(ctx, query,
		update.Title,
		nullString(update.JobType),
		nullFloat64(update.Price),
		formatDate(update.StartDate),
		nullDate(update.EndDate),
		nullString(update.StartTime),
		nullString(update.EndTime),
		nullString(update.TimeRange),
		nullString(update.Notes),
		nullString(update.FumigationType),
		nullString(update.TargetPest),
		nullInt64(update.TechnicianID),
		boolToInt(update.TwoMan),
		nullInt64(update.ModifiedBy),
		id,
	)
	if err != nil {
		return r.mapAuditError(err)
	}

	rowsAffected, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("failed to get rows affected: %w", err)
	}
	if rowsAffected == 0 {
		return persistence.ErrNotFound
	}
	return nil
}

// DeleteJob removes a job. Deleting a missing id is not an error.
func (r *JobRepository) DeleteJob(ctx context.Context, id int64) error {
	if _, err := r.helper.Exec(ctx, `DELETE FROM jobs WHERE id = ?`, id); err != nil {
		return r.mapper.MapError(err)
	}
	return nil
}

// ListJobsOverlapping returns jobs whose span intersects [from, to]. A job
// without an end date covers only its start date.
func (r *JobRepository) ListJobsOverlapping(ctx context.Context, from, to time.Time) ([]persistence.JobDetail, error) {
	query := jobDetailSelect + `
		WHERE j.start_date <= ? AND COALESCE(j.end_date, j.start_date) >= ?
		ORDER BY j.start_date, j.id`

	rows, err := r.helper.Query(ctx, query, formatDate(to), formatDate(from))
	if err != nil {
		return nil, r.mapper.MapError(err)
	}
	defer rows.Close()

	var jobs []persistence.JobDetail
	for rows.Next() {
		detail, err := scanJobDetail(rows)
		if err != nil {
			return nil, r.mapper.MapError(err)
		}
		jobs = append(jobs, detail)
	}
	if err := rows.Err(); err != nil {
		return nil, r.mapper.MapError(err)
	}
	return jobs, nil
}

// mapAuditError reports a dangling last_modified_by reference as an unknown
// user.
func (r *JobRepository) mapAuditError(err error) error {
	mapped := r.mapper.MapError(err)
	if errors.Is(mapped, persistence.ErrForeignKeyViolation) {
		return fmt.Errorf("%w: %v", persistence.ErrUnknownUser, err)
	}
	return mapped
}

type rowScanner interface {
	Scan(dest ...any) error
}

func scanJobDetail(row rowScanner) (persistence.JobDetail, error) {
	var (
		detail                                    persistence.JobDetail
		jobType, endDate, startTime, endTime      sql.NullString
		timeRange, notes, reiZip, reiCity         sql.NullString
		exclusion, fumigation, targetPest, custom sql.NullString
		lastModified, techName, creator, modifier sql.NullString
		price                                     sql.NullFloat64
		techID, reiQuantity, createdBy, modBy     sql.NullInt64
		startDate, createdAt                      string
		twoMan                                    int
	)

	err := row.Scan(
		&detail.ID, &detail.Title, &jobType, &price, &startDate, &endDate,
		&startTime, &endTime, &timeRange, &notes,
		&techID, &twoMan, &reiQuantity, &reiZip, &reiCity,
		&exclusion, &fumigation, &targetPest, &custom,
		&createdBy, &createdAt, &lastModified, &modBy,
		&techName, &creator, &modifier,
	)
	if err != nil {
		return persistence.JobDetail{}, err
	}

	start, err := parseStoredDate(startDate)
	if err != nil {
		return persistence.JobDetail{}, err
	}
	detail.StartDate = start
	if endDate.Valid && endDate.String != "" {
		end, err := parseStoredDate(endDate.String)
		if err != nil {
			return persistence.JobDetail{}, err
		}
		detail.EndDate = &end
	}

	detail.JobType = jobType.String
	detail.Price = float64Ptr(price)
	detail.StartTime = startTime.String
	detail.EndTime = endTime.String
	detail.TimeRange = timeRange.String
	detail.Notes = notes.String
	detail.TechnicianID = int64Ptr(techID)
	detail.TwoMan = twoMan != 0
	detail.ReiQuantity = int64Ptr(reiQuantity)
	detail.ReiZip = reiZip.String
	detail.ReiCityName = reiCity.String
	detail.ExclusionSubtype = exclusion.String
	detail.FumigationType = fumigation.String
	detail.TargetPest = targetPest.String
	detail.CustomPest = custom.String
	detail.CreatedBy = int64Ptr(createdBy)
	detail.CreatedAt = parseStoredTimestamp(createdAt)
	if lastModified.Valid {
		ts := parseStoredTimestamp(lastModified.String)
		detail.LastModified = &ts
	}
	detail.LastModifiedBy = int64Ptr(modBy)
	detail.TechnicianName = techName.String
	detail.CreatedByUsername = creator.String
	detail.LastModifiedByUsername = modifier.String
	return detail, nil
}

type queryRower interface {
	QueryRowContext(ctx context.Context, query string, args ...any) *sql.Row
}

func rowExists(ctx context.Context, q queryRower, query string, args ...any) (bool, error) {
	var one int
	err := q.QueryRowContext(ctx, query, args...).Scan(&one)
	if errors.Is(err, sql.ErrNoRows) {
		return false, nil
	}
	if err != nil {
		return false, err
	}
	return true, nil
}

func lockExists(ctx context.Context, q queryRower, day time.Time) (bool, error) {
	return rowExists(ctx, q, `SELECT 1 FROM locks WHERE date = ?`, formatDate(day))
}
