package sqlite

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"github.com/example/exterminus/internal/persistence"
)

const timeOffSelect = `
	SELECT o.id, o.technician_id, o.start_date, o.end_date, o.reason, t.name
	FROM time_off o
	JOIN technicians t ON t.id = o.technician_id`

// TimeOffRepository implements persistence.TimeOffRepository using SQLite
type TimeOffRepository struct {
	pool   *ConnectionPool
	helper *QueryHelper
	mapper *ErrorMapper
}

// NewTimeOffRepository creates a new SQLite time-off repository
func NewTimeOffRepository(pool *ConnectionPool) *TimeOffRepository {
	return &TimeOffRepository{
		pool:   pool,
		helper: NewQueryHelper(pool),
		mapper: NewErrorMapper(),
	}
}

// CreateTimeOff stores a time-off window. An unknown technician yields
// ErrForeignKeyViolation and an inverted window ErrConstraintViolation.
func (r *TimeOffRepository) CreateTimeOff(ctx context.Context, entry persistence.TimeOff) (persistence.TimeOff, error) {
	const query = `
		INSERT INTO time_off (technician_id, start_date, end_date, reason)
		VALUES (?, ?, ?, ?)`

	result, err := r.helper.Exec(ctx, query,
		entry.TechnicianID,
		formatDate(entry.StartDate),
		formatDate(entry.EndDate),
		nullString(entry.Reason),
	)
	if err != nil {
		return persistence.TimeOff{}, r.mapper.MapError(err)
	}

	if entry.ID, err = result.LastInsertId(); err != nil {
		return persistence.TimeOff{}, fmt.Errorf("failed to read time off id: %w", err)
	}
	return entry, nil
}

// GetTimeOff retrieves a time-off row with its technician's name
func (r *TimeOffRepository) GetTimeOff(ctx context.Context, id int64) (persistence.TimeOffDetail, error) {
	detail, err := scanTimeOff(r.helper.QueryRow(ctx, timeOffSelect+` WHERE o.id = ?`, id))
	if err != nil {
		return persistence.TimeOffDetail{}, r.mapper.MapError(err)
	}
	return detail, nil
}

// DeleteTimeOff removes a time-off row
func (r *TimeOffRepository) DeleteTimeOff(ctx context.Context, id int64) error {
	result, err := r.helper.Exec(ctx, `DELETE FROM time_off WHERE id = ?`, id)
	if err != nil {
		return r.mapper.MapError(err)
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

// ListTimeOffOverlapping returns time off intersecting [from, to] ordered by
// start date then technician name.
func (r *TimeOffRepository) ListTimeOffOverlapping(ctx context.Context, from, to time.Time) ([]persistence.TimeOffDetail, error) {
	query := timeOffSelect + `
		WHERE o.start_date <= ? AND o.end_date >= ?
		ORDER BY o.start_date, t.name, o.id`

	rows, err := r.helper.Query(ctx, query, formatDate(to), formatDate(from))
	if err != nil {
		return nil, r.mapper.MapError(err)
	}
	defer rows.Close()

	var entries []persistence.TimeOffDetail
	for rows.Next() {
		detail, err := scanTimeOff(rows)
		if err != nil {
			return nil, r.mapper.MapError(err)
		}
		entries = append(entries, detail)
	}
	if err := rows.Err(); err != nil {
		return nil, r.mapper.MapError(err)
	}
	return entries, nil
}

func scanTimeOff(row rowScanner) (persistence.TimeOffDetail, error) {
	var (
		detail     persistence.TimeOffDetail
		start, end string
		reason     sql.NullString
	)
	if err := row.Scan(&detail.ID, &detail.TechnicianID, &start, &end, &reason, &detail.TechnicianName); err != nil {
		return persistence.TimeOffDetail{}, err
	}

	var err error
	if detail.StartDate, err = parseStoredDate(start); err != nil {
		return persistence.TimeOffDetail{}, err
	}
	if detail.EndDate, err = parseStoredDate(end); err != nil {
		return persistence.TimeOffDetail{}, err
	}
	detail.Reason = reason.String
	return detail, nil
}
