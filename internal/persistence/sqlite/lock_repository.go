package sqlite

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/example/exterminus/internal/persistence"
)

// LockRepository implements persistence.LockRepository using SQLite
type LockRepository struct {
	pool   *ConnectionPool
	helper *QueryHelper
	mapper *ErrorMapper
	retry  *RetryHelper
}

// NewLockRepository creates a new SQLite lock repository
func NewLockRepository(pool *ConnectionPool) *LockRepository {
	return &LockRepository{
		pool:   pool,
		helper: NewQueryHelper(pool),
		mapper: NewErrorMapper(),
		retry:  NewRetryHelper(DefaultRetryConfig()),
	}
}

// IsLocked reports whether day carries a lock
func (r *LockRepository) IsLocked(ctx context.Context, day time.Time) (bool, error) {
	locked, err := lockExists(ctx, r.pool.DB(), day)
	if err != nil {
		return false, r.mapper.MapError(err)
	}
	return locked, nil
}

// ToggleLock deletes the lock on day if there is one and creates it
// otherwise. A unique-constraint race with a concurrent toggle re-runs the
// flip against the new state.
func (r *LockRepository) ToggleLock(ctx context.Context, day time.Time, actor *int64) (bool, error) {
	var locked bool
	err := r.retry.WithRetry(ctx, func() error {
		return r.pool.WithTransaction(ctx, func(tx *sql.Tx) error {
			result, err := tx.ExecContext(ctx, `DELETE FROM locks WHERE date = ?`, formatDate(day))
			if err != nil {
				return err
			}
			removed, err := result.RowsAffected()
			if err != nil {
				return fmt.Errorf("failed to get rows affected: %w", err)
			}
			if removed > 0 {
				locked = false
				return nil
			}

			if _, err := tx.ExecContext(ctx, `INSERT INTO locks (date, locked_by) VALUES (?, ?)`, formatDate(day), nullInt64(actor)); err != nil {
				return err
			}
			locked = true
			return nil
		})
	})
	if err != nil {
		if errors.Is(err, persistence.ErrForeignKeyViolation) {
			return false, fmt.Errorf("%w: %v", persistence.ErrUnknownUser, err)
		}
		return false, err
	}
	return locked, nil
}

// ListLocks returns the locks dated within [from, to] ordered by date
func (r *LockRepository) ListLocks(ctx context.Context, from, to time.Time) ([]persistence.Lock, error) {
	const query = `
		SELECT id, date, locked_by, locked_at
		FROM locks
		WHERE date BETWEEN ? AND ?
		ORDER BY date`

	rows, err := r.helper.Query(ctx, query, formatDate(from), formatDate(to))
	if err != nil {
		return nil, r.mapper.MapError(err)
	}
	defer rows.Close()

	var locks []persistence.Lock
	for rows.Next() {
		var (
			lock           persistence.Lock
			date, lockedAt string
			lockedBy       sql.NullInt64
		)
		if err := rows.Scan(&lock.ID, &date, &lockedBy, &lockedAt); err != nil {
			return nil, r.mapper.MapError(err)
		}
		if lock.Date, err = parseStoredDate(date); err != nil {
			return nil, err
		}
		lock.LockedBy = int64Ptr(lockedBy)
		lock.LockedAt = parseStoredTimestamp(lockedAt)
		locks = append(locks, lock)
	}
	if err := rows.Err(); err != nil {
		return nil, r.mapper.MapError(err)
	}
	return locks, nil
}
