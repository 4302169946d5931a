package sqlite

import (
	"context"
	"database/sql"
	"errors"
	"testing"
	"time"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/example/exterminus/internal/persistence"
)

func TestErrorMapper_MapError(t *testing.T) {
	t.Parallel()

	mapper := NewErrorMapper()
	cases := map[string]struct {
		in   error
		want error
	}{
		"no rows":     {in: sql.ErrNoRows, want: persistence.ErrNotFound},
		"unique":      {in: errors.New("constraint failed: UNIQUE constraint failed: locks.date (2067)"), want: persistence.ErrDuplicate},
		"foreign key": {in: errors.New("constraint failed: FOREIGN KEY constraint failed (787)"), want: persistence.ErrForeignKeyViolation},
		"check":       {in: errors.New("constraint failed: CHECK constraint failed: jobs (275)"), want: persistence.ErrConstraintViolation},
	}
	for name, tc := range cases {
		assert.ErrorIs(t, mapper.MapError(tc.in), tc.want, name)
	}

	other := errors.New("disk I/O error")
	assert.Same(t, other, mapper.MapError(other))
	assert.NoError(t, mapper.MapError(nil))
}

func TestRetryHelper_RetriesBusyThenGivesUp(t *testing.T) {
	t.Parallel()

	helper := NewRetryHelper(RetryConfig{MaxRetries: 2, InitialDelay: time.Millisecond, MaxDelay: time.Millisecond, BackoffFactor: 2})

	attempts := 0
	err := helper.WithRetry(context.Background(), func() error {
		attempts++
		if attempts < 2 {
			return errors.New("database is locked (5) (SQLITE_BUSY)")
		}
		return nil
	})
	require.NoError(t, err)
	assert.Equal(t, 2, attempts)

	attempts = 0
	err = helper.WithRetry(context.Background(), func() error {
		attempts++
		return errors.New("CHECK constraint failed: time_off")
	})
	assert.ErrorIs(t, err, persistence.ErrConstraintViolation)
	assert.Equal(t, 1, attempts)
}

func TestJobRepository_MapsDriverErrors(t *testing.T) {
	t.Parallel()

	db, mock, err := sqlmock.New()
	require.NoError(t, err)
	defer db.Close()

	repo := NewJobRepository(NewConnectionPoolFromDB(db))

	mock.ExpectExec("UPDATE jobs").
		WillReturnError(errors.New("constraint failed: FOREIGN KEY constraint failed (787)"))
	err = repo.UpdateJob(context.Background(), 7, persistence.JobUpdate{Title: "x", StartDate: time.Date(2025, 1, 1, 0, 0, 0, 0, time.UTC)})
	assert.ErrorIs(t, err, persistence.ErrUnknownUser)

	mock.ExpectExec("DELETE FROM jobs").
		WithArgs(int64(7)).
		WillReturnError(errors.New("disk I/O error"))
	err = repo.DeleteJob(context.Background(), 7)
	assert.EqualError(t, err, "disk I/O error")

	require.NoError(t, mock.ExpectationsWereMet())
}

func TestLockRepository_ToggleRollsBackOnInsertFailure(t *testing.T) {
	t.Parallel()

	db, mock, err := sqlmock.New()
	require.NoError(t, err)
	defer db.Close()

	repo := NewLockRepository(NewConnectionPoolFromDB(db))
	repo.retry = NewRetryHelper(RetryConfig{MaxRetries: 0})

	actor := int64(3)
	mock.ExpectBegin()
	mock.ExpectExec("DELETE FROM locks").WithArgs("2025-02-14").WillReturnResult(sqlmock.NewResult(0, 0))
	mock.ExpectExec("INSERT INTO locks").
		WithArgs("2025-02-14", actor).
		WillReturnError(errors.New("constraint failed: FOREIGN KEY constraint failed (787)"))
	mock.ExpectRollback()

	_, err = repo.ToggleLock(context.Background(), time.Date(2025, 2, 14, 0, 0, 0, 0, time.UTC), &actor)
	assert.ErrorIs(t, err, persistence.ErrUnknownUser)
	require.NoError(t, mock.ExpectationsWereMet())
}
