package application

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/example/exterminus/internal/persistence"
	"github.com/example/exterminus/internal/schedule"
)

// LockRepository captures the persistence interactions needed by the lock service.
type LockRepository interface {
	IsLocked(ctx context.Context, day time.Time) (bool, error)
	ToggleLock(ctx context.Context, day time.Time, actor *int64) (bool, error)
	ListLocks(ctx context.Context, from, to time.Time) ([]persistence.Lock, error)
}

// MsgDateInvalid is reported for an unparsable calendar date.
const MsgDateInvalid = "Date is invalid."

// LockService guards dates against new jobs.
type LockService struct {
	locks  LockRepository
	logger *slog.Logger
}

// NewLockService wires dependencies for lock operations.
func NewLockService(locks LockRepository, logger *slog.Logger) *LockService {
	return &LockService{locks: locks, logger: defaultLogger(logger)}
}

// CheckLock returns ErrLocked when day carries a lock.
func (s *LockService) CheckLock(ctx context.Context, day time.Time) error {
	if s == nil || s.locks == nil {
		return fmt.Errorf("LockService is not configured")
	}
	locked, err := s.locks.IsLocked(ctx, day)
	if err != nil {
		return mapRepoError(err)
	}
	if locked {
		return ErrLocked
	}
	return nil
}

// ToggleLock flips the lock on rawDate and reports the new state.
func (s *LockService) ToggleLock(ctx context.Context, principal Principal, rawDate string) (LockState, error) {
	if s == nil || s.locks == nil {
		return LockState{}, fmt.Errorf("LockService is not configured")
	}
	logger := serviceLogger(ctx, s.logger, "LockService", "ToggleLock", "user_id", principal.UserID, "date", rawDate)

	day, ok := schedule.ParseDate(rawDate)
	if !ok {
		err := newValidationError(MsgDateInvalid)
		logFailure(ctx, logger, "toggle rejected", err)
		return LockState{}, err
	}

	locked, err := s.locks.ToggleLock(ctx, day, principal.actor())
	if err != nil {
		err = mapRepoError(err)
		logFailure(ctx, logger, "toggle failed", err)
		return LockState{}, err
	}

	logger.InfoContext(ctx, "lock toggled", "locked", locked)
	return LockState{Date: day, Locked: locked}, nil
}

// ListLocks returns the locked dates within [from, to].
func (s *LockService) ListLocks(ctx context.Context, from, to time.Time) ([]time.Time, error) {
	if s == nil || s.locks == nil {
		return nil, fmt.Errorf("LockService is not configured")
	}
	locks, err := s.locks.ListLocks(ctx, from, to)
	if err != nil {
		return nil, mapRepoError(err)
	}
	days := make([]time.Time, 0, len(locks))
	for _, lock := range locks {
		days = append(days, lock.Date)
	}
	return days, nil
}
