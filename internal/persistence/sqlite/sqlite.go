// Package sqlite implements the persistence repositories on SQLite through
// the pure-Go modernc.org/sqlite driver.
package sqlite

import (
	"context"
	"embed"
	"fmt"
	"log/slog"
	"time"

	"github.com/example/exterminus/internal/persistence/sqlite/migration"
	"github.com/example/exterminus/internal/schedule"
)

//go:embed migrations/*.sql
var migrationFiles embed.FS

// Storage bundles the SQLite-backed repositories over one connection pool.
type Storage struct {
	pool   *ConnectionPool
	logger *slog.Logger

	Users       *UserRepository
	Technicians *TechnicianRepository
	Jobs        *JobRepository
	Locks       *LockRepository
	TimeOff     *TimeOffRepository
}

// Open connects to the database described by cfg. Call Migrate before use.
func Open(cfg migration.SQLiteConfig, logger *slog.Logger) (*Storage, error) {
	pool, err := NewConnectionPool(cfg)
	if err != nil {
		return nil, fmt.Errorf("sqlite: open %s: %w", cfg.Path, err)
	}
	return newStorage(pool, logger), nil
}

// OpenPath opens path with the production defaults.
func OpenPath(path string, logger *slog.Logger) (*Storage, error) {
	return Open(migration.DefaultSQLiteConfig(path), logger)
}

func newStorage(pool *ConnectionPool, logger *slog.Logger) *Storage {
	if logger == nil {
		logger = slog.Default()
	}
	return &Storage{
		pool:        pool,
		logger:      logger,
		Users:       NewUserRepository(pool),
		Technicians: NewTechnicianRepository(pool),
		Jobs:        NewJobRepository(pool),
		Locks:       NewLockRepository(pool),
		TimeOff:     NewTimeOffRepository(pool),
	}
}

// Migrate applies the embedded schema migrations.
func (s *Storage) Migrate(ctx context.Context) error {
	manager := migration.NewMigrationManager(
		migration.NewFileScanner(),
		migration.NewSQLiteExecutor(s.pool.DB()),
		migrationFiles,
		"migrations",
		s.logger,
	)
	if err := manager.RunMigrations(ctx); err != nil {
		return fmt.Errorf("sqlite: migrate: %w", err)
	}
	return nil
}

// Ping reports whether the database answers.
func (s *Storage) Ping(ctx context.Context) error {
	return s.pool.Ping(ctx)
}

// Close releases the connection pool.
func (s *Storage) Close() error {
	return s.pool.Close()
}

const timestampLayout = time.DateTime

func formatDate(day time.Time) string {
	return schedule.FormatDate(day)
}

func parseStoredDate(raw string) (time.Time, error) {
	day, err := time.ParseInLocation(schedule.DateLayout, raw, time.UTC)
	if err != nil {
		return time.Time{}, fmt.Errorf("sqlite: stored date %q: %w", raw, err)
	}
	return day, nil
}

func parseStoredTimestamp(raw string) time.Time {
	for _, layout := range []string{timestampLayout, time.RFC3339} {
		if ts, err := time.ParseInLocation(layout, raw, time.UTC); err == nil {
			return ts
		}
	}
	return time.Time{}
}
