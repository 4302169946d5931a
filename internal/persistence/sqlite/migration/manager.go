package migration

import (
	"context"
	"fmt"
	"io/fs"
	"log/slog"
	"strconv"
)

type migrationManager struct {
	scanner  FileScanner
	executor Executor
	fsys     fs.FS
	dir      string
	logger   *slog.Logger
}

// NewMigrationManager creates a MigrationManager that reads migrations from
// dir inside fsys.
func NewMigrationManager(scanner FileScanner, executor Executor, fsys fs.FS, dir string, logger *slog.Logger) MigrationManager {
	if logger == nil {
		logger = slog.Default()
	}
	return &migrationManager{
		scanner:  scanner,
		executor: executor,
		fsys:     fsys,
		dir:      dir,
		logger:   logger.With("component", "migration"),
	}
}

// RunMigrations executes all pending migrations in sequential order. It stops
// at the first failure; earlier migrations stay applied.
func (m *migrationManager) RunMigrations(ctx context.Context) error {
	if err := m.executor.InitializeVersionTable(ctx); err != nil {
		return fmt.Errorf("failed to initialize version table: %w", err)
	}

	pending, err := m.GetPendingMigrations(ctx)
	if err != nil {
		return fmt.Errorf("failed to get pending migrations: %w", err)
	}
	if len(pending) == 0 {
		m.logger.DebugContext(ctx, "schema up to date")
		return nil
	}

	for i, migration := range pending {
		elapsed, err := m.executor.ExecuteMigration(ctx, migration)
		if err != nil {
			m.logger.ErrorContext(ctx, "migration failed",
				"version", migration.Version,
				"file", migration.FilePath,
				"error", err,
			)
			return NewMigrationError(migration.Version, migration.FilePath,
				"execute migration", fmt.Errorf("%w: %v", ErrMigrationFailed, err))
		}
		m.logger.InfoContext(ctx, "migration applied",
			"version", migration.Version,
			"description", migration.Description,
			"position", i+1,
			"total", len(pending),
			"duration", elapsed,
		)
	}
	return nil
}

// GetPendingMigrations returns list of migrations that need to be applied
func (m *migrationManager) GetPendingMigrations(ctx context.Context) ([]Migration, error) {
	available, err := m.scanner.ScanMigrations(m.fsys, m.dir)
	if err != nil {
		return nil, fmt.Errorf("failed to scan migrations: %w", err)
	}

	applied, err := m.executor.GetAppliedVersions(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to get applied versions: %w", err)
	}

	if err := validateSequence(available, applied); err != nil {
		return nil, fmt.Errorf("migration sequence validation failed: %w", err)
	}

	appliedSet := make(map[string]bool, len(applied))
	for _, a := range applied {
		appliedSet[a.Version] = true
	}

	var pending []Migration
	for _, migration := range available {
		if !appliedSet[migration.Version] {
			pending = append(pending, migration)
		}
	}
	sortByVersion(pending)
	return pending, nil
}

// GetMigrationStatus returns status information about migrations
func (m *migrationManager) GetMigrationStatus(ctx context.Context) (*MigrationStatus, error) {
	applied, err := m.executor.GetAppliedVersions(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to get applied migrations: %w", err)
	}
	pending, err := m.GetPendingMigrations(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to get pending migrations: %w", err)
	}

	current, highest := "", -1
	for _, a := range applied {
		if v, err := strconv.Atoi(a.Version); err == nil && v > highest {
			highest, current = v, a.Version
		}
	}

	return &MigrationStatus{
		CurrentVersion:    current,
		PendingCount:      len(pending),
		AppliedMigrations: applied,
		PendingMigrations: pending,
	}, nil
}

// validateSequence rejects gaps in the available versions, applied versions
// without a file, and applied files whose content changed.
func validateSequence(available []Migration, applied []AppliedMigration) error {
	byVersion := make(map[int]Migration, len(available))
	minVersion, maxVersion := 0, 0
	for i, migration := range available {
		v, err := strconv.Atoi(migration.Version)
		if err != nil {
			return NewMigrationError(migration.Version, migration.FilePath,
				"validate sequence", fmt.Errorf("%w: version '%s' is not numeric", ErrInvalidVersion, migration.Version))
		}
		if i == 0 || v < minVersion {
			minVersion = v
		}
		if i == 0 || v > maxVersion {
			maxVersion = v
		}
		byVersion[v] = migration
	}
	if len(available) > 0 {
		for v := minVersion; v <= maxVersion; v++ {
			if _, ok := byVersion[v]; !ok {
				return fmt.Errorf("%w: missing migration version %03d in sequence", ErrVersionConflict, v)
			}
		}
	}

	for _, a := range applied {
		v, err := strconv.Atoi(a.Version)
		if err != nil {
			return fmt.Errorf("%w: applied version '%s' is not numeric", ErrInvalidVersion, a.Version)
		}
		migration, ok := byVersion[v]
		if !ok {
			return fmt.Errorf("%w: applied migration %03d not found in available migrations", ErrVersionConflict, v)
		}
		if a.Checksum != "" && migration.Checksum != "" && a.Checksum != migration.Checksum {
			return NewMigrationError(migration.Version, migration.FilePath, "verify checksum", ErrChecksumMismatch)
		}
	}
	return nil
}
