// Package migration applies versioned SQL migrations to a SQLite database.
//
// Migration files live in an fs.FS (usually an embed.FS) and follow the
// naming convention {version}_{description}.sql, for example
// "001_initial_schema.sql". Each migration runs in its own transaction
// together with its row in the schema_migrations table, so a failed
// migration leaves no trace.
//
// Applied migrations are fingerprinted with a SHA-256 checksum. Editing a
// file after it has been applied fails validation with ErrChecksumMismatch.
//
// Example usage:
//
//	manager := migration.NewMigrationManager(
//		migration.NewFileScanner(),
//		migration.NewSQLiteExecutor(db),
//		migrationsFS, "migrations", logger,
//	)
//	if err := manager.RunMigrations(ctx); err != nil {
//		return fmt.Errorf("migrate: %w", err)
//	}
package migration
