package migration

import (
	"database/sql"
	"fmt"
	"net/url"
	"os"
	"path/filepath"
	"strings"
	"time"

	_ "modernc.org/sqlite" // SQLite driver
)

// SQLiteConfig holds SQLite-specific database configuration
type SQLiteConfig struct {
	// Path is the database file path
	Path string

	// BusyTimeout sets how long to wait for database locks
	BusyTimeout time.Duration

	// EnableForeignKeys enables foreign key constraint checking
	EnableForeignKeys bool

	// JournalMode sets the SQLite journal mode (WAL, DELETE, TRUNCATE, etc.)
	JournalMode string

	// Synchronous sets the synchronous mode (FULL, NORMAL, OFF)
	Synchronous string

	// CacheSize sets the page cache size in KB (negative for pages)
	CacheSize int

	// ImmediateTransactions takes the write lock when a transaction begins
	ImmediateTransactions bool

	// MaxOpenConns sets the maximum number of open connections
	MaxOpenConns int

	// MaxIdleConns sets the maximum number of idle connections
	MaxIdleConns int

	// ConnMaxLifetime sets the maximum lifetime of connections
	ConnMaxLifetime time.Duration
}

// DataSourceName renders the configuration as a modernc.org/sqlite DSN. The
// PRAGMAs are part of the DSN so every pooled connection applies them.
func (c SQLiteConfig) DataSourceName() string {
	params := url.Values{}
	pragmas := []string{fmt.Sprintf("busy_timeout(%d)", c.BusyTimeout.Milliseconds())}
	if c.EnableForeignKeys {
		pragmas = append(pragmas, "foreign_keys(1)")
	}
	if c.JournalMode != "" {
		pragmas = append(pragmas, fmt.Sprintf("journal_mode(%s)", c.JournalMode))
	}
	if c.Synchronous != "" {
		pragmas = append(pragmas, fmt.Sprintf("synchronous(%s)", c.Synchronous))
	}
	if c.CacheSize != 0 {
		pragmas = append(pragmas, fmt.Sprintf("cache_size(%d)", c.CacheSize))
	}
	params["_pragma"] = pragmas
	if c.ImmediateTransactions {
		params.Set("_txlock", "immediate")
	}
	return "file:" + strings.TrimPrefix(c.Path, "file:") + "?" + params.Encode()
}

// ConnectionManager manages SQLite database connections with proper configuration
type ConnectionManager interface {
	// GetConnection returns a configured SQLite database connection
	GetConnection() (*sql.DB, error)

	// CreateDatabaseFile creates the database directory and file if missing
	CreateDatabaseFile() error

	// ValidateConfig validates the SQLite configuration
	ValidateConfig() error
}

type sqliteConnectionManager struct {
	config SQLiteConfig
}

// NewConnectionManager creates a new SQLite connection manager
func NewConnectionManager(config SQLiteConfig) ConnectionManager {
	return &sqliteConnectionManager{config: config}
}

// GetConnection returns a configured SQLite database connection
func (cm *sqliteConnectionManager) GetConnection() (*sql.DB, error) {
	if err := cm.ValidateConfig(); err != nil {
		return nil, fmt.Errorf("invalid SQLite configuration: %w", err)
	}

	if err := cm.CreateDatabaseFile(); err != nil {
		return nil, fmt.Errorf("failed to create database file: %w", err)
	}

	db, err := sql.Open("sqlite", cm.config.DataSourceName())
	if err != nil {
		return nil, fmt.Errorf("failed to open SQLite database: %w", err)
	}

	if cm.config.MaxOpenConns > 0 {
		db.SetMaxOpenConns(cm.config.MaxOpenConns)
	}
	if cm.config.MaxIdleConns > 0 {
		db.SetMaxIdleConns(cm.config.MaxIdleConns)
	}
	if cm.config.ConnMaxLifetime > 0 {
		db.SetConnMaxLifetime(cm.config.ConnMaxLifetime)
	}

	if err := db.Ping(); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to ping SQLite database: %w", err)
	}

	return db, nil
}

// CreateDatabaseFile creates the database directory and file if missing
func (cm *sqliteConnectionManager) CreateDatabaseFile() error {
	path := strings.TrimPrefix(cm.config.Path, "file:")
	if path == ":memory:" {
		return nil
	}

	dbDir := filepath.Dir(path)
	if err := os.MkdirAll(dbDir, 0o755); err != nil {
		return fmt.Errorf("failed to create database directory %s: %w", dbDir, err)
	}

	if _, err := os.Stat(path); err == nil {
		return nil
	}

	file, err := os.OpenFile(path, os.O_CREATE|os.O_WRONLY, 0o644)
	if err != nil {
		return fmt.Errorf("failed to create database file %s: %w", path, err)
	}
	if err := file.Close(); err != nil {
		return fmt.Errorf("failed to close database file %s: %w", path, err)
	}
	return nil
}

var (
	validJournalModes = map[string]bool{"DELETE": true, "TRUNCATE": true, "PERSIST": true, "MEMORY": true, "WAL": true, "OFF": true}
	validSyncModes    = map[string]bool{"OFF": true, "NORMAL": true, "FULL": true, "EXTRA": true}
)

// ValidateConfig validates the SQLite configuration
func (cm *sqliteConnectionManager) ValidateConfig() error {
	if strings.TrimSpace(cm.config.Path) == "" {
		return fmt.Errorf("path cannot be empty")
	}
	if cm.config.BusyTimeout < 0 {
		return fmt.Errorf("BusyTimeout cannot be negative")
	}
	if cm.config.JournalMode != "" && !validJournalModes[cm.config.JournalMode] {
		return fmt.Errorf("invalid journal mode: %s", cm.config.JournalMode)
	}
	if cm.config.Synchronous != "" && !validSyncModes[cm.config.Synchronous] {
		return fmt.Errorf("invalid synchronous mode: %s", cm.config.Synchronous)
	}
	if cm.config.MaxOpenConns < 0 || cm.config.MaxIdleConns < 0 {
		return fmt.Errorf("connection pool sizes cannot be negative")
	}
	if cm.config.ConnMaxLifetime < 0 {
		return fmt.Errorf("ConnMaxLifetime cannot be negative")
	}
	return nil
}

// DefaultSQLiteConfig returns the production configuration: WAL, foreign
// keys on and a 10 second busy timeout.
func DefaultSQLiteConfig(databasePath string) SQLiteConfig {
	return SQLiteConfig{
		Path:                  databasePath,
		BusyTimeout:           10 * time.Second,
		EnableForeignKeys:     true,
		JournalMode:           "WAL",
		Synchronous:           "NORMAL",
		CacheSize:             -2000,
		ImmediateTransactions: true,
		MaxOpenConns:          8,
		MaxIdleConns:          4,
		ConnMaxLifetime:       5 * time.Minute,
	}
}

// TempFileTestSQLiteConfig returns a SQLite configuration for temporary file-based testing
func TempFileTestSQLiteConfig(tempFilePath string) SQLiteConfig {
	return SQLiteConfig{
		Path:                  tempFilePath,
		BusyTimeout:           5 * time.Second,
		EnableForeignKeys:     true,
		JournalMode:           "WAL",
		Synchronous:           "OFF",
		CacheSize:             -1000,
		ImmediateTransactions: true,
		MaxOpenConns:          4,
		MaxIdleConns:          2,
		ConnMaxLifetime:       time.Minute,
	}
}
