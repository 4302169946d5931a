package migration

import (
	"errors"
	"strings"
	"testing"
	"testing/fstest"
)

func TestFileScanner_ScanMigrations(t *testing.T) {
	t.Parallel()

	fsys := fstest.MapFS{
		"migrations/002_add_locks.sql":      {Data: []byte("CREATE TABLE locks (id INTEGER);")},
		"migrations/001_initial_schema.sql": {Data: []byte("-- Description: Initial schema\nCREATE TABLE jobs (id INTEGER);")},
		"migrations/010_indexes.sql":        {Data: []byte("CREATE INDEX idx ON jobs(id);")},
		"migrations/README.md":              {Data: []byte("not a migration")},
	}

	migrations, err := NewFileScanner().ScanMigrations(fsys, "migrations")
	if err != nil {
		t.Fatalf("ScanMigrations returned error: %v", err)
	}
	if len(migrations) != 3 {
		t.Fatalf("expected 3 migrations, got %d", len(migrations))
	}

	gotOrder := []string{migrations[0].Version, migrations[1].Version, migrations[2].Version}
	if strings.Join(gotOrder, ",") != "001,002,010" {
		t.Fatalf("expected numeric ordering, got %v", gotOrder)
	}
	if migrations[0].Description != "Initial schema" {
		t.Fatalf("expected description from comment, got %q", migrations[0].Description)
	}
	if migrations[1].Description != "add locks" {
		t.Fatalf("expected description from filename, got %q", migrations[1].Description)
	}
	if len(migrations[0].Checksum) != 64 {
		t.Fatalf("expected sha256 hex checksum, got %q", migrations[0].Checksum)
	}
	if migrations[0].FilePath != "migrations/001_initial_schema.sql" {
		t.Fatalf("unexpected file path %q", migrations[0].FilePath)
	}
}

func TestFileScanner_ScanMigrations_Failures(t *testing.T) {
	t.Parallel()

	cases := map[string]struct {
		files fstest.MapFS
		want  error
	}{
		"duplicate version": {
			files: fstest.MapFS{
				"m/001_a.sql": {Data: []byte("SELECT 1;")},
				"m/001_b.sql": {Data: []byte("SELECT 2;")},
			},
			want: ErrDuplicateVersion,
		},
		"bad name": {
			files: fstest.MapFS{"m/initial.sql": {Data: []byte("SELECT 1;")}},
			want:  ErrInvalidMigrationFile,
		},
		"comments only": {
			files: fstest.MapFS{"m/001_empty.sql": {Data: []byte("-- nothing here\n")}},
			want:  ErrInvalidMigrationFile,
		},
		"unbalanced parentheses": {
			files: fstest.MapFS{"m/001_broken.sql": {Data: []byte("CREATE TABLE x (id INTEGER;")}},
			want:  ErrInvalidMigrationFile,
		},
	}

	for name, tc := range cases {
		t.Run(name, func(t *testing.T) {
			t.Parallel()
			_, err := NewFileScanner().ScanMigrations(tc.files, "m")
			if !errors.Is(err, tc.want) {
				t.Fatalf("expected %v, got %v", tc.want, err)
			}
		})
	}
}

func TestFileScanner_ScanMigrations_MissingDirectory(t *testing.T) {
	t.Parallel()

	_, err := NewFileScanner().ScanMigrations(fstest.MapFS{}, "missing")
	var fsErr *FileSystemError
	if !errors.As(err, &fsErr) {
		t.Fatalf("expected FileSystemError, got %v", err)
	}
}

func TestFileScanner_ValidateFileName(t *testing.T) {
	t.Parallel()

	valid := []string{"001_initial_schema.sql", "42_add-index.sql"}
	invalid := []string{"001.sql", "abc_initial.sql", "001_initial.txt", "001_bad name.sql"}

	scanner := NewFileScanner()
	for _, name := range valid {
		if err := scanner.ValidateFileName(name); err != nil {
			t.Fatalf("expected %q to be valid, got %v", name, err)
		}
	}
	for _, name := range invalid {
		if err := scanner.ValidateFileName(name); err == nil {
			t.Fatalf("expected %q to be rejected", name)
		}
	}
}
