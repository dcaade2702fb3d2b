package migration

import (
	"database/sql"
	"path/filepath"
	"testing"
	"testing/fstest"

	_ "modernc.org/sqlite"
)

func testDB(t *testing.T) *sql.DB {
	t.Helper()
	db, err := sql.Open("sqlite", filepath.Join(t.TempDir(), "test.db"))
	if err != nil {
		t.Fatalf("failed to open database: %v", err)
	}
	t.Cleanup(func() { db.Close() })
	return db
}

func TestReadMigrationFilesSortsByVersion(t *testing.T) {
	fsys := fstest.MapFS{
		"002_add_index.sql": {Data: []byte("CREATE INDEX idx ON t(a);")},
		"001_init.sql":      {Data: []byte("CREATE TABLE t (a INTEGER);")},
		"010_later.sql":     {Data: []byte("ALTER TABLE t ADD COLUMN b INTEGER;")},
		"notes.txt":         {Data: []byte("ignored")},
	}

	migrations, err := NewRunner(nil, fsys).ReadMigrationFiles()
	if err != nil {
		t.Fatalf("ReadMigrationFiles() error: %v", err)
	}

	if len(migrations) != 3 {
		t.Fatalf("got %d migrations, want 3", len(migrations))
	}
	for i, want := range []int{1, 2, 10} {
		if migrations[i].Version != want {
			t.Errorf("migrations[%d].Version = %d, want %d", i, migrations[i].Version, want)
		}
	}
	if migrations[0].Name != "init" {
		t.Errorf("migrations[0].Name = %q, want init", migrations[0].Name)
	}
}

func TestReadMigrationFilesRejectsBadNames(t *testing.T) {
	tests := []struct {
		name string
		file string
	}{
		{"no version prefix", "init.sql"},
		{"non-numeric version", "abc_init.sql"},
		{"zero version", "000_init.sql"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			fsys := fstest.MapFS{tt.file: {Data: []byte("SELECT 1;")}}
			if _, err := NewRunner(nil, fsys).ReadMigrationFiles(); err == nil {
				t.Errorf("ReadMigrationFiles() accepted %q", tt.file)
			}
		})
	}
}

func TestReadMigrationFilesRejectsDuplicateVersions(t *testing.T) {
	fsys := fstest.MapFS{
		"001_init.sql":  {Data: []byte("CREATE TABLE t (a INTEGER);")},
		"001_again.sql": {Data: []byte("CREATE TABLE u (a INTEGER);")},
	}
	if _, err := NewRunner(nil, fsys).ReadMigrationFiles(); err == nil {
		t.Error("duplicate versions not rejected")
	}
}

func TestApplyMigrationsIsIncremental(t *testing.T) {
	db := testDB(t)
	fsys := fstest.MapFS{
		"001_init.sql":  {Data: []byte("CREATE TABLE t (a INTEGER);")},
		"002_index.sql": {Data: []byte("CREATE INDEX idx_t_a ON t(a);")},
	}
	runner := NewRunner(db, fsys)

	applied, err := runner.ApplyMigrations(nil)
	if err != nil {
		t.Fatalf("ApplyMigrations() error: %v", err)
	}
	if applied != 2 {
		t.Errorf("applied = %d, want 2", applied)
	}

	version, err := runner.GetCurrentVersion()
	if err != nil {
		t.Fatalf("GetCurrentVersion() error: %v", err)
	}
	if version != 2 {
		t.Errorf("version = %d, want 2", version)
	}

	// A second run finds nothing to do.
	applied, err = runner.ApplyMigrations(nil)
	if err != nil {
		t.Fatalf("second ApplyMigrations() error: %v", err)
	}
	if applied != 0 {
		t.Errorf("second run applied %d migrations, want 0", applied)
	}

	if err := runner.ValidateVersion(); err != nil {
		t.Errorf("ValidateVersion() error: %v", err)
	}
}

func TestApplyMigrationsRejectsNewerSchema(t *testing.T) {
	db := testDB(t)

	first := NewRunner(db, fstest.MapFS{
		"001_init.sql": {Data: []byte("CREATE TABLE t (a INTEGER);")},
		"002_more.sql": {Data: []byte("CREATE TABLE u (a INTEGER);")},
	})
	if _, err := first.ApplyMigrations(nil); err != nil {
		t.Fatalf("ApplyMigrations() error: %v", err)
	}

	// An older binary that only knows version 1 must refuse to run.
	old := NewRunner(db, fstest.MapFS{
		"001_init.sql": {Data: []byte("CREATE TABLE t (a INTEGER);")},
	})
	if _, err := old.ApplyMigrations(nil); err == nil {
		t.Error("downgrade not rejected")
	}
}
