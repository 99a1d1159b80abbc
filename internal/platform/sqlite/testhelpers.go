package sqlite

import (
	"context"
	"database/sql"
	"io/fs"
	"path/filepath"
	"testing"
)

// TestDB is a file-backed SQLite database for tests.
type TestDB struct {
	DB       *sql.DB
	Path     string
	TxRunner *TxRunner
}

// NewTestDBFile creates a database inside t.TempDir. It is closed when the
// test finishes.
func NewTestDBFile(t *testing.T) *TestDB {
	t.Helper()

	path := filepath.Join(t.TempDir(), "test.db")
	db, err := NewDB(context.Background(), path)
	if err != nil {
		t.Fatalf("Failed to create file test DB: %v", err)
	}
	t.Cleanup(func() {
		_ = db.Close()
	})

	return &TestDB{DB: db, Path: path, TxRunner: NewTxRunner(db)}
}

// ApplyTestMigrations applies the migrations in dir of fsys.
func (tdb *TestDB) ApplyTestMigrations(t *testing.T, fsys fs.FS, dir string) {
	t.Helper()

	if err := ApplyMigrations(fsys, dir, tdb.Path); err != nil {
		t.Fatalf("Failed to apply test migrations: %v", err)
	}
}

// Exec runs a statement and fails the test on error.
func (tdb *TestDB) Exec(t *testing.T, query string, args ...any) sql.Result {
	t.Helper()

	result, err := tdb.DB.ExecContext(context.Background(), query, args...)
	if err != nil {
		t.Fatalf("Failed to execute query: %v", err)
	}
	return result
}

// CountRows returns the number of rows in a table.
func (tdb *TestDB) CountRows(t *testing.T, tableName string) int {
	t.Helper()

	var count int
	row := tdb.DB.QueryRowContext(context.Background(), "SELECT COUNT(*) FROM "+tableName)
	if err := row.Scan(&count); err != nil {
		t.Fatalf("Failed to count rows in table %s: %v", tableName, err)
	}
	return count
}

// TableExists reports whether a table exists.
func (tdb *TestDB) TableExists(t *testing.T, tableName string) bool {
	t.Helper()

	var count int
	row := tdb.DB.QueryRowContext(context.Background(),
		"SELECT COUNT(*) FROM sqlite_master WHERE type='table' AND name=?", tableName)
	if err := row.Scan(&count); err != nil {
		t.Fatalf("Failed to check table existence: %v", err)
	}
	return count > 0
}
