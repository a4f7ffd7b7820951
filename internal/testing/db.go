// Package testing provides testing utilities and helpers for the price desk.
package testing

import (
	"path/filepath"
	"testing"

	"github.com/crudeops/wtidesk/internal/database"
)

// NewTestDB creates a file-backed SQLite database in the test's temp dir and
// applies the named embedded schema (e.g. "prices"). The database is closed
// when the test finishes.
func NewTestDB(t *testing.T, name string) *database.DB {
	t.Helper()

	db, err := database.New(database.Config{
		Path:    filepath.Join(t.TempDir(), name+".db"),
		Profile: database.ProfileStandard,
		Name:    name,
	})
	if err != nil {
		t.Fatalf("Failed to create test database %s: %v", name, err)
	}

	t.Cleanup(func() {
		if err := db.Close(); err != nil {
			t.Logf("Warning: Failed to close test database %s: %v", name, err)
		}
	})

	if err := db.Migrate(); err != nil {
		t.Fatalf("Failed to migrate test database %s: %v", name, err)
	}

	return db
}
