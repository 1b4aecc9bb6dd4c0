package storage

import (
	"path/filepath"
	"testing"
)

// setupTestService opens a migrated database in a temporary directory.
func setupTestService(t *testing.T) *Service {
	t.Helper()

	db, err := Open(DefaultConfig(filepath.Join(t.TempDir(), "test.db")))
	if err != nil {
		t.Fatalf("Failed to open test database: %v", err)
	}
	t.Cleanup(func() { _ = db.Close() })

	return NewService(db)
}
