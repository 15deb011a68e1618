// Package testutil provides shared test helpers for setting up state and
// blob stores.
package testutil

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/almadigital/pauta/internal/blobstore"
	"github.com/almadigital/pauta/internal/statestore"
)

// TestBlobDB creates a temporary SQLite media database that is automatically
// cleaned up.
func TestBlobDB(t *testing.T) *blobstore.DB {
	t.Helper()
	dbFile, err := os.CreateTemp("", "pauta-test-*.db")
	if err != nil {
		t.Fatal(err)
	}
	dbFile.Close()
	t.Cleanup(func() { os.Remove(dbFile.Name()) })

	db, err := blobstore.Open(dbFile.Name())
	if err != nil {
		t.Fatal(err)
	}
	t.Cleanup(func() { db.Close() })
	return db
}

// TestStateStore creates a state store slot inside a temp directory.
func TestStateStore(t *testing.T) *statestore.File {
	t.Helper()
	dir := t.TempDir()
	store, err := statestore.New(filepath.Join(dir, "calendar.json"))
	if err != nil {
		t.Fatal(err)
	}
	return store
}
