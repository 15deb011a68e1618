// Package statestore persists the calendar state tree as a single JSON slot
// on the local file system.
package statestore

import (
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"sync"

	"github.com/almadigital/pauta/internal/models"
)

// File is a single-slot store: the whole CalendarState is serialized and
// overwritten on every save. The tree is small (14 entries, text only;
// binary data lives in the blob store), so whole-tree overwrite keeps the
// consistency model trivial. This is a scaling boundary, not a correctness
// issue: per-entry addressable storage would replace it if the tree grew.
type File struct {
	path string

	mu      sync.Mutex
	lastSum string // checksum of our most recent save
}

// New creates a store writing to path. The parent directory must exist.
func New(path string) (*File, error) {
	abs, err := filepath.Abs(path)
	if err != nil {
		return nil, fmt.Errorf("statestore: resolve path: %w", err)
	}
	info, err := os.Stat(filepath.Dir(abs))
	if err != nil {
		return nil, fmt.Errorf("statestore: stat dir: %w", err)
	}
	if !info.IsDir() {
		return nil, fmt.Errorf("statestore: parent is not a directory: %s", filepath.Dir(abs))
	}
	return &File{path: abs}, nil
}

// Path returns the absolute path of the state file.
func (f *File) Path() string {
	return f.path
}

// Load reads the persisted state. A missing file or a payload that fails to
// parse both return (nil, nil): corruption is treated as absence, never as a
// crash. Only I/O errors other than non-existence are reported.
func (f *File) Load() (*models.CalendarState, error) {
	data, err := os.ReadFile(f.path)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return nil, nil
		}
		return nil, fmt.Errorf("statestore: read: %w", err)
	}
	var state models.CalendarState
	if err := json.Unmarshal(data, &state); err != nil {
		return nil, nil
	}
	return &state, nil
}

// Save serializes the full tree and atomically replaces the slot:
// tmp file → fsync → rename.
func (f *File) Save(state *models.CalendarState) error {
	data, err := json.Marshal(state)
	if err != nil {
		return fmt.Errorf("statestore: marshal: %w", err)
	}

	dir := filepath.Dir(f.path)
	tmp, err := os.CreateTemp(dir, ".pauta-tmp-*")
	if err != nil {
		return fmt.Errorf("statestore: create temp: %w", err)
	}
	tmpName := tmp.Name()

	// Clean up on any failure path.
	success := false
	defer func() {
		if !success {
			_ = tmp.Close()
			_ = os.Remove(tmpName)
		}
	}()

	if _, err := tmp.Write(data); err != nil {
		return fmt.Errorf("statestore: write temp: %w", err)
	}
	if err := tmp.Sync(); err != nil {
		return fmt.Errorf("statestore: fsync: %w", err)
	}
	if err := tmp.Close(); err != nil {
		return fmt.Errorf("statestore: close temp: %w", err)
	}
	if err := os.Rename(tmpName, f.path); err != nil {
		return fmt.Errorf("statestore: rename: %w", err)
	}
	success = true

	f.mu.Lock()
	f.lastSum = sum(data)
	f.mu.Unlock()
	return nil
}

// OwnWrite reports whether data matches the most recent Save. The watcher
// uses this to tell self-writes apart from external edits.
func (f *File) OwnWrite(data []byte) bool {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.lastSum != "" && f.lastSum == sum(data)
}

func sum(data []byte) string {
	h := sha256.Sum256(data)
	return hex.EncodeToString(h[:])
}
