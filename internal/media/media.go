// Package media orchestrates attachment uploads and removals, keeping the
// state tree and the blob store consistent with each other.
package media

import (
	"context"
	"encoding/base64"
	"fmt"
	"log/slog"
	"strings"

	"github.com/google/uuid"

	"github.com/almadigital/pauta/internal/blobstore"
	"github.com/almadigital/pauta/internal/models"
)

// File is one uploaded file: its original name, MIME type, and raw bytes.
type File struct {
	Name string
	Type string
	Data []byte
}

// Resolved pairs a reference with its blob. Blob is nil when the reference
// dangles; the entry is reported rather than omitted so callers can decide
// to skip or flag it.
type Resolved struct {
	Ref  models.MediaRef
	Blob *models.MediaBlob
}

// Manager coordinates the blob store side of attachment handling. It never
// persists the state tree itself; callers save once after a batch.
type Manager struct {
	blobs  blobstore.Store
	logger *slog.Logger
}

// NewManager creates a Manager writing blobs to the given store.
func NewManager(blobs blobstore.Store, logger *slog.Logger) *Manager {
	if logger == nil {
		logger = slog.Default()
	}
	return &Manager{blobs: blobs, logger: logger}
}

// Attach stores each file in the blob store and appends a reference to
// entry.Media for each successful put, in input order. Files are processed
// sequentially and independently: a failure on one file neither rolls back
// earlier files nor prevents later ones. Only image/* and video/* types are
// accepted; anything else is skipped. Returns the number of references
// appended.
func (m *Manager) Attach(ctx context.Context, entry *models.DayEntry, files []File) int {
	attached := 0
	for _, f := range files {
		if !Accepted(f.Type) {
			m.logger.Warn("media: skipping unsupported type",
				slog.String("name", f.Name), slog.String("type", f.Type))
			continue
		}
		blob := &models.MediaBlob{
			ID:      uuid.New().String(),
			Name:    f.Name,
			Type:    f.Type,
			DataURL: EncodeDataURL(f.Type, f.Data),
		}
		if err := m.blobs.Put(ctx, blob); err != nil {
			// The reference must not be recorded when the put failed.
			m.logger.Warn("media: store failed",
				slog.String("name", f.Name), slog.String("error", err.Error()))
			continue
		}
		entry.Media = append(entry.Media, models.MediaRef{
			ID:   blob.ID,
			Name: blob.Name,
			Type: blob.Type,
		})
		attached++
	}
	return attached
}

// Detach deletes the blob and then prunes the matching reference from
// entry.Media. Order matters: when the delete fails the reference stays, so
// this path never produces a dangling reference. Detaching an id that is
// already gone (from either store) is a no-op, never an error.
func (m *Manager) Detach(ctx context.Context, entry *models.DayEntry, mediaID string) error {
	if err := m.blobs.Delete(ctx, mediaID); err != nil {
		return fmt.Errorf("media: detach %s: %w", mediaID, err)
	}
	kept := entry.Media[:0]
	for _, ref := range entry.Media {
		if ref.ID != mediaID {
			kept = append(kept, ref)
		}
	}
	entry.Media = kept
	return nil
}

// Resolve looks up the blob behind every reference on the entry. Dangling
// references resolve to a nil Blob; rendering must not fail on them.
func (m *Manager) Resolve(ctx context.Context, entry *models.DayEntry) ([]Resolved, error) {
	out := make([]Resolved, 0, len(entry.Media))
	for _, ref := range entry.Media {
		blob, err := m.blobs.Get(ctx, ref.ID)
		if err != nil {
			return nil, err
		}
		out = append(out, Resolved{Ref: ref, Blob: blob})
	}
	return out, nil
}

// Accepted reports whether a MIME type is attachable media.
func Accepted(mimeType string) bool {
	return strings.HasPrefix(mimeType, "image/") || strings.HasPrefix(mimeType, "video/")
}

// EncodeDataURL builds a data:<type>;base64,<payload> URI.
func EncodeDataURL(mimeType string, data []byte) string {
	return "data:" + mimeType + ";base64," + base64.StdEncoding.EncodeToString(data)
}

// DecodeDataURL parses a data:[<mediatype>][;base64],<data> URI and returns
// the MIME type and decoded bytes.
func DecodeDataURL(uri string) (string, []byte, error) {
	rest, ok := strings.CutPrefix(uri, "data:")
	if !ok {
		return "", nil, fmt.Errorf("media: not a data URI")
	}
	meta, encoded, ok := strings.Cut(rest, ",")
	if !ok {
		return "", nil, fmt.Errorf("media: invalid data URI: missing comma separator")
	}
	if !strings.Contains(meta, ";base64") {
		return "", nil, fmt.Errorf("media: only base64 data URIs are supported")
	}
	data, err := base64.StdEncoding.DecodeString(encoded)
	if err != nil {
		data, err = base64.RawStdEncoding.DecodeString(encoded)
		if err != nil {
			return "", nil, fmt.Errorf("media: invalid base64 data: %w", err)
		}
	}
	mime := strings.Split(strings.TrimSuffix(meta, ";base64"), ";")[0]
	return mime, data, nil
}
