// Package blobstore provides SQLite-backed storage for binary media records.
package blobstore

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	_ "github.com/mattn/go-sqlite3"

	"github.com/almadigital/pauta/internal/models"
)

const schemaSQL = `
CREATE TABLE IF NOT EXISTS files (
	id         TEXT PRIMARY KEY,
	name       TEXT NOT NULL DEFAULT '',
	type       TEXT NOT NULL DEFAULT '',
	data_url   TEXT NOT NULL,
	created_at DATETIME NOT NULL DEFAULT CURRENT_TIMESTAMP
);
`

// Store defines the blob persistence surface. Consumers should depend on
// this interface rather than the concrete *DB type to facilitate testing.
//
// Absence is explicit: Get returns nil for a missing id, and callers must
// treat that as non-fatal — the state tree tolerates dangling references.
type Store interface {
	Put(ctx context.Context, blob *models.MediaBlob) error
	Get(ctx context.Context, id string) (*models.MediaBlob, error)
	Delete(ctx context.Context, id string) error
	AllIDs(ctx context.Context) (map[string]struct{}, error)
	Close() error
}

// Verify *DB satisfies Store at compile time.
var _ Store = (*DB)(nil)

// DB wraps a sql.DB with blob-store operations.
type DB struct {
	conn *sql.DB
}

// Open opens (or creates) the SQLite database and applies the schema.
// Opening is safe to repeat across process restarts; the files table is
// created only when absent.
func Open(dsn string) (*DB, error) {
	conn, err := sql.Open("sqlite3", dsn+"?_journal_mode=WAL&_busy_timeout=5000")
	if err != nil {
		return nil, fmt.Errorf("blobstore: open db: %w", err)
	}
	if err := conn.Ping(); err != nil {
		conn.Close()
		return nil, fmt.Errorf("blobstore: ping: %w", err)
	}
	if _, err := conn.Exec(schemaSQL); err != nil {
		conn.Close()
		return nil, fmt.Errorf("blobstore: apply schema: %w", err)
	}
	return &DB{conn: conn}, nil
}

// Close closes the underlying database connection.
func (db *DB) Close() error {
	return db.conn.Close()
}

// Put upserts a blob by id. The statement is a single transaction: either
// the full record lands or none of it.
func (db *DB) Put(ctx context.Context, blob *models.MediaBlob) error {
	if blob.ID == "" {
		return fmt.Errorf("blobstore: put: empty id")
	}
	_, err := db.conn.ExecContext(ctx, `
		INSERT INTO files (id, name, type, data_url)
		VALUES (?, ?, ?, ?)
		ON CONFLICT(id) DO UPDATE SET
			name     = excluded.name,
			type     = excluded.type,
			data_url = excluded.data_url
	`, blob.ID, blob.Name, blob.Type, blob.DataURL)
	if err != nil {
		return fmt.Errorf("blobstore: put %s: %w", blob.ID, err)
	}
	return nil
}

// Get returns the blob with the given id, or nil when it does not exist.
func (db *DB) Get(ctx context.Context, id string) (*models.MediaBlob, error) {
	var b models.MediaBlob
	err := db.conn.QueryRowContext(ctx,
		`SELECT id, name, type, data_url FROM files WHERE id = ?`, id,
	).Scan(&b.ID, &b.Name, &b.Type, &b.DataURL)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("blobstore: get %s: %w", id, err)
	}
	return &b, nil
}

// Delete removes a blob. Deleting a non-existent id is not an error.
func (db *DB) Delete(ctx context.Context, id string) error {
	if _, err := db.conn.ExecContext(ctx, `DELETE FROM files WHERE id = ?`, id); err != nil {
		return fmt.Errorf("blobstore: delete %s: %w", id, err)
	}
	return nil
}

// AllIDs returns every stored blob id.
func (db *DB) AllIDs(ctx context.Context) (map[string]struct{}, error) {
	rows, err := db.conn.QueryContext(ctx, `SELECT id FROM files`)
	if err != nil {
		return nil, fmt.Errorf("blobstore: all ids: %w", err)
	}
	defer rows.Close()
	out := make(map[string]struct{})
	for rows.Next() {
		var id string
		if err := rows.Scan(&id); err != nil {
			return nil, err
		}
		out[id] = struct{}{}
	}
	return out, rows.Err()
}
