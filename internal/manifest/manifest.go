// Package manifest records generated libraries in a sqlite database.
// Every build is a run identified by a UUID; a run lists each emitted
// unit with its output path, content hash and size.
package manifest

import (
	"context"
	"crypto/sha256"
	"database/sql"
	"encoding/hex"
	"fmt"
	"time"

	"github.com/google/uuid"
	_ "modernc.org/sqlite"
)

const schema = `
CREATE TABLE IF NOT EXISTS runs (
	id         TEXT PRIMARY KEY,
	created_at INTEGER NOT NULL
);
CREATE TABLE IF NOT EXISTS units (
	run_id TEXT NOT NULL REFERENCES runs(id),
	module TEXT NOT NULL,
	path   TEXT NOT NULL,
	sha256 TEXT NOT NULL,
	size   INTEGER NOT NULL,
	PRIMARY KEY (run_id, module)
);`

// Entry describes one emitted library.
type Entry struct {
	Module string
	Path   string
	SHA256 string
	Size   int
}

// NewEntry hashes the rendered text of a library.
func NewEntry(module, path, text string) Entry {
	sum := sha256.Sum256([]byte(text))
	return Entry{Module: module, Path: path, SHA256: hex.EncodeToString(sum[:]), Size: len(text)}
}

// Manifest is an open manifest database.
type Manifest struct {
	db  *sql.DB
	now func() time.Time
}

// Open opens or creates the manifest at path.
func Open(path string) (*Manifest, error) {
	db, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, fmt.Errorf("opening manifest %s: %w", path, err)
	}
	// A single connection keeps ":memory:" databases stable
	db.SetMaxOpenConns(1)
	if _, err := db.Exec(schema); err != nil {
		db.Close()
		return nil, fmt.Errorf("creating manifest schema in %s: %w", path, err)
	}
	return &Manifest{db: db, now: time.Now}, nil
}

func (m *Manifest) Close() error {
	return m.db.Close()
}

// Record stores entries as a new run and returns the run id.
func (m *Manifest) Record(ctx context.Context, entries []Entry) (string, error) {
	id := uuid.New().String()

	tx, err := m.db.BeginTx(ctx, nil)
	if err != nil {
		return "", fmt.Errorf("starting manifest transaction: %w", err)
	}
	defer tx.Rollback()

	if _, err := tx.ExecContext(ctx, `INSERT INTO runs (id, created_at) VALUES (?, ?)`, id, m.now().UnixNano()); err != nil {
		return "", fmt.Errorf("recording run: %w", err)
	}
	for _, e := range entries {
		_, err := tx.ExecContext(ctx,
			`INSERT INTO units (run_id, module, path, sha256, size) VALUES (?, ?, ?, ?, ?)`,
			id, e.Module, e.Path, e.SHA256, e.Size)
		if err != nil {
			return "", fmt.Errorf("recording unit %s: %w", e.Module, err)
		}
	}
	if err := tx.Commit(); err != nil {
		return "", fmt.Errorf("committing run: %w", err)
	}
	return id, nil
}

// LatestRun returns the id of the most recent run, or "" when the
// manifest is empty.
func (m *Manifest) LatestRun(ctx context.Context) (string, error) {
	var id string
	err := m.db.QueryRowContext(ctx, `SELECT id FROM runs ORDER BY created_at DESC, rowid DESC LIMIT 1`).Scan(&id)
	if err == sql.ErrNoRows {
		return "", nil
	}
	if err != nil {
		return "", fmt.Errorf("reading latest run: %w", err)
	}
	return id, nil
}

// Entries returns the units of a run sorted by module name.
func (m *Manifest) Entries(ctx context.Context, runID string) ([]Entry, error) {
	rows, err := m.db.QueryContext(ctx,
		`SELECT module, path, sha256, size FROM units WHERE run_id = ? ORDER BY module`, runID)
	if err != nil {
		return nil, fmt.Errorf("reading run %s: %w", runID, err)
	}
	defer rows.Close()

	var entries []Entry
	for rows.Next() {
		var e Entry
		if err := rows.Scan(&e.Module, &e.Path, &e.SHA256, &e.Size); err != nil {
			return nil, err
		}
		entries = append(entries, e)
	}
	return entries, rows.Err()
}

// Changed returns the modules of entries whose content differs from the
// latest recorded run, including modules the run did not contain.
func (m *Manifest) Changed(ctx context.Context, entries []Entry) ([]string, error) {
	latest, err := m.LatestRun(ctx)
	if err != nil {
		return nil, err
	}
	previous := map[string]string{}
	if latest != "" {
		old, err := m.Entries(ctx, latest)
		if err != nil {
			return nil, err
		}
		for _, e := range old {
			previous[e.Module] = e.SHA256
		}
	}

	var changed []string
	for _, e := range entries {
		if previous[e.Module] != e.SHA256 {
			changed = append(changed, e.Module)
		}
	}
	return changed, nil
}
