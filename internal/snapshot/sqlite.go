package snapshot

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	_ "modernc.org/sqlite"
)

// DefaultSQLiteName is the snapshot row used when none is configured.
const DefaultSQLiteName = "default"

const snapshotsSchema = `CREATE TABLE IF NOT EXISTS snapshots (
	name     TEXT PRIMARY KEY,
	document BLOB NOT NULL,
	saved_at TEXT NOT NULL
)`

// SQLiteStorage keeps named checkpoints in a SQLite database.
// Each storage reads and writes a single row selected by name.
type SQLiteStorage struct {
	db   *sql.DB
	path string
	name string
}

// OpenSQLiteStorage opens (creating if needed) the database at path and
// ensures the snapshots table exists. An empty name selects
// [DefaultSQLiteName].
func OpenSQLiteStorage(path, name string) (*SQLiteStorage, error) {
	if name == "" {
		name = DefaultSQLiteName
	}

	db, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, fmt.Errorf("opening database: %w", err)
	}

	pragmas := []string{
		"PRAGMA journal_mode=WAL",
		"PRAGMA busy_timeout=5000",
		"PRAGMA synchronous=NORMAL",
	}
	for _, p := range pragmas {
		if _, err := db.Exec(p); err != nil {
			_ = db.Close()
			return nil, fmt.Errorf("setting pragma %q: %w", p, err)
		}
	}

	if _, err := db.Exec(snapshotsSchema); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("creating snapshots table: %w", err)
	}

	return &SQLiteStorage{db: db, path: path, name: name}, nil
}

// Describe implements [Storage].
func (s *SQLiteStorage) Describe() string {
	return fmt.Sprintf("sqlite://%s#%s", s.path, s.name)
}

// Close closes the database.
func (s *SQLiteStorage) Close() error {
	return s.db.Close()
}

// Save implements [Storage].
func (s *SQLiteStorage) Save(ctx context.Context, data []byte) error {
	_, err := s.db.ExecContext(ctx,
		`INSERT INTO snapshots (name, document, saved_at) VALUES (?, ?, ?)
		 ON CONFLICT(name) DO UPDATE SET document = excluded.document, saved_at = excluded.saved_at`,
		s.name, data, time.Now().UTC().Format(time.RFC3339Nano),
	)
	if err != nil {
		return fmt.Errorf("storing snapshot %q: %w", s.name, err)
	}
	return nil
}

// Load implements [Storage].
func (s *SQLiteStorage) Load(ctx context.Context) ([]byte, error) {
	var data []byte
	err := s.db.QueryRowContext(ctx,
		`SELECT document FROM snapshots WHERE name = ?`, s.name,
	).Scan(&data)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, fmt.Errorf("%w: %s", ErrNotFound, s.Describe())
		}
		return nil, fmt.Errorf("querying snapshot %q: %w", s.name, err)
	}
	return data, nil
}
