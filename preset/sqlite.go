package preset

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"sync"
	"time"

	_ "modernc.org/sqlite"
)

// SQLiteStore persists the preset library in a single SQLite file.
// Presets are stored as their v7 JSON payload next to the metadata
// columns, so a library file is also a migration-safe archive.
type SQLiteStore struct {
	path string

	mu sync.RWMutex
	db *sql.DB
}

func NewSQLiteStore(path string) *SQLiteStore {
	return &SQLiteStore{path: path}
}

func (s *SQLiteStore) Init(ctx context.Context) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.path == "" {
		return errors.New("sqlite path is required")
	}
	if s.db != nil {
		return nil
	}

	db, err := sql.Open("sqlite", s.path)
	if err != nil {
		return err
	}
	if err := db.PingContext(ctx); err != nil {
		_ = db.Close()
		return err
	}

	_, err = db.ExecContext(ctx, `
		CREATE TABLE IF NOT EXISTS presets (
			id TEXT PRIMARY KEY,
			name TEXT NOT NULL,
			created_at TEXT NOT NULL,
			format_version INTEGER NOT NULL,
			payload BLOB NOT NULL
		)
	`)
	if err != nil {
		_ = db.Close()
		return fmt.Errorf("creating presets table: %w", err)
	}

	s.db = db
	return nil
}

func (s *SQLiteStore) getDB() (*sql.DB, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if s.db == nil {
		return nil, errors.New("sqlite store not initialized")
	}
	return s.db, nil
}

func (s *SQLiteStore) Save(ctx context.Context, entry Entry) error {
	db, err := s.getDB()
	if err != nil {
		return err
	}

	payload, err := json.Marshal(entry.Preset)
	if err != nil {
		return err
	}

	_, err = db.ExecContext(ctx, `
		INSERT INTO presets (id, name, created_at, format_version, payload)
		VALUES (?, ?, ?, ?, ?)
		ON CONFLICT(id) DO UPDATE SET
			name = excluded.name,
			format_version = excluded.format_version,
			payload = excluded.payload
	`, entry.ID, entry.Name, entry.CreatedAt.Format(time.RFC3339Nano), Version, payload)
	return err
}

func (s *SQLiteStore) Get(ctx context.Context, id string) (Entry, bool, error) {
	db, err := s.getDB()
	if err != nil {
		return Entry{}, false, err
	}

	row := db.QueryRowContext(ctx,
		`SELECT id, name, created_at, payload FROM presets WHERE id = ?`, id)
	e, err := scanEntry(row.Scan)
	if errors.Is(err, sql.ErrNoRows) {
		return Entry{}, false, nil
	}
	if err != nil {
		return Entry{}, false, err
	}
	return e, true, nil
}

func (s *SQLiteStore) List(ctx context.Context) ([]Entry, error) {
	db, err := s.getDB()
	if err != nil {
		return nil, err
	}

	rows, err := db.QueryContext(ctx,
		`SELECT id, name, created_at, payload FROM presets ORDER BY created_at`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []Entry
	for rows.Next() {
		e, err := scanEntry(rows.Scan)
		if err != nil {
			return nil, err
		}
		out = append(out, e)
	}
	return out, rows.Err()
}

func (s *SQLiteStore) Delete(ctx context.Context, id string) error {
	db, err := s.getDB()
	if err != nil {
		return err
	}
	_, err = db.ExecContext(ctx, `DELETE FROM presets WHERE id = ?`, id)
	return err
}

func (s *SQLiteStore) Close() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.db == nil {
		return nil
	}
	err := s.db.Close()
	s.db = nil
	return err
}

func scanEntry(scan func(...any) error) (Entry, error) {
	var e Entry
	var created string
	var payload []byte
	if err := scan(&e.ID, &e.Name, &created, &payload); err != nil {
		return Entry{}, err
	}
	t, err := time.Parse(time.RFC3339Nano, created)
	if err != nil {
		return Entry{}, fmt.Errorf("parsing created_at: %w", err)
	}
	e.CreatedAt = t

	p := New()
	if err := json.Unmarshal(payload, p); err != nil {
		return Entry{}, fmt.Errorf("decoding preset payload: %w", err)
	}
	e.Preset = p
	return e, nil
}
