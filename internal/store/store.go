// Package store persists the most recent applied modification set so a page
// can be re-modified on the next load without another model round-trip.
package store

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog/log"
	_ "modernc.org/sqlite"

	"github.com/reskindev/reskin/internal/modification"
)

// savedKey is the slot the applied set lives under. The store holds one
// current set per database, matching how the page-side storage behaves.
const savedKey = "savedModifications"

// ErrNotFound is returned by Load when nothing has been saved yet.
var ErrNotFound = errors.New("no saved modifications")

// Saved is one persisted modification set.
type Saved struct {
	ID       string
	URL      string
	Command  string
	Combined modification.CombinedResponse
	SavedAt  time.Time
}

// Store keeps modification sets in a local SQLite database.
type Store struct {
	db *sql.DB
}

// Open creates or opens the database at path, making parent directories as
// needed.
func Open(path string) (*Store, error) {
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return nil, fmt.Errorf("create store directory: %w", err)
	}
	dsn := fmt.Sprintf("%s?_journal_mode=WAL&_busy_timeout=10000", path)
	db, err := sql.Open("sqlite", dsn)
	if err != nil {
		return nil, fmt.Errorf("open store: %w", err)
	}
	db.SetMaxOpenConns(1)

	s := &Store{db: db}
	if err := s.createTables(); err != nil {
		db.Close()
		return nil, err
	}
	return s, nil
}

func (s *Store) createTables() error {
	schema := `
	CREATE TABLE IF NOT EXISTS modifications (
		key TEXT PRIMARY KEY,
		id TEXT NOT NULL,
		url TEXT NOT NULL,
		command TEXT NOT NULL,
		payload TEXT NOT NULL,
		saved_at INTEGER NOT NULL
	);`
	if _, err := s.db.Exec(schema); err != nil {
		return fmt.Errorf("create tables: %w", err)
	}
	return nil
}

// Save replaces the stored set with combined. The previous set, if any, is
// overwritten.
func (s *Store) Save(ctx context.Context, url, command string, combined modification.CombinedResponse) (string, error) {
	payload, err := json.Marshal(combined)
	if err != nil {
		return "", fmt.Errorf("encode modifications: %w", err)
	}
	id := uuid.NewString()
	_, err = s.db.ExecContext(ctx, `
		INSERT INTO modifications (key, id, url, command, payload, saved_at)
		VALUES (?, ?, ?, ?, ?, ?)
		ON CONFLICT(key) DO UPDATE SET
			id = excluded.id,
			url = excluded.url,
			command = excluded.command,
			payload = excluded.payload,
			saved_at = excluded.saved_at`,
		savedKey, id, url, command, string(payload), time.Now().Unix())
	if err != nil {
		return "", fmt.Errorf("save modifications: %w", err)
	}
	log.Debug().Str("id", id).Str("url", url).Msg("modifications saved")
	return id, nil
}

// Load returns the stored set, or ErrNotFound when the slot is empty.
func (s *Store) Load(ctx context.Context) (*Saved, error) {
	row := s.db.QueryRowContext(ctx, `
		SELECT id, url, command, payload, saved_at
		FROM modifications WHERE key = ?`, savedKey)

	var sv Saved
	var payload string
	var savedAt int64
	if err := row.Scan(&sv.ID, &sv.URL, &sv.Command, &payload, &savedAt); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrNotFound
		}
		return nil, fmt.Errorf("load modifications: %w", err)
	}
	if err := json.Unmarshal([]byte(payload), &sv.Combined); err != nil {
		return nil, fmt.Errorf("decode modifications: %w", err)
	}
	sv.SavedAt = time.Unix(savedAt, 0)
	return &sv, nil
}

// Clear empties the slot. Loading afterwards reports ErrNotFound.
func (s *Store) Clear(ctx context.Context) error {
	if _, err := s.db.ExecContext(ctx, `DELETE FROM modifications WHERE key = ?`, savedKey); err != nil {
		return fmt.Errorf("clear modifications: %w", err)
	}
	return nil
}

// Close releases the database handle.
func (s *Store) Close() error {
	return s.db.Close()
}
