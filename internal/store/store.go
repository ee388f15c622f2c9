// Package store persists application state to a single SQLite file: the
// sanitized datasets per role, the consolidated view, cached column mappings,
// settings, and the import history. Rows are stored as JSON payloads keyed by
// role, so the store stays a dumb key-value layer and every derived value is
// recomputed by the service on import.
package store

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/dlacroix/wmslite/internal/ingest"
	"github.com/google/uuid"
	_ "modernc.org/sqlite" // pure go sqlite driver
)

// HistoryLimit caps the number of retained history entries. Older entries
// are pruned on every append.
const HistoryLimit = 300

const schema = `
CREATE TABLE IF NOT EXISTS datasets (
	role        TEXT PRIMARY KEY,
	payload     BLOB NOT NULL,
	imported_at TEXT NOT NULL
);
CREATE TABLE IF NOT EXISTS mappings (
	role    TEXT PRIMARY KEY,
	payload BLOB NOT NULL
);
CREATE TABLE IF NOT EXISTS settings (
	key   TEXT PRIMARY KEY,
	value TEXT NOT NULL
);
CREATE TABLE IF NOT EXISTS history (
	id      TEXT PRIMARY KEY,
	action  TEXT NOT NULL,
	payload BLOB,
	at      TEXT NOT NULL
);
`

// datasetConsolidated is the datasets-table key for the derived view.
const datasetConsolidated = "consolidated"

// Store is a SQLite-backed state store. Safe for concurrent use; writes are
// serialized with a mutex since imports are serialized anyway.
type Store struct {
	db *sql.DB
	mu sync.Mutex
}

// Open opens (creating if needed) the store at path.
func Open(path string) (*Store, error) {
	db, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, fmt.Errorf("open sqlite: %w", err)
	}
	if _, err := db.Exec(schema); err != nil {
		db.Close()
		return nil, fmt.Errorf("create schema: %w", err)
	}
	return &Store{db: db}, nil
}

// Close closes the underlying database.
func (s *Store) Close() error {
	return s.db.Close()
}

func (s *Store) saveDataset(ctx context.Context, key string, v any) error {
	payload, err := json.Marshal(v)
	if err != nil {
		return fmt.Errorf("marshal %s dataset: %w", key, err)
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	_, err = s.db.ExecContext(ctx,
		`INSERT INTO datasets (role, payload, imported_at) VALUES (?, ?, ?)
		 ON CONFLICT(role) DO UPDATE SET payload = excluded.payload, imported_at = excluded.imported_at`,
		key, payload, time.Now().UTC().Format(time.RFC3339Nano))
	if err != nil {
		return fmt.Errorf("save %s dataset: %w", key, err)
	}
	return nil
}

func (s *Store) loadDataset(ctx context.Context, key string, v any) error {
	var payload []byte
	err := s.db.QueryRowContext(ctx, `SELECT payload FROM datasets WHERE role = ?`, key).Scan(&payload)
	if errors.Is(err, sql.ErrNoRows) {
		return nil // absent dataset reads as empty
	}
	if err != nil {
		return fmt.Errorf("load %s dataset: %w", key, err)
	}
	if err := json.Unmarshal(payload, v); err != nil {
		return fmt.Errorf("unmarshal %s dataset: %w", key, err)
	}
	return nil
}

// SaveStockRows replaces the sanitized rows for an inventory or reception
// dataset and stamps the import time.
func (s *Store) SaveStockRows(ctx context.Context, role ingest.Role, rows []ingest.StockRow) error {
	return s.saveDataset(ctx, string(role), rows)
}

// StockRows returns the stored rows for a role; an absent dataset is empty.
func (s *Store) StockRows(ctx context.Context, role ingest.Role) ([]ingest.StockRow, error) {
	var rows []ingest.StockRow
	err := s.loadDataset(ctx, string(role), &rows)
	return rows, err
}

// SaveLocations replaces the bin-to-type reference dataset.
func (s *Store) SaveLocations(ctx context.Context, rows []ingest.LocationRow) error {
	return s.saveDataset(ctx, string(ingest.RoleLocations), rows)
}

// Locations returns the stored location reference; absent reads as empty.
func (s *Store) Locations(ctx context.Context) ([]ingest.LocationRow, error) {
	var rows []ingest.LocationRow
	err := s.loadDataset(ctx, string(ingest.RoleLocations), &rows)
	return rows, err
}

// SaveConsolidated replaces the derived consolidated view.
func (s *Store) SaveConsolidated(ctx context.Context, items []ingest.ConsolidatedItem) error {
	return s.saveDataset(ctx, datasetConsolidated, items)
}

// Consolidated returns the stored consolidated view; absent reads as empty.
func (s *Store) Consolidated(ctx context.Context) ([]ingest.ConsolidatedItem, error) {
	var items []ingest.ConsolidatedItem
	err := s.loadDataset(ctx, datasetConsolidated, &items)
	return items, err
}

// ImportedAt returns the last import time per dataset role.
func (s *Store) ImportedAt(ctx context.Context) (map[ingest.Role]time.Time, error) {
	rows, err := s.db.QueryContext(ctx, `SELECT role, imported_at FROM datasets WHERE role != ?`, datasetConsolidated)
	if err != nil {
		return nil, fmt.Errorf("load import times: %w", err)
	}
	defer rows.Close()

	out := make(map[ingest.Role]time.Time)
	for rows.Next() {
		var role, at string
		if err := rows.Scan(&role, &at); err != nil {
			return nil, fmt.Errorf("scan import time: %w", err)
		}
		t, err := time.Parse(time.RFC3339Nano, at)
		if err != nil {
			return nil, fmt.Errorf("parse import time %q: %w", at, err)
		}
		out[ingest.Role(role)] = t
	}
	return out, rows.Err()
}

// SaveMapping caches the resolved column mapping for a role so repeat
// imports with the same header layout skip resolution.
func (s *Store) SaveMapping(ctx context.Context, role ingest.Role, m ingest.FieldMapping) error {
	payload, err := json.Marshal(m)
	if err != nil {
		return fmt.Errorf("marshal %s mapping: %w", role, err)
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	_, err = s.db.ExecContext(ctx,
		`INSERT INTO mappings (role, payload) VALUES (?, ?)
		 ON CONFLICT(role) DO UPDATE SET payload = excluded.payload`,
		string(role), payload)
	if err != nil {
		return fmt.Errorf("save %s mapping: %w", role, err)
	}
	return nil
}

// Mapping returns the cached mapping for a role, or nil when none is cached.
func (s *Store) Mapping(ctx context.Context, role ingest.Role) (ingest.FieldMapping, error) {
	var payload []byte
	err := s.db.QueryRowContext(ctx, `SELECT payload FROM mappings WHERE role = ?`, string(role)).Scan(&payload)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("load %s mapping: %w", role, err)
	}
	var m ingest.FieldMapping
	if err := json.Unmarshal(payload, &m); err != nil {
		return nil, fmt.Errorf("unmarshal %s mapping: %w", role, err)
	}
	return m, nil
}

// Mappings returns every cached mapping keyed by role.
func (s *Store) Mappings(ctx context.Context) (map[ingest.Role]ingest.FieldMapping, error) {
	rows, err := s.db.QueryContext(ctx, `SELECT role, payload FROM mappings`)
	if err != nil {
		return nil, fmt.Errorf("load mappings: %w", err)
	}
	defer rows.Close()

	out := make(map[ingest.Role]ingest.FieldMapping)
	for rows.Next() {
		var role string
		var payload []byte
		if err := rows.Scan(&role, &payload); err != nil {
			return nil, fmt.Errorf("scan mapping: %w", err)
		}
		var m ingest.FieldMapping
		if err := json.Unmarshal(payload, &m); err != nil {
			return nil, fmt.Errorf("unmarshal %s mapping: %w", role, err)
		}
		out[ingest.Role(role)] = m
	}
	return out, rows.Err()
}

// SetSetting stores one settings value.
func (s *Store) SetSetting(ctx context.Context, key, value string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	_, err := s.db.ExecContext(ctx,
		`INSERT INTO settings (key, value) VALUES (?, ?)
		 ON CONFLICT(key) DO UPDATE SET value = excluded.value`,
		key, value)
	if err != nil {
		return fmt.Errorf("save setting %s: %w", key, err)
	}
	return nil
}

// Setting returns a settings value; ok is false when the key is unset.
func (s *Store) Setting(ctx context.Context, key string) (string, bool, error) {
	var value string
	err := s.db.QueryRowContext(ctx, `SELECT value FROM settings WHERE key = ?`, key).Scan(&value)
	if errors.Is(err, sql.ErrNoRows) {
		return "", false, nil
	}
	if err != nil {
		return "", false, fmt.Errorf("load setting %s: %w", key, err)
	}
	return value, true, nil
}

// HistoryEntry is one audit record of a user-visible action.
type HistoryEntry struct {
	ID      string          `json:"id"`
	Action  string          `json:"action"`
	Payload json.RawMessage `json:"payload,omitempty"`
	At      time.Time       `json:"at"`
}

// AppendHistory records an action with an arbitrary payload and prunes
// entries beyond HistoryLimit.
func (s *Store) AppendHistory(ctx context.Context, action string, payload any) error {
	var raw []byte
	if payload != nil {
		var err error
		raw, err = json.Marshal(payload)
		if err != nil {
			return fmt.Errorf("marshal history payload: %w", err)
		}
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	_, err := s.db.ExecContext(ctx,
		`INSERT INTO history (id, action, payload, at) VALUES (?, ?, ?, ?)`,
		uuid.NewString(), action, raw, time.Now().UTC().Format(time.RFC3339Nano))
	if err != nil {
		return fmt.Errorf("append history: %w", err)
	}
	_, err = s.db.ExecContext(ctx,
		`DELETE FROM history WHERE id NOT IN (SELECT id FROM history ORDER BY at DESC LIMIT ?)`,
		HistoryLimit)
	if err != nil {
		return fmt.Errorf("prune history: %w", err)
	}
	return nil
}

// History returns up to limit entries, newest first. limit <= 0 means all
// retained entries.
func (s *Store) History(ctx context.Context, limit int) ([]HistoryEntry, error) {
	if limit <= 0 || limit > HistoryLimit {
		limit = HistoryLimit
	}
	rows, err := s.db.QueryContext(ctx,
		`SELECT id, action, payload, at FROM history ORDER BY at DESC LIMIT ?`, limit)
	if err != nil {
		return nil, fmt.Errorf("load history: %w", err)
	}
	defer rows.Close()

	var out []HistoryEntry
	for rows.Next() {
		var e HistoryEntry
		var at string
		if err := rows.Scan(&e.ID, &e.Action, &e.Payload, &at); err != nil {
			return nil, fmt.Errorf("scan history entry: %w", err)
		}
		e.At, err = time.Parse(time.RFC3339Nano, at)
		if err != nil {
			return nil, fmt.Errorf("parse history time %q: %w", at, err)
		}
		out = append(out, e)
	}
	return out, rows.Err()
}
