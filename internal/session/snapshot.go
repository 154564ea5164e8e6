package session

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"
	"sync"

	_ "modernc.org/sqlite"
)

// Snapshot is the durable persistence collaborator for the store. The store
// loads the full mapping once at activation and writes individual sessions
// back as they change.
type Snapshot interface {
	// LoadAll returns every persisted session keyed by id.
	LoadAll() (map[string]*Session, error)
	// Put persists one session, replacing any previous record.
	Put(sess *Session) error
	// Delete removes the given session ids. Unknown ids are ignored.
	Delete(ids []string) error
	Close() error
}

// SQLiteSnapshot persists sessions as JSON rows in a sqlite database, one
// row per session. Putting and deleting single rows instead of rewriting
// the whole mapping keeps mutation cost proportional to the change.
type SQLiteSnapshot struct {
	db *sql.DB
}

// NewSQLiteSnapshot opens (or creates) the snapshot database and
// initializes the schema.
func NewSQLiteSnapshot(ctx context.Context, dbPath string) (*SQLiteSnapshot, error) {
	// WAL mode allows readers alongside the single writer.
	dsn := dbPath + "?_journal_mode=WAL&_busy_timeout=5000"

	db, err := sql.Open("sqlite", dsn)
	if err != nil {
		return nil, fmt.Errorf("failed to open snapshot database: %w", err)
	}

	// sqlite handles one writer at a time; keep the pool at one connection.
	db.SetMaxOpenConns(1)
	db.SetMaxIdleConns(1)
	db.SetConnMaxLifetime(0)

	if err := db.PingContext(ctx); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to ping snapshot database: %w", err)
	}

	schema := `
	CREATE TABLE IF NOT EXISTS sessions (
		id            TEXT PRIMARY KEY,
		data          TEXT NOT NULL,
		last_activity INTEGER NOT NULL
	);
	CREATE INDEX IF NOT EXISTS idx_sessions_last_activity ON sessions(last_activity);
	`
	if _, err := db.ExecContext(ctx, schema); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to initialize snapshot schema: %w", err)
	}

	return &SQLiteSnapshot{db: db}, nil
}

// LoadAll reads every persisted session. Rows that fail to decode are
// skipped rather than failing the whole load.
func (s *SQLiteSnapshot) LoadAll() (map[string]*Session, error) {
	rows, err := s.db.Query(`SELECT id, data FROM sessions`)
	if err != nil {
		return nil, fmt.Errorf("failed to query sessions: %w", err)
	}
	defer rows.Close()

	sessions := make(map[string]*Session)
	for rows.Next() {
		var id, data string
		if err := rows.Scan(&id, &data); err != nil {
			return nil, fmt.Errorf("failed to scan session row: %w", err)
		}
		var sess Session
		if err := json.Unmarshal([]byte(data), &sess); err != nil {
			continue
		}
		sessions[id] = &sess
	}
	return sessions, rows.Err()
}

// Put upserts one session row.
func (s *SQLiteSnapshot) Put(sess *Session) error {
	data, err := json.Marshal(sess)
	if err != nil {
		return fmt.Errorf("failed to marshal session %s: %w", sess.ID, err)
	}

	_, err = s.db.Exec(`
		INSERT INTO sessions (id, data, last_activity) VALUES (?, ?, ?)
		ON CONFLICT(id) DO UPDATE SET data = excluded.data, last_activity = excluded.last_activity`,
		sess.ID, string(data), sess.LastActivity.UnixMilli())
	if err != nil {
		return fmt.Errorf("failed to persist session %s: %w", sess.ID, err)
	}
	return nil
}

// Delete removes session rows in one transaction.
func (s *SQLiteSnapshot) Delete(ids []string) error {
	if len(ids) == 0 {
		return nil
	}

	tx, err := s.db.Begin()
	if err != nil {
		return fmt.Errorf("failed to begin delete transaction: %w", err)
	}
	for _, id := range ids {
		if _, err := tx.Exec(`DELETE FROM sessions WHERE id = ?`, id); err != nil {
			tx.Rollback()
			return fmt.Errorf("failed to delete session %s: %w", id, err)
		}
	}
	return tx.Commit()
}

func (s *SQLiteSnapshot) Close() error {
	return s.db.Close()
}

// MemorySnapshot keeps the serialized mapping in memory. It exists for
// tests and for running without a durable backing store; it round-trips
// sessions through JSON so persistence bugs (unexported fields, type
// drift) still surface.
type MemorySnapshot struct {
	mu   sync.Mutex
	data map[string][]byte
}

func NewMemorySnapshot() *MemorySnapshot {
	return &MemorySnapshot{data: make(map[string][]byte)}
}

func (m *MemorySnapshot) LoadAll() (map[string]*Session, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	sessions := make(map[string]*Session, len(m.data))
	for id, raw := range m.data {
		var sess Session
		if err := json.Unmarshal(raw, &sess); err != nil {
			continue
		}
		sessions[id] = &sess
	}
	return sessions, nil
}

func (m *MemorySnapshot) Put(sess *Session) error {
	raw, err := json.Marshal(sess)
	if err != nil {
		return err
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	m.data[sess.ID] = raw
	return nil
}

func (m *MemorySnapshot) Delete(ids []string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	for _, id := range ids {
		delete(m.data, id)
	}
	return nil
}

func (m *MemorySnapshot) Close() error { return nil }
