package faults

import (
	"database/sql"
	"encoding/json"
	"fmt"
	"strings"
	"sync"
	"time"

	_ "modernc.org/sqlite" // Pure Go SQLite driver
)

// SQLiteStore persists fault records to SQLite.
// Attributes are stored as JSON, so numbers read back as float64.
type SQLiteStore struct {
	db     *sql.DB
	mu     sync.RWMutex
	closed bool
}

// NewSQLiteStore opens (creating if needed) a fault journal at path.
// Use ":memory:" for a throwaway journal.
func NewSQLiteStore(path string) (*SQLiteStore, error) {
	db, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, fmt.Errorf("open database: %w", err)
	}
	// A single connection keeps ":memory:" databases shared.
	db.SetMaxOpenConns(1)

	if _, err := db.Exec("PRAGMA journal_mode=WAL"); err != nil {
		db.Close()
		return nil, fmt.Errorf("enable WAL mode: %w", err)
	}

	if _, err := db.Exec(`
		CREATE TABLE IF NOT EXISTS faults (
			seq INTEGER PRIMARY KEY AUTOINCREMENT,
			id TEXT NOT NULL UNIQUE,
			stream_id TEXT NOT NULL,
			receiver TEXT NOT NULL,
			sequence INTEGER NOT NULL,
			event_ts INTEGER NOT NULL,
			attributes TEXT NOT NULL,
			error TEXT NOT NULL,
			aborted INTEGER NOT NULL,
			recorded_at TEXT NOT NULL
		)
	`); err != nil {
		db.Close()
		return nil, fmt.Errorf("create table: %w", err)
	}

	if _, err := db.Exec(`
		CREATE INDEX IF NOT EXISTS idx_faults_stream_id
		ON faults(stream_id)
	`); err != nil {
		db.Close()
		return nil, fmt.Errorf("create index: %w", err)
	}

	return &SQLiteStore{db: db}, nil
}

// Append implements Store.
func (s *SQLiteStore) Append(rec Record) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.closed {
		return ErrStoreClosed
	}

	attrs, err := json.Marshal(rec.Attributes)
	if err != nil {
		return fmt.Errorf("encode attributes: %w", err)
	}
	if rec.Time.IsZero() {
		rec.Time = time.Now()
	}

	_, err = s.db.Exec(`
		INSERT INTO faults (id, stream_id, receiver, sequence, event_ts, attributes, error, aborted, recorded_at)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?)
	`, rec.ID, rec.StreamID, rec.Receiver, rec.Sequence, rec.EventTimestamp,
		string(attrs), rec.Error, rec.Aborted, rec.Time.UTC().Format(time.RFC3339Nano))
	if err != nil {
		return fmt.Errorf("append fault: %w", err)
	}
	return nil
}

// where returns a filter clause and its arguments for streamID.
func where(streamID string) (string, []any) {
	if streamID == "" {
		return "", nil
	}
	return " WHERE stream_id = ?", []any{streamID}
}

// List implements Store.
func (s *SQLiteStore) List(streamID string) ([]Record, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	if s.closed {
		return nil, ErrStoreClosed
	}

	clause, args := where(streamID)
	var q strings.Builder
	q.WriteString(`SELECT id, stream_id, receiver, sequence, event_ts, attributes, error, aborted, recorded_at FROM faults`)
	q.WriteString(clause)
	q.WriteString(` ORDER BY seq`)

	rows, err := s.db.Query(q.String(), args...)
	if err != nil {
		return nil, fmt.Errorf("list faults: %w", err)
	}
	defer rows.Close()

	var out []Record
	for rows.Next() {
		var rec Record
		var attrs, recordedAt string
		if err := rows.Scan(&rec.ID, &rec.StreamID, &rec.Receiver, &rec.Sequence, &rec.EventTimestamp,
			&attrs, &rec.Error, &rec.Aborted, &recordedAt); err != nil {
			return nil, fmt.Errorf("scan fault: %w", err)
		}
		if err := json.Unmarshal([]byte(attrs), &rec.Attributes); err != nil {
			return nil, fmt.Errorf("decode attributes: %w", err)
		}
		rec.Time, _ = time.Parse(time.RFC3339Nano, recordedAt)
		out = append(out, rec)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate faults: %w", err)
	}
	return out, nil
}

// Count implements Store.
func (s *SQLiteStore) Count(streamID string) (int, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	if s.closed {
		return 0, ErrStoreClosed
	}

	clause, args := where(streamID)
	var n int
	if err := s.db.QueryRow(`SELECT COUNT(*) FROM faults`+clause, args...).Scan(&n); err != nil {
		return 0, fmt.Errorf("count faults: %w", err)
	}
	return n, nil
}

// Clear implements Store.
func (s *SQLiteStore) Clear(streamID string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.closed {
		return ErrStoreClosed
	}

	clause, args := where(streamID)
	if _, err := s.db.Exec(`DELETE FROM faults`+clause, args...); err != nil {
		return fmt.Errorf("clear faults: %w", err)
	}
	return nil
}

// Close implements Store.
func (s *SQLiteStore) Close() error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.closed {
		return nil
	}
	s.closed = true
	return s.db.Close()
}
