// Package storage persists session table-set state in SQLite.
package storage

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"yeargrid/internal/core"
	"yeargrid/internal/session"

	_ "modernc.org/sqlite"
)

const (
	loadStateSQL   = `SELECT state FROM session_states WHERE session_id = ?`
	upsertStateSQL = `INSERT INTO session_states (session_id, state, updated_at) VALUES (?, ?, ?)
ON CONFLICT(session_id) DO UPDATE SET state = excluded.state, updated_at = excluded.updated_at`
	deleteStateSQL = `DELETE FROM session_states WHERE session_id = ?`
	purgeStateSQL  = `DELETE FROM session_states WHERE updated_at < ?`
	countStateSQL  = `SELECT COUNT(*) FROM session_states`
)

// StateStore is a session.StateStore backed by a SQLite file.
type StateStore struct {
	db  *sql.DB
	now func() time.Time
}

var (
	_ session.StateStore = (*StateStore)(nil)
	_ session.Pinger     = (*StateStore)(nil)
)

// OpenStateStore opens (creating if needed) the database at dbPath and
// applies migrations.
func OpenStateStore(ctx context.Context, dbPath string) (*StateStore, error) {
	if err := os.MkdirAll(filepath.Dir(dbPath), 0755); err != nil {
		return nil, fmt.Errorf("create db directory: %w", err)
	}

	dsn := dbPath + "?_pragma=busy_timeout(5000)&_pragma=journal_mode(WAL)"
	db, err := sql.Open("sqlite", dsn)
	if err != nil {
		return nil, fmt.Errorf("open sqlite database: %w", err)
	}
	// SQLite allows a single writer.
	db.SetMaxOpenConns(1)

	if err := db.PingContext(ctx); err != nil {
		db.Close()
		return nil, fmt.Errorf("ping database: %w", err)
	}

	if err := RunMigrations(dsn); err != nil {
		db.Close()
		return nil, err
	}

	return &StateStore{db: db, now: time.Now}, nil
}

func (s *StateStore) Load(ctx context.Context, id string) (core.State, bool, error) {
	var raw string
	err := s.db.QueryRowContext(ctx, loadStateSQL, id).Scan(&raw)
	if errors.Is(err, sql.ErrNoRows) {
		return core.State{}, false, nil
	}
	if err != nil {
		return core.State{}, false, fmt.Errorf("load state %s: %w", id, err)
	}

	var st core.State
	if err := json.Unmarshal([]byte(raw), &st); err != nil {
		return core.State{}, false, fmt.Errorf("decode state %s: %w", id, err)
	}
	return st, true, nil
}

func (s *StateStore) Save(ctx context.Context, id string, st core.State) error {
	raw, err := json.Marshal(st)
	if err != nil {
		return fmt.Errorf("encode state %s: %w", id, err)
	}
	if _, err := s.db.ExecContext(ctx, upsertStateSQL, id, string(raw), s.now().Unix()); err != nil {
		return fmt.Errorf("save state %s: %w", id, err)
	}
	return nil
}

func (s *StateStore) Delete(ctx context.Context, id string) error {
	if _, err := s.db.ExecContext(ctx, deleteStateSQL, id); err != nil {
		return fmt.Errorf("delete state %s: %w", id, err)
	}
	return nil
}

// PurgeBefore removes sessions not saved since cutoff and returns how many were removed.
func (s *StateStore) PurgeBefore(ctx context.Context, cutoff time.Time) (int64, error) {
	res, err := s.db.ExecContext(ctx, purgeStateSQL, cutoff.Unix())
	if err != nil {
		return 0, fmt.Errorf("purge states: %w", err)
	}
	return res.RowsAffected()
}

// Count returns the number of stored sessions.
func (s *StateStore) Count(ctx context.Context) (int, error) {
	var n int
	if err := s.db.QueryRowContext(ctx, countStateSQL).Scan(&n); err != nil {
		return 0, fmt.Errorf("count states: %w", err)
	}
	return n, nil
}

func (s *StateStore) Ping(ctx context.Context) error {
	return s.db.PingContext(ctx)
}

func (s *StateStore) Close() error {
	if s.db != nil {
		return s.db.Close()
	}
	return nil
}
