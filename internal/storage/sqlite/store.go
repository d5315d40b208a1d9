// Package sqlite is the SQLite implementation of the turn audit log.
package sqlite

import (
	"context"
	"fmt"

	"github.com/jmoiron/sqlx"
	_ "modernc.org/sqlite"

	"github.com/bizcopilot/bizcopilot/internal/domain"
	"github.com/bizcopilot/bizcopilot/internal/storage"
)

// Store is a SQLite-backed TurnStore.
type Store struct {
	db *sqlx.DB
}

var _ storage.TurnStore = (*Store)(nil)

// New opens (creating if needed) the database at dbPath.
func New(dbPath string) (*Store, error) {
	db, err := sqlx.Open("sqlite", dbPath)
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}

	if _, err := db.Exec("PRAGMA journal_mode=WAL; PRAGMA synchronous=NORMAL;"); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to enable WAL mode: %w", err)
	}

	s := &Store{db: db}
	if err := s.initSchema(); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to initialize schema: %w", err)
	}

	return s, nil
}

func (s *Store) initSchema() error {
	_, err := s.db.Exec(`CREATE TABLE IF NOT EXISTS turns (
		id TEXT PRIMARY KEY,
		business_id TEXT NOT NULL,
		mode TEXT NOT NULL,
		message TEXT NOT NULL,
		reply TEXT NOT NULL,
		tool_invoked INTEGER NOT NULL DEFAULT 0,
		duration_ms INTEGER NOT NULL,
		created_at INTEGER NOT NULL
	);
	CREATE INDEX IF NOT EXISTS idx_turns_business_created
		ON turns(business_id, created_at DESC);`)
	return err
}

func (s *Store) RecordTurn(ctx context.Context, rec domain.TurnRecord) error {
	_, err := s.db.NamedExecContext(ctx, `INSERT INTO turns
		(id, business_id, mode, message, reply, tool_invoked, duration_ms, created_at)
		VALUES (:id, :business_id, :mode, :message, :reply, :tool_invoked, :duration_ms, :created_at)`,
		rec)
	if err != nil {
		return fmt.Errorf("failed to record turn: %w", err)
	}
	return nil
}

func (s *Store) ListTurns(ctx context.Context, businessID string, limit int) ([]domain.TurnRecord, error) {
	if limit <= 0 {
		limit = 50
	}

	var recs []domain.TurnRecord
	err := s.db.SelectContext(ctx, &recs, `SELECT id, business_id, mode, message, reply,
		tool_invoked, duration_ms, created_at
		FROM turns WHERE business_id = ?
		ORDER BY created_at DESC, id LIMIT ?`, businessID, limit)
	if err != nil {
		return nil, fmt.Errorf("failed to list turns: %w", err)
	}
	return recs, nil
}

func (s *Store) Close() error {
	return s.db.Close()
}
