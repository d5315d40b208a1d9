// Package storage defines the turn audit log contract. Records are written
// after a turn completes and are never read back into prompts; this is an
// operability trail, not conversation memory.
package storage

import (
	"context"

	"github.com/bizcopilot/bizcopilot/internal/domain"
)

// TurnStore persists completed chat turns.
type TurnStore interface {
	RecordTurn(ctx context.Context, rec domain.TurnRecord) error
	// ListTurns returns the most recent turns for a business, newest
	// first, up to limit.
	ListTurns(ctx context.Context, businessID string, limit int) ([]domain.TurnRecord, error)
	Close() error
}

// NoopStore discards every record. Used when storage is disabled.
type NoopStore struct{}

func (NoopStore) RecordTurn(context.Context, domain.TurnRecord) error { return nil }

func (NoopStore) ListTurns(context.Context, string, int) ([]domain.TurnRecord, error) {
	return nil, nil
}

func (NoopStore) Close() error { return nil }
