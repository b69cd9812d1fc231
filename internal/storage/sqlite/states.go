package sqlite

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/lcroft/stagehand/pkg/domain"
)

// CurrentState returns the persisted state of an entity.
func (s *Store) CurrentState(ctx context.Context, org int64, d domain.Domain, entityID int64) (string, error) {
	var state string
	err := s.sqlDB.QueryRowContext(ctx,
		`SELECT state FROM entity_states WHERE org_id = ? AND domain = ? AND entity_id = ?`,
		org, string(d), entityID).Scan(&state)
	if errors.Is(err, sql.ErrNoRows) {
		return "", fmt.Errorf("%s %d in org %d: %w", d, entityID, org, domain.ErrEntityNotFound)
	}
	if err != nil {
		return "", fmt.Errorf("read entity state: %w", err)
	}
	return state, nil
}

// InitState creates the state row for a new entity.
func (s *Store) InitState(ctx context.Context, org int64, d domain.Domain, entityID int64, state string) error {
	_, err := s.sqlDB.ExecContext(ctx,
		`INSERT INTO entity_states (org_id, domain, entity_id, state, updated_at)
		 VALUES (?, ?, ?, ?, ?)
		 ON CONFLICT (org_id, domain, entity_id) DO UPDATE SET state = excluded.state, updated_at = excluded.updated_at`,
		org, string(d), entityID, state, toMillis(time.Now()))
	if err != nil {
		return fmt.Errorf("init entity state: %w", err)
	}
	return nil
}

// Transition moves an entity between states as one compare-and-set UPDATE.
// The WHERE clause re-validates the expected from state under the row's
// write lock, so two racing requests cannot both win against a stale read.
func (s *Store) Transition(ctx context.Context, org int64, d domain.Domain, entityID int64, from, to string) error {
	res, err := s.sqlDB.ExecContext(ctx,
		`UPDATE entity_states SET state = ?, updated_at = ?
		 WHERE org_id = ? AND domain = ? AND entity_id = ? AND state = ?`,
		to, toMillis(time.Now()), org, string(d), entityID, from)
	if err != nil {
		return fmt.Errorf("write entity state: %w", err)
	}
	affected, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("write entity state: %w", err)
	}
	if affected > 0 {
		return nil
	}

	// Distinguish a missing row from a lost race.
	current, err := s.CurrentState(ctx, org, d, entityID)
	if err != nil {
		return err
	}
	if current == to && from == to {
		// Self no-op re-assertion; nothing to change.
		return nil
	}
	return fmt.Errorf("%s %d is %q, not %q: %w", d, entityID, current, from, domain.ErrStaleState)
}
