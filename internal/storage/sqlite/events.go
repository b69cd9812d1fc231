package sqlite

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/lcroft/stagehand/pkg/domain"
)

// Record inserts an automation event. The UNIQUE(org_id, dedupe_key)
// constraint makes the duplicate check and the insert one atomic statement:
// a constraint failure means another call already recorded the key, which is
// a no-op success for the caller, never an error.
func (s *Store) Record(ctx context.Context, ev domain.AutomationEvent) (bool, error) {
	payload := []byte("{}")
	if len(ev.Payload) > 0 {
		var err error
		payload, err = json.Marshal(ev.Payload)
		if err != nil {
			return false, fmt.Errorf("encode event payload: %w", err)
		}
	}
	occurredAt := ev.OccurredAt
	if occurredAt.IsZero() {
		occurredAt = time.Now()
	}
	_, err := s.sqlDB.ExecContext(ctx,
		`INSERT INTO automation_events (org_id, dedupe_key, rule_id, kind, payload, occurred_at)
		 VALUES (?, ?, ?, ?, ?, ?)`,
		ev.Org, ev.DedupeKey, ev.RuleID, ev.Kind, string(payload), toMillis(occurredAt))
	if isUniqueViolation(err) {
		return false, nil
	}
	if err != nil {
		return false, fmt.Errorf("insert automation event: %w", err)
	}
	return true, nil
}

// Seen reports whether a dedupe key was already recorded for the org.
func (s *Store) Seen(ctx context.Context, org int64, dedupeKey string) (bool, error) {
	var n int
	err := s.sqlDB.QueryRowContext(ctx,
		`SELECT COUNT(1) FROM automation_events WHERE org_id = ? AND dedupe_key = ?`,
		org, dedupeKey).Scan(&n)
	if err != nil {
		return false, fmt.Errorf("check dedupe key: %w", err)
	}
	return n > 0, nil
}

// RecordFiring notes one firing of an automation rule.
func (s *Store) RecordFiring(ctx context.Context, org, ruleID int64, at time.Time) error {
	_, err := s.sqlDB.ExecContext(ctx,
		`INSERT INTO rule_firings (org_id, rule_id, fired_at) VALUES (?, ?, ?)`,
		org, ruleID, toMillis(at))
	if err != nil {
		return fmt.Errorf("insert rule firing: %w", err)
	}
	return nil
}

// CountFirings returns the number of firings at or after the window start.
func (s *Store) CountFirings(ctx context.Context, org, ruleID int64, since time.Time) (int, error) {
	var n int
	err := s.sqlDB.QueryRowContext(ctx,
		`SELECT COUNT(1) FROM rule_firings WHERE org_id = ? AND rule_id = ? AND fired_at >= ?`,
		org, ruleID, toMillis(since)).Scan(&n)
	if err != nil {
		return 0, fmt.Errorf("count rule firings: %w", err)
	}
	return n, nil
}
