package sqlite

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/lcroft/stagehand/pkg/domain"
)

// Append records an audit-trail entry.
func (s *Store) Append(ctx context.Context, entry domain.ActivityEntry) error {
	_, err := s.sqlDB.ExecContext(ctx, activityInsertSQL, activityInsertArgs(entry)...)
	if err != nil {
		return fmt.Errorf("insert activity: %w", err)
	}
	return nil
}

// ActivityForOrg returns an org's audit trail, oldest first.
func (s *Store) ActivityForOrg(ctx context.Context, org int64) ([]domain.ActivityEntry, error) {
	rows, err := s.sqlDB.QueryContext(ctx,
		`SELECT org_id, actor, verb, subject_type, subject_id, detail, at
		 FROM activity_log WHERE org_id = ? ORDER BY at, id`, org)
	if err != nil {
		return nil, fmt.Errorf("list activity: %w", err)
	}
	defer rows.Close()

	var entries []domain.ActivityEntry
	for rows.Next() {
		var e domain.ActivityEntry
		var at int64
		if err := rows.Scan(&e.Org, &e.Actor, &e.Verb, &e.Subject.Type, &e.Subject.ID, &e.Detail, &at); err != nil {
			return nil, fmt.Errorf("scan activity: %w", err)
		}
		e.At = fromMillis(at)
		entries = append(entries, e)
	}
	return entries, rows.Err()
}

const activityInsertSQL = `INSERT INTO activity_log (id, org_id, actor, verb, subject_type, subject_id, detail, at)
	 VALUES (?, ?, ?, ?, ?, ?, ?, ?)`

func activityInsertArgs(entry domain.ActivityEntry) []any {
	at := entry.At
	if at.IsZero() {
		at = time.Now()
	}
	return []any{
		uuid.NewString(), entry.Org, entry.Actor, entry.Verb,
		entry.Subject.Type, entry.Subject.ID, entry.Detail, toMillis(at),
	}
}

func appendActivityTx(ctx context.Context, tx *sql.Tx, entry domain.ActivityEntry) error {
	if _, err := tx.ExecContext(ctx, activityInsertSQL, activityInsertArgs(entry)...); err != nil {
		return fmt.Errorf("insert activity: %w", err)
	}
	return nil
}
