package sqlite

import (
	"context"
	"fmt"

	"github.com/lcroft/stagehand/pkg/domain"
)

// Items returns the checklist rows for (subject, kind).
func (s *Store) Items(ctx context.Context, org int64, subject domain.NodeRef, kind domain.ChecklistKind) ([]domain.ChecklistItem, error) {
	rows, err := s.sqlDB.QueryContext(ctx,
		`SELECT kind, name, done FROM checklist_items
		 WHERE org_id = ? AND subject_type = ? AND subject_id = ? AND kind = ?
		 ORDER BY rowid`,
		org, subject.Type, subject.ID, string(kind))
	if err != nil {
		return nil, fmt.Errorf("list checklist items: %w", err)
	}
	defer rows.Close()

	var items []domain.ChecklistItem
	for rows.Next() {
		var it domain.ChecklistItem
		var k string
		var done int
		if err := rows.Scan(&k, &it.Name, &done); err != nil {
			return nil, fmt.Errorf("scan checklist item: %w", err)
		}
		it.Kind = domain.ChecklistKind(k)
		it.Done = done != 0
		items = append(items, it)
	}
	return items, rows.Err()
}

// AddChecklistItem appends one checklist row for a subject.
func (s *Store) AddChecklistItem(ctx context.Context, org int64, subject domain.NodeRef, item domain.ChecklistItem) error {
	done := 0
	if item.Done {
		done = 1
	}
	_, err := s.sqlDB.ExecContext(ctx,
		`INSERT INTO checklist_items (org_id, subject_type, subject_id, kind, name, done)
		 VALUES (?, ?, ?, ?, ?, ?)`,
		org, subject.Type, subject.ID, string(item.Kind), item.Name, done)
	if err != nil {
		return fmt.Errorf("insert checklist item: %w", err)
	}
	return nil
}

// CompleteChecklistItem marks a named checklist row done.
func (s *Store) CompleteChecklistItem(ctx context.Context, org int64, subject domain.NodeRef, kind domain.ChecklistKind, name string) error {
	res, err := s.sqlDB.ExecContext(ctx,
		`UPDATE checklist_items SET done = 1
		 WHERE org_id = ? AND subject_type = ? AND subject_id = ? AND kind = ? AND name = ?`,
		org, subject.Type, subject.ID, string(kind), name)
	if err != nil {
		return fmt.Errorf("complete checklist item: %w", err)
	}
	affected, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("complete checklist item: %w", err)
	}
	if affected == 0 {
		return fmt.Errorf("checklist item %q (%s) for %s: %w", name, kind, subject, domain.ErrEntityNotFound)
	}
	return nil
}
