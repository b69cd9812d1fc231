package sqlite

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"github.com/lcroft/stagehand/pkg/domain"
	"github.com/lcroft/stagehand/pkg/graph"
)

// EdgesForOrg returns every dependency edge of an organization.
func (s *Store) EdgesForOrg(ctx context.Context, org int64) ([]domain.DependencyEdge, error) {
	rows, err := s.sqlDB.QueryContext(ctx,
		`SELECT from_type, from_id, to_type, to_id, relation, lag_days, created_at
		 FROM dependency_edges WHERE org_id = ? ORDER BY created_at, from_type, from_id`, org)
	if err != nil {
		return nil, fmt.Errorf("list edges: %w", err)
	}
	defer rows.Close()

	var edges []domain.DependencyEdge
	for rows.Next() {
		e := domain.DependencyEdge{Org: org}
		var relation string
		var createdAt int64
		if err := rows.Scan(&e.From.Type, &e.From.ID, &e.To.Type, &e.To.ID, &relation, &e.LagDays, &createdAt); err != nil {
			return nil, fmt.Errorf("scan edge: %w", err)
		}
		e.Relation = domain.RelationKind(relation)
		e.CreatedAt = fromMillis(createdAt)
		edges = append(edges, e)
	}
	return edges, rows.Err()
}

// AddEdge inserts a dependency edge after checking that it does not close a
// cycle. The read and the insert share one transaction so the cycle check
// runs against the same snapshot the insert commits into.
func (s *Store) AddEdge(ctx context.Context, edge domain.DependencyEdge) error {
	tx, err := s.sqlDB.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin add edge: %w", err)
	}
	defer func() { _ = tx.Rollback() }()

	existing, err := edgesForOrgTx(ctx, tx, edge.Org)
	if err != nil {
		return err
	}
	if graph.WouldCreateCycle(existing, edge.From, edge.To) {
		return &domain.CycleDetectedError{Org: edge.Org, From: edge.From, To: edge.To}
	}

	createdAt := edge.CreatedAt
	if createdAt.IsZero() {
		createdAt = time.Now()
	}
	_, err = tx.ExecContext(ctx,
		`INSERT INTO dependency_edges (org_id, from_type, from_id, to_type, to_id, relation, lag_days, created_at)
		 VALUES (?, ?, ?, ?, ?, ?, ?, ?)`,
		edge.Org, edge.From.Type, edge.From.ID, edge.To.Type, edge.To.ID,
		string(edge.Relation), edge.LagDays, toMillis(createdAt))
	if isUniqueViolation(err) {
		return domain.ErrEdgeExists
	}
	if err != nil {
		return fmt.Errorf("insert edge: %w", err)
	}
	return tx.Commit()
}

// RemoveEdge deletes a dependency edge.
func (s *Store) RemoveEdge(ctx context.Context, org int64, from, to domain.NodeRef) error {
	res, err := s.sqlDB.ExecContext(ctx,
		`DELETE FROM dependency_edges
		 WHERE org_id = ? AND from_type = ? AND from_id = ? AND to_type = ? AND to_id = ?`,
		org, from.Type, from.ID, to.Type, to.ID)
	if err != nil {
		return fmt.Errorf("delete edge: %w", err)
	}
	affected, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("delete edge: %w", err)
	}
	if affected == 0 {
		return domain.ErrEdgeNotFound
	}
	return nil
}

func edgesForOrgTx(ctx context.Context, tx *sql.Tx, org int64) ([]domain.DependencyEdge, error) {
	rows, err := tx.QueryContext(ctx,
		`SELECT from_type, from_id, to_type, to_id FROM dependency_edges WHERE org_id = ?`, org)
	if err != nil {
		return nil, fmt.Errorf("list edges: %w", err)
	}
	defer rows.Close()

	var edges []domain.DependencyEdge
	for rows.Next() {
		e := domain.DependencyEdge{Org: org}
		if err := rows.Scan(&e.From.Type, &e.From.ID, &e.To.Type, &e.To.ID); err != nil {
			return nil, fmt.Errorf("scan edge: %w", err)
		}
		edges = append(edges, e)
	}
	return edges, rows.Err()
}
