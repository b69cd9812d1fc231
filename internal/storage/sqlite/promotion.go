package sqlite

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/lcroft/stagehand/pkg/domain"
)

// CreateCandidate inserts a candidate row.
func (s *Store) CreateCandidate(ctx context.Context, org, candidateID int64, status domain.CandidateStatus) error {
	_, err := s.sqlDB.ExecContext(ctx,
		`INSERT INTO candidates (org_id, candidate_id, status) VALUES (?, ?, ?)`,
		org, candidateID, string(status))
	if err != nil {
		return fmt.Errorf("insert candidate: %w", err)
	}
	return nil
}

// PursuitForCandidate returns the pursuit already created for a candidate,
// or "" when none exists yet.
func (s *Store) PursuitForCandidate(ctx context.Context, org, candidateID int64) (string, error) {
	var id string
	err := s.sqlDB.QueryRowContext(ctx,
		`SELECT id FROM pursuits WHERE org_id = ? AND candidate_id = ?`,
		org, candidateID).Scan(&id)
	if errors.Is(err, sql.ErrNoRows) {
		var n int
		if err := s.sqlDB.QueryRowContext(ctx,
			`SELECT COUNT(1) FROM candidates WHERE org_id = ? AND candidate_id = ?`,
			org, candidateID).Scan(&n); err != nil {
			return "", fmt.Errorf("check candidate: %w", err)
		}
		if n == 0 {
			return "", fmt.Errorf("candidate %d in org %d: %w", candidateID, org, domain.ErrCandidateNotFound)
		}
		return "", nil
	}
	if err != nil {
		return "", fmt.Errorf("find pursuit for candidate: %w", err)
	}
	return id, nil
}

// PromoteCandidate creates at most one pursuit per candidate. Repeat calls
// return the existing pursuit id as a success. The create path runs in one
// transaction: transition check, pursuit insert, candidate status flip, and
// two audit records. A uniqueness violation on (org_id, candidate_id) means
// a concurrent promote won the race; the loser re-queries and returns the
// winner's pursuit id, so both callers converge on the same id.
func (s *Store) PromoteCandidate(ctx context.Context, org, candidateID int64, actor string) (string, bool, error) {
	if id, err := s.PursuitForCandidate(ctx, org, candidateID); err != nil || id != "" {
		return id, false, err
	}

	pursuitID, err := s.promoteTx(ctx, org, candidateID, actor)
	if isUniqueViolation(err) {
		// Lost the race; the pursuit now exists.
		id, qerr := s.PursuitForCandidate(ctx, org, candidateID)
		if qerr != nil {
			return "", false, qerr
		}
		return id, false, nil
	}
	if err != nil {
		return "", false, err
	}
	return pursuitID, true, nil
}

func (s *Store) promoteTx(ctx context.Context, org, candidateID int64, actor string) (string, error) {
	tx, err := s.sqlDB.BeginTx(ctx, nil)
	if err != nil {
		return "", fmt.Errorf("begin promote: %w", err)
	}
	defer func() { _ = tx.Rollback() }()

	var status string
	err = tx.QueryRowContext(ctx,
		`SELECT status FROM candidates WHERE org_id = ? AND candidate_id = ?`,
		org, candidateID).Scan(&status)
	if errors.Is(err, sql.ErrNoRows) {
		return "", fmt.Errorf("candidate %d in org %d: %w", candidateID, org, domain.ErrCandidateNotFound)
	}
	if err != nil {
		return "", fmt.Errorf("read candidate: %w", err)
	}

	if err := domain.Assert(domain.DomainCandidate, status, string(domain.CandidatePromoted), "candidate promotion"); err != nil {
		return "", err
	}

	pursuitID := uuid.NewString()
	now := time.Now()
	if _, err := tx.ExecContext(ctx,
		`INSERT INTO pursuits (id, org_id, candidate_id, stage, created_at) VALUES (?, ?, ?, ?, ?)`,
		pursuitID, org, candidateID, string(domain.PursuitQual), toMillis(now)); err != nil {
		return "", err
	}

	res, err := tx.ExecContext(ctx,
		`UPDATE candidates SET status = ? WHERE org_id = ? AND candidate_id = ? AND status = ?`,
		string(domain.CandidatePromoted), org, candidateID, status)
	if err != nil {
		return "", fmt.Errorf("flip candidate status: %w", err)
	}
	if affected, err := res.RowsAffected(); err != nil || affected == 0 {
		return "", fmt.Errorf("candidate %d status moved concurrently: %w", candidateID, domain.ErrStaleState)
	}

	subject := domain.NodeRef{Type: "candidate", ID: candidateID}
	for _, entry := range []domain.ActivityEntry{
		{Org: org, Actor: actor, Verb: "candidate.promoted", Subject: subject, At: now},
		{Org: org, Actor: actor, Verb: "pursuit.created", Subject: subject, Detail: pursuitID, At: now},
	} {
		if err := appendActivityTx(ctx, tx, entry); err != nil {
			return "", err
		}
	}

	if err := tx.Commit(); err != nil {
		return "", err
	}
	return pursuitID, nil
}
