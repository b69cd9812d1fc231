package service

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/lcroft/stagehand/internal/metrics"
	"github.com/lcroft/stagehand/pkg/domain"
	"github.com/lcroft/stagehand/pkg/graph"
	"github.com/lcroft/stagehand/pkg/ports"
)

// Dependencies manages the dependency edges of an organization's entities.
type Dependencies struct {
	edges    ports.EdgeStore
	activity ports.ActivityLog
	metrics  *metrics.Metrics
	log      *slog.Logger
}

// NewDependencies creates the dependency service with its dependencies.
func NewDependencies(edges ports.EdgeStore, activity ports.ActivityLog, m *metrics.Metrics, log *slog.Logger) *Dependencies {
	return &Dependencies{edges: edges, activity: activity, metrics: m, log: log}
}

// List returns every dependency edge of an organization.
func (s *Dependencies) List(ctx context.Context, org int64) ([]domain.DependencyEdge, error) {
	return s.edges.EdgesForOrg(ctx, org)
}

// Add validates and inserts a new edge. An edge that would close a cycle is
// rejected with *domain.CycleDetectedError; an exact duplicate with
// domain.ErrEdgeExists.
func (s *Dependencies) Add(ctx context.Context, edge domain.DependencyEdge, actor string) error {
	if !edge.Relation.Valid() {
		return fmt.Errorf("unknown relation %q", edge.Relation)
	}
	if edge.LagDays < 0 {
		return fmt.Errorf("negative lag %d days", edge.LagDays)
	}
	if edge.CreatedAt.IsZero() {
		edge.CreatedAt = time.Now()
	}

	if err := s.edges.AddEdge(ctx, edge); err != nil {
		var cycle *domain.CycleDetectedError
		if errors.As(err, &cycle) {
			s.metrics.CycleRejections.Inc()
			s.log.Info("edge rejected, would close a cycle",
				"org", edge.Org, "from", edge.From.String(), "to", edge.To.String())
		}
		return err
	}

	entry := domain.ActivityEntry{
		Org:     edge.Org,
		Actor:   actor,
		Verb:    "linked",
		Subject: edge.From,
		Detail:  fmt.Sprintf("%s %s %s", edge.Relation, edge.To.String(), lagDetail(edge.LagDays)),
		At:      time.Now(),
	}
	if err := s.activity.Append(ctx, entry); err != nil {
		s.log.Warn("activity append failed", "err", err, "subject", edge.From.String())
	}
	return nil
}

// Remove deletes an edge.
func (s *Dependencies) Remove(ctx context.Context, org int64, from, to domain.NodeRef, actor string) error {
	if err := s.edges.RemoveEdge(ctx, org, from, to); err != nil {
		return err
	}
	entry := domain.ActivityEntry{
		Org:     org,
		Actor:   actor,
		Verb:    "unlinked",
		Subject: from,
		Detail:  to.String(),
		At:      time.Now(),
	}
	if err := s.activity.Append(ctx, entry); err != nil {
		s.log.Warn("activity append failed", "err", err, "subject", from.String())
	}
	return nil
}

// Cycles scans the organization's full edge set and returns every cycle
// found. A healthy graph returns an empty slice; a non-empty result means an
// edge slipped in outside the guarded insert path.
func (s *Dependencies) Cycles(ctx context.Context, org int64) ([][]domain.NodeRef, error) {
	edges, err := s.edges.EdgesForOrg(ctx, org)
	if err != nil {
		return nil, err
	}
	return graph.FindCycles(edges), nil
}

func lagDetail(days int) string {
	if days == 0 {
		return "(no lag)"
	}
	return fmt.Sprintf("(lag %dd)", days)
}
