package service

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/lcroft/stagehand/internal/logging"
	"github.com/lcroft/stagehand/internal/metrics"
	"github.com/lcroft/stagehand/pkg/adapters/memory"
	"github.com/lcroft/stagehand/pkg/domain"
)

func newDependencyFixture(t *testing.T) (*Dependencies, *memory.Store) {
	t.Helper()
	store := memory.NewStore()
	return NewDependencies(store, store, metrics.NewNop(), logging.NewNop()), store
}

func edge(org int64, from, to domain.NodeRef) domain.DependencyEdge {
	return domain.DependencyEdge{Org: org, From: from, To: to, Relation: domain.RelationBlocks}
}

func TestAddAndListEdges(t *testing.T) {
	svc, store := newDependencyFixture(t)
	ctx := context.Background()

	a := domain.NodeRef{Type: "task", ID: 1}
	b := domain.NodeRef{Type: "task", ID: 2}

	require.NoError(t, svc.Add(ctx, edge(1, a, b), "alex"))

	edges, err := svc.List(ctx, 1)
	require.NoError(t, err)
	require.Len(t, edges, 1)
	assert.Equal(t, a, edges[0].From)
	assert.False(t, edges[0].CreatedAt.IsZero())

	entries := store.Activity(1)
	require.Len(t, entries, 1)
	assert.Equal(t, "linked", entries[0].Verb)
}

func TestAddEdgeCycleRejected(t *testing.T) {
	svc, _ := newDependencyFixture(t)
	ctx := context.Background()

	a := domain.NodeRef{Type: "task", ID: 1}
	b := domain.NodeRef{Type: "task", ID: 2}
	c := domain.NodeRef{Type: "task", ID: 3}

	require.NoError(t, svc.Add(ctx, edge(1, a, b), "alex"))
	require.NoError(t, svc.Add(ctx, edge(1, b, c), "alex"))

	err := svc.Add(ctx, edge(1, c, a), "alex")
	var cycle *domain.CycleDetectedError
	require.ErrorAs(t, err, &cycle)

	// Self-edges are the degenerate cycle.
	err = svc.Add(ctx, edge(1, a, a), "alex")
	require.ErrorAs(t, err, &cycle)

	// The same edge in another org is fine, cycles are scoped per org.
	require.NoError(t, svc.Add(ctx, edge(2, c, a), "alex"))
}

func TestAddEdgeValidation(t *testing.T) {
	svc, _ := newDependencyFixture(t)
	ctx := context.Background()

	a := domain.NodeRef{Type: "task", ID: 1}
	b := domain.NodeRef{Type: "task", ID: 2}

	bad := edge(1, a, b)
	bad.Relation = "precedes"
	assert.Error(t, svc.Add(ctx, bad, "alex"))

	bad = edge(1, a, b)
	bad.LagDays = -1
	assert.Error(t, svc.Add(ctx, bad, "alex"))

	require.NoError(t, svc.Add(ctx, edge(1, a, b), "alex"))
	err := svc.Add(ctx, edge(1, a, b), "alex")
	assert.True(t, errors.Is(err, domain.ErrEdgeExists))
}

func TestRemoveEdge(t *testing.T) {
	svc, _ := newDependencyFixture(t)
	ctx := context.Background()

	a := domain.NodeRef{Type: "task", ID: 1}
	b := domain.NodeRef{Type: "task", ID: 2}

	require.NoError(t, svc.Add(ctx, edge(1, a, b), "alex"))
	require.NoError(t, svc.Remove(ctx, 1, a, b, "alex"))

	edges, err := svc.List(ctx, 1)
	require.NoError(t, err)
	assert.Empty(t, edges)

	err = svc.Remove(ctx, 1, a, b, "alex")
	assert.True(t, errors.Is(err, domain.ErrEdgeNotFound))
}

func TestCyclesScanOnHealthyGraph(t *testing.T) {
	svc, _ := newDependencyFixture(t)
	ctx := context.Background()

	a := domain.NodeRef{Type: "task", ID: 1}
	b := domain.NodeRef{Type: "task", ID: 2}
	c := domain.NodeRef{Type: "task", ID: 3}

	require.NoError(t, svc.Add(ctx, edge(1, a, b), "alex"))
	require.NoError(t, svc.Add(ctx, edge(1, b, c), "alex"))
	require.NoError(t, svc.Add(ctx, edge(1, a, c), "alex"))

	cycles, err := svc.Cycles(ctx, 1)
	require.NoError(t, err)
	assert.Empty(t, cycles)
}
