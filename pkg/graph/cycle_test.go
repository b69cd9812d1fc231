package graph_test

import (
	"testing"

	"github.com/lcroft/stagehand/pkg/domain"
	"github.com/lcroft/stagehand/pkg/graph"
	"github.com/stretchr/testify/assert"
)

func ref(id int64) domain.NodeRef {
	return domain.NodeRef{Type: "task", ID: id}
}

func edge(from, to int64) domain.DependencyEdge {
	return domain.DependencyEdge{Org: 7, From: ref(from), To: ref(to), Relation: domain.RelationBlocks}
}

func TestWouldCreateCycle(t *testing.T) {
	// A -> B -> C
	existing := []domain.DependencyEdge{edge(1, 2), edge(2, 3)}

	// C -> A closes A -> B -> C -> A.
	assert.True(t, graph.WouldCreateCycle(existing, ref(3), ref(1)))

	// D is unconnected; D -> A is fine.
	assert.False(t, graph.WouldCreateCycle(existing, ref(4), ref(1)))

	// A -> C is a shortcut, not a cycle.
	assert.False(t, graph.WouldCreateCycle(existing, ref(1), ref(3)))

	// Self-edge is always a cycle.
	assert.True(t, graph.WouldCreateCycle(existing, ref(1), ref(1)))

	// Empty graph accepts anything except self-edges.
	assert.False(t, graph.WouldCreateCycle(nil, ref(1), ref(2)))
}

func TestWouldCreateCycle_DiamondStaysAcyclic(t *testing.T) {
	// A -> B, A -> C, B -> D, C -> D: a diamond shares a sink but has no loop.
	existing := []domain.DependencyEdge{edge(1, 2), edge(1, 3), edge(2, 4)}
	assert.False(t, graph.WouldCreateCycle(existing, ref(3), ref(4)))

	// But closing D back onto A loops through either branch.
	existing = append(existing, edge(3, 4))
	assert.True(t, graph.WouldCreateCycle(existing, ref(4), ref(1)))
}

func TestWouldCreateCycle_MixedNodeTypes(t *testing.T) {
	task := domain.NodeRef{Type: "task", ID: 1}
	milestone := domain.NodeRef{Type: "milestone", ID: 1}

	// Same numeric id, different types: distinct nodes.
	existing := []domain.DependencyEdge{{Org: 7, From: task, To: milestone, Relation: domain.RelationBlocks}}
	assert.False(t, graph.WouldCreateCycle(existing, domain.NodeRef{Type: "task", ID: 2}, task))
	assert.True(t, graph.WouldCreateCycle(existing, milestone, task))
}

func TestFindCycles(t *testing.T) {
	acyclic := []domain.DependencyEdge{edge(1, 2), edge(2, 3), edge(1, 3)}
	assert.Empty(t, graph.FindCycles(acyclic))

	looped := []domain.DependencyEdge{edge(1, 2), edge(2, 3), edge(3, 1), edge(3, 4)}
	cycles := graph.FindCycles(looped)
	assert.Len(t, cycles, 1)
	assert.Len(t, cycles[0], 3)
}

func TestIndex_RepeatedChecksShareSnapshot(t *testing.T) {
	adj := graph.Index([]domain.DependencyEdge{edge(1, 2), edge(2, 3)})
	assert.True(t, adj.WouldCreateCycle(ref(3), ref(1)))
	assert.False(t, adj.WouldCreateCycle(ref(4), ref(1)))
}
