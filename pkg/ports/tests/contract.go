// Package tests provides reusable contract suites verifying that adapters
// comply with the ports interfaces. Both the in-memory and SQLite/Redis
// adapters run these.
package tests

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/lcroft/stagehand/pkg/domain"
	"github.com/lcroft/stagehand/pkg/ports"
)

// StateStoreContract verifies compare-and-set transition semantics.
func StateStoreContract(t *testing.T, store ports.StateStore) {
	t.Helper()
	ctx := context.Background()

	t.Run("Missing_Entity", func(t *testing.T) {
		_, err := store.CurrentState(ctx, 1, domain.DomainInvoice, 999)
		if !errors.Is(err, domain.ErrEntityNotFound) {
			t.Fatalf("expected ErrEntityNotFound, got %v", err)
		}
		err = store.Transition(ctx, 1, domain.DomainInvoice, 999, "draft", "sent")
		if !errors.Is(err, domain.ErrEntityNotFound) {
			t.Fatalf("expected ErrEntityNotFound on transition, got %v", err)
		}
	})

	t.Run("Init_Read_Transition", func(t *testing.T) {
		if err := store.InitState(ctx, 1, domain.DomainInvoice, 10, "draft"); err != nil {
			t.Fatalf("init: %v", err)
		}
		state, err := store.CurrentState(ctx, 1, domain.DomainInvoice, 10)
		if err != nil || state != "draft" {
			t.Fatalf("got (%q, %v), want (draft, nil)", state, err)
		}
		if err := store.Transition(ctx, 1, domain.DomainInvoice, 10, "draft", "sent"); err != nil {
			t.Fatalf("transition: %v", err)
		}
		state, _ = store.CurrentState(ctx, 1, domain.DomainInvoice, 10)
		if state != "sent" {
			t.Fatalf("state after transition = %q, want sent", state)
		}
	})

	t.Run("Stale_From_State", func(t *testing.T) {
		if err := store.InitState(ctx, 1, domain.DomainInvoice, 11, "sent"); err != nil {
			t.Fatalf("init: %v", err)
		}
		err := store.Transition(ctx, 1, domain.DomainInvoice, 11, "draft", "sent")
		if !errors.Is(err, domain.ErrStaleState) {
			t.Fatalf("expected ErrStaleState, got %v", err)
		}
	})

	t.Run("Org_Isolation", func(t *testing.T) {
		if err := store.InitState(ctx, 2, domain.DomainInvoice, 12, "draft"); err != nil {
			t.Fatalf("init: %v", err)
		}
		if _, err := store.CurrentState(ctx, 3, domain.DomainInvoice, 12); !errors.Is(err, domain.ErrEntityNotFound) {
			t.Fatalf("state leaked across orgs: %v", err)
		}
	})
}

// EdgeStoreContract verifies dependency edge persistence and cycle rejection.
func EdgeStoreContract(t *testing.T, store ports.EdgeStore) {
	t.Helper()
	ctx := context.Background()
	ref := func(id int64) domain.NodeRef { return domain.NodeRef{Type: "task", ID: id} }
	edge := func(org, from, to int64) domain.DependencyEdge {
		return domain.DependencyEdge{Org: org, From: ref(from), To: ref(to), Relation: domain.RelationBlocks}
	}

	t.Run("Add_List", func(t *testing.T) {
		if err := store.AddEdge(ctx, edge(7, 1, 2)); err != nil {
			t.Fatalf("add: %v", err)
		}
		if err := store.AddEdge(ctx, edge(7, 2, 3)); err != nil {
			t.Fatalf("add: %v", err)
		}
		got, err := store.EdgesForOrg(ctx, 7)
		if err != nil || len(got) != 2 {
			t.Fatalf("list = (%d edges, %v), want 2", len(got), err)
		}
	})

	t.Run("Duplicate_Rejected", func(t *testing.T) {
		err := store.AddEdge(ctx, edge(7, 1, 2))
		if !errors.Is(err, domain.ErrEdgeExists) {
			t.Fatalf("expected ErrEdgeExists, got %v", err)
		}
	})

	t.Run("Cycle_Rejected", func(t *testing.T) {
		err := store.AddEdge(ctx, edge(7, 3, 1))
		var cde *domain.CycleDetectedError
		if !errors.As(err, &cde) {
			t.Fatalf("expected CycleDetectedError, got %v", err)
		}
	})

	t.Run("Cycle_Scoped_To_Org", func(t *testing.T) {
		// The same edge shape in another org has no cycle to close.
		if err := store.AddEdge(ctx, edge(8, 3, 1)); err != nil {
			t.Fatalf("cross-org add: %v", err)
		}
	})

	t.Run("Remove", func(t *testing.T) {
		if err := store.RemoveEdge(ctx, 7, ref(2), ref(3)); err != nil {
			t.Fatalf("remove: %v", err)
		}
		if err := store.RemoveEdge(ctx, 7, ref(2), ref(3)); !errors.Is(err, domain.ErrEdgeNotFound) {
			t.Fatalf("expected ErrEdgeNotFound, got %v", err)
		}
		// With B -> C gone, C -> A no longer loops.
		if err := store.AddEdge(ctx, edge(7, 3, 1)); err != nil {
			t.Fatalf("add after remove: %v", err)
		}
	})
}

// EventStoreContract verifies dedupe-key semantics.
func EventStoreContract(t *testing.T, store ports.EventStore) {
	t.Helper()
	ctx := context.Background()
	ev := domain.AutomationEvent{Org: 7, RuleID: 1, DedupeKey: "evt-001", Kind: "deal.updated", OccurredAt: time.Now()}

	seen, err := store.Seen(ctx, 7, "evt-001")
	if err != nil || seen {
		t.Fatalf("fresh key seen = (%v, %v), want (false, nil)", seen, err)
	}

	accepted, err := store.Record(ctx, ev)
	if err != nil || !accepted {
		t.Fatalf("first record = (%v, %v), want (true, nil)", accepted, err)
	}

	accepted, err = store.Record(ctx, ev)
	if err != nil || accepted {
		t.Fatalf("second record = (%v, %v), want (false, nil)", accepted, err)
	}

	seen, err = store.Seen(ctx, 7, "evt-001")
	if err != nil || !seen {
		t.Fatalf("recorded key seen = (%v, %v), want (true, nil)", seen, err)
	}

	// Another org may reuse the key.
	other := ev
	other.Org = 8
	if accepted, err := store.Record(ctx, other); err != nil || !accepted {
		t.Fatalf("cross-org record = (%v, %v), want (true, nil)", accepted, err)
	}
}

// ThrottleStoreContract verifies sliding-window firing counts.
func ThrottleStoreContract(t *testing.T, store ports.ThrottleStore) {
	t.Helper()
	ctx := context.Background()
	now := time.Now()

	for _, at := range []time.Time{now.Add(-2 * time.Hour), now.Add(-30 * time.Minute), now.Add(-time.Minute)} {
		if err := store.RecordFiring(ctx, 7, 42, at); err != nil {
			t.Fatalf("record firing: %v", err)
		}
	}

	n, err := store.CountFirings(ctx, 7, 42, now.Add(-time.Hour))
	if err != nil || n != 2 {
		t.Fatalf("hour window = (%d, %v), want 2", n, err)
	}
	n, err = store.CountFirings(ctx, 7, 42, now.Add(-24*time.Hour))
	if err != nil || n != 3 {
		t.Fatalf("day window = (%d, %v), want 3", n, err)
	}
	n, err = store.CountFirings(ctx, 7, 99, now.Add(-24*time.Hour))
	if err != nil || n != 0 {
		t.Fatalf("other rule = (%d, %v), want 0", n, err)
	}
}
