package ports

import (
	"context"
	"time"

	"github.com/lcroft/stagehand/pkg/domain"
)

// StateStore persists the current lifecycle state of entities.
type StateStore interface {
	// CurrentState returns the persisted state of an entity.
	// Returns domain.ErrEntityNotFound if the entity has no state row.
	CurrentState(ctx context.Context, org int64, d domain.Domain, entityID int64) (string, error)

	// InitState creates the state row for a new entity.
	InitState(ctx context.Context, org int64, d domain.Domain, entityID int64, state string) error

	// Transition moves an entity from one state to another as a single
	// compare-and-set write. Returns domain.ErrStaleState when the entity is
	// no longer in the expected from state, domain.ErrEntityNotFound when it
	// does not exist. Callers must have validated the edge first.
	Transition(ctx context.Context, org int64, d domain.Domain, entityID int64, from, to string) error
}

// EdgeStore persists an organization's dependency edges.
type EdgeStore interface {
	// EdgesForOrg returns every dependency edge of an organization.
	EdgesForOrg(ctx context.Context, org int64) ([]domain.DependencyEdge, error)

	// AddEdge inserts a new edge. Returns *domain.CycleDetectedError when
	// the edge would close a cycle, domain.ErrEdgeExists for an exact
	// duplicate.
	AddEdge(ctx context.Context, edge domain.DependencyEdge) error

	// RemoveEdge deletes an edge. Returns domain.ErrEdgeNotFound when no
	// such edge exists.
	RemoveEdge(ctx context.Context, org int64, from, to domain.NodeRef) error
}

// ChecklistSource supplies already-fetched checklist rows for gate checks.
type ChecklistSource interface {
	// Items returns the checklist rows for (subject, kind). An empty slice
	// means the gate is not satisfied.
	Items(ctx context.Context, org int64, subject domain.NodeRef, kind domain.ChecklistKind) ([]domain.ChecklistItem, error)
}

// EventStore records automation events keyed by dedupe key.
type EventStore interface {
	// Record stores the event. The bool reports whether the event was
	// accepted: false means the (org, dedupe key) pair was already recorded
	// and the event must be treated as already processed, not an error.
	Record(ctx context.Context, ev domain.AutomationEvent) (bool, error)

	// Seen reports whether a dedupe key was already recorded for the org.
	Seen(ctx context.Context, org int64, dedupeKey string) (bool, error)
}

// ThrottleStore counts automation-rule firings over sliding windows.
type ThrottleStore interface {
	// RecordFiring notes one firing of a rule at the given instant.
	RecordFiring(ctx context.Context, org, ruleID int64, at time.Time) error

	// CountFirings returns the number of firings since the given instant.
	CountFirings(ctx context.Context, org, ruleID int64, since time.Time) (int, error)
}

// PromotionStore creates at most one pursuit per candidate.
type PromotionStore interface {
	// PursuitForCandidate returns the id of the pursuit already created for
	// a candidate, or "" when none exists.
	PursuitForCandidate(ctx context.Context, org, candidateID int64) (string, error)

	// PromoteCandidate atomically creates the pursuit and flips the
	// candidate's status, returning the pursuit id and whether this call
	// created it. A storage-level uniqueness race resolves to the surviving
	// pursuit id with created == false. Returns domain.ErrCandidateNotFound
	// for a missing candidate and *domain.InvalidTransitionError when the
	// candidate's status cannot move to promoted.
	PromoteCandidate(ctx context.Context, org, candidateID int64, actor string) (pursuitID string, created bool, err error)
}

// ActivityLog appends audit-trail entries. Core checks never log; callers
// append once a change is accepted.
type ActivityLog interface {
	Append(ctx context.Context, entry domain.ActivityEntry) error
}
