// Package memory provides in-memory implementations of the Stagehand ports.
// Safe for concurrent use; intended for tests and embedded single-process
// deployments.
package memory

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/lcroft/stagehand/pkg/domain"
	"github.com/lcroft/stagehand/pkg/graph"
)

type stateKey struct {
	org    int64
	domain domain.Domain
	id     int64
}

type edgeKey struct {
	org  int64
	from domain.NodeRef
	to   domain.NodeRef
}

type checklistKey struct {
	org     int64
	subject domain.NodeRef
	kind    domain.ChecklistKind
}

type candidate struct {
	status  domain.CandidateStatus
	pursuit string
}

// Store implements every Stagehand port in memory.
type Store struct {
	mu         sync.RWMutex
	states     map[stateKey]string
	edges      map[edgeKey]domain.DependencyEdge
	checklists map[checklistKey][]domain.ChecklistItem
	events     map[int64]map[string]domain.AutomationEvent
	firings    map[int64]map[int64][]time.Time
	candidates map[stateKey]*candidate
	activity   []domain.ActivityEntry
}

// NewStore creates an empty in-memory store.
func NewStore() *Store {
	return &Store{
		states:     make(map[stateKey]string),
		edges:      make(map[edgeKey]domain.DependencyEdge),
		checklists: make(map[checklistKey][]domain.ChecklistItem),
		events:     make(map[int64]map[string]domain.AutomationEvent),
		firings:    make(map[int64]map[int64][]time.Time),
		candidates: make(map[stateKey]*candidate),
	}
}

// -- StateStore --

// CurrentState returns the persisted state of an entity.
func (s *Store) CurrentState(ctx context.Context, org int64, d domain.Domain, entityID int64) (string, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	state, ok := s.states[stateKey{org, d, entityID}]
	if !ok {
		return "", fmt.Errorf("%s %d in org %d: %w", d, entityID, org, domain.ErrEntityNotFound)
	}
	return state, nil
}

// InitState creates the state row for a new entity.
func (s *Store) InitState(ctx context.Context, org int64, d domain.Domain, entityID int64, state string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.states[stateKey{org, d, entityID}] = state
	return nil
}

// Transition performs the compare-and-set state write.
func (s *Store) Transition(ctx context.Context, org int64, d domain.Domain, entityID int64, from, to string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	key := stateKey{org, d, entityID}
	current, ok := s.states[key]
	if !ok {
		return fmt.Errorf("%s %d in org %d: %w", d, entityID, org, domain.ErrEntityNotFound)
	}
	if current != from {
		return fmt.Errorf("%s %d is %q, not %q: %w", d, entityID, current, from, domain.ErrStaleState)
	}
	s.states[key] = to
	return nil
}

// -- EdgeStore --

// EdgesForOrg returns every dependency edge of an organization.
func (s *Store) EdgesForOrg(ctx context.Context, org int64) ([]domain.DependencyEdge, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.edgesLocked(org), nil
}

func (s *Store) edgesLocked(org int64) []domain.DependencyEdge {
	var out []domain.DependencyEdge
	for k, e := range s.edges {
		if k.org == org {
			out = append(out, e)
		}
	}
	return out
}

// AddEdge inserts a new edge, rejecting duplicates and cycles.
func (s *Store) AddEdge(ctx context.Context, edge domain.DependencyEdge) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	key := edgeKey{edge.Org, edge.From, edge.To}
	if _, ok := s.edges[key]; ok {
		return domain.ErrEdgeExists
	}
	if graph.WouldCreateCycle(s.edgesLocked(edge.Org), edge.From, edge.To) {
		return &domain.CycleDetectedError{Org: edge.Org, From: edge.From, To: edge.To}
	}
	if edge.CreatedAt.IsZero() {
		edge.CreatedAt = time.Now()
	}
	s.edges[key] = edge
	return nil
}

// RemoveEdge deletes an edge.
func (s *Store) RemoveEdge(ctx context.Context, org int64, from, to domain.NodeRef) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	key := edgeKey{org, from, to}
	if _, ok := s.edges[key]; !ok {
		return domain.ErrEdgeNotFound
	}
	delete(s.edges, key)
	return nil
}

// -- ChecklistSource --

// SetChecklist replaces the checklist rows for (subject, kind). Test and
// embedding hook; the SQLite store owns checklists in production.
func (s *Store) SetChecklist(org int64, subject domain.NodeRef, kind domain.ChecklistKind, items []domain.ChecklistItem) {
	s.mu.Lock()
	defer s.mu.Unlock()
	copied := make([]domain.ChecklistItem, len(items))
	copy(copied, items)
	s.checklists[checklistKey{org, subject, kind}] = copied
}

// Items returns the checklist rows for (subject, kind).
func (s *Store) Items(ctx context.Context, org int64, subject domain.NodeRef, kind domain.ChecklistKind) ([]domain.ChecklistItem, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	items := s.checklists[checklistKey{org, subject, kind}]
	out := make([]domain.ChecklistItem, len(items))
	copy(out, items)
	return out, nil
}

// -- EventStore --

// Record stores an automation event unless its dedupe key was already seen.
func (s *Store) Record(ctx context.Context, ev domain.AutomationEvent) (bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	byKey, ok := s.events[ev.Org]
	if !ok {
		byKey = make(map[string]domain.AutomationEvent)
		s.events[ev.Org] = byKey
	}
	if _, dup := byKey[ev.DedupeKey]; dup {
		return false, nil
	}
	byKey[ev.DedupeKey] = ev
	return true, nil
}

// Seen reports whether a dedupe key was already recorded for the org.
func (s *Store) Seen(ctx context.Context, org int64, dedupeKey string) (bool, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	_, ok := s.events[org][dedupeKey]
	return ok, nil
}

// -- ThrottleStore --

// RecordFiring notes one firing of a rule.
func (s *Store) RecordFiring(ctx context.Context, org, ruleID int64, at time.Time) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	byRule, ok := s.firings[org]
	if !ok {
		byRule = make(map[int64][]time.Time)
		s.firings[org] = byRule
	}
	byRule[ruleID] = append(byRule[ruleID], at)
	return nil
}

// CountFirings returns the number of firings since the given instant.
func (s *Store) CountFirings(ctx context.Context, org, ruleID int64, since time.Time) (int, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	n := 0
	for _, at := range s.firings[org][ruleID] {
		if !at.Before(since) {
			n++
		}
	}
	return n, nil
}

// -- PromotionStore --

// SeedCandidate creates a candidate row. Test and embedding hook.
func (s *Store) SeedCandidate(org, candidateID int64, status domain.CandidateStatus) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.candidates[stateKey{org, domain.DomainCandidate, candidateID}] = &candidate{status: status}
}

// PursuitForCandidate returns the pursuit already created for a candidate.
func (s *Store) PursuitForCandidate(ctx context.Context, org, candidateID int64) (string, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	c, ok := s.candidates[stateKey{org, domain.DomainCandidate, candidateID}]
	if !ok {
		return "", fmt.Errorf("candidate %d in org %d: %w", candidateID, org, domain.ErrCandidateNotFound)
	}
	return c.pursuit, nil
}

// PromoteCandidate creates at most one pursuit per candidate. The whole
// operation runs under one lock, so the uniqueness race the SQLite store has
// to absorb cannot occur here; repeat calls converge on the stored id.
func (s *Store) PromoteCandidate(ctx context.Context, org, candidateID int64, actor string) (string, bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	key := stateKey{org, domain.DomainCandidate, candidateID}
	c, ok := s.candidates[key]
	if !ok {
		return "", false, fmt.Errorf("candidate %d in org %d: %w", candidateID, org, domain.ErrCandidateNotFound)
	}
	if c.pursuit != "" {
		return c.pursuit, false, nil
	}
	if err := domain.Assert(domain.DomainCandidate, string(c.status), string(domain.CandidatePromoted), "candidate promotion"); err != nil {
		return "", false, err
	}
	c.status = domain.CandidatePromoted
	c.pursuit = uuid.NewString()
	now := time.Now()
	s.activity = append(s.activity,
		domain.ActivityEntry{Org: org, Actor: actor, Verb: "candidate.promoted", Subject: domain.NodeRef{Type: "candidate", ID: candidateID}, At: now},
		domain.ActivityEntry{Org: org, Actor: actor, Verb: "pursuit.created", Subject: domain.NodeRef{Type: "candidate", ID: candidateID}, Detail: c.pursuit, At: now},
	)
	return c.pursuit, true, nil
}

// -- ActivityLog --

// Append records an audit-trail entry.
func (s *Store) Append(ctx context.Context, entry domain.ActivityEntry) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if entry.At.IsZero() {
		entry.At = time.Now()
	}
	s.activity = append(s.activity, entry)
	return nil
}

// Activity returns a copy of the audit trail for an org, oldest first.
func (s *Store) Activity(org int64) []domain.ActivityEntry {
	s.mu.RLock()
	defer s.mu.RUnlock()
	var out []domain.ActivityEntry
	for _, e := range s.activity {
		if e.Org == org {
			out = append(out, e)
		}
	}
	return out
}
