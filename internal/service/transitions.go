package service

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/lcroft/stagehand/internal/metrics"
	"github.com/lcroft/stagehand/pkg/domain"
	"github.com/lcroft/stagehand/pkg/guard"
	"github.com/lcroft/stagehand/pkg/ports"
)

// TransitionResult reports the outcome of an accepted transition request.
type TransitionResult struct {
	Domain domain.Domain `json:"domain"`
	ID     int64         `json:"id"`
	From   string        `json:"from"`
	To     string        `json:"to"`

	// NoOp is true when the entity already held the requested state and the
	// domain allows idempotent re-assertion; nothing was written.
	NoOp bool `json:"no_op,omitempty"`
}

// Transitions validates and applies entity state changes.
type Transitions struct {
	states     ports.StateStore
	checklists ports.ChecklistSource
	activity   ports.ActivityLog
	guard      *guard.Guard
	metrics    *metrics.Metrics
	log        *slog.Logger

	events *Events
}

// NewTransitions creates the transition service with its dependencies.
func NewTransitions(states ports.StateStore, checklists ports.ChecklistSource, activity ports.ActivityLog, g *guard.Guard, m *metrics.Metrics, log *slog.Logger) *Transitions {
	return &Transitions{
		states:     states,
		checklists: checklists,
		activity:   activity,
		guard:      g,
		metrics:    m,
		log:        log,
	}
}

// BindEvents attaches the event service so document releases fan out a
// downstream automation event. Optional; nil disables the fan-out.
func (s *Transitions) BindEvents(ev *Events) {
	s.events = ev
}

// State returns the persisted state of an entity.
func (s *Transitions) State(ctx context.Context, org int64, d domain.Domain, id int64) (string, error) {
	if !d.Known() {
		return "", fmt.Errorf("%w: %q", domain.ErrUnknownDomain, d)
	}
	return s.states.CurrentState(ctx, org, d, id)
}

// Init records the initial state of a new entity.
func (s *Transitions) Init(ctx context.Context, org int64, d domain.Domain, id int64, state string) error {
	if !d.Known() {
		return fmt.Errorf("%w: %q", domain.ErrUnknownDomain, d)
	}
	if !domain.KnownState(d, state) {
		return &domain.InvalidTransitionError{Domain: d, To: state, Label: "initial state"}
	}
	return s.states.InitState(ctx, org, d, id, state)
}

// Transition reads the entity's current state, checks the move against the
// transition table and its checklist gate, then applies it as a
// compare-and-set write. A request that lost a race returns
// domain.ErrStaleState rather than retrying: the caller asked for a move
// from a state the entity no longer holds, which is a business rejection.
func (s *Transitions) Transition(ctx context.Context, org int64, d domain.Domain, id int64, to, actor string) (TransitionResult, error) {
	from, err := s.states.CurrentState(ctx, org, d, id)
	if err != nil {
		return TransitionResult{}, err
	}

	subject := domain.NodeRef{Type: string(d), ID: id}
	req := domain.TransitionRequest{
		Domain: d,
		From:   from,
		To:     to,
		Label:  subject.String(),
	}
	if err := s.guard.Check(ctx, org, req, subject, s.checklists); err != nil {
		s.metrics.Transitions.WithLabelValues(string(d), outcomeFor(err)).Inc()
		return TransitionResult{}, err
	}

	if from == to {
		// Legal per the guard only when the domain allows re-assertion.
		s.metrics.Transitions.WithLabelValues(string(d), "accepted").Inc()
		return TransitionResult{Domain: d, ID: id, From: from, To: to, NoOp: true}, nil
	}

	if err := s.states.Transition(ctx, org, d, id, from, to); err != nil {
		s.metrics.Transitions.WithLabelValues(string(d), outcomeFor(err)).Inc()
		return TransitionResult{}, err
	}

	entry := domain.ActivityEntry{
		Org:     org,
		Actor:   actor,
		Verb:    "transitioned",
		Subject: subject,
		Detail:  fmt.Sprintf("%s -> %s", from, to),
		At:      time.Now(),
	}
	if err := s.activity.Append(ctx, entry); err != nil {
		s.log.Warn("activity append failed", "err", err, "subject", subject.String())
	}

	s.metrics.Transitions.WithLabelValues(string(d), "accepted").Inc()
	s.log.Info("transition applied",
		"org", org, "subject", subject.String(), "from", from, "to", to, "actor", actor)

	if s.events != nil && d == domain.DomainDocument && to == string(domain.DocumentReleased) {
		ev := domain.AutomationEvent{
			Org:       org,
			DedupeKey: "document.released:" + subject.String(),
			Kind:      EventDocumentReleased,
			Payload:   map[string]any{"document_id": id, "actor": actor},
		}
		if _, err := s.events.Ingest(ctx, ev); err != nil {
			s.log.Warn("release event ingest failed", "err", err, "subject", subject.String())
		}
	}
	return TransitionResult{Domain: d, ID: id, From: from, To: to}, nil
}

// outcomeFor maps a rejection to its metrics label.
func outcomeFor(err error) string {
	var gated *domain.PreconditionNotMetError
	switch {
	case errors.As(err, &gated):
		return "gated"
	case errors.Is(err, domain.ErrStaleState):
		return "stale"
	default:
		return "rejected"
	}
}
