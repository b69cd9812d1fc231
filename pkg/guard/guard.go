// Package guard combines the structural transition tables with the
// checklist gates that certain transitions require on top of table
// legality. Like the tables themselves, the checks never mutate state;
// callers persist only after a nil return.
package guard

import (
	"context"

	"github.com/lcroft/stagehand/pkg/domain"
	"github.com/lcroft/stagehand/pkg/ports"
)

// Guard checks transition requests against the static tables plus the
// per-destination checklist gates. The zero value is not usable; construct
// with New.
type Guard struct {
	gates map[domain.Domain]map[string]domain.ChecklistKind
}

// New returns a Guard with the standard gate table: entering submit requires
// the pink checklist, entering won or lost requires the close checklist.
func New() *Guard {
	return &Guard{
		gates: map[domain.Domain]map[string]domain.ChecklistKind{
			domain.DomainPursuit: {
				string(domain.PursuitSubmit): domain.ChecklistPink,
				string(domain.PursuitWon):    domain.ChecklistClose,
				string(domain.PursuitLost):   domain.ChecklistClose,
			},
		},
	}
}

// Gate returns the checklist kind required to enter a state, if any.
func (g *Guard) Gate(d domain.Domain, to string) (domain.ChecklistKind, bool) {
	kind, ok := g.gates[d][to]
	return kind, ok
}

// Check validates a transition request: the structural table check first,
// then the checklist gate for the destination, fetching the checklist rows
// from the supplied source. Gate failures return *PreconditionNotMetError.
func (g *Guard) Check(ctx context.Context, org int64, req domain.TransitionRequest, subject domain.NodeRef, src ports.ChecklistSource) error {
	if err := domain.AssertRequest(req); err != nil {
		return err
	}
	if req.From == req.To {
		// Self no-op: the entity already holds the state, gates were
		// satisfied when it first entered it.
		return nil
	}
	kind, ok := g.Gate(req.Domain, req.To)
	if !ok {
		return nil
	}
	items, err := src.Items(ctx, org, subject, kind)
	if err != nil {
		return err
	}
	if !domain.ChecklistComplete(items) {
		return &domain.PreconditionNotMetError{Domain: req.Domain, To: req.To, Gate: string(kind)}
	}
	return nil
}

// CheckFetched is the pure variant of Check for callers that already hold
// the checklist rows for the destination's gate.
func (g *Guard) CheckFetched(req domain.TransitionRequest, items []domain.ChecklistItem) error {
	if err := domain.AssertRequest(req); err != nil {
		return err
	}
	if req.From == req.To {
		return nil
	}
	kind, ok := g.Gate(req.Domain, req.To)
	if !ok {
		return nil
	}
	if !domain.ChecklistComplete(items) {
		return &domain.PreconditionNotMetError{Domain: req.Domain, To: req.To, Gate: string(kind)}
	}
	return nil
}
