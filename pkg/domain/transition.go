package domain

import "fmt"

// TransitionRequest describes one requested state change. It is constructed
// per call and never persisted.
type TransitionRequest struct {
	Domain Domain
	From   string
	To     string

	// Label is the human-readable subject used in rejection messages,
	// e.g. "pursuit transition" or "invoice INV-1042".
	Label string
}

// Assert checks whether moving from one state to another is legal under the
// domain's static transition table. It is purely a predicate: it never
// mutates anything, and callers persist only after a nil return.
//
// A from == to request follows the domain's self-transition policy: a no-op
// success where the domain allows idempotent re-assertion, a rejection where
// it requires strict forward motion.
func Assert(d Domain, from, to, label string) error {
	t, ok := tables[d]
	if !ok {
		return fmt.Errorf("%w: %q", ErrUnknownDomain, d)
	}
	if from == "" || to == "" {
		return &InvalidTransitionError{Domain: d, From: from, To: to, Label: label}
	}
	if from == to {
		if t.selfNoOp && KnownState(d, from) {
			return nil
		}
		return &InvalidTransitionError{Domain: d, From: from, To: to, Label: label}
	}
	set, ok := t.edges[from]
	if !ok {
		return &InvalidTransitionError{Domain: d, From: from, To: to, Label: label}
	}
	if _, ok := set[to]; !ok {
		return &InvalidTransitionError{Domain: d, From: from, To: to, Label: label}
	}
	return nil
}

// AssertRequest is Assert over a TransitionRequest value.
func AssertRequest(req TransitionRequest) error {
	return Assert(req.Domain, req.From, req.To, req.Label)
}
