package domain

import (
	"errors"
	"fmt"
)

// ErrUnknownDomain is returned when a transition is asserted against a domain
// that has no registered table.
var ErrUnknownDomain = errors.New("unknown transition domain")

// ErrEdgeExists is returned when a dependency edge is created twice.
var ErrEdgeExists = errors.New("dependency edge already exists")

// ErrEdgeNotFound is returned when removing a dependency edge that does not exist.
var ErrEdgeNotFound = errors.New("dependency edge not found")

// ErrEntityNotFound is returned when no persisted state exists for an entity.
var ErrEntityNotFound = errors.New("entity not found")

// ErrCandidateNotFound is returned when promoting a candidate that does not exist.
var ErrCandidateNotFound = errors.New("candidate not found")

// ErrStaleState is returned when a transition write finds the entity no
// longer in the state the check was performed against. This is a business
// rejection, not a retryable condition.
var ErrStaleState = errors.New("entity state changed concurrently")

// InvalidTransitionError reports a requested state change that is not in the
// allowed edge set for the entity's domain. Always a client error.
type InvalidTransitionError struct {
	Domain Domain
	From   string
	To     string
	Label  string
}

func (e *InvalidTransitionError) Error() string {
	label := e.Label
	if label == "" {
		label = string(e.Domain) + " transition"
	}
	return fmt.Sprintf("%s: cannot move %s from %q to %q", label, e.Domain, e.From, e.To)
}

// PreconditionNotMetError reports a structurally legal transition blocked by
// an unmet gate, such as an incomplete checklist.
type PreconditionNotMetError struct {
	Domain Domain
	To     string
	Gate   string
}

func (e *PreconditionNotMetError) Error() string {
	return fmt.Sprintf("%s: entering %q requires gate %q", e.Domain, e.To, e.Gate)
}

// CycleDetectedError reports a proposed dependency edge that would close a
// cycle in an organization's dependency graph.
type CycleDetectedError struct {
	Org  int64
	From NodeRef
	To   NodeRef
}

func (e *CycleDetectedError) Error() string {
	return fmt.Sprintf("dependency %s -> %s would create a cycle in org %d", e.From, e.To, e.Org)
}
