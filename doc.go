/*
Package stagehand is a transition guard for agency operations entities.

It keeps the full lifecycle rulebook of an agency back office in one
place: which state changes are legal per entity kind, which of them need
a completed checklist first, which dependency edges may be added without
closing a cycle, and how automation events are deduplicated and
throttled. The guard itself is a pure library; persistence, HTTP, and
MCP surfaces live in adapters around it.

# Concept

Every entity kind (pursuit, invoice, contract, time entry, candidate,
document, automation rule) carries a static transition table. A request
to move an entity is checked against the table, then against any
checklist gate on the destination state, and only then written, as a
compare-and-set so two racing requests cannot both win. Whether
re-asserting the current state is an error or an idempotent no-op is a
per-domain policy: webhook-fed domains absorb redelivery, human-driven
ones demand forward motion.

# Usage

The root package exposes the pure check for embedders:

	if err := stagehand.Check(domain.DomainPursuit, "qual", "pink"); err != nil {
		// the move is illegal
	}

The full service, with SQLite storage, Redis dedupe and throttling, and
the REST surface, is wired by the stagehand binary (cmd/stagehand).
*/
package stagehand
