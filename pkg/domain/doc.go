/*
Package domain contains the core lifecycle models for Stagehand.

It defines the entity domains (pursuit, invoice, contract, ...), their closed
state sets, the static transition tables between those states, and the typed
errors raised when a requested change is rejected. This package is kept pure
and free of external dependencies like I/O or persistence, following
Hexagonal Architecture principles: callers fetch current state, ask this
package whether a change is legal, and only then persist.

# Key Entities

  - Domain: A named entity kind with its own independent state set.
  - TransitionRequest: One requested state change, checked by Assert.
  - DependencyEdge: A directed depends-on link between two work items.
  - ChecklistItem: A review item gating certain transitions.
  - AutomationEvent: An inbound automation trigger carrying a dedupe key.
*/
package domain
