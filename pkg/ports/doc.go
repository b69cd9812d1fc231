/*
Package ports defines the driven ports (interfaces) for the Stagehand core.

These interfaces decouple the lifecycle checks from external implementations,
allowing the services to work with in-memory, SQLite, or Redis backends.

# Key Interfaces

  - StateStore: Persisted entity states with compare-and-set transitions.
  - EdgeStore: An organization's dependency edges.
  - ChecklistSource: Fetched checklist rows for gate evaluation.
  - EventStore / ThrottleStore: Dedupe keys and rule-firing counters.
  - PromotionStore: Idempotent candidate-to-pursuit promotion.
  - DistributedLocker: Optional cross-replica coordination.
*/
package ports
