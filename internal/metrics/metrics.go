// Package metrics exposes the Prometheus instrumentation for Stagehand.
package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Metrics holds the counters the services increment. Construct once per
// process with New and share.
type Metrics struct {
	Transitions     *prometheus.CounterVec
	CycleRejections prometheus.Counter
	DuplicateEvents prometheus.Counter
	ThrottledEvents prometheus.Counter
	Promotions      *prometheus.CounterVec
}

// New registers the Stagehand collectors on the given registerer.
func New(reg prometheus.Registerer) *Metrics {
	factory := promauto.With(reg)
	return &Metrics{
		Transitions: factory.NewCounterVec(prometheus.CounterOpts{
			Name: "stagehand_transitions_total",
			Help: "Transition checks by domain and outcome (accepted, rejected, gated, stale).",
		}, []string{"domain", "outcome"}),
		CycleRejections: factory.NewCounter(prometheus.CounterOpts{
			Name: "stagehand_cycle_rejections_total",
			Help: "Dependency edges rejected because they would close a cycle.",
		}),
		DuplicateEvents: factory.NewCounter(prometheus.CounterOpts{
			Name: "stagehand_duplicate_events_total",
			Help: "Automation events dropped as duplicates of a recorded dedupe key.",
		}),
		ThrottledEvents: factory.NewCounter(prometheus.CounterOpts{
			Name: "stagehand_throttled_events_total",
			Help: "Automation events suppressed by a sliding-window limit.",
		}),
		Promotions: factory.NewCounterVec(prometheus.CounterOpts{
			Name: "stagehand_promotions_total",
			Help: "Candidate promotions by outcome (created, existing, rejected).",
		}, []string{"outcome"}),
	}
}

// NewNop returns metrics backed by a throwaway registry, for tests.
func NewNop() *Metrics {
	return New(prometheus.NewRegistry())
}
