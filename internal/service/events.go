package service

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/mitchellh/mapstructure"

	"github.com/lcroft/stagehand/internal/config"
	"github.com/lcroft/stagehand/internal/metrics"
	"github.com/lcroft/stagehand/pkg/domain"
	"github.com/lcroft/stagehand/pkg/ports"
)

// Event kinds the ingestion endpoint understands. Unknown kinds are stored
// and counted but carry no typed payload.
const (
	EventStateChanged     = "state.changed"
	EventDocumentReleased = "document.released"
)

// StateChangedParams is the typed payload of a state.changed event.
type StateChangedParams struct {
	Domain   string `mapstructure:"domain"`
	EntityID int64  `mapstructure:"entity_id"`
	From     string `mapstructure:"from"`
	To       string `mapstructure:"to"`
}

// DocumentReleasedParams is the typed payload of a document.released event.
type DocumentReleasedParams struct {
	DocumentID int64  `mapstructure:"document_id"`
	Actor      string `mapstructure:"actor"`
}

// EventResult reports how an inbound automation event was handled.
type EventResult struct {
	Accepted  bool `json:"accepted"`
	Duplicate bool `json:"duplicate,omitempty"`
	Throttled bool `json:"throttled,omitempty"`

	// Window names the sliding window that suppressed a throttled event.
	Window domain.ThrottleWindow `json:"window,omitempty"`
}

// Events ingests automation events with dedupe and per-rule throttling.
type Events struct {
	store    ports.EventStore
	throttle ports.ThrottleStore
	limits   config.ThrottleLimits
	metrics  *metrics.Metrics
	log      *slog.Logger
}

// NewEvents creates the event service with its dependencies.
func NewEvents(store ports.EventStore, throttle ports.ThrottleStore, limits config.ThrottleLimits, m *metrics.Metrics, log *slog.Logger) *Events {
	return &Events{store: store, throttle: throttle, limits: limits, metrics: m, log: log}
}

// Ingest records one automation event. A dedupe-key repeat is a no-op
// success with Duplicate set, never an error. A rule over one of its
// sliding-window limits gets Throttled set and is not recorded.
func (s *Events) Ingest(ctx context.Context, ev domain.AutomationEvent) (EventResult, error) {
	if ev.DedupeKey == "" {
		return EventResult{}, fmt.Errorf("automation event without dedupe key")
	}
	if ev.OccurredAt.IsZero() {
		ev.OccurredAt = time.Now()
	}
	if err := decodeParams(ev.Kind, ev.Payload); err != nil {
		return EventResult{}, fmt.Errorf("event payload: %w", err)
	}

	for _, w := range []domain.ThrottleWindow{domain.WindowHour, domain.WindowDay} {
		limit := s.limits.Limit(w)
		if limit <= 0 {
			continue
		}
		n, err := s.throttle.CountFirings(ctx, ev.Org, ev.RuleID, ev.OccurredAt.Add(-w.Duration()))
		if err != nil {
			return EventResult{}, fmt.Errorf("count firings: %w", err)
		}
		if n >= limit {
			s.metrics.ThrottledEvents.Inc()
			s.log.Info("event throttled",
				"org", ev.Org, "rule", ev.RuleID, "window", string(w), "count", n, "limit", limit)
			return EventResult{Throttled: true, Window: w}, nil
		}
	}

	accepted, err := s.store.Record(ctx, ev)
	if err != nil {
		return EventResult{}, fmt.Errorf("record event: %w", err)
	}
	if !accepted {
		s.metrics.DuplicateEvents.Inc()
		s.log.Info("duplicate event dropped", "org", ev.Org, "dedupe_key", ev.DedupeKey)
		return EventResult{Duplicate: true}, nil
	}

	if err := s.throttle.RecordFiring(ctx, ev.Org, ev.RuleID, ev.OccurredAt); err != nil {
		// The event itself is already safely recorded.
		s.log.Warn("record firing failed", "err", err, "org", ev.Org, "rule", ev.RuleID)
	}

	s.log.Info("event accepted", "org", ev.Org, "rule", ev.RuleID, "kind", ev.Kind)
	return EventResult{Accepted: true}, nil
}

// Seen reports whether a dedupe key was already recorded for an org.
func (s *Events) Seen(ctx context.Context, org int64, dedupeKey string) (bool, error) {
	return s.store.Seen(ctx, org, dedupeKey)
}

// decodeParams validates a known kind's payload by decoding it into the
// kind's typed params. Unknown fields in the raw map are rejected so typos
// surface at ingestion instead of downstream.
func decodeParams(kind string, payload map[string]any) error {
	var target any
	switch kind {
	case EventStateChanged:
		target = &StateChangedParams{}
	case EventDocumentReleased:
		target = &DocumentReleasedParams{}
	default:
		return nil
	}
	dec, err := mapstructure.NewDecoder(&mapstructure.DecoderConfig{
		Result:      target,
		ErrorUnused: true,
	})
	if err != nil {
		return err
	}
	return dec.Decode(payload)
}
