package service

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/lcroft/stagehand/internal/metrics"
	"github.com/lcroft/stagehand/pkg/ports"
)

// PromotionResult reports the outcome of a promotion request.
type PromotionResult struct {
	PursuitID string `json:"pursuit_id"`

	// Created is false when the pursuit already existed and the call was
	// absorbed as an idempotent repeat.
	Created bool `json:"created"`
}

// Promotions converts qualified candidates into pursuits, at most once per
// candidate.
type Promotions struct {
	store   ports.PromotionStore
	locker  ports.DistributedLocker
	metrics *metrics.Metrics
	log     *slog.Logger
}

// NewPromotions creates the promotion service. The locker is optional: the
// store's uniqueness constraint already makes concurrent promotes safe, the
// lock only serializes them so replicas do not burn inserts on a known loss.
func NewPromotions(store ports.PromotionStore, locker ports.DistributedLocker, m *metrics.Metrics, log *slog.Logger) *Promotions {
	return &Promotions{store: store, locker: locker, metrics: m, log: log}
}

// Promote creates the pursuit for a candidate, or returns the existing one.
// Calling it again for an already-promoted candidate is a success that
// reports the surviving pursuit id.
func (s *Promotions) Promote(ctx context.Context, org, candidateID int64, actor string) (PromotionResult, error) {
	if s.locker != nil {
		key := fmt.Sprintf("promote:%d:%d", org, candidateID)
		unlock, err := s.locker.Lock(ctx, key, 10*time.Second)
		if err != nil {
			return PromotionResult{}, fmt.Errorf("acquire promote lock: %w", err)
		}
		defer func() {
			if err := unlock(context.WithoutCancel(ctx)); err != nil {
				s.log.Warn("promote unlock failed", "err", err, "key", key)
			}
		}()
	}

	pursuitID, created, err := s.store.PromoteCandidate(ctx, org, candidateID, actor)
	if err != nil {
		s.metrics.Promotions.WithLabelValues("rejected").Inc()
		return PromotionResult{}, err
	}

	outcome := "existing"
	if created {
		outcome = "created"
		s.log.Info("candidate promoted",
			"org", org, "candidate", candidateID, "pursuit", pursuitID, "actor", actor)
	}
	s.metrics.Promotions.WithLabelValues(outcome).Inc()
	return PromotionResult{PursuitID: pursuitID, Created: created}, nil
}

// PursuitFor returns the pursuit already created for a candidate, or ""
// when the candidate has not been promoted yet.
func (s *Promotions) PursuitFor(ctx context.Context, org, candidateID int64) (string, error) {
	return s.store.PursuitForCandidate(ctx, org, candidateID)
}
