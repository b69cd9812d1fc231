// Package redis implements the dedupe, throttle, and locking ports on Redis.
// Suitable for multi-replica deployments where the SQLite store's in-process
// guarantees are not enough.
package redis

import (
	"context"
	"fmt"
	"strconv"
	"time"

	"github.com/google/uuid"
	"github.com/lcroft/stagehand/pkg/domain"
	backend "github.com/redis/go-redis/v9"
)

// Store implements ports.EventStore and ports.ThrottleStore using Redis.
type Store struct {
	client    *backend.Client
	prefix    string
	retention time.Duration
}

type Option func(*Store)

// WithRetention sets how long dedupe keys are remembered. Events older than
// the retention window may be accepted again.
func WithRetention(d time.Duration) Option {
	return func(s *Store) {
		s.retention = d
	}
}

// WithPrefix sets the key prefix.
func WithPrefix(prefix string) Option {
	return func(s *Store) {
		s.prefix = prefix
	}
}

// New creates a new Redis store with options.
func New(address, password string, db int, opts ...Option) *Store {
	rdb := backend.NewClient(&backend.Options{
		Addr:     address,
		Password: password,
		DB:       db,
	})
	return NewFromClient(rdb, opts...)
}

// NewFromClient creates a new Redis store from an existing client.
func NewFromClient(client *backend.Client, opts ...Option) *Store {
	store := &Store{
		client:    client,
		prefix:    "stagehand:",
		retention: 7 * 24 * time.Hour,
	}
	for _, opt := range opts {
		opt(store)
	}
	return store
}

func (s *Store) dedupeKey(org int64, key string) string {
	return fmt.Sprintf("%sdedupe:%d:%s", s.prefix, org, key)
}

func (s *Store) throttleKey(org, ruleID int64) string {
	return fmt.Sprintf("%sthrottle:%d:%d", s.prefix, org, ruleID)
}

// Record stores the event's dedupe key with SET NX. A false return means the
// key was already present and the event is a duplicate.
func (s *Store) Record(ctx context.Context, ev domain.AutomationEvent) (bool, error) {
	accepted, err := s.client.SetNX(ctx, s.dedupeKey(ev.Org, ev.DedupeKey), ev.Kind, s.retention).Result()
	if err != nil {
		return false, fmt.Errorf("redis dedupe set: %w", err)
	}
	return accepted, nil
}

// Seen reports whether a dedupe key is currently remembered.
func (s *Store) Seen(ctx context.Context, org int64, dedupeKey string) (bool, error) {
	n, err := s.client.Exists(ctx, s.dedupeKey(org, dedupeKey)).Result()
	if err != nil {
		return false, fmt.Errorf("redis dedupe exists: %w", err)
	}
	return n > 0, nil
}

// RecordFiring appends the firing instant to the rule's ZSET. Scores are
// nanosecond timestamps, so window queries are plain score ranges.
func (s *Store) RecordFiring(ctx context.Context, org, ruleID int64, at time.Time) error {
	key := s.throttleKey(org, ruleID)
	// Random suffix keeps same-instant firings as distinct members.
	member := strconv.FormatInt(at.UnixNano(), 10) + ":" + uuid.NewString()

	pipe := s.client.Pipeline()
	pipe.ZAdd(ctx, key, backend.Z{Score: float64(at.UnixNano()), Member: member})
	// Anything beyond a day never matters again; prune as we go.
	pipe.ZRemRangeByScore(ctx, key, "-inf", strconv.FormatInt(at.Add(-24*time.Hour).UnixNano(), 10))
	pipe.Expire(ctx, key, 48*time.Hour)
	if _, err := pipe.Exec(ctx); err != nil {
		return fmt.Errorf("redis record firing: %w", err)
	}
	return nil
}

// CountFirings counts firings with a score at or after the window start.
func (s *Store) CountFirings(ctx context.Context, org, ruleID int64, since time.Time) (int, error) {
	n, err := s.client.ZCount(ctx, s.throttleKey(org, ruleID),
		strconv.FormatInt(since.UnixNano(), 10), "+inf").Result()
	if err != nil {
		return 0, fmt.Errorf("redis count firings: %w", err)
	}
	return int(n), nil
}
