package service

import (
	"context"
	"errors"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/lcroft/stagehand/internal/logging"
	"github.com/lcroft/stagehand/internal/metrics"
	"github.com/lcroft/stagehand/pkg/adapters/memory"
	"github.com/lcroft/stagehand/pkg/domain"
)

func newPromotionFixture(t *testing.T) (*Promotions, *memory.Store) {
	t.Helper()
	store := memory.NewStore()
	return NewPromotions(store, nil, metrics.NewNop(), logging.NewNop()), store
}

func TestPromoteCreatesOnce(t *testing.T) {
	svc, store := newPromotionFixture(t)
	ctx := context.Background()
	store.SeedCandidate(1, 42, domain.CandidateOpen)

	first, err := svc.Promote(ctx, 1, 42, "alex")
	require.NoError(t, err)
	assert.True(t, first.Created)
	assert.NotEmpty(t, first.PursuitID)

	second, err := svc.Promote(ctx, 1, 42, "alex")
	require.NoError(t, err)
	assert.False(t, second.Created)
	assert.Equal(t, first.PursuitID, second.PursuitID)

	id, err := svc.PursuitFor(ctx, 1, 42)
	require.NoError(t, err)
	assert.Equal(t, first.PursuitID, id)
}

func TestPromoteMissingCandidate(t *testing.T) {
	svc, _ := newPromotionFixture(t)

	_, err := svc.Promote(context.Background(), 1, 99, "alex")
	assert.True(t, errors.Is(err, domain.ErrCandidateNotFound))
}

func TestPromoteConcurrentCallersAgree(t *testing.T) {
	svc, store := newPromotionFixture(t)
	store.SeedCandidate(1, 42, domain.CandidateOpen)

	const n = 8
	results := make([]PromotionResult, n)
	var wg sync.WaitGroup
	for i := 0; i < n; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			res, err := svc.Promote(context.Background(), 1, 42, "alex")
			assert.NoError(t, err)
			results[i] = res
		}(i)
	}
	wg.Wait()

	created := 0
	for _, res := range results {
		assert.Equal(t, results[0].PursuitID, res.PursuitID)
		if res.Created {
			created++
		}
	}
	assert.Equal(t, 1, created, "exactly one caller creates the pursuit")
}
