package sqlite_test

import (
	"context"
	"path/filepath"
	"testing"

	"github.com/lcroft/stagehand/internal/storage/sqlite"
	"github.com/lcroft/stagehand/pkg/domain"
	"github.com/lcroft/stagehand/pkg/ports/tests"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestStore(t *testing.T) *sqlite.Store {
	t.Helper()
	store, err := sqlite.Open(filepath.Join(t.TempDir(), "stagehand.db"))
	require.NoError(t, err)
	t.Cleanup(func() { _ = store.Close() })
	return store
}

func TestSQLiteStore_StateContract(t *testing.T) {
	tests.StateStoreContract(t, newTestStore(t))
}

func TestSQLiteStore_EdgeContract(t *testing.T) {
	tests.EdgeStoreContract(t, newTestStore(t))
}

func TestSQLiteStore_EventContract(t *testing.T) {
	tests.EventStoreContract(t, newTestStore(t))
}

func TestSQLiteStore_ThrottleContract(t *testing.T) {
	tests.ThrottleStoreContract(t, newTestStore(t))
}

func TestSQLiteStore_OpenRequiresPath(t *testing.T) {
	_, err := sqlite.Open("  ")
	assert.Error(t, err)
}

func TestSQLiteStore_MigrationsIdempotent(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "stagehand.db")

	store, err := sqlite.Open(path)
	require.NoError(t, err)
	require.NoError(t, store.InitState(context.Background(), 1, domain.DomainInvoice, 1, "draft"))
	require.NoError(t, store.Close())

	// Reopening applies nothing twice and keeps existing rows.
	store, err = sqlite.Open(path)
	require.NoError(t, err)
	defer store.Close()
	state, err := store.CurrentState(context.Background(), 1, domain.DomainInvoice, 1)
	require.NoError(t, err)
	assert.Equal(t, "draft", state)
}

func TestSQLiteStore_ChecklistRoundTrip(t *testing.T) {
	store := newTestStore(t)
	ctx := context.Background()
	subject := domain.NodeRef{Type: "pursuit", ID: 5}

	items, err := store.Items(ctx, 7, subject, domain.ChecklistPink)
	require.NoError(t, err)
	assert.Empty(t, items)

	require.NoError(t, store.AddChecklistItem(ctx, 7, subject, domain.ChecklistItem{Kind: domain.ChecklistPink, Name: "scope reviewed"}))
	require.NoError(t, store.AddChecklistItem(ctx, 7, subject, domain.ChecklistItem{Kind: domain.ChecklistPink, Name: "pricing approved", Done: true}))

	items, err = store.Items(ctx, 7, subject, domain.ChecklistPink)
	require.NoError(t, err)
	require.Len(t, items, 2)
	assert.False(t, domain.ChecklistComplete(items))

	require.NoError(t, store.CompleteChecklistItem(ctx, 7, subject, domain.ChecklistPink, "scope reviewed"))
	items, _ = store.Items(ctx, 7, subject, domain.ChecklistPink)
	assert.True(t, domain.ChecklistComplete(items))

	// Other kinds stay independent.
	items, _ = store.Items(ctx, 7, subject, domain.ChecklistClose)
	assert.Empty(t, items)

	err = store.CompleteChecklistItem(ctx, 7, subject, domain.ChecklistPink, "no such item")
	assert.ErrorIs(t, err, domain.ErrEntityNotFound)
}

func TestSQLiteStore_PromoteIdempotent(t *testing.T) {
	store := newTestStore(t)
	ctx := context.Background()
	require.NoError(t, store.CreateCandidate(ctx, 7, 1, domain.CandidateOpen))

	id1, created, err := store.PromoteCandidate(ctx, 7, 1, "alice")
	require.NoError(t, err)
	assert.True(t, created)
	assert.NotEmpty(t, id1)

	id2, created, err := store.PromoteCandidate(ctx, 7, 1, "alice")
	require.NoError(t, err)
	assert.False(t, created)
	assert.Equal(t, id1, id2)

	entries, err := store.ActivityForOrg(ctx, 7)
	require.NoError(t, err)
	require.Len(t, entries, 2, "exactly one promotion's audit records")
	assert.Equal(t, "candidate.promoted", entries[0].Verb)
	assert.Equal(t, "pursuit.created", entries[1].Verb)
	assert.Equal(t, id1, entries[1].Detail)
}

func TestSQLiteStore_PromoteConcurrent(t *testing.T) {
	store := newTestStore(t)
	ctx := context.Background()
	require.NoError(t, store.CreateCandidate(ctx, 7, 2, domain.CandidateNew))

	type result struct {
		id  string
		err error
	}
	results := make(chan result, 2)
	for i := 0; i < 2; i++ {
		go func() {
			id, _, err := store.PromoteCandidate(ctx, 7, 2, "bot")
			results <- result{id, err}
		}()
	}
	a, b := <-results, <-results
	require.NoError(t, a.err)
	require.NoError(t, b.err)
	assert.Equal(t, a.id, b.id, "racing promotes must converge on one pursuit")
}

func TestSQLiteStore_PromoteRejections(t *testing.T) {
	store := newTestStore(t)
	ctx := context.Background()

	_, _, err := store.PromoteCandidate(ctx, 7, 404, "alice")
	assert.ErrorIs(t, err, domain.ErrCandidateNotFound)

	_, err = store.PursuitForCandidate(ctx, 7, 404)
	assert.ErrorIs(t, err, domain.ErrCandidateNotFound)
}

func TestSQLiteStore_TransitionSelfNoOpWrite(t *testing.T) {
	store := newTestStore(t)
	ctx := context.Background()
	require.NoError(t, store.InitState(ctx, 1, domain.DomainInvoice, 5, "sent"))

	// Re-asserting the held state succeeds and leaves it unchanged.
	require.NoError(t, store.Transition(ctx, 1, domain.DomainInvoice, 5, "sent", "sent"))
	state, _ := store.CurrentState(ctx, 1, domain.DomainInvoice, 5)
	assert.Equal(t, "sent", state)
}
