package service

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/lcroft/stagehand/internal/config"
	"github.com/lcroft/stagehand/internal/logging"
	"github.com/lcroft/stagehand/internal/metrics"
	"github.com/lcroft/stagehand/pkg/adapters/memory"
	"github.com/lcroft/stagehand/pkg/domain"
	"github.com/lcroft/stagehand/pkg/guard"
)

func newTransitionFixture(t *testing.T) (*Transitions, *memory.Store) {
	t.Helper()
	store := memory.NewStore()
	svc := NewTransitions(store, store, store, guard.New(), metrics.NewNop(), logging.NewNop())
	return svc, store
}

func TestTransitionHappyPath(t *testing.T) {
	svc, store := newTransitionFixture(t)
	ctx := context.Background()

	require.NoError(t, svc.Init(ctx, 1, domain.DomainPursuit, 7, string(domain.PursuitQual)))

	res, err := svc.Transition(ctx, 1, domain.DomainPursuit, 7, string(domain.PursuitPink), "alex")
	require.NoError(t, err)
	assert.Equal(t, string(domain.PursuitQual), res.From)
	assert.Equal(t, string(domain.PursuitPink), res.To)
	assert.False(t, res.NoOp)

	state, err := svc.State(ctx, 1, domain.DomainPursuit, 7)
	require.NoError(t, err)
	assert.Equal(t, string(domain.PursuitPink), state)

	entries := store.Activity(1)
	require.Len(t, entries, 1)
	assert.Equal(t, "transitioned", entries[0].Verb)
	assert.Equal(t, "alex", entries[0].Actor)
	assert.Equal(t, "qual -> pink", entries[0].Detail)
}

func TestTransitionIllegalEdgeRejected(t *testing.T) {
	svc, _ := newTransitionFixture(t)
	ctx := context.Background()

	require.NoError(t, svc.Init(ctx, 1, domain.DomainPursuit, 7, string(domain.PursuitQual)))

	_, err := svc.Transition(ctx, 1, domain.DomainPursuit, 7, string(domain.PursuitWon), "alex")
	var invalid *domain.InvalidTransitionError
	require.ErrorAs(t, err, &invalid)
	assert.Equal(t, "qual", invalid.From)
	assert.Equal(t, "won", invalid.To)

	// The rejection must not have moved the entity.
	state, err := svc.State(ctx, 1, domain.DomainPursuit, 7)
	require.NoError(t, err)
	assert.Equal(t, string(domain.PursuitQual), state)
}

func TestTransitionGateBlocksUntilChecklistDone(t *testing.T) {
	svc, store := newTransitionFixture(t)
	ctx := context.Background()
	subject := domain.NodeRef{Type: "pursuit", ID: 7}

	require.NoError(t, svc.Init(ctx, 1, domain.DomainPursuit, 7, string(domain.PursuitRed)))

	_, err := svc.Transition(ctx, 1, domain.DomainPursuit, 7, string(domain.PursuitSubmit), "alex")
	var gated *domain.PreconditionNotMetError
	require.ErrorAs(t, err, &gated)
	assert.Equal(t, "pink", gated.Gate)

	store.SetChecklist(1, subject, domain.ChecklistPink, []domain.ChecklistItem{
		{Kind: domain.ChecklistPink, Name: "pricing reviewed", Done: true},
		{Kind: domain.ChecklistPink, Name: "legal signoff", Done: true},
	})

	_, err = svc.Transition(ctx, 1, domain.DomainPursuit, 7, string(domain.PursuitSubmit), "alex")
	require.NoError(t, err)
}

func TestTransitionSelfNoOp(t *testing.T) {
	svc, store := newTransitionFixture(t)
	ctx := context.Background()

	require.NoError(t, svc.Init(ctx, 1, domain.DomainInvoice, 3, string(domain.InvoiceSent)))

	res, err := svc.Transition(ctx, 1, domain.DomainInvoice, 3, string(domain.InvoiceSent), "alex")
	require.NoError(t, err)
	assert.True(t, res.NoOp)
	assert.Empty(t, store.Activity(1), "a no-op must not be audited")

	// Strict domains reject re-assertion.
	require.NoError(t, svc.Init(ctx, 1, domain.DomainPursuit, 7, string(domain.PursuitQual)))
	_, err = svc.Transition(ctx, 1, domain.DomainPursuit, 7, string(domain.PursuitQual), "alex")
	var invalid *domain.InvalidTransitionError
	require.ErrorAs(t, err, &invalid)
}

func TestTransitionMissingEntity(t *testing.T) {
	svc, _ := newTransitionFixture(t)

	_, err := svc.Transition(context.Background(), 1, domain.DomainPursuit, 99, string(domain.PursuitPink), "alex")
	assert.True(t, errors.Is(err, domain.ErrEntityNotFound))
}

func TestInitRejectsUnknownState(t *testing.T) {
	svc, _ := newTransitionFixture(t)

	err := svc.Init(context.Background(), 1, domain.DomainPursuit, 7, "bogus")
	var invalid *domain.InvalidTransitionError
	require.ErrorAs(t, err, &invalid)

	err = svc.Init(context.Background(), 1, domain.Domain("widget"), 7, "qual")
	assert.True(t, errors.Is(err, domain.ErrUnknownDomain))
}

func TestDocumentReleaseEmitsDownstreamEvent(t *testing.T) {
	store := memory.NewStore()
	log := logging.NewNop()
	m := metrics.NewNop()
	svc := NewTransitions(store, store, store, guard.New(), m, log)
	svc.BindEvents(NewEvents(store, store, config.ThrottleLimits{}, m, log))
	ctx := context.Background()

	require.NoError(t, svc.Init(ctx, 1, domain.DomainDocument, 12, string(domain.DocumentApproved)))

	_, err := svc.Transition(ctx, 1, domain.DomainDocument, 12, string(domain.DocumentReleased), "alex")
	require.NoError(t, err)

	seen, err := store.Seen(ctx, 1, "document.released:document/12")
	require.NoError(t, err)
	assert.True(t, seen)

	// Documents allow re-assertion; the repeat is a no-op and must not
	// re-emit the release event.
	res, err := svc.Transition(ctx, 1, domain.DomainDocument, 12, string(domain.DocumentReleased), "alex")
	require.NoError(t, err)
	assert.True(t, res.NoOp)
}
