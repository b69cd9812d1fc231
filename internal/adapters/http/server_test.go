package http

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/lcroft/stagehand/internal/config"
	"github.com/lcroft/stagehand/internal/logging"
	"github.com/lcroft/stagehand/internal/metrics"
	"github.com/lcroft/stagehand/internal/service"
	"github.com/lcroft/stagehand/pkg/adapters/memory"
	"github.com/lcroft/stagehand/pkg/domain"
	"github.com/lcroft/stagehand/pkg/guard"
)

func newTestServer(t *testing.T) (*httptest.Server, *memory.Store) {
	t.Helper()
	store := memory.NewStore()
	log := logging.NewNop()
	reg := prometheus.NewRegistry()
	m := metrics.New(reg)

	transitions := service.NewTransitions(store, store, store, guard.New(), m, log)
	events := service.NewEvents(store, store, config.ThrottleLimits{PerHour: 5}, m, log)
	transitions.BindEvents(events)

	handler := NewHandler(Options{
		Transitions:  transitions,
		Dependencies: service.NewDependencies(store, store, m, log),
		Events:       events,
		Promotions:   service.NewPromotions(store, nil, m, log),
		Gatherer:     reg,
		Log:          log,
	})
	srv := httptest.NewServer(handler)
	t.Cleanup(srv.Close)
	return srv, store
}

func doJSON(t *testing.T, method, url string, body any) (*http.Response, map[string]any) {
	t.Helper()
	var buf bytes.Buffer
	if body != nil {
		require.NoError(t, json.NewEncoder(&buf).Encode(body))
	}
	req, err := http.NewRequest(method, url, &buf)
	require.NoError(t, err)
	req.Header.Set("Content-Type", "application/json")

	resp, err := http.DefaultClient.Do(req)
	require.NoError(t, err)
	t.Cleanup(func() { resp.Body.Close() })

	var decoded map[string]any
	if resp.StatusCode != http.StatusNoContent {
		require.NoError(t, json.NewDecoder(resp.Body).Decode(&decoded))
	}
	return resp, decoded
}

func TestStateLifecycleOverHTTP(t *testing.T) {
	srv, _ := newTestServer(t)

	resp, _ := doJSON(t, http.MethodPut, srv.URL+"/orgs/1/pursuit/7/state", map[string]any{"state": "qual"})
	require.Equal(t, http.StatusOK, resp.StatusCode)

	resp, body := doJSON(t, http.MethodGet, srv.URL+"/orgs/1/pursuit/7/state", nil)
	require.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Equal(t, "qual", body["state"])

	resp, body = doJSON(t, http.MethodPatch, srv.URL+"/orgs/1/pursuit/7/state",
		map[string]any{"to": "pink", "actor": "alex"})
	require.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Equal(t, "qual", body["from"])
	assert.Equal(t, "pink", body["to"])
}

func TestTransitionRejectionsOverHTTP(t *testing.T) {
	srv, store := newTestServer(t)

	resp, _ := doJSON(t, http.MethodPut, srv.URL+"/orgs/1/pursuit/7/state", map[string]any{"state": "red"})
	require.Equal(t, http.StatusOK, resp.StatusCode)

	// Illegal edge.
	resp, body := doJSON(t, http.MethodPatch, srv.URL+"/orgs/1/pursuit/7/state", map[string]any{"to": "won"})
	assert.Equal(t, http.StatusBadRequest, resp.StatusCode)
	assert.Equal(t, "red", body["from"])
	assert.Equal(t, "won", body["to"])

	// Gate not satisfied.
	resp, body = doJSON(t, http.MethodPatch, srv.URL+"/orgs/1/pursuit/7/state", map[string]any{"to": "submit"})
	assert.Equal(t, http.StatusBadRequest, resp.StatusCode)
	assert.Equal(t, "pink", body["gate"])

	store.SetChecklist(1, domain.NodeRef{Type: "pursuit", ID: 7}, domain.ChecklistPink,
		[]domain.ChecklistItem{{Kind: domain.ChecklistPink, Name: "pricing", Done: true}})
	resp, _ = doJSON(t, http.MethodPatch, srv.URL+"/orgs/1/pursuit/7/state", map[string]any{"to": "submit"})
	assert.Equal(t, http.StatusOK, resp.StatusCode)

	// Unknown domain and missing entity.
	resp, _ = doJSON(t, http.MethodGet, srv.URL+"/orgs/1/widget/7/state", nil)
	assert.Equal(t, http.StatusNotFound, resp.StatusCode)
	resp, _ = doJSON(t, http.MethodGet, srv.URL+"/orgs/1/pursuit/99/state", nil)
	assert.Equal(t, http.StatusNotFound, resp.StatusCode)
}

func TestDependencyEndpoints(t *testing.T) {
	srv, _ := newTestServer(t)
	base := srv.URL + "/orgs/1/dependencies"

	add := func(fromID, toID int64) (*http.Response, map[string]any) {
		return doJSON(t, http.MethodPost, base, map[string]any{
			"from":     map[string]any{"type": "task", "id": fromID},
			"to":       map[string]any{"type": "task", "id": toID},
			"relation": "blocks",
		})
	}

	resp, _ := add(1, 2)
	require.Equal(t, http.StatusCreated, resp.StatusCode)
	resp, _ = add(2, 3)
	require.Equal(t, http.StatusCreated, resp.StatusCode)

	resp, body := add(3, 1)
	assert.Equal(t, http.StatusBadRequest, resp.StatusCode)
	assert.Contains(t, body["error"], "cycle")

	resp, body = doJSON(t, http.MethodGet, base, nil)
	require.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Len(t, body["edges"], 2)

	resp, body = doJSON(t, http.MethodGet, base+"/cycles", nil)
	require.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Empty(t, body["cycles"])

	resp, _ = doJSON(t, http.MethodDelete, base+"?from=task/1&to=task/2", nil)
	assert.Equal(t, http.StatusNoContent, resp.StatusCode)
	resp, _ = doJSON(t, http.MethodDelete, base+"?from=task/1&to=task/2", nil)
	assert.Equal(t, http.StatusNotFound, resp.StatusCode)
}

func TestEventIngestionEndpoint(t *testing.T) {
	srv, _ := newTestServer(t)
	url := srv.URL + "/orgs/1/automation/events"

	ev := map[string]any{"rule_id": 10, "dedupe_key": "k-1", "kind": "invoice.sent"}

	resp, body := doJSON(t, http.MethodPost, url, ev)
	require.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Equal(t, true, body["accepted"])

	resp, body = doJSON(t, http.MethodPost, url, ev)
	require.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Equal(t, true, body["duplicate"])

	// Hourly limit is 5; the first acceptance already counted one firing.
	for i := 2; i <= 5; i++ {
		resp, _ = doJSON(t, http.MethodPost, url, map[string]any{
			"rule_id": 10, "dedupe_key": fmt.Sprintf("k-%d", i),
		})
		require.Equal(t, http.StatusOK, resp.StatusCode)
	}
	resp, body = doJSON(t, http.MethodPost, url, map[string]any{
		"rule_id": 10, "dedupe_key": "k-over",
	})
	assert.Equal(t, http.StatusTooManyRequests, resp.StatusCode)
	assert.Equal(t, true, body["throttled"])
	assert.Equal(t, "hour", body["window"])
}

func TestPromoteEndpoint(t *testing.T) {
	srv, store := newTestServer(t)
	store.SeedCandidate(1, 42, domain.CandidateOpen)
	url := srv.URL + "/orgs/1/candidates/42/promote"

	resp, body := doJSON(t, http.MethodPost, url, map[string]any{"actor": "alex"})
	require.Equal(t, http.StatusCreated, resp.StatusCode)
	assert.Equal(t, true, body["created"])
	pursuitID := body["pursuit_id"]
	require.NotEmpty(t, pursuitID)

	resp, body = doJSON(t, http.MethodPost, url, map[string]any{"actor": "alex"})
	require.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Equal(t, false, body["created"])
	assert.Equal(t, pursuitID, body["pursuit_id"])

	resp, _ = doJSON(t, http.MethodPost, srv.URL+"/orgs/1/candidates/99/promote", nil)
	assert.Equal(t, http.StatusNotFound, resp.StatusCode)
}

func TestOperationalEndpoints(t *testing.T) {
	srv, _ := newTestServer(t)

	resp, err := http.Get(srv.URL + "/healthz")
	require.NoError(t, err)
	defer resp.Body.Close()
	assert.Equal(t, http.StatusOK, resp.StatusCode)

	resp, err = http.Get(srv.URL + "/metrics")
	require.NoError(t, err)
	defer resp.Body.Close()
	assert.Equal(t, http.StatusOK, resp.StatusCode)

	resp, err = http.Get(srv.URL + "/openapi.yaml")
	require.NoError(t, err)
	defer resp.Body.Close()
	assert.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Equal(t, "text/yaml", resp.Header.Get("Content-Type"))
}

func TestEmbeddedSpecIsValid(t *testing.T) {
	require.NoError(t, ValidateSpec(context.Background()))
}
