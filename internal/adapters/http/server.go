// Package http exposes the Stagehand services over a JSON REST surface.
package http

import (
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"
	"strconv"
	"strings"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/lcroft/stagehand/internal/service"
	"github.com/lcroft/stagehand/pkg/domain"
)

// Server holds the services the handlers dispatch to.
type Server struct {
	transitions *service.Transitions
	deps        *service.Dependencies
	events      *service.Events
	promotions  *service.Promotions
	log         *slog.Logger
}

// Options wires the handler's dependencies.
type Options struct {
	Transitions  *service.Transitions
	Dependencies *service.Dependencies
	Events       *service.Events
	Promotions   *service.Promotions

	// Gatherer backs GET /metrics. Nil uses the default registry.
	Gatherer prometheus.Gatherer

	Log *slog.Logger
}

// NewHandler builds the chi router over the services.
func NewHandler(opts Options) http.Handler {
	s := &Server{
		transitions: opts.Transitions,
		deps:        opts.Dependencies,
		events:      opts.Events,
		promotions:  opts.Promotions,
		log:         opts.Log,
	}
	if s.log == nil {
		s.log = slog.Default()
	}
	gatherer := opts.Gatherer
	if gatherer == nil {
		gatherer = prometheus.DefaultGatherer
	}

	r := chi.NewRouter()
	r.Use(middleware.Recoverer)

	r.Get("/healthz", func(w http.ResponseWriter, _ *http.Request) {
		writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
	})
	r.Method(http.MethodGet, "/metrics", promhttp.HandlerFor(gatherer, promhttp.HandlerOpts{}))
	r.Get("/openapi.yaml", func(w http.ResponseWriter, _ *http.Request) {
		w.Header().Set("Content-Type", "text/yaml")
		w.Write(openapiSpec)
	})

	r.Route("/orgs/{org}", func(r chi.Router) {
		r.Get("/{domain}/{id}/state", s.getState)
		r.Put("/{domain}/{id}/state", s.initState)
		r.Patch("/{domain}/{id}/state", s.patchState)

		r.Get("/dependencies", s.listEdges)
		r.Post("/dependencies", s.addEdge)
		r.Delete("/dependencies", s.removeEdge)
		r.Get("/dependencies/cycles", s.scanCycles)

		r.Post("/automation/events", s.ingestEvent)

		r.Post("/candidates/{id}/promote", s.promote)
	})
	return r
}

func (s *Server) getState(w http.ResponseWriter, r *http.Request) {
	org, d, id, ok := s.entityParams(w, r)
	if !ok {
		return
	}
	state, err := s.transitions.State(r.Context(), org, d, id)
	if err != nil {
		s.writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{
		"domain": d,
		"id":     id,
		"state":  state,
	})
}

func (s *Server) initState(w http.ResponseWriter, r *http.Request) {
	org, d, id, ok := s.entityParams(w, r)
	if !ok {
		return
	}
	var body struct {
		State string `json:"state"`
	}
	if err := json.NewDecoder(r.Body).Decode(&body); err != nil {
		s.badRequest(w, "invalid request body")
		return
	}
	if err := s.transitions.Init(r.Context(), org, d, id, body.State); err != nil {
		s.writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{
		"domain": d,
		"id":     id,
		"state":  body.State,
	})
}

func (s *Server) patchState(w http.ResponseWriter, r *http.Request) {
	org, d, id, ok := s.entityParams(w, r)
	if !ok {
		return
	}
	var body struct {
		To    string `json:"to"`
		Actor string `json:"actor"`
	}
	if err := json.NewDecoder(r.Body).Decode(&body); err != nil {
		s.badRequest(w, "invalid request body")
		return
	}
	res, err := s.transitions.Transition(r.Context(), org, d, id, body.To, body.Actor)
	if err != nil {
		s.writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, res)
}

func (s *Server) listEdges(w http.ResponseWriter, r *http.Request) {
	org, ok := s.orgParam(w, r)
	if !ok {
		return
	}
	edges, err := s.deps.List(r.Context(), org)
	if err != nil {
		s.writeError(w, err)
		return
	}
	if edges == nil {
		edges = []domain.DependencyEdge{}
	}
	writeJSON(w, http.StatusOK, map[string]any{"edges": edges})
}

func (s *Server) addEdge(w http.ResponseWriter, r *http.Request) {
	org, ok := s.orgParam(w, r)
	if !ok {
		return
	}
	var body struct {
		From     domain.NodeRef      `json:"from"`
		To       domain.NodeRef      `json:"to"`
		Relation domain.RelationKind `json:"relation"`
		LagDays  int                 `json:"lag_days"`
		Actor    string              `json:"actor"`
	}
	if err := json.NewDecoder(r.Body).Decode(&body); err != nil {
		s.badRequest(w, "invalid request body")
		return
	}
	edge := domain.DependencyEdge{
		Org:      org,
		From:     body.From,
		To:       body.To,
		Relation: body.Relation,
		LagDays:  body.LagDays,
	}
	if err := s.deps.Add(r.Context(), edge, body.Actor); err != nil {
		s.writeError(w, err)
		return
	}
	writeJSON(w, http.StatusCreated, edge)
}

func (s *Server) removeEdge(w http.ResponseWriter, r *http.Request) {
	org, ok := s.orgParam(w, r)
	if !ok {
		return
	}
	from, err := parseNodeRef(r.URL.Query().Get("from"))
	if err != nil {
		s.badRequest(w, "invalid from node")
		return
	}
	to, err := parseNodeRef(r.URL.Query().Get("to"))
	if err != nil {
		s.badRequest(w, "invalid to node")
		return
	}
	if err := s.deps.Remove(r.Context(), org, from, to, r.URL.Query().Get("actor")); err != nil {
		s.writeError(w, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func (s *Server) scanCycles(w http.ResponseWriter, r *http.Request) {
	org, ok := s.orgParam(w, r)
	if !ok {
		return
	}
	cycles, err := s.deps.Cycles(r.Context(), org)
	if err != nil {
		s.writeError(w, err)
		return
	}
	if cycles == nil {
		cycles = [][]domain.NodeRef{}
	}
	writeJSON(w, http.StatusOK, map[string]any{"cycles": cycles})
}

func (s *Server) ingestEvent(w http.ResponseWriter, r *http.Request) {
	org, ok := s.orgParam(w, r)
	if !ok {
		return
	}
	var ev domain.AutomationEvent
	if err := json.NewDecoder(r.Body).Decode(&ev); err != nil {
		s.badRequest(w, "invalid request body")
		return
	}
	ev.Org = org
	res, err := s.events.Ingest(r.Context(), ev)
	if err != nil {
		s.writeError(w, err)
		return
	}
	status := http.StatusOK
	if res.Throttled {
		status = http.StatusTooManyRequests
	}
	writeJSON(w, status, res)
}

func (s *Server) promote(w http.ResponseWriter, r *http.Request) {
	org, ok := s.orgParam(w, r)
	if !ok {
		return
	}
	candidateID, err := strconv.ParseInt(chi.URLParam(r, "id"), 10, 64)
	if err != nil {
		s.badRequest(w, "invalid candidate id")
		return
	}
	var body struct {
		Actor string `json:"actor"`
	}
	if r.ContentLength > 0 {
		if err := json.NewDecoder(r.Body).Decode(&body); err != nil {
			s.badRequest(w, "invalid request body")
			return
		}
	}
	res, err := s.promotions.Promote(r.Context(), org, candidateID, body.Actor)
	if err != nil {
		s.writeError(w, err)
		return
	}
	status := http.StatusOK
	if res.Created {
		status = http.StatusCreated
	}
	writeJSON(w, status, res)
}

// -- Helpers --

func (s *Server) orgParam(w http.ResponseWriter, r *http.Request) (int64, bool) {
	org, err := strconv.ParseInt(chi.URLParam(r, "org"), 10, 64)
	if err != nil || org <= 0 {
		s.badRequest(w, "invalid org id")
		return 0, false
	}
	return org, true
}

func (s *Server) entityParams(w http.ResponseWriter, r *http.Request) (int64, domain.Domain, int64, bool) {
	org, ok := s.orgParam(w, r)
	if !ok {
		return 0, "", 0, false
	}
	d := domain.Domain(chi.URLParam(r, "domain"))
	if !d.Known() {
		writeJSON(w, http.StatusNotFound, errorBody{Error: "unknown domain", Domain: string(d)})
		return 0, "", 0, false
	}
	id, err := strconv.ParseInt(chi.URLParam(r, "id"), 10, 64)
	if err != nil {
		s.badRequest(w, "invalid entity id")
		return 0, "", 0, false
	}
	return org, d, id, true
}

func parseNodeRef(raw string) (domain.NodeRef, error) {
	typ, idStr, ok := strings.Cut(raw, "/")
	if !ok || typ == "" {
		return domain.NodeRef{}, errors.New("node ref must be type/id")
	}
	id, err := strconv.ParseInt(idStr, 10, 64)
	if err != nil {
		return domain.NodeRef{}, err
	}
	return domain.NodeRef{Type: typ, ID: id}, nil
}

type errorBody struct {
	Error  string `json:"error"`
	Domain string `json:"domain,omitempty"`
	From   string `json:"from,omitempty"`
	To     string `json:"to,omitempty"`
	Gate   string `json:"gate,omitempty"`
}

func (s *Server) badRequest(w http.ResponseWriter, msg string) {
	writeJSON(w, http.StatusBadRequest, errorBody{Error: msg})
}

// writeError maps the service error taxonomy onto HTTP statuses: structural
// and gate rejections are 400, lost compare-and-set races 409, missing
// entities 404, everything else 500.
func (s *Server) writeError(w http.ResponseWriter, err error) {
	var (
		invalid *domain.InvalidTransitionError
		gated   *domain.PreconditionNotMetError
		cycle   *domain.CycleDetectedError
	)
	switch {
	case errors.As(err, &invalid):
		writeJSON(w, http.StatusBadRequest, errorBody{
			Error:  err.Error(),
			Domain: string(invalid.Domain),
			From:   invalid.From,
			To:     invalid.To,
		})
	case errors.As(err, &gated):
		writeJSON(w, http.StatusBadRequest, errorBody{
			Error:  err.Error(),
			Domain: string(gated.Domain),
			To:     gated.To,
			Gate:   gated.Gate,
		})
	case errors.As(err, &cycle):
		writeJSON(w, http.StatusBadRequest, errorBody{
			Error: err.Error(),
			From:  cycle.From.String(),
			To:    cycle.To.String(),
		})
	case errors.Is(err, domain.ErrUnknownDomain), errors.Is(err, domain.ErrEdgeExists):
		writeJSON(w, http.StatusBadRequest, errorBody{Error: err.Error()})
	case errors.Is(err, domain.ErrStaleState):
		writeJSON(w, http.StatusConflict, errorBody{Error: err.Error()})
	case errors.Is(err, domain.ErrEntityNotFound),
		errors.Is(err, domain.ErrCandidateNotFound),
		errors.Is(err, domain.ErrEdgeNotFound):
		writeJSON(w, http.StatusNotFound, errorBody{Error: err.Error()})
	default:
		s.log.Error("request failed", "err", err)
		writeJSON(w, http.StatusInternalServerError, errorBody{Error: "internal error"})
	}
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(v)
}
