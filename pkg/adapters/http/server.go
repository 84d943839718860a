// Package http exposes a Viewer over HTTP: the rendered tree, payload push,
// expansion toggles, saved views and a server-sent event stream of tree changes.
package http

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"strings"
	"sync"

	"github.com/aretw0/cmdtree"
	"github.com/aretw0/cmdtree/internal/logging"
	"github.com/aretw0/cmdtree/internal/presentation/graph"
	"github.com/aretw0/cmdtree/pkg/adapters/outline"
	"github.com/aretw0/cmdtree/pkg/domain"
	"github.com/aretw0/cmdtree/pkg/reconciler"
	"github.com/aretw0/cmdtree/pkg/viewstate"
	"github.com/go-chi/chi/v5"
)

// MaxPayloadBytes bounds POST /snapshot bodies.
const MaxPayloadBytes = 4 << 20

// Viewer is the part of *cmdtree.Viewer the server drives.
type Viewer interface {
	Update(raw *string) (cmdtree.Outcome, error)
	Toggle(id string) (bool, error)
	SetExpanded(id string, expanded bool) error
	SaveState() *domain.ViewState
	RestoreState(state *domain.ViewState)
}

// Tree is the part of *outline.Sink the server reads.
type Tree interface {
	Elements() []*outline.Element
	Placeholder() bool
	Markdown() string
	Version() uint64
}

// Server serves one Viewer rendering into one Tree.
type Server struct {
	Viewer  Viewer
	Tree    Tree
	Streams *StreamManager

	views   *viewstate.Manager
	metrics http.Handler
	logger  *slog.Logger

	mu           sync.Mutex
	published    uint64
	hasPublished bool
}

// Option configures the Server.
type Option func(*Server)

// WithViews enables the /views routes backed by mgr.
func WithViews(mgr *viewstate.Manager) Option {
	return func(s *Server) {
		s.views = mgr
	}
}

// WithMetricsHandler serves h on GET /metrics.
func WithMetricsHandler(h http.Handler) Option {
	return func(s *Server) {
		s.metrics = h
	}
}

// WithLogger configures a logger for the Server.
func WithLogger(logger *slog.Logger) Option {
	return func(s *Server) {
		s.logger = logger
	}
}

// NewServer creates a Server.
func NewServer(viewer Viewer, tree Tree, opts ...Option) *Server {
	s := &Server{
		Viewer:  viewer,
		Tree:    tree,
		Streams: NewStreamManager(),
		logger:  logging.NewNop(),
	}
	for _, opt := range opts {
		opt(s)
	}
	s.Streams.logger = s.logger
	return s
}

// NewHandler creates the HTTP handler for viewer.
func NewHandler(viewer Viewer, tree Tree, opts ...Option) http.Handler {
	return NewServer(viewer, tree, opts...).Handler()
}

// Handler returns the routed handler.
func (s *Server) Handler() http.Handler {
	r := chi.NewRouter()

	r.Get("/tree", s.GetTree)
	r.Post("/snapshot", s.PostSnapshot)
	r.Post("/toggle", s.PostToggle)
	r.Get("/state", s.GetState)
	r.Put("/state", s.PutState)
	r.Get("/events", s.SubscribeEvents)
	r.Get("/healthz", s.GetHealth)
	r.Get("/info", s.GetInfo)
	if s.metrics != nil {
		r.Method(http.MethodGet, "/metrics", s.metrics)
	}
	if s.views != nil {
		r.Route("/views", func(r chi.Router) {
			r.Get("/", s.ListViews)
			r.Post("/{viewID}/save", s.SaveView)
			r.Post("/{viewID}/load", s.LoadView)
			r.Delete("/{viewID}", s.DeleteView)
		})
	}
	return enableCORS(r)
}

func enableCORS(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Access-Control-Allow-Origin", "*")
		w.Header().Set("Access-Control-Allow-Methods", "GET, POST, PUT, DELETE, OPTIONS")
		w.Header().Set("Access-Control-Allow-Headers", "Content-Type")
		if r.Method == "OPTIONS" {
			w.WriteHeader(http.StatusOK)
			return
		}
		next.ServeHTTP(w, r)
	})
}

// TreeResponse is the JSON form of the rendered tree.
type TreeResponse struct {
	Placeholder bool               `json:"placeholder"`
	Version     uint64             `json:"version"`
	Sections    []*outline.Element `json:"sections"`
}

// OutcomeResponse reports what a pushed payload did.
type OutcomeResponse struct {
	Rendered  bool     `json:"rendered"`
	Sections  int      `json:"sections"`
	Nodes     int      `json:"nodes"`
	Displayed int      `json:"displayed"`
	Malformed int      `json:"malformed"`
	Errors    []string `json:"errors,omitempty"`
}

// ToggleRequest toggles a section or group. With Expanded set the expansion
// is forced instead of flipped.
type ToggleRequest struct {
	ID       string `json:"id"`
	Expanded *bool  `json:"expanded,omitempty"`
}

// ToggleResponse is the expansion after a toggle.
type ToggleResponse struct {
	ID       string `json:"id"`
	Expanded bool   `json:"expanded"`
}

func (s *Server) tree() TreeResponse {
	sections := s.Tree.Elements()
	if sections == nil {
		sections = []*outline.Element{}
	}
	return TreeResponse{
		Placeholder: s.Tree.Placeholder(),
		Version:     s.Tree.Version(),
		Sections:    sections,
	}
}

// GetTree handles GET /tree. ?format=markdown and ?format=mermaid return text.
func (s *Server) GetTree(w http.ResponseWriter, r *http.Request) {
	switch format := r.URL.Query().Get("format"); format {
	case "", "json":
		s.writeJSON(w, http.StatusOK, s.tree())
	case "markdown":
		w.Header().Set("Content-Type", "text/markdown; charset=utf-8")
		io.WriteString(w, s.Tree.Markdown())
	case "mermaid":
		w.Header().Set("Content-Type", "text/plain; charset=utf-8")
		io.WriteString(w, graph.GenerateMermaid(s.Tree.Elements()))
	default:
		http.Error(w, fmt.Sprintf("unknown format %q", format), http.StatusBadRequest)
	}
}

// PostSnapshot handles POST /snapshot. The body is the raw payload; an empty
// body clears the view.
func (s *Server) PostSnapshot(w http.ResponseWriter, r *http.Request) {
	data, err := io.ReadAll(http.MaxBytesReader(w, r.Body, MaxPayloadBytes))
	if err != nil {
		http.Error(w, "Invalid request body", http.StatusBadRequest)
		s.logger.Warn("PostSnapshot: Invalid request body", "err", err)
		return
	}

	raw := string(data)
	out, err := s.Viewer.Update(&raw)
	if errors.Is(err, domain.ErrDecode) {
		http.Error(w, err.Error(), http.StatusUnprocessableEntity)
		s.logger.Warn("PostSnapshot: Payload rejected", "err", err)
		return
	}

	resp := OutcomeResponse{
		Rendered:  out.Rendered,
		Sections:  out.Stats.Sections,
		Nodes:     out.Stats.Nodes,
		Displayed: out.Stats.Displayed,
		Malformed: out.Malformed,
	}
	if err != nil {
		resp.Errors = splitErrors(err)
	}
	s.Publish()
	s.writeJSON(w, http.StatusOK, resp)
}

// PostToggle handles POST /toggle.
func (s *Server) PostToggle(w http.ResponseWriter, r *http.Request) {
	var body ToggleRequest
	if err := json.NewDecoder(r.Body).Decode(&body); err != nil || body.ID == "" {
		http.Error(w, "Invalid request body", http.StatusBadRequest)
		s.logger.Warn("PostToggle: Invalid request body", "err", err)
		return
	}

	var expanded bool
	var err error
	if body.Expanded != nil {
		expanded = *body.Expanded
		err = s.Viewer.SetExpanded(body.ID, expanded)
	} else {
		expanded, err = s.Viewer.Toggle(body.ID)
	}
	if errors.Is(err, reconciler.ErrNotToggleable) {
		http.Error(w, err.Error(), http.StatusNotFound)
		return
	}
	if err != nil {
		http.Error(w, fmt.Sprintf("Toggle error: %v", err), http.StatusInternalServerError)
		s.logger.Error("Toggle failed", "node_id", body.ID, "err", err)
		return
	}

	s.Publish()
	s.writeJSON(w, http.StatusOK, ToggleResponse{ID: body.ID, Expanded: expanded})
}

// GetState handles GET /state.
func (s *Server) GetState(w http.ResponseWriter, r *http.Request) {
	s.writeJSON(w, http.StatusOK, s.Viewer.SaveState())
}

// PutState handles PUT /state.
func (s *Server) PutState(w http.ResponseWriter, r *http.Request) {
	var state domain.ViewState
	if err := json.NewDecoder(r.Body).Decode(&state); err != nil {
		http.Error(w, "Invalid request body", http.StatusBadRequest)
		s.logger.Warn("PutState: Invalid request body", "err", err)
		return
	}
	s.Viewer.RestoreState(&state)
	s.Publish()
	w.WriteHeader(http.StatusNoContent)
}

// ListViews handles GET /views.
func (s *Server) ListViews(w http.ResponseWriter, r *http.Request) {
	views, err := s.views.List(r.Context())
	if err != nil {
		http.Error(w, fmt.Sprintf("List error: %v", err), http.StatusInternalServerError)
		s.logger.Error("ListViews failed", "err", err)
		return
	}
	if views == nil {
		views = []string{}
	}
	s.writeJSON(w, http.StatusOK, views)
}

// SaveView handles POST /views/{viewID}/save.
func (s *Server) SaveView(w http.ResponseWriter, r *http.Request) {
	viewID := chi.URLParam(r, "viewID")
	if err := s.views.Save(r.Context(), viewID, s.Viewer.SaveState()); err != nil {
		http.Error(w, fmt.Sprintf("Save error: %v", err), http.StatusInternalServerError)
		s.logger.Error("SaveView failed", "view_id", viewID, "err", err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

// LoadView handles POST /views/{viewID}/load.
func (s *Server) LoadView(w http.ResponseWriter, r *http.Request) {
	viewID := chi.URLParam(r, "viewID")
	state, err := s.views.Load(r.Context(), viewID)
	if errors.Is(err, domain.ErrViewNotFound) {
		http.Error(w, err.Error(), http.StatusNotFound)
		return
	}
	if err != nil {
		http.Error(w, fmt.Sprintf("Load error: %v", err), http.StatusInternalServerError)
		s.logger.Error("LoadView failed", "view_id", viewID, "err", err)
		return
	}
	s.Viewer.RestoreState(state)
	s.Publish()
	s.writeJSON(w, http.StatusOK, state)
}

// DeleteView handles DELETE /views/{viewID}.
func (s *Server) DeleteView(w http.ResponseWriter, r *http.Request) {
	viewID := chi.URLParam(r, "viewID")
	if err := s.views.Delete(r.Context(), viewID); err != nil {
		http.Error(w, fmt.Sprintf("Delete error: %v", err), http.StatusInternalServerError)
		s.logger.Error("DeleteView failed", "view_id", viewID, "err", err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

// GetHealth handles the GET /healthz request.
func (s *Server) GetHealth(w http.ResponseWriter, r *http.Request) {
	s.writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

// GetInfo handles the GET /info request.
func (s *Server) GetInfo(w http.ResponseWriter, r *http.Request) {
	s.writeJSON(w, http.StatusOK, map[string]string{
		"app":     "cmdtree-http",
		"version": strings.TrimSpace(cmdtree.Version),
	})
}

// Publish broadcasts the tree to event subscribers if it changed since the
// last broadcast.
func (s *Server) Publish() {
	s.mu.Lock()
	defer s.mu.Unlock()

	t := s.tree()
	if s.hasPublished && t.Version == s.published {
		return
	}
	s.published = t.Version
	s.hasPublished = true
	data, err := json.Marshal(t)
	if err != nil {
		s.logger.Error("Publish: encode failed", "err", err)
		return
	}
	s.Streams.Broadcast(string(data))
}

func (s *Server) writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(v); err != nil {
		s.logger.Error("Response encode failed", "err", err)
	}
}

func splitErrors(err error) []string {
	if joined, ok := err.(interface{ Unwrap() []error }); ok {
		var out []string
		for _, e := range joined.Unwrap() {
			out = append(out, splitErrors(e)...)
		}
		return out
	}
	return []string{err.Error()}
}
