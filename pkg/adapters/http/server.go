package http

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"net/http"

	"github.com/aretw0/lattice"
	"github.com/aretw0/lattice/internal/logging"
	"github.com/aretw0/lattice/pkg/analyzer"
	"github.com/aretw0/lattice/pkg/domain"
	"github.com/aretw0/lattice/pkg/graph"
	"github.com/aretw0/lattice/pkg/history"
	"github.com/aretw0/lattice/pkg/registry"
	"github.com/aretw0/lattice/pkg/session"
	"github.com/go-chi/chi/v5"
)

// Server exposes the editing API of a session manager.
type Server struct {
	Sessions     *session.Manager
	interactions *registry.Registry
	metrics      http.Handler
	logger       *slog.Logger
}

// Option configures the Server.
type Option func(*Server)

// WithLogger sets the request logger.
func WithLogger(logger *slog.Logger) Option {
	return func(s *Server) {
		s.logger = logger
	}
}

// WithRegistry sets the interaction catalog served at GET /interactions.
func WithRegistry(reg *registry.Registry) Option {
	return func(s *Server) {
		s.interactions = reg
	}
}

// WithMetricsHandler mounts h (e.g. promhttp.Handler()) at GET /metrics.
func WithMetricsHandler(h http.Handler) Option {
	return func(s *Server) {
		s.metrics = h
	}
}

// NewHandler creates the HTTP handler for the manager.
func NewHandler(mgr *session.Manager, opts ...Option) http.Handler {
	s := &Server{Sessions: mgr, interactions: registry.Default(), logger: logging.NewNop()}
	for _, opt := range opts {
		opt(s)
	}

	r := chi.NewRouter()
	r.Get("/interactions", s.ListInteractions)
	r.Get("/docs", s.ListDocuments)
	r.Route("/docs/{id}", func(r chi.Router) {
		r.Get("/states", s.GetStates)
		r.Get("/states/{name}", s.GetState)
		r.Get("/states/{name}/warnings", s.GetWarnings)
		r.Get("/graph", s.GetGraph)
		r.Get("/changes", s.GetChanges)
		r.Post("/changes", s.PostChanges)
		r.Post("/undo", s.Undo)
		r.Post("/redo", s.Redo)
		r.Post("/commit", s.Commit)
	})
	if s.metrics != nil {
		r.Method(http.MethodGet, "/metrics", s.metrics)
	}
	return enableCORS(r)
}

func enableCORS(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Access-Control-Allow-Origin", "*")
		w.Header().Set("Access-Control-Allow-Methods", "GET, POST, OPTIONS")
		w.Header().Set("Access-Control-Allow-Headers", "Content-Type")
		if r.Method == "OPTIONS" {
			w.WriteHeader(http.StatusOK)
			return
		}
		next.ServeHTTP(w, r)
	})
}

// StatesResponse is the body of GET /docs/{id}/states.
type StatesResponse struct {
	Version       int            `json:"version"`
	InitStateName string         `json:"init_state_name"`
	States        map[string]any `json:"states"`
}

// ChangesRequest is the body of POST /docs/{id}/changes.
type ChangesRequest struct {
	Changes []history.Descriptor `json:"change_list"`
}

// ChangesResponse reports the unsaved changes of a document.
type ChangesResponse struct {
	Version           int                  `json:"version"`
	Changes           []history.Descriptor `json:"change_list"`
	HasUnsavedChanges bool                 `json:"has_unsaved_changes"`
	Diff              *domain.GraphDiff    `json:"diff,omitempty"`
}

// CommitRequest is the body of POST /docs/{id}/commit.
// Version is the version the client edited and is required.
type CommitRequest struct {
	Version       *int   `json:"version"`
	CommitMessage string `json:"commit_message"`
}

// ListDocuments handles GET /docs.
func (s *Server) ListDocuments(w http.ResponseWriter, r *http.Request) {
	ids, err := s.Sessions.List(r.Context())
	if err != nil {
		s.fail(w, err)
		return
	}
	s.respond(w, http.StatusOK, map[string]any{"docs": ids})
}

// GetStates handles GET /docs/{id}/states.
func (s *Server) GetStates(w http.ResponseWriter, r *http.Request) {
	s.withEditor(w, r, func(ctx context.Context, ed *lattice.Editor) (any, error) {
		return StatesResponse{Version: ed.Version(), InitStateName: ed.InitState(), States: ed.ToDict()}, nil
	})
}

// GetState handles GET /docs/{id}/states/{name}.
func (s *Server) GetState(w http.ResponseWriter, r *http.Request) {
	name := chi.URLParam(r, "name")
	s.withEditor(w, r, func(ctx context.Context, ed *lattice.Editor) (any, error) {
		st, err := ed.State(name)
		if err != nil {
			return nil, err
		}
		return graph.StateToDict(st), nil
	})
}

// GetWarnings handles GET /docs/{id}/states/{name}/warnings.
func (s *Server) GetWarnings(w http.ResponseWriter, r *http.Request) {
	name := chi.URLParam(r, "name")
	s.withEditor(w, r, func(ctx context.Context, ed *lattice.Editor) (any, error) {
		warnings, err := ed.Warnings(name)
		if err != nil {
			return nil, err
		}
		if warnings == nil {
			warnings = []analyzer.Warning{}
		}
		return map[string]any{"warnings": warnings}, nil
	})
}

// GetGraph handles GET /docs/{id}/graph and writes a Mermaid diagram.
func (s *Server) GetGraph(w http.ResponseWriter, r *http.Request) {
	var chart string
	err := s.Sessions.WithEditor(r.Context(), chi.URLParam(r, "id"), func(ctx context.Context, ed *lattice.Editor) error {
		chart = ed.Mermaid(r.URL.Query().Get("current"))
		return nil
	})
	if err != nil {
		s.fail(w, err)
		return
	}
	w.Header().Set("Content-Type", "text/plain; charset=utf-8")
	_, _ = w.Write([]byte(chart))
}

// GetChanges handles GET /docs/{id}/changes.
func (s *Server) GetChanges(w http.ResponseWriter, r *http.Request) {
	s.withEditor(w, r, func(ctx context.Context, ed *lattice.Editor) (any, error) {
		return changes(ed), nil
	})
}

// PostChanges handles POST /docs/{id}/changes. The change list applies atomically.
func (s *Server) PostChanges(w http.ResponseWriter, r *http.Request) {
	var body ChangesRequest
	if err := json.NewDecoder(r.Body).Decode(&body); err != nil {
		s.badRequest(w, err)
		return
	}
	s.withEditor(w, r, func(ctx context.Context, ed *lattice.Editor) (any, error) {
		if err := ed.ApplyDescriptors(body.Changes); err != nil {
			return nil, err
		}
		return changes(ed), nil
	})
}

// Undo handles POST /docs/{id}/undo.
func (s *Server) Undo(w http.ResponseWriter, r *http.Request) {
	s.withEditor(w, r, func(ctx context.Context, ed *lattice.Editor) (any, error) {
		if err := ed.Undo(); err != nil {
			return nil, err
		}
		return changes(ed), nil
	})
}

// Redo handles POST /docs/{id}/redo.
func (s *Server) Redo(w http.ResponseWriter, r *http.Request) {
	s.withEditor(w, r, func(ctx context.Context, ed *lattice.Editor) (any, error) {
		if err := ed.Redo(); err != nil {
			return nil, err
		}
		return changes(ed), nil
	})
}

// Commit handles POST /docs/{id}/commit.
func (s *Server) Commit(w http.ResponseWriter, r *http.Request) {
	var body CommitRequest
	if err := json.NewDecoder(r.Body).Decode(&body); err != nil {
		s.badRequest(w, err)
		return
	}
	expected := -1
	if body.Version != nil {
		expected = *body.Version
	}

	commit, err := s.Sessions.CommitVersion(r.Context(), chi.URLParam(r, "id"), expected, body.CommitMessage)
	if err != nil {
		s.fail(w, err)
		return
	}
	s.respond(w, http.StatusOK, commit)
}

// ListInteractions handles GET /interactions.
func (s *Server) ListInteractions(w http.ResponseWriter, r *http.Request) {
	s.respond(w, http.StatusOK, map[string]any{"interactions": s.interactions.Catalog()})
}

func changes(ed *lattice.Editor) ChangesResponse {
	return ChangesResponse{
		Version:           ed.Version(),
		Changes:           ed.ChangeList(),
		HasUnsavedChanges: ed.HasUnsavedChanges(),
		Diff:              ed.Diff(),
	}
}

func (s *Server) withEditor(w http.ResponseWriter, r *http.Request, fn func(context.Context, *lattice.Editor) (any, error)) {
	var resp any
	err := s.Sessions.WithEditor(r.Context(), chi.URLParam(r, "id"), func(ctx context.Context, ed *lattice.Editor) error {
		var err error
		resp, err = fn(ctx, ed)
		return err
	})
	if err != nil {
		s.fail(w, err)
		return
	}
	s.respond(w, http.StatusOK, resp)
}

func (s *Server) respond(w http.ResponseWriter, status int, body any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(body); err != nil {
		s.logger.Error("response encode failed", "err", err)
	}
}

func (s *Server) badRequest(w http.ResponseWriter, err error) {
	s.logger.Warn("invalid request body", "err", err)
	s.respond(w, http.StatusBadRequest, map[string]string{"error": fmt.Sprintf("invalid request body: %v", err)})
}

func (s *Server) fail(w http.ResponseWriter, err error) {
	status := statusOf(err)
	if status == http.StatusInternalServerError {
		s.logger.Error("request failed", "err", err)
	} else {
		s.logger.Debug("request rejected", "status", status, "err", err)
	}
	s.respond(w, status, map[string]string{"error": err.Error()})
}

func statusOf(err error) int {
	var integrity *graph.IntegrityError
	switch {
	case errors.As(err, &integrity):
		return http.StatusUnprocessableEntity
	case errors.Is(err, domain.ErrDocumentNotFound), errors.Is(err, domain.ErrUnknownState):
		return http.StatusNotFound
	case errors.Is(err, domain.ErrVersionConflict),
		errors.Is(err, domain.ErrNothingToUndo),
		errors.Is(err, domain.ErrNothingToRedo),
		errors.Is(err, domain.ErrNoChanges):
		return http.StatusConflict
	case errors.Is(err, domain.ErrInvalidVersion):
		return http.StatusBadRequest
	case errors.Is(err, domain.ErrDuplicateStateName),
		errors.Is(err, domain.ErrInvalidStateName),
		errors.Is(err, domain.ErrMalformedStateData),
		errors.Is(err, domain.ErrInvalidValue),
		errors.Is(err, domain.ErrHasIncomingReferences),
		errors.Is(err, domain.ErrInitialState),
		errors.Is(err, domain.ErrUnknownInteraction),
		errors.Is(err, domain.ErrUnknownProperty),
		errors.Is(err, domain.ErrUnknownCommand):
		return http.StatusUnprocessableEntity
	default:
		return http.StatusInternalServerError
	}
}
