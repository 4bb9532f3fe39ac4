package http

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"strings"

	"github.com/aretw0/arbor"
	"github.com/aretw0/arbor/internal/logging"
	"github.com/aretw0/arbor/pkg/domain"
	"github.com/aretw0/arbor/pkg/registry"
	"github.com/aretw0/arbor/pkg/session"
	"github.com/go-chi/chi/v5"
)

// Server exposes the UI triggers of managed editing sessions over HTTP.
type Server struct {
	Sessions *session.Manager
	Metrics  http.Handler
	Logger   *slog.Logger
}

// Option configures the handler.
type Option func(*Server)

// WithMetrics mounts h at GET /metrics.
func WithMetrics(h http.Handler) Option {
	return func(s *Server) { s.Metrics = h }
}

// WithLogger sets the request error logger.
func WithLogger(logger *slog.Logger) Option {
	return func(s *Server) { s.Logger = logger }
}

// NewHandler creates the HTTP handler for the session manager.
func NewHandler(sessions *session.Manager, opts ...Option) http.Handler {
	s := &Server{Sessions: sessions}
	for _, opt := range opts {
		opt(s)
	}
	if s.Logger == nil {
		s.Logger = logging.NewNop()
	}

	r := chi.NewRouter()
	r.Get("/health", s.GetHealth)
	r.Get("/info", s.GetInfo)
	if s.Metrics != nil {
		r.Method(http.MethodGet, "/metrics", s.Metrics)
	}

	r.Route("/sessions", func(r chi.Router) {
		r.Get("/", s.ListSessions)
		r.Post("/", s.CreateSession)
		r.Route("/{id}", func(r chi.Router) {
			r.Get("/", s.GetSession)
			r.Delete("/", s.DeleteSession)
			r.Get("/palette", s.GetPalette)
			r.Post("/palette/{action}/{gesture}", s.Trigger)
			r.Post("/undo", s.Undo)
			r.Post("/redo", s.Redo)
			r.Post("/zoom/{direction}", s.Zoom)
			r.Post("/save", s.Save)
			r.Post("/download/{kind}", s.Download)
			r.Post("/select", s.Select)
		})
	})

	return enableCORS(r)
}

func enableCORS(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Access-Control-Allow-Origin", "*")
		w.Header().Set("Access-Control-Allow-Methods", "GET, POST, PUT, DELETE, OPTIONS")
		w.Header().Set("Access-Control-Allow-Headers", "Content-Type, Custom-Header")
		if r.Method == "OPTIONS" {
			w.WriteHeader(http.StatusOK)
			return
		}
		next.ServeHTTP(w, r)
	})
}

// ActionResponse is a palette entry as seen by clients.
type ActionResponse struct {
	ID       string               `json:"id"`
	Group    string               `json:"group"`
	Style    string               `json:"style,omitempty"`
	Title    string               `json:"title,omitempty"`
	Gestures []domain.GestureKind `json:"gestures,omitempty"`
}

// ZoomResponse reports the scale after a zoom trigger.
type ZoomResponse struct {
	Scale float64 `json:"scale"`
}

// SaveResponse reports the advisory validation of a save.
type SaveResponse struct {
	Filename string                  `json:"filename"`
	Valid    bool                    `json:"valid"`
	Report   domain.ValidationReport `json:"report"`
}

// DownloadResponse describes the artifact handed to the downloader.
type DownloadResponse struct {
	Kind     domain.ExportKind `json:"kind"`
	Filename string            `json:"filename"`
	Bytes    int               `json:"bytes"`
}

type createRequest struct {
	ID string `json:"id"`
}

type pointRequest struct {
	X    float64        `json:"x"`
	Y    float64        `json:"y"`
	Data map[string]any `json:"data,omitempty"`
}

type selectRequest struct {
	Elements []string `json:"elements"`
	Value    *string  `json:"value,omitempty"`
}

// statusFor maps domain failures onto HTTP status codes.
func statusFor(err error) int {
	switch {
	case errors.Is(err, domain.ErrSessionNotFound),
		errors.Is(err, domain.ErrUnknownAction):
		return http.StatusNotFound
	case errors.Is(err, session.ErrSessionExists):
		return http.StatusConflict
	case errors.Is(err, domain.ErrGestureUnsupported),
		errors.Is(err, domain.ErrSeparatorDispatch),
		errors.Is(err, domain.ErrNoSelection),
		errors.Is(err, domain.ErrUnknownElementType),
		errors.Is(err, domain.ErrElementNotFound):
		return http.StatusUnprocessableEntity
	case errors.Is(err, domain.ErrSerialization),
		errors.Is(err, domain.ErrParse):
		return http.StatusBadGateway
	case errors.Is(err, arbor.ErrSelectUnsupported):
		return http.StatusNotImplemented
	}
	return http.StatusInternalServerError
}

func (s *Server) fail(w http.ResponseWriter, r *http.Request, op string, err error) {
	status := statusFor(err)
	if status >= http.StatusInternalServerError {
		s.Logger.Error(op+" failed", "path", r.URL.Path, "error", err)
	} else {
		s.Logger.Debug(op+" rejected", "path", r.URL.Path, "status", status, "error", err)
	}
	http.Error(w, fmt.Sprintf("%s error: %v", op, err), status)
}

func (s *Server) reply(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(v); err != nil {
		s.Logger.Error("Response encode failed", "error", err)
	}
}

// decode reads an optional JSON body. An empty body leaves v untouched.
func decode(r *http.Request, v any) error {
	if r.Body == nil {
		return nil
	}
	err := json.NewDecoder(r.Body).Decode(v)
	if errors.Is(err, io.EOF) {
		return nil
	}
	return err
}

func (s *Server) snapshot(w http.ResponseWriter, r *http.Request, op string) {
	snap, err := s.Sessions.Snapshot(r.Context(), chi.URLParam(r, "id"))
	if err != nil {
		s.fail(w, r, op, err)
		return
	}
	s.reply(w, http.StatusOK, snap)
}

// GetHealth handles GET /health.
func (s *Server) GetHealth(w http.ResponseWriter, r *http.Request) {
	s.reply(w, http.StatusOK, map[string]string{"status": "ok"})
}

// GetInfo handles GET /info.
func (s *Server) GetInfo(w http.ResponseWriter, r *http.Request) {
	s.reply(w, http.StatusOK, map[string]string{
		"app":     "arbor-http",
		"version": strings.TrimSpace(arbor.Version),
	})
}

// ListSessions handles GET /sessions.
func (s *Server) ListSessions(w http.ResponseWriter, r *http.Request) {
	ids, err := s.Sessions.List(r.Context())
	if err != nil {
		s.fail(w, r, "List", err)
		return
	}
	if ids == nil {
		ids = []string{}
	}
	s.reply(w, http.StatusOK, ids)
}

// CreateSession handles POST /sessions. The body may name the session.
func (s *Server) CreateSession(w http.ResponseWriter, r *http.Request) {
	var body createRequest
	if err := decode(r, &body); err != nil {
		http.Error(w, "Invalid request body", http.StatusBadRequest)
		s.Logger.Warn("CreateSession: Invalid request body", "error", err)
		return
	}
	snap, err := s.Sessions.Create(r.Context(), body.ID)
	if err != nil {
		s.fail(w, r, "Create", err)
		return
	}
	w.Header().Set("Location", "/sessions/"+snap.ID)
	s.reply(w, http.StatusCreated, snap)
}

// GetSession handles GET /sessions/{id}.
func (s *Server) GetSession(w http.ResponseWriter, r *http.Request) {
	s.snapshot(w, r, "Snapshot")
}

// DeleteSession handles DELETE /sessions/{id}.
func (s *Server) DeleteSession(w http.ResponseWriter, r *http.Request) {
	if err := s.Sessions.Delete(r.Context(), chi.URLParam(r, "id")); err != nil {
		s.fail(w, r, "Delete", err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

// GetPalette handles GET /sessions/{id}/palette.
func (s *Server) GetPalette(w http.ResponseWriter, r *http.Request) {
	var entries *registry.Entries
	err := s.Sessions.Do(r.Context(), chi.URLParam(r, "id"), func(ctx context.Context, sess *arbor.Session) error {
		var err error
		entries, err = sess.Palette(ctx)
		return err
	})
	if err != nil {
		s.fail(w, r, "Palette", err)
		return
	}

	resp := make([]ActionResponse, 0, entries.Len())
	for _, a := range registry.List(entries) {
		resp = append(resp, ActionResponse{
			ID:       a.ID,
			Group:    a.Group,
			Style:    a.Style,
			Title:    a.Title,
			Gestures: a.Gestures(),
		})
	}
	s.reply(w, http.StatusOK, resp)
}

// Trigger handles POST /sessions/{id}/palette/{action}/{gesture}.
func (s *Server) Trigger(w http.ResponseWriter, r *http.Request) {
	kind, ok := domain.ParseGestureKind(chi.URLParam(r, "gesture"))
	if !ok {
		http.Error(w, "Unknown gesture", http.StatusBadRequest)
		return
	}
	var body pointRequest
	if err := decode(r, &body); err != nil {
		http.Error(w, "Invalid request body", http.StatusBadRequest)
		s.Logger.Warn("Trigger: Invalid request body", "error", err)
		return
	}
	g := domain.Gesture{Kind: kind, X: body.X, Y: body.Y, Data: body.Data}
	actionID := chi.URLParam(r, "action")

	err := s.Sessions.Do(r.Context(), chi.URLParam(r, "id"), func(ctx context.Context, sess *arbor.Session) error {
		return sess.Trigger(ctx, actionID, kind, g)
	})
	if err != nil {
		s.fail(w, r, "Trigger", err)
		return
	}
	s.snapshot(w, r, "Trigger")
}

// Undo handles POST /sessions/{id}/undo.
func (s *Server) Undo(w http.ResponseWriter, r *http.Request) {
	s.history(w, r, "Undo", (*arbor.Session).Undo)
}

// Redo handles POST /sessions/{id}/redo.
func (s *Server) Redo(w http.ResponseWriter, r *http.Request) {
	s.history(w, r, "Redo", (*arbor.Session).Redo)
}

func (s *Server) history(w http.ResponseWriter, r *http.Request, op string, fn func(*arbor.Session, context.Context) error) {
	err := s.Sessions.Do(r.Context(), chi.URLParam(r, "id"), func(ctx context.Context, sess *arbor.Session) error {
		return fn(sess, ctx)
	})
	if err != nil {
		s.fail(w, r, op, err)
		return
	}
	s.snapshot(w, r, op)
}

// Zoom handles POST /sessions/{id}/zoom/{in|out|reset}.
func (s *Server) Zoom(w http.ResponseWriter, r *http.Request) {
	var fn func(*arbor.Session, context.Context) (float64, error)
	switch chi.URLParam(r, "direction") {
	case "in":
		fn = (*arbor.Session).ZoomIn
	case "out":
		fn = (*arbor.Session).ZoomOut
	case "reset":
		fn = (*arbor.Session).ZoomReset
	default:
		http.Error(w, "Unknown zoom direction", http.StatusNotFound)
		return
	}

	var scale float64
	err := s.Sessions.Do(r.Context(), chi.URLParam(r, "id"), func(ctx context.Context, sess *arbor.Session) error {
		var err error
		scale, err = fn(sess, ctx)
		return err
	})
	if err != nil {
		s.fail(w, r, "Zoom", err)
		return
	}
	s.reply(w, http.StatusOK, ZoomResponse{Scale: scale})
}

// Save handles POST /sessions/{id}/save. An invalid process is still saved;
// the report is advisory.
func (s *Server) Save(w http.ResponseWriter, r *http.Request) {
	var report domain.ValidationReport
	err := s.Sessions.Do(r.Context(), chi.URLParam(r, "id"), func(ctx context.Context, sess *arbor.Session) error {
		var err error
		report, err = sess.Save(ctx)
		return err
	})
	if err != nil {
		s.fail(w, r, "Save", err)
		return
	}
	s.reply(w, http.StatusOK, SaveResponse{
		Filename: domain.ExportMarkup.DefaultFilename(),
		Valid:    report.IsValid(),
		Report:   report,
	})
}

// Download handles POST /sessions/{id}/download/{kind}.
func (s *Server) Download(w http.ResponseWriter, r *http.Request) {
	kind, err := domain.ParseExportKind(chi.URLParam(r, "kind"))
	if err != nil {
		http.Error(w, err.Error(), http.StatusNotFound)
		return
	}
	var artifact domain.ExportArtifact
	err = s.Sessions.Do(r.Context(), chi.URLParam(r, "id"), func(ctx context.Context, sess *arbor.Session) error {
		var err error
		artifact, err = sess.Export(ctx, kind, "")
		return err
	})
	if err != nil {
		s.fail(w, r, "Download", err)
		return
	}
	s.reply(w, http.StatusOK, DownloadResponse{
		Kind:     artifact.Kind,
		Filename: artifact.Filename,
		Bytes:    len(artifact.Payload),
	})
}

// Select handles POST /sessions/{id}/select. Elements, when present, replace
// the selection; Value, when present, marks the selected element.
func (s *Server) Select(w http.ResponseWriter, r *http.Request) {
	var body selectRequest
	if err := decode(r, &body); err != nil {
		http.Error(w, "Invalid request body", http.StatusBadRequest)
		s.Logger.Warn("Select: Invalid request body", "error", err)
		return
	}
	err := s.Sessions.Do(r.Context(), chi.URLParam(r, "id"), func(ctx context.Context, sess *arbor.Session) error {
		if body.Elements != nil {
			if err := sess.Select(ctx, body.Elements...); err != nil {
				return err
			}
		}
		if body.Value != nil {
			return sess.MarkSelected(ctx, *body.Value)
		}
		return nil
	})
	if err != nil {
		s.fail(w, r, "Select", err)
		return
	}
	s.snapshot(w, r, "Select")
}
