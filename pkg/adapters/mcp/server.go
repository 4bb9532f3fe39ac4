package mcp

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"strings"
	"time"

	"github.com/aretw0/arbor"
	"github.com/aretw0/arbor/internal/logging"
	"github.com/aretw0/arbor/pkg/domain"
	"github.com/aretw0/arbor/pkg/registry"
	"github.com/aretw0/arbor/pkg/session"
	"github.com/mark3labs/mcp-go/mcp"
	"github.com/mark3labs/mcp-go/server"
)

// SessionArgs names the session a tool acts on.
type SessionArgs struct {
	SessionID string `json:"session_id" jsonschema_description:"ID of the editing session"`
}

// CreateArgs requests a new session.
type CreateArgs struct {
	SessionID string `json:"session_id,omitempty"`
}

// TriggerArgs fires a gesture on a palette entry.
type TriggerArgs struct {
	SessionID string  `json:"session_id"`
	Action    string  `json:"action"`
	Gesture   string  `json:"gesture,omitempty"`
	X         float64 `json:"x"`
	Y         float64 `json:"y"`
}

// ZoomArgs selects a zoom direction.
type ZoomArgs struct {
	SessionID string `json:"session_id"`
	Direction string `json:"direction"`
}

// DownloadArgs selects an export kind.
type DownloadArgs struct {
	SessionID string `json:"session_id"`
	Kind      string `json:"kind"`
}

// SelectArgs replaces the selection and optionally marks it.
type SelectArgs struct {
	SessionID string   `json:"session_id"`
	Elements  []string `json:"elements,omitempty"`
	Value     *string  `json:"value,omitempty"`
}

// PaletteEntry is a palette action as seen by the model.
type PaletteEntry struct {
	ID       string               `json:"id" jsonschema_description:"Action ID used by the trigger tool"`
	Group    string               `json:"group"`
	Title    string               `json:"title,omitempty"`
	Gestures []domain.GestureKind `json:"gestures,omitempty"`
}

// PaletteResponse lists the palette of a session.
type PaletteResponse struct {
	Entries []PaletteEntry `json:"entries"`
}

// SaveResponse reports the advisory structural check of a save.
type SaveResponse struct {
	Filename string                  `json:"filename"`
	Valid    bool                    `json:"valid" jsonschema_description:"True when the process has a start and an end event"`
	Report   domain.ValidationReport `json:"report"`
}

// ZoomResponse reports the scale after a zoom change.
type ZoomResponse struct {
	Scale float64 `json:"scale"`
}

// DownloadResponse describes the exported artifact.
type DownloadResponse struct {
	Kind     domain.ExportKind `json:"kind"`
	Filename string            `json:"filename"`
	Bytes    int               `json:"bytes"`
}

// Server exposes managed editing sessions as MCP tools.
type Server struct {
	sessions  *session.Manager
	logger    *slog.Logger
	mcpServer *server.MCPServer
}

// Option configures the server.
type Option func(*Server)

// WithLogger sets the server logger.
func WithLogger(logger *slog.Logger) Option {
	return func(s *Server) { s.logger = logger }
}

// NewServer creates a new MCP Server instance.
func NewServer(sessions *session.Manager, opts ...Option) *Server {
	s := &Server{
		sessions:  sessions,
		mcpServer: server.NewMCPServer("arbor-mcp", strings.TrimSpace(arbor.Version)),
	}
	for _, opt := range opts {
		opt(s)
	}
	if s.logger == nil {
		s.logger = logging.NewNop()
	}
	s.registerTools()
	s.registerResources()
	return s
}

// MCPServer returns the underlying protocol server.
func (s *Server) MCPServer() *server.MCPServer {
	return s.mcpServer
}

// ServeStdio starts the server on Stdin/Stdout.
func (s *Server) ServeStdio() error {
	return server.ServeStdio(s.mcpServer)
}

// ServeSSE serves the SSE transport on port until ctx is done.
func (s *Server) ServeSSE(ctx context.Context, port int) error {
	addr := fmt.Sprintf(":%d", port)
	baseURL := fmt.Sprintf("http://localhost:%d", port)

	sseServer := server.NewSSEServer(s.mcpServer, server.WithBaseURL(baseURL))

	mux := http.NewServeMux()
	mux.Handle("/sse", corsMiddleware(sseServer.SSEHandler()))
	mux.Handle("/message", corsMiddleware(sseServer.MessageHandler()))

	httpServer := &http.Server{
		Addr:              addr,
		Handler:           mux,
		ReadHeaderTimeout: 10 * time.Second,
	}

	serverErrors := make(chan error, 1)
	go func() {
		s.logger.Info("MCP Server listening (SSE)", "address", addr)
		serverErrors <- httpServer.ListenAndServe()
	}()

	select {
	case err := <-serverErrors:
		if errors.Is(err, http.ErrServerClosed) {
			return nil
		}
		return err
	case <-ctx.Done():
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()

		s.logger.Info("Shutdown signal received, shutting down MCP server")
		if err := httpServer.Shutdown(shutdownCtx); err != nil {
			return fmt.Errorf("could not stop server gracefully: %w", err)
		}
		return nil
	}
}

func corsMiddleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Access-Control-Allow-Origin", "*")
		w.Header().Set("Access-Control-Allow-Methods", "GET, POST, OPTIONS")
		w.Header().Set("Access-Control-Allow-Headers", "Content-Type, Authorization, X-Requested-With")

		if r.Method == "OPTIONS" {
			w.WriteHeader(http.StatusOK)
			return
		}
		next.ServeHTTP(w, r)
	})
}

func sessionParam() mcp.ToolOption {
	return mcp.WithString("session_id", mcp.Required(), mcp.Description("ID of the editing session"))
}

func (s *Server) registerTools() {
	s.mcpServer.AddTool(mcp.NewTool("create_session",
		mcp.WithDescription("Start a new diagram editing session on the default diagram."),
		mcp.WithString("session_id", mcp.Description("Optional ID; a random one is generated when omitted")),
		mcp.WithOutputSchema[domain.SessionSnapshot](),
	), mcp.NewStructuredToolHandler(s.handleCreate))

	s.mcpServer.AddTool(mcp.NewTool("get_session",
		mcp.WithDescription("Get the view state of a session: scale, selection, undo availability and last save report."),
		sessionParam(),
		mcp.WithOutputSchema[domain.SessionSnapshot](),
	), mcp.NewStructuredToolHandler(s.handleSnapshot))

	s.mcpServer.AddTool(mcp.NewTool("get_palette",
		mcp.WithDescription("List the palette actions available for the current selection."),
		sessionParam(),
		mcp.WithOutputSchema[PaletteResponse](),
	), mcp.NewStructuredToolHandler(s.handlePalette))

	s.mcpServer.AddTool(mcp.NewTool("trigger",
		mcp.WithDescription("Fire a gesture on a palette action. Creation actions place the new shape centred on (x, y)."),
		sessionParam(),
		mcp.WithString("action", mcp.Required(), mcp.Description("Palette action ID")),
		mcp.WithString("gesture", mcp.Description("click (default) or dragstart"), mcp.Enum("click", "dragstart")),
		mcp.WithNumber("x", mcp.Description("Canvas x coordinate")),
		mcp.WithNumber("y", mcp.Description("Canvas y coordinate")),
		mcp.WithOutputSchema[domain.SessionSnapshot](),
	), mcp.NewStructuredToolHandler(s.handleTrigger))

	s.mcpServer.AddTool(mcp.NewTool("zoom",
		mcp.WithDescription("Zoom the canvas in or out by one step, or reset it to 1.0. The scale never drops below 0.2."),
		sessionParam(),
		mcp.WithString("direction", mcp.Required(), mcp.Enum("in", "out", "reset")),
		mcp.WithOutputSchema[ZoomResponse](),
	), mcp.NewStructuredToolHandler(s.handleZoom))

	s.mcpServer.AddTool(mcp.NewTool("save",
		mcp.WithDescription("Export the diagram as diagram.bpmn and check that the process has a start and an end event."),
		sessionParam(),
		mcp.WithOutputSchema[SaveResponse](),
	), mcp.NewStructuredToolHandler(s.handleSave))

	s.mcpServer.AddTool(mcp.NewTool("download",
		mcp.WithDescription("Export the diagram as BPMN markup or as an SVG image."),
		sessionParam(),
		mcp.WithString("kind", mcp.Required(), mcp.Enum("bpmn", "svg")),
		mcp.WithOutputSchema[DownloadResponse](),
	), mcp.NewStructuredToolHandler(s.handleDownload))

	s.mcpServer.AddTool(mcp.NewTool("undo",
		mcp.WithDescription("Undo the last diagram change."),
		sessionParam(),
		mcp.WithOutputSchema[domain.SessionSnapshot](),
	), mcp.NewStructuredToolHandler(s.handleUndo))

	s.mcpServer.AddTool(mcp.NewTool("redo",
		mcp.WithDescription("Redo the last undone diagram change."),
		sessionParam(),
		mcp.WithOutputSchema[domain.SessionSnapshot](),
	), mcp.NewStructuredToolHandler(s.handleRedo))

	s.mcpServer.AddTool(mcp.NewTool("select",
		mcp.WithDescription("Select diagram elements and optionally store a value on the selected element."),
		sessionParam(),
		mcp.WithArray("elements", mcp.Description("Element IDs to select"), mcp.WithStringItems()),
		mcp.WithString("value", mcp.Description("Value stored as custom-property on the selected element")),
		mcp.WithOutputSchema[domain.SessionSnapshot](),
	), mcp.NewStructuredToolHandler(s.handleSelect))
}

// Handler methods for structured tools

func (s *Server) handleCreate(ctx context.Context, _ mcp.CallToolRequest, args CreateArgs) (domain.SessionSnapshot, error) {
	snap, err := s.sessions.Create(ctx, args.SessionID)
	if err != nil {
		return domain.SessionSnapshot{}, err
	}
	return *snap, nil
}

func (s *Server) handleSnapshot(ctx context.Context, _ mcp.CallToolRequest, args SessionArgs) (domain.SessionSnapshot, error) {
	snap, err := s.sessions.Snapshot(ctx, args.SessionID)
	if err != nil {
		return domain.SessionSnapshot{}, err
	}
	return *snap, nil
}

func (s *Server) handlePalette(ctx context.Context, _ mcp.CallToolRequest, args SessionArgs) (PaletteResponse, error) {
	var entries *registry.Entries
	err := s.sessions.Do(ctx, args.SessionID, func(ctx context.Context, sess *arbor.Session) error {
		var err error
		entries, err = sess.Palette(ctx)
		return err
	})
	if err != nil {
		return PaletteResponse{}, err
	}
	resp := PaletteResponse{Entries: make([]PaletteEntry, 0, entries.Len())}
	for _, a := range registry.List(entries) {
		if a.IsSeparator {
			continue
		}
		resp.Entries = append(resp.Entries, PaletteEntry{
			ID:       a.ID,
			Group:    a.Group,
			Title:    a.Title,
			Gestures: a.Gestures(),
		})
	}
	return resp, nil
}

func (s *Server) handleTrigger(ctx context.Context, _ mcp.CallToolRequest, args TriggerArgs) (domain.SessionSnapshot, error) {
	kind := domain.GestureClick
	if args.Gesture != "" {
		var ok bool
		if kind, ok = domain.ParseGestureKind(args.Gesture); !ok {
			return domain.SessionSnapshot{}, fmt.Errorf("unknown gesture %q", args.Gesture)
		}
	}
	g := domain.Gesture{Kind: kind, X: args.X, Y: args.Y}
	return s.apply(ctx, args.SessionID, func(ctx context.Context, sess *arbor.Session) error {
		return sess.Trigger(ctx, args.Action, kind, g)
	})
}

func (s *Server) handleZoom(ctx context.Context, _ mcp.CallToolRequest, args ZoomArgs) (ZoomResponse, error) {
	var fn func(*arbor.Session, context.Context) (float64, error)
	switch args.Direction {
	case "in":
		fn = (*arbor.Session).ZoomIn
	case "out":
		fn = (*arbor.Session).ZoomOut
	case "reset":
		fn = (*arbor.Session).ZoomReset
	default:
		return ZoomResponse{}, fmt.Errorf("unknown zoom direction %q", args.Direction)
	}
	var scale float64
	err := s.sessions.Do(ctx, args.SessionID, func(ctx context.Context, sess *arbor.Session) error {
		var err error
		scale, err = fn(sess, ctx)
		return err
	})
	return ZoomResponse{Scale: scale}, err
}

func (s *Server) handleSave(ctx context.Context, _ mcp.CallToolRequest, args SessionArgs) (SaveResponse, error) {
	var report domain.ValidationReport
	err := s.sessions.Do(ctx, args.SessionID, func(ctx context.Context, sess *arbor.Session) error {
		var err error
		report, err = sess.Save(ctx)
		return err
	})
	if err != nil {
		return SaveResponse{}, err
	}
	return SaveResponse{
		Filename: domain.ExportMarkup.DefaultFilename(),
		Valid:    report.IsValid(),
		Report:   report,
	}, nil
}

func (s *Server) handleDownload(ctx context.Context, _ mcp.CallToolRequest, args DownloadArgs) (DownloadResponse, error) {
	kind, err := domain.ParseExportKind(args.Kind)
	if err != nil {
		return DownloadResponse{}, err
	}
	var artifact domain.ExportArtifact
	err = s.sessions.Do(ctx, args.SessionID, func(ctx context.Context, sess *arbor.Session) error {
		var err error
		artifact, err = sess.Export(ctx, kind, "")
		return err
	})
	if err != nil {
		return DownloadResponse{}, err
	}
	return DownloadResponse{Kind: artifact.Kind, Filename: artifact.Filename, Bytes: len(artifact.Payload)}, nil
}

func (s *Server) handleUndo(ctx context.Context, _ mcp.CallToolRequest, args SessionArgs) (domain.SessionSnapshot, error) {
	return s.apply(ctx, args.SessionID, func(ctx context.Context, sess *arbor.Session) error {
		return sess.Undo(ctx)
	})
}

func (s *Server) handleRedo(ctx context.Context, _ mcp.CallToolRequest, args SessionArgs) (domain.SessionSnapshot, error) {
	return s.apply(ctx, args.SessionID, func(ctx context.Context, sess *arbor.Session) error {
		return sess.Redo(ctx)
	})
}

func (s *Server) handleSelect(ctx context.Context, _ mcp.CallToolRequest, args SelectArgs) (domain.SessionSnapshot, error) {
	return s.apply(ctx, args.SessionID, func(ctx context.Context, sess *arbor.Session) error {
		if args.Elements != nil {
			if err := sess.Select(ctx, args.Elements...); err != nil {
				return err
			}
		}
		if args.Value != nil {
			return sess.MarkSelected(ctx, *args.Value)
		}
		return nil
	})
}

// apply runs fn and returns the resulting snapshot.
func (s *Server) apply(ctx context.Context, sessionID string, fn func(context.Context, *arbor.Session) error) (domain.SessionSnapshot, error) {
	err := s.sessions.Do(ctx, sessionID, fn)
	if err != nil {
		s.logger.Debug("MCP tool failed", "session_id", sessionID, "error", err)
		return domain.SessionSnapshot{}, err
	}
	snap, err := s.sessions.Snapshot(ctx, sessionID)
	if err != nil {
		return domain.SessionSnapshot{}, err
	}
	return *snap, nil
}

func (s *Server) registerResources() {
	s.mcpServer.AddResource(mcp.NewResource("arbor://sessions", "Editing sessions",
		mcp.WithMIMEType("application/json"),
	), func(ctx context.Context, request mcp.ReadResourceRequest) ([]mcp.ResourceContents, error) {
		ids, err := s.sessions.List(ctx)
		if err != nil {
			return nil, fmt.Errorf("failed to list sessions: %w", err)
		}
		if ids == nil {
			ids = []string{}
		}
		jsonBytes, _ := json.Marshal(ids)

		return []mcp.ResourceContents{
			mcp.TextResourceContents{
				URI:      "arbor://sessions",
				MIMEType: "application/json",
				Text:     string(jsonBytes),
			},
		}, nil
	})
}
