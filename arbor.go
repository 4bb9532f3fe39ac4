package arbor

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"github.com/aretw0/arbor/internal/logging"
	"github.com/aretw0/arbor/pkg/domain"
	"github.com/aretw0/arbor/pkg/export"
	"github.com/aretw0/arbor/pkg/gesture"
	"github.com/aretw0/arbor/pkg/palette"
	"github.com/aretw0/arbor/pkg/ports"
	"github.com/aretw0/arbor/pkg/registry"
	"github.com/aretw0/arbor/pkg/validator"
	"github.com/aretw0/arbor/pkg/zoom"
	"github.com/google/uuid"
)

// MessageInvalidProcess is the translation key of the advisory notice shown
// when a saved process lacks a start or an end event.
const MessageInvalidProcess = "a process must have a start and an end node"

// Session is the coordination point of one editing session. It wires the
// action registry, zoom controller, export serializer and structural
// validator to UI triggers and to the engine's notifications.
//
// A Session handles one UI event at a time; callers that share it across
// goroutines must serialize access (see pkg/session). Engine notifications
// may arrive on any goroutine.
type Session struct {
	id         string
	engine     ports.DiagramEngine
	registry   *registry.Registry
	zoom       *zoom.Controller
	exporter   *export.Serializer
	notifier   ports.Notifier
	translator ports.Translator
	logger     *slog.Logger
	hooks      domain.LifecycleHooks

	providers     []registry.Provider
	skipDefault   bool
	collaboration bool
	downloader    ports.Downloader
	zoomOpts      []zoom.Option
	restoreScale  bool
	diagram       string
	restoreSel    *domain.Element

	mu          sync.Mutex
	selection   *domain.Element
	lastReport  *domain.ValidationReport
	lastExport  string
	unsubscribe []func()
}

// Option configures a Session.
type Option func(*Session)

// WithID sets the session ID. A random UUID is used otherwise.
func WithID(id string) Option {
	return func(s *Session) {
		s.id = id
	}
}

// WithProviders registers additional palette providers after the default one.
func WithProviders(providers ...registry.Provider) Option {
	return func(s *Session) {
		s.providers = append(s.providers, providers...)
	}
}

// WithoutDefaultProvider skips the built-in BPMN palette provider.
func WithoutDefaultProvider() Option {
	return func(s *Session) {
		s.skipDefault = true
	}
}

// WithCollaboration adds the participant (pool) entry to the palette.
func WithCollaboration() Option {
	return func(s *Session) {
		s.collaboration = true
	}
}

// WithDownloader sets the file-save trigger used by exports and saves.
func WithDownloader(d ports.Downloader) Option {
	return func(s *Session) {
		s.downloader = d
	}
}

// WithNotifier sets the sink for user-visible notices.
// By default notices are only logged.
func WithNotifier(n ports.Notifier) Option {
	return func(s *Session) {
		s.notifier = n
	}
}

// WithTranslator overrides the engine translator for palette titles and notices.
func WithTranslator(t ports.Translator) Option {
	return func(s *Session) {
		s.translator = t
	}
}

// WithLogger sets a custom structured logger.
func WithLogger(logger *slog.Logger) Option {
	return func(s *Session) {
		s.logger = logger
	}
}

// WithLifecycleHooks registers observability hooks.
func WithLifecycleHooks(hooks domain.LifecycleHooks) Option {
	return func(s *Session) {
		s.hooks = hooks
	}
}

// WithZoomStep sets the delta used by ZoomIn and ZoomOut.
func WithZoomStep(step float64) Option {
	return func(s *Session) {
		s.zoomOpts = append(s.zoomOpts, zoom.WithStep(step))
	}
}

// WithInitialScale restores a persisted scale. New forwards it to the
// canvas; a rejected value fails the session start.
func WithInitialScale(scale float64) Option {
	return func(s *Session) {
		s.zoomOpts = append(s.zoomOpts, zoom.WithInitialScale(scale))
		s.restoreScale = true
	}
}

// WithDiagram imports markup into the engine before the session starts.
// The engine must implement ports.Importer.
func WithDiagram(markup string) Option {
	return func(s *Session) {
		s.diagram = markup
	}
}

// WithSelection restores a persisted selection when the engine implements
// ports.Selector. An element missing from the diagram is ignored.
func WithSelection(el *domain.Element) Option {
	return func(s *Session) {
		s.restoreSel = el
	}
}

// ErrImportUnsupported is returned by New when a diagram is given to an
// engine that cannot import markup.
var ErrImportUnsupported = errors.New("engine does not support diagram import")

// New starts an editing session on engine. Providers are registered once;
// the palette is built immediately and a provider failure is returned as a
// fatal configuration error.
func New(engine ports.DiagramEngine, opts ...Option) (*Session, error) {
	if engine == nil {
		return nil, fmt.Errorf("diagram engine is required")
	}
	s := &Session{engine: engine}
	for _, opt := range opts {
		opt(s)
	}

	if s.id == "" {
		s.id = uuid.NewString()
	}
	if s.logger == nil {
		s.logger = logging.NewNop()
	}
	s.logger = s.logger.With("session_id", s.id)
	if s.translator == nil {
		s.translator = engine
	}
	if s.notifier == nil {
		s.notifier = logNotifier{logger: s.logger}
	}

	if s.diagram != "" {
		importer, ok := engine.(ports.Importer)
		if !ok {
			return nil, ErrImportUnsupported
		}
		if err := importer.ImportMarkup(s.diagram); err != nil {
			return nil, fmt.Errorf("failed to import diagram: %w", err)
		}
	}

	creator := gesture.NewCreator(engine, engine)
	s.registry = registry.New()
	if !s.skipDefault {
		s.registry.Register(palette.NewDefaultProvider(engine, creator, s.translator))
	}
	if s.collaboration {
		s.registry.Register(palette.NewParticipantProvider(creator, s.translator))
	}
	for _, p := range s.providers {
		s.registry.Register(p)
	}

	s.zoom = zoom.New(engine, s.zoomOpts...)
	s.exporter = export.New(engine, s.downloader)

	entries, err := s.registry.Entries(context.Background(), nil)
	if err != nil {
		return nil, fmt.Errorf("failed to build palette: %w", err)
	}

	s.unsubscribe = append(s.unsubscribe,
		engine.On(domain.EventSelectionChanged, s.onSelectionChanged),
		engine.On(domain.EventElementChanged, s.onElementChanged),
	)

	if s.restoreScale {
		if err := s.zoom.Apply(); err != nil {
			s.Close()
			return nil, fmt.Errorf("failed to restore zoom: %w", err)
		}
	}
	if s.restoreSel != nil {
		if sel, ok := engine.(ports.Selector); ok {
			if err := sel.Select(s.restoreSel.ID); err != nil {
				s.logger.Warn("Persisted selection not restored", "element", s.restoreSel.ID, "err", err)
			}
		}
	}

	s.logger.Debug("Session started", "providers", s.registry.Len(), "palette_entries", entries.Len())
	return s, nil
}

// ID returns the session ID.
func (s *Session) ID() string { return s.id }

// Registry returns the session's action registry.
func (s *Session) Registry() *registry.Registry { return s.registry }

// Close detaches the session from engine notifications.
func (s *Session) Close() {
	s.mu.Lock()
	unsub := s.unsubscribe
	s.unsubscribe = nil
	s.mu.Unlock()
	for _, fn := range unsub {
		if fn != nil {
			fn()
		}
	}
}

func (s *Session) onSelectionChanged(e domain.EngineEvent) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if len(e.Selection) == 0 {
		s.selection = nil
		return
	}
	first := e.Selection[0]
	s.selection = &first
}

func (s *Session) onElementChanged(e domain.EngineEvent) {
	if e.Element == nil {
		return
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	el := *e.Element
	s.selection = &el
}

// Selection returns a copy of the current selection, or nil.
func (s *Session) Selection() *domain.Element {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.selection == nil {
		return nil
	}
	el := *s.selection
	return &el
}

// Palette returns the merged palette for the current selection.
func (s *Session) Palette(ctx context.Context) (*registry.Entries, error) {
	return s.registry.Entries(ctx, s.Selection())
}

// Trigger dispatches a gesture on a palette action.
func (s *Session) Trigger(ctx context.Context, actionID string, kind domain.GestureKind, g domain.Gesture) error {
	action, err := s.registry.Lookup(ctx, s.Selection(), actionID)
	if err == nil {
		err = gesture.Dispatch(ctx, action, kind, g)
	}
	if s.hooks.OnAction != nil {
		s.hooks.OnAction(ctx, &domain.ActionEvent{
			EventBase: s.event(),
			ActionID:  actionID,
			Gesture:   kind,
			Err:       err,
		})
	}
	if err != nil {
		s.logger.Warn("Palette action failed", "action", actionID, "gesture", kind, "err", err)
		return err
	}
	s.logger.Debug("Palette action dispatched", "action", actionID, "gesture", kind)
	return nil
}

// Undo delegates to the engine command history.
func (s *Session) Undo(ctx context.Context) error {
	if err := s.engine.Undo(); err != nil {
		return fmt.Errorf("undo: %w", err)
	}
	return nil
}

// Redo delegates to the engine command history.
func (s *Session) Redo(ctx context.Context) error {
	if err := s.engine.Redo(); err != nil {
		return fmt.Errorf("redo: %w", err)
	}
	return nil
}

// Scale returns the current zoom scale.
func (s *Session) Scale() float64 { return s.zoom.Scale() }

// Zoom applies a relative delta; nil resets to 1.0.
func (s *Session) Zoom(ctx context.Context, delta *float64) (float64, error) {
	prev := s.zoom.Scale()
	next, err := s.zoom.Zoom(delta)
	if err != nil {
		return next, err
	}
	if s.hooks.OnZoom != nil {
		clamped := delta != nil && prev+*delta < zoom.Floor
		s.hooks.OnZoom(ctx, &domain.ZoomEvent{EventBase: s.event(), Previous: prev, Scale: next, Clamped: clamped})
	}
	return next, nil
}

// ZoomIn grows the scale by one step.
func (s *Session) ZoomIn(ctx context.Context) (float64, error) {
	d := s.zoom.Step()
	return s.Zoom(ctx, &d)
}

// ZoomOut shrinks the scale by one step, saturating at the floor.
func (s *Session) ZoomOut(ctx context.Context) (float64, error) {
	d := -s.zoom.Step()
	return s.Zoom(ctx, &d)
}

// ZoomReset sets the scale to exactly 1.0.
func (s *Session) ZoomReset(ctx context.Context) (float64, error) {
	return s.Zoom(ctx, nil)
}

// DownloadMarkup exports the diagram as BPMN markup.
func (s *Session) DownloadMarkup(ctx context.Context) (domain.ExportArtifact, error) {
	return s.Export(ctx, domain.ExportMarkup, "")
}

// DownloadVector exports the diagram as an SVG image.
func (s *Session) DownloadVector(ctx context.Context) (domain.ExportArtifact, error) {
	return s.Export(ctx, domain.ExportVector, "")
}

// Export serializes the diagram and hands the artifact to the downloader.
// Failures are surfaced as notices and returned.
func (s *Session) Export(ctx context.Context, kind domain.ExportKind, filename string) (domain.ExportArtifact, error) {
	artifact, err := s.exporter.Export(ctx, kind, filename)
	if s.hooks.OnExport != nil {
		s.hooks.OnExport(ctx, &domain.ExportEvent{
			EventBase: s.event(),
			Kind:      kind,
			Filename:  artifact.Filename,
			Bytes:     len(artifact.Payload),
			Err:       err,
		})
	}
	if err != nil {
		code := domain.CodeDownloadFailure
		if errors.Is(err, domain.ErrSerialization) {
			code = domain.CodeSerializationFailure
		}
		s.logger.Error("Export failed", "kind", kind, "err", err)
		s.notify(ctx, domain.Notice{Level: domain.NoticeError, Code: code, Message: err.Error()})
		return artifact, err
	}

	s.mu.Lock()
	s.lastExport = artifact.Filename
	s.mu.Unlock()
	s.logger.Info("Export completed", "kind", kind, "filename", artifact.Filename, "bytes", len(artifact.Payload))
	return artifact, nil
}

// Save exports the markup and then runs the structural check on it.
// The check is advisory: an invalid process raises a notice but the export
// is not reversed and no error is returned. Serialization and parse failures
// are returned; the validator does not run after a serialization failure.
func (s *Session) Save(ctx context.Context) (domain.ValidationReport, error) {
	artifact, err := s.Export(ctx, domain.ExportMarkup, "")
	if err != nil {
		return domain.ValidationReport{}, err
	}

	report, err := validator.New().Check(artifact.Payload)
	if s.hooks.OnValidate != nil {
		s.hooks.OnValidate(ctx, &domain.ValidateEvent{EventBase: s.event(), Report: report, Err: err})
	}
	if err != nil {
		s.logger.Error("Saved markup could not be parsed", "err", err)
		s.notify(ctx, domain.Notice{Level: domain.NoticeError, Code: domain.CodeParseFailure, Message: err.Error()})
		return domain.ValidationReport{}, err
	}

	s.mu.Lock()
	s.lastReport = &report
	s.mu.Unlock()

	if !report.IsValid() {
		s.logger.Warn("Process is structurally invalid", "has_start", report.HasStart, "has_end", report.HasEnd)
		s.notify(ctx, domain.Notice{
			Level:   domain.NoticeWarn,
			Code:    domain.CodeStructurallyInvalid,
			Message: s.translator.Translate(MessageInvalidProcess, nil),
		})
	}
	return report, nil
}

// ErrSelectUnsupported is returned by Select when the engine only changes the
// selection from its own canvas.
var ErrSelectUnsupported = errors.New("engine does not support external selection")

// Select replaces the engine selection. The session learns about the change
// through the engine's selection.changed notification.
func (s *Session) Select(ctx context.Context, ids ...string) error {
	sel, ok := s.engine.(ports.Selector)
	if !ok {
		return ErrSelectUnsupported
	}
	if err := sel.Select(ids...); err != nil {
		return fmt.Errorf("select %v: %w", ids, err)
	}
	return nil
}

// MarkSelected stores value as the custom property of the selected element
// and highlights it.
func (s *Session) MarkSelected(ctx context.Context, value string) error {
	sel := s.Selection()
	if sel == nil {
		return domain.ErrNoSelection
	}
	if err := s.engine.UpdateProperties(sel.ID, map[string]string{"custom-property": value}); err != nil {
		return fmt.Errorf("update properties of %s: %w", sel.ID, err)
	}
	if err := s.engine.SetColor(sel.ID, "yellow", "orange"); err != nil {
		return fmt.Errorf("set color of %s: %w", sel.ID, err)
	}
	return nil
}

// Diagram serializes the current markup without downloading it or raising
// notices.
func (s *Session) Diagram(ctx context.Context) (string, error) {
	artifact, err := s.exporter.Serialize(ctx, domain.ExportMarkup, "")
	if err != nil {
		return "", err
	}
	return artifact.Payload, nil
}

// Snapshot captures the persistable view state of the session.
func (s *Session) Snapshot() *domain.SessionSnapshot {
	snap := &domain.SessionSnapshot{
		ID:        s.id,
		Scale:     s.zoom.Scale(),
		Selection: s.Selection(),
		CanUndo:   s.engine.CanUndo(),
		CanRedo:   s.engine.CanRedo(),
		UpdatedAt: time.Now().UTC(),
	}
	if entries, err := s.Palette(context.Background()); err == nil {
		snap.PaletteCount = entries.Len()
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.lastReport != nil {
		r := *s.lastReport
		snap.LastReport = &r
	}
	snap.LastExport = s.lastExport
	return snap
}

func (s *Session) notify(ctx context.Context, n domain.Notice) {
	if err := s.notifier.Notify(ctx, n); err != nil {
		s.logger.Warn("Failed to deliver notice", "code", n.Code, "err", err)
	}
}

func (s *Session) event() domain.EventBase {
	return domain.EventBase{Timestamp: time.Now(), SessionID: s.id}
}

type logNotifier struct {
	logger *slog.Logger
}

func (n logNotifier) Notify(_ context.Context, notice domain.Notice) error {
	n.logger.Warn("Notice", "level", notice.Level, "code", notice.Code, "message", notice.Message)
	return nil
}
