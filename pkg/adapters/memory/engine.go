package memory

import (
	"context"
	"fmt"
	"math"
	"slices"
	"sync"

	"github.com/aretw0/arbor/pkg/domain"
	"github.com/aretw0/arbor/pkg/i18n"
	"github.com/aretw0/arbor/pkg/ports"
)

// ErrElementNotFound aliases domain.ErrElementNotFound.
var ErrElementNotFound = domain.ErrElementNotFound

// Mode is the exclusive interaction mode of the canvas.
type Mode string

const (
	ModeNone  Mode = ""
	ModeHand  Mode = "hand"
	ModeLasso Mode = "lasso"
)

type size struct{ w, h float64 }

// shapeSizes lists the element types the factory recognizes and their
// default bounds.
var shapeSizes = map[domain.ElementType]size{
	domain.TypeStartEvent:         {36, 36},
	domain.TypeEndEvent:           {36, 36},
	"bpmn:IntermediateThrowEvent": {36, 36},
	domain.TypeExclusiveGateway:   {50, 50},
	"bpmn:ParallelGateway":        {50, 50},
	domain.TypeUserTask:           {100, 80},
	"bpmn:Task":                   {100, 80},
	"bpmn:ServiceTask":            {100, 80},
	"bpmn:SubProcess":             {350, 200},
	domain.TypeParticipant:        {600, 250},
}

// command is one entry of the undo history. apply and revert run with the
// engine lock held.
type command struct {
	element domain.Element
	creates bool
	apply   func()
	revert  func()
}

// Engine is an in-memory diagram engine. It keeps the diagram as a flat list
// of shapes, records every mutation on a command stack and serializes the
// diagram to BPMN markup or SVG on demand.
//
// Engine is safe for concurrent use. Handlers registered with On run on the
// goroutine that caused the notification, after the engine lock is released.
type Engine struct {
	mu       sync.Mutex
	shapes   []*domain.Shape
	seq      int
	undo     []command
	redo     []command
	scale    float64
	mode     Mode
	connect  bool
	selected []domain.Element
	failures map[domain.ExportKind]error

	translator ports.Translator
	syncCalls  bool
	empty      bool

	subMu sync.Mutex
	subID int
	subs  map[string][]subscription
}

type subscription struct {
	id int
	fn func(domain.EngineEvent)
}

// EngineOption configures an Engine.
type EngineOption func(*Engine)

// WithTranslator replaces the passthrough translator.
func WithTranslator(t ports.Translator) EngineOption {
	return func(e *Engine) {
		e.translator = t
	}
}

// WithSynchronousCallbacks runs serializer callbacks before SerializeMarkup
// and SerializeVector return instead of on a new goroutine.
func WithSynchronousCallbacks() EngineOption {
	return func(e *Engine) {
		e.syncCalls = true
	}
}

// WithEmptyDiagram starts from a process with no elements instead of the
// default diagram with a single start event.
func WithEmptyDiagram() EngineOption {
	return func(e *Engine) {
		e.empty = true
	}
}

// NewEngine creates an engine holding the default diagram.
func NewEngine(opts ...EngineOption) *Engine {
	e := &Engine{
		scale:    1.0,
		failures: make(map[domain.ExportKind]error),
		subs:     make(map[string][]subscription),
	}
	for _, opt := range opts {
		opt(e)
	}
	if e.translator == nil {
		e.translator = passthrough{}
	}
	if !e.empty {
		e.shapes = append(e.shapes, &domain.Shape{
			ID:     "StartEvent_1",
			Type:   domain.TypeStartEvent,
			X:      412,
			Y:      240,
			Width:  36,
			Height: 36,
		})
	}
	return e
}

type passthrough struct{}

func (passthrough) Translate(key string, params map[string]string) string {
	return i18n.Interpolate(key, params)
}

// CreateShape implements ports.ShapeFactory.
func (e *Engine) CreateShape(req domain.ShapeCreationRequest) (*domain.Shape, error) {
	sz, ok := shapeSizes[req.ElementType]
	if !ok {
		return nil, fmt.Errorf("%w: %s", domain.ErrUnknownElementType, req.ElementType)
	}
	opts := req.DefaultOptions
	if opts.Width > 0 {
		sz.w = opts.Width
	}
	if opts.Height > 0 {
		sz.h = opts.Height
	}

	e.mu.Lock()
	id := e.nextID(req.ElementType)
	e.mu.Unlock()

	shape := &domain.Shape{
		ID:     id,
		Type:   req.ElementType,
		X:      opts.X,
		Y:      opts.Y,
		Width:  sz.w,
		Height: sz.h,
	}
	if opts.IsExpanded != nil {
		shape.IsExpanded = *opts.IsExpanded
	}
	return shape, nil
}

// CreateParticipantShape implements ports.ShapeFactory.
func (e *Engine) CreateParticipantShape() (*domain.Shape, error) {
	shape, err := e.CreateShape(domain.ShapeCreationRequest{ElementType: domain.TypeParticipant})
	if err != nil {
		return nil, err
	}
	shape.IsExpanded = true
	return shape, nil
}

func (e *Engine) nextID(t domain.ElementType) string {
	for {
		e.seq++
		id := fmt.Sprintf("%s_%d", t.Local(), e.seq)
		if e.indexOf(id) < 0 {
			return id
		}
	}
}

func (e *Engine) indexOf(id string) int {
	return slices.IndexFunc(e.shapes, func(s *domain.Shape) bool { return s.ID == id })
}

// Begin implements ports.Placement. The in-memory engine completes placement
// immediately: the shape is centered on the gesture position, committed as an
// undoable command and selected.
func (e *Engine) Begin(ctx context.Context, g domain.Gesture, shape *domain.Shape) error {
	if shape == nil {
		return fmt.Errorf("placement requires a shape")
	}
	if err := ctx.Err(); err != nil {
		return err
	}

	placed := *shape
	placed.X = g.X - placed.Width/2
	placed.Y = g.Y - placed.Height/2
	el := domain.Element{ID: placed.ID, Type: placed.Type}

	e.mu.Lock()
	if e.indexOf(placed.ID) >= 0 {
		e.mu.Unlock()
		return fmt.Errorf("element %s already exists", placed.ID)
	}
	e.execute(command{
		element: el,
		creates: true,
		apply: func() {
			p := placed
			e.shapes = append(e.shapes, &p)
			e.selected = []domain.Element{el}
		},
		revert: func() {
			if i := e.indexOf(el.ID); i >= 0 {
				e.shapes = slices.Delete(e.shapes, i, i+1)
			}
			e.dropSelected(el.ID)
		},
	})
	sel := slices.Clone(e.selected)
	e.mu.Unlock()

	e.emit(domain.EngineEvent{Name: domain.EventElementChanged, Element: &el})
	e.emit(domain.EngineEvent{Name: domain.EventSelectionChanged, Selection: sel})
	return nil
}

// execute applies cmd and records it. Callers hold e.mu.
func (e *Engine) execute(cmd command) {
	cmd.apply()
	e.undo = append(e.undo, cmd)
	e.redo = nil
}

func (e *Engine) dropSelected(id string) {
	e.selected = slices.DeleteFunc(e.selected, func(el domain.Element) bool { return el.ID == id })
}

// Undo implements ports.CommandStack. Undo on an empty history is a no-op.
func (e *Engine) Undo() error {
	e.mu.Lock()
	if len(e.undo) == 0 {
		e.mu.Unlock()
		return nil
	}
	cmd := e.undo[len(e.undo)-1]
	e.undo = e.undo[:len(e.undo)-1]
	cmd.revert()
	e.redo = append(e.redo, cmd)
	sel := slices.Clone(e.selected)
	e.mu.Unlock()

	e.notifyReplay(cmd, sel)
	return nil
}

// Redo implements ports.CommandStack. Redo on an empty history is a no-op.
func (e *Engine) Redo() error {
	e.mu.Lock()
	if len(e.redo) == 0 {
		e.mu.Unlock()
		return nil
	}
	cmd := e.redo[len(e.redo)-1]
	e.redo = e.redo[:len(e.redo)-1]
	cmd.apply()
	e.undo = append(e.undo, cmd)
	sel := slices.Clone(e.selected)
	e.mu.Unlock()

	e.notifyReplay(cmd, sel)
	return nil
}

func (e *Engine) notifyReplay(cmd command, sel []domain.Element) {
	if cmd.creates {
		e.emit(domain.EngineEvent{Name: domain.EventSelectionChanged, Selection: sel})
		return
	}
	el := cmd.element
	e.emit(domain.EngineEvent{Name: domain.EventElementChanged, Element: &el})
}

// CanUndo implements ports.CommandStack.
func (e *Engine) CanUndo() bool {
	e.mu.Lock()
	defer e.mu.Unlock()
	return len(e.undo) > 0
}

// CanRedo implements ports.CommandStack.
func (e *Engine) CanRedo() bool {
	e.mu.Lock()
	defer e.mu.Unlock()
	return len(e.redo) > 0
}

// SetZoom implements ports.Canvas.
func (e *Engine) SetZoom(scale float64) error {
	if scale <= 0 || math.IsNaN(scale) || math.IsInf(scale, 0) {
		return fmt.Errorf("invalid zoom scale %v", scale)
	}
	e.mu.Lock()
	defer e.mu.Unlock()
	e.scale = scale
	return nil
}

// Scale returns the scale last applied to the canvas.
func (e *Engine) Scale() float64 {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.scale
}

// FailSerialization makes every serialization of kind fail with err until it
// is called again with a nil error.
func (e *Engine) FailSerialization(kind domain.ExportKind, err error) {
	e.mu.Lock()
	defer e.mu.Unlock()
	if err == nil {
		delete(e.failures, kind)
		return
	}
	e.failures[kind] = err
}

// SerializeMarkup implements ports.Serializer.
func (e *Engine) SerializeMarkup(opts ports.SerializeOptions, cb ports.SerializeCallback) {
	e.serialize(domain.ExportMarkup, opts, cb)
}

// SerializeVector implements ports.Serializer.
func (e *Engine) SerializeVector(opts ports.SerializeOptions, cb ports.SerializeCallback) {
	e.serialize(domain.ExportVector, opts, cb)
}

func (e *Engine) serialize(kind domain.ExportKind, opts ports.SerializeOptions, cb ports.SerializeCallback) {
	e.mu.Lock()
	err := e.failures[kind]
	shapes := e.cloneShapes()
	async := !e.syncCalls
	e.mu.Unlock()

	var text string
	if err == nil {
		if kind == domain.ExportVector {
			text = renderSVG(shapes, opts.Format)
		} else {
			text = renderMarkup(shapes, opts.Format)
		}
	}
	if async {
		go cb(text, err)
		return
	}
	cb(text, err)
}

func (e *Engine) cloneShapes() []domain.Shape {
	out := make([]domain.Shape, 0, len(e.shapes))
	for _, s := range e.shapes {
		c := *s
		if s.Properties != nil {
			c.Properties = make(map[string]string, len(s.Properties))
			for k, v := range s.Properties {
				c.Properties[k] = v
			}
		}
		out = append(out, c)
	}
	return out
}

// Elements returns a copy of the shapes on the canvas in creation order.
func (e *Engine) Elements() []domain.Shape {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.cloneShapes()
}

// Element returns a copy of the shape with the given ID.
func (e *Engine) Element(id string) (domain.Shape, bool) {
	e.mu.Lock()
	defer e.mu.Unlock()
	i := e.indexOf(id)
	if i < 0 {
		return domain.Shape{}, false
	}
	return e.cloneShapes()[i], true
}

// Select replaces the selection and emits selection.changed.
// Calling it with no IDs clears the selection.
func (e *Engine) Select(ids ...string) error {
	e.mu.Lock()
	sel := make([]domain.Element, 0, len(ids))
	for _, id := range ids {
		i := e.indexOf(id)
		if i < 0 {
			e.mu.Unlock()
			return fmt.Errorf("%w: %s", ErrElementNotFound, id)
		}
		sel = append(sel, domain.Element{ID: id, Type: e.shapes[i].Type})
	}
	e.selected = sel
	e.mu.Unlock()

	e.emit(domain.EngineEvent{Name: domain.EventSelectionChanged, Selection: slices.Clone(sel)})
	return nil
}

// On implements ports.EventSource.
func (e *Engine) On(event string, handler func(domain.EngineEvent)) func() {
	e.subMu.Lock()
	defer e.subMu.Unlock()
	e.subID++
	id := e.subID
	e.subs[event] = append(e.subs[event], subscription{id: id, fn: handler})

	return func() {
		e.subMu.Lock()
		defer e.subMu.Unlock()
		e.subs[event] = slices.DeleteFunc(e.subs[event], func(s subscription) bool { return s.id == id })
	}
}

func (e *Engine) emit(ev domain.EngineEvent) {
	e.subMu.Lock()
	handlers := slices.Clone(e.subs[ev.Name])
	e.subMu.Unlock()
	for _, s := range handlers {
		s.fn(ev)
	}
}

// Translate implements ports.Translator.
func (e *Engine) Translate(key string, params map[string]string) string {
	return e.translator.Translate(key, params)
}

// ActivateHand implements ports.Tools.
func (e *Engine) ActivateHand(domain.Gesture) error {
	e.mu.Lock()
	defer e.mu.Unlock()
	e.mode = ModeHand
	return nil
}

// ActivateLasso implements ports.Tools.
func (e *Engine) ActivateLasso(domain.Gesture) error {
	e.mu.Lock()
	defer e.mu.Unlock()
	e.mode = ModeLasso
	return nil
}

// ToggleConnect implements ports.Tools.
func (e *Engine) ToggleConnect(domain.Gesture) error {
	e.mu.Lock()
	defer e.mu.Unlock()
	e.connect = !e.connect
	return nil
}

// Mode returns the active exclusive tool.
func (e *Engine) Mode() Mode {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.mode
}

// Connecting reports whether the global connect tool is active.
func (e *Engine) Connecting() bool {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.connect
}

// UpdateProperties implements ports.Modeling. An empty value removes the
// property.
func (e *Engine) UpdateProperties(elementID string, props map[string]string) error {
	e.mu.Lock()
	i := e.indexOf(elementID)
	if i < 0 {
		e.mu.Unlock()
		return fmt.Errorf("%w: %s", ErrElementNotFound, elementID)
	}
	target := e.shapes[i]
	el := domain.Element{ID: target.ID, Type: target.Type}

	prev := make(map[string]*string, len(props))
	for k := range props {
		if v, ok := target.Properties[k]; ok {
			prev[k] = &v
		} else {
			prev[k] = nil
		}
	}
	next := make(map[string]string, len(props))
	for k, v := range props {
		next[k] = v
	}

	e.execute(command{
		element: el,
		apply: func() {
			for k, v := range next {
				e.setProperty(el.ID, k, v)
			}
		},
		revert: func() {
			for k, v := range prev {
				if v == nil {
					e.setProperty(el.ID, k, "")
				} else {
					e.setProperty(el.ID, k, *v)
				}
			}
		},
	})
	e.mu.Unlock()

	e.emit(domain.EngineEvent{Name: domain.EventElementChanged, Element: &el})
	return nil
}

// SetColor implements ports.Modeling.
func (e *Engine) SetColor(elementID, fill, stroke string) error {
	return e.UpdateProperties(elementID, map[string]string{
		propFill:   fill,
		propStroke: stroke,
	})
}

const (
	propFill   = "fill"
	propStroke = "stroke"
)

// setProperty looks the shape up by ID since undo and redo of its creation
// replace the stored pointer. Callers hold e.mu.
func (e *Engine) setProperty(id, key, value string) {
	i := e.indexOf(id)
	if i < 0 {
		return
	}
	s := e.shapes[i]
	if value == "" {
		delete(s.Properties, key)
		return
	}
	if s.Properties == nil {
		s.Properties = make(map[string]string)
	}
	s.Properties[key] = value
}

var _ ports.DiagramEngine = (*Engine)(nil)
