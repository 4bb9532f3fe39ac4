package ports

import (
	"context"

	"github.com/aretw0/arbor/pkg/domain"
)

// ShapeFactory instantiates shape descriptors.
// Unrecognized element types are a caller contract violation; implementations
// return an error wrapping domain.ErrUnknownElementType.
type ShapeFactory interface {
	CreateShape(req domain.ShapeCreationRequest) (*domain.Shape, error)
	CreateParticipantShape() (*domain.Shape, error)
}

// Placement is the engine's interactive flow for positioning a new shape.
// Once Begin returns, completion and commit belong to the engine.
type Placement interface {
	Begin(ctx context.Context, g domain.Gesture, shape *domain.Shape) error
}

// CommandStack is the engine command history.
type CommandStack interface {
	Undo() error
	Redo() error
	CanUndo() bool
	CanRedo() bool
}

// Canvas applies view transforms.
type Canvas interface {
	SetZoom(scale float64) error
}

// SerializeOptions is passed verbatim to the engine serializer.
type SerializeOptions struct {
	Format bool
}

// SerializeCallback receives the serialized text or the engine error.
type SerializeCallback func(text string, err error)

// Serializer produces the exchanged representations of the diagram.
// Both operations are asynchronous: the callback may run on another goroutine
// after the call returns.
type Serializer interface {
	SerializeMarkup(opts SerializeOptions, cb SerializeCallback)
	SerializeVector(opts SerializeOptions, cb SerializeCallback)
}

// EventSource delivers engine notifications in emission order.
type EventSource interface {
	On(event string, handler func(domain.EngineEvent)) (unsubscribe func())
}

// Translator produces display strings for palette titles.
type Translator interface {
	Translate(key string, params map[string]string) string
}

// Tools exposes the engine interaction modes used by the palette.
// Hand and lasso are mutually exclusive; the engine owns that rule.
type Tools interface {
	ActivateHand(g domain.Gesture) error
	ActivateLasso(g domain.Gesture) error
	ToggleConnect(g domain.Gesture) error
}

// Modeling mutates element properties.
type Modeling interface {
	UpdateProperties(elementID string, props map[string]string) error
	SetColor(elementID, fill, stroke string) error
}

// DiagramEngine is the full capability surface consumed by a session.
type DiagramEngine interface {
	ShapeFactory
	Placement
	CommandStack
	Canvas
	Serializer
	EventSource
	Translator
	Tools
	Modeling
}

// Selector is implemented by engines that accept selection changes from
// outside the canvas. Changes are reported through selection.changed.
type Selector interface {
	Select(ids ...string) error
}

// Importer is implemented by engines that can load a diagram document,
// replacing the current one. Used to restore a persisted session.
type Importer interface {
	ImportMarkup(markup string) error
}
