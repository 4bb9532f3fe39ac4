package domain

import (
	"context"
	"time"
)

// Engine notification names the session subscribes to.
const (
	EventSelectionChanged = "selection.changed"
	EventElementChanged   = "element.changed"
)

// EngineEvent is a notification emitted by the diagram engine.
// For selection.changed, Selection holds the new selection (possibly empty);
// for element.changed, Element holds the changed element.
type EngineEvent struct {
	Name      string    `json:"name"`
	Selection []Element `json:"selection,omitempty"`
	Element   *Element  `json:"element,omitempty"`
}

// EventBase contains common fields for all lifecycle events.
type EventBase struct {
	Timestamp time.Time `json:"timestamp"`
	SessionID string    `json:"session_id"`
}

// ActionEvent is emitted when a palette action is dispatched.
type ActionEvent struct {
	EventBase
	ActionID string      `json:"action_id"`
	Gesture  GestureKind `json:"gesture"`
	Err      error       `json:"-"`
}

// ZoomEvent is emitted after the scale changes.
type ZoomEvent struct {
	EventBase
	Previous float64 `json:"previous"`
	Scale    float64 `json:"scale"`
	Clamped  bool    `json:"clamped"`
}

// ExportEvent is emitted once per export attempt.
type ExportEvent struct {
	EventBase
	Kind     ExportKind `json:"kind"`
	Filename string     `json:"filename,omitempty"`
	Bytes    int        `json:"bytes"`
	Err      error      `json:"-"`
}

// ValidateEvent is emitted after the structural check.
type ValidateEvent struct {
	EventBase
	Report ValidationReport `json:"report"`
	Err    error            `json:"-"`
}

// LifecycleHooks defines callbacks for session observability.
// Any hook may be nil.
type LifecycleHooks struct {
	OnAction   func(context.Context, *ActionEvent)
	OnZoom     func(context.Context, *ZoomEvent)
	OnExport   func(context.Context, *ExportEvent)
	OnValidate func(context.Context, *ValidateEvent)
}
