package domain

import "context"

// GestureKind identifies the UI gesture that fired a palette action.
type GestureKind string

const (
	GestureDragStart GestureKind = "dragstart"
	GestureClick     GestureKind = "click"
)

// ParseGestureKind maps a wire value onto a GestureKind.
func ParseGestureKind(s string) (GestureKind, bool) {
	switch GestureKind(s) {
	case GestureDragStart, GestureClick:
		return GestureKind(s), true
	}
	return "", false
}

// Gesture is the originating UI event forwarded to the engine.
// X and Y are canvas coordinates of the pointer when the gesture fired.
type Gesture struct {
	Kind GestureKind    `json:"kind"`
	X    float64        `json:"x"`
	Y    float64        `json:"y"`
	Data map[string]any `json:"data,omitempty"`
}

// Handler reacts to a gesture on a palette entry.
type Handler func(ctx context.Context, g Gesture) error

// ToolAction is a single palette entry.
type ToolAction struct {
	ID    string `json:"id"`
	Group string `json:"group"`
	Style string `json:"style,omitempty"` // opaque visual class tag
	Title string `json:"title,omitempty"`

	// Capabilities maps each supported gesture to its handler.
	// Separators have none.
	Capabilities map[GestureKind]Handler `json:"-"`
	IsSeparator  bool                    `json:"separator,omitempty"`

	// ElementType is set for creation actions only.
	ElementType ElementType   `json:"element_type,omitempty"`
	Options     CreateOptions `json:"options,omitempty"`
}

// Supports reports whether the action has a handler for the gesture kind.
func (a ToolAction) Supports(kind GestureKind) bool {
	if a.IsSeparator {
		return false
	}
	_, ok := a.Capabilities[kind]
	return ok
}

// Gestures lists the supported gesture kinds in a stable order.
func (a ToolAction) Gestures() []GestureKind {
	var out []GestureKind
	for _, k := range []GestureKind{GestureClick, GestureDragStart} {
		if a.Supports(k) {
			out = append(out, k)
		}
	}
	return out
}

// Separator builds a layout-only palette entry.
func Separator(id, group string) ToolAction {
	return ToolAction{ID: id, Group: group, IsSeparator: true}
}
