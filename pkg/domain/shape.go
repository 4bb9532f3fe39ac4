package domain

import "strings"

// ElementType is a namespaced type tag such as "bpmn:StartEvent".
type ElementType string

// Common BPMN element types created from the palette.
const (
	TypeStartEvent       ElementType = "bpmn:StartEvent"
	TypeEndEvent         ElementType = "bpmn:EndEvent"
	TypeExclusiveGateway ElementType = "bpmn:ExclusiveGateway"
	TypeUserTask         ElementType = "bpmn:UserTask"
	TypeParticipant      ElementType = "bpmn:Participant"
	TypeProcess          ElementType = "bpmn:Process"
	TypeSequenceFlow     ElementType = "bpmn:SequenceFlow"
)

// Namespace returns the prefix before the colon, or "" if there is none.
func (t ElementType) Namespace() string {
	ns, _, ok := strings.Cut(string(t), ":")
	if !ok {
		return ""
	}
	return ns
}

// Local returns the type name without its namespace.
func (t ElementType) Local() string {
	_, local, ok := strings.Cut(string(t), ":")
	if !ok {
		return string(t)
	}
	return local
}

// CreateOptions are optional creation parameters.
// IsExpanded is a pointer so that "absent" differs from "false".
type CreateOptions struct {
	X          float64 `json:"x,omitempty"`
	Y          float64 `json:"y,omitempty"`
	Width      float64 `json:"width,omitempty"`
	Height     float64 `json:"height,omitempty"`
	IsExpanded *bool   `json:"is_expanded,omitempty"`
}

// ShapeCreationRequest is produced when a creation action fires.
type ShapeCreationRequest struct {
	ElementType    ElementType   `json:"element_type"`
	DefaultOptions CreateOptions `json:"default_options"`
}

// Shape is the descriptor instantiated by the engine shape factory.
type Shape struct {
	ID         string            `json:"id"`
	Type       ElementType       `json:"type"`
	X          float64           `json:"x"`
	Y          float64           `json:"y"`
	Width      float64           `json:"width"`
	Height     float64           `json:"height"`
	IsExpanded bool              `json:"is_expanded,omitempty"`
	Properties map[string]string `json:"properties,omitempty"`
}

// Element is a reference to a diagram element, used as the current selection.
type Element struct {
	ID   string      `json:"id"`
	Type ElementType `json:"type"`
}
