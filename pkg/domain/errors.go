package domain

import "errors"

// ErrProviderFailed wraps a provider error raised while building the palette.
// It is a configuration error and fatal for session start.
var ErrProviderFailed = errors.New("palette provider failed")

// ErrUnknownAction is returned when an action id is not in the merged registry.
var ErrUnknownAction = errors.New("unknown palette action")

// ErrGestureUnsupported is returned when an action has no handler for the gesture.
var ErrGestureUnsupported = errors.New("gesture not supported by action")

// ErrSeparatorDispatch is returned when a gesture targets a separator.
var ErrSeparatorDispatch = errors.New("separators do not dispatch gestures")

// ErrUnknownElementType is raised by engine shape factories for unrecognized types.
var ErrUnknownElementType = errors.New("unknown element type")

// ErrSerialization marks an engine-reported serialization failure.
var ErrSerialization = errors.New("diagram serialization failed")

// ErrParse marks markup the structural validator could not parse.
var ErrParse = errors.New("diagram markup could not be parsed")

// ErrStructurallyInvalid is returned by strict callers when a report is not valid.
var ErrStructurallyInvalid = errors.New("a process must have a start and an end node")

// ErrNoSelection is returned by operations that require a selected element.
var ErrNoSelection = errors.New("no element selected")

// ErrSessionNotFound is returned when a session ID cannot be found.
var ErrSessionNotFound = errors.New("session not found")

// ErrElementNotFound is returned when an operation names an element that is
// not on the canvas.
var ErrElementNotFound = errors.New("element not found")
