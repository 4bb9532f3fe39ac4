package domain

import "fmt"

// ExportKind selects the serialization requested from the engine.
type ExportKind string

const (
	ExportMarkup ExportKind = "markup"
	ExportVector ExportKind = "vector"
)

// ParseExportKind accepts the canonical names plus the "xml"/"svg" aliases
// used by download buttons.
func ParseExportKind(s string) (ExportKind, error) {
	switch s {
	case string(ExportMarkup), "xml", "bpmn":
		return ExportMarkup, nil
	case string(ExportVector), "svg":
		return ExportVector, nil
	}
	return "", fmt.Errorf("unknown export kind %q", s)
}

// Extension returns the fixed file extension for the kind.
func (k ExportKind) Extension() string {
	switch k {
	case ExportMarkup:
		return "bpmn"
	case ExportVector:
		return "svg"
	}
	return ""
}

// ContentType is the media type used when the artifact leaves the process.
func (k ExportKind) ContentType() string {
	if k == ExportVector {
		return "image/svg+xml"
	}
	return "application/bpmn20-xml"
}

// DefaultFilename is "diagram.<ext>".
func (k ExportKind) DefaultFilename() string {
	return "diagram." + k.Extension()
}

// ExportArtifact is a serialized diagram, used for exactly one download.
type ExportArtifact struct {
	Kind     ExportKind `json:"kind"`
	Payload  string     `json:"payload"`
	Filename string     `json:"filename"`
}

// NewArtifact wraps a payload, defaulting the filename from the kind.
func NewArtifact(kind ExportKind, payload, filename string) ExportArtifact {
	if filename == "" {
		filename = kind.DefaultFilename()
	}
	return ExportArtifact{Kind: kind, Payload: payload, Filename: filename}
}
