package loam

import "time"

// ArtifactMetadata is the frontmatter stored with each archived export.
// It uses "mapstructure" tags so Loam can decode the YAML header into it.
type ArtifactMetadata struct {
	Kind        string `json:"kind" mapstructure:"kind"`
	Filename    string `json:"filename" mapstructure:"filename"`
	ContentType string `json:"content_type" mapstructure:"content_type"`
	Session     string `json:"session,omitempty" mapstructure:"session"`
	Bytes       int    `json:"bytes" mapstructure:"bytes"`

	// ExportedAt is RFC 3339, kept as a string so the header stays readable.
	ExportedAt string `json:"exported_at" mapstructure:"exported_at"`
}

func (m ArtifactMetadata) exportedAt() time.Time {
	t, _ := time.Parse(time.RFC3339, m.ExportedAt)
	return t
}
