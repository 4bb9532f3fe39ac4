package domain

import "time"

// SessionSnapshot is the persisted view of an editing session.
type SessionSnapshot struct {
	ID           string            `json:"id"`
	Scale        float64           `json:"scale"`
	Selection    *Element          `json:"selection,omitempty"`
	LastReport   *ValidationReport `json:"last_report,omitempty"`
	LastExport   string            `json:"last_export,omitempty"`
	CanUndo      bool              `json:"can_undo"`
	CanRedo      bool              `json:"can_redo"`
	UpdatedAt    time.Time         `json:"updated_at"`
	PaletteCount int               `json:"palette_count"`

	// Diagram is the markup of the diagram when the snapshot was persisted.
	// A restored session imports it into its new engine.
	Diagram string `json:"diagram,omitempty"`

	// Sealed holds the encrypted form of the snapshot when the store
	// encrypts at rest. Other fields are then left empty except ID.
	Sealed string `json:"sealed,omitempty"`
}
