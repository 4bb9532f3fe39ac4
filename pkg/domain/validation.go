package domain

// ValidationReport is created fresh on every save attempt and never persisted
// beyond the session snapshot.
type ValidationReport struct {
	HasStart bool `json:"has_start"`
	HasEnd   bool `json:"has_end"`
}

// IsValid is true when the process has both a start and an end event.
func (r ValidationReport) IsValid() bool {
	return r.HasStart && r.HasEnd
}
