// Package validator runs the save-time structural check on diagram markup.
package validator

import (
	"fmt"

	"github.com/aretw0/arbor/pkg/bpmn"
	"github.com/aretw0/arbor/pkg/domain"
)

// State is the validator lifecycle state.
type State int

const (
	Unchecked State = iota
	Checked
)

func (s State) String() string {
	if s == Checked {
		return "checked"
	}
	return "unchecked"
}

// Validator checks one freshly serialized document. Create one per save attempt.
type Validator struct {
	state  State
	report domain.ValidationReport
}

// New returns a validator in the Unchecked state.
func New() *Validator {
	return &Validator{}
}

// State returns the current lifecycle state.
func (v *Validator) State() State { return v.state }

// Report returns the report carried by the Checked state.
// ok is false while Unchecked.
func (v *Validator) Report() (domain.ValidationReport, bool) {
	return v.report, v.state == Checked
}

// Check parses markup and tests the first process for a start event and an
// end event. A parse failure wraps domain.ErrParse and leaves the validator
// Unchecked. A document without definitions or process yields a report with
// both flags false.
func (v *Validator) Check(markup string) (domain.ValidationReport, error) {
	root, err := bpmn.Parse(markup)
	if err != nil {
		return domain.ValidationReport{}, fmt.Errorf("%w: %w", domain.ErrParse, err)
	}

	v.report = Inspect(root)
	v.state = Checked
	return v.report, nil
}

// Inspect computes the report for an already parsed tree.
func Inspect(root *bpmn.Node) domain.ValidationReport {
	var r domain.ValidationReport
	if root == nil || !root.IsModel(bpmn.ElementDefinitions) {
		return r
	}
	proc := root.Child(bpmn.ElementProcess)
	if proc == nil {
		return r
	}
	r.HasStart = proc.Child(bpmn.ElementStartEvent) != nil
	r.HasEnd = proc.Child(bpmn.ElementEndEvent) != nil
	return r
}

// Check is a convenience for a single-use validator.
func Check(markup string) (domain.ValidationReport, error) {
	return New().Check(markup)
}
