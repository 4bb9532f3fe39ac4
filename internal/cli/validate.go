package cli

import (
	"fmt"
	"io"
	"os"
	"path/filepath"

	"github.com/aretw0/arbor"
	"github.com/aretw0/arbor/internal/presentation/graph"
	"github.com/aretw0/arbor/internal/presentation/tui"
	"github.com/aretw0/arbor/pkg/bpmn"
	"github.com/aretw0/arbor/pkg/domain"
	"github.com/aretw0/arbor/pkg/i18n"
	"github.com/aretw0/arbor/pkg/validator"
)

// ValidateOptions controls the validate report.
type ValidateOptions struct {
	Graph      bool
	Render     tui.Renderer
	Translator *i18n.Catalog
}

// Validate runs the structural check on a diagram file and writes the
// report to w. A parse failure is returned as an error; an invalid process
// is reported but not an error.
func Validate(path string, opts ValidateOptions, w io.Writer) (domain.ValidationReport, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return domain.ValidationReport{}, fmt.Errorf("failed to read diagram: %w", err)
	}
	root, err := bpmn.Parse(string(data))
	if err != nil {
		return domain.ValidationReport{}, fmt.Errorf("%w: %w", domain.ErrParse, err)
	}
	report := validator.Inspect(root)

	if opts.Render == nil {
		opts.Render = tui.Plain
	}
	if opts.Translator == nil {
		opts.Translator = i18n.Builtin("")
	}

	var outline string
	if opts.Graph {
		outline = graph.GenerateMermaid(root, nil)
	}
	message := opts.Translator.Translate(arbor.MessageInvalidProcess, nil)
	out, err := opts.Render(tui.ReportMarkdown(filepath.Base(path), report, message, outline))
	if err != nil {
		return report, fmt.Errorf("failed to render report: %w", err)
	}
	_, err = io.WriteString(w, out)
	return report, err
}
