package tui

import (
	"fmt"
	"strings"

	"github.com/aretw0/arbor/pkg/domain"
	"github.com/charmbracelet/glamour"
)

// Renderer turns markdown into terminal output.
type Renderer func(markdown string) (string, error)

// NewRenderer returns a function that renders markdown using glamour.
func NewRenderer() Renderer {
	r, err := glamour.NewTermRenderer(
		glamour.WithAutoStyle(), // Automatically detect light/dark background
		glamour.WithWordWrap(100),
	)
	if err != nil {
		return Plain
	}
	return r.Render
}

// Plain returns the markdown unchanged, for pipes and files.
func Plain(markdown string) (string, error) {
	return markdown, nil
}

// PaletteMarkdown renders palette entries as a table, one row per action.
// Separators become group breaks.
func PaletteMarkdown(actions []domain.ToolAction) string {
	var sb strings.Builder
	sb.WriteString("# Palette\n\n")
	sb.WriteString("| Action | Group | Title | Gestures |\n")
	sb.WriteString("|---|---|---|---|\n")
	for _, a := range actions {
		if a.IsSeparator {
			fmt.Fprintf(&sb, "| - | %s | | |\n", a.Group)
			continue
		}
		gestures := make([]string, 0, 2)
		for _, g := range a.Gestures() {
			gestures = append(gestures, string(g))
		}
		fmt.Fprintf(&sb, "| `%s` | %s | %s | %s |\n", a.ID, a.Group, a.Title, strings.Join(gestures, ", "))
	}
	return sb.String()
}

// ReportMarkdown renders a structural check result. message is the
// translated advisory shown for an invalid process; outline is an optional
// Mermaid flowchart of the process.
func ReportMarkdown(name string, report domain.ValidationReport, message, outline string) string {
	mark := func(ok bool) string {
		if ok {
			return "✅"
		}
		return "❌"
	}

	var sb strings.Builder
	fmt.Fprintf(&sb, "# %s\n\n", name)
	fmt.Fprintf(&sb, "- Start event: %s\n", mark(report.HasStart))
	fmt.Fprintf(&sb, "- End event: %s\n\n", mark(report.HasEnd))
	if report.IsValid() {
		sb.WriteString("**Valid process.**\n")
	} else {
		fmt.Fprintf(&sb, "> **Warning:** %s\n", message)
	}
	if outline != "" {
		fmt.Fprintf(&sb, "\n```mermaid\n%s```\n", outline)
	}
	return sb.String()
}
