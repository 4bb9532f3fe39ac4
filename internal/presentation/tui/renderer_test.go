package tui

import (
	"bytes"
	"context"
	"testing"

	"github.com/aretw0/arbor/pkg/domain"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestPaletteMarkdown(t *testing.T) {
	noop := func(context.Context, domain.Gesture) error { return nil }
	md := PaletteMarkdown([]domain.ToolAction{
		{ID: "hand-tool", Group: "tools", Title: "Hand", Capabilities: map[domain.GestureKind]domain.Handler{domain.GestureClick: noop}},
		domain.Separator("tool-separator", "tools"),
		{ID: "create.user-task", Group: "activity", Title: "Task", Capabilities: map[domain.GestureKind]domain.Handler{
			domain.GestureClick:     noop,
			domain.GestureDragStart: noop,
		}},
	})

	assert.Contains(t, md, "| `hand-tool` | tools | Hand | click |")
	assert.Contains(t, md, "| - | tools | | |")
	assert.Contains(t, md, "| `create.user-task` | activity | Task | click, dragstart |")
}

func TestReportMarkdown(t *testing.T) {
	md := ReportMarkdown("order.bpmn", domain.ValidationReport{HasStart: true}, "needs an end", "graph LR\n")
	assert.Contains(t, md, "# order.bpmn")
	assert.Contains(t, md, "- End event: ❌")
	assert.Contains(t, md, "> **Warning:** needs an end")
	assert.Contains(t, md, "```mermaid\ngraph LR\n```")

	md = ReportMarkdown("ok.bpmn", domain.ValidationReport{HasStart: true, HasEnd: true}, "unused", "")
	assert.Contains(t, md, "**Valid process.**")
	assert.NotContains(t, md, "unused")
}

func TestRenderers(t *testing.T) {
	out, err := Plain("# x")
	require.NoError(t, err)
	assert.Equal(t, "# x", out)

	out, err = NewRenderer()("# Palette")
	require.NoError(t, err)
	assert.Contains(t, out, "Palette")
}

func TestPrintBanner(t *testing.T) {
	var buf bytes.Buffer
	PrintBanner(&buf, "v0.1.0")
	assert.Contains(t, buf.String(), "v0.1.0")
}
