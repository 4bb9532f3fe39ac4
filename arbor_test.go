package arbor_test

import (
	"context"
	"errors"
	"strings"
	"testing"

	"github.com/aretw0/arbor"
	"github.com/aretw0/arbor/pkg/adapters/memory"
	"github.com/aretw0/arbor/pkg/domain"
	"github.com/aretw0/arbor/pkg/i18n"
	"github.com/aretw0/arbor/pkg/palette"
	"github.com/aretw0/arbor/pkg/ports"
	"github.com/aretw0/arbor/pkg/registry"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type fixture struct {
	engine    *memory.Engine
	downloads *memory.Downloads
	notices   *memory.Notices
	session   *arbor.Session
}

func newFixture(t *testing.T, engineOpts []memory.EngineOption, opts ...arbor.Option) *fixture {
	t.Helper()
	f := &fixture{
		engine:    memory.NewEngine(engineOpts...),
		downloads: memory.NewDownloads(),
		notices:   memory.NewNotices(),
	}
	opts = append([]arbor.Option{
		arbor.WithID("test-session"),
		arbor.WithDownloader(f.downloads),
		arbor.WithNotifier(f.notices),
	}, opts...)

	s, err := arbor.New(f.engine, opts...)
	require.NoError(t, err)
	t.Cleanup(s.Close)
	f.session = s
	return f
}

func TestNew_DefaultPalette(t *testing.T) {
	f := newFixture(t, nil)

	entries, err := f.session.Palette(context.Background())
	require.NoError(t, err)
	assert.Equal(t, 8, entries.Len())
	assert.Equal(t, map[string]int{
		palette.GroupTools:    3,
		palette.GroupEvent:    2,
		palette.GroupGateway:  1,
		palette.GroupActivity: 1,
	}, registry.GroupCounts(entries))
	assert.Equal(t, "test-session", f.session.ID())
}

func TestNew_ProviderFailureIsFatal(t *testing.T) {
	broken := registry.ProviderFunc{
		Name: "broken",
		Fn: func(context.Context, *domain.Element) (*registry.Entries, error) {
			return nil, errors.New("misconfigured")
		},
	}
	_, err := arbor.New(memory.NewEngine(), arbor.WithProviders(broken))
	require.Error(t, err)
	assert.ErrorIs(t, err, domain.ErrProviderFailed)

	_, err = arbor.New(nil)
	assert.Error(t, err)
}

func TestNew_CustomProviderOverrides(t *testing.T) {
	calls := 0
	override := registry.Static("custom", domain.ToolAction{
		ID:    palette.ActionHandTool,
		Group: "custom",
		Capabilities: map[domain.GestureKind]domain.Handler{
			domain.GestureClick: func(context.Context, domain.Gesture) error {
				calls++
				return nil
			},
		},
	})
	f := newFixture(t, nil, arbor.WithProviders(override))

	entries, err := f.session.Palette(context.Background())
	require.NoError(t, err)
	assert.Equal(t, 8, entries.Len(), "overriding keeps the key count")

	require.NoError(t, f.session.Trigger(context.Background(), palette.ActionHandTool, domain.GestureClick, arbor.Gesture(0, 0)))
	assert.Equal(t, 1, calls)
	assert.Equal(t, memory.ModeNone, f.engine.Mode(), "the default handler no longer runs")
}

func TestTrigger(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t, []memory.EngineOption{memory.WithEmptyDiagram()})

	t.Run("Creation gesture commits a shape", func(t *testing.T) {
		require.NoError(t, f.session.Trigger(ctx, palette.ActionCreateUserTask, domain.GestureDragStart, arbor.Gesture(200, 100)))
		require.Len(t, f.engine.Elements(), 1)
		assert.Equal(t, domain.TypeUserTask, f.engine.Elements()[0].Type)

		sel := f.session.Selection()
		require.NotNil(t, sel)
		assert.Equal(t, domain.TypeUserTask, sel.Type)
	})

	t.Run("Tool gesture", func(t *testing.T) {
		require.NoError(t, f.session.Trigger(ctx, palette.ActionLassoTool, domain.GestureClick, arbor.Gesture(0, 0)))
		assert.Equal(t, memory.ModeLasso, f.engine.Mode())
	})

	t.Run("Unknown action", func(t *testing.T) {
		err := f.session.Trigger(ctx, "create.nothing", domain.GestureClick, arbor.Gesture(0, 0))
		assert.ErrorIs(t, err, domain.ErrUnknownAction)
	})

	t.Run("Unsupported gesture", func(t *testing.T) {
		err := f.session.Trigger(ctx, palette.ActionHandTool, domain.GestureDragStart, arbor.Gesture(0, 0))
		assert.ErrorIs(t, err, domain.ErrGestureUnsupported)
	})

	t.Run("Separator", func(t *testing.T) {
		err := f.session.Trigger(ctx, palette.DefaultNamespace+":"+palette.ActionToolSeparator, domain.GestureClick, arbor.Gesture(0, 0))
		assert.ErrorIs(t, err, domain.ErrSeparatorDispatch)
	})
}

func TestUndoRedo(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t, []memory.EngineOption{memory.WithEmptyDiagram()})

	require.NoError(t, f.session.Trigger(ctx, palette.ActionCreateStart, domain.GestureClick, arbor.Gesture(10, 10)))
	require.NoError(t, f.session.Undo(ctx))
	assert.Empty(t, f.engine.Elements())
	assert.Nil(t, f.session.Selection(), "undoing the creation clears the selection")

	require.NoError(t, f.session.Redo(ctx))
	assert.Len(t, f.engine.Elements(), 1)
}

func TestZoom(t *testing.T) {
	ctx := context.Background()

	t.Run("Relative delta", func(t *testing.T) {
		f := newFixture(t, nil, arbor.WithInitialScale(0.6))
		d := 0.2
		scale, err := f.session.Zoom(ctx, &d)
		require.NoError(t, err)
		assert.InDelta(t, 0.8, scale, 1e-9)
		assert.InDelta(t, 0.8, f.engine.Scale(), 1e-9)
	})

	t.Run("Floor clamps", func(t *testing.T) {
		f := newFixture(t, nil, arbor.WithInitialScale(0.6))
		d := -0.5
		scale, err := f.session.Zoom(ctx, &d)
		require.NoError(t, err)
		assert.Equal(t, 0.2, scale)
	})

	t.Run("Repeated zoom out saturates", func(t *testing.T) {
		f := newFixture(t, nil)
		var scale float64
		var err error
		for i := 0; i < 12; i++ {
			scale, err = f.session.ZoomOut(ctx)
			require.NoError(t, err)
			assert.GreaterOrEqual(t, scale, 0.2)
		}
		assert.Equal(t, 0.2, scale)
	})

	t.Run("Reset", func(t *testing.T) {
		f := newFixture(t, nil, arbor.WithInitialScale(0.3))
		scale, err := f.session.ZoomReset(ctx)
		require.NoError(t, err)
		assert.Equal(t, 1.0, scale)
		assert.Equal(t, 1.0, f.engine.Scale())
	})

	t.Run("Hook reports clamping", func(t *testing.T) {
		var events []*domain.ZoomEvent
		f := newFixture(t, nil, arbor.WithZoomStep(0.5), arbor.WithLifecycleHooks(domain.LifecycleHooks{
			OnZoom: func(_ context.Context, e *domain.ZoomEvent) { events = append(events, e) },
		}))
		_, err := f.session.ZoomIn(ctx)
		require.NoError(t, err)
		for i := 0; i < 3; i++ {
			_, err = f.session.ZoomOut(ctx)
			require.NoError(t, err)
		}

		require.Len(t, events, 4)
		assert.InDelta(t, 1.5, events[0].Scale, 1e-9)
		assert.False(t, events[2].Clamped)
		assert.InDelta(t, 0.5, events[2].Scale, 1e-9)
		assert.True(t, events[3].Clamped)
		assert.Equal(t, 0.2, events[3].Scale)
	})
}

func TestDownloads(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t, nil)

	markup, err := f.session.DownloadMarkup(ctx)
	require.NoError(t, err)
	assert.Equal(t, "diagram.bpmn", markup.Filename)
	assert.Contains(t, markup.Payload, "<bpmn2:definitions")

	vector, err := f.session.DownloadVector(ctx)
	require.NoError(t, err)
	assert.Equal(t, "diagram.svg", vector.Filename)
	assert.True(t, strings.Contains(vector.Payload, "<svg"))

	assert.Equal(t, 2, f.downloads.Len())
	assert.Zero(t, f.notices.Len(), "downloads do not run the structural check")
}

func TestDownload_Failures(t *testing.T) {
	ctx := context.Background()

	t.Run("Serialization failure", func(t *testing.T) {
		f := newFixture(t, nil)
		f.engine.FailSerialization(domain.ExportVector, errors.New("renderer crashed"))

		_, err := f.session.DownloadVector(ctx)
		assert.ErrorIs(t, err, domain.ErrSerialization)
		assert.Zero(t, f.downloads.Len())
		assert.Equal(t, []string{domain.CodeSerializationFailure}, f.notices.Codes())
	})

	t.Run("Download failure", func(t *testing.T) {
		f := newFixture(t, nil)
		f.downloads.FailWith(errors.New("disk full"))

		_, err := f.session.DownloadMarkup(ctx)
		assert.Error(t, err)
		assert.NotErrorIs(t, err, domain.ErrSerialization)
		assert.Equal(t, []string{domain.CodeDownloadFailure}, f.notices.Codes())
	})
}

func TestSave(t *testing.T) {
	ctx := context.Background()

	t.Run("Valid process", func(t *testing.T) {
		f := newFixture(t, nil)
		require.NoError(t, f.session.Trigger(ctx, palette.ActionCreateEnd, domain.GestureClick, arbor.Gesture(600, 258)))

		report, err := f.session.Save(ctx)
		require.NoError(t, err)
		assert.True(t, report.IsValid())
		assert.Zero(t, f.notices.Len())
		assert.Equal(t, 1, f.downloads.Len())
	})

	t.Run("Missing end is advisory", func(t *testing.T) {
		f := newFixture(t, nil)

		report, err := f.session.Save(ctx)
		require.NoError(t, err)
		assert.True(t, report.HasStart)
		assert.False(t, report.HasEnd)
		assert.Equal(t, 1, f.downloads.Len(), "the artifact is still downloaded")

		notices := f.notices.All()
		require.Len(t, notices, 1)
		assert.Equal(t, domain.CodeStructurallyInvalid, notices[0].Code)
		assert.Equal(t, arbor.MessageInvalidProcess, notices[0].Message)
	})

	t.Run("Notice is translated", func(t *testing.T) {
		f := newFixture(t, []memory.EngineOption{memory.WithEmptyDiagram()}, arbor.WithTranslator(i18n.Builtin("zh")))

		report, err := f.session.Save(ctx)
		require.NoError(t, err)
		assert.False(t, report.HasStart)
		notices := f.notices.All()
		require.Len(t, notices, 1)
		assert.NotEqual(t, arbor.MessageInvalidProcess, notices[0].Message)
	})

	t.Run("Serialization failure skips the check", func(t *testing.T) {
		var validated bool
		f := newFixture(t, nil, arbor.WithLifecycleHooks(domain.LifecycleHooks{
			OnValidate: func(context.Context, *domain.ValidateEvent) { validated = true },
		}))
		f.engine.FailSerialization(domain.ExportMarkup, errors.New("boom"))

		_, err := f.session.Save(ctx)
		assert.ErrorIs(t, err, domain.ErrSerialization)
		assert.False(t, validated)
		assert.Zero(t, f.downloads.Len())
		assert.Equal(t, []string{domain.CodeSerializationFailure}, f.notices.Codes())
	})

	t.Run("Snapshot records the report", func(t *testing.T) {
		f := newFixture(t, nil)
		_, err := f.session.Save(ctx)
		require.NoError(t, err)

		snap := f.session.Snapshot()
		require.NotNil(t, snap.LastReport)
		assert.False(t, snap.LastReport.IsValid())
		assert.Equal(t, "diagram.bpmn", snap.LastExport)
		assert.Equal(t, 8, snap.PaletteCount)
	})
}

func TestSelectionTracking(t *testing.T) {
	f := newFixture(t, nil)
	assert.Nil(t, f.session.Selection())

	require.NoError(t, f.engine.Select("StartEvent_1"))
	sel := f.session.Selection()
	require.NotNil(t, sel)
	assert.Equal(t, "StartEvent_1", sel.ID)

	require.NoError(t, f.engine.Select())
	assert.Nil(t, f.session.Selection())

	f.session.Close()
	require.NoError(t, f.engine.Select("StartEvent_1"))
	assert.Nil(t, f.session.Selection(), "closed sessions ignore notifications")
}

func TestMarkSelected(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t, nil)

	assert.ErrorIs(t, f.session.MarkSelected(ctx, "v"), domain.ErrNoSelection)

	require.NoError(t, f.engine.Select("StartEvent_1"))
	require.NoError(t, f.session.MarkSelected(ctx, "approved"))

	el, ok := f.engine.Element("StartEvent_1")
	require.True(t, ok)
	assert.Equal(t, "approved", el.Properties["custom-property"])
	assert.Equal(t, "yellow", el.Properties["fill"])
	assert.Equal(t, "orange", el.Properties["stroke"])

	artifact, err := f.session.DownloadMarkup(ctx)
	require.NoError(t, err)
	assert.Contains(t, artifact.Payload, `custom-property="approved"`)
}

func TestSelect(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t, nil)

	require.NoError(t, f.session.Select(ctx, "StartEvent_1"))
	require.NotNil(t, f.session.Selection())
	assert.ErrorIs(t, f.session.Select(ctx, "missing"), memory.ErrElementNotFound)
	require.NoError(t, f.session.Select(ctx))
	assert.Nil(t, f.session.Selection())

	opaque := struct{ ports.DiagramEngine }{memory.NewEngine()}
	s, err := arbor.New(opaque)
	require.NoError(t, err)
	defer s.Close()
	assert.ErrorIs(t, s.Select(ctx, "StartEvent_1"), arbor.ErrSelectUnsupported)
}

func TestCollaboration(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t, nil, arbor.WithCollaboration())

	entries, err := f.session.Palette(ctx)
	require.NoError(t, err)
	assert.Equal(t, 10, entries.Len())

	require.NoError(t, f.session.Trigger(ctx, palette.ActionCreateParticipant, domain.GestureClick, arbor.Gesture(400, 300)))
	sel := f.session.Selection()
	require.NotNil(t, sel)
	assert.Equal(t, domain.TypeParticipant, sel.Type)

	entries, err = f.session.Palette(ctx)
	require.NoError(t, err)
	_, ok := entries.Get(palette.ActionCreateParticipant)
	assert.False(t, ok, "pool creation is hidden while a pool is selected")
}

func TestHooks(t *testing.T) {
	ctx := context.Background()
	var actions []*domain.ActionEvent
	var exports []*domain.ExportEvent
	f := newFixture(t, nil, arbor.WithLifecycleHooks(domain.LifecycleHooks{
		OnAction: func(_ context.Context, e *domain.ActionEvent) { actions = append(actions, e) },
		OnExport: func(_ context.Context, e *domain.ExportEvent) { exports = append(exports, e) },
	}))

	_ = f.session.Trigger(ctx, palette.ActionHandTool, domain.GestureClick, arbor.Gesture(0, 0))
	_ = f.session.Trigger(ctx, "missing", domain.GestureClick, arbor.Gesture(0, 0))
	_, _ = f.session.DownloadVector(ctx)

	require.Len(t, actions, 2)
	assert.NoError(t, actions[0].Err)
	assert.ErrorIs(t, actions[1].Err, domain.ErrUnknownAction)
	assert.Equal(t, "test-session", actions[0].SessionID)

	require.Len(t, exports, 1)
	assert.Equal(t, domain.ExportVector, exports[0].Kind)
	assert.Positive(t, exports[0].Bytes)
}

// plainEngine hides the optional capabilities of the wrapped engine.
type plainEngine struct{ ports.DiagramEngine }

func TestNew_Restore(t *testing.T) {
	ctx := context.Background()
	src := newFixture(t, nil)
	require.NoError(t, src.session.Trigger(ctx, palette.ActionCreateEnd, domain.GestureClick, arbor.Gesture(600, 258)))
	markup, err := src.session.Diagram(ctx)
	require.NoError(t, err)
	assert.Empty(t, src.downloads.All(), "capturing the diagram does not download")
	sel := src.session.Selection()
	require.NotNil(t, sel)

	t.Run("Diagram scale and selection", func(t *testing.T) {
		f := newFixture(t, []memory.EngineOption{memory.WithEmptyDiagram()},
			arbor.WithDiagram(markup),
			arbor.WithInitialScale(0.6),
			arbor.WithSelection(sel),
		)
		assert.Len(t, f.engine.Elements(), 2)
		assert.Equal(t, 0.6, f.engine.Scale())
		assert.Equal(t, 0.6, f.session.Scale())
		require.NotNil(t, f.session.Selection())
		assert.Equal(t, sel.ID, f.session.Selection().ID)
	})

	t.Run("Missing selection is ignored", func(t *testing.T) {
		f := newFixture(t, nil, arbor.WithSelection(&domain.Element{ID: "gone"}))
		assert.Nil(t, f.session.Selection())
	})

	t.Run("Engine without import", func(t *testing.T) {
		_, err := arbor.New(plainEngine{memory.NewEngine()}, arbor.WithDiagram(markup))
		assert.ErrorIs(t, err, arbor.ErrImportUnsupported)
	})

	t.Run("Malformed diagram", func(t *testing.T) {
		_, err := arbor.New(memory.NewEngine(), arbor.WithDiagram("<definitions"))
		assert.ErrorIs(t, err, domain.ErrParse)
	})
}
