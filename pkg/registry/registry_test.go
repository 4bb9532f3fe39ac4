package registry

import (
	"context"
	"errors"
	"testing"

	"github.com/aretw0/arbor/pkg/domain"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func click(context.Context, domain.Gesture) error { return nil }

func action(id, group, title string) domain.ToolAction {
	return domain.ToolAction{
		ID:           id,
		Group:        group,
		Title:        title,
		Capabilities: map[domain.GestureKind]domain.Handler{domain.GestureClick: click},
	}
}

func TestRegistry_LaterProviderOverrides(t *testing.T) {
	r := New()
	r.Register(Static("base", action("hand-tool", "tools", "Hand"), action("lasso-tool", "tools", "Lasso")))
	r.Register(Static("custom", action("hand-tool", "tools", "Pan")))

	entries, err := r.Entries(context.Background(), nil)
	require.NoError(t, err)
	require.Equal(t, 2, entries.Len())

	hand, ok := entries.Get("hand-tool")
	require.True(t, ok)
	assert.Equal(t, "Pan", hand.Title)

	// Overridden ids keep their first insertion position.
	list := List(entries)
	assert.Equal(t, "hand-tool", list[0].ID)
	assert.Equal(t, "lasso-tool", list[1].ID)
}

func TestRegistry_SeparatorsAreNamespaced(t *testing.T) {
	r := New()
	r.Register(Static("a", domain.Separator("tool-separator", "tools")))
	r.Register(Static("b", domain.Separator("tool-separator", "tools")))

	entries, err := r.Entries(context.Background(), nil)
	require.NoError(t, err)
	assert.Equal(t, 2, entries.Len())

	sep, ok := entries.Get("a:tool-separator")
	require.True(t, ok)
	assert.True(t, sep.IsSeparator)
	assert.Equal(t, "a:tool-separator", sep.ID)
	_, ok = entries.Get("b:tool-separator")
	assert.True(t, ok)
}

func TestRegistry_SeparatorCapabilitiesStripped(t *testing.T) {
	sep := domain.Separator("s", "tools")
	sep.Capabilities = map[domain.GestureKind]domain.Handler{domain.GestureClick: click}

	r := New()
	r.Register(Static("p", sep))

	entries, err := r.Entries(context.Background(), nil)
	require.NoError(t, err)
	got, _ := entries.Get("p:s")
	assert.Empty(t, got.Capabilities)
	assert.False(t, got.Supports(domain.GestureClick))
}

func TestRegistry_ProviderErrorIsFatal(t *testing.T) {
	boom := errors.New("boom")
	r := New()
	r.Register(Static("ok", action("x", "tools", "X")))
	r.Register(ProviderFunc{Name: "broken", Fn: func(context.Context, *domain.Element) (*Entries, error) {
		return nil, boom
	}})

	entries, err := r.Entries(context.Background(), nil)
	assert.Nil(t, entries)
	assert.ErrorIs(t, err, domain.ErrProviderFailed)
	assert.ErrorIs(t, err, boom)
	assert.Contains(t, err.Error(), "broken")
}

func TestRegistry_SelectionIsPassedToProviders(t *testing.T) {
	var seen *domain.Element
	r := New()
	r.Register(ProviderFunc{Name: "spy", Fn: func(_ context.Context, sel *domain.Element) (*Entries, error) {
		seen = sel
		return NewEntries(), nil
	}})

	sel := &domain.Element{ID: "Task_1", Type: domain.TypeUserTask}
	_, err := r.Entries(context.Background(), sel)
	require.NoError(t, err)
	assert.Equal(t, sel, seen)
}

func TestRegistry_Lookup(t *testing.T) {
	r := New()
	r.Register(Static("base", action("hand-tool", "tools", "Hand")))

	got, err := r.Lookup(context.Background(), nil, "hand-tool")
	require.NoError(t, err)
	assert.Equal(t, "Hand", got.Title)

	_, err = r.Lookup(context.Background(), nil, "missing")
	assert.ErrorIs(t, err, domain.ErrUnknownAction)
}

func TestGroupCounts_SkipsSeparators(t *testing.T) {
	m := NewEntries()
	m.Set("a", action("a", "tools", ""))
	m.Set("s", domain.Separator("s", "tools"))
	m.Set("b", action("b", "event", ""))

	assert.Equal(t, map[string]int{"tools": 1, "event": 1}, GroupCounts(m))
}
