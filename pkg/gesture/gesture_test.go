package gesture

import (
	"context"
	"errors"
	"fmt"
	"testing"

	"github.com/aretw0/arbor/pkg/domain"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type fakeFactory struct {
	requests []domain.ShapeCreationRequest
	known    map[domain.ElementType]bool
}

func (f *fakeFactory) CreateShape(req domain.ShapeCreationRequest) (*domain.Shape, error) {
	f.requests = append(f.requests, req)
	if !f.known[req.ElementType] {
		return nil, fmt.Errorf("%w: %s", domain.ErrUnknownElementType, req.ElementType)
	}
	return &domain.Shape{ID: "s1", Type: req.ElementType, IsExpanded: true}, nil
}

func (f *fakeFactory) CreateParticipantShape() (*domain.Shape, error) {
	return &domain.Shape{ID: "p1", Type: domain.TypeParticipant}, nil
}

type fakePlacement struct {
	gestures []domain.Gesture
	shapes   []*domain.Shape
}

func (p *fakePlacement) Begin(_ context.Context, g domain.Gesture, s *domain.Shape) error {
	p.gestures = append(p.gestures, g)
	p.shapes = append(p.shapes, s)
	return nil
}

func newCreator() (*Creator, *fakeFactory, *fakePlacement) {
	f := &fakeFactory{known: map[domain.ElementType]bool{domain.TypeUserTask: true}}
	p := &fakePlacement{}
	return NewCreator(f, p), f, p
}

func TestCreator_StartBeginsPlacement(t *testing.T) {
	c, f, p := newCreator()
	g := domain.Gesture{Kind: domain.GestureDragStart, X: 10, Y: 20}

	err := c.Start(context.Background(), domain.ShapeCreationRequest{ElementType: domain.TypeUserTask}, g)
	require.NoError(t, err)

	require.Len(t, f.requests, 1)
	require.Len(t, p.shapes, 1)
	assert.Equal(t, g, p.gestures[0])
	assert.True(t, p.shapes[0].IsExpanded, "flag untouched when option absent")
}

func TestCreator_OverridesExpansionFlag(t *testing.T) {
	c, _, p := newCreator()
	collapsed := false

	err := c.Start(context.Background(), domain.ShapeCreationRequest{
		ElementType:    domain.TypeUserTask,
		DefaultOptions: domain.CreateOptions{IsExpanded: &collapsed},
	}, domain.Gesture{Kind: domain.GestureClick})
	require.NoError(t, err)
	assert.False(t, p.shapes[0].IsExpanded)
}

func TestCreator_UnknownTypePropagates(t *testing.T) {
	c, _, p := newCreator()

	err := c.Start(context.Background(), domain.ShapeCreationRequest{ElementType: "bpmn:Nope"}, domain.Gesture{})
	assert.ErrorIs(t, err, domain.ErrUnknownElementType)
	assert.Empty(t, p.shapes)
}

func TestCreator_StartParticipant(t *testing.T) {
	c, _, p := newCreator()
	require.NoError(t, c.StartParticipant(context.Background(), domain.Gesture{Kind: domain.GestureClick}))
	require.Len(t, p.shapes, 1)
	assert.Equal(t, domain.TypeParticipant, p.shapes[0].Type)
}

func TestDispatch(t *testing.T) {
	var got domain.Gesture
	a := domain.ToolAction{
		ID: "create.user-task",
		Capabilities: map[domain.GestureKind]domain.Handler{
			domain.GestureClick: func(_ context.Context, g domain.Gesture) error {
				got = g
				return nil
			},
		},
	}

	t.Run("invokes handler and fills gesture kind", func(t *testing.T) {
		require.NoError(t, Dispatch(context.Background(), a, domain.GestureClick, domain.Gesture{X: 1}))
		assert.Equal(t, domain.GestureClick, got.Kind)
	})

	t.Run("unsupported gesture", func(t *testing.T) {
		err := Dispatch(context.Background(), a, domain.GestureDragStart, domain.Gesture{})
		assert.ErrorIs(t, err, domain.ErrGestureUnsupported)
	})

	t.Run("separator never dispatches", func(t *testing.T) {
		err := Dispatch(context.Background(), domain.Separator("sep", "tools"), domain.GestureClick, domain.Gesture{})
		assert.ErrorIs(t, err, domain.ErrSeparatorDispatch)
	})

	t.Run("handler error propagates", func(t *testing.T) {
		boom := errors.New("boom")
		failing := domain.ToolAction{ID: "x", Capabilities: map[domain.GestureKind]domain.Handler{
			domain.GestureClick: func(context.Context, domain.Gesture) error { return boom },
		}}
		assert.ErrorIs(t, Dispatch(context.Background(), failing, domain.GestureClick, domain.Gesture{}), boom)
	})
}
