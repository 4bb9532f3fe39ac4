// Package gesture turns palette gestures into engine calls.
package gesture

import (
	"context"
	"fmt"

	"github.com/aretw0/arbor/pkg/domain"
	"github.com/aretw0/arbor/pkg/ports"
)

// Creator starts interactive placement of new shapes. It holds no state
// between calls.
type Creator struct {
	factory   ports.ShapeFactory
	placement ports.Placement
}

// NewCreator wires the engine shape factory and placement flow.
func NewCreator(factory ports.ShapeFactory, placement ports.Placement) *Creator {
	return &Creator{factory: factory, placement: placement}
}

// Start instantiates the requested shape and hands it to placement.
// Factory errors (including unknown element types) are returned as-is.
func (c *Creator) Start(ctx context.Context, req domain.ShapeCreationRequest, g domain.Gesture) error {
	shape, err := c.factory.CreateShape(req)
	if err != nil {
		return err
	}
	if req.DefaultOptions.IsExpanded != nil {
		shape.IsExpanded = *req.DefaultOptions.IsExpanded
	}
	return c.placement.Begin(ctx, g, shape)
}

// StartParticipant creates a participant (pool) shape and begins placement.
func (c *Creator) StartParticipant(ctx context.Context, g domain.Gesture) error {
	shape, err := c.factory.CreateParticipantShape()
	if err != nil {
		return err
	}
	return c.placement.Begin(ctx, g, shape)
}

// Handler returns a domain.Handler creating elementType with opts.
func (c *Creator) Handler(elementType domain.ElementType, opts domain.CreateOptions) domain.Handler {
	return func(ctx context.Context, g domain.Gesture) error {
		return c.Start(ctx, domain.ShapeCreationRequest{
			ElementType:    elementType,
			DefaultOptions: opts,
		}, g)
	}
}

// Dispatch invokes the handler registered on action for kind.
func Dispatch(ctx context.Context, action domain.ToolAction, kind domain.GestureKind, g domain.Gesture) error {
	if action.IsSeparator {
		return fmt.Errorf("%w: %s", domain.ErrSeparatorDispatch, action.ID)
	}
	h, ok := action.Capabilities[kind]
	if !ok || h == nil {
		return fmt.Errorf("%w: %s on %s", domain.ErrGestureUnsupported, kind, action.ID)
	}
	if g.Kind == "" {
		g.Kind = kind
	}
	return h(ctx, g)
}
