// Package zoom keeps the session magnification and forwards it to the canvas.
package zoom

import (
	"errors"
	"fmt"
	"math"

	"github.com/aretw0/arbor/pkg/ports"
)

const (
	// Floor is the smallest scale the controller will ever set.
	Floor = 0.2
	// Default is the scale of a fresh session and the result of a reset.
	Default = 1.0
	// DefaultStep is the delta used by In and Out.
	DefaultStep = 0.1
)

// ErrInvalidDelta is returned by Zoom for a NaN or infinite delta.
var ErrInvalidDelta = errors.New("zoom delta must be finite")

// Controller owns the scale of one editing session.
// It is not safe for concurrent use; the session serializes calls.
type Controller struct {
	canvas ports.Canvas
	scale  float64
	step   float64
}

// Option configures the Controller.
type Option func(*Controller)

// WithStep sets the delta applied by In and Out.
func WithStep(step float64) Option {
	return func(c *Controller) {
		if step > 0 {
			c.step = step
		}
	}
}

// WithInitialScale restores a previously persisted scale.
// Values below the floor are clamped.
func WithInitialScale(scale float64) Option {
	return func(c *Controller) {
		c.scale = max(Floor, scale)
	}
}

// New creates a controller at scale 1.0.
func New(canvas ports.Canvas, opts ...Option) *Controller {
	c := &Controller{canvas: canvas, scale: Default, step: DefaultStep}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// Scale returns the current scale.
func (c *Controller) Scale() float64 { return c.scale }

// Step returns the delta used by In and Out.
func (c *Controller) Step() float64 { return c.step }

// Next computes the scale that Zoom would set, without applying it.
// A nil delta means reset. A non-finite delta leaves current unchanged.
func Next(current float64, delta *float64) float64 {
	if delta == nil {
		return Default
	}
	if !finite(*delta) {
		return current
	}
	return max(Floor, current+*delta)
}

// Zoom applies delta (nil resets to 1.0) and forwards the result to the canvas.
// If the canvas rejects the value, or delta is not finite, the previous
// scale is kept.
func (c *Controller) Zoom(delta *float64) (float64, error) {
	if delta != nil && !finite(*delta) {
		return c.scale, fmt.Errorf("%w: %v", ErrInvalidDelta, *delta)
	}
	next := Next(c.scale, delta)
	if err := c.canvas.SetZoom(next); err != nil {
		return c.scale, fmt.Errorf("canvas zoom to %.2f: %w", next, err)
	}
	c.scale = next
	return next, nil
}

func finite(f float64) bool { return !math.IsNaN(f) && !math.IsInf(f, 0) }

// Apply forwards the current scale to the canvas unchanged. Used when a
// restored scale must reach a fresh canvas.
func (c *Controller) Apply() error {
	if err := c.canvas.SetZoom(c.scale); err != nil {
		return fmt.Errorf("canvas zoom to %.2f: %w", c.scale, err)
	}
	return nil
}

// Reset sets the scale to exactly 1.0.
func (c *Controller) Reset() (float64, error) { return c.Zoom(nil) }

// In grows the scale by one step.
func (c *Controller) In() (float64, error) {
	d := c.step
	return c.Zoom(&d)
}

// Out shrinks the scale by one step, saturating at the floor.
func (c *Controller) Out() (float64, error) {
	d := -c.step
	return c.Zoom(&d)
}
