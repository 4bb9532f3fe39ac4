package zoom

import (
	"errors"
	"math"
	"math/rand"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type canvas struct {
	applied []float64
	err     error
}

func (c *canvas) SetZoom(scale float64) error {
	if c.err != nil {
		return c.err
	}
	c.applied = append(c.applied, scale)
	return nil
}

func ptr(f float64) *float64 { return &f }

func TestZoom_ClampsAtFloor(t *testing.T) {
	cv := &canvas{}
	c := New(cv)

	got, err := c.Zoom(ptr(-2.0))
	require.NoError(t, err)
	assert.Equal(t, Floor, got)
	assert.Equal(t, []float64{Floor}, cv.applied, "clamped value is forwarded verbatim")
}

func TestZoom_ResetIsExactlyOne(t *testing.T) {
	c := New(&canvas{})
	_, _ = c.Zoom(ptr(0.7))
	_, _ = c.Zoom(ptr(-0.3))

	got, err := c.Zoom(nil)
	require.NoError(t, err)
	assert.Equal(t, 1.0, got)
	assert.Equal(t, 1.0, c.Scale())
}

func TestZoom_SaturatesUntilPositiveDelta(t *testing.T) {
	c := New(&canvas{})
	for i := 0; i < 20; i++ {
		_, err := c.Out()
		require.NoError(t, err)
	}
	assert.Equal(t, Floor, c.Scale())

	got, err := c.In()
	require.NoError(t, err)
	assert.InDelta(t, Floor+DefaultStep, got, 1e-9)
}

func TestZoom_NoCeiling(t *testing.T) {
	c := New(&canvas{})
	got, err := c.Zoom(ptr(1000))
	require.NoError(t, err)
	assert.Equal(t, 1001.0, got)
}

func TestZoom_FloorProperty(t *testing.T) {
	rng := rand.New(rand.NewSource(42))
	c := New(&canvas{})
	for i := 0; i < 1000; i++ {
		d := rng.Float64()*4 - 2
		got, err := c.Zoom(&d)
		require.NoError(t, err)
		assert.GreaterOrEqual(t, got, Floor)
	}

	for _, d := range []float64{math.NaN(), math.Inf(1), math.Inf(-1)} {
		cv := &canvas{}
		c := New(cv, WithInitialScale(0.8))
		got, err := c.Zoom(&d)
		assert.ErrorIs(t, err, ErrInvalidDelta)
		assert.Equal(t, 0.8, got)
		assert.Equal(t, 0.8, c.Scale())
		assert.Empty(t, cv.applied, "canvas untouched")
		assert.Equal(t, 0.8, Next(0.8, &d))
	}
}

func TestZoom_CanvasErrorKeepsScale(t *testing.T) {
	boom := errors.New("detached")
	c := New(&canvas{err: boom})

	got, err := c.Zoom(ptr(0.5))
	assert.ErrorIs(t, err, boom)
	assert.Equal(t, 1.0, got)
	assert.Equal(t, 1.0, c.Scale())
}

func TestOptions(t *testing.T) {
	c := New(&canvas{}, WithStep(0.25), WithInitialScale(0.1))
	assert.Equal(t, 0.25, c.Step())
	assert.Equal(t, Floor, c.Scale())

	assert.Equal(t, 1.0, Next(3, nil))
	assert.Equal(t, 2.5, Next(2, ptr(0.5)))
}

func TestApply(t *testing.T) {
	cv := &canvas{}
	c := New(cv, WithInitialScale(0.6))
	require.NoError(t, c.Apply())
	assert.Equal(t, []float64{0.6}, cv.applied)

	boom := errors.New("detached")
	c = New(&canvas{err: boom}, WithInitialScale(0.6))
	assert.ErrorIs(t, c.Apply(), boom)
	assert.Equal(t, 0.6, c.Scale())
}
