package arbor

import "github.com/aretw0/arbor/pkg/domain"

// Gesture builds a pointer gesture at canvas coordinates x, y.
// The gesture kind is filled in on dispatch.
func Gesture(x, y float64) domain.Gesture {
	return domain.Gesture{X: x, Y: y}
}
