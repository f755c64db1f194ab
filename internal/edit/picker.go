package edit

import (
	"curve-editor/pkg/geometry"

	"gonum.org/v1/gonum/spatial/r3"
)

// DefaultSensitivity is the default pick radius in normalized device
// coordinates.
const DefaultSensitivity = 0.04

// Picker finds the chain point under the pointer.
type Picker interface {
	// Pick returns the index of the point hit by the normalized pointer
	// position, or false when no point is close enough.
	Pick(pointer geometry.Point2D, points []r3.Vec) (int, bool)
}

// NearestPicker hit-tests in projected screen space: the nearest projected
// point strictly closer than Sensitivity wins, ties going to the lower index.
type NearestPicker struct {
	Projection  geometry.Projection
	Sensitivity float64
}

// NewNearestPicker returns a picker for the given projection.
// A non-positive sensitivity selects DefaultSensitivity.
func NewNearestPicker(proj geometry.Projection, sensitivity float64) *NearestPicker {
	if sensitivity <= 0 {
		sensitivity = DefaultSensitivity
	}
	return &NearestPicker{Projection: proj, Sensitivity: sensitivity}
}

// Pick implements Picker.
func (p *NearestPicker) Pick(pointer geometry.Point2D, points []r3.Vec) (int, bool) {
	best, bestDist := -1, p.Sensitivity
	for i, pt := range points {
		screen, _ := p.Projection.Project(pt)
		if d := screen.Distance(pointer); d < bestDist {
			best, bestDist = i, d
		}
	}
	return best, best >= 0
}
