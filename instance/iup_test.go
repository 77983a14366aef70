package instance

import (
	"testing"

	"github.com/npillmayer/varinstance/ot"
)

// TestIUPEqualAnchors verifies that untouched points between anchors with a
// common offset pick up that offset: a square with deltas on two opposite
// corners shifts as a whole.
func TestIUPEqualAnchors(t *testing.T) {
	base := []ot.Point{{X: 0, Y: 0}, {X: 10, Y: 0}, {X: 10, Y: 10}, {X: 0, Y: 10}}
	deltas := []*ot.PointDelta{
		{X: 2, Y: 0},
		nil,
		{X: 2, Y: 0},
		nil,
	}
	out := iupDeltas(deltas, base, []int{3})
	for i, d := range out {
		if d.X != 2 || d.Y != 0 {
			t.Errorf("point %d: delta (%g,%g); want (2,0)", i, d.X, d.Y)
		}
	}
}

// TestIUPProportional verifies proportional placement of an untouched point
// between two anchors with different deltas.
func TestIUPProportional(t *testing.T) {
	base := []ot.Point{{X: 0, Y: 0}, {X: 5, Y: 0}, {X: 10, Y: 0}}
	deltas := []*ot.PointDelta{
		{X: 0, Y: 0},
		nil,
		{X: 10, Y: 0},
	}
	out := iupDeltas(deltas, base, []int{2})
	// point 1 sits halfway between the anchors on x
	if out[1].X != 5 {
		t.Errorf("interpolated delta x = %g; want 5", out[1].X)
	}
	if out[1].Y != 0 {
		t.Errorf("interpolated delta y = %g; want 0", out[1].Y)
	}
}

// TestIUPClamped verifies the clamp outside the anchor pair.
func TestIUPClamped(t *testing.T) {
	base := []ot.Point{{X: -5, Y: 0}, {X: 0, Y: 0}, {X: 10, Y: 0}, {X: 20, Y: 0}}
	deltas := []*ot.PointDelta{
		nil,
		{X: 1, Y: 0},
		{X: 3, Y: 0},
		nil,
	}
	out := iupDeltas(deltas, base, []int{3})
	// point 0 lies left of both anchors, point 3 right of both
	if out[0].X != 1 {
		t.Errorf("point 0 delta x = %g; want 1 (clamped to nearer anchor)", out[0].X)
	}
	if out[3].X != 3 {
		t.Errorf("point 3 delta x = %g; want 3 (clamped to nearer anchor)", out[3].X)
	}
}

// TestIUPSingleAnchor verifies that a contour with one touched point copies
// that point's delta everywhere.
func TestIUPSingleAnchor(t *testing.T) {
	base := []ot.Point{{X: 0, Y: 0}, {X: 10, Y: 0}, {X: 10, Y: 10}}
	deltas := []*ot.PointDelta{nil, {X: 7, Y: -3}, nil}
	out := iupDeltas(deltas, base, []int{2})
	for i, d := range out {
		if d.X != 7 || d.Y != -3 {
			t.Errorf("point %d: delta (%g,%g); want (7,-3)", i, d.X, d.Y)
		}
	}
}

// TestIUPNoAnchor verifies that a contour without touched points keeps zero
// deltas, and that phantom points never interpolate.
func TestIUPNoAnchor(t *testing.T) {
	base := []ot.Point{{X: 0, Y: 0}, {X: 10, Y: 0}, {X: 0, Y: 0}, {X: 100, Y: 0}}
	deltas := []*ot.PointDelta{nil, nil, nil, {X: 4, Y: 0}}
	out := iupDeltas(deltas, base, []int{1}) // two outline points, two phantoms
	if out[0].X != 0 || out[1].X != 0 {
		t.Errorf("untouched contour moved: %+v", out[:2])
	}
	if out[2].X != 0 {
		t.Errorf("untouched phantom moved: %+v", out[2])
	}
	if out[3].X != 4 {
		t.Errorf("touched phantom delta = %g; want 4", out[3].X)
	}
}
