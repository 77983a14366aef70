package instance

import (
	"github.com/npillmayer/varinstance/ot"
)

// iupDeltas resolves the untouched entries of a sparse gvar delta set by
// Interpolation of Untouched Points: per contour and per coordinate axis,
// runs of untouched points between two touched anchors are filled so that
// each point is placed proportionally by its base position within the
// anchor pair, clamping outside the pair.
//
// endPts are the contour end indexes of the outline; points beyond the last
// contour (the phantom points) interpolate against nothing and default to
// zero. The result is dense.
func iupDeltas(deltas []*ot.PointDelta, base []ot.Point, endPts []int) []ot.PointDelta {
	out := make([]ot.PointDelta, len(deltas))
	start := 0
	for _, end := range endPts {
		if end >= len(deltas) {
			end = len(deltas) - 1
		}
		iupContour(out, deltas, base, start, end)
		start = end + 1
	}
	// phantom points: single-point contours
	for i := start; i < len(deltas); i++ {
		if deltas[i] != nil {
			out[i] = *deltas[i]
		}
	}
	return out
}

// iupContour fills one contour [start, end] of out.
func iupContour(out []ot.PointDelta, deltas []*ot.PointDelta, base []ot.Point, start, end int) {
	n := end - start + 1
	if n <= 0 {
		return
	}
	touched := make([]int, 0, n)
	for i := start; i <= end; i++ {
		if deltas[i] != nil {
			out[i] = *deltas[i]
			touched = append(touched, i)
		}
	}
	switch len(touched) {
	case 0:
		return // no anchors, all deltas stay zero
	case 1:
		for i := start; i <= end; i++ {
			out[i] = out[touched[0]]
		}
		return
	}
	for k, anchor1 := range touched {
		anchor2 := touched[(k+1)%len(touched)]
		// walk the untouched run after anchor1, wrapping at the contour end
		for i := next(anchor1, start, end); i != anchor2; i = next(i, start, end) {
			out[i] = ot.PointDelta{
				X: iupCoord(base[i].X, base[anchor1].X, base[anchor2].X, out[anchor1].X, out[anchor2].X),
				Y: iupCoord(base[i].Y, base[anchor1].Y, base[anchor2].Y, out[anchor1].Y, out[anchor2].Y),
			}
		}
	}
}

func next(i, start, end int) int {
	if i == end {
		return start
	}
	return i + 1
}

// iupCoord interpolates one coordinate axis of an untouched point between
// two anchors.
func iupCoord(c, c1, c2, d1, d2 float64) float64 {
	if c1 == c2 {
		// equal anchor positions propagate a common offset only
		if d1 == d2 {
			return d1
		}
		return 0
	}
	if c1 > c2 {
		c1, c2 = c2, c1
		d1, d2 = d2, d1
	}
	if c <= c1 {
		return d1
	}
	if c >= c2 {
		return d2
	}
	return d1 + (c-c1)*(d2-d1)/(c2-c1)
}
