package instance

import (
	"fmt"
	"math"
	"sort"

	"github.com/npillmayer/varinstance/ot"
)

// normalizeValue maps a user-space axis value into [-1, +1] relative to the
// axis's (min, default, max) triple. The value is clamped to the axis range
// first.
func normalizeValue(v float64, axis ot.VariationAxis) float64 {
	v = math.Max(axis.Min, math.Min(axis.Max, v))
	switch {
	case v < axis.Default:
		return (v - axis.Default) / (axis.Default - axis.Min)
	case v > axis.Default:
		return (v - axis.Default) / (axis.Max - axis.Default)
	}
	return 0
}

// piecewiseLinearMap applies an avar segment map to a normalized value.
// The implicit anchors (-1,-1), (0,0), (+1,+1) are part of any valid map;
// values outside the outermost breakpoints clamp to the outermost 'to'.
func piecewiseLinearMap(v float64, segments []ot.SegmentMap) float64 {
	if len(segments) == 0 {
		return v
	}
	segs := append([]ot.SegmentMap(nil), segments...)
	sort.Slice(segs, func(i, j int) bool { return segs[i].From < segs[j].From })
	if v <= segs[0].From {
		return segs[0].To
	}
	if v >= segs[len(segs)-1].From {
		return segs[len(segs)-1].To
	}
	for i := 1; i < len(segs); i++ {
		if v < segs[i].From {
			a, b := segs[i-1], segs[i]
			if b.From == a.From {
				return a.To
			}
			return a.To + (v-a.From)*(b.To-a.To)/(b.From-a.From)
		}
		if v == segs[i].From {
			return segs[i].To
		}
	}
	return v
}

// quantizeF2Dot14 rounds a normalized coordinate to the nearest 1/16384, to
// avoid surprise interpolations from coordinates that cannot be stored
// exactly. Ties round to even, which keeps the quantization idempotent.
func quantizeF2Dot14(v float64) float64 {
	return math.RoundToEven(v*16384) / 16384
}

// normalize runs the full §-normalization of one axis value: clamp and map
// against the fvar triple, remap through avar if present, quantize.
func normalize(v float64, axis ot.VariationAxis, segments []ot.SegmentMap) float64 {
	x := normalizeValue(v, axis)
	if segments != nil {
		x = piecewiseLinearMap(x, segments)
	}
	return quantizeF2Dot14(x)
}

// NormalizeLimits converts user-space axis limits into a normalized pinned
// Location. Range limits (Min != Max) are rejected with ErrRangeUnsupported;
// tags not declared in fvar with ErrUnknownAxis.
func NormalizeLimits(otf *ot.Font, limits AxisLimits) (Location, error) {
	fvar := otf.Fvar
	if fvar == nil {
		return nil, fmt.Errorf("%w: fvar", ErrMissingTable)
	}
	loc := make(Location, len(limits))
	for _, lim := range limits {
		axis, ok := fvar.Axis(lim.Tag)
		if !ok {
			return nil, fmt.Errorf("%w: %s", ErrUnknownAxis, lim.Tag)
		}
		var segments []ot.SegmentMap
		if otf.Avar != nil {
			segments = otf.Avar.SegmentsFor(fvar.AxisIndex(lim.Tag))
		}
		if !lim.Pinned() {
			// TODO remove this check once ranges are supported
			return nil, fmt.Errorf("%w: %s=%g:%g", ErrRangeUnsupported, lim.Tag, lim.Min, lim.Max)
		}
		loc[lim.Tag] = normalize(lim.Min, axis, segments)
	}
	return loc, nil
}
