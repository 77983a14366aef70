package instance

import (
	"github.com/npillmayer/varinstance/ot"
)

// instantiateCvar rewrites the cvt/cvar table pair for a pinned location,
// with the same pinned/mixed tuple logic as gvar. If no tuple survives, the
// cvar table is removed entirely.
func instantiateCvar(otf *ot.Font, loc Location) {
	tracer().Infof("instantiating cvt/cvar tables")
	cvar := otf.Cvar
	cvt := otf.Cvt
	newVariations := cvar.Variations[:0:0]
	deltas := make(map[int]float64)
	for _, tv := range cvar.Variations {
		pinnedTupleAxes := pinnedAxesOf(tv.Axes, loc)
		if len(pinnedTupleAxes) == 0 {
			newVariations = append(newVariations, tv)
			continue
		}
		scalar := supportScalar(loc, pinnedTupleAxes)
		if scalar == 0 {
			continue
		}
		if len(pinnedTupleAxes) == len(tv.Axes) {
			// fully pinned: accumulate into per-entry deltas for the cvt
			for i, v := range tv.Values {
				if v != nil {
					deltas[i] += scalar * *v
				}
			}
		} else {
			for i, v := range tv.Values {
				if v != nil {
					scaled := float64(otRound(*v * scalar))
					tv.Values[i] = &scaled
				}
			}
			for tag := range pinnedTupleAxes {
				delete(tv.Axes, tag)
			}
			newVariations = append(newVariations, tv)
		}
	}
	for i, d := range deltas {
		if i < len(cvt.Values) {
			cvt.Values[i] += int16(otRound(d))
		}
	}
	if len(newVariations) > 0 {
		cvar.Variations = newVariations
	} else {
		otf.DeleteTable(ot.T("cvar"))
	}
}
