package instance

import (
	"sort"

	"github.com/npillmayer/varinstance/ot"
)

// instantiateGvar rewrites the glyf/gvar table pair for a pinned location:
// tuples living entirely on pinned axes are absorbed into the base
// outlines, mixed tuples are rescaled and stripped of their pinned axes,
// tuples without influence at the location are dropped.
func instantiateGvar(otf *ot.Font, loc Location) error {
	tracer().Infof("instantiating glyf/gvar tables")
	gvar := otf.Gvar
	glyf := otf.Glyf

	// Composite glyphs go after their component base glyphs, otherwise
	// bounds recomputation sees stale components.
	gids := make([]ot.GlyphIndex, 0, len(gvar.Variations))
	for gid := range gvar.Variations {
		gids = append(gids, ot.GlyphIndex(gid))
	}
	sort.Slice(gids, func(i, j int) bool {
		di, dj := glyf.CompositeDepth(gids[i]), glyf.CompositeDepth(gids[j])
		if di != dj {
			return di < dj
		}
		return gids[i] < gids[j]
	})
	for _, gid := range gids {
		if err := instantiateGvarGlyph(otf, loc, gid); err != nil {
			return err
		}
	}
	return nil
}

func instantiateGvarGlyph(otf *ot.Font, loc Location, gid ot.GlyphIndex) error {
	glyf := otf.Glyf
	gvar := otf.Gvar
	variations := gvar.Variations[gid]
	coordinates := glyf.Coordinates(gid, otf.HMtx)
	var origCoords []ot.Point
	newVariations := variations[:0:0]
	defaultModified := false
	for _, tv := range variations {
		pinnedTupleAxes := pinnedAxesOf(tv.Axes, loc)
		if len(pinnedTupleAxes) == 0 {
			// a tuple for only axes being kept is untouched
			newVariations = append(newVariations, tv)
			continue
		}
		// influence at the pinned location, over the pinned axes only
		scalar := supportScalar(loc, pinnedTupleAxes)
		if scalar == 0 {
			continue // no influence at the pinned location; drop tuple
		}
		deltas := tv.Points
		if tv.HasUntouchedPoints() {
			if origCoords == nil {
				origCoords = glyf.Coordinates(gid, otf.HMtx)
			}
			dense := iupDeltas(tv.Points, origCoords, glyf.EndPoints(gid))
			deltas = make([]*ot.PointDelta, len(dense))
			for i := range dense {
				deltas[i] = &dense[i]
			}
		}
		scaled := make([]*ot.PointDelta, len(deltas))
		for i, d := range deltas {
			if d == nil {
				scaled[i] = &ot.PointDelta{}
				continue
			}
			scaled[i] = &ot.PointDelta{X: d.X * scalar, Y: d.Y * scalar}
		}
		if len(pinnedTupleAxes) == len(tv.Axes) {
			// a tuple for only axes being pinned is discarded, and its
			// contribution is reflected into the base outlines
			for i := range coordinates {
				if i < len(scaled) {
					coordinates[i].X += scaled[i].X
					coordinates[i].Y += scaled[i].Y
				}
			}
			defaultModified = true
		} else {
			tv.Points = scaled
			for tag := range pinnedTupleAxes {
				delete(tv.Axes, tag)
			}
			newVariations = append(newVariations, tv)
		}
	}
	if defaultModified {
		if err := glyf.SetCoordinates(gid, coordinates, otf.HMtx); err != nil {
			return err
		}
	}
	gvar.Variations[gid] = newVariations
	return nil
}

// pinnedAxesOf selects the tuple's support entries for axes pinned by the
// location.
func pinnedAxesOf(axes map[ot.Tag]ot.Support, loc Location) map[ot.Tag]ot.Support {
	var pinned map[ot.Tag]ot.Support
	for tag, sup := range axes {
		if _, ok := loc[tag]; ok {
			if pinned == nil {
				pinned = make(map[ot.Tag]ot.Support)
			}
			pinned[tag] = sup
		}
	}
	return pinned
}
