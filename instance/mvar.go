package instance

import (
	"github.com/npillmayer/varinstance/ot"
)

// metricTarget identifies one metric field reachable through an MVAR value
// tag: the owning table and a statically typed setter.
type metricTarget struct {
	table  ot.Tag
	adjust func(otf *ot.Font, delta int)
}

// mvarEntries maps the registered MVAR value tags to their metric fields.
// Unrecognized tags are skipped during delta application.
var mvarEntries = map[ot.Tag]metricTarget{
	ot.T("hasc"): {ot.T("hhea"), func(f *ot.Font, d int) { f.HHea.Ascender += int16(d) }},
	ot.T("hdsc"): {ot.T("hhea"), func(f *ot.Font, d int) { f.HHea.Descender += int16(d) }},
	ot.T("hlgp"): {ot.T("hhea"), func(f *ot.Font, d int) { f.HHea.LineGap += int16(d) }},
	ot.T("hcrs"): {ot.T("hhea"), func(f *ot.Font, d int) { f.HHea.CaretSlopeRise += int16(d) }},
	ot.T("hcrn"): {ot.T("hhea"), func(f *ot.Font, d int) { f.HHea.CaretSlopeRun += int16(d) }},
	ot.T("hcof"): {ot.T("hhea"), func(f *ot.Font, d int) { f.HHea.CaretOffset += int16(d) }},
	ot.T("vasc"): {ot.T("vhea"), func(f *ot.Font, d int) { f.VHea.Ascent += int16(d) }},
	ot.T("vdsc"): {ot.T("vhea"), func(f *ot.Font, d int) { f.VHea.Descent += int16(d) }},
	ot.T("vlgp"): {ot.T("vhea"), func(f *ot.Font, d int) { f.VHea.LineGap += int16(d) }},
	ot.T("vcrs"): {ot.T("vhea"), func(f *ot.Font, d int) { f.VHea.CaretSlopeRise += int16(d) }},
	ot.T("vcrn"): {ot.T("vhea"), func(f *ot.Font, d int) { f.VHea.CaretSlopeRun += int16(d) }},
	ot.T("vcof"): {ot.T("vhea"), func(f *ot.Font, d int) { f.VHea.CaretOffset += int16(d) }},
	ot.T("xhgt"): {ot.T("OS/2"), func(f *ot.Font, d int) { f.OS2.XHeight += int16(d) }},
	ot.T("cpht"): {ot.T("OS/2"), func(f *ot.Font, d int) { f.OS2.CapHeight += int16(d) }},
	ot.T("sbxs"): {ot.T("OS/2"), func(f *ot.Font, d int) { f.OS2.SubscriptXSize += int16(d) }},
	ot.T("sbys"): {ot.T("OS/2"), func(f *ot.Font, d int) { f.OS2.SubscriptYSize += int16(d) }},
	ot.T("sbxo"): {ot.T("OS/2"), func(f *ot.Font, d int) { f.OS2.SubscriptXOffset += int16(d) }},
	ot.T("sbyo"): {ot.T("OS/2"), func(f *ot.Font, d int) { f.OS2.SubscriptYOffset += int16(d) }},
	ot.T("spxs"): {ot.T("OS/2"), func(f *ot.Font, d int) { f.OS2.SuperscriptXSize += int16(d) }},
	ot.T("spys"): {ot.T("OS/2"), func(f *ot.Font, d int) { f.OS2.SuperscriptYSize += int16(d) }},
	ot.T("spxo"): {ot.T("OS/2"), func(f *ot.Font, d int) { f.OS2.SuperscriptXOffset += int16(d) }},
	ot.T("spyo"): {ot.T("OS/2"), func(f *ot.Font, d int) { f.OS2.SuperscriptYOffset += int16(d) }},
	ot.T("strs"): {ot.T("OS/2"), func(f *ot.Font, d int) { f.OS2.StrikeoutSize += int16(d) }},
	ot.T("stro"): {ot.T("OS/2"), func(f *ot.Font, d int) { f.OS2.StrikeoutPosition += int16(d) }},
	ot.T("unds"): {ot.T("post"), func(f *ot.Font, d int) { f.Post.UnderlineThicknss += int16(d) }},
	ot.T("undo"): {ot.T("post"), func(f *ot.Font, d int) { f.Post.UnderlinePosition += int16(d) }},
}

// targetPresent reports whether the table owning a metric field was parsed.
func targetPresent(otf *ot.Font, table ot.Tag) bool {
	switch table {
	case ot.T("hhea"):
		return otf.HHea != nil
	case ot.T("vhea"):
		return otf.VHea != nil
	case ot.T("OS/2"):
		return otf.OS2 != nil
	case ot.T("post"):
		return otf.Post != nil
	}
	return false
}

// setMvarDeltas evaluates the MVAR store at the pinned location and folds
// the resulting deltas into the referenced metric fields.
func setMvarDeltas(otf *ot.Font, loc Location) {
	tracer().Infof("setting MVAR deltas")
	mvar := otf.Mvar
	coords := coordsFromLocation(otf.Fvar, loc)
	for _, rec := range mvar.Records {
		target, ok := mvarEntries[rec.ValueTag]
		if !ok || !targetPresent(otf, target.table) {
			continue
		}
		delta := otRound(mvar.Store.DeltaAt(rec.VarIdx, coords))
		if delta == 0 {
			continue
		}
		target.adjust(otf, delta)
	}
}

// instantiateMvar applies the pinned deltas to the metric fields, then
// rewrites MVAR's item variation store. The table is removed when its store
// has no information left.
func instantiateMvar(otf *ot.Font, loc Location) {
	tracer().Infof("instantiating MVAR table")
	// first instantiate to the new position, without modifying the store
	setMvarDeltas(otf, loc)

	if !instantiateItemVariationStore(otf.Mvar.Store, otf.Fvar, loc) {
		otf.DeleteTable(ot.T("MVAR"))
	}
}

// coordsFromLocation spreads a pinned location over the fvar axis order;
// unpinned axes sit at 0.
func coordsFromLocation(fvar *ot.FvarTable, loc Location) []float64 {
	coords := make([]float64, len(fvar.Axes))
	for i, a := range fvar.Axes {
		if c, ok := loc[a.Tag]; ok {
			coords[i] = c
		}
	}
	return coords
}
