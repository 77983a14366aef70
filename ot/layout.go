package ot

import (
	"fmt"
	"sort"
)

// FeatureTable is one OpenType layout feature: an optional FeatureParams
// blob and a list of lookup indexes.
type FeatureTable struct {
	Params        []byte // raw FeatureParams bytes, nil if absent
	LookupIndexes []uint16
}

// FeatureRecord pairs a feature tag with its feature table.
type FeatureRecord struct {
	Tag     Tag
	Feature *FeatureTable
}

// ConditionTable is one condition of a ConditionSet. Format 1 conditions
// specify an axis range; other formats are carried through raw.
type ConditionTable struct {
	Format         uint16
	AxisIndex      int
	FilterRangeMin float64 // F2Dot14 in the binary table
	FilterRangeMax float64
	raw            binarySegm // non-format-1 payload
}

// SubstitutionRecord replaces the feature at FeatureIndex with an alternate
// feature table.
type SubstitutionRecord struct {
	FeatureIndex int
	Feature      *FeatureTable
}

// FeatureSubstitution is a FeatureTableSubstitution table.
type FeatureSubstitution struct {
	Version uint32 // must be 0x00010000
	Records []SubstitutionRecord
}

// FeatureVariationRecord is one record of a FeatureVariations table: a
// condition set and the substitutions that apply when it matches.
type FeatureVariationRecord struct {
	Conditions   []*ConditionTable
	Substitution *FeatureSubstitution
}

// FeatureVariations is the FeatureVariations subtable of GSUB or GPOS.
type FeatureVariations struct {
	Version uint32
	Records []*FeatureVariationRecord
}

// LayoutTable is the variation-relevant view of a GSUB or GPOS table.
// The script list and lookup list are internally offset-relative and are
// carried through as raw blobs; the feature list and feature variations are
// fully structured since instancing rewrites them.
type LayoutTable struct {
	tableBase
	scriptListRaw     binarySegm
	lookupListRaw     binarySegm
	FeatureList       []FeatureRecord
	FeatureVariations *FeatureVariations // nil if absent
}

func newLayoutTable(tag Tag, b binarySegm, offset, size uint32) *LayoutTable {
	t := &LayoutTable{}
	t.tableBase = tableBase{data: b, name: tag, offset: offset, length: size}
	t.self = t
	return t
}

func (t *LayoutTable) parseAll() error {
	b := t.data
	if len(b) < 10 {
		return fmt.Errorf("%s table too small: %d bytes", t.name, len(b))
	}
	major, _ := b.u16(0)
	minor, _ := b.u16(2)
	if major != 1 {
		return fmt.Errorf("unsupported %s version %d.%d", t.name, major, minor)
	}
	scriptListOffset, _ := b.u16(4)
	featureListOffset, _ := b.u16(6)
	lookupListOffset, _ := b.u16(8)
	var fvOffset uint32
	if minor >= 1 {
		if len(b) < 14 {
			return errBufferBounds
		}
		fvOffset, _ = b.u32(10)
	}

	// top-level subtables are laid out back to back; each blob extends to
	// the next top-level offset (or the table end)
	extent := func(from uint32) binarySegm {
		if from == 0 || int(from) > len(b) {
			return nil
		}
		end := uint32(len(b))
		for _, o := range []uint32{uint32(scriptListOffset), uint32(featureListOffset),
			uint32(lookupListOffset), fvOffset} {
			if o > from && o < end {
				end = o
			}
		}
		return b[from:end]
	}

	t.scriptListRaw = extent(uint32(scriptListOffset))
	t.lookupListRaw = extent(uint32(lookupListOffset))

	if featureListOffset != 0 {
		fl := extent(uint32(featureListOffset))
		if err := t.parseFeatureList(fl); err != nil {
			return fmt.Errorf("cannot parse %s feature list: %w", t.name, err)
		}
	}
	if fvOffset != 0 {
		fv := extent(fvOffset)
		if err := t.parseFeatureVariations(fv); err != nil {
			return fmt.Errorf("cannot parse %s feature variations: %w", t.name, err)
		}
	}
	return nil
}

func (t *LayoutTable) parseFeatureList(b binarySegm) error {
	count, err := b.u16(0)
	if err != nil {
		return err
	}
	offsets := make([]int, count)
	t.FeatureList = make([]FeatureRecord, count)
	for i := range t.FeatureList {
		tg, err := b.u32(2 + i*6)
		if err != nil {
			return err
		}
		off, _ := b.u16(2 + i*6 + 4)
		t.FeatureList[i].Tag = Tag(tg)
		offsets[i] = int(off)
	}
	// each feature table extends to the next-higher feature offset
	sorted := append([]int(nil), offsets...)
	sort.Ints(sorted)
	for i := range t.FeatureList {
		end := len(b)
		for _, o := range sorted {
			if o > offsets[i] {
				end = o
				break
			}
		}
		ft, err := parseFeatureTable(b[offsets[i]:end])
		if err != nil {
			return err
		}
		t.FeatureList[i].Feature = ft
	}
	return nil
}

func parseFeatureTable(b binarySegm) (*FeatureTable, error) {
	paramsOffset, err := b.u16(0)
	if err != nil {
		return nil, err
	}
	count, err := b.u16(2)
	if err != nil {
		return nil, err
	}
	ft := &FeatureTable{LookupIndexes: make([]uint16, count)}
	for i := range ft.LookupIndexes {
		v, err := b.u16(4 + i*2)
		if err != nil {
			return nil, err
		}
		ft.LookupIndexes[i] = v
	}
	if paramsOffset != 0 && int(paramsOffset) < len(b) {
		ft.Params = append([]byte(nil), b[paramsOffset:]...)
	}
	return ft, nil
}

func (t *LayoutTable) parseFeatureVariations(b binarySegm) error {
	major, err := b.u16(0)
	if err != nil {
		return err
	}
	minor, _ := b.u16(2)
	count, err := b.u32(4)
	if err != nil {
		return err
	}
	fv := &FeatureVariations{Version: uint32(major)<<16 | uint32(minor)}
	fv.Records = make([]*FeatureVariationRecord, count)
	for i := range fv.Records {
		csOffset, err := b.u32(8 + i*8)
		if err != nil {
			return err
		}
		ftsOffset, _ := b.u32(8 + i*8 + 4)
		rec := &FeatureVariationRecord{}
		if csOffset != 0 {
			conds, err := parseConditionSet(b[csOffset:])
			if err != nil {
				return err
			}
			rec.Conditions = conds
		}
		if ftsOffset != 0 {
			fts, err := parseFeatureSubstitution(b[ftsOffset:])
			if err != nil {
				return err
			}
			rec.Substitution = fts
		}
		fv.Records[i] = rec
	}
	t.FeatureVariations = fv
	return nil
}

func parseConditionSet(b binarySegm) ([]*ConditionTable, error) {
	count, err := b.u16(0)
	if err != nil {
		return nil, err
	}
	conds := make([]*ConditionTable, count)
	for i := range conds {
		off, err := b.u32(2 + i*4)
		if err != nil {
			return nil, err
		}
		cond, err := parseCondition(b[off:])
		if err != nil {
			return nil, err
		}
		conds[i] = cond
	}
	return conds, nil
}

func parseCondition(b binarySegm) (*ConditionTable, error) {
	format, err := b.u16(0)
	if err != nil {
		return nil, err
	}
	c := &ConditionTable{Format: format}
	if format == 1 {
		ai, err := b.u16(2)
		if err != nil {
			return nil, err
		}
		mn, err := b.i16(4)
		if err != nil {
			return nil, err
		}
		mx, err := b.i16(6)
		if err != nil {
			return nil, err
		}
		c.AxisIndex = int(ai)
		c.FilterRangeMin = f2Dot14ToFloat(mn)
		c.FilterRangeMax = f2Dot14ToFloat(mx)
	} else {
		c.raw = b
	}
	return c, nil
}

func parseFeatureSubstitution(b binarySegm) (*FeatureSubstitution, error) {
	major, err := b.u16(0)
	if err != nil {
		return nil, err
	}
	minor, _ := b.u16(2)
	count, err := b.u16(4)
	if err != nil {
		return nil, err
	}
	fts := &FeatureSubstitution{Version: uint32(major)<<16 | uint32(minor)}
	fts.Records = make([]SubstitutionRecord, count)
	for i := range fts.Records {
		fi, err := b.u16(6 + i*6)
		if err != nil {
			return nil, err
		}
		off, _ := b.u32(6 + i*6 + 2)
		ft, err := parseFeatureTable(b[off:])
		if err != nil {
			return nil, err
		}
		fts.Records[i] = SubstitutionRecord{FeatureIndex: int(fi), Feature: ft}
	}
	return fts, nil
}

// --- Encoding ---------------------------------------------------------------

// Encode serializes the layout table: header, script list blob, rebuilt
// feature list, lookup list blob, rebuilt feature variations.
func (t *LayoutTable) Encode() ([]byte, error) {
	if t.FeatureList == nil && t.FeatureVariations == nil && len(t.data) > 0 {
		return t.data, nil
	}
	hasFV := t.FeatureVariations != nil && len(t.FeatureVariations.Records) > 0
	w := &binaryBuilder{}
	w.putU16(1)
	if hasFV {
		w.putU16(1)
	} else {
		w.putU16(0)
	}
	scriptAt := w.len()
	w.putU16(0)
	featureAt := w.len()
	w.putU16(0)
	lookupAt := w.len()
	w.putU16(0)
	fvAt := -1
	if hasFV {
		fvAt = w.len()
		w.putU32(0)
	}

	w.patchU16(scriptAt, uint16(w.len()))
	w.putBytes(t.scriptListRaw)
	for w.len()%2 != 0 {
		w.putU8(0)
	}

	flOffset := w.len()
	if flOffset > 0xFFFF {
		return nil, fmt.Errorf("%s feature list offset %d exceeds 16 bit", t.name, flOffset)
	}
	w.patchU16(featureAt, uint16(flOffset))
	encodeFeatureList(w, t.FeatureList)
	for w.len()%2 != 0 {
		w.putU8(0)
	}

	llOffset := w.len()
	if llOffset > 0xFFFF {
		return nil, fmt.Errorf("%s lookup list offset %d exceeds 16 bit", t.name, llOffset)
	}
	w.patchU16(lookupAt, uint16(llOffset))
	w.putBytes(t.lookupListRaw)
	for w.len()%2 != 0 {
		w.putU8(0)
	}

	if hasFV {
		w.patchU32(fvAt, uint32(w.len()))
		if err := encodeFeatureVariations(w, t.FeatureVariations); err != nil {
			return nil, err
		}
	}
	return w.bytes(), nil
}

func encodeFeatureTable(w *binaryBuilder, ft *FeatureTable) {
	paramsAt := w.len()
	w.putU16(0)
	w.putU16(uint16(len(ft.LookupIndexes)))
	for _, li := range ft.LookupIndexes {
		w.putU16(li)
	}
	if len(ft.Params) > 0 {
		w.patchU16(paramsAt, uint16(w.len()-paramsAt))
		w.putBytes(ft.Params)
	}
}

func encodeFeatureList(w *binaryBuilder, features []FeatureRecord) {
	base := w.len()
	w.putU16(uint16(len(features)))
	offsetSlots := make([]int, len(features))
	for i, fr := range features {
		w.putU32(uint32(fr.Tag))
		offsetSlots[i] = w.len()
		w.putU16(0)
	}
	for i, fr := range features {
		w.patchU16(offsetSlots[i], uint16(w.len()-base))
		encodeFeatureTable(w, fr.Feature)
	}
}

func encodeFeatureVariations(w *binaryBuilder, fv *FeatureVariations) error {
	base := w.len()
	w.putU16(uint16(fv.Version >> 16))
	w.putU16(uint16(fv.Version & 0xFFFF))
	w.putU32(uint32(len(fv.Records)))
	slots := make([][2]int, len(fv.Records))
	for i := range fv.Records {
		slots[i][0] = w.len()
		w.putU32(0) // conditionSetOffset
		slots[i][1] = w.len()
		w.putU32(0) // featureTableSubstitutionOffset
	}
	for i, rec := range fv.Records {
		if rec.Conditions != nil {
			w.patchU32(slots[i][0], uint32(w.len()-base))
			csBase := w.len()
			w.putU16(uint16(len(rec.Conditions)))
			condSlots := make([]int, len(rec.Conditions))
			for j := range rec.Conditions {
				condSlots[j] = w.len()
				w.putU32(0)
			}
			for j, c := range rec.Conditions {
				w.patchU32(condSlots[j], uint32(w.len()-csBase))
				if c.Format == 1 {
					w.putU16(1)
					w.putU16(uint16(c.AxisIndex))
					w.putI16(floatToF2Dot14(c.FilterRangeMin))
					w.putI16(floatToF2Dot14(c.FilterRangeMax))
				} else {
					w.putBytes(c.raw)
				}
			}
		}
		if rec.Substitution != nil {
			if rec.Substitution.Version != 0x00010000 {
				return fmt.Errorf("unsupported feature table substitution version 0x%08x",
					rec.Substitution.Version)
			}
			w.patchU32(slots[i][1], uint32(w.len()-base))
			ftsBase := w.len()
			w.putU16(1)
			w.putU16(0)
			w.putU16(uint16(len(rec.Substitution.Records)))
			subSlots := make([]int, len(rec.Substitution.Records))
			for j, sr := range rec.Substitution.Records {
				w.putU16(uint16(sr.FeatureIndex))
				subSlots[j] = w.len()
				w.putU32(0)
			}
			for j, sr := range rec.Substitution.Records {
				w.patchU32(subSlots[j], uint32(w.len()-ftsBase))
				encodeFeatureTable(w, sr.Feature)
			}
		}
	}
	return nil
}
