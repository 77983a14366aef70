package ot

import (
	"fmt"
	"math"
)

// RegionAxis is the influence of one axis within a variation region,
// in normalized design-space coordinates.
type RegionAxis struct {
	Start, Peak, End float64
}

// VarRegion is one region of an item variation store. Axes are aligned to
// the font's fvar axis order.
type VarRegion struct {
	Axes []RegionAxis
}

// Scalar evaluates the region's influence at a normalized location given as
// per-axis coordinates in fvar order. Missing coordinates count as 0.
func (r VarRegion) Scalar(coords []float64) float64 {
	scalar := 1.0
	for i, ax := range r.Axes {
		var c float64
		if i < len(coords) {
			c = coords[i]
		}
		f := axisFactor(ax.Start, ax.Peak, ax.End, c)
		if f == 0 {
			return 0
		}
		scalar *= f
	}
	return scalar
}

// axisFactor is the triangular influence function of one region axis.
func axisFactor(start, peak, end, c float64) float64 {
	if peak == 0 {
		return 1
	}
	if c == peak {
		return 1
	}
	if c <= start || c >= end {
		return 0
	}
	if c < peak {
		return (c - start) / (peak - start)
	}
	return (end - c) / (end - peak)
}

// VarData is one item-variation-data block: a local region-index list and a
// matrix of per-item deltas, one column per local region slot.
type VarData struct {
	RegionIndexes []uint16
	Items         [][]int32
}

// ItemVariationStore is the shared variation store format used by MVAR (and
// by HVAR, GDEF and others).
type ItemVariationStore struct {
	Format  uint16
	Regions []VarRegion
	Data    []*VarData
}

// DeltaAt evaluates the store for a variation index at a normalized
// location (per-axis coordinates in fvar order). The result is fractional;
// rounding is the caller's concern.
func (vs *ItemVariationStore) DeltaAt(varIdx uint32, coords []float64) float64 {
	if vs == nil {
		return 0
	}
	outer := int(varIdx >> 16)
	inner := int(varIdx & 0xFFFF)
	if outer >= len(vs.Data) || vs.Data[outer] == nil {
		return 0
	}
	vd := vs.Data[outer]
	if inner >= len(vd.Items) {
		return 0
	}
	item := vd.Items[inner]
	delta := 0.0
	for slot, regionIdx := range vd.RegionIndexes {
		if int(regionIdx) >= len(vs.Regions) || slot >= len(item) {
			continue
		}
		scalar := vs.Regions[regionIdx].Scalar(coords)
		if scalar == 0 {
			continue
		}
		delta += scalar * float64(item[slot])
	}
	return delta
}

// parseItemVariationStore decodes an ItemVariationStore subtable.
func parseItemVariationStore(data binarySegm) (*ItemVariationStore, error) {
	format, err := data.u16(0)
	if err != nil {
		return nil, err
	}
	if format != 1 {
		return nil, fmt.Errorf("unsupported item variation store format %d", format)
	}
	regionListOffset, err := data.u32(2)
	if err != nil {
		return nil, err
	}
	dataCount, err := data.u16(6)
	if err != nil {
		return nil, err
	}
	vs := &ItemVariationStore{Format: format}

	// region list
	rl, err := data.view(int(regionListOffset), len(data)-int(regionListOffset))
	if err != nil {
		return nil, err
	}
	axisCount, err := rl.u16(0)
	if err != nil {
		return nil, err
	}
	regionCount, err := rl.u16(2)
	if err != nil {
		return nil, err
	}
	vs.Regions = make([]VarRegion, regionCount)
	for i := range vs.Regions {
		axes := make([]RegionAxis, axisCount)
		for a := range axes {
			off := 4 + (i*int(axisCount)+a)*6
			start, err := rl.i16(off)
			if err != nil {
				return nil, err
			}
			peak, _ := rl.i16(off + 2)
			end, _ := rl.i16(off + 4)
			axes[a] = RegionAxis{
				Start: f2Dot14ToFloat(start),
				Peak:  f2Dot14ToFloat(peak),
				End:   f2Dot14ToFloat(end),
			}
		}
		vs.Regions[i] = VarRegion{Axes: axes}
	}

	// item variation data blocks
	vs.Data = make([]*VarData, dataCount)
	for i := range vs.Data {
		off, err := data.u32(8 + i*4)
		if err != nil {
			return nil, err
		}
		if off == 0 {
			continue
		}
		vd, err := parseVarData(data[off:])
		if err != nil {
			return nil, fmt.Errorf("cannot parse item variation data %d: %w", i, err)
		}
		vs.Data[i] = vd
	}
	return vs, nil
}

func parseVarData(data binarySegm) (*VarData, error) {
	itemCount, err := data.u16(0)
	if err != nil {
		return nil, err
	}
	wordDeltaCount, err := data.u16(2)
	if err != nil {
		return nil, err
	}
	regionIndexCount, err := data.u16(4)
	if err != nil {
		return nil, err
	}
	longWords := wordDeltaCount&0x8000 != 0
	wordCount := int(wordDeltaCount & 0x7FFF)
	if wordCount > int(regionIndexCount) {
		return nil, fmt.Errorf("wordDeltaCount %d exceeds regionIndexCount %d", wordCount, regionIndexCount)
	}
	vd := &VarData{RegionIndexes: make([]uint16, regionIndexCount)}
	for i := range vd.RegionIndexes {
		v, err := data.u16(6 + i*2)
		if err != nil {
			return nil, err
		}
		vd.RegionIndexes[i] = v
	}
	var rowSize int
	if longWords {
		rowSize = wordCount*4 + (int(regionIndexCount)-wordCount)*2
	} else {
		rowSize = wordCount*2 + (int(regionIndexCount) - wordCount)
	}
	rowsStart := 6 + int(regionIndexCount)*2
	vd.Items = make([][]int32, itemCount)
	for i := range vd.Items {
		row, err := data.view(rowsStart+i*rowSize, rowSize)
		if err != nil {
			return nil, err
		}
		item := make([]int32, regionIndexCount)
		for j := 0; j < int(regionIndexCount); j++ {
			if longWords {
				if j < wordCount {
					v, _ := row.u32(j * 4)
					item[j] = int32(v)
				} else {
					v, _ := row.i16(wordCount*4 + (j-wordCount)*2)
					item[j] = int32(v)
				}
			} else {
				if j < wordCount {
					v, _ := row.i16(j * 2)
					item[j] = int32(v)
				} else {
					item[j] = int32(int8(row[wordCount*2+(j-wordCount)]))
				}
			}
		}
		vd.Items[i] = item
	}
	return vd, nil
}

// encodeItemVariationStore serializes the store. Delta widths are chosen
// per block from the actual value ranges.
func encodeItemVariationStore(vs *ItemVariationStore) ([]byte, error) {
	w := &binaryBuilder{}
	w.putU16(1) // format
	regionListOffsetAt := w.len()
	w.putU32(0)
	w.putU16(uint16(len(vs.Data)))
	dataOffsetsAt := w.len()
	for range vs.Data {
		w.putU32(0)
	}

	// region list
	w.patchU32(regionListOffsetAt, uint32(w.len()))
	axisCount := 0
	if len(vs.Regions) > 0 {
		axisCount = len(vs.Regions[0].Axes)
	}
	w.putU16(uint16(axisCount))
	w.putU16(uint16(len(vs.Regions)))
	for _, r := range vs.Regions {
		if len(r.Axes) != axisCount {
			return nil, fmt.Errorf("inconsistent region axis count %d (expected %d)", len(r.Axes), axisCount)
		}
		for _, ax := range r.Axes {
			w.putI16(floatToF2Dot14(ax.Start))
			w.putI16(floatToF2Dot14(ax.Peak))
			w.putI16(floatToF2Dot14(ax.End))
		}
	}

	for i, vd := range vs.Data {
		if vd == nil {
			continue
		}
		w.patchU32(dataOffsetsAt+i*4, uint32(w.len()))
		if err := encodeVarData(w, vd); err != nil {
			return nil, fmt.Errorf("cannot encode item variation data %d: %w", i, err)
		}
	}
	return w.bytes(), nil
}

func encodeVarData(w *binaryBuilder, vd *VarData) error {
	regionCount := len(vd.RegionIndexes)
	// column widths: a slot needs a word if any item's delta falls outside
	// int8; long words if outside int16. Word columns must come first, so
	// slots are not reordered — the word run simply extends far enough.
	longWords := false
	wordCount := 0
	for _, item := range vd.Items {
		if len(item) != regionCount {
			return fmt.Errorf("item has %d deltas, block has %d region slots", len(item), regionCount)
		}
		for j, d := range item {
			if d < math.MinInt16 || d > math.MaxInt16 {
				longWords = true
			}
			if (d < math.MinInt8 || d > math.MaxInt8) && j+1 > wordCount {
				wordCount = j + 1
			}
		}
	}
	if longWords {
		// all narrow slots widen to words; wide slots to 32 bit
		wordCount = 0
		for _, item := range vd.Items {
			for j, d := range item {
				if (d < math.MinInt16 || d > math.MaxInt16) && j+1 > wordCount {
					wordCount = j + 1
				}
			}
		}
	}
	w.putU16(uint16(len(vd.Items)))
	wdc := uint16(wordCount)
	if longWords {
		wdc |= 0x8000
	}
	w.putU16(wdc)
	w.putU16(uint16(regionCount))
	for _, ri := range vd.RegionIndexes {
		w.putU16(ri)
	}
	for _, item := range vd.Items {
		for j, d := range item {
			if longWords {
				if j < wordCount {
					w.putU32(uint32(d))
				} else {
					w.putI16(int16(d))
				}
			} else {
				if j < wordCount {
					w.putI16(int16(d))
				} else {
					w.putU8(uint8(int8(d)))
				}
			}
		}
	}
	return nil
}
