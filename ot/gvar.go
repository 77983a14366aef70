package ot

import (
	"fmt"
	"math"
)

// Support is the influence region of a tuple variation on one axis, in
// normalized design-space coordinates: start ≤ peak ≤ end, start ≤ 0 ≤ end.
type Support struct {
	Start, Peak, End float64
}

// PointDelta is a per-point outline delta in font units. Values are floats
// while instancing scales them; they are rounded on encode.
type PointDelta struct {
	X, Y float64
}

// TupleVariation is one delta set of a glyph ('gvar') or of the control
// value table ('cvar'). Axes not present in the Axes map have no effect on
// the tuple's applicability.
//
// Exactly one of Points or Values is used: Points for gvar (one entry per
// outline point plus phantoms), Values for cvar (one entry per cvt entry).
// A nil entry marks an untouched position: for gvar it is reconstructed by
// IUP, for cvar it means "no delta".
type TupleVariation struct {
	Axes   map[Tag]Support
	Points []*PointDelta
	Values []*float64
}

// HasUntouchedPoints returns true if any outline delta is unset and must be
// inferred by interpolation.
func (tv *TupleVariation) HasUntouchedPoints() bool {
	for _, p := range tv.Points {
		if p == nil {
			return true
		}
	}
	return false
}

// GvarTable represents a parsed gvar (Glyph Variations) table.
type GvarTable struct {
	tableBase
	AxisCount  int
	Variations [][]*TupleVariation // indexed by glyph id
	AxisTags   []Tag                // fvar axis order, needed for peak coords
}

func newGvarTable(tag Tag, b binarySegm, offset, size uint32) *GvarTable {
	t := &GvarTable{}
	t.tableBase = tableBase{data: b, name: tag, offset: offset, length: size}
	t.self = t
	return t
}

// parseAll decodes the tuple variations of every glyph. pointCounts holds
// the per-glyph coordinate array length (outline points plus phantoms).
func (t *GvarTable) parseAll(axisTags []Tag, pointCounts []int) error {
	b := t.data
	if len(b) < 20 {
		return fmt.Errorf("gvar table too small: %d bytes", len(b))
	}
	major, _ := b.u16(0)
	if major != 1 {
		return fmt.Errorf("unsupported gvar version %d", major)
	}
	axisCount, _ := b.u16(4)
	sharedTupleCount, _ := b.u16(6)
	sharedTuplesOffset, _ := b.u32(8)
	glyphCount, _ := b.u16(12)
	flags, _ := b.u16(14)
	dataArrayOffset, _ := b.u32(16)
	if int(axisCount) != len(axisTags) {
		return fmt.Errorf("gvar axis count %d does not match fvar (%d)", axisCount, len(axisTags))
	}
	t.AxisCount = int(axisCount)
	t.AxisTags = axisTags

	longOffsets := flags&1 != 0
	offsets := make([]uint32, int(glyphCount)+1)
	for i := range offsets {
		if longOffsets {
			v, err := b.u32(20 + i*4)
			if err != nil {
				return err
			}
			offsets[i] = v
		} else {
			v, err := b.u16(20 + i*2)
			if err != nil {
				return err
			}
			offsets[i] = uint32(v) * 2
		}
	}

	sharedTuples := make([][]float64, sharedTupleCount)
	for i := range sharedTuples {
		coords := make([]float64, axisCount)
		for j := 0; j < int(axisCount); j++ {
			v, err := b.i16(int(sharedTuplesOffset) + (i*int(axisCount)+j)*2)
			if err != nil {
				return err
			}
			coords[j] = f2Dot14ToFloat(v)
		}
		sharedTuples[i] = coords
	}

	t.Variations = make([][]*TupleVariation, glyphCount)
	for gid := range t.Variations {
		start := dataArrayOffset + offsets[gid]
		end := dataArrayOffset + offsets[gid+1]
		if start == end {
			continue
		}
		data, err := b.view(int(start), int(end-start))
		if err != nil {
			return fmt.Errorf("glyph %d variation data out of bounds", gid)
		}
		numPoints := 0
		if gid < len(pointCounts) {
			numPoints = pointCounts[gid]
		}
		vars, err := parseTupleVariations(data, axisTags, sharedTuples, numPoints, true)
		if err != nil {
			return fmt.Errorf("cannot parse variations of glyph %d: %w", gid, err)
		}
		t.Variations[gid] = vars
	}
	return nil
}

// Encode serializes the gvar table. Peak and intermediate tuples are always
// embedded; shared tuples and shared point numbers are not regenerated.
// A table that was never decoded reproduces its original bytes.
func (t *GvarTable) Encode() ([]byte, error) {
	if t.Variations == nil && len(t.data) > 0 {
		return t.data, nil
	}
	glyphData := make([][]byte, len(t.Variations))
	for gid, vars := range t.Variations {
		if len(vars) == 0 {
			continue
		}
		b, err := encodeTupleVariations(vars, t.AxisTags, true)
		if err != nil {
			return nil, fmt.Errorf("cannot encode variations of glyph %d: %w", gid, err)
		}
		glyphData[gid] = b
	}
	// decide offset format
	total := 0
	for _, b := range glyphData {
		total += (len(b) + 1) &^ 1
	}
	longOffsets := total > 0xFFFF*2
	w := &binaryBuilder{}
	w.putU16(1)
	w.putU16(0)
	w.putU16(uint16(t.AxisCount))
	w.putU16(0) // sharedTupleCount
	w.putU32(0) // sharedTuplesOffset (none)
	w.putU16(uint16(len(t.Variations)))
	if longOffsets {
		w.putU16(1)
	} else {
		w.putU16(0)
	}
	dataArrayOffsetAt := w.len()
	w.putU32(0) // patched below
	running := uint32(0)
	putOffset := func(v uint32) {
		if longOffsets {
			w.putU32(v)
		} else {
			w.putU16(uint16(v / 2))
		}
	}
	putOffset(0)
	for _, b := range glyphData {
		running += uint32((len(b) + 1) &^ 1)
		putOffset(running)
	}
	w.patchU32(dataArrayOffsetAt, uint32(w.len()))
	for _, b := range glyphData {
		w.putBytes(b)
		if len(b)%2 != 0 {
			w.putU8(0)
		}
	}
	return w.bytes(), nil
}

// CvarTable represents a parsed cvar (CVT Variations) table.
type CvarTable struct {
	tableBase
	Variations []*TupleVariation
	AxisTags   []Tag
}

func newCvarTable(tag Tag, b binarySegm, offset, size uint32) *CvarTable {
	t := &CvarTable{}
	t.tableBase = tableBase{data: b, name: tag, offset: offset, length: size}
	t.self = t
	return t
}

func (t *CvarTable) parseAll(axisTags []Tag, cvtCount int) error {
	b := t.data
	if len(b) < 8 {
		return fmt.Errorf("cvar table too small: %d bytes", len(b))
	}
	major, _ := b.u16(0)
	if major != 1 {
		return fmt.Errorf("unsupported cvar version %d", major)
	}
	t.AxisTags = axisTags
	// cvar's serialized-data offset is relative to the table start, which
	// lies 4 bytes before the store body.
	vars, err := parseTupleVariationsBiased(b[4:], axisTags, nil, cvtCount, false, 4)
	if err != nil {
		return err
	}
	t.Variations = vars
	return nil
}

// Encode serializes the cvar table. A table that was never decoded
// reproduces its original bytes.
func (t *CvarTable) Encode() ([]byte, error) {
	if t.Variations == nil && len(t.data) > 0 {
		return t.data, nil
	}
	body, err := encodeTupleVariationsBiased(t.Variations, t.AxisTags, false, 4)
	if err != nil {
		return nil, err
	}
	w := &binaryBuilder{}
	w.putU16(1)
	w.putU16(0)
	w.putBytes(body)
	return w.bytes(), nil
}

// --- Tuple variation store decoding -----------------------------------------

const (
	tuplesSharePointNumbers = 0x8000
	tupleCountMask          = 0x0FFF
	tupleEmbeddedPeak       = 0x8000
	tupleIntermediateRegion = 0x4000
	tuplePrivatePointNums   = 0x2000
	tupleIndexMask          = 0x0FFF
)

// parseTupleVariations decodes a TupleVariationStore body: the
// tupleVariationCount/dataOffset header pair, the tuple headers, and the
// serialized points/deltas. The layout is shared between gvar (per glyph)
// and cvar (table-wide, after its version field).
func parseTupleVariations(data binarySegm, axisTags []Tag, sharedTuples [][]float64,
	numEntries int, isGvar bool) ([]*TupleVariation, error) {
	return parseTupleVariationsBiased(data, axisTags, sharedTuples, numEntries, isGvar, 0)
}

// parseTupleVariationsBiased is parseTupleVariations with a correction for
// stores whose data offset is relative to a point before the store body
// (cvar counts from the table start).
func parseTupleVariationsBiased(data binarySegm, axisTags []Tag, sharedTuples [][]float64,
	numEntries int, isGvar bool, offsetBias int) ([]*TupleVariation, error) {
	countWord, err := data.u16(0)
	if err != nil {
		return nil, err
	}
	dataOffset, err := data.u16(2)
	if err != nil {
		return nil, err
	}
	tupleCount := int(countWord & tupleCountMask)
	if tupleCount == 0 {
		return nil, nil
	}
	axisCount := len(axisTags)

	var sharedPoints []int
	sharedAll := false
	serialized := int(dataOffset) - offsetBias
	if serialized < 4 {
		return nil, errBufferBounds
	}
	if countWord&tuplesSharePointNumbers != 0 {
		pts, all, consumed, err := unpackPointNumbers(data[serialized:])
		if err != nil {
			return nil, err
		}
		sharedPoints, sharedAll = pts, all
		serialized += consumed
	}

	vars := make([]*TupleVariation, 0, tupleCount)
	headerOffset := 4
	for i := 0; i < tupleCount; i++ {
		size, err := data.u16(headerOffset)
		if err != nil {
			return nil, err
		}
		tupleIndex, err := data.u16(headerOffset + 2)
		if err != nil {
			return nil, err
		}
		headerOffset += 4

		var peak []float64
		if tupleIndex&tupleEmbeddedPeak != 0 {
			peak = make([]float64, axisCount)
			for a := 0; a < axisCount; a++ {
				v, err := data.i16(headerOffset)
				if err != nil {
					return nil, err
				}
				peak[a] = f2Dot14ToFloat(v)
				headerOffset += 2
			}
		} else {
			idx := int(tupleIndex & tupleIndexMask)
			if idx >= len(sharedTuples) {
				return nil, fmt.Errorf("shared tuple index %d out of range", idx)
			}
			peak = sharedTuples[idx]
		}
		var start, end []float64
		if tupleIndex&tupleIntermediateRegion != 0 {
			start = make([]float64, axisCount)
			end = make([]float64, axisCount)
			for a := 0; a < axisCount; a++ {
				v, err := data.i16(headerOffset)
				if err != nil {
					return nil, err
				}
				start[a] = f2Dot14ToFloat(v)
				headerOffset += 2
			}
			for a := 0; a < axisCount; a++ {
				v, err := data.i16(headerOffset)
				if err != nil {
					return nil, err
				}
				end[a] = f2Dot14ToFloat(v)
				headerOffset += 2
			}
		}

		tv := &TupleVariation{Axes: make(map[Tag]Support)}
		for a := 0; a < axisCount; a++ {
			if peak[a] == 0 {
				continue
			}
			sup := Support{Peak: peak[a]}
			if start != nil {
				sup.Start, sup.End = start[a], end[a]
			} else {
				sup.Start = math.Min(0, peak[a])
				sup.End = math.Max(0, peak[a])
			}
			tv.Axes[axisTags[a]] = sup
		}

		tupleData, err := data.view(serialized, int(size))
		if err != nil {
			return nil, fmt.Errorf("tuple %d serialized data out of bounds", i)
		}
		serialized += int(size)

		points, all := sharedPoints, sharedAll
		consumed := 0
		if tupleIndex&tuplePrivatePointNums != 0 {
			points, all, consumed, err = unpackPointNumbers(tupleData)
			if err != nil {
				return nil, err
			}
		} else if countWord&tuplesSharePointNumbers == 0 {
			all = true
		}
		deltaData := tupleData[consumed:]
		deltaCount := numEntries
		if !all {
			deltaCount = len(points)
		}
		if isGvar {
			xs, rest, err := unpackDeltas(deltaData, deltaCount)
			if err != nil {
				return nil, err
			}
			ys, _, err := unpackDeltas(rest, deltaCount)
			if err != nil {
				return nil, err
			}
			tv.Points = make([]*PointDelta, numEntries)
			if all {
				for j := 0; j < numEntries && j < len(xs); j++ {
					tv.Points[j] = &PointDelta{X: float64(xs[j]), Y: float64(ys[j])}
				}
			} else {
				for j, pt := range points {
					if pt < numEntries {
						tv.Points[pt] = &PointDelta{X: float64(xs[j]), Y: float64(ys[j])}
					}
				}
			}
		} else {
			ds, _, err := unpackDeltas(deltaData, deltaCount)
			if err != nil {
				return nil, err
			}
			tv.Values = make([]*float64, numEntries)
			if all {
				for j := 0; j < numEntries && j < len(ds); j++ {
					v := float64(ds[j])
					tv.Values[j] = &v
				}
			} else {
				for j, pt := range points {
					if pt < numEntries {
						v := float64(ds[j])
						tv.Values[pt] = &v
					}
				}
			}
		}
		vars = append(vars, tv)
	}
	return vars, nil
}

// unpackPointNumbers decodes a packed point-number list. The returned flag
// is true for the "all points" encoding (count byte 0).
func unpackPointNumbers(data binarySegm) (points []int, all bool, consumed int, err error) {
	if len(data) == 0 {
		return nil, false, 0, errBufferBounds
	}
	count := int(data[0])
	offset := 1
	if count == 0 {
		return nil, true, 1, nil
	}
	if count&0x80 != 0 {
		if len(data) < 2 {
			return nil, false, 0, errBufferBounds
		}
		count = (count&0x7F)<<8 | int(data[1])
		offset = 2
	}
	points = make([]int, 0, count)
	last := 0
	for len(points) < count {
		if offset >= len(data) {
			return nil, false, 0, errBufferBounds
		}
		run := data[offset]
		offset++
		words := run&0x80 != 0
		runCount := int(run&0x7F) + 1
		for i := 0; i < runCount && len(points) < count; i++ {
			var d int
			if words {
				v, err := data.u16(offset)
				if err != nil {
					return nil, false, 0, err
				}
				d = int(v)
				offset += 2
			} else {
				if offset >= len(data) {
					return nil, false, 0, errBufferBounds
				}
				d = int(data[offset])
				offset++
			}
			last += d
			points = append(points, last)
		}
	}
	return points, false, offset, nil
}

// unpackDeltas decodes one packed delta series of the given length and
// returns the remaining bytes.
func unpackDeltas(data binarySegm, count int) ([]int, binarySegm, error) {
	deltas := make([]int, 0, count)
	offset := 0
	for len(deltas) < count {
		if offset >= len(data) {
			return nil, nil, errBufferBounds
		}
		run := data[offset]
		offset++
		zero := run&0x80 != 0
		words := run&0x40 != 0
		runCount := int(run&0x3F) + 1
		for i := 0; i < runCount && len(deltas) < count; i++ {
			switch {
			case zero:
				deltas = append(deltas, 0)
			case words:
				v, err := data.i16(offset)
				if err != nil {
					return nil, nil, err
				}
				deltas = append(deltas, int(v))
				offset += 2
			default:
				if offset >= len(data) {
					return nil, nil, errBufferBounds
				}
				deltas = append(deltas, int(int8(data[offset])))
				offset++
			}
		}
	}
	return deltas, data[offset:], nil
}

// --- Tuple variation store encoding -----------------------------------------

// encodeTupleVariations serializes a TupleVariationStore body (the part
// after gvar's per-glyph offset, or after cvar's version field).
func encodeTupleVariations(vars []*TupleVariation, axisTags []Tag, isGvar bool) ([]byte, error) {
	return encodeTupleVariationsBiased(vars, axisTags, isGvar, 0)
}

func encodeTupleVariationsBiased(vars []*TupleVariation, axisTags []Tag, isGvar bool, offsetBias int) ([]byte, error) {
	headers := &binaryBuilder{}
	serialized := &binaryBuilder{}
	for _, tv := range vars {
		sizeBefore := serialized.len()
		points, all := touchedPoints(tv, isGvar)
		packPointNumbers(serialized, points, all)
		if isGvar {
			xs := make([]int, 0, len(points))
			ys := make([]int, 0, len(points))
			if all {
				for _, p := range tv.Points {
					xs = append(xs, otRoundFU(p.X))
					ys = append(ys, otRoundFU(p.Y))
				}
			} else {
				for _, idx := range points {
					p := tv.Points[idx]
					xs = append(xs, otRoundFU(p.X))
					ys = append(ys, otRoundFU(p.Y))
				}
			}
			packDeltas(serialized, xs)
			packDeltas(serialized, ys)
		} else {
			ds := make([]int, 0, len(points))
			if all {
				for _, v := range tv.Values {
					ds = append(ds, otRoundFU(*v))
				}
			} else {
				for _, idx := range points {
					ds = append(ds, otRoundFU(*tv.Values[idx]))
				}
			}
			packDeltas(serialized, ds)
		}
		size := serialized.len() - sizeBefore
		if size > 0xFFFF {
			return nil, fmt.Errorf("serialized tuple data too large: %d bytes", size)
		}

		// header: always embedded peak and private point numbers
		flags := uint16(tupleEmbeddedPeak | tuplePrivatePointNums)
		intermediate := false
		for _, tag := range axisTags {
			sup, ok := tv.Axes[tag]
			if !ok {
				continue
			}
			if sup.Start != math.Min(0, sup.Peak) || sup.End != math.Max(0, sup.Peak) {
				intermediate = true
			}
		}
		if intermediate {
			flags |= tupleIntermediateRegion
		}
		headers.putU16(uint16(size))
		headers.putU16(flags)
		for _, tag := range axisTags {
			headers.putI16(floatToF2Dot14(tv.Axes[tag].Peak))
		}
		if intermediate {
			for _, tag := range axisTags {
				sup := tv.Axes[tag]
				headers.putI16(floatToF2Dot14(sup.Start))
			}
			for _, tag := range axisTags {
				sup := tv.Axes[tag]
				headers.putI16(floatToF2Dot14(sup.End))
			}
		}
	}
	w := &binaryBuilder{}
	w.putU16(uint16(len(vars))) // no shared point numbers
	w.putU16(uint16(4 + headers.len() + offsetBias))
	w.putBytes(headers.bytes())
	w.putBytes(serialized.bytes())
	return w.bytes(), nil
}

// touchedPoints lists the indexes carrying explicit deltas. The flag is
// true when every position is touched, selecting the "all points" encoding.
func touchedPoints(tv *TupleVariation, isGvar bool) ([]int, bool) {
	var n int
	isSet := func(i int) bool { return false }
	if isGvar {
		n = len(tv.Points)
		isSet = func(i int) bool { return tv.Points[i] != nil }
	} else {
		n = len(tv.Values)
		isSet = func(i int) bool { return tv.Values[i] != nil }
	}
	points := make([]int, 0, n)
	for i := 0; i < n; i++ {
		if isSet(i) {
			points = append(points, i)
		}
	}
	return points, len(points) == n
}

func packPointNumbers(w *binaryBuilder, points []int, all bool) {
	if all {
		w.putU8(0)
		return
	}
	if len(points) > 0x7F {
		w.putU8(uint8(len(points)>>8) | 0x80)
		w.putU8(uint8(len(points)))
	} else {
		w.putU8(uint8(len(points)))
	}
	// delta-encode, in runs of up to 128, words when any delta exceeds a byte
	last := 0
	i := 0
	for i < len(points) {
		j := i
		words := false
		for j < len(points) && j-i < 128 {
			d := points[j] - lastOf(points, j, last)
			if d > 0xFF {
				words = true
			}
			j++
		}
		w.putU8(uint8(j-i-1) | boolBit(words, 0x80))
		for k := i; k < j; k++ {
			d := points[k] - last
			last = points[k]
			if words {
				w.putU16(uint16(d))
			} else {
				w.putU8(uint8(d))
			}
		}
		i = j
	}
}

func lastOf(points []int, j, fallback int) int {
	if j == 0 {
		return fallback
	}
	return points[j-1]
}

func boolBit(b bool, bit uint8) uint8 {
	if b {
		return bit
	}
	return 0
}

func packDeltas(w *binaryBuilder, deltas []int) {
	i := 0
	for i < len(deltas) {
		// zero run
		if deltas[i] == 0 {
			j := i
			for j < len(deltas) && deltas[j] == 0 && j-i < 64 {
				j++
			}
			w.putU8(0x80 | uint8(j-i-1))
			i = j
			continue
		}
		// byte run
		if fitsInt8(deltas[i]) {
			j := i
			for j < len(deltas) && deltas[j] != 0 && fitsInt8(deltas[j]) && j-i < 64 {
				j++
			}
			w.putU8(uint8(j - i - 1))
			for k := i; k < j; k++ {
				w.putU8(uint8(int8(deltas[k])))
			}
			i = j
			continue
		}
		// word run
		j := i
		for j < len(deltas) && !fitsInt8(deltas[j]) && j-i < 64 {
			j++
		}
		w.putU8(0x40 | uint8(j-i-1))
		for k := i; k < j; k++ {
			w.putI16(int16(deltas[k]))
		}
		i = j
	}
}

func fitsInt8(v int) bool {
	return v >= -128 && v <= 127
}
