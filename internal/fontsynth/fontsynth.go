// Package fontsynth builds small binary OpenType fonts for tests. The
// synthesized fonts are structurally valid but minimal: no cmap or name
// table, uncompressed glyph flags, short loca offsets.
package fontsynth

import (
	"encoding/binary"
	"math"
	"sort"

	"github.com/npillmayer/varinstance/ot"
)

// Builder assembles raw tables into a single-font SFNT stream.
type Builder struct {
	tables map[string][]byte
}

// New creates an empty font builder.
func New() *Builder {
	return &Builder{tables: make(map[string][]byte)}
}

// Add registers a table under a 4-letter tag (shorter tags are padded).
func (b *Builder) Add(tag string, data []byte) *Builder {
	b.tables[(tag + "    ")[:4]] = data
	return b
}

// Bytes assembles the font: directory, 4-byte aligned tables, checksums.
func (b *Builder) Bytes() []byte {
	tags := make([]string, 0, len(b.tables))
	for tag := range b.tables {
		tags = append(tags, tag)
	}
	sort.Strings(tags)
	numTables := len(tags)
	entrySelector := 0
	for 1<<(entrySelector+1) <= numTables {
		entrySelector++
	}
	searchRange := (1 << entrySelector) * 16

	var out []byte
	u16 := func(v uint16) { out = binary.BigEndian.AppendUint16(out, v) }
	u32 := func(v uint32) { out = binary.BigEndian.AppendUint32(out, v) }
	u32(0x00010000)
	u16(uint16(numTables))
	u16(uint16(searchRange))
	u16(uint16(entrySelector))
	u16(uint16(numTables*16 - searchRange))
	dirAt := len(out)
	out = append(out, make([]byte, numTables*16)...)
	for i, tag := range tags {
		data := b.tables[tag]
		offset := len(out)
		out = append(out, data...)
		for len(out)%4 != 0 {
			out = append(out, 0)
		}
		entry := dirAt + i*16
		copy(out[entry:], tag)
		binary.BigEndian.PutUint32(out[entry+4:], checksum(data))
		binary.BigEndian.PutUint32(out[entry+8:], uint32(offset))
		binary.BigEndian.PutUint32(out[entry+12:], uint32(len(data)))
	}
	return out
}

func checksum(b []byte) uint32 {
	var sum uint32
	for i := 0; i < len(b); i += 4 {
		var word uint32
		for j := 0; j < 4; j++ {
			word <<= 8
			if i+j < len(b) {
				word |= uint32(b[i+j])
			}
		}
		sum += word
	}
	return sum
}

// --- Fixed-layout tables ----------------------------------------------------

// Head builds a head table with the given indexToLocFormat.
func Head(indexToLocFormat uint16) []byte {
	b := make([]byte, 54)
	binary.BigEndian.PutUint32(b[0:], 0x00010000)  // version
	binary.BigEndian.PutUint32(b[12:], 0x5F0F3CF5) // magic
	binary.BigEndian.PutUint16(b[18:], 1000)       // unitsPerEm
	binary.BigEndian.PutUint16(b[50:], indexToLocFormat)
	return b
}

// Maxp builds a version-1.0 maxp table.
func Maxp(numGlyphs int) []byte {
	b := make([]byte, 32)
	binary.BigEndian.PutUint32(b[0:], 0x00010000)
	binary.BigEndian.PutUint16(b[4:], uint16(numGlyphs))
	return b
}

// Hhea builds an hhea table.
func Hhea(ascender, descender, lineGap int16, numberOfHMetrics int) []byte {
	b := make([]byte, 36)
	binary.BigEndian.PutUint32(b[0:], 0x00010000)
	binary.BigEndian.PutUint16(b[4:], uint16(ascender))
	binary.BigEndian.PutUint16(b[6:], uint16(descender))
	binary.BigEndian.PutUint16(b[8:], uint16(lineGap))
	binary.BigEndian.PutUint16(b[34:], uint16(numberOfHMetrics))
	return b
}

// Hmtx builds an hmtx table with one long metric per glyph.
func Hmtx(advances []uint16, lsbs []int16) []byte {
	var b []byte
	for i, aw := range advances {
		b = binary.BigEndian.AppendUint16(b, aw)
		b = binary.BigEndian.AppendUint16(b, uint16(lsbs[i]))
	}
	return b
}

// Post builds a version-3.0 post table.
func Post(underlinePosition, underlineThickness int16) []byte {
	b := make([]byte, 32)
	binary.BigEndian.PutUint32(b[0:], 0x00030000)
	binary.BigEndian.PutUint16(b[8:], uint16(underlinePosition))
	binary.BigEndian.PutUint16(b[10:], uint16(underlineThickness))
	return b
}

// Cvt builds a control value table.
func Cvt(values []int16) []byte {
	var b []byte
	for _, v := range values {
		b = binary.BigEndian.AppendUint16(b, uint16(v))
	}
	return b
}

// Axis describes one fvar axis for Fvar.
type Axis struct {
	Tag               string
	Min, Default, Max float64
}

// Fvar builds an fvar table from axis descriptions.
func Fvar(axes ...Axis) []byte {
	t := &ot.FvarTable{}
	for _, a := range axes {
		t.Axes = append(t.Axes, ot.VariationAxis{
			Tag: ot.T(a.Tag), Min: a.Min, Default: a.Default, Max: a.Max,
		})
	}
	b, err := t.Encode()
	if err != nil {
		panic(err)
	}
	return b
}

// Avar builds an avar table; one segment list per axis, aligned to fvar.
func Avar(segments ...[]ot.SegmentMap) []byte {
	t := &ot.AvarTable{Segments: segments}
	b, err := t.Encode()
	if err != nil {
		panic(err)
	}
	return b
}

// --- Outlines ---------------------------------------------------------------

// GlyphSpec describes one glyph for Glyf: either contour points or
// composite component references.
type GlyphSpec struct {
	Contours   [][]ot.Point
	Components []ComponentSpec
}

// ComponentSpec is one composite component: a glyph reference at an offset.
type ComponentSpec struct {
	Glyph  uint16
	DX, DY int16
}

// Glyf builds the glyf and loca tables. A nil GlyphSpec yields an empty
// glyph. Returns (glyf, loca); loca uses the short format.
func Glyf(glyphs ...*GlyphSpec) (glyf []byte, loca []byte) {
	offsets := make([]uint32, 0, len(glyphs)+1)
	for _, g := range glyphs {
		offsets = append(offsets, uint32(len(glyf)))
		if g == nil {
			continue
		}
		if len(g.Components) > 0 {
			glyf = append(glyf, encodeCompositeGlyph(g.Components)...)
		} else {
			glyf = append(glyf, encodeSimpleGlyph(g.Contours)...)
		}
		for len(glyf)%2 != 0 {
			glyf = append(glyf, 0)
		}
	}
	offsets = append(offsets, uint32(len(glyf)))
	for _, off := range offsets {
		loca = binary.BigEndian.AppendUint16(loca, uint16(off/2))
	}
	return glyf, loca
}

func encodeSimpleGlyph(contours [][]ot.Point) []byte {
	var all []ot.Point
	var ends []int
	for _, c := range contours {
		all = append(all, c...)
		ends = append(ends, len(all)-1)
	}
	xMin, yMin := math.Inf(1), math.Inf(1)
	xMax, yMax := math.Inf(-1), math.Inf(-1)
	for _, p := range all {
		xMin, xMax = math.Min(xMin, p.X), math.Max(xMax, p.X)
		yMin, yMax = math.Min(yMin, p.Y), math.Max(yMax, p.Y)
	}
	var b []byte
	u16 := func(v uint16) { b = binary.BigEndian.AppendUint16(b, v) }
	u16(uint16(len(contours)))
	u16(uint16(int16(xMin)))
	u16(uint16(int16(yMin)))
	u16(uint16(int16(xMax)))
	u16(uint16(int16(yMax)))
	for _, e := range ends {
		u16(uint16(e))
	}
	u16(0) // no instructions
	// uncompressed: one flag byte per point, word coordinates
	for _, p := range all {
		flag := uint8(0)
		if p.OnCurve {
			flag = 0x01
		}
		b = append(b, flag)
	}
	px := 0
	for _, p := range all {
		x := int(p.X)
		u16(uint16(int16(x - px)))
		px = x
	}
	py := 0
	for _, p := range all {
		y := int(p.Y)
		u16(uint16(int16(y - py)))
		py = y
	}
	return b
}

func encodeCompositeGlyph(comps []ComponentSpec) []byte {
	var b []byte
	u16 := func(v uint16) { b = binary.BigEndian.AppendUint16(b, v) }
	u16(0xFFFF) // numberOfContours = -1
	u16(0)      // bounds left zero, recomputed on instancing
	u16(0)
	u16(0)
	u16(0)
	for i, c := range comps {
		flags := uint16(0x0001 | 0x0002) // words + xy values
		if i < len(comps)-1 {
			flags |= 0x0020 // more components
		}
		u16(flags)
		u16(c.Glyph)
		u16(uint16(c.DX))
		u16(uint16(c.DY))
	}
	return b
}

// --- Variation tables -------------------------------------------------------

// Gvar builds a gvar table from per-glyph tuple variations (axis order as
// given).
func Gvar(axisTags []ot.Tag, variations [][]*ot.TupleVariation) []byte {
	t := &ot.GvarTable{
		AxisCount:  len(axisTags),
		AxisTags:   axisTags,
		Variations: variations,
	}
	b, err := t.Encode()
	if err != nil {
		panic(err)
	}
	return b
}

// Cvar builds a cvar table.
func Cvar(axisTags []ot.Tag, variations []*ot.TupleVariation) []byte {
	t := &ot.CvarTable{AxisTags: axisTags, Variations: variations}
	b, err := t.Encode()
	if err != nil {
		panic(err)
	}
	return b
}

// Mvar builds an MVAR table.
func Mvar(records []ot.MvarRecord, store *ot.ItemVariationStore) []byte {
	t := &ot.MvarTable{Records: records, Store: store}
	b, err := t.Encode()
	if err != nil {
		panic(err)
	}
	return b
}

// Layout builds a GSUB or GPOS table from a feature list and optional
// feature variations. Script and lookup lists are left empty.
func Layout(features []ot.FeatureRecord, fv *ot.FeatureVariations) []byte {
	t := &ot.LayoutTable{FeatureList: features, FeatureVariations: fv}
	b, err := t.Encode()
	if err != nil {
		panic(err)
	}
	return b
}

// Hvar builds a placeholder HVAR table; the instancer drops it unread.
func Hvar() []byte {
	b := make([]byte, 20)
	binary.BigEndian.PutUint32(b[0:], 0x00010000)
	return b
}

// --- Helpers for tuple construction -----------------------------------------

// PinSupport is the support triple of a peak with default intermediates.
func PinSupport(peak float64) ot.Support {
	return ot.Support{Start: math.Min(0, peak), Peak: peak, End: math.Max(0, peak)}
}

// Deltas wraps dense per-point deltas for a gvar tuple.
func Deltas(pts ...ot.PointDelta) []*ot.PointDelta {
	out := make([]*ot.PointDelta, len(pts))
	for i := range pts {
		out[i] = &pts[i]
	}
	return out
}

// Values wraps cvar deltas; NaN marks an untouched entry.
func Values(vs ...float64) []*float64 {
	out := make([]*float64, len(vs))
	for i, v := range vs {
		if !math.IsNaN(v) {
			vv := v
			out[i] = &vv
		}
	}
	return out
}
