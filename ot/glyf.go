package ot

import (
	"fmt"
	"math"
	"sort"
)

// Simple-glyph coordinate flags.
const (
	flagOnCurve      = 0x01
	flagXShort       = 0x02
	flagYShort       = 0x04
	flagRepeat       = 0x08
	flagXSameOrPos   = 0x10
	flagYSameOrPos   = 0x20
	flagOverlapSimpl = 0x40
)

// Composite-glyph component flags.
const (
	flagArg1And2AreWords = 0x0001
	flagArgsAreXYValues  = 0x0002
	flagWeHaveAScale     = 0x0008
	flagMoreComponents   = 0x0020
	flagWeHaveXYScale    = 0x0040
	flagWeHave2x2        = 0x0080
	flagWeHaveInstr      = 0x0100
)

// Point is one point of a glyph outline in font units. Coordinates are
// carried as floats while variation deltas are being applied; they are
// rounded when the glyph is re-encoded.
type Point struct {
	X, Y    float64
	OnCurve bool
}

// SimpleGlyph is a decoded simple (contour) glyph.
type SimpleGlyph struct {
	EndPts       []int // index of the last point of each contour
	Points       []Point
	flags        []uint8 // original per-point flags; short/same bits are regenerated
	Instructions []byte
}

// Component is one component record of a composite glyph.
type Component struct {
	Flags      uint16
	GlyphIndex GlyphIndex
	// DX, DY are the component offset when ARGS_ARE_XY_VALUES is set;
	// otherwise Arg1/Arg2 are point numbers and the offset is anchored.
	DX, DY     float64
	Arg1, Arg2 int // raw args for the anchored case
	transform  [4]float64
	transRaw   []byte // original transform bytes, re-emitted verbatim
}

// Anchored returns true if the component is positioned by point matching
// instead of an x/y offset.
func (c *Component) Anchored() bool {
	return c.Flags&flagArgsAreXYValues == 0
}

// CompositeGlyph is a decoded composite glyph.
type CompositeGlyph struct {
	Components   []Component
	Instructions []byte
}

// Glyph is one entry of the glyf table. A nil Glyph (or one with neither
// Simple nor Composite set) is an empty glyph.
type Glyph struct {
	XMin, YMin, XMax, YMax int16
	Simple                 *SimpleGlyph
	Composite              *CompositeGlyph
	raw                    binarySegm // original encoding, reused while unmodified
	dirty                  bool
}

// IsComposite returns true for composite glyphs.
func (g *Glyph) IsComposite() bool {
	return g != nil && g.Composite != nil
}

// GlyfTable holds the decoded TrueType outlines of a font. The companion
// loca table is regenerated whenever glyf is re-encoded.
type GlyfTable struct {
	tableBase
	Glyphs []*Glyph // indexed by glyph id; nil entries are empty glyphs
	// locaOffsets is filled by Encode for the font writer.
	locaOffsets []uint32
}

func newGlyfTable(tag Tag, b binarySegm, offset, size uint32) *GlyfTable {
	t := &GlyfTable{}
	t.tableBase = tableBase{data: b, name: tag, offset: offset, length: size}
	t.self = t
	return t
}

// parseAll decodes all glyphs using the given loca offsets.
func (t *GlyfTable) parseAll(locaOffsets []uint32) error {
	t.Glyphs = make([]*Glyph, len(locaOffsets)-1)
	for gid := range t.Glyphs {
		start, end := locaOffsets[gid], locaOffsets[gid+1]
		if start == end {
			continue // empty glyph
		}
		if int(end) > len(t.data) || start > end {
			return fmt.Errorf("glyph %d extends past end of glyf table", gid)
		}
		g, err := parseGlyph(t.data[start:end])
		if err != nil {
			return fmt.Errorf("cannot parse glyph %d: %w", gid, err)
		}
		t.Glyphs[gid] = g
	}
	return nil
}

func parseGlyph(data binarySegm) (*Glyph, error) {
	if len(data) < 10 {
		return nil, errBufferBounds
	}
	g := &Glyph{raw: data}
	numberOfContours, _ := data.i16(0)
	g.XMin, _ = data.i16(2)
	g.YMin, _ = data.i16(4)
	g.XMax, _ = data.i16(6)
	g.YMax, _ = data.i16(8)
	var err error
	if numberOfContours >= 0 {
		g.Simple, err = parseSimpleGlyph(data[10:], int(numberOfContours))
	} else {
		g.Composite, err = parseCompositeGlyph(data[10:])
	}
	return g, err
}

func parseSimpleGlyph(data binarySegm, numberOfContours int) (*SimpleGlyph, error) {
	sg := &SimpleGlyph{}
	if len(data) < numberOfContours*2+2 {
		return nil, errBufferBounds
	}
	sg.EndPts = make([]int, numberOfContours)
	for i := range sg.EndPts {
		e, _ := data.u16(i * 2)
		sg.EndPts[i] = int(e)
	}
	if !sort.IntsAreSorted(sg.EndPts) {
		return nil, fmt.Errorf("contour end points not sorted")
	}
	instrLen, _ := data.u16(numberOfContours * 2)
	offset := numberOfContours*2 + 2
	if offset+int(instrLen) > len(data) {
		return nil, errBufferBounds
	}
	sg.Instructions = append([]byte(nil), data[offset:offset+int(instrLen)]...)
	offset += int(instrLen)
	numPoints := 0
	if numberOfContours > 0 {
		numPoints = sg.EndPts[numberOfContours-1] + 1
	}
	sg.Points = make([]Point, numPoints)
	sg.flags = make([]uint8, numPoints)
	// flags, with repeat compression
	for i := 0; i < numPoints; {
		if offset >= len(data) {
			return nil, errBufferBounds
		}
		flag := data[offset]
		offset++
		sg.flags[i] = flag
		i++
		if flag&flagRepeat != 0 {
			if offset >= len(data) {
				return nil, errBufferBounds
			}
			repeat := int(data[offset])
			offset++
			if i+repeat > numPoints {
				repeat = numPoints - i
			}
			for j := 0; j < repeat; j++ {
				sg.flags[i] = flag
				i++
			}
		}
	}
	// x coordinates (relative to predecessor)
	var err error
	offset, err = decodeCoords(data, offset, sg, flagXShort, flagXSameOrPos,
		func(i int, v int) { sg.Points[i].X = float64(v) })
	if err != nil {
		return nil, err
	}
	_, err = decodeCoords(data, offset, sg, flagYShort, flagYSameOrPos,
		func(i int, v int) { sg.Points[i].Y = float64(v) })
	if err != nil {
		return nil, err
	}
	for i, f := range sg.flags {
		sg.Points[i].OnCurve = f&flagOnCurve != 0
	}
	return sg, nil
}

func decodeCoords(data binarySegm, offset int, sg *SimpleGlyph, shortFlag, sameFlag uint8,
	set func(i int, v int)) (int, error) {
	v := 0
	for i, f := range sg.flags {
		if f&shortFlag != 0 {
			if offset >= len(data) {
				return 0, errBufferBounds
			}
			d := int(data[offset])
			offset++
			if f&sameFlag == 0 {
				d = -d
			}
			v += d
		} else if f&sameFlag == 0 {
			d, err := data.i16(offset)
			if err != nil {
				return 0, err
			}
			offset += 2
			v += int(d)
		}
		set(i, v)
	}
	return offset, nil
}

func parseCompositeGlyph(data binarySegm) (*CompositeGlyph, error) {
	cg := &CompositeGlyph{}
	offset := 0
	var flags uint16
	for {
		f, err := data.u16(offset)
		if err != nil {
			return nil, err
		}
		flags = f
		gi, err := data.u16(offset + 2)
		if err != nil {
			return nil, err
		}
		offset += 4
		comp := Component{Flags: flags, GlyphIndex: GlyphIndex(gi), transform: [4]float64{1, 0, 0, 1}}
		var arg1, arg2 int
		if flags&flagArg1And2AreWords != 0 {
			a1, err := data.i16(offset)
			if err != nil {
				return nil, err
			}
			a2, _ := data.i16(offset + 2)
			arg1, arg2 = int(a1), int(a2)
			offset += 4
		} else {
			if offset+2 > len(data) {
				return nil, errBufferBounds
			}
			if flags&flagArgsAreXYValues != 0 {
				arg1, arg2 = int(int8(data[offset])), int(int8(data[offset+1]))
			} else {
				arg1, arg2 = int(data[offset]), int(data[offset+1])
			}
			offset += 2
		}
		if flags&flagArgsAreXYValues != 0 {
			comp.DX, comp.DY = float64(arg1), float64(arg2)
		} else {
			comp.Arg1, comp.Arg2 = arg1, arg2
		}
		transStart := offset
		switch {
		case flags&flagWeHaveAScale != 0:
			s, err := data.i16(offset)
			if err != nil {
				return nil, err
			}
			sc := f2Dot14ToFloat(s)
			comp.transform = [4]float64{sc, 0, 0, sc}
			offset += 2
		case flags&flagWeHaveXYScale != 0:
			sx, err := data.i16(offset)
			if err != nil {
				return nil, err
			}
			sy, _ := data.i16(offset + 2)
			comp.transform = [4]float64{f2Dot14ToFloat(sx), 0, 0, f2Dot14ToFloat(sy)}
			offset += 4
		case flags&flagWeHave2x2 != 0:
			if offset+8 > len(data) {
				return nil, errBufferBounds
			}
			xx, _ := data.i16(offset)
			xy, _ := data.i16(offset + 2)
			yx, _ := data.i16(offset + 4)
			yy, _ := data.i16(offset + 6)
			comp.transform = [4]float64{
				f2Dot14ToFloat(xx), f2Dot14ToFloat(xy),
				f2Dot14ToFloat(yx), f2Dot14ToFloat(yy),
			}
			offset += 8
		}
		comp.transRaw = append([]byte(nil), data[transStart:offset]...)
		cg.Components = append(cg.Components, comp)
		if flags&flagMoreComponents == 0 {
			break
		}
	}
	if flags&flagWeHaveInstr != 0 {
		instrLen, err := data.u16(offset)
		if err != nil {
			return nil, err
		}
		offset += 2
		if offset+int(instrLen) > len(data) {
			return nil, errBufferBounds
		}
		cg.Instructions = append([]byte(nil), data[offset:offset+int(instrLen)]...)
	}
	return cg, nil
}

// --- Coordinate access ------------------------------------------------------

// phantomPointCount is the number of synthetic metric points appended to
// every glyph's coordinate array (left, right, top, bottom origin).
const phantomPointCount = 4

// Coordinates returns the coordinate array of a glyph: outline points for
// simple glyphs, component offsets for composites, plus the four phantom
// points derived from the horizontal metrics.
func (t *GlyfTable) Coordinates(gid GlyphIndex, hmtx *HMtxTable) []Point {
	var pts []Point
	var xMin int16
	g := t.glyph(gid)
	if g != nil {
		xMin = g.XMin
		if g.Simple != nil {
			pts = append(pts, g.Simple.Points...)
		} else if g.Composite != nil {
			for _, c := range g.Composite.Components {
				pts = append(pts, Point{X: c.DX, Y: c.DY})
			}
		}
	}
	aw, lsb, _ := hmtx.HMetrics(gid)
	leftX := float64(xMin) - float64(lsb)
	pts = append(pts,
		Point{X: leftX},
		Point{X: leftX + float64(aw)},
		Point{},
		Point{},
	)
	return pts
}

// EndPoints returns the contour end-point indexes of a glyph's outline.
// Composite and empty glyphs have none.
func (t *GlyfTable) EndPoints(gid GlyphIndex) []int {
	g := t.glyph(gid)
	if g == nil || g.Simple == nil {
		return nil
	}
	return g.Simple.EndPts
}

// SetCoordinates writes a coordinate array (as produced by Coordinates)
// back to a glyph: outline points are rounded and bounds recomputed, the
// horizontal metrics are updated from the phantom points.
func (t *GlyfTable) SetCoordinates(gid GlyphIndex, pts []Point, hmtx *HMtxTable) error {
	if len(pts) < phantomPointCount {
		return fmt.Errorf("coordinate array for glyph %d too short", gid)
	}
	outline := pts[:len(pts)-phantomPointCount]
	phantom := pts[len(pts)-phantomPointCount:]
	g := t.glyph(gid)
	if g != nil {
		switch {
		case g.Simple != nil:
			if len(outline) != len(g.Simple.Points) {
				return fmt.Errorf("glyph %d: %d points written, outline has %d",
					gid, len(outline), len(g.Simple.Points))
			}
			for i := range outline {
				g.Simple.Points[i].X = outline[i].X
				g.Simple.Points[i].Y = outline[i].Y
			}
			g.recalcSimpleBounds()
		case g.Composite != nil:
			if len(outline) != len(g.Composite.Components) {
				return fmt.Errorf("glyph %d: %d offsets written, composite has %d components",
					gid, len(outline), len(g.Composite.Components))
			}
			for i := range outline {
				c := &g.Composite.Components[i]
				if c.Anchored() {
					continue
				}
				c.DX = outline[i].X
				c.DY = outline[i].Y
			}
			t.recalcCompositeBounds(g)
		}
		g.dirty = true
	}
	// metrics from phantom points
	if hmtx != nil && int(gid) < len(hmtx.AdvanceWidths) {
		aw := otRoundFU(phantom[1].X - phantom[0].X)
		if aw < 0 {
			aw = 0
		}
		hmtx.AdvanceWidths[gid] = uint16(aw)
		var xMin int16
		if g != nil {
			xMin = g.XMin
		}
		hmtx.LeftSideBearings[gid] = int16(int(xMin) - otRoundFU(phantom[0].X))
	}
	return nil
}

// CompositeDepth returns the nesting depth of a glyph: 0 for simple and
// empty glyphs, 1 + max over components otherwise.
func (t *GlyfTable) CompositeDepth(gid GlyphIndex) int {
	return t.compositeDepth(gid, 0)
}

func (t *GlyfTable) compositeDepth(gid GlyphIndex, level int) int {
	const maxCompositeNesting = 20 // protect against malicious fonts
	g := t.glyph(gid)
	if g == nil || g.Composite == nil || level > maxCompositeNesting {
		return 0
	}
	depth := 0
	for _, c := range g.Composite.Components {
		if d := t.compositeDepth(c.GlyphIndex, level+1); d > depth {
			depth = d
		}
	}
	return depth + 1
}

func (t *GlyfTable) glyph(gid GlyphIndex) *Glyph {
	if int(gid) >= len(t.Glyphs) {
		return nil
	}
	return t.Glyphs[gid]
}

func (g *Glyph) recalcSimpleBounds() {
	if len(g.Simple.Points) == 0 {
		g.XMin, g.YMin, g.XMax, g.YMax = 0, 0, 0, 0
		return
	}
	xMin, yMin := math.Inf(1), math.Inf(1)
	xMax, yMax := math.Inf(-1), math.Inf(-1)
	for _, p := range g.Simple.Points {
		xMin, xMax = math.Min(xMin, p.X), math.Max(xMax, p.X)
		yMin, yMax = math.Min(yMin, p.Y), math.Max(yMax, p.Y)
	}
	g.XMin, g.YMin = int16(math.Floor(xMin)), int16(math.Floor(yMin))
	g.XMax, g.YMax = int16(math.Ceil(xMax)), int16(math.Ceil(yMax))
}

// recalcCompositeBounds resolves the transformed outlines of all components.
// Components must already carry their final deltas; the instancer guarantees
// this by processing glyphs in composite-depth order.
func (t *GlyfTable) recalcCompositeBounds(g *Glyph) {
	pts := t.resolvePoints(g, 0)
	if len(pts) == 0 {
		return
	}
	xMin, yMin := math.Inf(1), math.Inf(1)
	xMax, yMax := math.Inf(-1), math.Inf(-1)
	for _, p := range pts {
		xMin, xMax = math.Min(xMin, p.X), math.Max(xMax, p.X)
		yMin, yMax = math.Min(yMin, p.Y), math.Max(yMax, p.Y)
	}
	g.XMin, g.YMin = int16(math.Floor(xMin)), int16(math.Floor(yMin))
	g.XMax, g.YMax = int16(math.Ceil(xMax)), int16(math.Ceil(yMax))
}

func (t *GlyfTable) resolvePoints(g *Glyph, level int) []Point {
	const maxCompositeNesting = 20
	if g == nil || level > maxCompositeNesting {
		return nil
	}
	if g.Simple != nil {
		return append([]Point(nil), g.Simple.Points...)
	}
	if g.Composite == nil {
		return nil
	}
	var all []Point
	for i := range g.Composite.Components {
		c := &g.Composite.Components[i]
		sub := t.resolvePoints(t.glyph(c.GlyphIndex), level+1)
		for _, p := range sub {
			x := p.X*c.transform[0] + p.Y*c.transform[2]
			y := p.X*c.transform[1] + p.Y*c.transform[3]
			if !c.Anchored() {
				x += c.DX
				y += c.DY
			}
			all = append(all, Point{X: x, Y: y})
		}
	}
	return all
}

// otRoundFU rounds a font-unit coordinate half away from zero.
func otRoundFU(v float64) int {
	if v >= 0 {
		return int(math.Floor(v + 0.5))
	}
	return -int(math.Floor(-v + 0.5))
}

// --- Encoding ---------------------------------------------------------------

// Encode serializes all glyphs and records the per-glyph offsets for the
// loca table. Glyphs that were never modified reproduce their original
// bytes.
func (t *GlyfTable) Encode() ([]byte, error) {
	w := &binaryBuilder{}
	t.locaOffsets = make([]uint32, len(t.Glyphs)+1)
	for gid, g := range t.Glyphs {
		t.locaOffsets[gid] = uint32(w.len())
		if g == nil {
			continue
		}
		if !g.dirty {
			w.putBytes(g.raw)
		} else {
			b, err := g.encode()
			if err != nil {
				return nil, fmt.Errorf("cannot encode glyph %d: %w", gid, err)
			}
			w.putBytes(b)
		}
		for w.len()%2 != 0 {
			w.putU8(0)
		}
	}
	t.locaOffsets[len(t.Glyphs)] = uint32(w.len())
	return w.bytes(), nil
}

// LocaOffsets returns the glyph offsets recorded by the last Encode call.
func (t *GlyfTable) LocaOffsets() []uint32 {
	return t.locaOffsets
}

func (g *Glyph) encode() ([]byte, error) {
	w := &binaryBuilder{}
	switch {
	case g.Simple != nil:
		w.putI16(int16(len(g.Simple.EndPts)))
		w.putI16(g.XMin)
		w.putI16(g.YMin)
		w.putI16(g.XMax)
		w.putI16(g.YMax)
		g.Simple.encode(w)
	case g.Composite != nil:
		w.putI16(-1)
		w.putI16(g.XMin)
		w.putI16(g.YMin)
		w.putI16(g.XMax)
		w.putI16(g.YMax)
		if err := g.Composite.encode(w); err != nil {
			return nil, err
		}
	default:
		return nil, nil
	}
	return w.bytes(), nil
}

func (sg *SimpleGlyph) encode(w *binaryBuilder) {
	for _, e := range sg.EndPts {
		w.putU16(uint16(e))
	}
	w.putU16(uint16(len(sg.Instructions)))
	w.putBytes(sg.Instructions)
	n := len(sg.Points)
	xs := make([]int, n)
	ys := make([]int, n)
	flags := make([]uint8, n)
	px, py := 0, 0
	for i, p := range sg.Points {
		x, y := otRoundFU(p.X), otRoundFU(p.Y)
		xs[i], ys[i] = x-px, y-py
		px, py = x, y
		// keep the on-curve and overlap bits, regenerate the rest
		flags[i] = sg.flags[i] & (flagOnCurve | flagOverlapSimpl)
		if p.OnCurve {
			flags[i] |= flagOnCurve
		} else {
			flags[i] &^= flagOnCurve
		}
		switch dx := xs[i]; {
		case dx == 0:
			flags[i] |= flagXSameOrPos
		case dx > 0 && dx <= 255:
			flags[i] |= flagXShort | flagXSameOrPos
		case dx < 0 && dx >= -255:
			flags[i] |= flagXShort
		}
		switch dy := ys[i]; {
		case dy == 0:
			flags[i] |= flagYSameOrPos
		case dy > 0 && dy <= 255:
			flags[i] |= flagYShort | flagYSameOrPos
		case dy < 0 && dy >= -255:
			flags[i] |= flagYShort
		}
	}
	// flags with run-length compression
	for i := 0; i < n; {
		j := i + 1
		for j < n && flags[j] == flags[i] && j-i < 256 {
			j++
		}
		if j-i > 1 {
			w.putU8(flags[i] | flagRepeat)
			w.putU8(uint8(j - i - 1))
		} else {
			w.putU8(flags[i])
		}
		i = j
	}
	for i := 0; i < n; i++ {
		switch {
		case flags[i]&flagXShort != 0:
			d := xs[i]
			if d < 0 {
				d = -d
			}
			w.putU8(uint8(d))
		case flags[i]&flagXSameOrPos == 0:
			w.putI16(int16(xs[i]))
		}
	}
	for i := 0; i < n; i++ {
		switch {
		case flags[i]&flagYShort != 0:
			d := ys[i]
			if d < 0 {
				d = -d
			}
			w.putU8(uint8(d))
		case flags[i]&flagYSameOrPos == 0:
			w.putI16(int16(ys[i]))
		}
	}
}

func (cg *CompositeGlyph) encode(w *binaryBuilder) error {
	for i := range cg.Components {
		c := &cg.Components[i]
		flags := c.Flags &^ (flagMoreComponents | flagArg1And2AreWords | flagWeHaveInstr)
		if i < len(cg.Components)-1 {
			flags |= flagMoreComponents
		}
		var arg1, arg2 int
		if c.Anchored() {
			arg1, arg2 = c.Arg1, c.Arg2
			if arg1 > 255 || arg2 > 255 {
				flags |= flagArg1And2AreWords
			}
		} else {
			arg1, arg2 = otRoundFU(c.DX), otRoundFU(c.DY)
			if arg1 < -128 || arg1 > 127 || arg2 < -128 || arg2 > 127 {
				flags |= flagArg1And2AreWords
			}
		}
		if arg1 < math.MinInt16 || arg1 > math.MaxInt16 ||
			arg2 < math.MinInt16 || arg2 > math.MaxInt16 {
			return fmt.Errorf("component offset (%d,%d) out of range", arg1, arg2)
		}
		if len(cg.Instructions) > 0 && i == len(cg.Components)-1 {
			flags |= flagWeHaveInstr
		}
		w.putU16(flags)
		w.putU16(uint16(c.GlyphIndex))
		if flags&flagArg1And2AreWords != 0 {
			w.putI16(int16(arg1))
			w.putI16(int16(arg2))
		} else {
			w.putU8(uint8(int8(arg1)))
			w.putU8(uint8(int8(arg2)))
		}
		w.putBytes(c.transRaw)
	}
	if len(cg.Instructions) > 0 {
		w.putU16(uint16(len(cg.Instructions)))
		w.putBytes(cg.Instructions)
	}
	return nil
}
