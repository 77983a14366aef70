package ot

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func encodeTestGlyph(t *testing.T, g *Glyph) binarySegm {
	t.Helper()
	b, err := g.encode()
	require.NoError(t, err)
	return b
}

// TestSimpleGlyphRoundTrip encodes a simple glyph and parses it back.
func TestSimpleGlyphRoundTrip(t *testing.T) {
	g := &Glyph{
		XMin: 0, YMin: 0, XMax: 600, YMax: 10,
		Simple: &SimpleGlyph{
			EndPts: []int{3},
			Points: []Point{
				{X: 0, Y: 0, OnCurve: true},
				{X: 600, Y: 0, OnCurve: true}, // wide enough to need word coords
				{X: 600, Y: 10, OnCurve: false},
				{X: 0, Y: 10, OnCurve: true},
			},
			flags:        []uint8{1, 1, 0, 1},
			Instructions: []byte{0xB0, 0x00},
		},
	}
	parsed, err := parseGlyph(encodeTestGlyph(t, g))
	require.NoError(t, err)
	require.NotNil(t, parsed.Simple)
	assert.Equal(t, g.Simple.EndPts, parsed.Simple.EndPts)
	assert.Equal(t, g.Simple.Instructions, parsed.Simple.Instructions)
	require.Len(t, parsed.Simple.Points, 4)
	for i, p := range g.Simple.Points {
		assert.Equal(t, p.X, parsed.Simple.Points[i].X, "point %d x", i)
		assert.Equal(t, p.Y, parsed.Simple.Points[i].Y, "point %d y", i)
		assert.Equal(t, p.OnCurve, parsed.Simple.Points[i].OnCurve, "point %d on-curve", i)
	}
	assert.Equal(t, int16(600), parsed.XMax)
}

// TestCompositeGlyphRoundTrip encodes a composite glyph and parses it back,
// including the widening of args when an offset outgrows a byte.
func TestCompositeGlyphRoundTrip(t *testing.T) {
	g := &Glyph{
		XMin: 0, YMin: 0, XMax: 100, YMax: 100,
		Composite: &CompositeGlyph{
			Components: []Component{
				{Flags: flagArgsAreXYValues, GlyphIndex: 1, DX: 5, DY: -7,
					transform: [4]float64{1, 0, 0, 1}},
				{Flags: flagArgsAreXYValues, GlyphIndex: 2, DX: 300, DY: 0,
					transform: [4]float64{1, 0, 0, 1}},
			},
		},
	}
	parsed, err := parseGlyph(encodeTestGlyph(t, g))
	require.NoError(t, err)
	require.NotNil(t, parsed.Composite)
	require.Len(t, parsed.Composite.Components, 2)
	c0, c1 := parsed.Composite.Components[0], parsed.Composite.Components[1]
	assert.Equal(t, GlyphIndex(1), c0.GlyphIndex)
	assert.Equal(t, 5.0, c0.DX)
	assert.Equal(t, -7.0, c0.DY)
	assert.Equal(t, GlyphIndex(2), c1.GlyphIndex)
	assert.Equal(t, 300.0, c1.DX, "word-sized offset survives")
}

// TestCompositeDepth verifies the nesting-depth computation used for glyph
// ordering.
func TestCompositeDepth(t *testing.T) {
	simple := &Glyph{Simple: &SimpleGlyph{
		EndPts: []int{0},
		Points: []Point{{X: 1, Y: 1, OnCurve: true}},
		flags:  []uint8{1},
	}}
	inner := &Glyph{Composite: &CompositeGlyph{Components: []Component{
		{Flags: flagArgsAreXYValues, GlyphIndex: 0, transform: [4]float64{1, 0, 0, 1}},
	}}}
	outer := &Glyph{Composite: &CompositeGlyph{Components: []Component{
		{Flags: flagArgsAreXYValues, GlyphIndex: 1, transform: [4]float64{1, 0, 0, 1}},
	}}}
	glyf := &GlyfTable{Glyphs: []*Glyph{simple, inner, outer}}
	assert.Equal(t, 0, glyf.CompositeDepth(0))
	assert.Equal(t, 1, glyf.CompositeDepth(1))
	assert.Equal(t, 2, glyf.CompositeDepth(2))
	assert.Equal(t, 0, glyf.CompositeDepth(99), "out of range is depth 0")
}

// TestSetCoordinatesUpdatesMetrics verifies bounds recomputation and the
// hmtx update from phantom points.
func TestSetCoordinatesUpdatesMetrics(t *testing.T) {
	g := &Glyph{
		Simple: &SimpleGlyph{
			EndPts: []int{1},
			Points: []Point{{X: 0, Y: 0, OnCurve: true}, {X: 10, Y: 10, OnCurve: true}},
			flags:  []uint8{1, 1},
		},
	}
	glyf := &GlyfTable{Glyphs: []*Glyph{g}}
	hmtx := &HMtxTable{
		NumberOfHMetrics: 1,
		AdvanceWidths:    []uint16{100},
		LeftSideBearings: []int16{0},
	}
	pts := glyf.Coordinates(0, hmtx)
	require.Len(t, pts, 6) // 2 outline + 4 phantom
	for i := range pts[:2] {
		pts[i].X += 5
	}
	pts[3].X += 20 // widen the advance phantom
	require.NoError(t, glyf.SetCoordinates(0, pts, hmtx))
	assert.Equal(t, int16(5), g.XMin)
	assert.Equal(t, int16(15), g.XMax)
	assert.Equal(t, uint16(120), hmtx.AdvanceWidths[0])
	assert.Equal(t, int16(5), hmtx.LeftSideBearings[0])
}
