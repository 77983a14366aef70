package instance

import (
	"testing"

	"github.com/npillmayer/varinstance/internal/fontsynth"
	"github.com/npillmayer/varinstance/ot"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var (
	wght = ot.T("wght")
	wdth = ot.T("wdth")
)

// squareFont builds a two-axis font with one square glyph (gid 1) and the
// given tuple variations on it.
func squareFont(t *testing.T, variations []*ot.TupleVariation) *ot.Font {
	t.Helper()
	square := &fontsynth.GlyphSpec{Contours: [][]ot.Point{{
		{X: 0, Y: 0, OnCurve: true},
		{X: 10, Y: 0, OnCurve: true},
		{X: 10, Y: 10, OnCurve: true},
		{X: 0, Y: 10, OnCurve: true},
	}}}
	glyf, loca := fontsynth.Glyf(nil, square)
	font := fontsynth.New().
		Add("head", fontsynth.Head(0)).
		Add("maxp", fontsynth.Maxp(2)).
		Add("hhea", fontsynth.Hhea(800, -200, 0, 2)).
		Add("hmtx", fontsynth.Hmtx([]uint16{100, 100}, []int16{0, 0})).
		Add("fvar", fontsynth.Fvar(
			fontsynth.Axis{Tag: "wght", Min: 100, Default: 400, Max: 900},
			fontsynth.Axis{Tag: "wdth", Min: 50, Default: 100, Max: 100},
		)).
		Add("glyf", glyf).
		Add("loca", loca).
		Add("gvar", fontsynth.Gvar([]ot.Tag{wght, wdth},
			[][]*ot.TupleVariation{nil, variations})).
		Bytes()
	otf, err := ot.Parse(font)
	require.NoError(t, err)
	return otf
}

// repeated builds a dense 8-entry delta array (4 outline points plus 4
// phantoms) with the same delta on every outline point.
func repeated(dx, dy float64) []*ot.PointDelta {
	return fontsynth.Deltas(
		ot.PointDelta{X: dx, Y: dy},
		ot.PointDelta{X: dx, Y: dy},
		ot.PointDelta{X: dx, Y: dy},
		ot.PointDelta{X: dx, Y: dy},
		ot.PointDelta{}, ot.PointDelta{}, ot.PointDelta{}, ot.PointDelta{},
	)
}

// TestInstantiateGvar pins wdth=75 (normalized -0.5) against three tuples:
// a wdth-only tuple is absorbed into the base outline at half strength, a
// wght-only tuple passes through untouched, and a mixed tuple keeps wght
// with its deltas halved.
func TestInstantiateGvar(t *testing.T) {
	otf := squareFont(t, []*ot.TupleVariation{
		{Axes: map[ot.Tag]ot.Support{wdth: {Start: -1, Peak: -1, End: 0}},
			Points: repeated(10, 0)},
		{Axes: map[ot.Tag]ot.Support{wght: {Start: 0, Peak: 1, End: 1}},
			Points: repeated(0, 5)},
		{Axes: map[ot.Tag]ot.Support{
			wght: {Start: 0, Peak: 1, End: 1},
			wdth: {Start: -1, Peak: -1, End: 0},
		}, Points: repeated(4, 0)},
	})
	out, err := Instantiate(otf, AxisLimits{Pin("wdth", 75)}, true)
	require.NoError(t, err)

	// absorbed: every outline point moved by 0.5 * (10, 0)
	sq := out.Glyf.Glyphs[1].Simple
	require.NotNil(t, sq)
	want := []ot.Point{{X: 5, Y: 0}, {X: 15, Y: 0}, {X: 15, Y: 10}, {X: 5, Y: 10}}
	for i, p := range sq.Points {
		assert.Equal(t, want[i].X, p.X, "point %d x", i)
		assert.Equal(t, want[i].Y, p.Y, "point %d y", i)
	}
	assert.Equal(t, int16(5), out.Glyf.Glyphs[1].XMin)
	assert.Equal(t, int16(15), out.Glyf.Glyphs[1].XMax)
	// left side bearing follows the moved outline
	assert.Equal(t, int16(5), out.HMtx.LeftSideBearings[1])
	assert.Equal(t, uint16(100), out.HMtx.AdvanceWidths[1])

	vars := out.Gvar.Variations[1]
	require.Len(t, vars, 2)
	// the wght-only tuple is untouched
	assert.Equal(t, ot.Support{Start: 0, Peak: 1, End: 1}, vars[0].Axes[wght])
	assert.Equal(t, 5.0, vars[0].Points[0].Y)
	// the mixed tuple lost wdth and kept halved deltas
	_, hasWdth := vars[1].Axes[wdth]
	assert.False(t, hasWdth, "pinned axis must not survive in tuple axes")
	assert.Equal(t, ot.Support{Start: 0, Peak: 1, End: 1}, vars[1].Axes[wght])
	assert.Equal(t, 2.0, vars[1].Points[0].X)
}

// TestInstantiateGvarDropsUninfluential verifies that a tuple whose pinned
// support evaluates to zero disappears without touching the base.
func TestInstantiateGvarDropsUninfluential(t *testing.T) {
	otf := squareFont(t, []*ot.TupleVariation{
		// peak on the opposite side of the pinned location
		{Axes: map[ot.Tag]ot.Support{wdth: {Start: 0, Peak: 1, End: 1}},
			Points: repeated(10, 0)},
	})
	out, err := Instantiate(otf, AxisLimits{Pin("wdth", 75)}, true)
	require.NoError(t, err)
	assert.Empty(t, out.Gvar.Variations[1])
	assert.Equal(t, 0.0, out.Glyf.Glyphs[1].Simple.Points[0].X, "base outline must not move")
}

// TestInstantiateGvarSparse verifies IUP reconstruction before absorption:
// two touched corners with a common offset shift the whole square.
func TestInstantiateGvarSparse(t *testing.T) {
	sparse := []*ot.PointDelta{
		{X: 2, Y: 0},
		nil,
		{X: 2, Y: 0},
		nil,
		{}, {}, {}, {},
	}
	otf := squareFont(t, []*ot.TupleVariation{
		{Axes: map[ot.Tag]ot.Support{wdth: {Start: -1, Peak: -1, End: 0}},
			Points: sparse},
	})
	// pin at the peak itself: scalar 1, full deltas absorbed
	out, err := Instantiate(otf, AxisLimits{Pin("wdth", 50)}, true)
	require.NoError(t, err)
	sq := out.Glyf.Glyphs[1].Simple
	for i, p := range sq.Points {
		assert.Equal(t, float64(2+[]int{0, 10, 10, 0}[i]), p.X, "point %d", i)
	}
}

// TestInstantiateGvarComposite verifies that composite glyphs are processed
// after their components, with bounds following both.
func TestInstantiateGvarComposite(t *testing.T) {
	square := &fontsynth.GlyphSpec{Contours: [][]ot.Point{{
		{X: 0, Y: 0, OnCurve: true},
		{X: 10, Y: 0, OnCurve: true},
		{X: 10, Y: 10, OnCurve: true},
		{X: 0, Y: 10, OnCurve: true},
	}}}
	comp := &fontsynth.GlyphSpec{Components: []fontsynth.ComponentSpec{{Glyph: 1, DX: 0, DY: 0}}}
	glyf, loca := fontsynth.Glyf(nil, square, comp)
	font := fontsynth.New().
		Add("head", fontsynth.Head(0)).
		Add("maxp", fontsynth.Maxp(3)).
		Add("hhea", fontsynth.Hhea(800, -200, 0, 3)).
		Add("hmtx", fontsynth.Hmtx([]uint16{100, 100, 100}, []int16{0, 0, 0})).
		Add("fvar", fontsynth.Fvar(
			fontsynth.Axis{Tag: "wght", Min: 100, Default: 400, Max: 900},
			fontsynth.Axis{Tag: "wdth", Min: 50, Default: 100, Max: 100},
		)).
		Add("glyf", glyf).
		Add("loca", loca).
		Add("gvar", fontsynth.Gvar([]ot.Tag{wght, wdth}, [][]*ot.TupleVariation{
			nil,
			{{Axes: map[ot.Tag]ot.Support{wdth: {Start: -1, Peak: -1, End: 0}},
				Points: repeated(10, 0)}},
			// composite: one component offset plus four phantoms
			{{Axes: map[ot.Tag]ot.Support{wdth: {Start: -1, Peak: -1, End: 0}},
				Points: fontsynth.Deltas(
					ot.PointDelta{X: 4, Y: 0},
					ot.PointDelta{}, ot.PointDelta{}, ot.PointDelta{}, ot.PointDelta{},
				)}},
		})).
		Bytes()
	otf, err := ot.Parse(font)
	require.NoError(t, err)

	out, err := Instantiate(otf, AxisLimits{Pin("wdth", 75)}, true)
	require.NoError(t, err)

	cg := out.Glyf.Glyphs[2].Composite
	require.NotNil(t, cg)
	assert.Equal(t, 2.0, cg.Components[0].DX)
	// bounds resolved against the already-moved base square (5..15) + 2
	assert.Equal(t, int16(7), out.Glyf.Glyphs[2].XMin)
	assert.Equal(t, int16(17), out.Glyf.Glyphs[2].XMax)
}
