package instance

import (
	"math"
	"testing"

	"github.com/npillmayer/varinstance/internal/fontsynth"
	"github.com/npillmayer/varinstance/ot"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// cvtFont builds a two-axis font with a cvt table and the given cvar
// variations.
func cvtFont(t *testing.T, cvt []int16, variations []*ot.TupleVariation) *ot.Font {
	t.Helper()
	font := fontsynth.New().
		Add("head", fontsynth.Head(0)).
		Add("maxp", fontsynth.Maxp(1)).
		Add("fvar", fontsynth.Fvar(
			fontsynth.Axis{Tag: "wght", Min: 100, Default: 400, Max: 900},
			fontsynth.Axis{Tag: "wdth", Min: 50, Default: 100, Max: 100},
		)).
		Add("cvt ", fontsynth.Cvt(cvt)).
		Add("cvar", fontsynth.Cvar([]ot.Tag{wght, wdth}, variations)).
		Bytes()
	otf, err := ot.Parse(font)
	require.NoError(t, err)
	return otf
}

var untouched = math.NaN()

// TestInstantiateCvar verifies the three tuple fates against the cvt: a
// fully pinned tuple folds into the control values, a mixed tuple is
// rescaled, a kept-axes-only tuple is untouched.
func TestInstantiateCvar(t *testing.T) {
	otf := cvtFont(t, []int16{100, 200, 300}, []*ot.TupleVariation{
		// fully pinned: 0.5 * 10 folds into cvt[0]
		{Axes: map[ot.Tag]ot.Support{wdth: {Start: -1, Peak: -1, End: 0}},
			Values: fontsynth.Values(10, untouched, untouched)},
		// mixed: delta 8 rescales to 4, wght survives
		{Axes: map[ot.Tag]ot.Support{
			wght: {Start: 0, Peak: 1, End: 1},
			wdth: {Start: -1, Peak: -1, End: 0},
		}, Values: fontsynth.Values(untouched, 8, untouched)},
		// kept axes only: untouched
		{Axes: map[ot.Tag]ot.Support{wght: {Start: 0, Peak: 1, End: 1}},
			Values: fontsynth.Values(untouched, untouched, 6)},
	})
	out, err := Instantiate(otf, AxisLimits{Pin("wdth", 75)}, true)
	require.NoError(t, err)

	assert.Equal(t, int16(105), out.Cvt.Values[0])
	assert.Equal(t, int16(200), out.Cvt.Values[1])
	assert.Equal(t, int16(300), out.Cvt.Values[2])

	require.NotNil(t, out.Cvar)
	require.Len(t, out.Cvar.Variations, 2)
	mixed := out.Cvar.Variations[0]
	_, hasWdth := mixed.Axes[wdth]
	assert.False(t, hasWdth)
	require.NotNil(t, mixed.Values[1])
	assert.Equal(t, 4.0, *mixed.Values[1])
	kept := out.Cvar.Variations[1]
	require.NotNil(t, kept.Values[2])
	assert.Equal(t, 6.0, *kept.Values[2])
}

// TestInstantiateCvarRemovesEmptyTable verifies that cvar disappears when
// no tuple survives the pinning.
func TestInstantiateCvarRemovesEmptyTable(t *testing.T) {
	otf := cvtFont(t, []int16{100}, []*ot.TupleVariation{
		{Axes: map[ot.Tag]ot.Support{wdth: {Start: -1, Peak: -1, End: 0}},
			Values: fontsynth.Values(10)},
	})
	out, err := Instantiate(otf, AxisLimits{Pin("wdth", 75)}, true)
	require.NoError(t, err)
	assert.Nil(t, out.Cvar)
	assert.False(t, out.HasTable(ot.T("cvar")))
	assert.Equal(t, int16(105), out.Cvt.Values[0])
}
