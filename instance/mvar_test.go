package instance

import (
	"testing"

	"github.com/npillmayer/varinstance/internal/fontsynth"
	"github.com/npillmayer/varinstance/ot"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func mvarFont(t *testing.T, records []ot.MvarRecord, store *ot.ItemVariationStore) *ot.Font {
	t.Helper()
	font := fontsynth.New().
		Add("head", fontsynth.Head(0)).
		Add("maxp", fontsynth.Maxp(1)).
		Add("hhea", fontsynth.Hhea(800, -200, 0, 1)).
		Add("hmtx", fontsynth.Hmtx([]uint16{100}, []int16{0})).
		Add("post", fontsynth.Post(-100, 50)).
		Add("fvar", fontsynth.Fvar(
			fontsynth.Axis{Tag: "wght", Min: 100, Default: 400, Max: 900},
			fontsynth.Axis{Tag: "wdth", Min: 50, Default: 100, Max: 100},
		)).
		Add("MVAR", fontsynth.Mvar(records, store)).
		Bytes()
	otf, err := ot.Parse(font)
	require.NoError(t, err)
	return otf
}

// TestInstantiateMvar verifies delta application and the store rewrite:
// the pinned contribution 0.5 × 25 = 12.5 rounds away from zero to +13 on
// the underline position; the wdth-only region is dropped, the mixed
// region is rescaled with its wdth peak nulled.
func TestInstantiateMvar(t *testing.T) {
	store := &ot.ItemVariationStore{
		Format: 1,
		Regions: []ot.VarRegion{
			{Axes: []ot.RegionAxis{{}, {Start: -1, Peak: -1, End: 0}}},                      // wdth only
			{Axes: []ot.RegionAxis{{Start: 0, Peak: 1, End: 1}, {}}},                        // wght only
			{Axes: []ot.RegionAxis{{Start: 0, Peak: 1, End: 1}, {Start: -1, Peak: -1, End: 0}}}, // mixed
		},
		Data: []*ot.VarData{{
			RegionIndexes: []uint16{0, 1, 2},
			Items:         [][]int32{{25, 40, 10}},
		}},
	}
	otf := mvarFont(t, []ot.MvarRecord{{ValueTag: ot.T("undo"), VarIdx: 0}}, store)

	out, err := Instantiate(otf, AxisLimits{Pin("wdth", 75)}, true)
	require.NoError(t, err)

	assert.Equal(t, int16(-87), out.Post.UnderlinePosition, "underline position must move by +13")

	mvar := out.Mvar
	require.NotNil(t, mvar)
	require.Len(t, mvar.Store.Regions, 2)
	for i, region := range mvar.Store.Regions {
		assert.Zero(t, region.Axes[1].Peak, "region %d: wdth peak must be nulled", i)
	}
	vd := mvar.Store.Data[0]
	require.Len(t, vd.RegionIndexes, 2)
	assert.Equal(t, []uint16{0, 1}, vd.RegionIndexes, "region indexes renumbered densely")
	for _, item := range vd.Items {
		assert.Len(t, item, len(vd.RegionIndexes))
	}
	assert.Equal(t, int32(40), vd.Items[0][0], "unpinned region delta unchanged")
	assert.Equal(t, int32(5), vd.Items[0][1], "mixed region delta rescaled by 0.5")
}

// TestInstantiateMvarRemovesEmptyStore verifies that MVAR disappears when
// every region referenced pinned axes only.
func TestInstantiateMvarRemovesEmptyStore(t *testing.T) {
	store := &ot.ItemVariationStore{
		Format: 1,
		Regions: []ot.VarRegion{
			{Axes: []ot.RegionAxis{{}, {Start: -1, Peak: -1, End: 0}}},
		},
		Data: []*ot.VarData{{
			RegionIndexes: []uint16{0},
			Items:         [][]int32{{25}},
		}},
	}
	otf := mvarFont(t, []ot.MvarRecord{{ValueTag: ot.T("undo"), VarIdx: 0}}, store)

	out, err := Instantiate(otf, AxisLimits{Pin("wdth", 75)}, true)
	require.NoError(t, err)
	assert.Nil(t, out.Mvar)
	assert.False(t, out.HasTable(ot.T("MVAR")))
	// the delta was applied before the store went away
	assert.Equal(t, int16(-87), out.Post.UnderlinePosition)
}

// TestInstantiateMvarSkipsUnknownTags verifies that unrecognized value tags
// are left alone.
func TestInstantiateMvarSkipsUnknownTags(t *testing.T) {
	store := &ot.ItemVariationStore{
		Format: 1,
		Regions: []ot.VarRegion{
			{Axes: []ot.RegionAxis{{}, {Start: -1, Peak: -1, End: 0}}},
		},
		Data: []*ot.VarData{{
			RegionIndexes: []uint16{0},
			Items:         [][]int32{{25}},
		}},
	}
	otf := mvarFont(t, []ot.MvarRecord{{ValueTag: ot.T("zzzz"), VarIdx: 0}}, store)
	out, err := Instantiate(otf, AxisLimits{Pin("wdth", 75)}, true)
	require.NoError(t, err)
	assert.Equal(t, int16(-100), out.Post.UnderlinePosition)
}
