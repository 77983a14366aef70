package ot

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func testStore() *ItemVariationStore {
	return &ItemVariationStore{
		Format: 1,
		Regions: []VarRegion{
			{Axes: []RegionAxis{{Start: 0, Peak: 1, End: 1}, {}}},
			{Axes: []RegionAxis{{}, {Start: -1, Peak: -1, End: 0}}},
		},
		Data: []*VarData{{
			RegionIndexes: []uint16{0, 1},
			Items: [][]int32{
				{10, -20},
				{5000, 3}, // wide delta forces a word column
			},
		}},
	}
}

// TestItemVariationStoreRoundTrip serializes a store and parses it back.
func TestItemVariationStoreRoundTrip(t *testing.T) {
	vs := testStore()
	data, err := encodeItemVariationStore(vs)
	require.NoError(t, err)
	parsed, err := parseItemVariationStore(data)
	require.NoError(t, err)

	require.Len(t, parsed.Regions, 2)
	assert.Equal(t, vs.Regions, parsed.Regions)
	require.Len(t, parsed.Data, 1)
	assert.Equal(t, vs.Data[0].RegionIndexes, parsed.Data[0].RegionIndexes)
	assert.Equal(t, vs.Data[0].Items, parsed.Data[0].Items)
}

// TestItemVariationStoreDeltaAt verifies store evaluation at a location.
func TestItemVariationStoreDeltaAt(t *testing.T) {
	vs := testStore()
	// wght at +0.5, wdth at default: region 0 scales 0.5, region 1 is out
	delta := vs.DeltaAt(0, []float64{0.5, 0})
	assert.Equal(t, 5.0, delta)
	// wdth at -0.5: region 1 scales 0.5
	delta = vs.DeltaAt(0, []float64{0, -0.5})
	assert.Equal(t, -10.0, delta)
	// second item, packed as (outer 0, inner 1)
	delta = vs.DeltaAt(1, []float64{1, 0})
	assert.Equal(t, 5000.0, delta)
	// out of range indexes evaluate to zero
	assert.Zero(t, vs.DeltaAt(7<<16, []float64{1, 0}))
	assert.Zero(t, vs.DeltaAt(99, []float64{1, 0}))
}

// TestRegionScalar verifies the triangular region evaluation, including the
// no-effect zero peak.
func TestRegionScalar(t *testing.T) {
	region := VarRegion{Axes: []RegionAxis{
		{Start: 0, Peak: 1, End: 1},
		{}, // peak 0: no effect
	}}
	assert.Equal(t, 1.0, region.Scalar([]float64{1, 0.7}))
	assert.Equal(t, 0.25, region.Scalar([]float64{0.25, -1}))
	assert.Equal(t, 0.0, region.Scalar([]float64{0, 0}))
	assert.Equal(t, 0.0, region.Scalar(nil))
}
