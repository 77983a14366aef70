package ot

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// TestLayoutRoundTrip serializes a layout table with feature variations
// and parses it back.
func TestLayoutRoundTrip(t *testing.T) {
	tbl := &LayoutTable{
		FeatureList: []FeatureRecord{
			{Tag: T("liga"), Feature: &FeatureTable{LookupIndexes: []uint16{0, 2}}},
			{Tag: T("kern"), Feature: &FeatureTable{LookupIndexes: []uint16{1}}},
		},
		FeatureVariations: &FeatureVariations{
			Version: 0x00010000,
			Records: []*FeatureVariationRecord{{
				Conditions: []*ConditionTable{{
					Format:         1,
					AxisIndex:      0,
					FilterRangeMin: 0.75,
					FilterRangeMax: 1,
				}},
				Substitution: &FeatureSubstitution{
					Version: 0x00010000,
					Records: []SubstitutionRecord{{
						FeatureIndex: 0,
						Feature:      &FeatureTable{LookupIndexes: []uint16{5}},
					}},
				},
			}},
		},
	}
	tbl.name = T("GSUB")
	data, err := tbl.Encode()
	require.NoError(t, err)

	parsed := newLayoutTable(T("GSUB"), data, 0, uint32(len(data)))
	require.NoError(t, parsed.parseAll())

	require.Len(t, parsed.FeatureList, 2)
	assert.Equal(t, T("liga"), parsed.FeatureList[0].Tag)
	assert.Equal(t, []uint16{0, 2}, parsed.FeatureList[0].Feature.LookupIndexes)
	assert.Equal(t, []uint16{1}, parsed.FeatureList[1].Feature.LookupIndexes)

	fv := parsed.FeatureVariations
	require.NotNil(t, fv)
	assert.Equal(t, uint32(0x00010000), fv.Version)
	require.Len(t, fv.Records, 1)
	rec := fv.Records[0]
	require.Len(t, rec.Conditions, 1)
	cond := rec.Conditions[0]
	assert.Equal(t, uint16(1), cond.Format)
	assert.Equal(t, 0, cond.AxisIndex)
	assert.InDelta(t, 0.75, cond.FilterRangeMin, 1e-4)
	assert.InDelta(t, 1.0, cond.FilterRangeMax, 1e-4)
	require.NotNil(t, rec.Substitution)
	require.Len(t, rec.Substitution.Records, 1)
	assert.Equal(t, 0, rec.Substitution.Records[0].FeatureIndex)
	assert.Equal(t, []uint16{5}, rec.Substitution.Records[0].Feature.LookupIndexes)
}

// TestLayoutVersion10 verifies that a table without feature variations
// serializes as version 1.0.
func TestLayoutVersion10(t *testing.T) {
	tbl := &LayoutTable{
		FeatureList: []FeatureRecord{
			{Tag: T("liga"), Feature: &FeatureTable{LookupIndexes: []uint16{0}}},
		},
	}
	tbl.name = T("GPOS")
	data, err := tbl.Encode()
	require.NoError(t, err)
	minor := u16(data[2:])
	assert.Equal(t, uint16(0), minor)

	parsed := newLayoutTable(T("GPOS"), data, 0, uint32(len(data)))
	require.NoError(t, parsed.parseAll())
	assert.Nil(t, parsed.FeatureVariations)
	require.Len(t, parsed.FeatureList, 1)
}
