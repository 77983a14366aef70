package instance

import (
	"math"
	"testing"

	"github.com/npillmayer/varinstance/ot"
)

// TestSupportScalar verifies the per-axis triangular influence product.
func TestSupportScalar(t *testing.T) {
	wght, wdth := ot.T("wght"), ot.T("wdth")
	tests := []struct {
		name     string
		loc      Location
		support  map[ot.Tag]ot.Support
		expected float64
	}{
		{
			name:     "at peak",
			loc:      Location{wdth: -1},
			support:  map[ot.Tag]ot.Support{wdth: {Start: -1, Peak: -1, End: 0}},
			expected: 1,
		},
		{
			name:     "halfway to peak",
			loc:      Location{wdth: -0.5},
			support:  map[ot.Tag]ot.Support{wdth: {Start: -1, Peak: -1, End: 0}},
			expected: 0.5,
		},
		{
			name:     "zero peak has no effect",
			loc:      Location{wdth: -0.5},
			support:  map[ot.Tag]ot.Support{wdth: {Start: 0, Peak: 0, End: 0}},
			expected: 1,
		},
		{
			name:     "outside region",
			loc:      Location{wght: -0.5},
			support:  map[ot.Tag]ot.Support{wght: {Start: 0, Peak: 1, End: 1}},
			expected: 0,
		},
		{
			name:     "at default",
			loc:      Location{},
			support:  map[ot.Tag]ot.Support{wght: {Start: 0, Peak: 1, End: 1}},
			expected: 0,
		},
		{
			name: "product over two axes",
			loc:  Location{wght: 0.5, wdth: -0.5},
			support: map[ot.Tag]ot.Support{
				wght: {Start: 0, Peak: 1, End: 1},
				wdth: {Start: -1, Peak: -1, End: 0},
			},
			expected: 0.25,
		},
		{
			name:     "descending slope past peak",
			loc:      Location{wght: 0.75},
			support:  map[ot.Tag]ot.Support{wght: {Start: 0, Peak: 0.5, End: 1}},
			expected: 0.5,
		},
	}
	for _, tt := range tests {
		result := supportScalar(tt.loc, tt.support)
		if math.Abs(result-tt.expected) > 1e-9 {
			t.Errorf("%s: supportScalar = %g; want %g", tt.name, result, tt.expected)
		}
	}
}

// TestOtRound verifies rounding half away from zero.
func TestOtRound(t *testing.T) {
	tests := []struct {
		value    float64
		expected int
	}{
		{0, 0},
		{0.4, 0},
		{0.5, 1},
		{1.5, 2},
		{2.5, 3},
		{-0.5, -1},
		{-1.5, -2},
		{12.6, 13},
		{-12.6, -13},
	}
	for _, tt := range tests {
		if got := otRound(tt.value); got != tt.expected {
			t.Errorf("otRound(%g) = %d; want %d", tt.value, got, tt.expected)
		}
	}
}
