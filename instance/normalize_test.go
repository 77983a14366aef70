package instance

import (
	"errors"
	"math"
	"testing"

	"github.com/npillmayer/varinstance/internal/fontsynth"
	"github.com/npillmayer/varinstance/ot"
)

// TestNormalizeValue verifies the min/default/max mapping into [-1, 1].
func TestNormalizeValue(t *testing.T) {
	axis := ot.VariationAxis{Tag: ot.T("wght"), Min: 100, Default: 400, Max: 900}
	tests := []struct {
		value    float64
		expected float64
	}{
		{400, 0},
		{100, -1},
		{900, 1},
		{500, 0.2},
		{250, -0.5},
		{1000, 1},  // clamped to max
		{50, -1},   // clamped to min
		{650, 0.5},
	}
	for _, tt := range tests {
		result := normalizeValue(tt.value, axis)
		if math.Abs(result-tt.expected) > 1e-9 {
			t.Errorf("normalizeValue(%g) = %g; want %g", tt.value, result, tt.expected)
		}
	}
}

// TestNormalizeQuantized verifies F2Dot14 quantization of the normalized
// value: wght=500 with triple (100, 400, 900) is 0.2, stored as 3277/16384.
func TestNormalizeQuantized(t *testing.T) {
	axis := ot.VariationAxis{Tag: ot.T("wght"), Min: 100, Default: 400, Max: 900}
	result := normalize(500, axis, nil)
	expected := 3277.0 / 16384.0
	if result != expected {
		t.Errorf("normalize(500) = %v; want %v", result, expected)
	}
}

// TestNormalizeIdempotent verifies that re-quantizing a quantized value is
// a no-op.
func TestNormalizeIdempotent(t *testing.T) {
	for _, v := range []float64{0.2, -0.73, 1, -1, 0, 0.000001} {
		once := quantizeF2Dot14(v)
		twice := quantizeF2Dot14(once)
		if once != twice {
			t.Errorf("quantizeF2Dot14 not idempotent for %g: %v != %v", v, once, twice)
		}
	}
}

// TestPiecewiseLinearMap verifies avar-style remapping, including the
// implicit anchors and clamping beyond the outermost breakpoints.
func TestPiecewiseLinearMap(t *testing.T) {
	segments := []ot.SegmentMap{
		{From: -1, To: -1},
		{From: 0, To: 0},
		{From: 0.5, To: 0.8},
		{From: 1, To: 1},
	}
	tests := []struct {
		value    float64
		expected float64
	}{
		{0, 0},
		{-1, -1},
		{1, 1},
		{0.5, 0.8},
		{0.25, 0.4},  // interpolated between (0,0) and (0.5,0.8)
		{0.75, 0.9},  // interpolated between (0.5,0.8) and (1,1)
		{-2, -1},     // clamped to first breakpoint
		{2, 1},       // clamped to last breakpoint
	}
	for _, tt := range tests {
		result := piecewiseLinearMap(tt.value, segments)
		if math.Abs(result-tt.expected) > 1e-9 {
			t.Errorf("piecewiseLinearMap(%g) = %g; want %g", tt.value, result, tt.expected)
		}
	}
}

// TestNormalizeLimits exercises the limit normalization against a parsed
// font, including the avar remap and the error cases.
func TestNormalizeLimits(t *testing.T) {
	font := fontsynth.New().
		Add("fvar", fontsynth.Fvar(
			fontsynth.Axis{Tag: "wght", Min: 100, Default: 400, Max: 900},
			fontsynth.Axis{Tag: "wdth", Min: 50, Default: 100, Max: 100},
		)).
		Bytes()
	otf, err := ot.Parse(font)
	if err != nil {
		t.Fatal(err)
	}

	loc, err := NormalizeLimits(otf, AxisLimits{Pin("wdth", 75)})
	if err != nil {
		t.Fatal(err)
	}
	if loc[ot.T("wdth")] != -0.5 {
		t.Errorf("normalized wdth=75 is %v; want -0.5", loc[ot.T("wdth")])
	}

	_, err = NormalizeLimits(otf, AxisLimits{Pin("opsz", 12)})
	if !errors.Is(err, ErrUnknownAxis) {
		t.Errorf("pinning undeclared axis: got %v; want ErrUnknownAxis", err)
	}

	_, err = NormalizeLimits(otf, AxisLimits{{Tag: ot.T("wght"), Min: 300, Max: 700}})
	if !errors.Is(err, ErrRangeUnsupported) {
		t.Errorf("range limit: got %v; want ErrRangeUnsupported", err)
	}
}

// TestNormalizeLimitsAvar verifies that the avar segment map participates
// in normalization.
func TestNormalizeLimitsAvar(t *testing.T) {
	font := fontsynth.New().
		Add("fvar", fontsynth.Fvar(
			fontsynth.Axis{Tag: "wght", Min: 100, Default: 400, Max: 900},
		)).
		Add("avar", fontsynth.Avar([]ot.SegmentMap{
			{From: -1, To: -1}, {From: 0, To: 0}, {From: 0.5, To: 0.8}, {From: 1, To: 1},
		})).
		Bytes()
	otf, err := ot.Parse(font)
	if err != nil {
		t.Fatal(err)
	}
	loc, err := NormalizeLimits(otf, AxisLimits{Pin("wght", 650)})
	if err != nil {
		t.Fatal(err)
	}
	// 650 normalizes to 0.5, avar maps it to 0.8
	got := loc[ot.T("wght")]
	if math.Abs(got-quantizeF2Dot14(0.8)) > 1e-9 {
		t.Errorf("avar-mapped wght=650 is %v; want %v", got, quantizeF2Dot14(0.8))
	}
}
