package instance

import (
	"fmt"

	"github.com/npillmayer/varinstance/ot"
)

// Instantiate partially instantiates a variable font: every axis named in
// limits is pinned to its user-space coordinate and eliminated from the
// font's variation data, while the remaining axes continue to vary.
//
// Range limits (Min != Max) are rejected with ErrRangeUnsupported. With
// inplace set, the given font is mutated and returned; otherwise a deep
// copy is transformed. A failed in-place invocation may leave the font
// partially rewritten.
func Instantiate(otf *ot.Font, limits AxisLimits, inplace bool) (*ot.Font, error) {
	if err := sanityCheckVariableTables(otf); err != nil {
		return nil, err
	}
	if !inplace {
		otf = otf.Clone()
	}
	loc, err := NormalizeLimits(otf, limits)
	if err != nil {
		return nil, err
	}
	tracer().Infof("normalized limits: %v", loc)

	if otf.Gvar != nil {
		if err := instantiateGvar(otf, loc); err != nil {
			return nil, err
		}
	}
	if otf.Cvar != nil {
		instantiateCvar(otf, loc)
	}
	if otf.Mvar != nil {
		instantiateMvar(otf, loc)
	}
	if otf.GSub != nil {
		if err := instantiateFeatureVariations(otf, otf.GSub, loc); err != nil {
			return nil, err
		}
	}
	if otf.GPos != nil {
		if err := instantiateFeatureVariations(otf, otf.GPos, loc); err != nil {
			return nil, err
		}
	}
	// TODO process HVAR analogously to MVAR instead of dropping it
	otf.DeleteTable(ot.T("HVAR"))

	return otf, nil
}

func sanityCheckVariableTables(otf *ot.Font) error {
	if otf.Fvar == nil {
		return fmt.Errorf("%w: fvar", ErrMissingTable)
	}
	if otf.HasTable(ot.T("gvar")) && otf.Glyf == nil {
		return fmt.Errorf("%w: gvar without glyf", ErrMissingTable)
	}
	return nil
}
