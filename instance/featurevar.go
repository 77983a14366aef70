package instance

import (
	"fmt"

	"github.com/npillmayer/varinstance/ot"
)

// instantiateFeatureVariations rewrites the FeatureVariations of a GSUB or
// GPOS table. Format-1 conditions on pinned axes are evaluated: a record
// whose pinned coordinate falls outside a condition range is rejected;
// satisfied conditions are removed. A record left with no conditions
// applies now — the first such record's substitutions are spliced into the
// feature list, matching the runtime's first-match-wins semantics; later
// fully-satisfied records are discarded.
func instantiateFeatureVariations(otf *ot.Font, layout *ot.LayoutTable, loc Location) error {
	if layout.FeatureVariations == nil {
		tracer().Infof("no FeatureVariations in %s", layout.Self().NameTag())
		return nil
	}
	tracer().Infof("instantiating FeatureVariation store of %s table", layout.Self().NameTag())
	fvar := otf.Fvar
	newRecords := layout.FeatureVariations.Records[:0:0]
	applied := false
	for _, rec := range layout.FeatureVariations.Records {
		retain := true
		applies := true
		var newConditions []*ot.ConditionTable
		for _, cond := range rec.Conditions {
			var pinned bool
			var coord float64
			if cond.Format == 1 && cond.AxisIndex < len(fvar.Axes) {
				coord, pinned = loc[fvar.Axes[cond.AxisIndex].Tag]
			}
			if pinned {
				if !(cond.FilterRangeMin <= coord && coord <= cond.FilterRangeMax) {
					// condition not met, the entire record goes away
					retain = false
					break
				}
				// satisfied by pinning; the condition is dropped
			} else {
				applies = false
				newConditions = append(newConditions, cond)
			}
		}

		if retain && len(newConditions) != 0 {
			rec.Conditions = newConditions
			newRecords = append(newRecords, rec)
		}

		if retain && applies && !applied {
			if rec.Substitution == nil {
				continue
			}
			if rec.Substitution.Version != 0x00010000 {
				return fmt.Errorf("%w: feature table substitution version 0x%08x",
					ErrCorruptFont, rec.Substitution.Version)
			}
			for _, sub := range rec.Substitution.Records {
				if sub.FeatureIndex >= len(layout.FeatureList) {
					return fmt.Errorf("%w: substitution feature index %d out of range",
						ErrCorruptFont, sub.FeatureIndex)
				}
				layout.FeatureList[sub.FeatureIndex].Feature = sub.Feature
			}
			// splice substitutions only once
			applied = true
		}
	}
	layout.FeatureVariations.Records = newRecords
	return nil
}
