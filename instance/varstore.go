package instance

import (
	"sort"

	"github.com/npillmayer/varinstance/ot"
)

// instantiateItemVariationStore rewrites an item variation store for a
// pinned location. Regions fully supported by pinned axes are dropped
// (their VarData columns deleted and the remaining region indexes
// renumbered); mixed regions have their items rescaled by the pinned
// scalar and their pinned peaks zeroed. The return value is false when no
// region survives, in which case the owning table should be removed.
func instantiateItemVariationStore(vs *ot.ItemVariationStore, fvar *ot.FvarTable, loc Location) bool {
	type influence struct {
		scalar float64
		drop   bool
	}
	influences := make(map[int]influence)
	newRegions := vs.Regions[:0:0]
	for regionIndex, region := range vs.Regions {
		// axes with influence are the ones with a non-zero peak
		support := make(map[ot.Tag]ot.Support)
		pinnedSupport := make(map[ot.Tag]ot.Support)
		for i, ax := range region.Axes {
			if ax.Peak == 0 || i >= len(fvar.Axes) {
				continue
			}
			tag := fvar.Axes[i].Tag
			sup := ot.Support{Start: ax.Start, Peak: ax.Peak, End: ax.End}
			support[tag] = sup
			if _, ok := loc[tag]; ok {
				pinnedSupport[tag] = sup
			}
		}
		if len(pinnedSupport) == 0 {
			// none of the effective axes is pinned
			newRegions = append(newRegions, region)
			continue
		}
		if len(pinnedSupport) == len(support) {
			// every effective axis is pinned, the region disappears
			influences[regionIndex] = influence{drop: true}
			continue
		}
		// retained, but the deltas have to be rescaled by the influence of
		// the pinned axes; their peaks are nulled in place
		scalar := supportScalar(loc, pinnedSupport)
		influences[regionIndex] = influence{scalar: scalar}
		for i := range region.Axes {
			if i >= len(fvar.Axes) {
				continue
			}
			if _, ok := pinnedSupport[fvar.Axes[i].Tag]; ok {
				region.Axes[i].Peak = 0
			}
		}
		newRegions = append(newRegions, region)
	}

	if len(newRegions) == 0 {
		return false
	}

	if len(influences) > 0 {
		dropped := make([]int, 0)
		for regionIndex, inf := range influences {
			if inf.drop {
				dropped = append(dropped, regionIndex)
			}
		}
		sort.Ints(dropped)
		for _, vd := range vs.Data {
			if vd == nil {
				continue
			}
			slotOf := make(map[int]int, len(vd.RegionIndexes))
			for slot, regionIndex := range vd.RegionIndexes {
				slotOf[int(regionIndex)] = slot
			}
			// rescale retained regions
			for regionIndex, inf := range influences {
				if inf.drop || inf.scalar == 1 {
					continue
				}
				slot, ok := slotOf[regionIndex]
				if !ok {
					continue
				}
				for _, item := range vd.Items {
					item[slot] = int32(otRound(float64(item[slot]) * inf.scalar))
				}
			}
			if len(dropped) == 0 {
				continue
			}
			// delete columns of dropped regions, highest slot first so that
			// lower slot indexes stay stable
			slots := make([]int, 0, len(dropped))
			for _, regionIndex := range dropped {
				if slot, ok := slotOf[regionIndex]; ok {
					slots = append(slots, slot)
				}
			}
			sort.Sort(sort.Reverse(sort.IntSlice(slots)))
			for _, slot := range slots {
				for i, item := range vd.Items {
					vd.Items[i] = append(item[:slot], item[slot+1:]...)
				}
				vd.RegionIndexes = append(vd.RegionIndexes[:slot], vd.RegionIndexes[slot+1:]...)
			}
			// renumber the surviving indexes past the dropped regions
			for i, regionIndex := range vd.RegionIndexes {
				vd.RegionIndexes[i] = regionIndex - uint16(sort.SearchInts(dropped, int(regionIndex)))
			}
		}
	}
	vs.Regions = newRegions
	return true
}
