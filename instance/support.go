package instance

import (
	"math"

	"github.com/npillmayer/varinstance/ot"
)

// supportScalar computes the influence of a tuple's axes support at a
// location: the product of the per-axis triangular factors. Axes missing
// from the location evaluate at coordinate 0.
func supportScalar(loc Location, support map[ot.Tag]ot.Support) float64 {
	scalar := 1.0
	for tag, sup := range support {
		if sup.Peak == 0 {
			continue
		}
		c := loc[tag]
		if c == sup.Peak {
			continue
		}
		if c <= sup.Start || c >= sup.End {
			return 0
		}
		if c < sup.Peak {
			scalar *= (c - sup.Start) / (sup.Peak - sup.Start)
		} else {
			scalar *= (sup.End - c) / (sup.End - sup.Peak)
		}
	}
	return scalar
}

// otRound rounds half away from zero, the rounding used throughout the
// OpenType variation machinery for delta scaling.
func otRound(v float64) int {
	if v >= 0 {
		return int(math.Floor(v + 0.5))
	}
	return -int(math.Floor(-v + 0.5))
}
