package instance

import (
	"fmt"
	"regexp"
	"strconv"

	"github.com/npillmayer/varinstance/ot"
)

// AxisLimit restricts one axis: a pin when Min == Max, a range otherwise.
// Values are user-space coordinates as defined in the fvar table.
type AxisLimit struct {
	Tag ot.Tag
	Min float64
	Max float64
}

// Pinned returns true if the limit fixes the axis to a single location.
func (l AxisLimit) Pinned() bool {
	return l.Min == l.Max
}

// AxisLimits is an ordered set of axis limits, one per axis tag.
type AxisLimits []AxisLimit

// Location is a mapping from axis tag to a normalized design-space
// coordinate in [-1, +1]. The pinned axis set is the key set.
type Location map[ot.Tag]float64

var limitPattern = regexp.MustCompile(`^(\w{1,4})=([^:]+)(?:[:](.+))?$`)

// ParseLimits parses command-line axis limits of the form TAG=number or
// TAG=number:number. Tags shorter than 4 characters are right-padded with
// spaces. Repeating a tag is an error.
func ParseLimits(args []string) (AxisLimits, error) {
	limits := make(AxisLimits, 0, len(args))
	seen := make(map[ot.Tag]bool)
	for _, arg := range args {
		m := limitPattern.FindStringSubmatch(arg)
		if m == nil {
			return nil, fmt.Errorf("%w: %q", ErrBadLimitSyntax, arg)
		}
		tag := ot.T(m[1])
		lo, err := strconv.ParseFloat(m[2], 64)
		if err != nil {
			return nil, fmt.Errorf("%w: %q", ErrBadLimitSyntax, arg)
		}
		hi := lo
		if m[3] != "" {
			hi, err = strconv.ParseFloat(m[3], 64)
			if err != nil {
				return nil, fmt.Errorf("%w: %q", ErrBadLimitSyntax, arg)
			}
		}
		if seen[tag] {
			return nil, fmt.Errorf("%w: %s", ErrDuplicateLimit, tag)
		}
		seen[tag] = true
		limits = append(limits, AxisLimit{Tag: tag, Min: lo, Max: hi})
	}
	return limits, nil
}

// Pin is a convenience constructor for a single pinned axis.
func Pin(tag string, value float64) AxisLimit {
	return AxisLimit{Tag: ot.T(tag), Min: value, Max: value}
}
