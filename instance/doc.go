/*
Package instance partially instantiates variable fonts.

Given a variable font and a set of axis constraints, each pinning one axis
to a user-space coordinate, the instancer produces a font in which the
pinned axes are gone while the remaining axes continue to vary correctly:

	limits, _ := instance.ParseLimits([]string{"wdth=85"})
	out, err := instance.Instantiate(otf, limits, false)

Contributions of pinned axes are baked into the base outlines, control
values and metrics; tuples and regions touching both pinned and surviving
axes are rescaled so that their residual influence is preserved; tuples
with no surviving influence are removed together with dangling region
references.

______________________________________________________________________

# License

Governed by a 3-Clause BSD license. License file may be found in the root
folder of this module.

Copyright © Norbert Pillmayer <norbert@pillmayer.com>
*/
package instance

import (
	"github.com/npillmayer/schuko/tracing"
)

// tracer writes to trace with key 'varinstance.instance'
func tracer() tracing.Trace {
	return tracing.Select("varinstance.instance")
}
