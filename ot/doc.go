/*
Package ot provides an in-memory model of the OpenType tables relevant
for variable fonts, together with binary decoding and re-encoding.

The model is deliberately structured: axis records from 'fvar', segment
maps from 'avar', tuple variations from 'gvar' and 'cvar', item variation
stores as used by 'MVAR', and the feature-variation machinery of
GSUB/GPOS. Typed tables are re-encoded from their structured form on
write; tables without a typed model are passed through byte-identical.

Clients navigate a font through typed table pointers:

	otf, err := ot.Parse(data)
	axes := otf.Fvar.Axes
	gvar := otf.Gvar

# Links

OpenType variations overview:
https://docs.microsoft.com/en-us/typography/opentype/spec/otvaroverview

______________________________________________________________________

# License

Governed by a 3-Clause BSD license. License file may be found in the root
folder of this module.

Copyright © Norbert Pillmayer <norbert@pillmayer.com>
*/
package ot

import (
	"github.com/npillmayer/schuko/tracing"
)

// tracer writes to trace with key 'varinstance.ot'
func tracer() tracing.Trace {
	return tracing.Select("varinstance.ot")
}
