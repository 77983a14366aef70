/*
Package varinstance partially instantiates variable OpenType fonts.

Pinning axes of a variable font produces a smaller variable font in which
the pinned axes have been eliminated, while interpolation along the
remaining axes is preserved:

	otf, err := varinstance.LoadFont("NotoSans-VF.ttf")
	limits, err := instance.ParseLimits([]string{"wdth=85"})
	out, err := varinstance.Instantiate(otf, limits, false)
	err = out.WriteFile("NotoSans-VF-instance.ttf")

The heavy lifting lives in the subpackages: package ot models and
(de)serializes the variation-relevant tables, package instance rewrites
them against a pinned location.

# Status

Experimental; both the API and the CLI may change. HVAR is currently
dropped rather than rewritten, and axis ranges (min:max with min ≠ max)
are rejected.

______________________________________________________________________

# License

Governed by a 3-Clause BSD license. License file may be found in the root
folder of this module.

Copyright © Norbert Pillmayer <norbert@pillmayer.com>
*/
package varinstance

import (
	"os"

	"github.com/npillmayer/schuko/tracing"
	"github.com/npillmayer/varinstance/instance"
	"github.com/npillmayer/varinstance/internal/fontload"
	"github.com/npillmayer/varinstance/ot"
)

// tracer writes to trace with key 'varinstance'
func tracer() tracing.Trace {
	return tracing.Select("varinstance")
}

// Font bundles the structured table view with the font's name and original
// bytes.
type Font struct {
	Fontname string
	Binary   []byte
	OT       *ot.Font
}

// LoadFont loads a variable OpenType font (TTF or OTF) from a file.
func LoadFont(path string) (*Font, error) {
	bytez, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}
	return ParseFont(bytez)
}

// ParseFont loads a variable OpenType font from memory. The binary is run
// through an SFNT sanity parse first; the structured table view is built on
// top of the same bytes.
func ParseFont(data []byte) (*Font, error) {
	sf, err := fontload.ParseOpenTypeFont(data)
	if err != nil {
		return nil, err
	}
	otf, err := ot.Parse(data)
	if err != nil {
		return nil, err
	}
	tracer().Debugf("loaded and parsed font %s", sf.Fontname)
	return &Font{Fontname: sf.Fontname, Binary: data, OT: otf}, nil
}

// Instantiate pins the axes named in limits and returns the reduced
// variable font. See instance.Instantiate for the contract.
func Instantiate(f *Font, limits instance.AxisLimits, inplace bool) (*ot.Font, error) {
	return instance.Instantiate(f.OT, limits, inplace)
}
