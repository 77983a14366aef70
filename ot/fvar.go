package ot

import "fmt"

// Registered variation axis tags.
var (
	TagAxisWeight      = T("wght")
	TagAxisWidth       = T("wdth")
	TagAxisSlant       = T("slnt")
	TagAxisItalic      = T("ital")
	TagAxisOpticalSize = T("opsz")
)

// AxisFlags for variation axes.
type AxisFlags uint16

const (
	// AxisFlagHidden indicates the axis should not be exposed in user interfaces.
	AxisFlagHidden AxisFlags = 0x0001
)

// VariationAxis describes one axis of a font's design space, with its
// user-space range. Values are 16.16 fixed point in the binary table.
type VariationAxis struct {
	Tag      Tag
	Min      float64
	Default  float64
	Max      float64
	Flags    AxisFlags
	NameID   uint16
}

// NamedInstance represents a predefined style like "Bold" or "Light".
type NamedInstance struct {
	SubfamilyNameID  uint16
	Flags            uint16
	Coords           []float64 // user space, one per axis
	PostScriptNameID uint16    // 0xFFFF if not present
	hasPSNameID      bool
}

// FvarTable represents a parsed fvar (Font Variations) table.
type FvarTable struct {
	tableBase
	Axes      []VariationAxis
	Instances []NamedInstance
}

func newFvarTable(tag Tag, b binarySegm, offset, size uint32) *FvarTable {
	t := &FvarTable{}
	t.tableBase = tableBase{data: b, name: tag, offset: offset, length: size}
	t.self = t
	return t
}

// Axis finds an axis record by tag.
func (t *FvarTable) Axis(tag Tag) (VariationAxis, bool) {
	for _, a := range t.Axes {
		if a.Tag == tag {
			return a, true
		}
	}
	return VariationAxis{}, false
}

// AxisIndex returns the position of an axis in the font's axis order,
// or -1 if the tag is not declared.
func (t *FvarTable) AxisIndex(tag Tag) int {
	for i, a := range t.Axes {
		if a.Tag == tag {
			return i
		}
	}
	return -1
}

func (t *FvarTable) parseAll() error {
	b := t.data
	if len(b) < 16 {
		return fmt.Errorf("fvar table too small: %d bytes", len(b))
	}
	major, _ := b.u16(0)
	if major != 1 {
		return fmt.Errorf("unsupported fvar version %d", major)
	}
	axisOffset, _ := b.u16(4)
	axisCount, _ := b.u16(8)
	axisSize, _ := b.u16(10)
	instanceCount, _ := b.u16(12)
	instanceSize, _ := b.u16(14)
	if axisSize != 20 {
		return fmt.Errorf("unsupported fvar axis record size %d", axisSize)
	}
	axesEnd := int(axisOffset) + int(axisCount)*20
	if axesEnd+int(instanceCount)*int(instanceSize) > len(b) {
		return errBufferBounds
	}
	t.Axes = make([]VariationAxis, axisCount)
	for i := range t.Axes {
		off := int(axisOffset) + i*20
		tg, _ := b.u32(off)
		mn, _ := b.u32(off + 4)
		df, _ := b.u32(off + 8)
		mx, _ := b.u32(off + 12)
		fl, _ := b.u16(off + 16)
		nm, _ := b.u16(off + 18)
		t.Axes[i] = VariationAxis{
			Tag:     Tag(tg),
			Min:     fixed1616ToFloat(mn),
			Default: fixed1616ToFloat(df),
			Max:     fixed1616ToFloat(mx),
			Flags:   AxisFlags(fl),
			NameID:  nm,
		}
	}
	hasPSName := int(instanceSize) >= int(axisCount)*4+6
	t.Instances = make([]NamedInstance, instanceCount)
	for i := range t.Instances {
		off := axesEnd + i*int(instanceSize)
		nameID, _ := b.u16(off)
		flags, _ := b.u16(off + 2)
		inst := NamedInstance{
			SubfamilyNameID: nameID,
			Flags:           flags,
			Coords:          make([]float64, axisCount),
			hasPSNameID:     hasPSName,
		}
		for j := 0; j < int(axisCount); j++ {
			c, _ := b.u32(off + 4 + j*4)
			inst.Coords[j] = fixed1616ToFloat(c)
		}
		if hasPSName {
			ps, _ := b.u16(off + 4 + int(axisCount)*4)
			inst.PostScriptNameID = ps
		}
		t.Instances[i] = inst
	}
	return nil
}

// Encode serializes the fvar table. A table that was never decoded
// reproduces its original bytes.
func (t *FvarTable) Encode() ([]byte, error) {
	if t.Axes == nil && len(t.data) > 0 {
		return t.data, nil
	}
	w := &binaryBuilder{}
	axisCount := len(t.Axes)
	instanceSize := axisCount*4 + 4
	hasPSName := false
	for _, inst := range t.Instances {
		if inst.hasPSNameID {
			hasPSName = true
		}
	}
	if hasPSName {
		instanceSize += 2
	}
	w.putU16(1) // majorVersion
	w.putU16(0) // minorVersion
	w.putU16(16)
	w.putU16(2) // reserved
	w.putU16(uint16(axisCount))
	w.putU16(20)
	w.putU16(uint16(len(t.Instances)))
	w.putU16(uint16(instanceSize))
	for _, a := range t.Axes {
		w.putU32(uint32(a.Tag))
		w.putU32(uint32(int32(a.Min * 65536)))
		w.putU32(uint32(int32(a.Default * 65536)))
		w.putU32(uint32(int32(a.Max * 65536)))
		w.putU16(uint16(a.Flags))
		w.putU16(a.NameID)
	}
	for _, inst := range t.Instances {
		w.putU16(inst.SubfamilyNameID)
		w.putU16(inst.Flags)
		if len(inst.Coords) != axisCount {
			return nil, fmt.Errorf("fvar instance has %d coords, font has %d axes", len(inst.Coords), axisCount)
		}
		for _, c := range inst.Coords {
			w.putU32(uint32(int32(c * 65536)))
		}
		if hasPSName {
			w.putU16(inst.PostScriptNameID)
		}
	}
	return w.bytes(), nil
}

// --- avar ------------------------------------------------------------------

// SegmentMap is one (fromCoord, toCoord) breakpoint of an avar axis
// remapping, in normalized coordinates.
type SegmentMap struct {
	From float64
	To   float64
}

// AvarTable represents a parsed avar (Axis Variations) table. It provides
// non-linear remapping of normalized axis values via piecewise-linear
// segment maps, one per axis (possibly empty).
type AvarTable struct {
	tableBase
	Segments [][]SegmentMap // aligned to the fvar axis order
}

func newAvarTable(tag Tag, b binarySegm, offset, size uint32) *AvarTable {
	t := &AvarTable{}
	t.tableBase = tableBase{data: b, name: tag, offset: offset, length: size}
	t.self = t
	return t
}

// SegmentsFor returns the segment map for the axis at the given fvar index,
// or nil if the axis has no remapping.
func (t *AvarTable) SegmentsFor(axisIndex int) []SegmentMap {
	if t == nil || axisIndex < 0 || axisIndex >= len(t.Segments) {
		return nil
	}
	return t.Segments[axisIndex]
}

func (t *AvarTable) parseAll() error {
	b := t.data
	if len(b) < 8 {
		return fmt.Errorf("avar table too small: %d bytes", len(b))
	}
	major, _ := b.u16(0)
	if major != 1 {
		return fmt.Errorf("unsupported avar version %d", major)
	}
	axisCount, _ := b.u16(6)
	t.Segments = make([][]SegmentMap, axisCount)
	offset := 8
	for i := 0; i < int(axisCount); i++ {
		cnt, err := b.u16(offset)
		if err != nil {
			return err
		}
		offset += 2
		segs := make([]SegmentMap, cnt)
		for j := range segs {
			from, err := b.i16(offset)
			if err != nil {
				return err
			}
			to, _ := b.i16(offset + 2)
			segs[j] = SegmentMap{From: f2Dot14ToFloat(from), To: f2Dot14ToFloat(to)}
			offset += 4
		}
		t.Segments[i] = segs
	}
	return nil
}

// Encode serializes the avar table. A table that was never decoded
// reproduces its original bytes.
func (t *AvarTable) Encode() ([]byte, error) {
	if t.Segments == nil && len(t.data) > 0 {
		return t.data, nil
	}
	w := &binaryBuilder{}
	w.putU16(1)
	w.putU16(0)
	w.putU16(0) // reserved
	w.putU16(uint16(len(t.Segments)))
	for _, segs := range t.Segments {
		w.putU16(uint16(len(segs)))
		for _, s := range segs {
			w.putI16(floatToF2Dot14(s.From))
			w.putI16(floatToF2Dot14(s.To))
		}
	}
	return w.bytes(), nil
}
