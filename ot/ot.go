package ot

import "fmt"

// Font represents the internal structure of a variable OpenType font.
// It is used to navigate and rewrite the variation-relevant tables of a font.
//
// Typed table pointers are provided for every table the instancing
// machinery reads or mutates; all other tables are retained as generic
// tables and written back unchanged.
type Font struct {
	Header        *FontHeader
	tables        map[Tag]Table
	Head          *HeadTable // font header, needed for loca format and bounds
	MaxP          *MaxPTable // glyph count
	HHea          *HHeaTable // horizontal header metrics
	VHea          *VHeaTable // vertical header metrics (optional)
	OS2           *OS2Table  // OS/2 and Windows metrics
	Post          *PostTable // PostScript metrics subset
	HMtx          *HMtxTable // per-glyph horizontal metrics
	Cvt           *CvtTable  // control values for TrueType hinting
	Fvar          *FvarTable // axis records and named instances
	Avar          *AvarTable // axis segment remapping (optional)
	Glyf          *GlyfTable // TrueType outlines (with loca)
	Gvar          *GvarTable // per-glyph outline variations
	Cvar          *CvarTable // control value variations
	Mvar          *MvarTable // metric variations
	GSub          *LayoutTable
	GPos          *LayoutTable
	parseErrors   []FontError
	parseWarnings []FontWarning
}

// FontHeader is a directory of the top-level tables in a font.
//
// OpenType fonts that contain TrueType outlines should use the value of
// 0x00010000 for the FontType. OpenType fonts containing CFF data (version 1
// or 2) should use 0x4F54544F ('OTTO', when re-interpreted as a Tag).
type FontHeader struct {
	FontType   uint32
	TableCount uint16
}

// Table returns the font table for a given tag. If a table for a tag cannot
// be found in the font, nil is returned.
func (otf *Font) Table(tag Tag) Table {
	if t, ok := otf.tables[tag]; ok {
		return t
	}
	return nil
}

// HasTable returns true if a table with the given tag is present.
func (otf *Font) HasTable(tag Tag) bool {
	_, ok := otf.tables[tag]
	return ok
}

// DeleteTable removes a table from the font. Typed pointers are cleared
// alongside the directory entry.
func (otf *Font) DeleteTable(tag Tag) {
	delete(otf.tables, tag)
	switch tag {
	case T("cvar"):
		otf.Cvar = nil
	case T("gvar"):
		otf.Gvar = nil
	case T("MVAR"):
		otf.Mvar = nil
	case T("HVAR"):
		// generic table only
	case T("avar"):
		otf.Avar = nil
	}
}

// TableTags returns a list of tags, one for each table contained in the font.
func (otf *Font) TableTags() []Tag {
	var tags = make([]Tag, 0, len(otf.tables))
	for tag := range otf.tables {
		tags = append(tags, tag)
	}
	return tags
}

// Errors returns all errors encountered during font parsing.
// These errors represent issues that were found but did not prevent parsing
// from completing.
func (otf *Font) Errors() []FontError {
	if otf.parseErrors == nil {
		return []FontError{}
	}
	return otf.parseErrors
}

// Warnings returns all warnings encountered during font parsing.
func (otf *Font) Warnings() []FontWarning {
	if otf.parseWarnings == nil {
		return []FontWarning{}
	}
	return otf.parseWarnings
}

// GlyphIndex is a glyph index in a font.
type GlyphIndex uint16

// --- Tag -------------------------------------------------------------------

// Tag is defined by the spec as:
// Array of four uint8s (length = 32 bits) used to identify a table,
// design-variation axis, script, language system, feature, or baseline
type Tag uint32

// MakeTag creates a Tag from 4 bytes.
// If b is shorter or longer, it will be silently extended or cut as appropriate.
func MakeTag(b []byte) Tag {
	if b == nil {
		b = []byte{0, 0, 0, 0}
	} else if len(b) > 4 {
		b = b[:4]
	} else if len(b) < 4 {
		b = append(b, []byte("    ")[:4-len(b)]...)
	}
	return Tag(u32(b))
}

// T returns a Tag from a (4-letter) string.
// If t is shorter or longer, it will be silently extended or cut as appropriate.
func T(t string) Tag {
	t = (t + "    ")[:4]
	return Tag(u32([]byte(t)))
}

func (t Tag) String() string {
	bytes := []byte{
		byte(t >> 24 & 0xff),
		byte(t >> 16 & 0xff),
		byte(t >> 8 & 0xff),
		byte(t & 0xff),
	}
	return string(bytes)
}

// --- Table -----------------------------------------------------------------

// Table represents one of the various OpenType font tables.
//
// Typed implementations exist for the variation-relevant tables; everything
// else is represented by a generic table that reproduces its original bytes.
type Table interface {
	Extent() (uint32, uint32) // offset and byte size within the font's binary data
	Binary() []byte           // the original bytes of this table; read-only for clients
	Encode() ([]byte, error)  // serialize the (possibly modified) table
	Self() TableSelf          // reference to itself
}

func newTable(tag Tag, b binarySegm, offset, size uint32) *genericTable {
	t := &genericTable{tableBase{
		data:   b,
		name:   tag,
		offset: offset,
		length: size,
	},
	}
	t.self = t
	return t
}

type genericTable struct {
	tableBase
}

// tableBase is a common parent for all kinds of OpenType tables.
type tableBase struct {
	data   binarySegm // a table is a slice of font data
	name   Tag        // 4-byte name as an integer
	offset uint32     // from offset
	length uint32     // to offset + length
	self   any
}

// Extent returns offset and byte size of this table within the OpenType font.
func (tb *tableBase) Extent() (uint32, uint32) {
	return tb.offset, tb.length
}

// Binary returns the original bytes of this table. Should be treated as
// read-only by clients, as it is a view into the original data.
func (tb *tableBase) Binary() []byte {
	return tb.data
}

// Encode returns the original bytes unchanged. Typed tables override this
// to re-serialize their structured content.
func (tb *tableBase) Encode() ([]byte, error) {
	return tb.data, nil
}

func (tb *tableBase) Self() TableSelf {
	return TableSelf{tableBase: tb}
}

// TableSelf is a reference to a table. Its primary use is for converting
// a generic table to a concrete table flavour, and for reproducing the
// name tag of a table.
type TableSelf struct {
	tableBase *tableBase
}

// NameTag returns the 4-letter name of a table.
func (tself TableSelf) NameTag() Tag {
	return tself.tableBase.name
}

func safeSelf(tself TableSelf) any {
	if tself.tableBase == nil || tself.tableBase.self == nil {
		return TableSelf{}
	}
	return tself.tableBase.self
}

// AsFvar returns this table as an fvar table, or nil.
func (tself TableSelf) AsFvar() *FvarTable {
	if k, ok := safeSelf(tself).(*FvarTable); ok {
		return k
	}
	return nil
}

// AsGvar returns this table as a gvar table, or nil.
func (tself TableSelf) AsGvar() *GvarTable {
	if k, ok := safeSelf(tself).(*GvarTable); ok {
		return k
	}
	return nil
}

// AsMvar returns this table as an MVAR table, or nil.
func (tself TableSelf) AsMvar() *MvarTable {
	if k, ok := safeSelf(tself).(*MvarTable); ok {
		return k
	}
	return nil
}

// AsLayout returns this table as a GSUB or GPOS table, or nil.
func (tself TableSelf) AsLayout() *LayoutTable {
	if k, ok := safeSelf(tself).(*LayoutTable); ok {
		return k
	}
	return nil
}

// AsGlyf returns this table as a glyf table, or nil.
func (tself TableSelf) AsGlyf() *GlyfTable {
	if k, ok := safeSelf(tself).(*GlyfTable); ok {
		return k
	}
	return nil
}

// --- Concrete table implementations ----------------------------------------

// HeadTable gives global information about the font.
// Only the fields needed for variation rewriting and re-serialization are
// made public.
type HeadTable struct {
	tableBase
	Flags            uint16
	UnitsPerEm       uint16 // values 16 … 16384 are valid
	IndexToLocFormat uint16 // needed to interpret and regenerate the loca table
}

func newHeadTable(tag Tag, b binarySegm, offset, size uint32) *HeadTable {
	t := &HeadTable{}
	t.tableBase = tableBase{data: b, name: tag, offset: offset, length: size}
	t.self = t
	return t
}

// Encode re-emits the head bytes with the current indexToLocFormat.
// checkSumAdjustment is zeroed; the font writer patches it.
func (t *HeadTable) Encode() ([]byte, error) {
	if len(t.data) < 54 {
		return nil, fmt.Errorf("head table too small: %d bytes", len(t.data))
	}
	b := make([]byte, len(t.data))
	copy(b, t.data)
	b[8], b[9], b[10], b[11] = 0, 0, 0, 0 // checkSumAdjustment
	b[50] = byte(t.IndexToLocFormat >> 8)
	b[51] = byte(t.IndexToLocFormat)
	return b, nil
}

// MaxPTable establishes the memory requirements for this font.
// The 'maxp' table contains a count for the number of glyphs in the font.
type MaxPTable struct {
	tableBase
	NumGlyphs int
}

func newMaxPTable(tag Tag, b binarySegm, offset, size uint32) *MaxPTable {
	t := &MaxPTable{}
	t.tableBase = tableBase{data: b, name: tag, offset: offset, length: size}
	t.self = t
	return t
}

// HHeaTable contains information for horizontal layout.
type HHeaTable struct {
	tableBase
	Ascender            int16
	Descender           int16
	LineGap             int16
	AdvanceWidthMax     uint16
	MinLeftSideBearing  int16
	MinRightSideBearing int16
	XMaxExtent          int16
	CaretSlopeRise      int16
	CaretSlopeRun       int16
	CaretOffset         int16
	NumberOfHMetrics    int
}

func newHHeaTable(tag Tag, b binarySegm, offset, size uint32) *HHeaTable {
	t := &HHeaTable{}
	t.tableBase = tableBase{data: b, name: tag, offset: offset, length: size}
	t.self = t
	return t
}

// Encode re-emits hhea with the current metric fields.
func (t *HHeaTable) Encode() ([]byte, error) {
	if len(t.data) < 36 {
		return nil, fmt.Errorf("hhea table too small: %d bytes", len(t.data))
	}
	b := make([]byte, len(t.data))
	copy(b, t.data)
	put16 := func(at int, v int16) {
		b[at] = byte(uint16(v) >> 8)
		b[at+1] = byte(uint16(v))
	}
	put16(4, t.Ascender)
	put16(6, t.Descender)
	put16(8, t.LineGap)
	put16(10, int16(t.AdvanceWidthMax))
	put16(12, t.MinLeftSideBearing)
	put16(14, t.MinRightSideBearing)
	put16(16, t.XMaxExtent)
	put16(18, t.CaretSlopeRise)
	put16(20, t.CaretSlopeRun)
	put16(22, t.CaretOffset)
	put16(34, int16(t.NumberOfHMetrics))
	return b, nil
}

// VHeaTable contains information for vertical layout. Optional; only its
// MVAR-addressable metric fields are typed.
type VHeaTable struct {
	tableBase
	Ascent         int16
	Descent        int16
	LineGap        int16
	CaretSlopeRise int16
	CaretSlopeRun  int16
	CaretOffset    int16
}

func newVHeaTable(tag Tag, b binarySegm, offset, size uint32) *VHeaTable {
	t := &VHeaTable{}
	t.tableBase = tableBase{data: b, name: tag, offset: offset, length: size}
	t.self = t
	return t
}

// Encode re-emits vhea with the current metric fields.
func (t *VHeaTable) Encode() ([]byte, error) {
	if len(t.data) < 36 {
		return nil, fmt.Errorf("vhea table too small: %d bytes", len(t.data))
	}
	b := make([]byte, len(t.data))
	copy(b, t.data)
	put16 := func(at int, v int16) {
		b[at] = byte(uint16(v) >> 8)
		b[at+1] = byte(uint16(v))
	}
	put16(4, t.Ascent)
	put16(6, t.Descent)
	put16(8, t.LineGap)
	put16(24, t.CaretSlopeRise)
	put16(26, t.CaretSlopeRun)
	put16(28, t.CaretOffset)
	return b, nil
}

// OS2Table contains the metrics from table 'OS/2' which are addressable
// through MVAR value tags.
type OS2Table struct {
	tableBase
	Version            uint16
	XAvgCharWidth      int16
	SubscriptXSize     int16
	SubscriptYSize     int16
	SubscriptXOffset   int16
	SubscriptYOffset   int16
	SuperscriptXSize   int16
	SuperscriptYSize   int16
	SuperscriptXOffset int16
	SuperscriptYOffset int16
	StrikeoutSize      int16
	StrikeoutPosition  int16
	TypoAscender       int16
	TypoDescender      int16
	TypoLineGap        int16
	WinAscent          uint16
	WinDescent         uint16
	XHeight            int16 // version >= 2
	CapHeight          int16 // version >= 2
}

func newOS2Table(tag Tag, b binarySegm, offset, size uint32) *OS2Table {
	t := &OS2Table{}
	t.tableBase = tableBase{data: b, name: tag, offset: offset, length: size}
	t.self = t
	return t
}

// Encode re-emits OS/2 with the current metric fields.
func (t *OS2Table) Encode() ([]byte, error) {
	if len(t.data) < 78 {
		return nil, fmt.Errorf("OS/2 table too small: %d bytes", len(t.data))
	}
	b := make([]byte, len(t.data))
	copy(b, t.data)
	put16 := func(at int, v int16) {
		b[at] = byte(uint16(v) >> 8)
		b[at+1] = byte(uint16(v))
	}
	put16(2, t.XAvgCharWidth)
	put16(10, t.SubscriptXSize)
	put16(12, t.SubscriptYSize)
	put16(14, t.SubscriptXOffset)
	put16(16, t.SubscriptYOffset)
	put16(18, t.SuperscriptXSize)
	put16(20, t.SuperscriptYSize)
	put16(22, t.SuperscriptXOffset)
	put16(24, t.SuperscriptYOffset)
	put16(26, t.StrikeoutSize)
	put16(28, t.StrikeoutPosition)
	put16(68, t.TypoAscender)
	put16(70, t.TypoDescender)
	put16(72, t.TypoLineGap)
	put16(74, int16(t.WinAscent))
	put16(76, int16(t.WinDescent))
	if t.Version >= 2 && len(b) >= 90 {
		put16(86, t.XHeight)
		put16(88, t.CapHeight)
	}
	return b, nil
}

// PostTable contains the MVAR-addressable subset of table 'post'.
type PostTable struct {
	tableBase
	UnderlinePosition int16
	UnderlineThicknss int16
}

func newPostTable(tag Tag, b binarySegm, offset, size uint32) *PostTable {
	t := &PostTable{}
	t.tableBase = tableBase{data: b, name: tag, offset: offset, length: size}
	t.self = t
	return t
}

// Encode re-emits post with the current underline metrics.
func (t *PostTable) Encode() ([]byte, error) {
	if len(t.data) < 12 {
		return nil, fmt.Errorf("post table too small: %d bytes", len(t.data))
	}
	b := make([]byte, len(t.data))
	copy(b, t.data)
	b[8] = byte(uint16(t.UnderlinePosition) >> 8)
	b[9] = byte(uint16(t.UnderlinePosition))
	b[10] = byte(uint16(t.UnderlineThicknss) >> 8)
	b[11] = byte(uint16(t.UnderlineThicknss))
	return b, nil
}

// CvtTable holds the control values for TrueType hinting. Entries are
// FWORDs; 'cvar' deltas are applied against them.
type CvtTable struct {
	tableBase
	Values []int16
}

func newCvtTable(tag Tag, b binarySegm, offset, size uint32) *CvtTable {
	t := &CvtTable{}
	t.tableBase = tableBase{data: b, name: tag, offset: offset, length: size}
	t.self = t
	return t
}

// Encode serializes the control values.
func (t *CvtTable) Encode() ([]byte, error) {
	w := &binaryBuilder{}
	for _, v := range t.Values {
		w.putI16(v)
	}
	return w.bytes(), nil
}

// HMtxTable contains metric information for the horizontal layout of each
// glyph in the font. The records are expanded at parse time, one advance
// width and one left side bearing per glyph.
type HMtxTable struct {
	tableBase
	NumberOfHMetrics int
	AdvanceWidths    []uint16 // one per glyph
	LeftSideBearings []int16  // one per glyph
}

func newHMtxTable(tag Tag, b binarySegm, offset, size uint32) *HMtxTable {
	t := &HMtxTable{}
	t.tableBase = tableBase{data: b, name: tag, offset: offset, length: size}
	t.self = t
	return t
}

func (t *HMtxTable) parseAll(numGlyphs, numberOfHMetrics int) error {
	if numGlyphs < 0 {
		return fmt.Errorf("invalid glyph count %d", numGlyphs)
	}
	if numberOfHMetrics <= 0 || numberOfHMetrics > numGlyphs {
		return fmt.Errorf("invalid numberOfHMetrics %d (numGlyphs=%d)", numberOfHMetrics, numGlyphs)
	}
	required := numberOfHMetrics*4 + (numGlyphs-numberOfHMetrics)*2
	if required > len(t.data) {
		return fmt.Errorf("hmtx table too small: need %d bytes, have %d", required, len(t.data))
	}
	t.NumberOfHMetrics = numberOfHMetrics
	t.AdvanceWidths = make([]uint16, numGlyphs)
	t.LeftSideBearings = make([]int16, numGlyphs)
	for i := 0; i < numberOfHMetrics; i++ {
		aw, _ := t.data.u16(i * 4)
		lsb, _ := t.data.i16(i*4 + 2)
		t.AdvanceWidths[i] = aw
		t.LeftSideBearings[i] = lsb
	}
	base := numberOfHMetrics * 4
	lastAw := t.AdvanceWidths[numberOfHMetrics-1]
	for i := numberOfHMetrics; i < numGlyphs; i++ {
		lsb, _ := t.data.i16(base + (i-numberOfHMetrics)*2)
		t.AdvanceWidths[i] = lastAw
		t.LeftSideBearings[i] = lsb
	}
	return nil
}

// HMetrics returns the advance width and left side bearing for a glyph.
func (t *HMtxTable) HMetrics(g GlyphIndex) (uint16, int16, bool) {
	if t == nil || int(g) >= len(t.AdvanceWidths) {
		return 0, 0, false
	}
	return t.AdvanceWidths[g], t.LeftSideBearings[g], true
}

// Encode serializes the metrics. The long-metrics run is trimmed to
// NumberOfHMetrics; if an advance beyond that run no longer matches the last
// long metric, the run is extended to cover all glyphs (the caller must then
// sync hhea.NumberOfHMetrics via NumberOfHMetrics).
func (t *HMtxTable) Encode() ([]byte, error) {
	n := len(t.AdvanceWidths)
	if n == 0 {
		// never decoded; reproduce the original bytes
		return t.data, nil
	}
	numLong := t.NumberOfHMetrics
	if numLong <= 0 || numLong > n {
		numLong = n
	}
	lastAw := t.AdvanceWidths[numLong-1]
	for i := numLong; i < n; i++ {
		if t.AdvanceWidths[i] != lastAw {
			numLong = n
			break
		}
	}
	t.NumberOfHMetrics = numLong
	w := &binaryBuilder{}
	for i := 0; i < numLong; i++ {
		w.putU16(t.AdvanceWidths[i])
		w.putI16(t.LeftSideBearings[i])
	}
	for i := numLong; i < n; i++ {
		w.putI16(t.LeftSideBearings[i])
	}
	return w.bytes(), nil
}
