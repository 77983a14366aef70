package ot

import (
	"fmt"
)

// Parse decodes an OpenType font from binary data. The data is expected to
// contain a complete single-font SFNT stream; collections are not supported.
//
// Tables relevant for variation instancing are decoded into structured
// form; all other tables are retained as generic tables and reproduced
// byte-identical on write.
func Parse(data []byte) (*Font, error) {
	if len(data) < 12 {
		return nil, fmt.Errorf("font data too small: %d bytes", len(data))
	}
	b := binarySegm(data)
	fontType, _ := b.u32(0)
	switch fontType {
	case 0x00010000, 0x74727565: // TrueType outlines ('true' is the old Apple tag)
	case 0x4F54544F: // 'OTTO'
	default:
		return nil, fmt.Errorf("unsupported font type 0x%08x", fontType)
	}
	tableCount, _ := b.u16(4)
	otf := &Font{
		Header: &FontHeader{FontType: fontType, TableCount: tableCount},
		tables: make(map[Tag]Table),
	}
	ec := &errorCollector{}

	type tableRecord struct {
		tag          Tag
		offset, size uint32
	}
	records := make([]tableRecord, 0, tableCount)
	for i := 0; i < int(tableCount); i++ {
		tag, err := b.u32(12 + i*16)
		if err != nil {
			return nil, fmt.Errorf("cannot read table directory: %w", err)
		}
		offset, _ := b.u32(12 + i*16 + 8)
		size, _ := b.u32(12 + i*16 + 12)
		if int(offset)+int(size) > len(data) {
			return nil, fmt.Errorf("table %s extends past end of font data", Tag(tag))
		}
		records = append(records, tableRecord{tag: Tag(tag), offset: offset, size: size})
	}
	for _, rec := range records {
		seg, _ := b.view(int(rec.offset), int(rec.size))
		otf.tables[rec.tag] = newTableForTag(rec.tag, seg, rec.offset, rec.size)
	}

	if err := connectTables(otf, ec); err != nil {
		return nil, err
	}
	otf.parseErrors = ec.errors
	otf.parseWarnings = ec.warnings
	if ec.hasCriticalErrors() {
		tracer().Errorf("font parsed with critical errors")
	}
	return otf, nil
}

func newTableForTag(tag Tag, b binarySegm, offset, size uint32) Table {
	switch tag {
	case T("head"):
		return newHeadTable(tag, b, offset, size)
	case T("maxp"):
		return newMaxPTable(tag, b, offset, size)
	case T("hhea"):
		return newHHeaTable(tag, b, offset, size)
	case T("vhea"):
		return newVHeaTable(tag, b, offset, size)
	case T("OS/2"):
		return newOS2Table(tag, b, offset, size)
	case T("post"):
		return newPostTable(tag, b, offset, size)
	case T("hmtx"):
		return newHMtxTable(tag, b, offset, size)
	case T("cvt "):
		return newCvtTable(tag, b, offset, size)
	case T("fvar"):
		return newFvarTable(tag, b, offset, size)
	case T("avar"):
		return newAvarTable(tag, b, offset, size)
	case T("glyf"):
		return newGlyfTable(tag, b, offset, size)
	case T("gvar"):
		return newGvarTable(tag, b, offset, size)
	case T("cvar"):
		return newCvarTable(tag, b, offset, size)
	case T("MVAR"):
		return newMvarTable(tag, b, offset, size)
	case T("GSUB"), T("GPOS"):
		return newLayoutTable(tag, b, offset, size)
	}
	return newTable(tag, b, offset, size)
}

// connectTables decodes the typed tables in dependency order: header tables
// first, then outlines, then the variation tables (which need axis order
// and per-glyph point counts).
func connectTables(otf *Font, ec *errorCollector) error {
	if t := otf.Table(T("head")); t != nil {
		head := t.Self().tableBase.self.(*HeadTable)
		b := binarySegm(head.data)
		if len(head.data) < 54 {
			return fmt.Errorf("head table too small: %d bytes", len(head.data))
		}
		head.Flags, _ = b.u16(16)
		head.UnitsPerEm, _ = b.u16(18)
		head.IndexToLocFormat, _ = b.u16(50)
		otf.Head = head
	}
	if t := otf.Table(T("maxp")); t != nil {
		maxp := t.Self().tableBase.self.(*MaxPTable)
		b := binarySegm(maxp.data)
		n, err := b.u16(4)
		if err != nil {
			return fmt.Errorf("maxp table too small")
		}
		maxp.NumGlyphs = int(n)
		otf.MaxP = maxp
	}
	if t := otf.Table(T("hhea")); t != nil {
		hhea := t.Self().tableBase.self.(*HHeaTable)
		b := binarySegm(hhea.data)
		if len(hhea.data) < 36 {
			return fmt.Errorf("hhea table too small: %d bytes", len(hhea.data))
		}
		hhea.Ascender, _ = b.i16(4)
		hhea.Descender, _ = b.i16(6)
		hhea.LineGap, _ = b.i16(8)
		hhea.AdvanceWidthMax, _ = b.u16(10)
		hhea.MinLeftSideBearing, _ = b.i16(12)
		hhea.MinRightSideBearing, _ = b.i16(14)
		hhea.XMaxExtent, _ = b.i16(16)
		hhea.CaretSlopeRise, _ = b.i16(18)
		hhea.CaretSlopeRun, _ = b.i16(20)
		hhea.CaretOffset, _ = b.i16(22)
		n, _ := b.u16(34)
		hhea.NumberOfHMetrics = int(n)
		otf.HHea = hhea
	}
	if t := otf.Table(T("vhea")); t != nil {
		vhea := t.Self().tableBase.self.(*VHeaTable)
		b := binarySegm(vhea.data)
		if len(vhea.data) >= 36 {
			vhea.Ascent, _ = b.i16(4)
			vhea.Descent, _ = b.i16(6)
			vhea.LineGap, _ = b.i16(8)
			vhea.CaretSlopeRise, _ = b.i16(24)
			vhea.CaretSlopeRun, _ = b.i16(26)
			vhea.CaretOffset, _ = b.i16(28)
			otf.VHea = vhea
		} else {
			ec.addError(T("vhea"), "header", "table too small", SeverityMajor, 0)
		}
	}
	if t := otf.Table(T("OS/2")); t != nil {
		os2 := t.Self().tableBase.self.(*OS2Table)
		b := binarySegm(os2.data)
		if len(os2.data) >= 78 {
			os2.Version, _ = b.u16(0)
			os2.XAvgCharWidth, _ = b.i16(2)
			os2.SubscriptXSize, _ = b.i16(10)
			os2.SubscriptYSize, _ = b.i16(12)
			os2.SubscriptXOffset, _ = b.i16(14)
			os2.SubscriptYOffset, _ = b.i16(16)
			os2.SuperscriptXSize, _ = b.i16(18)
			os2.SuperscriptYSize, _ = b.i16(20)
			os2.SuperscriptXOffset, _ = b.i16(22)
			os2.SuperscriptYOffset, _ = b.i16(24)
			os2.StrikeoutSize, _ = b.i16(26)
			os2.StrikeoutPosition, _ = b.i16(28)
			os2.TypoAscender, _ = b.i16(68)
			os2.TypoDescender, _ = b.i16(70)
			os2.TypoLineGap, _ = b.i16(72)
			os2.WinAscent, _ = b.u16(74)
			os2.WinDescent, _ = b.u16(76)
			if os2.Version >= 2 && len(os2.data) >= 90 {
				os2.XHeight, _ = b.i16(86)
				os2.CapHeight, _ = b.i16(88)
			}
			otf.OS2 = os2
		} else {
			ec.addError(T("OS/2"), "header", "table too small", SeverityMajor, 0)
		}
	}
	if t := otf.Table(T("post")); t != nil {
		post := t.Self().tableBase.self.(*PostTable)
		b := binarySegm(post.data)
		if len(post.data) >= 12 {
			post.UnderlinePosition, _ = b.i16(8)
			post.UnderlineThicknss, _ = b.i16(10)
			otf.Post = post
		}
	}
	if t := otf.Table(T("hmtx")); t != nil && otf.MaxP != nil && otf.HHea != nil {
		hmtx := t.Self().tableBase.self.(*HMtxTable)
		if err := hmtx.parseAll(otf.MaxP.NumGlyphs, otf.HHea.NumberOfHMetrics); err != nil {
			return fmt.Errorf("cannot parse hmtx: %w", err)
		}
		otf.HMtx = hmtx
	}
	if t := otf.Table(T("cvt ")); t != nil {
		cvt := t.Self().tableBase.self.(*CvtTable)
		b := binarySegm(cvt.data)
		cvt.Values = make([]int16, len(cvt.data)/2)
		for i := range cvt.Values {
			cvt.Values[i], _ = b.i16(i * 2)
		}
		otf.Cvt = cvt
	}
	if t := otf.Table(T("fvar")); t != nil {
		fvar := t.Self().tableBase.self.(*FvarTable)
		if err := fvar.parseAll(); err != nil {
			return fmt.Errorf("cannot parse fvar: %w", err)
		}
		otf.Fvar = fvar
	}
	if t := otf.Table(T("avar")); t != nil {
		avar := t.Self().tableBase.self.(*AvarTable)
		if err := avar.parseAll(); err != nil {
			ec.addError(T("avar"), "header", err.Error(), SeverityMajor, 0)
		} else {
			otf.Avar = avar
		}
	}

	// outlines: need head (loca format) and maxp (glyph count)
	if t := otf.Table(T("glyf")); t != nil {
		if otf.Head == nil || otf.MaxP == nil {
			return fmt.Errorf("glyf table present without head/maxp")
		}
		loca := otf.Table(T("loca"))
		if loca == nil {
			return fmt.Errorf("glyf table present without loca")
		}
		offsets, err := parseLoca(loca.Binary(), otf.MaxP.NumGlyphs, otf.Head.IndexToLocFormat == 1)
		if err != nil {
			return err
		}
		glyf := t.Self().tableBase.self.(*GlyfTable)
		if err := glyf.parseAll(offsets); err != nil {
			return err
		}
		otf.Glyf = glyf
	}

	var axisTags []Tag
	if otf.Fvar != nil {
		axisTags = make([]Tag, len(otf.Fvar.Axes))
		for i, a := range otf.Fvar.Axes {
			axisTags[i] = a.Tag
		}
	}

	if t := otf.Table(T("gvar")); t != nil && otf.Fvar != nil && otf.Glyf != nil {
		gvar := t.Self().tableBase.self.(*GvarTable)
		pointCounts := make([]int, len(otf.Glyf.Glyphs))
		for gid := range otf.Glyf.Glyphs {
			pointCounts[gid] = len(otf.Glyf.Coordinates(GlyphIndex(gid), otf.HMtx))
		}
		if err := gvar.parseAll(axisTags, pointCounts); err != nil {
			return fmt.Errorf("cannot parse gvar: %w", err)
		}
		otf.Gvar = gvar
	}
	if t := otf.Table(T("cvar")); t != nil && otf.Fvar != nil && otf.Cvt != nil {
		cvar := t.Self().tableBase.self.(*CvarTable)
		if err := cvar.parseAll(axisTags, len(otf.Cvt.Values)); err != nil {
			return fmt.Errorf("cannot parse cvar: %w", err)
		}
		otf.Cvar = cvar
	}
	if t := otf.Table(T("MVAR")); t != nil {
		mvar := t.Self().tableBase.self.(*MvarTable)
		if err := mvar.parseAll(); err != nil {
			return fmt.Errorf("cannot parse MVAR: %w", err)
		}
		otf.Mvar = mvar
	}
	if t := otf.Table(T("GSUB")); t != nil {
		gsub := t.Self().tableBase.self.(*LayoutTable)
		if err := gsub.parseAll(); err != nil {
			ec.addError(T("GSUB"), "header", err.Error(), SeverityMajor, 0)
		} else {
			otf.GSub = gsub
		}
	}
	if t := otf.Table(T("GPOS")); t != nil {
		gpos := t.Self().tableBase.self.(*LayoutTable)
		if err := gpos.parseAll(); err != nil {
			ec.addError(T("GPOS"), "header", err.Error(), SeverityMajor, 0)
		} else {
			otf.GPos = gpos
		}
	}
	return nil
}

func parseLoca(data []byte, numGlyphs int, long bool) ([]uint32, error) {
	b := binarySegm(data)
	out := make([]uint32, numGlyphs+1)
	if long {
		if len(data) < (numGlyphs+1)*4 {
			return nil, fmt.Errorf("loca table too small")
		}
		for i := range out {
			out[i], _ = b.u32(i * 4)
		}
	} else {
		if len(data) < (numGlyphs+1)*2 {
			return nil, fmt.Errorf("loca table too small")
		}
		for i := range out {
			v, _ := b.u16(i * 2)
			out[i] = uint32(v) * 2 // the actual offset divided by 2 is stored
		}
	}
	return out, nil
}
