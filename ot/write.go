package ot

import (
	"fmt"
	"io"
	"os"
	"sort"
)

// Write serializes the font to w. Typed tables re-encode their structured
// content; generic tables reproduce their original bytes. The loca table is
// regenerated from glyf, and head's checkSumAdjustment is recomputed.
func (otf *Font) Write(w io.Writer) error {
	data, err := otf.Bytes()
	if err != nil {
		return err
	}
	_, err = w.Write(data)
	return err
}

// WriteFile serializes the font to a file.
func (otf *Font) WriteFile(path string) error {
	f, err := os.Create(path)
	if err != nil {
		return err
	}
	defer f.Close()
	return otf.Write(f)
}

// Bytes serializes the font to a new byte slice.
func (otf *Font) Bytes() (data []byte, err error) {
	// sync hhea with the current long-metrics count; re-encoding hmtx below
	// may still extend the run, so hhea is encoded once more afterwards
	if otf.HMtx != nil && otf.HHea != nil {
		otf.HHea.NumberOfHMetrics = otf.HMtx.NumberOfHMetrics
	}

	tags := make([]Tag, 0, len(otf.tables))
	for tag := range otf.tables {
		tags = append(tags, tag)
	}
	sort.Slice(tags, func(i, j int) bool { return tags[i] < tags[j] })

	encoded := make(map[Tag][]byte, len(tags)+1)
	for _, tag := range tags {
		if tag == T("loca") && otf.Glyf != nil {
			continue // regenerated below
		}
		b, err := otf.tables[tag].Encode()
		if err != nil {
			return nil, fmt.Errorf("cannot encode table %s: %w", tag, err)
		}
		encoded[tag] = b
	}
	// hhea again, after hmtx had its say
	if otf.HMtx != nil && otf.HHea != nil {
		otf.HHea.NumberOfHMetrics = otf.HMtx.NumberOfHMetrics
		b, err := otf.HHea.Encode()
		if err != nil {
			return nil, err
		}
		encoded[T("hhea")] = b
	}
	if otf.Glyf != nil && otf.HasTable(T("loca")) {
		offsets := otf.Glyf.LocaOffsets()
		if offsets == nil {
			return nil, fmt.Errorf("glyf was not encoded before loca")
		}
		long := offsets[len(offsets)-1] > 0xFFFF*2
		if otf.Head != nil {
			if long {
				otf.Head.IndexToLocFormat = 1
			} else {
				otf.Head.IndexToLocFormat = 0
			}
			b, err := otf.Head.Encode()
			if err != nil {
				return nil, err
			}
			encoded[T("head")] = b
		}
		lw := &binaryBuilder{}
		for _, off := range offsets {
			if long {
				lw.putU32(off)
			} else {
				lw.putU16(uint16(off / 2))
			}
		}
		encoded[T("loca")] = lw.bytes()
	}

	// table directory
	numTables := len(encoded)
	entrySelector := 0
	for 1<<(entrySelector+1) <= numTables {
		entrySelector++
	}
	searchRange := (1 << entrySelector) * 16
	w := &binaryBuilder{}
	w.putU32(otf.Header.FontType)
	w.putU16(uint16(numTables))
	w.putU16(uint16(searchRange))
	w.putU16(uint16(entrySelector))
	w.putU16(uint16(numTables*16 - searchRange))

	dirTags := make([]Tag, 0, numTables)
	for tag := range encoded {
		dirTags = append(dirTags, tag)
	}
	sort.Slice(dirTags, func(i, j int) bool { return dirTags[i] < dirTags[j] })
	dirAt := w.len()
	for range dirTags {
		w.putU32(0)
		w.putU32(0)
		w.putU32(0)
		w.putU32(0)
	}
	headOffset := -1
	for i, tag := range dirTags {
		b := encoded[tag]
		offset := w.len()
		if tag == T("head") {
			headOffset = offset
		}
		w.putBytes(b)
		for w.len()%4 != 0 {
			w.putU8(0)
		}
		entry := dirAt + i*16
		w.patchU32(entry, uint32(tag))
		w.patchU32(entry+4, tableChecksum(w.buf[offset:offset+len(b)]))
		w.patchU32(entry+8, uint32(offset))
		w.patchU32(entry+12, uint32(len(b)))
	}

	// head checkSumAdjustment over the whole file (slot currently zero)
	if headOffset >= 0 {
		sum := tableChecksum(w.buf)
		w.patchU32(headOffset+8, 0xB1B0AFBA-sum)
	}
	return w.bytes(), nil
}

// tableChecksum sums a byte range as big-endian uint32 words, zero padded.
func tableChecksum(b []byte) uint32 {
	var sum uint32
	for i := 0; i < len(b); i += 4 {
		var word uint32
		for j := 0; j < 4; j++ {
			word <<= 8
			if i+j < len(b) {
				word |= uint32(b[i+j])
			}
		}
		sum += word
	}
	return sum
}
