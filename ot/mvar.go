package ot

import "fmt"

// MvarRecord associates a metric value tag (e.g. 'hasc', 'unds') with an
// entry of the MVAR item variation store.
type MvarRecord struct {
	ValueTag Tag
	VarIdx   uint32 // (outer << 16) | inner
}

// MvarTable represents a parsed MVAR (Metrics Variations) table.
type MvarTable struct {
	tableBase
	Records []MvarRecord
	Store   *ItemVariationStore
}

func newMvarTable(tag Tag, b binarySegm, offset, size uint32) *MvarTable {
	t := &MvarTable{}
	t.tableBase = tableBase{data: b, name: tag, offset: offset, length: size}
	t.self = t
	return t
}

func (t *MvarTable) parseAll() error {
	b := t.data
	if len(b) < 12 {
		return fmt.Errorf("MVAR table too small: %d bytes", len(b))
	}
	major, _ := b.u16(0)
	if major != 1 {
		return fmt.Errorf("unsupported MVAR version %d", major)
	}
	recordSize, _ := b.u16(6)
	recordCount, _ := b.u16(8)
	storeOffset, _ := b.u16(10)
	if recordCount > 0 && recordSize < 8 {
		return fmt.Errorf("invalid MVAR value record size %d", recordSize)
	}
	t.Records = make([]MvarRecord, recordCount)
	for i := range t.Records {
		off := 12 + i*int(recordSize)
		vt, err := b.u32(off)
		if err != nil {
			return err
		}
		outer, _ := b.u16(off + 4)
		inner, _ := b.u16(off + 6)
		t.Records[i] = MvarRecord{
			ValueTag: Tag(vt),
			VarIdx:   uint32(outer)<<16 | uint32(inner),
		}
	}
	if storeOffset != 0 {
		vs, err := parseItemVariationStore(b[storeOffset:])
		if err != nil {
			return fmt.Errorf("cannot parse MVAR variation store: %w", err)
		}
		t.Store = vs
	}
	return nil
}

// Encode serializes the MVAR table. A table that was never decoded
// reproduces its original bytes.
func (t *MvarTable) Encode() ([]byte, error) {
	if t.Records == nil && t.Store == nil && len(t.data) > 0 {
		return t.data, nil
	}
	w := &binaryBuilder{}
	w.putU16(1)
	w.putU16(0)
	w.putU16(0) // reserved
	w.putU16(8) // valueRecordSize
	w.putU16(uint16(len(t.Records)))
	storeOffsetAt := w.len()
	w.putU16(0)
	for _, r := range t.Records {
		w.putU32(uint32(r.ValueTag))
		w.putU16(uint16(r.VarIdx >> 16))
		w.putU16(uint16(r.VarIdx & 0xFFFF))
	}
	if t.Store != nil {
		w.patchU16(storeOffsetAt, uint16(w.len()))
		b, err := encodeItemVariationStore(t.Store)
		if err != nil {
			return nil, err
		}
		w.putBytes(b)
	}
	return w.bytes(), nil
}
