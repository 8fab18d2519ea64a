package celestemap

import "fmt"

const maxTableSize = 0xFFFF

// StringTable is the deduplicating string pool shared by all type names,
// attribute names and lookup-index values of one map file. Strings are only
// ever appended, so an index stays valid for the lifetime of the table.
//
// Use a fresh table for each Decode or Encode.
type StringTable struct {
	strings []string
	index   map[string]int
}

func NewStringTable() *StringTable {
	return &StringTable{index: make(map[string]int)}
}

// ReadStringTable reads a uint16 count followed by that many strings; the
// read order defines the indices.
func ReadStringTable(b *Buffer) (*StringTable, error) {
	n, err := b.ReadShort()
	if err != nil {
		return nil, err
	}
	tbl := &StringTable{
		strings: make([]string, 0, n),
		index:   make(map[string]int, n),
	}
	for i := 0; i < int(n); i++ {
		s, err := b.ReadString()
		if err != nil {
			return nil, err
		}
		tbl.add(s)
	}
	return tbl, nil
}

// Write emits the table. It fails with ErrRange when the table has outgrown
// the uint16 count.
func (tbl *StringTable) Write(b *Buffer) error {
	if len(tbl.strings) > maxTableSize {
		return fmt.Errorf("%w: string table has %d entries, at most %d fit", ErrRange, len(tbl.strings), maxTableSize)
	}
	b.AppendShort(uint16(len(tbl.strings)))
	for _, s := range tbl.strings {
		b.AppendString(s)
	}
	return nil
}

func (tbl *StringTable) add(s string) int {
	i := len(tbl.strings)
	tbl.strings = append(tbl.strings, s)
	if _, found := tbl.index[s]; !found {
		tbl.index[s] = i
	}
	return i
}

func (tbl *StringTable) Len() int {
	return len(tbl.strings)
}

// At returns the string at index i.
func (tbl *StringTable) At(i int) (string, bool) {
	if i < 0 || i >= len(tbl.strings) {
		return "", false
	}
	return tbl.strings[i], true
}

// Lookup returns the index of s, appending s if it is not in the table yet.
func (tbl *StringTable) Lookup(s string) int {
	if i, found := tbl.index[s]; found {
		return i
	}
	return tbl.add(s)
}

// Strings returns the table contents in index order.
func (tbl *StringTable) Strings() []string {
	return tbl.strings
}

func (tbl *StringTable) readRef(b *Buffer) (string, error) {
	off := b.Off()
	i, err := b.ReadShort()
	if err != nil {
		return "", err
	}
	s, ok := tbl.At(int(i))
	if !ok {
		return "", dataErrf(b.Bytes(), off, ErrRange, "string index %d out of range, table has %d entries", i, len(tbl.strings))
	}
	return s, nil
}

func (tbl *StringTable) writeRef(b *Buffer, s string) error {
	i := tbl.Lookup(s)
	if i > maxTableSize {
		return fmt.Errorf("%w: string index %d does not fit 16 bits", ErrRange, i)
	}
	b.AppendShort(uint16(i))
	return nil
}
