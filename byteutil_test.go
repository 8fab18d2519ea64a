package celestemap

import (
	"errors"
	"reflect"
	"testing"
)

func TestBuffer_Basics(t *testing.T) {
	var b Buffer
	off := b.Grow(3)
	copy(b.Bytes()[off:], []byte{1, 2, 3})
	b.AppendByte(4)
	_, _ = b.Write([]byte{5, 6})
	_ = b.WriteByte(7)
	b.AppendRaw([]byte{8})

	if !reflect.DeepEqual(b.Bytes(), []byte{1, 2, 3, 4, 5, 6, 7, 8}) {
		t.Fatalf("b.Bytes() = %x, wanted 0102030405060708", b.Bytes())
	}
	if b.Len() != 8 || b.Off() != 0 || b.Remaining() != 8 {
		t.Fatalf("Len/Off/Remaining = %d/%d/%d, wanted 8/0/8", b.Len(), b.Off(), b.Remaining())
	}

	v := must(b.ReadByte())
	if v != 1 {
		t.Fatalf("ReadByte = %d, wanted 1", v)
	}
	raw := must(b.ReadBytes(3))
	if !reflect.DeepEqual(raw, []byte{2, 3, 4}) {
		t.Fatalf("ReadBytes = %x, wanted 020304", raw)
	}
	if b.Off() != 4 || b.Remaining() != 4 {
		t.Fatalf("Off/Remaining = %d/%d, wanted 4/4", b.Off(), b.Remaining())
	}

	// writes never move the read head
	b.AppendByte(9)
	if b.Off() != 4 || b.Remaining() != 5 {
		t.Fatalf("after append: Off/Remaining = %d/%d, wanted 4/5", b.Off(), b.Remaining())
	}
}

func TestBuffer_Seek(t *testing.T) {
	b := NewBuffer([]byte{10, 20, 30})
	b.Seek(2)
	if v := must(b.ReadByte()); v != 30 {
		t.Fatalf("ReadByte after Seek(2) = %d, wanted 30", v)
	}
	b.Seek(0)
	if v := must(b.ReadByte()); v != 10 {
		t.Fatalf("ReadByte after Seek(0) = %d, wanted 10", v)
	}

	b.Seek(10)
	if b.Remaining() != 0 {
		t.Fatalf("Remaining past end = %d, wanted 0", b.Remaining())
	}
	if _, err := b.ReadByte(); !errors.Is(err, ErrRange) {
		t.Fatalf("ReadByte past end err = %v, wanted ErrRange", err)
	}

	b.Seek(-1)
	if _, err := b.ReadByte(); !errors.Is(err, ErrRange) {
		t.Fatalf("ReadByte before start err = %v, wanted ErrRange", err)
	}
}

func TestBuffer_ReadPastEnd(t *testing.T) {
	b := NewBuffer([]byte{1, 2})
	_, err := b.ReadBytes(3)
	var de *DataError
	if !errors.As(err, &de) || !errors.Is(err, ErrRange) {
		t.Fatalf("ReadBytes(3) err = %v, wanted ErrRange DataError", err)
	}
	if de.Off != 0 {
		t.Fatalf("DataError.Off = %d, wanted 0", de.Off)
	}
	if b.Off() != 0 {
		t.Fatalf("failed read moved the head to %d", b.Off())
	}
	if _, err := b.ReadBytes(-1); !errors.Is(err, ErrRange) {
		t.Fatalf("ReadBytes(-1) err = %v, wanted ErrRange", err)
	}
}

func TestEnsureCapacity(t *testing.T) {
	buf := ensureCapacity(nil, 5)
	if cap(buf) != 16 {
		t.Fatalf("cap = %d, wanted 16", cap(buf))
	}
	buf = append(buf, 1, 2)
	buf = ensureCapacity(buf, 40)
	if cap(buf) != 64 || !reflect.DeepEqual(buf, []byte{1, 2}) {
		t.Fatalf("after grow: cap = %d, buf = %x, wanted 64 and 0102", cap(buf), buf)
	}
}
