package celestemap

import (
	"encoding/binary"
	"fmt"
	"strings"
)

// maxVarLenShift bounds 7-bit length prefixes to 5 groups.
const maxVarLenShift = 35

const maxRLEBytes = 0xFFFF

func (b *Buffer) ReadBool() (bool, error) {
	v, err := b.ReadByte()
	return v != 0, err
}

func (b *Buffer) AppendBool(v bool) {
	if v {
		b.AppendByte(1)
	} else {
		b.AppendByte(0)
	}
}

func (b *Buffer) ReadShort() (uint16, error) {
	raw, err := b.ReadBytes(2)
	if err != nil {
		return 0, err
	}
	return binary.LittleEndian.Uint16(raw), nil
}

func (b *Buffer) AppendShort(v uint16) {
	off := b.Grow(2)
	binary.LittleEndian.PutUint16(b.buf[off:], v)
}

// ReadLong reads a 4-byte integer. Callers wanting a signed value convert the
// result with int32(v).
func (b *Buffer) ReadLong() (uint32, error) {
	raw, err := b.ReadBytes(4)
	if err != nil {
		return 0, err
	}
	return binary.LittleEndian.Uint32(raw), nil
}

func (b *Buffer) AppendLong(v uint32) {
	off := b.Grow(4)
	binary.LittleEndian.PutUint32(b.buf[off:], v)
}

// ReadVarLen reads a base-128 little-endian integer, as used by string length
// prefixes. More than 5 groups are rejected with ErrFormat.
func (b *Buffer) ReadVarLen() (int, error) {
	start := b.off
	var v uint64
	for shift := 0; ; shift += 7 {
		if shift == maxVarLenShift {
			return 0, dataErrf(b.buf, start, ErrFormat, "bad 7-bit integer")
		}
		c, err := b.ReadByte()
		if err != nil {
			return 0, err
		}
		v |= uint64(c&0x7F) << shift
		if c&0x80 == 0 {
			return int(v), nil
		}
	}
}

func (b *Buffer) AppendVarLen(n int) {
	if n < 0 {
		panic("invalid negative length")
	}
	v := uint64(n)
	for v > 0x7F {
		b.AppendByte(byte(v) | 0x80)
		v >>= 7
	}
	b.AppendByte(byte(v))
}

// ReadString reads a length-prefixed string. The format stores one byte per
// character; the bytes are kept as is.
func (b *Buffer) ReadString() (string, error) {
	n, err := b.ReadVarLen()
	if err != nil {
		return "", err
	}
	raw, err := b.ReadBytes(n)
	if err != nil {
		return "", err
	}
	return string(raw), nil
}

func (b *Buffer) AppendString(s string) {
	b.AppendVarLen(len(s))
	off := b.Grow(len(s))
	copy(b.buf[off:], s)
}

// ReadRLEString reads a run-length encoded string: a uint16 byte count, then
// (repeat, char) pairs.
func (b *Buffer) ReadRLEString() (string, error) {
	start := b.off
	n, err := b.ReadShort()
	if err != nil {
		return "", err
	}
	if n%2 != 0 {
		return "", dataErrf(b.buf, start, ErrFormat, "odd run-length string size %d", n)
	}
	raw, err := b.ReadBytes(int(n))
	if err != nil {
		return "", err
	}
	var size int
	for i := 0; i < len(raw); i += 2 {
		size += int(raw[i])
	}
	var sb strings.Builder
	sb.Grow(size)
	for i := 0; i < len(raw); i += 2 {
		for range int(raw[i]) {
			sb.WriteByte(raw[i+1])
		}
	}
	return sb.String(), nil
}

// AppendRLEString writes s as (repeat, char) pairs. Runs longer than 255 are
// split. It fails with ErrRange when the pairs do not fit the uint16 size.
func (b *Buffer) AppendRLEString(s string) error {
	pairs := make([]byte, 0, 16)
	for i := 0; i < len(s); {
		c := s[i]
		j := i + 1
		for j < len(s) && s[j] == c && j-i < 0xFF {
			j++
		}
		pairs = append(pairs, byte(j-i), c)
		i = j
	}
	if len(pairs) > maxRLEBytes {
		return fmt.Errorf("%w: run-length string needs %d bytes, at most %d fit", ErrRange, len(pairs), maxRLEBytes)
	}
	b.AppendShort(uint16(len(pairs)))
	b.AppendRaw(pairs)
	return nil
}
