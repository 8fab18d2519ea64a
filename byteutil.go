package celestemap

import "io"

func ensureCapacity(buf []byte, minCap int) []byte {
	c := cap(buf)
	if minCap > c {
		if c < 16 {
			c = 16
		}
		for minCap > c {
			c <<= 1
		}
		old := buf
		buf = make([]byte, len(old), c)
		copy(buf, old)
	}
	return buf
}

func grow(buf []byte, n int) (int, []byte) {
	off := len(buf)
	newLen := off + n
	buf = ensureCapacity(buf, newLen)
	return off, buf[:newLen]
}

func appendRaw(buf []byte, chunk []byte) []byte {
	n := len(chunk)
	off, buf := grow(buf, n)
	copy(buf[off:], chunk)
	return buf
}

// Buffer is a byte cursor: writes always append to the end of the data,
// reads consume it from the read head onwards.
//
// A Buffer made with NewBuffer reads the given data without copying it.
// The zero Buffer is empty and ready for writing.
type Buffer struct {
	buf []byte
	off int
}

var (
	_ io.Writer     = (*Buffer)(nil)
	_ io.ByteWriter = (*Buffer)(nil)
	_ io.ByteReader = (*Buffer)(nil)
)

func NewBuffer(data []byte) *Buffer {
	return &Buffer{buf: data}
}

// Bytes returns all data written to (or given to) the buffer, regardless of
// the read head. The slice aliases the buffer until the next write.
func (b *Buffer) Bytes() []byte {
	return b.buf
}

func (b *Buffer) Len() int {
	return len(b.buf)
}

// Off returns the position of the read head.
func (b *Buffer) Off() int {
	return b.off
}

// Remaining returns the number of bytes between the read head and the end.
func (b *Buffer) Remaining() int {
	if b.off >= len(b.buf) {
		return 0
	}
	return len(b.buf) - b.off
}

// Seek moves the read head to an absolute offset. The offset is not
// validated; a read from outside of the data fails with ErrRange.
func (b *Buffer) Seek(off int) {
	b.off = off
}

func (b *Buffer) ReadByte() (byte, error) {
	if b.off < 0 || b.off >= len(b.buf) {
		return 0, dataErrf(b.buf, b.off, ErrRange, "not enough data: %d bytes remaining, 1 wanted", b.Remaining())
	}
	v := b.buf[b.off]
	b.off++
	return v, nil
}

// ReadBytes consumes the next n bytes. The result aliases the buffer.
func (b *Buffer) ReadBytes(n int) ([]byte, error) {
	if n < 0 || b.off < 0 || b.off+n > len(b.buf) {
		return nil, dataErrf(b.buf, b.off, ErrRange, "not enough data: %d bytes remaining, %d wanted", b.Remaining(), n)
	}
	v := b.buf[b.off : b.off+n]
	b.off += n
	return v, nil
}

func (b *Buffer) Grow(n int) (off int) {
	off, b.buf = grow(b.buf, n)
	return
}

func (b *Buffer) Write(p []byte) (int, error) {
	b.buf = appendRaw(b.buf, p)
	return len(p), nil
}

func (b *Buffer) WriteByte(v byte) error {
	b.AppendByte(v)
	return nil
}

func (b *Buffer) AppendByte(v byte) {
	off := b.Grow(1)
	b.buf[off] = v
}

func (b *Buffer) AppendRaw(v []byte) {
	b.buf = appendRaw(b.buf, v)
}
