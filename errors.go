package celestemap

import (
	"errors"
	"fmt"
	"strings"
)

var (
	// ErrFormat is the kind of errors caused by input that cannot be a map file:
	// a wrong header, an unknown attribute encoding, a malformed 7-bit integer.
	ErrFormat = errors.New("format error")

	// ErrRange is the kind of errors caused by an index or a length outside of
	// its valid range, on read (string table, byte cursor) or on write (counts
	// that do not fit their on-disk width).
	ErrRange = errors.New("range error")

	// ErrAttribute is the kind of errors returned by refused element mutations.
	ErrAttribute = errors.New("attribute error")

	// ErrUnknownID is returned by Tree operations given an id the tree never
	// assigned.
	ErrUnknownID = errors.New("unknown element id")
)

// DataError describes a decoding failure at a given offset of the input.
type DataError struct {
	Data []byte
	Off  int
	Err  error
	Msg  string
}

func dataErrf(data []byte, off int, err error, format string, args ...any) error {
	return &DataError{data, off, err, fmt.Sprintf(format, args...)}
}

func (e *DataError) Unwrap() error {
	return e.Err
}

func (e *DataError) Error() string {
	const prefixLen = 64
	const suffixLen = 32
	n := len(e.Data)
	if n <= prefixLen+suffixLen {
		if e.Err != nil {
			return fmt.Sprintf("%s at %d: %v: (%d) %x", e.Msg, e.Off, e.Err, n, e.Data)
		} else {
			return fmt.Sprintf("%s at %d: (%d) %x", e.Msg, e.Off, n, e.Data)
		}
	} else {
		p, s := e.Data[:prefixLen], e.Data[n-suffixLen:]
		if e.Err != nil {
			return fmt.Sprintf("%s at %d: %v: (%d) %x...%x", e.Msg, e.Off, e.Err, n, p, s)
		} else {
			return fmt.Sprintf("%s at %d: (%d) %x...%x", e.Msg, e.Off, n, p, s)
		}
	}
}

// ElementError describes a refused operation on an element: a mutation that
// would break the tree, or an element that cannot be encoded.
type ElementError struct {
	Type string
	Name string
	Msg  string
	Err  error
}

func elementErrf(el *Element, name string, err error, format string, args ...any) error {
	var typ string
	if el != nil {
		typ = el.typ
	}
	return &ElementError{typ, name, fmt.Sprintf(format, args...), err}
}

func (e *ElementError) Unwrap() error {
	return e.Err
}

func (e *ElementError) Error() string {
	var buf strings.Builder
	if e.Type != "" {
		buf.WriteString(e.Type)
	} else {
		buf.WriteString("<element>")
	}
	if e.Name != "" {
		buf.WriteByte('.')
		buf.WriteString(e.Name)
	}
	if e.Msg != "" {
		buf.WriteString(": ")
		buf.WriteString(e.Msg)
		if e.Err != nil {
			buf.WriteString(": ")
			buf.WriteString(e.Err.Error())
		}
	} else if e.Err != nil {
		buf.WriteString(": ")
		buf.WriteString(e.Err.Error())
	}
	return buf.String()
}
