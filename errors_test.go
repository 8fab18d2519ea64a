package celestemap

import (
	"errors"
	"strings"
	"testing"
)

func TestDataError_ErrorAndUnwrap(t *testing.T) {
	t.Run("small data", func(t *testing.T) {
		err := dataErrf([]byte{0xAA, 0xBB}, 1, ErrFormat, "oops")
		var de *DataError
		if !errors.As(err, &de) {
			t.Fatalf("err = %T, wanted *DataError", err)
		}
		if !errors.Is(err, ErrFormat) {
			t.Fatalf("errors.Is(err, ErrFormat) = false, wanted true")
		}
		deepEqual(t, err.Error(), "oops at 1: format error: (2) aabb")
	})

	t.Run("large data includes prefix+suffix", func(t *testing.T) {
		data := make([]byte, 200)
		for i := range data {
			data[i] = byte(i)
		}
		err := dataErrf(data, 150, nil, "oops")
		s := err.Error()
		if !strings.HasPrefix(s, "oops at 150: (200) ") || !strings.Contains(s, "...") {
			t.Fatalf("err.Error() = %q, wanted message with (200) and ...", s)
		}
	})
}

func TestElementError_ErrorAndUnwrap(t *testing.T) {
	err := elementErrf(NewElement("level"), "x", ErrAttribute, "oops %d", 1)
	if !errors.Is(err, ErrAttribute) {
		t.Fatalf("errors.Is(err, ErrAttribute) = false, wanted true")
	}
	deepEqual(t, err.Error(), "level.x: oops 1: attribute error")

	deepEqual(t, elementErrf(NewElement("level"), "", ErrRange, "").Error(), "level: range error")
	deepEqual(t, elementErrf(nil, "", nil, "bad").Error(), "<element>: bad")
}
