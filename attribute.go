package celestemap

import (
	"fmt"
	"math"
	"reflect"
	"strconv"
)

// Encoding is the on-disk tag selecting how an attribute value is stored.
type Encoding byte

const (
	EncBool      Encoding = 0 // 1 byte, 0 or 1
	EncByte      Encoding = 1 // uint8
	EncShort     Encoding = 2 // uint16
	EncInt       Encoding = 3 // 4 bytes, signed as unsigned
	EncFloat     Encoding = 4 // 4-byte single precision
	EncLookup    Encoding = 5 // uint16 index into the string table
	EncString    Encoding = 6 // 7-bit length prefix, raw bytes
	EncRLEString Encoding = 7 // run-length pairs
	EncLong      Encoding = 8 // same layout as EncInt
	EncDouble    Encoding = 9 // reserved; same layout as EncFloat

	encodingCount = 10
)

var encodingNames = [encodingCount]string{
	"bool", "byte", "short", "int", "float", "lookup", "string", "rlestring", "long", "double",
}

func (enc Encoding) Valid() bool {
	return enc < encodingCount
}

func (enc Encoding) String() string {
	if enc.Valid() {
		return encodingNames[enc]
	}
	return fmt.Sprintf("invalid encoding %d", int(enc))
}

// ParseEncoding is the inverse of Encoding.String.
func ParseEncoding(s string) (Encoding, error) {
	for i, name := range encodingNames {
		if name == s {
			return Encoding(i), nil
		}
	}
	return 0, fmt.Errorf("%w: unknown encoding %q", ErrFormat, s)
}

func (enc Encoding) isInteger() bool {
	switch enc {
	case EncByte, EncShort, EncInt, EncLong:
		return true
	}
	return false
}

func (enc Encoding) isFloat() bool {
	return enc == EncFloat || enc == EncDouble
}

func (enc Encoding) isText() bool {
	return enc == EncLookup || enc == EncString || enc == EncRLEString
}

// Value is an attribute value together with its encoding. Values are built
// with the constructors below, so the payload always matches the encoding.
// The zero Value is a false EncBool.
type Value struct {
	enc Encoding
	u   uint32
	f   float32
	s   string
}

func BoolValue(v bool) Value {
	var u uint32
	if v {
		u = 1
	}
	return Value{enc: EncBool, u: u}
}

func ByteValue(v uint8) Value { return Value{enc: EncByte, u: uint32(v)} }
func ShortValue(v uint16) Value { return Value{enc: EncShort, u: uint32(v)} }
func IntValue(v int32) Value { return Value{enc: EncInt, u: uint32(v)} }
func LongValue(v int32) Value { return Value{enc: EncLong, u: uint32(v)} }
func FloatValue(v float32) Value { return Value{enc: EncFloat, f: v} }
func DoubleValue(v float32) Value { return Value{enc: EncDouble, f: v} }
func StringValue(v string) Value { return Value{enc: EncString, s: v} }
func RLEStringValue(v string) Value { return Value{enc: EncRLEString, s: v} }

// LookupValue is a string stored as a string table reference. The reference
// is resolved on read and re-interned on write.
func LookupValue(v string) Value { return Value{enc: EncLookup, s: v} }

func (v Value) Encoding() Encoding {
	return v.enc
}

func (v Value) Bool() bool {
	if v.enc != EncBool {
		panic(fmt.Errorf("Bool called on %v value", v.enc))
	}
	return v.u != 0
}

// Uint returns the raw integer of a byte, short, int or long value.
func (v Value) Uint() uint32 {
	if !v.enc.isInteger() {
		panic(fmt.Errorf("Uint called on %v value", v.enc))
	}
	return v.u
}

// Int returns the integer of a byte, short, int or long value, reading int
// and long as signed.
func (v Value) Int() int32 {
	if !v.enc.isInteger() {
		panic(fmt.Errorf("Int called on %v value", v.enc))
	}
	return int32(v.u)
}

func (v Value) Float() float32 {
	if !v.enc.isFloat() {
		panic(fmt.Errorf("Float called on %v value", v.enc))
	}
	return v.f
}

func (v Value) Text() string {
	if !v.enc.isText() {
		panic(fmt.Errorf("Text called on %v value", v.enc))
	}
	return v.s
}

// Any returns the payload as a plain Go value: bool, uint8, uint16, int32,
// float32 or string.
func (v Value) Any() any {
	switch v.enc {
	case EncBool:
		return v.u != 0
	case EncByte:
		return uint8(v.u)
	case EncShort:
		return uint16(v.u)
	case EncInt, EncLong:
		return int32(v.u)
	case EncFloat, EncDouble:
		return v.f
	default:
		return v.s
	}
}

func (v Value) String() string {
	switch v.enc {
	case EncBool:
		return strconv.FormatBool(v.u != 0)
	case EncByte, EncShort:
		return strconv.FormatUint(uint64(v.u), 10)
	case EncInt, EncLong:
		return strconv.FormatInt(int64(int32(v.u)), 10)
	case EncFloat, EncDouble:
		return strconv.FormatFloat(float64(v.f), 'g', -1, 32)
	default:
		return strconv.Quote(v.s)
	}
}

// Equal reports whether both values have the same encoding and payload.
// NaN floats are equal to each other.
func (v Value) Equal(another Value) bool {
	if v.enc != another.enc {
		return false
	}
	if v.enc.isFloat() {
		if math.IsNaN(float64(v.f)) && math.IsNaN(float64(another.f)) {
			return true
		}
		return v.f == another.f
	}
	return v.u == another.u && v.s == another.s
}

// Coerce converts a loosely typed value (as produced by JSON, msgpack or CBOR
// decoders, or by a property editor) into a Value of this encoding.
func (enc Encoding) Coerce(raw any) (Value, error) {
	if v, ok := raw.(Value); ok {
		if v.enc == enc {
			return v, nil
		}
		raw = v.Any()
	}
	switch {
	case enc == EncBool:
		if b, ok := raw.(bool); ok {
			return BoolValue(b), nil
		}
	case enc.isInteger():
		n, ok := toInt64(raw)
		if !ok {
			break
		}
		switch enc {
		case EncByte:
			if n >= 0 && n <= math.MaxUint8 {
				return ByteValue(uint8(n)), nil
			}
		case EncShort:
			if n >= 0 && n <= math.MaxUint16 {
				return ShortValue(uint16(n)), nil
			}
		default:
			if n >= math.MinInt32 && n <= math.MaxUint32 {
				return Value{enc: enc, u: uint32(n)}, nil
			}
		}
		return Value{}, fmt.Errorf("%w: %d out of range for %v", ErrAttribute, n, enc)
	case enc.isFloat():
		if f, ok := toFloat64(raw); ok {
			return Value{enc: enc, f: float32(f)}, nil
		}
	case enc.isText():
		if s, ok := raw.(string); ok {
			return Value{enc: enc, s: s}, nil
		}
	default:
		return Value{}, fmt.Errorf("%w: %v", ErrAttribute, enc)
	}
	return Value{}, fmt.Errorf("%w: cannot use %T value %v as %v", ErrAttribute, raw, raw, enc)
}

func toInt64(raw any) (int64, bool) {
	rv := reflect.ValueOf(raw)
	switch rv.Kind() {
	case reflect.Int, reflect.Int8, reflect.Int16, reflect.Int32, reflect.Int64:
		return rv.Int(), true
	case reflect.Uint, reflect.Uint8, reflect.Uint16, reflect.Uint32, reflect.Uint64, reflect.Uintptr:
		u := rv.Uint()
		if u > math.MaxInt64 {
			return 0, false
		}
		return int64(u), true
	case reflect.Float32, reflect.Float64:
		f := rv.Float()
		if f != math.Trunc(f) || f < math.MinInt64 || f > math.MaxInt64 {
			return 0, false
		}
		return int64(f), true
	}
	return 0, false
}

func toFloat64(raw any) (float64, bool) {
	rv := reflect.ValueOf(raw)
	switch rv.Kind() {
	case reflect.Int, reflect.Int8, reflect.Int16, reflect.Int32, reflect.Int64:
		return float64(rv.Int()), true
	case reflect.Uint, reflect.Uint8, reflect.Uint16, reflect.Uint32, reflect.Uint64, reflect.Uintptr:
		return float64(rv.Uint()), true
	case reflect.Float32, reflect.Float64:
		return rv.Float(), true
	}
	return 0, false
}

// ReadValue reads an encoding tag and the value that follows it. Lookup values
// are resolved against tbl.
func ReadValue(b *Buffer, tbl *StringTable) (Value, error) {
	off := b.Off()
	tag, err := b.ReadByte()
	if err != nil {
		return Value{}, err
	}
	enc := Encoding(tag)
	switch enc {
	case EncBool:
		v, err := b.ReadBool()
		return BoolValue(v), err
	case EncByte:
		v, err := b.ReadByte()
		return ByteValue(v), err
	case EncShort:
		v, err := b.ReadShort()
		return ShortValue(v), err
	case EncInt, EncLong:
		v, err := b.ReadLong()
		return Value{enc: enc, u: v}, err
	case EncFloat, EncDouble:
		v, err := b.ReadFloat()
		return Value{enc: enc, f: v}, err
	case EncLookup:
		v, err := tbl.readRef(b)
		return LookupValue(v), err
	case EncString:
		v, err := b.ReadString()
		return StringValue(v), err
	case EncRLEString:
		v, err := b.ReadRLEString()
		return RLEStringValue(v), err
	default:
		return Value{}, dataErrf(b.Bytes(), off, ErrFormat, "unknown attribute encoding %d", tag)
	}
}

// WriteValue writes the encoding tag of v, then its payload. Lookup values are
// interned into tbl.
func WriteValue(b *Buffer, tbl *StringTable, v Value) error {
	if !v.enc.Valid() {
		return fmt.Errorf("%w: cannot write %v", ErrFormat, v.enc)
	}
	b.AppendByte(byte(v.enc))
	switch v.enc {
	case EncBool:
		b.AppendBool(v.u != 0)
	case EncByte:
		b.AppendByte(uint8(v.u))
	case EncShort:
		b.AppendShort(uint16(v.u))
	case EncInt, EncLong:
		b.AppendLong(v.u)
	case EncFloat, EncDouble:
		b.AppendFloat(v.f)
	case EncLookup:
		return tbl.writeRef(b, v.s)
	case EncString:
		b.AppendString(v.s)
	case EncRLEString:
		return b.AppendRLEString(v.s)
	}
	return nil
}
