package celestemap

import "math"

// Floats use the IEEE 754 single precision layout in little-endian byte order,
// but the value is rebuilt from its sign, exponent and mantissa fields with
// power-of-two scaling instead of reinterpreting the bits.

const (
	floatExpMax  = 0xFF
	floatExpBias = 127
	floatMantLen = 23
)

// ldexp returns frac × 2^exp, applying the power of two in at most three steps
// so that no intermediate factor overflows a float64.
func ldexp(frac float64, exp int) float64 {
	steps := min(3, int(math.Ceil(math.Abs(float64(exp))/1023)))
	result := frac
	for i := 0; i < steps; i++ {
		result *= math.Pow(2, math.Floor(float64(exp+i)/float64(steps)))
	}
	return result
}

// ReadFloat reads a 4-byte single precision float. A zero exponent field reads
// as 0 (subnormals included); an all-ones field reads as ±Inf or NaN.
func (b *Buffer) ReadFloat() (float32, error) {
	raw, err := b.ReadBytes(4)
	if err != nil {
		return 0, err
	}
	exponent := int(raw[3]&0x7F)<<1 | int(raw[2]>>7)
	if exponent == 0 {
		return 0, nil
	}

	sign := 1.0
	if raw[3]&0x80 != 0 {
		sign = -1
	}
	mantissa := uint32(raw[2]&0x7F)<<16 | uint32(raw[1])<<8 | uint32(raw[0])

	if exponent == floatExpMax {
		if mantissa == 0 {
			return float32(math.Inf(int(sign))), nil
		}
		return float32(math.NaN()), nil
	}

	v := (ldexp(float64(mantissa), -floatMantLen) + 1) * sign
	return float32(ldexp(v, exponent-floatExpBias)), nil
}

// AppendFloat writes f as a 4-byte single precision float. Subnormal values
// are written as zero, matching what ReadFloat gives back for them.
func (b *Buffer) AppendFloat(f float32) {
	val := float64(f)
	var sign uint32
	if val < 0 {
		sign = 1
		val = -val
	}

	var mantissa, exponent uint32
	switch {
	case math.IsNaN(val):
		mantissa, exponent = 1, floatExpMax
	case math.IsInf(val, 0):
		mantissa, exponent = 0, floatExpMax
	case val == 0:
		mantissa, exponent = 0, 0
	default:
		frac, exp := math.Frexp(val)
		if exp+floatExpBias-1 <= 0 {
			mantissa, exponent = 0, 0
		} else {
			mantissa = uint32(math.Floor((frac*2 - 1) * ldexp(0.5, floatMantLen+1)))
			exponent = uint32(exp + floatExpBias - 1)
		}
	}

	hi := exponent<<7 | mantissa>>16
	off := b.Grow(4)
	b.buf[off] = byte(mantissa)
	b.buf[off+1] = byte(mantissa >> 8)
	b.buf[off+2] = byte(hi)
	b.buf[off+3] = byte(sign<<7 | hi>>8)
}
