package celestemap

import (
	"math"
	"testing"
)

func TestFloat(t *testing.T) {
	tests := []struct {
		v    float32
		data string
	}{
		{0, "00000000"},
		{1, "0000803F"},
		{1.5, "0000C03F"},
		{-2, "000000C0"},
		{0.25, "0000803E"},
		{float32(math.Inf(1)), "0000807F"},
		{float32(math.Inf(-1)), "000080FF"},
	}
	for _, tt := range tests {
		var b Buffer
		b.AppendFloat(tt.v)
		deepEqual(t, b.Bytes(), x(tt.data))
		deepEqual(t, must(NewBuffer(x(tt.data)).ReadFloat()), tt.v)
	}
}

func TestFloat_NaN(t *testing.T) {
	var b Buffer
	b.AppendFloat(float32(math.NaN()))
	deepEqual(t, b.Bytes(), x("0100807F"))

	v := must(NewBuffer(b.Bytes()).ReadFloat())
	if !math.IsNaN(float64(v)) {
		t.Fatalf("ReadFloat(NaN) = %v, wanted NaN", v)
	}
	v = must(NewBuffer(x("0000C0FF")).ReadFloat())
	if !math.IsNaN(float64(v)) {
		t.Fatalf("ReadFloat(quiet NaN) = %v, wanted NaN", v)
	}
}

func TestFloat_Subnormal(t *testing.T) {
	v := must(NewBuffer(x("01000000")).ReadFloat())
	if v != 0 {
		t.Fatalf("ReadFloat(subnormal) = %v, wanted 0", v)
	}

	var b Buffer
	b.AppendFloat(math.SmallestNonzeroFloat32)
	deepEqual(t, b.Bytes(), x("00000000"))
}

func TestFloat_MatchesIEEE(t *testing.T) {
	values := []float32{
		1, -1, 0.1, 3.14159, 1e-30, -1e30, 123456.789,
		math.MaxFloat32, -math.MaxFloat32, 1.17549435e-38,
	}
	for _, v := range values {
		var b Buffer
		b.AppendFloat(v)
		bits := math.Float32bits(v)
		want := []byte{byte(bits), byte(bits >> 8), byte(bits >> 16), byte(bits >> 24)}
		deepEqual(t, b.Bytes(), want)

		a := must(NewBuffer(b.Bytes()).ReadFloat())
		if a != v {
			t.Errorf("ReadFloat(AppendFloat(%v)) = %v", v, a)
		}
	}
}

func TestLdexp(t *testing.T) {
	deepEqual(t, ldexp(1, 0), 1.0)
	deepEqual(t, ldexp(3, 4), 48.0)
	deepEqual(t, ldexp(1, -2), 0.25)
	deepEqual(t, ldexp(0.5, 1100), math.Ldexp(0.5, 1100))
	deepEqual(t, ldexp(1, -1074), math.SmallestNonzeroFloat64)
}
