package dtype

import (
	"reflect"
	"testing"
)

func TestSize(t *testing.T) {
	tests := []struct {
		dt   DType
		size int
	}{
		{Bool, 1},
		{Int8, 1},
		{Int16, 2},
		{Int32, 4},
		{Int64, 8},
		{Uint8, 1},
		{Uint16, 2},
		{Uint32, 4},
		{Uint64, 8},
		{Float32, 4},
		{Float64, 8},
		{Complex64, 8},
		{Complex128, 16},
		{String, 0},
		{Invalid, 0},
	}

	for _, tt := range tests {
		if got := tt.dt.Size(); got != tt.size {
			t.Errorf("%v.Size() = %d; want %d", tt.dt, got, tt.size)
		}
	}
}

func TestFromKind(t *testing.T) {
	tests := []struct {
		kind reflect.Kind
		dt   DType
		ok   bool
	}{
		{reflect.Int, Int64, true},
		{reflect.Int32, Int32, true},
		{reflect.Uint, Uint64, true},
		{reflect.Float64, Float64, true},
		{reflect.Complex128, Complex128, true},
		{reflect.String, String, true},
		{reflect.Bool, Bool, true},
		{reflect.Struct, Invalid, false},
		{reflect.Map, Invalid, false},
	}

	for _, tt := range tests {
		dt, ok := FromKind(tt.kind)
		if dt != tt.dt || ok != tt.ok {
			t.Errorf("FromKind(%v) = %v, %v; want %v, %v", tt.kind, dt, ok, tt.dt, tt.ok)
		}
	}
}

func TestEncodeDecodeRoundTrip(t *testing.T) {
	tests := []struct {
		name string
		dt   DType
		src  interface{}
	}{
		{"int64", Int64, []int64{1, -2, 3}},
		{"int32", Int32, []int32{-100, 200}},
		{"uint16", Uint16, []uint16{0, 65535}},
		{"float32", Float32, []float32{1.5, -2.25, 0}},
		{"float64", Float64, []float64{3.14159, -1e300}},
		{"bool", Bool, []bool{true, false, true}},
		{"complex64", Complex64, []complex64{1 + 2i, -3 - 4i}},
		{"complex128", Complex128, []complex128{5 + 6i}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			raw, err := Encode(tt.dt, tt.src)
			if err != nil {
				t.Fatalf("Encode failed: %v", err)
			}

			n := reflect.ValueOf(tt.src).Len()
			if len(raw) != n*tt.dt.Size() {
				t.Errorf("encoded %d bytes; want %d", len(raw), n*tt.dt.Size())
			}

			back, err := Decode(tt.dt, raw, n)
			if err != nil {
				t.Fatalf("Decode failed: %v", err)
			}
			if !reflect.DeepEqual(back, tt.src) {
				t.Errorf("round trip = %v; want %v", back, tt.src)
			}
		})
	}
}

func TestEncodeFloat32LittleEndian(t *testing.T) {
	raw, err := Encode(Float32, []float32{1.0})
	if err != nil {
		t.Fatalf("Encode failed: %v", err)
	}
	// IEEE-754 1.0f little-endian.
	want := []byte{0x00, 0x00, 0x80, 0x3F}
	if !reflect.DeepEqual(raw, want) {
		t.Errorf("Encode(1.0f) = % x; want % x", raw, want)
	}
}

func TestEncodeStringRejected(t *testing.T) {
	if _, err := Encode(String, []string{"a"}); err == nil {
		t.Error("expected error encoding string dtype as fixed-width")
	}
}

func TestDecodeShortBuffer(t *testing.T) {
	if _, err := Decode(Int64, []byte{1, 2, 3}, 1); err == nil {
		t.Error("expected error decoding from short buffer")
	}
}
