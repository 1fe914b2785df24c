package ccp4

import (
	"encoding/binary"
	"errors"
	"math"
	"os"
	"path/filepath"
	"reflect"
	"testing"

	"go.uber.org/zap"
	"go.uber.org/zap/zaptest/observer"
)

// buildMap assembles a synthetic map file.
func buildMap(t *testing.T, nc, nr, ns int32, mode Mode, nsymbt int32, payload []byte) string {
	t.Helper()

	hdr := make([]byte, HeaderSize)
	putWord := func(i int, v int32) {
		binary.LittleEndian.PutUint32(hdr[i*4:], uint32(v))
	}
	putWord(0, nc)
	putWord(1, nr)
	putWord(2, ns)
	putWord(3, int32(mode))
	putWord(23, nsymbt)

	buf := append(hdr, make([]byte, nsymbt)...)
	buf = append(buf, payload...)

	path := filepath.Join(t.TempDir(), "test.map")
	if err := os.WriteFile(path, buf, 0o644); err != nil {
		t.Fatalf("WriteFile failed: %v", err)
	}
	return path
}

func float32Payload(values []float32) []byte {
	buf := make([]byte, 4*len(values))
	for i, v := range values {
		binary.LittleEndian.PutUint32(buf[i*4:], math.Float32bits(v))
	}
	return buf
}

func TestReadFloat32Map(t *testing.T) {
	values := make([]float32, 24)
	for i := range values {
		values[i] = float32(i) / 2
	}
	path := buildMap(t, 2, 3, 4, ModeFloat32, 0, float32Payload(values))

	v, err := Read(path)
	if err != nil {
		t.Fatalf("Read failed: %v", err)
	}

	nc, nr, ns := v.Dims()
	if nc != 2 || nr != 3 || ns != 4 {
		t.Errorf("Dims = (%d, %d, %d); want (2, 3, 4)", nc, nr, ns)
	}
	if v.Mode() != ModeFloat32 {
		t.Errorf("Mode = %d; want %d", v.Mode(), ModeFloat32)
	}

	data, err := v.Float32s()
	if err != nil {
		t.Fatalf("Float32s failed: %v", err)
	}
	if !reflect.DeepEqual(data, values) {
		t.Errorf("data = %v; want %v", data, values)
	}
}

func TestVolumeAt(t *testing.T) {
	// Extents (2, 3, 4), columns fastest: element (c, r, s) holds
	// c + 2*(r + 3*s).
	values := make([]float32, 24)
	for i := range values {
		values[i] = float32(i)
	}
	path := buildMap(t, 2, 3, 4, ModeFloat32, 0, float32Payload(values))

	v, err := Read(path)
	if err != nil {
		t.Fatalf("Read failed: %v", err)
	}

	tests := []struct {
		c, r, s int
		want    float32
	}{
		{0, 0, 0, 0},
		{1, 0, 0, 1},
		{0, 1, 0, 2},
		{1, 2, 0, 5},
		{0, 0, 1, 6},
		{1, 2, 3, 23},
	}
	for _, tt := range tests {
		got, err := v.At(tt.c, tt.r, tt.s)
		if err != nil {
			t.Fatalf("At(%d, %d, %d) failed: %v", tt.c, tt.r, tt.s, err)
		}
		if got != tt.want {
			t.Errorf("At(%d, %d, %d) = %v; want %v", tt.c, tt.r, tt.s, got, tt.want)
		}
	}

	for _, tt := range [][3]int{{2, 0, 0}, {0, 3, 0}, {0, 0, 4}, {-1, 0, 0}, {0, -1, 0}, {0, 0, -1}} {
		if _, err := v.At(tt[0], tt[1], tt[2]); !errors.Is(err, ErrOutOfRange) {
			t.Errorf("At(%d, %d, %d) = %v; want ErrOutOfRange", tt[0], tt[1], tt[2], err)
		}
	}
}

func TestReadInt8Modes(t *testing.T) {
	payload := []byte{0x01, 0xFF, 0x7F, 0x80, 1, 2, 3, 4}
	want := []int8{1, -1, 127, -128, 1, 2, 3, 4}

	for _, mode := range []Mode{ModeInt8, ModeInt8Alias} {
		path := buildMap(t, 2, 2, 2, mode, 0, payload)
		v, err := Read(path)
		if err != nil {
			t.Fatalf("Read mode %d failed: %v", mode, err)
		}
		data, ok := v.Data().([]int8)
		if !ok {
			t.Fatalf("mode %d data is %T; want []int8", mode, v.Data())
		}
		if !reflect.DeepEqual(data, want) {
			t.Errorf("mode %d data = %v; want %v", mode, data, want)
		}
	}
}

func TestReadComplexModeWarns(t *testing.T) {
	// One complex64 element: (1.0, 2.0).
	payload := append(float32Payload([]float32{1}), float32Payload([]float32{2})...)
	path := buildMap(t, 1, 1, 1, ModeComplex64, 0, payload)

	core, logs := observer.New(zap.WarnLevel)
	v, err := Read(path, WithLogger(zap.New(core)))
	if err != nil {
		t.Fatalf("Read failed: %v", err)
	}

	if logs.FilterMessage("map file data type may not work").Len() != 1 {
		t.Error("expected a may-not-work warning for mode 4")
	}

	data, ok := v.Data().([]complex64)
	if !ok {
		t.Fatalf("data is %T; want []complex64", v.Data())
	}
	if data[0] != complex64(1+2i) {
		t.Errorf("data[0] = %v; want (1+2i)", data[0])
	}
}

func TestReadUnsupportedModes(t *testing.T) {
	for _, mode := range []Mode{ModeInt16, ModeComplexInt16, Mode(6), Mode(-1)} {
		path := buildMap(t, 1, 1, 1, mode, 0, []byte{0, 0, 0, 0})
		if _, err := Read(path); !errors.Is(err, ErrUnsupportedMode) {
			t.Errorf("Read mode %d = %v; want ErrUnsupportedMode", mode, err)
		}
	}
}

func TestReadSymmetrySkip(t *testing.T) {
	values := []float32{1, 2, 3, 4, 5, 6}
	path := buildMap(t, 1, 2, 3, ModeFloat32, 80, float32Payload(values))

	core, logs := observer.New(zap.WarnLevel)
	v, err := Read(path, WithLogger(zap.New(core)))
	if err != nil {
		t.Fatalf("Read failed: %v", err)
	}

	if logs.FilterMessage("omitting symmetry operations in map file").Len() != 1 {
		t.Error("expected a symmetry-omission warning")
	}

	data, err := v.Float32s()
	if err != nil {
		t.Fatalf("Float32s failed: %v", err)
	}
	if !reflect.DeepEqual(data, values) {
		t.Errorf("data = %v; want %v", data, values)
	}
}

func TestReadShortHeader(t *testing.T) {
	path := filepath.Join(t.TempDir(), "short.map")
	if err := os.WriteFile(path, make([]byte, 100), 0o644); err != nil {
		t.Fatalf("WriteFile failed: %v", err)
	}
	if _, err := Read(path); !errors.Is(err, ErrMalformedHeader) {
		t.Errorf("Read = %v; want ErrMalformedHeader", err)
	}
}

func TestReadBadExtents(t *testing.T) {
	path := buildMap(t, 0, 3, 4, ModeFloat32, 0, nil)
	if _, err := Read(path); !errors.Is(err, ErrMalformedHeader) {
		t.Errorf("Read zero extent = %v; want ErrMalformedHeader", err)
	}

	path = buildMap(t, 2, -3, 4, ModeFloat32, 0, nil)
	if _, err := Read(path); !errors.Is(err, ErrMalformedHeader) {
		t.Errorf("Read negative extent = %v; want ErrMalformedHeader", err)
	}
}

func TestReadOverflowExtents(t *testing.T) {
	// Extents near int32 max multiply past any plausible payload; the
	// header must be rejected outright, not left to the length check.
	const big = 0x7FFFFFFF
	path := buildMap(t, big, big, big, ModeFloat32, 0, make([]byte, 4))
	if _, err := Read(path); !errors.Is(err, ErrMalformedHeader) {
		t.Errorf("Read overflowing extents = %v; want ErrMalformedHeader", err)
	}
}

func TestReadTruncatedPayload(t *testing.T) {
	// 2*3*4 float32 elements need 96 bytes; provide a count that is not
	// a multiple of the element size times the extent product.
	path := buildMap(t, 2, 3, 4, ModeFloat32, 0, make([]byte, 50))
	if _, err := Read(path); !errors.Is(err, ErrTruncatedPayload) {
		t.Errorf("Read short payload = %v; want ErrTruncatedPayload", err)
	}

	// Excess bytes cannot be reshaped either.
	path = buildMap(t, 2, 3, 4, ModeFloat32, 0, make([]byte, 100))
	if _, err := Read(path); !errors.Is(err, ErrTruncatedPayload) {
		t.Errorf("Read oversized payload = %v; want ErrTruncatedPayload", err)
	}
}

func TestReadTruncatedSymmetryBlock(t *testing.T) {
	// Declare an 80-byte symmetry block but supply a file that ends
	// inside it.
	hdr := make([]byte, HeaderSize)
	put := func(i int, v int32) { binary.LittleEndian.PutUint32(hdr[i*4:], uint32(v)) }
	put(0, 1)
	put(1, 1)
	put(2, 1)
	put(3, int32(ModeFloat32))
	put(23, 80)

	path := filepath.Join(t.TempDir(), "trunc.map")
	if err := os.WriteFile(path, append(hdr, make([]byte, 10)...), 0o644); err != nil {
		t.Fatalf("WriteFile failed: %v", err)
	}

	if _, err := Read(path); !errors.Is(err, ErrTruncatedPayload) {
		t.Errorf("Read = %v; want ErrTruncatedPayload", err)
	}
}
