// Package ccp4 reads the legacy CCP4/MRC volumetric map format: a fixed
// 1024-byte header of 32-bit words, an optional symmetry-operator block,
// and a dense raster payload of (columns, rows, sections) elements.
//
// Format reference: http://www.ccp4.ac.uk/html/maplib.html
package ccp4

import (
	"encoding/binary"
	"errors"
	"fmt"
	"io"
	"os"
	"reflect"

	"go.uber.org/zap"

	"github.com/robert-malhotra/go-stackfile/internal/dtype"
)

// HeaderSize is the fixed byte length of a map file header.
const HeaderSize = 1024

// Common errors.
var (
	// ErrMalformedHeader is returned when the header is shorter than
	// 1024 bytes or declares impossible extents.
	ErrMalformedHeader = errors.New("malformed map header")

	// ErrTruncatedPayload is returned when the payload byte count does
	// not match the declared extents and element size.
	ErrTruncatedPayload = errors.New("truncated map payload")

	// ErrUnsupportedMode is returned for mode codes with no usable
	// element type. The legacy 16-bit modes (1 and 3) carry
	// inconsistent type mappings and are rejected rather than guessed.
	ErrUnsupportedMode = errors.New("unsupported map mode")

	// ErrOutOfRange is returned by At for coordinates outside the
	// volume extents.
	ErrOutOfRange = errors.New("map index out of range")
)

// maxElems bounds the declared element count. Extents whose product
// exceeds it are rejected as malformed rather than left to fail the
// payload-length check by arithmetic accident.
const maxElems = 1 << 40

// Mode is the header's data-type code (header word 3).
type Mode int32

// Mode codes defined by the format.
const (
	ModeInt8         Mode = 0 // envelope stored as signed bytes
	ModeInt16        Mode = 1 // image stored as Integer*2 (unsupported)
	ModeFloat32      Mode = 2 // image stored as Reals
	ModeComplexInt16 Mode = 3 // transform as Complex Integer*2 (unsupported)
	ModeComplex64    Mode = 4 // transform as Complex Reals
	ModeInt8Alias    Mode = 5 // same layout as mode 0
)

// modeTypes is the fixed mode-to-element-type lookup. Absent modes are
// unsupported.
var modeTypes = map[Mode]dtype.DType{
	ModeInt8:      dtype.Int8,
	ModeFloat32:   dtype.Float32,
	ModeComplex64: dtype.Complex64,
	ModeInt8Alias: dtype.Int8,
}

// Volume is a decoded map: a dense rectangular array with extents in
// (columns, rows, sections) order.
type Volume struct {
	nc, nr, ns int
	mode       Mode
	data       interface{}
}

// Dims returns the volume extents as (columns, rows, sections).
func (v *Volume) Dims() (nc, nr, ns int) {
	return v.nc, v.nr, v.ns
}

// Mode returns the header's data-type code.
func (v *Volume) Mode() Mode {
	return v.mode
}

// Data returns the payload as a flat typed slice ([]int8, []float32 or
// []complex64) of nc*nr*ns elements in raster order, columns fastest.
func (v *Volume) Data() interface{} {
	return v.data
}

// Float32s returns the payload of a mode-2 map.
func (v *Volume) Float32s() ([]float32, error) {
	data, ok := v.data.([]float32)
	if !ok {
		return nil, fmt.Errorf("map holds %T, not []float32", v.data)
	}
	return data, nil
}

// At returns the element at (column, row, section). The raster stores
// columns fastest, so the flat offset is c + nc*(r + nr*s).
func (v *Volume) At(c, r, s int) (interface{}, error) {
	if c < 0 || c >= v.nc || r < 0 || r >= v.nr || s < 0 || s >= v.ns {
		return nil, fmt.Errorf("%w: (%d, %d, %d) of (%d, %d, %d)",
			ErrOutOfRange, c, r, s, v.nc, v.nr, v.ns)
	}
	off := c + v.nc*(r+v.nr*s)
	return reflect.ValueOf(v.data).Index(off).Interface(), nil
}

// ReadOption configures Read.
type ReadOption func(*readOptions)

type readOptions struct {
	logger *zap.Logger
}

// WithLogger sets the logger that receives the reader's warnings.
// The default discards everything.
func WithLogger(l *zap.Logger) ReadOption {
	return func(o *readOptions) {
		if l != nil {
			o.logger = l
		}
	}
}

// Read parses a map file into a Volume. It holds no state beyond the
// call; the input handle is released on return or failure.
func Read(path string, opts ...ReadOption) (*Volume, error) {
	options := &readOptions{logger: zap.NewNop()}
	for _, opt := range opts {
		opt(options)
	}

	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("opening map file: %w", err)
	}
	defer f.Close()

	return read(f, options.logger)
}

func read(r io.Reader, log *zap.Logger) (*Volume, error) {
	hdr := make([]byte, HeaderSize)
	if _, err := io.ReadFull(r, hdr); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrMalformedHeader, err)
	}

	word := func(i int) int32 {
		return int32(binary.LittleEndian.Uint32(hdr[i*4:]))
	}

	nc, nr, ns := word(0), word(1), word(2)
	mode := Mode(word(3))
	nsymbt := word(23)

	if nc <= 0 || nr <= 0 || ns <= 0 {
		return nil, fmt.Errorf("%w: extents (%d, %d, %d)", ErrMalformedHeader, nc, nr, ns)
	}
	if nsymbt < 0 {
		return nil, fmt.Errorf("%w: negative symmetry byte count %d", ErrMalformedHeader, nsymbt)
	}

	dt, ok := modeTypes[mode]
	if !ok {
		return nil, fmt.Errorf("%w: mode %d", ErrUnsupportedMode, mode)
	}
	if mode != ModeInt8 && mode != ModeFloat32 && mode != ModeInt8Alias {
		log.Warn("map file data type may not work",
			zap.Int32("mode", int32(mode)))
	}

	if nsymbt > 0 {
		log.Warn("omitting symmetry operations in map file",
			zap.Int32("bytes", nsymbt))
		if _, err := io.CopyN(io.Discard, r, int64(nsymbt)); err != nil {
			return nil, fmt.Errorf("%w: symmetry block: %v", ErrTruncatedPayload, err)
		}
	}

	payload, err := io.ReadAll(r)
	if err != nil {
		return nil, fmt.Errorf("reading map payload: %w", err)
	}

	// Each extent fits an int32, so nc*nr fits an int64; the ns factor
	// is bounded before multiplying to keep the product from wrapping.
	elems := int64(nc) * int64(nr)
	if elems > maxElems/int64(ns) {
		return nil, fmt.Errorf("%w: extents (%d, %d, %d) exceed element limit",
			ErrMalformedHeader, nc, nr, ns)
	}
	n := elems * int64(ns)
	want := n * int64(dt.Size())
	if int64(len(payload)) != want {
		return nil, fmt.Errorf("%w: %d payload bytes for %d %v elements (want %d)",
			ErrTruncatedPayload, len(payload), n, dt, want)
	}

	data, err := dtype.Decode(dt, payload, int(n))
	if err != nil {
		return nil, fmt.Errorf("decoding map payload: %w", err)
	}

	return &Volume{
		nc:   int(nc),
		nr:   int(nr),
		ns:   int(ns),
		mode: mode,
		data: data,
	}, nil
}
