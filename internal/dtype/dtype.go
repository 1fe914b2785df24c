// Package dtype defines the element types a stackfile container can hold
// and the codec between flat Go slices and their on-disk byte layout.
//
// All fixed-width types are stored little-endian. Complex values are
// stored as (real, imag) pairs, matching the layout numpy-based
// consumers expect.
package dtype

import (
	"fmt"
	"reflect"
)

// DType identifies the element type of a stack leaf.
type DType uint8

// Element types supported by the container.
const (
	Invalid DType = iota
	Bool
	Int8
	Int16
	Int32
	Int64
	Uint8
	Uint16
	Uint32
	Uint64
	Float32
	Float64
	Complex64
	Complex128
	String
)

var dtypeNames = map[DType]string{
	Invalid:    "invalid",
	Bool:       "bool",
	Int8:       "int8",
	Int16:      "int16",
	Int32:      "int32",
	Int64:      "int64",
	Uint8:      "uint8",
	Uint16:     "uint16",
	Uint32:     "uint32",
	Uint64:     "uint64",
	Float32:    "float32",
	Float64:    "float64",
	Complex64:  "complex64",
	Complex128: "complex128",
	String:     "string",
}

func (dt DType) String() string {
	if name, ok := dtypeNames[dt]; ok {
		return name
	}
	return fmt.Sprintf("dtype(%d)", uint8(dt))
}

// Size returns the on-disk size of one element in bytes.
// String is variable-width and returns 0.
func (dt DType) Size() int {
	switch dt {
	case Bool, Int8, Uint8:
		return 1
	case Int16, Uint16:
		return 2
	case Int32, Uint32, Float32:
		return 4
	case Int64, Uint64, Float64, Complex64:
		return 8
	case Complex128:
		return 16
	default:
		return 0
	}
}

// Fixed reports whether the type has a fixed on-disk element size.
func (dt DType) Fixed() bool {
	return dt != Invalid && dt != String
}

// FromKind maps a Go reflect.Kind to a DType.
// Untyped int and uint widen to their 64-bit forms.
func FromKind(k reflect.Kind) (DType, bool) {
	switch k {
	case reflect.Bool:
		return Bool, true
	case reflect.Int8:
		return Int8, true
	case reflect.Int16:
		return Int16, true
	case reflect.Int32:
		return Int32, true
	case reflect.Int64, reflect.Int:
		return Int64, true
	case reflect.Uint8:
		return Uint8, true
	case reflect.Uint16:
		return Uint16, true
	case reflect.Uint32:
		return Uint32, true
	case reflect.Uint64, reflect.Uint:
		return Uint64, true
	case reflect.Float32:
		return Float32, true
	case reflect.Float64:
		return Float64, true
	case reflect.Complex64:
		return Complex64, true
	case reflect.Complex128:
		return Complex128, true
	case reflect.String:
		return String, true
	default:
		return Invalid, false
	}
}

// GoType returns the Go element type a DType decodes into.
func GoType(dt DType) (reflect.Type, error) {
	switch dt {
	case Bool:
		return reflect.TypeOf(false), nil
	case Int8:
		return reflect.TypeOf(int8(0)), nil
	case Int16:
		return reflect.TypeOf(int16(0)), nil
	case Int32:
		return reflect.TypeOf(int32(0)), nil
	case Int64:
		return reflect.TypeOf(int64(0)), nil
	case Uint8:
		return reflect.TypeOf(uint8(0)), nil
	case Uint16:
		return reflect.TypeOf(uint16(0)), nil
	case Uint32:
		return reflect.TypeOf(uint32(0)), nil
	case Uint64:
		return reflect.TypeOf(uint64(0)), nil
	case Float32:
		return reflect.TypeOf(float32(0)), nil
	case Float64:
		return reflect.TypeOf(float64(0)), nil
	case Complex64:
		return reflect.TypeOf(complex64(0)), nil
	case Complex128:
		return reflect.TypeOf(complex128(0)), nil
	case String:
		return reflect.TypeOf(""), nil
	default:
		return nil, fmt.Errorf("unknown dtype: %d", dt)
	}
}
