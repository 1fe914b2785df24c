package dtype

import (
	"encoding/binary"
	"fmt"
	"math"
	"reflect"
)

// Encode converts a flat typed slice to raw little-endian bytes.
// The src parameter must be a slice whose element type matches dt
// (the canonical type returned by GoType). String has no fixed-width
// layout and is rejected here; string chunks use the msgpack codec
// at the container layer.
func Encode(dt DType, src interface{}) ([]byte, error) {
	if !dt.Fixed() {
		return nil, fmt.Errorf("dtype %v has no fixed-width encoding", dt)
	}

	srcVal := reflect.ValueOf(src)
	if srcVal.Kind() != reflect.Slice {
		return nil, fmt.Errorf("encode source must be a slice, got %T", src)
	}

	n := srcVal.Len()
	size := dt.Size()
	data := make([]byte, n*size)

	for i := 0; i < n; i++ {
		elem := srcVal.Index(i)
		offset := i * size

		switch dt {
		case Bool:
			if elem.Bool() {
				data[offset] = 1
			}
		case Int8:
			data[offset] = byte(elem.Int())
		case Int16:
			binary.LittleEndian.PutUint16(data[offset:], uint16(elem.Int()))
		case Int32:
			binary.LittleEndian.PutUint32(data[offset:], uint32(elem.Int()))
		case Int64:
			binary.LittleEndian.PutUint64(data[offset:], uint64(elem.Int()))
		case Uint8:
			data[offset] = byte(elem.Uint())
		case Uint16:
			binary.LittleEndian.PutUint16(data[offset:], uint16(elem.Uint()))
		case Uint32:
			binary.LittleEndian.PutUint32(data[offset:], uint32(elem.Uint()))
		case Uint64:
			binary.LittleEndian.PutUint64(data[offset:], elem.Uint())
		case Float32:
			binary.LittleEndian.PutUint32(data[offset:], math.Float32bits(float32(elem.Float())))
		case Float64:
			binary.LittleEndian.PutUint64(data[offset:], math.Float64bits(elem.Float()))
		case Complex64:
			c := elem.Complex()
			binary.LittleEndian.PutUint32(data[offset:], math.Float32bits(float32(real(c))))
			binary.LittleEndian.PutUint32(data[offset+4:], math.Float32bits(float32(imag(c))))
		case Complex128:
			c := elem.Complex()
			binary.LittleEndian.PutUint64(data[offset:], math.Float64bits(real(c)))
			binary.LittleEndian.PutUint64(data[offset+8:], math.Float64bits(imag(c)))
		default:
			return nil, fmt.Errorf("cannot encode dtype %v", dt)
		}
	}

	return data, nil
}

// Decode converts raw little-endian bytes back to a flat typed slice
// of n elements. The returned value is a []T where T is the canonical
// Go type for dt.
func Decode(dt DType, data []byte, n int) (interface{}, error) {
	if !dt.Fixed() {
		return nil, fmt.Errorf("dtype %v has no fixed-width encoding", dt)
	}

	size := dt.Size()
	if len(data) < n*size {
		return nil, fmt.Errorf("decode: need %d bytes for %d %v elements, have %d", n*size, n, dt, len(data))
	}

	elemType, err := GoType(dt)
	if err != nil {
		return nil, err
	}
	out := reflect.MakeSlice(reflect.SliceOf(elemType), n, n)

	for i := 0; i < n; i++ {
		offset := i * size
		elem := out.Index(i)

		switch dt {
		case Bool:
			elem.SetBool(data[offset] != 0)
		case Int8:
			elem.SetInt(int64(int8(data[offset])))
		case Int16:
			elem.SetInt(int64(int16(binary.LittleEndian.Uint16(data[offset:]))))
		case Int32:
			elem.SetInt(int64(int32(binary.LittleEndian.Uint32(data[offset:]))))
		case Int64:
			elem.SetInt(int64(binary.LittleEndian.Uint64(data[offset:])))
		case Uint8:
			elem.SetUint(uint64(data[offset]))
		case Uint16:
			elem.SetUint(uint64(binary.LittleEndian.Uint16(data[offset:])))
		case Uint32:
			elem.SetUint(uint64(binary.LittleEndian.Uint32(data[offset:])))
		case Uint64:
			elem.SetUint(binary.LittleEndian.Uint64(data[offset:]))
		case Float32:
			elem.SetFloat(float64(math.Float32frombits(binary.LittleEndian.Uint32(data[offset:]))))
		case Float64:
			elem.SetFloat(math.Float64frombits(binary.LittleEndian.Uint64(data[offset:])))
		case Complex64:
			re := math.Float32frombits(binary.LittleEndian.Uint32(data[offset:]))
			im := math.Float32frombits(binary.LittleEndian.Uint32(data[offset+4:]))
			elem.SetComplex(complex(float64(re), float64(im)))
		case Complex128:
			re := math.Float64frombits(binary.LittleEndian.Uint64(data[offset:]))
			im := math.Float64frombits(binary.LittleEndian.Uint64(data[offset+8:]))
			elem.SetComplex(complex(re, im))
		default:
			return nil, fmt.Errorf("cannot decode dtype %v", dt)
		}
	}

	return out.Interface(), nil
}
