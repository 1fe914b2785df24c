package stackfile

import (
	"fmt"
	"reflect"

	"github.com/robert-malhotra/go-stackfile/internal/dtype"
)

// Record is a nested mapping of field names to values. A Record is
// itself a Value, which is how group hierarchies nest.
type Record map[string]Value

// Value is one node of a record tree: either a nested Record (a group)
// or a Leaf (a scalar or rectangular typed array).
type Value interface {
	isValue()
}

func (Record) isValue() {}

// Leaf is a scalar or rectangular-array value at a terminal position of
// a record. The element type and trailing shape are fixed at
// construction; data is held as a flat typed slice in row-major order.
type Leaf struct {
	dt    dtype.DType
	shape []int64
	data  interface{}
}

func (*Leaf) isValue() {}

// DType returns the element type name (e.g. "float64").
func (l *Leaf) DType() string {
	return l.dt.String()
}

// Shape returns the trailing shape of the value; nil for scalars.
func (l *Leaf) Shape() []int64 {
	return l.shape
}

// Data returns the flat typed slice backing the leaf.
func (l *Leaf) Data() interface{} {
	return l.data
}

// elems returns the number of elements in the leaf.
func (l *Leaf) elems() int64 {
	n := int64(1)
	for _, d := range l.shape {
		n *= d
	}
	return n
}

// ValueOf coerces an arbitrary Go value into a Value.
//
// Supported inputs: an existing Value; map[string]interface{} (becomes a
// nested Record, failing on the first bad leaf); supported scalars
// (bool, signed/unsigned integers, floats, complex, string); and nested
// slices or arrays of a supported numeric element type. Nested slices
// must be rectangular. Text is supported as a scalar only.
func ValueOf(v interface{}) (Value, error) {
	switch t := v.(type) {
	case Value:
		return t, nil
	case map[string]interface{}:
		rec := make(Record, len(t))
		for k, sub := range t {
			val, err := ValueOf(sub)
			if err != nil {
				return nil, fmt.Errorf("field %q: %w", k, err)
			}
			rec[k] = val
		}
		return rec, nil
	}

	rv := unwrap(reflect.ValueOf(v))
	if !rv.IsValid() {
		return nil, fmt.Errorf("%w: nil", ErrUnsupportedType)
	}

	switch rv.Kind() {
	case reflect.Slice, reflect.Array:
		return arrayLeaf(rv)
	default:
		return scalarLeaf(rv)
	}
}

// MustValue is ValueOf for statically known-good values; it panics on error.
func MustValue(v interface{}) Value {
	val, err := ValueOf(v)
	if err != nil {
		panic(err)
	}
	return val
}

func scalarLeaf(rv reflect.Value) (*Leaf, error) {
	dt, ok := dtype.FromKind(rv.Kind())
	if !ok {
		return nil, fmt.Errorf("%w: %s", ErrUnsupportedType, rv.Type())
	}

	elemType, err := dtype.GoType(dt)
	if err != nil {
		return nil, err
	}
	flat := reflect.MakeSlice(reflect.SliceOf(elemType), 1, 1)
	flat.Index(0).Set(rv.Convert(elemType))

	return &Leaf{dt: dt, data: flat.Interface()}, nil
}

func arrayLeaf(rv reflect.Value) (*Leaf, error) {
	// Walk the first-element path to find the candidate shape and
	// element type; flattening below re-validates every level.
	shape, elemKind, err := inferShape(rv)
	if err != nil {
		return nil, err
	}

	dt, ok := dtype.FromKind(elemKind)
	if !ok {
		return nil, fmt.Errorf("%w: element kind %s", ErrUnsupportedType, elemKind)
	}
	if dt == dtype.String {
		// Axis-tagged stacks hold numeric rasters; text is scalar-only.
		return nil, fmt.Errorf("%w: arrays of strings", ErrUnsupportedType)
	}

	total := int64(1)
	for _, d := range shape {
		total *= d
	}

	elemType, err := dtype.GoType(dt)
	if err != nil {
		return nil, err
	}
	flat := reflect.MakeSlice(reflect.SliceOf(elemType), int(total), int(total))

	pos := 0
	if err := flatten(rv, shape, elemType, flat, &pos); err != nil {
		return nil, err
	}

	return &Leaf{dt: dt, shape: shape, data: flat.Interface()}, nil
}

// inferShape traverses nested slices along index 0 to determine the
// shape and terminal element kind.
func inferShape(rv reflect.Value) ([]int64, reflect.Kind, error) {
	var shape []int64
	current := rv

	for {
		switch current.Kind() {
		case reflect.Slice, reflect.Array:
			shape = append(shape, int64(current.Len()))
			if current.Len() == 0 {
				elem := current.Type().Elem()
				for elem.Kind() == reflect.Slice || elem.Kind() == reflect.Array {
					shape = append(shape, 0)
					elem = elem.Elem()
				}
				return shape, elem.Kind(), nil
			}
			current = unwrap(current.Index(0))
		case reflect.Invalid:
			return nil, reflect.Invalid, fmt.Errorf("%w: nil element", ErrUnsupportedType)
		default:
			return shape, current.Kind(), nil
		}
	}
}

// flatten copies every element of a nested slice into the flat output,
// verifying rectangularity against the inferred shape at every level.
func flatten(rv reflect.Value, shape []int64, elemType reflect.Type, flat reflect.Value, pos *int) error {
	if len(shape) == 0 {
		if !rv.IsValid() {
			return fmt.Errorf("%w: nil element", ErrUnsupportedType)
		}
		if rv.Kind() == reflect.Slice || rv.Kind() == reflect.Array {
			return ErrNotRectangular
		}
		if !rv.Type().ConvertibleTo(elemType) {
			return fmt.Errorf("%w: mixed element type %s", ErrUnsupportedType, rv.Type())
		}
		flat.Index(*pos).Set(rv.Convert(elemType))
		*pos++
		return nil
	}

	if rv.Kind() != reflect.Slice && rv.Kind() != reflect.Array {
		return ErrNotRectangular
	}
	if int64(rv.Len()) != shape[0] {
		return ErrNotRectangular
	}
	for i := 0; i < rv.Len(); i++ {
		if err := flatten(unwrap(rv.Index(i)), shape[1:], elemType, flat, pos); err != nil {
			return err
		}
	}
	return nil
}

// unwrap dereferences interface and pointer values.
func unwrap(rv reflect.Value) reflect.Value {
	for rv.IsValid() && (rv.Kind() == reflect.Interface || rv.Kind() == reflect.Ptr) {
		if rv.IsNil() {
			return reflect.Value{}
		}
		rv = rv.Elem()
	}
	return rv
}
