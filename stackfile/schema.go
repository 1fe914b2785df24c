package stackfile

import (
	"fmt"
	"slices"

	"github.com/robert-malhotra/go-stackfile/internal/dtype"
)

// indexAxis is the semantic name of the leading stack axis carried by
// every leaf's "axes" attribute.
const indexAxis = "experiment_identifier"

// axesFor returns the axis-tag attribute for a leaf of the given
// trailing shape. Only ranks 0 through 3 have a defined tag.
func axesFor(shape []int64) (string, error) {
	switch len(shape) {
	case 0:
		return indexAxis + ":value", nil
	case 1:
		return indexAxis + ":x", nil
	case 2:
		return indexAxis + ":y:x", nil
	case 3:
		return indexAxis + ":z:y:x", nil
	default:
		return "", fmt.Errorf("%w: rank %d", ErrUnsupportedShape, len(shape))
	}
}

// schemaEntry records the element type, trailing shape and axis tag
// fixed for a leaf path at its first occurrence.
type schemaEntry struct {
	dt    dtype.DType
	shape []int64
	axes  string
}

// schemaRegistry tracks the schema of every leaf seen so far, keyed by
// absolute leaf path. The first value observed for a path fixes its
// entry; later values must match exactly.
type schemaRegistry struct {
	entries map[string]*schemaEntry
}

func newSchemaRegistry() *schemaRegistry {
	return &schemaRegistry{entries: make(map[string]*schemaEntry)}
}

// observe validates a leaf against the registry, registering it on
// first occurrence. It returns the entry and whether it was new.
func (r *schemaRegistry) observe(path string, leaf *Leaf) (*schemaEntry, bool, error) {
	if entry, ok := r.entries[path]; ok {
		if entry.dt != leaf.dt {
			return nil, false, fmt.Errorf("%w: %s has dtype %v, got %v", ErrSchemaMismatch, path, entry.dt, leaf.dt)
		}
		if !slices.Equal(entry.shape, leaf.shape) {
			return nil, false, fmt.Errorf("%w: %s has shape %v, got %v", ErrSchemaMismatch, path, entry.shape, leaf.shape)
		}
		return entry, false, nil
	}

	axes, err := axesFor(leaf.shape)
	if err != nil {
		return nil, false, fmt.Errorf("%s: %w", path, err)
	}

	entry := &schemaEntry{dt: leaf.dt, shape: leaf.shape, axes: axes}
	r.entries[path] = entry
	return entry, true, nil
}
