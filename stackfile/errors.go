// Package stackfile implements a growable, self-describing container for
// sequences of heterogeneous nested records.
//
// A StackWriter accepts one nested record at a time and maintains one
// growable named array per leaf field across all received records; each
// array gains a leading "stack" axis addressed by record index and grows
// in fixed-size chunks. On Close every array is truncated to the exact
// number of records written. A finished container can be reopened with
// Open and its leaf arrays read back by path.
package stackfile

import (
	"errors"

	"github.com/robert-malhotra/go-stackfile/internal/header"
	"github.com/robert-malhotra/go-stackfile/internal/meta"
)

// Common errors.
var (
	// ErrNotStackfile is returned by Open when the file does not carry
	// the stackfile magic.
	ErrNotStackfile = header.ErrBadMagic

	// ErrCorruptMeta is returned when the metadata block fails its
	// checksum or cannot be decoded.
	ErrCorruptMeta = meta.ErrChecksum

	// ErrClosed is returned for operations on a closed file or writer.
	ErrClosed = errors.New("stackfile is closed")

	// ErrNotFound is returned when a path does not resolve to a node.
	ErrNotFound = errors.New("object not found")

	// ErrNotGroup is returned when a stack leaf is opened as a group.
	ErrNotGroup = errors.New("object is not a group")

	// ErrNotStack is returned when a group is opened as a stack.
	ErrNotStack = errors.New("object is not a stack")

	// ErrSchemaMismatch is returned when a leaf value disagrees with the
	// element type or trailing shape registered at its first occurrence.
	ErrSchemaMismatch = errors.New("value does not match registered leaf schema")

	// ErrUnsupportedShape is returned for leaf arrays of rank greater
	// than three, for which no axis tag is defined.
	ErrUnsupportedShape = errors.New("unsupported leaf dimensionality")

	// ErrUnsupportedType is returned when a value cannot be coerced into
	// a supported scalar or rectangular typed array.
	ErrUnsupportedType = errors.New("unsupported value type")

	// ErrNotRectangular is returned when a nested slice is ragged.
	ErrNotRectangular = errors.New("nested slices are not rectangular")

	// ErrOutOfRange is returned when a record index is outside the
	// stack's logical length.
	ErrOutOfRange = errors.New("record index out of range")
)
