package stackfile

import (
	"fmt"
	"os"
	"sort"

	"go.uber.org/multierr"
	"go.uber.org/zap"

	"github.com/robert-malhotra/go-stackfile/internal/meta"
)

// Writer accumulates a sequence of nested records into a container
// file, one growable stacked array per leaf field.
//
// A Writer owns its container exclusively for its lifetime and is not
// safe for concurrent use; callers must serialize writes externally.
// Every successful Write is durable: a crash afterwards loses nothing
// already written, though the container stays untrimmed until Close.
type Writer struct {
	file      *File
	log       *zap.Logger
	chunkSize int64
	compress  bool

	i      int64
	schema *schemaRegistry
	states map[string]*stackState
	closed bool
}

// NewWriter creates a container at the given path and returns a Writer
// for it. An existing file at the path is overwritten; this is
// surfaced as a warning, not an error.
func NewWriter(path string, opts ...WriterOption) (*Writer, error) {
	options := defaultWriterOptions()
	for _, opt := range opts {
		opt(options)
	}

	if _, err := os.Stat(path); err == nil {
		options.logger.Warn("file exists and is being overwritten",
			zap.String("path", path))
	}

	f, err := createFile(path, options)
	if err != nil {
		return nil, err
	}

	return &Writer{
		file:      f,
		log:       options.logger,
		chunkSize: options.chunkSize,
		compress:  options.compress,
		schema:    newSchemaRegistry(),
		states:    make(map[string]*stackState),
	}, nil
}

// Index returns the number of records written so far.
func (w *Writer) Index() int64 {
	return w.i
}

// Write appends one record to the container. Leaves first seen in this
// record have their element type and trailing shape fixed from the
// observed value; leaves seen before must match their registered
// schema. The record is durable when Write returns.
func (w *Writer) Write(rec Record) error {
	if w.closed {
		return ErrClosed
	}

	if err := w.writeRecord(rec, "/", w.file.root); err != nil {
		return err
	}
	if err := w.file.commit(); err != nil {
		return err
	}
	w.i++
	return nil
}

// WriteAny coerces a plain nested map and appends it as a record.
// Nested map[string]interface{} values become groups. A leaf value
// that cannot be coerced into a supported scalar or rectangular typed
// array is skipped with a warning; the rest of the record is written.
func (w *Writer) WriteAny(m map[string]interface{}) error {
	if w.closed {
		return ErrClosed
	}
	return w.Write(w.coerceMap(m, "/"))
}

func (w *Writer) coerceMap(m map[string]interface{}, prefix string) Record {
	rec := make(Record, len(m))
	for k, v := range m {
		if sub, ok := v.(map[string]interface{}); ok {
			rec[k] = w.coerceMap(sub, prefix+k+"/")
			continue
		}
		val, err := ValueOf(v)
		if err != nil {
			w.log.Warn("could not convert value, skipping leaf",
				zap.String("path", prefix+k),
				zap.Error(err))
			continue
		}
		rec[k] = val
	}
	return rec
}

// writeRecord walks one record level, creating groups idempotently and
// dispatching leaves. Keys are visited in sorted order so container
// layout does not depend on map iteration order.
func (w *Writer) writeRecord(rec Record, prefix string, node *meta.Node) error {
	keys := make([]string, 0, len(rec))
	for k := range rec {
		keys = append(keys, k)
	}
	sort.Strings(keys)

	for _, k := range keys {
		switch v := rec[k].(type) {
		case Record:
			w.log.Debug("writing group", zap.String("path", prefix+k+"/"))
			child, err := node.EnsureGroup(k)
			if err != nil {
				return fmt.Errorf("group %s%s: %w", prefix, k, err)
			}
			if err := w.writeRecord(v, prefix+k+"/", child); err != nil {
				return err
			}
		case *Leaf:
			if err := w.writeLeaf(prefix+k, node, k, v); err != nil {
				return err
			}
		default:
			return fmt.Errorf("%w: %T at %s%s", ErrUnsupportedType, v, prefix, k)
		}
	}
	return nil
}

// writeLeaf materializes the leaf's stack on first occurrence, grows
// capacity to cover the current record index and writes the value at
// leading-axis position i.
func (w *Writer) writeLeaf(path string, parent *meta.Node, name string, leaf *Leaf) error {
	entry, created, err := w.schema.observe(path, leaf)
	if err != nil {
		return err
	}

	state := w.states[path]
	if state == nil {
		if !created {
			return fmt.Errorf("stack %s has a schema entry but no state", path)
		}
		st := &meta.Stack{
			DType:      uint8(entry.dt),
			Shape:      entry.shape,
			Axes:       entry.axes,
			Compressed: w.compress,
		}
		node, err := parent.AddStack(name, st)
		if err != nil {
			return fmt.Errorf("stack %s: %w", path, err)
		}
		state = newStackState(node, entry)
		w.states[path] = state
		w.log.Debug("create stack",
			zap.String("path", path),
			zap.String("dtype", entry.dt.String()),
			zap.Int64s("shape", entry.shape),
			zap.String("axes", entry.axes))
	}

	// Grow the leading axis to the smallest multiple of the chunk size
	// strictly greater than i. A leaf first seen at record K>0 gets its
	// earlier chunks zero-filled.
	for state.st.Capacity <= w.i {
		if err := state.appendChunk(w); err != nil {
			return fmt.Errorf("growing stack %s: %w", path, err)
		}
	}

	w.log.Debug("write record slot",
		zap.String("path", path),
		zap.Int64("index", w.i))
	if err := state.writeSlot(w, leaf); err != nil {
		return fmt.Errorf("writing stack %s: %w", path, err)
	}
	if state.st.Length <= w.i {
		state.st.Length = w.i + 1
	}
	return nil
}

// Close truncates every stack's leading axis to the exact number of
// records written, commits the final metadata and releases the file.
// Close is idempotent; Write after Close fails with ErrClosed.
func (w *Writer) Close() error {
	if w.closed {
		return nil
	}
	w.closed = true

	paths := make([]string, 0, len(w.states))
	for p := range w.states {
		paths = append(paths, p)
	}
	sort.Strings(paths)

	var errs error
	for _, p := range paths {
		w.log.Debug("shrinking stack",
			zap.String("path", p),
			zap.Int64("length", w.i))
		if err := w.states[p].shrink(w); err != nil {
			errs = multierr.Append(errs, fmt.Errorf("shrinking stack %s: %w", p, err))
		}
	}

	if err := w.file.commit(); err != nil {
		errs = multierr.Append(errs, err)
	}
	return multierr.Append(errs, w.file.Close())
}
