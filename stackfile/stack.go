package stackfile

import (
	"fmt"
	"reflect"

	"github.com/vmihailenco/msgpack/v5"

	"github.com/robert-malhotra/go-stackfile/internal/dtype"
	"github.com/robert-malhotra/go-stackfile/internal/meta"
)

// Stack is a read handle to one stacked array: a sequence of per-record
// values concatenated along the leading record-index axis.
type Stack struct {
	file *File
	path string
	node *meta.Node
}

func (s *Stack) meta() *meta.Stack {
	return s.node.Stack
}

// Path returns the stack's absolute path.
func (s *Stack) Path() string {
	return s.path
}

// Len returns the logical length: the number of records written.
func (s *Stack) Len() int64 {
	return s.meta().Length
}

// Capacity returns the allocated leading-axis capacity. After a clean
// Close this equals Len; on a container abandoned mid-write it is the
// smallest multiple of the chunk size greater than the last record index.
func (s *Stack) Capacity() int64 {
	return s.meta().Capacity
}

// Shape returns the fixed trailing shape of each record; nil for scalars.
func (s *Stack) Shape() []int64 {
	return s.meta().Shape
}

// DType returns the element type name (e.g. "float64").
func (s *Stack) DType() string {
	return dtype.DType(s.meta().DType).String()
}

// Axes returns the axis-tag attribute, e.g. "experiment_identifier:y:x".
func (s *Stack) Axes() string {
	return s.meta().Axes
}

// Attrs returns the stack's attributes. The "axes" attribute is the
// only structural metadata consumers may rely on.
func (s *Stack) Attrs() map[string]string {
	return map[string]string{"axes": s.meta().Axes}
}

// Compressed reports whether chunk payloads are stored compressed.
func (s *Stack) Compressed() bool {
	return s.meta().Compressed
}

// ReadAll reads the whole stack as a flat typed slice of
// Len()*prod(Shape()) elements in record-major order. The concrete
// type is []T for the stack's element type ([]string for text stacks).
func (s *Stack) ReadAll() (interface{}, error) {
	if s.file.closed {
		return nil, ErrClosed
	}

	st := s.meta()
	dt := dtype.DType(st.DType)
	chunkRecords := int64(s.file.hdr.ChunkSize)

	if dt == dtype.String {
		out := make([]string, 0, st.Length)
		for k := range st.Chunks {
			first := int64(k) * chunkRecords
			need := min64(chunkRecords, st.Length-first)
			if need <= 0 {
				break
			}
			slots, err := s.loadStringChunk(st.Chunks[k])
			if err != nil {
				return nil, err
			}
			if int64(len(slots)) < need {
				return nil, fmt.Errorf("stack %s chunk %d holds %d records, need %d", s.path, k, len(slots), need)
			}
			out = append(out, slots[:need]...)
		}
		return out, nil
	}

	elems := st.ElemsPerRecord()
	elemType, err := dtype.GoType(dt)
	if err != nil {
		return nil, err
	}
	out := reflect.MakeSlice(reflect.SliceOf(elemType), 0, int(st.Length*elems))

	for k := range st.Chunks {
		first := int64(k) * chunkRecords
		need := min64(chunkRecords, st.Length-first)
		if need <= 0 {
			break
		}
		raw, err := s.loadChunk(st.Chunks[k])
		if err != nil {
			return nil, err
		}
		n := int(need * elems)
		decoded, err := dtype.Decode(dt, raw, n)
		if err != nil {
			return nil, fmt.Errorf("stack %s chunk %d: %w", s.path, k, err)
		}
		out = reflect.AppendSlice(out, reflect.ValueOf(decoded))
	}

	return out.Interface(), nil
}

// ReadRecord reads the value written at record index i as a flat typed
// slice of prod(Shape()) elements (length 1 for scalars).
func (s *Stack) ReadRecord(i int64) (interface{}, error) {
	if s.file.closed {
		return nil, ErrClosed
	}

	st := s.meta()
	if i < 0 || i >= st.Length {
		return nil, fmt.Errorf("%w: %d of %d", ErrOutOfRange, i, st.Length)
	}

	chunkRecords := int64(s.file.hdr.ChunkSize)
	k := i / chunkRecords
	slot := i % chunkRecords
	if k >= int64(len(st.Chunks)) {
		return nil, fmt.Errorf("stack %s has no chunk for record %d", s.path, i)
	}

	dt := dtype.DType(st.DType)
	if dt == dtype.String {
		slots, err := s.loadStringChunk(st.Chunks[k])
		if err != nil {
			return nil, err
		}
		if slot >= int64(len(slots)) {
			return nil, fmt.Errorf("stack %s chunk %d holds %d records, need slot %d", s.path, k, len(slots), slot)
		}
		return []string{slots[slot]}, nil
	}

	raw, err := s.loadChunk(st.Chunks[k])
	if err != nil {
		return nil, err
	}

	elems := st.ElemsPerRecord()
	slotSize := elems * int64(dt.Size())
	offset := slot * slotSize
	if int64(len(raw)) < offset+slotSize {
		return nil, fmt.Errorf("stack %s chunk %d is short: %d bytes, need %d", s.path, k, len(raw), offset+slotSize)
	}

	return dtype.Decode(dt, raw[offset:offset+slotSize], int(elems))
}

// loadChunk reads one chunk's stored payload and expands it to raw
// element bytes.
func (s *Stack) loadChunk(c meta.Chunk) ([]byte, error) {
	stored, err := s.file.reader.At(int64(c.Addr)).ReadBytes(int(c.Size))
	if err != nil {
		return nil, fmt.Errorf("reading chunk at %#x: %w", c.Addr, err)
	}
	if s.meta().Compressed {
		return gzipDecompress(stored)
	}
	return stored, nil
}

// loadStringChunk reads one text chunk's stored payload and decodes the
// per-slot string list.
func (s *Stack) loadStringChunk(c meta.Chunk) ([]string, error) {
	stored, err := s.file.reader.At(int64(c.Addr)).ReadBytes(int(c.Size))
	if err != nil {
		return nil, fmt.Errorf("reading chunk at %#x: %w", c.Addr, err)
	}
	if s.meta().Compressed {
		if stored, err = gzipDecompress(stored); err != nil {
			return nil, err
		}
	}
	var slots []string
	if err := msgpack.Unmarshal(stored, &slots); err != nil {
		return nil, fmt.Errorf("decoding text chunk at %#x: %w", c.Addr, err)
	}
	return slots, nil
}

func min64(a, b int64) int64 {
	if a < b {
		return a
	}
	return b
}
