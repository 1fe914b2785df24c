package stackfile

import (
	"fmt"

	"github.com/vmihailenco/msgpack/v5"

	"github.com/robert-malhotra/go-stackfile/internal/dtype"
	"github.com/robert-malhotra/go-stackfile/internal/meta"
)

// gzipSlack is the extra extent space reserved for a compressed chunk
// beyond its raw size, covering gzip's worst-case expansion on small
// chunks. A payload that outgrows its extent is relocated.
const gzipSlack = 64

// stackState is the writer-side runtime state of one stack: its
// metadata node plus the in-memory buffer of the tail chunk for the
// storage modes that rewrite whole chunks (compressed and text).
type stackState struct {
	node *meta.Node
	st   *meta.Stack
	dt   dtype.DType

	// slotSize is the byte size of one record for fixed-width element
	// types; 0 for text.
	slotSize int64

	tail       []byte   // raw tail chunk content (compressed fixed-width mode)
	tailStrs   []string // tail chunk slots (text mode)
	tailExtent uint64   // allocated byte size of the tail chunk's extent
}

func newStackState(node *meta.Node, entry *schemaEntry) *stackState {
	s := &stackState{node: node, st: node.Stack, dt: entry.dt}
	if entry.dt.Fixed() {
		s.slotSize = s.st.ElemsPerRecord() * int64(entry.dt.Size())
	}
	return s
}

// appendChunk grows the stack by one chunk of chunkSize records and
// materializes its extent so unwritten slots read back as zero values.
func (s *stackState) appendChunk(w *Writer) error {
	c := w.chunkSize

	if s.dt == dtype.String {
		s.tailStrs = make([]string, c)
		s.tailExtent = 0
		s.st.Chunks = append(s.st.Chunks, meta.Chunk{})
		s.st.Capacity += c
		return s.persistTail(w)
	}

	rawSize := c * s.slotSize

	if s.st.Compressed {
		s.tail = make([]byte, rawSize)
		s.tailExtent = uint64(rawSize) + gzipSlack
		addr := w.file.allocate(int64(s.tailExtent))
		s.st.Chunks = append(s.st.Chunks, meta.Chunk{Addr: addr})
		s.st.Capacity += c
		return s.persistTail(w)
	}

	addr := w.file.allocate(rawSize)
	if err := w.file.writer.At(int64(addr)).WriteZeros(int(rawSize)); err != nil {
		return err
	}
	s.st.Chunks = append(s.st.Chunks, meta.Chunk{Addr: addr, Size: uint64(rawSize)})
	s.st.Capacity += c
	s.tail = nil
	return nil
}

// writeSlot writes the leaf value at leading-axis position w.i. Growth
// guarantees position i always falls in the tail chunk.
func (s *stackState) writeSlot(w *Writer, leaf *Leaf) error {
	slot := w.i % w.chunkSize

	if s.dt == dtype.String {
		s.tailStrs[slot] = leaf.data.([]string)[0]
		return s.persistTail(w)
	}

	raw, err := dtype.Encode(s.dt, leaf.data)
	if err != nil {
		return err
	}
	if int64(len(raw)) != s.slotSize {
		return fmt.Errorf("%w: encoded %d bytes, slot is %d", ErrSchemaMismatch, len(raw), s.slotSize)
	}

	if s.st.Compressed {
		copy(s.tail[slot*s.slotSize:], raw)
		return s.persistTail(w)
	}

	chunk := s.st.Chunks[len(s.st.Chunks)-1]
	return w.file.writer.At(int64(chunk.Addr) + slot*s.slotSize).WriteBytes(raw)
}

// persistTail stores the tail chunk's current payload, relocating its
// extent when the payload outgrows it. The abandoned extent becomes
// dead space.
func (s *stackState) persistTail(w *Writer) error {
	var payload []byte
	var err error

	if s.dt == dtype.String {
		payload, err = msgpack.Marshal(s.tailStrs)
		if err != nil {
			return fmt.Errorf("encoding text chunk: %w", err)
		}
		if s.st.Compressed {
			if payload, err = gzipCompress(payload); err != nil {
				return err
			}
		}
	} else {
		if payload, err = gzipCompress(s.tail); err != nil {
			return err
		}
	}

	tail := &s.st.Chunks[len(s.st.Chunks)-1]
	if tail.Addr == 0 || uint64(len(payload)) > s.tailExtent {
		s.tailExtent = uint64(len(payload)) + uint64(len(payload))/2 + gzipSlack
		tail.Addr = w.file.allocate(int64(s.tailExtent))
	}
	if err := w.file.writer.At(int64(tail.Addr)).WriteBytes(payload); err != nil {
		return err
	}
	tail.Size = uint64(len(payload))
	return nil
}

// shrink truncates the stack to exactly n = records-written: logical
// length and capacity become n and the tail chunk's stored payload is
// trimmed to the used slots.
func (s *stackState) shrink(w *Writer) error {
	n := w.i

	// A leaf absent from trailing records may still be short of
	// capacity n; pad with zero-filled chunks before truncating.
	for s.st.Capacity < n {
		if err := s.appendChunk(w); err != nil {
			return err
		}
	}

	s.st.Length = n
	s.st.Capacity = n

	if len(s.st.Chunks) == 0 {
		return nil
	}
	used := n - int64(len(s.st.Chunks)-1)*w.chunkSize
	if used < 0 {
		used = 0
	}

	if s.dt == dtype.String {
		s.tailStrs = s.tailStrs[:used]
		return s.persistTail(w)
	}
	if s.st.Compressed {
		s.tail = s.tail[:used*s.slotSize]
		return s.persistTail(w)
	}

	tail := &s.st.Chunks[len(s.st.Chunks)-1]
	if trimmed := uint64(used * s.slotSize); trimmed < tail.Size {
		tail.Size = trimmed
	}
	return nil
}
