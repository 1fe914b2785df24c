// Package header reads and writes the fixed 64-byte stackfile file header.
//
// Layout (all fields little-endian):
//
//	offset  size  field
//	0       4     magic "SFC1"
//	4       1     format version
//	5       1     flags (bit 0: compression default)
//	6       2     reserved
//	8       4     chunk size (records per chunk)
//	12      4     reserved
//	16      8     metadata block address
//	24      8     metadata block length
//	32      8     metadata block xxhash64 checksum
//	40      8     end-of-file address
//	48      16    reserved
//
// The header is rewritten in place on every flush so that the most
// recently committed metadata block is always reachable after a crash.
package header

import (
	"errors"
	"io"

	"github.com/robert-malhotra/go-stackfile/internal/binary"
)

// Magic identifies a stackfile container.
var Magic = [4]byte{'S', 'F', 'C', '1'}

// Size is the fixed header size in bytes.
const Size = 64

// Version is the current format version.
const Version = 1

// FlagCompressed marks a container whose stacks default to compressed chunks.
const FlagCompressed = 0x01

// ErrBadMagic is returned when the file does not start with the stackfile magic.
var ErrBadMagic = errors.New("not a stackfile container")

// ErrBadVersion is returned for format versions this library cannot read.
var ErrBadVersion = errors.New("unsupported stackfile version")

// Header is the decoded file header.
type Header struct {
	Version   uint8
	Flags     uint8
	ChunkSize uint32
	MetaAddr  uint64
	MetaLen   uint64
	MetaSum   uint64
	EOFAddr   uint64
}

// Read parses the header from the start of the file.
func Read(r io.ReaderAt) (*Header, error) {
	br := binary.NewReader(r)

	magic, err := br.ReadBytes(4)
	if err != nil {
		return nil, ErrBadMagic
	}
	if magic[0] != Magic[0] || magic[1] != Magic[1] || magic[2] != Magic[2] || magic[3] != Magic[3] {
		return nil, ErrBadMagic
	}

	h := &Header{}
	if h.Version, err = br.ReadUint8(); err != nil {
		return nil, err
	}
	if h.Version != Version {
		return nil, ErrBadVersion
	}
	if h.Flags, err = br.ReadUint8(); err != nil {
		return nil, err
	}
	br.Skip(2) // reserved
	if h.ChunkSize, err = br.ReadUint32(); err != nil {
		return nil, err
	}
	br.Skip(4) // reserved
	if h.MetaAddr, err = br.ReadUint64(); err != nil {
		return nil, err
	}
	if h.MetaLen, err = br.ReadUint64(); err != nil {
		return nil, err
	}
	if h.MetaSum, err = br.ReadUint64(); err != nil {
		return nil, err
	}
	if h.EOFAddr, err = br.ReadUint64(); err != nil {
		return nil, err
	}

	return h, nil
}

// Write serializes the header at the start of the writer.
func (h *Header) Write(w *binary.Writer) error {
	hw := w.At(0)

	if err := hw.WriteBytes(Magic[:]); err != nil {
		return err
	}
	if err := hw.WriteUint8(h.Version); err != nil {
		return err
	}
	if err := hw.WriteUint8(h.Flags); err != nil {
		return err
	}
	if err := hw.WriteZeros(2); err != nil {
		return err
	}
	if err := hw.WriteUint32(h.ChunkSize); err != nil {
		return err
	}
	if err := hw.WriteZeros(4); err != nil {
		return err
	}
	if err := hw.WriteUint64(h.MetaAddr); err != nil {
		return err
	}
	if err := hw.WriteUint64(h.MetaLen); err != nil {
		return err
	}
	if err := hw.WriteUint64(h.MetaSum); err != nil {
		return err
	}
	if err := hw.WriteUint64(h.EOFAddr); err != nil {
		return err
	}
	return hw.WriteZeros(16)
}
