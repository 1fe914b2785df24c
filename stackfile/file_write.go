package stackfile

import (
	"fmt"
	"os"

	"github.com/robert-malhotra/go-stackfile/internal/alloc"
	"github.com/robert-malhotra/go-stackfile/internal/binary"
	"github.com/robert-malhotra/go-stackfile/internal/header"
	"github.com/robert-malhotra/go-stackfile/internal/meta"
)

// createFile creates a new, empty container for writing, truncating any
// existing file at the path. The empty metadata tree is committed
// immediately so the file is a valid container from the first byte.
func createFile(path string, o *writerOptions) (*File, error) {
	osFile, err := os.Create(path)
	if err != nil {
		return nil, fmt.Errorf("creating file: %w", err)
	}

	var flags uint8
	if o.compress {
		flags |= header.FlagCompressed
	}

	f := &File{
		path:   path,
		file:   osFile,
		reader: binary.NewReader(osFile),
		writer: binary.NewWriter(osFile),
		hdr: &header.Header{
			Version:   header.Version,
			Flags:     flags,
			ChunkSize: uint32(o.chunkSize),
		},
		root:      meta.NewRoot(),
		writable:  true,
		allocator: alloc.New(header.Size),
		log:       o.logger,
	}

	if err := f.commit(); err != nil {
		osFile.Close()
		os.Remove(path)
		return nil, err
	}

	return f, nil
}

// commit makes the current metadata tree durable: it serializes the
// tree to a fresh extent, points the header at it and fsyncs. Until
// commit returns, the previously committed tree stays reachable, so a
// crash mid-commit loses at most the in-flight record.
func (f *File) commit() error {
	blob, sum, err := meta.Encode(f.root)
	if err != nil {
		return err
	}

	addr := f.allocator.Alloc(uint64(len(blob)))
	if err := f.writer.At(int64(addr)).WriteBytes(blob); err != nil {
		return fmt.Errorf("writing metadata block: %w", err)
	}

	f.hdr.MetaAddr = addr
	f.hdr.MetaLen = uint64(len(blob))
	f.hdr.MetaSum = sum
	f.hdr.EOFAddr = f.allocator.EOFAddr()

	if err := f.hdr.Write(f.writer); err != nil {
		return fmt.Errorf("writing header: %w", err)
	}

	return f.file.Sync()
}

// allocate reserves an extent in the file and returns its address.
func (f *File) allocate(size int64) uint64 {
	return f.allocator.Alloc(uint64(size))
}

// AllocStats returns allocation statistics (for debugging/testing).
func (f *File) AllocStats() alloc.Stats {
	if f.allocator == nil {
		return alloc.Stats{}
	}
	return f.allocator.Stats()
}
