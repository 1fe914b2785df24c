package stackfile

import (
	"fmt"
	"os"

	"go.uber.org/zap"

	"github.com/robert-malhotra/go-stackfile/internal/alloc"
	"github.com/robert-malhotra/go-stackfile/internal/binary"
	"github.com/robert-malhotra/go-stackfile/internal/header"
	"github.com/robert-malhotra/go-stackfile/internal/meta"
)

// File is an open stackfile container.
type File struct {
	path   string
	file   *os.File
	reader *binary.Reader
	writer *binary.Writer
	hdr    *header.Header
	root   *meta.Node

	writable  bool
	closed    bool
	allocator *alloc.Allocator
	log       *zap.Logger
}

// Open opens a container for reading. The file reflects the last
// committed write; a container abandoned without Close opens with its
// untrimmed capacity and every flushed record intact.
func Open(path string, opts ...OpenOption) (*File, error) {
	options := defaultOpenOptions()
	for _, opt := range opts {
		opt(options)
	}

	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("opening file: %w", err)
	}

	hdr, err := header.Read(f)
	if err != nil {
		f.Close()
		return nil, fmt.Errorf("reading header: %w", err)
	}

	reader := binary.NewReader(f)
	blob, err := reader.At(int64(hdr.MetaAddr)).ReadBytes(int(hdr.MetaLen))
	if err != nil {
		f.Close()
		return nil, fmt.Errorf("reading metadata block: %w", err)
	}

	root, err := meta.Decode(blob, hdr.MetaSum)
	if err != nil {
		f.Close()
		return nil, err
	}

	return &File{
		path:   path,
		file:   f,
		reader: reader,
		hdr:    hdr,
		root:   root,
		log:    options.logger,
	}, nil
}

// Close closes the container.
func (f *File) Close() error {
	if f.closed {
		return nil
	}
	f.closed = true
	return f.file.Close()
}

// Path returns the file path.
func (f *File) Path() string {
	return f.path
}

// ChunkSize returns the number of records per growth chunk.
func (f *File) ChunkSize() int {
	return int(f.hdr.ChunkSize)
}

// Root returns the root group.
func (f *File) Root() *Group {
	return &Group{file: f, path: "/", node: f.root}
}

// OpenGroup opens a group by absolute path.
func (f *File) OpenGroup(path string) (*Group, error) {
	if f.closed {
		return nil, ErrClosed
	}
	return f.Root().openGroupPath(path)
}

// OpenStack opens a stack leaf by absolute path.
func (f *File) OpenStack(path string) (*Stack, error) {
	if f.closed {
		return nil, ErrClosed
	}
	node := f.root.Lookup(path)
	if node == nil {
		return nil, fmt.Errorf("%w: %s", ErrNotFound, path)
	}
	if node.IsGroup() {
		return nil, fmt.Errorf("%w: %s", ErrNotStack, path)
	}
	return &Stack{file: f, path: path, node: node}, nil
}
