// Package meta models the stackfile metadata tree: a hierarchy of named
// groups whose leaves are stacked arrays, plus each stack's chunk table.
//
// The tree is serialized as a single msgpack blob, checksummed with
// xxhash64, and committed by pointing the file header at it.
package meta

import (
	"errors"
	"fmt"
	"strings"

	"github.com/cespare/xxhash/v2"
	"github.com/vmihailenco/msgpack/v5"
)

// ErrChecksum is returned when the metadata block fails checksum verification.
var ErrChecksum = errors.New("metadata checksum mismatch")

// Node is one entry in the container tree. A node is a group when
// Stack is nil, otherwise it is a stacked-array leaf.
type Node struct {
	Name     string  `msgpack:"n"`
	Children []*Node `msgpack:"c,omitempty"`
	Stack    *Stack  `msgpack:"s,omitempty"`
}

// Stack describes one stacked array: its element type, the fixed
// trailing shape of each record, the axis-tag attribute, logical
// length vs. allocated capacity along the leading axis, and the
// table of chunk extents backing it.
type Stack struct {
	DType      uint8   `msgpack:"t"`
	Shape      []int64 `msgpack:"sh,omitempty"`
	Axes       string  `msgpack:"ax"`
	Length     int64   `msgpack:"l"`
	Capacity   int64   `msgpack:"cp"`
	Compressed bool    `msgpack:"z"`
	Chunks     []Chunk `msgpack:"ch,omitempty"`
}

// Chunk is one extent of a stack. Size is the stored byte length,
// which differs from the raw chunk size when the stack is compressed
// or the tail chunk was trimmed on close.
type Chunk struct {
	Addr uint64 `msgpack:"a"`
	Size uint64 `msgpack:"s"`
}

// ElemsPerRecord returns the number of elements in one record
// (the product of the trailing shape; 1 for scalars).
func (s *Stack) ElemsPerRecord() int64 {
	n := int64(1)
	for _, d := range s.Shape {
		n *= d
	}
	return n
}

// NewRoot returns an empty root group.
func NewRoot() *Node {
	return &Node{Name: ""}
}

// IsGroup reports whether the node is a group rather than a stack leaf.
func (n *Node) IsGroup() bool {
	return n.Stack == nil
}

// Child returns the child with the given name, or nil.
func (n *Node) Child(name string) *Node {
	for _, c := range n.Children {
		if c.Name == name {
			return c
		}
	}
	return nil
}

// EnsureGroup returns the child group with the given name, creating it
// if absent. Creation is idempotent; an existing group is returned as is.
// It fails if the name is already taken by a stack leaf.
func (n *Node) EnsureGroup(name string) (*Node, error) {
	if c := n.Child(name); c != nil {
		if !c.IsGroup() {
			return nil, fmt.Errorf("%q already exists as a stack", name)
		}
		return c, nil
	}
	c := &Node{Name: name}
	n.Children = append(n.Children, c)
	return c, nil
}

// AddStack creates a stack leaf under the node. It fails if the name
// is already in use.
func (n *Node) AddStack(name string, s *Stack) (*Node, error) {
	if n.Child(name) != nil {
		return nil, fmt.Errorf("%q already exists", name)
	}
	c := &Node{Name: name, Stack: s}
	n.Children = append(n.Children, c)
	return c, nil
}

// Lookup resolves a slash-separated path relative to the node.
// An empty or "/" path returns the node itself.
func (n *Node) Lookup(path string) *Node {
	current := n
	for _, part := range splitPath(path) {
		if current == nil || !current.IsGroup() {
			return nil
		}
		current = current.Child(part)
	}
	return current
}

// Walk visits every node depth-first, passing each node's absolute path.
func (n *Node) Walk(fn func(path string, node *Node)) {
	n.walk("/", fn)
}

func (n *Node) walk(prefix string, fn func(string, *Node)) {
	for _, c := range n.Children {
		p := prefix + c.Name
		fn(p, c)
		if c.IsGroup() {
			c.walk(p+"/", fn)
		}
	}
}

func splitPath(path string) []string {
	path = strings.Trim(path, "/")
	if path == "" {
		return nil
	}
	return strings.Split(path, "/")
}

// Encode serializes the tree and returns the blob with its xxhash64 checksum.
func Encode(root *Node) ([]byte, uint64, error) {
	blob, err := msgpack.Marshal(root)
	if err != nil {
		return nil, 0, fmt.Errorf("encoding metadata: %w", err)
	}
	return blob, xxhash.Sum64(blob), nil
}

// Decode parses a metadata blob, verifying it against the expected checksum.
func Decode(blob []byte, sum uint64) (*Node, error) {
	if xxhash.Sum64(blob) != sum {
		return nil, ErrChecksum
	}
	root := &Node{}
	if err := msgpack.Unmarshal(blob, root); err != nil {
		return nil, fmt.Errorf("decoding metadata: %w", err)
	}
	return root, nil
}
