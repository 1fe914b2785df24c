package stackfile

import (
	"fmt"
	"path"

	"github.com/robert-malhotra/go-stackfile/internal/meta"
)

// Group is a named interior node of the container tree.
type Group struct {
	file *File
	path string
	node *meta.Node
}

// Path returns the group's absolute path.
func (g *Group) Path() string {
	return g.path
}

// Members returns the names of the group's children in creation order.
func (g *Group) Members() []string {
	names := make([]string, 0, len(g.node.Children))
	for _, c := range g.node.Children {
		names = append(names, c.Name)
	}
	return names
}

// OpenGroup opens a child group, which may be a nested path.
func (g *Group) OpenGroup(name string) (*Group, error) {
	if g.file.closed {
		return nil, ErrClosed
	}
	return g.openGroupPath(name)
}

func (g *Group) openGroupPath(name string) (*Group, error) {
	node := g.node.Lookup(name)
	if node == nil {
		return nil, fmt.Errorf("%w: %s", ErrNotFound, name)
	}
	if !node.IsGroup() {
		return nil, fmt.Errorf("%w: %s", ErrNotGroup, name)
	}
	return &Group{file: g.file, path: joinPath(g.path, name), node: node}, nil
}

// OpenStack opens a child stack leaf, which may be a nested path.
func (g *Group) OpenStack(name string) (*Stack, error) {
	if g.file.closed {
		return nil, ErrClosed
	}
	node := g.node.Lookup(name)
	if node == nil {
		return nil, fmt.Errorf("%w: %s", ErrNotFound, name)
	}
	if node.IsGroup() {
		return nil, fmt.Errorf("%w: %s", ErrNotStack, name)
	}
	return &Stack{file: g.file, path: joinPath(g.path, name), node: node}, nil
}

// Walk visits every descendant of the group depth-first. Stacks are
// passed with a non-nil stack argument, groups with nil.
func (g *Group) Walk(fn func(path string, stack *Stack)) {
	g.node.Walk(func(p string, n *meta.Node) {
		abs := joinPath(g.path, p)
		if n.IsGroup() {
			fn(abs, nil)
			return
		}
		fn(abs, &Stack{file: g.file, path: abs, node: n})
	})
}

func joinPath(base, name string) string {
	return path.Join("/", base, name)
}
