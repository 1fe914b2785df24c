package meta

import (
	"errors"
	"reflect"
	"testing"
)

func TestEnsureGroupIdempotent(t *testing.T) {
	root := NewRoot()

	g1, err := root.EnsureGroup("detector")
	if err != nil {
		t.Fatalf("EnsureGroup failed: %v", err)
	}
	g2, err := root.EnsureGroup("detector")
	if err != nil {
		t.Fatalf("repeated EnsureGroup failed: %v", err)
	}
	if g1 != g2 {
		t.Error("EnsureGroup should return the existing group")
	}
	if len(root.Children) != 1 {
		t.Errorf("root has %d children; want 1", len(root.Children))
	}
}

func TestEnsureGroupOverStack(t *testing.T) {
	root := NewRoot()
	if _, err := root.AddStack("x", &Stack{}); err != nil {
		t.Fatalf("AddStack failed: %v", err)
	}
	if _, err := root.EnsureGroup("x"); err == nil {
		t.Error("EnsureGroup over a stack leaf should fail")
	}
}

func TestAddStackDuplicate(t *testing.T) {
	root := NewRoot()
	if _, err := root.AddStack("x", &Stack{}); err != nil {
		t.Fatalf("AddStack failed: %v", err)
	}
	if _, err := root.AddStack("x", &Stack{}); err == nil {
		t.Error("duplicate AddStack should fail")
	}
}

func TestLookup(t *testing.T) {
	root := NewRoot()
	g, _ := root.EnsureGroup("g")
	sub, _ := g.EnsureGroup("sub")
	if _, err := sub.AddStack("x", &Stack{Axes: "experiment_identifier:value"}); err != nil {
		t.Fatalf("AddStack failed: %v", err)
	}

	n := root.Lookup("/g/sub/x")
	if n == nil || n.IsGroup() {
		t.Fatalf("Lookup(/g/sub/x) = %v; want stack leaf", n)
	}
	if n.Stack.Axes != "experiment_identifier:value" {
		t.Errorf("axes = %q", n.Stack.Axes)
	}

	if root.Lookup("/") != root {
		t.Error("Lookup(/) should return the root")
	}
	if root.Lookup("/missing") != nil {
		t.Error("Lookup of a missing path should return nil")
	}
	if root.Lookup("/g/sub/x/deeper") != nil {
		t.Error("Lookup through a stack leaf should return nil")
	}
}

func TestWalkPaths(t *testing.T) {
	root := NewRoot()
	g, _ := root.EnsureGroup("g")
	g.AddStack("x", &Stack{})
	root.AddStack("a", &Stack{})

	var paths []string
	root.Walk(func(p string, n *Node) {
		paths = append(paths, p)
	})

	want := []string{"/g", "/g/x", "/a"}
	if !reflect.DeepEqual(paths, want) {
		t.Errorf("Walk visited %v; want %v", paths, want)
	}
}

func TestEncodeDecodeRoundTrip(t *testing.T) {
	root := NewRoot()
	g, _ := root.EnsureGroup("g")
	g.AddStack("b", &Stack{
		DType:    11, // float64 tag
		Shape:    []int64{2},
		Axes:     "experiment_identifier:x",
		Length:   2,
		Capacity: 2,
		Chunks:   []Chunk{{Addr: 64, Size: 32}},
	})

	blob, sum, err := Encode(root)
	if err != nil {
		t.Fatalf("Encode failed: %v", err)
	}

	back, err := Decode(blob, sum)
	if err != nil {
		t.Fatalf("Decode failed: %v", err)
	}

	n := back.Lookup("/g/b")
	if n == nil || n.Stack == nil {
		t.Fatal("decoded tree is missing /g/b")
	}
	if !reflect.DeepEqual(n.Stack, root.Lookup("/g/b").Stack) {
		t.Errorf("decoded stack = %+v; want %+v", n.Stack, root.Lookup("/g/b").Stack)
	}
}

func TestDecodeChecksumMismatch(t *testing.T) {
	blob, sum, err := Encode(NewRoot())
	if err != nil {
		t.Fatalf("Encode failed: %v", err)
	}
	if _, err := Decode(blob, sum+1); !errors.Is(err, ErrChecksum) {
		t.Errorf("Decode = %v; want ErrChecksum", err)
	}
}

func TestElemsPerRecord(t *testing.T) {
	if n := (&Stack{}).ElemsPerRecord(); n != 1 {
		t.Errorf("scalar ElemsPerRecord = %d; want 1", n)
	}
	if n := (&Stack{Shape: []int64{3, 4}}).ElemsPerRecord(); n != 12 {
		t.Errorf("(3,4) ElemsPerRecord = %d; want 12", n)
	}
}
