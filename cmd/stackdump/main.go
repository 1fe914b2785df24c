// Diagnostic tool for inspecting stackfile containers.
package main

import (
	"fmt"
	"os"

	"github.com/robert-malhotra/go-stackfile/stackfile"
)

func main() {
	if len(os.Args) < 2 {
		fmt.Println("Usage: stackdump <file.sfc>")
		os.Exit(1)
	}

	filename := os.Args[1]

	f, err := stackfile.Open(filename)
	if err != nil {
		fmt.Printf("ERROR: Failed to open file: %v\n", err)
		os.Exit(1)
	}
	defer f.Close()

	fmt.Printf("=== %s ===\n", filename)
	fmt.Printf("Chunk size: %d\n\n", f.ChunkSize())

	f.Root().Walk(func(path string, s *stackfile.Stack) {
		if s == nil {
			fmt.Printf("Group %s\n", path)
			return
		}
		fmt.Printf("Stack %s\n", path)
		fmt.Printf("  dtype:    %s\n", s.DType())
		fmt.Printf("  shape:    %v\n", s.Shape())
		fmt.Printf("  axes:     %s\n", s.Axes())
		fmt.Printf("  length:   %d (capacity %d)\n", s.Len(), s.Capacity())
		if s.Compressed() {
			fmt.Printf("  storage:  gzip\n")
		}
	})
}
