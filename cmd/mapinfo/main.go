// Diagnostic tool for inspecting legacy CCP4/MRC map files.
package main

import (
	"fmt"
	"os"

	"go.uber.org/zap"

	"github.com/robert-malhotra/go-stackfile/ccp4"
)

func main() {
	if len(os.Args) < 2 {
		fmt.Println("Usage: mapinfo <file.map>")
		os.Exit(1)
	}

	filename := os.Args[1]

	logger, err := zap.NewDevelopment()
	if err != nil {
		fmt.Printf("ERROR: %v\n", err)
		os.Exit(1)
	}
	defer logger.Sync()

	v, err := ccp4.Read(filename, ccp4.WithLogger(logger))
	if err != nil {
		fmt.Printf("ERROR: Failed to read map: %v\n", err)
		os.Exit(1)
	}

	nc, nr, ns := v.Dims()
	fmt.Printf("=== %s ===\n", filename)
	fmt.Printf("Extents:  %d columns x %d rows x %d sections\n", nc, nr, ns)
	fmt.Printf("Mode:     %d\n", v.Mode())
	fmt.Printf("Elements: %d\n", nc*nr*ns)
}
