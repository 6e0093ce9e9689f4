package main

import (
	"os"

	"github.com/Subhodip-Mishra/Deephireai-1/cmd"
)

func main() {
	if err := cmd.Execute(); err != nil {
		os.Exit(1)
	}
}
