// Package main is the entry point for the imgvec CLI.
package main

import (
	"os"

	"github.com/viant/imgvec/cmd/imgvec/cmd"
)

func main() {
	if err := cmd.Execute(); err != nil {
		os.Exit(1)
	}
}
