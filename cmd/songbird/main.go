// Package main is the entry point for the songbird CLI.
//
// Usage:
//
//	songbird [flags] <command> [args]
//
// Commands:
//
//	train      - Run stratified cross-validation training on a dataset
//	families   - List the supported classifier families and their defaults
//	version    - Show version information
package main

import (
	"fmt"
	"os"

	"github.com/echolab/songbird/cmd/songbird/commands"
)

func main() {
	if err := commands.Execute(); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}
