// Package main is the entry point for the bqscope CLI.
package main

import (
	"os"

	"github.com/leapstack-labs/bqscope/internal/cli"
)

func main() {
	if err := cli.Execute(); err != nil {
		os.Exit(1)
	}
}
