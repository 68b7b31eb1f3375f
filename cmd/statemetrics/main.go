// Package main provides the CLI for the State Metrics Report builder.
package main

import (
	"os"

	"github.com/leapstack-labs/statemetrics/internal/cli"
)

func main() {
	if err := cli.Execute(); err != nil {
		os.Exit(1)
	}
}
