// Package main provides the wsp command-line tool.
package main

import (
	"os"

	"github.com/watertools/wsp/internal/cli"
)

func main() {
	if err := cli.Execute(); err != nil {
		os.Exit(1)
	}
}
