// Package main is the entry point of the odataql command line tool.
package main

import (
	"fmt"
	"os"

	"github.com/nlstn/go-odataql/internal/cli"
)

// Set via -ldflags at build time.
var version = "dev"

func main() {
	cmd := cli.NewRootCommand()
	cmd.Version = version
	if err := cmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, "odataql:", err)
		os.Exit(1)
	}
}
