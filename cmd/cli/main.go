// Package main is the entry point for the fleet-admin CLI.
package main

import (
	"os"

	"fleet-admin/cmd/cli/cmd"
)

func main() {
	if err := cmd.Execute(); err != nil {
		os.Exit(1)
	}
}
