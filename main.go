// Package main is the entry point for the trendseed CLI.
// It provisions and seeds the search_trends collection of a PocketBase backend.
package main

import (
	"trendseed/cli/cmd"
)

func main() {
	cmd.Execute()
}
