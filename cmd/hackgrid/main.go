// Package main is the single-binary entrypoint for hackgrid.
package main

import "github.com/hackgrid/hackgrid/internal/cli"

// version is set at build time via -ldflags.
var version = "dev"

func main() {
	cli.Execute(version)
}
