// Package main is the entry point for the gplus CLI, which builds American
// Soccer Analysis goals-added snapshots.
package main

import "github.com/pable/go-gplus/cmd"

func main() {
	cmd.Execute()
}
