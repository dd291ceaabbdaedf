// Package main implements the deo CLI. It builds fragment facts, control
// flow graphs and program dependence graphs for Java methods.
package main

import (
	"os"

	"github.com/l3aro/go-deodorant/cmd/deo/commands"
)

var (
	version   = "dev"
	buildTime = ""
)

func main() {
	commands.RootCmd.Version = version
	if buildTime != "" {
		commands.RootCmd.Version = version + " (" + buildTime + ")"
	}
	commands.RootCmd.SetVersionTemplate(`deo version {{.Version}}
`)

	if err := commands.Execute(); err != nil {
		os.Exit(1)
	}
}
