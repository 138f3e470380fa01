// Package main provides the entry point for the appswitch worker.
package main

import (
	"fmt"
	"os"

	"github.com/appswitch-io/appswitch/cmd/appswitch/commands"
)

func main() {
	if err := commands.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}
