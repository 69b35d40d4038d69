// Package main provides the confgen command.
package main

import (
	"os"

	"github.com/leapstack-labs/confgen/internal/cli"
)

func main() {
	if err := cli.Execute(); err != nil {
		os.Exit(1)
	}
}
