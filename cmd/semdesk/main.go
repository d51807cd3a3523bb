// Package main is the entry point for the semdesk server.
package main

import (
	"os"

	"github.com/sureshkumar/semdesk/cmd/semdesk/cmd"
)

func main() {
	if err := cmd.Execute(); err != nil {
		os.Exit(1)
	}
}
