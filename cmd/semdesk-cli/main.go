// Package main is the entry point for the semdesk-cli client.
package main

import (
	"os"

	"github.com/sureshkumar/semdesk/cmd/semdesk-cli/cmd"
)

func main() {
	if err := cmd.Execute(); err != nil {
		os.Exit(1)
	}
}
