// Package cmd provides the CLI commands for the semdesk-cli client.
package cmd

import (
	"github.com/spf13/cobra"

	"github.com/sureshkumar/semdesk/pkg/version"
)

// NewRootCmd creates the root command for the semdesk-cli client binary.
func NewRootCmd() *cobra.Command {
	var socketPath string

	cmd := &cobra.Command{
		Use:     "semdesk-cli",
		Short:   "Query a running semdesk server",
		Version: version.Version,
	}

	cmd.SetVersionTemplate("semdesk-cli version {{.Version}}\n")
	cmd.PersistentFlags().StringVar(&socketPath, "socket", "", "Path to the semdesk query socket (defaults to $HOME/.local/share/semdesk.sock)")

	cmd.AddCommand(newQueryCmd(&socketPath))
	cmd.AddCommand(newAddCmd())

	return cmd
}

// Execute runs the root command.
func Execute() error {
	return NewRootCmd().Execute()
}
