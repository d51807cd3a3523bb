// Package cmd provides the CLI commands for the semdesk server.
package cmd

import (
	"github.com/spf13/cobra"

	"github.com/sureshkumar/semdesk/pkg/version"
)

// NewRootCmd creates the root command for the semdesk server binary.
func NewRootCmd() *cobra.Command {
	var local bool
	var dir string
	var verbose bool
	var configPath string

	cmd := &cobra.Command{
		Use:     "semdesk",
		Short:   "Local document indexing and semantic-search server",
		Version: version.Version,
		Long: `semdesk crawls a set of document directories, indexes them with a local
embedding model, and answers questions over the indexed text through an
extractive QA model — all running as a single local process with no
external services.`,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runServe(cmd.Context(), serveOptions{
				local:      local,
				dir:        dir,
				verbose:    verbose,
				configPath: configPath,
			})
		},
	}

	cmd.SetVersionTemplate("semdesk version {{.Version}}\n")

	cmd.Flags().BoolVar(&local, "local", false, "Run in local mode: index only --dir, with state stored alongside it")
	cmd.Flags().StringVar(&dir, "dir", ".", "Directory to index in --local mode")
	cmd.Flags().BoolVar(&verbose, "verbose", false, "Enable debug-level logging")
	cmd.Flags().StringVar(&configPath, "config", "", "Path to config.toml (defaults to $HOME/.config/semdesk/config.toml)")

	return cmd
}

// Execute runs the root command.
func Execute() error {
	return NewRootCmd().Execute()
}
