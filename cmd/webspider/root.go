// Package main provides the entry point for the webspider CLI.
package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"
)

// NewRootCmd creates the root command for webspider.
func NewRootCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "webspider",
		Short: "Scoped web crawler that maps site structure",
		Long: `Webspider is a scoped web crawler. It starts from one or more seed URLs,
follows links breadth-first within the configured scope, and reports the
site structure it discovered.

Crawls are bounded by depth, per-page child limits, and a total page
budget, so a run always terminates. Completed runs are stored in a local
SQLite database and can be listed with the runs subcommand.`,
		Version:       getVersion(),
		SilenceUsage:  true,
		SilenceErrors: true,
	}

	// Global flags that apply to all commands
	cmd.PersistentFlags().BoolP("verbose", "v", false, "Enable verbose logging")

	// Add subcommands
	cmd.AddCommand(NewCrawlCmd())
	cmd.AddCommand(NewRunsCmd())
	cmd.AddCommand(NewInitCmd())
	cmd.AddCommand(NewVersionCmd())

	return cmd
}

// Execute runs the root command.
func Execute() {
	if err := NewRootCmd().Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}
