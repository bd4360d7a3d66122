package root

import (
	"github.com/spf13/cobra"
)

// rootCmd is the base command for the FixBay admin CLI. Subcommands
// (bootstrap, auth) are attached here.
var rootCmd = &cobra.Command{
	Use:           "fixbay",
	Short:         "FixBay admin CLI",
	Long:          "Administrative utilities for FixBay (schema bootstrap, tenant seeding, dev tokens).",
	SilenceErrors: true,
	SilenceUsage:  true,
}

// Execute runs the CLI.
func Execute() error {
	return rootCmd.Execute()
}

// Root returns the mutable root command for wiring from subpackages.
func Root() *cobra.Command {
	return rootCmd
}
