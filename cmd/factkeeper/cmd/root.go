package cmd

import (
	"github.com/spf13/cobra"
)

// Version is the FactKeeper release version.
const Version = "0.1.0"

// NewRootCmd builds the factkeeper command tree.
func NewRootCmd() *cobra.Command {
	rootCmd := &cobra.Command{
		Use:           "factkeeper",
		Short:         "FactKeeper business rules engine",
		Long:          `FactKeeper evaluates rule sets of nested all/any/not condition trees against fact values and emits the events of the rules that pass.`,
		Version:       Version,
		SilenceUsage:  true,
		SilenceErrors: false,
	}

	flags := rootCmd.PersistentFlags()
	flags.String("config", "", "config file path")
	flags.String("db-url", "", "database connection URL (sqlite://path or postgres://...)")
	flags.String("data-dir", "", "directory holding the JSON document when no database is configured")
	flags.String("log-level", "info", "log level (debug, info, warn, error)")
	flags.String("log-format", "json", "log format (json, text)")

	rootCmd.AddCommand(
		newMigrateCmd(),
		newServeCmd(),
		newRunCmd(),
		newExportCmd(),
		newImportCmd(),
		newValidateCmd(),
		newFactsCmd(),
		newRulesCmd(),
		newResetCmd(),
	)
	return rootCmd
}

// Execute runs the root command.
func Execute() error {
	return NewRootCmd().Execute()
}
