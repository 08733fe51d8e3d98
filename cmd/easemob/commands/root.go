package commands

import (
	"github.com/spf13/cobra"

	"github.com/fivetwenty-io/easemob/internal/constants"
)

// NewRootCommand creates the easemob command tree.
func NewRootCommand(version, commit, date string) *cobra.Command {
	rootCmd := &cobra.Command{
		Use:   "easemob",
		Short: "Easemob IM REST API CLI",
		Long: `A command-line interface for the Easemob IM REST API.

Credentials and the target application are read from $HOME/.easemob/config.yml
or the file given with --config. Every setting can be overridden with an
EASEMOB_ environment variable, for example EASEMOB_CLIENT_SECRET.`,
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRunE: func(cmd *cobra.Command, _ []string) error {
			return validateColorMode(cmd)
		},
	}

	// Global flags
	rootCmd.PersistentFlags().StringP("config", "c", "", "config file (default is $HOME/.easemob/config.yml)")
	rootCmd.PersistentFlags().StringP("output", "o", constants.FormatTable, "output format (table, json, yaml)")
	rootCmd.PersistentFlags().BoolP("verbose", "v", false, "log HTTP requests to stderr")
	rootCmd.PersistentFlags().String("color", colorAuto, "colorize table output (auto, always, never)")

	rootCmd.AddCommand(NewVersionCommand(version, commit, date))
	rootCmd.AddCommand(NewConfigCommand())
	rootCmd.AddCommand(NewTokenCommand())
	rootCmd.AddCommand(NewUsersCommand())
	rootCmd.AddCommand(NewMessagesCommand())
	rootCmd.AddCommand(NewFilesCommand())

	return rootCmd
}
