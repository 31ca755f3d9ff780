// Package cli holds the ayaocrm command tree.
package cli

import (
	"github.com/spf13/cobra"
)

// RootOptions holds global flags for all commands.
type RootOptions struct {
	Verbose bool
	DataDir string
}

// NewRootCommand creates the root command for the ayaocrm CLI.
func NewRootCommand() *cobra.Command {
	opts := &RootOptions{}

	cmd := &cobra.Command{
		Use:   "ayaocrm",
		Short: "Small multi-user CRM",
		Long: `ayaocrm tracks customers and follow-up notes for a small sales team.

Configuration is read from CRM_* environment variables; see "ayaocrm serve --help".`,
		SilenceUsage: true,
	}

	// Global flags
	cmd.PersistentFlags().BoolVarP(&opts.Verbose, "verbose", "v", false, "debug logging")
	cmd.PersistentFlags().StringVar(&opts.DataDir, "data-dir", "", "override CRM_DATA_DIR")

	// Add subcommands
	cmd.AddCommand(NewServeCommand(opts))
	cmd.AddCommand(NewInitCommand(opts))
	cmd.AddCommand(NewBackupCommand(opts))
	cmd.AddCommand(NewExportCommand(opts))
	cmd.AddCommand(NewUserCommand(opts))

	return cmd
}
