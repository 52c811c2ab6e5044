// Package cli implements the tasktracker command line
package cli

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/vthunder/tasktracker/internal/config"
)

// globalFlags are shared by every subcommand
type globalFlags struct {
	statePath string
	storage   string
	verbose   bool
}

// NewRootCmd builds the command tree
func NewRootCmd(version string) *cobra.Command {
	flags := &globalFlags{}

	rootCmd := &cobra.Command{
		Use:   "tasktracker",
		Short: "Personal task tracker with due-date alarms",
		Long: `tasktracker keeps a list of tasks with due dates, colors them by urgency,
and reminds you one minute before tasks with an alarm are due.

Run "tasktracker daemon" to receive alarms, or "tasktracker mcp" to expose the
task list to an MCP client.`,
		SilenceUsage:  true,
		SilenceErrors: true,
		Version:       version,
	}

	// Global flags
	rootCmd.PersistentFlags().StringVar(&flags.statePath, "state", "", "State directory (default $STATE_PATH or ./state)")
	rootCmd.PersistentFlags().StringVar(&flags.storage, "storage", "", "Storage backend: file, sqlite or memory")
	rootCmd.PersistentFlags().BoolVarP(&flags.verbose, "verbose", "v", false, "Enable debug logging")

	rootCmd.AddCommand(newListCmd(flags))
	rootCmd.AddCommand(newAddCmd(flags))
	rootCmd.AddCommand(newDoneCmd(flags))
	rootCmd.AddCommand(newUndoneCmd(flags))
	rootCmd.AddCommand(newRemoveCmd(flags))
	rootCmd.AddCommand(newUndoCmd(flags))
	rootCmd.AddCommand(newSettingsCmd(flags))
	rootCmd.AddCommand(newDaemonCmd(flags))
	rootCmd.AddCommand(newMCPCmd(flags, version))

	return rootCmd
}

// Execute runs the root command
func Execute(version string) error {
	config.LoadDotEnv()

	if err := NewRootCmd(version).Execute(); err != nil {
		fmt.Fprintln(os.Stderr, "Error:", err)
		return err
	}
	return nil
}
