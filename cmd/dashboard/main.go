package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/matthewjablack/dynamicdashboard/internal/config"
)

const appName = "dashboard"

var version = "dev"

func newRootCmd() *cobra.Command {
	root := &cobra.Command{
		Use:   appName,
		Short: "Responsive widget dashboard service",
		Long: `dashboard serves per-user widget dashboards whose layouts adapt to
five screen-width tiers, and persists every arrangement change.`,
		SilenceUsage: true,
	}
	config.RegisterFlags(root.PersistentFlags())

	root.AddCommand(
		&cobra.Command{
			Use:   "run",
			Short: "Run the server in the foreground",
			Args:  cobra.NoArgs,
			RunE:  runServe,
		},
		&cobra.Command{
			Use:   "start",
			Short: "Start the server as a background daemon",
			Args:  cobra.NoArgs,
			RunE:  runStart,
		},
		&cobra.Command{
			Use:   "stop",
			Short: "Stop the background daemon",
			Args:  cobra.NoArgs,
			RunE:  runStop,
		},
		&cobra.Command{
			Use:   "status",
			Short: "Show daemon status",
			Args:  cobra.NoArgs,
			RunE:  runStatus,
		},
		&cobra.Command{
			Use:   "nginx",
			Short: "Print a sample nginx reverse proxy configuration",
			Args:  cobra.NoArgs,
			RunE:  runNginx,
		},
		&cobra.Command{
			Use:   "version",
			Short: "Print version",
			Args:  cobra.NoArgs,
			Run: func(cmd *cobra.Command, _ []string) {
				fmt.Fprintf(cmd.OutOrStdout(), "%s %s\n", appName, version)
			},
		},
		newWidgetsCmd(),
		newProjectCmd(),
		newInspectCmd(),
	)
	return root
}

func main() {
	if err := newRootCmd().Execute(); err != nil {
		os.Exit(1)
	}
}
