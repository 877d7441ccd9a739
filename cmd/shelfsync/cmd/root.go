package cmd

import (
	"os"

	"github.com/spf13/cobra"
	"shelfsync.io/shelfsync/config/environment_variables"
)

var rootCmd = &cobra.Command{
	Use:   "shelfsync",
	Short: "Offline-first product inventory sync client",
	Long:  "Client-side cache and synchronization engine for the product inventory backend.",
	PersistentPreRun: func(cmd *cobra.Command, args []string) {
		environment_variables.EnvironmentVariables.LoadFromEnv()
	},
}

func Execute() {
	if err := rootCmd.Execute(); err != nil {
		os.Exit(1)
	}
}
