package cmd

import (
	"github.com/spf13/cobra"
	"shelfsync.io/shelfsync/app/interfaces/http/stubserver"
	"shelfsync.io/shelfsync/app/utils/logger"
)

var serveAddr string

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Run the in-memory stub product backend",
	RunE: func(cmd *cobra.Command, args []string) error {
		logger.GetLogger().WithField("addr", serveAddr).Info("starting stub product backend")
		return stubserver.New().Run(serveAddr)
	},
}

func init() {
	serveCmd.Flags().StringVar(&serveAddr, "addr", ":8080", "listen address")
	rootCmd.AddCommand(serveCmd)
}
