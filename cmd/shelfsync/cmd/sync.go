package cmd

import (
	"fmt"

	"github.com/spf13/cobra"
	"shelfsync.io/shelfsync/app/domain"
	"shelfsync.io/shelfsync/app/domain/product"
)

var syncCmd = &cobra.Command{
	Use:   "sync",
	Short: "Replay queued offline mutations against the backend",
	RunE: func(cmd *cobra.Command, args []string) error {
		services, err := domain.NewServices()
		if err != nil {
			return err
		}
		defer services.Close()

		unsubscribe := services.ProductSync.SubscribeProgress(func(p product.SyncProgress) {
			fmt.Printf("%s %d/%d %s\n", p.Status, p.Processed, p.Total, p.Message)
		})
		defer unsubscribe()

		if online := services.Monitor.CheckNow(cmd.Context()); !online {
			return fmt.Errorf("backend is unreachable, queued mutations kept for later")
		}
		return services.ProductSync.Sync(cmd.Context())
	},
}

func init() {
	rootCmd.AddCommand(syncCmd)
}
