package cmd

import (
	"context"
	"errors"
	"fmt"
	"net"
	"net/http"
	"sync/atomic"
	"time"

	"github.com/spf13/cobra"
	"shelfsync.io/shelfsync/app/domain/product"
	"shelfsync.io/shelfsync/app/infrastructure/cache"
	"shelfsync.io/shelfsync/app/infrastructure/connectivity"
	"shelfsync.io/shelfsync/app/infrastructure/localstore"
	"shelfsync.io/shelfsync/app/infrastructure/productcache"
	"shelfsync.io/shelfsync/app/interfaces/http/stubserver"
	"shelfsync.io/shelfsync/app/utils/httpclients/productapi"
)

// switchableProber lets the demo force the offline path while the stub
// backend keeps running.
type switchableProber struct {
	inner   connectivity.Prober
	offline atomic.Bool
}

func (p *switchableProber) Ping(ctx context.Context) error {
	if p.offline.Load() {
		return errors.New("forced offline")
	}
	return p.inner.Ping(ctx)
}

var demoCmd = &cobra.Command{
	Use:   "demo",
	Short: "Walk through an offline edit and reconnect reconciliation",
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx := cmd.Context()

		// Embedded stub backend on an ephemeral port.
		listener, err := net.Listen("tcp", "127.0.0.1:0")
		if err != nil {
			return err
		}
		go http.Serve(listener, stubserver.New().Engine())
		baseURL := fmt.Sprintf("http://%s", listener.Addr())
		fmt.Printf("stub backend listening on %s\n", baseURL)

		apiClient := productapi.NewClient(baseURL)
		prober := &switchableProber{inner: apiClient}
		monitor := connectivity.NewMonitor(prober, 200*time.Millisecond)

		store := localstore.NewMemoryStore(localstore.JSONCodec{})
		defer store.Close()
		products := productcache.NewService(cache.NewGateway(store, "products"))
		readCache := cache.NewGateway(store, "readthrough")

		svc := product.NewSyncService(apiClient, products, readCache, monitor, product.SyncConfig{
			OfflineMode:  true,
			ReadCacheTTL: 15 * time.Second,
		})
		defer svc.Close()

		unsubscribe := svc.SubscribeProgress(func(p product.SyncProgress) {
			fmt.Printf("sync: %s %d/%d %s\n", p.Status, p.Processed, p.Total, p.Message)
		})
		defer unsubscribe()

		monitor.Start(ctx)
		defer monitor.Stop()

		created, err := svc.Create(ctx, product.CreateProductCommand{
			SKU: "WID-001", Name: "Widget", Category: "gadgets",
			Price: 9.99, Currency: "USD", UnitOfMeasure: "pcs",
		})
		if err != nil {
			return err
		}
		fmt.Printf("created online: %s %q\n", created.ID, created.Name)

		prober.offline.Store(true)
		monitor.CheckNow(ctx)
		fmt.Println("connection lost")

		cached, err := svc.GetProduct(ctx, created.ID)
		if err != nil {
			return err
		}
		fmt.Printf("read from offline cache: %q\n", cached.Name)

		if err := svc.Update(ctx, product.UpdateProductCommand{
			ID: created.ID, SKU: created.SKU, Name: "Widget v2", Category: created.Category,
			Price: created.Price, Currency: created.Currency, UnitOfMeasure: created.UnitOfMeasure,
		}); err != nil {
			return err
		}
		fmt.Println("updated offline, mutation queued")

		prober.offline.Store(false)
		monitor.CheckNow(ctx)
		fmt.Println("connection restored, reconciling")

		// Reconnect sync runs in the background; give it a moment.
		deadline := time.Now().Add(5 * time.Second)
		for time.Now().Before(deadline) {
			if p := svc.Progress(); p.Status == product.SyncStatusCompleted || p.Status == product.SyncStatusFailed {
				break
			}
			time.Sleep(50 * time.Millisecond)
		}

		final, err := svc.GetProduct(ctx, created.ID)
		if err != nil {
			return err
		}
		fmt.Printf("backend now has: %q\n", final.Name)
		return nil
	},
}

func init() {
	rootCmd.AddCommand(demoCmd)
}
