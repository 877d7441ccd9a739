package domain

import (
	"shelfsync.io/shelfsync/app/domain/product"
	"shelfsync.io/shelfsync/app/infrastructure/cache"
	"shelfsync.io/shelfsync/app/infrastructure/connectivity"
	"shelfsync.io/shelfsync/app/infrastructure/localstore"
	"shelfsync.io/shelfsync/app/infrastructure/productcache"
	"shelfsync.io/shelfsync/app/utils/httpclients/productapi"
	"shelfsync.io/shelfsync/config/environment_variables"
)

// Services bundles one session's worth of wired components.
type Services struct {
	Store       localstore.Store
	Monitor     *connectivity.Monitor
	ProductSync *product.SyncService
}

// NewServices assembles the full client stack from environment configuration:
// local store, connectivity monitor and the product sync service. The caller
// owns the lifecycle (Monitor.Start, then Close on shutdown).
func NewServices() (*Services, error) {
	env := &environment_variables.EnvironmentVariables

	store, err := localstore.NewStore()
	if err != nil {
		return nil, err
	}

	apiClient := productapi.NewClient(env.SHELFSYNC_API_BASE_URL)
	monitor := connectivity.NewMonitor(apiClient, env.SHELFSYNC_PROBE_INTERVAL)

	products := productcache.NewService(cache.NewGateway(store, "products"))
	readCache := cache.NewGateway(store, "readthrough")

	sync := product.NewSyncService(apiClient, products, readCache, monitor, product.SyncConfig{
		OfflineMode:  env.SHELFSYNC_OFFLINE_MODE,
		ReadCacheTTL: env.SHELFSYNC_READ_CACHE_TTL,
	})

	return &Services{Store: store, Monitor: monitor, ProductSync: sync}, nil
}

// Close releases the session's resources.
func (s *Services) Close() error {
	s.ProductSync.Close()
	s.Monitor.Stop()
	return s.Store.Close()
}
