package product

import (
	"context"
	"time"
)

// RemoteAPI is the authoritative backend the sync service talks to while
// online. Implementations convert transport failures into the domain error
// taxonomy before returning.
type RemoteAPI interface {
	QueryPaginated(ctx context.Context, query ProductQuery) (*ProductPage, error)
	GetByID(ctx context.Context, id string) (*Product, error)
	Create(ctx context.Context, cmd CreateProductCommand) (*Product, error)
	Update(ctx context.Context, cmd UpdateProductCommand) error
	Delete(ctx context.Context, ids []string) error
}

// CacheStore is the offline bookkeeping layer: entity cache, cached pages and
// the three durable pending-mutation queues.
type CacheStore interface {
	SaveProduct(ctx context.Context, p *Product) error
	GetProduct(ctx context.Context, id string) (*Product, bool, error)

	SavePage(ctx context.Context, cacheKey string, page *ProductPage) error
	GetPage(ctx context.Context, cacheKey string) (*ProductPage, bool, error)
	AllPages(ctx context.Context) (map[string]*ProductPage, error)

	ApplyCreate(ctx context.Context, p *Product) error
	ApplyUpdate(ctx context.Context, p *Product) error
	RemoveProducts(ctx context.Context, ids []string) error

	EnqueueCreate(ctx context.Context, cmd CreateProductCommand) error
	EnqueueUpdate(ctx context.Context, cmd UpdateProductCommand) error
	EnqueueDelete(ctx context.Context, cmd DeleteProductsCommand) error
	PendingMutations(ctx context.Context) (*PendingMutations, error)
	TrimPending(ctx context.Context, creates, updates, deletes int) error
	ClearPending(ctx context.Context) error
}

// ReadCache dedupes bursts of identical online reads behind a short TTL.
type ReadCache interface {
	GetOrSet(ctx context.Context, key string, dest any, fallback func() (any, error), tags []string, ttl time.Duration) error
	ClearByTags(ctx context.Context, tags []string) error
}

// Connectivity reports the current link state and transition events.
// Subscribers receive at most one callback per observed transition.
type Connectivity interface {
	IsOnline() bool
	Subscribe(fn func(online bool)) (unsubscribe func())
}
