// Package productcache is the product-specific cache: entities by id, cached
// paginated views, and the durable queues of mutations waiting for replay.
package productcache

import (
	"context"
	"sync"

	"shelfsync.io/shelfsync/app/domain/product"
	"shelfsync.io/shelfsync/app/infrastructure/cache"
	"shelfsync.io/shelfsync/app/utils/functional"
)

const (
	productKeyPrefix = "product:"

	TagProduct    = "product"
	TagPagination = "pagination"
	tagQueue      = "queue"

	keyPendingCreates = "pending:create"
	keyPendingUpdates = "pending:update"
	keyPendingDeletes = "pending:delete"
)

// Service implements product.CacheStore. All queue access is a
// read-modify-write of a stored list, so it runs under one mutex; without it
// two concurrent enqueues would overwrite each other.
type Service struct {
	cache *cache.Gateway
	mu    sync.Mutex
}

func NewService(gateway *cache.Gateway) *Service {
	return &Service{cache: gateway}
}

func (s *Service) SaveProduct(ctx context.Context, p *product.Product) error {
	return s.cache.Set(ctx, productKeyPrefix+p.ID, p, []string{TagProduct}, 0)
}

func (s *Service) GetProduct(ctx context.Context, id string) (*product.Product, bool, error) {
	var p product.Product
	found, err := s.cache.Get(ctx, productKeyPrefix+id, &p)
	if err != nil || !found {
		return nil, false, err
	}
	return &p, true, nil
}

func (s *Service) SavePage(ctx context.Context, cacheKey string, page *product.ProductPage) error {
	return s.cache.Set(ctx, cacheKey, page, []string{TagPagination}, 0)
}

func (s *Service) GetPage(ctx context.Context, cacheKey string) (*product.ProductPage, bool, error) {
	var page product.ProductPage
	found, err := s.cache.Get(ctx, cacheKey, &page)
	if err != nil || !found {
		return nil, false, err
	}
	return &page, true, nil
}

// AllPages returns every cached paginated view keyed by its cache key.
func (s *Service) AllPages(ctx context.Context) (map[string]*product.ProductPage, error) {
	raw, err := s.cache.GetByTags(ctx, []string{TagPagination})
	if err != nil {
		return nil, err
	}
	pages := make(map[string]*product.ProductPage, len(raw))
	for key, data := range raw {
		var page product.ProductPage
		if err := s.cache.Decode(data, &page); err != nil {
			return nil, err
		}
		pages[key] = &page
	}
	return pages, nil
}

// ApplyCreate stores the entity and prepends it to every cached page. Keyword
// filters cannot be evaluated locally, so every view gets the new item; the
// next online fetch replaces the page with authoritative content.
func (s *Service) ApplyCreate(ctx context.Context, p *product.Product) error {
	if err := s.SaveProduct(ctx, p); err != nil {
		return err
	}
	return s.updatePages(ctx, func(page *product.ProductPage) bool {
		for i := range page.Items {
			if page.Items[i].ID == p.ID {
				page.Items[i] = *p
				return true
			}
		}
		page.Items = append([]product.Product{*p}, page.Items...)
		page.TotalItems++
		return true
	})
}

// ApplyUpdate stores the entity and replaces it in every cached page that
// contains it.
func (s *Service) ApplyUpdate(ctx context.Context, p *product.Product) error {
	if err := s.SaveProduct(ctx, p); err != nil {
		return err
	}
	return s.updatePages(ctx, func(page *product.ProductPage) bool {
		changed := false
		for i := range page.Items {
			if page.Items[i].ID == p.ID {
				page.Items[i] = *p
				changed = true
			}
		}
		return changed
	})
}

// RemoveProducts drops the entities and filters them out of every cached page,
// decrementing each page's total by the number of items actually removed from
// it. This scans views × items, which stays cheap: only recently navigated
// views are cached.
func (s *Service) RemoveProducts(ctx context.Context, ids []string) error {
	removed := make(map[string]struct{}, len(ids))
	for _, id := range ids {
		removed[id] = struct{}{}
		if err := s.cache.Delete(ctx, productKeyPrefix+id); err != nil {
			return err
		}
	}
	return s.updatePages(ctx, func(page *product.ProductPage) bool {
		kept := functional.Filter(page.Items, func(item product.Product) bool {
			_, gone := removed[item.ID]
			return !gone
		})
		if len(kept) == len(page.Items) {
			return false
		}
		page.TotalItems -= len(page.Items) - len(kept)
		page.Items = kept
		if page.TotalItems < len(page.Items) {
			page.TotalItems = len(page.Items)
		}
		return true
	})
}

func (s *Service) updatePages(ctx context.Context, apply func(*product.ProductPage) bool) error {
	pages, err := s.AllPages(ctx)
	if err != nil {
		return err
	}
	for key, page := range pages {
		if !apply(page) {
			continue
		}
		if err := s.SavePage(ctx, key, page); err != nil {
			return err
		}
	}
	return nil
}

func (s *Service) EnqueueCreate(ctx context.Context, cmd product.CreateProductCommand) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	return appendToQueue(ctx, s.cache, keyPendingCreates, cmd)
}

func (s *Service) EnqueueUpdate(ctx context.Context, cmd product.UpdateProductCommand) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	return appendToQueue(ctx, s.cache, keyPendingUpdates, cmd)
}

func (s *Service) EnqueueDelete(ctx context.Context, cmd product.DeleteProductsCommand) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	return appendToQueue(ctx, s.cache, keyPendingDeletes, cmd)
}

// PendingMutations snapshots all three queues.
func (s *Service) PendingMutations(ctx context.Context) (*product.PendingMutations, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	creates, err := readQueue[product.CreateProductCommand](ctx, s.cache, keyPendingCreates)
	if err != nil {
		return nil, err
	}
	updates, err := readQueue[product.UpdateProductCommand](ctx, s.cache, keyPendingUpdates)
	if err != nil {
		return nil, err
	}
	deletes, err := readQueue[product.DeleteProductsCommand](ctx, s.cache, keyPendingDeletes)
	if err != nil {
		return nil, err
	}
	return &product.PendingMutations{Creates: creates, Updates: updates, Deletes: deletes}, nil
}

// TrimPending removes the first creates/updates/deletes entries of each queue:
// the prefix a sync pass has replayed. Mutations enqueued after the snapshot
// stay queued.
func (s *Service) TrimPending(ctx context.Context, creates, updates, deletes int) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if err := trimQueue[product.CreateProductCommand](ctx, s.cache, keyPendingCreates, creates); err != nil {
		return err
	}
	if err := trimQueue[product.UpdateProductCommand](ctx, s.cache, keyPendingUpdates, updates); err != nil {
		return err
	}
	return trimQueue[product.DeleteProductsCommand](ctx, s.cache, keyPendingDeletes, deletes)
}

// ClearPending unconditionally empties all three queues.
func (s *Service) ClearPending(ctx context.Context) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	for _, key := range []string{keyPendingCreates, keyPendingUpdates, keyPendingDeletes} {
		if err := s.cache.Delete(ctx, key); err != nil {
			return err
		}
	}
	return nil
}

func readQueue[T any](ctx context.Context, g *cache.Gateway, key string) ([]T, error) {
	var items []T
	found, err := g.Get(ctx, key, &items)
	if err != nil {
		return nil, err
	}
	if !found {
		return []T{}, nil
	}
	return items, nil
}

func appendToQueue[T any](ctx context.Context, g *cache.Gateway, key string, item T) error {
	items, err := readQueue[T](ctx, g, key)
	if err != nil {
		return err
	}
	items = append(items, item)
	return g.Set(ctx, key, items, []string{tagQueue}, 0)
}

func trimQueue[T any](ctx context.Context, g *cache.Gateway, key string, n int) error {
	if n <= 0 {
		return nil
	}
	items, err := readQueue[T](ctx, g, key)
	if err != nil {
		return err
	}
	if n > len(items) {
		n = len(items)
	}
	return g.Set(ctx, key, items[n:], []string{tagQueue}, 0)
}
