package product

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/sourcegraph/conc/pool"
	"shelfsync.io/shelfsync/app/domain/common"
	"shelfsync.io/shelfsync/app/utils/idgen"
	"shelfsync.io/shelfsync/app/utils/logger"
)

// TagReadthrough marks short-lived entries that dedupe bursts of identical
// online reads. Every successful write drops the tag so the next read refetches.
const TagReadthrough = "readthrough"

const mirrorWorkers = 4

type SyncConfig struct {
	// OfflineMode permits queueing writes while disconnected. With the flag
	// off, offline writes fail instead of queueing.
	OfflineMode bool
	// ReadCacheTTL bounds how long an online read can be served from cache.
	ReadCacheTTL time.Duration
}

// SyncService is the proxy the UI talks to. It decides online vs. offline per
// operation, keeps the local cache bookkeeping while offline, and replays
// queued mutations against the backend when connectivity returns.
type SyncService struct {
	remote    RemoteAPI
	cache     CacheStore
	readCache ReadCache
	conn      Connectivity
	config    SyncConfig

	// syncMu serializes reconciliation passes; queue mutation itself is
	// serialized inside the cache store.
	syncMu sync.Mutex

	progressMu   sync.Mutex
	progress     SyncProgress
	progressSubs map[int]func(SyncProgress)
	nextSubID    int

	unsubscribe func()
}

func NewSyncService(remote RemoteAPI, cache CacheStore, readCache ReadCache, conn Connectivity, config SyncConfig) *SyncService {
	if config.ReadCacheTTL <= 0 {
		config.ReadCacheTTL = 15 * time.Second
	}
	s := &SyncService{
		remote:       remote,
		cache:        cache,
		readCache:    readCache,
		conn:         conn,
		config:       config,
		progress:     SyncProgress{Status: SyncStatusIdle},
		progressSubs: map[int]func(SyncProgress){},
	}
	s.unsubscribe = conn.Subscribe(func(online bool) {
		if !online {
			return
		}
		go func() {
			if err := s.Sync(context.Background()); err != nil {
				logger.GetLogger().
					WithField("error_code", "1f6a2c84-9f1d-4a31-bb4e-6a0cf0f6f3d2").
					Errorf("reconnect sync failed: %v", err)
			}
		}()
	})
	return s
}

// Close detaches the service from connectivity notifications.
func (s *SyncService) Close() {
	if s.unsubscribe != nil {
		s.unsubscribe()
	}
}

// GetProducts serves a paginated catalog query. Online reads go through the
// short-TTL read cache; offline reads are served from the cached pages and
// degrade to an empty page rather than blocking on connectivity.
func (s *SyncService) GetProducts(ctx context.Context, query ProductQuery) (*ProductPage, error) {
	query = query.Normalized()
	if !s.conn.IsOnline() {
		page, found, err := s.cache.GetPage(ctx, query.CacheKey())
		if err != nil {
			return nil, err
		}
		if !found {
			return &ProductPage{
				Items:       []Product{},
				CurrentPage: query.PageNumber,
				PageSize:    query.PageSize,
			}, nil
		}
		return page, nil
	}

	var page ProductPage
	err := s.readCache.GetOrSet(ctx, "rt:"+query.CacheKey(), &page, func() (any, error) {
		fetched, err := s.remote.QueryPaginated(ctx, query)
		if err != nil {
			return nil, err
		}
		s.mirrorPage(ctx, query.CacheKey(), fetched)
		return fetched, nil
	}, []string{TagReadthrough}, s.config.ReadCacheTTL)
	if err != nil {
		return nil, err
	}
	return &page, nil
}

// GetProduct returns a single product by id, from the backend when online and
// from the entity cache otherwise.
func (s *SyncService) GetProduct(ctx context.Context, id string) (*Product, error) {
	if !s.conn.IsOnline() {
		p, found, err := s.cache.GetProduct(ctx, id)
		if err != nil {
			return nil, err
		}
		if !found {
			return nil, common.NewNotFound("e7c8b7d0-53c1-4f6e-9d0a-2f8f3a1f9b44", fmt.Sprintf("product %s not found in offline cache", id))
		}
		return p, nil
	}

	var p Product
	err := s.readCache.GetOrSet(ctx, "rt:product:"+id, &p, func() (any, error) {
		fetched, err := s.remote.GetByID(ctx, id)
		if err != nil {
			return nil, err
		}
		if s.config.OfflineMode {
			if err := s.cache.SaveProduct(ctx, fetched); err != nil {
				return nil, err
			}
		}
		return fetched, nil
	}, []string{TagReadthrough}, s.config.ReadCacheTTL)
	if err != nil {
		return nil, err
	}
	return &p, nil
}

// Create creates a product online, or queues the creation while offline with a
// locally synthesized id so the UI can proceed optimistically.
func (s *SyncService) Create(ctx context.Context, cmd CreateProductCommand) (*Product, error) {
	if s.conn.IsOnline() {
		created, err := s.createRemote(ctx, cmd)
		if err != nil {
			return nil, err
		}
		s.invalidateReads(ctx)
		return created, nil
	}
	if !s.config.OfflineMode {
		return nil, common.NewOfflineDisabled("0b9c2f1e-7a4d-4c52-8a6e-efb6a7f1c9d3")
	}

	if cmd.ID == "" {
		id, err := idgen.GenerateProductID()
		if err != nil {
			return nil, common.NewProblem("4d1e8b9a-2c37-4f80-b1de-9c54e2a7f6b0", "failed to generate product id", err.Error())
		}
		cmd.ID = id
	}
	created := cmd.ToProduct()
	if err := s.cache.ApplyCreate(ctx, &created); err != nil {
		return nil, err
	}
	if err := s.cache.EnqueueCreate(ctx, cmd); err != nil {
		return nil, err
	}
	return &created, nil
}

// Update updates a product online, or applies the change locally and queues it
// while offline.
func (s *SyncService) Update(ctx context.Context, cmd UpdateProductCommand) error {
	if s.conn.IsOnline() {
		if err := s.updateRemote(ctx, cmd); err != nil {
			return err
		}
		s.invalidateReads(ctx)
		return nil
	}
	if !s.config.OfflineMode {
		return common.NewOfflineDisabled("8a3f6c2d-91b4-4e07-a5c8-3d2b9e6f4a71")
	}

	updated := cmd.ToProduct()
	if err := s.cache.ApplyUpdate(ctx, &updated); err != nil {
		return err
	}
	return s.cache.EnqueueUpdate(ctx, cmd)
}

// Delete removes products online, or removes them from the local caches and
// queues the deletion while offline.
func (s *SyncService) Delete(ctx context.Context, ids []string) error {
	if s.conn.IsOnline() {
		if err := s.deleteRemote(ctx, ids); err != nil {
			return err
		}
		s.invalidateReads(ctx)
		return nil
	}
	if !s.config.OfflineMode {
		return common.NewOfflineDisabled("5e0d7b38-c462-4a19-9f3e-b81c5a2d6e94")
	}

	if err := s.cache.RemoveProducts(ctx, ids); err != nil {
		return err
	}
	return s.cache.EnqueueDelete(ctx, DeleteProductsCommand{IDs: ids})
}

// Sync replays queued mutations against the backend: all creates, then all
// updates, then all deletes, each kind in enqueue order. On a replay failure
// the pass aborts: replayed entries are trimmed from the queues, unprocessed
// ones stay queued for the next reconnect, and Failed is published.
func (s *SyncService) Sync(ctx context.Context) error {
	if !s.conn.IsOnline() {
		logger.GetLogger().Debug("sync requested while offline, skipping")
		return nil
	}
	s.syncMu.Lock()
	defer s.syncMu.Unlock()

	pending, err := s.cache.PendingMutations(ctx)
	if err != nil {
		return err
	}
	total := pending.Total()
	if total == 0 {
		s.publishProgress(SyncProgress{Status: SyncStatusIdle, Message: "nothing to sync"})
		return nil
	}

	log := logger.GetLogger().WithField("pending", total)
	log.Info("starting sync of queued mutations")
	processed := 0
	s.publishProgress(SyncProgress{Status: SyncStatusSyncing, Message: "replaying queued changes", Total: total})

	var creates, updates, deletes int
	fail := func(cause error) error {
		if trimErr := s.cache.TrimPending(ctx, creates, updates, deletes); trimErr != nil {
			log.Errorf("failed to trim replayed mutations: %v", trimErr)
		}
		s.publishProgress(SyncProgress{Status: SyncStatusFailed, Message: cause.Error(), Total: total, Processed: processed})
		return cause
	}

	for _, cmd := range pending.Creates {
		if _, err := s.createRemote(ctx, cmd); err != nil {
			return fail(err)
		}
		creates++
		processed++
		s.publishProgress(SyncProgress{Status: SyncStatusSyncing, Message: "replaying queued changes", Total: total, Processed: processed})
	}
	for _, cmd := range pending.Updates {
		if err := s.updateRemote(ctx, cmd); err != nil {
			return fail(err)
		}
		updates++
		processed++
		s.publishProgress(SyncProgress{Status: SyncStatusSyncing, Message: "replaying queued changes", Total: total, Processed: processed})
	}
	for _, cmd := range pending.Deletes {
		if err := s.deleteRemote(ctx, cmd.IDs); err != nil {
			return fail(err)
		}
		deletes++
		processed++
		s.publishProgress(SyncProgress{Status: SyncStatusSyncing, Message: "replaying queued changes", Total: total, Processed: processed})
	}

	if err := s.cache.TrimPending(ctx, creates, updates, deletes); err != nil {
		// Not fail(): a second trim could eat mutations enqueued since the
		// snapshot.
		s.publishProgress(SyncProgress{Status: SyncStatusFailed, Message: err.Error(), Total: total, Processed: processed})
		return err
	}
	s.invalidateReads(ctx)
	log.Info("sync completed")
	s.publishProgress(SyncProgress{Status: SyncStatusCompleted, Message: "sync completed", Total: total, Processed: processed})
	return nil
}

// Invalidate drops the read-through cache so the next reads hit the backend.
func (s *SyncService) Invalidate(ctx context.Context) error {
	return s.readCache.ClearByTags(ctx, []string{TagReadthrough})
}

// Progress returns the last published sync progress.
func (s *SyncService) Progress() SyncProgress {
	s.progressMu.Lock()
	defer s.progressMu.Unlock()
	return s.progress
}

// SubscribeProgress registers a progress callback and returns its
// unsubscribe function.
func (s *SyncService) SubscribeProgress(fn func(SyncProgress)) (unsubscribe func()) {
	s.progressMu.Lock()
	id := s.nextSubID
	s.nextSubID++
	s.progressSubs[id] = fn
	s.progressMu.Unlock()
	return func() {
		s.progressMu.Lock()
		delete(s.progressSubs, id)
		s.progressMu.Unlock()
	}
}

func (s *SyncService) publishProgress(p SyncProgress) {
	s.progressMu.Lock()
	s.progress = p
	subs := make([]func(SyncProgress), 0, len(s.progressSubs))
	for _, fn := range s.progressSubs {
		subs = append(subs, fn)
	}
	s.progressMu.Unlock()
	for _, fn := range subs {
		fn(p)
	}
}

// createRemote is the single online-create path, shared between user-initiated
// creates and queue replay.
func (s *SyncService) createRemote(ctx context.Context, cmd CreateProductCommand) (*Product, error) {
	created, err := s.remote.Create(ctx, cmd)
	if err != nil {
		return nil, err
	}
	if s.config.OfflineMode {
		if err := s.cache.ApplyCreate(ctx, created); err != nil {
			return nil, err
		}
	}
	return created, nil
}

func (s *SyncService) updateRemote(ctx context.Context, cmd UpdateProductCommand) error {
	if err := s.remote.Update(ctx, cmd); err != nil {
		return err
	}
	if s.config.OfflineMode {
		updated := cmd.ToProduct()
		return s.cache.ApplyUpdate(ctx, &updated)
	}
	return nil
}

func (s *SyncService) deleteRemote(ctx context.Context, ids []string) error {
	if err := s.remote.Delete(ctx, ids); err != nil {
		return err
	}
	if s.config.OfflineMode {
		return s.cache.RemoveProducts(ctx, ids)
	}
	return nil
}

func (s *SyncService) invalidateReads(ctx context.Context) {
	if err := s.readCache.ClearByTags(ctx, []string{TagReadthrough}); err != nil {
		logger.GetLogger().
			WithField("error_code", "2c4f9a61-0db8-47e3-8b5a-7e1d3c9f0a26").
			Errorf("failed to invalidate read cache: %v", err)
	}
}

// mirrorPage copies a freshly fetched page into the offline caches so later
// offline reads have data. Entity writes fan out over a small worker pool.
func (s *SyncService) mirrorPage(ctx context.Context, cacheKey string, page *ProductPage) {
	if !s.config.OfflineMode {
		return
	}
	if err := s.cache.SavePage(ctx, cacheKey, page); err != nil {
		logger.GetLogger().
			WithField("error_code", "9b7e3d15-62af-4c08-b4d9-1a5c8f2e6d73").
			Errorf("failed to mirror page: %v", err)
		return
	}
	workers := pool.New().WithErrors().WithMaxGoroutines(mirrorWorkers)
	for _, item := range page.Items {
		workers.Go(func() error {
			return s.cache.SaveProduct(ctx, &item)
		})
	}
	if err := workers.Wait(); err != nil {
		logger.GetLogger().
			WithField("error_code", "6f2a8c40-d17b-4e95-a3c6-0e9d4b7f1a58").
			Errorf("failed to mirror page items: %v", err)
	}
}
