// Package cache is a thin read-through/write-allocate layer over the local
// store. All higher layers go through it so serialization and expiration
// handling live in one place.
package cache

import (
	"context"
	"fmt"
	"time"

	"shelfsync.io/shelfsync/app/infrastructure/localstore"
	"shelfsync.io/shelfsync/app/utils/logger"
)

// Gateway binds a local store to one logical database name.
type Gateway struct {
	store  localstore.Store
	dbName string
}

func NewGateway(store localstore.Store, dbName string) *Gateway {
	return &Gateway{store: store, dbName: dbName}
}

// GetOrSet returns the cached value for key, or invokes fallback, stores its
// result under the given tags/ttl and returns it. The fallback runs at most
// once per call; concurrent callers racing on the same miss each resolve it
// independently.
func (g *Gateway) GetOrSet(ctx context.Context, key string, dest any, fallback func() (any, error), tags []string, ttl time.Duration) error {
	found, err := g.store.Get(ctx, g.dbName, key, dest)
	if err != nil {
		return err
	}
	if found {
		return nil
	}

	value, err := fallback()
	if err != nil {
		return fmt.Errorf("fallback function failed: %w", err)
	}

	if err := g.store.Save(ctx, g.dbName, key, value, tags, ttl); err != nil {
		logger.GetLogger().Error(fmt.Sprintf("Failed to cache value: %v", err))
		// Don't return error, just log it
	}

	// Copy the value to dest
	data, err := g.store.Codec().Marshal(value)
	if err != nil {
		return fmt.Errorf("failed to marshal fallback value: %w", err)
	}
	return g.store.Codec().Unmarshal(data, dest)
}

func (g *Gateway) Set(ctx context.Context, key string, value any, tags []string, ttl time.Duration) error {
	return g.store.Save(ctx, g.dbName, key, value, tags, ttl)
}

func (g *Gateway) Get(ctx context.Context, key string, dest any) (bool, error) {
	return g.store.Get(ctx, g.dbName, key, dest)
}

func (g *Gateway) Delete(ctx context.Context, key string) error {
	return g.store.Delete(ctx, g.dbName, key)
}

// GetByTags returns the raw values of all live entries carrying any of the
// tags; decode individual values with Decode.
func (g *Gateway) GetByTags(ctx context.Context, tags []string) (map[string][]byte, error) {
	return g.store.GetByTags(ctx, g.dbName, tags)
}

// ClearByTags invalidates every entry carrying any of the tags.
func (g *Gateway) ClearByTags(ctx context.Context, tags []string) error {
	return g.store.DeleteByTags(ctx, g.dbName, tags)
}

func (g *Gateway) Clear(ctx context.Context) error {
	return g.store.Clear(ctx, g.dbName)
}

func (g *Gateway) Decode(data []byte, dest any) error {
	return g.store.Codec().Unmarshal(data, dest)
}
