// Package localstore is the persistent key/value medium underneath the cache
// layers. Entries are addressed by (database, key), serialized through a
// pluggable codec, carry a non-unique tag index and an optional absolute
// expiry. Expired entries are evicted lazily on the read that encounters them.
package localstore

import (
	"context"
	"time"
)

// Store is the local persistence contract. Backend I/O errors propagate
// unwrapped; serialization failures surface as common.KindStorage errors.
type Store interface {
	// Save overwrites any existing entry under (db, key) as a single atomic put.
	Save(ctx context.Context, db, key string, value any, tags []string, ttl time.Duration) error

	// Get decodes the entry into dest. An expired entry is deleted and
	// reported as absent.
	Get(ctx context.Context, db, key string, dest any) (bool, error)

	// GetByTags returns the raw serialized values of every live entry carrying
	// any of the given tags, deleting expired entries it encounters.
	GetByTags(ctx context.Context, db string, tags []string) (map[string][]byte, error)

	Delete(ctx context.Context, db, key string) error

	// DeleteByTags removes the union of entries matching any given tag.
	DeleteByTags(ctx context.Context, db string, tags []string) error

	// Clear drops every entry in the database.
	Clear(ctx context.Context, db string) error

	Codec() Codec

	Close() error
}
