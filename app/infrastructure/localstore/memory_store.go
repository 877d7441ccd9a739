package localstore

import (
	"context"
	"sync"
	"time"

	"shelfsync.io/shelfsync/app/domain/common"
)

type memoryEntry struct {
	data      []byte
	tags      map[string]struct{}
	expiresAt time.Time // zero means no expiry
}

func (e *memoryEntry) expired(now time.Time) bool {
	return !e.expiresAt.IsZero() && now.After(e.expiresAt)
}

// MemoryStore keeps entries in process memory. It implements the same lazy
// eviction and tag semantics as the persistent backends and is the default
// fixture in tests.
type MemoryStore struct {
	mu    sync.RWMutex
	codec Codec
	dbs   map[string]map[string]*memoryEntry
}

func NewMemoryStore(codec Codec) *MemoryStore {
	if codec == nil {
		codec = JSONCodec{}
	}
	return &MemoryStore{
		codec: codec,
		dbs:   map[string]map[string]*memoryEntry{},
	}
}

func (s *MemoryStore) Save(ctx context.Context, db, key string, value any, tags []string, ttl time.Duration) error {
	data, err := s.codec.Marshal(value)
	if err != nil {
		return common.NewStorage("a8f1d9c2-4b6e-4073-9c1a-5e8d2f7b3a60", err)
	}

	entry := &memoryEntry{data: data, tags: map[string]struct{}{}}
	for _, tag := range tags {
		entry.tags[tag] = struct{}{}
	}
	if ttl > 0 {
		entry.expiresAt = time.Now().Add(ttl)
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	entries, ok := s.dbs[db]
	if !ok {
		entries = map[string]*memoryEntry{}
		s.dbs[db] = entries
	}
	entries[key] = entry
	return nil
}

func (s *MemoryStore) Get(ctx context.Context, db, key string, dest any) (bool, error) {
	s.mu.Lock()
	entry, ok := s.dbs[db][key]
	if ok && entry.expired(time.Now()) {
		delete(s.dbs[db], key)
		ok = false
	}
	s.mu.Unlock()
	if !ok {
		return false, nil
	}
	if err := s.codec.Unmarshal(entry.data, dest); err != nil {
		return false, common.NewStorage("3e7b5a90-1c2d-4f68-8d4b-a6f0e9c1b257", err)
	}
	return true, nil
}

func (s *MemoryStore) GetByTags(ctx context.Context, db string, tags []string) (map[string][]byte, error) {
	now := time.Now()
	result := map[string][]byte{}

	s.mu.Lock()
	defer s.mu.Unlock()
	for key, entry := range s.dbs[db] {
		if entry.expired(now) {
			delete(s.dbs[db], key)
			continue
		}
		if entry.hasAnyTag(tags) {
			result[key] = entry.data
		}
	}
	return result, nil
}

func (e *memoryEntry) hasAnyTag(tags []string) bool {
	for _, tag := range tags {
		if _, ok := e.tags[tag]; ok {
			return true
		}
	}
	return false
}

func (s *MemoryStore) Delete(ctx context.Context, db, key string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.dbs[db], key)
	return nil
}

func (s *MemoryStore) DeleteByTags(ctx context.Context, db string, tags []string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	for key, entry := range s.dbs[db] {
		if entry.hasAnyTag(tags) {
			delete(s.dbs[db], key)
		}
	}
	return nil
}

func (s *MemoryStore) Clear(ctx context.Context, db string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.dbs, db)
	return nil
}

func (s *MemoryStore) Codec() Codec {
	return s.codec
}

func (s *MemoryStore) Close() error {
	return nil
}
