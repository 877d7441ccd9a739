package localstore

import (
	"context"
	"errors"
	"time"

	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	"gorm.io/gorm/schema"
	"shelfsync.io/shelfsync/app/domain/common"
)

// CacheEntry is the row form of a cached value. (DBName, Key) is unique; an
// overwrite replaces the row and its tag rows in one transaction.
type CacheEntry struct {
	ID        uint   `gorm:"primaryKey"`
	DBName    string `gorm:"size:128;not null;uniqueIndex:idx_cache_entry_db_key,priority:1"`
	Key       string `gorm:"size:512;not null;uniqueIndex:idx_cache_entry_db_key,priority:2"`
	Value     []byte `gorm:"not null"`
	ExpiresAt *time.Time
	CreatedAt time.Time
	UpdatedAt time.Time
}

// CacheEntryTag is the secondary tag index, one row per (entry, tag).
type CacheEntryTag struct {
	ID     uint   `gorm:"primaryKey"`
	DBName string `gorm:"size:128;not null;index:idx_cache_tag_db_tag,priority:1;index:idx_cache_tag_db_key,priority:1"`
	Key    string `gorm:"size:512;not null;index:idx_cache_tag_db_key,priority:2"`
	Tag    string `gorm:"size:128;not null;index:idx_cache_tag_db_tag,priority:2"`
}

// SQLiteStore persists cache entries in a local sqlite file, the default
// backend for desktop and CLI sessions.
type SQLiteStore struct {
	db    *gorm.DB
	codec Codec
}

func NewSQLiteStore(path string, codec Codec) (*SQLiteStore, error) {
	if codec == nil {
		codec = JSONCodec{}
	}
	db, err := gorm.Open(sqlite.Open(path), &gorm.Config{
		NamingStrategy: schema.NamingStrategy{
			SingularTable: true,
		},
	})
	if err != nil {
		return nil, err
	}
	if err := db.AutoMigrate(&CacheEntry{}, &CacheEntryTag{}); err != nil {
		return nil, err
	}
	return &SQLiteStore{db: db, codec: codec}, nil
}

func (s *SQLiteStore) Save(ctx context.Context, db, key string, value any, tags []string, ttl time.Duration) error {
	data, err := s.codec.Marshal(value)
	if err != nil {
		return common.NewStorage("b2d4f8a1-6c3e-49b7-8e5d-0a9f1c7e2b36", err)
	}

	entry := CacheEntry{
		DBName: db,
		Key:    key,
		Value:  data,
	}
	if ttl > 0 {
		expiresAt := time.Now().Add(ttl)
		entry.ExpiresAt = &expiresAt
	}

	return s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.Where("db_name = ? AND key = ?", db, key).Delete(&CacheEntry{}).Error; err != nil {
			return err
		}
		if err := tx.Where("db_name = ? AND key = ?", db, key).Delete(&CacheEntryTag{}).Error; err != nil {
			return err
		}
		if err := tx.Create(&entry).Error; err != nil {
			return err
		}
		if len(tags) == 0 {
			return nil
		}
		tagRows := make([]CacheEntryTag, 0, len(tags))
		for _, tag := range tags {
			tagRows = append(tagRows, CacheEntryTag{DBName: db, Key: key, Tag: tag})
		}
		return tx.Create(&tagRows).Error
	})
}

func (s *SQLiteStore) Get(ctx context.Context, db, key string, dest any) (bool, error) {
	var entry CacheEntry
	err := s.db.WithContext(ctx).Where("db_name = ? AND key = ?", db, key).First(&entry).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return false, nil
	}
	if err != nil {
		return false, err
	}
	if entry.ExpiresAt != nil && time.Now().After(*entry.ExpiresAt) {
		if err := s.Delete(ctx, db, key); err != nil {
			return false, err
		}
		return false, nil
	}
	if err := s.codec.Unmarshal(entry.Value, dest); err != nil {
		return false, common.NewStorage("f0c6e2d8-5a91-4b34-9d7c-8e1a3f5b0c42", err)
	}
	return true, nil
}

func (s *SQLiteStore) GetByTags(ctx context.Context, db string, tags []string) (map[string][]byte, error) {
	keys, err := s.keysByTags(ctx, db, tags)
	if err != nil {
		return nil, err
	}
	result := map[string][]byte{}
	if len(keys) == 0 {
		return result, nil
	}

	var entries []CacheEntry
	if err := s.db.WithContext(ctx).Where("db_name = ? AND key IN ?", db, keys).Find(&entries).Error; err != nil {
		return nil, err
	}
	now := time.Now()
	for _, entry := range entries {
		if entry.ExpiresAt != nil && now.After(*entry.ExpiresAt) {
			if err := s.Delete(ctx, db, entry.Key); err != nil {
				return nil, err
			}
			continue
		}
		result[entry.Key] = entry.Value
	}
	return result, nil
}

func (s *SQLiteStore) Delete(ctx context.Context, db, key string) error {
	return s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.Where("db_name = ? AND key = ?", db, key).Delete(&CacheEntry{}).Error; err != nil {
			return err
		}
		return tx.Where("db_name = ? AND key = ?", db, key).Delete(&CacheEntryTag{}).Error
	})
}

func (s *SQLiteStore) DeleteByTags(ctx context.Context, db string, tags []string) error {
	keys, err := s.keysByTags(ctx, db, tags)
	if err != nil {
		return err
	}
	if len(keys) == 0 {
		return nil
	}
	return s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.Where("db_name = ? AND key IN ?", db, keys).Delete(&CacheEntry{}).Error; err != nil {
			return err
		}
		return tx.Where("db_name = ? AND key IN ?", db, keys).Delete(&CacheEntryTag{}).Error
	})
}

func (s *SQLiteStore) Clear(ctx context.Context, db string) error {
	return s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.Where("db_name = ?", db).Delete(&CacheEntry{}).Error; err != nil {
			return err
		}
		return tx.Where("db_name = ?", db).Delete(&CacheEntryTag{}).Error
	})
}

func (s *SQLiteStore) Codec() Codec {
	return s.codec
}

func (s *SQLiteStore) Close() error {
	sqlDB, err := s.db.DB()
	if err != nil {
		return err
	}
	return sqlDB.Close()
}

func (s *SQLiteStore) keysByTags(ctx context.Context, db string, tags []string) ([]string, error) {
	var keys []string
	err := s.db.WithContext(ctx).
		Model(&CacheEntryTag{}).
		Where("db_name = ? AND tag IN ?", db, tags).
		Distinct().
		Pluck("key", &keys).Error
	if err != nil {
		return nil, err
	}
	return keys, nil
}
