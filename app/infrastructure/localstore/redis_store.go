package localstore

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"
	"shelfsync.io/shelfsync/app/domain/common"
	"shelfsync.io/shelfsync/app/utils/logger"
	"shelfsync.io/shelfsync/config/environment_variables"
)

const redisKeyPrefix = "shelfsync"

// redisEnvelope wraps the serialized value with its tag list so Delete can
// clean the tag sets without a separate reverse index.
type redisEnvelope struct {
	Value json.RawMessage `json:"value"`
	Tags  []string        `json:"tags,omitempty"`
}

// RedisStore keeps cache entries in redis, for deployments where several
// client sessions on one host share a store. Expiry uses native TTLs; tag
// sets are cleaned lazily when a member turns out to be gone.
type RedisStore struct {
	client *redis.Client
	codec  Codec
}

func NewRedisStore(codec Codec) *RedisStore {
	if codec == nil {
		codec = JSONCodec{}
	}

	redisURL := environment_variables.EnvironmentVariables.SHELFSYNC_REDIS_URL
	if redisURL == "" {
		redisURL = "redis://localhost:6379"
	}
	opts, err := redis.ParseURL(redisURL)
	if err != nil {
		logger.GetLogger().Error(fmt.Sprintf("Failed to parse Redis URL: %v", err))
		// Fallback to default configuration
		opts = &redis.Options{
			Addr:     "localhost:6379",
			Password: "",
			DB:       0,
		}
	}
	if environment_variables.EnvironmentVariables.SHELFSYNC_REDIS_PASSWORD != "" {
		opts.Password = environment_variables.EnvironmentVariables.SHELFSYNC_REDIS_PASSWORD
	}
	if environment_variables.EnvironmentVariables.SHELFSYNC_REDIS_DB != 0 {
		opts.DB = environment_variables.EnvironmentVariables.SHELFSYNC_REDIS_DB
	}

	client := redis.NewClient(opts)

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := client.Ping(ctx).Err(); err != nil {
		logger.GetLogger().Error(fmt.Sprintf("Failed to connect to Redis: %v", err))
	} else {
		logger.GetLogger().Info("Successfully connected to Redis")
	}

	return &RedisStore{client: client, codec: codec}
}

func entryKey(db, key string) string {
	return fmt.Sprintf("%s:%s:entry:%s", redisKeyPrefix, db, key)
}

func tagKey(db, tag string) string {
	return fmt.Sprintf("%s:%s:tag:%s", redisKeyPrefix, db, tag)
}

func (s *RedisStore) Save(ctx context.Context, db, key string, value any, tags []string, ttl time.Duration) error {
	data, err := s.codec.Marshal(value)
	if err != nil {
		return common.NewStorage("7d3b1f9e-8a52-4c06-b4e7-2f0c6a9d1e83", err)
	}
	payload, err := json.Marshal(redisEnvelope{Value: data, Tags: tags})
	if err != nil {
		return common.NewStorage("1a9e5c73-0f48-4d21-86b3-e7d2c4f8a095", err)
	}

	// Drop stale tag memberships from a previous version of the entry.
	if old, err := s.loadEnvelope(ctx, db, key); err == nil && old != nil {
		s.removeFromTagSets(ctx, db, key, old.Tags)
	}

	pipe := s.client.TxPipeline()
	pipe.Set(ctx, entryKey(db, key), payload, ttl)
	for _, tag := range tags {
		pipe.SAdd(ctx, tagKey(db, tag), key)
	}
	_, err = pipe.Exec(ctx)
	return err
}

func (s *RedisStore) Get(ctx context.Context, db, key string, dest any) (bool, error) {
	env, err := s.loadEnvelope(ctx, db, key)
	if err != nil {
		return false, err
	}
	if env == nil {
		return false, nil
	}
	if err := s.codec.Unmarshal(env.Value, dest); err != nil {
		return false, common.NewStorage("c5f2a8d0-3e71-4b69-9a4c-6d8b0e1f7c24", err)
	}
	return true, nil
}

func (s *RedisStore) GetByTags(ctx context.Context, db string, tags []string) (map[string][]byte, error) {
	keys, err := s.membersOfTags(ctx, db, tags)
	if err != nil {
		return nil, err
	}
	result := map[string][]byte{}
	for _, key := range keys {
		env, err := s.loadEnvelope(ctx, db, key)
		if err != nil {
			return nil, err
		}
		if env == nil {
			// Entry expired or was deleted; scrub it from the tag sets.
			s.removeFromTagSets(ctx, db, key, tags)
			continue
		}
		result[key] = env.Value
	}
	return result, nil
}

func (s *RedisStore) Delete(ctx context.Context, db, key string) error {
	if env, err := s.loadEnvelope(ctx, db, key); err == nil && env != nil {
		s.removeFromTagSets(ctx, db, key, env.Tags)
	}
	return s.client.Unlink(ctx, entryKey(db, key)).Err()
}

func (s *RedisStore) DeleteByTags(ctx context.Context, db string, tags []string) error {
	keys, err := s.membersOfTags(ctx, db, tags)
	if err != nil {
		return err
	}
	for _, key := range keys {
		if err := s.Delete(ctx, db, key); err != nil {
			return err
		}
	}
	tagKeys := make([]string, 0, len(tags))
	for _, tag := range tags {
		tagKeys = append(tagKeys, tagKey(db, tag))
	}
	if len(tagKeys) == 0 {
		return nil
	}
	return s.client.Unlink(ctx, tagKeys...).Err()
}

// Clear removes all keys of the database via SCAN and pipelined UNLINK.
func (s *RedisStore) Clear(ctx context.Context, db string) error {
	pattern := fmt.Sprintf("%s:%s:*", redisKeyPrefix, db)
	var cursor uint64
	for {
		keys, next, err := s.client.Scan(ctx, cursor, pattern, 1000).Result()
		if err != nil {
			return fmt.Errorf("failed to scan keys: %w", err)
		}
		if len(keys) > 0 {
			pipe := s.client.Pipeline()
			for _, k := range keys {
				pipe.Unlink(ctx, k)
			}
			if _, err := pipe.Exec(ctx); err != nil {
				return fmt.Errorf("failed to unlink keys: %w", err)
			}
		}
		if next == 0 {
			break
		}
		cursor = next
	}
	return nil
}

func (s *RedisStore) Codec() Codec {
	return s.codec
}

func (s *RedisStore) Close() error {
	return s.client.Close()
}

func (s *RedisStore) loadEnvelope(ctx context.Context, db, key string) (*redisEnvelope, error) {
	val, err := s.client.Get(ctx, entryKey(db, key)).Result()
	if err == redis.Nil {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	var env redisEnvelope
	if err := json.Unmarshal([]byte(val), &env); err != nil {
		return nil, common.NewStorage("e4a7c1b6-9d20-4f58-83ae-5b2f8d0c6e91", err)
	}
	return &env, nil
}

func (s *RedisStore) membersOfTags(ctx context.Context, db string, tags []string) ([]string, error) {
	tagKeys := make([]string, 0, len(tags))
	for _, tag := range tags {
		tagKeys = append(tagKeys, tagKey(db, tag))
	}
	if len(tagKeys) == 0 {
		return nil, nil
	}
	return s.client.SUnion(ctx, tagKeys...).Result()
}

func (s *RedisStore) removeFromTagSets(ctx context.Context, db, key string, tags []string) {
	for _, tag := range tags {
		if err := s.client.SRem(ctx, tagKey(db, tag), key).Err(); err != nil {
			logger.GetLogger().Debugf("failed to scrub tag set %s: %v", tag, err)
		}
	}
}
