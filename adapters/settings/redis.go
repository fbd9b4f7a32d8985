package settings

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"

	"github.com/redis/go-redis/v9"

	"github.com/satriahrh/suara/domain"
	"github.com/satriahrh/suara/domain/entities"
	"github.com/satriahrh/suara/domain/repositories"
)

const redisBackend = "redis"

// RedisStore keeps settings as one JSON value so several server instances
// share them. Each Get and Set is a single command, so updates are atomic.
type RedisStore struct {
	client   *redis.Client
	key      string
	defaults entities.Settings
}

var _ repositories.SettingsRepository = (*RedisStore)(nil)

// RedisOption configures a RedisStore.
type RedisOption func(*RedisStore)

// WithKey sets the redis key holding the settings. Default is "suara:settings".
func WithKey(key string) RedisOption {
	return func(s *RedisStore) {
		s.key = key
	}
}

// NewRedisStore creates a redis-backed store. Until the first Set, Get
// returns defaults.
func NewRedisStore(client *redis.Client, defaults entities.Settings, opts ...RedisOption) *RedisStore {
	store := &RedisStore{
		client:   client,
		key:      "suara:settings",
		defaults: defaults,
	}
	for _, opt := range opts {
		opt(store)
	}
	return store
}

// Get loads the settings
func (s *RedisStore) Get(ctx context.Context) (entities.Settings, error) {
	data, err := s.client.Get(ctx, s.key).Bytes()
	if err != nil {
		if errors.Is(err, redis.Nil) {
			return s.defaults, nil
		}
		return entities.Settings{}, domain.NewBackendError(redisBackend, "", "failed to load settings", err, true)
	}

	var settings entities.Settings
	if err := json.Unmarshal(data, &settings); err != nil {
		return entities.Settings{}, fmt.Errorf("%w: stored settings are corrupt: %v", domain.ErrInvalidSettings, err)
	}
	return settings, nil
}

// Set stores the settings
func (s *RedisStore) Set(ctx context.Context, settings entities.Settings) error {
	data, err := json.Marshal(settings)
	if err != nil {
		return fmt.Errorf("failed to marshal settings: %w", err)
	}
	if err := s.client.Set(ctx, s.key, data, 0).Err(); err != nil {
		return domain.NewBackendError(redisBackend, "", "failed to store settings", err, true)
	}
	return nil
}

// Ping checks the connection
func (s *RedisStore) Ping(ctx context.Context) error {
	return s.client.Ping(ctx).Err()
}
