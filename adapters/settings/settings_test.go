package settings

import (
	"context"
	"sync"
	"testing"

	"github.com/alicebob/miniredis/v2"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/satriahrh/suara/domain"
	"github.com/satriahrh/suara/domain/entities"
	"github.com/satriahrh/suara/domain/repositories"
)

func setupRedisStore(t *testing.T, opts ...RedisOption) (*RedisStore, *miniredis.Miniredis) {
	t.Helper()
	mr := miniredis.RunT(t)
	client := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	t.Cleanup(func() { _ = client.Close() })
	return NewRedisStore(client, entities.DefaultSettings(), opts...), mr
}

func stores(t *testing.T) map[string]repositories.SettingsRepository {
	redisStore, _ := setupRedisStore(t)
	return map[string]repositories.SettingsRepository{
		"memory": NewMemoryStore(entities.DefaultSettings()),
		"redis":  redisStore,
	}
}

func TestStoreReplacesWholeSettings(t *testing.T) {
	for name, store := range stores(t) {
		t.Run(name, func(t *testing.T) {
			ctx := context.Background()

			got, err := store.Get(ctx)
			require.NoError(t, err)
			assert.Equal(t, entities.DefaultSettings(), got)

			next := entities.Settings{Voice: entities.VoiceMale, Language: "id-ID"}
			require.NoError(t, store.Set(ctx, next))

			got, err = store.Get(ctx)
			require.NoError(t, err)
			assert.Equal(t, next, got)
		})
	}
}

func TestSnapshotIsolation(t *testing.T) {
	for name, store := range stores(t) {
		t.Run(name, func(t *testing.T) {
			ctx := context.Background()
			snapshot, err := store.Get(ctx)
			require.NoError(t, err)

			require.NoError(t, store.Set(ctx, entities.Settings{Voice: entities.VoiceMale, Language: "fr-FR", Expertise: "chef"}))

			assert.Equal(t, entities.VoiceFemale, snapshot.Voice)
			assert.Equal(t, entities.DefaultLanguage, snapshot.Language)
		})
	}
}

func TestConcurrentReadersSeeWholeValues(t *testing.T) {
	a := entities.Settings{Voice: entities.VoiceFemale, Language: "en-US", Expertise: "tutor"}
	b := entities.Settings{Voice: entities.VoiceMale, Language: "id-ID", Expertise: "chef"}

	for name, store := range stores(t) {
		t.Run(name, func(t *testing.T) {
			ctx := context.Background()
			require.NoError(t, store.Set(ctx, a))

			var wg sync.WaitGroup
			for i := 0; i < 4; i++ {
				wg.Add(1)
				go func(i int) {
					defer wg.Done()
					for j := 0; j < 50; j++ {
						next := a
						if (i+j)%2 == 0 {
							next = b
						}
						assert.NoError(t, store.Set(ctx, next))
					}
				}(i)
			}
			for i := 0; i < 4; i++ {
				wg.Add(1)
				go func() {
					defer wg.Done()
					for j := 0; j < 50; j++ {
						got, err := store.Get(ctx)
						if assert.NoError(t, err) {
							assert.True(t, got == a || got == b, "torn read: %+v", got)
						}
					}
				}()
			}
			wg.Wait()
		})
	}
}

func TestRedisStoreCustomKey(t *testing.T) {
	store, mr := setupRedisStore(t, WithKey("myapp:settings"))
	require.NoError(t, store.Set(context.Background(), entities.Settings{Voice: entities.VoiceMale}))

	raw, err := mr.Get("myapp:settings")
	require.NoError(t, err)
	assert.JSONEq(t, `{"voice":"male","language":"","expertise":""}`, raw)
}

func TestRedisStoreErrors(t *testing.T) {
	store, mr := setupRedisStore(t)
	ctx := context.Background()

	require.NoError(t, mr.Set("suara:settings", "{not json"))
	_, err := store.Get(ctx)
	assert.ErrorIs(t, err, domain.ErrInvalidSettings)

	mr.Close()
	_, err = store.Get(ctx)
	assert.ErrorIs(t, err, domain.ErrBackendUnavailable)
	assert.ErrorIs(t, store.Set(ctx, entities.DefaultSettings()), domain.ErrBackendUnavailable)
}
