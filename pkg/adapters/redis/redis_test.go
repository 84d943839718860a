package redis_test

import (
	"context"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/aretw0/cmdtree/pkg/adapters/redis"
	"github.com/aretw0/cmdtree/pkg/domain"
	"github.com/aretw0/cmdtree/pkg/ports"
	backend "github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func setup(t *testing.T) (*miniredis.Miniredis, *backend.Client) {
	t.Helper()
	mr, err := miniredis.Run()
	require.NoError(t, err, "Failed to start miniredis")
	t.Cleanup(mr.Close)

	client := backend.NewClient(&backend.Options{Addr: mr.Addr()})
	t.Cleanup(func() { _ = client.Close() })
	return mr, client
}

func TestRedisStore_Contract(t *testing.T) {
	_, client := setup(t)
	ports.RunViewStoreContract(t, redis.NewFromClient(client))
}

func TestRedisStore_TTL_Expiration(t *testing.T) {
	mr, client := setup(t)
	store := redis.NewFromClient(client, redis.WithTTL(time.Second))
	ctx := context.Background()

	err := store.Save(ctx, "dash", &domain.ViewState{
		Expansion: []domain.Entry{{ID: "scheduled", Value: false}},
	})
	require.NoError(t, err)

	views, err := store.List(ctx)
	require.NoError(t, err)
	assert.Contains(t, views, "dash")

	mr.FastForward(2 * time.Second)

	_, err = store.Load(ctx, "dash")
	assert.ErrorIs(t, err, domain.ErrViewNotFound)
}

func TestRedisStore_Prefix(t *testing.T) {
	mr, client := setup(t)
	store := redis.NewFromClient(client, redis.WithPrefix("robot:ui:"))
	ctx := context.Background()

	require.NoError(t, store.Save(ctx, "main", domain.NewViewState()))

	assert.True(t, mr.Exists("robot:ui:main"), "Expected key with custom prefix to exist")
	assert.True(t, mr.Exists("robot:ui:index"), "Expected index with custom prefix to exist")
}

func TestRedisLocker_LockUnlock(t *testing.T) {
	mr, client := setup(t)
	locker := redis.NewLocker(client, "test:")
	ctx := context.Background()

	unlock, err := locker.Lock(ctx, "main", 5*time.Second)
	require.NoError(t, err)
	assert.True(t, mr.Exists("test:lock:main"), "Lock key should be set in Redis")

	require.NoError(t, unlock(ctx))
	assert.False(t, mr.Exists("test:lock:main"), "Lock key should be removed after unlock")
}

func TestRedisLocker_Contention(t *testing.T) {
	_, client := setup(t)
	first := redis.NewLocker(client, "test:")
	second := redis.NewLocker(client, "test:")
	ctx := context.Background()

	unlock, err := first.Lock(ctx, "main", 5*time.Second)
	require.NoError(t, err)

	short, cancel := context.WithTimeout(ctx, 150*time.Millisecond)
	defer cancel()
	_, err = second.Lock(short, "main", 5*time.Second)
	assert.ErrorIs(t, err, context.DeadlineExceeded)

	require.NoError(t, unlock(ctx))
	unlock2, err := second.Lock(ctx, "main", 5*time.Second)
	require.NoError(t, err)
	require.NoError(t, unlock2(ctx))
}

func TestRedisSource(t *testing.T) {
	mr, client := setup(t)
	src := redis.NewSource(client, "nt:/SmartDashboard/Commands")
	ctx := context.Background()

	got, err := src.Fetch(ctx)
	require.NoError(t, err)
	assert.Nil(t, got, "missing key is an absent payload")

	require.NoError(t, mr.Set("nt:/SmartDashboard/Commands", `{"scheduled":[]}`))
	got, err = src.Fetch(ctx)
	require.NoError(t, err)
	require.NotNil(t, got)
	assert.Equal(t, `{"scheduled":[]}`, *got)
}
