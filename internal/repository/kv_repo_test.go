package repository

import (
	"context"
	"testing"

	"github.com/alicebob/miniredis/v2"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newRedisRepo(t *testing.T) (*RedisKVRepository, *miniredis.Miniredis) {
	t.Helper()
	mr := miniredis.RunT(t)
	rdb := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	t.Cleanup(func() { _ = rdb.Close() })
	return NewRedisKVRepository(rdb), mr
}

func TestRedisKVRepository_GetMissing(t *testing.T) {
	repo, _ := newRedisRepo(t)

	value, found, err := repo.GetItem(context.Background(), "currentUser")
	require.NoError(t, err)
	assert.False(t, found)
	assert.Empty(t, value)
}

func TestRedisKVRepository_SetGetRemove(t *testing.T) {
	ctx := context.Background()
	repo, mr := newRedisRepo(t)

	require.NoError(t, repo.SetItem(ctx, "currentUser", "alice@example.com"))
	raw, err := mr.Get("raven:kv:currentUser")
	require.NoError(t, err)
	assert.Equal(t, "alice@example.com", raw)

	value, found, err := repo.GetItem(ctx, "currentUser")
	require.NoError(t, err)
	assert.True(t, found)
	assert.Equal(t, "alice@example.com", value)

	require.NoError(t, repo.RemoveItem(ctx, "currentUser"))
	require.NoError(t, repo.RemoveItem(ctx, "currentUser"))

	_, found, err = repo.GetItem(ctx, "currentUser")
	require.NoError(t, err)
	assert.False(t, found)
}

func TestRedisKVRepository_EmptyValueIsFound(t *testing.T) {
	ctx := context.Background()
	repo, _ := newRedisRepo(t)

	require.NoError(t, repo.SetItem(ctx, "currentUser", ""))
	value, found, err := repo.GetItem(ctx, "currentUser")
	require.NoError(t, err)
	assert.True(t, found)
	assert.Empty(t, value)
}

func TestRedisKVRepository_ServerDown(t *testing.T) {
	repo, mr := newRedisRepo(t)
	mr.Close()

	_, found, err := repo.GetItem(context.Background(), "currentUser")
	assert.Error(t, err)
	assert.False(t, found)
}
