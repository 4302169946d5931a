package zipcode

import (
	"context"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestRedisCache(t *testing.T) {
	t.Parallel()

	mr := miniredis.RunT(t)
	client := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	t.Cleanup(func() { _ = client.Close() })
	cache := NewRedisCache(client, time.Hour)
	ctx := context.Background()

	_, found, err := cache.Get(ctx, "23219")
	require.NoError(t, err)
	assert.False(t, found)

	require.NoError(t, cache.Set(ctx, "23219", "Richmond"))
	require.NoError(t, cache.Set(ctx, "00000", ""))

	city, found, err := cache.Get(ctx, "23219")
	require.NoError(t, err)
	assert.True(t, found)
	assert.Equal(t, "Richmond", city)

	city, found, err = cache.Get(ctx, "00000")
	require.NoError(t, err)
	assert.True(t, found, "an empty city is a remembered non-match")
	assert.Empty(t, city)

	assert.Equal(t, time.Hour, mr.TTL(redisKeyPrefix+"23219"))
	mr.FastForward(2 * time.Hour)
	_, found, err = cache.Get(ctx, "23219")
	require.NoError(t, err)
	assert.False(t, found)
}
