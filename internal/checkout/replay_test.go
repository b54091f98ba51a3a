package checkout

import (
	"context"
	"testing"

	"github.com/alicebob/miniredis/v2"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestRedisReplayGuard(t *testing.T) {
	mr := miniredis.RunT(t)
	g := &RedisReplayGuard{RDB: redis.NewClient(&redis.Options{Addr: mr.Addr()})}
	ctx := context.Background()

	done, err := g.Committed(ctx, "01ab")
	require.NoError(t, err)
	assert.False(t, done)

	require.NoError(t, g.MarkCommitted(ctx, "01ab", "ORD-7-abcdef12"))
	done, err = g.Committed(ctx, "01ab")
	require.NoError(t, err)
	assert.True(t, done)

	val, err := mr.Get("webpay:committed:01ab")
	require.NoError(t, err)
	assert.Equal(t, "ORD-7-abcdef12", val)
	assert.Positive(t, mr.TTL("webpay:committed:01ab"))
}
