package redis_test

import (
	"context"
	"net"
	"strconv"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"notekeeper/pkg/db/redis"
)

func configFor(t *testing.T, s *miniredis.Miniredis) *redis.Config {
	t.Helper()

	host, portStr, err := net.SplitHostPort(s.Addr())
	require.NoError(t, err)
	port, err := strconv.Atoi(portStr)
	require.NoError(t, err)

	cfg := redis.DefaultConfig()
	cfg.Host = host
	cfg.Port = port
	return cfg
}

func TestNewClient_Success(t *testing.T) {
	s := miniredis.RunT(t)
	ctx := context.Background()

	client, err := redis.NewClient(ctx, configFor(t, s))
	require.NoError(t, err)
	require.NotNil(t, client)

	require.NoError(t, client.Raw().Set(ctx, "k", "v", 0).Err())
	got, err := s.Get("k")
	require.NoError(t, err)
	assert.Equal(t, "v", got)

	assert.NoError(t, client.Close(ctx))
}

func TestNewClient_ConnectionFailure(t *testing.T) {
	cfg := redis.DefaultConfig()
	cfg.Host = "127.0.0.1"
	cfg.Port = 1
	cfg.DialTimeout = 100 * time.Millisecond

	client, err := redis.NewClient(context.Background(), cfg)

	require.Error(t, err)
	assert.Nil(t, client)
	assert.Contains(t, err.Error(), redis.ErrConnectRedis)
}

func TestConfigAddr(t *testing.T) {
	cfg := redis.DefaultConfig()
	assert.Equal(t, "localhost:6379", cfg.Addr())
}
