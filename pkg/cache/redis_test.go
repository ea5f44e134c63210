package cache

import (
	"context"
	"strconv"
	"strings"
	"testing"

	miniredis "github.com/alicebob/miniredis/v2"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/noah-isme/ug1-portal-api/pkg/config"
)

func TestNewRedisPings(t *testing.T) {
	server, err := miniredis.Run()
	require.NoError(t, err)
	defer server.Close()

	host, rawPort, _ := strings.Cut(server.Addr(), ":")
	port, err := strconv.Atoi(rawPort)
	require.NoError(t, err)

	client, err := NewRedis(context.Background(), config.RedisConfig{Host: host, Port: port, DB: 2})
	require.NoError(t, err)
	defer client.Close()

	require.NoError(t, client.Set(context.Background(), "ugform:stats:global", "{}", 0).Err())
	assert.True(t, server.DB(2).Exists("ugform:stats:global"))
	assert.False(t, server.Exists("ugform:stats:global"))
}

func TestNewRedisFailsWhenUnreachable(t *testing.T) {
	server, err := miniredis.Run()
	require.NoError(t, err)
	addr := server.Addr()
	host, rawPort, _ := strings.Cut(addr, ":")
	port, _ := strconv.Atoi(rawPort)
	server.Close()

	_, err = NewRedis(context.Background(), config.RedisConfig{Host: host, Port: port})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "stats cache at "+addr)
}
