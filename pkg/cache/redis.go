// Package cache connects the Redis instance backing the approval stats cache.
package cache

import (
	"context"
	"fmt"
	"net"
	"strconv"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/noah-isme/ug1-portal-api/pkg/config"
)

const (
	clientName     = "ug1-portal-api"
	connectTimeout = 5 * time.Second
	opTimeout      = time.Second
)

// NewRedis dials the stats cache and fails unless it answers PING within connectTimeout.
// Command timeouts stay short; a slow cache falls back to the database.
func NewRedis(ctx context.Context, cfg config.RedisConfig) (*redis.Client, error) {
	addr := net.JoinHostPort(cfg.Host, strconv.Itoa(cfg.Port))
	client := redis.NewClient(&redis.Options{
		Addr:         addr,
		ClientName:   clientName,
		Password:     cfg.Password,
		DB:           cfg.DB,
		DialTimeout:  connectTimeout,
		ReadTimeout:  opTimeout,
		WriteTimeout: opTimeout,
	})

	pingCtx, cancel := context.WithTimeout(ctx, connectTimeout)
	defer cancel()
	if err := client.Ping(pingCtx).Err(); err != nil {
		_ = client.Close()
		return nil, fmt.Errorf("stats cache at %s (db %d) unreachable: %w", addr, cfg.DB, err)
	}
	return client, nil
}
