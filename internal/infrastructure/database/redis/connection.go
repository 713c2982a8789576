// internal/infrastructure/database/redis/connection.go
package redis

import (
	"context"
	"fmt"

	"github.com/redis/go-redis/v9"
	"github.com/sirupsen/logrus"

	"github.com/your-org/flooring-store/internal/config"
)

// Client owns the Redis pool used for checkout sessions, idempotency keys
// and rate limiting
type Client struct {
	rdb *redis.Client
}

// NewConnection dials Redis and verifies it with a ping
func NewConnection(cfg *config.Config, log *logrus.Logger) (*Client, error) {
	rc := cfg.Redis
	rdb := redis.NewClient(&redis.Options{
		Addr:         cfg.GetRedisAddr(),
		Password:     rc.Password,
		DB:           rc.DB,
		PoolSize:     rc.PoolSize,
		MinIdleConns: rc.MinIdleConns,
		DialTimeout:  rc.DialTimeout,
		ReadTimeout:  rc.OpTimeout,
		WriteTimeout: rc.OpTimeout,
	})

	c := &Client{rdb: rdb}
	ctx, cancel := context.WithTimeout(context.Background(), rc.DialTimeout+rc.OpTimeout)
	defer cancel()
	if err := c.Health(ctx); err != nil {
		rdb.Close()
		return nil, fmt.Errorf("failed to connect to Redis at %s: %w", cfg.GetRedisAddr(), err)
	}

	log.WithFields(logrus.Fields{
		"addr":      cfg.GetRedisAddr(),
		"db":        rc.DB,
		"pool_size": rc.PoolSize,
	}).Info("Redis connection established")
	return c, nil
}

// GetClient returns the underlying go-redis client
func (c *Client) GetClient() *redis.Client {
	return c.rdb
}

// Health pings Redis within ctx
func (c *Client) Health(ctx context.Context) error {
	return c.rdb.Ping(ctx).Err()
}

// Close closes the pool
func (c *Client) Close() error {
	return c.rdb.Close()
}
