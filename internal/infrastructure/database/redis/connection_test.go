package redis

import (
	"context"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/sirupsen/logrus/hooks/test"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/your-org/flooring-store/internal/config"
)

func redisConfig(host, port string) *config.Config {
	return &config.Config{Redis: config.RedisConfig{
		Host:        host,
		Port:        port,
		PoolSize:    2,
		DialTimeout: time.Second,
		OpTimeout:   time.Second,
	}}
}

func TestNewConnection(t *testing.T) {
	mr := miniredis.RunT(t)
	log, hook := test.NewNullLogger()

	c, err := NewConnection(redisConfig(mr.Host(), mr.Port()), log)
	require.NoError(t, err)
	defer c.Close()
	assert.Equal(t, mr.Addr(), hook.LastEntry().Data["addr"])

	ctx := context.Background()
	assert.NoError(t, c.Health(ctx))
	require.NoError(t, c.GetClient().Set(ctx, "k", "v", 0).Err())
	got, err := mr.Get("k")
	require.NoError(t, err)
	assert.Equal(t, "v", got)

	mr.Close()
	assert.Error(t, c.Health(ctx))
}

func TestNewConnectionFails(t *testing.T) {
	mr := miniredis.RunT(t)
	host, port := mr.Host(), mr.Port()
	mr.Close()

	log, _ := test.NewNullLogger()
	_, err := NewConnection(redisConfig(host, port), log)
	assert.Error(t, err)
}
