package cache

import (
	"context"
	"testing"
	"time"

	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
)

// unreachable points at a port nothing listens on, so every command fails fast.
func unreachable() *Redis {
	rdb := redis.NewClient(&redis.Options{
		Addr:        "127.0.0.1:1",
		DialTimeout: 100 * time.Millisecond,
		MaxRetries:  -1,
	})
	return New(rdb, time.Minute)
}

func TestRedis_ErrorsSurface(t *testing.T) {
	c := unreachable()
	ctx := context.Background()

	var dst []string
	hit, err := c.GetJSON(ctx, "k", &dst)
	assert.Error(t, err)
	assert.False(t, hit)

	assert.Error(t, c.SetJSON(ctx, "k", []string{"a"}))
	assert.Error(t, c.DeletePrefix(ctx, "catalog:"))
}

func TestConnect_Unreachable(t *testing.T) {
	ctx, cancel := context.WithTimeout(context.Background(), time.Second)
	defer cancel()

	_, err := Connect(ctx, "127.0.0.1:1")
	assert.Error(t, err)
}
