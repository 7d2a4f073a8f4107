package cache

import (
	"context"
	stderrors "errors"
	"io"
	"net"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/matzehuels/tableau/pkg/errors"
)

// RedisCache stores entries in Redis. Transient network failures are
// retried with backoff; a miss is never an error.
type RedisCache struct {
	client  redis.UniversalClient
	backoff Backoff
}

// NewRedisCache connects to the Redis server at url, e.g.
// "redis://localhost:6379/0", and checks the connection with PING.
func NewRedisCache(ctx context.Context, url string) (*RedisCache, error) {
	opts, err := redis.ParseURL(url)
	if err != nil {
		return nil, errors.Wrap(errors.ErrCodeInvalidInput, err, "redis url")
	}
	c := NewRedisCacheFromClient(redis.NewClient(opts))
	if err := c.Ping(ctx); err != nil {
		c.Close()
		return nil, err
	}
	return c, nil
}

// NewRedisCacheFromClient wraps an existing client.
func NewRedisCacheFromClient(client redis.UniversalClient) *RedisCache {
	return &RedisCache{client: client, backoff: DefaultBackoff}
}

// Ping checks that the server answers.
func (c *RedisCache) Ping(ctx context.Context) error {
	return c.do(ctx, "ping", func() error { return c.client.Ping(ctx).Err() })
}

// Get retrieves a value.
func (c *RedisCache) Get(ctx context.Context, key string) ([]byte, bool, error) {
	var data []byte
	hit := false
	err := c.do(ctx, "get", func() error {
		b, err := c.client.Get(ctx, key).Bytes()
		if stderrors.Is(err, redis.Nil) {
			return nil
		}
		if err != nil {
			return err
		}
		data, hit = b, true
		return nil
	})
	return data, hit, err
}

// Set stores a value.
func (c *RedisCache) Set(ctx context.Context, key string, data []byte, ttl time.Duration) error {
	return c.do(ctx, "set", func() error { return c.client.Set(ctx, key, data, ttl).Err() })
}

// Delete removes a value.
func (c *RedisCache) Delete(ctx context.Context, key string) error {
	return c.do(ctx, "delete", func() error { return c.client.Del(ctx, key).Err() })
}

// Close closes the client.
func (c *RedisCache) Close() error {
	return c.client.Close()
}

func (c *RedisCache) do(ctx context.Context, op string, fn func() error) error {
	err := RetryWithBackoff(ctx, c.backoff, func() error {
		err := fn()
		if transient(err) {
			return Retryable(err)
		}
		return err
	})
	if err == nil {
		return nil
	}
	if transient(err) {
		err = stderrors.Join(ErrUnavailable, err)
	}
	return errors.Wrap(errors.ErrCodeCache, err, "redis %s", op)
}

// transient reports whether err is a network failure worth retrying.
func transient(err error) bool {
	var ne net.Error
	return stderrors.As(err, &ne) || stderrors.Is(err, io.EOF)
}

var _ Cache = (*RedisCache)(nil)
