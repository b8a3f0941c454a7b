// Package redis is a read-through cache in front of the revocation list.
// It is never the source of truth: a miss or an error sends the caller to the
// store.
package redis

import (
	"context"
	"errors"
	"fmt"
	"time"

	goredis "github.com/redis/go-redis/v9"
)

const defaultPrefix = "lectern:revoked:"

const (
	valueRevoked = "1"
	valueActive  = "0"
)

type RevocationCache struct {
	client *goredis.Client
	prefix string
}

// New connects using a redis:// URL and checks the server answers.
func New(ctx context.Context, url string) (*RevocationCache, error) {
	opts, err := goredis.ParseURL(url)
	if err != nil {
		return nil, fmt.Errorf("redis: parse url: %w", err)
	}
	client := goredis.NewClient(opts)
	if err := client.Ping(ctx).Err(); err != nil {
		_ = client.Close()
		return nil, fmt.Errorf("redis: ping: %w", err)
	}
	return NewWithClient(client), nil
}

func NewWithClient(client *goredis.Client) *RevocationCache {
	return &RevocationCache{client: client, prefix: defaultPrefix}
}

func (c *RevocationCache) key(tokenHash string) string { return c.prefix + tokenHash }

// Lookup returns the cached answer for tokenHash. found is false on a miss.
func (c *RevocationCache) Lookup(ctx context.Context, tokenHash string) (revoked, found bool, err error) {
	val, err := c.client.Get(ctx, c.key(tokenHash)).Result()
	if err != nil {
		if errors.Is(err, goredis.Nil) {
			return false, false, nil
		}
		return false, false, err
	}
	return val == valueRevoked, true, nil
}

// Remember caches an answer for ttl. Non-positive ttls are ignored.
func (c *RevocationCache) Remember(ctx context.Context, tokenHash string, revoked bool, ttl time.Duration) error {
	if ttl <= 0 {
		return nil
	}
	val := valueActive
	if revoked {
		val = valueRevoked
	}
	return c.client.Set(ctx, c.key(tokenHash), val, ttl).Err()
}

func (c *RevocationCache) Ping(ctx context.Context) error {
	return c.client.Ping(ctx).Err()
}

func (c *RevocationCache) Close() error { return c.client.Close() }
