package cache

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"
)

// commandTimeout applies when the URL sets no read/write timeout. Session and
// weather lookups sit on the request path and must not hang it.
const commandTimeout = 2 * time.Second

// Connect parses redisURL, creates a client named after the service, and
// verifies connectivity with a ping.
func Connect(ctx context.Context, redisURL string) (*redis.Client, error) {
	opts, err := redis.ParseURL(redisURL)
	if err != nil {
		return nil, fmt.Errorf("parsing redis URL: %w", err)
	}
	if opts.ReadTimeout == 0 {
		opts.ReadTimeout = commandTimeout
	}
	if opts.WriteTimeout == 0 {
		opts.WriteTimeout = commandTimeout
	}
	opts.ClientName = "getaway-planner"

	client := redis.NewClient(opts)
	if err := client.Ping(ctx).Err(); err != nil {
		_ = client.Close()
		return nil, fmt.Errorf("pinging redis at %s: %w", opts.Addr, err)
	}
	return client, nil
}

// getJSON decodes the value at key into dst. It reports false on a miss.
func getJSON(ctx context.Context, client *redis.Client, key string, dst any) (bool, error) {
	val, err := client.Get(ctx, key).Bytes()
	if err != nil {
		if errors.Is(err, redis.Nil) {
			return false, nil
		}
		return false, fmt.Errorf("cache get %s: %w", key, err)
	}
	if err := json.Unmarshal(val, dst); err != nil {
		return false, fmt.Errorf("unmarshaling cached %s: %w", key, err)
	}
	return true, nil
}

// setJSON stores v at key with the given expiry.
func setJSON(ctx context.Context, client *redis.Client, key string, v any, ttl time.Duration) error {
	b, err := json.Marshal(v)
	if err != nil {
		return fmt.Errorf("marshaling %s: %w", key, err)
	}
	if err := client.Set(ctx, key, b, ttl).Err(); err != nil {
		return fmt.Errorf("cache set %s: %w", key, err)
	}
	return nil
}
