//go:build integration

package testutil

import (
	"context"
	"testing"

	"github.com/go-redis/redis/v8"
)

// WriteHash writes a hash at key.
func WriteHash(t *testing.T, client *redis.Client, key string, fields map[string]string) {
	t.Helper()

	args := make([]interface{}, 0, len(fields)*2)
	for k, v := range fields {
		args = append(args, k, v)
	}
	if err := client.HSet(context.Background(), key, args...).Err(); err != nil {
		t.Fatalf("writing %s: %v", key, err)
	}
}

// ListLen returns the length of the list at key.
func ListLen(t *testing.T, client *redis.Client, key string) int64 {
	t.Helper()

	n, err := client.LLen(context.Background(), key).Result()
	if err != nil {
		t.Fatalf("reading length of %s: %v", key, err)
	}
	return n
}

// TTL returns the remaining time to live of key, negative when it has none.
func TTL(t *testing.T, client *redis.Client, key string) float64 {
	t.Helper()

	d, err := client.TTL(context.Background(), key).Result()
	if err != nil {
		t.Fatalf("reading TTL of %s: %v", key, err)
	}
	return d.Seconds()
}
