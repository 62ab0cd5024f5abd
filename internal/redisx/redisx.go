// Package redisx is a thin wrapper around go-redis used as an optional
// fast-path cache for sale idempotency keys. The database unique index is
// the source of truth; Redis only saves a row lock on obvious replays.
package redisx

import (
	"context"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"
)

// Replayed keys older than this fall through to the database lookup.
const TTLDedup = 24 * time.Hour

const keySale = "dedup:sale:%s"

func NewClient(addr string) *redis.Client {
	return redis.NewClient(&redis.Options{Addr: addr})
}

// SaleSeen reports whether an idempotency key was already committed.
func SaleSeen(ctx context.Context, rdb *redis.Client, key string) (bool, error) {
	n, err := rdb.Exists(ctx, fmt.Sprintf(keySale, key)).Result()
	if err != nil {
		return false, err
	}
	return n > 0, nil
}

// MarkSale records a committed idempotency key.
func MarkSale(ctx context.Context, rdb *redis.Client, key string) error {
	return rdb.Set(ctx, fmt.Sprintf(keySale, key), "1", TTLDedup).Err()
}
