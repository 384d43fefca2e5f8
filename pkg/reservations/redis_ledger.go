package reservations

import (
	"context"
	"fmt"
	"strconv"
	"time"

	"github.com/redis/go-redis/v9"
)

// RedisLedger stores reservation entries as Redis keys with a TTL equal to
// the payment window. Key expiry is broadcast on the keyspace notification
// channel and picked up by the Reactor.
type RedisLedger struct {
	rdb *redis.Client
}

// NewRedisLedger wraps an existing Redis client.
func NewRedisLedger(rdb *redis.Client) *RedisLedger {
	return &RedisLedger{rdb: rdb}
}

// NewClient builds a Redis client for the given address.
func NewClient(addr string) *redis.Client {
	return redis.NewClient(&redis.Options{Addr: addr})
}

func (l *RedisLedger) Reserve(ctx context.Context, orderID, productID uint, qty int, ttl time.Duration) error {
	pipe := l.rdb.TxPipeline()
	pipe.Set(ctx, EntryKey(orderID, productID), qty, ttl)
	pipe.Set(ctx, ValueKey(orderID, productID), qty, ttl+valueGrace)
	if _, err := pipe.Exec(ctx); err != nil {
		return fmt.Errorf("failed to write reservation for order %d product %d: %w", orderID, productID, err)
	}
	return nil
}

func (l *RedisLedger) Commit(ctx context.Context, orderID uint) error {
	keys, err := l.scanEntries(ctx, orderID)
	if err != nil {
		return err
	}
	if len(keys) == 0 {
		return nil
	}
	del := make([]string, 0, len(keys)*2)
	for _, key := range keys {
		del = append(del, key)
		if orderID, productID, ok := ParseEntryKey(key); ok {
			del = append(del, ValueKey(orderID, productID))
		}
	}
	if err := l.rdb.Del(ctx, del...).Err(); err != nil {
		return fmt.Errorf("failed to commit reservations for order %d: %w", orderID, err)
	}
	return nil
}

func (l *RedisLedger) ReleaseEntry(ctx context.Context, orderID, productID uint) (bool, error) {
	removed, err := l.rdb.Del(ctx, EntryKey(orderID, productID)).Result()
	if err != nil {
		return false, fmt.Errorf("failed to release reservation for order %d product %d: %w", orderID, productID, err)
	}
	if err := l.rdb.Del(ctx, ValueKey(orderID, productID)).Err(); err != nil {
		return removed > 0, fmt.Errorf("failed to drop reservation value for order %d product %d: %w", orderID, productID, err)
	}
	return removed > 0, nil
}

func (l *RedisLedger) PendingCount(ctx context.Context, orderID uint) (int, error) {
	keys, err := l.scanEntries(ctx, orderID)
	if err != nil {
		return 0, err
	}
	return len(keys), nil
}

func (l *RedisLedger) ReservedQty(ctx context.Context, orderID, productID uint) (int, error) {
	val, err := l.rdb.Get(ctx, ValueKey(orderID, productID)).Result()
	if err == redis.Nil {
		return 0, nil
	}
	if err != nil {
		return 0, fmt.Errorf("failed to read reservation value for order %d product %d: %w", orderID, productID, err)
	}
	qty, err := strconv.Atoi(val)
	if err != nil {
		return 0, fmt.Errorf("corrupt reservation value %q for order %d product %d: %w", val, orderID, productID, err)
	}
	return qty, nil
}

func (l *RedisLedger) scanEntries(ctx context.Context, orderID uint) ([]string, error) {
	pattern := fmt.Sprintf("%s%d:*", entryPrefix, orderID)
	var keys []string
	iter := l.rdb.Scan(ctx, 0, pattern, 100).Iterator()
	for iter.Next(ctx) {
		keys = append(keys, iter.Val())
	}
	if err := iter.Err(); err != nil {
		return nil, fmt.Errorf("failed to scan reservations for order %d: %w", orderID, err)
	}
	return keys, nil
}
