package reservations

import (
	"context"
	"log"

	"github.com/redis/go-redis/v9"
)

// expiredChannel matches expired-key events from any Redis database.
const expiredChannel = "__keyevent@*__:expired"

// ExpiryHandler receives one expired reservation. It must re-credit the
// product stock and, when this was the last outstanding reservation of an
// unpaid order, mark the order expired.
type ExpiryHandler func(ctx context.Context, orderID, productID uint, qty int) error

// Reactor subscribes to the Redis expired-key notification channel and
// translates reservation key expirations into ExpiryHandler calls. The
// notification payload is the key name only, so the reserved quantity is
// read back from the companion value record written at reservation time.
type Reactor struct {
	rdb     *redis.Client
	ledger  *RedisLedger
	handler ExpiryHandler
}

// NewReactor wires a reactor to the given client and handler.
func NewReactor(rdb *redis.Client, handler ExpiryHandler) *Reactor {
	return &Reactor{
		rdb:     rdb,
		ledger:  NewRedisLedger(rdb),
		handler: handler,
	}
}

// Run blocks consuming expiry notifications until ctx is cancelled. It is
// safe to run as a single long-lived goroutine; unrelated orders expiring
// concurrently share no state beyond the store itself.
func (r *Reactor) Run(ctx context.Context) error {
	// Keyspace notifications are off by default; best effort to switch
	// them on. Managed Redis deployments may reject CONFIG SET.
	if err := r.rdb.ConfigSet(ctx, "notify-keyspace-events", "Ex").Err(); err != nil {
		log.Printf("reservations: could not enable keyspace notifications, assuming preconfigured: %v", err)
	}

	sub := r.rdb.PSubscribe(ctx, expiredChannel)
	defer sub.Close()

	ch := sub.Channel()
	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case msg, ok := <-ch:
			if !ok {
				return nil
			}
			r.handleExpiredKey(ctx, msg.Payload)
		}
	}
}

func (r *Reactor) handleExpiredKey(ctx context.Context, key string) {
	orderID, productID, ok := ParseEntryKey(key)
	if !ok {
		return
	}

	qty, err := r.ledger.ReservedQty(ctx, orderID, productID)
	if err != nil {
		log.Printf("reservations: INCONSISTENCY order=%d product=%d: reserved quantity unreadable, stock not re-credited, manual reconciliation required: %v",
			orderID, productID, err)
		return
	}
	if qty == 0 {
		// Companion record already consumed or expired past its grace
		// window. Nothing to re-credit.
		log.Printf("reservations: expired key %s has no companion value, skipping", key)
		return
	}

	if err := r.handler(ctx, orderID, productID, qty); err != nil {
		// The TTL key is already gone, so this is not retried here; the
		// log line is the input for out-of-band reconciliation.
		log.Printf("reservations: INCONSISTENCY order=%d product=%d qty=%d: restock failed, manual reconciliation required: %v",
			orderID, productID, qty, err)
		return
	}

	if err := r.rdb.Del(ctx, ValueKey(orderID, productID)).Err(); err != nil {
		log.Printf("reservations: failed to drop value record for order %d product %d: %v", orderID, productID, err)
	}
}
