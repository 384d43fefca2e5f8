// Package reservations implements the time-bounded stock reservation
// ledger. Every order line gets one TTL-bearing entry; the entry expiring
// or being deleted is the sole trigger for releasing or committing the
// reserved stock.
package reservations

import (
	"context"
	"fmt"
	"strconv"
	"strings"
	"time"
)

const (
	entryPrefix = "reservation:"
	valuePrefix = "reservation-value:"

	// The companion value record outlives the TTL key by this much so the
	// expiry reactor can still read the reserved quantity after the key
	// itself is gone.
	valueGrace = time.Minute
)

// EntryKey builds the TTL key for one (order, product) reservation.
func EntryKey(orderID, productID uint) string {
	return fmt.Sprintf("%s%d:%d", entryPrefix, orderID, productID)
}

// ValueKey builds the companion key holding the reserved quantity.
func ValueKey(orderID, productID uint) string {
	return fmt.Sprintf("%s%d:%d", valuePrefix, orderID, productID)
}

// ParseEntryKey extracts order and product ids from a reservation entry
// key. ok is false for keys outside the reservation namespace.
func ParseEntryKey(key string) (orderID, productID uint, ok bool) {
	rest, found := strings.CutPrefix(key, entryPrefix)
	if !found {
		return 0, 0, false
	}
	parts := strings.SplitN(rest, ":", 2)
	if len(parts) != 2 {
		return 0, 0, false
	}
	o, err := strconv.ParseUint(parts[0], 10, 64)
	if err != nil {
		return 0, 0, false
	}
	p, err := strconv.ParseUint(parts[1], 10, 64)
	if err != nil {
		return 0, 0, false
	}
	return uint(o), uint(p), true
}

// Ledger is the transient reservation store. Implementations must write
// the reserved quantity durably enough (w.r.t. the payment window) that it
// can be read back after the TTL key disappears.
type Ledger interface {
	// Reserve writes one entry with the given TTL plus its companion
	// quantity record.
	Reserve(ctx context.Context, orderID, productID uint, qty int, ttl time.Duration) error

	// Commit deletes every entry and companion record for the order,
	// disarming the expiry trigger. Converting a reservation into a sale.
	Commit(ctx context.Context, orderID uint) error

	// ReleaseEntry deletes a single entry and its companion record,
	// reporting whether the entry still existed. Callers restock only
	// when it did, so a reservation is released at most once.
	ReleaseEntry(ctx context.Context, orderID, productID uint) (bool, error)

	// PendingCount reports how many entries remain outstanding for the
	// order.
	PendingCount(ctx context.Context, orderID uint) (int, error)

	// ReservedQty reads the companion quantity record, 0 when absent.
	ReservedQty(ctx context.Context, orderID, productID uint) (int, error)
}
