package reservations

import (
	"context"
	"sync"
	"time"
)

type memoryEntry struct {
	qty      int
	deadline time.Time
}

// MemoryLedger is an in-memory Ledger for tests and local runs without
// Redis. Entries do not expire on their own; tests drive expiry explicitly
// through Expire to inject synthetic expiry events.
type MemoryLedger struct {
	mu      sync.Mutex
	entries map[string]memoryEntry
	values  map[string]int
}

// NewMemoryLedger creates an empty in-memory ledger.
func NewMemoryLedger() *MemoryLedger {
	return &MemoryLedger{
		entries: make(map[string]memoryEntry),
		values:  make(map[string]int),
	}
}

func (l *MemoryLedger) Reserve(_ context.Context, orderID, productID uint, qty int, ttl time.Duration) error {
	l.mu.Lock()
	defer l.mu.Unlock()
	l.entries[EntryKey(orderID, productID)] = memoryEntry{qty: qty, deadline: time.Now().Add(ttl)}
	l.values[ValueKey(orderID, productID)] = qty
	return nil
}

func (l *MemoryLedger) Commit(_ context.Context, orderID uint) error {
	l.mu.Lock()
	defer l.mu.Unlock()
	for key := range l.entries {
		if o, p, ok := ParseEntryKey(key); ok && o == orderID {
			delete(l.entries, key)
			delete(l.values, ValueKey(o, p))
		}
	}
	return nil
}

func (l *MemoryLedger) ReleaseEntry(_ context.Context, orderID, productID uint) (bool, error) {
	l.mu.Lock()
	defer l.mu.Unlock()
	key := EntryKey(orderID, productID)
	_, existed := l.entries[key]
	delete(l.entries, key)
	delete(l.values, ValueKey(orderID, productID))
	return existed, nil
}

func (l *MemoryLedger) PendingCount(_ context.Context, orderID uint) (int, error) {
	l.mu.Lock()
	defer l.mu.Unlock()
	count := 0
	for key := range l.entries {
		if o, _, ok := ParseEntryKey(key); ok && o == orderID {
			count++
		}
	}
	return count, nil
}

func (l *MemoryLedger) ReservedQty(_ context.Context, orderID, productID uint) (int, error) {
	l.mu.Lock()
	defer l.mu.Unlock()
	return l.values[ValueKey(orderID, productID)], nil
}

// Expire simulates the TTL elapsing for one entry: the entry vanishes, the
// companion value survives, and the reserved quantity is returned so the
// caller can feed the expiry handler. ok is false when no entry existed.
func (l *MemoryLedger) Expire(orderID, productID uint) (qty int, ok bool) {
	l.mu.Lock()
	defer l.mu.Unlock()
	key := EntryKey(orderID, productID)
	entry, existed := l.entries[key]
	if !existed {
		return 0, false
	}
	delete(l.entries, key)
	return entry.qty, true
}

// DropValue removes a companion record, mirroring what the reactor does
// after a successful restock.
func (l *MemoryLedger) DropValue(orderID, productID uint) {
	l.mu.Lock()
	defer l.mu.Unlock()
	delete(l.values, ValueKey(orderID, productID))
}
