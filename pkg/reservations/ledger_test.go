package reservations_test

import (
	"context"
	"testing"
	"time"

	"pasar/pkg/reservations"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestEntryKeyRoundTrip(t *testing.T) {
	key := reservations.EntryKey(42, 7)
	assert.Equal(t, "reservation:42:7", key)

	orderID, productID, ok := reservations.ParseEntryKey(key)
	require.True(t, ok)
	assert.Equal(t, uint(42), orderID)
	assert.Equal(t, uint(7), productID)
}

func TestParseEntryKey_RejectsForeignKeys(t *testing.T) {
	cases := []string{
		"order_status:42",
		"reservation-value:42:7",
		"reservation:42",
		"reservation:abc:7",
		"reservation:42:xyz",
		"",
	}
	for _, key := range cases {
		_, _, ok := reservations.ParseEntryKey(key)
		assert.False(t, ok, "key %q must not parse", key)
	}
}

func TestMemoryLedger_ReserveAndCommit(t *testing.T) {
	ctx := context.Background()
	ledger := reservations.NewMemoryLedger()

	require.NoError(t, ledger.Reserve(ctx, 1, 10, 3, time.Minute))
	require.NoError(t, ledger.Reserve(ctx, 1, 11, 2, time.Minute))
	require.NoError(t, ledger.Reserve(ctx, 2, 10, 5, time.Minute))

	count, err := ledger.PendingCount(ctx, 1)
	require.NoError(t, err)
	assert.Equal(t, 2, count)

	qty, err := ledger.ReservedQty(ctx, 1, 10)
	require.NoError(t, err)
	assert.Equal(t, 3, qty)

	require.NoError(t, ledger.Commit(ctx, 1))

	count, err = ledger.PendingCount(ctx, 1)
	require.NoError(t, err)
	assert.Equal(t, 0, count)

	// Commit is scoped to one order.
	count, err = ledger.PendingCount(ctx, 2)
	require.NoError(t, err)
	assert.Equal(t, 1, count)
}

func TestMemoryLedger_ReleaseEntryIsIdempotent(t *testing.T) {
	ctx := context.Background()
	ledger := reservations.NewMemoryLedger()

	require.NoError(t, ledger.Reserve(ctx, 1, 10, 3, time.Minute))

	existed, err := ledger.ReleaseEntry(ctx, 1, 10)
	require.NoError(t, err)
	assert.True(t, existed)

	existed, err = ledger.ReleaseEntry(ctx, 1, 10)
	require.NoError(t, err)
	assert.False(t, existed, "second release must report the entry as gone")
}

func TestMemoryLedger_ExpireKeepsCompanionValue(t *testing.T) {
	ctx := context.Background()
	ledger := reservations.NewMemoryLedger()

	require.NoError(t, ledger.Reserve(ctx, 1, 10, 3, time.Minute))

	qty, ok := ledger.Expire(1, 10)
	require.True(t, ok)
	assert.Equal(t, 3, qty)

	// The entry is gone but the quantity stays readable, mirroring the
	// companion record surviving key expiry.
	count, err := ledger.PendingCount(ctx, 1)
	require.NoError(t, err)
	assert.Equal(t, 0, count)

	stored, err := ledger.ReservedQty(ctx, 1, 10)
	require.NoError(t, err)
	assert.Equal(t, 3, stored)

	_, ok = ledger.Expire(1, 10)
	assert.False(t, ok, "an entry expires once")
}
