package badger

import (
	"context"
	"testing"
	"time"

	"github.com/poiesic/lakechain/core"
	"github.com/poiesic/lakechain/storage"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLedgerMarkAndSeen(t *testing.T) {
	ledger, err := NewMemoryLedger(time.Hour)
	require.NoError(t, err)
	defer ledger.Close()

	ctx := context.Background()
	key := core.FingerprintOf([]byte("message-body"))

	seen, err := ledger.Seen(ctx, key)
	require.NoError(t, err)
	assert.False(t, seen)

	require.NoError(t, ledger.Mark(ctx, &storage.Entry{Key: key, ChainID: "chain", Service: "svc", Outputs: 2}))

	seen, err = ledger.Seen(ctx, key)
	require.NoError(t, err)
	assert.True(t, seen)

	entry, err := ledger.Get(ctx, key)
	require.NoError(t, err)
	assert.Equal(t, "chain", entry.ChainID)
	assert.Equal(t, 2, entry.Outputs)
	assert.False(t, entry.HandledAt.IsZero())
}

func TestLedgerGetMissing(t *testing.T) {
	ledger, err := NewMemoryLedger(0)
	require.NoError(t, err)
	defer ledger.Close()

	_, err = ledger.Get(context.Background(), core.Fingerprint(42))
	assert.ErrorIs(t, err, storage.ErrNotFound)
}

func TestLedgerEntriesExpire(t *testing.T) {
	if testing.Short() {
		t.Skip("waits for ttl expiry")
	}
	ledger, err := NewMemoryLedger(time.Second)
	require.NoError(t, err)
	defer ledger.Close()

	ctx := context.Background()
	key := core.Fingerprint(7)
	require.NoError(t, ledger.Mark(ctx, &storage.Entry{Key: key}))

	time.Sleep(2100 * time.Millisecond)

	seen, err := ledger.Seen(ctx, key)
	require.NoError(t, err)
	assert.False(t, seen)
}

func TestLedgerStats(t *testing.T) {
	ledger, err := NewMemoryLedger(time.Hour)
	require.NoError(t, err)
	defer ledger.Close()

	ctx := context.Background()
	t0 := time.Date(2025, 1, 1, 0, 0, 0, 0, time.UTC)
	entries := []*storage.Entry{
		{Key: 1, Service: "pdf-text-converter", Outputs: 3, HandledAt: t0.Add(time.Hour)},
		{Key: 2, Service: "pdf-text-converter", Outputs: 1, HandledAt: t0},
		{Key: 3, Service: "text-splitter", Outputs: 5, HandledAt: t0.Add(2 * time.Hour)},
	}
	for _, e := range entries {
		require.NoError(t, ledger.Mark(ctx, e))
	}

	stats, err := ledger.Stats(ctx)
	require.NoError(t, err)
	assert.Equal(t, 3, stats.Entries)
	assert.Equal(t, 9, stats.Outputs)
	assert.Equal(t, t0, stats.Oldest)
	assert.Equal(t, t0.Add(2*time.Hour), stats.Newest)
	assert.Equal(t, map[string]int{"pdf-text-converter": 2, "text-splitter": 1}, stats.Service)
}

func TestLedgerClosed(t *testing.T) {
	ledger, err := NewMemoryLedger(time.Hour)
	require.NoError(t, err)
	require.NoError(t, ledger.Close())

	_, err = ledger.Seen(context.Background(), core.Fingerprint(1))
	assert.ErrorIs(t, err, storage.ErrStorageClosed)
	assert.NoError(t, ledger.Close())
}

func TestOpenLedgerPersists(t *testing.T) {
	dir := t.TempDir()
	ctx := context.Background()

	ledger, err := OpenLedger(dir, DefaultTTL)
	require.NoError(t, err)
	require.NoError(t, ledger.Mark(ctx, &storage.Entry{Key: 99, Service: "svc"}))
	require.NoError(t, ledger.Close())

	reopened, err := OpenLedger(dir, DefaultTTL)
	require.NoError(t, err)
	defer reopened.Close()

	seen, err := reopened.Seen(ctx, 99)
	require.NoError(t, err)
	assert.True(t, seen)
}

func TestSharedBackendNotClosedByLedger(t *testing.T) {
	backend, err := OpenBackend("", true)
	require.NoError(t, err)
	defer backend.Close()

	ledger := NewLedger(backend, time.Hour)
	require.NoError(t, ledger.Close())
	assert.False(t, backend.IsClosed())
}
