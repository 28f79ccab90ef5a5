package sqlite_test

import (
	"context"
	"path/filepath"
	"testing"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/warp/fee-engine/fees"
	"github.com/warp/fee-engine/kv"
	"github.com/warp/fee-engine/store/sqlite"
)

func newStore(t *testing.T) *sqlite.Store {
	t.Helper()
	store, err := sqlite.New(":memory:")
	require.NoError(t, err)
	t.Cleanup(func() { store.Close() })
	return store
}

func TestStore_GetSetRemove(t *testing.T) {
	ctx := context.Background()
	store := newStore(t)

	// GIVEN: an empty store
	_, err := store.Get(ctx, "missing")
	assert.ErrorIs(t, err, kv.ErrNotFound)

	// WHEN: a value is written and overwritten
	require.NoError(t, store.Set(ctx, "k", []byte("v1")))
	require.NoError(t, store.Set(ctx, "k", []byte("v2")))

	// THEN: the latest value wins
	got, err := store.Get(ctx, "k")
	require.NoError(t, err)
	assert.Equal(t, []byte("v2"), got)

	require.NoError(t, store.Remove(ctx, "k"))
	_, err = store.Get(ctx, "k")
	assert.ErrorIs(t, err, kv.ErrNotFound)
	assert.NoError(t, store.Remove(ctx, "k"), "removing twice is fine")
}

func TestStore_KeysAndReset(t *testing.T) {
	ctx := context.Background()
	store := newStore(t)
	require.NoError(t, store.Set(ctx, "b", []byte("1")))
	require.NoError(t, store.Set(ctx, "a", []byte("2")))

	keys, err := store.Keys(ctx)
	require.NoError(t, err)
	assert.Equal(t, []string{"a", "b"}, keys)

	require.NoError(t, store.Reset(ctx))
	keys, err = store.Keys(ctx)
	require.NoError(t, err)
	assert.Empty(t, keys)
}

func TestStore_RosterSurvivesReopen(t *testing.T) {
	ctx := context.Background()
	path := filepath.Join(t.TempDir(), "fees.db")

	// GIVEN: a roster written through a file database
	store, err := sqlite.New(path)
	require.NoError(t, err)
	roster, err := fees.NewRoster(ctx, store)
	require.NoError(t, err)
	s, err := roster.AddStudent(ctx, fees.NewStudent{
		Name: "Alice Smith", RollNumber: "S1001", Class: "10A", Grade: "10",
		TotalFees: decimal.NewFromInt(50000),
	})
	require.NoError(t, err)
	_, err = roster.AddPayment(ctx, s.ID, fees.PaymentInput{Amount: decimal.NewFromInt(20000)})
	require.NoError(t, err)
	require.NoError(t, store.Close())

	// WHEN: the database is reopened
	store, err = sqlite.New(path)
	require.NoError(t, err)
	defer store.Close()
	reloaded, err := fees.NewRoster(ctx, store)
	require.NoError(t, err)

	// THEN
	l, err := reloaded.StudentLedger(s.ID)
	require.NoError(t, err)
	assert.True(t, l.RemainingBalance.Equal(decimal.NewFromInt(30000)))
}
