package wallet

import (
	"context"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/require"
)

func TestMemoryStoreUpsertBumpsVersion(t *testing.T) {
	store := NewMemoryStore()
	ctx := context.Background()
	id := uuid.New()

	tx, err := store.Begin(ctx)
	require.NoError(t, err)
	created, err := tx.Upsert(ctx, Wallet{ID: id})
	require.NoError(t, err)
	require.Equal(t, int64(0), created.Version)

	updated, err := tx.Upsert(ctx, Wallet{ID: id, Balance: decimal.NewFromInt(5), Version: created.Version})
	require.NoError(t, err)
	require.Equal(t, int64(1), updated.Version)
	require.Equal(t, created.CreatedAt, updated.CreatedAt)
	require.NoError(t, tx.Commit(ctx))

	stored, err := store.Get(ctx, id)
	require.NoError(t, err)
	require.Equal(t, int64(1), stored.Version)
}

func TestMemoryStoreStaleVersionFails(t *testing.T) {
	store := NewMemoryStore()
	ctx := context.Background()
	id := uuid.New()
	store.Seed(Wallet{ID: id, Balance: decimal.NewFromInt(10), Version: 7})

	tx, err := store.Begin(ctx)
	require.NoError(t, err)
	defer tx.Rollback(ctx) // nolint:errcheck

	_, _, err = tx.Lock(ctx, id)
	require.NoError(t, err)

	_, err = tx.Upsert(ctx, Wallet{ID: id, Balance: decimal.NewFromInt(20), Version: 6})
	require.ErrorIs(t, err, ErrConcurrentModification)
}

func TestMemoryStoreRollbackDiscardsWrites(t *testing.T) {
	store := NewMemoryStore()
	ctx := context.Background()
	id := uuid.New()

	tx, err := store.Begin(ctx)
	require.NoError(t, err)
	_, err = tx.Upsert(ctx, Wallet{ID: id, Balance: decimal.NewFromInt(100)})
	require.NoError(t, err)
	require.NoError(t, tx.Rollback(ctx))

	_, err = store.Get(ctx, id)
	require.ErrorIs(t, err, ErrWalletNotFound)
}

func TestMemoryStoreLockSerializesSameID(t *testing.T) {
	store := NewMemoryStore()
	ctx := context.Background()
	id := uuid.New()
	store.Seed(Wallet{ID: id})

	tx1, err := store.Begin(ctx)
	require.NoError(t, err)
	_, _, err = tx1.Lock(ctx, id)
	require.NoError(t, err)

	acquired := make(chan struct{})
	go func() {
		tx2, err := store.Begin(ctx)
		if err != nil {
			close(acquired)
			return
		}
		_, _, _ = tx2.Lock(ctx, id) // blocks until tx1 ends
		close(acquired)
		_ = tx2.Rollback(ctx)
	}()

	select {
	case <-acquired:
		t.Fatal("second unit of work acquired the lock while the first held it")
	case <-time.After(50 * time.Millisecond):
	}

	require.NoError(t, tx1.Commit(ctx))

	select {
	case <-acquired:
	case <-time.After(time.Second):
		t.Fatal("second unit of work never acquired the lock after commit")
	}
}

func TestMemoryStoreDifferentIDsDoNotContend(t *testing.T) {
	store := NewMemoryStore()
	ctx := context.Background()
	a, b := uuid.New(), uuid.New()

	txA, err := store.Begin(ctx)
	require.NoError(t, err)
	_, _, err = txA.Lock(ctx, a)
	require.NoError(t, err)

	// A second unit of work on another id must proceed while txA holds its lock.
	txB, err := store.Begin(ctx)
	require.NoError(t, err)
	_, _, err = txB.Lock(ctx, b)
	require.NoError(t, err)
	_, err = txB.Upsert(ctx, Wallet{ID: b, Balance: decimal.NewFromInt(1)})
	require.NoError(t, err)
	require.NoError(t, txB.Commit(ctx))
	require.NoError(t, txA.Rollback(ctx))

	stored, err := store.Get(ctx, b)
	require.NoError(t, err)
	require.True(t, stored.Balance.Equal(decimal.NewFromInt(1)))
}

func TestMemoryTxUnusableAfterFinish(t *testing.T) {
	store := NewMemoryStore()
	ctx := context.Background()

	tx, err := store.Begin(ctx)
	require.NoError(t, err)
	require.NoError(t, tx.Commit(ctx))

	_, _, err = tx.Lock(ctx, uuid.New())
	require.ErrorIs(t, err, ErrStoreUnavailable)
	_, err = tx.Upsert(ctx, Wallet{ID: uuid.New()})
	require.ErrorIs(t, err, ErrStoreUnavailable)
	require.ErrorIs(t, tx.Commit(ctx), ErrStoreUnavailable)
	require.NoError(t, tx.Rollback(ctx))
}
