package wallet

import (
	"context"

	"github.com/google/uuid"
)

// Store gives keyed, transactional access to wallet rows. Implementations
// must serialize concurrent mutations of the same id: two units of work
// locking the same wallet run one after the other, while different ids never
// contend on a shared lock.
type Store interface {
	// Begin opens a unit of work. Every lock acquired through the returned
	// MutationTx is released when the unit of work commits or rolls back.
	Begin(ctx context.Context) (MutationTx, error)

	// Get reads the current committed state without taking any lock. It is
	// meant for pure balance queries, never for a read-then-write sequence.
	// Returns ErrWalletNotFound when no row exists.
	Get(ctx context.Context, id uuid.UUID) (Wallet, error)
}

// MutationTx is a single unit of work against the store.
type MutationTx interface {
	// Lock acquires exclusive access to the row for id until the unit of
	// work ends, blocking while another unit of work holds it. The second
	// return value reports whether the wallet exists.
	Lock(ctx context.Context, id uuid.UUID) (Wallet, bool, error)

	// Upsert inserts the wallet if its id is new or overwrites balance,
	// version, and updated_at if it exists. The passed Version is the one
	// the caller read; a mismatch against the stored row fails with
	// ErrConcurrentModification. Returns the persisted row.
	Upsert(ctx context.Context, w Wallet) (Wallet, error)

	Commit(ctx context.Context) error
	Rollback(ctx context.Context) error
}
