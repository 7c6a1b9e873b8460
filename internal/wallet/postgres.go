package wallet

import (
	"context"
	"errors"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/shopspring/decimal"
)

// PostgresStore persists wallets in PostgreSQL. Mutations serialize on a
// row-level SELECT ... FOR UPDATE lock; the version column is checked on
// write as an extra guard against lost updates.
type PostgresStore struct {
	db *pgxpool.Pool
}

// NewPostgresStore builds a store backed by PostgreSQL.
func NewPostgresStore(db *pgxpool.Pool) *PostgresStore {
	return &PostgresStore{db: db}
}

// Begin opens a database transaction as the unit of work.
func (s *PostgresStore) Begin(ctx context.Context) (MutationTx, error) {
	tx, err := s.db.BeginTx(ctx, pgx.TxOptions{})
	if err != nil {
		return nil, &StoreError{Op: "begin", Err: err}
	}
	return &postgresTx{tx: tx}, nil
}

// Get reads the committed row for id without locking it.
func (s *PostgresStore) Get(ctx context.Context, id uuid.UUID) (Wallet, error) {
	row := s.db.QueryRow(ctx, `SELECT id, balance::text, version, created_at, updated_at
        FROM wallets WHERE id = $1`, id)
	w, err := scanWallet(row)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return Wallet{}, ErrWalletNotFound
		}
		return Wallet{}, &StoreError{Op: "get", Err: err}
	}
	return w, nil
}

type postgresTx struct {
	tx pgx.Tx
}

func (t *postgresTx) Lock(ctx context.Context, id uuid.UUID) (Wallet, bool, error) {
	row := t.tx.QueryRow(ctx, `SELECT id, balance::text, version, created_at, updated_at
        FROM wallets WHERE id = $1 FOR UPDATE`, id)
	w, err := scanWallet(row)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return Wallet{}, false, nil
		}
		return Wallet{}, false, &StoreError{Op: "lock", Err: err}
	}
	return w, true, nil
}

func (t *postgresTx) Upsert(ctx context.Context, w Wallet) (Wallet, error) {
	// The WHERE guard on the conflict branch refuses a write whose version
	// is stale; RETURNING then yields no row and the caller must redo the
	// whole unit of work.
	row := t.tx.QueryRow(ctx, `INSERT INTO wallets (id, balance, version, created_at, updated_at)
        VALUES ($1, $2::numeric, $3, now(), now())
        ON CONFLICT (id) DO UPDATE
            SET balance = EXCLUDED.balance, version = wallets.version + 1, updated_at = now()
            WHERE wallets.version = $3
        RETURNING id, balance::text, version, created_at, updated_at`,
		w.ID, w.Balance.StringFixed(Scale), w.Version)
	persisted, err := scanWallet(row)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return Wallet{}, ErrConcurrentModification
		}
		return Wallet{}, &StoreError{Op: "upsert", Err: err}
	}
	return persisted, nil
}

func (t *postgresTx) Commit(ctx context.Context) error {
	if err := t.tx.Commit(ctx); err != nil {
		return &StoreError{Op: "commit", Err: err}
	}
	return nil
}

func (t *postgresTx) Rollback(ctx context.Context) error {
	if err := t.tx.Rollback(ctx); err != nil && !errors.Is(err, pgx.ErrTxClosed) {
		return &StoreError{Op: "rollback", Err: err}
	}
	return nil
}

// scanWallet reads a row selected with balance cast to text, keeping the
// decimal exact through the driver.
func scanWallet(row pgx.Row) (Wallet, error) {
	var (
		w         Wallet
		balance   string
		createdAt time.Time
		updatedAt time.Time
	)
	if err := row.Scan(&w.ID, &balance, &w.Version, &createdAt, &updatedAt); err != nil {
		return Wallet{}, err
	}
	b, err := decimal.NewFromString(balance)
	if err != nil {
		return Wallet{}, err
	}
	w.Balance = b
	w.CreatedAt = createdAt.UTC()
	w.UpdatedAt = updatedAt.UTC()
	return w, nil
}
