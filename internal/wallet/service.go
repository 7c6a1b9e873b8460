package wallet

import (
	"context"
	"log/slog"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// Service applies deposits and withdrawals as single units of work on the
// Store. It keeps no wallet state of its own; every call reads, computes,
// and writes inside one exclusive scope so concurrent mutations of the same
// wallet can never overwrite each other. The service never retries a
// concurrent-modification failure; the caller decides whether to redo the
// operation.
type Service struct {
	store  Store
	logger *slog.Logger
}

// NewService builds the ledger engine on top of a store.
func NewService(store Store, logger *slog.Logger) *Service {
	return &Service{store: store, logger: logger}
}

// Deposit adds amount to the wallet's balance, creating the wallet with a
// zero balance first when no row exists for id.
func (s *Service) Deposit(ctx context.Context, id uuid.UUID, amount decimal.Decimal) (Wallet, error) {
	if err := validateAmount(amount); err != nil {
		return Wallet{}, err
	}

	tx, err := s.store.Begin(ctx)
	if err != nil {
		return Wallet{}, wrapStore("begin", err)
	}
	defer tx.Rollback(ctx) // nolint:errcheck

	current, exists, err := tx.Lock(ctx, id)
	if err != nil {
		return Wallet{}, wrapStore("lock", err)
	}
	if !exists {
		// Create first, then mutate: one code path for new and existing
		// wallets.
		s.logger.Info("creating wallet", slog.String("wallet_id", id.String()))
		current, err = tx.Upsert(ctx, Wallet{ID: id})
		if err != nil {
			return Wallet{}, wrapStore("create", err)
		}
	}

	updated, err := tx.Upsert(ctx, Wallet{
		ID:      id,
		Balance: current.Balance.Add(amount),
		Version: current.Version,
	})
	if err != nil {
		return Wallet{}, wrapStore("upsert", err)
	}
	if err := tx.Commit(ctx); err != nil {
		return Wallet{}, wrapStore("commit", err)
	}

	s.logger.Debug("deposit applied",
		slog.String("wallet_id", id.String()),
		slog.String("amount", amount.String()),
		slog.String("balance", updated.Balance.String()))
	return updated, nil
}

// Withdraw subtracts amount from the wallet's balance. It never creates a
// wallet and leaves the row untouched when funds are insufficient.
func (s *Service) Withdraw(ctx context.Context, id uuid.UUID, amount decimal.Decimal) (Wallet, error) {
	if err := validateAmount(amount); err != nil {
		return Wallet{}, err
	}

	tx, err := s.store.Begin(ctx)
	if err != nil {
		return Wallet{}, wrapStore("begin", err)
	}
	defer tx.Rollback(ctx) // nolint:errcheck

	current, exists, err := tx.Lock(ctx, id)
	if err != nil {
		return Wallet{}, wrapStore("lock", err)
	}
	if !exists {
		s.logger.Warn("withdraw from unknown wallet", slog.String("wallet_id", id.String()))
		return Wallet{}, ErrWalletNotFound
	}
	if current.Balance.LessThan(amount) {
		s.logger.Warn("insufficient funds",
			slog.String("wallet_id", id.String()),
			slog.String("balance", current.Balance.String()),
			slog.String("requested", amount.String()))
		return Wallet{}, &InsufficientFundsError{Balance: current.Balance, Requested: amount}
	}

	updated, err := tx.Upsert(ctx, Wallet{
		ID:      id,
		Balance: current.Balance.Sub(amount),
		Version: current.Version,
	})
	if err != nil {
		return Wallet{}, wrapStore("upsert", err)
	}
	if err := tx.Commit(ctx); err != nil {
		return Wallet{}, wrapStore("commit", err)
	}

	s.logger.Debug("withdraw applied",
		slog.String("wallet_id", id.String()),
		slog.String("amount", amount.String()),
		slog.String("balance", updated.Balance.String()))
	return updated, nil
}

// Balance returns the last committed state for id. The read takes no lock
// and is never used to drive a write.
func (s *Service) Balance(ctx context.Context, id uuid.UUID) (Wallet, error) {
	w, err := s.store.Get(ctx, id)
	if err != nil {
		return Wallet{}, wrapStore("get", err)
	}
	return w, nil
}

// validateAmount rejects non-positive amounts and amounts carrying more than
// Scale fractional digits, before any store interaction.
func validateAmount(a decimal.Decimal) error {
	if a.Sign() <= 0 {
		return ErrInvalidAmount
	}
	if a.Exponent() < -Scale && !a.Equal(a.Round(Scale)) {
		return ErrInvalidAmount
	}
	return nil
}
