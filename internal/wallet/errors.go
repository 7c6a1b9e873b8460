package wallet

import (
	"errors"
	"fmt"

	"github.com/shopspring/decimal"
)

var (
	// ErrWalletNotFound occurs when a query or withdrawal targets an id that
	// has no wallet row. Withdrawals never create wallets.
	ErrWalletNotFound = errors.New("wallet not found")

	// ErrInvalidAmount rejects zero, negative, or over-precise amounts before
	// any store interaction happens.
	ErrInvalidAmount = errors.New("amount must be a positive decimal")

	// ErrInsufficientFunds occurs when a withdrawal exceeds the current balance.
	ErrInsufficientFunds = errors.New("insufficient funds")

	// ErrConcurrentModification indicates a write lost a version race. The
	// whole unit of work should be re-run by the caller; the engine does not
	// retry on its own.
	ErrConcurrentModification = errors.New("concurrent wallet modification")

	// ErrStoreUnavailable marks transient storage failures. Retryable with
	// backoff.
	ErrStoreUnavailable = errors.New("wallet store unavailable")
)

// InsufficientFundsError carries the balances involved in a rejected
// withdrawal for diagnostics. It matches ErrInsufficientFunds under errors.Is.
type InsufficientFundsError struct {
	Balance   decimal.Decimal
	Requested decimal.Decimal
}

func (e *InsufficientFundsError) Error() string {
	return fmt.Sprintf("insufficient funds: balance %s, requested %s", e.Balance, e.Requested)
}

func (e *InsufficientFundsError) Is(target error) bool {
	return target == ErrInsufficientFunds
}

// StoreError wraps an underlying storage failure while keeping the cause
// reachable for diagnostics. It matches ErrStoreUnavailable under errors.Is.
type StoreError struct {
	Op  string
	Err error
}

func (e *StoreError) Error() string {
	return fmt.Sprintf("wallet store: %s: %v", e.Op, e.Err)
}

func (e *StoreError) Is(target error) bool {
	return target == ErrStoreUnavailable
}

func (e *StoreError) Unwrap() error {
	return e.Err
}

// wrapStore normalizes a store failure: recognized domain errors pass through
// untouched, anything else is surfaced as a StoreError so storage-layer detail
// never leaks past the engine boundary.
func wrapStore(op string, err error) error {
	if err == nil {
		return nil
	}
	if errors.Is(err, ErrWalletNotFound) ||
		errors.Is(err, ErrConcurrentModification) ||
		errors.Is(err, ErrStoreUnavailable) {
		return err
	}
	return &StoreError{Op: op, Err: err}
}
