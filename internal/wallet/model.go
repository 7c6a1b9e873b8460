package wallet

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// Scale is the number of fractional digits a balance is stored with.
const Scale = 4

// Operation identifies a balance mutation kind.
type Operation string

const (
	OperationDeposit  Operation = "DEPOSIT"
	OperationWithdraw Operation = "WITHDRAW"
)

// Wallet is an account record holding a single non-negative balance.
// Version increases on every committed mutation; CreatedAt and UpdatedAt
// are owned by the store, never by callers.
type Wallet struct {
	ID        uuid.UUID
	Balance   decimal.Decimal
	Version   int64
	CreatedAt time.Time
	UpdatedAt time.Time
}
