package models

import (
	"fmt"

	"github.com/shopspring/decimal"
)

// SystemUserID is the sentinel debit-side identity for add_funds
// transactions, which have no real payer.
const SystemUserID = "system"

// TransactionType classifies a wallet transaction.
type TransactionType string

const (
	// TransactionTransfer is a direct wallet-to-wallet transfer.
	TransactionTransfer TransactionType = "transfer"
	// TransactionSettlement is a transfer that settles a split share.
	TransactionSettlement TransactionType = "settlement"
	// TransactionAddFunds is a top-up credited from the system identity.
	TransactionAddFunds TransactionType = "add_funds"
)

// TransactionStatus is the recorded outcome of a wallet transaction.
type TransactionStatus string

const (
	TransactionCompleted TransactionStatus = "completed"
	TransactionPending   TransactionStatus = "pending"
	TransactionFailed    TransactionStatus = "failed"
)

// WalletTransaction is an append-only ledger row recording a completed
// funds movement. For transfer and settlement types, both balance legs were
// applied atomically with writing this record; it is the durable proof the
// mutation happened. Rows are never updated or deleted.
type WalletTransaction struct {
	// ID is the unique identifier for the transaction (UUID format).
	ID string

	// FromUserID is the debited user, or SystemUserID for add_funds.
	FromUserID string

	// ToUserID is the credited user.
	ToUserID string

	Amount   decimal.Decimal
	Currency string

	Type TransactionType

	// Description is a human-readable note for history views.
	Description string

	// SplitID correlates a settlement transaction with its split.
	SplitID string

	Status TransactionStatus

	// CreatedAt is a Unix timestamp.
	CreatedAt int64
}

// Validate checks structural invariants of a wallet transaction.
func (t *WalletTransaction) Validate() error {
	if !ValidAmount(t.Amount) {
		return ErrInvalidAmount
	}
	if !ValidCurrency(t.Currency) {
		return fmt.Errorf("transaction currency %q: %w", t.Currency, ErrInvalidCurrency)
	}
	if t.ToUserID == "" {
		return fmt.Errorf("transaction has no recipient: %w", ErrInvalidState)
	}
	switch t.Type {
	case TransactionAddFunds:
		if t.FromUserID != SystemUserID {
			return fmt.Errorf("add_funds must debit the system identity: %w", ErrInvalidState)
		}
	case TransactionTransfer, TransactionSettlement:
		if t.FromUserID == "" {
			return fmt.Errorf("transaction has no payer: %w", ErrInvalidState)
		}
		if t.FromUserID == t.ToUserID {
			return ErrSameUser
		}
	default:
		return fmt.Errorf("unknown transaction type %q: %w", t.Type, ErrInvalidState)
	}
	switch t.Status {
	case TransactionCompleted, TransactionPending, TransactionFailed:
	default:
		return fmt.Errorf("unknown transaction status %q: %w", t.Status, ErrInvalidState)
	}
	return nil
}
