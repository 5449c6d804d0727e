// Package wallet implements the wallet ledger: atomic multi-party balance
// mutation with transaction recording.
//
// Balances are the one piece of truly shared mutable state in the core.
// The service never reads a balance to decide whether a transfer fits;
// the sufficient-funds check belongs to the store's atomic transfer unit,
// so concurrent transfers from the same payer serialize correctly.
package wallet

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/shopspring/decimal"

	"github.com/mmynk/finpal/internal/metrics"
	"github.com/mmynk/finpal/internal/models"
	"github.com/mmynk/finpal/internal/storage"
)

// Service performs wallet operations against the store.
type Service struct {
	store storage.Store
}

// NewService creates a wallet service backed by the given store.
func NewService(store storage.Store) *Service {
	return &Service{store: store}
}

// AddFunds credits the user's balance for the currency and records an
// add_funds transaction debited from the system identity. A currency the
// user never held before starts from an implicit zero.
func (s *Service) AddFunds(ctx context.Context, userID string, amount decimal.Decimal, currency string) (*models.WalletTransaction, error) {
	txn := &models.WalletTransaction{
		FromUserID:  models.SystemUserID,
		ToUserID:    userID,
		Amount:      models.RoundMoney(amount),
		Currency:    currency,
		Type:        models.TransactionAddFunds,
		Description: "Wallet top-up",
		Status:      models.TransactionCompleted,
	}
	if err := txn.Validate(); err != nil {
		return nil, err
	}

	if err := s.store.AddFunds(ctx, txn); err != nil {
		metrics.WalletTransactions.WithLabelValues(string(txn.Type), "error").Inc()
		return nil, fmt.Errorf("add funds: %w", err)
	}
	metrics.WalletTransactions.WithLabelValues(string(txn.Type), "ok").Inc()

	slog.Info("Funds added",
		"user_id", userID,
		"amount", txn.Amount.StringFixed(2),
		"currency", currency,
		"transaction_id", txn.ID,
	)

	return txn, nil
}

// Transfer moves amount from one user's wallet to another's. The debit,
// the credit, and the transaction append are applied as one atomic unit:
// on any failure, including insufficient funds, no balance changes and
// nothing is recorded.
func (s *Service) Transfer(ctx context.Context, fromUserID, toUserID string, amount decimal.Decimal, currency, description string) (*models.WalletTransaction, error) {
	txn := &models.WalletTransaction{
		FromUserID:  fromUserID,
		ToUserID:    toUserID,
		Amount:      models.RoundMoney(amount),
		Currency:    currency,
		Type:        models.TransactionTransfer,
		Description: description,
		Status:      models.TransactionCompleted,
	}
	if err := txn.Validate(); err != nil {
		return nil, err
	}

	if err := s.store.Transfer(ctx, txn); err != nil {
		metrics.WalletTransactions.WithLabelValues(string(txn.Type), "error").Inc()
		return nil, fmt.Errorf("transfer: %w", err)
	}
	metrics.WalletTransactions.WithLabelValues(string(txn.Type), "ok").Inc()

	slog.Info("Transfer completed",
		"from", fromUserID,
		"to", toUserID,
		"amount", txn.Amount.StringFixed(2),
		"currency", currency,
		"transaction_id", txn.ID,
	)

	return txn, nil
}

// SettleShare moves a split share from the debtor to the creditor and marks
// the participant settled in the same storage transaction, recording the
// movement as a settlement transaction. The participant's settled flag is
// the guard: of two concurrent calls for the same share exactly one debits,
// the other returns models.ErrInvalidState with no balance change.
func (s *Service) SettleShare(ctx context.Context, splitID, fromUserID, toUserID string, amount decimal.Decimal, currency, description string) (*models.Split, *models.WalletTransaction, error) {
	txn := &models.WalletTransaction{
		FromUserID:  fromUserID,
		ToUserID:    toUserID,
		Amount:      models.RoundMoney(amount),
		Currency:    currency,
		Type:        models.TransactionSettlement,
		Description: description,
		SplitID:     splitID,
		Status:      models.TransactionCompleted,
	}
	if err := txn.Validate(); err != nil {
		return nil, nil, err
	}

	split, err := s.store.SettleViaWallet(ctx, splitID, fromUserID, txn)
	if err != nil {
		metrics.WalletTransactions.WithLabelValues(string(txn.Type), "error").Inc()
		return nil, nil, fmt.Errorf("settle share: %w", err)
	}
	metrics.WalletTransactions.WithLabelValues(string(txn.Type), "ok").Inc()

	slog.Info("Share settled",
		"split_id", splitID,
		"from", fromUserID,
		"to", toUserID,
		"amount", txn.Amount.StringFixed(2),
		"currency", currency,
		"transaction_id", txn.ID,
	)

	return split, txn, nil
}

// Balance returns the user's balance for one currency, zero if the user
// never held it. This is an advisory read for UI short-circuiting; it is
// never consulted by Transfer.
func (s *Service) Balance(ctx context.Context, userID, currency string) (decimal.Decimal, error) {
	balances, err := s.store.GetBalances(ctx, userID)
	if err != nil {
		return decimal.Zero, fmt.Errorf("get balance: %w", err)
	}
	if b, ok := balances[currency]; ok {
		return b, nil
	}
	return decimal.Zero, nil
}

// History returns the user's most recent wallet transactions.
func (s *Service) History(ctx context.Context, userID string, limit int) ([]*models.WalletTransaction, error) {
	txns, err := s.store.ListWalletTransactions(ctx, userID, limit)
	if err != nil {
		return nil, fmt.Errorf("list transactions: %w", err)
	}
	return txns, nil
}
