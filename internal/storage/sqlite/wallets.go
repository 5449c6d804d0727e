package sqlite

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/mmynk/finpal/internal/models"
)

// AddFunds credits the recipient's balance and appends the add_funds
// transaction row in one transaction. A currency with no balance row yet is
// created at zero by the upsert, so there is no "currency not present"
// error path.
func (s *SQLiteStore) AddFunds(ctx context.Context, txn *models.WalletTransaction) error {
	fillTransaction(txn)

	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer tx.Rollback()

	cents := toCents(txn.Amount)
	_, err = tx.ExecContext(ctx,
		`INSERT INTO wallet_balances (user_id, currency, balance_cents) VALUES (?, ?, ?)
		 ON CONFLICT(user_id, currency) DO UPDATE SET balance_cents = balance_cents + excluded.balance_cents`,
		txn.ToUserID, txn.Currency, cents,
	)
	if err != nil {
		return fmt.Errorf("failed to credit balance: %w", err)
	}

	if err := insertTransaction(ctx, tx, txn); err != nil {
		return err
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("failed to commit transaction: %w", err)
	}

	return nil
}

// Transfer applies the debit, the credit, and the transaction append as one
// atomic unit. The sufficient-funds check is the WHERE clause of the debit
// itself; there is no separate balance read, so concurrent transfers from
// the same payer cannot race past the guard.
func (s *SQLiteStore) Transfer(ctx context.Context, txn *models.WalletTransaction) error {
	fillTransaction(txn)

	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer tx.Rollback()

	cents := toCents(txn.Amount)
	res, err := tx.ExecContext(ctx,
		`UPDATE wallet_balances SET balance_cents = balance_cents - ?
		 WHERE user_id = ? AND currency = ? AND balance_cents >= ?`,
		cents, txn.FromUserID, txn.Currency, cents,
	)
	if err != nil {
		return fmt.Errorf("failed to debit balance: %w", err)
	}
	changed, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("failed to read rows affected: %w", err)
	}
	if changed == 0 {
		// Missing balance row and insufficient balance are the same case:
		// the payer cannot cover the amount.
		return fmt.Errorf("user %s has less than %s %s: %w",
			txn.FromUserID, txn.Amount, txn.Currency, models.ErrInsufficientFunds)
	}

	_, err = tx.ExecContext(ctx,
		`INSERT INTO wallet_balances (user_id, currency, balance_cents) VALUES (?, ?, ?)
		 ON CONFLICT(user_id, currency) DO UPDATE SET balance_cents = balance_cents + excluded.balance_cents`,
		txn.ToUserID, txn.Currency, cents,
	)
	if err != nil {
		return fmt.Errorf("failed to credit balance: %w", err)
	}

	if err := insertTransaction(ctx, tx, txn); err != nil {
		return err
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("failed to commit transaction: %w", err)
	}

	return nil
}

// GetBalances returns the user's wallet balances by currency.
func (s *SQLiteStore) GetBalances(ctx context.Context, userID string) (map[string]decimal.Decimal, error) {
	rows, err := s.db.QueryContext(ctx,
		`SELECT currency, balance_cents FROM wallet_balances WHERE user_id = ?`,
		userID,
	)
	if err != nil {
		return nil, fmt.Errorf("failed to get balances: %w", err)
	}
	defer rows.Close()

	balances := make(map[string]decimal.Decimal)
	for rows.Next() {
		var currency string
		var cents int64
		if err := rows.Scan(&currency, &cents); err != nil {
			return nil, fmt.Errorf("failed to scan balance: %w", err)
		}
		balances[currency] = fromCents(cents)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to iterate balances: %w", err)
	}

	return balances, nil
}

// ListWalletTransactions returns transactions where the user is payer or
// recipient, newest first.
func (s *SQLiteStore) ListWalletTransactions(ctx context.Context, userID string, limit int) ([]*models.WalletTransaction, error) {
	if limit <= 0 {
		limit = 50
	}
	rows, err := s.db.QueryContext(ctx,
		`SELECT id, from_user_id, to_user_id, amount_cents, currency, type, description, split_id, status, created_at
		 FROM wallet_transactions
		 WHERE from_user_id = ? OR to_user_id = ?
		 ORDER BY created_at DESC, id LIMIT ?`,
		userID, userID, limit,
	)
	if err != nil {
		return nil, fmt.Errorf("failed to list wallet transactions: %w", err)
	}
	defer rows.Close()

	var txns []*models.WalletTransaction
	for rows.Next() {
		txn := &models.WalletTransaction{}
		var cents int64
		var typ, status string
		if err := rows.Scan(&txn.ID, &txn.FromUserID, &txn.ToUserID, &cents,
			&txn.Currency, &typ, &txn.Description, &txn.SplitID, &status, &txn.CreatedAt); err != nil {
			return nil, fmt.Errorf("failed to scan wallet transaction: %w", err)
		}
		txn.Amount = fromCents(cents)
		txn.Type = models.TransactionType(typ)
		txn.Status = models.TransactionStatus(status)
		txns = append(txns, txn)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to iterate wallet transactions: %w", err)
	}

	return txns, nil
}

func fillTransaction(txn *models.WalletTransaction) {
	if txn.ID == "" {
		txn.ID = uuid.New().String()
	}
	if txn.CreatedAt == 0 {
		txn.CreatedAt = time.Now().Unix()
	}
	if txn.Status == "" {
		txn.Status = models.TransactionCompleted
	}
}

func insertTransaction(ctx context.Context, tx *sql.Tx, txn *models.WalletTransaction) error {
	_, err := tx.ExecContext(ctx,
		`INSERT INTO wallet_transactions (id, from_user_id, to_user_id, amount_cents, currency, type, description, split_id, status, created_at)
		 VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		txn.ID, txn.FromUserID, txn.ToUserID, toCents(txn.Amount),
		txn.Currency, string(txn.Type), txn.Description, txn.SplitID,
		string(txn.Status), txn.CreatedAt,
	)
	if err != nil {
		return fmt.Errorf("failed to insert wallet transaction: %w", err)
	}
	return nil
}
