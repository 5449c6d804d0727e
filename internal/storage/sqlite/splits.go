package sqlite

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"github.com/google/uuid"

	"github.com/mmynk/finpal/internal/models"
)

// CreateSplit persists a split and its participant rows in one transaction.
func (s *SQLiteStore) CreateSplit(ctx context.Context, split *models.Split) error {
	if split.ID == "" {
		split.ID = uuid.New().String()
	}
	if split.CreatedAt == 0 {
		split.CreatedAt = time.Now().Unix()
	}
	if split.UpdatedAt == 0 {
		split.UpdatedAt = split.CreatedAt
	}

	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer tx.Rollback()

	_, err = tx.ExecContext(ctx,
		`INSERT INTO splits (id, expense_id, creator_id, group_id, currency, division_type, status, created_at, updated_at)
		 VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		split.ID, split.ExpenseID, split.CreatorID, split.GroupID,
		split.Currency, string(split.DivisionType), string(split.Status),
		split.CreatedAt, split.UpdatedAt,
	)
	if err != nil {
		return fmt.Errorf("failed to insert split: %w", err)
	}

	for i := range split.Participants {
		p := &split.Participants[i]
		_, err = tx.ExecContext(ctx,
			`INSERT INTO split_participants (split_id, user_id, user_name, amount_cents, paid, settled, payment_method, settlement_request_id, position)
			 VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?)`,
			split.ID, p.UserID, p.UserName, toCents(p.Amount),
			boolToInt(p.Paid), boolToInt(p.Settled),
			string(p.PaymentMethod), p.SettlementRequestID, i,
		)
		if err != nil {
			return fmt.Errorf("failed to insert participant: %w", err)
		}
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("failed to commit transaction: %w", err)
	}

	return nil
}

// GetSplit retrieves a split by ID including all participants in creation order.
func (s *SQLiteStore) GetSplit(ctx context.Context, id string) (*models.Split, error) {
	return s.getSplit(ctx, s.db, id)
}

// querier abstracts *sql.DB and *sql.Tx so split reads work inside and
// outside a transaction.
type querier interface {
	QueryRowContext(ctx context.Context, query string, args ...any) *sql.Row
	QueryContext(ctx context.Context, query string, args ...any) (*sql.Rows, error)
}

func (s *SQLiteStore) getSplit(ctx context.Context, q querier, id string) (*models.Split, error) {
	split := &models.Split{}
	var divisionType, status string
	err := q.QueryRowContext(ctx,
		`SELECT id, expense_id, creator_id, group_id, currency, division_type, status, created_at, updated_at
		 FROM splits WHERE id = ?`,
		id,
	).Scan(&split.ID, &split.ExpenseID, &split.CreatorID, &split.GroupID,
		&split.Currency, &divisionType, &status, &split.CreatedAt, &split.UpdatedAt)
	if err == sql.ErrNoRows {
		return nil, fmt.Errorf("split %s: %w", id, models.ErrSplitNotFound)
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get split: %w", err)
	}
	split.DivisionType = models.DivisionType(divisionType)
	split.Status = models.SplitStatus(status)

	rows, err := q.QueryContext(ctx,
		`SELECT user_id, user_name, amount_cents, paid, settled, payment_method, settlement_request_id
		 FROM split_participants WHERE split_id = ? ORDER BY position`,
		id,
	)
	if err != nil {
		return nil, fmt.Errorf("failed to get participants: %w", err)
	}
	defer rows.Close()

	for rows.Next() {
		var p models.Participant
		var cents int64
		var paid, settled int
		var method string
		if err := rows.Scan(&p.UserID, &p.UserName, &cents, &paid, &settled, &method, &p.SettlementRequestID); err != nil {
			return nil, fmt.Errorf("failed to scan participant: %w", err)
		}
		p.Amount = fromCents(cents)
		p.Paid = paid != 0
		p.Settled = settled != 0
		p.PaymentMethod = models.PaymentMethod(method)
		split.Participants = append(split.Participants, p)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to iterate participants: %w", err)
	}

	return split, nil
}

// ListSplitsByUser returns splits where the user is creator or participant,
// newest first.
func (s *SQLiteStore) ListSplitsByUser(ctx context.Context, userID string) ([]*models.Split, error) {
	rows, err := s.db.QueryContext(ctx,
		`SELECT DISTINCT s.id FROM splits s
		 LEFT JOIN split_participants p ON p.split_id = s.id
		 WHERE s.creator_id = ? OR p.user_id = ?
		 ORDER BY s.created_at DESC, s.id`,
		userID, userID,
	)
	if err != nil {
		return nil, fmt.Errorf("failed to list splits: %w", err)
	}
	defer rows.Close()

	var ids []string
	for rows.Next() {
		var id string
		if err := rows.Scan(&id); err != nil {
			return nil, fmt.Errorf("failed to scan split id: %w", err)
		}
		ids = append(ids, id)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to iterate splits: %w", err)
	}

	splits := make([]*models.Split, 0, len(ids))
	for _, id := range ids {
		split, err := s.GetSplit(ctx, id)
		if err != nil {
			return nil, err
		}
		splits = append(splits, split)
	}

	return splits, nil
}

// SettleParticipant marks one participant paid and settled and recomputes
// the split's derived status inside a single transaction. Only that
// participant's row is written, so concurrent settlements of different
// participants cannot clobber each other. Already-settled participants are
// left untouched.
func (s *SQLiteStore) SettleParticipant(ctx context.Context, splitID, userID string, method models.PaymentMethod, requestID string) (*models.Split, error) {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return nil, fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer tx.Rollback()

	res, err := tx.ExecContext(ctx,
		`UPDATE split_participants
		 SET paid = 1, settled = 1, payment_method = ?,
		     settlement_request_id = CASE WHEN ? != '' THEN ? ELSE settlement_request_id END
		 WHERE split_id = ? AND user_id = ? AND settled = 0`,
		string(method), requestID, requestID, splitID, userID,
	)
	if err != nil {
		return nil, fmt.Errorf("failed to settle participant: %w", err)
	}

	changed, err := res.RowsAffected()
	if err != nil {
		return nil, fmt.Errorf("failed to read rows affected: %w", err)
	}
	if changed == 0 {
		// Either the participant does not exist or it is already settled.
		var settled int
		err := tx.QueryRowContext(ctx,
			`SELECT settled FROM split_participants WHERE split_id = ? AND user_id = ?`,
			splitID, userID,
		).Scan(&settled)
		if err == sql.ErrNoRows {
			if _, err := s.getSplit(ctx, tx, splitID); err != nil {
				return nil, err
			}
			return nil, fmt.Errorf("user %s in split %s: %w", userID, splitID, models.ErrParticipantNotFound)
		}
		if err != nil {
			return nil, fmt.Errorf("failed to check participant: %w", err)
		}
		// Already settled: no-op, return current state.
		return s.getSplit(ctx, tx, splitID)
	}

	if err := s.recomputeStatus(ctx, tx, splitID); err != nil {
		return nil, err
	}

	split, err := s.getSplit(ctx, tx, splitID)
	if err != nil {
		return nil, err
	}

	if err := tx.Commit(); err != nil {
		return nil, fmt.Errorf("failed to commit transaction: %w", err)
	}

	return split, nil
}

// SettleViaWallet marks the participant settled, moves the funds, and
// records the transaction in one SQL transaction. The participant update
// is the serialization point: its settled = 0 condition admits exactly one
// writer per share, so a concurrent duplicate settle fails here before any
// balance is touched. A debit failure rolls the participant update back.
func (s *SQLiteStore) SettleViaWallet(ctx context.Context, splitID, userID string, txn *models.WalletTransaction) (*models.Split, error) {
	fillTransaction(txn)

	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return nil, fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer tx.Rollback()

	res, err := tx.ExecContext(ctx,
		`UPDATE split_participants
		 SET paid = 1, settled = 1, payment_method = ?
		 WHERE split_id = ? AND user_id = ? AND settled = 0`,
		string(models.PaymentWallet), splitID, userID,
	)
	if err != nil {
		return nil, fmt.Errorf("failed to settle participant: %w", err)
	}
	changed, err := res.RowsAffected()
	if err != nil {
		return nil, fmt.Errorf("failed to read rows affected: %w", err)
	}
	if changed == 0 {
		var settled int
		err := tx.QueryRowContext(ctx,
			`SELECT settled FROM split_participants WHERE split_id = ? AND user_id = ?`,
			splitID, userID,
		).Scan(&settled)
		if err == sql.ErrNoRows {
			if _, err := s.getSplit(ctx, tx, splitID); err != nil {
				return nil, err
			}
			return nil, fmt.Errorf("user %s in split %s: %w", userID, splitID, models.ErrParticipantNotFound)
		}
		if err != nil {
			return nil, fmt.Errorf("failed to check participant: %w", err)
		}
		return nil, fmt.Errorf("participant %s in split %s already settled: %w", userID, splitID, models.ErrInvalidState)
	}

	cents := toCents(txn.Amount)
	res, err = tx.ExecContext(ctx,
		`UPDATE wallet_balances SET balance_cents = balance_cents - ?
		 WHERE user_id = ? AND currency = ? AND balance_cents >= ?`,
		cents, txn.FromUserID, txn.Currency, cents,
	)
	if err != nil {
		return nil, fmt.Errorf("failed to debit balance: %w", err)
	}
	debited, err := res.RowsAffected()
	if err != nil {
		return nil, fmt.Errorf("failed to read rows affected: %w", err)
	}
	if debited == 0 {
		return nil, fmt.Errorf("user %s has less than %s %s: %w",
			txn.FromUserID, txn.Amount, txn.Currency, models.ErrInsufficientFunds)
	}

	_, err = tx.ExecContext(ctx,
		`INSERT INTO wallet_balances (user_id, currency, balance_cents) VALUES (?, ?, ?)
		 ON CONFLICT(user_id, currency) DO UPDATE SET balance_cents = balance_cents + excluded.balance_cents`,
		txn.ToUserID, txn.Currency, cents,
	)
	if err != nil {
		return nil, fmt.Errorf("failed to credit balance: %w", err)
	}

	if err := insertTransaction(ctx, tx, txn); err != nil {
		return nil, err
	}

	if err := s.recomputeStatus(ctx, tx, splitID); err != nil {
		return nil, err
	}

	split, err := s.getSplit(ctx, tx, splitID)
	if err != nil {
		return nil, err
	}

	if err := tx.Commit(); err != nil {
		return nil, fmt.Errorf("failed to commit transaction: %w", err)
	}

	return split, nil
}

// MarkParticipantPaid sets a participant's paid flag, links the settlement
// request, and recomputes the split status in one transaction. Settled
// state is not touched.
func (s *SQLiteStore) MarkParticipantPaid(ctx context.Context, splitID, userID, requestID string) error {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer tx.Rollback()

	res, err := tx.ExecContext(ctx,
		`UPDATE split_participants SET paid = 1, settlement_request_id = ? WHERE split_id = ? AND user_id = ?`,
		requestID, splitID, userID,
	)
	if err != nil {
		return fmt.Errorf("failed to mark participant paid: %w", err)
	}
	changed, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("failed to read rows affected: %w", err)
	}
	if changed == 0 {
		return fmt.Errorf("user %s in split %s: %w", userID, splitID, models.ErrParticipantNotFound)
	}

	if err := s.recomputeStatus(ctx, tx, splitID); err != nil {
		return err
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("failed to commit transaction: %w", err)
	}
	return nil
}

// recomputeStatus derives the split status from its participant rows inside
// the caller's transaction. Status is never written independently of
// participant state.
func (s *SQLiteStore) recomputeStatus(ctx context.Context, tx *sql.Tx, splitID string) error {
	var total, settled, progressed int
	err := tx.QueryRowContext(ctx,
		`SELECT COUNT(*),
		        COALESCE(SUM(settled), 0),
		        COALESCE(SUM(CASE WHEN settled = 1 OR paid = 1 THEN 1 ELSE 0 END), 0)
		 FROM split_participants WHERE split_id = ?`,
		splitID,
	).Scan(&total, &settled, &progressed)
	if err != nil {
		return fmt.Errorf("failed to count participants: %w", err)
	}

	status := models.SplitUnsettled
	switch {
	case total > 0 && settled == total:
		status = models.SplitSettled
	case progressed > 0:
		status = models.SplitPending
	}

	_, err = tx.ExecContext(ctx,
		`UPDATE splits SET status = ?, updated_at = ? WHERE id = ?`,
		string(status), time.Now().Unix(), splitID,
	)
	if err != nil {
		return fmt.Errorf("failed to update split status: %w", err)
	}
	return nil
}

func boolToInt(b bool) int {
	if b {
		return 1
	}
	return 0
}
