package sqlite

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"github.com/google/uuid"

	"github.com/mmynk/finpal/internal/models"
)

// CreateSettlementRequest persists a new settlement request.
func (s *SQLiteStore) CreateSettlementRequest(ctx context.Context, req *models.SettlementRequest) error {
	if req.ID == "" {
		req.ID = uuid.New().String()
	}
	if req.CreatedAt == 0 {
		req.CreatedAt = time.Now().Unix()
	}
	if req.UpdatedAt == 0 {
		req.UpdatedAt = req.CreatedAt
	}

	_, err := s.db.ExecContext(ctx,
		`INSERT INTO settlement_requests (id, split_id, from_user_id, to_user_id, amount_cents, currency, payment_method, status, notes, proof_image_url, created_at, updated_at)
		 VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		req.ID, req.SplitID, req.FromUserID, req.ToUserID,
		toCents(req.Amount), req.Currency, string(req.PaymentMethod),
		string(req.Status), req.Notes, req.ProofImageURL,
		req.CreatedAt, req.UpdatedAt,
	)
	if err != nil {
		return fmt.Errorf("failed to insert settlement request: %w", err)
	}

	return nil
}

// GetSettlementRequest retrieves a settlement request by ID.
func (s *SQLiteStore) GetSettlementRequest(ctx context.Context, id string) (*models.SettlementRequest, error) {
	req := &models.SettlementRequest{}
	var cents int64
	var method, status string
	err := s.db.QueryRowContext(ctx,
		`SELECT id, split_id, from_user_id, to_user_id, amount_cents, currency, payment_method, status, notes, proof_image_url, created_at, updated_at
		 FROM settlement_requests WHERE id = ?`,
		id,
	).Scan(&req.ID, &req.SplitID, &req.FromUserID, &req.ToUserID,
		&cents, &req.Currency, &method, &status,
		&req.Notes, &req.ProofImageURL, &req.CreatedAt, &req.UpdatedAt)
	if err == sql.ErrNoRows {
		return nil, fmt.Errorf("settlement request %s: %w", id, models.ErrRequestNotFound)
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get settlement request: %w", err)
	}
	req.Amount = fromCents(cents)
	req.PaymentMethod = models.PaymentMethod(method)
	req.Status = models.RequestStatus(status)

	return req, nil
}

// TransitionSettlementRequest moves a request between statuses as a
// conditional update, so a terminal request can never transition again even
// under concurrent approvals.
func (s *SQLiteStore) TransitionSettlementRequest(ctx context.Context, id string, from, to models.RequestStatus) error {
	res, err := s.db.ExecContext(ctx,
		`UPDATE settlement_requests SET status = ?, updated_at = ? WHERE id = ? AND status = ?`,
		string(to), time.Now().Unix(), id, string(from),
	)
	if err != nil {
		return fmt.Errorf("failed to transition settlement request: %w", err)
	}
	changed, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("failed to read rows affected: %w", err)
	}
	if changed == 0 {
		var current string
		err := s.db.QueryRowContext(ctx,
			`SELECT status FROM settlement_requests WHERE id = ?`, id,
		).Scan(&current)
		if err == sql.ErrNoRows {
			return fmt.Errorf("settlement request %s: %w", id, models.ErrRequestNotFound)
		}
		if err != nil {
			return fmt.Errorf("failed to check settlement request: %w", err)
		}
		return fmt.Errorf("settlement request %s is %s: %w", id, current, models.ErrInvalidState)
	}
	return nil
}

// ListSettlementRequestsForUser returns requests addressed to the user,
// newest first. An empty status lists all.
func (s *SQLiteStore) ListSettlementRequestsForUser(ctx context.Context, userID string, status models.RequestStatus) ([]*models.SettlementRequest, error) {
	query := `SELECT id, split_id, from_user_id, to_user_id, amount_cents, currency, payment_method, status, notes, proof_image_url, created_at, updated_at
	          FROM settlement_requests WHERE to_user_id = ?`
	args := []any{userID}
	if status != "" {
		query += ` AND status = ?`
		args = append(args, string(status))
	}
	query += ` ORDER BY created_at DESC, id`

	rows, err := s.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to list settlement requests: %w", err)
	}
	defer rows.Close()

	var reqs []*models.SettlementRequest
	for rows.Next() {
		req := &models.SettlementRequest{}
		var cents int64
		var method, st string
		if err := rows.Scan(&req.ID, &req.SplitID, &req.FromUserID, &req.ToUserID,
			&cents, &req.Currency, &method, &st,
			&req.Notes, &req.ProofImageURL, &req.CreatedAt, &req.UpdatedAt); err != nil {
			return nil, fmt.Errorf("failed to scan settlement request: %w", err)
		}
		req.Amount = fromCents(cents)
		req.PaymentMethod = models.PaymentMethod(method)
		req.Status = models.RequestStatus(st)
		reqs = append(reqs, req)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to iterate settlement requests: %w", err)
	}

	return reqs, nil
}
