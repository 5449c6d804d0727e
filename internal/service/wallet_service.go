package service

import (
	"net/http"
	"strconv"

	"github.com/shopspring/decimal"

	"github.com/mmynk/finpal/internal/models"
)

type addFundsRequest struct {
	Amount   decimal.Decimal `json:"amount"`
	Currency string          `json:"currency"`
}

type transferRequest struct {
	ToUserID    string          `json:"to_user_id"`
	Amount      decimal.Decimal `json:"amount"`
	Currency    string          `json:"currency"`
	Description string          `json:"description"`
}

type transactionResponse struct {
	ID          string `json:"id"`
	FromUserID  string `json:"from_user_id"`
	ToUserID    string `json:"to_user_id"`
	Amount      string `json:"amount"`
	Currency    string `json:"currency"`
	Type        string `json:"type"`
	Status      string `json:"status"`
	Description string `json:"description,omitempty"`
	SplitID     string `json:"split_id,omitempty"`
	CreatedAt   int64  `json:"created_at"`
}

func toTransactionResponse(t *models.WalletTransaction) transactionResponse {
	return transactionResponse{
		ID:          t.ID,
		FromUserID:  t.FromUserID,
		ToUserID:    t.ToUserID,
		Amount:      t.Amount.StringFixed(2),
		Currency:    t.Currency,
		Type:        string(t.Type),
		Status:      string(t.Status),
		Description: t.Description,
		SplitID:     t.SplitID,
		CreatedAt:   t.CreatedAt,
	}
}

func (s *Server) handleAddFunds(w http.ResponseWriter, r *http.Request) {
	var req addFundsRequest
	if err := decode(r, &req); err != nil {
		writeJSON(w, http.StatusBadRequest, errorResponse{Error: "invalid request body"})
		return
	}

	txn, err := s.wallet.AddFunds(r.Context(), requestUserID(r), req.Amount, req.Currency)
	if err != nil {
		writeError(w, err)
		return
	}

	writeJSON(w, http.StatusCreated, toTransactionResponse(txn))
}

func (s *Server) handleTransfer(w http.ResponseWriter, r *http.Request) {
	var req transferRequest
	if err := decode(r, &req); err != nil {
		writeJSON(w, http.StatusBadRequest, errorResponse{Error: "invalid request body"})
		return
	}

	txn, err := s.wallet.Transfer(r.Context(), requestUserID(r), req.ToUserID,
		req.Amount, req.Currency, req.Description)
	if err != nil {
		writeError(w, err)
		return
	}

	writeJSON(w, http.StatusCreated, toTransactionResponse(txn))
}

func (s *Server) handleTransactions(w http.ResponseWriter, r *http.Request) {
	limit := 0
	if v := r.URL.Query().Get("limit"); v != "" {
		n, err := strconv.Atoi(v)
		if err != nil || n < 1 {
			writeJSON(w, http.StatusBadRequest, errorResponse{Error: "invalid limit"})
			return
		}
		limit = n
	}

	txns, err := s.wallet.History(r.Context(), requestUserID(r), limit)
	if err != nil {
		writeError(w, err)
		return
	}

	out := make([]transactionResponse, 0, len(txns))
	for _, t := range txns {
		out = append(out, toTransactionResponse(t))
	}
	writeJSON(w, http.StatusOK, map[string]any{"transactions": out})
}
