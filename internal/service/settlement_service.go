package service

import (
	"net/http"

	"github.com/mmynk/finpal/internal/models"
	"github.com/mmynk/finpal/internal/settlement"
)

type settleRequest struct {
	Method        string `json:"method"`
	Notes         string `json:"notes,omitempty"`
	ProofImageURL string `json:"proof_image_url,omitempty"`
}

type settlementRequestResponse struct {
	ID            string `json:"id"`
	SplitID       string `json:"split_id"`
	FromUserID    string `json:"from_user_id"`
	ToUserID      string `json:"to_user_id"`
	Amount        string `json:"amount"`
	Currency      string `json:"currency"`
	Status        string `json:"status"`
	Notes         string `json:"notes,omitempty"`
	ProofImageURL string `json:"proof_image_url,omitempty"`
	CreatedAt     int64  `json:"created_at"`
	UpdatedAt     int64  `json:"updated_at"`
}

func toRequestResponse(req *models.SettlementRequest) settlementRequestResponse {
	return settlementRequestResponse{
		ID:            req.ID,
		SplitID:       req.SplitID,
		FromUserID:    req.FromUserID,
		ToUserID:      req.ToUserID,
		Amount:        req.Amount.StringFixed(2),
		Currency:      req.Currency,
		Status:        string(req.Status),
		Notes:         req.Notes,
		ProofImageURL: req.ProofImageURL,
		CreatedAt:     req.CreatedAt,
		UpdatedAt:     req.UpdatedAt,
	}
}

type settleResponse struct {
	Split       splitResponse              `json:"split"`
	Transaction *transactionResponse       `json:"transaction,omitempty"`
	Request     *settlementRequestResponse `json:"request,omitempty"`
}

// handleSettle resolves the caller's share of a split. The body picks the
// method: "wallet" moves funds now, "manual" records an out-of-band payment
// claim pending the creditor's approval.
func (s *Server) handleSettle(w http.ResponseWriter, r *http.Request) {
	var req settleRequest
	if err := decode(r, &req); err != nil {
		writeJSON(w, http.StatusBadRequest, errorResponse{Error: "invalid request body"})
		return
	}

	var method models.SettlementMethod
	switch req.Method {
	case "wallet":
		method = models.WalletMethod{}
	case "manual":
		method = models.ManualMethod{Notes: req.Notes, ProofImageURL: req.ProofImageURL}
	default:
		writeJSON(w, http.StatusBadRequest, errorResponse{Error: "method must be wallet or manual"})
		return
	}

	result, err := s.settlements.Settle(r.Context(), r.PathValue("id"), requestUserID(r), method)
	if err != nil {
		writeError(w, err)
		return
	}

	writeJSON(w, http.StatusOK, toSettleResponse(result))
}

func toSettleResponse(result *settlement.Result) settleResponse {
	resp := settleResponse{Split: toSplitResponse(result.Split)}
	if result.Transaction != nil {
		txn := toTransactionResponse(result.Transaction)
		resp.Transaction = &txn
	}
	if result.Request != nil {
		req := toRequestResponse(result.Request)
		resp.Request = &req
	}
	return resp
}

// handleListRequests returns the caller's settlement inbox: pending
// requests awaiting their approval.
func (s *Server) handleListRequests(w http.ResponseWriter, r *http.Request) {
	requests, err := s.settlements.PendingRequests(r.Context(), requestUserID(r))
	if err != nil {
		writeError(w, err)
		return
	}

	out := make([]settlementRequestResponse, 0, len(requests))
	for _, req := range requests {
		out = append(out, toRequestResponse(req))
	}
	writeJSON(w, http.StatusOK, map[string]any{"requests": out})
}

func (s *Server) handleApproveRequest(w http.ResponseWriter, r *http.Request) {
	requestID := r.PathValue("id")
	if err := s.authorizeRequest(r, requestID); err != nil {
		writeError(w, err)
		return
	}

	split, err := s.settlements.ApproveSettlement(r.Context(), requestID)
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, toSplitResponse(split))
}

func (s *Server) handleRejectRequest(w http.ResponseWriter, r *http.Request) {
	requestID := r.PathValue("id")
	if err := s.authorizeRequest(r, requestID); err != nil {
		writeError(w, err)
		return
	}

	if err := s.settlements.RejectSettlement(r.Context(), requestID); err != nil {
		writeError(w, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

// authorizeRequest ensures only the request's creditor decides its fate.
// Other users get a not-found rather than a forbidden so request IDs leak
// nothing.
func (s *Server) authorizeRequest(r *http.Request, requestID string) error {
	req, err := s.store.GetSettlementRequest(r.Context(), requestID)
	if err != nil {
		return err
	}
	if req.ToUserID != requestUserID(r) {
		return models.ErrRequestNotFound
	}
	return nil
}
