package service

import (
	"net/http"

	"github.com/shopspring/decimal"

	"github.com/mmynk/finpal/internal/engine"
	"github.com/mmynk/finpal/internal/models"
)

type splitParticipantInput struct {
	UserID   string          `json:"user_id"`
	UserName string          `json:"user_name"`
	Amount   decimal.Decimal `json:"amount"`
	Weight   decimal.Decimal `json:"weight"`
}

type createSplitRequest struct {
	ExpenseID    string                  `json:"expense_id"`
	GroupID      string                  `json:"group_id"`
	Amount       decimal.Decimal         `json:"amount"`
	Currency     string                  `json:"currency"`
	DivisionType string                  `json:"division_type"`
	Participants []splitParticipantInput `json:"participants"`
}

type participantResponse struct {
	UserID              string `json:"user_id"`
	UserName            string `json:"user_name"`
	Amount              string `json:"amount"`
	Paid                bool   `json:"paid"`
	Settled             bool   `json:"settled"`
	PaymentMethod       string `json:"payment_method,omitempty"`
	SettlementRequestID string `json:"settlement_request_id,omitempty"`
}

type splitResponse struct {
	ID           string                `json:"id"`
	ExpenseID    string                `json:"expense_id"`
	CreatorID    string                `json:"creator_id"`
	GroupID      string                `json:"group_id,omitempty"`
	Currency     string                `json:"currency"`
	DivisionType string                `json:"division_type"`
	Status       string                `json:"status"`
	Total        string                `json:"total"`
	Participants []participantResponse `json:"participants"`
	CreatedAt    int64                 `json:"created_at"`
	UpdatedAt    int64                 `json:"updated_at"`
}

func toSplitResponse(sp *models.Split) splitResponse {
	participants := make([]participantResponse, 0, len(sp.Participants))
	for _, p := range sp.Participants {
		participants = append(participants, participantResponse{
			UserID:              p.UserID,
			UserName:            p.UserName,
			Amount:              p.Amount.StringFixed(2),
			Paid:                p.Paid,
			Settled:             p.Settled,
			PaymentMethod:       string(p.PaymentMethod),
			SettlementRequestID: p.SettlementRequestID,
		})
	}
	return splitResponse{
		ID:           sp.ID,
		ExpenseID:    sp.ExpenseID,
		CreatorID:    sp.CreatorID,
		GroupID:      sp.GroupID,
		Currency:     sp.Currency,
		DivisionType: string(sp.DivisionType),
		Status:       string(sp.Status),
		Total:        sp.Total().StringFixed(2),
		Participants: participants,
		CreatedAt:    sp.CreatedAt,
		UpdatedAt:    sp.UpdatedAt,
	}
}

func (s *Server) handleCreateSplit(w http.ResponseWriter, r *http.Request) {
	var req createSplitRequest
	if err := decode(r, &req); err != nil {
		writeJSON(w, http.StatusBadRequest, errorResponse{Error: "invalid request body"})
		return
	}

	participants := make([]engine.ParticipantInput, 0, len(req.Participants))
	for _, p := range req.Participants {
		participants = append(participants, engine.ParticipantInput{
			UserID:   p.UserID,
			UserName: p.UserName,
			Amount:   p.Amount,
			Weight:   p.Weight,
		})
	}

	split, err := s.engine.CreateSplit(r.Context(), engine.CreateSplitInput{
		ExpenseID:     req.ExpenseID,
		CreatorID:     requestUserID(r),
		GroupID:       req.GroupID,
		ExpenseAmount: req.Amount,
		Currency:      req.Currency,
		DivisionType:  models.DivisionType(req.DivisionType),
		Participants:  participants,
	})
	if err != nil {
		writeError(w, err)
		return
	}

	writeJSON(w, http.StatusCreated, toSplitResponse(split))
}

func (s *Server) handleGetSplit(w http.ResponseWriter, r *http.Request) {
	split, err := s.store.GetSplit(r.Context(), r.PathValue("id"))
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, toSplitResponse(split))
}

func (s *Server) handleListSplits(w http.ResponseWriter, r *http.Request) {
	splits, err := s.store.ListSplitsByUser(r.Context(), requestUserID(r))
	if err != nil {
		writeError(w, err)
		return
	}

	out := make([]splitResponse, 0, len(splits))
	for _, sp := range splits {
		out = append(out, toSplitResponse(sp))
	}
	writeJSON(w, http.StatusOK, map[string]any{"splits": out})
}
