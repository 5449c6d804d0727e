package service

import (
	"net/http"
)

type memberBalanceResponse struct {
	UserID    string `json:"user_id"`
	Currency  string `json:"currency"`
	TotalPaid string `json:"total_paid"`
	TotalOwed string `json:"total_owed"`
	Net       string `json:"net"`
}

type debtEdgeResponse struct {
	FromUserID string `json:"from_user_id"`
	ToUserID   string `json:"to_user_id"`
	Amount     string `json:"amount"`
	Currency   string `json:"currency"`
}

// handleBalances returns net positions and a simplified repayment plan
// across every split the caller participates in.
func (s *Server) handleBalances(w http.ResponseWriter, r *http.Request) {
	members, edges, err := s.engine.OutstandingBalances(r.Context(), requestUserID(r))
	if err != nil {
		writeError(w, err)
		return
	}

	memberOut := make([]memberBalanceResponse, 0, len(members))
	for _, m := range members {
		memberOut = append(memberOut, memberBalanceResponse{
			UserID:    m.UserID,
			Currency:  m.Currency,
			TotalPaid: m.TotalPaid.StringFixed(2),
			TotalOwed: m.TotalOwed.StringFixed(2),
			Net:       m.Net.StringFixed(2),
		})
	}
	edgeOut := make([]debtEdgeResponse, 0, len(edges))
	for _, e := range edges {
		edgeOut = append(edgeOut, debtEdgeResponse{
			FromUserID: e.FromUserID,
			ToUserID:   e.ToUserID,
			Amount:     e.Amount.StringFixed(2),
			Currency:   e.Currency,
		})
	}

	writeJSON(w, http.StatusOK, map[string]any{
		"balances":   memberOut,
		"repayments": edgeOut,
	})
}
