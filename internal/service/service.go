// Package service exposes the split and settlement core over a JSON HTTP
// API. Handlers stay thin: decode, call the domain layer, map errors to
// status codes. All money values cross the wire as decimal strings.
package service

import (
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"

	"github.com/mmynk/finpal/internal/auth"
	"github.com/mmynk/finpal/internal/engine"
	"github.com/mmynk/finpal/internal/middleware"
	"github.com/mmynk/finpal/internal/models"
	"github.com/mmynk/finpal/internal/settlement"
	"github.com/mmynk/finpal/internal/storage"
	"github.com/mmynk/finpal/internal/wallet"
)

// Server bundles the domain services behind HTTP handlers.
type Server struct {
	store         storage.Store
	authenticator auth.Authenticator
	jwt           *auth.JWTManager
	engine        *engine.Engine
	wallet        *wallet.Service
	settlements   *settlement.Coordinator
}

// NewServer creates the HTTP service layer over the given domain services.
func NewServer(
	store storage.Store,
	authenticator auth.Authenticator,
	jwtManager *auth.JWTManager,
	eng *engine.Engine,
	walletSvc *wallet.Service,
	coordinator *settlement.Coordinator,
) *Server {
	return &Server{
		store:         store,
		authenticator: authenticator,
		jwt:           jwtManager,
		engine:        eng,
		wallet:        walletSvc,
		settlements:   coordinator,
	}
}

// Routes registers every endpoint on the mux. Auth endpoints are public;
// everything else requires a Bearer token.
func (s *Server) Routes(mux *http.ServeMux) {
	mux.HandleFunc("POST /api/v1/auth/register", s.handleRegister)
	mux.HandleFunc("POST /api/v1/auth/login", s.handleLogin)

	authed := func(pattern string, h http.HandlerFunc) {
		mux.Handle(pattern, middleware.RequireAuth(s.jwt, h))
	}

	authed("GET /api/v1/me", s.handleProfile)

	authed("POST /api/v1/wallet/funds", s.handleAddFunds)
	authed("POST /api/v1/wallet/transfers", s.handleTransfer)
	authed("GET /api/v1/wallet/transactions", s.handleTransactions)

	authed("POST /api/v1/splits", s.handleCreateSplit)
	authed("GET /api/v1/splits", s.handleListSplits)
	authed("GET /api/v1/splits/{id}", s.handleGetSplit)
	authed("GET /api/v1/balances", s.handleBalances)
	authed("POST /api/v1/splits/{id}/settle", s.handleSettle)

	authed("GET /api/v1/settlements/requests", s.handleListRequests)
	authed("POST /api/v1/settlements/requests/{id}/approve", s.handleApproveRequest)
	authed("POST /api/v1/settlements/requests/{id}/reject", s.handleRejectRequest)

	authed("GET /api/v1/notifications", s.handleListNotifications)
	authed("POST /api/v1/notifications/{id}/read", s.handleMarkNotificationRead)
}

type errorResponse struct {
	Error string `json:"error"`
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(v); err != nil {
		slog.Error("Failed to encode response", "error", err)
	}
}

// writeError maps domain errors onto HTTP status codes. Unknown errors are
// logged and surfaced as an opaque 500; validation errors echo their
// message.
func writeError(w http.ResponseWriter, err error) {
	status := http.StatusInternalServerError
	switch {
	case errors.Is(err, models.ErrSplitNotFound),
		errors.Is(err, models.ErrParticipantNotFound),
		errors.Is(err, models.ErrRequestNotFound),
		errors.Is(err, models.ErrNotificationNotFound):
		status = http.StatusNotFound
	case errors.Is(err, models.ErrInvalidState):
		status = http.StatusConflict
	case errors.Is(err, models.ErrInsufficientFunds):
		status = http.StatusUnprocessableEntity
	case errors.Is(err, models.ErrInvalidAmount),
		errors.Is(err, models.ErrAmountMismatch),
		errors.Is(err, models.ErrEmptyParticipants),
		errors.Is(err, models.ErrInvalidWeights),
		errors.Is(err, models.ErrSameUser),
		errors.Is(err, models.ErrInvalidCurrency),
		errors.Is(err, auth.ErrWeakPassword),
		errors.Is(err, auth.ErrInvalidEmail):
		status = http.StatusBadRequest
	case errors.Is(err, auth.ErrEmailExists):
		status = http.StatusConflict
	case errors.Is(err, auth.ErrInvalidCredentials):
		status = http.StatusUnauthorized
	}

	if status == http.StatusInternalServerError {
		slog.Error("Request failed", "error", err)
		writeJSON(w, status, errorResponse{Error: "internal error"})
		return
	}
	writeJSON(w, status, errorResponse{Error: err.Error()})
}

func decode(r *http.Request, v any) error {
	return json.NewDecoder(r.Body).Decode(v)
}

func requestUserID(r *http.Request) string {
	return middleware.GetUserID(r.Context())
}
