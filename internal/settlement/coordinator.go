// Package settlement orchestrates the two paths by which a split
// participant resolves their share.
//
// Wallet path: the transfer to the creditor and the participant's settled
// mark are applied in one storage transaction.
//
// Manual path: the debtor raises a SettlementRequest asserting an
// out-of-band payment; the participant is marked paid and the creditor is
// notified. Approval marks the participant settled without moving wallet
// funds; the approver is attesting the money changed hands elsewhere.
// Rejection is terminal for the request; the participant may retry with a
// new one.
//
// Stale requests are harmless: approving a request whose participant has
// already settled through another path still marks the request approved
// but settles nothing (the storage update is a no-op for settled rows).
package settlement

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/mmynk/finpal/internal/metrics"
	"github.com/mmynk/finpal/internal/models"
	"github.com/mmynk/finpal/internal/notify"
	"github.com/mmynk/finpal/internal/storage"
	"github.com/mmynk/finpal/internal/wallet"
)

// Coordinator drives settlement state for splits and their participants.
type Coordinator struct {
	store  storage.Store
	wallet *wallet.Service
	sink   notify.Sink
}

// NewCoordinator creates a coordinator. The sink may be nil, in which case
// no notifications are sent.
func NewCoordinator(store storage.Store, walletSvc *wallet.Service, sink notify.Sink) *Coordinator {
	return &Coordinator{store: store, wallet: walletSvc, sink: sink}
}

// Result is the outcome of a Settle call. Split is always set; Transaction
// is set for the wallet path, Request for the manual path.
type Result struct {
	Split       *models.Split
	Transaction *models.WalletTransaction
	Request     *models.SettlementRequest
}

// Settle resolves fromUserID's share of the split through the given method.
// The method variant is sealed, so the switch below covers every path.
func (c *Coordinator) Settle(ctx context.Context, splitID, fromUserID string, method models.SettlementMethod) (*Result, error) {
	switch m := method.(type) {
	case models.WalletMethod:
		split, txn, err := c.SettleViaWallet(ctx, splitID, fromUserID)
		if err != nil {
			return nil, err
		}
		return &Result{Split: split, Transaction: txn}, nil
	case models.ManualMethod:
		req, err := c.RequestManualSettlement(ctx, splitID, fromUserID, m.Notes, m.ProofImageURL)
		if err != nil {
			return nil, err
		}
		split, err := c.store.GetSplit(ctx, splitID)
		if err != nil {
			return nil, err
		}
		return &Result{Split: split, Request: req}, nil
	default:
		return nil, fmt.Errorf("unknown settlement method %T: %w", method, models.ErrInvalidState)
	}
}

// SettleViaWallet transfers the participant's full share from their wallet
// to the split creator's and marks the participant settled, both inside one
// storage transaction. Insufficient funds propagate unchanged with no split
// mutation; of two concurrent settles for the same share exactly one
// debits, the other fails with ErrInvalidState, so a double-tap can never
// double-debit.
func (c *Coordinator) SettleViaWallet(ctx context.Context, splitID, fromUserID string) (*models.Split, *models.WalletTransaction, error) {
	split, participant, err := c.loadUnsettled(ctx, splitID, fromUserID)
	if err != nil {
		metrics.Settlements.WithLabelValues("wallet", "error").Inc()
		return nil, nil, err
	}

	// Advisory check only; the atomic settle's conditional debit stays
	// authoritative under concurrent spends.
	balance, err := c.wallet.Balance(ctx, fromUserID, split.Currency)
	if err != nil {
		metrics.Settlements.WithLabelValues("wallet", "error").Inc()
		return nil, nil, err
	}
	if balance.LessThan(participant.Amount) {
		metrics.Settlements.WithLabelValues("wallet", "error").Inc()
		return nil, nil, fmt.Errorf("balance %s below share %s: %w",
			balance.StringFixed(2), participant.Amount.StringFixed(2), models.ErrInsufficientFunds)
	}

	updated, txn, err := c.wallet.SettleShare(ctx, split.ID, fromUserID, split.CreatorID,
		participant.Amount, split.Currency, fmt.Sprintf("Settlement from %s", participant.UserName))
	if err != nil {
		metrics.Settlements.WithLabelValues("wallet", "error").Inc()
		return nil, nil, err
	}
	metrics.Settlements.WithLabelValues("wallet", "settled").Inc()

	c.notify(ctx, models.Notification{
		UserID:  split.CreatorID,
		Type:    models.NotifyWalletTransfer,
		Title:   "Share settled",
		Message: fmt.Sprintf("%s paid %s %s from their wallet", participant.UserName, participant.Amount.StringFixed(2), split.Currency),
		Data:    map[string]string{"split_id": split.ID, "transaction_id": txn.ID},
	})

	slog.Info("Participant settled via wallet",
		"split_id", splitID,
		"user_id", fromUserID,
		"amount", participant.Amount.StringFixed(2),
		"split_status", updated.Status,
	)

	return updated, txn, nil
}

// RequestManualSettlement records a debtor's assertion that their share was
// paid out-of-band: creates a pending SettlementRequest for the full share,
// marks the participant paid (not settled), and notifies the creditor.
// The share amount comes from the participant's stored record; partial
// settlement is not supported.
func (c *Coordinator) RequestManualSettlement(ctx context.Context, splitID, fromUserID, notes, proofImageURL string) (*models.SettlementRequest, error) {
	split, participant, err := c.loadUnsettled(ctx, splitID, fromUserID)
	if err != nil {
		metrics.Settlements.WithLabelValues("manual", "error").Inc()
		return nil, err
	}

	req := &models.SettlementRequest{
		SplitID:       split.ID,
		FromUserID:    fromUserID,
		ToUserID:      split.CreatorID,
		Amount:        participant.Amount,
		Currency:      split.Currency,
		PaymentMethod: models.PaymentManual,
		Status:        models.RequestPending,
		Notes:         notes,
		ProofImageURL: proofImageURL,
	}
	if err := req.Validate(); err != nil {
		metrics.Settlements.WithLabelValues("manual", "error").Inc()
		return nil, err
	}

	if err := c.store.CreateSettlementRequest(ctx, req); err != nil {
		metrics.Settlements.WithLabelValues("manual", "error").Inc()
		return nil, fmt.Errorf("create settlement request: %w", err)
	}
	if err := c.store.MarkParticipantPaid(ctx, splitID, fromUserID, req.ID); err != nil {
		metrics.Settlements.WithLabelValues("manual", "error").Inc()
		return nil, fmt.Errorf("mark paid for request %s: %w", req.ID, err)
	}
	metrics.Settlements.WithLabelValues("manual", "requested").Inc()

	c.notify(ctx, models.Notification{
		UserID:  split.CreatorID,
		Type:    models.NotifySettlementRequest,
		Title:   "Settlement approval needed",
		Message: fmt.Sprintf("%s says they paid %s %s for your split", participant.UserName, req.Amount.StringFixed(2), req.Currency),
		Data:    map[string]string{"split_id": split.ID, "request_id": req.ID},
	})

	slog.Info("Manual settlement requested",
		"split_id", splitID,
		"request_id", req.ID,
		"from", fromUserID,
		"to", split.CreatorID,
	)

	return req, nil
}

// ApproveSettlement marks a pending request approved and settles the
// referenced participant. No wallet funds move. Approving a terminal
// request returns ErrInvalidState; approving a request whose participant
// already settled elsewhere approves the request but settles nothing.
func (c *Coordinator) ApproveSettlement(ctx context.Context, requestID string) (*models.Split, error) {
	req, err := c.store.GetSettlementRequest(ctx, requestID)
	if err != nil {
		metrics.Settlements.WithLabelValues("manual", "error").Inc()
		return nil, err
	}
	if req.Status.Terminal() {
		metrics.Settlements.WithLabelValues("manual", "error").Inc()
		return nil, fmt.Errorf("settlement request %s is %s: %w", req.ID, req.Status, models.ErrInvalidState)
	}

	if err := c.store.TransitionSettlementRequest(ctx, requestID, models.RequestPending, models.RequestApproved); err != nil {
		metrics.Settlements.WithLabelValues("manual", "error").Inc()
		return nil, err
	}

	split, err := c.store.SettleParticipant(ctx, req.SplitID, req.FromUserID, models.PaymentManual, req.ID)
	if err != nil {
		metrics.Settlements.WithLabelValues("manual", "error").Inc()
		return nil, fmt.Errorf("settle after approving %s: %w", req.ID, err)
	}
	metrics.Settlements.WithLabelValues("manual", "approved").Inc()

	c.notify(ctx, models.Notification{
		UserID:  req.FromUserID,
		Type:    models.NotifySettlementApproved,
		Title:   "Payment confirmed",
		Message: fmt.Sprintf("Your payment of %s %s was confirmed", req.Amount.StringFixed(2), req.Currency),
		Data:    map[string]string{"split_id": req.SplitID, "request_id": req.ID},
	})

	slog.Info("Settlement request approved",
		"request_id", requestID,
		"split_id", req.SplitID,
		"split_status", split.Status,
	)

	return split, nil
}

// RejectSettlement marks a pending request rejected. The split is not
// mutated: the participant remains unsettled and may retry with a new
// request.
func (c *Coordinator) RejectSettlement(ctx context.Context, requestID string) error {
	req, err := c.store.GetSettlementRequest(ctx, requestID)
	if err != nil {
		metrics.Settlements.WithLabelValues("manual", "error").Inc()
		return err
	}
	if req.Status.Terminal() {
		metrics.Settlements.WithLabelValues("manual", "error").Inc()
		return fmt.Errorf("settlement request %s is %s: %w", req.ID, req.Status, models.ErrInvalidState)
	}

	if err := c.store.TransitionSettlementRequest(ctx, requestID, models.RequestPending, models.RequestRejected); err != nil {
		metrics.Settlements.WithLabelValues("manual", "error").Inc()
		return err
	}
	metrics.Settlements.WithLabelValues("manual", "rejected").Inc()

	c.notify(ctx, models.Notification{
		UserID:  req.FromUserID,
		Type:    models.NotifySettlementRejected,
		Title:   "Payment not confirmed",
		Message: fmt.Sprintf("Your payment claim of %s %s was rejected", req.Amount.StringFixed(2), req.Currency),
		Data:    map[string]string{"split_id": req.SplitID, "request_id": req.ID},
	})

	slog.Info("Settlement request rejected", "request_id", requestID, "split_id", req.SplitID)

	return nil
}

// PendingRequests returns the settlement requests awaiting the user's
// approval, newest first.
func (c *Coordinator) PendingRequests(ctx context.Context, userID string) ([]*models.SettlementRequest, error) {
	return c.store.ListSettlementRequestsForUser(ctx, userID, models.RequestPending)
}

// loadUnsettled loads a split and the participant entry for userID,
// rejecting splits the user is not part of and shares that already settled.
func (c *Coordinator) loadUnsettled(ctx context.Context, splitID, userID string) (*models.Split, *models.Participant, error) {
	split, err := c.store.GetSplit(ctx, splitID)
	if err != nil {
		return nil, nil, err
	}
	participant := split.Participant(userID)
	if participant == nil {
		return nil, nil, fmt.Errorf("user %s in split %s: %w", userID, splitID, models.ErrParticipantNotFound)
	}
	if participant.Settled {
		return nil, nil, fmt.Errorf("participant %s already settled: %w", userID, models.ErrInvalidState)
	}
	if userID == split.CreatorID {
		return nil, nil, fmt.Errorf("creator cannot settle against themselves: %w", models.ErrSameUser)
	}
	return split, participant, nil
}

func (c *Coordinator) notify(ctx context.Context, n models.Notification) {
	if c.sink == nil {
		return
	}
	if err := c.sink.Notify(ctx, n); err != nil {
		// Fire-and-forget: a lost notification never fails a settlement.
		slog.Warn("notification failed", "error", err, "type", n.Type, "user_id", n.UserID)
	}
}
