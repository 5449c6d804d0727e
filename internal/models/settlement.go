package models

import (
	"fmt"

	"github.com/shopspring/decimal"
)

// RequestStatus is the lifecycle state of a settlement request.
// Pending transitions to approved or rejected exactly once; terminal
// requests are never revisited.
type RequestStatus string

const (
	RequestPending  RequestStatus = "pending"
	RequestApproved RequestStatus = "approved"
	RequestRejected RequestStatus = "rejected"
)

// Terminal reports whether the status admits no further transitions.
func (s RequestStatus) Terminal() bool {
	return s == RequestApproved || s == RequestRejected
}

// SettlementRequest is a debtor's assertion that a manual payment was made
// for their share of a split, awaiting the creditor's approval. The amount
// must equal the participant's recorded share; partial settlement is not
// supported.
type SettlementRequest struct {
	// ID is the unique identifier for the request (UUID format).
	ID string

	// SplitID references the split being settled.
	SplitID string

	// FromUserID is the debtor, ToUserID the creditor (normally the
	// split's creator).
	FromUserID string
	ToUserID   string

	// Amount is the participant's full share.
	Amount   decimal.Decimal
	Currency string

	// PaymentMethod records the path the request was raised through.
	PaymentMethod PaymentMethod

	Status RequestStatus

	// Notes and ProofImageURL are optional debtor-supplied evidence.
	Notes         string
	ProofImageURL string

	// CreatedAt and UpdatedAt are Unix timestamps.
	CreatedAt int64
	UpdatedAt int64
}

// Validate checks structural invariants of a settlement request.
func (r *SettlementRequest) Validate() error {
	if r.SplitID == "" {
		return fmt.Errorf("request has no split: %w", ErrSplitNotFound)
	}
	if r.FromUserID == "" || r.ToUserID == "" {
		return fmt.Errorf("request missing debtor or creditor: %w", ErrInvalidState)
	}
	if r.FromUserID == r.ToUserID {
		return ErrSameUser
	}
	if !ValidAmount(r.Amount) {
		return ErrInvalidAmount
	}
	if !ValidCurrency(r.Currency) {
		return fmt.Errorf("request currency %q: %w", r.Currency, ErrInvalidCurrency)
	}
	switch r.PaymentMethod {
	case PaymentWallet, PaymentManual:
	default:
		return fmt.Errorf("request payment method %q: %w", r.PaymentMethod, ErrInvalidState)
	}
	switch r.Status {
	case RequestPending, RequestApproved, RequestRejected:
	default:
		return fmt.Errorf("request status %q: %w", r.Status, ErrInvalidState)
	}
	return nil
}

// SettlementMethod is the sealed variant describing how a participant
// settles their share. Exactly two implementations exist: WalletMethod and
// ManualMethod. The unexported marker keeps the set closed so the
// coordinator can switch exhaustively.
type SettlementMethod interface {
	paymentMethod() PaymentMethod
}

// WalletMethod settles by an atomic wallet-to-wallet transfer.
type WalletMethod struct{}

func (WalletMethod) paymentMethod() PaymentMethod { return PaymentWallet }

// ManualMethod settles by an out-of-band payment, raising a settlement
// request the creditor must approve.
type ManualMethod struct {
	Notes         string
	ProofImageURL string
}

func (ManualMethod) paymentMethod() PaymentMethod { return PaymentManual }
