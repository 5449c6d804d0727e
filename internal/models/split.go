package models

import (
	"fmt"

	"github.com/shopspring/decimal"
)

// DivisionType selects how an expense amount is divided among participants.
type DivisionType string

const (
	// DivisionEqual divides the amount evenly; the rounding remainder is
	// assigned to the first participant.
	DivisionEqual DivisionType = "equal"
	// DivisionAmount uses caller-supplied fixed amounts per participant.
	DivisionAmount DivisionType = "amount"
	// DivisionPercentage computes amounts from weights summing to 100.
	DivisionPercentage DivisionType = "percentage"
)

// SplitStatus is the derived settlement state of a split. It is recomputed
// from participant state after every mutation, never set directly.
type SplitStatus string

const (
	SplitUnsettled SplitStatus = "unsettled"
	SplitPending   SplitStatus = "pending"
	SplitSettled   SplitStatus = "settled"
)

// PaymentMethod records which settlement path resolved a participant's share.
type PaymentMethod string

const (
	PaymentNone   PaymentMethod = ""
	PaymentWallet PaymentMethod = "wallet"
	PaymentManual PaymentMethod = "manual"
)

// Participant is one member's owed share within a split. UserID is unique
// within a split. Settled implies Paid; Paid without Settled means a manual
// payment is awaiting the creator's approval.
type Participant struct {
	UserID string

	// UserName is a display snapshot taken at split creation time.
	UserName string

	// Amount is the share owed, strictly positive, two decimal places.
	Amount decimal.Decimal

	// Paid records that a payment was made, by wallet or out-of-band.
	Paid bool

	// Settled records that the creditor confirmed receipt.
	Settled bool

	// PaymentMethod is set when the participant settles, empty before.
	PaymentMethod PaymentMethod

	// SettlementRequestID references the latest manual settlement request
	// for this participant, if any.
	SettlementRequestID string
}

// Validate checks a single participant entry.
func (p *Participant) Validate() error {
	if p.UserID == "" {
		return fmt.Errorf("participant user id is empty: %w", ErrParticipantNotFound)
	}
	if !ValidAmount(p.Amount) {
		return fmt.Errorf("participant %s: %w", p.UserID, ErrInvalidAmount)
	}
	if p.Settled && !p.Paid {
		return fmt.Errorf("participant %s settled without payment: %w", p.UserID, ErrInvalidState)
	}
	switch p.PaymentMethod {
	case PaymentNone, PaymentWallet, PaymentManual:
	default:
		return fmt.Errorf("participant %s: unknown payment method %q: %w", p.UserID, p.PaymentMethod, ErrInvalidState)
	}
	return nil
}

// Split represents one division of a single expense among participants.
// Splits are historical ledger records: created once by the engine, mutated
// only by the settlement coordinator, never deleted.
type Split struct {
	// ID is the unique identifier for the split (UUID format).
	ID string

	// ExpenseID links the backing expense; empty for an ad-hoc split.
	ExpenseID string

	// CreatorID is the user the participants owe.
	CreatorID string

	// GroupID optionally associates the split with a group.
	GroupID string

	// Currency is the ISO 4217 code all participant amounts are in.
	Currency string

	// DivisionType records how the shares were computed.
	DivisionType DivisionType

	// Status is derived from participant state; see RecomputeStatus.
	Status SplitStatus

	// Participants are the owed shares, in creation order. Order matters:
	// the first participant absorbed any rounding remainder.
	Participants []Participant

	// CreatedAt and UpdatedAt are Unix timestamps.
	CreatedAt int64
	UpdatedAt int64
}

// Participant returns the entry for userID, or nil if absent.
func (s *Split) Participant(userID string) *Participant {
	for i := range s.Participants {
		if s.Participants[i].UserID == userID {
			return &s.Participants[i]
		}
	}
	return nil
}

// Total returns the sum of all participant shares.
func (s *Split) Total() decimal.Decimal {
	sum := decimal.Zero
	for i := range s.Participants {
		sum = sum.Add(s.Participants[i].Amount)
	}
	return sum
}

// RecomputeStatus derives Status from participant state: settled iff every
// participant is settled, pending once any has paid or settled, unsettled
// otherwise. Callers must invoke this inside the same unit of work that
// mutated a participant.
func (s *Split) RecomputeStatus() {
	allSettled := len(s.Participants) > 0
	anyProgress := false
	for i := range s.Participants {
		p := &s.Participants[i]
		if !p.Settled {
			allSettled = false
		}
		if p.Settled || p.Paid {
			anyProgress = true
		}
	}
	switch {
	case allSettled:
		s.Status = SplitSettled
	case anyProgress:
		s.Status = SplitPending
	default:
		s.Status = SplitUnsettled
	}
}

// Validate checks structural invariants of the split: a creator, a known
// division type, a valid currency, at least one participant, unique
// positive shares, and a status consistent with participant state.
func (s *Split) Validate() error {
	if s.CreatorID == "" {
		return fmt.Errorf("split has no creator: %w", ErrInvalidState)
	}
	switch s.DivisionType {
	case DivisionEqual, DivisionAmount, DivisionPercentage:
	default:
		return fmt.Errorf("unknown division type %q: %w", s.DivisionType, ErrInvalidState)
	}
	if !ValidCurrency(s.Currency) {
		return fmt.Errorf("split currency %q: %w", s.Currency, ErrInvalidCurrency)
	}
	if len(s.Participants) == 0 {
		return ErrEmptyParticipants
	}
	seen := make(map[string]bool, len(s.Participants))
	for i := range s.Participants {
		p := &s.Participants[i]
		if err := p.Validate(); err != nil {
			return err
		}
		if seen[p.UserID] {
			return fmt.Errorf("duplicate participant %s: %w", p.UserID, ErrInvalidState)
		}
		seen[p.UserID] = true
	}
	derived := *s
	derived.RecomputeStatus()
	if s.Status != derived.Status {
		return fmt.Errorf("status %q inconsistent with participants (want %q): %w", s.Status, derived.Status, ErrInvalidState)
	}
	return nil
}

// ValidateTotal checks that participant shares sum to the expense amount
// within the money tolerance.
func (s *Split) ValidateTotal(expenseAmount decimal.Decimal) error {
	if !AmountsReconcile(s.Total(), expenseAmount) {
		return fmt.Errorf("shares sum to %s, expense is %s: %w", s.Total(), expenseAmount, ErrAmountMismatch)
	}
	return nil
}
