// Package engine divides a shared expense into a persisted split.
//
// Three division strategies are supported: equal shares, caller-supplied
// fixed amounts, and percentage weights. Division is exact to two decimal
// places: the rounding remainder is always assigned to the first
// participant, so the shares sum to the expense amount no matter how the
// per-share rounding falls.
package engine

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/shopspring/decimal"

	"github.com/mmynk/finpal/internal/models"
	"github.com/mmynk/finpal/internal/storage"
)

var oneHundred = decimal.NewFromInt(100)

// Engine creates splits and persists them through the store.
type Engine struct {
	store storage.Store
}

// New creates a split engine backed by the given store.
func New(store storage.Store) *Engine {
	return &Engine{store: store}
}

// ParticipantInput names one participant of a new split. Amount is used by
// the fixed-amount division, Weight by the percentage division; both are
// ignored otherwise.
type ParticipantInput struct {
	UserID   string
	UserName string
	Amount   decimal.Decimal
	Weight   decimal.Decimal
}

// CreateSplitInput carries everything needed to divide one expense.
type CreateSplitInput struct {
	// ExpenseID links a backing expense; empty for an ad-hoc split.
	ExpenseID string

	CreatorID string
	GroupID   string

	ExpenseAmount decimal.Decimal
	Currency      string

	DivisionType models.DivisionType
	Participants []ParticipantInput
}

// CreateSplit divides the expense amount among the participants, validates
// the result, and persists it. All validation errors are returned before
// any persistence call, so a failed creation writes nothing.
func (e *Engine) CreateSplit(ctx context.Context, in CreateSplitInput) (*models.Split, error) {
	if len(in.Participants) == 0 {
		return nil, models.ErrEmptyParticipants
	}
	if !models.ValidAmount(in.ExpenseAmount) {
		return nil, fmt.Errorf("expense amount %s: %w", in.ExpenseAmount, models.ErrInvalidAmount)
	}
	if !models.ValidCurrency(in.Currency) {
		return nil, fmt.Errorf("currency %q: %w", in.Currency, models.ErrInvalidCurrency)
	}

	shares, err := divideShares(in)
	if err != nil {
		return nil, err
	}

	split := &models.Split{
		ExpenseID:    in.ExpenseID,
		CreatorID:    in.CreatorID,
		GroupID:      in.GroupID,
		Currency:     in.Currency,
		DivisionType: in.DivisionType,
		Status:       models.SplitUnsettled,
		Participants: make([]models.Participant, len(in.Participants)),
	}
	for i, p := range in.Participants {
		split.Participants[i] = models.Participant{
			UserID:        p.UserID,
			UserName:      p.UserName,
			Amount:        shares[i],
			PaymentMethod: models.PaymentNone,
		}
	}

	if err := split.Validate(); err != nil {
		return nil, err
	}
	if err := split.ValidateTotal(in.ExpenseAmount); err != nil {
		return nil, err
	}

	if err := e.store.CreateSplit(ctx, split); err != nil {
		return nil, fmt.Errorf("failed to persist split: %w", err)
	}

	slog.Info("Split created",
		"split_id", split.ID,
		"creator_id", split.CreatorID,
		"division", split.DivisionType,
		"participants", len(split.Participants),
		"total", in.ExpenseAmount.StringFixed(2),
		"currency", split.Currency,
	)

	return split, nil
}

// divideShares computes each participant's share for the requested division
// type. For equal and percentage divisions, participants after the first
// get their rounded share and the first gets the total minus the rest, which
// pins the sum to the expense amount exactly.
func divideShares(in CreateSplitInput) ([]decimal.Decimal, error) {
	total := models.RoundMoney(in.ExpenseAmount)
	n := len(in.Participants)

	switch in.DivisionType {
	case models.DivisionEqual:
		per := models.RoundMoney(total.Div(decimal.NewFromInt(int64(n))))
		return sharesWithRemainder(total, func(int) decimal.Decimal { return per }, n)

	case models.DivisionAmount:
		shares := make([]decimal.Decimal, n)
		sum := decimal.Zero
		for i, p := range in.Participants {
			if !models.ValidAmount(p.Amount) {
				return nil, fmt.Errorf("participant %s amount %s: %w", p.UserID, p.Amount, models.ErrInvalidAmount)
			}
			shares[i] = models.RoundMoney(p.Amount)
			sum = sum.Add(shares[i])
		}
		if !models.AmountsReconcile(sum, total) {
			return nil, fmt.Errorf("amounts sum to %s, expense is %s: %w", sum, total, models.ErrAmountMismatch)
		}
		return shares, nil

	case models.DivisionPercentage:
		weightSum := decimal.Zero
		for _, p := range in.Participants {
			if !p.Weight.IsPositive() {
				return nil, fmt.Errorf("participant %s weight %s: %w", p.UserID, p.Weight, models.ErrInvalidWeights)
			}
			weightSum = weightSum.Add(p.Weight)
		}
		if !models.AmountsReconcile(weightSum, oneHundred) {
			return nil, fmt.Errorf("weights sum to %s: %w", weightSum, models.ErrInvalidWeights)
		}
		return sharesWithRemainder(total, func(i int) decimal.Decimal {
			return models.RoundMoney(total.Mul(in.Participants[i].Weight).Div(oneHundred))
		}, n)

	default:
		return nil, fmt.Errorf("unknown division type %q: %w", in.DivisionType, models.ErrInvalidState)
	}
}

// sharesWithRemainder assigns share(i) to every participant but the first,
// then gives the first the total minus the rest. The first participant's
// share must remain positive after absorbing the remainder.
func sharesWithRemainder(total decimal.Decimal, share func(int) decimal.Decimal, n int) ([]decimal.Decimal, error) {
	shares := make([]decimal.Decimal, n)
	rest := decimal.Zero
	for i := 1; i < n; i++ {
		shares[i] = share(i)
		rest = rest.Add(shares[i])
	}
	shares[0] = total.Sub(rest)
	if !models.ValidAmount(shares[0]) {
		return nil, fmt.Errorf("first share %s after remainder: %w", shares[0], models.ErrInvalidAmount)
	}
	return shares, nil
}
