package models

import (
	"errors"
	"testing"

	"github.com/shopspring/decimal"
)

func share(s string) decimal.Decimal {
	return decimal.RequireFromString(s)
}

func TestRecomputeStatus(t *testing.T) {
	tests := []struct {
		name         string
		participants []Participant
		want         SplitStatus
	}{
		{
			name: "nobody paid",
			participants: []Participant{
				{UserID: "a", Amount: share("10")},
				{UserID: "b", Amount: share("10")},
			},
			want: SplitUnsettled,
		},
		{
			name: "one paid awaiting approval",
			participants: []Participant{
				{UserID: "a", Amount: share("10"), Paid: true},
				{UserID: "b", Amount: share("10")},
			},
			want: SplitPending,
		},
		{
			name: "one settled one outstanding",
			participants: []Participant{
				{UserID: "a", Amount: share("10"), Paid: true, Settled: true},
				{UserID: "b", Amount: share("10")},
			},
			want: SplitPending,
		},
		{
			name: "everyone settled",
			participants: []Participant{
				{UserID: "a", Amount: share("10"), Paid: true, Settled: true},
				{UserID: "b", Amount: share("10"), Paid: true, Settled: true},
			},
			want: SplitSettled,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			s := &Split{Participants: tt.participants}
			s.RecomputeStatus()
			if s.Status != tt.want {
				t.Errorf("RecomputeStatus() = %s, want %s", s.Status, tt.want)
			}
		})
	}
}

func TestSplitValidate(t *testing.T) {
	valid := func() *Split {
		return &Split{
			CreatorID:    "alice",
			Currency:     "USD",
			DivisionType: DivisionEqual,
			Status:       SplitUnsettled,
			Participants: []Participant{
				{UserID: "alice", Amount: share("10.00")},
				{UserID: "bob", Amount: share("10.00")},
			},
		}
	}

	tests := []struct {
		name    string
		mutate  func(s *Split)
		wantErr error
	}{
		{
			name:   "valid split passes",
			mutate: func(s *Split) {},
		},
		{
			name:    "missing creator",
			mutate:  func(s *Split) { s.CreatorID = "" },
			wantErr: ErrInvalidState,
		},
		{
			name:    "unknown division type",
			mutate:  func(s *Split) { s.DivisionType = "weighted" },
			wantErr: ErrInvalidState,
		},
		{
			name:    "lowercase currency",
			mutate:  func(s *Split) { s.Currency = "usd" },
			wantErr: ErrInvalidCurrency,
		},
		{
			name:    "no participants",
			mutate:  func(s *Split) { s.Participants = nil },
			wantErr: ErrEmptyParticipants,
		},
		{
			name:    "duplicate participant",
			mutate:  func(s *Split) { s.Participants[1].UserID = "alice" },
			wantErr: ErrInvalidState,
		},
		{
			name:    "zero share",
			mutate:  func(s *Split) { s.Participants[1].Amount = decimal.Zero },
			wantErr: ErrInvalidAmount,
		},
		{
			name:    "settled without payment",
			mutate:  func(s *Split) { s.Participants[0].Settled = true; s.Status = SplitPending },
			wantErr: ErrInvalidState,
		},
		{
			name:    "status out of sync with participants",
			mutate:  func(s *Split) { s.Status = SplitSettled },
			wantErr: ErrInvalidState,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			s := valid()
			tt.mutate(s)
			err := s.Validate()
			if tt.wantErr == nil {
				if err != nil {
					t.Errorf("Validate() error = %v, want nil", err)
				}
				return
			}
			if !errors.Is(err, tt.wantErr) {
				t.Errorf("Validate() error = %v, want %v", err, tt.wantErr)
			}
		})
	}
}

func TestValidateTotal(t *testing.T) {
	s := &Split{
		CreatorID:    "alice",
		Currency:     "USD",
		DivisionType: DivisionEqual,
		Status:       SplitUnsettled,
		Participants: []Participant{
			{UserID: "alice", Amount: share("33.34")},
			{UserID: "bob", Amount: share("33.33")},
			{UserID: "carol", Amount: share("33.33")},
		},
	}

	if err := s.ValidateTotal(share("100.00")); err != nil {
		t.Errorf("ValidateTotal(100.00) error = %v", err)
	}
	// One cent off is within tolerance.
	if err := s.ValidateTotal(share("100.01")); err != nil {
		t.Errorf("ValidateTotal(100.01) error = %v", err)
	}
	if err := s.ValidateTotal(share("100.02")); !errors.Is(err, ErrAmountMismatch) {
		t.Errorf("ValidateTotal(100.02) error = %v, want ErrAmountMismatch", err)
	}
}

func TestValidCurrency(t *testing.T) {
	for currency, want := range map[string]bool{
		"USD":  true,
		"EUR":  true,
		"INR":  true,
		"usd":  false,
		"US":   false,
		"USDT": false,
		"":     false,
		"U5D":  false,
	} {
		if got := ValidCurrency(currency); got != want {
			t.Errorf("ValidCurrency(%q) = %v, want %v", currency, got, want)
		}
	}
}
