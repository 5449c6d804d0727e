package engine

import (
	"context"
	"testing"

	"github.com/shopspring/decimal"

	"github.com/mmynk/finpal/internal/models"
)

func TestOutstandingBalances(t *testing.T) {
	store := newTestStore(t)
	eng := New(store)
	ctx := context.Background()

	// Alice fronts 90 split three ways; Bob fronts 30 split two ways with
	// Alice. Alice's own shares never count as debt.
	if _, err := eng.CreateSplit(ctx, CreateSplitInput{
		CreatorID:     "alice",
		ExpenseAmount: dec(t, "90.00"),
		Currency:      "USD",
		DivisionType:  models.DivisionEqual,
		Participants: []ParticipantInput{
			{UserID: "alice", UserName: "Alice"},
			{UserID: "bob", UserName: "Bob"},
			{UserID: "carol", UserName: "Carol"},
		},
	}); err != nil {
		t.Fatalf("CreateSplit() error = %v", err)
	}
	if _, err := eng.CreateSplit(ctx, CreateSplitInput{
		CreatorID:     "bob",
		ExpenseAmount: dec(t, "30.00"),
		Currency:      "USD",
		DivisionType:  models.DivisionEqual,
		Participants: []ParticipantInput{
			{UserID: "bob", UserName: "Bob"},
			{UserID: "alice", UserName: "Alice"},
		},
	}); err != nil {
		t.Fatalf("CreateSplit() error = %v", err)
	}

	members, edges, err := eng.OutstandingBalances(ctx, "alice")
	if err != nil {
		t.Fatalf("OutstandingBalances() error = %v", err)
	}

	net := make(map[string]string)
	for _, m := range members {
		net[m.UserID] = m.Net.StringFixed(2)
	}
	// Alice is owed 60 (bob 30 + carol 30) and owes bob 15.
	if net["alice"] != "45.00" {
		t.Errorf("alice net = %s, want 45.00", net["alice"])
	}
	if net["bob"] != "-15.00" {
		t.Errorf("bob net = %s, want -15.00", net["bob"])
	}
	if net["carol"] != "-30.00" {
		t.Errorf("carol net = %s, want -30.00", net["carol"])
	}

	// Simplification nets everything through alice: two repayments total.
	if len(edges) != 2 {
		t.Fatalf("got %d repayment edges, want 2", len(edges))
	}
	for _, e := range edges {
		if e.ToUserID != "alice" {
			t.Errorf("edge %+v should point at alice", e)
		}
	}
}

func TestOutstandingBalancesSkipsSettled(t *testing.T) {
	store := newTestStore(t)
	eng := New(store)
	ctx := context.Background()

	split, err := eng.CreateSplit(ctx, CreateSplitInput{
		CreatorID:     "alice",
		ExpenseAmount: dec(t, "40.00"),
		Currency:      "USD",
		DivisionType:  models.DivisionEqual,
		Participants: []ParticipantInput{
			{UserID: "alice", UserName: "Alice"},
			{UserID: "bob", UserName: "Bob"},
		},
	})
	if err != nil {
		t.Fatalf("CreateSplit() error = %v", err)
	}

	if _, err := store.SettleParticipant(ctx, split.ID, "bob", models.PaymentWallet, ""); err != nil {
		t.Fatalf("SettleParticipant() error = %v", err)
	}

	members, edges, err := eng.OutstandingBalances(ctx, "alice")
	if err != nil {
		t.Fatalf("OutstandingBalances() error = %v", err)
	}
	if len(members) != 0 {
		t.Errorf("got %d member balances after full settlement, want 0", len(members))
	}
	if len(edges) != 0 {
		t.Errorf("got %d repayment edges after full settlement, want 0", len(edges))
	}
}

func TestSimplifyDebtsPairsWithinCurrency(t *testing.T) {
	members := []MemberBalance{
		{UserID: "alice", Currency: "EUR", Net: decimal.RequireFromString("20")},
		{UserID: "bob", Currency: "EUR", Net: decimal.RequireFromString("-20")},
		{UserID: "alice", Currency: "USD", Net: decimal.RequireFromString("10")},
		{UserID: "carol", Currency: "USD", Net: decimal.RequireFromString("-10")},
	}

	edges := simplifyDebts(members)
	if len(edges) != 2 {
		t.Fatalf("got %d edges, want 2", len(edges))
	}
	for _, e := range edges {
		if e.FromUserID == e.ToUserID {
			t.Errorf("self edge: %+v", e)
		}
		if e.Currency != "EUR" && e.Currency != "USD" {
			t.Errorf("unexpected currency in edge %+v", e)
		}
	}
}
