package engine

import (
	"context"
	"fmt"
	"sort"

	"github.com/shopspring/decimal"
)

// MemberBalance is one user's aggregate position across a set of splits.
// Positive Net means the user is owed money, negative means they owe.
type MemberBalance struct {
	UserID    string
	Currency  string
	TotalPaid decimal.Decimal
	TotalOwed decimal.Decimal
	Net       decimal.Decimal
}

// DebtEdge is a suggested repayment from one user to another.
type DebtEdge struct {
	FromUserID string
	ToUserID   string
	Amount     decimal.Decimal
	Currency   string
}

// OutstandingBalances aggregates every split the user touches into per-user
// net positions and a simplified repayment plan, grouped by currency.
// Only unsettled shares count: a settled participant's debt is gone, and a
// paid-but-unconfirmed share still counts as owed until the creditor
// approves it.
func (e *Engine) OutstandingBalances(ctx context.Context, userID string) ([]MemberBalance, []DebtEdge, error) {
	splits, err := e.store.ListSplitsByUser(ctx, userID)
	if err != nil {
		return nil, nil, fmt.Errorf("list splits: %w", err)
	}

	type key struct{ user, currency string }
	balances := make(map[key]*MemberBalance)
	at := func(user, currency string) *MemberBalance {
		k := key{user, currency}
		if b, ok := balances[k]; ok {
			return b
		}
		b := &MemberBalance{UserID: user, Currency: currency}
		balances[k] = b
		return b
	}

	for _, split := range splits {
		for _, p := range split.Participants {
			if p.Settled || p.UserID == split.CreatorID {
				continue
			}
			at(split.CreatorID, split.Currency).TotalPaid = at(split.CreatorID, split.Currency).TotalPaid.Add(p.Amount)
			at(p.UserID, split.Currency).TotalOwed = at(p.UserID, split.Currency).TotalOwed.Add(p.Amount)
		}
	}

	members := make([]MemberBalance, 0, len(balances))
	for _, b := range balances {
		b.Net = b.TotalPaid.Sub(b.TotalOwed)
		members = append(members, *b)
	}
	sort.Slice(members, func(i, j int) bool {
		if members[i].Currency != members[j].Currency {
			return members[i].Currency < members[j].Currency
		}
		return members[i].UserID < members[j].UserID
	})

	return members, simplifyDebts(members), nil
}

// simplifyDebts matches debtors against creditors within each currency so
// the whole group settles in as few transfers as the greedy pairing allows.
// Input must be sorted; output order is deterministic.
func simplifyDebts(members []MemberBalance) []DebtEdge {
	byCurrency := make(map[string][]MemberBalance)
	currencies := make([]string, 0)
	for _, m := range members {
		if _, ok := byCurrency[m.Currency]; !ok {
			currencies = append(currencies, m.Currency)
		}
		byCurrency[m.Currency] = append(byCurrency[m.Currency], m)
	}
	sort.Strings(currencies)

	var edges []DebtEdge
	for _, currency := range currencies {
		var debtors, creditors []MemberBalance
		for _, m := range byCurrency[currency] {
			switch {
			case m.Net.IsNegative():
				debtors = append(debtors, m)
			case m.Net.IsPositive():
				creditors = append(creditors, m)
			}
		}

		i, j := 0, 0
		debtorOwes := make(map[string]decimal.Decimal, len(debtors))
		creditorDue := make(map[string]decimal.Decimal, len(creditors))
		for _, d := range debtors {
			debtorOwes[d.UserID] = d.Net.Neg()
		}
		for _, c := range creditors {
			creditorDue[c.UserID] = c.Net
		}

		for i < len(debtors) && j < len(creditors) {
			debtor := debtors[i].UserID
			creditor := creditors[j].UserID

			amount := decimal.Min(debtorOwes[debtor], creditorDue[creditor])
			if amount.IsPositive() {
				edges = append(edges, DebtEdge{
					FromUserID: debtor,
					ToUserID:   creditor,
					Amount:     amount,
					Currency:   currency,
				})
			}

			debtorOwes[debtor] = debtorOwes[debtor].Sub(amount)
			creditorDue[creditor] = creditorDue[creditor].Sub(amount)
			if debtorOwes[debtor].IsZero() {
				i++
			}
			if creditorDue[creditor].IsZero() {
				j++
			}
		}
	}

	return edges
}
