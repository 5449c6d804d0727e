package models

import (
	"github.com/shopspring/decimal"
)

// moneyTolerance is the maximum difference at which two monetary amounts are
// considered equal: one cent in the split's currency.
var moneyTolerance = decimal.New(1, -2)

// RoundMoney rounds an amount to two decimal places, half away from zero.
func RoundMoney(d decimal.Decimal) decimal.Decimal {
	return d.Round(2)
}

// AmountsReconcile reports whether two amounts differ by at most 0.01.
func AmountsReconcile(a, b decimal.Decimal) bool {
	return a.Sub(b).Abs().LessThanOrEqual(moneyTolerance)
}

// ValidAmount reports whether the amount is strictly positive.
func ValidAmount(d decimal.Decimal) bool {
	return d.IsPositive()
}

// ValidCurrency reports whether the currency looks like an ISO 4217 code:
// three ASCII uppercase letters.
func ValidCurrency(currency string) bool {
	if len(currency) != 3 {
		return false
	}
	for _, c := range currency {
		if c < 'A' || c > 'Z' {
			return false
		}
	}
	return true
}
