package models

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// User represents a registered account. WalletBalances maps currency code to
// the current balance; a missing currency is an implicit zero.
//
// The balance map is a read snapshot. All mutation goes through the wallet
// ledger's atomic increment contract, never by writing the map back.
type User struct {
	// ID is the unique identifier for the user (UUID format).
	ID string

	// Email is the user's email address (unique). Used for login.
	Email string

	// DisplayName is the name shown to other participants.
	DisplayName string

	// PasswordHash is the bcrypt hash of the user's password.
	PasswordHash string

	// DefaultCurrency is the currency preselected for new splits and transfers.
	DefaultCurrency string

	// WalletBalances maps currency code to balance, two decimal places.
	WalletBalances map[string]decimal.Decimal

	// CreatedAt and UpdatedAt are Unix timestamps.
	CreatedAt int64
	UpdatedAt int64
}

// NewUser creates a user with a generated ID and timestamps.
func NewUser(email, displayName, passwordHash string) *User {
	now := time.Now().Unix()
	return &User{
		ID:              uuid.New().String(),
		Email:           email,
		DisplayName:     displayName,
		PasswordHash:    passwordHash,
		DefaultCurrency: "USD",
		WalletBalances:  make(map[string]decimal.Decimal),
		CreatedAt:       now,
		UpdatedAt:       now,
	}
}
