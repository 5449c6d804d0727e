package models

import "errors"

// Sentinel errors returned by the ledger. Services wrap these with
// fmt.Errorf("...: %w", err) so callers can match with errors.Is.
var (
	// ErrInvalidAmount is returned for a zero, negative, or malformed amount.
	ErrInvalidAmount = errors.New("amount must be positive")

	// ErrAmountMismatch is returned when shares or a settlement amount do not
	// reconcile with the source total within the money tolerance.
	ErrAmountMismatch = errors.New("amounts do not reconcile with the total")

	// ErrEmptyParticipants is returned when a split is created with no participants.
	ErrEmptyParticipants = errors.New("split requires at least one participant")

	// ErrInvalidWeights is returned when percentage weights do not sum to 100.
	ErrInvalidWeights = errors.New("percentage weights must sum to 100")

	// ErrInsufficientFunds is returned when the payer's balance cannot cover a
	// transfer. The check is part of the atomic debit, never a separate read.
	ErrInsufficientFunds = errors.New("insufficient wallet balance")

	// ErrRequestNotFound is returned when a settlement request does not exist.
	ErrRequestNotFound = errors.New("settlement request not found")

	// ErrInvalidState is returned when an operation references an entity in a
	// terminal or incompatible state, e.g. approving an already-rejected
	// request or wallet-settling an already-settled participant.
	ErrInvalidState = errors.New("operation not valid in current state")

	// ErrSplitNotFound is returned when a split does not exist.
	ErrSplitNotFound = errors.New("split not found")

	// ErrNotificationNotFound is returned when a notification does not exist
	// or belongs to another user.
	ErrNotificationNotFound = errors.New("notification not found")

	// ErrParticipantNotFound is returned when a user is not a participant of
	// the referenced split.
	ErrParticipantNotFound = errors.New("participant not found in split")

	// ErrSameUser is returned when a transfer names the same user on both legs.
	ErrSameUser = errors.New("cannot transfer funds to the same user")

	// ErrInvalidCurrency is returned for an empty or malformed currency code.
	ErrInvalidCurrency = errors.New("invalid currency code")
)
