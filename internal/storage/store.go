// Package storage provides abstractions for persistent data storage.
package storage

import (
	"context"

	"github.com/shopspring/decimal"

	"github.com/mmynk/finpal/internal/models"
)

// Store defines the persistence contract the ledger is built on. The
// interface deliberately exposes whole operations, not primitives: every
// method that mutates money or settlement state is a single atomic unit of
// work, so no caller can interleave a read-balance-then-write-balance pair.
//
// The abstraction allows swapping storage backends (SQLite, PostgreSQL,
// etc.) without changing the engine, wallet, or settlement packages.
type Store interface {
	// CreateUser persists a new user. Fails if the email is taken.
	CreateUser(ctx context.Context, user *models.User) error

	// GetUserByEmail retrieves a user by email, or nil if absent.
	GetUserByEmail(ctx context.Context, email string) (*models.User, error)

	// GetUserByID retrieves a user with a snapshot of their wallet
	// balances, or nil if absent.
	GetUserByID(ctx context.Context, id string) (*models.User, error)

	// CreateSplit persists a split with its participant rows. The store
	// populates ID and timestamps when unset.
	CreateSplit(ctx context.Context, split *models.Split) error

	// GetSplit retrieves a split including all participants.
	// Returns models.ErrSplitNotFound if absent.
	GetSplit(ctx context.Context, id string) (*models.Split, error)

	// ListSplitsByUser returns splits where the user is creator or
	// participant, newest first.
	ListSplitsByUser(ctx context.Context, userID string) ([]*models.Split, error)

	// SettleParticipant marks one participant paid and settled, records the
	// payment method and optional request back-reference, and recomputes the
	// split's derived status, all in one transaction touching only that
	// participant's row. Settling an already-settled participant is a no-op.
	// Returns the split as stored after the update.
	SettleParticipant(ctx context.Context, splitID, userID string, method models.PaymentMethod, requestID string) (*models.Split, error)

	// SettleViaWallet settles one participant's share by wallet transfer as
	// a single atomic unit: the conditional participant update (fails with
	// models.ErrInvalidState when already settled, models.ErrParticipantNotFound
	// when absent), the conditional debit of txn.FromUserID (fails with
	// models.ErrInsufficientFunds), the credit of txn.ToUserID, the
	// transaction append, and the split status recompute all commit or roll
	// back together. Concurrent settles of the same share serialize on the
	// participant row: exactly one debits, the rest fail with no money moved.
	// Returns the split as stored after the update.
	SettleViaWallet(ctx context.Context, splitID, userID string, txn *models.WalletTransaction) (*models.Split, error)

	// MarkParticipantPaid records that a participant asserts payment was
	// made through a manual settlement request: sets paid, links the
	// request, and recomputes the split's derived status in one
	// transaction. Settled state is not touched.
	MarkParticipantPaid(ctx context.Context, splitID, userID, requestID string) error

	// CreateSettlementRequest persists a new settlement request.
	CreateSettlementRequest(ctx context.Context, req *models.SettlementRequest) error

	// GetSettlementRequest retrieves a request by ID.
	// Returns models.ErrRequestNotFound if absent.
	GetSettlementRequest(ctx context.Context, id string) (*models.SettlementRequest, error)

	// TransitionSettlementRequest moves a request from one status to
	// another as a conditional update. Returns models.ErrRequestNotFound if
	// absent and models.ErrInvalidState if the current status is not from.
	TransitionSettlementRequest(ctx context.Context, id string, from, to models.RequestStatus) error

	// ListSettlementRequestsForUser returns requests addressed to the user
	// (the approval inbox), newest first, optionally filtered by status.
	ListSettlementRequestsForUser(ctx context.Context, userID string, status models.RequestStatus) ([]*models.SettlementRequest, error)

	// AddFunds credits txn.ToUserID by txn.Amount in txn.Currency and
	// appends the transaction row, atomically. A currency the user has no
	// balance row for yet is an implicit zero.
	AddFunds(ctx context.Context, txn *models.WalletTransaction) error

	// Transfer debits txn.FromUserID, credits txn.ToUserID, and appends
	// the transaction row as one atomic serializable unit. The balance
	// check is part of the debit: when the payer's balance cannot cover
	// the amount the whole unit fails with models.ErrInsufficientFunds and
	// no state changes.
	Transfer(ctx context.Context, txn *models.WalletTransaction) error

	// GetBalances returns a user's wallet balances by currency.
	GetBalances(ctx context.Context, userID string) (map[string]decimal.Decimal, error)

	// ListWalletTransactions returns transactions where the user is payer
	// or recipient, newest first, at most limit rows.
	ListWalletTransactions(ctx context.Context, userID string, limit int) ([]*models.WalletTransaction, error)

	// CreateNotification persists a notification for later delivery.
	CreateNotification(ctx context.Context, n *models.Notification) error

	// ListNotifications returns a user's notifications, newest first.
	ListNotifications(ctx context.Context, userID string, unreadOnly bool) ([]*models.Notification, error)

	// MarkNotificationRead flags a notification as read.
	MarkNotificationRead(ctx context.Context, userID, id string) error

	// Close releases any resources held by the store.
	Close() error
}
