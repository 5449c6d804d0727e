package sqlite

import (
	"context"
	"errors"
	"path/filepath"
	"testing"

	"github.com/shopspring/decimal"

	"github.com/mmynk/finpal/internal/models"
)

func newTestStore(t *testing.T) *SQLiteStore {
	t.Helper()
	store, err := New(filepath.Join(t.TempDir(), "test.db"))
	if err != nil {
		t.Fatalf("failed to create store: %v", err)
	}
	t.Cleanup(func() { store.Close() })
	return store
}

func money(s string) decimal.Decimal {
	return decimal.RequireFromString(s)
}

func seedSplit(t *testing.T, store *SQLiteStore, creator string, shares map[string]string) *models.Split {
	t.Helper()
	split := &models.Split{
		CreatorID:    creator,
		Currency:     "USD",
		DivisionType: models.DivisionAmount,
		Status:       models.SplitUnsettled,
	}
	// Deterministic participant order keeps assertions stable.
	for _, userID := range []string{"alice", "bob", "carol"} {
		amount, ok := shares[userID]
		if !ok {
			continue
		}
		split.Participants = append(split.Participants, models.Participant{
			UserID:   userID,
			UserName: userID,
			Amount:   money(amount),
		})
	}
	if err := store.CreateSplit(context.Background(), split); err != nil {
		t.Fatalf("CreateSplit() error = %v", err)
	}
	return split
}

func seedFunds(t *testing.T, store *SQLiteStore, userID, amount, currency string) {
	t.Helper()
	err := store.AddFunds(context.Background(), &models.WalletTransaction{
		FromUserID: models.SystemUserID,
		ToUserID:   userID,
		Amount:     money(amount),
		Currency:   currency,
		Type:       models.TransactionAddFunds,
		Status:     models.TransactionCompleted,
	})
	if err != nil {
		t.Fatalf("AddFunds() error = %v", err)
	}
}

func balance(t *testing.T, store *SQLiteStore, userID, currency string) string {
	t.Helper()
	balances, err := store.GetBalances(context.Background(), userID)
	if err != nil {
		t.Fatalf("GetBalances() error = %v", err)
	}
	if b, ok := balances[currency]; ok {
		return b.StringFixed(2)
	}
	return "0.00"
}

func TestUserRoundTrip(t *testing.T) {
	store := newTestStore(t)
	ctx := context.Background()

	user := models.NewUser("alice@example.com", "Alice", "hash")
	if err := store.CreateUser(ctx, user); err != nil {
		t.Fatalf("CreateUser() error = %v", err)
	}

	byEmail, err := store.GetUserByEmail(ctx, "alice@example.com")
	if err != nil {
		t.Fatalf("GetUserByEmail() error = %v", err)
	}
	if byEmail == nil || byEmail.ID != user.ID {
		t.Fatalf("GetUserByEmail() = %+v, want user %s", byEmail, user.ID)
	}

	missing, err := store.GetUserByEmail(ctx, "nobody@example.com")
	if err != nil {
		t.Fatalf("GetUserByEmail(missing) error = %v", err)
	}
	if missing != nil {
		t.Errorf("GetUserByEmail(missing) = %+v, want nil", missing)
	}
}

func TestAddFundsStartsFromZero(t *testing.T) {
	store := newTestStore(t)

	seedFunds(t, store, "alice", "25.50", "EUR")
	seedFunds(t, store, "alice", "10.00", "EUR")

	if got := balance(t, store, "alice", "EUR"); got != "35.50" {
		t.Errorf("balance = %s, want 35.50", got)
	}
	if got := balance(t, store, "alice", "USD"); got != "0.00" {
		t.Errorf("USD balance = %s, want 0.00", got)
	}
}

func TestTransferMovesFundsAtomically(t *testing.T) {
	store := newTestStore(t)
	ctx := context.Background()

	seedFunds(t, store, "alice", "50.00", "USD")

	txn := &models.WalletTransaction{
		FromUserID: "alice",
		ToUserID:   "bob",
		Amount:     money("20.00"),
		Currency:   "USD",
		Type:       models.TransactionTransfer,
		Status:     models.TransactionCompleted,
	}
	if err := store.Transfer(ctx, txn); err != nil {
		t.Fatalf("Transfer() error = %v", err)
	}

	if got := balance(t, store, "alice", "USD"); got != "30.00" {
		t.Errorf("alice balance = %s, want 30.00", got)
	}
	// Bob had no USD balance row before the credit.
	if got := balance(t, store, "bob", "USD"); got != "20.00" {
		t.Errorf("bob balance = %s, want 20.00", got)
	}

	txns, err := store.ListWalletTransactions(ctx, "bob", 0)
	if err != nil {
		t.Fatalf("ListWalletTransactions() error = %v", err)
	}
	if len(txns) != 1 {
		t.Fatalf("bob has %d transactions, want 1", len(txns))
	}
	if txns[0].ID != txn.ID {
		t.Errorf("transaction ID = %s, want %s", txns[0].ID, txn.ID)
	}
}

func TestTransferInsufficientFundsChangesNothing(t *testing.T) {
	store := newTestStore(t)
	ctx := context.Background()

	seedFunds(t, store, "alice", "10.00", "USD")

	err := store.Transfer(ctx, &models.WalletTransaction{
		FromUserID: "alice",
		ToUserID:   "bob",
		Amount:     money("10.01"),
		Currency:   "USD",
		Type:       models.TransactionTransfer,
		Status:     models.TransactionCompleted,
	})
	if !errors.Is(err, models.ErrInsufficientFunds) {
		t.Fatalf("Transfer() error = %v, want ErrInsufficientFunds", err)
	}

	if got := balance(t, store, "alice", "USD"); got != "10.00" {
		t.Errorf("alice balance = %s, want 10.00", got)
	}
	if got := balance(t, store, "bob", "USD"); got != "0.00" {
		t.Errorf("bob balance = %s, want 0.00", got)
	}

	txns, err := store.ListWalletTransactions(ctx, "bob", 0)
	if err != nil {
		t.Fatalf("ListWalletTransactions() error = %v", err)
	}
	if len(txns) != 0 {
		t.Errorf("bob has %d transactions after failed transfer, want 0", len(txns))
	}
}

func TestTransferExactBalanceSucceeds(t *testing.T) {
	store := newTestStore(t)

	seedFunds(t, store, "alice", "10.00", "USD")

	err := store.Transfer(context.Background(), &models.WalletTransaction{
		FromUserID: "alice",
		ToUserID:   "bob",
		Amount:     money("10.00"),
		Currency:   "USD",
		Type:       models.TransactionTransfer,
		Status:     models.TransactionCompleted,
	})
	if err != nil {
		t.Fatalf("Transfer() error = %v", err)
	}
	if got := balance(t, store, "alice", "USD"); got != "0.00" {
		t.Errorf("alice balance = %s, want 0.00", got)
	}
}

func TestTransferIsCurrencyScoped(t *testing.T) {
	store := newTestStore(t)

	seedFunds(t, store, "alice", "100.00", "EUR")

	err := store.Transfer(context.Background(), &models.WalletTransaction{
		FromUserID: "alice",
		ToUserID:   "bob",
		Amount:     money("5.00"),
		Currency:   "USD",
		Type:       models.TransactionTransfer,
		Status:     models.TransactionCompleted,
	})
	if !errors.Is(err, models.ErrInsufficientFunds) {
		t.Fatalf("Transfer() error = %v, want ErrInsufficientFunds", err)
	}
}

func TestSettleParticipant(t *testing.T) {
	store := newTestStore(t)
	ctx := context.Background()

	split := seedSplit(t, store, "alice", map[string]string{
		"alice": "10.00", "bob": "10.00", "carol": "10.00",
	})

	updated, err := store.SettleParticipant(ctx, split.ID, "bob", models.PaymentWallet, "")
	if err != nil {
		t.Fatalf("SettleParticipant() error = %v", err)
	}

	bob := updated.Participant("bob")
	if bob == nil || !bob.Paid || !bob.Settled {
		t.Fatalf("bob = %+v, want paid and settled", bob)
	}
	if bob.PaymentMethod != models.PaymentWallet {
		t.Errorf("payment method = %s, want wallet", bob.PaymentMethod)
	}
	if updated.Status != models.SplitPending {
		t.Errorf("split status = %s, want pending", updated.Status)
	}

	// Settling the rest flips the derived status.
	if _, err := store.SettleParticipant(ctx, split.ID, "alice", models.PaymentWallet, ""); err != nil {
		t.Fatalf("SettleParticipant(alice) error = %v", err)
	}
	updated, err = store.SettleParticipant(ctx, split.ID, "carol", models.PaymentManual, "req-1")
	if err != nil {
		t.Fatalf("SettleParticipant(carol) error = %v", err)
	}
	if updated.Status != models.SplitSettled {
		t.Errorf("split status = %s, want settled", updated.Status)
	}
	if carol := updated.Participant("carol"); carol.SettlementRequestID != "req-1" {
		t.Errorf("carol request id = %s, want req-1", carol.SettlementRequestID)
	}
}

func TestSettleParticipantIdempotent(t *testing.T) {
	store := newTestStore(t)
	ctx := context.Background()

	split := seedSplit(t, store, "alice", map[string]string{"alice": "10.00", "bob": "10.00"})

	first, err := store.SettleParticipant(ctx, split.ID, "bob", models.PaymentWallet, "")
	if err != nil {
		t.Fatalf("SettleParticipant() error = %v", err)
	}

	// Second settlement of the same share is a no-op, not an error.
	second, err := store.SettleParticipant(ctx, split.ID, "bob", models.PaymentManual, "req-9")
	if err != nil {
		t.Fatalf("repeat SettleParticipant() error = %v", err)
	}
	bob := second.Participant("bob")
	if bob.PaymentMethod != models.PaymentWallet {
		t.Errorf("payment method changed on repeat settle: %s", bob.PaymentMethod)
	}
	if bob.SettlementRequestID != first.Participant("bob").SettlementRequestID {
		t.Errorf("request id changed on repeat settle")
	}
}

func TestSettleParticipantNotFound(t *testing.T) {
	store := newTestStore(t)
	ctx := context.Background()

	split := seedSplit(t, store, "alice", map[string]string{"alice": "10.00", "bob": "10.00"})

	if _, err := store.SettleParticipant(ctx, "missing-split", "bob", models.PaymentWallet, ""); !errors.Is(err, models.ErrSplitNotFound) {
		t.Errorf("unknown split error = %v, want ErrSplitNotFound", err)
	}
	if _, err := store.SettleParticipant(ctx, split.ID, "mallory", models.PaymentWallet, ""); !errors.Is(err, models.ErrParticipantNotFound) {
		t.Errorf("unknown participant error = %v, want ErrParticipantNotFound", err)
	}
}

func settlementTxn(split *models.Split, from, amount string) *models.WalletTransaction {
	return &models.WalletTransaction{
		FromUserID: from,
		ToUserID:   split.CreatorID,
		Amount:     money(amount),
		Currency:   split.Currency,
		Type:       models.TransactionSettlement,
		SplitID:    split.ID,
		Status:     models.TransactionCompleted,
	}
}

func countSettlements(t *testing.T, store *SQLiteStore, userID string) int {
	t.Helper()
	txns, err := store.ListWalletTransactions(context.Background(), userID, 50)
	if err != nil {
		t.Fatalf("ListWalletTransactions() error = %v", err)
	}
	n := 0
	for _, txn := range txns {
		if txn.Type == models.TransactionSettlement {
			n++
		}
	}
	return n
}

func TestSettleViaWalletAtomicUnit(t *testing.T) {
	store := newTestStore(t)
	ctx := context.Background()

	split := seedSplit(t, store, "alice", map[string]string{"alice": "10.00", "bob": "30.00"})
	seedFunds(t, store, "bob", "50.00", "USD")

	updated, err := store.SettleViaWallet(ctx, split.ID, "bob", settlementTxn(split, "bob", "30.00"))
	if err != nil {
		t.Fatalf("SettleViaWallet() error = %v", err)
	}

	if got := balance(t, store, "bob", "USD"); got != "20.00" {
		t.Errorf("bob balance = %s, want 20.00", got)
	}
	if got := balance(t, store, "alice", "USD"); got != "30.00" {
		t.Errorf("alice balance = %s, want 30.00", got)
	}

	bob := updated.Participant("bob")
	if !bob.Paid || !bob.Settled || bob.PaymentMethod != models.PaymentWallet {
		t.Errorf("bob = %+v, want settled via wallet", bob)
	}
	if updated.Status != models.SplitPending {
		t.Errorf("split status = %s, want pending", updated.Status)
	}
	if got := countSettlements(t, store, "bob"); got != 1 {
		t.Errorf("settlement transactions = %d, want 1", got)
	}
}

func TestSettleViaWalletInsufficientFundsRollsBack(t *testing.T) {
	store := newTestStore(t)
	ctx := context.Background()

	split := seedSplit(t, store, "alice", map[string]string{"alice": "10.00", "bob": "30.00"})
	seedFunds(t, store, "bob", "5.00", "USD")

	_, err := store.SettleViaWallet(ctx, split.ID, "bob", settlementTxn(split, "bob", "30.00"))
	if !errors.Is(err, models.ErrInsufficientFunds) {
		t.Fatalf("SettleViaWallet() error = %v, want ErrInsufficientFunds", err)
	}

	// The failed debit rolls back the participant update with it.
	loaded, err := store.GetSplit(ctx, split.ID)
	if err != nil {
		t.Fatalf("GetSplit() error = %v", err)
	}
	if bob := loaded.Participant("bob"); bob.Paid || bob.Settled {
		t.Errorf("bob = %+v, want untouched after rollback", bob)
	}
	if loaded.Status != models.SplitUnsettled {
		t.Errorf("split status = %s, want unsettled", loaded.Status)
	}
	if got := balance(t, store, "bob", "USD"); got != "5.00" {
		t.Errorf("bob balance = %s, want 5.00", got)
	}
	if got := countSettlements(t, store, "bob"); got != 0 {
		t.Errorf("settlement transactions = %d, want 0", got)
	}
}

func TestSettleViaWalletGuardsSettledRow(t *testing.T) {
	store := newTestStore(t)
	ctx := context.Background()

	split := seedSplit(t, store, "alice", map[string]string{"alice": "10.00", "bob": "30.00"})
	seedFunds(t, store, "bob", "100.00", "USD")

	if _, err := store.SettleViaWallet(ctx, split.ID, "bob", settlementTxn(split, "bob", "30.00")); err != nil {
		t.Fatalf("first SettleViaWallet() error = %v", err)
	}
	_, err := store.SettleViaWallet(ctx, split.ID, "bob", settlementTxn(split, "bob", "30.00"))
	if !errors.Is(err, models.ErrInvalidState) {
		t.Fatalf("second SettleViaWallet() error = %v, want ErrInvalidState", err)
	}

	if got := balance(t, store, "bob", "USD"); got != "70.00" {
		t.Errorf("bob balance = %s, want 70.00 after a single debit", got)
	}
	if got := countSettlements(t, store, "bob"); got != 1 {
		t.Errorf("settlement transactions = %d, want 1", got)
	}
}

func TestSettleViaWalletNotFound(t *testing.T) {
	store := newTestStore(t)
	ctx := context.Background()

	split := seedSplit(t, store, "alice", map[string]string{"alice": "10.00", "bob": "30.00"})

	if _, err := store.SettleViaWallet(ctx, "missing-split", "bob", settlementTxn(split, "bob", "30.00")); !errors.Is(err, models.ErrSplitNotFound) {
		t.Errorf("unknown split error = %v, want ErrSplitNotFound", err)
	}
	if _, err := store.SettleViaWallet(ctx, split.ID, "mallory", settlementTxn(split, "mallory", "30.00")); !errors.Is(err, models.ErrParticipantNotFound) {
		t.Errorf("unknown participant error = %v, want ErrParticipantNotFound", err)
	}
}

func TestMarkParticipantPaid(t *testing.T) {
	store := newTestStore(t)
	ctx := context.Background()

	split := seedSplit(t, store, "alice", map[string]string{"alice": "10.00", "bob": "10.00"})

	if err := store.MarkParticipantPaid(ctx, split.ID, "bob", "req-1"); err != nil {
		t.Fatalf("MarkParticipantPaid() error = %v", err)
	}

	loaded, err := store.GetSplit(ctx, split.ID)
	if err != nil {
		t.Fatalf("GetSplit() error = %v", err)
	}
	bob := loaded.Participant("bob")
	if !bob.Paid || bob.Settled {
		t.Errorf("bob = %+v, want paid but not settled", bob)
	}
	if bob.SettlementRequestID != "req-1" {
		t.Errorf("request id = %s, want req-1", bob.SettlementRequestID)
	}
	if loaded.Status != models.SplitPending {
		t.Errorf("split status = %s, want pending", loaded.Status)
	}
}

func TestSettlementRequestTransitions(t *testing.T) {
	store := newTestStore(t)
	ctx := context.Background()

	split := seedSplit(t, store, "alice", map[string]string{"alice": "10.00", "bob": "10.00"})

	req := &models.SettlementRequest{
		SplitID:       split.ID,
		FromUserID:    "bob",
		ToUserID:      "alice",
		Amount:        money("10.00"),
		Currency:      "USD",
		PaymentMethod: models.PaymentManual,
		Status:        models.RequestPending,
	}
	if err := store.CreateSettlementRequest(ctx, req); err != nil {
		t.Fatalf("CreateSettlementRequest() error = %v", err)
	}

	if err := store.TransitionSettlementRequest(ctx, req.ID, models.RequestPending, models.RequestApproved); err != nil {
		t.Fatalf("TransitionSettlementRequest() error = %v", err)
	}

	// Terminal requests refuse further transitions.
	err := store.TransitionSettlementRequest(ctx, req.ID, models.RequestPending, models.RequestRejected)
	if !errors.Is(err, models.ErrInvalidState) {
		t.Errorf("second transition error = %v, want ErrInvalidState", err)
	}

	loaded, err := store.GetSettlementRequest(ctx, req.ID)
	if err != nil {
		t.Fatalf("GetSettlementRequest() error = %v", err)
	}
	if loaded.Status != models.RequestApproved {
		t.Errorf("status = %s, want approved", loaded.Status)
	}

	if _, err := store.GetSettlementRequest(ctx, "missing"); !errors.Is(err, models.ErrRequestNotFound) {
		t.Errorf("missing request error = %v, want ErrRequestNotFound", err)
	}
}

func TestListSettlementRequestsForUser(t *testing.T) {
	store := newTestStore(t)
	ctx := context.Background()

	split := seedSplit(t, store, "alice", map[string]string{
		"alice": "10.00", "bob": "10.00", "carol": "10.00",
	})

	for _, from := range []string{"bob", "carol"} {
		req := &models.SettlementRequest{
			SplitID:       split.ID,
			FromUserID:    from,
			ToUserID:      "alice",
			Amount:        money("10.00"),
			Currency:      "USD",
			PaymentMethod: models.PaymentManual,
			Status:        models.RequestPending,
		}
		if err := store.CreateSettlementRequest(ctx, req); err != nil {
			t.Fatalf("CreateSettlementRequest(%s) error = %v", from, err)
		}
		if from == "carol" {
			if err := store.TransitionSettlementRequest(ctx, req.ID, models.RequestPending, models.RequestRejected); err != nil {
				t.Fatalf("TransitionSettlementRequest() error = %v", err)
			}
		}
	}

	pending, err := store.ListSettlementRequestsForUser(ctx, "alice", models.RequestPending)
	if err != nil {
		t.Fatalf("ListSettlementRequestsForUser() error = %v", err)
	}
	if len(pending) != 1 || pending[0].FromUserID != "bob" {
		t.Errorf("pending = %+v, want a single request from bob", pending)
	}

	all, err := store.ListSettlementRequestsForUser(ctx, "alice", "")
	if err != nil {
		t.Fatalf("ListSettlementRequestsForUser(all) error = %v", err)
	}
	if len(all) != 2 {
		t.Errorf("all = %d requests, want 2", len(all))
	}
}

func TestNotifications(t *testing.T) {
	store := newTestStore(t)
	ctx := context.Background()

	n := &models.Notification{
		UserID:  "alice",
		Type:    models.NotifySettlementRequest,
		Title:   "Settlement approval needed",
		Message: "bob says they paid",
		Data:    map[string]string{"split_id": "s1"},
	}
	if err := store.CreateNotification(ctx, n); err != nil {
		t.Fatalf("CreateNotification() error = %v", err)
	}

	unread, err := store.ListNotifications(ctx, "alice", true)
	if err != nil {
		t.Fatalf("ListNotifications() error = %v", err)
	}
	if len(unread) != 1 || unread[0].Data["split_id"] != "s1" {
		t.Fatalf("unread = %+v, want the seeded notification", unread)
	}

	if err := store.MarkNotificationRead(ctx, "alice", n.ID); err != nil {
		t.Fatalf("MarkNotificationRead() error = %v", err)
	}
	unread, err = store.ListNotifications(ctx, "alice", true)
	if err != nil {
		t.Fatalf("ListNotifications() error = %v", err)
	}
	if len(unread) != 0 {
		t.Errorf("unread after mark = %d, want 0", len(unread))
	}

	// Another user cannot acknowledge alice's notification.
	if err := store.MarkNotificationRead(ctx, "bob", n.ID); !errors.Is(err, models.ErrNotificationNotFound) {
		t.Errorf("cross-user mark error = %v, want ErrNotificationNotFound", err)
	}
}
