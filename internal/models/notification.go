package models

// NotificationType classifies a notification for client rendering.
type NotificationType string

const (
	NotifySettlementRequest  NotificationType = "settlement_request"
	NotifySettlementApproved NotificationType = "settlement_approved"
	NotifySettlementRejected NotificationType = "settlement_rejected"
	NotifyWalletTransfer     NotificationType = "wallet_transfer"
)

// Notification is a message delivered to a user through the notification
// sink. Delivery is fire-and-forget from the core's perspective: a failed
// notification never fails the operation that produced it.
type Notification struct {
	ID      string
	UserID  string
	Type    NotificationType
	Title   string
	Message string

	// Data carries structured references (split_id, request_id, ...) for
	// client-side navigation.
	Data map[string]string

	Read      bool
	CreatedAt int64
}
