// Package notify delivers notifications to users.
//
// Delivery is fire-and-forget from the core's perspective: the settlement
// coordinator hands a notification to a Sink and moves on. A failure to
// deliver is logged, never propagated; a lost notification must not fail
// a settlement.
package notify

import (
	"context"

	"github.com/mmynk/finpal/internal/models"
	"github.com/mmynk/finpal/internal/storage"
)

// Sink accepts notifications for delivery.
type Sink interface {
	Notify(ctx context.Context, n models.Notification) error
}

// StoreSink persists notifications so clients can poll them.
type StoreSink struct {
	store storage.Store
}

// NewStoreSink creates a sink writing to the given store.
func NewStoreSink(store storage.Store) *StoreSink {
	return &StoreSink{store: store}
}

// Notify persists the notification.
func (s *StoreSink) Notify(ctx context.Context, n models.Notification) error {
	return s.store.CreateNotification(ctx, &n)
}
