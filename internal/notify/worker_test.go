package notify

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/mmynk/finpal/internal/models"
)

// recordingSink collects delivered notifications for assertions.
type recordingSink struct {
	mu        sync.Mutex
	delivered []models.Notification
	err       error
}

func (s *recordingSink) Notify(_ context.Context, n models.Notification) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.err != nil {
		return s.err
	}
	s.delivered = append(s.delivered, n)
	return nil
}

func (s *recordingSink) count() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.delivered)
}

func TestWorkerDelivers(t *testing.T) {
	sink := &recordingSink{}
	worker := NewWorker(sink, 8)
	worker.Start()

	for i := 0; i < 5; i++ {
		if err := worker.Notify(context.Background(), models.Notification{
			UserID: "alice",
			Type:   models.NotifyWalletTransfer,
		}); err != nil {
			t.Fatalf("Notify() error = %v", err)
		}
	}

	worker.Shutdown()

	if got := sink.count(); got != 5 {
		t.Errorf("delivered %d notifications, want 5", got)
	}
}

func TestWorkerDrainsOnShutdown(t *testing.T) {
	sink := &recordingSink{}
	worker := NewWorker(sink, 16)

	// Enqueue before the worker starts so everything sits in the buffer,
	// then shut down immediately after starting.
	for i := 0; i < 10; i++ {
		worker.Notify(context.Background(), models.Notification{UserID: "bob"})
	}
	worker.Start()
	worker.Shutdown()

	if got := sink.count(); got != 10 {
		t.Errorf("delivered %d notifications after drain, want 10", got)
	}
}

func TestWorkerDropsWhenFull(t *testing.T) {
	sink := &recordingSink{}
	worker := NewWorker(sink, 2)

	// Not started: the buffer fills and the overflow is dropped rather
	// than blocking the caller.
	done := make(chan struct{})
	go func() {
		for i := 0; i < 10; i++ {
			worker.Notify(context.Background(), models.Notification{UserID: "carol"})
		}
		close(done)
	}()

	select {
	case <-done:
	case <-time.After(time.Second):
		t.Fatal("Notify blocked on a full buffer")
	}

	worker.Start()
	worker.Shutdown()
	if got := sink.count(); got != 2 {
		t.Errorf("delivered %d notifications, want the 2 that fit", got)
	}
}

func TestWorkerSurvivesSinkErrors(t *testing.T) {
	sink := &recordingSink{err: errors.New("sink down")}
	worker := NewWorker(sink, 4)
	worker.Start()

	worker.Notify(context.Background(), models.Notification{UserID: "alice"})
	worker.Shutdown()

	if got := sink.count(); got != 0 {
		t.Errorf("delivered %d notifications, want 0", got)
	}
}
