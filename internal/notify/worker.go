package notify

import (
	"context"
	"log/slog"
	"sync"

	"github.com/mmynk/finpal/internal/models"
)

// Worker decouples notification delivery from the request path. Enqueueing
// never blocks: when the buffer is full the notification is dropped with a
// warning, which is acceptable for advisory messages.
type Worker struct {
	ch     chan models.Notification
	sink   Sink
	wg     sync.WaitGroup
	ctx    context.Context
	cancel context.CancelFunc
}

// NewWorker creates a worker delivering to sink with the given buffer size.
func NewWorker(sink Sink, bufferSize int) *Worker {
	ctx, cancel := context.WithCancel(context.Background())
	return &Worker{
		ch:     make(chan models.Notification, bufferSize),
		sink:   sink,
		ctx:    ctx,
		cancel: cancel,
	}
}

// Start launches the delivery goroutine.
func (w *Worker) Start() {
	w.wg.Add(1)
	go func() {
		defer w.wg.Done()
		for {
			select {
			case <-w.ctx.Done():
				slog.Info("draining notifications before shutdown", "remaining", len(w.ch))
				for {
					select {
					case n := <-w.ch:
						w.deliver(context.Background(), n)
					default:
						return
					}
				}
			case n := <-w.ch:
				w.deliver(w.ctx, n)
			}
		}
	}()
}

// Notify enqueues a notification without blocking. Implements Sink, so the
// worker can front any other sink.
func (w *Worker) Notify(_ context.Context, n models.Notification) error {
	select {
	case w.ch <- n:
	default:
		slog.Warn("notification buffer full, dropping", "type", n.Type, "user_id", n.UserID)
	}
	return nil
}

// Shutdown stops the worker after draining buffered notifications.
func (w *Worker) Shutdown() {
	w.cancel()
	w.wg.Wait()
}

func (w *Worker) deliver(ctx context.Context, n models.Notification) {
	if err := w.sink.Notify(ctx, n); err != nil {
		slog.Error("failed to deliver notification", "error", err, "type", n.Type, "user_id", n.UserID)
	}
}
