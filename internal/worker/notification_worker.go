package worker

import (
	"context"
	"errors"
	"sync"

	"go.uber.org/zap"

	"github.com/spec-kit/ticket-relay/internal/events"
	"github.com/spec-kit/ticket-relay/internal/service"
)

// ErrQueueFull is returned when the publish buffer has no room left.
var ErrQueueFull = errors.New("event publish queue full")

// PublishWorker moves external event publishing off the dispatcher's
// synchronous path. It implements events.Publisher.
type PublishWorker struct {
	next   events.Publisher
	queue  chan events.Event
	logger *zap.Logger
	wg     sync.WaitGroup
	once   sync.Once
}

// NewPublishWorker wraps next with a buffer of size events.
func NewPublishWorker(next events.Publisher, size int, logger *zap.Logger) *PublishWorker {
	if size <= 0 {
		size = 256
	}
	return &PublishWorker{next: next, queue: make(chan events.Event, size), logger: logger}
}

// Start launches the drain loop. It runs until Close.
func (w *PublishWorker) Start() {
	w.wg.Add(1)
	go func() {
		defer w.wg.Done()
		for event := range w.queue {
			if err := w.next.Publish(context.Background(), event); err != nil {
				w.logger.Warn("event publish failed",
					zap.String("ticket_id", event.TicketID),
					zap.String("event_type", string(event.Type)),
					zap.Error(err))
			}
		}
	}()
}

// Publish enqueues the event without blocking.
func (w *PublishWorker) Publish(_ context.Context, event events.Event) error {
	select {
	case w.queue <- event:
		return nil
	default:
		return ErrQueueFull
	}
}

// Close drains the queue and closes the wrapped publisher.
func (w *PublishWorker) Close() error {
	w.once.Do(func() { close(w.queue) })
	w.wg.Wait()
	return w.next.Close()
}

// StartNotificationWorker registers notification handlers and starts the
// publish worker when one is given.
func StartNotificationWorker(notificationService *service.NotificationService, publisher *PublishWorker) {
	if publisher != nil {
		publisher.Start()
	}
	if notificationService == nil {
		return
	}
	notificationService.RegisterHandlers()
}
