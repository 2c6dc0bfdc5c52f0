package service

import (
	"context"

	"go.uber.org/zap"

	"github.com/spec-kit/ticket-relay/internal/events"
)

// NotificationService logs ticket lifecycle events and forwards them to an
// external publisher when one is configured.
type NotificationService struct {
	dispatcher events.Dispatcher
	publisher  events.Publisher
	logger     *zap.Logger
}

// NewNotificationService creates the service. publisher may be nil.
func NewNotificationService(dispatcher events.Dispatcher, publisher events.Publisher, logger *zap.Logger) *NotificationService {
	return &NotificationService{
		dispatcher: dispatcher,
		publisher:  publisher,
		logger:     logger,
	}
}

// RegisterHandlers subscribes to events.
func (n *NotificationService) RegisterHandlers() {
	if n.dispatcher == nil {
		return
	}
	n.dispatcher.Subscribe(events.EventTicketOpened, n.handleTicketOpened)
	n.dispatcher.Subscribe(events.EventTicketClosed, n.handleTicketClosed)
	n.dispatcher.Subscribe(events.EventTicketMessageRelayed, n.handleMessageRelayed)
}

func (n *NotificationService) handleTicketOpened(ctx context.Context, event events.Event) error {
	n.logger.Info("TicketOpened", zap.String("ticket_id", event.TicketID), zap.Any("payload", event.Payload))
	n.forward(ctx, event)
	return nil
}

func (n *NotificationService) handleTicketClosed(ctx context.Context, event events.Event) error {
	n.logger.Info("TicketClosed", zap.String("ticket_id", event.TicketID), zap.Any("payload", event.Payload))
	n.forward(ctx, event)
	return nil
}

func (n *NotificationService) handleMessageRelayed(ctx context.Context, event events.Event) error {
	n.logger.Debug("TicketMessageRelayed", zap.String("ticket_id", event.TicketID), zap.Any("payload", event.Payload))
	n.forward(ctx, event)
	return nil
}

func (n *NotificationService) forward(ctx context.Context, event events.Event) {
	if n.publisher == nil {
		return
	}
	if err := n.publisher.Publish(ctx, event); err != nil {
		n.logger.Warn("event publish failed",
			zap.String("ticket_id", event.TicketID),
			zap.String("event_type", string(event.Type)),
			zap.Error(err))
	}
}
