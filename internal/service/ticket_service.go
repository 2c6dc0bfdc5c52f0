package service

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/spec-kit/ticket-relay/internal/chat"
	"github.com/spec-kit/ticket-relay/internal/domain"
	"github.com/spec-kit/ticket-relay/internal/events"
	"github.com/spec-kit/ticket-relay/internal/repository"
)

const maxTicketIDAttempts = 3

// Locker serializes ticket opening for one user across processes.
type Locker interface {
	Lock(ctx context.Context, key string) (release func(), err error)
}

type noopLocker struct{}

func (noopLocker) Lock(context.Context, string) (func(), error) { return func() {}, nil }

// TicketService owns the ticket lifecycle: OPEN --close--> CLOSED.
type TicketService struct {
	tickets    repository.TicketRepository
	messages   repository.TicketMessageRepository
	channels   chat.ChannelProvisioner
	locker     Locker
	dispatcher events.Dispatcher
	logger     *zap.Logger
	newToken   func() string
}

// TicketDependencies bundles collaborators for ticket service.
type TicketDependencies struct {
	TicketRepo  repository.TicketRepository
	MessageRepo repository.TicketMessageRepository
	Channels    chat.ChannelProvisioner
	Locker      Locker
	Dispatcher  events.Dispatcher
	Logger      *zap.Logger
}

// NewTicketService constructs the service.
func NewTicketService(deps TicketDependencies) *TicketService {
	s := &TicketService{
		tickets:    deps.TicketRepo,
		messages:   deps.MessageRepo,
		channels:   deps.Channels,
		locker:     deps.Locker,
		dispatcher: deps.Dispatcher,
		logger:     deps.Logger,
		newToken:   randomToken,
	}
	if s.locker == nil {
		s.locker = noopLocker{}
	}
	if s.logger == nil {
		s.logger = zap.NewNop()
	}
	return s
}

// OpenTicket creates a ticket and its staff channel for the user. When the
// user already owns an open ticket it returns *domain.AlreadyOpenError
// carrying that ticket. If the channel cannot be created no record is written.
func (s *TicketService) OpenTicket(ctx context.Context, userID, username string) (*domain.Ticket, error) {
	release, err := s.locker.Lock(ctx, "ticket-open:"+userID)
	if err != nil {
		return nil, err
	}
	defer release()

	if existing, err := s.tickets.GetOpenByUser(ctx, userID); err == nil {
		return nil, &domain.AlreadyOpenError{Ticket: existing}
	} else if !errors.Is(err, domain.ErrTicketNotFound) {
		return nil, err
	}

	channelID, err := s.channels.CreateTicketChannel(ctx, chat.TicketChannelName(username))
	if err != nil {
		return nil, fmt.Errorf("create ticket channel: %w", err)
	}

	for attempt := 0; attempt < maxTicketIDAttempts; attempt++ {
		ticket := &domain.Ticket{
			TicketID:         s.generateTicketID(userID),
			UserID:           userID,
			Username:         username,
			SupportChannelID: channelID,
			Category:         domain.DefaultTicketCategory,
		}

		created, err := s.tickets.Create(ctx, ticket)
		switch {
		case errors.Is(err, domain.ErrOpenTicketExists):
			// Lost a race with another open for the same user.
			s.discardChannel(ctx, channelID)
			existing, lookupErr := s.tickets.GetOpenByUser(ctx, userID)
			if lookupErr != nil {
				s.logger.Warn("open ticket lookup after conflict failed",
					zap.String("user_id", userID),
					zap.Error(lookupErr))
				return nil, &domain.AlreadyOpenError{}
			}
			return nil, &domain.AlreadyOpenError{Ticket: existing}
		case err != nil:
			s.discardChannel(ctx, channelID)
			return nil, err
		case !created:
			s.logger.Warn("ticket id collision", zap.String("ticket_id", ticket.TicketID))
			continue
		}

		s.logger.Info("ticket opened",
			zap.String("ticket_id", ticket.TicketID),
			zap.String("user_id", userID),
			zap.String("channel_id", channelID))
		s.publishEvent(ctx, events.Event{
			Type:     events.EventTicketOpened,
			TicketID: ticket.TicketID,
			Actor:    events.Actor{Type: domain.SubjectTypeUser, ID: userID, Name: username},
			Payload: events.TicketOpenedPayload{
				UserID:           userID,
				Username:         username,
				SupportChannelID: channelID,
				Category:         ticket.Category,
			},
		})
		return ticket, nil
	}

	s.discardChannel(ctx, channelID)
	return nil, domain.ErrTicketIDExhausted
}

// CloseTicket moves an OPEN ticket to CLOSED and returns the record as it was
// before closing. A CLOSED ticket yields domain.ErrTicketAlreadyClosed along
// with the current record.
func (s *TicketService) CloseTicket(ctx context.Context, ticketID string, closedBy chat.Member) (*domain.Ticket, error) {
	ticket, err := s.tickets.GetByTicketID(ctx, ticketID)
	if err != nil {
		return nil, err
	}
	if !ticket.IsOpen() {
		return ticket, domain.ErrTicketAlreadyClosed
	}

	closed, err := s.tickets.Close(ctx, ticketID)
	if err != nil {
		return nil, err
	}
	if !closed {
		// Closed concurrently between the read and the update.
		return ticket, domain.ErrTicketAlreadyClosed
	}

	closedAt := time.Now().UTC()
	s.logger.Info("ticket closed",
		zap.String("ticket_id", ticketID),
		zap.String("closed_by", closedBy.ID))
	s.publishEvent(ctx, events.Event{
		Type:     events.EventTicketClosed,
		TicketID: ticketID,
		Actor:    events.Actor{Type: domain.SubjectTypeStaff, ID: closedBy.ID, Name: closedBy.Name},
		Payload: events.TicketClosedPayload{
			UserID:   ticket.UserID,
			ClosedBy: closedBy.Name,
			ClosedAt: closedAt,
		},
	})
	return ticket, nil
}

// GetTicket returns a ticket by ID.
func (s *TicketService) GetTicket(ctx context.Context, ticketID string) (*domain.Ticket, error) {
	return s.tickets.GetByTicketID(ctx, ticketID)
}

// GetOpenTicketForUser returns the user's open ticket, if any.
func (s *TicketService) GetOpenTicketForUser(ctx context.Context, userID string) (*domain.Ticket, error) {
	return s.tickets.GetOpenByUser(ctx, userID)
}

// GetOpenTicketByChannel resolves the open ticket bound to a staff channel.
func (s *TicketService) GetOpenTicketByChannel(ctx context.Context, channelID string) (*domain.Ticket, error) {
	return s.tickets.GetBySupportChannel(ctx, channelID, domain.TicketStatusOpen)
}

// AppendMessage records one relayed message.
func (s *TicketService) AppendMessage(ctx context.Context, ticketID string, author chat.Member, content string) error {
	return s.messages.Append(ctx, &domain.TicketMessage{
		TicketID:       ticketID,
		AuthorID:       author.ID,
		AuthorName:     author.Name,
		MessageContent: content,
	})
}

// History lists a ticket's relayed messages in order.
func (s *TicketService) History(ctx context.Context, ticketID string) ([]domain.TicketMessage, error) {
	return s.messages.ListByTicket(ctx, ticketID)
}

// MessageCount returns how many messages were relayed for a ticket.
func (s *TicketService) MessageCount(ctx context.Context, ticketID string) (int, error) {
	return s.messages.CountByTicket(ctx, ticketID)
}

// PublishRelay emits a ticket_message_relayed event.
func (s *TicketService) PublishRelay(ctx context.Context, ticketID string, author chat.Member, payload events.TicketMessageRelayedPayload) {
	subject := domain.SubjectTypeUser
	if payload.Direction == events.RelayToUser {
		subject = domain.SubjectTypeStaff
	}
	s.publishEvent(ctx, events.Event{
		Type:     events.EventTicketMessageRelayed,
		TicketID: ticketID,
		Actor:    events.Actor{Type: subject, ID: author.ID, Name: author.Name},
		Payload:  payload,
	})
}

// generateTicketID combines the owner's ID with a random token. The store
// rejects duplicates, and OpenTicket retries with a fresh token.
func (s *TicketService) generateTicketID(userID string) string {
	return "ticket-" + userID + "-" + s.newToken()
}

func randomToken() string {
	return strings.ReplaceAll(uuid.NewString(), "-", "")[:10]
}

func (s *TicketService) discardChannel(ctx context.Context, channelID string) {
	if err := s.channels.DeleteChannel(ctx, channelID); err != nil {
		s.logger.Warn("failed to remove orphan ticket channel",
			zap.String("channel_id", channelID),
			zap.Error(err))
	}
}

func (s *TicketService) publishEvent(ctx context.Context, event events.Event) {
	if s.dispatcher == nil {
		return
	}
	if event.ID == "" {
		event.ID = uuid.NewString()
	}
	if event.Timestamp.IsZero() {
		event.Timestamp = time.Now().UTC()
	}
	_ = s.dispatcher.Publish(ctx, event)
}
