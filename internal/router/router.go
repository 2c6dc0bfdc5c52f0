package router

import (
	"context"
	"errors"
	"time"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"
	"go.uber.org/zap"

	"github.com/spec-kit/ticket-relay/internal/chat"
	"github.com/spec-kit/ticket-relay/internal/domain"
	"github.com/spec-kit/ticket-relay/internal/events"
	"github.com/spec-kit/ticket-relay/internal/observability"
)

// Routing actions recorded in metrics.
const (
	ActionAIAssist     = "ai_assist"
	ActionAIThrottled  = "ai_throttled"
	ActionPromptCreate = "prompt_create"
	ActionRelayToStaff = "relay_to_staff"
	ActionRelayToUser  = "relay_to_user"
	ActionOpenTicket   = "open_ticket"
	ActionCloseTicket  = "close_ticket"
	ActionTicketInfo   = "ticket_info"
	ActionSetup        = "setup"
)

// Tickets is the lifecycle surface the router depends on.
type Tickets interface {
	OpenTicket(ctx context.Context, userID, username string) (*domain.Ticket, error)
	CloseTicket(ctx context.Context, ticketID string, closedBy chat.Member) (*domain.Ticket, error)
	GetTicket(ctx context.Context, ticketID string) (*domain.Ticket, error)
	GetOpenTicketForUser(ctx context.Context, userID string) (*domain.Ticket, error)
	GetOpenTicketByChannel(ctx context.Context, channelID string) (*domain.Ticket, error)
	AppendMessage(ctx context.Context, ticketID string, author chat.Member, content string) error
	MessageCount(ctx context.Context, ticketID string) (int, error)
	PublishRelay(ctx context.Context, ticketID string, author chat.Member, payload events.TicketMessageRelayedPayload)
}

// Assistant answers ticket-less questions.
type Assistant interface {
	Prefix() string
	ParseQuestion(content string) (string, bool)
	Answer(ctx context.Context, question string) string
}

// RateLimiter throttles AI questions per user.
type RateLimiter interface {
	Allow(ctx context.Context, key string) (bool, error)
}

// Options carries the guild objects the router checks against.
type Options struct {
	SupportGuildID string
	StaffRoleID    string
}

// Dependencies bundles router collaborators. Limiter, Metrics and Tracer
// are optional.
type Dependencies struct {
	Tickets   Tickets
	Assistant Assistant
	Limiter   RateLimiter
	Gateway   chat.Gateway
	Options   Options
	Logger    *zap.Logger
	Metrics   *observability.Metrics
	Tracer    trace.Tracer
}

// Router classifies inbound chat events and performs exactly one routing
// action for each. Handler failures are logged and never propagate to the
// event loop as panics.
type Router struct {
	tickets Tickets
	assist  Assistant
	limiter RateLimiter
	gateway chat.Gateway
	opts    Options
	logger  *zap.Logger
	metrics *observability.Metrics
	tracer  trace.Tracer
	now     func() time.Time
}

// New builds a router.
func New(deps Dependencies) *Router {
	r := &Router{
		tickets: deps.Tickets,
		assist:  deps.Assistant,
		limiter: deps.Limiter,
		gateway: deps.Gateway,
		opts:    deps.Options,
		logger:  deps.Logger,
		metrics: deps.Metrics,
		tracer:  deps.Tracer,
		now:     time.Now,
	}
	if r.logger == nil {
		r.logger = zap.NewNop()
	}
	if r.tracer == nil {
		r.tracer = otel.Tracer("ticket-relay/router")
	}
	return r
}

// HandleDirectMessage routes a message received in a user's direct channel.
func (r *Router) HandleDirectMessage(ctx context.Context, msg chat.InboundMessage) error {
	if msg.Author.Bot {
		return nil
	}
	ctx, span := r.tracer.Start(ctx, "router.direct_message",
		trace.WithAttributes(attribute.String("user_id", msg.Author.ID)))
	defer span.End()

	ticket, err := r.tickets.GetOpenTicketForUser(ctx, msg.Author.ID)
	switch {
	case errors.Is(err, domain.ErrTicketNotFound):
		if question, ok := r.assist.ParseQuestion(msg.Content); ok {
			return r.answerQuestion(ctx, msg, question)
		}
		r.metrics.RecordRoute(ActionPromptCreate)
		return r.send(ctx, msg.ChannelID, renderNoTicketPrompt(r.assist.Prefix()))
	case err != nil:
		recordSpanError(span, err)
		r.logger.Error("open ticket lookup failed", zap.String("user_id", msg.Author.ID), zap.Error(err))
		return err
	}

	span.SetAttributes(attribute.String("ticket_id", ticket.TicketID))
	r.metrics.RecordRoute(ActionRelayToStaff)
	r.appendHistory(ctx, ticket.TicketID, msg.Author, msg.Content)

	_, sendErr := r.gateway.Send(ctx, ticket.SupportChannelID, renderUserRelay(msg.Author, msg.Content, r.now()))
	r.tickets.PublishRelay(ctx, ticket.TicketID, msg.Author, events.TicketMessageRelayedPayload{
		Direction:   events.RelayToStaff,
		AuthorID:    msg.Author.ID,
		BodyPreview: events.Preview(msg.Content),
		Delivered:   sendErr == nil,
	})
	if sendErr != nil {
		recordSpanError(span, sendErr)
		r.metrics.RecordFailure(ActionRelayToStaff, "undelivered")
		r.logger.Warn("relay to staff channel failed",
			zap.String("ticket_id", ticket.TicketID),
			zap.String("channel_id", ticket.SupportChannelID),
			zap.Error(sendErr))
		return r.send(ctx, msg.ChannelID, chat.Text(msgStaffRelayFailed))
	}

	r.acknowledge(ctx, msg)
	return nil
}

// HandleStaffMessage routes a message posted in a staff-side channel. Only
// ticket-shaped channels in the support guild with an OPEN ticket are
// relayed; anything else is ignored.
func (r *Router) HandleStaffMessage(ctx context.Context, msg chat.InboundMessage) error {
	if msg.Author.Bot || msg.GuildID != r.opts.SupportGuildID || !chat.IsTicketChannel(msg.ChannelName) {
		return nil
	}
	ctx, span := r.tracer.Start(ctx, "router.staff_message",
		trace.WithAttributes(attribute.String("channel_id", msg.ChannelID)))
	defer span.End()

	ticket, err := r.tickets.GetOpenTicketByChannel(ctx, msg.ChannelID)
	if errors.Is(err, domain.ErrTicketNotFound) {
		return nil
	}
	if err != nil {
		recordSpanError(span, err)
		r.logger.Error("channel ticket lookup failed", zap.String("channel_id", msg.ChannelID), zap.Error(err))
		return err
	}

	span.SetAttributes(attribute.String("ticket_id", ticket.TicketID))
	r.metrics.RecordRoute(ActionRelayToUser)
	r.appendHistory(ctx, ticket.TicketID, msg.Author, msg.Content)

	_, dmErr := r.gateway.SendDirect(ctx, ticket.UserID, renderStaffRelay(msg.Author, msg.Content, r.now()))
	r.tickets.PublishRelay(ctx, ticket.TicketID, msg.Author, events.TicketMessageRelayedPayload{
		Direction:   events.RelayToUser,
		AuthorID:    msg.Author.ID,
		BodyPreview: events.Preview(msg.Content),
		Delivered:   dmErr == nil,
	})
	if dmErr != nil {
		recordSpanError(span, dmErr)
		r.metrics.RecordFailure(ActionRelayToUser, "undelivered")
		r.logger.Warn("relay to user failed",
			zap.String("ticket_id", ticket.TicketID),
			zap.String("user_id", ticket.UserID),
			zap.Error(dmErr))
		return r.send(ctx, msg.ChannelID, chat.Text(msgUserDMFailed))
	}

	r.acknowledge(ctx, msg)
	return nil
}

// HandleCreateTicket opens a ticket for the interacting user.
func (r *Router) HandleCreateTicket(ctx context.Context, in chat.Interaction) error {
	ctx, span := r.tracer.Start(ctx, "router.create_ticket",
		trace.WithAttributes(attribute.String("user_id", in.User.ID)))
	defer span.End()

	// Channel creation and the welcome DM can outlast the acknowledgement window.
	if err := in.Defer(ctx, true); err != nil {
		r.logger.Warn("failed to defer create ticket response",
			zap.String("user_id", in.User.ID),
			zap.Error(err))
	}

	ticket, err := r.tickets.OpenTicket(ctx, in.User.ID, in.User.Name)
	if err != nil {
		var already *domain.AlreadyOpenError
		if errors.As(err, &already) {
			return r.reply(ctx, in, chat.Text(alreadyOpenReply(already.Ticket)))
		}
		recordSpanError(span, err)
		r.metrics.RecordFailure(ActionOpenTicket, failureCode(err))
		return r.reply(ctx, in, chat.Text(r.createFailureMessage(err, in.User)))
	}

	span.SetAttributes(attribute.String("ticket_id", ticket.TicketID))
	r.metrics.RecordRoute(ActionOpenTicket)

	if _, err := r.gateway.Send(ctx, ticket.SupportChannelID, renderStaffAnnouncement(ticket, in.User, r.opts.StaffRoleID)); err != nil {
		r.metrics.RecordFailure(ActionOpenTicket, "announcement")
		r.logger.Error("failed to post ticket announcement",
			zap.String("ticket_id", ticket.TicketID),
			zap.String("channel_id", ticket.SupportChannelID),
			zap.Error(err))
	}

	dmDelivered := true
	if _, err := r.gateway.SendDirect(ctx, in.User.ID, renderWelcomeDM(ticket, r.assist.Prefix())); err != nil {
		dmDelivered = false
		r.metrics.RecordFailure(ActionOpenTicket, "welcome_dm")
		r.logger.Warn("could not DM ticket owner",
			zap.String("ticket_id", ticket.TicketID),
			zap.String("user_id", in.User.ID),
			zap.Error(err))
	}
	return r.reply(ctx, in, chat.Text(createdReply(ticket.TicketID, dmDelivered)))
}

// HandleCloseTicket closes ticketID on behalf of a staff member. byButton
// selects whether the announcement carrying the button is edited in place
// or a closed notice is posted to the ticket channel.
func (r *Router) HandleCloseTicket(ctx context.Context, in chat.Interaction, ticketID string, byButton bool) error {
	ctx, span := r.tracer.Start(ctx, "router.close_ticket",
		trace.WithAttributes(
			attribute.String("ticket_id", ticketID),
			attribute.Bool("by_button", byButton)))
	defer span.End()

	if !in.User.HasRole(r.opts.StaffRoleID) {
		r.metrics.RecordFailure(ActionCloseTicket, "permission_denied")
		return r.reply(ctx, in, chat.Text(msgStaffOnlyClose))
	}

	prior, err := r.tickets.CloseTicket(ctx, ticketID, in.User)
	switch {
	case errors.Is(err, domain.ErrTicketNotFound):
		return r.reply(ctx, in, chat.Text(msgTicketNotFound))
	case errors.Is(err, domain.ErrTicketAlreadyClosed):
		return r.reply(ctx, in, chat.Text(msgTicketAlreadyClosed))
	case err != nil:
		recordSpanError(span, err)
		r.metrics.RecordFailure(ActionCloseTicket, "store")
		r.logger.Error("close ticket failed", zap.String("ticket_id", ticketID), zap.Error(err))
		return r.reply(ctx, in, chat.Text(msgCloseFailed))
	}
	r.metrics.RecordRoute(ActionCloseTicket)

	closedNotice := renderClosedAnnouncement(ticketID, in.User, r.now())
	var respondErr error
	if byButton {
		respondErr = in.Update(ctx, closedNotice)
		if respondErr != nil {
			r.logger.Warn("failed to update ticket announcement", zap.String("ticket_id", ticketID), zap.Error(respondErr))
		}
	} else {
		if _, err := r.gateway.Send(ctx, prior.SupportChannelID, closedNotice); err != nil {
			r.logger.Warn("failed to post closed notice",
				zap.String("ticket_id", ticketID),
				zap.String("channel_id", prior.SupportChannelID),
				zap.Error(err))
		}
		respondErr = r.reply(ctx, in, chat.Text(closedReply(ticketID)))
	}

	var closer *chat.Member
	if !byButton {
		closer = &in.User
	}
	if _, err := r.gateway.SendDirect(ctx, prior.UserID, renderClosedDM(ticketID, closer)); err != nil {
		r.metrics.RecordFailure(ActionCloseTicket, "owner_dm")
		r.logger.Warn("could not DM user about ticket closure",
			zap.String("ticket_id", ticketID),
			zap.String("user_id", prior.UserID),
			zap.Error(err))
	}
	return respondErr
}

// HandleTicketInfo shows a ticket's details to staff.
func (r *Router) HandleTicketInfo(ctx context.Context, in chat.Interaction, ticketID string) error {
	ctx, span := r.tracer.Start(ctx, "router.ticket_info",
		trace.WithAttributes(attribute.String("ticket_id", ticketID)))
	defer span.End()

	if !in.User.HasRole(r.opts.StaffRoleID) {
		r.metrics.RecordFailure(ActionTicketInfo, "permission_denied")
		return r.reply(ctx, in, chat.Text(msgStaffOnlyInfo))
	}

	ticket, err := r.tickets.GetTicket(ctx, ticketID)
	if errors.Is(err, domain.ErrTicketNotFound) {
		return r.reply(ctx, in, chat.Text(msgTicketNotFound))
	}
	if err != nil {
		recordSpanError(span, err)
		r.logger.Error("ticket lookup failed", zap.String("ticket_id", ticketID), zap.Error(err))
		return r.reply(ctx, in, chat.Text(msgLookupFailed))
	}

	count, err := r.tickets.MessageCount(ctx, ticketID)
	if err != nil {
		r.logger.Warn("message count failed", zap.String("ticket_id", ticketID), zap.Error(err))
		count = -1
	}
	r.metrics.RecordRoute(ActionTicketInfo)
	return r.reply(ctx, in, renderTicketInfo(ticket, count))
}

// HandleSetup posts the ticket panel to channelID, or to the invoking
// channel when channelID is empty.
func (r *Router) HandleSetup(ctx context.Context, in chat.Interaction, channelID string) error {
	if channelID == "" {
		channelID = in.ChannelID
	}
	ctx, span := r.tracer.Start(ctx, "router.setup",
		trace.WithAttributes(attribute.String("channel_id", channelID)))
	defer span.End()

	if !in.User.CanManageGuild {
		r.metrics.RecordFailure(ActionSetup, "permission_denied")
		r.logger.Warn("setup rejected", zap.String("user_id", in.User.ID))
		return r.reply(ctx, in, chat.Text(msgSetupPermission))
	}

	if _, err := r.gateway.Send(ctx, channelID, renderPanel(r.assist.Prefix())); err != nil {
		recordSpanError(span, err)
		r.metrics.RecordFailure(ActionSetup, failureCode(err))
		r.logger.Error("failed to post ticket panel", zap.String("channel_id", channelID), zap.Error(err))
		return r.reply(ctx, in, chat.Text("❌ Could not post the ticket panel in "+channelMention(channelID)+"."))
	}
	r.metrics.RecordRoute(ActionSetup)
	return r.reply(ctx, in, chat.Text("✅ Ticket panel set up in "+channelMention(channelID)+"!"))
}

func (r *Router) answerQuestion(ctx context.Context, msg chat.InboundMessage, question string) error {
	if r.limiter != nil {
		allowed, err := r.limiter.Allow(ctx, msg.Author.ID)
		if err != nil {
			r.logger.Warn("ai rate limiter unavailable", zap.Error(err))
			allowed = true
		}
		if !allowed {
			r.metrics.RecordRoute(ActionAIThrottled)
			return r.send(ctx, msg.ChannelID, chat.Text(msgAIThrottled))
		}
	}

	r.metrics.RecordRoute(ActionAIAssist)
	answer := r.assist.Answer(ctx, question)
	return r.send(ctx, msg.ChannelID, renderAIAnswer(answer))
}

func (r *Router) createFailureMessage(err error, user chat.Member) string {
	if errors.Is(err, domain.ErrTicketOpenInProgress) {
		return msgCreateInProgress
	}
	var missing *chat.MissingResourceError
	if errors.As(err, &missing) {
		r.logger.Error("ticket resource missing",
			zap.String("resource", missing.Kind),
			zap.String("id", missing.ID),
			zap.String("user_id", user.ID))
		switch missing.Kind {
		case chat.ResourceSupportGuild:
			return msgSupportGuildMissing
		case chat.ResourceTicketCategory:
			return msgCategoryMissing
		case chat.ResourceStaffRole:
			return msgStaffRoleMissing
		}
	}
	r.logger.Error("error creating ticket", zap.String("user_id", user.ID), zap.Error(err))
	return msgCreateFailed
}

func (r *Router) appendHistory(ctx context.Context, ticketID string, author chat.Member, content string) {
	if err := r.tickets.AppendMessage(ctx, ticketID, author, content); err != nil {
		r.metrics.RecordFailure("append_message", "store")
		r.logger.Error("failed to append ticket message",
			zap.String("ticket_id", ticketID),
			zap.String("author_id", author.ID),
			zap.Error(err))
	}
}

func (r *Router) acknowledge(ctx context.Context, msg chat.InboundMessage) {
	if err := r.gateway.React(ctx, msg.ChannelID, msg.ID, ackEmoji); err != nil {
		r.logger.Debug("failed to add acknowledgement", zap.String("channel_id", msg.ChannelID), zap.Error(err))
	}
}

func (r *Router) send(ctx context.Context, channelID string, msg chat.Message) error {
	if _, err := r.gateway.Send(ctx, channelID, msg); err != nil {
		r.logger.Warn("send failed", zap.String("channel_id", channelID), zap.Error(err))
		return err
	}
	return nil
}

func (r *Router) reply(ctx context.Context, in chat.Interaction, msg chat.Message) error {
	if err := in.Reply(ctx, msg, true); err != nil {
		r.logger.Warn("interaction reply failed", zap.String("user_id", in.User.ID), zap.Error(err))
		return err
	}
	return nil
}

func failureCode(err error) string {
	switch {
	case errors.Is(err, chat.ErrResourceNotFound):
		return "resource_missing"
	case errors.Is(err, chat.ErrUndeliverable):
		return "undeliverable"
	case errors.Is(err, domain.ErrTicketOpenInProgress):
		return "in_progress"
	default:
		return "internal"
	}
}

func recordSpanError(span trace.Span, err error) {
	span.RecordError(err)
	span.SetStatus(codes.Error, err.Error())
}
