package discord

import (
	"context"
	"fmt"
	"runtime/debug"
	"time"

	"github.com/bwmarrin/discordgo"
	"go.uber.org/zap"

	"github.com/spec-kit/ticket-relay/internal/chat"
	"github.com/spec-kit/ticket-relay/internal/config"
	"github.com/spec-kit/ticket-relay/internal/router"
)

const defaultEventTimeout = 30 * time.Second

// Handler receives classified chat events. *router.Router implements it.
type Handler interface {
	HandleDirectMessage(ctx context.Context, msg chat.InboundMessage) error
	HandleStaffMessage(ctx context.Context, msg chat.InboundMessage) error
	HandleCreateTicket(ctx context.Context, in chat.Interaction) error
	HandleCloseTicket(ctx context.Context, in chat.Interaction, ticketID string, byButton bool) error
	HandleTicketInfo(ctx context.Context, in chat.Interaction, ticketID string) error
	HandleSetup(ctx context.Context, in chat.Interaction, channelID string) error
}

var _ Handler = (*router.Router)(nil)

// NewSession creates a discordgo session with the intents the bot needs.
func NewSession(token string) (*discordgo.Session, error) {
	session, err := discordgo.New("Bot " + token)
	if err != nil {
		return nil, fmt.Errorf("create discord session: %w", err)
	}
	session.Identify.Intents = discordgo.IntentsGuilds |
		discordgo.IntentsGuildMessages |
		discordgo.IntentsDirectMessages |
		discordgo.IntentsMessageContent
	return session, nil
}

// Bot connects the gateway event stream to a Handler.
type Bot struct {
	session      *discordgo.Session
	handler      Handler
	cfg          config.DiscordConfig
	logger       *zap.Logger
	eventTimeout time.Duration
	baseCtx      context.Context
	removers     []func()
}

// NewBot wires a session to handler.
func NewBot(session *discordgo.Session, handler Handler, cfg config.DiscordConfig, logger *zap.Logger) *Bot {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Bot{
		session:      session,
		handler:      handler,
		cfg:          cfg,
		logger:       logger,
		eventTimeout: defaultEventTimeout,
		baseCtx:      context.Background(),
	}
}

// Start registers event handlers and opens the websocket connection. ctx
// bounds every event handled afterwards.
func (b *Bot) Start(ctx context.Context) error {
	b.baseCtx = ctx
	b.removers = append(b.removers,
		b.session.AddHandler(b.onReady),
		b.session.AddHandler(b.onMessageCreate),
		b.session.AddHandler(b.onInteractionCreate),
	)
	if err := b.session.Open(); err != nil {
		return fmt.Errorf("open discord session: %w", err)
	}
	return nil
}

// Close detaches handlers and closes the connection.
func (b *Bot) Close() error {
	for _, remove := range b.removers {
		remove()
	}
	b.removers = nil
	return b.session.Close()
}

func (b *Bot) onReady(s *discordgo.Session, r *discordgo.Ready) {
	defer b.recoverEvent("ready")
	b.logger.Info("connected to discord", zap.String("user", r.User.Username), zap.Int("guilds", len(r.Guilds)))

	ctx, cancel := context.WithTimeout(b.baseCtx, b.eventTimeout)
	defer cancel()

	for _, guildID := range []string{b.cfg.MainGuildID, b.cfg.SupportGuildID} {
		guild, err := s.Guild(guildID, discordgo.WithContext(ctx))
		if err != nil {
			b.logger.Error("cannot access guild", zap.String("guild_id", guildID), zap.Error(err))
			continue
		}
		b.logger.Info("guild accessible", zap.String("guild_id", guildID), zap.String("name", guild.Name))
	}

	synced, err := s.ApplicationCommandBulkOverwrite(r.User.ID, "", Commands(), discordgo.WithContext(ctx))
	if err != nil {
		b.logger.Error("failed to sync commands", zap.Error(err))
		return
	}
	b.logger.Info("synced commands", zap.Int("count", len(synced)))
}

func (b *Bot) onMessageCreate(s *discordgo.Session, m *discordgo.MessageCreate) {
	defer b.recoverEvent("message_create")
	if m.Author == nil || m.Author.Bot {
		return
	}
	if m.GuildID != "" && m.GuildID != b.cfg.SupportGuildID {
		return
	}

	ctx, cancel := context.WithTimeout(b.baseCtx, b.eventTimeout)
	defer cancel()

	channelName := ""
	if m.GuildID != "" {
		channelName = b.channelName(ctx, s, m.ChannelID)
	}
	if err := b.dispatchMessage(ctx, m.Message, channelName); err != nil {
		b.logger.Warn("message handling failed", zap.String("channel_id", m.ChannelID), zap.Error(err))
	}
}

func (b *Bot) onInteractionCreate(s *discordgo.Session, i *discordgo.InteractionCreate) {
	defer b.recoverEvent("interaction_create")

	ctx, cancel := context.WithTimeout(b.baseCtx, b.eventTimeout)
	defer cancel()

	responder := &interactionResponder{session: s, interaction: i.Interaction}
	if err := b.dispatchInteraction(ctx, i.Interaction, responder); err != nil {
		b.logger.Warn("interaction handling failed", zap.String("channel_id", i.ChannelID), zap.Error(err))
	}
}

func (b *Bot) dispatchMessage(ctx context.Context, m *discordgo.Message, channelName string) error {
	var roles []string
	if m.Member != nil {
		roles = m.Member.Roles
	}
	in := chat.InboundMessage{
		ID:          m.ID,
		ChannelID:   m.ChannelID,
		ChannelName: channelName,
		GuildID:     m.GuildID,
		Direct:      m.GuildID == "",
		Author:      toMember(m.Author, roles),
		Content:     m.Content,
	}
	if in.Direct {
		return b.handler.HandleDirectMessage(ctx, in)
	}
	return b.handler.HandleStaffMessage(ctx, in)
}

func (b *Bot) dispatchInteraction(ctx context.Context, i *discordgo.Interaction, responder chat.Responder) error {
	in := chat.Interaction{
		GuildID:   i.GuildID,
		ChannelID: i.ChannelID,
		User:      interactionUser(i),
		Responder: responder,
	}
	if i.Message != nil {
		in.MessageID = i.Message.ID
	}

	switch i.Type {
	case discordgo.InteractionApplicationCommand:
		data := i.ApplicationCommandData()
		switch data.Name {
		case CommandSetup:
			return b.handler.HandleSetup(ctx, in, channelOption(data.Options, optionChannel))
		case CommandClose:
			return b.handler.HandleCloseTicket(ctx, in, stringOption(data.Options, optionTicketID), false)
		case CommandTicketInfo:
			return b.handler.HandleTicketInfo(ctx, in, stringOption(data.Options, optionTicketID))
		}
		b.logger.Debug("unknown command", zap.String("name", data.Name))
	case discordgo.InteractionMessageComponent:
		customID := i.MessageComponentData().CustomID
		if customID == router.CreateTicketButtonID {
			return b.handler.HandleCreateTicket(ctx, in)
		}
		if ticketID, ok := router.ParseCloseTicketButtonID(customID); ok {
			return b.handler.HandleCloseTicket(ctx, in, ticketID, true)
		}
		b.logger.Debug("unknown component", zap.String("custom_id", customID))
	}
	return nil
}

func (b *Bot) channelName(ctx context.Context, s *discordgo.Session, channelID string) string {
	if s.State != nil {
		if ch, err := s.State.Channel(channelID); err == nil {
			return ch.Name
		}
	}
	ch, err := s.Channel(channelID, discordgo.WithContext(ctx))
	if err != nil {
		b.logger.Debug("channel lookup failed", zap.String("channel_id", channelID), zap.Error(err))
		return ""
	}
	return ch.Name
}

func (b *Bot) recoverEvent(event string) {
	if r := recover(); r != nil {
		b.logger.Error("panic in event handler",
			zap.String("event", event),
			zap.Any("panic", r),
			zap.ByteString("stack", debug.Stack()))
	}
}

func interactionUser(i *discordgo.Interaction) chat.Member {
	if i.Member != nil {
		member := toMember(i.Member.User, i.Member.Roles)
		member.CanManageGuild = i.Member.Permissions&(discordgo.PermissionManageGuild|discordgo.PermissionAdministrator) != 0
		return member
	}
	return toMember(i.User, nil)
}

type interactionResponder struct {
	session     *discordgo.Session
	interaction *discordgo.Interaction
	deferred    bool
}

func (r *interactionResponder) Defer(ctx context.Context, ephemeral bool) error {
	resp := &discordgo.InteractionResponse{Type: discordgo.InteractionResponseDeferredChannelMessageWithSource}
	if ephemeral {
		resp.Data = &discordgo.InteractionResponseData{Flags: discordgo.MessageFlagsEphemeral}
	}
	if err := r.session.InteractionRespond(r.interaction, resp, discordgo.WithContext(ctx)); err != nil {
		return classifyError(err)
	}
	r.deferred = true
	return nil
}

func (r *interactionResponder) Reply(ctx context.Context, msg chat.Message, ephemeral bool) error {
	if r.deferred {
		_, err := r.session.InteractionResponseEdit(r.interaction, toWebhookEdit(msg), discordgo.WithContext(ctx))
		return classifyError(err)
	}
	err := r.session.InteractionRespond(r.interaction, &discordgo.InteractionResponse{
		Type: discordgo.InteractionResponseChannelMessageWithSource,
		Data: toResponseData(msg, ephemeral),
	}, discordgo.WithContext(ctx))
	return classifyError(err)
}

func (r *interactionResponder) Update(ctx context.Context, msg chat.Message) error {
	err := r.session.InteractionRespond(r.interaction, &discordgo.InteractionResponse{
		Type: discordgo.InteractionResponseUpdateMessage,
		Data: toResponseData(msg, false),
	}, discordgo.WithContext(ctx))
	return classifyError(err)
}
