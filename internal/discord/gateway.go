package discord

import (
	"context"
	"fmt"

	"github.com/bwmarrin/discordgo"

	"github.com/spec-kit/ticket-relay/internal/chat"
	"github.com/spec-kit/ticket-relay/internal/config"
)

const staffChannelPermissions = discordgo.PermissionViewChannel |
	discordgo.PermissionSendMessages |
	discordgo.PermissionManageMessages |
	discordgo.PermissionReadMessageHistory

// Gateway delivers messages and provisions ticket channels through a
// discordgo session. It implements chat.Gateway and chat.ChannelProvisioner.
type Gateway struct {
	session *discordgo.Session
	cfg     config.DiscordConfig
}

// NewGateway wraps a session.
func NewGateway(session *discordgo.Session, cfg config.DiscordConfig) *Gateway {
	return &Gateway{session: session, cfg: cfg}
}

// Send posts msg to a channel.
func (g *Gateway) Send(ctx context.Context, channelID string, msg chat.Message) (string, error) {
	sent, err := g.session.ChannelMessageSendComplex(channelID, toMessageSend(msg), discordgo.WithContext(ctx))
	if err != nil {
		return "", fmt.Errorf("send to channel %s: %w", channelID, classifyError(err))
	}
	return sent.ID, nil
}

// SendDirect opens the user's DM channel and posts msg there.
func (g *Gateway) SendDirect(ctx context.Context, userID string, msg chat.Message) (string, error) {
	channel, err := g.session.UserChannelCreate(userID, discordgo.WithContext(ctx))
	if err != nil {
		return "", fmt.Errorf("open dm with %s: %w", userID, classifyError(err))
	}
	return g.Send(ctx, channel.ID, msg)
}

// React adds a unicode emoji reaction.
func (g *Gateway) React(ctx context.Context, channelID, messageID, emoji string) error {
	if err := g.session.MessageReactionAdd(channelID, messageID, emoji, discordgo.WithContext(ctx)); err != nil {
		return classifyError(err)
	}
	return nil
}

// CreateTicketChannel creates a text channel under the ticket category in
// the support guild, hidden from @everyone and open to the staff role.
func (g *Gateway) CreateTicketChannel(ctx context.Context, name string) (string, error) {
	if err := g.verifyResources(ctx); err != nil {
		return "", err
	}

	channel, err := g.session.GuildChannelCreateComplex(g.cfg.SupportGuildID, discordgo.GuildChannelCreateData{
		Name:                 name,
		Type:                 discordgo.ChannelTypeGuildText,
		ParentID:             g.cfg.TicketCategoryID,
		PermissionOverwrites: ticketChannelOverwrites(g.cfg.SupportGuildID, g.cfg.StaffRoleID),
	}, discordgo.WithContext(ctx))
	if err != nil {
		return "", classifyError(err)
	}
	return channel.ID, nil
}

// DeleteChannel removes a channel.
func (g *Gateway) DeleteChannel(ctx context.Context, channelID string) error {
	if _, err := g.session.ChannelDelete(channelID, discordgo.WithContext(ctx)); err != nil {
		return classifyError(err)
	}
	return nil
}

func (g *Gateway) verifyResources(ctx context.Context) error {
	if _, err := g.guild(ctx, g.cfg.SupportGuildID); err != nil {
		return &chat.MissingResourceError{Kind: chat.ResourceSupportGuild, ID: g.cfg.SupportGuildID}
	}

	category, err := g.channel(ctx, g.cfg.TicketCategoryID)
	if err != nil || category.Type != discordgo.ChannelTypeGuildCategory || category.GuildID != g.cfg.SupportGuildID {
		return &chat.MissingResourceError{Kind: chat.ResourceTicketCategory, ID: g.cfg.TicketCategoryID}
	}

	roles, err := g.session.GuildRoles(g.cfg.SupportGuildID, discordgo.WithContext(ctx))
	if err != nil || !hasRole(roles, g.cfg.StaffRoleID) {
		return &chat.MissingResourceError{Kind: chat.ResourceStaffRole, ID: g.cfg.StaffRoleID}
	}
	return nil
}

func (g *Gateway) guild(ctx context.Context, guildID string) (*discordgo.Guild, error) {
	if g.session.State != nil {
		if guild, err := g.session.State.Guild(guildID); err == nil {
			return guild, nil
		}
	}
	return g.session.Guild(guildID, discordgo.WithContext(ctx))
}

func (g *Gateway) channel(ctx context.Context, channelID string) (*discordgo.Channel, error) {
	if g.session.State != nil {
		if channel, err := g.session.State.Channel(channelID); err == nil {
			return channel, nil
		}
	}
	return g.session.Channel(channelID, discordgo.WithContext(ctx))
}

// ticketChannelOverwrites hides the channel from @everyone, whose role ID
// equals the guild ID, and grants the staff role access.
func ticketChannelOverwrites(guildID, staffRoleID string) []*discordgo.PermissionOverwrite {
	return []*discordgo.PermissionOverwrite{
		{
			ID:   guildID,
			Type: discordgo.PermissionOverwriteTypeRole,
			Deny: discordgo.PermissionViewChannel,
		},
		{
			ID:    staffRoleID,
			Type:  discordgo.PermissionOverwriteTypeRole,
			Allow: staffChannelPermissions,
		},
	}
}

func hasRole(roles []*discordgo.Role, roleID string) bool {
	for _, role := range roles {
		if role.ID == roleID {
			return true
		}
	}
	return false
}
