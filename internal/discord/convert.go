package discord

import (
	"errors"
	"net/http"
	"time"

	"github.com/bwmarrin/discordgo"

	"github.com/spec-kit/ticket-relay/internal/chat"
)

func toEmbeds(embeds []chat.Embed) []*discordgo.MessageEmbed {
	if len(embeds) == 0 {
		return nil
	}
	out := make([]*discordgo.MessageEmbed, 0, len(embeds))
	for _, e := range embeds {
		embed := &discordgo.MessageEmbed{
			Title:       e.Title,
			Description: e.Description,
			Color:       e.Color,
		}
		for _, f := range e.Fields {
			embed.Fields = append(embed.Fields, &discordgo.MessageEmbedField{Name: f.Name, Value: f.Value, Inline: f.Inline})
		}
		if e.AuthorName != "" {
			embed.Author = &discordgo.MessageEmbedAuthor{Name: e.AuthorName, IconURL: e.AuthorIconURL}
		}
		if e.Footer != "" {
			embed.Footer = &discordgo.MessageEmbedFooter{Text: e.Footer}
		}
		if !e.Timestamp.IsZero() {
			embed.Timestamp = e.Timestamp.UTC().Format(time.RFC3339)
		}
		out = append(out, embed)
	}
	return out
}

func buttonStyle(style chat.ButtonStyle) discordgo.ButtonStyle {
	switch style {
	case chat.ButtonSecondary:
		return discordgo.SecondaryButton
	case chat.ButtonSuccess:
		return discordgo.SuccessButton
	case chat.ButtonDanger:
		return discordgo.DangerButton
	default:
		return discordgo.PrimaryButton
	}
}

// toComponents always returns a non-nil slice so that an update with no
// buttons clears existing components.
func toComponents(buttons []chat.Button) []discordgo.MessageComponent {
	if len(buttons) == 0 {
		return []discordgo.MessageComponent{}
	}
	row := discordgo.ActionsRow{}
	for _, b := range buttons {
		row.Components = append(row.Components, discordgo.Button{
			Label:    b.Label,
			Style:    buttonStyle(b.Style),
			CustomID: b.CustomID,
		})
	}
	return []discordgo.MessageComponent{row}
}

func toMessageSend(msg chat.Message) *discordgo.MessageSend {
	send := &discordgo.MessageSend{
		Content: msg.Content,
		Embeds:  toEmbeds(msg.Embeds),
	}
	if len(msg.Buttons) > 0 {
		send.Components = toComponents(msg.Buttons)
	}
	return send
}

func toResponseData(msg chat.Message, ephemeral bool) *discordgo.InteractionResponseData {
	data := &discordgo.InteractionResponseData{
		Content:    msg.Content,
		Embeds:     toEmbeds(msg.Embeds),
		Components: toComponents(msg.Buttons),
	}
	if ephemeral {
		data.Flags = discordgo.MessageFlagsEphemeral
	}
	return data
}

// toWebhookEdit fills a deferred interaction response.
func toWebhookEdit(msg chat.Message) *discordgo.WebhookEdit {
	content := msg.Content
	edit := &discordgo.WebhookEdit{Content: &content}
	if embeds := toEmbeds(msg.Embeds); len(embeds) > 0 {
		edit.Embeds = &embeds
	}
	if components := toComponents(msg.Buttons); len(components) > 0 {
		edit.Components = &components
	}
	return edit
}

func toMember(u *discordgo.User, roles []string) chat.Member {
	if u == nil {
		return chat.Member{}
	}
	return chat.Member{
		ID:        u.ID,
		Name:      u.Username,
		AvatarURL: u.AvatarURL(""),
		Bot:       u.Bot,
		RoleIDs:   roles,
	}
}

// classifyError maps REST failures onto the chat error kinds.
func classifyError(err error) error {
	if err == nil {
		return nil
	}
	var restErr *discordgo.RESTError
	if !errors.As(err, &restErr) {
		return err
	}
	if restErr.Message != nil {
		switch restErr.Message.Code {
		case discordgo.ErrCodeCannotSendMessagesToThisUser:
			return errors.Join(chat.ErrUndeliverable, err)
		case discordgo.ErrCodeUnknownChannel, discordgo.ErrCodeUnknownGuild, discordgo.ErrCodeUnknownRole:
			return errors.Join(chat.ErrResourceNotFound, err)
		}
	}
	if restErr.Response != nil {
		switch restErr.Response.StatusCode {
		case http.StatusForbidden:
			return errors.Join(chat.ErrUndeliverable, err)
		case http.StatusNotFound:
			return errors.Join(chat.ErrResourceNotFound, err)
		}
	}
	return err
}
