package discord

import (
	"errors"
	"net/http"
	"testing"
	"time"

	"github.com/bwmarrin/discordgo"

	"github.com/spec-kit/ticket-relay/internal/chat"
)

func TestToWebhookEdit(t *testing.T) {
	edit := toWebhookEdit(chat.Message{Content: "✅ Ticket created"})
	if edit.Content == nil || *edit.Content != "✅ Ticket created" {
		t.Fatalf("unexpected content %+v", edit.Content)
	}
	if edit.Embeds != nil || edit.Components != nil {
		t.Fatalf("empty parts should be left untouched, got %+v", edit)
	}

	edit = toWebhookEdit(chat.Message{
		Embeds:  []chat.Embed{{Title: "Ticket"}},
		Buttons: []chat.Button{{Label: "Close Ticket", Style: chat.ButtonDanger, CustomID: "close_ticket:t"}},
	})
	if edit.Embeds == nil || len(*edit.Embeds) != 1 || edit.Components == nil || len(*edit.Components) != 1 {
		t.Fatalf("unexpected edit %+v", edit)
	}
}

func TestToMessageSend(t *testing.T) {
	ts := time.Date(2024, 5, 1, 12, 0, 0, 0, time.UTC)
	send := toMessageSend(chat.Message{
		Content: "hi",
		Embeds: []chat.Embed{{
			Title:      "🎫 New Support Ticket",
			Color:      0x00ff00,
			Fields:     []chat.EmbedField{{Name: "User", Value: "<@1>", Inline: true}},
			AuthorName: "mod",
			Footer:     "footer",
			Timestamp:  ts,
		}},
		Buttons: []chat.Button{{Label: "Close Ticket", Style: chat.ButtonDanger, CustomID: "close_ticket:t"}},
	})

	if send.Content != "hi" || len(send.Embeds) != 1 {
		t.Fatalf("unexpected send %+v", send)
	}
	embed := send.Embeds[0]
	if embed.Timestamp != "2024-05-01T12:00:00Z" || embed.Author.Name != "mod" || embed.Footer.Text != "footer" {
		t.Fatalf("unexpected embed %+v", embed)
	}
	if len(embed.Fields) != 1 || !embed.Fields[0].Inline {
		t.Fatalf("unexpected fields %+v", embed.Fields)
	}
	row, ok := send.Components[0].(discordgo.ActionsRow)
	if !ok || len(row.Components) != 1 {
		t.Fatalf("expected one action row, got %+v", send.Components)
	}
	button := row.Components[0].(discordgo.Button)
	if button.Style != discordgo.DangerButton || button.CustomID != "close_ticket:t" {
		t.Fatalf("unexpected button %+v", button)
	}
}

func TestToResponseDataClearsComponents(t *testing.T) {
	data := toResponseData(chat.Text("closed"), false)
	if data.Components == nil || len(data.Components) != 0 {
		t.Fatalf("update must carry an empty component list, got %+v", data.Components)
	}
	if data.Flags != 0 {
		t.Fatalf("unexpected flags %d", data.Flags)
	}
	if toResponseData(chat.Text("x"), true).Flags != discordgo.MessageFlagsEphemeral {
		t.Fatalf("expected ephemeral flag")
	}
}

func TestClassifyError(t *testing.T) {
	tests := []struct {
		name string
		err  error
		want error
	}{
		{
			name: "dm closed",
			err: &discordgo.RESTError{
				Response: &http.Response{StatusCode: http.StatusForbidden},
				Message:  &discordgo.APIErrorMessage{Code: discordgo.ErrCodeCannotSendMessagesToThisUser},
			},
			want: chat.ErrUndeliverable,
		},
		{
			name: "unknown channel",
			err: &discordgo.RESTError{
				Response: &http.Response{StatusCode: http.StatusNotFound},
				Message:  &discordgo.APIErrorMessage{Code: discordgo.ErrCodeUnknownChannel},
			},
			want: chat.ErrResourceNotFound,
		},
		{
			name: "bare forbidden",
			err:  &discordgo.RESTError{Response: &http.Response{StatusCode: http.StatusForbidden}},
			want: chat.ErrUndeliverable,
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := classifyError(tt.err)
			if !errors.Is(got, tt.want) {
				t.Fatalf("expected %v, got %v", tt.want, got)
			}
			var restErr *discordgo.RESTError
			if !errors.As(got, &restErr) {
				t.Fatalf("original error lost: %v", got)
			}
		})
	}

	plain := errors.New("boom")
	if classifyError(plain) != plain {
		t.Fatalf("non-REST errors pass through")
	}
	if classifyError(nil) != nil {
		t.Fatalf("nil stays nil")
	}
}

func TestTicketChannelOverwrites(t *testing.T) {
	overwrites := ticketChannelOverwrites("200", "300")
	if len(overwrites) != 2 {
		t.Fatalf("expected 2 overwrites, got %d", len(overwrites))
	}
	everyone, staff := overwrites[0], overwrites[1]
	if everyone.ID != "200" || everyone.Deny&discordgo.PermissionViewChannel == 0 {
		t.Fatalf("@everyone must be denied view: %+v", everyone)
	}
	if staff.ID != "300" || staff.Allow&discordgo.PermissionSendMessages == 0 || staff.Allow&discordgo.PermissionViewChannel == 0 {
		t.Fatalf("staff must be allowed view and send: %+v", staff)
	}
	if staff.Type != discordgo.PermissionOverwriteTypeRole {
		t.Fatalf("staff overwrite must target a role")
	}
}
