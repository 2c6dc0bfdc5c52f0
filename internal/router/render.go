package router

import (
	"fmt"
	"strings"
	"time"

	"github.com/spec-kit/ticket-relay/internal/chat"
	"github.com/spec-kit/ticket-relay/internal/domain"
)

const (
	colorBlue   = 0x3498db
	colorGreen  = 0x2ecc71
	colorRed    = 0xe74c3c
	colorOrange = 0xe67e22
	colorYellow = 0xf1c40f

	timeLayout = "2006-01-02 15:04:05"

	ackEmoji = "✅"
)

// User-facing replies.
const (
	msgStaffOnlyClose      = "❌ Only staff members can close tickets."
	msgStaffOnlyInfo       = "❌ Only staff members can view ticket information."
	msgTicketNotFound      = "❌ Ticket not found."
	msgTicketAlreadyClosed = "❌ Ticket is already closed."
	msgCloseFailed         = "❌ An error occurred while closing the ticket. Please try again."
	msgCreateFailed        = "❌ An error occurred while creating your ticket. Please contact an administrator."
	msgCreateInProgress    = "⏳ Your ticket is already being created. Please wait a moment."
	msgSupportGuildMissing = "❌ Support server not found. Please contact an administrator."
	msgCategoryMissing     = "❌ Ticket category not found. Please contact an administrator."
	msgStaffRoleMissing    = "❌ Staff role not found. Please contact an administrator."
	msgUserDMFailed        = "⚠️ Could not send DM to user (DMs disabled)"
	msgStaffRelayFailed    = "⚠️ Your message could not be delivered to the support team. Please try again shortly."
	msgAIThrottled         = "⏳ You're sending AI questions too quickly. Please wait a minute and try again."
	msgLookupFailed        = "❌ Could not load the ticket. Please try again."
	msgSetupPermission     = "❌ You need the Manage Server permission to set up the ticket panel."
)

func button(label string, style chat.ButtonStyle, customID string) chat.Button {
	return chat.Button{Label: label, Style: style, CustomID: customID}
}

func createTicketButton() chat.Button {
	return button("📝 Create Ticket", chat.ButtonPrimary, CreateTicketButtonID)
}

func quickHelpHint(prefix string) string {
	return fmt.Sprintf("For instant assistance, start your message with `%s` (e.g., `%s How do I reset my password?`)", prefix, prefix)
}

func renderAIAnswer(answer string) chat.Message {
	return chat.Message{Embeds: []chat.Embed{{
		Title:       "🤖 AI Assistant",
		Description: answer,
		Color:       colorBlue,
		Fields: []chat.EmbedField{{
			Name:  "Need More Help?",
			Value: "If this doesn't solve your issue, you can create a ticket for human support.",
		}},
	}}}
}

func renderNoTicketPrompt(prefix string) chat.Message {
	return chat.Message{
		Embeds: []chat.Embed{{
			Title:       "💬 Message Received",
			Description: "I see you'd like some help! You don't currently have an open support ticket.",
			Color:       colorYellow,
			Fields: []chat.EmbedField{
				{Name: "Create a Ticket", Value: "To get help from our support team, please create a ticket in the main server or use the button below."},
				{Name: "Quick AI Help", Value: quickHelpHint(prefix)},
			},
		}},
		Buttons: []chat.Button{createTicketButton()},
	}
}

func renderUserRelay(author chat.Member, content string, at time.Time) chat.Message {
	return chat.Message{Embeds: []chat.Embed{{
		Title:       "💬 Message from " + author.Name,
		Description: content,
		Color:       colorGreen,
		Timestamp:   at,
	}}}
}

func renderStaffRelay(author chat.Member, content string, at time.Time) chat.Message {
	return chat.Message{Embeds: []chat.Embed{{
		Title:         "💬 Support Response",
		Description:   content,
		Color:         colorBlue,
		AuthorName:    author.Name,
		AuthorIconURL: author.AvatarURL,
		Timestamp:     at,
	}}}
}

func renderStaffAnnouncement(ticket *domain.Ticket, owner chat.Member, staffRoleID string) chat.Message {
	return chat.Message{
		Content: chat.RoleMention(staffRoleID),
		Embeds: []chat.Embed{{
			Title: "🎫 Ticket: " + ticket.TicketID,
			Description: fmt.Sprintf("**User:** %s (%s)\n**Created:** %s",
				owner.Mention(), owner.Name, ticket.CreatedAt.Format(timeLayout)),
			Color: colorBlue,
			Fields: []chat.EmbedField{
				{Name: "Status", Value: "🟢 Open"},
				{Name: "Instructions", Value: "User will send their query via DM. Staff can respond here."},
			},
		}},
		Buttons: []chat.Button{button("🔒 Close Ticket", chat.ButtonDanger, CloseTicketButtonID(ticket.TicketID))},
	}
}

func renderClosedAnnouncement(ticketID string, closer chat.Member, at time.Time) chat.Message {
	return chat.Message{Embeds: []chat.Embed{{
		Title:       "🎫 Ticket: " + ticketID,
		Description: fmt.Sprintf("**Closed by:** %s\n**Closed at:** %s", closer.Mention(), at.Format(timeLayout)),
		Color:       colorRed,
		Fields:      []chat.EmbedField{{Name: "Status", Value: "🔴 Closed"}},
	}}}
}

func renderWelcomeDM(ticket *domain.Ticket, prefix string) chat.Message {
	return chat.Message{Embeds: []chat.Embed{{
		Title:       "🎫 Ticket Created Successfully!",
		Description: fmt.Sprintf("Your ticket `%s` has been created.", ticket.TicketID),
		Color:       colorGreen,
		Fields: []chat.EmbedField{
			{Name: "What's Next?", Value: "Please describe your issue or question in detail. Our support team will respond as soon as possible."},
			{Name: "Need Quick Help?", Value: fmt.Sprintf("Type your question starting with `%s` for instant AI assistance (e.g., `%s How do I reset my password?`)", prefix, prefix)},
		},
	}}}
}

// renderClosedDM names the closer when one is given.
func renderClosedDM(ticketID string, closer *chat.Member) chat.Message {
	description := fmt.Sprintf("Your ticket `%s` has been closed by our support team.", ticketID)
	if closer != nil {
		description = fmt.Sprintf("Your ticket `%s` has been closed by %s.", ticketID, closer.Mention())
	}
	return chat.Message{Embeds: []chat.Embed{{
		Title:       "🎫 Ticket Closed",
		Description: description,
		Color:       colorOrange,
		Fields: []chat.EmbedField{{
			Name:  "Need More Help?",
			Value: "Feel free to create a new ticket if you need further assistance.",
		}},
	}}}
}

func renderPanel(prefix string) chat.Message {
	steps := strings.Join([]string{
		"1️⃣ Click the button below to create a ticket",
		"2️⃣ You'll receive a DM to describe your issue",
		"3️⃣ Our support team will respond via the ticket",
		"4️⃣ Your conversation happens through DMs",
	}, "\n")
	return chat.Message{
		Embeds: []chat.Embed{{
			Title:       "🎫 Support Ticket System",
			Description: "Need help? Create a support ticket and our team will assist you!",
			Color:       colorBlue,
			Fields: []chat.EmbedField{
				{Name: "How it works:", Value: steps},
				{Name: "Quick AI Help", Value: fmt.Sprintf("For instant assistance, DM the bot with your question starting with `%s`", prefix)},
			},
		}},
		Buttons: []chat.Button{createTicketButton()},
	}
}

func renderTicketInfo(ticket *domain.Ticket, messageCount int) chat.Message {
	statusEmoji, color := "🟢", colorBlue
	if !ticket.IsOpen() {
		statusEmoji, color = "🔴", colorRed
	}
	status := string(ticket.Status)
	status = strings.ToUpper(status[:1]) + strings.ToLower(status[1:])

	fields := []chat.EmbedField{
		{Name: "User", Value: fmt.Sprintf("%s (%s)", chat.UserMention(ticket.UserID), ticket.Username), Inline: true},
		{Name: "Status", Value: statusEmoji + " " + status, Inline: true},
		{Name: "Created", Value: ticket.CreatedAt.Format(timeLayout), Inline: true},
	}
	if ticket.ClosedAt != nil {
		fields = append(fields, chat.EmbedField{Name: "Closed", Value: ticket.ClosedAt.Format(timeLayout), Inline: true})
	}
	if messageCount >= 0 {
		fields = append(fields, chat.EmbedField{Name: "Messages", Value: fmt.Sprintf("%d", messageCount), Inline: true})
	}
	return chat.Message{Embeds: []chat.Embed{{
		Title:  "🎫 Ticket Information: " + ticket.TicketID,
		Color:  color,
		Fields: fields,
	}}}
}

func createdReply(ticketID string, dmDelivered bool) string {
	if dmDelivered {
		return fmt.Sprintf("✅ Ticket created successfully! Check your DMs for details. Ticket ID: `%s`", ticketID)
	}
	return fmt.Sprintf("✅ Ticket created! However, I couldn't send you a DM. Please check your privacy settings.\nTicket ID: `%s`", ticketID)
}

func alreadyOpenReply(ticket *domain.Ticket) string {
	if ticket == nil {
		return "You already have an open ticket."
	}
	return fmt.Sprintf("You already have an open ticket: `%s`", ticket.TicketID)
}

func closedReply(ticketID string) string {
	return fmt.Sprintf("✅ Ticket `%s` has been closed.", ticketID)
}

func channelMention(channelID string) string {
	return "<#" + channelID + ">"
}
