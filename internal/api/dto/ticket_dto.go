package dto

import (
	"time"

	"github.com/spec-kit/ticket-relay/internal/domain"
)

// TicketResponse is the ops view of a ticket.
type TicketResponse struct {
	TicketID         string              `json:"ticket_id"`
	UserID           string              `json:"user_id"`
	Username         string              `json:"username"`
	Status           domain.TicketStatus `json:"status"`
	Category         string              `json:"category"`
	SupportChannelID string              `json:"support_channel_id"`
	CreatedAt        time.Time           `json:"created_at"`
	ClosedAt         *time.Time          `json:"closed_at"`
}

// TicketDetailResponse adds the relayed message history.
type TicketDetailResponse struct {
	TicketResponse
	MessageCount int                     `json:"message_count"`
	Messages     []TicketMessageResponse `json:"messages"`
}

// TicketMessageResponse represents one relayed message.
type TicketMessageResponse struct {
	ID         int64     `json:"id"`
	AuthorID   string    `json:"author_id"`
	AuthorName string    `json:"author_name"`
	Content    string    `json:"content"`
	Timestamp  time.Time `json:"timestamp"`
}

// NewTicketDetail builds the response for a ticket and its history.
func NewTicketDetail(ticket *domain.Ticket, messages []domain.TicketMessage) TicketDetailResponse {
	msgs := make([]TicketMessageResponse, 0, len(messages))
	for _, m := range messages {
		msgs = append(msgs, TicketMessageResponse{
			ID:         m.ID,
			AuthorID:   m.AuthorID,
			AuthorName: m.AuthorName,
			Content:    m.MessageContent,
			Timestamp:  m.Timestamp,
		})
	}
	return TicketDetailResponse{
		TicketResponse: TicketResponse{
			TicketID:         ticket.TicketID,
			UserID:           ticket.UserID,
			Username:         ticket.Username,
			Status:           ticket.Status,
			Category:         ticket.Category,
			SupportChannelID: ticket.SupportChannelID,
			CreatedAt:        ticket.CreatedAt,
			ClosedAt:         ticket.ClosedAt,
		},
		MessageCount: len(msgs),
		Messages:     msgs,
	}
}
