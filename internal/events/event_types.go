package events

import (
	"time"

	"github.com/spec-kit/ticket-relay/internal/domain"
)

// EventType enumerates supported event identifiers.
type EventType string

const (
	EventTicketOpened         EventType = "ticket_opened"
	EventTicketClosed         EventType = "ticket_closed"
	EventTicketMessageRelayed EventType = "ticket_message_relayed"
)

// Actor encapsulates actor metadata for an event.
type Actor struct {
	Type domain.SubjectType `json:"type"`
	ID   string             `json:"id,omitempty"`
	Name string             `json:"name,omitempty"`
}

// Event represents a domain event emitted by services.
type Event struct {
	ID        string      `json:"id"`
	Type      EventType   `json:"type"`
	TicketID  string      `json:"ticket_id"`
	Actor     Actor       `json:"actor"`
	Timestamp time.Time   `json:"timestamp"`
	Payload   interface{} `json:"payload"`
}

// TicketOpenedPayload payload.
type TicketOpenedPayload struct {
	UserID           string `json:"user_id"`
	Username         string `json:"username"`
	SupportChannelID string `json:"support_channel_id"`
	Category         string `json:"category"`
}

// TicketClosedPayload payload.
type TicketClosedPayload struct {
	UserID   string    `json:"user_id"`
	ClosedBy string    `json:"closed_by"`
	ClosedAt time.Time `json:"closed_at"`
}

// RelayDirection tells which side a relayed message came from.
type RelayDirection string

const (
	RelayToStaff RelayDirection = "to_staff"
	RelayToUser  RelayDirection = "to_user"
)

// TicketMessageRelayedPayload payload.
type TicketMessageRelayedPayload struct {
	Direction   RelayDirection `json:"direction"`
	AuthorID    string         `json:"author_id"`
	BodyPreview string         `json:"body_preview"`
	Delivered   bool           `json:"delivered"`
}

const previewLength = 120

// Preview shortens a message body for event payloads.
func Preview(body string) string {
	runes := []rune(body)
	if len(runes) <= previewLength {
		return body
	}
	return string(runes[:previewLength]) + "…"
}
