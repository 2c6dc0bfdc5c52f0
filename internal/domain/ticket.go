package domain

import "time"

// TicketStatus enumerates lifecycle states for tickets.
type TicketStatus string

const (
	TicketStatusOpen   TicketStatus = "OPEN"
	TicketStatusClosed TicketStatus = "CLOSED"
)

// DefaultTicketCategory is assigned when a ticket is opened without a label.
const DefaultTicketCategory = "general"

// Ticket associates one chat user with one staff channel for a single
// open/closed lifecycle.
type Ticket struct {
	TicketID         string
	UserID           string
	Username         string
	Status           TicketStatus
	CreatedAt        time.Time
	ClosedAt         *time.Time
	SupportChannelID string
	Category         string
}

// IsOpen reports whether the ticket still accepts relayed messages.
func (t *Ticket) IsOpen() bool {
	return t != nil && t.Status == TicketStatusOpen
}
