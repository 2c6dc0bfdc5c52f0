package domain

import "time"

// TicketMessage is an append-only record of one relayed message.
type TicketMessage struct {
	ID             int64
	TicketID       string
	AuthorID       string
	AuthorName     string
	MessageContent string
	Timestamp      time.Time
}
