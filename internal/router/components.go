package router

import "strings"

const (
	// CreateTicketButtonID is the custom ID of the persistent create button.
	CreateTicketButtonID = "create_ticket"
	closeTicketPrefix    = "close_ticket:"
)

// CloseTicketButtonID encodes the ticket into the close button's custom ID
// so the handler needs no per-ticket state.
func CloseTicketButtonID(ticketID string) string {
	return closeTicketPrefix + ticketID
}

// ParseCloseTicketButtonID extracts the ticket ID from a close button.
func ParseCloseTicketButtonID(customID string) (string, bool) {
	if !strings.HasPrefix(customID, closeTicketPrefix) {
		return "", false
	}
	ticketID := strings.TrimSpace(strings.TrimPrefix(customID, closeTicketPrefix))
	if ticketID == "" {
		return "", false
	}
	return ticketID, true
}
