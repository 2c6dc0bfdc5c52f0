package chat

import (
	"context"
	"errors"
	"fmt"
	"regexp"
	"strings"
)

var (
	// ErrUndeliverable is returned when a message could not be delivered,
	// typically because the recipient has direct messages disabled.
	ErrUndeliverable = errors.New("message undeliverable")
	// ErrResourceNotFound is returned when a guild, category or role the bot
	// depends on cannot be resolved.
	ErrResourceNotFound = errors.New("chat resource not found")
)

// Resource kinds reported by MissingResourceError.
const (
	ResourceSupportGuild   = "support guild"
	ResourceTicketCategory = "ticket category"
	ResourceStaffRole      = "staff role"
)

// MissingResourceError names the configured object that could not be found.
type MissingResourceError struct {
	Kind string
	ID   string
}

func (e *MissingResourceError) Error() string {
	return fmt.Sprintf("%s %s not found", e.Kind, e.ID)
}

func (e *MissingResourceError) Is(target error) bool {
	return target == ErrResourceNotFound
}

// Gateway delivers outbound messages.
type Gateway interface {
	// SendDirect opens (or reuses) the direct channel with userID and posts msg.
	SendDirect(ctx context.Context, userID string, msg Message) (string, error)
	// Send posts msg to channelID and returns the new message ID.
	Send(ctx context.Context, channelID string, msg Message) (string, error)
	React(ctx context.Context, channelID, messageID, emoji string) error
}

// ChannelProvisioner creates and removes staff-side ticket channels.
type ChannelProvisioner interface {
	// CreateTicketChannel creates a private channel visible to staff only
	// under the ticket category and returns its ID.
	CreateTicketChannel(ctx context.Context, name string) (string, error)
	DeleteChannel(ctx context.Context, channelID string) error
}

// TicketChannelPrefix starts the name of every staff-side ticket channel.
const TicketChannelPrefix = "ticket-"

const maxChannelNameLength = 100

var channelNameInvalid = regexp.MustCompile(`[^a-z0-9_-]+`)

// TicketChannelName derives a valid channel name from a username.
func TicketChannelName(username string) string {
	name := strings.ToLower(strings.TrimSpace(username))
	name = channelNameInvalid.ReplaceAllString(name, "-")
	name = strings.Trim(name, "-")
	if name == "" {
		name = "user"
	}
	name = TicketChannelPrefix + name
	if len(name) > maxChannelNameLength {
		name = name[:maxChannelNameLength]
	}
	return name
}

// IsTicketChannel reports whether a channel name has the ticket shape.
func IsTicketChannel(name string) bool {
	return strings.HasPrefix(name, TicketChannelPrefix)
}
