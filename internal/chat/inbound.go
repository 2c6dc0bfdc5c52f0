package chat

import "context"

// InboundMessage is a user-authored message received from the platform.
type InboundMessage struct {
	ID          string
	ChannelID   string
	ChannelName string
	GuildID     string
	Direct      bool
	Author      Member
	Content     string
}

// Responder answers an interaction. Reply sends the first response, Update
// edits the message that carried the activated component. Defer acknowledges
// the interaction before slow work; a later Reply then fills in the deferred
// response and keeps the visibility chosen at Defer.
type Responder interface {
	Reply(ctx context.Context, msg Message, ephemeral bool) error
	Update(ctx context.Context, msg Message) error
	Defer(ctx context.Context, ephemeral bool) error
}

// Interaction is a command invocation or component activation.
type Interaction struct {
	GuildID   string
	ChannelID string
	MessageID string
	User      Member
	Responder
}
