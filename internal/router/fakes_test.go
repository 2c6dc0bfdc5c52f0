package router

import (
	"context"
	"fmt"
	"sync"

	"github.com/spec-kit/ticket-relay/internal/chat"
	"github.com/spec-kit/ticket-relay/internal/domain"
	"github.com/spec-kit/ticket-relay/internal/llm"
)

type sentMessage struct {
	target string
	msg    chat.Message
}

type fakeGateway struct {
	mu           sync.Mutex
	sent         []sentMessage
	direct       []sentMessage
	reactions    []string
	sendFn       func(channelID string) error
	sendDirectFn func(userID string) error
}

func (g *fakeGateway) Send(_ context.Context, channelID string, msg chat.Message) (string, error) {
	g.mu.Lock()
	defer g.mu.Unlock()
	if g.sendFn != nil {
		if err := g.sendFn(channelID); err != nil {
			return "", err
		}
	}
	g.sent = append(g.sent, sentMessage{target: channelID, msg: msg})
	return fmt.Sprintf("msg-%d", len(g.sent)), nil
}

func (g *fakeGateway) SendDirect(_ context.Context, userID string, msg chat.Message) (string, error) {
	g.mu.Lock()
	defer g.mu.Unlock()
	if g.sendDirectFn != nil {
		if err := g.sendDirectFn(userID); err != nil {
			return "", err
		}
	}
	g.direct = append(g.direct, sentMessage{target: userID, msg: msg})
	return fmt.Sprintf("dm-%d", len(g.direct)), nil
}

func (g *fakeGateway) React(_ context.Context, channelID, messageID, emoji string) error {
	g.mu.Lock()
	defer g.mu.Unlock()
	g.reactions = append(g.reactions, channelID+"/"+messageID+"/"+emoji)
	return nil
}

func (g *fakeGateway) sentTo(target string) []chat.Message {
	var out []chat.Message
	for _, s := range g.sent {
		if s.target == target {
			out = append(out, s.msg)
		}
	}
	return out
}

func (g *fakeGateway) directTo(userID string) []chat.Message {
	var out []chat.Message
	for _, s := range g.direct {
		if s.target == userID {
			out = append(out, s.msg)
		}
	}
	return out
}

type fakeResponder struct {
	replies   []chat.Message
	ephemeral []bool
	updates   []chat.Message
	// deferredAt is the number of replies sent before Defer, -1 if never deferred.
	deferredAt int
	deferErr   error
}

func (r *fakeResponder) Defer(_ context.Context, _ bool) error {
	if r.deferErr != nil {
		return r.deferErr
	}
	r.deferredAt = len(r.replies)
	return nil
}

func (r *fakeResponder) Reply(_ context.Context, msg chat.Message, ephemeral bool) error {
	r.replies = append(r.replies, msg)
	r.ephemeral = append(r.ephemeral, ephemeral)
	return nil
}

func (r *fakeResponder) Update(_ context.Context, msg chat.Message) error {
	r.updates = append(r.updates, msg)
	return nil
}

func (r *fakeResponder) lastReply() string {
	if len(r.replies) == 0 {
		return ""
	}
	return r.replies[len(r.replies)-1].Content
}

type failingOpen struct {
	Tickets
	err error
}

func (f failingOpen) OpenTicket(context.Context, string, string) (*domain.Ticket, error) {
	return nil, f.err
}

type fakeChannels struct {
	next      int
	createErr error
}

func (f *fakeChannels) CreateTicketChannel(context.Context, string) (string, error) {
	if f.createErr != nil {
		return "", f.createErr
	}
	f.next++
	return fmt.Sprintf("staff-chan-%d", f.next), nil
}

func (f *fakeChannels) DeleteChannel(context.Context, string) error { return nil }

type fakeCompleter struct {
	calls int
}

func (f *fakeCompleter) Complete(context.Context, llm.Request) (string, error) {
	f.calls++
	return "Use the reset link on the login page.", nil
}

type fakeLimiter struct {
	allowFn func(key string) (bool, error)
}

func (f fakeLimiter) Allow(_ context.Context, key string) (bool, error) {
	return f.allowFn(key)
}
