package service

import (
	"context"
	"fmt"
	"sync"

	"github.com/spec-kit/ticket-relay/internal/domain"
	"github.com/spec-kit/ticket-relay/internal/events"
	"github.com/spec-kit/ticket-relay/internal/repository"
)

type fakeChannels struct {
	mu        sync.Mutex
	created   []string
	deleted   []string
	createErr error
}

func (f *fakeChannels) CreateTicketChannel(_ context.Context, name string) (string, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.createErr != nil {
		return "", f.createErr
	}
	f.created = append(f.created, name)
	return fmt.Sprintf("chan-%d", len(f.created)), nil
}

func (f *fakeChannels) DeleteChannel(_ context.Context, channelID string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.deleted = append(f.deleted, channelID)
	return nil
}

type fakeLocker struct {
	lockFn func(key string) (func(), error)
}

func (f fakeLocker) Lock(_ context.Context, key string) (func(), error) {
	return f.lockFn(key)
}

// racingTickets hides the existing open ticket from the first lookup so the
// store constraint is what rejects the second open.
// A non-nil lookupErr fails every lookup after the first.
type racingTickets struct {
	repository.TicketRepository
	missed    bool
	lookupErr error
}

func (r *racingTickets) GetOpenByUser(ctx context.Context, userID string) (*domain.Ticket, error) {
	if !r.missed {
		r.missed = true
		return nil, domain.ErrTicketNotFound
	}
	if r.lookupErr != nil {
		return nil, r.lookupErr
	}
	return r.TicketRepository.GetOpenByUser(ctx, userID)
}

type recordingDispatcher struct {
	published []events.Event
}

func (d *recordingDispatcher) Publish(_ context.Context, e events.Event) error {
	d.published = append(d.published, e)
	return nil
}

func (d *recordingDispatcher) Subscribe(events.EventType, events.EventHandler) {}

func sequenceTokens(tokens ...string) func() string {
	i := 0
	return func() string {
		tok := tokens[i]
		if i < len(tokens)-1 {
			i++
		}
		return tok
	}
}
