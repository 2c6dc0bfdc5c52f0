package repository

import (
	"context"
	"sort"
	"sync"
	"time"

	"github.com/spec-kit/ticket-relay/internal/domain"
)

// MemoryStore implements TicketRepository and TicketMessageRepository in
// process memory with the same uniqueness rules as the postgres schema.
// Every call holds the store mutex, so each operation is atomic on its own.
type MemoryStore struct {
	mu       sync.Mutex
	now      func() time.Time
	tickets  map[string]*domain.Ticket
	order    []string
	messages []domain.TicketMessage
	nextID   int64
}

// NewMemoryStore returns an empty store.
func NewMemoryStore() *MemoryStore {
	return &MemoryStore{
		now:     time.Now,
		tickets: make(map[string]*domain.Ticket),
	}
}

// Tickets exposes the ticket half of the store.
func (m *MemoryStore) Tickets() TicketRepository { return memoryTickets{m} }

// Messages exposes the message half of the store.
func (m *MemoryStore) Messages() TicketMessageRepository { return memoryMessages{m} }

type memoryTickets struct{ *MemoryStore }

func (m memoryTickets) Create(_ context.Context, ticket *domain.Ticket) (bool, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	if _, exists := m.tickets[ticket.TicketID]; exists {
		return false, nil
	}
	for _, id := range m.order {
		existing := m.tickets[id]
		if existing.UserID == ticket.UserID && existing.Status == domain.TicketStatusOpen {
			return false, domain.ErrOpenTicketExists
		}
	}

	if ticket.Category == "" {
		ticket.Category = domain.DefaultTicketCategory
	}
	ticket.Status = domain.TicketStatusOpen
	ticket.CreatedAt = m.now().UTC()
	ticket.ClosedAt = nil

	stored := *ticket
	m.tickets[ticket.TicketID] = &stored
	m.order = append(m.order, ticket.TicketID)
	return true, nil
}

func (m memoryTickets) Close(_ context.Context, ticketID string) (bool, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	ticket, ok := m.tickets[ticketID]
	if !ok || ticket.Status != domain.TicketStatusOpen {
		return false, nil
	}
	closedAt := m.now().UTC()
	ticket.Status = domain.TicketStatusClosed
	ticket.ClosedAt = &closedAt
	return true, nil
}

func (m memoryTickets) GetByTicketID(_ context.Context, ticketID string) (*domain.Ticket, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	ticket, ok := m.tickets[ticketID]
	if !ok {
		return nil, domain.ErrTicketNotFound
	}
	return copyTicket(ticket), nil
}

func (m memoryTickets) GetOpenByUser(_ context.Context, userID string) (*domain.Ticket, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	for _, id := range m.order {
		ticket := m.tickets[id]
		if ticket.UserID == userID && ticket.Status == domain.TicketStatusOpen {
			return copyTicket(ticket), nil
		}
	}
	return nil, domain.ErrTicketNotFound
}

func (m memoryTickets) GetBySupportChannel(_ context.Context, channelID string, status domain.TicketStatus) (*domain.Ticket, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	for i := len(m.order) - 1; i >= 0; i-- {
		ticket := m.tickets[m.order[i]]
		if ticket.SupportChannelID == channelID && ticket.Status == status {
			return copyTicket(ticket), nil
		}
	}
	return nil, domain.ErrTicketNotFound
}

type memoryMessages struct{ *MemoryStore }

func (m memoryMessages) Append(_ context.Context, msg *domain.TicketMessage) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	m.nextID++
	msg.ID = m.nextID
	msg.Timestamp = m.now().UTC()
	m.messages = append(m.messages, *msg)
	return nil
}

func (m memoryMessages) ListByTicket(_ context.Context, ticketID string) ([]domain.TicketMessage, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	var result []domain.TicketMessage
	for _, msg := range m.messages {
		if msg.TicketID == ticketID {
			result = append(result, msg)
		}
	}
	sort.SliceStable(result, func(i, j int) bool {
		return result[i].Timestamp.Before(result[j].Timestamp)
	})
	return result, nil
}

func (m memoryMessages) CountByTicket(ctx context.Context, ticketID string) (int, error) {
	msgs, err := m.ListByTicket(ctx, ticketID)
	return len(msgs), err
}

func copyTicket(t *domain.Ticket) *domain.Ticket {
	out := *t
	if t.ClosedAt != nil {
		closedAt := *t.ClosedAt
		out.ClosedAt = &closedAt
	}
	return &out
}
