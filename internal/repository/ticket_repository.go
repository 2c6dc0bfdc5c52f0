package repository

import (
	"context"
	"errors"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/spec-kit/ticket-relay/internal/domain"
)

const (
	uniqueViolation      = "23505"
	openPerUserIndexName = "tickets_one_open_per_user"
)

// TicketRepository is the durable record of tickets. Lookups return
// domain.ErrTicketNotFound when nothing matches.
type TicketRepository interface {
	// Create inserts a new OPEN ticket. It reports false, without error, when
	// the ticket_id is already taken, and domain.ErrOpenTicketExists when the
	// user already owns an open ticket.
	Create(ctx context.Context, ticket *domain.Ticket) (bool, error)
	// Close marks the ticket CLOSED and stamps closed_at. Closing an already
	// closed or unknown ticket is a no-op and reports false.
	Close(ctx context.Context, ticketID string) (bool, error)
	GetByTicketID(ctx context.Context, ticketID string) (*domain.Ticket, error)
	GetOpenByUser(ctx context.Context, userID string) (*domain.Ticket, error)
	GetBySupportChannel(ctx context.Context, channelID string, status domain.TicketStatus) (*domain.Ticket, error)
}

type ticketRepository struct {
	pool *pgxpool.Pool
}

// NewTicketRepository instantiates repository.
func NewTicketRepository(pool *pgxpool.Pool) TicketRepository {
	return &ticketRepository{pool: pool}
}

const ticketColumns = `ticket_id, user_id, username, status, created_at, closed_at, support_channel_id, category`

func (r *ticketRepository) Create(ctx context.Context, ticket *domain.Ticket) (bool, error) {
	if ticket.Category == "" {
		ticket.Category = domain.DefaultTicketCategory
	}
	ticket.Status = domain.TicketStatusOpen

	const query = `
        INSERT INTO tickets (ticket_id, user_id, username, status, support_channel_id, category)
        VALUES ($1,$2,$3,$4,$5,$6)
        ON CONFLICT (ticket_id) DO NOTHING
        RETURNING created_at`
	err := r.pool.QueryRow(ctx, query,
		ticket.TicketID,
		ticket.UserID,
		ticket.Username,
		ticket.Status,
		ticket.SupportChannelID,
		ticket.Category,
	).Scan(&ticket.CreatedAt)
	if errors.Is(err, pgx.ErrNoRows) {
		return false, nil
	}
	if err != nil {
		var pgErr *pgconn.PgError
		if errors.As(err, &pgErr) && pgErr.Code == uniqueViolation && pgErr.ConstraintName == openPerUserIndexName {
			return false, domain.ErrOpenTicketExists
		}
		return false, err
	}
	return true, nil
}

func (r *ticketRepository) Close(ctx context.Context, ticketID string) (bool, error) {
	const query = `
        UPDATE tickets SET status=$1, closed_at=NOW()
        WHERE ticket_id=$2 AND status=$3`
	tag, err := r.pool.Exec(ctx, query, domain.TicketStatusClosed, ticketID, domain.TicketStatusOpen)
	if err != nil {
		return false, err
	}
	return tag.RowsAffected() == 1, nil
}

func (r *ticketRepository) GetByTicketID(ctx context.Context, ticketID string) (*domain.Ticket, error) {
	const query = `SELECT ` + ticketColumns + ` FROM tickets WHERE ticket_id=$1`
	return r.fetchSingle(ctx, query, ticketID)
}

func (r *ticketRepository) GetOpenByUser(ctx context.Context, userID string) (*domain.Ticket, error) {
	const query = `SELECT ` + ticketColumns + `
        FROM tickets WHERE user_id=$1 AND status=$2
        ORDER BY created_at ASC LIMIT 1`
	return r.fetchSingle(ctx, query, userID, domain.TicketStatusOpen)
}

func (r *ticketRepository) GetBySupportChannel(ctx context.Context, channelID string, status domain.TicketStatus) (*domain.Ticket, error) {
	const query = `SELECT ` + ticketColumns + `
        FROM tickets WHERE support_channel_id=$1 AND status=$2
        ORDER BY created_at DESC LIMIT 1`
	return r.fetchSingle(ctx, query, channelID, status)
}

func (r *ticketRepository) fetchSingle(ctx context.Context, query string, args ...any) (*domain.Ticket, error) {
	var ticket domain.Ticket
	if err := r.pool.QueryRow(ctx, query, args...).Scan(
		&ticket.TicketID,
		&ticket.UserID,
		&ticket.Username,
		&ticket.Status,
		&ticket.CreatedAt,
		&ticket.ClosedAt,
		&ticket.SupportChannelID,
		&ticket.Category,
	); err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, domain.ErrTicketNotFound
		}
		return nil, err
	}
	return &ticket, nil
}
