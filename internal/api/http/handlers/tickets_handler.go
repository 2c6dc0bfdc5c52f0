package handlers

import (
	"context"
	"strings"

	"github.com/gofiber/fiber/v2"

	"github.com/spec-kit/ticket-relay/internal/api/dto"
	"github.com/spec-kit/ticket-relay/internal/domain"
	apperrors "github.com/spec-kit/ticket-relay/pkg/util/errorutil"
)

// TicketReader is the read-only ticket surface exposed over HTTP.
type TicketReader interface {
	GetTicket(ctx context.Context, ticketID string) (*domain.Ticket, error)
	History(ctx context.Context, ticketID string) ([]domain.TicketMessage, error)
}

// TicketsHandler serves staff ticket lookups.
type TicketsHandler struct {
	tickets TicketReader
}

// NewTicketsHandler constructs handler.
func NewTicketsHandler(tickets TicketReader) *TicketsHandler {
	return &TicketsHandler{tickets: tickets}
}

// GetTicket GET /tickets/:id.
func (h *TicketsHandler) GetTicket(c *fiber.Ctx) error {
	ticketID := strings.TrimSpace(c.Params("id"))
	if ticketID == "" {
		return apperrors.NewValidationError("ticket id required", nil)
	}

	ticket, err := h.tickets.GetTicket(c.UserContext(), ticketID)
	if err != nil {
		return err
	}
	history, err := h.tickets.History(c.UserContext(), ticket.TicketID)
	if err != nil {
		return err
	}
	return c.JSON(fiber.Map{"data": dto.NewTicketDetail(ticket, history)})
}
