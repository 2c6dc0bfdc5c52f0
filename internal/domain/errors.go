package domain

import (
	"errors"
	"fmt"
)

var (
	ErrTicketNotFound       = errors.New("ticket not found")
	ErrTicketAlreadyClosed  = errors.New("ticket already closed")
	ErrOpenTicketExists     = errors.New("user already has an open ticket")
	ErrTicketOpenInProgress = errors.New("ticket creation already in progress")
	ErrPermissionDenied     = errors.New("permission denied")
	ErrTicketIDExhausted    = errors.New("could not allocate a unique ticket id")
)

// AlreadyOpenError is returned instead of creating a second open ticket.
type AlreadyOpenError struct {
	Ticket *Ticket
}

func (e *AlreadyOpenError) Error() string {
	if e.Ticket == nil {
		return ErrOpenTicketExists.Error()
	}
	return fmt.Sprintf("%s: %s", ErrOpenTicketExists, e.Ticket.TicketID)
}

func (e *AlreadyOpenError) Is(target error) bool {
	return target == ErrOpenTicketExists
}

var (
	ErrInvalidCredentials = errors.New("invalid credentials")
	ErrOpsAuthDisabled    = errors.New("ops authentication not configured")
)
