package errorutil

import (
	"errors"
	"fmt"
	"net/http"

	"github.com/go-playground/validator/v10"
	"github.com/gofiber/fiber/v2"

	"github.com/spec-kit/ticket-relay/internal/domain"
)

// DomainError standardizes application errors.
type DomainError struct {
	Code       string
	Message    string
	HTTPStatus int
	Details    map[string]any
	Err        error
}

func (e *DomainError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("%s: %v", e.Message, e.Err)
	}
	return e.Message
}

func (e *DomainError) Unwrap() error {
	return e.Err
}

// NewDomainError constructs a DomainError.
func NewDomainError(code, message string, status int, details map[string]any) *DomainError {
	return &DomainError{Code: code, Message: message, HTTPStatus: status, Details: details}
}

func NewValidationError(message string, details map[string]any) error {
	return NewDomainError("VALIDATION_FAILED", message, http.StatusBadRequest, details)
}

// FromValidation turns validator failures into a VALIDATION_FAILED error
// whose details map each field to the rule it broke.
func FromValidation(err error) error {
	var validationErrors validator.ValidationErrors
	if !errors.As(err, &validationErrors) {
		return NewValidationError("invalid payload", nil)
	}
	details := make(map[string]any, len(validationErrors))
	for _, ve := range validationErrors {
		details[ve.Field()] = ve.Tag()
	}
	return NewValidationError("invalid payload", details)
}

func NewNotFound(resource string, details map[string]any) error {
	if details == nil {
		details = map[string]any{}
	}
	return NewDomainError("NOT_FOUND", fmt.Sprintf("%s not found", resource), http.StatusNotFound, details)
}

func NewUnauthorized(message string) error {
	return NewDomainError("UNAUTHORIZED", message, http.StatusUnauthorized, nil)
}

func NewForbidden(message string) error {
	return NewDomainError("FORBIDDEN", message, http.StatusForbidden, nil)
}

func NewInternalError(err error) error {
	return &DomainError{
		Code:       "INTERNAL_ERROR",
		Message:    "internal server error",
		HTTPStatus: http.StatusInternalServerError,
		Err:        err,
	}
}

// ToDomainError converts generic errors to DomainError.
func ToDomainError(err error) *DomainError {
	if err == nil {
		return nil
	}
	var domainErr *DomainError
	if errors.As(err, &domainErr) {
		return domainErr
	}
	var fiberErr *fiber.Error
	if errors.As(err, &fiberErr) {
		return &DomainError{Code: codeForStatus(fiberErr.Code), Message: fiberErr.Message, HTTPStatus: fiberErr.Code}
	}
	switch {
	case errors.Is(err, domain.ErrTicketNotFound):
		return &DomainError{Code: "NOT_FOUND", Message: "ticket not found", HTTPStatus: http.StatusNotFound, Err: err}
	case errors.Is(err, domain.ErrPermissionDenied):
		return &DomainError{Code: "FORBIDDEN", Message: "permission denied", HTTPStatus: http.StatusForbidden, Err: err}
	case errors.Is(err, domain.ErrInvalidCredentials):
		return &DomainError{Code: "UNAUTHORIZED", Message: "invalid credentials", HTTPStatus: http.StatusUnauthorized, Err: err}
	case errors.Is(err, domain.ErrOpsAuthDisabled):
		return &DomainError{Code: "AUTH_DISABLED", Message: "token issuing is not configured", HTTPStatus: http.StatusServiceUnavailable, Err: err}
	}
	return NewInternalError(err).(*DomainError)
}

// MapError converts err to a DomainError.
func MapError(err error) error {
	return ToDomainError(err)
}

func codeForStatus(status int) string {
	switch status {
	case http.StatusBadRequest:
		return "VALIDATION_FAILED"
	case http.StatusUnauthorized:
		return "UNAUTHORIZED"
	case http.StatusForbidden:
		return "FORBIDDEN"
	case http.StatusNotFound:
		return "NOT_FOUND"
	case http.StatusMethodNotAllowed:
		return "METHOD_NOT_ALLOWED"
	}
	if status >= http.StatusInternalServerError {
		return "INTERNAL_ERROR"
	}
	return "REQUEST_FAILED"
}
