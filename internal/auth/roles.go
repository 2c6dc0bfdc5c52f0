package auth

import (
	"net/http"

	"github.com/gofiber/fiber/v2"

	"github.com/spec-kit/ticket-relay/internal/domain"
)

// RequireStaff ensures the caller holds a staff token.
func RequireStaff() fiber.Handler {
	return func(c *fiber.Ctx) error {
		principal, ok := PrincipalFromContext(c)
		if !ok {
			return fiber.NewError(http.StatusUnauthorized, http.StatusText(http.StatusUnauthorized))
		}
		if principal.SubjectType != domain.SubjectTypeStaff {
			return fiber.NewError(http.StatusForbidden, "staff required")
		}
		return c.Next()
	}
}
