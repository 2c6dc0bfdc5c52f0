package handlers

import (
	"context"
	"net/http"

	"github.com/go-playground/validator/v10"
	"github.com/gofiber/fiber/v2"

	"github.com/spec-kit/ticket-relay/internal/api/dto"
	"github.com/spec-kit/ticket-relay/internal/domain"
	apperrors "github.com/spec-kit/ticket-relay/pkg/util/errorutil"
)

// AdminLogin issues ops tokens.
type AdminLogin interface {
	LoginAdmin(ctx context.Context, password string) (*domain.Token, error)
}

// AuthHandler exposes the token endpoint.
type AuthHandler struct {
	auth     AdminLogin
	validate *validator.Validate
}

// NewAuthHandler constructs handler.
func NewAuthHandler(auth AdminLogin) *AuthHandler {
	return &AuthHandler{auth: auth, validate: validator.New()}
}

// Token handles POST /auth/token.
func (h *AuthHandler) Token(c *fiber.Ctx) error {
	var req dto.TokenRequest
	if err := c.BodyParser(&req); err != nil {
		return fiber.NewError(http.StatusBadRequest, "invalid payload")
	}
	if err := h.validate.Struct(req); err != nil {
		return apperrors.FromValidation(err)
	}

	token, err := h.auth.LoginAdmin(c.UserContext(), req.Password)
	if err != nil {
		return err
	}
	return c.JSON(fiber.Map{
		"data": dto.AuthResponse{Token: token.Value, ExpiresAt: token.ExpiresAt},
	})
}
