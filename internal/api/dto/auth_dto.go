package dto

import "time"

// TokenRequest payload for POST /auth/token.
type TokenRequest struct {
	Password string `json:"password" validate:"required,max=256"`
}

// AuthResponse standard response for auth endpoints.
type AuthResponse struct {
	Token     string    `json:"token"`
	ExpiresAt time.Time `json:"expires_at"`
}
