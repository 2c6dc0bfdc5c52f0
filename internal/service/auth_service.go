package service

import (
	"context"
	"strings"

	"go.uber.org/zap"

	"github.com/spec-kit/ticket-relay/internal/auth"
	"github.com/spec-kit/ticket-relay/internal/config"
	"github.com/spec-kit/ticket-relay/internal/domain"
)

const adminSubjectID = "admin"

// AuthService issues ops API tokens to the operator holding the admin password.
type AuthService struct {
	passwordHash string
	tokenMgr     *auth.TokenManager
	logger       *zap.Logger
}

// NewAuthService builds the service.
func NewAuthService(cfg config.AuthConfig, logger *zap.Logger) *AuthService {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &AuthService{
		passwordHash: strings.TrimSpace(cfg.AdminPasswordHash),
		tokenMgr:     auth.NewTokenManager(cfg.JWTSecret, cfg.AccessTokenTTL()),
		logger:       logger,
	}
}

// Enabled reports whether an admin password hash and a signing secret were configured.
func (s *AuthService) Enabled() bool {
	return s.passwordHash != "" && s.tokenMgr.Configured()
}

// LoginAdmin checks password against the configured hash and returns a staff token.
func (s *AuthService) LoginAdmin(_ context.Context, password string) (*domain.Token, error) {
	if !s.Enabled() {
		return nil, domain.ErrOpsAuthDisabled
	}
	if err := auth.ComparePassword(s.passwordHash, password); err != nil {
		s.logger.Warn("ops login rejected", zap.Error(err))
		return nil, domain.ErrInvalidCredentials
	}
	return s.tokenMgr.GenerateToken(adminSubjectID, domain.SubjectTypeStaff)
}

// TokenManager exposes the underlying token manager for middleware usage.
func (s *AuthService) TokenManager() *auth.TokenManager {
	return s.tokenMgr
}
