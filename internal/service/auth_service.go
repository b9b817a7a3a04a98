package service

import (
	"context"
	"errors"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/spec-kit/techsupport-manager/internal/auth"
	"github.com/spec-kit/techsupport-manager/internal/config"
	"github.com/spec-kit/techsupport-manager/internal/domain"
	"github.com/spec-kit/techsupport-manager/internal/repository"
)

// AuthService manages account registration and login.
type AuthService struct {
	accounts repository.AccountRepository
	tokens   *auth.TokenManager
	cfg      config.AuthConfig
}

// NewAuthService constructs the service.
func NewAuthService(cfg config.AuthConfig, accounts repository.AccountRepository) *AuthService {
	return &AuthService{
		accounts: accounts,
		tokens:   auth.NewTokenManager(cfg.JWTSecret, cfg.AccessTokenTTLMinutes),
		cfg:      cfg,
	}
}

// TokenManager exposes the manager for middleware wiring.
func (s *AuthService) TokenManager() *auth.TokenManager {
	return s.tokens
}

// Register creates an account. Role defaults to USER when empty.
func (s *AuthService) Register(ctx context.Context, email, password, role string) (*domain.Account, error) {
	email = strings.ToLower(strings.TrimSpace(email))
	if email == "" || !strings.Contains(email, "@") {
		return nil, domain.NewValidationError("email", "valid email is required")
	}
	if len(password) < 8 {
		return nil, domain.NewValidationError("password", "password must be at least 8 characters")
	}
	accountRole := domain.RoleUser
	if role != "" {
		parsed, err := domain.ParseRole(role)
		if err != nil {
			return nil, err
		}
		accountRole = parsed
	}

	hash, err := auth.HashPassword(password, s.cfg.BcryptCost)
	if err != nil {
		return nil, err
	}

	account := &domain.Account{
		ID:           uuid.NewString(),
		Email:        email,
		PasswordHash: hash,
		Role:         accountRole,
		CreatedAt:    time.Now(),
	}
	if err := s.accounts.Create(ctx, account); err != nil {
		return nil, err
	}
	return account, nil
}

// LoginResult carries a signed token and its account.
type LoginResult struct {
	Token     string
	ExpiresAt time.Time
	Account   *domain.Account
}

// Login verifies credentials and issues a token. Invalid credentials and
// unknown accounts are indistinguishable to the caller.
func (s *AuthService) Login(ctx context.Context, email, password string) (*LoginResult, error) {
	email = strings.ToLower(strings.TrimSpace(email))
	account, err := s.accounts.GetByEmail(ctx, email)
	if err != nil {
		var notFound *domain.EntityNotFound
		if errors.As(err, &notFound) {
			return nil, domain.NewValidationError("credentials", "invalid email or password")
		}
		return nil, err
	}
	if err := auth.ComparePassword(account.PasswordHash, password); err != nil {
		return nil, domain.NewValidationError("credentials", "invalid email or password")
	}

	token, expiresAt, err := s.tokens.GenerateToken(account.ID, account.Role)
	if err != nil {
		return nil, err
	}
	return &LoginResult{Token: token, ExpiresAt: expiresAt, Account: account}, nil
}
