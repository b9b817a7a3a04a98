package dto

import (
	"time"

	"github.com/spec-kit/techsupport-manager/internal/domain"
)

// RegisterRequest payload.
type RegisterRequest struct {
	Email    string `json:"email"`
	Password string `json:"password"`
	Role     string `json:"role,omitempty"`
}

// LoginRequest payload.
type LoginRequest struct {
	Email    string `json:"email"`
	Password string `json:"password"`
}

// AccountResponse is the public account representation.
type AccountResponse struct {
	ID        string             `json:"id"`
	Email     string             `json:"email"`
	Role      domain.AccountRole `json:"role"`
	CreatedAt time.Time          `json:"created_at"`
}

// LoginResponse carries the issued token.
type LoginResponse struct {
	Token     string          `json:"token"`
	ExpiresAt time.Time       `json:"expires_at"`
	Account   AccountResponse `json:"account"`
}

// AccountFromDomain converts an account, omitting the password hash.
func AccountFromDomain(account *domain.Account) AccountResponse {
	return AccountResponse{
		ID:        account.ID,
		Email:     account.Email,
		Role:      account.Role,
		CreatedAt: account.CreatedAt,
	}
}
