package domain

import "time"

// AccountRole scopes what an authenticated principal may do.
type AccountRole string

const (
	RoleUser  AccountRole = "USER"
	RoleAgent AccountRole = "AGENT"
	RoleAdmin AccountRole = "ADMIN"
)

// ParseRole converts a string into an AccountRole.
func ParseRole(value string) (AccountRole, error) {
	switch AccountRole(value) {
	case RoleUser, RoleAgent, RoleAdmin:
		return AccountRole(value), nil
	}
	return "", NewValidationError("role", "unknown role")
}

// Account is an authenticated principal. Tickets reference accounts by ID as
// creators and assignees; the aggregate itself never loads them.
type Account struct {
	ID           string
	Email        string
	PasswordHash string
	Role         AccountRole
	CreatedAt    time.Time
}
