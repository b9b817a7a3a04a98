package service

import (
	"context"
	"errors"
	"testing"

	"github.com/spec-kit/techsupport-manager/internal/config"
	"github.com/spec-kit/techsupport-manager/internal/domain"
	"github.com/spec-kit/techsupport-manager/internal/repository"
)

func newAuthService() *AuthService {
	cfg := config.AuthConfig{
		JWTSecret:             "test-secret",
		AccessTokenTTLMinutes: 15,
		BcryptCost:            4,
	}
	return NewAuthService(cfg, repository.NewMemoryAccountRepository())
}

func TestRegisterAndLogin(t *testing.T) {
	svc := newAuthService()
	ctx := context.Background()

	account, err := svc.Register(ctx, " Alice@Example.com ", "correct-horse", "")
	if err != nil {
		t.Fatalf("Register: %v", err)
	}
	if account.Email != "alice@example.com" {
		t.Errorf("email = %s, want normalized lowercase", account.Email)
	}
	if account.Role != domain.RoleUser {
		t.Errorf("role = %s, want %s", account.Role, domain.RoleUser)
	}
	if account.PasswordHash == "correct-horse" {
		t.Error("password stored in plaintext")
	}

	result, err := svc.Login(ctx, "alice@example.com", "correct-horse")
	if err != nil {
		t.Fatalf("Login: %v", err)
	}
	if result.Token == "" {
		t.Error("no token issued")
	}
	claims, err := svc.TokenManager().ParseToken(result.Token)
	if err != nil {
		t.Fatalf("ParseToken: %v", err)
	}
	if claims.AccountID != account.ID {
		t.Errorf("token account = %s, want %s", claims.AccountID, account.ID)
	}
}

func TestRegisterValidation(t *testing.T) {
	svc := newAuthService()
	ctx := context.Background()

	tests := []struct {
		name      string
		email     string
		password  string
		role      string
		wantField string
	}{
		{"bad email", "not-an-email", "long-enough", "", "email"},
		{"short password", "bob@example.com", "short", "", "password"},
		{"unknown role", "bob@example.com", "long-enough", "SUPERUSER", "role"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := svc.Register(ctx, tt.email, tt.password, tt.role)
			var validation *domain.ValidationError
			if !errors.As(err, &validation) || validation.Field != tt.wantField {
				t.Errorf("err = %v, want ValidationError on %s", err, tt.wantField)
			}
		})
	}
}

func TestRegisterDuplicateEmail(t *testing.T) {
	svc := newAuthService()
	ctx := context.Background()

	if _, err := svc.Register(ctx, "carol@example.com", "long-enough", ""); err != nil {
		t.Fatalf("Register: %v", err)
	}
	_, err := svc.Register(ctx, "CAROL@example.com", "long-enough", "")
	var validation *domain.ValidationError
	if !errors.As(err, &validation) || validation.Field != "email" {
		t.Errorf("err = %v, want ValidationError on email", err)
	}
}

func TestLoginFailuresAreIndistinguishable(t *testing.T) {
	svc := newAuthService()
	ctx := context.Background()

	if _, err := svc.Register(ctx, "dave@example.com", "long-enough", ""); err != nil {
		t.Fatalf("Register: %v", err)
	}

	_, wrongPassword := svc.Login(ctx, "dave@example.com", "wrong-password")
	_, unknownAccount := svc.Login(ctx, "nobody@example.com", "whatever-pw")

	var v1, v2 *domain.ValidationError
	if !errors.As(wrongPassword, &v1) || !errors.As(unknownAccount, &v2) {
		t.Fatalf("errs = %v / %v, want ValidationError for both", wrongPassword, unknownAccount)
	}
	if v1.Message != v2.Message {
		t.Errorf("messages differ: %q vs %q", v1.Message, v2.Message)
	}
}
