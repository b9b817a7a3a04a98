package repository

import (
	"context"
	"errors"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/spec-kit/techsupport-manager/internal/domain"
)

// AccountRepository encapsulates account persistence.
type AccountRepository interface {
	Create(ctx context.Context, account *domain.Account) error
	GetByID(ctx context.Context, id string) (*domain.Account, error)
	GetByEmail(ctx context.Context, email string) (*domain.Account, error)
}

type accountRepository struct {
	pool *pgxpool.Pool
}

// NewAccountRepository instantiates the Postgres repository.
func NewAccountRepository(pool *pgxpool.Pool) AccountRepository {
	return &accountRepository{pool: pool}
}

func (r *accountRepository) Create(ctx context.Context, account *domain.Account) error {
	const query = `
        INSERT INTO accounts (id, email, password_hash, role, created_at)
        VALUES ($1,$2,$3,$4,$5)`
	_, err := querierOr(ctx, r.pool).Exec(ctx, query,
		account.ID, account.Email, account.PasswordHash, account.Role, account.CreatedAt)
	var pgErr *pgconn.PgError
	if errors.As(err, &pgErr) && pgErr.Code == pgUniqueViolation {
		return domain.NewValidationError("email", "email already registered")
	}
	return err
}

func (r *accountRepository) GetByID(ctx context.Context, id string) (*domain.Account, error) {
	return r.fetch(ctx, `SELECT id, email, password_hash, role, created_at FROM accounts WHERE id=$1`, id)
}

func (r *accountRepository) GetByEmail(ctx context.Context, email string) (*domain.Account, error) {
	return r.fetch(ctx, `SELECT id, email, password_hash, role, created_at FROM accounts WHERE email=$1`, email)
}

func (r *accountRepository) fetch(ctx context.Context, query string, arg any) (*domain.Account, error) {
	var account domain.Account
	err := querierOr(ctx, r.pool).QueryRow(ctx, query, arg).Scan(
		&account.ID, &account.Email, &account.PasswordHash, &account.Role, &account.CreatedAt)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, domain.NewEntityNotFound("Account", toString(arg))
	}
	if err != nil {
		return nil, err
	}
	return &account, nil
}

func toString(v any) string {
	if s, ok := v.(string); ok {
		return s
	}
	return ""
}
