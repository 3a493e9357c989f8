package postgres

import (
	"context"
	"errors"

	"github.com/and161185/framez/internal/errs"
	"github.com/and161185/framez/internal/model"
	"github.com/and161185/framez/internal/repository"
	"github.com/jackc/pgx/v5"
)

// AccountRepo implements repository.AccountRepository using PostgreSQL.
type AccountRepo struct{ db *DB }

var _ repository.AccountRepository = (*AccountRepo)(nil)

// NewAccountRepo constructs an account repository.
func NewAccountRepo(db *DB) *AccountRepo { return &AccountRepo{db: db} }

// Create inserts a new account row.
func (r *AccountRepo) Create(ctx context.Context, a *model.Account) error {
	const q = `
INSERT INTO accounts (id, email, pwd_hash, salt, disabled)
VALUES ($1, $2, $3, $4, $5)`
	_, err := r.db.Pool.Exec(ctx, q, a.ID, a.Email, a.PwdHash, a.Salt, a.Disabled)
	if isUniqueViolation(err) {
		return errs.ErrAlreadyExists
	}
	return err
}

// GetByEmail selects an account by email.
func (r *AccountRepo) GetByEmail(ctx context.Context, email string) (*model.Account, error) {
	const q = `
SELECT id, email, pwd_hash, salt, disabled, created_at
FROM accounts WHERE email=$1`
	return r.scanOne(ctx, q, email)
}

// GetByID selects an account by uid.
func (r *AccountRepo) GetByID(ctx context.Context, id string) (*model.Account, error) {
	const q = `
SELECT id, email, pwd_hash, salt, disabled, created_at
FROM accounts WHERE id=$1`
	return r.scanOne(ctx, q, id)
}

// SetDisabled updates the disabled flag.
func (r *AccountRepo) SetDisabled(ctx context.Context, id string, disabled bool) error {
	const q = `UPDATE accounts SET disabled=$2 WHERE id=$1`
	tag, err := r.db.Pool.Exec(ctx, q, id, disabled)
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return errs.ErrNotFound
	}
	return nil
}

func (r *AccountRepo) scanOne(ctx context.Context, q string, arg any) (*model.Account, error) {
	var a model.Account
	err := r.db.Pool.QueryRow(ctx, q, arg).Scan(&a.ID, &a.Email, &a.PwdHash, &a.Salt, &a.Disabled, &a.CreatedAt)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, errs.ErrNotFound
		}
		return nil, err
	}
	return &a, nil
}
