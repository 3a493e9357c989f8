package repository

import (
	"context"

	"github.com/and161185/framez/internal/model"
)

// AccountRepository stores identity provider credentials.
type AccountRepository interface {
	// Create inserts a new account; errs.ErrAlreadyExists if the email is taken.
	Create(ctx context.Context, a *model.Account) error
	// GetByEmail loads an account by its normalized email.
	GetByEmail(ctx context.Context, email string) (*model.Account, error)
	// GetByID loads an account by uid.
	GetByID(ctx context.Context, id string) (*model.Account, error)
	// SetDisabled toggles the disabled flag.
	SetDisabled(ctx context.Context, id string, disabled bool) error
}
