package memory

import (
	"context"
	"sync"
	"time"

	"github.com/and161185/framez/internal/errs"
	"github.com/and161185/framez/internal/model"
	"github.com/and161185/framez/internal/repository"
)

// AccountRepo keeps accounts in a map keyed by id with an email index.
type AccountRepo struct {
	mu      sync.RWMutex
	byID    map[string]*model.Account
	byEmail map[string]string
}

var _ repository.AccountRepository = (*AccountRepo)(nil)

// NewAccountRepo constructs an empty account repository.
func NewAccountRepo() *AccountRepo {
	return &AccountRepo{byID: map[string]*model.Account{}, byEmail: map[string]string{}}
}

func (r *AccountRepo) Create(_ context.Context, a *model.Account) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if _, ok := r.byEmail[a.Email]; ok {
		return errs.ErrAlreadyExists
	}
	if _, ok := r.byID[a.ID]; ok {
		return errs.ErrAlreadyExists
	}
	cp := *a
	if cp.CreatedAt.IsZero() {
		cp.CreatedAt = time.Now().UTC()
	}
	r.byID[a.ID] = &cp
	r.byEmail[a.Email] = a.ID
	return nil
}

func (r *AccountRepo) GetByEmail(ctx context.Context, email string) (*model.Account, error) {
	r.mu.RLock()
	id, ok := r.byEmail[email]
	r.mu.RUnlock()
	if !ok {
		return nil, errs.ErrNotFound
	}
	return r.GetByID(ctx, id)
}

func (r *AccountRepo) GetByID(_ context.Context, id string) (*model.Account, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	a, ok := r.byID[id]
	if !ok {
		return nil, errs.ErrNotFound
	}
	cp := *a
	return &cp, nil
}

func (r *AccountRepo) SetDisabled(_ context.Context, id string, disabled bool) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	a, ok := r.byID[id]
	if !ok {
		return errs.ErrNotFound
	}
	a.Disabled = disabled
	return nil
}
