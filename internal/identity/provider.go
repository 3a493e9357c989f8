// Package identity is the email/password identity provider used by the
// client. Accounts live behind a repository.AccountRepository, failed
// sign-ins are throttled per (email, device), and the signed-in session is
// persisted as a JWT so it survives restarts.
package identity

import (
	"context"
	"errors"
	"os"
	"regexp"
	"strings"
	"sync"
	"time"
	"unicode/utf8"

	"github.com/and161185/framez/internal/crypto"
	"github.com/and161185/framez/internal/errs"
	"github.com/and161185/framez/internal/limiter"
	"github.com/and161185/framez/internal/model"
	"github.com/and161185/framez/internal/repository"
	"github.com/gofrs/uuid/v5"
	"go.uber.org/zap"
)

// MinPasswordLen is the shortest password accepted by SignUp.
const MinPasswordLen = 6

var emailShape = regexp.MustCompile(`^\S+@\S+\.\S+$`)

// Config holds provider settings.
type Config struct {
	SignKey  []byte
	TokenTTL time.Duration
	Tokens   TokenStore
	Device   string // limiter key; defaults to the host name
	Params   crypto.Params
}

// Provider implements repository.IdentityProvider.
type Provider struct {
	accounts repository.AccountRepository
	lim      limiter.Limiter
	cfg      Config
	device   []byte
	log      *zap.Logger
	now      func() time.Time

	emitMu sync.Mutex // serializes state change + notification

	mu        sync.Mutex
	current   *model.Principal
	listeners map[uint64]func(*model.Principal)
	nextID    uint64
}

var _ repository.IdentityProvider = (*Provider)(nil)

// New constructs a provider. Call Restore to pick up a persisted session.
func New(accounts repository.AccountRepository, lim limiter.Limiter, cfg Config, log *zap.Logger) *Provider {
	if log == nil {
		log = zap.NewNop()
	}
	if cfg.TokenTTL <= 0 {
		cfg.TokenTTL = 30 * 24 * time.Hour
	}
	if cfg.Params == (crypto.Params{}) {
		cfg.Params = crypto.DefaultParams
	}
	if cfg.Device == "" {
		cfg.Device, _ = os.Hostname()
	}
	return &Provider{
		accounts:  accounts,
		lim:       lim,
		cfg:       cfg,
		device:    limiter.HashDevice(cfg.Device),
		log:       log,
		now:       time.Now,
		listeners: map[uint64]func(*model.Principal){},
	}
}

// Restore loads the persisted token and, if it is valid and its account is
// still enabled, makes it the current session. Unusable tokens are removed.
func (p *Provider) Restore(ctx context.Context) error {
	raw, err := p.cfg.Tokens.Load()
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return nil
		}
		p.log.Warn("session token unreadable", zap.Error(err))
		return p.cfg.Tokens.Clear()
	}
	c, err := parseToken(p.cfg.SignKey, raw)
	if err != nil {
		p.log.Info("session token rejected", zap.Error(err))
		return p.cfg.Tokens.Clear()
	}
	acc, err := p.accounts.GetByID(ctx, c.Subject)
	switch {
	case errors.Is(err, errs.ErrNotFound):
		return p.cfg.Tokens.Clear()
	case err != nil:
		return err
	case acc.Disabled:
		return p.cfg.Tokens.Clear()
	}
	p.set(&model.Principal{UID: acc.ID, Email: acc.Email})
	return nil
}

// Current returns the signed-in principal, or nil.
func (p *Provider) Current() *model.Principal {
	p.mu.Lock()
	defer p.mu.Unlock()
	if p.current == nil {
		return nil
	}
	cp := *p.current
	return &cp
}

// SignIn verifies credentials under the sign-in limiter.
func (p *Provider) SignIn(ctx context.Context, email, password string) (model.Principal, error) {
	email = normalizeEmail(email)
	if !emailShape.MatchString(email) {
		return model.Principal{}, errs.NewAuthError(errs.CodeInvalidEmail, nil)
	}

	allowed, wait, err := p.lim.Allow(ctx, email, p.device)
	if err != nil {
		return model.Principal{}, internal(err)
	}
	if !allowed {
		p.log.Info("sign-in throttled", zap.Duration("retry_after", wait))
		return model.Principal{}, errs.NewAuthError(errs.CodeTooManyRequests, errs.ErrRateLimited)
	}

	acc, err := p.accounts.GetByEmail(ctx, email)
	if err != nil {
		if !errors.Is(err, errs.ErrNotFound) {
			return model.Principal{}, internal(err)
		}
		return model.Principal{}, p.failure(ctx, email, errs.CodeUserNotFound)
	}
	if !p.cfg.Params.Verify([]byte(password), acc.Salt, acc.PwdHash) {
		return model.Principal{}, p.failure(ctx, email, errs.CodeWrongPassword)
	}
	if acc.Disabled {
		return model.Principal{}, errs.NewAuthError(errs.CodeUserDisabled, nil)
	}
	if err := p.lim.Success(ctx, email, p.device); err != nil {
		p.log.Warn("limiter reset failed", zap.Error(err))
	}

	pr := model.Principal{UID: acc.ID, Email: acc.Email}
	if err := p.persist(pr); err != nil {
		return model.Principal{}, internal(err)
	}
	p.set(&pr)
	return pr, nil
}

// SignUp creates an account and signs it in.
func (p *Provider) SignUp(ctx context.Context, email, password string) (model.Principal, error) {
	email = normalizeEmail(email)
	if !emailShape.MatchString(email) {
		return model.Principal{}, errs.NewAuthError(errs.CodeInvalidEmail, nil)
	}
	if utf8.RuneCountInString(password) < MinPasswordLen {
		return model.Principal{}, errs.NewAuthError(errs.CodeWeakPassword, nil)
	}

	uid, err := uuid.NewV4()
	if err != nil {
		return model.Principal{}, internal(err)
	}
	hash, salt, err := p.cfg.Params.NewCredential([]byte(password))
	if err != nil {
		return model.Principal{}, internal(err)
	}
	acc := &model.Account{ID: uid.String(), Email: email, PwdHash: hash, Salt: salt}
	if err := p.accounts.Create(ctx, acc); err != nil {
		if errors.Is(err, errs.ErrAlreadyExists) {
			return model.Principal{}, errs.NewAuthError(errs.CodeEmailAlreadyInUse, err)
		}
		return model.Principal{}, internal(err)
	}
	p.log.Info("account created", zap.String("uid", acc.ID))

	pr := model.Principal{UID: acc.ID, Email: acc.Email}
	if err := p.persist(pr); err != nil {
		return model.Principal{}, internal(err)
	}
	p.set(&pr)
	return pr, nil
}

// SignOut forgets the persisted token and reports the signed-out state.
func (p *Provider) SignOut(context.Context) error {
	if err := p.cfg.Tokens.Clear(); err != nil {
		return err
	}
	p.set(nil)
	return nil
}

// Subscribe registers fn and immediately reports the current state to it.
func (p *Provider) Subscribe(fn func(*model.Principal)) func() {
	p.emitMu.Lock()
	p.mu.Lock()
	id := p.nextID
	p.nextID++
	p.listeners[id] = fn
	cur := clonePrincipal(p.current)
	p.mu.Unlock()
	fn(cur)
	p.emitMu.Unlock()

	return func() {
		p.mu.Lock()
		delete(p.listeners, id)
		p.mu.Unlock()
	}
}

func (p *Provider) set(pr *model.Principal) {
	p.emitMu.Lock()
	defer p.emitMu.Unlock()

	p.mu.Lock()
	p.current = clonePrincipal(pr)
	fns := make([]func(*model.Principal), 0, len(p.listeners))
	for _, fn := range p.listeners {
		fns = append(fns, fn)
	}
	p.mu.Unlock()

	for _, fn := range fns {
		fn(clonePrincipal(pr))
	}
}

func (p *Provider) persist(pr model.Principal) error {
	tok, exp, err := issueToken(p.cfg.SignKey, p.cfg.TokenTTL, pr.UID, pr.Email, p.now())
	if err != nil {
		return err
	}
	return p.cfg.Tokens.Save(tok, exp)
}

// failure records a failed attempt; reaching the threshold turns the
// rejection into too-many-requests.
func (p *Provider) failure(ctx context.Context, email, code string) error {
	blocked, _, err := p.lim.Failure(ctx, email, p.device)
	if err != nil {
		p.log.Warn("limiter failure not recorded", zap.Error(err))
	}
	if blocked {
		return errs.NewAuthError(errs.CodeTooManyRequests, errs.ErrRateLimited)
	}
	return errs.NewAuthError(code, errs.ErrUnauthorized)
}

func internal(err error) error { return errs.NewAuthError(errs.CodeInternal, err) }

func normalizeEmail(s string) string { return strings.ToLower(strings.TrimSpace(s)) }

func clonePrincipal(p *model.Principal) *model.Principal {
	if p == nil {
		return nil
	}
	cp := *p
	return &cp
}
