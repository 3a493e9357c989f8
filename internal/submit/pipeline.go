// Package submit runs the login and signup flows: validate the form, call
// the identity provider, reconcile the profile document and the session,
// then navigate to the feed.
package submit

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"sync"
	"sync/atomic"
	"time"

	"github.com/and161185/framez/internal/errs"
	"github.com/and161185/framez/internal/form"
	"github.com/and161185/framez/internal/guard"
	"github.com/and161185/framez/internal/model"
	"github.com/and161185/framez/internal/repository"
	"go.uber.org/zap"
)

// Status is the kind of result a submission produced.
type Status int

const (
	// StatusInvalid means the form was not submittable; nothing was sent.
	StatusInvalid Status = iota
	// StatusBusy means another submission was still in flight.
	StatusBusy
	// StatusFailed means the provider or the profile store rejected the request.
	StatusFailed
	// StatusSucceeded means the session is established and navigation fired.
	StatusSucceeded
)

func (s Status) String() string {
	switch s {
	case StatusInvalid:
		return "invalid"
	case StatusBusy:
		return "busy"
	case StatusFailed:
		return "failed"
	case StatusSucceeded:
		return "succeeded"
	default:
		return fmt.Sprintf("Status(%d)", int(s))
	}
}

// Outcome is the result of Login or Signup.
type Outcome struct {
	Status   Status
	Identity *model.Identity // set on success
	Message  string          // user-facing text on failure
	Err      error
}

// SessionRefresher receives the merged identity after a successful submit.
// *session.Store implements it.
type SessionRefresher interface {
	Refresh(ctx context.Context, id model.Identity) error
}

// Pipeline serializes submissions from one screen.
type Pipeline struct {
	provider repository.IdentityProvider
	profiles repository.ProfileRepository
	sessions SessionRefresher
	nav      guard.Navigator
	log      *zap.Logger
	now      func() time.Time

	submitting atomic.Bool

	mu      sync.Mutex
	authErr string
}

// New constructs a pipeline.
func New(provider repository.IdentityProvider, profiles repository.ProfileRepository, sessions SessionRefresher, nav guard.Navigator, log *zap.Logger) *Pipeline {
	if log == nil {
		log = zap.NewNop()
	}
	return &Pipeline{
		provider: provider,
		profiles: profiles,
		sessions: sessions,
		nav:      nav,
		log:      log,
		now:      time.Now,
	}
}

// Submitting reports whether a submission is in flight.
func (p *Pipeline) Submitting() bool { return p.submitting.Load() }

// AuthError returns the message of the last failed submission, or "".
func (p *Pipeline) AuthError() string {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.authErr
}

// Login signs in with the form's email and password.
func (p *Pipeline) Login(ctx context.Context, f *form.Form) Outcome {
	return p.run(f, func() Outcome {
		pr, err := p.provider.SignIn(ctx, strings.TrimSpace(f.Value(form.FieldEmail)), f.Value(form.FieldPassword))
		if err != nil {
			return p.fail(err)
		}
		prof, err := p.profiles.Get(ctx, pr.UID)
		if err != nil {
			if !errors.Is(err, errs.ErrNotFound) {
				p.log.Warn("profile read failed; continuing with provider identity",
					zap.String("uid", pr.UID), zap.Error(err))
			}
			prof = nil
		}
		return p.succeed(ctx, f, model.Merge(pr, prof))
	})
}

// Signup creates the account, then writes its profile document.
func (p *Pipeline) Signup(ctx context.Context, f *form.Form) Outcome {
	return p.run(f, func() Outcome {
		pr, err := p.provider.SignUp(ctx, strings.TrimSpace(f.Value(form.FieldEmail)), f.Value(form.FieldPassword))
		if err != nil {
			return p.fail(err)
		}
		created := p.now().UTC()
		prof := model.Profile{
			Fullname:  strings.TrimSpace(f.Value(form.FieldFullname)),
			Username:  strings.TrimSpace(f.Value(form.FieldUsername)),
			Email:     pr.Email,
			CreatedAt: &created,
		}
		if err := p.profiles.Create(ctx, pr.UID, prof); err != nil {
			p.log.Error("profile write failed after signup", zap.String("uid", pr.UID), zap.Error(err))
			p.setAuthError(GenericMessage)
			return Outcome{
				Status:  StatusFailed,
				Message: GenericMessage,
				Err:     fmt.Errorf("%w: %v", errs.ErrPersistence, err),
			}
		}
		return p.succeed(ctx, f, model.Merge(pr, &prof))
	})
}

// SignOut ends the provider session; the session store follows the
// provider's notification.
func (p *Pipeline) SignOut(ctx context.Context) error {
	return p.provider.SignOut(ctx)
}

// run holds the latch for the whole submission, validation included, so a
// second submit of the same form never reads it while the first resets it.
func (p *Pipeline) run(f *form.Form, body func() Outcome) Outcome {
	if !p.submitting.CompareAndSwap(false, true) {
		return Outcome{Status: StatusBusy}
	}
	defer p.submitting.Store(false)

	if !f.IsValid() {
		f.TouchAll()
		return Outcome{Status: StatusInvalid, Err: errs.ErrValidation}
	}

	p.setAuthError("")
	return body()
}

func (p *Pipeline) succeed(ctx context.Context, f *form.Form, id model.Identity) Outcome {
	if err := p.sessions.Refresh(ctx, id); err != nil {
		p.log.Warn("session refresh failed", zap.String("uid", id.UID), zap.Error(err))
	}
	f.Reset()
	p.nav.Replace(guard.RouteFeed)
	return Outcome{Status: StatusSucceeded, Identity: &id}
}

func (p *Pipeline) fail(err error) Outcome {
	code := errs.CodeOf(err)
	msg := MessageFor(code)
	p.log.Info("authentication rejected", zap.String("code", code))
	p.setAuthError(msg)
	return Outcome{Status: StatusFailed, Message: msg, Err: err}
}

func (p *Pipeline) setAuthError(msg string) {
	p.mu.Lock()
	p.authErr = msg
	p.mu.Unlock()
}
