package repository

import (
	"context"

	"github.com/and161185/framez/internal/media"
	"github.com/and161185/framez/internal/model"
)

// IdentityProvider verifies credentials and reports session changes.
// Rejections are returned as *errs.AuthError.
type IdentityProvider interface {
	// SignIn authenticates an existing account.
	SignIn(ctx context.Context, email, password string) (model.Principal, error)
	// SignUp creates an account and signs it in.
	SignUp(ctx context.Context, email, password string) (model.Principal, error)
	// SignOut ends the current session.
	SignOut(ctx context.Context) error
	// Subscribe registers a session listener; nil means signed out.
	// The returned func unregisters it.
	Subscribe(fn func(*model.Principal)) (unsubscribe func())
}

// MediaUploader stores an image remotely and returns its public URL.
type MediaUploader interface {
	Upload(ctx context.Context, p media.Payload, opts media.Options) (media.Result, error)
}
