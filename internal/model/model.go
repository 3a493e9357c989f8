// Package model defines domain entities shared by the session store, pipelines and repositories.
package model

import "time"

// Principal is what the identity provider reports for an authenticated session.
type Principal struct {
	UID   string // provider-issued, immutable
	Email string
}

// Profile is the supplementary user data stored in the framez_users collection.
type Profile struct {
	Fullname  string
	Username  string
	Email     string
	CreatedAt *time.Time
}

// Identity is the signed-in user as seen by the client.
// UID and Email come from the provider; the rest comes from the profile document.
type Identity struct {
	UID       string
	Email     string
	Fullname  string
	Username  string
	CreatedAt *time.Time
}

// Session is the process-wide authentication state.
type Session struct {
	Identity *Identity // nil when signed out
	Loading  bool      // true until the provider reports for the first time
	Version  uint64    // incremented by the owner on every change
}

// Authenticated reports whether the session carries an identity.
func (s Session) Authenticated() bool { return s.Identity != nil }

// Account is a credential record held by the identity provider backend.
type Account struct {
	ID        string // uid
	Email     string // unique, lower-cased
	PwdHash   []byte // Argon2id(password, Salt)
	Salt      []byte
	Disabled  bool
	CreatedAt time.Time
}

// Post is a published text/image entry.
type Post struct {
	ID        string
	Text      string
	ImageURL  *string // nil for text-only posts
	UserID    string
	Username  string
	CreatedAt *time.Time // server assigned; nil if the document lacks it
}

// AnonymousUsername is used for posts whose author has no username.
const AnonymousUsername = "Anonymous"
