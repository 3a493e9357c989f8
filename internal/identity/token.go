package identity

import (
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/golang-jwt/jwt/v5"
)

type claims struct {
	Email string `json:"email"`
	jwt.RegisteredClaims
}

// issueToken creates a signed HS256 JWT for uid.
func issueToken(key []byte, ttl time.Duration, uid, email string, now time.Time) (string, time.Time, error) {
	exp := now.Add(ttl)
	c := claims{
		Email: email,
		RegisteredClaims: jwt.RegisteredClaims{
			Subject:   uid,
			IssuedAt:  jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(exp),
		},
	}
	signed, err := jwt.NewWithClaims(jwt.SigningMethodHS256, c).SignedString(key)
	return signed, exp, err
}

// parseToken verifies signature and expiry and returns the claims.
func parseToken(key []byte, raw string) (*claims, error) {
	var c claims
	_, err := jwt.ParseWithClaims(raw, &c, func(*jwt.Token) (any, error) { return key, nil },
		jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}),
		jwt.WithExpirationRequired(),
	)
	if err != nil {
		return nil, err
	}
	if c.Subject == "" {
		return nil, errors.New("token without subject")
	}
	return &c, nil
}

type tokenFile struct {
	AccessToken string    `json:"access_token"`
	ExpiresAt   time.Time `json:"expires_at"`
}

// TokenStore persists the signed session token between runs.
type TokenStore struct{ Path string }

// DefaultTokenPath returns $XDG_CONFIG_HOME/framez/session.json, falling
// back to ~/.config/framez.
func DefaultTokenPath() string {
	if v := os.Getenv("XDG_CONFIG_HOME"); v != "" {
		return filepath.Join(v, "framez", "session.json")
	}
	home, _ := os.UserHomeDir()
	return filepath.Join(home, ".config", "framez", "session.json")
}

// Save writes the token with owner-only permissions.
func (s TokenStore) Save(tok string, exp time.Time) error {
	if s.Path == "" {
		return nil
	}
	if err := os.MkdirAll(filepath.Dir(s.Path), 0o700); err != nil {
		return err
	}
	b, err := json.MarshalIndent(tokenFile{AccessToken: tok, ExpiresAt: exp}, "", "  ")
	if err != nil {
		return err
	}
	return os.WriteFile(s.Path, b, 0o600)
}

// Load returns the saved token; os.ErrNotExist when there is none or it has expired.
func (s TokenStore) Load() (string, error) {
	if s.Path == "" {
		return "", os.ErrNotExist
	}
	b, err := os.ReadFile(s.Path)
	if err != nil {
		return "", err
	}
	var tf tokenFile
	if err := json.Unmarshal(b, &tf); err != nil {
		return "", fmt.Errorf("token file: %w", err)
	}
	if tf.AccessToken == "" || time.Now().After(tf.ExpiresAt) {
		return "", os.ErrNotExist
	}
	return tf.AccessToken, nil
}

// Clear removes the token file; a missing file is not an error.
func (s TokenStore) Clear() error {
	if s.Path == "" {
		return nil
	}
	if err := os.Remove(s.Path); err != nil && !errors.Is(err, os.ErrNotExist) {
		return err
	}
	return nil
}
