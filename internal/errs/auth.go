package errs

import "errors"

// Identity provider error codes.
const (
	CodeUserNotFound      = "user-not-found"
	CodeWrongPassword     = "wrong-password"
	CodeInvalidEmail      = "invalid-email"
	CodeUserDisabled      = "user-disabled"
	CodeTooManyRequests   = "too-many-requests"
	CodeEmailAlreadyInUse = "email-already-in-use"
	CodeWeakPassword      = "weak-password"
	CodeInternal          = "internal-error"
)

// AuthError is returned by an identity provider when it rejects a request.
type AuthError struct {
	Code string
	Err  error // optional cause
}

// NewAuthError builds an AuthError with the given code and cause.
func NewAuthError(code string, cause error) *AuthError {
	return &AuthError{Code: code, Err: cause}
}

func (e *AuthError) Error() string {
	if e.Err != nil {
		return "auth/" + e.Code + ": " + e.Err.Error()
	}
	return "auth/" + e.Code
}

func (e *AuthError) Unwrap() error { return e.Err }

// CodeOf extracts the provider code from err, or "" if err is not an AuthError.
func CodeOf(err error) string {
	var ae *AuthError
	if errors.As(err, &ae) {
		return ae.Code
	}
	return ""
}
