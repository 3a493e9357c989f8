// Package errs contains sentinel errors used across layers for stable error mapping.
package errs

import "errors"

// Common sentinels across repo/pipeline layers.
var (
	// ErrNotFound indicates the requested document or account does not exist.
	ErrNotFound = errors.New("not found")

	// ErrValidation indicates a form or draft that must not be submitted.
	ErrValidation = errors.New("validation failed")

	// ErrUnauthorized indicates a missing or invalid session.
	ErrUnauthorized = errors.New("unauthorized")

	// ErrRateLimited indicates temporary login lock due to rate limiting.
	ErrRateLimited = errors.New("rate limited")

	// ErrAlreadyExists indicates a unique constraint violation (e.g., email taken).
	ErrAlreadyExists = errors.New("already exists")

	// ErrUpload indicates the media endpoint failed or returned no usable URL.
	ErrUpload = errors.New("upload failed")

	// ErrPersistence indicates a document read/write failure.
	ErrPersistence = errors.New("persistence failed")

	// ErrMalformed indicates stored data that does not match the expected shape.
	ErrMalformed = errors.New("malformed data")
)
