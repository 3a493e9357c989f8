// Package limiter throttles repeated failed sign-ins per (email, device).
package limiter

import (
	"context"
	"crypto/sha256"
	"strings"
	"time"
)

// Limiter controls sign-in attempts and temporary lockouts.
type Limiter interface {
	// Allow reports whether sign-in is currently allowed and an optional retry-after.
	Allow(ctx context.Context, email string, deviceHash []byte) (bool, time.Duration, error)
	// Success resets counters after a successful sign-in.
	Success(ctx context.Context, email string, deviceHash []byte) error
	// Failure records a failed attempt; may place a temporary block.
	Failure(ctx context.Context, email string, deviceHash []byte) (bool, time.Duration, error)
}

// Config is the sliding-window policy shared by implementations.
type Config struct {
	Window   time.Duration // failures older than this start a new count
	MaxFails int           // failures within Window that trigger a block
	BlockFor time.Duration
}

// DefaultConfig blocks for 15 minutes after 5 failures in 15 minutes.
var DefaultConfig = Config{Window: 15 * time.Minute, MaxFails: 5, BlockFor: 15 * time.Minute}

// HashDevice returns a stable hash of a device identifier so that raw host
// names are never stored.
func HashDevice(device string) []byte {
	h := sha256.Sum256([]byte(device))
	return h[:]
}

// normalize keys accounts case-insensitively.
func normalize(email string) string { return strings.ToLower(strings.TrimSpace(email)) }
