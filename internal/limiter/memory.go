package limiter

import (
	"context"
	"sync"
	"time"
)

type counter struct {
	fails        int
	updatedAt    time.Time
	blockedUntil time.Time
}

// Memory is an in-process limiter with the same policy as PG.
type Memory struct {
	cfg Config
	now func() time.Time

	mu sync.Mutex
	m  map[string]*counter
}

var _ Limiter = (*Memory)(nil)

// NewMemory constructs an in-process limiter.
func NewMemory(cfg Config) *Memory {
	return &Memory{cfg: cfg, now: time.Now, m: map[string]*counter{}}
}

func key(email string, deviceHash []byte) string { return normalize(email) + "|" + string(deviceHash) }

// Allow reports whether sign-in is currently allowed.
func (l *Memory) Allow(_ context.Context, email string, deviceHash []byte) (bool, time.Duration, error) {
	l.mu.Lock()
	defer l.mu.Unlock()
	c, ok := l.m[key(email, deviceHash)]
	if !ok {
		return true, 0, nil
	}
	if wait := c.blockedUntil.Sub(l.now()); wait > 0 {
		return false, wait, nil
	}
	return true, 0, nil
}

// Success resets counters.
func (l *Memory) Success(_ context.Context, email string, deviceHash []byte) error {
	l.mu.Lock()
	defer l.mu.Unlock()
	delete(l.m, key(email, deviceHash))
	return nil
}

// Failure records a failed attempt.
func (l *Memory) Failure(_ context.Context, email string, deviceHash []byte) (bool, time.Duration, error) {
	l.mu.Lock()
	defer l.mu.Unlock()
	now := l.now()
	k := key(email, deviceHash)
	c, ok := l.m[k]
	if !ok || now.Sub(c.updatedAt) > l.cfg.Window {
		c = &counter{}
		l.m[k] = c
	}
	c.fails++
	c.updatedAt = now
	if c.fails < l.cfg.MaxFails {
		return false, 0, nil
	}
	c.blockedUntil = now.Add(l.cfg.BlockFor)
	return true, l.cfg.BlockFor, nil
}
