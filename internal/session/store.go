// Package session owns the client's authentication state. A single writer
// goroutine applies provider events and profile refreshes in order and
// notifies observers after every change.
package session

import (
	"context"
	"errors"
	"sync"
	"time"

	"github.com/and161185/framez/internal/errs"
	"github.com/and161185/framez/internal/model"
	"github.com/and161185/framez/internal/repository"
	"go.uber.org/zap"
)

// EventKind distinguishes provider notifications.
type EventKind int

const (
	// Unauthenticated reports that no principal is signed in.
	Unauthenticated EventKind = iota
	// Authenticated reports a signed-in principal.
	Authenticated
)

// Event is a discrete provider notification.
type Event struct {
	Kind      EventKind
	Principal model.Principal
}

type command struct {
	event   *Event
	refresh *model.Identity
	ack     chan struct{} // closed after apply, may be nil
}

// Options tune the store.
type Options struct {
	// ProfileTimeout bounds the profile fetch per event; zero means no bound.
	ProfileTimeout time.Duration
	// QueueSize is the event buffer; defaults to 16.
	QueueSize int
}

// Store is the single owner of model.Session.
type Store struct {
	profiles repository.ProfileRepository
	log      *zap.Logger
	opts     Options

	cmds   chan command
	quit   chan struct{}
	done   chan struct{}
	ready  chan struct{}
	ctx    context.Context
	cancel context.CancelFunc

	unsubscribe func()
	closeOnce   sync.Once

	mu    sync.RWMutex
	state model.Session

	subsMu  sync.Mutex
	subs    map[uint64]func(model.Session)
	nextSub uint64
}

// NewStore starts the writer goroutine and registers exactly one provider
// listener. Call Close to release both.
func NewStore(provider repository.IdentityProvider, profiles repository.ProfileRepository, log *zap.Logger, opts Options) *Store {
	if log == nil {
		log = zap.NewNop()
	}
	if opts.QueueSize <= 0 {
		opts.QueueSize = 16
	}
	ctx, cancel := context.WithCancel(context.Background())
	s := &Store{
		profiles: profiles,
		log:      log,
		opts:     opts,
		cmds:     make(chan command, opts.QueueSize),
		quit:     make(chan struct{}),
		done:     make(chan struct{}),
		ready:    make(chan struct{}),
		ctx:      ctx,
		cancel:   cancel,
		state:    model.Session{Loading: true},
		subs:     map[uint64]func(model.Session){},
	}
	go s.run()
	s.unsubscribe = provider.Subscribe(s.onProviderChange)
	return s
}

// State returns a snapshot of the session.
func (s *Store) State() model.Session {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return snapshot(s.state)
}

// Ready is closed once the provider has reported for the first time.
func (s *Store) Ready() <-chan struct{} { return s.ready }

// WaitReady blocks until the first provider report or ctx ends.
func (s *Store) WaitReady(ctx context.Context) error {
	select {
	case <-s.ready:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}

// Subscribe registers an observer called on the writer goroutine after every
// change. Observers must not call Refresh synchronously.
func (s *Store) Subscribe(fn func(model.Session)) (cancel func()) {
	s.subsMu.Lock()
	id := s.nextSub
	s.nextSub++
	s.subs[id] = fn
	s.subsMu.Unlock()
	return func() {
		s.subsMu.Lock()
		delete(s.subs, id)
		s.subsMu.Unlock()
	}
}

// Refresh replaces the profile fields of the current identity. It is applied
// only if the session still belongs to id.UID; it returns once applied.
func (s *Store) Refresh(ctx context.Context, id model.Identity) error {
	if id.UID == "" {
		return errors.New("refresh: empty uid")
	}
	return s.apply(ctx, command{refresh: &id})
}

// Sync returns once every change queued before the call has been applied.
func (s *Store) Sync(ctx context.Context) error {
	return s.apply(ctx, command{})
}

// Close unregisters the provider listener and stops the writer.
func (s *Store) Close() {
	s.closeOnce.Do(func() {
		if s.unsubscribe != nil {
			s.unsubscribe()
		}
		close(s.quit)
		s.cancel()
		<-s.done
	})
}

func (s *Store) onProviderChange(p *model.Principal) {
	ev := Event{Kind: Unauthenticated}
	if p != nil {
		ev = Event{Kind: Authenticated, Principal: *p}
	}
	_ = s.enqueue(context.Background(), command{event: &ev})
}

// apply enqueues c and waits for the writer to process it.
func (s *Store) apply(ctx context.Context, c command) error {
	c.ack = make(chan struct{})
	if err := s.enqueue(ctx, c); err != nil {
		return err
	}
	select {
	case <-c.ack:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	case <-s.done:
		return errors.New("session store closed")
	}
}

func (s *Store) enqueue(ctx context.Context, c command) error {
	select {
	case s.cmds <- c:
		return nil
	case <-s.quit:
		return errors.New("session store closed")
	case <-ctx.Done():
		return ctx.Err()
	}
}

func (s *Store) run() {
	defer close(s.done)
	for {
		select {
		case <-s.quit:
			return
		case c := <-s.cmds:
			switch {
			case c.event != nil:
				s.applyEvent(*c.event)
			case c.refresh != nil:
				s.applyRefresh(*c.refresh)
			}
			if c.ack != nil {
				close(c.ack)
			}
		}
	}
}

func (s *Store) applyEvent(ev Event) {
	var next *model.Identity
	if ev.Kind == Authenticated {
		id := model.Merge(ev.Principal, s.fetchProfile(ev.Principal.UID))
		next = &id
	}

	s.mu.Lock()
	first := s.state.Loading
	s.state = model.Session{Identity: next, Loading: false, Version: s.state.Version + 1}
	snap := snapshot(s.state)
	s.mu.Unlock()

	if first {
		close(s.ready)
	}
	s.log.Debug("session changed",
		zap.Bool("authenticated", next != nil),
		zap.Bool("first", first),
	)
	s.notify(snap)
}

func (s *Store) applyRefresh(id model.Identity) {
	s.mu.Lock()
	cur := s.state.Identity
	if cur == nil || cur.UID != id.UID {
		s.mu.Unlock()
		s.log.Debug("stale session refresh dropped", zap.String("uid", id.UID))
		return
	}
	if id.Email == "" {
		id.Email = cur.Email
	}
	s.state.Identity = &id
	s.state.Version++
	snap := snapshot(s.state)
	s.mu.Unlock()
	s.notify(snap)
}

// fetchProfile never fails the session: any error degrades to no profile.
func (s *Store) fetchProfile(uid string) *model.Profile {
	if s.profiles == nil {
		return nil
	}
	ctx := s.ctx
	if s.opts.ProfileTimeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, s.opts.ProfileTimeout)
		defer cancel()
	}
	prof, err := s.profiles.Get(ctx, uid)
	if err != nil {
		if !errors.Is(err, errs.ErrNotFound) {
			s.log.Warn("profile fetch failed; using provider identity",
				zap.String("uid", uid),
				zap.Error(err),
			)
		}
		return nil
	}
	return prof
}

func (s *Store) notify(snap model.Session) {
	s.subsMu.Lock()
	fns := make([]func(model.Session), 0, len(s.subs))
	for _, fn := range s.subs {
		fns = append(fns, fn)
	}
	s.subsMu.Unlock()
	for _, fn := range fns {
		fn(snapshot(snap))
	}
}

func snapshot(st model.Session) model.Session {
	if st.Identity == nil {
		return st
	}
	id := *st.Identity
	if id.CreatedAt != nil {
		t := *id.CreatedAt
		id.CreatedAt = &t
	}
	st.Identity = &id
	return st
}
