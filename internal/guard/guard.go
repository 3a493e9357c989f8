package guard

import (
	"sync"

	"github.com/and161185/framez/internal/model"
	"go.uber.org/zap"
)

// Decide returns the redirect target for the session at the given location,
// or false when no navigation is needed. Nothing is decided while loading.
func Decide(s model.Session, at Group) (Route, bool) {
	if s.Loading {
		return "", false
	}
	inAuth := at == GroupAuth
	switch {
	case s.Identity != nil && inAuth:
		return RouteFeed, true
	case s.Identity == nil && !inAuth:
		return RouteLogin, true
	default:
		return "", false
	}
}

// Navigator performs a replace-navigation.
type Navigator interface {
	Replace(to Route)
}

// NavigatorFunc adapts a function to Navigator.
type NavigatorFunc func(to Route)

// Replace calls f(to).
func (f NavigatorFunc) Replace(to Route) { f(to) }

// SessionSource is what the guard observes.
type SessionSource interface {
	State() model.Session
	Subscribe(fn func(model.Session)) (cancel func())
}

type inputs struct {
	loading bool
	authed  bool
	group   Group
}

// Guard runs Decide whenever the session or location changes and navigates
// at most once per actual input transition.
type Guard struct {
	nav Navigator
	log *zap.Logger

	mu      sync.Mutex
	session model.Session
	group   Group
	last    *inputs
}

// New constructs a guard positioned at the given route.
func New(nav Navigator, at Route, log *zap.Logger) *Guard {
	if log == nil {
		log = zap.NewNop()
	}
	return &Guard{
		nav:     nav,
		log:     log,
		session: model.Session{Loading: true},
		group:   GroupOf(at),
	}
}

// Attach subscribes the guard to a session source and evaluates its current
// state. A snapshot read here that is older than a notification already
// observed is ignored.
func (g *Guard) Attach(src SessionSource) (detach func()) {
	cancel := src.Subscribe(g.Observe)
	g.Observe(src.State())
	return cancel
}

// Observe feeds a new session state. States with a lower Version than the
// last one observed are stale and dropped.
func (g *Guard) Observe(s model.Session) {
	g.mu.Lock()
	if s.Version < g.session.Version {
		g.mu.Unlock()
		g.log.Debug("stale session state ignored", zap.Uint64("version", s.Version))
		return
	}
	g.session = s
	to, ok := g.evaluateLocked()
	g.mu.Unlock()
	g.fire(to, ok)
}

// SetLocation feeds a new current route.
func (g *Guard) SetLocation(at Route) {
	g.mu.Lock()
	g.group = GroupOf(at)
	to, ok := g.evaluateLocked()
	g.mu.Unlock()
	g.fire(to, ok)
}

// Location returns the current group.
func (g *Guard) Location() Group {
	g.mu.Lock()
	defer g.mu.Unlock()
	return g.group
}

func (g *Guard) evaluateLocked() (Route, bool) {
	in := inputs{loading: g.session.Loading, authed: g.session.Identity != nil, group: g.group}
	if g.last != nil && *g.last == in {
		return "", false
	}
	g.last = &in
	to, ok := Decide(g.session, g.group)
	if ok {
		// the redirect moves us; the next evaluation starts from the target
		g.group = GroupOf(to)
		g.last = &inputs{loading: in.loading, authed: in.authed, group: g.group}
	}
	return to, ok
}

func (g *Guard) fire(to Route, ok bool) {
	if !ok {
		return
	}
	g.log.Debug("guard redirect", zap.String("to", string(to)))
	g.nav.Replace(to)
}
