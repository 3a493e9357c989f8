package main

import (
	"context"
	"errors"
	"io"
	"sync"

	"go.uber.org/zap"

	"github.com/and161185/framez/internal/config"
	"github.com/and161185/framez/internal/crypto"
	"github.com/and161185/framez/internal/feed"
	"github.com/and161185/framez/internal/guard"
	"github.com/and161185/framez/internal/identity"
	"github.com/and161185/framez/internal/limiter"
	"github.com/and161185/framez/internal/media"
	"github.com/and161185/framez/internal/publish"
	"github.com/and161185/framez/internal/repository"
	"github.com/and161185/framez/internal/repository/memory"
	"github.com/and161185/framez/internal/repository/postgres"
	"github.com/and161185/framez/internal/session"
	"github.com/and161185/framez/internal/submit"
)

// navigator remembers where the core asked to go.
type navigator struct {
	mu sync.Mutex
	to []guard.Route
}

func (n *navigator) Replace(to guard.Route) {
	n.mu.Lock()
	n.to = append(n.to, to)
	n.mu.Unlock()
}

func (n *navigator) reset() {
	n.mu.Lock()
	n.to = nil
	n.mu.Unlock()
}

// take returns and forgets the first pending navigation.
func (n *navigator) take() (guard.Route, bool) {
	n.mu.Lock()
	defer n.mu.Unlock()
	if len(n.to) == 0 {
		return "", false
	}
	to := n.to[0]
	n.to = nil
	return to, true
}

// app wires the core for one process.
type app struct {
	cfg    config.Config
	log    *zap.Logger
	out    io.Writer
	errOut io.Writer

	db       *postgres.DB // nil for the memory store
	provider *identity.Provider
	sessions *session.Store
	nav      *navigator
	submit   *submit.Pipeline
	publish  *publish.Pipeline
	feed     *feed.Service
}

func newApp(ctx context.Context, cfg config.Config, log *zap.Logger, out, errOut io.Writer) (*app, error) {
	a := &app{cfg: cfg, log: log, out: out, errOut: errOut, nav: &navigator{}}

	var (
		docs     repository.DocumentStore
		accounts repository.AccountRepository
		lim      limiter.Limiter
		limCfg   = limiter.Config{Window: cfg.Limiter.Window, MaxFails: cfg.Limiter.MaxFails, BlockFor: cfg.Limiter.BlockFor}
	)
	switch cfg.Store {
	case config.StoreMemory:
		docs = memory.NewDocumentStore()
		accounts = memory.NewAccountRepo()
		lim = limiter.NewMemory(limCfg)
		if cfg.JWTKey == "" {
			key, err := crypto.RandBytes(32)
			if err != nil {
				return nil, err
			}
			cfg.JWTKey = string(key)
		}
	case config.StorePostgres:
		db, err := postgres.New(ctx, cfg.DatabaseDSN)
		if err != nil {
			return nil, err
		}
		a.db = db
		docs = postgres.NewDocumentStore(db)
		accounts = postgres.NewAccountRepo(db)
		lim = limiter.NewPG(db.Pool, limCfg)
	default:
		return nil, errors.New("unknown store " + cfg.Store)
	}

	profiles := repository.NewProfileRepo(docs)
	posts := repository.NewPostRepo(docs)

	a.provider = identity.New(accounts, lim, identity.Config{
		SignKey:  []byte(cfg.JWTKey),
		TokenTTL: cfg.TokenTTL,
		Tokens:   identity.TokenStore{Path: cfg.TokenPath()},
		Device:   cfg.Device,
	}, log.Named("identity"))
	if err := a.provider.Restore(ctx); err != nil {
		a.close()
		return nil, err
	}

	a.sessions = session.NewStore(a.provider, profiles, log.Named("session"), session.Options{})
	if err := a.sessions.WaitReady(ctx); err != nil {
		a.close()
		return nil, err
	}

	uploader := media.NewUploader(media.Config{
		BaseURL:      cfg.Media.BaseURL,
		CloudName:    cfg.Media.CloudName,
		UploadPreset: cfg.Media.UploadPreset,
	}, media.NewSafeClient(cfg.Media.Timeout), log.Named("media"))

	a.submit = submit.New(a.provider, profiles, a.sessions, a.nav, log.Named("submit"))
	a.publish = publish.New(uploader, posts, log.Named("publish"))
	a.feed = feed.New(posts, log.Named("feed"))
	return a, nil
}

// enter runs the route guard for a command located at route. It returns the
// redirect target when the command may not run in the current session.
func (a *app) enter(at guard.Route) (guard.Route, bool, func()) {
	a.nav.reset()
	g := guard.New(a.nav, at, a.log.Named("guard"))
	detach := g.Attach(a.sessions)
	to, moved := a.nav.take()
	return to, moved, detach
}

func (a *app) close() {
	if a.sessions != nil {
		a.sessions.Close()
	}
	if a.db != nil {
		a.db.Close()
	}
}
