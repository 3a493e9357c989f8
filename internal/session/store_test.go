package session

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/and161185/framez/internal/errs"
	"github.com/and161185/framez/internal/model"
	"github.com/and161185/framez/internal/repository"
	"github.com/stretchr/testify/require"
	"go.uber.org/goleak"
)

func TestMain(m *testing.M) {
	goleak.VerifyTestMain(m)
}

type fakeProvider struct {
	mu     sync.Mutex
	fns    map[int]func(*model.Principal)
	next   int
	subs   int
	unsubs int
}

var _ repository.IdentityProvider = (*fakeProvider)(nil)

func (f *fakeProvider) SignIn(context.Context, string, string) (model.Principal, error) {
	return model.Principal{}, errors.New("not used")
}
func (f *fakeProvider) SignUp(context.Context, string, string) (model.Principal, error) {
	return model.Principal{}, errors.New("not used")
}
func (f *fakeProvider) SignOut(context.Context) error { return nil }
func (f *fakeProvider) Subscribe(fn func(*model.Principal)) func() {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.fns == nil {
		f.fns = map[int]func(*model.Principal){}
	}
	id := f.next
	f.next++
	f.fns[id] = fn
	f.subs++
	return func() {
		f.mu.Lock()
		defer f.mu.Unlock()
		delete(f.fns, id)
		f.unsubs++
	}
}

func (f *fakeProvider) emit(p *model.Principal) {
	f.mu.Lock()
	fns := make([]func(*model.Principal), 0, len(f.fns))
	for _, fn := range f.fns {
		fns = append(fns, fn)
	}
	f.mu.Unlock()
	for _, fn := range fns {
		fn(p)
	}
}

type fakeProfiles struct {
	mu     sync.Mutex
	byUID  map[string]model.Profile
	getErr error
	gets   int
}

var _ repository.ProfileRepository = (*fakeProfiles)(nil)

func (f *fakeProfiles) Get(_ context.Context, uid string) (*model.Profile, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.gets++
	if f.getErr != nil {
		return nil, f.getErr
	}
	p, ok := f.byUID[uid]
	if !ok {
		return nil, errs.ErrNotFound
	}
	return &p, nil
}
func (f *fakeProfiles) Create(_ context.Context, uid string, p model.Profile) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.byUID == nil {
		f.byUID = map[string]model.Profile{}
	}
	f.byUID[uid] = p
	return nil
}

// changes collects observer notifications.
func changes(t *testing.T, s *Store) <-chan model.Session {
	t.Helper()
	ch := make(chan model.Session, 16)
	cancel := s.Subscribe(func(st model.Session) { ch <- st })
	t.Cleanup(cancel)
	return ch
}

func next(t *testing.T, ch <-chan model.Session) model.Session {
	t.Helper()
	select {
	case st := <-ch:
		return st
	case <-time.After(2 * time.Second):
		t.Fatalf("no session change")
		return model.Session{}
	}
}

func TestStore_InitialLoading(t *testing.T) {
	prov := &fakeProvider{}
	s := NewStore(prov, &fakeProfiles{}, nil, Options{})
	defer s.Close()

	st := s.State()
	require.True(t, st.Loading)
	require.Nil(t, st.Identity)
	require.Equal(t, 1, prov.subs)

	select {
	case <-s.Ready():
		t.Fatalf("ready before first callback")
	default:
	}
}

func TestStore_FirstCallbackUnauthenticated(t *testing.T) {
	prov := &fakeProvider{}
	s := NewStore(prov, &fakeProfiles{}, nil, Options{})
	defer s.Close()
	ch := changes(t, s)

	prov.emit(nil)
	st := next(t, ch)
	require.False(t, st.Loading)
	require.Nil(t, st.Identity)
	require.NoError(t, s.WaitReady(context.Background()))
}

func TestStore_NoProfileDocument(t *testing.T) {
	prov := &fakeProvider{}
	s := NewStore(prov, &fakeProfiles{}, nil, Options{})
	defer s.Close()
	ch := changes(t, s)

	prov.emit(&model.Principal{UID: "u1", Email: "u1@x.com"})
	st := next(t, ch)
	require.False(t, st.Loading)
	require.Equal(t, &model.Identity{UID: "u1", Email: "u1@x.com"}, st.Identity)
}

func TestStore_MergesProfile(t *testing.T) {
	prov := &fakeProvider{}
	profiles := &fakeProfiles{byUID: map[string]model.Profile{
		"u1": {Fullname: "Ann", Username: "ann1", Email: "old@x.com"},
	}}
	s := NewStore(prov, profiles, nil, Options{})
	defer s.Close()
	ch := changes(t, s)

	prov.emit(&model.Principal{UID: "u1", Email: "ann@x.com"})
	st := next(t, ch)
	require.Equal(t, "ann@x.com", st.Identity.Email)
	require.Equal(t, "ann1", st.Identity.Username)
	require.Equal(t, "Ann", st.Identity.Fullname)
}

func TestStore_ProfileFetchFailureDegrades(t *testing.T) {
	prov := &fakeProvider{}
	profiles := &fakeProfiles{getErr: errors.New("store unavailable")}
	s := NewStore(prov, profiles, nil, Options{})
	defer s.Close()
	ch := changes(t, s)

	prov.emit(&model.Principal{UID: "u1", Email: "u1@x.com"})
	st := next(t, ch)
	require.False(t, st.Loading)
	require.Equal(t, &model.Identity{UID: "u1", Email: "u1@x.com"}, st.Identity)
}

func TestStore_SignOutClearsIdentity(t *testing.T) {
	prov := &fakeProvider{}
	s := NewStore(prov, &fakeProfiles{}, nil, Options{})
	defer s.Close()
	ch := changes(t, s)

	prov.emit(&model.Principal{UID: "u1", Email: "u1@x.com"})
	require.NotNil(t, next(t, ch).Identity)
	prov.emit(nil)
	st := next(t, ch)
	require.Nil(t, st.Identity)
	require.False(t, st.Loading)
}

func TestStore_Refresh(t *testing.T) {
	prov := &fakeProvider{}
	s := NewStore(prov, &fakeProfiles{}, nil, Options{})
	defer s.Close()
	ch := changes(t, s)
	ctx := context.Background()

	// nothing to refresh while signed out
	require.NoError(t, s.Refresh(ctx, model.Identity{UID: "u1", Username: "ann1"}))
	require.Nil(t, s.State().Identity)

	prov.emit(&model.Principal{UID: "u1", Email: "u1@x.com"})
	_ = next(t, ch)

	require.NoError(t, s.Refresh(ctx, model.Identity{UID: "u1", Username: "ann1"}))
	st := s.State()
	require.Equal(t, "ann1", st.Identity.Username)
	require.Equal(t, "u1@x.com", st.Identity.Email, "email kept from provider")

	// another uid is stale
	require.NoError(t, s.Refresh(ctx, model.Identity{UID: "u2", Username: "bob"}))
	require.Equal(t, "u1", s.State().Identity.UID)

	require.Error(t, s.Refresh(ctx, model.Identity{}))
}

func TestStore_SyncWaitsForQueuedEvents(t *testing.T) {
	prov := &fakeProvider{}
	s := NewStore(prov, &fakeProfiles{}, nil, Options{})
	defer s.Close()

	prov.emit(&model.Principal{UID: "u1", Email: "u1@x.com"})
	require.NoError(t, s.Sync(context.Background()))
	require.Equal(t, "u1", s.State().Identity.UID)
	require.EqualValues(t, 1, s.State().Version)

	require.NoError(t, s.Refresh(context.Background(), model.Identity{UID: "u1", Username: "ann1"}))
	require.EqualValues(t, 2, s.State().Version)

	prov.emit(nil)
	require.NoError(t, s.Sync(context.Background()))
	require.Nil(t, s.State().Identity)
	require.EqualValues(t, 3, s.State().Version)
}

func TestStore_SnapshotIsolation(t *testing.T) {
	prov := &fakeProvider{}
	s := NewStore(prov, &fakeProfiles{}, nil, Options{})
	defer s.Close()
	ch := changes(t, s)

	prov.emit(&model.Principal{UID: "u1", Email: "u1@x.com"})
	_ = next(t, ch)

	st := s.State()
	st.Identity.Username = "mutated"
	require.Equal(t, "", s.State().Identity.Username)
}

func TestStore_CloseUnsubscribes(t *testing.T) {
	prov := &fakeProvider{}
	s := NewStore(prov, &fakeProfiles{}, nil, Options{})
	s.Close()
	s.Close() // idempotent
	require.Equal(t, 1, prov.unsubs)

	// late events and refreshes must not block
	prov.emit(nil)
	require.Error(t, s.Refresh(context.Background(), model.Identity{UID: "u1"}))
}

func TestStore_WaitReadyContext(t *testing.T) {
	prov := &fakeProvider{}
	s := NewStore(prov, &fakeProfiles{}, nil, Options{})
	defer s.Close()

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Millisecond)
	defer cancel()
	require.ErrorIs(t, s.WaitReady(ctx), context.DeadlineExceeded)
}
