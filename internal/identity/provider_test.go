package identity

import (
	"context"
	"os"
	"path/filepath"
	"sync"
	"testing"
	"time"

	"github.com/and161185/framez/internal/crypto"
	"github.com/and161185/framez/internal/errs"
	"github.com/and161185/framez/internal/limiter"
	"github.com/and161185/framez/internal/model"
	"github.com/and161185/framez/internal/repository/memory"
	"github.com/stretchr/testify/require"
)

var cheap = crypto.Params{Time: 1, Memory: 1024, Threads: 1, KeyLen: 32}

type recorder struct {
	mu  sync.Mutex
	got []*model.Principal
}

func (r *recorder) fn(p *model.Principal) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.got = append(r.got, p)
}

func (r *recorder) all() []*model.Principal {
	r.mu.Lock()
	defer r.mu.Unlock()
	return append([]*model.Principal(nil), r.got...)
}

func newProvider(t *testing.T, accounts *memory.AccountRepo, tokenPath string) *Provider {
	t.Helper()
	lim := limiter.NewMemory(limiter.Config{Window: time.Minute, MaxFails: 3, BlockFor: time.Minute})
	return New(accounts, lim, Config{
		SignKey: []byte("test-key"),
		Tokens:  TokenStore{Path: tokenPath},
		Device:  "test-host",
		Params:  cheap,
	}, nil)
}

func TestSignUpThenSignIn(t *testing.T) {
	t.Parallel()
	ctx := context.Background()
	path := filepath.Join(t.TempDir(), "session.json")
	p := newProvider(t, memory.NewAccountRepo(), path)

	rec := &recorder{}
	unsub := p.Subscribe(rec.fn)
	defer unsub()

	pr, err := p.SignUp(ctx, " Ann@X.com ", "secret1")
	require.NoError(t, err)
	require.NotEmpty(t, pr.UID)
	require.Equal(t, "ann@x.com", pr.Email)
	require.FileExists(t, path)

	require.NoError(t, p.SignOut(ctx))
	require.NoFileExists(t, path)

	again, err := p.SignIn(ctx, "ann@x.com", "secret1")
	require.NoError(t, err)
	require.Equal(t, pr.UID, again.UID)

	got := rec.all()
	require.Len(t, got, 4) // initial nil, signup, signout, signin
	require.Nil(t, got[0])
	require.Equal(t, pr.UID, got[1].UID)
	require.Nil(t, got[2])
	require.Equal(t, pr.UID, got[3].UID)
}

func TestSignUp_Rejections(t *testing.T) {
	t.Parallel()
	ctx := context.Background()
	p := newProvider(t, memory.NewAccountRepo(), "")

	_, err := p.SignUp(ctx, "not-an-email", "secret1")
	require.Equal(t, errs.CodeInvalidEmail, errs.CodeOf(err))

	_, err = p.SignUp(ctx, "a@x.com", "12345")
	require.Equal(t, errs.CodeWeakPassword, errs.CodeOf(err))

	_, err = p.SignUp(ctx, "a@x.com", "secret1")
	require.NoError(t, err)
	_, err = p.SignUp(ctx, "A@x.com", "secret2")
	require.Equal(t, errs.CodeEmailAlreadyInUse, errs.CodeOf(err))
	require.ErrorIs(t, err, errs.ErrAlreadyExists)
}

func TestSignIn_Rejections(t *testing.T) {
	t.Parallel()
	ctx := context.Background()
	accounts := memory.NewAccountRepo()
	p := newProvider(t, accounts, "")

	pr, err := p.SignUp(ctx, "ann@x.com", "secret1")
	require.NoError(t, err)

	_, err = p.SignIn(ctx, "bad", "secret1")
	require.Equal(t, errs.CodeInvalidEmail, errs.CodeOf(err))

	_, err = p.SignIn(ctx, "nobody@x.com", "secret1")
	require.Equal(t, errs.CodeUserNotFound, errs.CodeOf(err))

	_, err = p.SignIn(ctx, "ann@x.com", "wrong!!")
	require.Equal(t, errs.CodeWrongPassword, errs.CodeOf(err))

	require.NoError(t, accounts.SetDisabled(ctx, pr.UID, true))
	_, err = p.SignIn(ctx, "ann@x.com", "secret1")
	require.Equal(t, errs.CodeUserDisabled, errs.CodeOf(err))
}

func TestSignIn_Throttled(t *testing.T) {
	t.Parallel()
	ctx := context.Background()
	p := newProvider(t, memory.NewAccountRepo(), "")
	_, err := p.SignUp(ctx, "ann@x.com", "secret1")
	require.NoError(t, err)

	for i := 0; i < 2; i++ {
		_, err = p.SignIn(ctx, "ann@x.com", "nope-nope")
		require.Equal(t, errs.CodeWrongPassword, errs.CodeOf(err))
	}
	_, err = p.SignIn(ctx, "ann@x.com", "nope-nope")
	require.Equal(t, errs.CodeTooManyRequests, errs.CodeOf(err))

	// the right password is refused while blocked
	_, err = p.SignIn(ctx, "ann@x.com", "secret1")
	require.Equal(t, errs.CodeTooManyRequests, errs.CodeOf(err))
	require.ErrorIs(t, err, errs.ErrRateLimited)
}

func TestRestore(t *testing.T) {
	t.Parallel()
	ctx := context.Background()
	path := filepath.Join(t.TempDir(), "session.json")
	accounts := memory.NewAccountRepo()

	first := newProvider(t, accounts, path)
	pr, err := first.SignUp(ctx, "ann@x.com", "secret1")
	require.NoError(t, err)

	second := newProvider(t, accounts, path)
	require.NoError(t, second.Restore(ctx))
	require.Equal(t, &pr, second.Current())

	rec := &recorder{}
	second.Subscribe(rec.fn)
	require.Equal(t, pr.UID, rec.all()[0].UID)

	// disabled accounts are not restored and lose their token
	require.NoError(t, accounts.SetDisabled(ctx, pr.UID, true))
	third := newProvider(t, accounts, path)
	require.NoError(t, third.Restore(ctx))
	require.Nil(t, third.Current())
	require.NoFileExists(t, path)
}

func TestRestore_BadToken(t *testing.T) {
	t.Parallel()
	path := filepath.Join(t.TempDir(), "session.json")
	require.NoError(t, TokenStore{Path: path}.Save("garbage", time.Now().Add(time.Hour)))

	p := newProvider(t, memory.NewAccountRepo(), path)
	require.NoError(t, p.Restore(context.Background()))
	require.Nil(t, p.Current())
	_, err := os.Stat(path)
	require.ErrorIs(t, err, os.ErrNotExist)
}

func TestToken_RoundTripAndTamper(t *testing.T) {
	t.Parallel()
	now := time.Now()
	tok, exp, err := issueToken([]byte("k"), time.Hour, "u1", "a@x.com", now)
	require.NoError(t, err)
	require.WithinDuration(t, now.Add(time.Hour), exp, time.Second)

	c, err := parseToken([]byte("k"), tok)
	require.NoError(t, err)
	require.Equal(t, "u1", c.Subject)
	require.Equal(t, "a@x.com", c.Email)

	_, err = parseToken([]byte("other"), tok)
	require.Error(t, err)

	expired, _, err := issueToken([]byte("k"), time.Hour, "u1", "a@x.com", now.Add(-2*time.Hour))
	require.NoError(t, err)
	_, err = parseToken([]byte("k"), expired)
	require.Error(t, err)
}

func TestTokenStore_ExpiredIsAbsent(t *testing.T) {
	t.Parallel()
	s := TokenStore{Path: filepath.Join(t.TempDir(), "x", "session.json")}
	require.NoError(t, s.Save("t", time.Now().Add(-time.Minute)))
	_, err := s.Load()
	require.ErrorIs(t, err, os.ErrNotExist)
	require.NoError(t, s.Clear())
	require.NoError(t, s.Clear())
}
