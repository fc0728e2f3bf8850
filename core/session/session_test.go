package session

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestGate_Check(t *testing.T) {
	ctx := context.Background()
	rejectAll := VerifierFunc(func(context.Context, string) error { return errors.New("expired") })

	tests := []struct {
		name     string
		gate     *Gate
		token    string
		location string
		want     Decision
	}{
		{
			name: "no token", gate: NewGate(), location: "/admin",
			want: Decision{RedirectTo: "/login?next=%2Fadmin", From: "/admin"},
		},
		{
			name: "blank token", gate: NewGate(), token: "  ", location: "/trainer",
			want: Decision{RedirectTo: "/login?next=%2Ftrainer", From: "/trainer"},
		},
		{
			name: "nested location keeps query", gate: NewGate(), location: "/admin/hire-member?step=2",
			want: Decision{RedirectTo: "/login?next=%2Fadmin%2Fhire-member%3Fstep%3D2", From: "/admin/hire-member?step=2"},
		},
		{name: "any token (presence only)", gate: NewGate(), token: "garbage", location: "/admin", want: Decision{Allowed: true}},
		{
			name: "rejected by verifier", gate: NewGate(WithVerifier(rejectAll)), token: "expired-token", location: "/employee",
			want: Decision{RedirectTo: "/login?next=%2Femployee", From: "/employee"},
		},
		{
			name: "custom login path", gate: NewGate(WithLoginPath("/signin")), location: "/admin",
			want: Decision{RedirectTo: "/signin?next=%2Fadmin", From: "/admin"},
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, tt.gate.Check(ctx, tt.token, tt.location))
		})
	}
}

func TestGate_State(t *testing.T) {
	ctx := context.Background()
	calls := 0
	gate := NewGate(WithVerifier(VerifierFunc(func(_ context.Context, token string) error {
		calls++
		if token != "valid" {
			return errors.New("invalid")
		}
		return nil
	})))

	assert.Equal(t, Unauthenticated, gate.State(ctx, ""))
	assert.Equal(t, 0, calls, "verifier must not run without a token")
	assert.Equal(t, Unauthenticated, gate.State(ctx, "forged"))
	assert.Equal(t, Authenticated, gate.State(ctx, "valid"))
	assert.Equal(t, "authenticated", Authenticated.String())
}

func TestSafeNext(t *testing.T) {
	tests := []struct {
		next, want string
	}{
		{"/admin", "/admin"},
		{"/admin/hire-member?x=1", "/admin/hire-member?x=1"},
		{"", "/employee"},
		{"admin", "/employee"},
		{"//evil.test/admin", "/employee"},
		{"/\\evil.test", "/employee"},
		{"https://evil.test", "/employee"},
	}
	for _, tt := range tests {
		t.Run(tt.next, func(t *testing.T) {
			assert.Equal(t, tt.want, SafeNext(tt.next, "/employee"))
		})
	}
}

func TestFileStore(t *testing.T) {
	ctx := context.Background()
	path := filepath.Join(t.TempDir(), "academia", "token")
	store := NewFileStore(path)

	token, err := store.Token(ctx)
	require.NoError(t, err)
	assert.Empty(t, token, "missing file means no session")

	require.NoError(t, store.SetToken(ctx, "abc.def.ghi"))
	token, err = store.Token(ctx)
	require.NoError(t, err)
	assert.Equal(t, "abc.def.ghi", token)

	info, err := os.Stat(path)
	require.NoError(t, err)
	assert.Equal(t, os.FileMode(0o600), info.Mode().Perm())

	require.NoError(t, store.Clear(ctx))
	require.NoError(t, store.Clear(ctx), "clearing twice is fine")
	token, err = store.Token(ctx)
	require.NoError(t, err)
	assert.Empty(t, token)
}

func TestMemoryStore(t *testing.T) {
	ctx := context.Background()
	store := NewMemoryStore("t0")

	token, _ := store.Token(ctx)
	assert.Equal(t, "t0", token)

	_ = store.SetToken(ctx, "t1")
	token, _ = store.Token(ctx)
	assert.Equal(t, "t1", token)

	_ = store.Clear(ctx)
	token, _ = store.Token(ctx)
	assert.Empty(t, token)

	static, _ := Static("fixed").Token(ctx)
	assert.Equal(t, "fixed", static)
}

func TestMemoryRevocations(t *testing.T) {
	ctx := context.Background()
	now := time.Date(2024, 1, 1, 12, 0, 0, 0, time.UTC)
	revs := NewMemoryRevocations()
	revs.now = func() time.Time { return now }

	require.NoError(t, revs.Revoke(ctx, "tok-1", now.Add(time.Hour)))
	require.NoError(t, revs.Revoke(ctx, "tok-2", now.Add(-time.Hour))) // already expired: no-op

	revoked, err := revs.IsRevoked(ctx, "tok-1")
	require.NoError(t, err)
	assert.True(t, revoked)

	revoked, _ = revs.IsRevoked(ctx, "tok-2")
	assert.False(t, revoked)

	now = now.Add(2 * time.Hour)
	revoked, _ = revs.IsRevoked(ctx, "tok-1")
	assert.False(t, revoked, "revocation lapses with the token")

	require.NoError(t, revs.Revoke(ctx, "tok-3", now.Add(time.Minute)))
	assert.Len(t, revs.revoked, 1, "expired entries are dropped on write")
}
