// Package session holds the client-side session token: where it is stored, and the gate
// deciding whether a protected location may be shown.
package session

import (
	"context"
	"net/url"
	"strings"
)

const (
	LoginPath = "/login"
	NextParam = "next"
)

// State of a visitor as seen by the Gate.
type State int

const (
	Unauthenticated State = iota
	Authenticated
)

func (s State) String() string {
	if s == Authenticated {
		return "authenticated"
	}
	return "unauthenticated"
}

// Verifier checks that a present token may still be used (signature, expiry, revocation...).
type Verifier interface {
	Verify(ctx context.Context, token string) error
}

// VerifierFunc adapts a function to a Verifier.
type VerifierFunc func(ctx context.Context, token string) error

func (f VerifierFunc) Verify(ctx context.Context, token string) error { return f(ctx, token) }

// Decision is the outcome of a Gate check.
type Decision struct {
	Allowed    bool   `json:"allowed"`
	RedirectTo string `json:"redirect_to,omitempty"`
	From       string `json:"from,omitempty"` // the location the visitor attempted to reach
}

// Gate guards a subtree of screens. Without a Verifier it only checks token presence.
// It never refreshes tokens.
type Gate struct {
	loginPath string
	verifier  Verifier
}

type GateOption func(*Gate)

// WithVerifier makes the gate treat tokens rejected by v as absent.
func WithVerifier(v Verifier) GateOption {
	return func(g *Gate) { g.verifier = v }
}

// WithLoginPath overrides the redirect target (default "/login").
func WithLoginPath(path string) GateOption {
	return func(g *Gate) { g.loginPath = path }
}

func NewGate(opts ...GateOption) *Gate {
	g := &Gate{loginPath: LoginPath}
	for _, opt := range opts {
		opt(g)
	}
	return g
}

// State evaluates the visitor's state from the token held at evaluation time.
func (g *Gate) State(ctx context.Context, token string) State {
	if strings.TrimSpace(token) == "" {
		return Unauthenticated
	}
	if g.verifier != nil {
		if err := g.verifier.Verify(ctx, token); err != nil {
			return Unauthenticated
		}
	}
	return Authenticated
}

// Check decides whether location may be rendered for token.
func (g *Gate) Check(ctx context.Context, token, location string) Decision {
	if g.State(ctx, token) == Authenticated {
		return Decision{Allowed: true}
	}
	return Decision{
		RedirectTo: LoginURL(g.loginPath, location),
		From:       location,
	}
}

// LoginURL builds the login location remembering where the visitor came from.
func LoginURL(loginPath, from string) string {
	if from == "" {
		return loginPath
	}
	v := make(url.Values)
	v.Set(NextParam, from)
	return loginPath + "?" + v.Encode()
}

// SafeNext returns next when it is a local absolute path, else fallback.
// It keeps post-login redirects on this site.
func SafeNext(next, fallback string) string {
	if next == "" || !strings.HasPrefix(next, "/") || strings.HasPrefix(next, "//") || strings.HasPrefix(next, "/\\") {
		return fallback
	}
	u, err := url.Parse(next)
	if err != nil || u.IsAbs() || u.Host != "" {
		return fallback
	}
	return next
}
