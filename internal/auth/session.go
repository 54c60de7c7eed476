package auth

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/dgrijalva/jwt-go"
	"go.uber.org/zap"

	"github.com/choiwab/banking-client/internal/metrics"
)

// Scope is the permission tier encoded in a session token. Scopes form a
// partial order: transfer covers enquiry, not the other way around.
type Scope string

const (
	ScopeEnquiry  Scope = "enquiry"
	ScopeTransfer Scope = "transfer"
)

// ParseScope validates a scope string from config or CLI input.
func ParseScope(s string) (Scope, error) {
	switch Scope(s) {
	case ScopeEnquiry, ScopeTransfer:
		return Scope(s), nil
	}
	return "", fmt.Errorf("unknown scope %q (want enquiry or transfer)", s)
}

// Covers reports whether a token granted with scope s satisfies an operation
// requiring min.
func (s Scope) Covers(min Scope) bool {
	if s == ScopeTransfer {
		return true
	}
	return s == min
}

// Credentials represents the username/password presented to the token endpoint.
// They live in memory only and are never persisted.
type Credentials struct {
	Username string `json:"username"`
	Password string `json:"password"`
}

// Grant is an issued session token together with its scope and expiry.
type Grant struct {
	Token  string
	Scope  Scope
	Expiry time.Time
}

// expirySlack treats a token as expired slightly early so an in-flight
// request never carries a token that lapses mid-round-trip.
const expirySlack = 30 * time.Second

// DefaultTTL is assumed when neither the auth response nor the token itself
// carries an expiry.
const DefaultTTL = time.Hour

// ValidFor reports whether the grant can authorize an operation requiring min
// at time now.
func (g Grant) ValidFor(min Scope, now time.Time) bool {
	if g.Token == "" {
		return false
	}
	if !g.Scope.Covers(min) {
		return false
	}
	return now.Before(g.Expiry.Add(-expirySlack))
}

// ExpiryFrom computes a grant expiry. expiresIn (seconds) from the auth
// response wins; otherwise the token's own exp claim is read without
// signature verification (the server signed it, we only need the timestamp);
// otherwise DefaultTTL applies.
func ExpiryFrom(token string, expiresIn int64) time.Time {
	now := time.Now()
	if expiresIn > 0 {
		return now.Add(time.Duration(expiresIn) * time.Second)
	}
	claims := jwt.MapClaims{}
	if _, _, err := new(jwt.Parser).ParseUnverified(token, claims); err == nil {
		if exp, ok := claims["exp"].(float64); ok && exp > 0 {
			return time.Unix(int64(exp), 0)
		}
	}
	return now.Add(DefaultTTL)
}

// LoginFunc performs the actual token endpoint call and returns the issued grant.
type LoginFunc func(ctx context.Context, creds Credentials, scope Scope) (Grant, error)

// Session owns the single in-memory session token for one logical user
// session. All scoped operations go through EnsureScope, which transparently
// re-authenticates when the held token is missing, expired, or too narrow.
// A failed re-authentication never discards a previously held token.
type Session struct {
	mu     sync.Mutex
	logger *zap.Logger
	creds  Credentials
	login  LoginFunc
	grant  Grant
}

// NewSession creates a session holding no token yet. creds are the default
// credentials used for transparent re-authentication.
func NewSession(logger *zap.Logger, creds Credentials, login LoginFunc) *Session {
	return &Session{
		logger: logger,
		creds:  creds,
		login:  login,
	}
}

// Authenticate performs an explicit login with the given credentials and
// scope. On success the credentials become the session default and the new
// grant replaces any prior one. On failure the prior grant is untouched.
func (s *Session) Authenticate(ctx context.Context, creds Credentials, scope Scope) (Grant, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	grant, err := s.login(ctx, creds, scope)
	if err != nil {
		metrics.IncAuth("explicit", "error")
		return Grant{}, err
	}
	metrics.IncAuth("explicit", "ok")

	s.creds = creds
	s.grant = grant
	s.logger.Info("banking.auth_success",
		zap.String("username", creds.Username),
		zap.String("scope", string(grant.Scope)),
		zap.Time("expiry", grant.Expiry))
	return grant, nil
}

// EnsureScope returns a token usable for an operation requiring min,
// re-authenticating with the session credentials when needed. The
// check-and-refresh is done under one lock so concurrent callers sharing a
// client cannot both trigger a login for the same lapse.
func (s *Session) EnsureScope(ctx context.Context, min Scope) (string, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.grant.ValidFor(min, time.Now()) {
		return s.grant.Token, nil
	}

	s.logger.Info("banking.token_refresh",
		zap.String("required_scope", string(min)),
		zap.Bool("had_token", s.grant.Token != ""))

	grant, err := s.login(ctx, s.creds, min)
	if err != nil {
		metrics.IncAuth("refresh", "error")
		// Keep the old grant: it may still serve narrower calls.
		return "", err
	}
	metrics.IncAuth("refresh", "ok")

	s.grant = grant
	return grant.Token, nil
}

// Grant returns a copy of the currently held grant, which may be zero.
func (s *Session) Grant() Grant {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.grant
}
