// Package auth supplies the optional bearer credential used for comment
// writes.
package auth

import (
	"errors"
	"os"
	"strings"
	"time"

	"github.com/golang-jwt/jwt/v5"
)

// Provider returns the current bearer credential, if any. Calls are
// synchronous and cheap enough to make on every submission.
type Provider interface {
	CurrentCredential() (string, bool)
}

// StaticProvider always returns the same token. The empty string means no
// credential.
type StaticProvider string

func (p StaticProvider) CurrentCredential() (string, bool) {
	token := strings.TrimSpace(string(p))
	return token, token != ""
}

// EnvProvider reads the token from an environment variable on every call.
type EnvProvider struct {
	Name string
}

func (p EnvProvider) CurrentCredential() (string, bool) {
	if p.Name == "" {
		return "", false
	}
	token := strings.TrimSpace(os.Getenv(p.Name))
	return token, token != ""
}

// FileProvider reads the token from a file on every call. A missing or
// unreadable file means no credential.
type FileProvider struct {
	Path string
}

func (p FileProvider) CurrentCredential() (string, bool) {
	if p.Path == "" {
		return "", false
	}
	data, err := os.ReadFile(p.Path)
	if err != nil {
		return "", false
	}
	token := strings.TrimSpace(string(data))
	return token, token != ""
}

// Chain returns the first credential any provider yields.
type Chain []Provider

func (c Chain) CurrentCredential() (string, bool) {
	for _, p := range c {
		if p == nil {
			continue
		}
		if token, ok := p.CurrentCredential(); ok {
			return token, true
		}
	}
	return "", false
}

// Session answers the two questions the thread view asks: which credential
// to send, and whether write controls should be offered at all.
type Session struct {
	provider Provider
	now      func() time.Time
}

// NewSession wraps a provider. A nil provider never yields a credential.
func NewSession(p Provider) *Session {
	if p == nil {
		p = Chain(nil)
	}
	return &Session{provider: p, now: time.Now}
}

// CurrentCredential returns the token to send as the bearer value.
func (s *Session) CurrentCredential() (string, bool) {
	return s.provider.CurrentCredential()
}

// CanWrite reports whether the user looks signed in: a credential exists and,
// when it is a JWT, its exp claim is still in the future. Tokens that are not
// JWTs are trusted as-is; the server has the final word.
func (s *Session) CanWrite() bool {
	token, ok := s.provider.CurrentCredential()
	if !ok {
		return false
	}

	exp, err := Expiry(token)
	if errors.Is(err, errNotJWT) {
		return true
	}
	if err != nil {
		return false
	}
	return exp.After(s.now())
}

var (
	errNotJWT = errors.New("credential is not a JWT")
	// ErrNoExpiry is returned by Expiry for a JWT without an exp claim.
	ErrNoExpiry = errors.New("token has no exp claim")
)

// Expiry decodes token without verifying its signature and returns its exp
// claim.
func Expiry(token string) (time.Time, error) {
	if strings.Count(token, ".") != 2 {
		return time.Time{}, errNotJWT
	}

	claims := jwt.MapClaims{}
	if _, _, err := jwt.NewParser().ParseUnverified(token, claims); err != nil {
		return time.Time{}, errNotJWT
	}

	exp, err := claims.GetExpirationTime()
	if err != nil {
		return time.Time{}, err
	}
	if exp == nil {
		return time.Time{}, ErrNoExpiry
	}
	return exp.Time, nil
}
