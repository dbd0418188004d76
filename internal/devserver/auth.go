package devserver

import (
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/golang-jwt/jwt/v5"
)

// ErrUnauthorized is returned for a missing, malformed or expired token.
var ErrUnauthorized = errors.New("login required")

// Issuer mints and verifies HS256 tokens whose "name" claim is the member
// name shown on comments.
type Issuer struct {
	secret []byte
	ttl    time.Duration
	now    func() time.Time
}

// NewIssuer creates an Issuer.
func NewIssuer(secret string, ttl time.Duration) *Issuer {
	return &Issuer{secret: []byte(secret), ttl: ttl, now: time.Now}
}

// Mint returns a signed token for name.
func (i *Issuer) Mint(name string) (string, error) {
	name = strings.TrimSpace(name)
	if name == "" {
		return "", errors.New("name is required")
	}

	now := i.now()
	claims := jwt.MapClaims{
		"name": name,
		"iat":  now.Unix(),
		"exp":  now.Add(i.ttl).Unix(),
	}

	token, err := jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString(i.secret)
	if err != nil {
		return "", fmt.Errorf("sign token: %w", err)
	}
	return token, nil
}

// Verify checks an Authorization header value and returns the member name.
func (i *Issuer) Verify(header string) (string, error) {
	raw, ok := strings.CutPrefix(strings.TrimSpace(header), "Bearer")
	raw = strings.TrimSpace(raw)
	if !ok || raw == "" {
		return "", ErrUnauthorized
	}

	token, err := jwt.Parse(raw, func(t *jwt.Token) (any, error) {
		if _, ok := t.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, fmt.Errorf("unexpected signing method: %v", t.Header["alg"])
		}
		return i.secret, nil
	}, jwt.WithTimeFunc(i.now), jwt.WithExpirationRequired())
	if err != nil || !token.Valid {
		return "", ErrUnauthorized
	}

	claims, ok := token.Claims.(jwt.MapClaims)
	if !ok {
		return "", ErrUnauthorized
	}
	name, _ := claims["name"].(string)
	if strings.TrimSpace(name) == "" {
		return "", ErrUnauthorized
	}
	return name, nil
}
