// Package auth issues the short-lived ES256 bearer tokens required by the
// App Store Connect API and caches the current one until shortly before expiry.
package auth

import (
	"crypto/ecdsa"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"golang.org/x/sync/singleflight"

	apperr "github.com/aevon-lab/asc-analytics/internal/core/errors"
)

const (
	// Audience is the fixed provider audience claim.
	Audience = "appstoreconnect-v1"

	// TokenLifetime is the provider maximum for API tokens.
	TokenLifetime = 15 * time.Minute

	// RefreshGrace is subtracted from the expiry when deciding whether a cached token is reusable.
	RefreshGrace = 60 * time.Second
)

// TokenSource yields a bearer token for one outbound request.
type TokenSource interface {
	Token() (string, error)
}

// credential is owned by one Issuer and never handed out except as its token string.
type credential struct {
	token     string
	expiresAt float64 // unix seconds
}

// Issuer signs and caches provider tokens. Safe for concurrent use; no network I/O.
type Issuer struct {
	issuerID string
	keyID    string
	keyPEM   []byte
	now      func() time.Time

	mu        sync.RWMutex
	cached    *credential
	key       *ecdsa.PrivateKey
	signGroup singleflight.Group
}

// Option customizes an Issuer.
type Option func(*Issuer)

// WithClock overrides the time source (tests).
func WithClock(now func() time.Time) Option {
	return func(i *Issuer) { i.now = now }
}

// NewIssuer creates an Issuer. The PEM key is parsed lazily on first use so that a bad key
// surfaces as a SigningError from Token.
func NewIssuer(issuerID, keyID string, privateKeyPEM []byte, opts ...Option) *Issuer {
	i := &Issuer{
		issuerID: issuerID,
		keyID:    keyID,
		keyPEM:   privateKeyPEM,
		now:      time.Now,
	}
	for _, opt := range opts {
		opt(i)
	}
	return i
}

// ParsePrivateKey parses a PKCS#8 or SEC1 PEM-encoded P-256 key.
func ParsePrivateKey(pemBytes []byte) (*ecdsa.PrivateKey, error) {
	key, err := jwt.ParseECPrivateKeyFromPEM(pemBytes)
	if err != nil {
		return nil, fmt.Errorf("parse EC private key: %w", err)
	}
	return key, nil
}

// Token returns the cached token while now < expiresAt - RefreshGrace, otherwise signs a new one.
func (i *Issuer) Token() (string, error) {
	if tok, ok := i.cachedToken(); ok {
		return tok, nil
	}

	result, err, _ := i.signGroup.Do("token", func() (interface{}, error) {
		if tok, ok := i.cachedToken(); ok {
			return tok, nil
		}
		return i.generate()
	})
	if err != nil {
		return "", err
	}
	return result.(string), nil
}

func (i *Issuer) cachedToken() (string, bool) {
	i.mu.RLock()
	defer i.mu.RUnlock()
	if i.cached == nil {
		return "", false
	}
	now := float64(i.now().UnixNano()) / float64(time.Second)
	if now < i.cached.expiresAt-RefreshGrace.Seconds() {
		return i.cached.token, true
	}
	return "", false
}

func (i *Issuer) generate() (string, error) {
	key, err := i.signingKey()
	if err != nil {
		return "", &apperr.SigningError{KeyID: i.keyID, Err: err}
	}

	now := i.now().Unix()
	exp := now + int64(TokenLifetime/time.Second)

	token := jwt.NewWithClaims(jwt.SigningMethodES256, jwt.MapClaims{
		"iss": i.issuerID,
		"iat": now,
		"exp": exp,
		"aud": Audience,
	})
	token.Header["kid"] = i.keyID

	signed, err := token.SignedString(key)
	if err != nil {
		return "", &apperr.SigningError{KeyID: i.keyID, Err: err}
	}

	i.mu.Lock()
	i.cached = &credential{token: signed, expiresAt: float64(exp)}
	i.mu.Unlock()

	slog.Debug("[TokenIssuer] Generated new token", "key_id", i.keyID, "expires_in", TokenLifetime)
	return signed, nil
}

func (i *Issuer) signingKey() (*ecdsa.PrivateKey, error) {
	i.mu.RLock()
	key := i.key
	i.mu.RUnlock()
	if key != nil {
		return key, nil
	}

	key, err := ParsePrivateKey(i.keyPEM)
	if err != nil {
		return nil, err
	}
	i.mu.Lock()
	i.key = key
	i.mu.Unlock()
	return key, nil
}
