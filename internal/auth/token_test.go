package auth

import (
	"crypto/ecdsa"
	"crypto/elliptic"
	"crypto/rand"
	"crypto/x509"
	"encoding/pem"
	"sync"
	"testing"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/stretchr/testify/require"

	apperr "github.com/aevon-lab/asc-analytics/internal/core/errors"
)

type fakeClock struct {
	mu sync.Mutex
	t  time.Time
}

func (c *fakeClock) Now() time.Time {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.t
}

func (c *fakeClock) Advance(d time.Duration) {
	c.mu.Lock()
	c.t = c.t.Add(d)
	c.mu.Unlock()
}

func newTestKey(t *testing.T) (*ecdsa.PrivateKey, []byte) {
	t.Helper()
	key, err := ecdsa.GenerateKey(elliptic.P256(), rand.Reader)
	require.NoError(t, err)
	der, err := x509.MarshalPKCS8PrivateKey(key)
	require.NoError(t, err)
	return key, pem.EncodeToMemory(&pem.Block{Type: "PRIVATE KEY", Bytes: der})
}

func TestIssuer_ReusesTokenWithinGraceWindow(t *testing.T) {
	_, keyPEM := newTestKey(t)
	clock := &fakeClock{t: time.Unix(1_700_000_000, 0)}
	issuer := NewIssuer("issuer-1", "KEY123", keyPEM, WithClock(clock.Now))

	first, err := issuer.Token()
	require.NoError(t, err)

	clock.Advance(839 * time.Second)
	second, err := issuer.Token()
	require.NoError(t, err)
	require.Equal(t, first, second)

	clock.Advance(2 * time.Second) // 841s: past expiry minus grace
	third, err := issuer.Token()
	require.NoError(t, err)
	require.NotEqual(t, first, third)
}

func TestIssuer_ClaimsAndHeader(t *testing.T) {
	key, keyPEM := newTestKey(t)
	issuedAt := time.Unix(1_700_000_000, 0)
	issuer := NewIssuer("issuer-1", "KEY123", keyPEM, WithClock(func() time.Time { return issuedAt }))

	raw, err := issuer.Token()
	require.NoError(t, err)

	parsed, err := jwt.Parse(raw, func(tok *jwt.Token) (interface{}, error) {
		return &key.PublicKey, nil
	}, jwt.WithValidMethods([]string{"ES256"}), jwt.WithTimeFunc(func() time.Time { return issuedAt }))
	require.NoError(t, err)
	require.Equal(t, "KEY123", parsed.Header["kid"])

	claims := parsed.Claims.(jwt.MapClaims)
	require.Equal(t, "issuer-1", claims["iss"])
	require.Equal(t, Audience, claims["aud"])
	require.EqualValues(t, issuedAt.Unix(), claims["iat"])
	require.EqualValues(t, issuedAt.Add(TokenLifetime).Unix(), claims["exp"])
}

func TestIssuer_InvalidKeyReturnsSigningError(t *testing.T) {
	issuer := NewIssuer("issuer-1", "KEY123", []byte("not a pem"))

	_, err := issuer.Token()
	require.Error(t, err)
	require.ErrorIs(t, err, apperr.ErrSigning)

	var signErr *apperr.SigningError
	require.ErrorAs(t, err, &signErr)
	require.Equal(t, "KEY123", signErr.KeyID)
}

func TestIssuer_ConcurrentCallersShareOneToken(t *testing.T) {
	_, keyPEM := newTestKey(t)
	issuer := NewIssuer("issuer-1", "KEY123", keyPEM)

	const callers = 16
	tokens := make([]string, callers)
	var wg sync.WaitGroup
	for n := 0; n < callers; n++ {
		wg.Add(1)
		go func(n int) {
			defer wg.Done()
			tok, err := issuer.Token()
			require.NoError(t, err)
			tokens[n] = tok
		}(n)
	}
	wg.Wait()

	for _, tok := range tokens {
		require.Equal(t, tokens[0], tok)
	}
}
