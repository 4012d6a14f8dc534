package utils

import (
	"strings"
	"testing"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/crypto/bcrypt"

	"github.com/iliyamo/zaporka-api/internal/apperr"
	"github.com/iliyamo/zaporka-api/internal/model"
)

func TestBcryptHasher(t *testing.T) {
	h := NewBcryptHasher(bcrypt.MinCost)

	hash, err := h.HashPassword("s3cret-pass")
	require.NoError(t, err)
	assert.NotEqual(t, "s3cret-pass", hash)
	assert.True(t, h.VerifyPassword(hash, "s3cret-pass"))
	assert.False(t, h.VerifyPassword(hash, "wrong"))
	assert.False(t, h.VerifyPassword("", "s3cret-pass"))
	assert.False(t, h.VerifyPassword("not-a-hash", "s3cret-pass"))

	again, err := h.HashPassword("s3cret-pass")
	require.NoError(t, err)
	assert.NotEqual(t, hash, again, "salted hashes must differ")
}

func TestBcryptHasherCostFallback(t *testing.T) {
	assert.Equal(t, DefaultBcryptCost, NewBcryptHasher(0).cost)
	assert.Equal(t, DefaultBcryptCost, NewBcryptHasher(99).cost)
	assert.Equal(t, 12, NewBcryptHasher(12).cost)
}

type fakeClock struct{ t time.Time }

func (c *fakeClock) Now() time.Time { return c.t }

func newTokens(t *testing.T, secret string, clock *fakeClock) *TokenService {
	t.Helper()
	s, err := NewTokenService(secret, WithClock(clock.Now))
	require.NoError(t, err)
	return s
}

var admin = model.Account{ID: "acc-1", PhoneNumber: "+1234567890", Role: model.RoleAdmin}

func TestTokenService_RoundTrip(t *testing.T) {
	clock := &fakeClock{t: time.Date(2026, 10, 18, 9, 30, 0, 0, time.UTC)}
	s := newTokens(t, "secret", clock)

	tok, err := s.Issue(admin)
	require.NoError(t, err)
	assert.Equal(t, clock.t.Add(7*24*time.Hour), tok.Exp)

	claims, err := s.Verify(tok.Token)
	require.NoError(t, err)
	assert.Equal(t, "acc-1", claims.ID)
	assert.Equal(t, "+1234567890", claims.PhoneNumber)
	assert.Equal(t, model.RoleAdmin, claims.Role)
	assert.Equal(t, "acc-1", claims.Subject)
}

func TestTokenService_ExpiryBoundary(t *testing.T) {
	clock := &fakeClock{t: time.Date(2026, 10, 18, 9, 30, 0, 0, time.UTC)}
	s := newTokens(t, "secret", clock)
	tok, err := s.Issue(admin)
	require.NoError(t, err)

	clock.t = tok.Exp.Add(-time.Second)
	_, err = s.Verify(tok.Token)
	require.NoError(t, err)

	clock.t = tok.Exp
	_, err = s.Verify(tok.Token)
	assert.Equal(t, apperr.KindExpiredToken, apperr.KindOf(err))
}

func TestTokenService_WrongKey(t *testing.T) {
	clock := &fakeClock{t: time.Now()}
	tok, err := newTokens(t, "one", clock).Issue(admin)
	require.NoError(t, err)

	_, err = newTokens(t, "two", clock).Verify(tok.Token)
	assert.Equal(t, apperr.KindInvalidSignature, apperr.KindOf(err))
}

func TestTokenService_Tampered(t *testing.T) {
	clock := &fakeClock{t: time.Now()}
	s := newTokens(t, "secret", clock)
	tok, err := s.Issue(admin)
	require.NoError(t, err)

	// re-sign the same claims with a different role but keep the old signature
	forged, err := newTokens(t, "secret", clock).Issue(model.Account{ID: "acc-1", Role: model.RoleAdmin, PhoneNumber: "+999"})
	require.NoError(t, err)
	parts := strings.Split(tok.Token, ".")
	fparts := strings.Split(forged.Token, ".")
	tampered := parts[0] + "." + fparts[1] + "." + parts[2]

	_, err = s.Verify(tampered)
	assert.Equal(t, apperr.KindInvalidSignature, apperr.KindOf(err))
}

func TestTokenService_Malformed(t *testing.T) {
	s := newTokens(t, "secret", &fakeClock{t: time.Now()})
	for _, raw := range []string{"", "abc", "a.b.c", "Bearer x.y.z"} {
		_, err := s.Verify(raw)
		assert.Equal(t, apperr.KindMalformedToken, apperr.KindOf(err), raw)
	}
}

func TestTokenService_RejectsOtherAlgorithms(t *testing.T) {
	clock := &fakeClock{t: time.Now()}
	s := newTokens(t, "secret", clock)
	claims := Claims{ID: "acc-1", Role: model.RoleAdmin, RegisteredClaims: jwt.RegisteredClaims{
		ExpiresAt: jwt.NewNumericDate(clock.t.Add(time.Hour)),
	}}
	raw, err := jwt.NewWithClaims(jwt.SigningMethodHS512, claims).SignedString([]byte("secret"))
	require.NoError(t, err)

	_, err = s.Verify(raw)
	assert.Equal(t, apperr.KindInvalidSignature, apperr.KindOf(err))
}

func TestNewTokenServiceRequiresSecret(t *testing.T) {
	_, err := NewTokenService("")
	assert.Error(t, err)
}
