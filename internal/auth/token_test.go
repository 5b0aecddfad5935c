package auth

import (
	"strings"
	"testing"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestIssuer(t *testing.T, secret string, now time.Time) *Issuer {
	t.Helper()
	issuer, err := NewIssuer(secret, time.Hour)
	require.NoError(t, err)
	issuer.now = func() time.Time { return now }
	return issuer
}

func TestIssueAndVerify(t *testing.T) {
	t.Parallel()

	issuer := newTestIssuer(t, "super-secret", time.Now())

	token, err := issuer.Issue("user-123")
	require.NoError(t, err)

	userID, err := issuer.Verify(token)
	require.NoError(t, err)
	assert.Equal(t, "user-123", userID)
}

func TestNewIssuer_RequiresSecret(t *testing.T) {
	t.Parallel()

	_, err := NewIssuer("   ", time.Hour)
	assert.Error(t, err)
}

func TestNewIssuer_DefaultTTL(t *testing.T) {
	t.Parallel()

	issuer, err := NewIssuer("k", 0)
	require.NoError(t, err)
	assert.Equal(t, DefaultTokenTTL, issuer.TTL())
}

func TestVerify_Empty(t *testing.T) {
	t.Parallel()

	issuer := newTestIssuer(t, "k", time.Now())
	_, err := issuer.Verify("  ")
	assert.ErrorIs(t, err, ErrUnauthenticated)
}

func TestVerify_Expired(t *testing.T) {
	t.Parallel()

	issuedAt := time.Now()
	issuer := newTestIssuer(t, "k", issuedAt)
	token, err := issuer.Issue("u1")
	require.NoError(t, err)

	issuer.now = func() time.Time { return issuedAt.Add(2 * time.Hour) }
	_, err = issuer.Verify(token)
	assert.ErrorIs(t, err, ErrInvalidToken)
}

func TestVerify_WrongSecret(t *testing.T) {
	t.Parallel()

	now := time.Now()
	token, err := newTestIssuer(t, "right-secret", now).Issue("u2")
	require.NoError(t, err)

	_, err = newTestIssuer(t, "wrong-secret", now).Verify(token)
	assert.ErrorIs(t, err, ErrInvalidToken)
}

func TestVerify_TamperedSignature(t *testing.T) {
	t.Parallel()

	issuer := newTestIssuer(t, "k", time.Now())
	token, err := issuer.Issue("u3")
	require.NoError(t, err)

	parts := strings.Split(token, ".")
	require.Len(t, parts, 3)
	sig := []byte(parts[2])
	if sig[0] == 'A' {
		sig[0] = 'B'
	} else {
		sig[0] = 'A'
	}
	tampered := parts[0] + "." + parts[1] + "." + string(sig)

	_, err = issuer.Verify(tampered)
	assert.ErrorIs(t, err, ErrInvalidToken)
}

func TestVerify_Malformed(t *testing.T) {
	t.Parallel()

	issuer := newTestIssuer(t, "k", time.Now())
	_, err := issuer.Verify("not.a.jwt")
	assert.ErrorIs(t, err, ErrInvalidToken)
}

func TestVerify_RejectsOtherAlgorithms(t *testing.T) {
	t.Parallel()

	now := time.Now()
	issuer := newTestIssuer(t, "k", now)
	claims := jwt.RegisteredClaims{
		Subject:   "u4",
		ExpiresAt: jwt.NewNumericDate(now.Add(time.Hour)),
	}
	token, err := jwt.NewWithClaims(jwt.SigningMethodHS512, claims).SignedString([]byte("k"))
	require.NoError(t, err)

	_, err = issuer.Verify(token)
	assert.ErrorIs(t, err, ErrInvalidToken)
}

func TestVerify_MissingSubject(t *testing.T) {
	t.Parallel()

	now := time.Now()
	issuer := newTestIssuer(t, "k", now)
	claims := jwt.RegisteredClaims{ExpiresAt: jwt.NewNumericDate(now.Add(time.Hour))}
	token, err := jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString([]byte("k"))
	require.NoError(t, err)

	_, err = issuer.Verify(token)
	assert.ErrorIs(t, err, ErrInvalidToken)
}

func TestVerify_MissingExpiry(t *testing.T) {
	t.Parallel()

	issuer := newTestIssuer(t, "k", time.Now())
	claims := jwt.RegisteredClaims{Subject: "u5"}
	token, err := jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString([]byte("k"))
	require.NoError(t, err)

	_, err = issuer.Verify(token)
	assert.ErrorIs(t, err, ErrInvalidToken)
}
