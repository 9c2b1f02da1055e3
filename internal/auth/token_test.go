package auth

import (
	"errors"
	"testing"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestTokenManager(t *testing.T) {
	manager := NewTokenManager("s3cret", time.Hour)

	t.Run("RoundTrip", func(t *testing.T) {
		token, err := manager.Issue("admin-1", "admin@example.com")
		require.NoError(t, err)

		claims, err := manager.Verify(token)
		require.NoError(t, err)
		assert.Equal(t, "admin-1", claims.Subject)
		assert.Equal(t, "admin@example.com", claims.Email)
		assert.Equal(t, Issuer, claims.Issuer)
		assert.NotEmpty(t, claims.ID)
		assert.WithinDuration(t, time.Now().Add(time.Hour), claims.ExpiresAt.Time, 5*time.Second)
	})

	t.Run("UniqueTokenIDs", func(t *testing.T) {
		a, err := manager.Issue("admin-1", "admin@example.com")
		require.NoError(t, err)
		b, err := manager.Issue("admin-1", "admin@example.com")
		require.NoError(t, err)

		ca, err := manager.Verify(a)
		require.NoError(t, err)
		cb, err := manager.Verify(b)
		require.NoError(t, err)
		assert.NotEqual(t, ca.ID, cb.ID)
	})

	t.Run("WrongSecret", func(t *testing.T) {
		other := NewTokenManager("different", time.Hour)
		token, err := other.Issue("admin-1", "admin@example.com")
		require.NoError(t, err)

		_, err = manager.Verify(token)
		assert.True(t, errors.Is(err, ErrInvalidToken))
	})

	t.Run("Expired", func(t *testing.T) {
		past := NewTokenManager("s3cret", time.Minute)
		past.now = func() time.Time { return time.Now().Add(-2 * time.Hour) }
		token, err := past.Issue("admin-1", "admin@example.com")
		require.NoError(t, err)

		_, err = manager.Verify(token)
		assert.ErrorIs(t, err, ErrInvalidToken)
	})

	t.Run("WrongIssuer", func(t *testing.T) {
		claims := Claims{
			Email: "admin@example.com",
			RegisteredClaims: jwt.RegisteredClaims{
				Subject:   "admin-1",
				Issuer:    "someone-else",
				ExpiresAt: jwt.NewNumericDate(time.Now().Add(time.Hour)),
			},
		}
		token, err := jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString([]byte("s3cret"))
		require.NoError(t, err)

		_, err = manager.Verify(token)
		assert.ErrorIs(t, err, ErrInvalidToken)
	})

	t.Run("NoneAlgorithm", func(t *testing.T) {
		claims := Claims{RegisteredClaims: jwt.RegisteredClaims{
			Subject:   "admin-1",
			Issuer:    Issuer,
			ExpiresAt: jwt.NewNumericDate(time.Now().Add(time.Hour)),
		}}
		token, err := jwt.NewWithClaims(jwt.SigningMethodNone, claims).SignedString(jwt.UnsafeAllowNoneSignatureType)
		require.NoError(t, err)

		_, err = manager.Verify(token)
		assert.ErrorIs(t, err, ErrInvalidToken)
	})

	t.Run("Garbage", func(t *testing.T) {
		_, err := manager.Verify("not.a.jwt")
		assert.ErrorIs(t, err, ErrInvalidToken)
	})

	t.Run("EmptySecretCannotIssue", func(t *testing.T) {
		_, err := NewTokenManager("", time.Hour).Issue("admin-1", "a@example.com")
		assert.Error(t, err)
	})
}
