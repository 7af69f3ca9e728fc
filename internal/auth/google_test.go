package auth

import (
	"context"
	"errors"
	"testing"

	googleAuthIDTokenVerifier "github.com/futurenda/google-auth-id-token-verifier"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func stubVerifier(verifyErr error, claims *googleAuthIDTokenVerifier.ClaimSet) *GoogleVerifier {
	g := NewGoogleVerifier("client-id")
	g.verify = func(string, []string) error { return verifyErr }
	g.decode = func(string) (*googleAuthIDTokenVerifier.ClaimSet, error) { return claims, nil }
	return g
}

func TestGoogleVerifier(t *testing.T) {
	ctx := context.Background()

	t.Run("VerifiedEmail", func(t *testing.T) {
		claims := &googleAuthIDTokenVerifier.ClaimSet{Email: "admin@school.test", EmailVerified: true, Name: "Admin"}
		claims.Sub = "1234"

		identity, err := stubVerifier(nil, claims).Verify(ctx, "token")
		require.NoError(t, err)
		assert.Equal(t, "admin@school.test", identity.Email)
		assert.Equal(t, "Admin", identity.Name)
		assert.Equal(t, "1234", identity.Sub)
	})

	t.Run("UnverifiedEmailRejected", func(t *testing.T) {
		claims := &googleAuthIDTokenVerifier.ClaimSet{Email: "admin@school.test", EmailVerified: false}

		identity, err := stubVerifier(nil, claims).Verify(ctx, "token")
		assert.ErrorIs(t, err, ErrInvalidIDToken)
		assert.Nil(t, identity)
	})

	t.Run("MissingEmailRejected", func(t *testing.T) {
		claims := &googleAuthIDTokenVerifier.ClaimSet{EmailVerified: true}

		_, err := stubVerifier(nil, claims).Verify(ctx, "token")
		assert.ErrorIs(t, err, ErrInvalidIDToken)
	})

	t.Run("BadSignature", func(t *testing.T) {
		_, err := stubVerifier(errors.New("invalid signature"), nil).Verify(ctx, "token")
		assert.ErrorIs(t, err, ErrInvalidIDToken)
	})

	t.Run("NoClientID", func(t *testing.T) {
		_, err := NewGoogleVerifier("").Verify(ctx, "token")
		assert.ErrorIs(t, err, ErrInvalidIDToken)
	})
}
