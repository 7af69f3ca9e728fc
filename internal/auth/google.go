package auth

import (
	"context"
	"errors"
	"fmt"

	googleAuthIDTokenVerifier "github.com/futurenda/google-auth-id-token-verifier"
)

var ErrInvalidIDToken = errors.New("invalid Google ID token")

// Identity is the verified subject of a Google ID token.
type Identity struct {
	Email string
	Name  string
	Sub   string
}

type IDTokenVerifier interface {
	Verify(ctx context.Context, idToken string) (*Identity, error)
}

// GoogleVerifier checks signature, expiry and audience against Google's
// published certificates and requires a verified email.
type GoogleVerifier struct {
	clientID string
	verify   func(idToken string, audience []string) error
	decode   func(idToken string) (*googleAuthIDTokenVerifier.ClaimSet, error)
}

func NewGoogleVerifier(clientID string) *GoogleVerifier {
	v := &googleAuthIDTokenVerifier.Verifier{}
	return &GoogleVerifier{
		clientID: clientID,
		verify:   v.VerifyIDToken,
		decode:   googleAuthIDTokenVerifier.Decode,
	}
}

func (g *GoogleVerifier) Verify(_ context.Context, idToken string) (*Identity, error) {
	if g.clientID == "" {
		return nil, fmt.Errorf("%w: google client id is not configured", ErrInvalidIDToken)
	}
	if err := g.verify(idToken, []string{g.clientID}); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrInvalidIDToken, err)
	}

	claimSet, err := g.decode(idToken)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrInvalidIDToken, err)
	}
	if claimSet.Email == "" || !claimSet.EmailVerified {
		return nil, fmt.Errorf("%w: email is not verified", ErrInvalidIDToken)
	}

	return &Identity{
		Email: claimSet.Email,
		Name:  claimSet.Name,
		Sub:   claimSet.Sub,
	}, nil
}
