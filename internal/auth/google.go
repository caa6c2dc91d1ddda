package auth

import (
	"context"
	"fmt"

	"github.com/coreos/go-oidc/v3/oidc"
)

const googleIssuer = "https://accounts.google.com"

// GooglePayload is the slice of the ID-token claims the login path needs.
type GooglePayload struct {
	Subject string
	Email   string
	Name    string
	Picture string
}

// GoogleVerifier checks an ID token's signature and audience and returns
// its payload.
type GoogleVerifier interface {
	Verify(ctx context.Context, idToken string) (*GooglePayload, error)
}

type oidcVerifier struct {
	verifier *oidc.IDTokenVerifier
}

// NewGoogleVerifier discovers Google's OIDC configuration and pins the
// verifier to the given client id as audience.
func NewGoogleVerifier(ctx context.Context, clientID string) (GoogleVerifier, error) {
	provider, err := oidc.NewProvider(ctx, googleIssuer)
	if err != nil {
		return nil, fmt.Errorf("discover google oidc: %w", err)
	}
	return &oidcVerifier{
		verifier: provider.Verifier(&oidc.Config{ClientID: clientID}),
	}, nil
}

func (v *oidcVerifier) Verify(ctx context.Context, idToken string) (*GooglePayload, error) {
	tok, err := v.verifier.Verify(ctx, idToken)
	if err != nil {
		return nil, fmt.Errorf("verify google token: %w", err)
	}

	var claims struct {
		Email   string `json:"email"`
		Name    string `json:"name"`
		Picture string `json:"picture"`
	}
	if err := tok.Claims(&claims); err != nil {
		return nil, fmt.Errorf("google token claims: %w", err)
	}

	return &GooglePayload{
		Subject: tok.Subject,
		Email:   claims.Email,
		Name:    claims.Name,
		Picture: claims.Picture,
	}, nil
}
