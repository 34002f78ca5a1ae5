package service

import (
	"context"
	"fmt"

	"google.golang.org/api/idtoken"
)

// GoogleIdentity is the subset of ID token claims used for sign-in.
type GoogleIdentity struct {
	Subject string
	Email   string
	Name    string
	Picture string
}

type GoogleVerifier interface {
	Verify(ctx context.Context, credential string) (*GoogleIdentity, error)
}

type idTokenVerifier struct {
	audience string
}

// NewGoogleVerifier returns nil when no client id is configured so callers
// can treat Google sign-in as disabled.
func NewGoogleVerifier(clientID string) GoogleVerifier {
	if clientID == "" {
		return nil
	}
	return &idTokenVerifier{audience: clientID}
}

func (v *idTokenVerifier) Verify(ctx context.Context, credential string) (*GoogleIdentity, error) {
	payload, err := idtoken.Validate(ctx, credential, v.audience)
	if err != nil {
		return nil, fmt.Errorf("validate google id token: %w", err)
	}

	identity := &GoogleIdentity{Subject: payload.Subject}
	if email, ok := payload.Claims["email"].(string); ok {
		identity.Email = email
	}
	if name, ok := payload.Claims["name"].(string); ok {
		identity.Name = name
	}
	if picture, ok := payload.Claims["picture"].(string); ok {
		identity.Picture = picture
	}
	if identity.Subject == "" {
		return nil, fmt.Errorf("google id token has no subject")
	}
	return identity, nil
}
