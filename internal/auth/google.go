package auth

import (
	"context"
	"errors"
	"fmt"

	"firebase.google.com/go/auth"
)

// IDTokenVerifier is satisfied by *auth.Client.
type IDTokenVerifier interface {
	VerifyIDTokenAndCheckRevoked(ctx context.Context, idToken string) (*auth.Token, error)
}

type Identity struct {
	UID     string
	Email   string
	Name    string
	Picture string
}

var ErrNoEmail = errors.New("email not found in token")

// GoogleIdentity verifies a Firebase ID token from the Google sign-in flow.
// The seller id is the account email.
func GoogleIdentity(ctx context.Context, v IDTokenVerifier, idToken string) (Identity, error) {
	token, err := v.VerifyIDTokenAndCheckRevoked(ctx, idToken)
	if err != nil {
		return Identity{}, fmt.Errorf("%w: %w", ErrInvalidToken, err)
	}
	email, _ := token.Claims["email"].(string)
	if email == "" {
		return Identity{}, ErrNoEmail
	}
	name, _ := token.Claims["name"].(string)
	picture, _ := token.Claims["picture"].(string)
	return Identity{UID: token.UID, Email: email, Name: name, Picture: picture}, nil
}
