// Package auth resolves bearer credentials to user identities and performs
// signup/login against the identity provider (Supabase GoTrue). Tokens are
// re-verified on every request; there is no verification cache.
package auth

import (
	"context"
	"errors"
)

var (
	// ErrInvalidCredentials indicates a login with an unknown or wrong
	// email/password pair.
	ErrInvalidCredentials = errors.New("invalid credentials")

	// ErrInvalidToken indicates a bearer token that could not be verified.
	// All verification failure causes (expired, malformed, revoked, network)
	// fold into this error; the cause is logged, never surfaced.
	ErrInvalidToken = errors.New("invalid token")

	// ErrRejected indicates the provider refused a signup (e.g. weak
	// password, already registered).
	ErrRejected = errors.New("signup rejected")

	// ErrUnavailable indicates the identity provider could not be reached
	// or answered with a server error.
	ErrUnavailable = errors.New("identity provider unavailable")
)

// User is a verified identity.
type User struct {
	ID    string
	Email string
}

// Session is the result of a successful login.
type Session struct {
	AccessToken string
	User        User
}

// Verifier resolves a raw bearer token to a user identity.
type Verifier interface {
	VerifyToken(ctx context.Context, token string) (User, error)
}

// Identity is the full identity-provider contract used by the API layer.
type Identity interface {
	Verifier
	SignUp(ctx context.Context, email, password string) (User, error)
	SignIn(ctx context.Context, email, password string) (Session, error)
	SendWelcome(ctx context.Context, email string) error
}
