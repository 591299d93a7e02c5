// Package credentials describes the authentication backend the flows talk
// to and the error taxonomy its failures are reduced to.
package credentials

import (
	"context"
	"time"
)

// Identity is an authenticated account as seen by the client.
type Identity struct {
	ID          string
	Email       string
	DisplayName string
	// Token is the session token issued at sign-in, empty when the
	// provider has no session concept.
	Token     string
	ExpiresAt time.Time
}

// Provider is the credential backend.
//
// Contract:
//   - CreateAccount: register email/password and return the new identity.
//   - SignIn: authenticate and return the identity with a session token.
//   - SendPasswordReset: start password recovery for email.
//   - UpdateDisplayName: set the profile name; callers treat failures as
//     non-fatal.
//
// Errors wrap one of the sentinels in this package so KindOf can classify
// them. Implementations must honor ctx cancellation.
type Provider interface {
	CreateAccount(ctx context.Context, email, password string) (Identity, error)
	SignIn(ctx context.Context, email, password string) (Identity, error)
	SendPasswordReset(ctx context.Context, email string) error
	UpdateDisplayName(ctx context.Context, id Identity, name string) error
}

// SessionChecker reports whether a valid session exists. ok is false when
// there is no session or it has expired.
type SessionChecker interface {
	CurrentSession(ctx context.Context) (id Identity, ok bool, err error)
}

// SessionStore persists the session token between runs.
type SessionStore interface {
	SaveSession(ctx context.Context, token string) error
	LoadSession(ctx context.Context) (string, error)
	ClearSession(ctx context.Context) error
}

// SignOuter ends the current session.
type SignOuter interface {
	SignOut(ctx context.Context) error
}
