// Package models defines the account records stored by the client and the
// server.
package models

import "time"

// Account is a credential record. Verifier is derived from the password
// and Salt; the password itself is never stored.
type Account struct {
	ID          string
	Email       string
	DisplayName string
	Salt        []byte
	Verifier    []byte
	CreatedAt   time.Time
}

// PasswordReset is a pending recovery request. Only the hash of the token
// handed to the user is stored.
type PasswordReset struct {
	TokenHash []byte
	AccountID string
	ExpiresAt time.Time
	CreatedAt time.Time
}
