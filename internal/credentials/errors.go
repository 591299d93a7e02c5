package credentials

import (
	"context"
	"errors"
	"fmt"
	"net"
)

// Kind classifies a provider failure.
type Kind int

const (
	KindUnknown Kind = iota
	KindWrongPassword
	KindUserNotFound
	KindEmailAlreadyInUse
	KindWeakPassword
	KindInvalidEmail
	KindNetwork
)

var (
	ErrWrongPassword     = errors.New("wrong password")
	ErrUserNotFound      = errors.New("user not found")
	ErrEmailAlreadyInUse = errors.New("email already in use")
	ErrWeakPassword      = errors.New("weak password")
	ErrInvalidEmail      = errors.New("invalid email")
	ErrNetwork           = errors.New("network request failed")
)

// Provider error codes, shared by the local provider, the gRPC status
// messages and MapCode.
const (
	CodeWrongPassword     = "wrong-password"
	CodeUserNotFound      = "user-not-found"
	CodeUserDisabled      = "user-disabled"
	CodeEmailAlreadyInUse = "email-already-in-use"
	CodeWeakPassword      = "weak-password"
	CodeInvalidEmail      = "invalid-email"
	CodeNetwork           = "network-request-failed"
	CodeInternal          = "internal-error"
)

// Message keys shown to the user for a failed provider call.
const (
	MessageWrongPassword     = "error_wrong_password"
	MessageUserNotFound      = "error_user_not_found"
	MessageEmailAlreadyInUse = "error_email_already_in_use"
	MessageWeakPassword      = "error_weak_password"
	MessageInvalidEmail      = "error_email_invalid"
	MessageNetwork           = "error_network_error"
)

var kinds = []struct {
	kind    Kind
	err     error
	code    string
	message string
}{
	{KindWrongPassword, ErrWrongPassword, CodeWrongPassword, MessageWrongPassword},
	{KindUserNotFound, ErrUserNotFound, CodeUserNotFound, MessageUserNotFound},
	{KindEmailAlreadyInUse, ErrEmailAlreadyInUse, CodeEmailAlreadyInUse, MessageEmailAlreadyInUse},
	{KindWeakPassword, ErrWeakPassword, CodeWeakPassword, MessageWeakPassword},
	{KindInvalidEmail, ErrInvalidEmail, CodeInvalidEmail, MessageInvalidEmail},
	{KindNetwork, ErrNetwork, CodeNetwork, MessageNetwork},
}

// String returns the provider code for k.
func (k Kind) String() string {
	for _, e := range kinds {
		if e.kind == k {
			return e.code
		}
	}
	if k == KindUnknown {
		return "unknown"
	}
	return fmt.Sprintf("kind(%d)", int(k))
}

// MessageKey returns the user-facing message key for k, or "" for
// KindUnknown; callers pick their own generic key in that case.
func (k Kind) MessageKey() string {
	for _, e := range kinds {
		if e.kind == k {
			return e.message
		}
	}
	return ""
}

// Err returns the sentinel for k, nil for KindUnknown.
func (k Kind) Err() error {
	for _, e := range kinds {
		if e.kind == k {
			return e.err
		}
	}
	return nil
}

// CodeError is a failure reported by a backend as a bare code string.
type CodeError struct {
	Code    string
	Message string
}

func (e *CodeError) Error() string {
	if e.Message == "" {
		return e.Code
	}
	return e.Code + ": " + e.Message
}

// Unwrap exposes the sentinel matching Code, so errors.Is works on a
// CodeError too.
func (e *CodeError) Unwrap() error {
	return MapCode(e.Code).Err()
}

// MapCode maps a provider code string to a Kind. Disabled accounts are
// reported as not found. Unrecognised codes map to KindUnknown.
func MapCode(code string) Kind {
	if code == CodeUserDisabled {
		return KindUserNotFound
	}
	for _, e := range kinds {
		if e.code == code {
			return e.kind
		}
	}
	return KindUnknown
}

// KindOf classifies err. It is the single place provider failures are
// mapped; everything downstream works with the Kind.
func KindOf(err error) Kind {
	if err == nil {
		return KindUnknown
	}
	for _, e := range kinds {
		if errors.Is(err, e.err) {
			return e.kind
		}
	}
	if errors.Is(err, context.DeadlineExceeded) || errors.Is(err, context.Canceled) {
		return KindNetwork
	}
	var netErr net.Error
	if errors.As(err, &netErr) {
		return KindNetwork
	}
	return KindUnknown
}
