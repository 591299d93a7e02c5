package credentialspb

import (
	"context"
	"errors"
	"fmt"
	"testing"
	"time"

	"github.com/dmitrijs2005/booksummary/internal/common"
	"github.com/dmitrijs2005/booksummary/internal/credentials"
	"github.com/google/go-cmp/cmp"
	"github.com/stretchr/testify/assert"
	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/status"
)

func TestFullMethod(t *testing.T) {
	assert.Equal(t, "/booksummary.credentials.v1.CredentialService/SignIn", FullMethod(MethodSignIn))
}

func TestIdentityRoundTrip(t *testing.T) {
	in := credentials.Identity{
		ID:          "u-1",
		Email:       "a@b.co",
		DisplayName: "Ada",
		Token:       "tok",
		ExpiresAt:   time.Date(2030, 1, 2, 3, 4, 5, 0, time.UTC),
	}
	if diff := cmp.Diff(in, DecodeIdentity(EncodeIdentity(in))); diff != "" {
		t.Fatalf("identity mismatch (-want +got):\n%s", diff)
	}

	out := DecodeIdentity(EncodeIdentity(credentials.Identity{ID: "u-2"}))
	assert.True(t, out.ExpiresAt.IsZero())
	assert.Equal(t, "", String(nil, FieldID))
}

func TestStatusMapping(t *testing.T) {
	tests := []struct {
		err  error
		code codes.Code
		kind credentials.Kind
	}{
		{credentials.ErrWrongPassword, codes.Unauthenticated, credentials.KindWrongPassword},
		{fmt.Errorf("lookup: %w", credentials.ErrUserNotFound), codes.NotFound, credentials.KindUserNotFound},
		{credentials.ErrEmailAlreadyInUse, codes.AlreadyExists, credentials.KindEmailAlreadyInUse},
		{credentials.ErrWeakPassword, codes.InvalidArgument, credentials.KindWeakPassword},
		{credentials.ErrInvalidEmail, codes.InvalidArgument, credentials.KindInvalidEmail},
		{errors.New("disk full"), codes.Internal, credentials.KindUnknown},
	}
	for _, tt := range tests {
		t.Run(tt.err.Error(), func(t *testing.T) {
			st := ToStatus(tt.err)
			assert.Equal(t, tt.code, status.Code(st))
			assert.Equal(t, tt.kind, credentials.KindOf(FromStatus(st)))
		})
	}
}

func TestToStatus_Tokens(t *testing.T) {
	err := ToStatus(common.ErrTokenExpired)
	assert.Equal(t, codes.Unauthenticated, status.Code(err))
	assert.True(t, IsUnauthenticated(err))
	assert.False(t, IsUnauthenticated(ToStatus(credentials.ErrWrongPassword)))
	assert.Nil(t, ToStatus(nil))
}

func TestFromStatus_Transport(t *testing.T) {
	for _, err := range []error{
		status.Error(codes.Unavailable, "connection refused"),
		status.Error(codes.DeadlineExceeded, "slow"),
		context.DeadlineExceeded,
	} {
		got := FromStatus(err)
		assert.ErrorIs(t, got, credentials.ErrNetwork)
		assert.Equal(t, credentials.KindNetwork, credentials.KindOf(got))
	}

	disabled := FromStatus(status.Error(codes.PermissionDenied, credentials.CodeUserDisabled))
	assert.Equal(t, credentials.KindUserNotFound, credentials.KindOf(disabled))
	assert.Nil(t, FromStatus(nil))
}
