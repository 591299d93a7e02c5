package credentialspb

import (
	"context"
	"errors"
	"fmt"

	"github.com/dmitrijs2005/booksummary/internal/common"
	"github.com/dmitrijs2005/booksummary/internal/credentials"
	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/status"
)

// ToStatus converts a provider error into a gRPC status. The status
// message is the provider code of the error's kind.
func ToStatus(err error) error {
	if err == nil {
		return nil
	}
	if errors.Is(err, common.ErrInvalidToken) || errors.Is(err, common.ErrTokenExpired) {
		return status.Error(codes.Unauthenticated, err.Error())
	}

	kind := credentials.KindOf(err)
	switch kind {
	case credentials.KindWrongPassword:
		return status.Error(codes.Unauthenticated, kind.String())
	case credentials.KindUserNotFound:
		return status.Error(codes.NotFound, kind.String())
	case credentials.KindEmailAlreadyInUse:
		return status.Error(codes.AlreadyExists, kind.String())
	case credentials.KindWeakPassword, credentials.KindInvalidEmail:
		return status.Error(codes.InvalidArgument, kind.String())
	case credentials.KindNetwork:
		return status.Error(codes.Unavailable, kind.String())
	}
	return status.Error(codes.Internal, credentials.CodeInternal)
}

// FromStatus converts an error returned by a credential service call back
// into a provider error. Transport failures become credentials.ErrNetwork.
func FromStatus(err error) error {
	if err == nil {
		return nil
	}
	if errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded) {
		return fmt.Errorf("%w: %w", credentials.ErrNetwork, err)
	}

	st, ok := status.FromError(err)
	if !ok {
		return err
	}
	switch st.Code() {
	case codes.Unavailable, codes.DeadlineExceeded, codes.Canceled:
		return fmt.Errorf("%w: %s", credentials.ErrNetwork, st.Message())
	}
	return &credentials.CodeError{Code: st.Message()}
}

// IsUnauthenticated reports whether err is an Unauthenticated status that
// carries a token error rather than a provider code.
func IsUnauthenticated(err error) bool {
	st, ok := status.FromError(err)
	return ok && st.Code() == codes.Unauthenticated && credentials.MapCode(st.Message()) == credentials.KindUnknown
}
