package grpc

import (
	"context"

	"github.com/dmitrijs2005/booksummary/internal/credentials"
	pb "github.com/dmitrijs2005/booksummary/internal/credentials/credentialspb"
	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/status"
	"google.golang.org/protobuf/types/known/structpb"
)

func (s *GRPCServer) fail(ctx context.Context, method string, err error) error {
	kind := credentials.KindOf(err)
	if kind == credentials.KindUnknown {
		s.logger.Error(ctx, "request failed", "method", method, "error", err)
	} else {
		s.logger.Info(ctx, "request rejected", "method", method, "kind", kind.String())
	}
	return pb.ToStatus(err)
}

func (s *GRPCServer) CreateAccount(ctx context.Context, req *structpb.Struct) (*structpb.Struct, error) {

	id, err := s.accounts.CreateAccount(ctx, pb.String(req, pb.FieldEmail), pb.String(req, pb.FieldPassword))
	if err != nil {
		return nil, s.fail(ctx, pb.MethodCreateAccount, err)
	}

	s.logger.Info(ctx, "Registered", "user_id", id.ID)
	return pb.EncodeIdentity(id), nil
}

func (s *GRPCServer) SignIn(ctx context.Context, req *structpb.Struct) (*structpb.Struct, error) {

	id, err := s.accounts.SignIn(ctx, pb.String(req, pb.FieldEmail), pb.String(req, pb.FieldPassword))
	if err != nil {
		return nil, s.fail(ctx, pb.MethodSignIn, err)
	}

	return pb.EncodeIdentity(id), nil
}

func (s *GRPCServer) SendPasswordReset(ctx context.Context, req *structpb.Struct) (*structpb.Struct, error) {

	if err := s.accounts.SendPasswordReset(ctx, pb.String(req, pb.FieldEmail)); err != nil {
		return nil, s.fail(ctx, pb.MethodSendPasswordReset, err)
	}

	return &structpb.Struct{}, nil
}

func (s *GRPCServer) UpdateDisplayName(ctx context.Context, req *structpb.Struct) (*structpb.Struct, error) {

	id, ok := IdentityFromContext(ctx)
	if !ok {
		return nil, status.Error(codes.Unauthenticated, "missing identity")
	}

	if err := s.accounts.UpdateDisplayName(ctx, id, pb.String(req, pb.FieldDisplayName)); err != nil {
		return nil, s.fail(ctx, pb.MethodUpdateDisplayName, err)
	}

	return &structpb.Struct{}, nil
}

func (s *GRPCServer) GetSession(ctx context.Context, _ *structpb.Struct) (*structpb.Struct, error) {

	id, ok := IdentityFromContext(ctx)
	if !ok {
		return nil, status.Error(codes.Unauthenticated, "missing identity")
	}

	return pb.EncodeIdentity(id), nil
}
