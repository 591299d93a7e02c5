// Package grpc serves the credential service over gRPC.
package grpc

import (
	"context"
	"net"

	"github.com/dmitrijs2005/booksummary/internal/credentials"
	"github.com/dmitrijs2005/booksummary/internal/credentials/credentialspb"
	"github.com/dmitrijs2005/booksummary/internal/logging"
	"google.golang.org/grpc"
)

// Accounts is the credential backend the server exposes.
type Accounts interface {
	credentials.Provider
	VerifyToken(ctx context.Context, token string) (credentials.Identity, error)
}

type GRPCServer struct {
	address  string
	accounts Accounts
	logger   logging.Logger
}

var _ credentialspb.CredentialServiceServer = (*GRPCServer)(nil)

func NewGRPCServer(a string, l logging.Logger, accounts Accounts) *GRPCServer {
	return &GRPCServer{
		address:  a,
		logger:   l.With("module", "grpc_server"),
		accounts: accounts,
	}
}

// NewServer returns a grpc.Server with the credential service and its
// interceptors registered.
func (s *GRPCServer) NewServer(opts ...grpc.ServerOption) *grpc.Server {
	opts = append(opts, grpc.ChainUnaryInterceptor(s.loggingInterceptor, s.accessTokenInterceptor))
	srv := grpc.NewServer(opts...)
	credentialspb.RegisterCredentialServiceServer(srv, s)
	return srv
}

// Run listens on the configured address and serves until ctx is done.
func (s *GRPCServer) Run(ctx context.Context) error {

	listen, err := net.Listen("tcp", s.address)
	if err != nil {
		return err
	}

	return s.Serve(ctx, listen)
}

// Serve serves on lis until ctx is done, then stops gracefully.
func (s *GRPCServer) Serve(ctx context.Context, lis net.Listener) error {
	srv := s.NewServer()

	go func() {
		<-ctx.Done()
		s.logger.Info(ctx, "Stopping gRPC server...")
		srv.GracefulStop()
	}()

	s.logger.Info(ctx, "Starting gRPC server", "address", lis.Addr().String())

	if err := srv.Serve(lis); err != nil {
		return err
	}
	return nil
}
