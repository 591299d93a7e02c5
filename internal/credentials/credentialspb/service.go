// Package credentialspb defines the credential service wire contract. The
// messages are google.protobuf.Struct values so client and server share the
// descriptor without generated code.
package credentialspb

import (
	"context"
	"time"

	"github.com/dmitrijs2005/booksummary/internal/credentials"
	"google.golang.org/grpc"
	"google.golang.org/protobuf/types/known/structpb"
)

const ServiceName = "booksummary.credentials.v1.CredentialService"

const (
	MethodCreateAccount     = "CreateAccount"
	MethodSignIn            = "SignIn"
	MethodSendPasswordReset = "SendPasswordReset"
	MethodUpdateDisplayName = "UpdateDisplayName"
	MethodGetSession        = "GetSession"
)

// Message field names.
const (
	FieldID          = "id"
	FieldEmail       = "email"
	FieldPassword    = "password"
	FieldDisplayName = "display_name"
	FieldToken       = "token"
	FieldExpiresAt   = "expires_at"
)

// FullMethod returns the gRPC method path, e.g.
// "/booksummary.credentials.v1.CredentialService/SignIn".
func FullMethod(method string) string {
	return "/" + ServiceName + "/" + method
}

// CredentialServiceServer is implemented by the credential server.
// UpdateDisplayName and GetSession require an access token.
type CredentialServiceServer interface {
	CreateAccount(context.Context, *structpb.Struct) (*structpb.Struct, error)
	SignIn(context.Context, *structpb.Struct) (*structpb.Struct, error)
	SendPasswordReset(context.Context, *structpb.Struct) (*structpb.Struct, error)
	UpdateDisplayName(context.Context, *structpb.Struct) (*structpb.Struct, error)
	GetSession(context.Context, *structpb.Struct) (*structpb.Struct, error)
}

func unaryHandler(call func(CredentialServiceServer, context.Context, *structpb.Struct) (*structpb.Struct, error), method string) grpc.MethodHandler {
	return func(srv any, ctx context.Context, dec func(any) error, interceptor grpc.UnaryServerInterceptor) (any, error) {
		in := new(structpb.Struct)
		if err := dec(in); err != nil {
			return nil, err
		}
		s := srv.(CredentialServiceServer)
		if interceptor == nil {
			return call(s, ctx, in)
		}
		info := &grpc.UnaryServerInfo{Server: srv, FullMethod: FullMethod(method)}
		return interceptor(ctx, in, info, func(ctx context.Context, req any) (any, error) {
			return call(s, ctx, req.(*structpb.Struct))
		})
	}
}

// ServiceDesc describes the credential service for grpc.Server.
var ServiceDesc = grpc.ServiceDesc{
	ServiceName: ServiceName,
	HandlerType: (*CredentialServiceServer)(nil),
	Methods: []grpc.MethodDesc{
		{MethodName: MethodCreateAccount, Handler: unaryHandler(CredentialServiceServer.CreateAccount, MethodCreateAccount)},
		{MethodName: MethodSignIn, Handler: unaryHandler(CredentialServiceServer.SignIn, MethodSignIn)},
		{MethodName: MethodSendPasswordReset, Handler: unaryHandler(CredentialServiceServer.SendPasswordReset, MethodSendPasswordReset)},
		{MethodName: MethodUpdateDisplayName, Handler: unaryHandler(CredentialServiceServer.UpdateDisplayName, MethodUpdateDisplayName)},
		{MethodName: MethodGetSession, Handler: unaryHandler(CredentialServiceServer.GetSession, MethodGetSession)},
	},
	Streams:  []grpc.StreamDesc{},
	Metadata: "booksummary/credentials/v1/credentials.proto",
}

func RegisterCredentialServiceServer(s grpc.ServiceRegistrar, srv CredentialServiceServer) {
	s.RegisterService(&ServiceDesc, srv)
}

// CredentialServiceClient is the client side of the credential service.
type CredentialServiceClient interface {
	CreateAccount(ctx context.Context, in *structpb.Struct, opts ...grpc.CallOption) (*structpb.Struct, error)
	SignIn(ctx context.Context, in *structpb.Struct, opts ...grpc.CallOption) (*structpb.Struct, error)
	SendPasswordReset(ctx context.Context, in *structpb.Struct, opts ...grpc.CallOption) (*structpb.Struct, error)
	UpdateDisplayName(ctx context.Context, in *structpb.Struct, opts ...grpc.CallOption) (*structpb.Struct, error)
	GetSession(ctx context.Context, in *structpb.Struct, opts ...grpc.CallOption) (*structpb.Struct, error)
}

type credentialServiceClient struct {
	cc grpc.ClientConnInterface
}

func NewCredentialServiceClient(cc grpc.ClientConnInterface) CredentialServiceClient {
	return &credentialServiceClient{cc: cc}
}

func (c *credentialServiceClient) invoke(ctx context.Context, method string, in *structpb.Struct, opts []grpc.CallOption) (*structpb.Struct, error) {
	out := new(structpb.Struct)
	if err := c.cc.Invoke(ctx, FullMethod(method), in, out, opts...); err != nil {
		return nil, err
	}
	return out, nil
}

func (c *credentialServiceClient) CreateAccount(ctx context.Context, in *structpb.Struct, opts ...grpc.CallOption) (*structpb.Struct, error) {
	return c.invoke(ctx, MethodCreateAccount, in, opts)
}

func (c *credentialServiceClient) SignIn(ctx context.Context, in *structpb.Struct, opts ...grpc.CallOption) (*structpb.Struct, error) {
	return c.invoke(ctx, MethodSignIn, in, opts)
}

func (c *credentialServiceClient) SendPasswordReset(ctx context.Context, in *structpb.Struct, opts ...grpc.CallOption) (*structpb.Struct, error) {
	return c.invoke(ctx, MethodSendPasswordReset, in, opts)
}

func (c *credentialServiceClient) UpdateDisplayName(ctx context.Context, in *structpb.Struct, opts ...grpc.CallOption) (*structpb.Struct, error) {
	return c.invoke(ctx, MethodUpdateDisplayName, in, opts)
}

func (c *credentialServiceClient) GetSession(ctx context.Context, in *structpb.Struct, opts ...grpc.CallOption) (*structpb.Struct, error) {
	return c.invoke(ctx, MethodGetSession, in, opts)
}

// Request builds a request message from string fields.
func Request(fields map[string]string) *structpb.Struct {
	s := &structpb.Struct{Fields: make(map[string]*structpb.Value, len(fields))}
	for k, v := range fields {
		s.Fields[k] = structpb.NewStringValue(v)
	}
	return s
}

// String reads a string field, "" when absent or not a string.
func String(s *structpb.Struct, key string) string {
	if s == nil {
		return ""
	}
	return s.GetFields()[key].GetStringValue()
}

// EncodeIdentity writes id into a response message. ExpiresAt travels as
// RFC 3339 text.
func EncodeIdentity(id credentials.Identity) *structpb.Struct {
	fields := map[string]string{
		FieldID:          id.ID,
		FieldEmail:       id.Email,
		FieldDisplayName: id.DisplayName,
		FieldToken:       id.Token,
	}
	if !id.ExpiresAt.IsZero() {
		fields[FieldExpiresAt] = id.ExpiresAt.UTC().Format(time.RFC3339)
	}
	return Request(fields)
}

// DecodeIdentity is the inverse of EncodeIdentity. A malformed expiry is
// dropped.
func DecodeIdentity(s *structpb.Struct) credentials.Identity {
	id := credentials.Identity{
		ID:          String(s, FieldID),
		Email:       String(s, FieldEmail),
		DisplayName: String(s, FieldDisplayName),
		Token:       String(s, FieldToken),
	}
	if v := String(s, FieldExpiresAt); v != "" {
		if t, err := time.Parse(time.RFC3339, v); err == nil {
			id.ExpiresAt = t
		}
	}
	return id
}
