// Package remote implements credentials.Provider against the credential
// gRPC service.
package remote

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/dmitrijs2005/booksummary/internal/common"
	"github.com/dmitrijs2005/booksummary/internal/credentials"
	pb "github.com/dmitrijs2005/booksummary/internal/credentials/credentialspb"
	"github.com/dmitrijs2005/booksummary/internal/logging"
	"google.golang.org/grpc"
	"google.golang.org/grpc/credentials/insecure"
	"google.golang.org/grpc/metadata"
	"google.golang.org/protobuf/types/known/structpb"
)

const DefaultCallTimeout = 12 * time.Second

type Option func(*Provider)

// WithSessionStore persists the token returned at sign-in.
func WithSessionStore(s credentials.SessionStore) Option {
	return func(p *Provider) { p.sessions = s }
}

func WithCallTimeout(d time.Duration) Option {
	return func(p *Provider) { p.timeout = d }
}

func WithLogger(l logging.Logger) Option {
	return func(p *Provider) { p.log = l }
}

type Provider struct {
	client   pb.CredentialServiceClient
	sessions credentials.SessionStore
	timeout  time.Duration
	log      logging.Logger

	mu    sync.Mutex
	token string
}

var (
	_ credentials.Provider       = (*Provider)(nil)
	_ credentials.SessionChecker = (*Provider)(nil)
	_ credentials.SignOuter      = (*Provider)(nil)
)

// New returns a provider over an established connection.
func New(cc grpc.ClientConnInterface, opts ...Option) *Provider {
	p := &Provider{
		client:  pb.NewCredentialServiceClient(cc),
		timeout: DefaultCallTimeout,
		log:     logging.Nop{},
	}
	for _, opt := range opts {
		opt(p)
	}
	return p
}

// Dial connects to the credential server at endpoint. The caller closes
// the returned connection.
func Dial(endpoint string, opts ...Option) (*Provider, *grpc.ClientConn, error) {
	conn, err := grpc.NewClient(endpoint, grpc.WithTransportCredentials(insecure.NewCredentials()))
	if err != nil {
		return nil, nil, err
	}
	return New(conn, opts...), conn, nil
}

func withAccessToken(ctx context.Context, token string) context.Context {
	md, _ := metadata.FromOutgoingContext(ctx)
	md = md.Copy()
	if md == nil {
		md = metadata.MD{}
	}
	md.Set(common.AccessTokenHeaderName, token)

	return metadata.NewOutgoingContext(ctx, md)
}

func (p *Provider) call(ctx context.Context, fn func(context.Context) (*structpb.Struct, error)) (*structpb.Struct, error) {
	resp, err := p.invoke(ctx, fn)
	if err != nil {
		return nil, pb.FromStatus(err)
	}
	return resp, nil
}

// invoke runs fn under the call timeout and returns the status error as is.
func (p *Provider) invoke(ctx context.Context, fn func(context.Context) (*structpb.Struct, error)) (*structpb.Struct, error) {
	ctx, cancel := context.WithTimeout(ctx, p.timeout)
	defer cancel()
	return fn(ctx)
}

func (p *Provider) CreateAccount(ctx context.Context, email, password string) (credentials.Identity, error) {
	req := pb.Request(map[string]string{pb.FieldEmail: email, pb.FieldPassword: password})
	resp, err := p.call(ctx, func(ctx context.Context) (*structpb.Struct, error) {
		return p.client.CreateAccount(ctx, req)
	})
	if err != nil {
		return credentials.Identity{}, err
	}
	return p.startSession(ctx, pb.DecodeIdentity(resp))
}

func (p *Provider) SignIn(ctx context.Context, email, password string) (credentials.Identity, error) {
	req := pb.Request(map[string]string{pb.FieldEmail: email, pb.FieldPassword: password})
	resp, err := p.call(ctx, func(ctx context.Context) (*structpb.Struct, error) {
		return p.client.SignIn(ctx, req)
	})
	if err != nil {
		return credentials.Identity{}, err
	}
	return p.startSession(ctx, pb.DecodeIdentity(resp))
}

func (p *Provider) SendPasswordReset(ctx context.Context, email string) error {
	req := pb.Request(map[string]string{pb.FieldEmail: email})
	_, err := p.call(ctx, func(ctx context.Context) (*structpb.Struct, error) {
		return p.client.SendPasswordReset(ctx, req)
	})
	return err
}

// UpdateDisplayName renames the signed-in account. The token comes from id
// when set, else from the current session.
func (p *Provider) UpdateDisplayName(ctx context.Context, id credentials.Identity, name string) error {
	token := id.Token
	if token == "" {
		token = p.currentToken(ctx)
	}
	if token == "" {
		return fmt.Errorf("update display name: %w", common.ErrInvalidToken)
	}

	req := pb.Request(map[string]string{pb.FieldDisplayName: name})
	_, err := p.call(withAccessToken(ctx, token), func(ctx context.Context) (*structpb.Struct, error) {
		return p.client.UpdateDisplayName(ctx, req)
	})
	return err
}

// CurrentSession asks the server to validate the stored token. A rejected
// token means no session; transport failures are returned.
func (p *Provider) CurrentSession(ctx context.Context) (credentials.Identity, bool, error) {
	token := p.currentToken(ctx)
	if token == "" {
		return credentials.Identity{}, false, nil
	}

	resp, err := p.invoke(ctx, func(ctx context.Context) (*structpb.Struct, error) {
		return p.client.GetSession(withAccessToken(ctx, token), &structpb.Struct{})
	})
	if err != nil {
		if pb.IsUnauthenticated(err) {
			p.log.Debug(ctx, "stored session rejected", "error", err)
			return credentials.Identity{}, false, nil
		}
		return credentials.Identity{}, false, pb.FromStatus(err)
	}

	id := pb.DecodeIdentity(resp)
	id.Token = token
	return id, true, nil
}

func (p *Provider) SignOut(ctx context.Context) error {
	p.mu.Lock()
	p.token = ""
	p.mu.Unlock()

	if p.sessions == nil {
		return nil
	}
	return p.sessions.ClearSession(ctx)
}

func (p *Provider) currentToken(ctx context.Context) string {
	p.mu.Lock()
	token := p.token
	p.mu.Unlock()
	if token != "" || p.sessions == nil {
		return token
	}

	token, err := p.sessions.LoadSession(ctx)
	if err != nil {
		p.log.Warn(ctx, "load session failed", "error", err)
		return ""
	}
	return token
}

func (p *Provider) startSession(ctx context.Context, id credentials.Identity) (credentials.Identity, error) {
	if id.Token == "" {
		return credentials.Identity{}, errors.New("server returned no session token")
	}

	p.mu.Lock()
	p.token = id.Token
	p.mu.Unlock()

	if p.sessions != nil {
		if err := p.sessions.SaveSession(ctx, id.Token); err != nil {
			return credentials.Identity{}, fmt.Errorf("save session: %w", err)
		}
	}
	return id, nil
}
