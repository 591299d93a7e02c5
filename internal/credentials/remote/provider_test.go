package remote

import (
	"context"
	"net"
	"testing"
	"time"

	"github.com/dmitrijs2005/booksummary/internal/client/storage"
	"github.com/dmitrijs2005/booksummary/internal/credentials"
	pb "github.com/dmitrijs2005/booksummary/internal/credentials/credentialspb"
	"github.com/dmitrijs2005/booksummary/internal/credentials/local"
	"github.com/dmitrijs2005/booksummary/internal/logging"
	srvgrpc "github.com/dmitrijs2005/booksummary/internal/server/grpc"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"google.golang.org/grpc"
	"google.golang.org/grpc/credentials/insecure"
	"google.golang.org/grpc/test/bufconn"
	"google.golang.org/protobuf/types/known/structpb"
)

type memSessions struct{ token string }

func (m *memSessions) SaveSession(_ context.Context, token string) error {
	m.token = token
	return nil
}

func (m *memSessions) LoadSession(context.Context) (string, error) { return m.token, nil }

func (m *memSessions) ClearSession(context.Context) error {
	m.token = ""
	return nil
}

type env struct {
	provider *Provider
	sessions *memSessions
	server   *storage.Repositories
	lis      *bufconn.Listener
}

func dial(t *testing.T, lis *bufconn.Listener) *grpc.ClientConn {
	t.Helper()
	conn, err := grpc.NewClient("passthrough:///bufnet",
		grpc.WithContextDialer(func(ctx context.Context, _ string) (net.Conn, error) { return lis.DialContext(ctx) }),
		grpc.WithTransportCredentials(insecure.NewCredentials()))
	require.NoError(t, err)
	t.Cleanup(func() { _ = conn.Close() })
	return conn
}

func setup(t *testing.T) *env {
	t.Helper()
	repos, err := storage.Open(context.Background(), ":memory:")
	require.NoError(t, err)
	t.Cleanup(func() { _ = repos.Close() })

	backend := local.New(repos.Accounts, []byte("remote-test-secret"))
	lis := bufconn.Listen(1 << 20)
	srv := srvgrpc.NewGRPCServer("bufnet", logging.Nop{}, backend)

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan error, 1)
	go func() { done <- srv.Serve(ctx, lis) }()
	t.Cleanup(func() {
		cancel()
		<-done
	})

	sessions := &memSessions{}
	p := New(dial(t, lis), WithSessionStore(sessions), WithCallTimeout(5*time.Second))
	return &env{provider: p, sessions: sessions, server: repos, lis: lis}
}

func TestCreateAccountAndRename(t *testing.T) {
	e := setup(t)
	ctx := context.Background()

	id, err := e.provider.CreateAccount(ctx, "a@b.co", "secret1")
	require.NoError(t, err)
	assert.NotEmpty(t, id.ID)
	assert.Equal(t, id.Token, e.sessions.token)
	assert.False(t, id.ExpiresAt.IsZero())

	require.NoError(t, e.provider.UpdateDisplayName(ctx, id, "Ada"))
	a, err := e.server.Accounts.ByID(ctx, id.ID)
	require.NoError(t, err)
	assert.Equal(t, "Ada", a.DisplayName)

	_, err = e.provider.CreateAccount(ctx, "a@b.co", "secret2")
	assert.ErrorIs(t, err, credentials.ErrEmailAlreadyInUse)
}

func TestSignInErrors(t *testing.T) {
	e := setup(t)
	ctx := context.Background()

	_, err := e.provider.CreateAccount(ctx, "a@b.co", "secret1")
	require.NoError(t, err)

	_, err = e.provider.SignIn(ctx, "a@b.co", "nope-nope")
	assert.Equal(t, credentials.KindWrongPassword, credentials.KindOf(err))

	_, err = e.provider.SignIn(ctx, "x@b.co", "secret1")
	assert.Equal(t, credentials.KindUserNotFound, credentials.KindOf(err))

	_, err = e.provider.CreateAccount(ctx, "c@b.co", "123")
	assert.Equal(t, credentials.KindWeakPassword, credentials.KindOf(err))

	assert.Equal(t, credentials.KindInvalidEmail, credentials.KindOf(e.provider.SendPasswordReset(ctx, "bad")))
	assert.NoError(t, e.provider.SendPasswordReset(ctx, "a@b.co"))
}

func TestCurrentSessionAndSignOut(t *testing.T) {
	e := setup(t)
	ctx := context.Background()

	_, ok, err := e.provider.CurrentSession(ctx)
	require.NoError(t, err)
	assert.False(t, ok)

	created, err := e.provider.CreateAccount(ctx, "a@b.co", "secret1")
	require.NoError(t, err)

	fresh := New(dial(t, e.lis), WithSessionStore(e.sessions))
	id, ok, err := fresh.CurrentSession(ctx)
	require.NoError(t, err)
	require.True(t, ok)
	assert.Equal(t, created.ID, id.ID)

	require.NoError(t, fresh.UpdateDisplayName(ctx, credentials.Identity{}, "From Session"))

	require.NoError(t, fresh.SignOut(ctx))
	assert.Empty(t, e.sessions.token)
	_, ok, err = fresh.CurrentSession(ctx)
	require.NoError(t, err)
	assert.False(t, ok)

	e.sessions.token = "forged"
	_, ok, err = fresh.CurrentSession(ctx)
	require.NoError(t, err)
	assert.False(t, ok)
}

func TestUnreachableServerIsNetworkError(t *testing.T) {
	lis := bufconn.Listen(1 << 10)
	require.NoError(t, lis.Close())

	p := New(dial(t, lis), WithCallTimeout(time.Second))
	_, err := p.SignIn(context.Background(), "a@b.co", "secret1")
	require.Error(t, err)
	assert.Equal(t, credentials.KindNetwork, credentials.KindOf(err))
}

func TestUpdateDisplayName_NoSession(t *testing.T) {
	e := setup(t)
	err := e.provider.UpdateDisplayName(context.Background(), credentials.Identity{ID: "u"}, "x")
	require.Error(t, err)
}

// stalledServer never answers GetSession until the caller gives up.
type stalledServer struct {
	pb.CredentialServiceServer
}

func (stalledServer) GetSession(ctx context.Context, _ *structpb.Struct) (*structpb.Struct, error) {
	<-ctx.Done()
	return nil, ctx.Err()
}

func TestCurrentSession_StalledServerTimesOut(t *testing.T) {
	lis := bufconn.Listen(1 << 20)
	srv := grpc.NewServer()
	pb.RegisterCredentialServiceServer(srv, stalledServer{})
	go func() { _ = srv.Serve(lis) }()
	t.Cleanup(srv.Stop)

	sessions := &memSessions{token: "stored-token"}
	p := New(dial(t, lis), WithSessionStore(sessions), WithCallTimeout(50*time.Millisecond))

	start := time.Now()
	_, ok, err := p.CurrentSession(context.Background())
	require.Error(t, err)
	assert.False(t, ok)
	assert.Equal(t, credentials.KindNetwork, credentials.KindOf(err))
	assert.Less(t, time.Since(start), 2*time.Second)
}
