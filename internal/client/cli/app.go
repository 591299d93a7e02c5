package cli

import (
	"bufio"
	"context"
	"fmt"
	"io"
	"os"
	"sync"
	"time"

	"github.com/dmitrijs2005/booksummary/internal/appflow"
	"github.com/dmitrijs2005/booksummary/internal/authflow"
	"github.com/dmitrijs2005/booksummary/internal/client/config"
	"github.com/dmitrijs2005/booksummary/internal/client/storage"
	"github.com/dmitrijs2005/booksummary/internal/credentials"
	"github.com/dmitrijs2005/booksummary/internal/credentials/local"
	"github.com/dmitrijs2005/booksummary/internal/credentials/remote"
	"github.com/dmitrijs2005/booksummary/internal/forms"
	"github.com/dmitrijs2005/booksummary/internal/habits"
	"github.com/dmitrijs2005/booksummary/internal/logging"
	"github.com/dmitrijs2005/booksummary/internal/onboarding"
	"github.com/dmitrijs2005/booksummary/internal/uiloop"
)

const (
	defaultWaitTimeout = 15 * time.Second
	pollInterval       = 20 * time.Millisecond
)

// provider is what the client needs from a credential backend.
type provider interface {
	credentials.Provider
	credentials.SessionChecker
}

// syncWriter serializes writes from the REPL and provider goroutines.
type syncWriter struct {
	mu sync.Mutex
	w  io.Writer
}

func (s *syncWriter) Write(p []byte) (int, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.w.Write(p)
}

// printMailer shows password reset tokens in the terminal.
type printMailer struct {
	w io.Writer
}

func (m printMailer) SendPasswordReset(_ context.Context, email, token string) error {
	_, err := fmt.Fprintf(m.w, "[mail to %s] your password reset code is %s\n", email, token)
	return err
}

type App struct {
	config *config.Config
	in     io.Reader
	out    io.Writer
	log    logging.Logger
	loop   *uiloop.Loop
	flow   *appflow.Controller

	waitTimeout time.Duration
	closers     []func() error
}

// NewApp opens the local database, builds the configured credential
// provider and the app flow on top of them.
func NewApp(ctx context.Context, cfg *config.Config, in io.Reader, out io.Writer) (*App, error) {
	logger := logging.NewText(os.Stderr, cfg.LogLevel)
	out = &syncWriter{w: out}

	repos, err := storage.Open(ctx, cfg.DatabasePath)
	if err != nil {
		return nil, fmt.Errorf("error initializing database: %w", err)
	}
	closers := []func() error{repos.Close}

	var p provider
	switch cfg.Provider {
	case config.ProviderRemote:
		rp, conn, err := remote.Dial(cfg.ServerEndpointAddr,
			remote.WithSessionStore(repos.Preferences),
			remote.WithLogger(logger.With("module", "remote")),
		)
		if err != nil {
			_ = repos.Close()
			return nil, fmt.Errorf("connect %s: %w", cfg.ServerEndpointAddr, err)
		}
		closers = append([]func() error{conn.Close}, closers...)
		p = rp
	default:
		p = local.New(repos.Accounts, []byte(cfg.SessionSecret),
			local.WithSessionStore(repos.Preferences),
			local.WithSessionTTL(cfg.SessionTTL),
			local.WithMailer(printMailer{w: out}),
			local.WithLogger(logger.With("module", "accounts")),
		)
	}

	app := newApp(cfg, repos, p, in, out, logger)
	app.closers = closers
	return app, nil
}

func newApp(cfg *config.Config, repos *storage.Repositories, p provider, in io.Reader, out io.Writer, logger logging.Logger) *App {
	loop := uiloop.New()
	flow := appflow.New(loop, repos.Preferences, p, repos.Habits,
		appflow.WithLogger(logger.With("module", "appflow")),
		appflow.WithSessionChecker(p),
		appflow.WithOnboardingOptions(onboarding.WithLogger(logger.With("module", "onboarding"))),
		appflow.WithAuthOptions(
			authflow.WithLogger(logger.With("module", "auth")),
			authflow.WithAlertDuration(cfg.AlertDuration),
			authflow.WithAlertGraceDelay(cfg.AlertGraceDelay),
			authflow.WithSettleDelay(cfg.AuthSettleDelay),
			authflow.WithFormOptions(forms.WithLogger(logger.With("module", "forms"))),
		),
		appflow.WithHabitOptions(habits.WithLogger(logger.With("module", "habits"))),
	)

	return &App{
		config:      cfg,
		in:          in,
		out:         out,
		log:         logger,
		loop:        loop,
		flow:        flow,
		waitTimeout: defaultWaitTimeout,
	}
}

// startLoop runs the UI loop until ctx is done. The returned channel is
// closed when the loop has exited.
func (a *App) startLoop(ctx context.Context) <-chan struct{} {
	done := make(chan struct{})
	go func() {
		defer close(done)
		if err := a.loop.Run(ctx); err != nil && ctx.Err() == nil {
			a.log.Error(ctx, "ui loop stopped", "error", err)
		}
	}()
	return done
}

// start enters the first stage and waits for the session check so the
// first screen is the right one.
func (a *App) start(ctx context.Context) error {
	var err error
	if cerr := a.loop.Call(ctx, func() { err = a.flow.Start(ctx) }); cerr != nil {
		return cerr
	}
	a.awaitSettled(ctx)
	return err
}

// Run starts the app flow and serves the REPL until the input ends or the
// user exits.
func (a *App) Run(ctx context.Context) error {
	ctx, cancel := context.WithCancel(ctx)
	done := a.startLoop(ctx)
	defer func() {
		cancel()
		<-done
	}()

	if err := a.start(ctx); err != nil {
		fmt.Fprintln(a.out, "warning:", err)
	}

	fmt.Fprintln(a.out, "Book Summary (type 'help' for commands)")
	_ = a.loop.Call(ctx, a.render)

	runREPL(ctx, a, bufio.NewScanner(a.in))

	return a.loop.Call(ctx, a.flow.Close)
}

// Close releases the database and the server connection.
func (a *App) Close() error {
	var first error
	for _, c := range a.closers {
		if err := c(); err != nil && first == nil {
			first = err
		}
	}
	a.closers = nil
	return first
}
