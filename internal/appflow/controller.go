package appflow

import (
	"context"
	"errors"
	"fmt"

	"github.com/dmitrijs2005/booksummary/internal/authflow"
	"github.com/dmitrijs2005/booksummary/internal/credentials"
	"github.com/dmitrijs2005/booksummary/internal/flow"
	"github.com/dmitrijs2005/booksummary/internal/habits"
	"github.com/dmitrijs2005/booksummary/internal/logging"
	"github.com/dmitrijs2005/booksummary/internal/onboarding"
	"github.com/dmitrijs2005/booksummary/internal/uiloop"
)

var ErrNotStarted = errors.New("app flow not started")

type Option func(*Controller)

func WithLogger(l logging.Logger) Option {
	return func(c *Controller) { c.log = l }
}

// WithSessionChecker derives the authenticated flag from the checker
// instead of the flag store.
func WithSessionChecker(s credentials.SessionChecker) Option {
	return func(c *Controller) { c.session = s }
}

func WithPages(pages []onboarding.Page) Option {
	return func(c *Controller) { c.pages = pages }
}

func WithOnboardingOptions(opts ...onboarding.Option) Option {
	return func(c *Controller) { c.onboardingOpts = append(c.onboardingOpts, opts...) }
}

func WithAuthOptions(opts ...authflow.Option) Option {
	return func(c *Controller) { c.authOpts = append(c.authOpts, opts...) }
}

func WithHabitOptions(opts ...habits.Option) Option {
	return func(c *Controller) { c.habitOpts = append(c.habitOpts, opts...) }
}

// Snapshot is published after every stage change.
type Snapshot struct {
	Stage          Stage
	Err            error
	SessionPending bool
}

// Controller owns the stage and the sub-flow for it. It is the flow.Sink
// of its sub-flows and the only writer of the completion flags. Within a
// session the stage only moves forward; Reset is the one way back.
//
// All methods must run on the UI loop.
type Controller struct {
	exec       uiloop.Executor
	flags      FlagStore
	provider   credentials.Provider
	habitStore habits.Store
	session    credentials.SessionChecker
	log        logging.Logger

	pages          []onboarding.Page
	onboardingOpts []onboarding.Option
	authOpts       []authflow.Option
	habitOpts      []habits.Option

	ctx     context.Context
	started bool
	stage   Stage
	lastErr error

	// session state when a SessionChecker is set; sessionGen invalidates
	// a check that is still running
	authenticated  bool
	sessionPending bool
	sessionGen     int

	onboarding *onboarding.Flow
	auth       *authflow.Controller
	habits     *habits.Setup

	changes flow.Subject[Snapshot]
}

func New(exec uiloop.Executor, flags FlagStore, provider credentials.Provider, habitStore habits.Store, opts ...Option) *Controller {
	c := &Controller{
		exec:       exec,
		flags:      flags,
		provider:   provider,
		habitStore: habitStore,
		log:        logging.Nop{},
		pages:      onboarding.DefaultPages(),
		ctx:        context.Background(),
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// Start computes the initial stage from the stored flags and enters it.
// ctx is used for flag store access made on behalf of sub-flow events.
// With a SessionChecker the session is checked off the loop; the user
// counts as signed out until the answer arrives.
func (c *Controller) Start(ctx context.Context) error {
	c.ctx = ctx
	c.started = true
	if c.session != nil {
		c.checkSession(ctx)
	}
	c.stage = StageFor(c.readFlags(ctx))
	c.log.Info(ctx, "app flow started", "stage", c.stage.String())
	err := c.enter(ctx, c.stage)
	c.publish()
	return err
}

// CurrentStage returns the active stage.
func (c *Controller) CurrentStage() Stage { return c.stage }

// SessionPending reports whether the startup session check is still
// running.
func (c *Controller) SessionPending() bool { return c.sessionPending }

// LastError returns the last failure seen while reducing a sub-flow event.
func (c *Controller) LastError() error { return c.lastErr }

// Onboarding returns the onboarding flow while in StageOnboarding.
func (c *Controller) Onboarding() *onboarding.Flow { return c.onboarding }

// Auth returns the authentication controller while in StageAuthentication.
func (c *Controller) Auth() *authflow.Controller { return c.auth }

// Habits returns the habit setup while in StageHabitSetup.
func (c *Controller) Habits() *habits.Setup { return c.habits }

func (c *Controller) OnOnboardingComplete(ctx context.Context) error {
	return c.complete(ctx, FlagCompletedOnboarding, StageOnboarding)
}

func (c *Controller) OnAuthenticationComplete(ctx context.Context) error {
	return c.complete(ctx, FlagAuthenticated, StageAuthentication)
}

func (c *Controller) OnHabitsComplete(ctx context.Context) error {
	return c.complete(ctx, FlagSetHabits, StageHabitSetup)
}

// Emit reduces sub-flow events into flag writes.
func (c *Controller) Emit(e flow.Event) {
	var err error
	switch e.(type) {
	case flow.OnboardingCompleted:
		err = c.OnOnboardingComplete(c.ctx)
	case flow.AuthenticationCompleted:
		err = c.OnAuthenticationComplete(c.ctx)
	case flow.HabitsCompleted:
		err = c.OnHabitsComplete(c.ctx)
	default:
		return
	}
	if err != nil {
		c.log.Warn(c.ctx, "stage completion failed", "event", fmt.Sprintf("%T", e), "error", err)
	}
}

// Reset clears every flag, ends the session if the provider supports it,
// and returns to the stage the cleared flags select.
func (c *Controller) Reset(ctx context.Context) error {
	if !c.started {
		return ErrNotStarted
	}
	var errs []error
	for _, name := range []string{FlagCompletedOnboarding, FlagAuthenticated, FlagSetHabits} {
		if err := c.flags.SetFlag(ctx, name, false); err != nil {
			errs = append(errs, fmt.Errorf("clear %s: %w", name, err))
		}
	}
	if so, ok := c.provider.(credentials.SignOuter); ok {
		if err := so.SignOut(ctx); err != nil {
			errs = append(errs, fmt.Errorf("sign out: %w", err))
		}
	}
	c.setAuthenticated(false)

	stage := StageFor(c.readFlags(ctx))
	c.log.Info(ctx, "app flow reset", "stage", stage.String())
	c.teardown()
	c.stage = stage
	if err := c.enter(ctx, stage); err != nil {
		errs = append(errs, err)
	}
	c.lastErr = errors.Join(errs...)
	c.publish()
	return c.lastErr
}

func (c *Controller) Snapshot() Snapshot {
	return Snapshot{Stage: c.stage, Err: c.lastErr, SessionPending: c.sessionPending}
}

func (c *Controller) Subscribe(fn func(Snapshot)) (unsubscribe func()) {
	return c.changes.Subscribe(fn)
}

// Close tears down the active sub-flow. A session check still running is
// ignored when it returns.
func (c *Controller) Close() {
	c.sessionGen++
	c.sessionPending = false
	c.teardown()
}

func (c *Controller) complete(ctx context.Context, flag string, from Stage) error {
	if !c.started {
		return ErrNotStarted
	}
	if err := c.flags.SetFlag(ctx, flag, true); err != nil {
		c.lastErr = fmt.Errorf("set %s: %w", flag, err)
		c.log.Warn(ctx, "flag write failed", "flag", flag, "error", err)
		c.reenter(ctx, from)
		c.publish()
		return c.lastErr
	}
	c.lastErr = nil
	if flag == FlagAuthenticated {
		c.setAuthenticated(true)
	}

	next := StageFor(c.readFlags(ctx))
	if next <= c.stage {
		c.log.Debug(ctx, "stage unchanged", "stage", c.stage.String(), "computed", next.String())
		c.reenter(ctx, from)
		c.publish()
		return nil
	}

	c.log.Info(ctx, "stage advanced", "from", c.stage.String(), "to", next.String())
	c.teardown()
	c.stage = next
	if err := c.enter(ctx, next); err != nil {
		c.lastErr = err
	}
	c.publish()
	return c.lastErr
}

// reenter rebuilds the sub-flow of the current stage when it was the one
// that just completed, so the user can retry.
func (c *Controller) reenter(ctx context.Context, from Stage) {
	if from != c.stage {
		return
	}
	c.teardown()
	if err := c.enter(ctx, c.stage); err != nil {
		c.lastErr = errors.Join(c.lastErr, err)
	}
}

func (c *Controller) readFlags(ctx context.Context) Flags {
	f := Flags{
		CompletedOnboarding: c.readFlag(ctx, FlagCompletedOnboarding),
		SetHabits:           c.readFlag(ctx, FlagSetHabits),
	}
	if c.session == nil {
		f.Authenticated = c.readFlag(ctx, FlagAuthenticated)
		return f
	}
	f.Authenticated = c.authenticated
	return f
}

// checkSession runs the SessionChecker on its own goroutine and posts the
// answer back to the loop.
func (c *Controller) checkSession(ctx context.Context) {
	c.authenticated = false
	c.sessionPending = true
	c.sessionGen++
	gen, checker := c.sessionGen, c.session

	go func() {
		_, ok, err := checker.CurrentSession(ctx)
		if !c.exec.Post(func() { c.sessionResolved(gen, ok, err) }) {
			c.log.Warn(ctx, "ui loop stopped, dropping session check", "error", err)
		}
	}()
}

func (c *Controller) sessionResolved(gen int, ok bool, err error) {
	if gen != c.sessionGen {
		c.log.Debug(c.ctx, "stale session check ignored")
		return
	}
	c.sessionPending = false
	if err != nil {
		c.log.Warn(c.ctx, "session check failed, treating as signed out", "error", err)
		ok = false
	}
	c.authenticated = ok

	next := StageFor(c.readFlags(c.ctx))
	if next <= c.stage {
		c.publish()
		return
	}
	c.log.Info(c.ctx, "session restored", "from", c.stage.String(), "to", next.String())
	c.teardown()
	c.stage = next
	if err := c.enter(c.ctx, next); err != nil {
		c.lastErr = err
	}
	c.publish()
}

// setAuthenticated records a session state known on the loop, overriding
// any check still running.
func (c *Controller) setAuthenticated(v bool) {
	c.authenticated = v
	c.sessionPending = false
	c.sessionGen++
}

func (c *Controller) readFlag(ctx context.Context, name string) bool {
	v, err := c.flags.GetFlag(ctx, name)
	if err != nil {
		c.log.Warn(ctx, "flag read failed, treating as unset", "flag", name, "error", err)
		return false
	}
	return v
}

func (c *Controller) enter(ctx context.Context, stage Stage) error {
	switch stage {
	case StageOnboarding:
		f, err := onboarding.New(c.pages, c, c.onboardingOpts...)
		if err != nil {
			return fmt.Errorf("enter onboarding: %w", err)
		}
		c.onboarding = f
	case StageAuthentication:
		c.auth = authflow.New(c.exec, c.provider, c, c.authOpts...)
	case StageHabitSetup:
		c.habits = habits.New(c.habitStore, c, c.habitOpts...)
		if err := c.habits.Load(ctx); err != nil {
			c.log.Warn(ctx, "could not restore habit selection", "error", err)
		}
	}
	return nil
}

func (c *Controller) teardown() {
	c.onboarding = nil
	if c.auth != nil {
		c.auth.Close()
		c.auth = nil
	}
	c.habits = nil
}

func (c *Controller) publish() {
	c.changes.Notify(c.Snapshot())
}
