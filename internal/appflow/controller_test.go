package appflow

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/dmitrijs2005/booksummary/internal/credentials"
	"github.com/dmitrijs2005/booksummary/internal/credentials/credentialstest"
	"github.com/dmitrijs2005/booksummary/internal/forms"
	"github.com/dmitrijs2005/booksummary/internal/habits"
	"github.com/dmitrijs2005/booksummary/internal/onboarding"
	"github.com/dmitrijs2005/booksummary/internal/uiloop"
	"github.com/dmitrijs2005/booksummary/internal/uiloop/uilooptest"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type memFlags struct {
	values   map[string]bool
	getErr   error
	setErr   error
	setCalls []string
}

func newMemFlags() *memFlags { return &memFlags{values: map[string]bool{}} }

func (m *memFlags) GetFlag(ctx context.Context, name string) (bool, error) {
	if m.getErr != nil {
		return false, m.getErr
	}
	return m.values[name], nil
}

func (m *memFlags) SetFlag(ctx context.Context, name string, value bool) error {
	m.setCalls = append(m.setCalls, name)
	if m.setErr != nil {
		return m.setErr
	}
	m.values[name] = value
	return nil
}

type memHabits struct{ saved []string }

func (m *memHabits) SaveHabits(ctx context.Context, h []string) error {
	m.saved = h
	return nil
}

func (m *memHabits) LoadHabits(ctx context.Context) ([]string, error) { return m.saved, nil }

type fakeSession struct {
	ok  bool
	err error
}

func (f *fakeSession) CurrentSession(ctx context.Context) (credentials.Identity, bool, error) {
	return credentials.Identity{}, f.ok, f.err
}

type signOutProvider struct {
	credentialstest.Fake
	signedOut int
}

func (p *signOutProvider) SignOut(ctx context.Context) error {
	p.signedOut++
	return nil
}

func TestStageFor(t *testing.T) {
	tests := []struct {
		flags Flags
		want  Stage
	}{
		{Flags{}, StageOnboarding},
		{Flags{Authenticated: true, SetHabits: true}, StageOnboarding},
		{Flags{CompletedOnboarding: true}, StageAuthentication},
		{Flags{CompletedOnboarding: true, SetHabits: true}, StageAuthentication},
		{Flags{CompletedOnboarding: true, Authenticated: true}, StageHabitSetup},
		{Flags{CompletedOnboarding: true, Authenticated: true, SetHabits: true}, StageMain},
	}
	for _, tt := range tests {
		t.Run(tt.want.String(), func(t *testing.T) {
			assert.Equal(t, tt.want, StageFor(tt.flags))
		})
	}
}

func TestController_FreshInstallProgression(t *testing.T) {
	ctx := context.Background()
	flags := newMemFlags()
	c := New(uilooptest.New(), flags, &credentialstest.Fake{}, &memHabits{})

	var stages []Stage
	c.Subscribe(func(s Snapshot) { stages = append(stages, s.Stage) })

	require.NoError(t, c.Start(ctx))
	assert.Equal(t, StageOnboarding, c.CurrentStage())
	require.NotNil(t, c.Onboarding())

	require.NoError(t, c.OnOnboardingComplete(ctx))
	assert.Equal(t, StageAuthentication, c.CurrentStage())
	assert.Nil(t, c.Onboarding())
	require.NotNil(t, c.Auth())

	require.NoError(t, c.OnAuthenticationComplete(ctx))
	assert.Equal(t, StageHabitSetup, c.CurrentStage())
	assert.Nil(t, c.Auth())
	require.NotNil(t, c.Habits())

	require.NoError(t, c.OnHabitsComplete(ctx))
	assert.Equal(t, StageMain, c.CurrentStage())
	assert.Nil(t, c.Habits())

	assert.Equal(t, []Stage{StageOnboarding, StageAuthentication, StageHabitSetup, StageMain}, stages)
	assert.Equal(t, []string{FlagCompletedOnboarding, FlagAuthenticated, FlagSetHabits}, flags.setCalls)
}

func TestController_StartsFromStoredFlags(t *testing.T) {
	flags := newMemFlags()
	flags.values[FlagCompletedOnboarding] = true
	flags.values[FlagAuthenticated] = true

	c := New(uilooptest.New(), flags, &credentialstest.Fake{}, &memHabits{saved: []string{"music"}})
	require.NoError(t, c.Start(context.Background()))

	assert.Equal(t, StageHabitSetup, c.CurrentStage())
	assert.Equal(t, []habits.Habit{habits.Music}, c.Habits().Selected())
}

func TestController_ReadFailureDegradesToUnset(t *testing.T) {
	flags := newMemFlags()
	flags.values[FlagCompletedOnboarding] = true
	flags.values[FlagAuthenticated] = true
	flags.values[FlagSetHabits] = true
	flags.getErr = errors.New("io")

	c := New(uilooptest.New(), flags, &credentialstest.Fake{}, &memHabits{})
	require.NoError(t, c.Start(context.Background()))
	assert.Equal(t, StageOnboarding, c.CurrentStage())
}

func TestController_NeverRegresses(t *testing.T) {
	ctx := context.Background()
	flags := newMemFlags()
	flags.values[FlagCompletedOnboarding] = true
	c := New(uilooptest.New(), flags, &credentialstest.Fake{}, &memHabits{})
	require.NoError(t, c.Start(ctx))
	require.Equal(t, StageAuthentication, c.CurrentStage())

	// an out-of-band flag loss must not pull the user back
	flags.values[FlagCompletedOnboarding] = false
	require.NoError(t, c.OnAuthenticationComplete(ctx))
	assert.Equal(t, StageAuthentication, c.CurrentStage())
}

func TestController_WriteFailureKeepsStageAndRebuildsSubFlow(t *testing.T) {
	ctx := context.Background()
	flags := newMemFlags()
	c := New(uilooptest.New(), flags, &credentialstest.Fake{}, &memHabits{})
	require.NoError(t, c.Start(ctx))

	first := c.Onboarding()
	first.Advance()
	first.Advance()
	flags.setErr = errors.New("read-only")
	first.Advance()

	assert.Equal(t, StageOnboarding, c.CurrentStage())
	require.Error(t, c.LastError())
	require.NotNil(t, c.Onboarding())
	assert.NotSame(t, first, c.Onboarding())
	assert.Equal(t, 0, c.Onboarding().Index())

	flags.setErr = nil
	for i := 0; i < 3; i++ {
		c.Onboarding().Advance()
	}
	assert.Equal(t, StageAuthentication, c.CurrentStage())
	assert.NoError(t, c.LastError())
}

func TestController_EventsFromSubFlows(t *testing.T) {
	ctx := context.Background()
	loop := uilooptest.New()
	store := &memHabits{}
	c := New(loop, newMemFlags(), &credentialstest.Fake{}, store,
		WithPages([]onboarding.Page{{TitleKey: "only"}}),
		WithAuthOptions())
	require.NoError(t, c.Start(ctx))

	c.Onboarding().Advance()
	require.Equal(t, StageAuthentication, c.CurrentStage())

	auth := c.Auth()
	auth.RequestEmailLogin()
	login := auth.EmailLogin()
	login.Set(forms.LoginEmail, "user@x.com")
	login.Set(forms.LoginPassword, "secret1")
	require.NoError(t, login.Submit())
	require.True(t, loop.Settle(time.Second))
	assert.Equal(t, StageAuthentication, c.CurrentStage(), "waits for the settle delay")

	loop.Advance(time.Second)
	require.Equal(t, StageHabitSetup, c.CurrentStage())

	require.NoError(t, c.Habits().Toggle(habits.Reading))
	require.NoError(t, c.Habits().Save(ctx))
	assert.Equal(t, StageMain, c.CurrentStage())
	assert.Equal(t, []string{"reading"}, store.saved)
}

func TestController_SessionChecker(t *testing.T) {
	ctx := context.Background()
	flags := newMemFlags()
	flags.values[FlagCompletedOnboarding] = true
	flags.values[FlagAuthenticated] = true

	loop := uilooptest.New()
	c := New(loop, flags, &credentialstest.Fake{}, &memHabits{}, WithSessionChecker(&fakeSession{}))
	require.NoError(t, c.Start(ctx))
	assert.True(t, c.SessionPending())
	require.True(t, loop.Settle(time.Second))
	assert.False(t, c.SessionPending())
	assert.Equal(t, StageAuthentication, c.CurrentStage(), "stored flag ignored without a session")

	require.NoError(t, c.OnAuthenticationComplete(ctx))
	assert.Equal(t, StageHabitSetup, c.CurrentStage())

	brokenLoop := uilooptest.New()
	broken := New(brokenLoop, flags, &credentialstest.Fake{}, &memHabits{}, WithSessionChecker(&fakeSession{ok: true, err: errors.New("expired")}))
	require.NoError(t, broken.Start(ctx))
	require.True(t, brokenLoop.Settle(time.Second))
	assert.Equal(t, StageAuthentication, broken.CurrentStage())
	assert.NotNil(t, broken.Auth())
}

func TestController_RestoredSessionAdvancesStage(t *testing.T) {
	ctx := context.Background()
	flags := newMemFlags()
	flags.values[FlagCompletedOnboarding] = true
	flags.values[FlagSetHabits] = true

	loop := uilooptest.New()
	c := New(loop, flags, &credentialstest.Fake{}, &memHabits{}, WithSessionChecker(&fakeSession{ok: true}))
	var snaps []Snapshot
	c.Subscribe(func(s Snapshot) { snaps = append(snaps, s) })

	require.NoError(t, c.Start(ctx))
	assert.Equal(t, StageAuthentication, c.CurrentStage())

	require.True(t, loop.Settle(time.Second))
	assert.Equal(t, StageMain, c.CurrentStage())
	assert.Nil(t, c.Auth(), "auth sub-flow torn down")
	assert.Equal(t, []Snapshot{
		{Stage: StageAuthentication, SessionPending: true},
		{Stage: StageMain},
	}, snaps)
}

func TestController_StaleSessionCheckIgnored(t *testing.T) {
	ctx := context.Background()
	flags := newMemFlags()
	flags.values[FlagCompletedOnboarding] = true
	flags.values[FlagSetHabits] = true

	loop := uilooptest.New()
	c := New(loop, flags, &signOutProvider{}, &memHabits{}, WithSessionChecker(&fakeSession{ok: true}))
	require.NoError(t, c.Start(ctx))

	// the user resets before the check answers
	require.NoError(t, c.Reset(ctx))
	require.True(t, loop.Settle(time.Second))
	assert.Equal(t, StageOnboarding, c.CurrentStage())
	assert.False(t, c.SessionPending())
}

// blockingSession answers only once release is closed.
type blockingSession struct{ release chan struct{} }

func (s *blockingSession) CurrentSession(ctx context.Context) (credentials.Identity, bool, error) {
	select {
	case <-s.release:
		return credentials.Identity{}, true, nil
	case <-ctx.Done():
		return credentials.Identity{}, false, ctx.Err()
	}
}

func TestController_SlowSessionCheckDoesNotBlockLoop(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	loop := uiloop.New()
	done := make(chan struct{})
	go func() {
		defer close(done)
		_ = loop.Run(ctx)
	}()
	t.Cleanup(func() {
		cancel()
		<-done
	})

	flags := newMemFlags()
	flags.values[FlagCompletedOnboarding] = true
	session := &blockingSession{release: make(chan struct{})}
	c := New(loop, flags, &credentialstest.Fake{}, &memHabits{}, WithSessionChecker(session))

	var startErr error
	require.NoError(t, loop.Call(ctx, func() { startErr = c.Start(ctx) }))
	require.NoError(t, startErr)

	fired := make(chan struct{})
	loop.AfterFunc(10*time.Millisecond, func() { close(fired) })
	select {
	case <-fired:
	case <-time.After(time.Second):
		t.Fatal("timer did not run while the session check was pending")
	}

	var (
		stage   Stage
		pending bool
	)
	require.NoError(t, loop.Call(ctx, func() { stage, pending = c.CurrentStage(), c.SessionPending() }))
	assert.Equal(t, StageAuthentication, stage)
	assert.True(t, pending)

	close(session.release)
	require.Eventually(t, func() bool {
		var s Stage
		_ = loop.Call(ctx, func() { s = c.CurrentStage() })
		return s == StageHabitSetup
	}, time.Second, 5*time.Millisecond)
}

func TestController_Reset(t *testing.T) {
	ctx := context.Background()
	flags := newMemFlags()
	flags.values[FlagCompletedOnboarding] = true
	flags.values[FlagAuthenticated] = true
	flags.values[FlagSetHabits] = true
	provider := &signOutProvider{}

	c := New(uilooptest.New(), flags, provider, &memHabits{})
	require.NoError(t, c.Start(ctx))
	require.Equal(t, StageMain, c.CurrentStage())

	require.NoError(t, c.Reset(ctx))
	assert.Equal(t, StageOnboarding, c.CurrentStage())
	assert.NotNil(t, c.Onboarding())
	assert.Equal(t, 1, provider.signedOut)
	assert.False(t, flags.values[FlagSetHabits])
}

func TestController_NotStarted(t *testing.T) {
	c := New(uilooptest.New(), newMemFlags(), &credentialstest.Fake{}, &memHabits{})
	assert.ErrorIs(t, c.OnOnboardingComplete(context.Background()), ErrNotStarted)
	assert.ErrorIs(t, c.Reset(context.Background()), ErrNotStarted)
}

func TestController_EmptyPages(t *testing.T) {
	c := New(uilooptest.New(), newMemFlags(), &credentialstest.Fake{}, &memHabits{}, WithPages(nil))
	assert.ErrorIs(t, c.Start(context.Background()), onboarding.ErrNoPages)
}
