package cli

import (
	"context"
	"errors"
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/dmitrijs2005/booksummary/internal/appflow"
	"github.com/dmitrijs2005/booksummary/internal/authflow"
	"github.com/dmitrijs2005/booksummary/internal/forms"
	"github.com/dmitrijs2005/booksummary/internal/habits"
)

var stageHelp = map[appflow.Stage]string{
	appflow.StageOnboarding:     "Available commands: next, skip-to <page>, status, exit",
	appflow.StageAuthentication: "Available commands: signup, login, forgot, switch, close, field <name> [value], next <field>, submit, dismiss, status, exit",
	appflow.StageHabitSetup:     "Available commands: toggle <habit>, save, status, exit",
	appflow.StageMain:           "Available commands: reset, status, exit",
}

// onLoop runs fn on the UI loop and returns its error.
func (a *App) onLoop(ctx context.Context, fn func() error) error {
	var err error
	if cerr := a.loop.Call(ctx, func() { err = fn() }); cerr != nil {
		return cerr
	}
	return err
}

// Status describes the current stage for the prompt.
func (a *App) Status() string {
	var s string
	err := a.onLoop(context.Background(), func() error {
		stage := a.flow.CurrentStage()
		s = stage.String()
		switch stage {
		case appflow.StageOnboarding:
			if ob := a.flow.Onboarding(); ob != nil {
				s = fmt.Sprintf("%s %d/%d", s, ob.Index()+1, len(ob.Pages()))
			}
		case appflow.StageAuthentication:
			if auth := a.flow.Auth(); auth != nil && auth.Mode() != authflow.SheetNone {
				s = fmt.Sprintf("%s [%s]", s, auth.Mode())
			}
		}
		return nil
	})
	if err != nil {
		return "stopped"
	}
	return s
}

func (a *App) Help() string {
	var h string
	_ = a.onLoop(context.Background(), func() error {
		h = stageHelp[a.flow.CurrentStage()]
		return nil
	})
	return h
}

// Execute runs cmd against the current stage and prints the resulting
// screen.
func (a *App) Execute(ctx context.Context, cmd string, args []string) error {
	if cmd == "status" {
		return a.loop.Call(ctx, a.render)
	}

	// read secrets here, not on the loop
	if cmd == "field" && len(args) == 1 && args[0] == "password" {
		pw, err := promptSecret(a.out, "Password")
		if err != nil {
			return err
		}
		args = append(args, pw)
	}

	if err := a.onLoop(ctx, func() error { return a.execute(ctx, cmd, args) }); err != nil {
		return err
	}
	if cmd == "submit" || cmd == "next" {
		a.awaitSettled(ctx)
	}
	return a.loop.Call(ctx, a.render)
}

func (a *App) execute(ctx context.Context, cmd string, args []string) error {
	switch a.flow.CurrentStage() {
	case appflow.StageOnboarding:
		return a.onboardingCommand(cmd, args)
	case appflow.StageAuthentication:
		return a.authCommand(cmd, args)
	case appflow.StageHabitSetup:
		return a.habitCommand(ctx, cmd, args)
	case appflow.StageMain:
		return a.mainCommand(ctx, cmd)
	}
	return ErrUnknownCommand
}

func (a *App) onboardingCommand(cmd string, args []string) error {
	ob := a.flow.Onboarding()
	if ob == nil {
		return errors.New("onboarding is not available")
	}
	switch cmd {
	case "next":
		ob.Advance()
		return nil
	case "skip-to":
		if len(args) != 1 {
			return errors.New("usage: skip-to <page>")
		}
		n, err := strconv.Atoi(args[0])
		if err != nil {
			return fmt.Errorf("bad page number %q", args[0])
		}
		return ob.Show(n - 1)
	}
	return ErrUnknownCommand
}

func (a *App) authCommand(cmd string, args []string) error {
	auth := a.flow.Auth()
	if auth == nil {
		return errors.New("authentication is not available")
	}
	switch cmd {
	case "signup":
		auth.RequestSignup()
	case "login":
		auth.RequestEmailLogin()
	case "forgot":
		auth.RequestForgotPassword()
	case "switch":
		switch auth.Mode() {
		case authflow.SheetSignup:
			auth.SwitchToLogin()
		case authflow.SheetEmailLogin:
			auth.SwitchToSignup()
		default:
			return errors.New("no sheet is open")
		}
	case "close":
		if auth.ForgotPasswordVisible() {
			auth.DismissForgotPassword()
		} else {
			auth.DismissSheet()
		}
	case "dismiss":
		auth.DismissAlert()
	case "field":
		if len(args) < 2 {
			return errors.New("usage: field <name> <value>")
		}
		f := activeForm(auth)
		if f == nil {
			return errors.New("no form is open")
		}
		return f.set(args[0], strings.Join(args[1:], " "))
	case "next":
		if len(args) != 1 {
			return errors.New("usage: next <field>")
		}
		f := activeForm(auth)
		if f == nil {
			return errors.New("no form is open")
		}
		return f.submitField(args[0])
	case "submit":
		f := activeForm(auth)
		if f == nil {
			return errors.New("no form is open")
		}
		if err := f.submit(); err != nil && !errors.Is(err, forms.ErrInvalid) {
			return err
		}
	default:
		return ErrUnknownCommand
	}
	return nil
}

func (a *App) habitCommand(ctx context.Context, cmd string, args []string) error {
	setup := a.flow.Habits()
	if setup == nil {
		return errors.New("habit setup is not available")
	}
	switch cmd {
	case "toggle":
		if len(args) != 1 {
			return errors.New("usage: toggle <habit>")
		}
		return setup.Toggle(habits.Habit(strings.ToLower(args[0])))
	case "save":
		return setup.Save(ctx)
	}
	return ErrUnknownCommand
}

func (a *App) mainCommand(ctx context.Context, cmd string) error {
	if cmd == "reset" {
		return a.flow.Reset(ctx)
	}
	return ErrUnknownCommand
}

// busy reports whether a provider call, the session check or the
// post-authentication pause is still running. Must run on the loop.
func (a *App) busy() bool {
	if a.flow.SessionPending() {
		return true
	}
	if a.flow.CurrentStage() != appflow.StageAuthentication {
		return false
	}
	auth := a.flow.Auth()
	if auth == nil {
		return false
	}
	if auth.Snapshot().Completing {
		return true
	}
	f := activeForm(auth)
	return f != nil && f.inFlight()
}

// awaitSettled waits until busy turns false, ctx is done or the wait
// timeout passes.
func (a *App) awaitSettled(ctx context.Context) {
	deadline := time.Now().Add(a.waitTimeout)
	for time.Now().Before(deadline) {
		var busy bool
		if err := a.loop.Call(ctx, func() { busy = a.busy() }); err != nil || !busy {
			return
		}
		select {
		case <-ctx.Done():
			return
		case <-time.After(pollInterval):
		}
	}
}
