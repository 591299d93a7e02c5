// Package authflow owns the authentication stage: which sheet is shown,
// the forgot-password overlay, the transient alert and the forms behind
// them.
//
// The primary sheet (signup or email login), the forgot-password overlay
// and the alert are independent. A form exists only while its sheet or
// overlay is shown; dismissing or retargeting closes it, and a closed form
// drops any provider result that arrives later.
package authflow

import (
	"context"
	"fmt"
	"time"

	"github.com/dmitrijs2005/booksummary/internal/credentials"
	"github.com/dmitrijs2005/booksummary/internal/flow"
	"github.com/dmitrijs2005/booksummary/internal/forms"
	"github.com/dmitrijs2005/booksummary/internal/logging"
	"github.com/dmitrijs2005/booksummary/internal/uiloop"
)

type SheetMode int

const (
	SheetNone SheetMode = iota
	SheetSignup
	SheetEmailLogin
	SheetForgotPassword
)

func (m SheetMode) String() string {
	switch m {
	case SheetNone:
		return "none"
	case SheetSignup:
		return "signup"
	case SheetEmailLogin:
		return "email_login"
	case SheetForgotPassword:
		return "forgot_password"
	default:
		return fmt.Sprintf("sheet(%d)", int(m))
	}
}

const (
	DefaultAlertDuration   = 3 * time.Second
	DefaultAlertGraceDelay = 300 * time.Millisecond
	DefaultSettleDelay     = 500 * time.Millisecond

	PasswordResetSentKey = "alert_password_reset_sent"
)

type Option func(*Controller)

func WithLogger(l logging.Logger) Option {
	return func(c *Controller) { c.log = l }
}

// WithAlertDuration sets how long an alert stays up when ShowAlert is
// called without a duration.
func WithAlertDuration(d time.Duration) Option {
	return func(c *Controller) { c.alertDuration = d }
}

// WithAlertGraceDelay sets how long a dismissed alert keeps its text.
func WithAlertGraceDelay(d time.Duration) Option {
	return func(c *Controller) { c.graceDelay = d }
}

// WithSettleDelay sets the pause between closing the sheets and emitting
// flow.AuthenticationCompleted.
func WithSettleDelay(d time.Duration) Option {
	return func(c *Controller) { c.settleDelay = d }
}

func WithClock(now func() time.Time) Option {
	return func(c *Controller) { c.now = now }
}

// WithFormOptions passes options to every form the controller opens.
func WithFormOptions(opts ...forms.Option) Option {
	return func(c *Controller) { c.formOpts = append(c.formOpts, opts...) }
}

// Snapshot is an immutable view of the controller.
type Snapshot struct {
	Mode          SheetMode
	ForgotVisible bool
	Alert         Alert
	AlertVisible  bool
	Completing    bool
}

// Controller must be used from the UI loop only.
type Controller struct {
	exec     uiloop.Executor
	provider credentials.Provider
	parent   flow.Sink
	log      logging.Logger
	now      func() time.Time
	formOpts []forms.Option

	alertDuration time.Duration
	graceDelay    time.Duration
	settleDelay   time.Duration

	mode          SheetMode
	forgotVisible bool

	alert        Alert
	alertVisible bool
	expiry       uiloop.Timer
	grace        uiloop.Timer

	completing bool
	settle     uiloop.Timer
	closed     bool

	signup *forms.Form[forms.SignupField]
	login  *forms.Form[forms.LoginField]
	forgot *forms.Form[forms.ForgotField]

	changes flow.Subject[Snapshot]
}

// New builds a controller that reports flow.AuthenticationCompleted to
// parent.
func New(exec uiloop.Executor, provider credentials.Provider, parent flow.Sink, opts ...Option) *Controller {
	if parent == nil {
		parent = flow.Discard
	}
	c := &Controller{
		exec:          exec,
		provider:      provider,
		parent:        parent,
		log:           logging.Nop{},
		now:           time.Now,
		alertDuration: DefaultAlertDuration,
		graceDelay:    DefaultAlertGraceDelay,
		settleDelay:   DefaultSettleDelay,
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

func (c *Controller) Mode() SheetMode { return c.mode }

func (c *Controller) ForgotPasswordVisible() bool { return c.forgotVisible }

// Signup returns the open signup form, or nil.
func (c *Controller) Signup() *forms.Form[forms.SignupField] { return c.signup }

// EmailLogin returns the open login form, or nil.
func (c *Controller) EmailLogin() *forms.Form[forms.LoginField] { return c.login }

// ForgotPassword returns the open forgot-password form, or nil.
func (c *Controller) ForgotPassword() *forms.Form[forms.ForgotField] { return c.forgot }

// RequestSignup opens the signup sheet unless a sheet is already shown.
func (c *Controller) RequestSignup() {
	if c.mode == SheetNone && !c.completing {
		c.setMode(SheetSignup)
	}
}

// RequestEmailLogin opens the login sheet unless a sheet is already shown.
func (c *Controller) RequestEmailLogin() {
	if c.mode == SheetNone && !c.completing {
		c.setMode(SheetEmailLogin)
	}
}

// SwitchToLogin and SwitchToSignup retarget the primary sheet. Nothing
// opens once authentication is completing.
func (c *Controller) SwitchToLogin() {
	if !c.completing {
		c.setMode(SheetEmailLogin)
	}
}

func (c *Controller) SwitchToSignup() {
	if !c.completing {
		c.setMode(SheetSignup)
	}
}

func (c *Controller) DismissSheet() { c.setMode(SheetNone) }

// RequestForgotPassword shows the overlay if it is not already shown.
func (c *Controller) RequestForgotPassword() {
	if c.closed || c.completing || c.forgotVisible {
		return
	}
	c.forgotVisible = true
	c.forgot = forms.NewForgotPassword(c.provider, c.exec, flow.SinkFunc(c.onFormEvent), c.formOpts...)
	c.log.Debug(context.Background(), "forgot password shown")
	c.publish()
}

// CompleteForgotPassword hides the overlay and, on success, raises the
// reset-sent alert.
func (c *Controller) CompleteForgotPassword(success bool) {
	if c.forgot != nil {
		c.forgot.Close()
		c.forgot = nil
	}
	wasVisible := c.forgotVisible
	c.forgotVisible = false
	if wasVisible {
		c.log.Debug(context.Background(), "forgot password hidden", "success", success)
	}
	c.publish()

	if success {
		c.ShowAlert(PasswordResetSentKey, AlertSuccess, 0)
	}
}

// DismissForgotPassword hides the overlay without an alert.
func (c *Controller) DismissForgotPassword() { c.CompleteForgotPassword(false) }

// CompleteAuthentication closes every sheet and the alert, then after the
// settle delay emits flow.AuthenticationCompleted. Repeated calls are
// ignored.
func (c *Controller) CompleteAuthentication() {
	if c.closed || c.completing {
		return
	}
	c.completing = true
	c.DismissSheet()
	c.DismissForgotPassword()
	c.DismissAlert()

	c.log.Debug(context.Background(), "authentication complete, settling", "delay", c.settleDelay)
	c.settle = c.exec.AfterFunc(c.settleDelay, func() {
		if c.closed {
			return
		}
		c.log.Info(context.Background(), "authentication completed")
		c.parent.Emit(flow.AuthenticationCompleted{})
	})
	c.publish()
}

// Close tears the controller down: open forms are closed and pending
// timers stopped, including the completion signal if it has not fired.
func (c *Controller) Close() {
	if c.closed {
		return
	}
	c.closeForms()
	c.stopAlertTimers()
	if c.settle != nil {
		c.settle.Stop()
	}
	c.closed = true
}

func (c *Controller) Snapshot() Snapshot {
	return Snapshot{
		Mode:          c.mode,
		ForgotVisible: c.forgotVisible,
		Alert:         c.alert,
		AlertVisible:  c.alertVisible,
		Completing:    c.completing,
	}
}

func (c *Controller) Subscribe(fn func(Snapshot)) (unsubscribe func()) {
	return c.changes.Subscribe(fn)
}

func (c *Controller) setMode(m SheetMode) {
	if c.closed || m == c.mode {
		return
	}
	c.closePrimary()
	c.mode = m

	sink := flow.SinkFunc(c.onFormEvent)
	switch m {
	case SheetSignup:
		c.signup = forms.NewSignup(c.provider, c.exec, sink, c.formOpts...)
	case SheetEmailLogin:
		c.login = forms.NewEmailLogin(c.provider, c.exec, sink, c.formOpts...)
	}
	c.log.Debug(context.Background(), "sheet mode changed", "mode", m.String())
	c.publish()
}

func (c *Controller) closePrimary() {
	if c.signup != nil {
		c.signup.Close()
		c.signup = nil
	}
	if c.login != nil {
		c.login.Close()
		c.login = nil
	}
}

func (c *Controller) closeForms() {
	c.closePrimary()
	if c.forgot != nil {
		c.forgot.Close()
		c.forgot = nil
	}
}

func (c *Controller) onFormEvent(e flow.Event) {
	switch ev := e.(type) {
	case flow.FormSucceeded:
		switch ev.Form {
		case flow.FormSignup, flow.FormEmailLogin:
			c.CompleteAuthentication()
		case flow.FormForgotPassword:
			c.CompleteForgotPassword(true)
		}
	case flow.FormFailed:
		if ev.Form == flow.FormEmailLogin {
			c.ShowAlert(ev.MessageKey, AlertError, 0)
		}
	}
}

func (c *Controller) publish() {
	c.changes.Notify(c.Snapshot())
}
