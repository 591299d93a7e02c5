// Package flow defines the events sub-flows emit to their owner and the
// small publish/subscribe primitive controllers use to expose state.
//
// A sub-flow never calls into its parent. It emits an Event to the Sink it
// was built with, and the owner reduces that event into its own state.
package flow

import (
	"fmt"

	"github.com/dmitrijs2005/booksummary/internal/credentials"
)

// Form identifies one of the credential forms.
type Form int

const (
	FormSignup Form = iota + 1
	FormEmailLogin
	FormForgotPassword
)

func (f Form) String() string {
	switch f {
	case FormSignup:
		return "signup"
	case FormEmailLogin:
		return "email_login"
	case FormForgotPassword:
		return "forgot_password"
	default:
		return fmt.Sprintf("form(%d)", int(f))
	}
}

// Event is implemented by every value a sub-flow can emit.
type Event interface {
	isEvent()
}

// OnboardingCompleted is emitted once when the user leaves the last
// onboarding page.
type OnboardingCompleted struct{}

// AuthenticationCompleted is emitted once per authentication controller,
// after its sheets have been closed.
type AuthenticationCompleted struct{}

// HabitsCompleted carries the habit keys that were saved.
type HabitsCompleted struct {
	Habits []string
}

// FormSucceeded is emitted when a form's provider call succeeded.
type FormSucceeded struct {
	Form Form
}

// FormFailed is emitted when a form's provider call failed.
type FormFailed struct {
	Form       Form
	Kind       credentials.Kind
	MessageKey string
}

func (OnboardingCompleted) isEvent()     {}
func (AuthenticationCompleted) isEvent() {}
func (HabitsCompleted) isEvent()         {}
func (FormSucceeded) isEvent()           {}
func (FormFailed) isEvent()              {}

// Sink receives events from a sub-flow. Emit is always called on the UI
// loop.
type Sink interface {
	Emit(Event)
}

// SinkFunc adapts a function to Sink.
type SinkFunc func(Event)

func (f SinkFunc) Emit(e Event) { f(e) }

// Discard drops every event.
var Discard Sink = SinkFunc(func(Event) {})

// Recorder is a Sink that keeps every event it receives. Useful in tests
// and for replaying transitions in logs.
type Recorder struct {
	Events []Event
}

func (r *Recorder) Emit(e Event) { r.Events = append(r.Events, e) }
