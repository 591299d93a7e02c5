package cli

import (
	"fmt"
	"io"
	"strings"
	"unicode/utf8"

	"github.com/dmitrijs2005/booksummary/internal/appflow"
	"github.com/dmitrijs2005/booksummary/internal/authflow"
	"github.com/dmitrijs2005/booksummary/internal/forms"
	"github.com/dmitrijs2005/booksummary/internal/habits"
)

// formView adapts the typed forms to the name-based commands of the REPL.
type formView interface {
	set(name, value string) error
	submit() error
	submitField(name string) error
	inFlight() bool
	render(w io.Writer)
}

type typedForm[F forms.Field] struct {
	title string
	f     *forms.Form[F]
}

func (t typedForm[F]) lookup(name string) (F, error) {
	field, ok := t.f.FieldByName(name)
	if !ok {
		names := make([]string, 0, len(t.f.Fields()))
		for _, f := range t.f.Fields() {
			names = append(names, f.String())
		}
		return field, fmt.Errorf("no field %q; fields: %s", name, strings.Join(names, ", "))
	}
	return field, nil
}

// set types value into the field, which takes focus.
func (t typedForm[F]) set(name, value string) error {
	field, err := t.lookup(name)
	if err != nil {
		return err
	}
	t.f.Focus(field)
	t.f.Set(field, value)
	return nil
}

func (t typedForm[F]) submit() error { return t.f.Submit() }

// submitField is return pressed on the named field.
func (t typedForm[F]) submitField(name string) error {
	field, err := t.lookup(name)
	if err != nil {
		return err
	}
	t.f.SubmitField(field)
	return nil
}

func (t typedForm[F]) inFlight() bool { return t.f.Submission().Phase == forms.InFlight }

// render applies any outstanding focus request, so a request is reported
// on one screen only.
func (t typedForm[F]) render(w io.Writer) {
	moved, requested := t.f.ConsumeFocus()
	snap := t.f.Snapshot()
	fmt.Fprintf(w, "== %s ==\n", t.title)
	for _, fs := range snap.Fields {
		value := fs.Value
		if fs.Field.String() == "password" {
			value = strings.Repeat("*", utf8.RuneCountInString(value))
		}
		marker := " "
		if snap.HasFocused && snap.Focused == fs.Field {
			marker = ">"
		}
		line := fmt.Sprintf("%s %-9s %s", marker, fs.Field.String()+":", value)
		if fs.MessageKey != "" {
			line += "   x " + text(fs.MessageKey)
		}
		fmt.Fprintln(w, line)
	}
	if snap.Banner != "" {
		fmt.Fprintln(w, "!", text(snap.Banner))
	}
	if snap.Submission.Phase == forms.InFlight {
		fmt.Fprintln(w, "... working")
	}
	if requested {
		fmt.Fprintf(w, "-> focus moved to %s\n", moved)
	}
}

func activeForm(auth *authflow.Controller) formView {
	if auth.ForgotPasswordVisible() && auth.ForgotPassword() != nil {
		return typedForm[forms.ForgotField]{title: "Reset password", f: auth.ForgotPassword()}
	}
	switch auth.Mode() {
	case authflow.SheetSignup:
		if auth.Signup() != nil {
			return typedForm[forms.SignupField]{title: "Create account", f: auth.Signup()}
		}
	case authflow.SheetEmailLogin:
		if auth.EmailLogin() != nil {
			return typedForm[forms.LoginField]{title: "Sign in", f: auth.EmailLogin()}
		}
	}
	return nil
}

// render prints the screen for the current stage. Must run on the loop.
func (a *App) render() {
	w := a.out
	switch a.flow.CurrentStage() {
	case appflow.StageOnboarding:
		if ob := a.flow.Onboarding(); ob != nil {
			snap := ob.Snapshot()
			fmt.Fprintf(w, "[%d/%d] %s\n      %s\n      (next: %s)\n",
				snap.Index+1, snap.Total, text(snap.Page.TitleKey), text(snap.Page.DescriptionKey), text(snap.ButtonKey))
		}

	case appflow.StageAuthentication:
		auth := a.flow.Auth()
		if auth == nil {
			break
		}
		if alert, visible := auth.Alert(); visible {
			fmt.Fprintf(w, "(%s) %s\n", alert.Kind, text(alert.MessageKey))
		}
		if f := activeForm(auth); f != nil {
			f.render(w)
		} else if !auth.Snapshot().Completing {
			fmt.Fprintln(w, "Welcome! Type 'signup' to create an account or 'login' to sign in.")
		}

	case appflow.StageHabitSetup:
		if setup := a.flow.Habits(); setup != nil {
			fmt.Fprintln(w, "Which habits do you want to build?")
			for _, h := range habits.Catalog() {
				mark := " "
				if setup.IsSelected(h) {
					mark = "x"
				}
				fmt.Fprintf(w, "  [%s] %-10s %s\n", mark, h, text(h.TitleKey()))
			}
		}

	case appflow.StageMain:
		fmt.Fprintln(w, "You're all set. Type 'reset' to start over.")
	}

	if err := a.flow.LastError(); err != nil {
		fmt.Fprintln(w, "warning:", err)
	}
}
