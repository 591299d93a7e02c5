package forms

import (
	"context"

	"github.com/dmitrijs2005/booksummary/internal/credentials"
	"github.com/dmitrijs2005/booksummary/internal/flow"
	"github.com/dmitrijs2005/booksummary/internal/uiloop"
)

type LoginField int

const (
	LoginEmail LoginField = iota
	LoginPassword
)

func (f LoginField) String() string {
	switch f {
	case LoginEmail:
		return "email"
	case LoginPassword:
		return "password"
	default:
		return "unknown"
	}
}

const GenericLoginFailed = "error_generic_login_failed"

func NewEmailLogin(p credentials.Provider, d uiloop.Dispatcher, sink flow.Sink, opts ...Option) *Form[LoginField] {
	def := definition[LoginField]{
		kind:  flow.FormEmailLogin,
		order: []LoginField{LoginEmail, LoginPassword},
		rules: map[LoginField]Rule{
			LoginEmail:    EmailRule,
			LoginPassword: PasswordRule,
		},
		attach: map[credentials.Kind]LoginField{
			credentials.KindUserNotFound:      LoginEmail,
			credentials.KindInvalidEmail:      LoginEmail,
			credentials.KindEmailAlreadyInUse: LoginEmail,
			credentials.KindWrongPassword:     LoginPassword,
		},
		generic: GenericLoginFailed,
		perform: func(ctx context.Context, v map[LoginField]string) error {
			_, err := p.SignIn(ctx, v[LoginEmail], v[LoginPassword])
			return err
		},
	}
	return newForm(def, d, sink, opts...)
}
