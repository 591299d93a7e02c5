package forms

import (
	"context"

	"github.com/dmitrijs2005/booksummary/internal/credentials"
	"github.com/dmitrijs2005/booksummary/internal/flow"
	"github.com/dmitrijs2005/booksummary/internal/uiloop"
)

type ForgotField int

const ForgotEmail ForgotField = 0

func (f ForgotField) String() string {
	if f == ForgotEmail {
		return "email"
	}
	return "unknown"
}

func NewForgotPassword(p credentials.Provider, d uiloop.Dispatcher, sink flow.Sink, opts ...Option) *Form[ForgotField] {
	def := definition[ForgotField]{
		kind:  flow.FormForgotPassword,
		order: []ForgotField{ForgotEmail},
		rules: map[ForgotField]Rule{ForgotEmail: EmailRule},
		attach: map[credentials.Kind]ForgotField{
			credentials.KindUserNotFound:      ForgotEmail,
			credentials.KindInvalidEmail:      ForgotEmail,
			credentials.KindEmailAlreadyInUse: ForgotEmail,
		},
		generic: GenericAuthFailed,
		perform: func(ctx context.Context, v map[ForgotField]string) error {
			return p.SendPasswordReset(ctx, v[ForgotEmail])
		},
	}
	return newForm(def, d, sink, opts...)
}
