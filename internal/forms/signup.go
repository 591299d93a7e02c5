package forms

import (
	"context"
	"strings"

	"github.com/dmitrijs2005/booksummary/internal/credentials"
	"github.com/dmitrijs2005/booksummary/internal/flow"
	"github.com/dmitrijs2005/booksummary/internal/logging"
	"github.com/dmitrijs2005/booksummary/internal/uiloop"
)

type SignupField int

const (
	SignupName SignupField = iota
	SignupEmail
	SignupPassword
)

func (f SignupField) String() string {
	switch f {
	case SignupName:
		return "name"
	case SignupEmail:
		return "email"
	case SignupPassword:
		return "password"
	default:
		return "unknown"
	}
}

// GenericAuthFailed is the banner for provider failures with no specific
// message.
const GenericAuthFailed = "error_generic_auth_failed"

// NewSignup builds the account creation form. On success the display name
// is set on the new identity; a failure there is logged and does not fail
// the signup.
func NewSignup(p credentials.Provider, d uiloop.Dispatcher, sink flow.Sink, opts ...Option) *Form[SignupField] {
	o := options{logger: logging.Nop{}}
	for _, opt := range opts {
		opt(&o)
	}
	log := o.logger

	def := definition[SignupField]{
		kind:  flow.FormSignup,
		order: []SignupField{SignupName, SignupEmail, SignupPassword},
		rules: map[SignupField]Rule{
			SignupName:     NameRule,
			SignupEmail:    EmailRule,
			SignupPassword: PasswordRule,
		},
		attach: map[credentials.Kind]SignupField{
			credentials.KindUserNotFound:      SignupEmail,
			credentials.KindInvalidEmail:      SignupEmail,
			credentials.KindEmailAlreadyInUse: SignupEmail,
			credentials.KindWrongPassword:     SignupPassword,
		},
		generic: GenericAuthFailed,
		perform: func(ctx context.Context, v map[SignupField]string) error {
			id, err := p.CreateAccount(ctx, v[SignupEmail], v[SignupPassword])
			if err != nil {
				return err
			}
			name := strings.TrimSpace(v[SignupName])
			if err := p.UpdateDisplayName(ctx, id, name); err != nil {
				log.Warn(ctx, "display name update failed", "user_id", id.ID, "error", err)
			}
			return nil
		},
	}
	return newForm(def, d, sink, opts...)
}
