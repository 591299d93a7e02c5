package forms

import (
	"regexp"
	"strings"
	"unicode/utf8"
)

// ValidationError is the local, synchronous reason a field value is
// rejected. NoError means the value passed.
type ValidationError int

const (
	NoError ValidationError = iota
	EmptyField
	InvalidFormat
	TooShort
)

func (e ValidationError) String() string {
	switch e {
	case NoError:
		return "none"
	case EmptyField:
		return "empty_field"
	case InvalidFormat:
		return "invalid_format"
	case TooShort:
		return "too_short"
	default:
		return "unknown"
	}
}

// MinPasswordLength is counted in runes.
const MinPasswordLength = 6

var emailPattern = regexp.MustCompile(`^[A-Z0-9a-z._%+-]+@[A-Za-z0-9.-]+\.[A-Za-z]{2,64}$`)

// Rule validates one kind of field and names the message shown for each
// failure.
type Rule struct {
	Check    func(value string) ValidationError
	Messages map[ValidationError]string
}

// MessageKey returns the key for e, or "" for NoError.
func (r Rule) MessageKey(e ValidationError) string {
	if e == NoError {
		return ""
	}
	return r.Messages[e]
}

var (
	NameRule = Rule{
		Check: func(v string) ValidationError {
			if strings.TrimSpace(v) == "" {
				return EmptyField
			}
			return NoError
		},
		Messages: map[ValidationError]string{EmptyField: "error_name_empty"},
	}

	EmailRule = Rule{
		Check: func(v string) ValidationError {
			switch {
			case v == "":
				return EmptyField
			case !emailPattern.MatchString(v):
				return InvalidFormat
			}
			return NoError
		},
		Messages: map[ValidationError]string{
			EmptyField:    "error_email_empty",
			InvalidFormat: "error_email_invalid",
		},
	}

	PasswordRule = Rule{
		Check: func(v string) ValidationError {
			switch {
			case v == "":
				return EmptyField
			case utf8.RuneCountInString(v) < MinPasswordLength:
				return TooShort
			}
			return NoError
		},
		Messages: map[ValidationError]string{
			EmptyField: "error_password_empty",
			TooShort:   "error_password_short",
		},
	}
)

// ValidEmail reports whether v is non-empty and looks like local@domain.tld.
func ValidEmail(v string) bool {
	return EmailRule.Check(v) == NoError
}

// FieldState is the state of one input.
//
// Valid tracks the current value against its rule, and is also cleared
// when a provider error is attached to the field. Error is only set while
// Touched is true, so an untouched field never shows a validation error.
// MessageKey is the inline message for the field: the validation key when
// Error is set, or the provider message key when a provider error is
// attached.
type FieldState struct {
	Value      string
	Touched    bool
	Valid      bool
	Error      ValidationError
	MessageKey string
}
