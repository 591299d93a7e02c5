// Package forms implements the credential forms: field state, validation,
// focus on failure and the asynchronous provider submission.
//
// A Form is owned by the UI loop. Every method must be called there; the
// provider call runs on its own goroutine and its result is posted back
// through the Dispatcher before any state changes. Once Close is called the
// form ignores late results.
package forms

import (
	"context"
	"errors"
	"fmt"
	"slices"

	"github.com/dmitrijs2005/booksummary/internal/credentials"
	"github.com/dmitrijs2005/booksummary/internal/flow"
	"github.com/dmitrijs2005/booksummary/internal/focus"
	"github.com/dmitrijs2005/booksummary/internal/logging"
	"github.com/dmitrijs2005/booksummary/internal/uiloop"
)

var (
	ErrInvalid   = errors.New("form has invalid fields")
	ErrInFlight  = errors.New("submission already in flight")
	ErrSubmitted = errors.New("form already submitted")
	ErrClosed    = errors.New("form closed")
)

// Field is the constraint on a form's field enum.
type Field interface {
	comparable
	fmt.Stringer
}

type Option func(*options)

type options struct {
	logger   logging.Logger
	keyboard func()
	ctx      context.Context
}

func WithLogger(l logging.Logger) Option {
	return func(o *options) { o.logger = l }
}

// WithKeyboardDismiss sets the hook posted to the loop before a provider
// call starts.
func WithKeyboardDismiss(fn func()) Option {
	return func(o *options) { o.keyboard = fn }
}

// WithContext sets the parent of the context provider calls run under.
func WithContext(ctx context.Context) Option {
	return func(o *options) { o.ctx = ctx }
}

// action performs the provider call for a form with the given values. It
// runs off the UI loop.
type action[F Field] func(ctx context.Context, values map[F]string) error

type definition[F Field] struct {
	kind    flow.Form
	order   []F
	rules   map[F]Rule
	attach  map[credentials.Kind]F
	generic string
	perform action[F]
}

// Form is a set of validated fields with one submission at a time.
type Form[F Field] struct {
	def        definition[F]
	dispatcher uiloop.Dispatcher
	sink       flow.Sink
	log        logging.Logger
	keyboard   func()

	ctx    context.Context
	cancel context.CancelFunc

	fields     map[F]*FieldState
	submission SubmissionState
	banner     string
	focus      *focus.Advancer[F]
	closed     bool
	changes    flow.Subject[Snapshot[F]]
}

// FieldSnapshot is one field of a Snapshot.
type FieldSnapshot[F Field] struct {
	Field F
	FieldState
}

// Snapshot is an immutable copy of a form's state. Focus is the
// outstanding focus request; Focused is the field that holds focus after
// the last consumed request.
type Snapshot[F Field] struct {
	Form       flow.Form
	Fields     []FieldSnapshot[F]
	Submission SubmissionState
	Banner     string
	Focus      F
	HasFocus   bool
	Focused    F
	HasFocused bool
	Closed     bool
}

func newForm[F Field](def definition[F], d uiloop.Dispatcher, sink flow.Sink, opts ...Option) *Form[F] {
	o := options{logger: logging.Nop{}, ctx: context.Background()}
	for _, opt := range opts {
		opt(&o)
	}
	if sink == nil {
		sink = flow.Discard
	}

	f := &Form[F]{
		def:        def,
		dispatcher: d,
		sink:       sink,
		log:        o.logger.With("form", def.kind.String()),
		keyboard:   o.keyboard,
		fields:     make(map[F]*FieldState, len(def.order)),
	}
	f.ctx, f.cancel = context.WithCancel(o.ctx)
	f.focus = focus.New(def.order, func() { _ = f.Submit() })

	for _, field := range def.order {
		f.fields[field] = &FieldState{Valid: def.rules[field].Check("") == NoError}
	}
	return f
}

func (f *Form[F]) Kind() flow.Form { return f.def.kind }

// Fields returns the fields in declared order.
func (f *Form[F]) Fields() []F { return slices.Clone(f.def.order) }

// FieldByName finds a field by its String form.
func (f *Form[F]) FieldByName(name string) (F, bool) {
	for _, field := range f.def.order {
		if field.String() == name {
			return field, true
		}
	}
	var zero F
	return zero, false
}

func (f *Form[F]) Field(field F) FieldState {
	if s, ok := f.fields[field]; ok {
		return *s
	}
	return FieldState{}
}

func (f *Form[F]) Value(field F) string { return f.Field(field).Value }

func (f *Form[F]) Submission() SubmissionState { return f.submission }

// Banner is the form-level message key, "" when none.
func (f *Form[F]) Banner() string { return f.banner }

func (f *Form[F]) Closed() bool { return f.closed }

// Set edits a field. The edit clears the field's touched flag and any
// provider error attached to it, and a Failed submission returns to Idle.
func (f *Form[F]) Set(field F, value string) {
	s, ok := f.fields[field]
	if !ok || f.closed {
		return
	}
	s.Value = value
	s.Touched = false
	s.Valid = f.def.rules[field].Check(value) == NoError
	s.Error = NoError
	s.MessageKey = ""

	if f.submission.Phase == Failed {
		f.submission = SubmissionState{Phase: Idle}
		f.banner = ""
	}
	f.publish()
}

// SubmitField handles return on field: focus moves to the next field, or
// the form is submitted from the last one.
func (f *Form[F]) SubmitField(field F) {
	if f.closed {
		return
	}
	f.focus.OnFieldSubmit(field)
	f.publish()
}

// PendingFocus returns the outstanding focus request without consuming it.
func (f *Form[F]) PendingFocus() (F, bool) { return f.focus.Pending() }

// ConsumeFocus returns and clears the outstanding focus request. The field
// becomes the focused one.
func (f *Form[F]) ConsumeFocus() (F, bool) { return f.focus.Consume() }

// Focused returns the field holding focus.
func (f *Form[F]) Focused() (F, bool) { return f.focus.Focused() }

// Focus moves focus to field directly, dropping any pending request.
func (f *Form[F]) Focus(field F) {
	if f.closed {
		return
	}
	f.focus.Focus(field)
}

// Submit validates every field and, if all pass, starts the provider call.
// It returns ErrInvalid when a field failed validation, in which case
// focus is requested on the first invalid field in declared order.
func (f *Form[F]) Submit() error {
	switch {
	case f.closed:
		return ErrClosed
	case f.submission.Phase == InFlight:
		return ErrInFlight
	case f.submission.Phase == Succeeded:
		return ErrSubmitted
	}

	f.submission = SubmissionState{Phase: Idle}
	f.banner = ""

	allValid := true
	for _, field := range f.def.order {
		s := f.fields[field]
		rule := f.def.rules[field]
		verr := rule.Check(s.Value)
		s.Touched = true
		s.Valid = verr == NoError
		s.Error = verr
		s.MessageKey = rule.MessageKey(verr)
		allValid = allValid && s.Valid
	}

	if !allValid {
		first, _ := f.focus.OnValidationFailure(func(field F) bool { return f.fields[field].Valid })
		f.log.Debug(f.ctx, "validation failed", "focus", first.String())
		f.publish()
		return ErrInvalid
	}

	f.submission = SubmissionState{Phase: InFlight}
	f.focus.Clear()
	if f.keyboard != nil {
		f.dispatcher.Post(f.keyboard)
	}
	f.log.Debug(f.ctx, "submission started")
	f.publish()

	values := make(map[F]string, len(f.fields))
	for field, s := range f.fields {
		values[field] = s.Value
	}
	ctx := f.ctx
	go func() {
		err := f.def.perform(ctx, values)
		if !f.dispatcher.Post(func() { f.resolve(err) }) {
			f.log.Warn(ctx, "ui loop stopped, dropping provider result", "error", err)
		}
	}()
	return nil
}

func (f *Form[F]) resolve(err error) {
	if f.closed {
		f.log.Warn(f.ctx, "provider result after form closed", "error", err)
		return
	}

	if err == nil {
		f.submission = SubmissionState{Phase: Succeeded}
		f.log.Debug(f.ctx, "submission succeeded")
		f.publish()
		f.sink.Emit(flow.FormSucceeded{Form: f.def.kind})
		return
	}

	kind := credentials.KindOf(err)
	f.submission = SubmissionState{Phase: Failed, Kind: kind}

	key := kind.MessageKey()
	if key == "" {
		key = f.def.generic
	}
	f.banner = key

	if field, ok := f.def.attach[kind]; ok {
		s := f.fields[field]
		s.Valid = false
		s.MessageKey = key
		f.focus.Request(field)
	}

	f.log.Info(f.ctx, "submission failed", "kind", kind.String(), "error", err)
	f.publish()
	f.sink.Emit(flow.FormFailed{Form: f.def.kind, Kind: kind, MessageKey: key})
}

// Close tears the form down. The provider call context is canceled and any
// result that arrives later is ignored.
func (f *Form[F]) Close() {
	if f.closed {
		return
	}
	f.closed = true
	f.cancel()
	f.publish()
}

func (f *Form[F]) Snapshot() Snapshot[F] {
	snap := Snapshot[F]{
		Form:       f.def.kind,
		Fields:     make([]FieldSnapshot[F], 0, len(f.def.order)),
		Submission: f.submission,
		Banner:     f.banner,
		Closed:     f.closed,
	}
	for _, field := range f.def.order {
		snap.Fields = append(snap.Fields, FieldSnapshot[F]{Field: field, FieldState: *f.fields[field]})
	}
	snap.Focus, snap.HasFocus = f.focus.Pending()
	snap.Focused, snap.HasFocused = f.focus.Focused()
	return snap
}

// Subscribe registers fn to receive a Snapshot after every change.
func (f *Form[F]) Subscribe(fn func(Snapshot[F])) (unsubscribe func()) {
	return f.changes.Subscribe(fn)
}

func (f *Form[F]) publish() {
	if f.changes.Len() == 0 {
		return
	}
	f.changes.Notify(f.Snapshot())
}
