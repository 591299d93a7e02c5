// Package focus decides which input field of a form should receive focus.
//
// An Advancer knows the declared field order of one form. It turns "the
// user pressed return on field X" into either a focus move or a submit, and
// turns a failed validation into a single focus request for the first
// invalid field. Requests are one-shot: the presentation layer consumes a
// request when it applies it, so it never fires again on an unrelated
// redraw.
package focus

import "slices"

type Advancer[F comparable] struct {
	order    []F
	submit   func()
	pending  F
	hasReq   bool
	current  F
	hasFocus bool
}

// New builds an Advancer over order. submit is invoked when return is
// pressed on the last field; it may be nil.
func New[F comparable](order []F, submit func()) *Advancer[F] {
	return &Advancer[F]{order: slices.Clone(order), submit: submit}
}

// Order returns the declared field order.
func (a *Advancer[F]) Order() []F {
	return slices.Clone(a.order)
}

// Next returns the field declared after field. ok is false for the last
// field and for fields not in the order.
func (a *Advancer[F]) Next(field F) (next F, ok bool) {
	i := slices.Index(a.order, field)
	if i < 0 || i == len(a.order)-1 {
		return next, false
	}
	return a.order[i+1], true
}

// OnFieldSubmit moves focus to the field after field, or triggers submit
// when field is the last one.
func (a *Advancer[F]) OnFieldSubmit(field F) {
	if next, ok := a.Next(field); ok {
		a.Request(next)
		return
	}
	if slices.Index(a.order, field) < 0 {
		return
	}
	if a.submit != nil {
		a.submit()
	}
}

// OnValidationFailure requests focus on the first field, in declared
// order, for which valid reports false. It returns that field.
func (a *Advancer[F]) OnValidationFailure(valid func(F) bool) (F, bool) {
	for _, f := range a.order {
		if !valid(f) {
			a.Request(f)
			return f, true
		}
	}
	var zero F
	return zero, false
}

// Request replaces any pending request with field.
func (a *Advancer[F]) Request(field F) {
	a.pending = field
	a.hasReq = true
}

// Pending returns the outstanding request without consuming it.
func (a *Advancer[F]) Pending() (F, bool) {
	return a.pending, a.hasReq
}

// Consume returns the outstanding request and clears it. The returned field
// becomes the focused one.
func (a *Advancer[F]) Consume() (F, bool) {
	if !a.hasReq {
		var zero F
		return zero, false
	}
	f := a.pending
	var zero F
	a.pending, a.hasReq = zero, false
	a.current, a.hasFocus = f, true
	return f, true
}

// Focus gives field focus directly, as when the user taps it, and drops
// any pending request. Fields outside the order are ignored.
func (a *Advancer[F]) Focus(field F) {
	if !slices.Contains(a.order, field) {
		return
	}
	var zero F
	a.pending, a.hasReq = zero, false
	a.current, a.hasFocus = field, true
}

// Focused returns the field that last had a request applied.
func (a *Advancer[F]) Focused() (F, bool) {
	return a.current, a.hasFocus
}

// Clear drops focus and any pending request, as when the keyboard is
// dismissed before a submission.
func (a *Advancer[F]) Clear() {
	var zero F
	a.pending, a.hasReq = zero, false
	a.current, a.hasFocus = zero, false
}
