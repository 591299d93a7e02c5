// Package onboarding drives the paged introduction shown on first launch.
package onboarding

import (
	"context"
	"errors"
	"fmt"
	"slices"

	"github.com/dmitrijs2005/booksummary/internal/flow"
	"github.com/dmitrijs2005/booksummary/internal/logging"
	"github.com/google/uuid"
)

var (
	ErrNoPages      = errors.New("onboarding needs at least one page")
	ErrPageNotFound = errors.New("page index out of range")
)

const (
	ContinueButtonKey = "onboarding_continue_button"
	StartButtonKey    = "onboarding_start_button"
)

// Page is one onboarding screen. The keys are resolved by the presentation
// layer.
type Page struct {
	ID             uuid.UUID
	TitleKey       string
	DescriptionKey string
	ImageRef       string
}

// DefaultPages returns the product's three introduction pages.
func DefaultPages() []Page {
	pages := make([]Page, 0, 3)
	for i := 1; i <= 3; i++ {
		pages = append(pages, Page{
			TitleKey:       fmt.Sprintf("onboarding_page%d_title", i),
			DescriptionKey: fmt.Sprintf("onboarding_page%d_description", i),
			ImageRef:       "onboarding1",
		})
	}
	return pages
}

type Option func(*Flow)

func WithLogger(l logging.Logger) Option {
	return func(f *Flow) { f.log = l }
}

// WithPulse sets the feedback hook run each time the flow moves to the
// next page.
func WithPulse(fn func()) Option {
	return func(f *Flow) { f.pulse = fn }
}

// Snapshot is an immutable view of the flow.
type Snapshot struct {
	Index     int
	Page      Page
	Total     int
	ButtonKey string
	Completed bool
}

// Flow is a forward-only pager. It emits flow.OnboardingCompleted exactly
// once, when Advance is called on the last page. Not safe for concurrent
// use; run it on the UI loop.
type Flow struct {
	pages     []Page
	index     int
	completed bool
	sink      flow.Sink
	pulse     func()
	log       logging.Logger
	changes   flow.Subject[Snapshot]
}

// New loads pages, giving every page without an ID a fresh one.
func New(pages []Page, sink flow.Sink, opts ...Option) (*Flow, error) {
	if len(pages) == 0 {
		return nil, ErrNoPages
	}
	if sink == nil {
		sink = flow.Discard
	}
	f := &Flow{
		pages: slices.Clone(pages),
		sink:  sink,
		log:   logging.Nop{},
	}
	for i := range f.pages {
		if f.pages[i].ID == uuid.Nil {
			f.pages[i].ID = uuid.New()
		}
	}
	for _, opt := range opts {
		opt(f)
	}
	return f, nil
}

func (f *Flow) Pages() []Page { return slices.Clone(f.pages) }

func (f *Flow) Index() int { return f.index }

func (f *Flow) Current() Page { return f.pages[f.index] }

func (f *Flow) IsLast() bool { return f.index == len(f.pages)-1 }

func (f *Flow) Completed() bool { return f.completed }

// ButtonKey names the primary button for the current page.
func (f *Flow) ButtonKey() string {
	if f.IsLast() {
		return StartButtonKey
	}
	return ContinueButtonKey
}

// Advance moves to the next page, or completes the flow on the last page.
// It does nothing once the flow has completed.
func (f *Flow) Advance() {
	if f.completed {
		return
	}
	if !f.IsLast() {
		f.index++
		if f.pulse != nil {
			f.pulse()
		}
		f.log.Debug(context.Background(), "onboarding page advanced", "index", f.index)
		f.publish()
		return
	}

	f.completed = true
	f.log.Debug(context.Background(), "onboarding completed")
	f.publish()
	f.sink.Emit(flow.OnboardingCompleted{})
}

// Show jumps to index, as a swipe does. It never completes the flow.
func (f *Flow) Show(index int) error {
	if index < 0 || index >= len(f.pages) {
		return fmt.Errorf("%w: %d", ErrPageNotFound, index)
	}
	if f.completed || index == f.index {
		return nil
	}
	f.index = index
	f.publish()
	return nil
}

func (f *Flow) Snapshot() Snapshot {
	return Snapshot{
		Index:     f.index,
		Page:      f.Current(),
		Total:     len(f.pages),
		ButtonKey: f.ButtonKey(),
		Completed: f.completed,
	}
}

func (f *Flow) Subscribe(fn func(Snapshot)) (unsubscribe func()) {
	return f.changes.Subscribe(fn)
}

func (f *Flow) publish() {
	f.changes.Notify(f.Snapshot())
}
