// Package habits implements the one-time reading habit selection shown
// after sign-in.
package habits

import (
	"context"
	"errors"
	"fmt"
	"slices"

	"github.com/dmitrijs2005/booksummary/internal/flow"
	"github.com/dmitrijs2005/booksummary/internal/logging"
)

var (
	ErrUnknownHabit   = errors.New("unknown habit")
	ErrEmptySelection = errors.New("no habit selected")
	ErrAlreadySaved   = errors.New("habits already saved")
)

type Habit string

const (
	Reading    Habit = "reading"
	Sports     Habit = "sports"
	Meditation Habit = "meditation"
	Writing    Habit = "writing"
	Music      Habit = "music"
	Coding     Habit = "coding"
)

var catalog = []Habit{Reading, Sports, Meditation, Writing, Music, Coding}

// Catalog lists the selectable habits in display order.
func Catalog() []Habit { return slices.Clone(catalog) }

// Known reports whether h is in the catalog.
func Known(h Habit) bool { return slices.Contains(catalog, h) }

// TitleKey is the string-table key for h.
func (h Habit) TitleKey() string { return "habit_" + string(h) }

// Store persists the selected habits.
type Store interface {
	SaveHabits(ctx context.Context, habits []string) error
	LoadHabits(ctx context.Context) ([]string, error)
}

type Option func(*Setup)

func WithLogger(l logging.Logger) Option {
	return func(s *Setup) { s.log = l }
}

// Snapshot is an immutable view of the selection.
type Snapshot struct {
	Selected []Habit
	Saved    bool
}

// Setup holds a set of selected habits. Must be used from the UI loop.
type Setup struct {
	store    Store
	sink     flow.Sink
	log      logging.Logger
	selected map[Habit]struct{}
	saved    bool
	changes  flow.Subject[Snapshot]
}

func New(store Store, sink flow.Sink, opts ...Option) *Setup {
	if sink == nil {
		sink = flow.Discard
	}
	s := &Setup{
		store:    store,
		sink:     sink,
		log:      logging.Nop{},
		selected: make(map[Habit]struct{}),
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Load restores a previously stored selection. Unknown entries are
// skipped.
func (s *Setup) Load(ctx context.Context) error {
	stored, err := s.store.LoadHabits(ctx)
	if err != nil {
		return fmt.Errorf("load habits: %w", err)
	}
	for _, raw := range stored {
		h := Habit(raw)
		if !Known(h) {
			s.log.Warn(ctx, "skipping unknown stored habit", "habit", raw)
			continue
		}
		s.selected[h] = struct{}{}
	}
	s.publish()
	return nil
}

// Toggle adds h to the selection, or removes it if already selected.
func (s *Setup) Toggle(h Habit) error {
	if !Known(h) {
		return fmt.Errorf("%w: %q", ErrUnknownHabit, string(h))
	}
	if _, ok := s.selected[h]; ok {
		delete(s.selected, h)
	} else {
		s.selected[h] = struct{}{}
	}
	s.publish()
	return nil
}

func (s *Setup) IsSelected(h Habit) bool {
	_, ok := s.selected[h]
	return ok
}

// Selected returns the selection in catalog order.
func (s *Setup) Selected() []Habit {
	out := make([]Habit, 0, len(s.selected))
	for _, h := range catalog {
		if _, ok := s.selected[h]; ok {
			out = append(out, h)
		}
	}
	return out
}

// Save stores the selection and emits flow.HabitsCompleted. It succeeds at
// most once.
func (s *Setup) Save(ctx context.Context) error {
	if s.saved {
		return ErrAlreadySaved
	}
	selected := s.Selected()
	if len(selected) == 0 {
		return ErrEmptySelection
	}

	keys := make([]string, len(selected))
	for i, h := range selected {
		keys[i] = string(h)
	}
	if err := s.store.SaveHabits(ctx, keys); err != nil {
		return fmt.Errorf("save habits: %w", err)
	}

	s.saved = true
	s.log.Info(ctx, "habits saved", "habits", keys)
	s.publish()
	s.sink.Emit(flow.HabitsCompleted{Habits: keys})
	return nil
}

func (s *Setup) Snapshot() Snapshot {
	return Snapshot{Selected: s.Selected(), Saved: s.saved}
}

func (s *Setup) Subscribe(fn func(Snapshot)) (unsubscribe func()) {
	return s.changes.Subscribe(fn)
}

func (s *Setup) publish() {
	s.changes.Notify(s.Snapshot())
}
