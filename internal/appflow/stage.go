// Package appflow selects the top-level stage of the app from persisted
// completion flags and runs the sub-flow for that stage.
package appflow

import (
	"context"
	"fmt"
)

type Stage int

const (
	StageOnboarding Stage = iota
	StageAuthentication
	StageHabitSetup
	StageMain
)

func (s Stage) String() string {
	switch s {
	case StageOnboarding:
		return "onboarding"
	case StageAuthentication:
		return "authentication"
	case StageHabitSetup:
		return "habit_setup"
	case StageMain:
		return "main"
	default:
		return fmt.Sprintf("stage(%d)", int(s))
	}
}

// Flag names in the flag store.
const (
	FlagCompletedOnboarding = "hasCompletedOnboarding"
	FlagAuthenticated       = "isAuthenticated"
	FlagSetHabits           = "hasSetHabits"
)

// FlagStore is the persisted key/value store holding completion flags.
// A flag that was never written reads as false.
type FlagStore interface {
	GetFlag(ctx context.Context, name string) (bool, error)
	SetFlag(ctx context.Context, name string, value bool) error
}

// Flags is the input to StageFor.
type Flags struct {
	CompletedOnboarding bool
	Authenticated       bool
	SetHabits           bool
}

// StageFor returns the stage for flags. The first unmet precondition wins.
func StageFor(f Flags) Stage {
	switch {
	case !f.CompletedOnboarding:
		return StageOnboarding
	case !f.Authenticated:
		return StageAuthentication
	case !f.SetHabits:
		return StageHabitSetup
	default:
		return StageMain
	}
}
