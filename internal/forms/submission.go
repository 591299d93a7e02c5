package forms

import (
	"fmt"

	"github.com/dmitrijs2005/booksummary/internal/credentials"
)

type Phase int

const (
	Idle Phase = iota
	InFlight
	Succeeded
	Failed
)

func (p Phase) String() string {
	switch p {
	case Idle:
		return "idle"
	case InFlight:
		return "in_flight"
	case Succeeded:
		return "succeeded"
	case Failed:
		return "failed"
	default:
		return fmt.Sprintf("phase(%d)", int(p))
	}
}

// SubmissionState is the provider-call state of a form. Kind is meaningful
// only when Phase is Failed.
type SubmissionState struct {
	Phase Phase
	Kind  credentials.Kind
}

func (s SubmissionState) String() string {
	if s.Phase == Failed {
		return fmt.Sprintf("failed(%s)", s.Kind)
	}
	return s.Phase.String()
}

// CanSubmit reports whether a new submission may start.
func (s SubmissionState) CanSubmit() bool {
	return s.Phase == Idle || s.Phase == Failed
}
