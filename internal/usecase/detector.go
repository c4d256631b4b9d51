package usecase

import (
	"time"

	"github.com/firecorners/cornerd/internal/domain"
)

// Classify maps a pointer position to the corner zone it lies in.
// A zone is the area within threshold pixels of both edges of a corner.
// Positions that match no corner, or more than one (tiny displays), yield CornerNone.
func Classify(p domain.Point, display domain.Size, threshold int) domain.Corner {
	left := p.X <= threshold
	right := p.X >= display.Width-threshold
	top := p.Y <= threshold
	bottom := p.Y >= display.Height-threshold

	// Neither edge, or both edges at once, is not a single corner.
	if left == right || top == bottom {
		return domain.CornerNone
	}

	switch {
	case top && left:
		return domain.CornerTopLeft
	case top && right:
		return domain.CornerTopRight
	case bottom && left:
		return domain.CornerBottomLeft
	default:
		return domain.CornerBottomRight
	}
}

// TransitionKind describes what a single Step did.
type TransitionKind int

const (
	TransitionNone TransitionKind = iota
	TransitionEntered
	TransitionLeft
	TransitionTrigger
)

func (k TransitionKind) String() string {
	switch k {
	case TransitionEntered:
		return "entered"
	case TransitionLeft:
		return "left"
	case TransitionTrigger:
		return "trigger"
	default:
		return "none"
	}
}

// Transition is the outcome of one Step.
type Transition struct {
	Kind   TransitionKind
	Corner domain.Corner
}

// Sample is one pointer observation.
type Sample struct {
	Position domain.Point
	Display  domain.Size
	At       time.Time
}

// CornerState is the detector state. It is owned by a single sampling loop
// and threaded through Step by value.
type CornerState struct {
	ActiveCorner domain.Corner
	EnteredAt    time.Time
	LastTrigger  map[domain.Corner]time.Time
}

// Idle reports whether the pointer is outside every corner zone.
func (s CornerState) Idle() bool {
	return s.ActiveCorner == domain.CornerNone
}

// LastTriggered returns when corner last fired, if ever.
func (s CornerState) LastTriggered(corner domain.Corner) (time.Time, bool) {
	t, ok := s.LastTrigger[corner]
	return t, ok
}

// Step advances the state machine by one sample.
//
// Leaving all zones clears the active corner. Entering a zone (or moving to a
// different one) records the entry time and never fires on that sample.
// Staying in the same zone fires once dwell has elapsed since entry and
// cooldown has elapsed since that corner last fired.
func Step(state CornerState, sample Sample, settings domain.Settings) (CornerState, Transition) {
	corner := Classify(sample.Position, sample.Display, settings.Threshold)

	if corner == domain.CornerNone {
		if state.ActiveCorner == domain.CornerNone {
			return state, Transition{Kind: TransitionNone}
		}
		left := state.ActiveCorner
		state.ActiveCorner = domain.CornerNone
		state.EnteredAt = time.Time{}
		return state, Transition{Kind: TransitionLeft, Corner: left}
	}

	if corner != state.ActiveCorner {
		state.ActiveCorner = corner
		state.EnteredAt = sample.At
		return state, Transition{Kind: TransitionEntered, Corner: corner}
	}

	if sample.At.Sub(state.EnteredAt) < settings.Dwell.Duration() {
		return state, Transition{Kind: TransitionNone, Corner: corner}
	}
	if last, ok := state.LastTrigger[corner]; ok && sample.At.Sub(last) < settings.Cooldown.Duration() {
		return state, Transition{Kind: TransitionNone, Corner: corner}
	}

	next := make(map[domain.Corner]time.Time, len(state.LastTrigger)+1)
	for c, t := range state.LastTrigger {
		next[c] = t
	}
	next[corner] = sample.At
	state.LastTrigger = next
	return state, Transition{Kind: TransitionTrigger, Corner: corner}
}
