// Package navigator implements the navigation state machine (component B):
// a single-writer, mutex-serialized mapping from (command, current state,
// deck) to the next state.
package navigator

import (
	"fmt"
	"sync"

	"github.com/tobogganhq/toboggan/internal/domain/entities"
)

// Navigator serializes all navigation transitions behind one mutex, the Go
// analogue of the single actor task the design calls for.
type Navigator struct {
	mu    sync.Mutex
	state entities.NavState
}

// New returns a Navigator starting at Init.
func New() *Navigator {
	return &Navigator{state: entities.InitState()}
}

// State returns the current navigation state.
func (n *Navigator) State() entities.NavState {
	n.mu.Lock()
	defer n.mu.Unlock()
	return n.state
}

// Reset returns the machine to Init, used when a reload invalidates the
// current position.
func (n *Navigator) Reset() {
	n.mu.Lock()
	defer n.mu.Unlock()
	n.state = entities.InitState()
}

// Dispatch applies a navigation command against deck and returns the
// resulting state. The machine is total: an out-of-range GoTo returns an
// error without mutating state; Next on Done is a no-op that still returns
// the unchanged Done state (not an error).
func (n *Navigator) Dispatch(deck *entities.Deck, cmd entities.Command) (entities.NavState, error) {
	if deck == nil {
		return entities.NavState{}, fmt.Errorf("navigator: no deck loaded")
	}
	if !cmd.IsNavigation() {
		return entities.NavState{}, fmt.Errorf("navigator: %s is not a navigation command", cmd.Kind)
	}

	n.mu.Lock()
	defer n.mu.Unlock()

	switch cmd.Kind {
	case entities.CmdFirst:
		if deck.SlideCount() == 0 {
			return entities.NavState{}, fmt.Errorf("navigator: deck is empty")
		}
		n.state = entities.Running(0, 0)

	case entities.CmdLast:
		if deck.SlideCount() == 0 {
			return entities.NavState{}, fmt.Errorf("navigator: deck is empty")
		}
		n.state = entities.Running(deck.LastSlideID(), 0)

	case entities.CmdGoTo:
		if !deck.InRange(cmd.Slide) {
			return entities.NavState{}, fmt.Errorf("navigator: slide %d out of range", cmd.Slide)
		}
		n.state = entities.Running(cmd.Slide, 0)

	case entities.CmdNext:
		n.state = next(deck, n.state, true)

	case entities.CmdPrevious:
		n.state = previous(deck, n.state, true)

	case entities.CmdNextStep:
		n.state = next(deck, n.state, false)

	case entities.CmdPreviousStep:
		n.state = previous(deck, n.state, false)
	}

	return n.state, nil
}

// next computes the Next/NextStep transition. crossSlide enables the
// slide-boundary-crossing behavior of Next; NextStep is the step-only
// variant and never crosses a slide boundary.
func next(deck *entities.Deck, state entities.NavState, crossSlide bool) entities.NavState {
	switch state.Kind {
	case entities.NavInit:
		if deck.SlideCount() == 0 {
			return state
		}
		return entities.Running(0, 0)

	case entities.NavRunning:
		stepCount := deck.StepCount(state.Current)
		if int(state.CurrentStep)+1 < stepCount {
			return entities.Running(state.Current, state.CurrentStep+1)
		}
		if crossSlide && int(state.Current)+1 < deck.SlideCount() {
			return entities.Running(state.Current+1, 0)
		}
		if !crossSlide {
			return state
		}
		return entities.Done(state.Current, state.CurrentStep)

	default: // Done
		return state
	}
}

// previous computes the Previous/PreviousStep transition. crossSlide
// enables crossing back over a slide boundary; PreviousStep never does.
func previous(deck *entities.Deck, state entities.NavState, crossSlide bool) entities.NavState {
	switch state.Kind {
	case entities.NavRunning:
		if state.CurrentStep > 0 {
			return entities.Running(state.Current, state.CurrentStep-1)
		}
		if crossSlide && state.Current > 0 {
			prev := state.Current - 1
			lastStep := deck.StepCount(prev) - 1
			return entities.Running(prev, uint32(lastStep))
		}
		return state

	case entities.NavDone:
		if !crossSlide {
			return state
		}
		// Done carries the exact (current, step) Next left behind when it
		// crossed the last slide's boundary, so the first Previous out of
		// Done must restore that pair unchanged; only a second Previous,
		// now dispatched against the resulting Running state, decrements.
		return entities.Running(state.Current, state.CurrentStep)

	default: // Init
		return state
	}
}
