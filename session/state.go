package session

import "fmt"

// State is a session or fragment lifecycle state.
type State string

// Session states.
const (
	StateIdle               State = "IDLE"
	StateScratchAcquired    State = "SCRATCH_ACQUIRED"
	StateProcessingFragment State = "PROCESSING_FRAGMENT"
	StateScratchReleasing   State = "SCRATCH_RELEASING"
	StateDone               State = "DONE"
)

// Fragment states.
const (
	FragmentPending      State = "PENDING"
	FragmentMaterialized State = "MATERIALIZED"
	FragmentLoaded       State = "LOADED"
	FragmentInjected     State = "INJECTED"
	FragmentChainRunning State = "CHAIN_RUNNING"
	FragmentChainDone    State = "CHAIN_DONE"
	FragmentFailed       State = "FRAGMENT_FAILED"
)

var transitions = map[State][]State{
	StateIdle:               {StateScratchAcquired, StateDone},
	StateScratchAcquired:    {StateProcessingFragment, StateScratchReleasing},
	StateProcessingFragment: {StateProcessingFragment, StateScratchReleasing},
	StateScratchReleasing:   {StateDone},

	FragmentPending:      {FragmentMaterialized, FragmentFailed},
	FragmentMaterialized: {FragmentLoaded, FragmentFailed},
	FragmentLoaded:       {FragmentInjected, FragmentFailed},
	FragmentInjected:     {FragmentChainRunning, FragmentFailed},
	FragmentChainRunning: {FragmentChainDone, FragmentFailed},
}

// IsTerminal reports whether no transition leaves s.
func IsTerminal(s State) bool {
	return len(transitions[s]) == 0
}

// Transition moves *cur to next if the state machine allows it.
// *cur is left unchanged otherwise.
func Transition(cur *State, next State) error {
	for _, allowed := range transitions[*cur] {
		if allowed == next {
			*cur = next
			return nil
		}
	}
	return fmt.Errorf("%w: %s -> %s", ErrInvalidTransition, *cur, next)
}
