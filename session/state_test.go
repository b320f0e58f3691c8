package session

import (
	"errors"
	"testing"
)

func TestTransition(t *testing.T) {
	tests := []struct {
		from    State
		to      State
		wantErr bool
	}{
		{StateIdle, StateScratchAcquired, false},
		{StateIdle, StateDone, false},
		{StateScratchAcquired, StateScratchReleasing, false},
		{StateProcessingFragment, StateProcessingFragment, false},
		{StateScratchReleasing, StateDone, false},
		{StateIdle, StateProcessingFragment, true},
		{StateDone, StateIdle, true},
		{FragmentPending, FragmentMaterialized, false},
		{FragmentInjected, FragmentChainRunning, false},
		{FragmentChainRunning, FragmentFailed, false},
		{FragmentPending, FragmentLoaded, true},
		{FragmentChainDone, FragmentFailed, true},
		{FragmentFailed, FragmentPending, true},
	}
	for _, tt := range tests {
		t.Run(string(tt.from)+"->"+string(tt.to), func(t *testing.T) {
			cur := tt.from
			err := Transition(&cur, tt.to)
			if tt.wantErr {
				if !errors.Is(err, ErrInvalidTransition) {
					t.Fatalf("Transition() error = %v, want ErrInvalidTransition", err)
				}
				if cur != tt.from {
					t.Errorf("state changed to %s on rejected transition", cur)
				}
				return
			}
			if err != nil || cur != tt.to {
				t.Errorf("Transition() = %v, state %s", err, cur)
			}
		})
	}
}

func TestIsTerminal(t *testing.T) {
	for _, s := range []State{StateDone, FragmentChainDone, FragmentFailed} {
		if !IsTerminal(s) {
			t.Errorf("IsTerminal(%s) = false", s)
		}
	}
	for _, s := range []State{StateIdle, FragmentPending, FragmentChainRunning} {
		if IsTerminal(s) {
			t.Errorf("IsTerminal(%s) = true", s)
		}
	}
}
