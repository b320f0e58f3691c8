package session

import "errors"

// Sentinel errors for session execution.
var (
	// ErrConfiguration indicates the runner configuration is invalid.
	ErrConfiguration = errors.New("configuration error")

	// ErrInvalidTransition indicates a state change the session state
	// machine does not allow.
	ErrInvalidTransition = errors.New("invalid state transition")

	// ErrCancelled marks fragments skipped because the context ended
	// before they started.
	ErrCancelled = errors.New("session cancelled")
)
