package topology

import "errors"

var (
	// ErrNoHostsAvailable is returned by Assign when the discovered host
	// list is empty. Fatal to the create call; the caller may retry the
	// whole create, Assign never retries internally.
	ErrNoHostsAvailable = errors.New("no backend hosts available")

	// ErrAlreadyInitialized is returned by Store.Create when another create
	// already installed a topology. It is a defined idempotent outcome, not
	// a failure: the call also returns the previously installed value.
	ErrAlreadyInitialized = errors.New("topology already initialized")

	// ErrNotInitialized is returned by Store.GetRequired before any create
	// has succeeded. Callers must treat it as a normal, expected state:
	// handlers fail the single request, periodic tasks skip the cycle.
	// It is never a reason to crash or to self-initialize with defaults.
	ErrNotInitialized = errors.New("topology not initialized")
)
