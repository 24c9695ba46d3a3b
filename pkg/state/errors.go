// SPDX-License-Identifier: BSD-3-Clause

package state

import "errors"

var (
	// ErrInvalidConfig indicates the supplied Config failed validation.
	ErrInvalidConfig = errors.New("invalid state machine configuration")
	// ErrInvalidTrigger indicates a trigger that is not permitted from the current state.
	ErrInvalidTrigger = errors.New("trigger not permitted in current state")
	// ErrInvalidTransition indicates the underlying machine rejected a transition.
	ErrInvalidTransition = errors.New("invalid state transition")
	// ErrTransitionTimeout indicates a Fire call exceeded its state timeout.
	ErrTransitionTimeout = errors.New("state transition timed out")
	// ErrPersistenceFailed indicates the persistence callback returned an error.
	ErrPersistenceFailed = errors.New("state persistence failed")
	// ErrInvalidState indicates a state name not present in the machine's configuration.
	ErrInvalidState = errors.New("unknown state")
)
