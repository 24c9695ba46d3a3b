// SPDX-License-Identifier: BSD-3-Clause

package state

import (
	"context"
	"fmt"
	"time"
)

// EntryFunc runs when a state is entered.
type EntryFunc func(ctx context.Context) error

// ExitFunc runs when a state is exited.
type ExitFunc func(ctx context.Context) error

// GuardFunc reports whether a transition may fire.
type GuardFunc func(ctx context.Context) bool

// ActionFunc runs after a transition commits, before callbacks fire.
type ActionFunc func(ctx context.Context, from, to string) error

// PersistCallback is invoked after every committed transition, before
// BroadcastCallback, so a crash between the two leaves persisted state
// consistent with what will eventually be (re-)broadcast.
type PersistCallback func(machineName, newState string) error

// BroadcastCallback is invoked after every committed transition.
type BroadcastCallback func(machineName, previousState, newState, trigger string) error

// StateDefinition names a state and its entry/exit hooks.
type StateDefinition struct {
	Name    string
	OnEntry EntryFunc
	OnExit  ExitFunc
}

// TransitionDefinition declares one permitted trigger from one state to
// another, with optional guard and action.
type TransitionDefinition struct {
	From    string
	To      string
	Trigger string
	Guard   GuardFunc
	Action  ActionFunc
}

// Config describes a complete state machine.
type Config struct {
	Name         string
	InitialState string
	States       []StateDefinition
	Transitions  []TransitionDefinition
	StateTimeout time.Duration
	EnableTracing bool

	Persist   PersistCallback
	Broadcast BroadcastCallback
}

// Validate checks internal consistency: the initial state and every
// transition endpoint must be a declared state, state names must be
// non-empty and unique, and triggers must be non-empty. A trigger may be
// used by several transitions.
func (c *Config) Validate() error {
	if c.Name == "" {
		return fmt.Errorf("%w: name cannot be empty", ErrInvalidConfig)
	}
	if c.InitialState == "" {
		return fmt.Errorf("%w: initial state cannot be empty", ErrInvalidConfig)
	}
	if len(c.States) == 0 {
		return fmt.Errorf("%w: at least one state must be defined", ErrInvalidConfig)
	}

	names := make(map[string]bool, len(c.States))
	foundInitial := false
	for _, s := range c.States {
		if s.Name == "" {
			return fmt.Errorf("%w: state name cannot be empty", ErrInvalidConfig)
		}
		if names[s.Name] {
			return fmt.Errorf("%w: duplicate state %q", ErrInvalidConfig, s.Name)
		}
		names[s.Name] = true
		if s.Name == c.InitialState {
			foundInitial = true
		}
	}
	if !foundInitial {
		return fmt.Errorf("%w: initial state %q not declared", ErrInvalidConfig, c.InitialState)
	}

	for _, t := range c.Transitions {
		if t.From == "" || t.To == "" || t.Trigger == "" {
			return fmt.Errorf("%w: transition missing from/to/trigger", ErrInvalidConfig)
		}
		if !names[t.From] {
			return fmt.Errorf("%w: transition from unknown state %q", ErrInvalidConfig, t.From)
		}
		if !names[t.To] {
			return fmt.Errorf("%w: transition to unknown state %q", ErrInvalidConfig, t.To)
		}
	}

	if c.StateTimeout <= 0 {
		return fmt.Errorf("%w: state timeout must be positive", ErrInvalidConfig)
	}

	return nil
}
