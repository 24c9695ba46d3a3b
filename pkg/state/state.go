// SPDX-License-Identifier: BSD-3-Clause

package state

import (
	"context"
	"fmt"
	"sync"

	"github.com/qmuntal/stateless"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/trace"
)

// Machine is a thread-safe finite state machine with optional persistence
// and broadcast hooks and an OpenTelemetry span around every Fire call.
type Machine struct {
	cfg     *Config
	inner   *stateless.StateMachine
	mu      sync.RWMutex
	tracer  trace.Tracer
	current string
}

// New builds a Machine from cfg, which must pass Validate.
func New(cfg *Config) (*Machine, error) {
	if cfg == nil {
		return nil, ErrInvalidConfig
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	m := &Machine{
		cfg:     cfg,
		current: cfg.InitialState,
		inner:   stateless.NewStateMachine(cfg.InitialState),
	}
	if cfg.EnableTracing {
		m.tracer = otel.Tracer("state")
	}

	for _, s := range cfg.States {
		sc := m.inner.Configure(s.Name)
		if s.OnEntry != nil {
			entry := s.OnEntry
			sc.OnEntry(func(ctx context.Context, _ ...any) error { return entry(ctx) })
		}
		if s.OnExit != nil {
			exit := s.OnExit
			sc.OnExit(func(ctx context.Context, _ ...any) error { return exit(ctx) })
		}
	}

	for _, t := range cfg.Transitions {
		fromCfg := m.inner.Configure(t.From)
		if t.Guard != nil {
			guard := t.Guard
			to := t.To
			fromCfg.PermitDynamic(t.Trigger, func(ctx context.Context, _ ...any) (any, error) {
				if guard(ctx) {
					return to, nil
				}
				return nil, fmt.Errorf("guard rejected trigger %q", t.Trigger)
			})
		} else {
			fromCfg.Permit(t.Trigger, t.To)
		}
		if t.Action != nil {
			action := t.Action
			from := t.From
			m.inner.Configure(t.To).OnEntryFrom(t.Trigger, func(ctx context.Context, _ ...any) error {
				return action(ctx, from, t.To)
			})
		}
	}

	return m, nil
}

// Name returns the machine's configured name.
func (m *Machine) Name() string { return m.cfg.Name }

// CurrentState returns the state the machine is in right now.
func (m *Machine) CurrentState() string {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.current
}

// IsInState reports whether the machine is currently in the named state.
func (m *Machine) IsInState(s string) bool {
	return m.CurrentState() == s
}

// CanFire reports whether trigger is permitted from the current state.
func (m *Machine) CanFire(trigger string) bool {
	m.mu.RLock()
	defer m.mu.RUnlock()
	ok, err := m.inner.CanFire(trigger)
	return err == nil && ok
}

// PermittedTriggers lists triggers that may be fired from the current state.
func (m *Machine) PermittedTriggers() []string {
	m.mu.RLock()
	defer m.mu.RUnlock()
	triggers, err := m.inner.PermittedTriggers()
	if err != nil {
		return nil
	}
	out := make([]string, len(triggers))
	for i, t := range triggers {
		out[i] = fmt.Sprintf("%v", t)
	}
	return out
}

// Fire attempts the named trigger, bounded by cfg.StateTimeout. On success it
// runs Persist then Broadcast (in that order) outside the machine's own
// lock, so a callback that calls back into the machine cannot deadlock.
func (m *Machine) Fire(ctx context.Context, trigger string) error {
	m.mu.Lock()

	var span trace.Span
	if m.tracer != nil {
		ctx, span = m.tracer.Start(ctx, "state.Fire", trace.WithAttributes(
			attribute.String("state_machine.name", m.cfg.Name),
			attribute.String("state.current", m.current),
			attribute.String("trigger", trigger),
		))
		defer span.End()
	}

	if ok, err := m.inner.CanFire(trigger); err != nil || !ok {
		m.mu.Unlock()
		return fmt.Errorf("%w: trigger %q not valid in state %q", ErrInvalidTrigger, trigger, m.current)
	}

	previous := m.current
	timeout := m.cfg.StateTimeout
	fireCtx, cancel := context.WithTimeout(ctx, timeout)
	defer cancel()

	done := make(chan error, 1)
	go func() { done <- m.inner.FireCtx(fireCtx, trigger) }()

	select {
	case err := <-done:
		if err != nil {
			m.mu.Unlock()
			if span != nil {
				span.RecordError(err)
			}
			return fmt.Errorf("%w: %w", ErrInvalidTransition, err)
		}
	case <-fireCtx.Done():
		m.mu.Unlock()
		if fireCtx.Err() == context.DeadlineExceeded {
			return ErrTransitionTimeout
		}
		return fireCtx.Err()
	}

	newState, err := m.inner.State(ctx)
	if err != nil {
		m.mu.Unlock()
		return fmt.Errorf("failed to read new state: %w", err)
	}
	m.current = fmt.Sprintf("%v", newState)
	current := m.current
	name := m.cfg.Name
	persist := m.cfg.Persist
	broadcast := m.cfg.Broadcast
	m.mu.Unlock()

	if persist != nil {
		if err := persist(name, current); err != nil {
			return fmt.Errorf("%w: %w", ErrPersistenceFailed, err)
		}
	}
	if broadcast != nil {
		_ = broadcast(name, previous, current, trigger)
	}
	if span != nil {
		span.SetAttributes(attribute.String("state.previous", previous), attribute.String("state.new", current))
	}
	return nil
}

// Manager owns a named set of independent Machines, for callers that track
// more than one lifecycle and look them up by id. (service/controller
// keeps its one Machine directly and does not use a Manager.)
type Manager struct {
	mu       sync.RWMutex
	machines map[string]*Machine
}

// NewManager returns an empty Manager.
func NewManager() *Manager {
	return &Manager{machines: make(map[string]*Machine)}
}

// Add registers m under its own Name, failing if that name is taken.
func (mgr *Manager) Add(m *Machine) error {
	mgr.mu.Lock()
	defer mgr.mu.Unlock()
	if _, exists := mgr.machines[m.Name()]; exists {
		return fmt.Errorf("%w: %s", ErrInvalidConfig, m.Name())
	}
	mgr.machines[m.Name()] = m
	return nil
}

// Get returns the machine registered under name, if any.
func (mgr *Manager) Get(name string) (*Machine, bool) {
	mgr.mu.RLock()
	defer mgr.mu.RUnlock()
	m, ok := mgr.machines[name]
	return m, ok
}

// Remove drops the machine registered under name.
func (mgr *Manager) Remove(name string) {
	mgr.mu.Lock()
	defer mgr.mu.Unlock()
	delete(mgr.machines, name)
}

// Names lists every registered machine name.
func (mgr *Manager) Names() []string {
	mgr.mu.RLock()
	defer mgr.mu.RUnlock()
	out := make([]string, 0, len(mgr.machines))
	for n := range mgr.machines {
		out = append(out, n)
	}
	return out
}
