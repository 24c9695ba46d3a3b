// SPDX-License-Identifier: BSD-3-Clause

package state

import "time"

// Service lifecycle states and triggers, shared by every Machine built with
// NewServiceLifecycle. Declared here so service/controller never needs to
// spell the state machine's vocabulary itself.
const (
	StateStopped  = "stopped"
	StateStarting = "starting"
	StateRunning  = "running"
	StateStopping = "stopping"
	StateError    = "error"

	TriggerStart       = "start"
	TriggerReady       = "ready"
	TriggerStartTimeout = "start_timeout"
	TriggerExit        = "exit"
	TriggerStop        = "stop"
	TriggerStopped     = "stopped"
	TriggerReset       = "reset"
)

// ServiceLifecycleOption customizes NewServiceLifecycle.
type ServiceLifecycleOption func(*Config)

// WithLifecyclePersist sets the Config's Persist callback.
func WithLifecyclePersist(cb PersistCallback) ServiceLifecycleOption {
	return func(c *Config) { c.Persist = cb }
}

// WithLifecycleBroadcast sets the Config's Broadcast callback.
func WithLifecycleBroadcast(cb BroadcastCallback) ServiceLifecycleOption {
	return func(c *Config) { c.Broadcast = cb }
}

// WithLifecycleTimeout overrides the default per-transition timeout.
func WithLifecycleTimeout(d time.Duration) ServiceLifecycleOption {
	return func(c *Config) { c.StateTimeout = d }
}

// WithLifecycleTracing enables an OpenTelemetry span per Fire call.
func WithLifecycleTracing() ServiceLifecycleOption {
	return func(c *Config) { c.EnableTracing = true }
}

// NewServiceLifecycle builds the Stopped/Starting/Running/Stopping/Error
// state machine for one service instance named name:
//
//	Stopped  --start-->   Starting
//	Starting --ready-->   Running
//	Starting --exit-->    Error
//	Running  --exit-->    Error
//	Starting --stop-->    Stopping
//	Running  --stop-->    Stopping
//	Stopping --stopped--> Stopped
//	Error    --reset-->   Stopped
//
// Starting can also reach Running via start_timeout (the probe budget
// elapsed while the process stayed alive — ready_confirmed stays false,
// tracked by the caller, not by this machine). Error returns to Stopped via
// reset, which service/controller fires on the next explicit command since
// Error is not sticky across it.
func NewServiceLifecycle(name string, opts ...ServiceLifecycleOption) (*Machine, error) {
	cfg := &Config{
		Name:         name,
		InitialState: StateStopped,
		StateTimeout: 5 * time.Second,
		States: []StateDefinition{
			{Name: StateStopped},
			{Name: StateStarting},
			{Name: StateRunning},
			{Name: StateStopping},
			{Name: StateError},
		},
		Transitions: []TransitionDefinition{
			{From: StateStopped, To: StateStarting, Trigger: TriggerStart},
			{From: StateStarting, To: StateRunning, Trigger: TriggerReady},
			{From: StateStarting, To: StateRunning, Trigger: TriggerStartTimeout},
			{From: StateStarting, To: StateError, Trigger: TriggerExit},
			{From: StateRunning, To: StateError, Trigger: TriggerExit},
			{From: StateRunning, To: StateStopping, Trigger: TriggerStop},
			{From: StateStarting, To: StateStopping, Trigger: TriggerStop},
			{From: StateStopping, To: StateStopped, Trigger: TriggerStopped},
			{From: StateError, To: StateStopped, Trigger: TriggerReset},
			{From: StateStopped, To: StateStopped, Trigger: TriggerReset},
		},
	}
	for _, opt := range opts {
		opt(cfg)
	}
	return New(cfg)
}
