// SPDX-License-Identifier: BSD-3-Clause

package supervisor

import "time"

// Config tunes the supervisor's own timing, independent of any one
// controller's Config.
type Config struct {
	// Name identifies this supervisor instance in its log lines.
	Name string

	// RefreshInterval is how often the idle status-refresh loop re-checks
	// install status and liveness for every service.
	RefreshInterval time.Duration
	// HeavyOpRefreshInterval replaces RefreshInterval while an install
	// fan-out is in flight, backing the loop off so it does not compete
	// for disk/CPU with the installs themselves.
	HeavyOpRefreshInterval time.Duration

	// TaskTimeout is passed to the internal oversight tree as the event
	// bus's and refresh loop's oversight.Timeout: how long the tree waits
	// for either to return once it is told to stop.
	TaskTimeout time.Duration

	// ShutdownGrace is how long each controller's Stop (including every
	// Stop issued by StopAll) waits for a graceful exit before it
	// escalates to a tree-kill.
	ShutdownGrace time.Duration

	// WatchdogBinary is the path to the watchdog executable spawned at
	// startup. Empty disables the watchdog handoff entirely (useful for
	// tests and for platforms where no watchdog binary is deployed).
	WatchdogBinary string

	// IDFile is a path for a persistent instance id. The supervisor stores
	// it but does not read or write the file, and no instance id is kept.
	IDFile string
}

// Option customizes a Supervisor.
type Option func(*Config)

// WithName overrides the supervisor's instance name.
func WithName(name string) Option { return func(c *Config) { c.Name = name } }

// WithRefreshInterval overrides the idle refresh-loop cadence.
func WithRefreshInterval(d time.Duration) Option {
	return func(c *Config) { c.RefreshInterval = d }
}

// WithHeavyOpRefreshInterval overrides the backed-off refresh cadence used
// while an install fan-out is in flight.
func WithHeavyOpRefreshInterval(d time.Duration) Option {
	return func(c *Config) { c.HeavyOpRefreshInterval = d }
}

// WithTaskTimeout overrides the oversight tree's per-task stop timeout.
func WithTaskTimeout(d time.Duration) Option {
	return func(c *Config) { c.TaskTimeout = d }
}

// WithShutdownGrace overrides the per-service stop grace used by Stop and
// StopAll.
func WithShutdownGrace(d time.Duration) Option {
	return func(c *Config) { c.ShutdownGrace = d }
}

// WithWatchdogBinary sets the path to the watchdog executable to spawn at
// startup. An empty path (the default) disables the watchdog handoff.
func WithWatchdogBinary(path string) Option {
	return func(c *Config) { c.WatchdogBinary = path }
}

// WithIDFile sets Config.IDFile, which the supervisor does not read.
func WithIDFile(path string) Option {
	return func(c *Config) { c.IDFile = path }
}

func defaultConfig() *Config {
	return &Config{
		Name:                   "launcher-supervisor",
		RefreshInterval:        2 * time.Second,
		HeavyOpRefreshInterval: 5 * time.Second,
		TaskTimeout:            10 * time.Second,
		ShutdownGrace:          time.Second,
		IDFile:                 "/var/launcher/id",
	}
}
