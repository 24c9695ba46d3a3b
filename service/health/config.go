// SPDX-License-Identifier: BSD-3-Clause

package health

import "time"

// Config controls probe cadence and per-attempt deadlines.
type Config struct {
	// ProbeTimeout bounds a single HTTP/TCP attempt.
	ProbeTimeout time.Duration
	// PollInterval is the spacing between attempts while starting.
	PollInterval time.Duration
	// StartupBudget is the total time PollUntilReady spends retrying
	// before reporting "not ready yet".
	StartupBudget time.Duration
}

// Option customizes a Prober.
type Option func(*Config)

// WithProbeTimeout overrides the per-attempt deadline.
func WithProbeTimeout(d time.Duration) Option {
	return func(c *Config) { c.ProbeTimeout = d }
}

// WithPollInterval overrides the spacing between retry attempts.
func WithPollInterval(d time.Duration) Option {
	return func(c *Config) { c.PollInterval = d }
}

// WithStartupBudget overrides the total startup retry budget.
func WithStartupBudget(d time.Duration) Option {
	return func(c *Config) { c.StartupBudget = d }
}

func defaultConfig() *Config {
	return &Config{
		ProbeTimeout:  time.Second,
		PollInterval:  time.Second,
		StartupBudget: 30 * time.Second,
	}
}
