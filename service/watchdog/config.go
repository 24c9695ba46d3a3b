// SPDX-License-Identifier: BSD-3-Clause

package watchdog

import "time"

// Config tunes the watchdog's poll cadence.
type Config struct {
	// PollInterval is the supervisor-liveness poll cadence (default 1s).
	PollInterval time.Duration
}

// Option customizes a Watchdog.
type Option func(*Config)

// WithPollInterval overrides the supervisor-liveness poll cadence.
func WithPollInterval(d time.Duration) Option {
	return func(c *Config) { c.PollInterval = d }
}

func defaultConfig() *Config {
	return &Config{PollInterval: time.Second}
}
