// SPDX-License-Identifier: BSD-3-Clause

package portreg

import "time"

// Config controls the reclaim retry budget.
type Config struct {
	RetryInterval time.Duration
	MaxRetries    uint
}

// Option customizes a Registry.
type Option func(*Config)

// WithRetryInterval overrides the default wait between reclaim polls.
func WithRetryInterval(d time.Duration) Option {
	return func(c *Config) { c.RetryInterval = d }
}

// WithMaxRetries overrides the default number of reclaim attempts.
func WithMaxRetries(n uint) Option {
	return func(c *Config) { c.MaxRetries = n }
}

func defaultConfig() *Config {
	return &Config{
		RetryInterval: 2 * time.Second,
		MaxRetries:    5,
	}
}
