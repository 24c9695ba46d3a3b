// SPDX-License-Identifier: BSD-3-Clause

package controller

import "time"

// Config tunes one Controller's timing and output classification.
type Config struct {
	// InstallCacheTTL bounds how long a cached install-status result is
	// trusted before the next check re-stats the runtime directory.
	InstallCacheTTL time.Duration
	// StopGrace is how long Stop waits, after cancelling the service's run
	// context, for the child to exit on its own before tree-killing it.
	StopGrace time.Duration
	// KillGrace is passed to platform.Adapter.KillTree for a forced stop.
	KillGrace int
	// ErrorKeywords mark a streamed line as severe enough to additionally
	// mirror into the launcher-scoped log.
	ErrorKeywords []string
}

// Option customizes a Controller.
type Option func(*Config)

// WithInstallCacheTTL overrides the install-status cache lifetime.
func WithInstallCacheTTL(d time.Duration) Option {
	return func(c *Config) { c.InstallCacheTTL = d }
}

// WithStopGrace overrides how long Stop waits before escalating.
func WithStopGrace(d time.Duration) Option {
	return func(c *Config) { c.StopGrace = d }
}

// WithKillGrace overrides the grace (seconds) given to KillTree.
func WithKillGrace(seconds int) Option {
	return func(c *Config) { c.KillGrace = seconds }
}

// WithErrorKeywords overrides the default error-keyword classifier list.
func WithErrorKeywords(keywords ...string) Option {
	return func(c *Config) { c.ErrorKeywords = keywords }
}

func defaultConfig() *Config {
	return &Config{
		InstallCacheTTL: 5 * time.Second,
		StopGrace:       time.Second,
		KillGrace:       3,
		ErrorKeywords:   []string{"error", "exception", "traceback", "fatal", "panic"},
	}
}
