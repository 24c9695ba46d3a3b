// SPDX-License-Identifier: BSD-3-Clause

package installer

import "regexp"

// defaultNoisePatterns matches the deprecation/warning chatter pip and
// npm installs are full of; the runner filters these rather than
// forwarding every line to the sink.
var defaultNoisePatterns = []string{
	`(?i)deprecationwarning`,
	`(?i)futurewarning`,
	`(?i)^\s*warning:\s*the scripts? .* are installed in`,
	`(?i)you are using pip version`,
}

// Config controls how the runner filters output before forwarding it.
type Config struct {
	// NoisePatterns are regexes matched against each stripped line; a
	// match drops the line instead of forwarding it.
	NoisePatterns []string
	// KillGrace is passed to platform.Adapter.KillTree when cancellation
	// tree-kills the install child.
	KillGrace int
}

// Option customizes a Runner.
type Option func(*Config)

// WithNoisePatterns overrides the default deprecation-noise filter.
func WithNoisePatterns(patterns ...string) Option {
	return func(c *Config) { c.NoisePatterns = patterns }
}

// WithKillGrace overrides the grace period (seconds) given to a
// cancelled install child before it is force-killed.
func WithKillGrace(seconds int) Option {
	return func(c *Config) { c.KillGrace = seconds }
}

func defaultConfig() *Config {
	return &Config{
		NoisePatterns: defaultNoisePatterns,
		KillGrace:     3,
	}
}

func compileNoise(patterns []string) []*regexp.Regexp {
	out := make([]*regexp.Regexp, 0, len(patterns))
	for _, p := range patterns {
		if re, err := regexp.Compile(p); err == nil {
			out = append(out, re)
		}
	}
	return out
}
