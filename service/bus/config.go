// SPDX-License-Identifier: BSD-3-Clause

package bus

import "time"

type config struct {
	serviceName     string
	serverName      string
	startupTimeout  time.Duration
	shutdownTimeout time.Duration
}

// Option customizes New.
type Option func(*config)

// WithServiceName overrides the service.Service name reported to the
// supervisor's own internal oversight tree.
func WithServiceName(name string) Option {
	return func(c *config) { c.serviceName = name }
}

// WithServerName overrides the embedded NATS server's identity.
func WithServerName(name string) Option {
	return func(c *config) { c.serverName = name }
}

// WithStartupTimeout overrides how long Run waits for the embedded server
// to become ready for connections.
func WithStartupTimeout(d time.Duration) Option {
	return func(c *config) { c.startupTimeout = d }
}

func defaultConfig() *config {
	return &config{
		serviceName:     "event-bus",
		serverName:      "launcher-event-bus",
		startupTimeout:  5 * time.Second,
		shutdownTimeout: 3 * time.Second,
	}
}
