// SPDX-License-Identifier: BSD-3-Clause

package httpstatus

import "time"

type config struct {
	serviceName     string
	addr            string
	allowedOrigins  []string
	readTimeout     time.Duration
	writeTimeout    time.Duration
	idleTimeout     time.Duration
	shutdownTimeout time.Duration
}

// Option customizes a Server.
type Option func(*config)

// WithServiceName overrides the service.Service name the server reports
// from Name() and uses for its log lines and HTTP tracing.
func WithServiceName(name string) Option {
	return func(c *config) { c.serviceName = name }
}

// WithAddr overrides the listen address (default ":8787").
func WithAddr(addr string) Option {
	return func(c *config) { c.addr = addr }
}

// WithAllowedOrigins overrides the CORS allow-list. The default permits
// any localhost origin, since the only intended consumer is a desktop
// GUI running on the same machine.
func WithAllowedOrigins(origins ...string) Option {
	return func(c *config) { c.allowedOrigins = origins }
}

func defaultConfig() *config {
	return &config{
		serviceName:     "http-status",
		addr:            ":8787",
		allowedOrigins:  []string{"http://localhost:*", "http://127.0.0.1:*"},
		readTimeout:     5 * time.Second,
		writeTimeout:    0, // 0: the /events SSE handler streams indefinitely
		idleTimeout:     120 * time.Second,
		shutdownTimeout: 5 * time.Second,
	}
}
