// SPDX-License-Identifier: BSD-3-Clause

package health

import (
	"context"
	"fmt"
	"net"
	"net/http"
	"strings"
	"time"

	"github.com/cenkalti/backoff/v5"
)

// Target is what a single probe checks: an HTTP GET to BaseURL+HealthPath
// when HealthPath is non-empty, otherwise a bare TCP connect to
// Host:Port.
type Target struct {
	BaseURL    string
	HealthPath string
	Host       string
	Port       int
}

func (t Target) url() string {
	return strings.TrimRight(t.BaseURL, "/") + t.HealthPath
}

func (t Target) addr() string {
	host := t.Host
	if host == "" {
		host = "localhost"
	}
	return fmt.Sprintf("%s:%d", host, t.Port)
}

// Prober performs bounded-latency readiness checks.
type Prober struct {
	cfg    *Config
	client *http.Client
	dialer *net.Dialer
}

// New builds a Prober.
func New(opts ...Option) *Prober {
	cfg := defaultConfig()
	for _, opt := range opts {
		opt(cfg)
	}
	return &Prober{
		cfg:    cfg,
		client: &http.Client{Timeout: cfg.ProbeTimeout},
		dialer: &net.Dialer{Timeout: cfg.ProbeTimeout},
	}
}

// Probe performs a single bounded-latency attempt. A 2xx HTTP response, or
// a successful TCP connect when no health path is declared, counts as
// ready.
func (p *Prober) Probe(ctx context.Context, t Target) (bool, error) {
	ctx, cancel := context.WithTimeout(ctx, p.cfg.ProbeTimeout)
	defer cancel()

	if t.HealthPath == "" {
		conn, err := p.dialer.DialContext(ctx, "tcp", t.addr())
		if err != nil {
			return false, fmt.Errorf("%w: %w", ErrNotReady, err)
		}
		_ = conn.Close()
		return true, nil
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, t.url(), nil)
	if err != nil {
		return false, fmt.Errorf("%w: %w", ErrNotReady, err)
	}
	resp, err := p.client.Do(req)
	if err != nil {
		return false, fmt.Errorf("%w: %w", ErrNotReady, err)
	}
	defer resp.Body.Close()
	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return false, fmt.Errorf("%w: status %d", ErrNotReady, resp.StatusCode)
	}
	return true, nil
}

// PollUntilReady retries Probe every cfg.PollInterval until it succeeds or
// cfg.StartupBudget elapses. A budget exhausted without success is not an
// error: it returns (false, nil), so a live-but-slow service becomes
// Running with ready_confirmed=false rather than failing outright.
func (p *Prober) PollUntilReady(ctx context.Context, t Target) (bool, error) {
	op := func() (bool, error) {
		ready, err := p.Probe(ctx, t)
		if ready {
			return true, nil
		}
		return false, err
	}

	ready, err := backoff.Retry(ctx, op,
		backoff.WithBackOff(backoff.NewConstantBackOff(p.cfg.PollInterval)),
		backoff.WithMaxElapsedTime(p.cfg.StartupBudget),
	)
	if err != nil {
		if ctx.Err() != nil {
			return false, ctx.Err()
		}
		return false, nil
	}
	return ready, nil
}
