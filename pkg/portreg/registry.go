// SPDX-License-Identifier: BSD-3-Clause

package portreg

import (
	"context"
	"fmt"
	"sync"

	"github.com/arunsworld/nursery"
	"github.com/cenkalti/backoff/v5"

	"github.com/GenorTG/assistant-launcher/pkg/platform"
)

// Registry reclaims the fixed ports the service registry reserves,
// delegating the actual kill to a platform.Adapter.
type Registry struct {
	adapter platform.Adapter
	cfg     *Config
}

// New builds a Registry backed by adapter.
func New(adapter platform.Adapter, opts ...Option) *Registry {
	cfg := defaultConfig()
	for _, opt := range opts {
		opt(cfg)
	}
	return &Registry{adapter: adapter, cfg: cfg}
}

// Scan reports whether port is held and by which pids.
func (r *Registry) Scan(ctx context.Context, port int) (held bool, pids []int, err error) {
	pids, err = r.adapter.PIDsOnPort(ctx, port)
	if err != nil {
		return false, nil, fmt.Errorf("%w: %w", ErrScanFailed, err)
	}
	return len(pids) > 0, pids, nil
}

// Reclaim kills whatever holds port (excluding excludePID, 0 meaning none),
// then polls the port up to cfg.MaxRetries times, cfg.RetryInterval apart,
// until it reports free. It returns ErrStillOccupied if the budget runs out
// with the port still held.
func (r *Registry) Reclaim(ctx context.Context, port int, excludePID int) error {
	if _, err := r.adapter.KillOnPort(ctx, port, excludePID); err != nil {
		return fmt.Errorf("reclaim port %d: %w", port, err)
	}

	op := func() (struct{}, error) {
		held, pids, err := r.Scan(ctx, port)
		if err != nil {
			return struct{}{}, err
		}
		if !held {
			return struct{}{}, nil
		}
		return struct{}{}, fmt.Errorf("port %d still held by %v", port, pids)
	}

	_, err := backoff.Retry(ctx, op,
		backoff.WithBackOff(backoff.NewConstantBackOff(r.cfg.RetryInterval)),
		backoff.WithMaxTries(r.cfg.MaxRetries),
	)
	if err != nil {
		return fmt.Errorf("%w: port %d: %w", ErrStillOccupied, port, err)
	}
	return nil
}

// ReclaimAll reclaims every port in ports concurrently, returning the error
// (if any) for each port keyed by port number. A port absent from the
// result map was reclaimed cleanly.
func (r *Registry) ReclaimAll(ctx context.Context, ports []int, excludePID int) map[int]error {
	var (
		mu      sync.Mutex
		results = make(map[int]error)
		tasks   []nursery.ConcurrentJob
	)

	for _, p := range ports {
		port := p
		tasks = append(tasks, func(ctx context.Context, errChan chan error) {
			if err := r.Reclaim(ctx, port, excludePID); err != nil {
				mu.Lock()
				results[port] = err
				mu.Unlock()
			}
		})
	}

	_ = nursery.RunConcurrentlyWithContext(ctx, tasks...)
	return results
}
