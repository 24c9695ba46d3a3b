// SPDX-License-Identifier: BSD-3-Clause

package watchdog

import (
	"context"
	"log/slog"
	"time"

	"github.com/GenorTG/assistant-launcher/pkg/platform"
)

// Watchdog polls for a supervisor's death and, once detected, kills
// whatever still listens on each of its ports. It holds no handle to the
// supervisor process itself - platform.ProcessAlive is a side-effect-free
// existence check - so the supervisor's death cannot take the watchdog
// down with it.
type Watchdog struct {
	cfg      *Config
	adapter  platform.Adapter
	superPID int
	ports    []int
	logger   *slog.Logger
}

// New builds a Watchdog that will watch superPID and reclaim ports once it
// is gone.
func New(adapter platform.Adapter, superPID int, ports []int, opts ...Option) *Watchdog {
	cfg := defaultConfig()
	for _, opt := range opts {
		opt(cfg)
	}
	return &Watchdog{
		cfg:      cfg,
		adapter:  adapter,
		superPID: superPID,
		ports:    ports,
		logger:   slog.Default(),
	}
}

// Run blocks until the watched supervisor process is gone, then reclaims
// every configured port and returns. It only returns an error if ctx is
// canceled first; a supervisor death is the expected, successful exit
// path.
func (w *Watchdog) Run(ctx context.Context) error {
	ticker := time.NewTicker(w.cfg.PollInterval)
	defer ticker.Stop()

	for {
		if !platform.ProcessAlive(w.superPID) {
			w.reclaim(ctx)
			return nil
		}
		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-ticker.C:
		}
	}
}

// reclaim kills whatever holds each watched port. It never excludes a pid
// (the watchdog is not itself listening on any of them) and logs rather
// than fails on a per-port error, since one stuck port should not stop the
// rest from being cleaned up.
func (w *Watchdog) reclaim(ctx context.Context) {
	w.logger.Info("supervisor is gone, reclaiming ports", "supervisor_pid", w.superPID, "ports", w.ports)
	for _, port := range w.ports {
		n, err := w.adapter.KillOnPort(ctx, port, 0)
		if err != nil {
			w.logger.Warn("failed to reclaim port", "port", port, "error", err)
			continue
		}
		if n > 0 {
			w.logger.Info("reclaimed port", "port", port, "killed", n)
		}
	}
}
