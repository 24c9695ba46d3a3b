// SPDX-License-Identifier: BSD-3-Clause

package supervisor

import (
	"context"
	"time"

	gservice "github.com/GenorTG/assistant-launcher/service"
)

// refreshLoop is the periodic status-refresh task: it re-evaluates
// install status and liveness for every service, and re-probes readiness
// for any service still stuck at ready_confirmed=false, even with no
// command traffic, so a crash or a slow-to-ready service that happens
// between two client polls is still caught promptly. It is itself a
// service.Service so the supervisor's internal oversight tree runs and
// restarts it like any other in-process task.
type refreshLoop struct {
	sup *Supervisor
}

var _ gservice.Service = (*refreshLoop)(nil)

func newRefreshLoop(sup *Supervisor) *refreshLoop { return &refreshLoop{sup: sup} }

// Name implements service.Service.
func (r *refreshLoop) Name() string { return "status-refresh" }

// Run polls Status for every controller on a cadence that backs off from
// RefreshInterval to HeavyOpRefreshInterval while an install fan-out is in
// flight (Supervisor.heavyOp), so the loop does not compete with an
// install for CPU/disk.
func (r *refreshLoop) Run(ctx context.Context) error {
	timer := time.NewTimer(r.interval())
	defer timer.Stop()

	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-timer.C:
			r.sup.StatusAll(ctx)
			r.sup.RefreshReadiness(ctx)
			timer.Reset(r.interval())
		}
	}
}

func (r *refreshLoop) interval() time.Duration {
	if r.sup.heavyOp.Load() {
		return r.sup.cfg.HeavyOpRefreshInterval
	}
	return r.sup.cfg.RefreshInterval
}
