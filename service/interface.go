// SPDX-License-Identifier: BSD-3-Clause

// Package service defines the contract for long-running tasks that the
// supervisor's own internal oversight tree watches over: the event bus and
// the periodic status-refresh loop. It is deliberately not the contract
// used to talk to an externally spawned service process — those are owned
// end to end by package controller, which drives them over os/exec rather
// than through this interface.
package service

import "context"

// Service is a task the supervisor supervises in-process. A Service that
// returns a non-nil error is considered crashed and, depending on the
// oversight restart strategy it was added with, may be restarted. A
// Service that returns nil is considered done (a oneshot).
type Service interface {
	// Name returns a unique, stable identifier for this task.
	Name() string

	// Run executes the task until ctx is canceled or a fatal error occurs.
	Run(ctx context.Context) error
}
