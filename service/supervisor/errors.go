// SPDX-License-Identifier: BSD-3-Clause

package supervisor

import "errors"

var (
	// ErrUnknownService is returned by any single-service operation given
	// an id absent from the registry.
	ErrUnknownService = errors.New("unknown service id")
	// ErrAddTask indicates the internal oversight tree rejected a task
	// (the event bus or the refresh loop) at startup.
	ErrAddTask = errors.New("failed to add task to supervision tree")
)
