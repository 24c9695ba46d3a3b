// SPDX-License-Identifier: BSD-3-Clause

// Package platform wraps the OS-specific primitives the Platform
// Adapter needs: locating a language runtime, killing a process tree,
// listing and killing processes bound to a port, and creating the
// process-group/job-object primitive that guarantees no child outlives the
// supervisor.
//
// Every exported method returns a structured error instead of raising; kill
// operations are idempotent (killing an already-dead tree, or a port no
// longer held, succeeds trivially). The concrete implementation is chosen
// by build tag: unix.go backs New() on every non-Windows GOOS, windows.go
// backs it on Windows.
package platform
