// SPDX-License-Identifier: BSD-3-Clause

// Package controller implements the per-service controller: a state
// machine (via pkg/state) wrapping one supervised
// process's entire lifecycle - install-status checks, spawning,
// readiness probing, output streaming, and graceful-then-forced
// shutdown - with single-slot serialization so at most one Start/Stop/
// Install runs against a given service at a time.
package controller
