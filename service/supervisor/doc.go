// SPDX-License-Identifier: BSD-3-Clause

// Package supervisor implements the top-level coordinator: it holds
// the Service Registry, builds one Controller per
// service, dispatches install/start/stop commands (single or fan-out),
// runs a periodic status-refresh loop, and owns the startup and shutdown
// sequences (orphan cleanup, watchdog handoff, process-group teardown).
package supervisor
