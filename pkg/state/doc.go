// SPDX-License-Identifier: BSD-3-Clause

// Package state provides a small, thread-safe finite-state-machine wrapper
// around github.com/qmuntal/stateless, with optional persistence and
// broadcast callbacks and an OpenTelemetry span per Fire call.
//
// service/controller uses it to back the Stopped/Starting/Running/Stopping/
// Error machine every service instance runs (see NewServiceLifecycle),
// turning the broadcast callback into an eventsink.StateChanged record.
package state
