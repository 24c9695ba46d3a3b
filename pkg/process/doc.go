// SPDX-License-Identifier: BSD-3-Clause

// Package process bridges a service.Service into an oversight.ChildProcess,
// adding panic recovery so one misbehaving in-process task (the event bus,
// the status-refresh loop) cannot bring down the supervisor's own
// supervision tree.
package process
