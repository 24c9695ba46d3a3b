// SPDX-License-Identifier: BSD-3-Clause

// Package watchdog implements the small, independent program run
// alongside the supervisor: given a supervisor pid and a list of ports, poll for the
// supervisor's death and, once it is gone, kill whatever still holds each
// port before exiting. It is deliberately a separate OS process rather
// than a goroutine inside the supervisor - a goroutine dies with the
// supervisor it would be watching.
package watchdog
