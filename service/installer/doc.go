// SPDX-License-Identifier: BSD-3-Clause

// Package installer implements the Installer Runner: it spawns a
// service's install recipe as a child joined to
// the supervisor's process group, merges stdout+stderr, strips terminal
// escape sequences, filters deprecation-noise lines, and forwards every
// surviving line to an eventsink.Sink tagged with the service id.
// Cancellation tree-kills the child. The runner never returns an error
// for anything the child itself did wrong - a non-zero exit is reported
// in the Result, not via the error return.
package installer
