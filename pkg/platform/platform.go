// SPDX-License-Identifier: BSD-3-Clause

package platform

import (
	"context"
	"os/exec"
)

// Runtime describes one interpreter/toolchain candidate found on PATH.
type Runtime struct {
	Path  string
	Major int
	Minor int
}

// Group is the OS primitive that binds a set of child processes together so
// they can be torn down as a unit: a process group on Unix, a job object on
// Windows. Prepare must be called before cmd.Start, Attach after it succeeds.
type Group interface {
	// Prepare configures cmd.SysProcAttr so the eventual child joins this
	// group at spawn time.
	Prepare(cmd *exec.Cmd)
	// Attach records cmd's pid as a member once it has started. On Windows
	// this assigns the process handle to the job object; on Unix the child
	// already joined its own group via Prepare and this is bookkeeping only.
	Attach(cmd *exec.Cmd) error
	// Close releases any OS handle held by the group. It does not kill
	// members; callers use KillTree for that.
	Close() error
}

// Adapter is the Platform Adapter: every OS-specific
// operation the supervisor needs, behind one interface so service/controller
// and service/installer never branch on runtime.GOOS themselves.
type Adapter interface {
	// FindRuntime searches PATH for an executable of the given family
	// ("python", "node", ...) whose major version matches and whose minor
	// version is at least minMinor, returning the highest-minor match.
	FindRuntime(ctx context.Context, family string, major, minMinor int) (Runtime, error)
	// KillTree terminates pid and every descendant it can discover, trying
	// a graceful signal first and escalating to an unconditional kill after
	// grace elapses (the Windows adapter has no graceful phase and
	// force-kills at once). Killing a pid that no longer exists is not an
	// error.
	KillTree(ctx context.Context, pid int, grace int) error
	// PIDsOnPort lists the pids of processes with a listening socket bound
	// to port. An empty, nil-error result means the port is free.
	PIDsOnPort(ctx context.Context, port int) ([]int, error)
	// KillOnPort kills every process bound to port except excludePID (0 to
	// exclude none) and returns how many distinct pids it killed.
	KillOnPort(ctx context.Context, port int, excludePID int) (int, error)
	// NewGroup allocates a fresh Group.
	NewGroup() (Group, error)
}

// New returns the Adapter implementation for the running GOOS.
func New() Adapter {
	return newAdapter()
}
