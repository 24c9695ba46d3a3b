// SPDX-License-Identifier: BSD-3-Clause

package procgroup

import (
	"os/exec"
	"sync"

	"github.com/GenorTG/assistant-launcher/pkg/platform"
)

// Manager wraps a single platform.Group allocated once at supervisor
// startup. Every child the supervisor spawns - service processes and
// install recipes alike - joins this group so closing it (or, on Unix,
// signaling every tracked pgid) guarantees no child outlives the
// supervisor.
type Manager struct {
	adapter platform.Adapter

	mu      sync.Mutex
	group   platform.Group
	closed  bool
	members map[int]struct{}
}

// New allocates the group primitive via adapter. Failure is reported
// through the returned error rather than a panic; callers that cannot
// treat a missing group as fatal may still spawn children without one
// (Attach's failure is logged, not fatal).
func New(adapter platform.Adapter) (*Manager, error) {
	g, err := adapter.NewGroup()
	if err != nil {
		return nil, err
	}
	return &Manager{
		adapter: adapter,
		group:   g,
		members: make(map[int]struct{}),
	}, nil
}

// Prepare configures cmd so the eventual child joins the group at spawn
// time. Call before cmd.Start.
func (m *Manager) Prepare(cmd *exec.Cmd) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.closed {
		return
	}
	m.group.Prepare(cmd)
}

// Attach records cmd's pid as a member once it has started. Best-effort:
// an error here is logged by the caller but never prevents the child from
// running.
func (m *Manager) Attach(cmd *exec.Cmd) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.closed {
		return ErrClosed
	}
	if cmd.Process == nil {
		return ErrNotStarted
	}
	if err := m.group.Attach(cmd); err != nil {
		return err
	}
	m.members[cmd.Process.Pid] = struct{}{}
	return nil
}

// Detach drops pid from the membership count once its controller has
// observed the child's exit. It does not affect the underlying OS
// primitive; Unix process groups and Windows job objects have no concept
// of removing a single member early.
func (m *Manager) Detach(pid int) {
	m.mu.Lock()
	defer m.mu.Unlock()
	delete(m.members, pid)
}

// Count returns the number of children currently believed attached.
func (m *Manager) Count() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return len(m.members)
}

// Close releases the OS handle held by the group. On Windows this kills
// every remaining member as a side effect of the job object's
// kill-on-close flag; on Unix it is a no-op and callers rely on
// platform.Adapter.KillTree/KillOnPort for the equivalent guarantee.
func (m *Manager) Close() error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.closed {
		return nil
	}
	m.closed = true
	return m.group.Close()
}
