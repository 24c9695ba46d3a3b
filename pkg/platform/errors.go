// SPDX-License-Identifier: BSD-3-Clause

package platform

import "errors"

var (
	// ErrRuntimeNotFound indicates no interpreter/runtime matching the
	// requested family and minimum minor version exists on PATH.
	ErrRuntimeNotFound = errors.New("runtime not found")
	// ErrProcessNotFound indicates the target pid no longer exists.
	ErrProcessNotFound = errors.New("process not found")
	// ErrKillFailed indicates a kill syscall or helper command failed for a
	// reason other than the process already being gone.
	ErrKillFailed = errors.New("kill failed")
	// ErrPortScanFailed indicates the port-to-pid lookup helper could not run.
	ErrPortScanFailed = errors.New("port scan failed")
	// ErrGroupUnavailable indicates the process-group primitive could not be
	// created on this platform.
	ErrGroupUnavailable = errors.New("process group unavailable")
)
