// SPDX-License-Identifier: BSD-3-Clause

package procgroup

import "errors"

var (
	// ErrClosed indicates an operation was attempted on a Manager that has
	// already released its underlying platform.Group.
	ErrClosed = errors.New("process group manager closed")
	// ErrNotStarted indicates Attach was called with a command that was
	// never started.
	ErrNotStarted = errors.New("process not started")
)
