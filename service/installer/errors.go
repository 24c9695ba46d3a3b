// SPDX-License-Identifier: BSD-3-Clause

package installer

import "errors"

var (
	// ErrSpawnFailed indicates the recipe's argv could not be started at
	// all (missing binary, bad working directory, ...).
	ErrSpawnFailed = errors.New("install recipe failed to start")
	// ErrCancelled indicates the caller's context was cancelled before the
	// recipe exited; the child was tree-killed.
	ErrCancelled = errors.New("install cancelled")
)
