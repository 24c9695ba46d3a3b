// SPDX-License-Identifier: BSD-3-Clause

package eventsink

import "errors"

var (
	// ErrSinkClosed indicates Write was called after Close.
	ErrSinkClosed = errors.New("event sink closed")
)
