// SPDX-License-Identifier: BSD-3-Clause

package health

import "errors"

var (
	// ErrNotReady indicates a single probe attempt did not observe a ready
	// signal (non-2xx HTTP status, or TCP connect failure).
	ErrNotReady = errors.New("service not ready")
	// ErrBudgetExhausted indicates PollUntilReady's full retry budget
	// elapsed without a successful probe.
	ErrBudgetExhausted = errors.New("health probe budget exhausted")
)
