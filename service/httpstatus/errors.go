// SPDX-License-Identifier: BSD-3-Clause

package httpstatus

import "errors"

var (
	// ErrListenFailed wraps a failure to bind the configured address.
	ErrListenFailed = errors.New("httpstatus: listen failed")
	// ErrEventSubscribeFailed wraps a failure to subscribe to the event
	// bus's wildcard subject for the SSE handler.
	ErrEventSubscribeFailed = errors.New("httpstatus: event subscribe failed")
	// ErrStreamingUnsupported means the ResponseWriter handed to /events
	// does not implement http.Flusher, so SSE cannot be served.
	ErrStreamingUnsupported = errors.New("httpstatus: streaming unsupported")
)
