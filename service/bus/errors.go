// SPDX-License-Identifier: BSD-3-Clause

package bus

import "errors"

var (
	// ErrServerCreationFailed indicates the embedded NATS server could not
	// be constructed.
	ErrServerCreationFailed = errors.New("failed to create event bus server")
	// ErrServerTimeout indicates the embedded server did not become ready
	// for connections within its startup timeout.
	ErrServerTimeout = errors.New("event bus server not ready in time")
	// ErrConnectionNotAvailable indicates InProcessConn was called before
	// the server started.
	ErrConnectionNotAvailable = errors.New("event bus connection not available")
	// ErrPublishFailed indicates a record could not be marshaled or
	// published onto its subject.
	ErrPublishFailed = errors.New("event bus publish failed")
)
