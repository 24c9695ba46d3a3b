// SPDX-License-Identifier: BSD-3-Clause

package telemetry

import "errors"

var (
	// ErrAlreadySetup indicates Setup was called more than once.
	ErrAlreadySetup = errors.New("telemetry already initialized")
	// ErrExporterCreation indicates an OTLP exporter could not be constructed.
	ErrExporterCreation = errors.New("failed to create telemetry exporter")
)
