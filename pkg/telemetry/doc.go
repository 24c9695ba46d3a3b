// SPDX-License-Identifier: BSD-3-Clause

// Package telemetry wires up OpenTelemetry tracing and metrics for the
// supervisor. By default everything is a no-op: Setup installs SDK
// providers that collect spans/instruments in memory but export nothing,
// which is enough for pkg/state machines built with tracing enabled to
// open spans around transitions without needing a collector present.
// Setting LAUNCHER_OTEL_ENDPOINT adds an OTLP/HTTP trace exporter pointed
// at that endpoint; metrics are not exported in either mode.
package telemetry
