// SPDX-License-Identifier: BSD-3-Clause

// Package health implements the Health Prober: a bounded-latency
// readiness check, either an HTTP GET to a declared
// health path or a bare TCP connect when no health path is declared, with
// a retry budget while a service is starting.
package health
