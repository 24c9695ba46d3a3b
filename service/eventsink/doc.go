// SPDX-License-Identifier: BSD-3-Clause

// Package eventsink implements the Event Sink: an
// append-only stream of typed records a thin UI subscribes to. A Sink
// fans each record out to a bounded channel; on overflow the incoming
// record is dropped and counted per service, and the count is emitted
// later as an InstallProgress record with LinesElided set. Records
// already queued are kept: the oldest lines are not evicted to make room.
//
// service/bus republishes these records to in-process subscribers over
// an embedded NATS server; this package only defines the
// record shapes, the per-service ring buffer used for UI log tabs, and
// the in-process Sink interface service/controller and service/supervisor
// write to directly.
package eventsink
