// SPDX-License-Identifier: BSD-3-Clause

// Package bus embeds an in-process NATS server (dontListen: true,
// connections via nats.InProcessConnProvider) and republishes every
// eventsink.Record onto it, subject-per-kind, so in-process subscribers
// (such as the httpstatus /events handler) can subscribe to "events.>"
// without the supervisor knowing anything about who is listening. The
// server opens no network listener, so it has no out-of-process clients.
package bus
