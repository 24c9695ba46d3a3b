// SPDX-License-Identifier: BSD-3-Clause

// Package httpstatus exposes the supervisor's command surface over plain
// HTTP: a polling GET /status, POST /install, /start, /stop, and a GET
// /events long-lived SSE stream fed by the event bus. It has no GUI of
// its own - it is the thing a GUI, or curl, talks to.
package httpstatus
