// SPDX-License-Identifier: BSD-3-Clause

// Package log provides the structured logging front end shared by every
// package in this module. It wraps log/slog with a zerolog console writer
// for humans and, once the event sink is wired up, fans each record out a
// second time so the same log line reaches the UI's log tabs.
//
// Basic usage:
//
//	logger := log.NewDefaultLogger()
//	logger.Info("supervisor starting", "services", 9)
//
// Once an event sink exists, attach it once at startup:
//
//	log.SetSinkHandler(eventsink.SlogHandler(sink))
//	logger := log.NewDefaultLogger() // now fans out to the sink too
package log
