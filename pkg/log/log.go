// SPDX-License-Identifier: BSD-3-Clause

package log

import (
	"log/slog"
	"sync"

	"github.com/rs/zerolog"
	slogmulti "github.com/samber/slog-multi"
	slogzerolog "github.com/samber/slog-zerolog/v2"
)

var (
	sinkMu      sync.RWMutex
	sinkHandler slog.Handler
	globalOnce  sync.Once
	global      *slog.Logger
)

// SetSinkHandler installs a slog.Handler that every logger built after this
// call fans records out to, in addition to the console. Call once at
// startup, before the first NewDefaultLogger/GetGlobalLogger. nil clears it.
func SetSinkHandler(h slog.Handler) {
	sinkMu.Lock()
	defer sinkMu.Unlock()
	sinkHandler = h
}

func newHandler() slog.Handler {
	zeroLogger := zerolog.
		New(zerolog.NewConsoleWriter()).
		With().
		Timestamp().
		Logger()
	console := slogzerolog.Option{Level: slog.LevelDebug, Logger: &zeroLogger}.NewZerologHandler()

	sinkMu.RLock()
	sink := sinkHandler
	sinkMu.RUnlock()

	if sink == nil {
		return console
	}
	return slogmulti.Fanout(console, sink)
}

// NewDefaultLogger builds a structured logger that writes human-readable
// output to the console and, once SetSinkHandler has been called, mirrors
// every record into the event sink so UI log tabs see the same stream.
func NewDefaultLogger() *slog.Logger {
	return slog.New(newHandler())
}

// GetGlobalLogger returns a process-wide logger, built lazily on first use
// from whatever sink handler is installed at that point.
func GetGlobalLogger() *slog.Logger {
	globalOnce.Do(func() {
		global = NewDefaultLogger()
	})
	return global
}

// RedirectSlogger points the standard library's slog default logger at the
// dual console/sink logger, so code using slog.Info et al. (rather than a
// logger passed explicitly) still reaches the event sink.
func RedirectSlogger() {
	slog.SetDefault(GetGlobalLogger())
}
