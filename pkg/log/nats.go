// SPDX-License-Identifier: BSD-3-Clause

package log

import (
	"fmt"
	"log/slog"

	"github.com/nats-io/nats-server/v2/server"
)

// NATSLogger adapts a slog.Logger to the embedded NATS server's server.Logger
// interface so the event bus's transport logs through the same pipeline as
// the rest of the supervisor.
type NATSLogger struct {
	l *slog.Logger
}

// NewNATSLogger wraps l as a server.Logger.
func NewNATSLogger(l *slog.Logger) server.Logger {
	return &NATSLogger{l: l}
}

func (l *NATSLogger) Fatalf(format string, v ...any) {
	l.l.With("subsystem", "bus", "nats_level", "fatal").Error(fmt.Sprintf(format, v...))
}

func (l *NATSLogger) Errorf(format string, v ...any) {
	l.l.With("subsystem", "bus", "nats_level", "error").Error(fmt.Sprintf(format, v...))
}

func (l *NATSLogger) Warnf(format string, v ...any) {
	l.l.With("subsystem", "bus", "nats_level", "warn").Warn(fmt.Sprintf(format, v...))
}

func (l *NATSLogger) Noticef(format string, v ...any) {
	l.l.With("subsystem", "bus", "nats_level", "info").Info(fmt.Sprintf(format, v...))
}

func (l *NATSLogger) Debugf(format string, v ...any) {
	l.l.With("subsystem", "bus", "nats_level", "debug").Debug(fmt.Sprintf(format, v...))
}

func (l *NATSLogger) Tracef(format string, v ...any) {
	l.l.With("subsystem", "bus", "nats_level", "trace").Debug(fmt.Sprintf(format, v...))
}
