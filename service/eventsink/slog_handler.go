// SPDX-License-Identifier: BSD-3-Clause

package eventsink

import (
	"context"
	"log/slog"
)

// slogHandler adapts a Sink to slog.Handler so pkg/log.SetSinkHandler can
// fan every structured log record out to the sink as a LogLine, keeping
// the UI's log tabs and the Go-side structured log as one stream.
type slogHandler struct {
	sink  Sink
	attrs []slog.Attr
	group string
}

// SlogHandler wraps sink as a slog.Handler.
func SlogHandler(sink Sink) slog.Handler {
	return &slogHandler{sink: sink}
}

func (h *slogHandler) Enabled(context.Context, slog.Level) bool { return true }

func (h *slogHandler) Handle(_ context.Context, r slog.Record) error {
	serviceID := LauncherServiceID
	r.Attrs(func(a slog.Attr) bool {
		if a.Key == "service" {
			serviceID = a.Value.String()
			return false
		}
		return true
	})
	h.sink.Write(LogLine(serviceID, r.Message, levelFor(r.Level)))
	return nil
}

func (h *slogHandler) WithAttrs(attrs []slog.Attr) slog.Handler {
	next := *h
	next.attrs = append(append([]slog.Attr{}, h.attrs...), attrs...)
	return &next
}

func (h *slogHandler) WithGroup(name string) slog.Handler {
	next := *h
	next.group = name
	return &next
}

func levelFor(l slog.Level) Level {
	switch {
	case l >= slog.LevelError:
		return LevelError
	case l >= slog.LevelWarn:
		return LevelWarning
	case l >= slog.LevelInfo:
		return LevelInfo
	default:
		return LevelDebug
	}
}
