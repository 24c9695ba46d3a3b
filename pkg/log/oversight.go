// SPDX-License-Identifier: BSD-3-Clause

package log

import (
	"fmt"
	"log/slog"

	"cirello.io/oversight/v2"
)

// NewOversightLogger adapts a slog.Logger to oversight.Logger so the
// supervisor's internal oversight tree (the event bus, the refresh loop)
// logs through the same structured pipeline as everything else, at debug
// level under the "oversight" message.
func NewOversightLogger(l *slog.Logger) oversight.Logger {
	return func(args ...any) {
		l.Debug("oversight", "msg", fmt.Sprint(args...))
	}
}
