// SPDX-License-Identifier: BSD-3-Clause

package bus

import "github.com/GenorTG/assistant-launcher/service/eventsink"

// Subject constants for the event bus, one per eventsink.Kind plus the
// wildcard a UI subscribes to for everything. Laid out the same
// subject-per-kind way pkg/ipc's constants.go groups its subjects.
const (
	SubjectLog     = "events.log"
	SubjectState   = "events.state"
	SubjectInstall = "events.install"
	SubjectNotice  = "events.notice"

	// SubjectAll is the wildcard subscription a thin UI uses to receive
	// every record kind without knowing the individual subjects.
	SubjectAll = "events.>"
)

func subjectFor(k eventsink.Kind) string {
	switch k {
	case eventsink.KindLogLine:
		return SubjectLog
	case eventsink.KindStateChanged:
		return SubjectState
	case eventsink.KindInstallProgress:
		return SubjectInstall
	case eventsink.KindNotice:
		return SubjectNotice
	default:
		return SubjectNotice
	}
}
