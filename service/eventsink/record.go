// SPDX-License-Identifier: BSD-3-Clause

package eventsink

import "time"

// Kind distinguishes the four record variants this package defines.
type Kind string

const (
	KindLogLine         Kind = "log_line"
	KindStateChanged    Kind = "state_changed"
	KindInstallProgress Kind = "install_progress"
	KindNotice          Kind = "notice"
)

// Level is a log/notice severity.
type Level string

const (
	LevelDebug   Level = "debug"
	LevelInfo    Level = "info"
	LevelWarning Level = "warning"
	LevelError   Level = "error"
)

// LauncherServiceID is used as Record.ServiceID for records not scoped to
// any one supervised service.
const LauncherServiceID = "launcher"

// Record is a single typed event the Sink carries. Only the fields
// relevant to Kind are populated; the rest are zero.
type Record struct {
	Kind          Kind
	ServiceID     string
	CorrelationID string
	Timestamp     time.Time

	// LogLine
	Text  string
	Level Level

	// StateChanged
	Old    string
	New    string
	Reason string

	// InstallProgress
	ExitCode    *int
	LinesElided int

	// Notice
	Severity Level
}

// LogLine builds a log_line Record.
func LogLine(serviceID, text string, level Level) Record {
	return Record{Kind: KindLogLine, ServiceID: serviceID, Text: text, Level: level, Timestamp: time.Now()}
}

// StateChanged builds a state_changed Record. reason may be empty.
func StateChanged(serviceID, oldState, newState, reason string) Record {
	return Record{Kind: KindStateChanged, ServiceID: serviceID, Old: oldState, New: newState, Reason: reason, Timestamp: time.Now()}
}

// InstallProgressLine builds an install_progress Record carrying a single
// streamed output line (exitCode nil, linesElided 0 - the running case).
func InstallProgressLine(serviceID, text string) Record {
	return Record{Kind: KindInstallProgress, ServiceID: serviceID, Text: text, Timestamp: time.Now()}
}

// InstallProgressDone builds the terminal install_progress Record for a
// completed (or cancelled) install run.
func InstallProgressDone(serviceID string, exitCode int) Record {
	ec := exitCode
	return Record{Kind: KindInstallProgress, ServiceID: serviceID, ExitCode: &ec, Timestamp: time.Now()}
}

// InstallProgressElided builds an install_progress Record reporting that
// n lines were dropped for backpressure.
func InstallProgressElided(serviceID string, n int) Record {
	return Record{Kind: KindInstallProgress, ServiceID: serviceID, LinesElided: n, Timestamp: time.Now()}
}

// Notice builds a notice Record.
func Notice(text string, severity Level) Record {
	return Record{Kind: KindNotice, ServiceID: LauncherServiceID, Text: text, Severity: severity, Timestamp: time.Now()}
}
