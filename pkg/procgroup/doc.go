// SPDX-License-Identifier: BSD-3-Clause

// Package procgroup allocates the OS process-group/job-object primitive
// at startup and tracks which children are currently attached to it, so
// callers can read the attached count without reaching into
// platform.Group itself.
package procgroup
