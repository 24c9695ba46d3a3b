// SPDX-License-Identifier: BSD-3-Clause

package installer

import "regexp"

// ansiEscape matches CSI terminal escape sequences (cursor movement, color
// codes, ...) that install tooling like pip/npm emit liberally when it
// detects a TTY. No example repo in the pack carries a dedicated
// strip-ansi dependency, so this is a small stdlib regex rather than an
// imported one (documented in DESIGN.md).
var ansiEscape = regexp.MustCompile("\x1b\\[[0-9;]*[a-zA-Z]")

func stripANSI(line string) string {
	return ansiEscape.ReplaceAllString(line, "")
}

func matchesAny(patterns []*regexp.Regexp, line string) bool {
	for _, re := range patterns {
		if re.MatchString(line) {
			return true
		}
	}
	return false
}
