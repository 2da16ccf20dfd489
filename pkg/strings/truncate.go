package strings

import (
	"strings"
)

// Ellipsis marks a truncated value.
const Ellipsis = "..."

// MinTruncateLen is the smallest useful maxLen: one character plus Ellipsis.
const MinTruncateLen = len(Ellipsis) + 1

// Truncate folds s onto a single line and caps it at maxLen runes,
// including the trailing Ellipsis when it had to cut. Runs of whitespace,
// newlines included, collapse to one space. A maxLen below MinTruncateLen
// is raised to it.
//
// Provider error bodies and ID token claim values go through here before
// they reach the terminal.
func Truncate(s string, maxLen int) string {
	if maxLen < MinTruncateLen {
		maxLen = MinTruncateLen
	}

	s = strings.Join(strings.Fields(s), " ")

	runes := []rune(s)
	if len(runes) <= maxLen {
		return s
	}
	return string(runes[:maxLen-len(Ellipsis)]) + Ellipsis
}
