// Package strings holds text helpers shared by the table renderers.
package strings

import (
	"strings"
)

// CellMaxLen is the widest a listing table cell may get.
const CellMaxLen = 100

// ProblemMaxLen is the widest a problem may get in the summary table.
const ProblemMaxLen = 60

// minLen leaves room for one character plus "...".
const minLen = 4

// OneLine collapses every run of whitespace in s, newlines included, into
// a single space and cuts the result to at most maxLen runes, ending it
// with "..." if anything was cut. maxLen values below 4 are treated as 4.
func OneLine(s string, maxLen int) string {
	if maxLen < minLen {
		maxLen = minLen
	}
	s = strings.Join(strings.Fields(s), " ")

	runes := []rune(s)
	if len(runes) > maxLen {
		return string(runes[:maxLen-3]) + "..."
	}
	return s
}
