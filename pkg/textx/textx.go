// Package textx provides small text utilities used across the project.
package textx

import (
	"strings"
)

// Ellipsis separates the kept head and tail of a middle-truncated string.
const Ellipsis = "\n...\n"

// SanitizeText removes control characters except tab/newline/CR and trims spaces.
func SanitizeText(s string) string {
	// strip control chars outside tab/newline/carriage return
	var b strings.Builder
	for _, r := range s {
		if r == '\n' || r == '\r' || r == '\t' || (r >= 32 && r != 127) {
			b.WriteRune(r)
		}
	}
	return strings.TrimSpace(b.String())
}

// TruncateMiddle bounds s to maxChars bytes by keeping the opening and closing
// halves and dropping the middle, so both the framing at the start and the
// trailing context survive. Strings within budget are returned unmodified.
// Truncated output always has len == maxChars + len(Ellipsis).
func TruncateMiddle(s string, maxChars int) string {
	if maxChars <= 0 || len(s) <= maxChars {
		return s
	}
	head := maxChars / 2
	tail := maxChars - head
	return s[:head] + Ellipsis + s[len(s)-tail:]
}
