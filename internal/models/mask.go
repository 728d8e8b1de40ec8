package models

import "strings"

// MaskNumeric drops every character that would break the numeric input pattern.
//
// Kept: digits, the first '.', and a '-' at position 0 when allowNegative is set.
// The result is what the input shows after the keystroke; applying it twice changes nothing.
func MaskNumeric(value string, allowNegative bool) string {
	var b strings.Builder
	b.Grow(len(value))

	seenDot := false
	for _, r := range value {
		switch {
		case r >= '0' && r <= '9':
			b.WriteRune(r)
		case r == '.' && !seenDot:
			seenDot = true
			b.WriteRune(r)
		case r == '-' && allowNegative && b.Len() == 0:
			b.WriteRune(r)
		}
	}
	return b.String()
}
