// Package utils provides shared helpers for text, vector math and logging.
package utils

import "unicode/utf8"

// Truncate returns s cut to maxLen runes with "..." appended when it was cut.
// A maxLen of 0 or less returns s unchanged.
func Truncate(s string, maxLen int) string {
	if maxLen <= 0 || utf8.RuneCountInString(s) <= maxLen {
		return s
	}
	runes := []rune(s)
	return string(runes[:maxLen]) + "..."
}
