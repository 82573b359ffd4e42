package utils

import "strings"

// Truncate shortens s to at most maxLen runes, appending "..." when it cuts.
func Truncate(s string, maxLen int) string {
	r := []rune(s)
	if len(r) <= maxLen {
		return s
	}
	return string(r[:maxLen]) + "..."
}

// Preview flattens s onto one line and truncates it for terminal output.
func Preview(s string, maxLen int) string {
	return Truncate(strings.Join(strings.Fields(s), " "), maxLen)
}
