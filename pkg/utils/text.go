package utils

// Truncate returns s truncated to maxLen characters, with "..." appended if
// truncated. The cut is made on rune boundaries so multi-byte text is never
// split mid-sequence. If maxLen is 0 or negative, returns s unchanged.
func Truncate(s string, maxLen int) string {
	if maxLen <= 0 || len(s) <= maxLen {
		return s
	}
	runes := []rune(s)
	if len(runes) <= maxLen {
		return s
	}
	return string(runes[:maxLen]) + "..."
}
