package chat

import (
	"regexp"
	"strings"
)

var (
	boldRe     = regexp.MustCompile(`\*\*([^*]+)\*\*`)
	italicRe   = regexp.MustCompile(`\*([^*]+)\*`)
	headerRe   = regexp.MustCompile(`(?m)^#{1,6}\s+`)
	bulletRe   = regexp.MustCompile(`\n\s*-\s`)
	blankRunRe = regexp.MustCompile(`\n{3,}`)
)

// cleanResponse strips markdown decoration from completion output so the UI
// can render it as plain text. Bullets become the dot character rather than
// disappearing.
func cleanResponse(text string) string {
	text = boldRe.ReplaceAllString(text, "$1")
	text = italicRe.ReplaceAllString(text, "$1")
	text = headerRe.ReplaceAllString(text, "")
	text = bulletRe.ReplaceAllString(text, "\n• ")
	text = blankRunRe.ReplaceAllString(text, "\n\n")
	return strings.TrimSpace(text)
}
