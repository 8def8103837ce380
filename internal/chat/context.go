// Package chat assembles memory context and generates conversational replies.
package chat

import (
	"fmt"
	"strings"

	"github.com/hyperjump/omoide/internal/models"
	"github.com/hyperjump/omoide/pkg/utils"
)

const blockSeparator = "\n\n---\n\n"

// BuildContext renders ranked memories into the text block embedded in the
// completion system prompt. Content is truncated to snippetChars so a handful
// of long notes cannot crowd out the rest. Returns "" when nothing matched.
func BuildContext(scored []*models.ScoredMemory, snippetChars int) string {
	if len(scored) == 0 {
		return ""
	}
	blocks := make([]string, 0, len(scored))
	for _, s := range scored {
		blocks = append(blocks, fmt.Sprintf("Memory: %s\nType: %s\nContent: %s",
			s.Title, s.Type, utils.Truncate(s.Content, snippetChars)))
	}
	return strings.Join(blocks, blockSeparator)
}
