package chat

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"go.uber.org/zap"

	"github.com/hyperjump/omoide/internal/config"
	"github.com/hyperjump/omoide/internal/models"
)

// ErrQuotaExhausted signals the completion service rejected the call for
// billing or rate-limit reasons. Callers degrade to an apology rather than
// retrying.
var ErrQuotaExhausted = errors.New("completion quota exhausted")

// CompletionClient is the outbound dependency for reply generation. A nil
// client puts the Responder in demo mode.
type CompletionClient interface {
	Complete(ctx context.Context, system string, turns []models.ChatMessage, maxTokens int, temperature float64) (string, error)
}

// Reply is a generated chat answer. Usable reports whether the text came from
// a working pipeline; degraded replies carry an explanatory Note.
type Reply struct {
	Text   string
	Usable bool
	Note   string
}

// Responder turns a conversation plus memory context into a reply, degrading
// gracefully when the completion service is absent or failing.
type Responder struct {
	client CompletionClient
	cfg    *config.ChatConfig
	logger *zap.Logger
}

// NewResponder creates a responder. client may be nil for demo mode.
func NewResponder(client CompletionClient, cfg *config.ChatConfig, logger *zap.Logger) *Responder {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Responder{client: client, cfg: cfg, logger: logger}
}

// Enabled reports whether a completion client is configured.
func (r *Responder) Enabled() bool {
	return r.client != nil
}

// Generate produces a reply to the conversation. messages must end with a
// user turn; memoryContext is the rendered block from BuildContext and may be
// empty. Generate never returns an error: every failure path yields a
// human-readable reply with Usable=false.
func (r *Responder) Generate(ctx context.Context, messages []models.ChatMessage, memoryContext string) Reply {
	userMessage := messages[len(messages)-1].Content

	if r.client == nil {
		return r.demoReply(userMessage, memoryContext)
	}

	system := r.systemPrompt(memoryContext)
	turns := lastTurns(messages, r.cfg.HistoryWindow)

	text, err := r.client.Complete(ctx, system, turns, r.cfg.MaxTokens, r.cfg.Temperature)
	if err != nil {
		if errors.Is(err, ErrQuotaExhausted) {
			r.logger.Warn("completion quota exhausted")
			return Reply{
				Text:   "I'm sorry, but my response capacity is exhausted right now. Your memories are safe and searchable; please try chatting again later.",
				Usable: false,
				Note:   "quota exhausted",
			}
		}
		r.logger.Error("completion failed", zap.Error(err))
		return r.fallbackReply(userMessage, memoryContext, err)
	}

	return Reply{Text: cleanResponse(text), Usable: true}
}

// systemPrompt builds the instruction block, embedding memory context when
// there is any.
func (r *Responder) systemPrompt(memoryContext string) string {
	var b strings.Builder
	b.WriteString("You are a thoughtful assistant inside a personal knowledge base. ")
	b.WriteString("Answer in a warm, concise voice and ground your replies in the user's own memories when they are relevant.")
	if memoryContext != "" {
		b.WriteString("\n\nRelevant memories from the user's knowledge base:\n\n")
		b.WriteString(memoryContext)
		b.WriteString("\n\nWhen a memory informs your answer, mention it naturally by title. Never invent memories that are not listed above.")
	} else {
		b.WriteString("\n\nNo stored memories matched this conversation. Answer from general knowledge and, when it fits, suggest the user capture new memories about the topic.")
	}
	return b.String()
}

// demoReply answers without any completion service. The responses are canned
// but context-aware so the rest of the pipeline stays demonstrable.
func (r *Responder) demoReply(userMessage, memoryContext string) Reply {
	const note = "demo mode: no completion service configured"
	lower := strings.ToLower(strings.TrimSpace(userMessage))

	switch {
	case lower == "hello" || lower == "hi" || strings.HasPrefix(lower, "hello ") || strings.HasPrefix(lower, "hi "):
		return Reply{
			Text:   "Hello! I'm your memory assistant. Ask me about anything you've saved and I'll dig through your notes.",
			Usable: true,
			Note:   note,
		}
	case strings.Contains(lower, "help"):
		return Reply{
			Text:   "You can ask me things like \"what did I learn about productivity?\" or \"what are my trip plans?\". I search your memories and answer from what I find.",
			Usable: true,
			Note:   note,
		}
	case memoryContext != "":
		return Reply{
			Text: fmt.Sprintf("I found some memories that look related:\n\n%s\n\nI'm running in demo mode, so this is a direct excerpt rather than a composed answer.",
				memoryContext),
			Usable: true,
			Note:   note,
		}
	default:
		return Reply{
			Text:   "I couldn't find any saved memories about that yet. Add some notes, ideas, or learnings and ask me again!",
			Usable: true,
			Note:   note,
		}
	}
}

// fallbackReply is used when the completion call fails for a non-quota
// reason. It surfaces whatever context was assembled so the user still gets
// something out of the turn.
func (r *Responder) fallbackReply(userMessage, memoryContext string, err error) Reply {
	note := fmt.Sprintf("completion failed: %v", err)
	if memoryContext != "" {
		return Reply{
			Text: fmt.Sprintf("I couldn't reach the response service, but here is what your memories say about %q:\n\n%s",
				userMessage, memoryContext),
			Usable: false,
			Note:   note,
		}
	}
	return Reply{
		Text:   fmt.Sprintf("I couldn't reach the response service and found no saved memories about %q. Please try again in a moment.", userMessage),
		Usable: false,
		Note:   note,
	}
}

// lastTurns returns the trailing window of the conversation. The completion
// API rejects conversations that open with an assistant turn, so the window
// is advanced past any leading assistant messages left by the trim.
func lastTurns(messages []models.ChatMessage, window int) []models.ChatMessage {
	if window > 0 && len(messages) > window {
		messages = messages[len(messages)-window:]
	}
	for len(messages) > 0 && messages[0].Role != models.RoleUser {
		messages = messages[1:]
	}
	return messages
}
