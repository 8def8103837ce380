package models

import (
	"fmt"
	"time"
)

// Chat message roles.
const (
	RoleUser      = "user"
	RoleAssistant = "assistant"
)

// ChatMessage is one turn of a conversation.
type ChatMessage struct {
	Role      string    `json:"role"`
	Content   string    `json:"content"`
	Timestamp time.Time `json:"timestamp,omitempty"`
}

// ChatRequest carries the full conversation; the server is stateless and
// trims the history itself.
type ChatRequest struct {
	Messages []ChatMessage `json:"messages"`
}

// Validate checks that the conversation is non-empty and ends with a user turn.
func (r *ChatRequest) Validate() error {
	if len(r.Messages) == 0 {
		return fmt.Errorf("messages array is required")
	}
	last := r.Messages[len(r.Messages)-1]
	if last.Role != RoleUser {
		return fmt.Errorf("last message must be from user")
	}
	if last.Content == "" {
		return fmt.Errorf("message content cannot be empty")
	}
	return nil
}

// ChatResponse is the assistant's reply plus the memories that justified it.
// Success is false when the reply came from a local fallback.
type ChatResponse struct {
	Message          string    `json:"message"`
	RelevantMemories []*Memory `json:"relevant_memories"`
	Success          bool      `json:"success"`
	Note             string    `json:"note,omitempty"`
}

// ChatSession is a persisted conversation. Sessions are a surrounding
// concern; the response pipeline itself never reads them.
type ChatSession struct {
	ID        string        `json:"id"`
	UserID    string        `json:"user_id"`
	Messages  []ChatMessage `json:"messages"`
	CreatedAt time.Time     `json:"created_at"`
}
