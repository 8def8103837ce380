// Package models defines core data structures for memories, queries, chat, and stats.
package models

import (
	"fmt"
	"time"
)

// Memory types.
const (
	TypeIdea     = "idea"
	TypeNote     = "note"
	TypeLearning = "learning"
	TypeTask     = "task"
)

// Priority and status defaults applied when a memory is created without them.
const (
	DefaultPriority = "medium"
	DefaultStatus   = "active"
)

// Memory is a short note owned by exactly one user. The embedding is derived
// from title + content and must be regenerated whenever either changes.
type Memory struct {
	ID        string    `json:"id" db:"id"`
	UserID    string    `json:"user_id" db:"user_id"`
	Title     string    `json:"title" db:"title"`
	Content   string    `json:"content" db:"content"`
	Type      string    `json:"type" db:"type"`
	Tags      []string  `json:"tags" db:"tags"`
	Embedding []float32 `json:"-" db:"-"`
	Priority  string    `json:"priority" db:"priority"`
	Status    string    `json:"status" db:"status"`
	CreatedAt time.Time `json:"created_at" db:"created_at"`
	UpdatedAt time.Time `json:"updated_at" db:"updated_at"`
}

// SearchText returns the concatenation of title, content, and tags used for
// keyword matching.
func (m *Memory) SearchText() string {
	text := m.Title + " " + m.Content
	for _, tag := range m.Tags {
		text += " " + tag
	}
	return text
}

// MemoryInput is the input for creating a memory.
type MemoryInput struct {
	Title    string   `json:"title"`
	Content  string   `json:"content"`
	Type     string   `json:"type"`
	Tags     []string `json:"tags,omitempty"`
	Priority string   `json:"priority,omitempty"`
	Status   string   `json:"status,omitempty"`
}

// Validate ensures required fields are present, checks the type, and fills
// priority/status defaults.
func (in *MemoryInput) Validate() error {
	if in.Title == "" {
		return fmt.Errorf("title is required")
	}
	if in.Content == "" {
		return fmt.Errorf("content is required")
	}
	switch in.Type {
	case TypeIdea, TypeNote, TypeLearning, TypeTask:
	case "":
		return fmt.Errorf("type is required")
	default:
		return fmt.Errorf("invalid type %q", in.Type)
	}
	if in.Priority == "" {
		in.Priority = DefaultPriority
	}
	if in.Status == "" {
		in.Status = DefaultStatus
	}
	return nil
}

// MemoryPatch is a partial update; nil fields are left unchanged.
type MemoryPatch struct {
	Title    *string   `json:"title,omitempty"`
	Content  *string   `json:"content,omitempty"`
	Type     *string   `json:"type,omitempty"`
	Tags     *[]string `json:"tags,omitempty"`
	Priority *string   `json:"priority,omitempty"`
	Status   *string   `json:"status,omitempty"`
}

// User is an account row. The app runs with a single shared user.
type User struct {
	ID        string    `json:"id"`
	Email     string    `json:"email,omitempty"`
	FirstName string    `json:"first_name,omitempty"`
	LastName  string    `json:"last_name,omitempty"`
	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

// SearchRecord keeps a past query and its results for history display.
// Ranking never consults these records.
type SearchRecord struct {
	ID        string    `json:"id"`
	UserID    string    `json:"user_id"`
	Query     string    `json:"query"`
	Results   []*Memory `json:"results"`
	CreatedAt time.Time `json:"created_at"`
}

// Stats summarizes a user's memory corpus by type.
type Stats struct {
	Total     int `json:"total"`
	Ideas     int `json:"ideas"`
	Notes     int `json:"notes"`
	Learnings int `json:"learnings"`
	Tasks     int `json:"tasks"`
}
