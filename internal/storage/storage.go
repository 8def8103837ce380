// Package storage defines persistence for users, memories, searches, and chat sessions.
package storage

import (
	"context"
	"errors"

	"github.com/hyperjump/omoide/internal/models"
)

// ErrNotFound is returned when a requested row does not exist.
var ErrNotFound = errors.New("not found")

// Storage defines the persistence operations. Two interchangeable backends
// exist (SQLite and in-memory); callers depend only on this interface.
// Create and update persist a memory's content and embedding together.
type Storage interface {
	// User operations
	GetUser(ctx context.Context, id string) (*models.User, error)
	UpsertUser(ctx context.Context, user *models.User) error

	// Memory operations
	CreateMemory(ctx context.Context, memory *models.Memory) error
	GetMemory(ctx context.Context, id string) (*models.Memory, error)
	UpdateMemory(ctx context.Context, memory *models.Memory) error
	DeleteMemory(ctx context.Context, id, userID string) (bool, error)
	ListMemoriesByUser(ctx context.Context, userID string) ([]*models.Memory, error)
	CountMemories(ctx context.Context, userID string) (int64, error)

	// Search history
	CreateSearch(ctx context.Context, record *models.SearchRecord) error
	RecentSearches(ctx context.Context, userID string, limit int) ([]*models.SearchRecord, error)

	// Chat sessions
	CreateChatSession(ctx context.Context, session *models.ChatSession) error
	GetChatSession(ctx context.Context, id string) (*models.ChatSession, error)
	UpdateChatSession(ctx context.Context, id string, messages []models.ChatMessage) error

	Close() error
}
