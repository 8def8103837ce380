package storage

import (
	"context"
	"sort"
	"sync"
	"time"

	"github.com/hyperjump/omoide/internal/models"
)

// MemoryStorage implements Storage with in-process maps. Used for demo runs
// and tests; data does not survive a restart. All methods copy rows on the
// way in and out so callers never share mutable state with the store.
type MemoryStorage struct {
	mu       sync.RWMutex
	users    map[string]models.User
	memories map[string]models.Memory
	searches map[string]models.SearchRecord
	sessions map[string]models.ChatSession
}

// NewMemoryStorage returns an empty in-memory store.
func NewMemoryStorage() *MemoryStorage {
	return &MemoryStorage{
		users:    make(map[string]models.User),
		memories: make(map[string]models.Memory),
		searches: make(map[string]models.SearchRecord),
		sessions: make(map[string]models.ChatSession),
	}
}

// GetUser returns a user by ID.
func (s *MemoryStorage) GetUser(ctx context.Context, id string) (*models.User, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	user, ok := s.users[id]
	if !ok {
		return nil, ErrNotFound
	}
	return &user, nil
}

// UpsertUser inserts or updates a user.
func (s *MemoryStorage) UpsertUser(ctx context.Context, user *models.User) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	now := time.Now()
	if existing, ok := s.users[user.ID]; ok {
		user.CreatedAt = existing.CreatedAt
	} else if user.CreatedAt.IsZero() {
		user.CreatedAt = now
	}
	user.UpdatedAt = now
	s.users[user.ID] = *user
	return nil
}

// CreateMemory stores a memory together with its embedding.
func (s *MemoryStorage) CreateMemory(ctx context.Context, memory *models.Memory) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	now := time.Now()
	memory.CreatedAt = now
	memory.UpdatedAt = now
	s.memories[memory.ID] = copyMemory(memory)
	return nil
}

// GetMemory returns a memory by ID.
func (s *MemoryStorage) GetMemory(ctx context.Context, id string) (*models.Memory, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	memory, ok := s.memories[id]
	if !ok {
		return nil, ErrNotFound
	}
	out := copyMemory(&memory)
	return &out, nil
}

// UpdateMemory rewrites a stored memory, embedding included.
func (s *MemoryStorage) UpdateMemory(ctx context.Context, memory *models.Memory) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	existing, ok := s.memories[memory.ID]
	if !ok {
		return ErrNotFound
	}
	memory.CreatedAt = existing.CreatedAt
	memory.UpdatedAt = time.Now()
	s.memories[memory.ID] = copyMemory(memory)
	return nil
}

// DeleteMemory removes a memory; when userID is non-empty the row must belong to that user.
func (s *MemoryStorage) DeleteMemory(ctx context.Context, id, userID string) (bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	memory, ok := s.memories[id]
	if !ok {
		return false, nil
	}
	if userID != "" && memory.UserID != userID {
		return false, nil
	}
	delete(s.memories, id)
	return true, nil
}

// ListMemoriesByUser returns all of a user's memories, newest first.
func (s *MemoryStorage) ListMemoriesByUser(ctx context.Context, userID string) ([]*models.Memory, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	var memories []*models.Memory
	for _, m := range s.memories {
		if m.UserID == userID {
			mc := copyMemory(&m)
			memories = append(memories, &mc)
		}
	}
	sort.Slice(memories, func(i, j int) bool {
		return memories[i].CreatedAt.After(memories[j].CreatedAt)
	})
	return memories, nil
}

// CountMemories returns the number of memories owned by userID.
func (s *MemoryStorage) CountMemories(ctx context.Context, userID string) (int64, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	var count int64
	for _, m := range s.memories {
		if m.UserID == userID {
			count++
		}
	}
	return count, nil
}

// CreateSearch records a query and its results for history.
func (s *MemoryStorage) CreateSearch(ctx context.Context, record *models.SearchRecord) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	record.CreatedAt = time.Now()
	s.searches[record.ID] = *record
	return nil
}

// RecentSearches returns the user's latest searches, newest first.
func (s *MemoryStorage) RecentSearches(ctx context.Context, userID string, limit int) ([]*models.SearchRecord, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	var records []*models.SearchRecord
	for id := range s.searches {
		if s.searches[id].UserID == userID {
			rec := s.searches[id]
			records = append(records, &rec)
		}
	}
	sort.Slice(records, func(i, j int) bool {
		return records[i].CreatedAt.After(records[j].CreatedAt)
	})
	if limit > 0 && len(records) > limit {
		records = records[:limit]
	}
	return records, nil
}

// CreateChatSession inserts a chat session.
func (s *MemoryStorage) CreateChatSession(ctx context.Context, session *models.ChatSession) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	session.CreatedAt = time.Now()
	s.sessions[session.ID] = *session
	return nil
}

// GetChatSession returns a chat session by ID.
func (s *MemoryStorage) GetChatSession(ctx context.Context, id string) (*models.ChatSession, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	session, ok := s.sessions[id]
	if !ok {
		return nil, ErrNotFound
	}
	return &session, nil
}

// UpdateChatSession replaces a session's messages.
func (s *MemoryStorage) UpdateChatSession(ctx context.Context, id string, messages []models.ChatMessage) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	session, ok := s.sessions[id]
	if !ok {
		return ErrNotFound
	}
	session.Messages = append([]models.ChatMessage(nil), messages...)
	s.sessions[id] = session
	return nil
}

// Close is a no-op for MemoryStorage.
func (s *MemoryStorage) Close() error {
	return nil
}

func copyMemory(m *models.Memory) models.Memory {
	out := *m
	out.Tags = append([]string(nil), m.Tags...)
	out.Embedding = append([]float32(nil), m.Embedding...)
	return out
}
