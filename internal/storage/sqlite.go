package storage

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"time"

	_ "github.com/mattn/go-sqlite3"

	"github.com/hyperjump/omoide/internal/models"
)

// SQLiteStorage implements Storage using SQLite. Tags, embeddings, messages,
// and search results are stored as JSON text columns; a memory row and its
// embedding are always written in the same statement.
type SQLiteStorage struct {
	db *sql.DB
}

// NewSQLiteStorage opens or creates a SQLite database at dbPath and initializes the schema.
// Parent directories are created if they do not exist.
func NewSQLiteStorage(dbPath string) (*SQLiteStorage, error) {
	if dir := filepath.Dir(dbPath); dir != "." {
		if err := os.MkdirAll(dir, 0755); err != nil {
			return nil, fmt.Errorf("failed to create database directory: %w", err)
		}
	}
	db, err := sql.Open("sqlite3", dbPath)
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}

	if _, err := db.Exec("PRAGMA journal_mode=WAL"); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("failed to enable WAL: %w", err)
	}

	if err := initSchema(db); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("failed to initialize schema: %w", err)
	}

	return &SQLiteStorage{db: db}, nil
}

func initSchema(db *sql.DB) error {
	schema := `
	CREATE TABLE IF NOT EXISTS users (
		id TEXT PRIMARY KEY,
		email TEXT,
		first_name TEXT,
		last_name TEXT,
		created_at TIMESTAMP DEFAULT CURRENT_TIMESTAMP,
		updated_at TIMESTAMP DEFAULT CURRENT_TIMESTAMP
	);

	CREATE TABLE IF NOT EXISTS memories (
		id TEXT PRIMARY KEY,
		user_id TEXT NOT NULL,
		title TEXT NOT NULL,
		content TEXT NOT NULL,
		type TEXT NOT NULL,
		tags TEXT,
		embedding TEXT,
		priority TEXT,
		status TEXT,
		created_at TIMESTAMP DEFAULT CURRENT_TIMESTAMP,
		updated_at TIMESTAMP DEFAULT CURRENT_TIMESTAMP,
		FOREIGN KEY (user_id) REFERENCES users(id)
	);

	CREATE INDEX IF NOT EXISTS idx_memories_user_id ON memories(user_id);
	CREATE INDEX IF NOT EXISTS idx_memories_user_created ON memories(user_id, created_at);

	CREATE TABLE IF NOT EXISTS searches (
		id TEXT PRIMARY KEY,
		user_id TEXT NOT NULL,
		query TEXT NOT NULL,
		results TEXT,
		created_at TIMESTAMP DEFAULT CURRENT_TIMESTAMP
	);

	CREATE INDEX IF NOT EXISTS idx_searches_user_created ON searches(user_id, created_at);

	CREATE TABLE IF NOT EXISTS chat_sessions (
		id TEXT PRIMARY KEY,
		user_id TEXT NOT NULL,
		messages TEXT,
		created_at TIMESTAMP DEFAULT CURRENT_TIMESTAMP
	);
	`
	_, err := db.Exec(schema)
	return err
}

// GetUser returns a user by ID.
func (s *SQLiteStorage) GetUser(ctx context.Context, id string) (*models.User, error) {
	var user models.User
	err := s.db.QueryRowContext(ctx,
		`SELECT id, email, first_name, last_name, created_at, updated_at
		 FROM users WHERE id = ?`, id,
	).Scan(&user.ID, &user.Email, &user.FirstName, &user.LastName, &user.CreatedAt, &user.UpdatedAt)
	if err == sql.ErrNoRows {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, err
	}
	return &user, nil
}

// UpsertUser inserts or updates a user row.
func (s *SQLiteStorage) UpsertUser(ctx context.Context, user *models.User) error {
	now := time.Now()
	if user.CreatedAt.IsZero() {
		user.CreatedAt = now
	}
	user.UpdatedAt = now
	_, err := s.db.ExecContext(ctx,
		`INSERT INTO users (id, email, first_name, last_name, created_at, updated_at)
		 VALUES (?, ?, ?, ?, ?, ?)
		 ON CONFLICT(id) DO UPDATE SET
		   email = excluded.email,
		   first_name = excluded.first_name,
		   last_name = excluded.last_name,
		   updated_at = excluded.updated_at`,
		user.ID, user.Email, user.FirstName, user.LastName, user.CreatedAt, user.UpdatedAt,
	)
	return err
}

// CreateMemory inserts a memory together with its embedding.
func (s *SQLiteStorage) CreateMemory(ctx context.Context, memory *models.Memory) error {
	tagsJSON, err := json.Marshal(memory.Tags)
	if err != nil {
		return fmt.Errorf("failed to marshal tags: %w", err)
	}
	embeddingJSON, err := json.Marshal(memory.Embedding)
	if err != nil {
		return fmt.Errorf("failed to marshal embedding: %w", err)
	}

	now := time.Now()
	memory.CreatedAt = now
	memory.UpdatedAt = now

	_, err = s.db.ExecContext(ctx,
		`INSERT INTO memories (id, user_id, title, content, type, tags, embedding, priority, status, created_at, updated_at)
		 VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		memory.ID, memory.UserID, memory.Title, memory.Content, memory.Type,
		string(tagsJSON), string(embeddingJSON), memory.Priority, memory.Status,
		memory.CreatedAt, memory.UpdatedAt,
	)
	return err
}

// GetMemory returns a memory by ID.
func (s *SQLiteStorage) GetMemory(ctx context.Context, id string) (*models.Memory, error) {
	row := s.db.QueryRowContext(ctx,
		`SELECT id, user_id, title, content, type, tags, embedding, priority, status, created_at, updated_at
		 FROM memories WHERE id = ?`, id)
	memory, err := scanMemory(row)
	if err == sql.ErrNoRows {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, err
	}
	return memory, nil
}

// UpdateMemory rewrites a memory row, embedding included.
func (s *SQLiteStorage) UpdateMemory(ctx context.Context, memory *models.Memory) error {
	tagsJSON, err := json.Marshal(memory.Tags)
	if err != nil {
		return fmt.Errorf("failed to marshal tags: %w", err)
	}
	embeddingJSON, err := json.Marshal(memory.Embedding)
	if err != nil {
		return fmt.Errorf("failed to marshal embedding: %w", err)
	}

	memory.UpdatedAt = time.Now()

	result, err := s.db.ExecContext(ctx,
		`UPDATE memories SET title = ?, content = ?, type = ?, tags = ?, embedding = ?,
		   priority = ?, status = ?, updated_at = ?
		 WHERE id = ?`,
		memory.Title, memory.Content, memory.Type, string(tagsJSON), string(embeddingJSON),
		memory.Priority, memory.Status, memory.UpdatedAt, memory.ID,
	)
	if err != nil {
		return err
	}
	n, _ := result.RowsAffected()
	if n == 0 {
		return ErrNotFound
	}
	return nil
}

// DeleteMemory removes a memory. When userID is non-empty the row must belong
// to that user; returns whether a row was deleted.
func (s *SQLiteStorage) DeleteMemory(ctx context.Context, id, userID string) (bool, error) {
	var (
		result sql.Result
		err    error
	)
	if userID != "" {
		result, err = s.db.ExecContext(ctx,
			`DELETE FROM memories WHERE id = ? AND user_id = ?`, id, userID)
	} else {
		result, err = s.db.ExecContext(ctx, `DELETE FROM memories WHERE id = ?`, id)
	}
	if err != nil {
		return false, err
	}
	n, _ := result.RowsAffected()
	return n > 0, nil
}

// ListMemoriesByUser returns all of a user's memories, newest first.
// Ranking re-sorts; the listing order is what memory browsing shows.
func (s *SQLiteStorage) ListMemoriesByUser(ctx context.Context, userID string) ([]*models.Memory, error) {
	rows, err := s.db.QueryContext(ctx,
		`SELECT id, user_id, title, content, type, tags, embedding, priority, status, created_at, updated_at
		 FROM memories WHERE user_id = ? ORDER BY created_at DESC`, userID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var memories []*models.Memory
	for rows.Next() {
		memory, err := scanMemory(rows)
		if err != nil {
			return nil, err
		}
		memories = append(memories, memory)
	}
	return memories, rows.Err()
}

// CountMemories returns the number of memories owned by userID.
func (s *SQLiteStorage) CountMemories(ctx context.Context, userID string) (int64, error) {
	var count int64
	err := s.db.QueryRowContext(ctx,
		`SELECT COUNT(*) FROM memories WHERE user_id = ?`, userID).Scan(&count)
	return count, err
}

// CreateSearch records a query and its results for history.
func (s *SQLiteStorage) CreateSearch(ctx context.Context, record *models.SearchRecord) error {
	resultsJSON, err := json.Marshal(record.Results)
	if err != nil {
		return fmt.Errorf("failed to marshal results: %w", err)
	}
	record.CreatedAt = time.Now()
	_, err = s.db.ExecContext(ctx,
		`INSERT INTO searches (id, user_id, query, results, created_at) VALUES (?, ?, ?, ?, ?)`,
		record.ID, record.UserID, record.Query, string(resultsJSON), record.CreatedAt,
	)
	return err
}

// RecentSearches returns the user's latest searches, newest first.
func (s *SQLiteStorage) RecentSearches(ctx context.Context, userID string, limit int) ([]*models.SearchRecord, error) {
	rows, err := s.db.QueryContext(ctx,
		`SELECT id, user_id, query, results, created_at
		 FROM searches WHERE user_id = ? ORDER BY created_at DESC LIMIT ?`, userID, limit)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var records []*models.SearchRecord
	for rows.Next() {
		var rec models.SearchRecord
		var resultsJSON string
		if err := rows.Scan(&rec.ID, &rec.UserID, &rec.Query, &resultsJSON, &rec.CreatedAt); err != nil {
			return nil, err
		}
		if resultsJSON != "" {
			if err := json.Unmarshal([]byte(resultsJSON), &rec.Results); err != nil {
				return nil, fmt.Errorf("failed to unmarshal results: %w", err)
			}
		}
		records = append(records, &rec)
	}
	return records, rows.Err()
}

// CreateChatSession inserts a chat session.
func (s *SQLiteStorage) CreateChatSession(ctx context.Context, session *models.ChatSession) error {
	messagesJSON, err := json.Marshal(session.Messages)
	if err != nil {
		return fmt.Errorf("failed to marshal messages: %w", err)
	}
	session.CreatedAt = time.Now()
	_, err = s.db.ExecContext(ctx,
		`INSERT INTO chat_sessions (id, user_id, messages, created_at) VALUES (?, ?, ?, ?)`,
		session.ID, session.UserID, string(messagesJSON), session.CreatedAt,
	)
	return err
}

// GetChatSession returns a chat session by ID.
func (s *SQLiteStorage) GetChatSession(ctx context.Context, id string) (*models.ChatSession, error) {
	var session models.ChatSession
	var messagesJSON string
	err := s.db.QueryRowContext(ctx,
		`SELECT id, user_id, messages, created_at FROM chat_sessions WHERE id = ?`, id,
	).Scan(&session.ID, &session.UserID, &messagesJSON, &session.CreatedAt)
	if err == sql.ErrNoRows {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, err
	}
	if messagesJSON != "" {
		if err := json.Unmarshal([]byte(messagesJSON), &session.Messages); err != nil {
			return nil, fmt.Errorf("failed to unmarshal messages: %w", err)
		}
	}
	return &session, nil
}

// UpdateChatSession replaces a session's messages.
func (s *SQLiteStorage) UpdateChatSession(ctx context.Context, id string, messages []models.ChatMessage) error {
	messagesJSON, err := json.Marshal(messages)
	if err != nil {
		return fmt.Errorf("failed to marshal messages: %w", err)
	}
	result, err := s.db.ExecContext(ctx,
		`UPDATE chat_sessions SET messages = ? WHERE id = ?`, string(messagesJSON), id)
	if err != nil {
		return err
	}
	n, _ := result.RowsAffected()
	if n == 0 {
		return ErrNotFound
	}
	return nil
}

// Close closes the database.
func (s *SQLiteStorage) Close() error {
	return s.db.Close()
}

type rowScanner interface {
	Scan(dest ...interface{}) error
}

func scanMemory(row rowScanner) (*models.Memory, error) {
	var memory models.Memory
	var tagsJSON, embeddingJSON string
	err := row.Scan(&memory.ID, &memory.UserID, &memory.Title, &memory.Content, &memory.Type,
		&tagsJSON, &embeddingJSON, &memory.Priority, &memory.Status,
		&memory.CreatedAt, &memory.UpdatedAt)
	if err != nil {
		return nil, err
	}
	if tagsJSON != "" {
		if err := json.Unmarshal([]byte(tagsJSON), &memory.Tags); err != nil {
			return nil, fmt.Errorf("failed to unmarshal tags: %w", err)
		}
	}
	if embeddingJSON != "" {
		if err := json.Unmarshal([]byte(embeddingJSON), &memory.Embedding); err != nil {
			return nil, fmt.Errorf("failed to unmarshal embedding: %w", err)
		}
	}
	return &memory, nil
}
