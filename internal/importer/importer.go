// Package importer turns plain-text note files into memories, optionally
// keeping a directory in sync via a filesystem watcher.
package importer

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/hyperjump/omoide/internal/embedding"
	"github.com/hyperjump/omoide/internal/models"
	"github.com/hyperjump/omoide/internal/storage"
)

// fileNamespace makes memory IDs a pure function of the file path, so
// re-importing a changed file updates its memory instead of duplicating it.
var fileNamespace = uuid.MustParse("9a7a1b3e-5c0d-4f6a-9e2b-8d4c1f0a6b5e")

// Importer converts note files into memories owned by a single user.
type Importer struct {
	store    storage.Storage
	embedder embedding.Embedder
	userID   string
	logger   *zap.Logger
}

// NewImporter creates an importer writing memories for userID.
func NewImporter(store storage.Storage, embedder embedding.Embedder, userID string, logger *zap.Logger) *Importer {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Importer{store: store, embedder: embedder, userID: userID, logger: logger}
}

// MemoryID returns the deterministic memory ID for a file path.
func MemoryID(path string) string {
	return uuid.NewSHA1(fileNamespace, []byte(filepath.Clean(path))).String()
}

// ImportFile reads a note file and creates or updates its memory. The file
// name without extension becomes the title; the body becomes the content.
func (i *Importer) ImportFile(ctx context.Context, path string) error {
	data, err := os.ReadFile(path)
	if err != nil {
		return fmt.Errorf("reading %s: %w", path, err)
	}
	content := strings.TrimSpace(string(data))
	if content == "" {
		i.logger.Debug("skipping empty file", zap.String("path", path))
		return nil
	}

	base := filepath.Base(path)
	title := strings.TrimSuffix(base, filepath.Ext(base))

	memory := &models.Memory{
		ID:       MemoryID(path),
		UserID:   i.userID,
		Title:    title,
		Content:  content,
		Type:     models.TypeNote,
		Tags:     []string{"imported"},
		Priority: models.DefaultPriority,
		Status:   models.DefaultStatus,
	}

	vec, err := i.embedder.Embed(ctx, memory.SearchText())
	if err != nil {
		return fmt.Errorf("embedding %s: %w", path, err)
	}
	memory.Embedding = vec

	if err := i.store.UpdateMemory(ctx, memory); err != nil {
		if err != storage.ErrNotFound {
			return fmt.Errorf("updating memory for %s: %w", path, err)
		}
		if err := i.store.CreateMemory(ctx, memory); err != nil {
			return fmt.Errorf("creating memory for %s: %w", path, err)
		}
	}
	i.logger.Info("imported note file", zap.String("path", path), zap.String("memory_id", memory.ID))
	return nil
}

// RemoveFile deletes the memory created from path, if any.
func (i *Importer) RemoveFile(ctx context.Context, path string) error {
	deleted, err := i.store.DeleteMemory(ctx, MemoryID(path), i.userID)
	if err != nil {
		return fmt.Errorf("removing memory for %s: %w", path, err)
	}
	if deleted {
		i.logger.Info("removed imported memory", zap.String("path", path))
	}
	return nil
}
