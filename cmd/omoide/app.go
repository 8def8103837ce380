package main

import (
	"context"
	"fmt"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/hyperjump/omoide/internal/chat"
	"github.com/hyperjump/omoide/internal/config"
	"github.com/hyperjump/omoide/internal/models"
	"github.com/hyperjump/omoide/internal/server"
	"github.com/hyperjump/omoide/pkg/utils"
)

// app bundles the components for direct-storage commands, which run the
// pipeline in process instead of going through a running server.
type app struct {
	cfg        *config.Config
	components *Components
	logger     *zap.Logger
}

func directApp(configPath string) (*app, error) {
	cfg, _, err := loadConfig(configPath)
	if err != nil {
		return nil, fmt.Errorf("failed to load config: %w", err)
	}
	logger, err := utils.NewLogger(cfg.Debug)
	if err != nil {
		return nil, err
	}
	components, err := initializeComponents(cfg, logger)
	if err != nil {
		return nil, err
	}
	return &app{cfg: cfg, components: components, logger: logger}, nil
}

func (a *app) Close() {
	a.components.Close()
	_ = a.logger.Sync()
}

func (a *app) CreateMemory(ctx context.Context, input *models.MemoryInput) (*models.Memory, error) {
	memory := &models.Memory{
		ID:       uuid.New().String(),
		UserID:   server.SharedUserID,
		Title:    input.Title,
		Content:  input.Content,
		Type:     input.Type,
		Tags:     input.Tags,
		Priority: input.Priority,
		Status:   input.Status,
	}
	vec, err := a.components.Embedder.Embed(ctx, memory.SearchText())
	if err != nil {
		return nil, err
	}
	memory.Embedding = vec
	if err := a.components.Storage.CreateMemory(ctx, memory); err != nil {
		return nil, err
	}
	return memory, nil
}

func (a *app) Search(ctx context.Context, query *models.SearchQuery) ([]*models.Memory, error) {
	if err := query.Validate(); err != nil {
		return nil, err
	}
	qvec, err := a.components.Embedder.Embed(ctx, query.Query)
	if err != nil {
		return nil, err
	}
	rankLimit := query.Limit
	if query.Type != "" && query.Type != "all" {
		rankLimit = a.cfg.Ranking.MaxLimit
	}
	scored, err := a.components.Ranker.Rank(ctx, server.SharedUserID, qvec, query.Query, rankLimit)
	if err != nil {
		return nil, err
	}
	if query.Type != "" && query.Type != "all" {
		filtered := scored[:0]
		for _, sm := range scored {
			if sm.Type == query.Type {
				filtered = append(filtered, sm)
			}
		}
		scored = filtered
	}
	if len(scored) > query.Limit {
		scored = scored[:query.Limit]
	}
	return models.StripScores(scored), nil
}

func (a *app) Chat(ctx context.Context, req *models.ChatRequest) (*models.ChatResponse, error) {
	if err := req.Validate(); err != nil {
		return nil, err
	}
	userMessage := req.Messages[len(req.Messages)-1].Content
	qvec, err := a.components.Embedder.Embed(ctx, userMessage)
	if err != nil {
		a.logger.Warn("chat query embedding failed", zap.Error(err))
		qvec = nil
	}
	scored, err := a.components.Ranker.Rank(ctx, server.SharedUserID, qvec, userMessage, a.cfg.Ranking.ChatLimit)
	if err != nil {
		a.logger.Warn("chat ranking failed", zap.Error(err))
		scored = nil
	}
	memoryContext := chat.BuildContext(scored, a.cfg.Chat.SnippetChars)
	reply := a.components.Responder.Generate(ctx, req.Messages, memoryContext)
	referenced := a.components.Ranker.Referenced(scored)
	if referenced == nil {
		referenced = []*models.Memory{}
	}
	return &models.ChatResponse{
		Message:          reply.Text,
		RelevantMemories: referenced,
		Success:          reply.Usable,
		Note:             reply.Note,
	}, nil
}

func (a *app) Stats(ctx context.Context) (*models.Stats, error) {
	memories, err := a.components.Storage.ListMemoriesByUser(ctx, server.SharedUserID)
	if err != nil {
		return nil, err
	}
	stats := &models.Stats{Total: len(memories)}
	for _, m := range memories {
		switch m.Type {
		case models.TypeIdea:
			stats.Ideas++
		case models.TypeNote:
			stats.Notes++
		case models.TypeLearning:
			stats.Learnings++
		case models.TypeTask:
			stats.Tasks++
		}
	}
	return stats, nil
}
