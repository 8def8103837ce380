package server

import (
	"encoding/json"
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/hyperjump/omoide/internal/chat"
	"github.com/hyperjump/omoide/internal/models"
	"github.com/hyperjump/omoide/internal/storage"
)

func (s *Server) handleAuthUser(w http.ResponseWriter, r *http.Request) {
	user, err := s.store.GetUser(r.Context(), SharedUserID)
	if err != nil {
		s.respondError(w, http.StatusInternalServerError, "user not initialized")
		return
	}
	s.respondJSON(w, http.StatusOK, user)
}

func (s *Server) handleListMemories(w http.ResponseWriter, r *http.Request) {
	memories, err := s.store.ListMemoriesByUser(r.Context(), SharedUserID)
	if err != nil {
		s.logger.Error("list memories failed", zap.Error(err))
		s.respondError(w, http.StatusInternalServerError, err.Error())
		return
	}
	if memories == nil {
		memories = []*models.Memory{}
	}
	s.respondJSON(w, http.StatusOK, memories)
}

func (s *Server) handleCreateMemory(w http.ResponseWriter, r *http.Request) {
	var input models.MemoryInput
	if err := json.NewDecoder(r.Body).Decode(&input); err != nil {
		s.respondError(w, http.StatusBadRequest, "invalid request body")
		return
	}
	if err := input.Validate(); err != nil {
		s.respondError(w, http.StatusBadRequest, err.Error())
		return
	}

	memory := &models.Memory{
		ID:       uuid.New().String(),
		UserID:   SharedUserID,
		Title:    input.Title,
		Content:  input.Content,
		Type:     input.Type,
		Tags:     input.Tags,
		Priority: input.Priority,
		Status:   input.Status,
	}
	vec, err := s.embedder.Embed(r.Context(), memory.SearchText())
	if err != nil {
		s.logger.Error("embedding failed", zap.Error(err))
		s.respondError(w, http.StatusInternalServerError, err.Error())
		return
	}
	memory.Embedding = vec

	if err := s.store.CreateMemory(r.Context(), memory); err != nil {
		s.logger.Error("create memory failed", zap.Error(err))
		s.respondError(w, http.StatusInternalServerError, err.Error())
		return
	}
	s.logger.Debug("memory created", zap.String("id", memory.ID), zap.String("type", memory.Type))
	s.respondJSON(w, http.StatusCreated, memory)
}

func (s *Server) handleUpdateMemory(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")
	var patch models.MemoryPatch
	if err := json.NewDecoder(r.Body).Decode(&patch); err != nil {
		s.respondError(w, http.StatusBadRequest, "invalid request body")
		return
	}

	memory, err := s.store.GetMemory(r.Context(), id)
	if err != nil {
		if err == storage.ErrNotFound {
			s.respondError(w, http.StatusNotFound, "memory not found")
			return
		}
		s.respondError(w, http.StatusInternalServerError, err.Error())
		return
	}
	if memory.UserID != SharedUserID {
		s.respondError(w, http.StatusNotFound, "memory not found")
		return
	}

	reembed := false
	if patch.Title != nil && *patch.Title != memory.Title {
		memory.Title = *patch.Title
		reembed = true
	}
	if patch.Content != nil && *patch.Content != memory.Content {
		memory.Content = *patch.Content
		reembed = true
	}
	if patch.Type != nil {
		switch *patch.Type {
		case models.TypeIdea, models.TypeNote, models.TypeLearning, models.TypeTask:
			memory.Type = *patch.Type
		default:
			s.respondError(w, http.StatusBadRequest, "invalid type")
			return
		}
	}
	if patch.Tags != nil {
		memory.Tags = *patch.Tags
		reembed = true
	}
	if patch.Priority != nil {
		memory.Priority = *patch.Priority
	}
	if patch.Status != nil {
		memory.Status = *patch.Status
	}

	// The embedding derives from the searchable text; a stale one would make
	// the memory unfindable under its new wording.
	if reembed {
		vec, err := s.embedder.Embed(r.Context(), memory.SearchText())
		if err != nil {
			s.logger.Error("embedding failed", zap.Error(err))
			s.respondError(w, http.StatusInternalServerError, err.Error())
			return
		}
		memory.Embedding = vec
	}

	if err := s.store.UpdateMemory(r.Context(), memory); err != nil {
		s.logger.Error("update memory failed", zap.Error(err))
		s.respondError(w, http.StatusInternalServerError, err.Error())
		return
	}
	s.respondJSON(w, http.StatusOK, memory)
}

func (s *Server) handleDeleteMemory(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")
	deleted, err := s.store.DeleteMemory(r.Context(), id, SharedUserID)
	if err != nil {
		s.logger.Error("delete memory failed", zap.Error(err))
		s.respondError(w, http.StatusInternalServerError, err.Error())
		return
	}
	if !deleted {
		s.respondError(w, http.StatusNotFound, "memory not found")
		return
	}
	s.respondJSON(w, http.StatusOK, map[string]string{"status": "deleted"})
}

func (s *Server) handleSearch(w http.ResponseWriter, r *http.Request) {
	var query models.SearchQuery
	if err := json.NewDecoder(r.Body).Decode(&query); err != nil {
		s.respondError(w, http.StatusBadRequest, "invalid request body")
		return
	}
	if err := query.Validate(); err != nil {
		s.respondError(w, http.StatusBadRequest, err.Error())
		return
	}
	s.logger.Debug("search request", zap.String("query", query.Query), zap.Int("limit", query.Limit))

	qvec, err := s.embedder.Embed(r.Context(), query.Query)
	if err != nil {
		s.logger.Error("query embedding failed", zap.Error(err))
		s.respondError(w, http.StatusInternalServerError, err.Error())
		return
	}

	// With a type filter, rank wide and narrow afterwards so the filter does
	// not eat into the requested limit.
	rankLimit := query.Limit
	if query.Type != "" && query.Type != "all" {
		rankLimit = s.config.Ranking.MaxLimit
	}
	scored, err := s.ranker.Rank(r.Context(), SharedUserID, qvec, query.Query, rankLimit)
	if err != nil {
		s.logger.Error("ranking failed", zap.Error(err))
		s.respondError(w, http.StatusInternalServerError, err.Error())
		return
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

	results := models.StripScores(scored)
	record := &models.SearchRecord{
		ID:      uuid.New().String(),
		UserID:  SharedUserID,
		Query:   query.Query,
		Results: results,
	}
	if err := s.store.CreateSearch(r.Context(), record); err != nil {
		s.logger.Warn("failed to record search", zap.Error(err))
	}

	s.respondJSON(w, http.StatusOK, results)
}

func (s *Server) handleRecentSearches(w http.ResponseWriter, r *http.Request) {
	records, err := s.store.RecentSearches(r.Context(), SharedUserID, 10)
	if err != nil {
		s.logger.Error("recent searches failed", zap.Error(err))
		s.respondError(w, http.StatusInternalServerError, err.Error())
		return
	}
	if records == nil {
		records = []*models.SearchRecord{}
	}
	s.respondJSON(w, http.StatusOK, records)
}

func (s *Server) handleChat(w http.ResponseWriter, r *http.Request) {
	var req models.ChatRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		s.respondError(w, http.StatusBadRequest, "invalid request body")
		return
	}
	if err := req.Validate(); err != nil {
		s.respondError(w, http.StatusBadRequest, err.Error())
		return
	}

	userMessage := req.Messages[len(req.Messages)-1].Content
	qvec, err := s.embedder.Embed(r.Context(), userMessage)
	if err != nil {
		s.logger.Warn("chat query embedding failed", zap.Error(err))
		qvec = nil
	}
	scored, err := s.ranker.Rank(r.Context(), SharedUserID, qvec, userMessage, s.config.Ranking.ChatLimit)
	if err != nil {
		s.logger.Warn("chat ranking failed", zap.Error(err))
		scored = nil
	}

	memoryContext := chat.BuildContext(scored, s.config.Chat.SnippetChars)
	reply := s.responder.Generate(r.Context(), req.Messages, memoryContext)
	referenced := s.ranker.Referenced(scored)
	if referenced == nil {
		referenced = []*models.Memory{}
	}

	session := &models.ChatSession{ID: uuid.New().String(), UserID: SharedUserID}
	if err := s.store.CreateChatSession(r.Context(), session); err == nil {
		transcript := append(append([]models.ChatMessage(nil), req.Messages...),
			models.ChatMessage{Role: models.RoleAssistant, Content: reply.Text})
		if err := s.store.UpdateChatSession(r.Context(), session.ID, transcript); err != nil {
			s.logger.Warn("failed to persist chat session", zap.Error(err))
		}
	} else {
		s.logger.Warn("failed to create chat session", zap.Error(err))
	}

	s.respondJSON(w, http.StatusOK, &models.ChatResponse{
		Message:          reply.Text,
		RelevantMemories: referenced,
		Success:          reply.Usable,
		Note:             reply.Note,
	})
}

func (s *Server) handleStats(w http.ResponseWriter, r *http.Request) {
	memories, err := s.store.ListMemoriesByUser(r.Context(), SharedUserID)
	if err != nil {
		s.logger.Error("stats failed", zap.Error(err))
		s.respondError(w, http.StatusInternalServerError, err.Error())
		return
	}
	stats := models.Stats{Total: len(memories)}
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
	s.respondJSON(w, http.StatusOK, stats)
}

func (s *Server) handleStatus(w http.ResponseWriter, r *http.Request) {
	count, err := s.store.CountMemories(r.Context(), SharedUserID)
	if err != nil {
		s.logger.Error("status: count memories failed", zap.Error(err))
		s.respondError(w, http.StatusInternalServerError, err.Error())
		return
	}
	s.respondJSON(w, http.StatusOK, map[string]interface{}{
		"memories": count,
		"config": map[string]interface{}{
			"storage_backend":      s.config.Storage.Backend,
			"embedding_dimensions": s.config.Embedding.Dimensions,
			"chat_enabled":         s.responder.Enabled(),
			"chat_model":           s.config.Chat.Model,
		},
	})
}

func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	s.respondJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

func (s *Server) respondJSON(w http.ResponseWriter, status int, data interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(data)
}

func (s *Server) respondError(w http.ResponseWriter, status int, message string) {
	s.respondJSON(w, status, map[string]string{"error": message})
}
