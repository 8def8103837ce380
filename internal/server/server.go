// Package server provides the HTTP API for Omoide.
package server

import (
	"context"
	"fmt"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"go.uber.org/zap"

	"github.com/hyperjump/omoide/internal/chat"
	"github.com/hyperjump/omoide/internal/config"
	"github.com/hyperjump/omoide/internal/embedding"
	"github.com/hyperjump/omoide/internal/models"
	"github.com/hyperjump/omoide/internal/ranking"
	"github.com/hyperjump/omoide/internal/storage"
)

// SharedUserID identifies the single local user all memories belong to.
// There is no authentication layer; the auth endpoint exists so the web UI
// has someone to greet.
const SharedUserID = "shared-user"

// Server is the HTTP server for the Omoide API.
type Server struct {
	store     storage.Storage
	embedder  embedding.Embedder
	ranker    *ranking.Ranker
	responder *chat.Responder
	config    *config.Config
	logger    *zap.Logger
	server    *http.Server
}

// NewServer creates a server with the given dependencies.
func NewServer(
	store storage.Storage,
	embedder embedding.Embedder,
	ranker *ranking.Ranker,
	responder *chat.Responder,
	cfg *config.Config,
	logger *zap.Logger,
) *Server {
	return &Server{
		store:     store,
		embedder:  embedder,
		ranker:    ranker,
		responder: responder,
		config:    cfg,
		logger:    logger,
	}
}

// EnsureSharedUser creates the shared user row if it does not exist yet.
func (s *Server) EnsureSharedUser(ctx context.Context) error {
	if _, err := s.store.GetUser(ctx, SharedUserID); err == nil {
		return nil
	} else if err != storage.ErrNotFound {
		return err
	}
	return s.store.UpsertUser(ctx, &models.User{
		ID:        SharedUserID,
		Email:     "user@omoide.local",
		FirstName: "Omoide",
		LastName:  "User",
	})
}

// Router builds the chi router with all routes and middleware.
func (s *Server) Router() http.Handler {
	r := chi.NewRouter()
	r.Use(middleware.Logger)
	r.Use(middleware.Recoverer)
	r.Use(middleware.Timeout(60 * time.Second))
	r.Use(middleware.Compress(5))
	r.Use(corsMiddleware)

	r.Get("/api/auth/user", s.handleAuthUser)
	r.Get("/api/memories", s.handleListMemories)
	r.Post("/api/memories", s.handleCreateMemory)
	r.Put("/api/memories/{id}", s.handleUpdateMemory)
	r.Delete("/api/memories/{id}", s.handleDeleteMemory)
	r.Post("/api/search", s.handleSearch)
	r.Get("/api/searches/recent", s.handleRecentSearches)
	r.Post("/api/chat", s.handleChat)
	r.Get("/api/stats", s.handleStats)
	r.Get("/api/status", s.handleStatus)
	r.Get("/health", s.handleHealth)

	return r
}

// Start starts the HTTP server and blocks until it stops.
func (s *Server) Start() error {
	addr := fmt.Sprintf("%s:%d", s.config.Server.Host, s.config.Server.Port)
	s.server = &http.Server{
		Addr:    addr,
		Handler: s.Router(),
	}
	s.logger.Info("Starting server", zap.String("addr", addr))
	return s.server.ListenAndServe()
}

// Stop gracefully shuts down the server.
func (s *Server) Stop(ctx context.Context) error {
	if s.server != nil {
		return s.server.Shutdown(ctx)
	}
	return nil
}

// corsMiddleware allows the local web UI to call the API from another port.
func corsMiddleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Access-Control-Allow-Origin", "*")
		w.Header().Set("Access-Control-Allow-Methods", "GET, POST, PUT, DELETE, OPTIONS")
		w.Header().Set("Access-Control-Allow-Headers", "Content-Type")
		if r.Method == http.MethodOptions {
			w.WriteHeader(http.StatusNoContent)
			return
		}
		next.ServeHTTP(w, r)
	})
}
