// Package main is the Omoide CLI entry point.
package main

import (
	"bytes"
	"context"
	"encoding/json"
	"flag"
	"fmt"
	"io"
	"net/http"
	"os"
	"os/signal"
	"path/filepath"
	"strings"
	"syscall"
	"time"

	"go.uber.org/zap"

	"github.com/hyperjump/omoide/internal/chat"
	"github.com/hyperjump/omoide/internal/cli"
	"github.com/hyperjump/omoide/internal/config"
	"github.com/hyperjump/omoide/internal/embedding"
	"github.com/hyperjump/omoide/internal/importer"
	"github.com/hyperjump/omoide/internal/keyword"
	"github.com/hyperjump/omoide/internal/models"
	"github.com/hyperjump/omoide/internal/ranking"
	"github.com/hyperjump/omoide/internal/server"
	"github.com/hyperjump/omoide/internal/storage"
	"github.com/hyperjump/omoide/pkg/utils"
)

var version = "dev"

const defaultConfigPath = "/usr/local/etc/omoide/config.yaml"

// loadConfig loads config from path. When path is the default, it first looks
// for config.yaml in the current directory (for development); if that exists
// it is used. Returns the config and the path that was actually loaded.
func loadConfig(path string) (*config.Config, string, error) {
	if path == defaultConfigPath {
		if cwd, cwdErr := os.Getwd(); cwdErr == nil {
			fallback := filepath.Join(cwd, "config.yaml")
			if _, statErr := os.Stat(fallback); statErr == nil {
				cfg, loadErr := config.Load(fallback)
				if loadErr != nil {
					return nil, "", loadErr
				}
				return cfg, fallback, nil
			}
		}
	}
	cfg, err := config.Load(path)
	if err != nil {
		return nil, "", err
	}
	return cfg, path, nil
}

func main() {
	if len(os.Args) < 2 {
		printUsage()
		os.Exit(1)
	}
	command := os.Args[1]
	switch command {
	case "server":
		runServer()
	case "add":
		runAdd()
	case "search":
		runSearch()
	case "chat":
		runChat()
	case "stats":
		runStats()
	case "version", "--version", "-v":
		fmt.Printf("omoide version %s\n", version)
	case "help", "--help", "-h":
		printUsage()
	default:
		fmt.Printf("Unknown command: %s\n", command)
		printUsage()
		os.Exit(1)
	}
}

func runServer() {
	fs := flag.NewFlagSet("server", flag.ExitOnError)
	configPath := fs.String("config", defaultConfigPath, "config file path")
	debug := fs.Bool("debug", false, "enable debug logging")
	_ = fs.Parse(os.Args[2:])

	cfg, resolvedConfigPath, err := loadConfig(*configPath)
	if err != nil {
		fmt.Printf("Failed to load config: %v\n", err)
		os.Exit(1)
	}
	debugMode := cfg.Debug || *debug
	logger, err := utils.NewLogger(debugMode)
	if err != nil {
		fmt.Printf("Failed to create logger: %v\n", err)
		os.Exit(1)
	}
	defer logger.Sync()

	logger.Info("config loaded",
		zap.String("config_path", resolvedConfigPath),
		zap.Bool("debug", debugMode),
	)

	components, err := initializeComponents(cfg, logger)
	if err != nil {
		logger.Fatal("Failed to initialize components", zap.Error(err))
	}
	defer components.Close()

	srv := server.NewServer(
		components.Storage,
		components.Embedder,
		components.Ranker,
		components.Responder,
		cfg,
		logger,
	)
	if err := srv.EnsureSharedUser(context.Background()); err != nil {
		logger.Fatal("Failed to create shared user", zap.Error(err))
	}

	watchCtx, watchCancel := context.WithCancel(context.Background())
	defer watchCancel()
	var watch *importer.Watcher
	if cfg.Watch.Directory != "" {
		imp := importer.NewImporter(components.Storage, components.Embedder, server.SharedUserID, logger)
		watch = importer.NewWatcher(cfg.Watch.Directory, cfg.Watch.Extensions, imp, logger)
		if err := watch.Start(watchCtx); err != nil {
			logger.Fatal("Failed to start watcher", zap.Error(err))
		}
	}

	go func() {
		if err := srv.Start(); err != nil && err != http.ErrServerClosed {
			logger.Fatal("Server failed", zap.Error(err))
		}
	}()

	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, os.Interrupt, syscall.SIGTERM)
	<-sigChan

	logger.Info("Shutting down...")
	if watch != nil {
		watch.Stop()
	}
	watchCancel()
	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	_ = srv.Stop(ctx)
}

func runAdd() {
	fs := flag.NewFlagSet("add", flag.ExitOnError)
	configPath := fs.String("config", defaultConfigPath, "config file path")
	serverURL := fs.String("server", "http://localhost:8080", "server URL (empty = use direct storage)")
	memType := fs.String("type", models.TypeNote, "memory type: idea, note, learning, or task")
	title := fs.String("title", "", "memory title")
	tags := fs.String("tags", "", "comma-separated tags")
	_ = fs.Parse(os.Args[2:])

	if *title == "" || fs.NArg() < 1 {
		fmt.Println("Usage: omoide add --title <title> [flags] <content>")
		os.Exit(1)
	}
	input := models.MemoryInput{
		Title:   *title,
		Content: strings.TrimSpace(strings.Join(fs.Args(), " ")),
		Type:    *memType,
	}
	if *tags != "" {
		for _, t := range strings.Split(*tags, ",") {
			if t = strings.TrimSpace(t); t != "" {
				input.Tags = append(input.Tags, t)
			}
		}
	}
	if err := input.Validate(); err != nil {
		fmt.Fprintf(os.Stderr, "Invalid memory: %v\n", err)
		os.Exit(1)
	}

	if *serverURL != "" {
		var created models.Memory
		if err := postJSON(*serverURL+"/api/memories", input, &created); err != nil {
			fmt.Fprintf(os.Stderr, "Add failed: %v\n", err)
			os.Exit(1)
		}
		fmt.Printf("Memory created: %s\n", created.ID)
		return
	}

	app, err := directApp(*configPath)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Failed to initialize: %v\n", err)
		os.Exit(1)
	}
	defer app.Close()

	memory, err := app.CreateMemory(context.Background(), &input)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Add failed: %v\n", err)
		os.Exit(1)
	}
	fmt.Printf("Memory created: %s\n", memory.ID)
}

func runSearch() {
	fs := flag.NewFlagSet("search", flag.ExitOnError)
	configPath := fs.String("config", defaultConfigPath, "config file path")
	serverURL := fs.String("server", "http://localhost:8080", "server URL (empty = use direct storage)")
	limit := fs.Int("limit", 10, "number of results")
	memType := fs.String("type", "", "filter by type: idea, note, learning, or task")
	outputFormat := fs.String("output", "text", "output format: text or json")
	_ = fs.Parse(os.Args[2:])

	if fs.NArg() < 1 {
		fmt.Println("Usage: omoide search [flags] <query>")
		os.Exit(1)
	}
	format, err := cli.ParseFormat(*outputFormat)
	if err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
	query := models.SearchQuery{
		Query: strings.TrimSpace(strings.Join(fs.Args(), " ")),
		Type:  *memType,
		Limit: *limit,
	}

	var results []*models.Memory
	if *serverURL != "" {
		if err := postJSON(*serverURL+"/api/search", &query, &results); err != nil {
			fmt.Fprintf(os.Stderr, "Search failed: %v\n", err)
			os.Exit(1)
		}
	} else {
		app, err := directApp(*configPath)
		if err != nil {
			fmt.Fprintf(os.Stderr, "Failed to initialize: %v\n", err)
			os.Exit(1)
		}
		defer app.Close()
		results, err = app.Search(context.Background(), &query)
		if err != nil {
			fmt.Fprintf(os.Stderr, "Search failed: %v\n", err)
			os.Exit(1)
		}
	}
	if err := cli.WriteMemories(os.Stdout, results, format); err != nil {
		fmt.Fprintf(os.Stderr, "Output failed: %v\n", err)
		os.Exit(1)
	}
}

func runChat() {
	fs := flag.NewFlagSet("chat", flag.ExitOnError)
	configPath := fs.String("config", defaultConfigPath, "config file path")
	serverURL := fs.String("server", "http://localhost:8080", "server URL (empty = use direct storage)")
	outputFormat := fs.String("output", "text", "output format: text or json")
	_ = fs.Parse(os.Args[2:])

	if fs.NArg() < 1 {
		fmt.Println("Usage: omoide chat [flags] <message>")
		os.Exit(1)
	}
	format, err := cli.ParseFormat(*outputFormat)
	if err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
	req := models.ChatRequest{
		Messages: []models.ChatMessage{
			{Role: models.RoleUser, Content: strings.TrimSpace(strings.Join(fs.Args(), " "))},
		},
	}

	var resp models.ChatResponse
	if *serverURL != "" {
		if err := postJSON(*serverURL+"/api/chat", &req, &resp); err != nil {
			fmt.Fprintf(os.Stderr, "Chat failed: %v\n", err)
			os.Exit(1)
		}
	} else {
		app, err := directApp(*configPath)
		if err != nil {
			fmt.Fprintf(os.Stderr, "Failed to initialize: %v\n", err)
			os.Exit(1)
		}
		defer app.Close()
		out, err := app.Chat(context.Background(), &req)
		if err != nil {
			fmt.Fprintf(os.Stderr, "Chat failed: %v\n", err)
			os.Exit(1)
		}
		resp = *out
	}
	if err := cli.WriteChatResponse(os.Stdout, &resp, format); err != nil {
		fmt.Fprintf(os.Stderr, "Output failed: %v\n", err)
		os.Exit(1)
	}
}

func runStats() {
	fs := flag.NewFlagSet("stats", flag.ExitOnError)
	configPath := fs.String("config", defaultConfigPath, "config file path")
	serverURL := fs.String("server", "http://localhost:8080", "server URL (empty = use direct storage)")
	outputFormat := fs.String("output", "text", "output format: text or json")
	_ = fs.Parse(os.Args[2:])

	format, err := cli.ParseFormat(*outputFormat)
	if err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}

	var stats models.Stats
	if *serverURL != "" {
		resp, err := http.Get(*serverURL + "/api/stats")
		if err != nil {
			fmt.Fprintf(os.Stderr, "Stats failed: %v\n", err)
			os.Exit(1)
		}
		defer resp.Body.Close()
		if resp.StatusCode != http.StatusOK {
			b, _ := io.ReadAll(resp.Body)
			fmt.Fprintf(os.Stderr, "Server returned %d: %s\n", resp.StatusCode, string(b))
			os.Exit(1)
		}
		if err := json.NewDecoder(resp.Body).Decode(&stats); err != nil {
			fmt.Fprintf(os.Stderr, "Decode failed: %v\n", err)
			os.Exit(1)
		}
	} else {
		app, err := directApp(*configPath)
		if err != nil {
			fmt.Fprintf(os.Stderr, "Failed to initialize: %v\n", err)
			os.Exit(1)
		}
		defer app.Close()
		out, err := app.Stats(context.Background())
		if err != nil {
			fmt.Fprintf(os.Stderr, "Stats failed: %v\n", err)
			os.Exit(1)
		}
		stats = *out
	}
	if err := cli.WriteStats(os.Stdout, &stats, format); err != nil {
		fmt.Fprintf(os.Stderr, "Output failed: %v\n", err)
		os.Exit(1)
	}
}

func postJSON(url string, in, out interface{}) error {
	body, err := json.Marshal(in)
	if err != nil {
		return err
	}
	resp, err := http.Post(url, "application/json", bytes.NewReader(body))
	if err != nil {
		return fmt.Errorf("request failed: %w", err)
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusOK && resp.StatusCode != http.StatusCreated {
		b, _ := io.ReadAll(resp.Body)
		return fmt.Errorf("server returned %d: %s", resp.StatusCode, string(b))
	}
	if out == nil {
		return nil
	}
	return json.NewDecoder(resp.Body).Decode(out)
}

// Components holds initialized services.
type Components struct {
	Storage   storage.Storage
	Embedder  embedding.Embedder
	Matcher   *keyword.Matcher
	Ranker    *ranking.Ranker
	Responder *chat.Responder
}

func (c *Components) Close() {
	if c.Storage != nil {
		_ = c.Storage.Close()
	}
	if c.Embedder != nil {
		_ = c.Embedder.Close()
	}
}

func initializeComponents(cfg *config.Config, logger *zap.Logger) (*Components, error) {
	var store storage.Storage
	switch cfg.Storage.Backend {
	case config.BackendMemory:
		store = storage.NewMemoryStorage()
	default:
		sqlite, err := storage.NewSQLiteStorage(cfg.Storage.DatabasePath)
		if err != nil {
			return nil, fmt.Errorf("failed to initialize storage: %w", err)
		}
		store = sqlite
	}

	var embedder embedding.Embedder
	if cfg.Embedding.UseONNX {
		onnxEmbedder, err := embedding.NewONNXEmbedder(
			cfg.Embedding.ModelPath,
			cfg.Embedding.Dimensions,
			cfg.Embedding.MaxTokens,
			cfg.Embedding.CacheSize,
		)
		if err != nil {
			logger.Warn("ONNX embedder unavailable, using hash embedder", zap.Error(err))
			embedder = embedding.NewHashEmbedder(cfg.Embedding.Dimensions, cfg.Embedding.CacheSize)
		} else {
			embedder = onnxEmbedder
		}
	} else {
		embedder = embedding.NewHashEmbedder(cfg.Embedding.Dimensions, cfg.Embedding.CacheSize)
	}

	matcher := keyword.NewMatcher()
	ranker := ranking.NewRanker(store, matcher, &cfg.Ranking, logger)

	var client chat.CompletionClient
	if apiKey := os.Getenv(cfg.Chat.APIKeyEnv); apiKey != "" {
		client = chat.NewAnthropicClient(apiKey, cfg.Chat.Model)
		logger.Info("chat responses enabled", zap.String("model", cfg.Chat.Model))
	} else {
		logger.Info("no API key found, chat runs in demo mode", zap.String("env", cfg.Chat.APIKeyEnv))
	}
	responder := chat.NewResponder(client, &cfg.Chat, logger)

	return &Components{
		Storage:   store,
		Embedder:  embedder,
		Matcher:   matcher,
		Ranker:    ranker,
		Responder: responder,
	}, nil
}

func printUsage() {
	fmt.Println(`omoide - Personal memory base with hybrid recall and chat

Usage:
  omoide server [flags]            Start the HTTP server
  omoide add [flags] <content>     Add a memory
  omoide search [flags] <query>    Search memories
  omoide chat [flags] <message>    Ask a question over your memories
  omoide stats [flags]             Show memory counts by type
  omoide version                   Show version
  omoide help                      Show this help

Server Flags:
  --config string    Config file path (default: /usr/local/etc/omoide/config.yaml)
  --debug            Enable debug logging

Add Flags:
  --title string     Memory title (required)
  --type string      Memory type: idea, note, learning, or task (default: note)
  --tags string      Comma-separated tags
  --server string    Server URL (default: http://localhost:8080). Use empty (--server "") for direct storage.

Search Flags:
  --limit int        Number of results (default: 10)
  --type string      Filter by type
  --output string    Output format: text or json (default: text)
  --server string    Server URL (default: http://localhost:8080). Use empty (--server "") for direct storage.

Chat Flags:
  --output string    Output format: text or json (default: text)
  --server string    Server URL (default: http://localhost:8080). Use empty (--server "") for direct storage.

Examples:
  omoide server
  omoide add --title "Japan Trip" --type idea --tags travel "Visit Tokyo in spring"
  omoide search japan travel
  omoide chat "what are my trip plans?"
  omoide stats --output json`)
}
