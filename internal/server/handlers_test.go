package server

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"testing"

	"go.uber.org/zap"

	"github.com/hyperjump/omoide/internal/chat"
	"github.com/hyperjump/omoide/internal/config"
	"github.com/hyperjump/omoide/internal/embedding"
	"github.com/hyperjump/omoide/internal/keyword"
	"github.com/hyperjump/omoide/internal/models"
	"github.com/hyperjump/omoide/internal/ranking"
	"github.com/hyperjump/omoide/internal/storage"
)

func newTestServer(t *testing.T) (*Server, *httptest.Server) {
	t.Helper()
	cfg := config.Default()
	store := storage.NewMemoryStorage()
	embedder := embedding.NewHashEmbedder(cfg.Embedding.Dimensions, cfg.Embedding.CacheSize)
	ranker := ranking.NewRanker(store, keyword.NewMatcher(), &cfg.Ranking, nil)
	responder := chat.NewResponder(nil, &cfg.Chat, nil)

	srv := NewServer(store, embedder, ranker, responder, cfg, zap.NewNop())
	if err := srv.EnsureSharedUser(context.Background()); err != nil {
		t.Fatal(err)
	}
	ts := httptest.NewServer(srv.Router())
	t.Cleanup(ts.Close)
	return srv, ts
}

func doJSON(t *testing.T, method, url string, body interface{}, out interface{}) *http.Response {
	t.Helper()
	var buf bytes.Buffer
	if body != nil {
		if err := json.NewEncoder(&buf).Encode(body); err != nil {
			t.Fatal(err)
		}
	}
	req, err := http.NewRequest(method, url, &buf)
	if err != nil {
		t.Fatal(err)
	}
	req.Header.Set("Content-Type", "application/json")
	resp, err := http.DefaultClient.Do(req)
	if err != nil {
		t.Fatal(err)
	}
	t.Cleanup(func() { resp.Body.Close() })
	if out != nil {
		if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
			t.Fatalf("decoding response: %v", err)
		}
	}
	return resp
}

func createMemory(t *testing.T, ts *httptest.Server, title, content, memType string, tags ...string) models.Memory {
	t.Helper()
	var created models.Memory
	resp := doJSON(t, http.MethodPost, ts.URL+"/api/memories", models.MemoryInput{
		Title:   title,
		Content: content,
		Type:    memType,
		Tags:    tags,
	}, &created)
	if resp.StatusCode != http.StatusCreated {
		t.Fatalf("create returned %d", resp.StatusCode)
	}
	return created
}

func TestHealthAndAuth(t *testing.T) {
	_, ts := newTestServer(t)

	resp := doJSON(t, http.MethodGet, ts.URL+"/health", nil, nil)
	if resp.StatusCode != http.StatusOK {
		t.Errorf("health returned %d", resp.StatusCode)
	}

	var user models.User
	resp = doJSON(t, http.MethodGet, ts.URL+"/api/auth/user", nil, &user)
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("auth returned %d", resp.StatusCode)
	}
	if user.ID != SharedUserID {
		t.Errorf("unexpected user %q", user.ID)
	}
}

func TestCreateAndListMemories(t *testing.T) {
	_, ts := newTestServer(t)

	created := createMemory(t, ts, "Japan Trip", "Visit Tokyo in spring", models.TypeIdea, "travel")
	if created.ID == "" {
		t.Fatal("created memory has no ID")
	}
	if created.Priority != models.DefaultPriority || created.Status != models.DefaultStatus {
		t.Errorf("defaults not applied: %+v", created)
	}

	var memories []models.Memory
	resp := doJSON(t, http.MethodGet, ts.URL+"/api/memories", nil, &memories)
	if resp.StatusCode != http.StatusOK || len(memories) != 1 {
		t.Fatalf("list: status %d, %d memories", resp.StatusCode, len(memories))
	}
}

func TestCreateMemoryValidation(t *testing.T) {
	_, ts := newTestServer(t)

	resp := doJSON(t, http.MethodPost, ts.URL+"/api/memories",
		models.MemoryInput{Title: "No content", Type: models.TypeNote}, nil)
	if resp.StatusCode != http.StatusBadRequest {
		t.Errorf("missing content should be 400, got %d", resp.StatusCode)
	}

	resp = doJSON(t, http.MethodPost, ts.URL+"/api/memories",
		models.MemoryInput{Title: "t", Content: "c", Type: "journal"}, nil)
	if resp.StatusCode != http.StatusBadRequest {
		t.Errorf("bad type should be 400, got %d", resp.StatusCode)
	}
}

func TestUpdateMemoryReembeds(t *testing.T) {
	srv, ts := newTestServer(t)
	created := createMemory(t, ts, "Old title", "old content", models.TypeNote)

	before, err := srv.store.GetMemory(context.Background(), created.ID)
	if err != nil {
		t.Fatal(err)
	}

	newTitle := "Completely different subject"
	var updated models.Memory
	resp := doJSON(t, http.MethodPut, fmt.Sprintf("%s/api/memories/%s", ts.URL, created.ID),
		models.MemoryPatch{Title: &newTitle}, &updated)
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("update returned %d", resp.StatusCode)
	}
	if updated.Title != newTitle {
		t.Errorf("title not updated: %q", updated.Title)
	}

	after, err := srv.store.GetMemory(context.Background(), created.ID)
	if err != nil {
		t.Fatal(err)
	}
	same := len(before.Embedding) == len(after.Embedding)
	if same {
		for i := range before.Embedding {
			if before.Embedding[i] != after.Embedding[i] {
				same = false
				break
			}
		}
	}
	if same {
		t.Error("embedding should change when the title changes")
	}
}

func TestUpdateMemoryNotFound(t *testing.T) {
	_, ts := newTestServer(t)
	title := "x"
	resp := doJSON(t, http.MethodPut, ts.URL+"/api/memories/nope",
		models.MemoryPatch{Title: &title}, nil)
	if resp.StatusCode != http.StatusNotFound {
		t.Errorf("expected 404, got %d", resp.StatusCode)
	}
}

func TestDeleteMemory(t *testing.T) {
	_, ts := newTestServer(t)
	created := createMemory(t, ts, "Doomed", "delete me", models.TypeTask)

	resp := doJSON(t, http.MethodDelete, fmt.Sprintf("%s/api/memories/%s", ts.URL, created.ID), nil, nil)
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("delete returned %d", resp.StatusCode)
	}
	resp = doJSON(t, http.MethodDelete, fmt.Sprintf("%s/api/memories/%s", ts.URL, created.ID), nil, nil)
	if resp.StatusCode != http.StatusNotFound {
		t.Errorf("second delete should be 404, got %d", resp.StatusCode)
	}
}

func TestSearchEndpoint(t *testing.T) {
	_, ts := newTestServer(t)
	createMemory(t, ts, "LinkedIn Post Insights",
		"Posts with vulnerable stories drive engagement", models.TypeLearning, "social media")
	createMemory(t, ts, "Japan Trip Planning", "Visit Tokyo in cherry blossom season", models.TypeIdea, "travel")

	var results []models.Memory
	resp := doJSON(t, http.MethodPost, ts.URL+"/api/search",
		models.SearchQuery{Query: "social media engagement"}, &results)
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("search returned %d", resp.StatusCode)
	}
	if len(results) == 0 || results[0].Title != "LinkedIn Post Insights" {
		t.Fatalf("unexpected results: %+v", results)
	}

	// The query must be recorded for history.
	var records []models.SearchRecord
	resp = doJSON(t, http.MethodGet, ts.URL+"/api/searches/recent", nil, &records)
	if resp.StatusCode != http.StatusOK || len(records) != 1 {
		t.Fatalf("recent: status %d, %d records", resp.StatusCode, len(records))
	}
	if records[0].Query != "social media engagement" {
		t.Errorf("unexpected recorded query %q", records[0].Query)
	}
}

func TestSearchTypeFilter(t *testing.T) {
	_, ts := newTestServer(t)
	createMemory(t, ts, "Travel idea", "japan travel plans", models.TypeIdea)
	createMemory(t, ts, "Travel note", "japan travel receipts", models.TypeNote)

	var results []models.Memory
	doJSON(t, http.MethodPost, ts.URL+"/api/search",
		models.SearchQuery{Query: "japan travel", Type: models.TypeNote}, &results)
	for _, m := range results {
		if m.Type != models.TypeNote {
			t.Errorf("type filter leaked %q", m.Type)
		}
	}
	if len(results) != 1 {
		t.Errorf("expected exactly the note, got %d results", len(results))
	}
}

func TestSearchValidation(t *testing.T) {
	_, ts := newTestServer(t)
	resp := doJSON(t, http.MethodPost, ts.URL+"/api/search", models.SearchQuery{Query: ""}, nil)
	if resp.StatusCode != http.StatusBadRequest {
		t.Errorf("empty query should be 400, got %d", resp.StatusCode)
	}
}

func TestChatEndpoint(t *testing.T) {
	_, ts := newTestServer(t)
	createMemory(t, ts, "LinkedIn Post Insights",
		"Posts with vulnerable stories drive engagement", models.TypeLearning, "social media")

	var chatResp models.ChatResponse
	resp := doJSON(t, http.MethodPost, ts.URL+"/api/chat", models.ChatRequest{
		Messages: []models.ChatMessage{
			{Role: models.RoleUser, Content: "tell me about social media engagement"},
		},
	}, &chatResp)
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("chat returned %d", resp.StatusCode)
	}
	if chatResp.Message == "" {
		t.Error("chat reply should never be empty")
	}
	// Demo mode replies are usable and the matched memory is cited.
	if !chatResp.Success {
		t.Errorf("demo reply should be successful, note: %s", chatResp.Note)
	}
	if len(chatResp.RelevantMemories) == 0 {
		t.Error("highly relevant memory should be referenced")
	} else if chatResp.RelevantMemories[0].Title != "LinkedIn Post Insights" {
		t.Errorf("unexpected reference %q", chatResp.RelevantMemories[0].Title)
	}
}

func TestChatValidation(t *testing.T) {
	_, ts := newTestServer(t)

	resp := doJSON(t, http.MethodPost, ts.URL+"/api/chat", models.ChatRequest{}, nil)
	if resp.StatusCode != http.StatusBadRequest {
		t.Errorf("empty conversation should be 400, got %d", resp.StatusCode)
	}

	resp = doJSON(t, http.MethodPost, ts.URL+"/api/chat", models.ChatRequest{
		Messages: []models.ChatMessage{{Role: models.RoleAssistant, Content: "hi"}},
	}, nil)
	if resp.StatusCode != http.StatusBadRequest {
		t.Errorf("assistant-last conversation should be 400, got %d", resp.StatusCode)
	}
}

func TestStatsEndpoint(t *testing.T) {
	_, ts := newTestServer(t)
	createMemory(t, ts, "i1", "c", models.TypeIdea)
	createMemory(t, ts, "i2", "c", models.TypeIdea)
	createMemory(t, ts, "n1", "c", models.TypeNote)

	var stats models.Stats
	resp := doJSON(t, http.MethodGet, ts.URL+"/api/stats", nil, &stats)
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("stats returned %d", resp.StatusCode)
	}
	if stats.Total != 3 || stats.Ideas != 2 || stats.Notes != 1 {
		t.Errorf("unexpected stats: %+v", stats)
	}
}

func TestStatusEndpoint(t *testing.T) {
	_, ts := newTestServer(t)
	var status map[string]interface{}
	resp := doJSON(t, http.MethodGet, ts.URL+"/api/status", nil, &status)
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("status returned %d", resp.StatusCode)
	}
	if _, ok := status["config"]; !ok {
		t.Error("status should include config info")
	}
}
