package chat

import (
	"context"
	"errors"
	"strings"
	"testing"

	"github.com/hyperjump/omoide/internal/config"
	"github.com/hyperjump/omoide/internal/models"
)

type fakeClient struct {
	reply     string
	err       error
	gotSystem string
	gotTurns  []models.ChatMessage
	gotTokens int
	gotTemp   float64
	calls     int
}

func (f *fakeClient) Complete(ctx context.Context, system string, turns []models.ChatMessage, maxTokens int, temperature float64) (string, error) {
	f.calls++
	f.gotSystem = system
	f.gotTurns = turns
	f.gotTokens = maxTokens
	f.gotTemp = temperature
	return f.reply, f.err
}

func scoredMemories() []*models.ScoredMemory {
	return []*models.ScoredMemory{
		{
			Memory: &models.Memory{
				Title:   "LinkedIn Post Insights",
				Type:    models.TypeLearning,
				Content: "Posts with vulnerable stories drive engagement",
			},
			CombinedScore: 0.8,
		},
		{
			Memory: &models.Memory{
				Title:   "Japan Trip Planning",
				Type:    models.TypeIdea,
				Content: "Visit Tokyo in cherry blossom season",
			},
			CombinedScore: 0.3,
		},
	}
}

func userTurn(content string) []models.ChatMessage {
	return []models.ChatMessage{{Role: models.RoleUser, Content: content}}
}

func TestBuildContext(t *testing.T) {
	got := BuildContext(scoredMemories(), 300)
	if !strings.Contains(got, "Memory: LinkedIn Post Insights") {
		t.Errorf("missing title in context:\n%s", got)
	}
	if !strings.Contains(got, "Type: learning") {
		t.Errorf("missing type in context:\n%s", got)
	}
	if !strings.Contains(got, "\n\n---\n\n") {
		t.Error("blocks should be separated")
	}
	if BuildContext(nil, 300) != "" {
		t.Error("no memories should yield empty context")
	}
}

func TestBuildContextTruncates(t *testing.T) {
	long := strings.Repeat("x", 500)
	got := BuildContext([]*models.ScoredMemory{{
		Memory: &models.Memory{Title: "Long", Type: models.TypeNote, Content: long},
	}}, 300)
	if strings.Contains(got, long) {
		t.Error("content should be truncated to the snippet size")
	}
	if !strings.Contains(got, "...") {
		t.Error("truncated content should carry an ellipsis")
	}
}

func TestGenerateSuccess(t *testing.T) {
	client := &fakeClient{reply: "**Bold** answer with\n- a bullet"}
	cfg := config.Default()
	r := NewResponder(client, &cfg.Chat, nil)

	reply := r.Generate(context.Background(), userTurn("what drives engagement?"), BuildContext(scoredMemories(), 300))
	if !reply.Usable {
		t.Fatalf("expected usable reply, note: %s", reply.Note)
	}
	if strings.Contains(reply.Text, "**") {
		t.Errorf("markdown should be stripped: %q", reply.Text)
	}
	if !strings.Contains(reply.Text, "• a bullet") {
		t.Errorf("bullets should be converted: %q", reply.Text)
	}
	if client.gotTokens != 300 || client.gotTemp != 0.7 {
		t.Errorf("config not passed through: tokens=%d temp=%f", client.gotTokens, client.gotTemp)
	}
	if !strings.Contains(client.gotSystem, "LinkedIn Post Insights") {
		t.Error("memory context should be embedded in the system prompt")
	}
}

func TestGenerateHistoryWindow(t *testing.T) {
	client := &fakeClient{reply: "ok"}
	cfg := config.Default()
	cfg.Chat.HistoryWindow = 3
	r := NewResponder(client, &cfg.Chat, nil)

	messages := []models.ChatMessage{
		{Role: models.RoleUser, Content: "first"},
		{Role: models.RoleAssistant, Content: "second"},
		{Role: models.RoleUser, Content: "third"},
		{Role: models.RoleAssistant, Content: "fourth"},
		{Role: models.RoleUser, Content: "fifth"},
	}
	r.Generate(context.Background(), messages, "")
	if len(client.gotTurns) != 3 {
		t.Fatalf("only the last %d turns should be sent, got %d", cfg.Chat.HistoryWindow, len(client.gotTurns))
	}
	if client.gotTurns[0].Content != "third" || client.gotTurns[2].Content != "fifth" {
		t.Errorf("unexpected window: %+v", client.gotTurns)
	}
}

func TestGenerateHistoryWindowStartsWithUserTurn(t *testing.T) {
	client := &fakeClient{reply: "ok"}
	cfg := config.Default()
	r := NewResponder(client, &cfg.Chat, nil)

	// With the default window of 2 the trim lands on an assistant turn,
	// which the completion API rejects as the opening message. The window
	// must shrink to start on a user turn instead.
	messages := []models.ChatMessage{
		{Role: models.RoleUser, Content: "first"},
		{Role: models.RoleAssistant, Content: "second"},
		{Role: models.RoleUser, Content: "third"},
	}
	r.Generate(context.Background(), messages, "")
	if len(client.gotTurns) == 0 {
		t.Fatal("no turns sent")
	}
	if client.gotTurns[0].Role != models.RoleUser {
		t.Fatalf("first sent turn must be a user turn, got %q", client.gotTurns[0].Role)
	}
	if last := client.gotTurns[len(client.gotTurns)-1]; last.Content != "third" {
		t.Errorf("latest turn must be last, got %q", last.Content)
	}
}

func TestGenerateQuotaExhausted(t *testing.T) {
	client := &fakeClient{err: ErrQuotaExhausted}
	cfg := config.Default()
	r := NewResponder(client, &cfg.Chat, nil)

	reply := r.Generate(context.Background(), userTurn("hi"), "")
	if reply.Usable {
		t.Error("quota exhaustion must not be marked usable")
	}
	if !strings.Contains(strings.ToLower(reply.Text), "sorry") {
		t.Errorf("quota reply should apologize: %q", reply.Text)
	}
	if reply.Note != "quota exhausted" {
		t.Errorf("unexpected note %q", reply.Note)
	}
}

func TestGenerateFallback(t *testing.T) {
	client := &fakeClient{err: errors.New("connection refused")}
	cfg := config.Default()
	r := NewResponder(client, &cfg.Chat, nil)

	reply := r.Generate(context.Background(), userTurn("engagement tips?"), BuildContext(scoredMemories(), 300))
	if reply.Usable {
		t.Error("fallback reply must not be marked usable")
	}
	if !strings.Contains(reply.Text, "LinkedIn Post Insights") {
		t.Errorf("fallback should surface the assembled context: %q", reply.Text)
	}
	if !strings.Contains(reply.Note, "connection refused") {
		t.Errorf("note should carry the cause: %q", reply.Note)
	}
}

func TestGenerateDemoMode(t *testing.T) {
	cfg := config.Default()
	r := NewResponder(nil, &cfg.Chat, nil)
	if r.Enabled() {
		t.Fatal("nil client should mean demo mode")
	}

	reply := r.Generate(context.Background(), userTurn("hello"), "")
	if !reply.Usable {
		t.Error("demo greetings are usable replies")
	}
	if !strings.Contains(strings.ToLower(reply.Text), "memory assistant") {
		t.Errorf("unexpected greeting: %q", reply.Text)
	}

	reply = r.Generate(context.Background(), userTurn("what do I know about posts?"), BuildContext(scoredMemories(), 300))
	if !strings.Contains(reply.Text, "LinkedIn Post Insights") {
		t.Errorf("demo mode should surface matched memories: %q", reply.Text)
	}
	if !strings.Contains(reply.Text, "demo mode") {
		t.Errorf("demo excerpts should carry a disclaimer: %q", reply.Text)
	}

	reply = r.Generate(context.Background(), userTurn("anything about scuba diving?"), "")
	if !strings.Contains(strings.ToLower(reply.Text), "add some") {
		t.Errorf("no-context demo reply should suggest adding memories: %q", reply.Text)
	}
}

func TestCleanResponse(t *testing.T) {
	in := "## Heading\n\n\n\n**bold** and *italic*\n- item one\n- item two"
	got := cleanResponse(in)
	for _, banned := range []string{"**", "##", "*italic*"} {
		if strings.Contains(got, banned) {
			t.Errorf("cleanup left %q in %q", banned, got)
		}
	}
	if strings.Count(got, "• ") != 2 {
		t.Errorf("expected two converted bullets: %q", got)
	}
	if strings.Contains(got, "\n\n\n") {
		t.Errorf("blank runs should collapse: %q", got)
	}
}
