package models

import "testing"

func TestSearchQueryValidate(t *testing.T) {
	q := &SearchQuery{Query: "japan trip"}
	if err := q.Validate(); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if q.Limit != 10 {
		t.Errorf("default limit should be 10, got %d", q.Limit)
	}

	q = &SearchQuery{Query: "x", Limit: 1000}
	if err := q.Validate(); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if q.Limit != 100 {
		t.Errorf("limit should be capped at 100, got %d", q.Limit)
	}

	q = &SearchQuery{}
	if err := q.Validate(); err == nil {
		t.Error("empty query should fail validation")
	}

	q = &SearchQuery{Query: "x", Type: "journal"}
	if err := q.Validate(); err == nil {
		t.Error("invalid type filter should fail validation")
	}
}

func TestMemoryInputValidate(t *testing.T) {
	in := &MemoryInput{Title: "t", Content: "c", Type: TypeIdea}
	if err := in.Validate(); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if in.Priority != DefaultPriority || in.Status != DefaultStatus {
		t.Errorf("defaults not applied: %q %q", in.Priority, in.Status)
	}

	cases := []*MemoryInput{
		{Content: "c", Type: TypeNote},
		{Title: "t", Type: TypeNote},
		{Title: "t", Content: "c"},
		{Title: "t", Content: "c", Type: "thought"},
	}
	for i, in := range cases {
		if err := in.Validate(); err == nil {
			t.Errorf("case %d should fail validation", i)
		}
	}
}

func TestChatRequestValidate(t *testing.T) {
	r := &ChatRequest{Messages: []ChatMessage{{Role: RoleUser, Content: "hi"}}}
	if err := r.Validate(); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if err := (&ChatRequest{}).Validate(); err == nil {
		t.Error("empty conversation should fail")
	}
	r = &ChatRequest{Messages: []ChatMessage{{Role: RoleAssistant, Content: "hello"}}}
	if err := r.Validate(); err == nil {
		t.Error("conversation not ending with user turn should fail")
	}
}
