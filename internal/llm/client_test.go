package llm

import (
	"errors"
	"math"
	"testing"

	"github.com/anthropics/anthropic-sdk-go"
)

func TestNewClient_WithAPIKey(t *testing.T) {
	client, err := NewClient(ClientConfig{APIKey: "test-key-123", Model: anthropic.ModelClaudeHaiku4_5_20251001})
	if err != nil {
		t.Fatalf("NewClient failed: %v", err)
	}
	if client.Model() != anthropic.ModelClaudeHaiku4_5_20251001 {
		t.Errorf("Model = %q, want %q", client.Model(), anthropic.ModelClaudeHaiku4_5_20251001)
	}
	if client.maxTokens != DefaultMaxTokens {
		t.Errorf("maxTokens = %d, want %d", client.maxTokens, DefaultMaxTokens)
	}
	if client.Tracker() == nil {
		t.Error("Tracker should not be nil")
	}
}

func TestNewClient_WithEnvVar(t *testing.T) {
	t.Setenv("ANTHROPIC_API_KEY", "env-test-key")

	client, err := NewClient(ClientConfig{MaxTokens: 512})
	if err != nil {
		t.Fatalf("NewClient failed: %v", err)
	}
	if client.Model() != anthropic.ModelClaudeSonnet4_20250514 {
		t.Errorf("Model = %q, want default sonnet", client.Model())
	}
	if client.maxTokens != 512 {
		t.Errorf("maxTokens = %d, want 512", client.maxTokens)
	}
}

func TestNewClient_NoAPIKey(t *testing.T) {
	t.Setenv("ANTHROPIC_API_KEY", "")

	_, err := NewClient(ClientConfig{})
	if !errors.Is(err, ErrNoAPIKey) {
		t.Fatalf("err = %v, want ErrNoAPIKey", err)
	}
}

func TestBedrockModel(t *testing.T) {
	tests := []struct {
		in   anthropic.Model
		want anthropic.Model
	}{
		{anthropic.ModelClaudeSonnet4_20250514, "us.anthropic.claude-sonnet-4-20250514-v1:0"},
		{anthropic.ModelClaudeOpus4_5_20251101, "us.anthropic.claude-opus-4-5-20251101-v1:0"},
		{"us.anthropic.custom-v1:0", "us.anthropic.custom-v1:0"},
	}
	for _, tt := range tests {
		if got := bedrockModel(tt.in); got != tt.want {
			t.Errorf("bedrockModel(%q) = %q, want %q", tt.in, got, tt.want)
		}
	}
}

func TestBuildMessages(t *testing.T) {
	history := []Turn{
		{Role: "user", Content: "design the schema"},
		{Role: "assistant", Content: "done"},
	}
	msgs, err := buildMessages(history, "now build it")
	if err != nil {
		t.Fatalf("buildMessages failed: %v", err)
	}
	if len(msgs) != 3 {
		t.Fatalf("len = %d, want 3", len(msgs))
	}
	if msgs[1].Role != anthropic.MessageParamRoleAssistant {
		t.Errorf("msgs[1].Role = %q, want assistant", msgs[1].Role)
	}
	if msgs[2].Role != anthropic.MessageParamRoleUser {
		t.Errorf("msgs[2].Role = %q, want user", msgs[2].Role)
	}

	if _, err := buildMessages(nil, "  "); err == nil {
		t.Error("expected error for empty user message")
	}
	if _, err := buildMessages([]Turn{{Role: "system", Content: "x"}}, "hi"); err == nil {
		t.Error("expected error for unknown role")
	}
}

func TestPriceFor(t *testing.T) {
	tests := []struct {
		model anthropic.Model
		want  Price
	}{
		{anthropic.ModelClaudeSonnet4_20250514, Price{3, 15}},
		{anthropic.ModelClaudeHaiku4_5_20251001, Price{1, 5}},
		{anthropic.ModelClaude3_5Haiku20241022, Price{0.8, 4}},
		{anthropic.ModelClaudeOpus4_1_20250805, Price{15, 75}},
		{anthropic.ModelClaudeOpus4_5_20251101, Price{5, 25}},
		{"us.anthropic.claude-haiku-4-5-20251001-v1:0", Price{1, 5}},
		{"some-new-model", Price{3, 15}},
	}
	for _, tt := range tests {
		if got := PriceFor(tt.model); got != tt.want {
			t.Errorf("PriceFor(%q) = %+v, want %+v", tt.model, got, tt.want)
		}
	}
}

func TestPrice_Cost(t *testing.T) {
	got := Price{Input: 3, Output: 15}.Cost(1_000_000, 100_000)
	if math.Abs(got-4.5) > 1e-9 {
		t.Errorf("Cost = %f, want 4.5", got)
	}
}

func TestTokenTracker(t *testing.T) {
	tr := NewTokenTracker()
	tr.Add(100, 20)
	tr.Add(50, 5)

	in, out := tr.Total()
	if in != 150 || out != 25 {
		t.Errorf("Total = (%d, %d), want (150, 25)", in, out)
	}
	if tr.Calls() != 2 {
		t.Errorf("Calls = %d, want 2", tr.Calls())
	}
}
