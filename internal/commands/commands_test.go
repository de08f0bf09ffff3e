package commands

import (
	"context"
	"log/slog"
	"os"
	"path/filepath"
	"testing"
	"time"

	openai "github.com/sashabaranov/go-openai"

	"foundrylabs/foundryctl/internal/config"
	"foundrylabs/foundryctl/internal/core"
	mocktest "foundrylabs/foundryctl/internal/testing"
)

func testSystem(dir string, client *mocktest.MockClient, api *mocktest.MockAssistantAPI) core.System {
	return &core.SystemImpl{
		Client:     client,
		Assistants: api,
		Logger:     slog.Default(),
		Config: &config.Configuration{
			API: &config.APIConfig{Endpoint: "https://example.openai.azure.com", APIKey: "k"},
			Model: &config.ModelConfig{
				Deployment:  "gpt-4.1",
				MaxTokens:   512,
				Temperature: 0.7,
				TopP:        1.0,
				Prompt:      "You are a test assistant.",
			},
			Agent: &config.AgentConfig{
				Name:         "test-agent",
				Instructions: "analyze",
				Data:         filepath.Join(dir, "sales.csv"),
				OutputDir:    dir,
				PollInterval: time.Millisecond,
				RunTimeout:   time.Second,
			},
			Eval:    &config.EvalConfig{Dataset: filepath.Join(dir, "data.jsonl")},
			Recipes: &config.RecipeConfig{},
		},
	}
}

func TestChat_TranscriptOrder(t *testing.T) {
	client := mocktest.NewMockClient("hello back")
	sys := testSystem(t.TempDir(), client, mocktest.NewMockAssistantAPI())

	if err := Chat(context.Background(), sys, "hello"); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	if len(client.Requests) != 1 {
		t.Fatalf("got %d requests", len(client.Requests))
	}
	req := client.Requests[0]
	if len(req.Messages) != 2 {
		t.Fatalf("messages = %+v", req.Messages)
	}
	if req.Messages[0].Role != "system" || req.Messages[0].Content != "You are a test assistant." {
		t.Errorf("system message = %+v", req.Messages[0])
	}
	if req.Messages[1].Role != "user" || req.Messages[1].Content != "hello" {
		t.Errorf("user message = %+v", req.Messages[1])
	}
	if req.Deployment != "gpt-4.1" || req.MaxTokens != 512 {
		t.Errorf("request config = %+v", req)
	}
}

func TestChat_EmptyPrompt(t *testing.T) {
	sys := testSystem(t.TempDir(), mocktest.NewMockClient(), mocktest.NewMockAssistantAPI())

	if err := Chat(context.Background(), sys, "   "); err == nil {
		t.Fatal("expected error for empty prompt")
	}
}

func TestAgent_SeedsDataAndRuns(t *testing.T) {
	dir := t.TempDir()
	api := mocktest.NewMockAssistantAPI(openai.RunStatusCompleted)
	api.ThreadMessages = []openai.Message{
		{Role: openai.ChatMessageRoleAssistant, Content: []openai.MessageContent{
			{Type: "text", Text: &openai.MessageText{Value: "done"}},
		}},
	}
	sys := testSystem(dir, mocktest.NewMockClient(), api)

	if err := Agent(context.Background(), sys, ""); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	// The sample dataset was seeded beside the run.
	if _, err := os.Stat(filepath.Join(dir, "sales.csv")); err != nil {
		t.Errorf("sample dataset not seeded: %v", err)
	}
	// Default prompt was sent to the thread.
	if len(api.MessageReq) != 1 || api.MessageReq[0].Content != defaultAgentPrompt {
		t.Errorf("message requests = %+v", api.MessageReq)
	}
}

func TestEval_EndToEnd(t *testing.T) {
	dir := t.TempDir()
	data := `{"query":"q","context":"c","response":"r"}` + "\n"
	if err := os.WriteFile(filepath.Join(dir, "data.jsonl"), []byte(data), 0o644); err != nil {
		t.Fatal(err)
	}

	client := mocktest.NewMockClient("4")
	sys := testSystem(dir, client, mocktest.NewMockAssistantAPI())

	if err := Eval(context.Background(), sys); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	// One judge call per default quality evaluator.
	if len(client.Requests) != 4 {
		t.Errorf("got %d judge calls, want 4", len(client.Requests))
	}
}

func TestEval_UnknownEvaluator(t *testing.T) {
	dir := t.TempDir()
	sys := testSystem(dir, mocktest.NewMockClient(), mocktest.NewMockAssistantAPI())
	sys.GetConfig().Eval.Evaluators = []string{"nonsense"}

	if err := Eval(context.Background(), sys); err == nil {
		t.Fatal("expected error for unknown evaluator")
	}
}
