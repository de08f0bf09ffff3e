package agent

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"log/slog"
	"os"
	"path/filepath"
	"testing"
	"time"

	openai "github.com/sashabaranov/go-openai"

	"foundrylabs/foundryctl/internal/config"
)

// mockAPI implements API in memory with a scripted run status sequence.
type mockAPI struct {
	statuses  []openai.RunStatus
	retrieved int

	threadMessages []openai.Message
	fileContent    map[string][]byte

	messageReqs       []openai.MessageRequest
	deletedFiles      []string
	deletedAssistants []string
	deletedThreads    []string
	cancelledRuns     []string

	uploadErr error
	runErr    error
}

func newMockAPI(statuses ...openai.RunStatus) *mockAPI {
	if len(statuses) == 0 {
		statuses = []openai.RunStatus{openai.RunStatusCompleted}
	}
	return &mockAPI{statuses: statuses, fileContent: map[string][]byte{}}
}

func (m *mockAPI) CreateAssistant(ctx context.Context, req openai.AssistantRequest) (openai.Assistant, error) {
	return openai.Assistant{ID: "asst_1", Model: req.Model}, nil
}

func (m *mockAPI) DeleteAssistant(ctx context.Context, id string) (openai.AssistantDeleteResponse, error) {
	m.deletedAssistants = append(m.deletedAssistants, id)
	return openai.AssistantDeleteResponse{ID: id, Deleted: true}, nil
}

func (m *mockAPI) CreateThread(ctx context.Context, req openai.ThreadRequest) (openai.Thread, error) {
	return openai.Thread{ID: "thread_1"}, nil
}

func (m *mockAPI) DeleteThread(ctx context.Context, id string) (openai.ThreadDeleteResponse, error) {
	m.deletedThreads = append(m.deletedThreads, id)
	return openai.ThreadDeleteResponse{ID: id, Deleted: true}, nil
}

func (m *mockAPI) CreateMessage(ctx context.Context, threadID string, req openai.MessageRequest) (openai.Message, error) {
	m.messageReqs = append(m.messageReqs, req)
	return openai.Message{ID: fmt.Sprintf("msg_%d", len(m.messageReqs)), Role: req.Role}, nil
}

func (m *mockAPI) ListMessage(ctx context.Context, threadID string, limit *int, order *string, after *string, before *string) (openai.MessagesList, error) {
	return openai.MessagesList{Messages: m.threadMessages}, nil
}

func (m *mockAPI) CreateRun(ctx context.Context, threadID string, req openai.RunRequest) (openai.Run, error) {
	if m.runErr != nil {
		return openai.Run{}, m.runErr
	}
	return openai.Run{ID: "run_1", ThreadID: threadID, Status: openai.RunStatusQueued}, nil
}

func (m *mockAPI) RetrieveRun(ctx context.Context, threadID, runID string) (openai.Run, error) {
	idx := m.retrieved
	if idx >= len(m.statuses) {
		idx = len(m.statuses) - 1
	}
	m.retrieved++
	return openai.Run{ID: runID, ThreadID: threadID, Status: m.statuses[idx]}, nil
}

func (m *mockAPI) CancelRun(ctx context.Context, threadID, runID string) (openai.Run, error) {
	m.cancelledRuns = append(m.cancelledRuns, runID)
	return openai.Run{ID: runID, Status: openai.RunStatusCancelled}, nil
}

func (m *mockAPI) CreateFileBytes(ctx context.Context, req openai.FileBytesRequest) (openai.File, error) {
	if m.uploadErr != nil {
		return openai.File{}, m.uploadErr
	}
	return openai.File{ID: "file_1", FileName: req.Name}, nil
}

func (m *mockAPI) DeleteFile(ctx context.Context, fileID string) error {
	m.deletedFiles = append(m.deletedFiles, fileID)
	return nil
}

func (m *mockAPI) GetFileContent(ctx context.Context, fileID string) (io.ReadCloser, error) {
	data, ok := m.fileContent[fileID]
	if !ok {
		return nil, fmt.Errorf("no such file %s", fileID)
	}
	return io.NopCloser(bytes.NewReader(data)), nil
}

func testService(api API, dir string) *Service {
	return New(api, &config.AgentConfig{
		Name:         "test-agent",
		Instructions: "analyze things",
		Data:         filepath.Join(dir, "sales.csv"),
		OutputDir:    dir,
		PollInterval: time.Millisecond,
		RunTimeout:   100 * time.Millisecond,
	}, "gpt-4.1", slog.Default())
}

func writeData(t *testing.T, dir string) {
	t.Helper()
	err := os.WriteFile(filepath.Join(dir, "sales.csv"), []byte("region,sales\nNorth,100\n"), 0o644)
	if err != nil {
		t.Fatal(err)
	}
}

func assistantMessage(text string, imageFileIDs ...string) openai.Message {
	content := []openai.MessageContent{}
	if text != "" {
		content = append(content, openai.MessageContent{Type: "text", Text: &openai.MessageText{Value: text}})
	}
	for _, id := range imageFileIDs {
		content = append(content, openai.MessageContent{Type: "image_file", ImageFile: &openai.ImageFile{FileID: id}})
	}
	return openai.Message{Role: openai.ChatMessageRoleAssistant, Content: content}
}

func TestRun_HappyPath(t *testing.T) {
	dir := t.TempDir()
	writeData(t, dir)

	api := newMockAPI(openai.RunStatusQueued, openai.RunStatusInProgress, openai.RunStatusCompleted)
	// Newest first, as the API returns them.
	api.threadMessages = []openai.Message{
		assistantMessage("Here is your chart.", "file_chart"),
		{Role: openai.ChatMessageRoleUser, Content: []openai.MessageContent{{Type: "text", Text: &openai.MessageText{Value: "make a chart"}}}},
	}
	api.fileContent["file_chart"] = []byte("png-bytes")

	result, err := testService(api, dir).Run(context.Background(), "make a chart")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	if result.Status != openai.RunStatusCompleted {
		t.Errorf("Status = %s", result.Status)
	}
	if len(result.Replies) != 1 || result.Replies[0] != "Here is your chart." {
		t.Errorf("Replies = %v", result.Replies)
	}
	if len(result.Artifacts) != 1 {
		t.Fatalf("Artifacts = %v", result.Artifacts)
	}
	data, err := os.ReadFile(result.Artifacts[0])
	if err != nil || string(data) != "png-bytes" {
		t.Errorf("artifact content = %q, err = %v", data, err)
	}

	// The upload carried the file into the thread message.
	if len(api.messageReqs) != 1 || len(api.messageReqs[0].FileIds) != 1 {
		t.Errorf("message request missing file attachment: %+v", api.messageReqs)
	}

	// Server-side resources released after the session.
	if len(api.deletedFiles) != 1 || len(api.deletedAssistants) != 1 || len(api.deletedThreads) != 1 {
		t.Errorf("cleanup incomplete: files=%v assistants=%v threads=%v",
			api.deletedFiles, api.deletedAssistants, api.deletedThreads)
	}
}

func TestRun_CleanupOnFailedRun(t *testing.T) {
	dir := t.TempDir()
	writeData(t, dir)

	api := newMockAPI(openai.RunStatusFailed)

	_, err := testService(api, dir).Run(context.Background(), "make a chart")
	if err == nil {
		t.Fatal("expected error for failed run")
	}

	// Everything created before the failure is still released.
	if len(api.deletedFiles) != 1 || len(api.deletedAssistants) != 1 || len(api.deletedThreads) != 1 {
		t.Errorf("cleanup incomplete after failure: files=%v assistants=%v threads=%v",
			api.deletedFiles, api.deletedAssistants, api.deletedThreads)
	}
}

func TestRun_CleanupOnExpiredRun(t *testing.T) {
	dir := t.TempDir()
	writeData(t, dir)

	api := newMockAPI(openai.RunStatusExpired)

	_, err := testService(api, dir).Run(context.Background(), "make a chart")
	if err == nil {
		t.Fatal("expected error for expired run")
	}

	// Cleanup runs in reverse creation order: thread, assistant, file.
	if len(api.deletedThreads) != 1 || len(api.deletedAssistants) != 1 || len(api.deletedFiles) != 1 {
		t.Errorf("cleanup incomplete after expiry: files=%v assistants=%v threads=%v",
			api.deletedFiles, api.deletedAssistants, api.deletedThreads)
	}
}

func TestPollRun_TimeoutCancelsRun(t *testing.T) {
	dir := t.TempDir()
	api := newMockAPI(openai.RunStatusInProgress)
	svc := testService(api, dir)
	svc.cfg.RunTimeout = 5 * time.Millisecond

	_, err := svc.PollRun(context.Background(), "thread_1", "run_1")
	if err == nil {
		t.Fatal("expected timeout error")
	}
	if len(api.cancelledRuns) != 1 {
		t.Errorf("expected run to be cancelled, got %v", api.cancelledRuns)
	}
}

func TestPollRun_ContextCancellation(t *testing.T) {
	dir := t.TempDir()
	api := newMockAPI(openai.RunStatusInProgress)
	svc := testService(api, dir)
	svc.cfg.RunTimeout = time.Minute
	svc.cfg.PollInterval = 50 * time.Millisecond

	ctx, cancel := context.WithCancel(context.Background())
	go func() {
		time.Sleep(10 * time.Millisecond)
		cancel()
	}()

	_, err := svc.PollRun(ctx, "thread_1", "run_1")
	if err == nil {
		t.Fatal("expected cancellation error")
	}
	if len(api.cancelledRuns) != 1 {
		t.Errorf("expected run to be cancelled server-side, got %v", api.cancelledRuns)
	}
}

func TestPollRun_RequiresActionIsAnError(t *testing.T) {
	dir := t.TempDir()
	api := newMockAPI(openai.RunStatusRequiresAction)
	svc := testService(api, dir)

	_, err := svc.PollRun(context.Background(), "thread_1", "run_1")
	if err == nil {
		t.Fatal("expected error for requires_action run")
	}
	if len(api.cancelledRuns) != 1 {
		t.Errorf("expected run to be cancelled, got %v", api.cancelledRuns)
	}
}

func TestReplies_ChronologicalOrderAndFlattening(t *testing.T) {
	dir := t.TempDir()
	api := newMockAPI()
	// Newest first: second reply, then first reply, then the user message.
	api.threadMessages = []openai.Message{
		assistantMessage("second reply"),
		assistantMessage("first reply", "file_a", "file_b"),
		{Role: openai.ChatMessageRoleUser, Content: []openai.MessageContent{{Type: "text", Text: &openai.MessageText{Value: "question"}}}},
	}

	replies, fileIDs, err := testService(api, dir).Replies(context.Background(), "thread_1")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(replies) != 2 || replies[0] != "first reply" || replies[1] != "second reply" {
		t.Errorf("replies out of order: %v", replies)
	}
	if len(fileIDs) != 2 {
		t.Errorf("fileIDs = %v", fileIDs)
	}
}

func TestRun_MissingDataFile(t *testing.T) {
	dir := t.TempDir()
	api := newMockAPI()

	_, err := testService(api, dir).Run(context.Background(), "go")
	if err == nil {
		t.Fatal("expected error for missing data file")
	}
	// Nothing was created, so nothing should be deleted.
	if len(api.deletedFiles) != 0 || len(api.deletedAssistants) != 0 {
		t.Error("unexpected cleanup calls")
	}
}
