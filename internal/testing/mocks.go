// Package testing holds shared test doubles for the model client and
// the assistants API surface.
package testing

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"sync"

	openai "github.com/sashabaranov/go-openai"

	"foundrylabs/foundryctl/internal/agent"
	"foundrylabs/foundryctl/internal/llm"
)

// MockClient implements llm.Client with scripted responses, recording
// every request it sees.
type MockClient struct {
	mu        sync.Mutex
	Responses []string
	Err       error
	Requests  []*llm.CompletionRequest
	next      int
}

var _ llm.Client = (*MockClient)(nil)

func NewMockClient(responses ...string) *MockClient {
	if len(responses) == 0 {
		responses = []string{"mock completion"}
	}
	return &MockClient{Responses: responses}
}

func (m *MockClient) WithError(err error) *MockClient {
	m.Err = err
	return m
}

func (m *MockClient) Complete(ctx context.Context, req *llm.CompletionRequest) (*llm.Completion, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.Requests = append(m.Requests, req)
	if m.Err != nil {
		return nil, m.Err
	}
	resp := m.Responses[m.next%len(m.Responses)]
	m.next++
	return &llm.Completion{
		Content:      resp,
		FinishReason: "stop",
		Usage:        llm.Usage{PromptTokens: 10, CompletionTokens: 5, TotalTokens: 15},
	}, nil
}

// MockAssistantAPI implements agent.API in memory. RetrieveRun walks
// RunStatuses and repeats the last entry once exhausted.
type MockAssistantAPI struct {
	RunStatuses []openai.RunStatus
	retrieved   int

	ThreadMessages []openai.Message
	FileContent    map[string][]byte

	UploadErr  error
	RunErr     error
	MessageReq []openai.MessageRequest

	DeletedFiles      []string
	DeletedAssistants []string
	DeletedThreads    []string
	CancelledRuns     []string
}

var _ agent.API = (*MockAssistantAPI)(nil)

func NewMockAssistantAPI(statuses ...openai.RunStatus) *MockAssistantAPI {
	if len(statuses) == 0 {
		statuses = []openai.RunStatus{openai.RunStatusCompleted}
	}
	return &MockAssistantAPI{
		RunStatuses: statuses,
		FileContent: map[string][]byte{},
	}
}

func (m *MockAssistantAPI) CreateAssistant(ctx context.Context, req openai.AssistantRequest) (openai.Assistant, error) {
	return openai.Assistant{ID: "asst_mock", Model: req.Model}, nil
}

func (m *MockAssistantAPI) DeleteAssistant(ctx context.Context, id string) (openai.AssistantDeleteResponse, error) {
	m.DeletedAssistants = append(m.DeletedAssistants, id)
	return openai.AssistantDeleteResponse{ID: id, Deleted: true}, nil
}

func (m *MockAssistantAPI) CreateThread(ctx context.Context, req openai.ThreadRequest) (openai.Thread, error) {
	return openai.Thread{ID: "thread_mock"}, nil
}

func (m *MockAssistantAPI) DeleteThread(ctx context.Context, id string) (openai.ThreadDeleteResponse, error) {
	m.DeletedThreads = append(m.DeletedThreads, id)
	return openai.ThreadDeleteResponse{ID: id, Deleted: true}, nil
}

func (m *MockAssistantAPI) CreateMessage(ctx context.Context, threadID string, req openai.MessageRequest) (openai.Message, error) {
	m.MessageReq = append(m.MessageReq, req)
	return openai.Message{ID: fmt.Sprintf("msg_%d", len(m.MessageReq)), Role: req.Role}, nil
}

func (m *MockAssistantAPI) ListMessage(ctx context.Context, threadID string, limit *int, order *string, after *string, before *string) (openai.MessagesList, error) {
	return openai.MessagesList{Messages: m.ThreadMessages}, nil
}

func (m *MockAssistantAPI) CreateRun(ctx context.Context, threadID string, req openai.RunRequest) (openai.Run, error) {
	if m.RunErr != nil {
		return openai.Run{}, m.RunErr
	}
	return openai.Run{ID: "run_mock", ThreadID: threadID, Status: openai.RunStatusQueued}, nil
}

func (m *MockAssistantAPI) RetrieveRun(ctx context.Context, threadID, runID string) (openai.Run, error) {
	idx := m.retrieved
	if idx >= len(m.RunStatuses) {
		idx = len(m.RunStatuses) - 1
	}
	m.retrieved++
	return openai.Run{ID: runID, ThreadID: threadID, Status: m.RunStatuses[idx]}, nil
}

func (m *MockAssistantAPI) CancelRun(ctx context.Context, threadID, runID string) (openai.Run, error) {
	m.CancelledRuns = append(m.CancelledRuns, runID)
	return openai.Run{ID: runID, ThreadID: threadID, Status: openai.RunStatusCancelled}, nil
}

func (m *MockAssistantAPI) CreateFileBytes(ctx context.Context, req openai.FileBytesRequest) (openai.File, error) {
	if m.UploadErr != nil {
		return openai.File{}, m.UploadErr
	}
	return openai.File{ID: "file_mock", FileName: req.Name}, nil
}

func (m *MockAssistantAPI) DeleteFile(ctx context.Context, fileID string) error {
	m.DeletedFiles = append(m.DeletedFiles, fileID)
	return nil
}

func (m *MockAssistantAPI) GetFileContent(ctx context.Context, fileID string) (io.ReadCloser, error) {
	data, ok := m.FileContent[fileID]
	if !ok {
		return nil, fmt.Errorf("no such file %s", fileID)
	}
	return io.NopCloser(bytes.NewReader(data)), nil
}
