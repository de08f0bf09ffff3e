// Package agent drives code-interpreter agent sessions against the
// assistants API: upload data, create an assistant and thread, submit a
// run, poll it to a terminal status, then collect replies and generated
// file artifacts. All state lives server-side; locally we only hold
// opaque IDs and the last polled status.
package agent

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"os"
	"path/filepath"
	"time"

	"github.com/google/uuid"
	openai "github.com/sashabaranov/go-openai"

	"foundrylabs/foundryctl/internal/config"
)

// API is the slice of the SDK client the agent service uses.
type API interface {
	CreateAssistant(ctx context.Context, request openai.AssistantRequest) (openai.Assistant, error)
	DeleteAssistant(ctx context.Context, assistantID string) (openai.AssistantDeleteResponse, error)
	CreateThread(ctx context.Context, request openai.ThreadRequest) (openai.Thread, error)
	DeleteThread(ctx context.Context, threadID string) (openai.ThreadDeleteResponse, error)
	CreateMessage(ctx context.Context, threadID string, request openai.MessageRequest) (openai.Message, error)
	ListMessage(ctx context.Context, threadID string, limit *int, order *string, after *string, before *string) (openai.MessagesList, error)
	CreateRun(ctx context.Context, threadID string, request openai.RunRequest) (openai.Run, error)
	RetrieveRun(ctx context.Context, threadID string, runID string) (openai.Run, error)
	CancelRun(ctx context.Context, threadID string, runID string) (openai.Run, error)
	CreateFileBytes(ctx context.Context, request openai.FileBytesRequest) (openai.File, error)
	DeleteFile(ctx context.Context, fileID string) error
	GetFileContent(ctx context.Context, fileID string) (io.ReadCloser, error)
}

type Service struct {
	api    API
	cfg    *config.AgentConfig
	model  string
	logger *slog.Logger
}

func New(api API, cfg *config.AgentConfig, model string, logger *slog.Logger) *Service {
	return &Service{api: api, cfg: cfg, model: model, logger: logger}
}

// Result is what a completed session leaves behind locally.
type Result struct {
	SessionID string
	Status    openai.RunStatus
	Replies   []string
	Artifacts []string
}

// Run executes one agent session end to end. Server-side resources are
// registered for cleanup as they are created, so an error partway
// through still releases the uploaded file, thread, and assistant.
func (s *Service) Run(ctx context.Context, prompt string) (*Result, error) {
	sessionID := uuid.NewString()
	log := s.logger.With("session", sessionID)

	var cleanups []func()
	defer func() {
		for i := len(cleanups) - 1; i >= 0; i-- {
			cleanups[i]()
		}
	}()

	data, err := os.ReadFile(s.cfg.Data)
	if err != nil {
		return nil, fmt.Errorf("reading data file: %w", err)
	}

	file, err := s.api.CreateFileBytes(ctx, openai.FileBytesRequest{
		Name:    filepath.Base(s.cfg.Data),
		Bytes:   data,
		Purpose: openai.PurposeAssistants,
	})
	if err != nil {
		return nil, fmt.Errorf("uploading %s: %w", s.cfg.Data, err)
	}
	log.Info("uploaded file", "file_id", file.ID, "name", file.FileName)
	cleanups = append(cleanups, func() {
		if err := s.api.DeleteFile(context.WithoutCancel(ctx), file.ID); err != nil {
			log.Warn("failed to delete file", "file_id", file.ID, "error", err)
		}
	})

	assistant, err := s.api.CreateAssistant(ctx, openai.AssistantRequest{
		Model:        s.model,
		Name:         &s.cfg.Name,
		Instructions: &s.cfg.Instructions,
		Tools:        []openai.AssistantTool{{Type: openai.AssistantToolTypeCodeInterpreter}},
		FileIDs:      []string{file.ID},
	})
	if err != nil {
		return nil, fmt.Errorf("creating assistant: %w", err)
	}
	log.Info("created assistant", "assistant_id", assistant.ID, "name", s.cfg.Name)
	cleanups = append(cleanups, func() {
		if _, err := s.api.DeleteAssistant(context.WithoutCancel(ctx), assistant.ID); err != nil {
			log.Warn("failed to delete assistant", "assistant_id", assistant.ID, "error", err)
		}
	})

	thread, err := s.api.CreateThread(ctx, openai.ThreadRequest{})
	if err != nil {
		return nil, fmt.Errorf("creating thread: %w", err)
	}
	log.Info("created thread", "thread_id", thread.ID)
	cleanups = append(cleanups, func() {
		if _, err := s.api.DeleteThread(context.WithoutCancel(ctx), thread.ID); err != nil {
			log.Warn("failed to delete thread", "thread_id", thread.ID, "error", err)
		}
	})

	if _, err := s.api.CreateMessage(ctx, thread.ID, openai.MessageRequest{
		Role:    openai.ChatMessageRoleUser,
		Content: prompt,
		FileIds: []string{file.ID},
	}); err != nil {
		return nil, fmt.Errorf("adding message to thread: %w", err)
	}

	run, err := s.api.CreateRun(ctx, thread.ID, openai.RunRequest{AssistantID: assistant.ID})
	if err != nil {
		return nil, fmt.Errorf("creating run: %w", err)
	}
	log.Info("submitted run", "run_id", run.ID, "status", run.Status)

	run, err = s.PollRun(ctx, thread.ID, run.ID)
	if err != nil {
		return nil, err
	}
	log.Info("run finished", "run_id", run.ID, "status", run.Status)

	if run.Status != openai.RunStatusCompleted {
		if run.LastError != nil {
			return nil, fmt.Errorf("run %s ended with status %s: %s", run.ID, run.Status, run.LastError.Message)
		}
		return nil, fmt.Errorf("run %s ended with status %s", run.ID, run.Status)
	}

	replies, fileIDs, err := s.Replies(ctx, thread.ID)
	if err != nil {
		return nil, err
	}

	artifacts, err := s.DownloadArtifacts(ctx, fileIDs, s.cfg.OutputDir)
	if err != nil {
		return nil, err
	}

	return &Result{
		SessionID: sessionID,
		Status:    run.Status,
		Replies:   replies,
		Artifacts: artifacts,
	}, nil
}

// PollRun checks the run on a fixed interval until it leaves the
// queued/in_progress states, the context is done, or the configured run
// timeout passes. On giving up the run is cancelled server-side.
func (s *Service) PollRun(ctx context.Context, threadID, runID string) (openai.Run, error) {
	deadline := time.Now().Add(s.cfg.RunTimeout)
	for {
		run, err := s.api.RetrieveRun(ctx, threadID, runID)
		if err != nil {
			return run, fmt.Errorf("retrieving run %s: %w", runID, err)
		}

		switch run.Status {
		case openai.RunStatusQueued, openai.RunStatusInProgress, openai.RunStatusCancelling:
			s.logger.Debug("run still working", "run_id", runID, "status", run.Status)
		case openai.RunStatusRequiresAction:
			// No tool outputs to submit for a code-interpreter-only agent.
			s.cancelRun(ctx, threadID, runID)
			return run, fmt.Errorf("run %s requires tool outputs this agent cannot provide", runID)
		default:
			return run, nil
		}

		if time.Now().After(deadline) {
			s.cancelRun(ctx, threadID, runID)
			return run, fmt.Errorf("run %s did not reach a terminal status within %s", runID, s.cfg.RunTimeout)
		}

		select {
		case <-ctx.Done():
			s.cancelRun(ctx, threadID, runID)
			return run, ctx.Err()
		case <-time.After(s.cfg.PollInterval):
		}
	}
}

func (s *Service) cancelRun(ctx context.Context, threadID, runID string) {
	if _, err := s.api.CancelRun(context.WithoutCancel(ctx), threadID, runID); err != nil {
		s.logger.Warn("failed to cancel run", "run_id", runID, "error", err)
	}
}

// Replies lists the thread's messages and returns assistant replies in
// chronological order, flattening text content and collecting the IDs of
// generated image files.
func (s *Service) Replies(ctx context.Context, threadID string) ([]string, []string, error) {
	msgs, err := s.api.ListMessage(ctx, threadID, nil, nil, nil, nil)
	if err != nil {
		return nil, nil, fmt.Errorf("listing thread messages: %w", err)
	}

	var replies []string
	var fileIDs []string
	// The API returns newest first; walk backwards for reading order.
	for i := len(msgs.Messages) - 1; i >= 0; i-- {
		msg := msgs.Messages[i]
		if msg.Role != openai.ChatMessageRoleAssistant {
			continue
		}
		text := ""
		for _, content := range msg.Content {
			if content.Text != nil {
				text += content.Text.Value
			}
			if content.ImageFile != nil {
				fileIDs = append(fileIDs, content.ImageFile.FileID)
			}
		}
		if text != "" {
			replies = append(replies, text)
		}
	}
	return replies, fileIDs, nil
}

// DownloadArtifacts writes each generated file into outDir and returns
// the local paths.
func (s *Service) DownloadArtifacts(ctx context.Context, fileIDs []string, outDir string) ([]string, error) {
	if len(fileIDs) == 0 {
		return nil, nil
	}
	if err := os.MkdirAll(outDir, 0o755); err != nil {
		return nil, fmt.Errorf("creating output directory: %w", err)
	}

	var paths []string
	for _, id := range fileIDs {
		content, err := s.api.GetFileContent(ctx, id)
		if err != nil {
			return paths, fmt.Errorf("fetching file %s: %w", id, err)
		}
		data, err := io.ReadAll(content)
		content.Close()
		if err != nil {
			return paths, fmt.Errorf("reading file %s: %w", id, err)
		}

		// Code interpreter chart images come back as PNGs.
		path := filepath.Join(outDir, id+".png")
		if err := os.WriteFile(path, data, 0o644); err != nil {
			return paths, fmt.Errorf("writing %s: %w", path, err)
		}
		s.logger.Info("downloaded artifact", "file_id", id, "path", path)
		paths = append(paths, path)
	}
	return paths, nil
}
