// Package core wires configuration, logging, and the model client into
// the System handle the commands run against.
package core

import (
	"context"
	"log/slog"

	"foundrylabs/foundryctl/internal/agent"
	"foundrylabs/foundryctl/internal/config"
	"foundrylabs/foundryctl/internal/llm"
)

type System interface {
	GetClient() llm.Client
	GetAssistants() agent.API
	GetConfig() *config.Configuration
	GetLogger() *slog.Logger
}

type SystemImpl struct {
	Client     llm.Client
	Assistants agent.API
	Config     *config.Configuration
	Logger     *slog.Logger
}

func (s *SystemImpl) GetClient() llm.Client { return s.Client }

func (s *SystemImpl) GetAssistants() agent.API { return s.Assistants }

func (s *SystemImpl) GetConfig() *config.Configuration { return s.Config }

func (s *SystemImpl) GetLogger() *slog.Logger { return s.Logger }

// NewSystem builds the Azure client once and shares it between the chat
// and assistants surfaces.
func NewSystem(ctx context.Context, cfg *config.Configuration, logger *slog.Logger) (System, error) {
	client, err := llm.NewAzureClient(ctx, cfg.API)
	if err != nil {
		return nil, err
	}
	return &SystemImpl{
		Client:     client,
		Assistants: client.Assistants(),
		Config:     cfg,
		Logger:     logger,
	}, nil
}
