package commands

import (
	"context"
	"fmt"

	"foundrylabs/foundryctl/internal/agent"
	"foundrylabs/foundryctl/internal/core"
	"foundrylabs/foundryctl/internal/dataset"
)

const defaultAgentPrompt = "Analyze the sales data by region and create a bar chart of total sales per region."

// Agent runs one code-interpreter session over the configured CSV and
// prints the replies and downloaded artifact paths.
func Agent(ctx context.Context, sys core.System, prompt string) error {
	cfg := sys.GetConfig()
	if prompt == "" {
		prompt = defaultAgentPrompt
	}

	if err := dataset.Seed(cfg.Agent.Data); err != nil {
		return err
	}
	// Validate the data before spending a run on it.
	rows, err := dataset.Load(cfg.Agent.Data)
	if err != nil {
		return err
	}
	sys.GetLogger().Info("using dataset", "path", cfg.Agent.Data, "rows", len(rows))

	svc := agent.New(sys.GetAssistants(), cfg.Agent, cfg.Model.Deployment, sys.GetLogger())
	result, err := svc.Run(ctx, prompt)
	if err != nil {
		return err
	}

	for _, reply := range result.Replies {
		fmt.Println(reply)
	}
	for _, path := range result.Artifacts {
		fmt.Printf("saved artifact: %s\n", path)
	}
	return nil
}
