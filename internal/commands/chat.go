// Package commands implements the CLI subcommands. Each command is a
// thin sequence over the library packages: compose the request, make the
// call, print the result.
package commands

import (
	"context"
	"fmt"
	"strings"

	"foundrylabs/foundryctl/internal/core"
	"foundrylabs/foundryctl/internal/llm"
)

// Chat runs a single-shot chat completion and prints the first choice.
func Chat(ctx context.Context, sys core.System, prompt string) error {
	prompt = strings.TrimSpace(prompt)
	if prompt == "" {
		return fmt.Errorf("no prompt given")
	}

	cfg := sys.GetConfig()
	messages := llm.Transcript{}.System(cfg.Model.Prompt).User(prompt)
	req := llm.NewCompletionRequest(cfg, messages)

	completion, err := sys.GetClient().Complete(ctx, req)
	if err != nil {
		return err
	}

	fmt.Println(completion.Content)
	sys.GetLogger().Debug("completion usage",
		"prompt_tokens", completion.Usage.PromptTokens,
		"completion_tokens", completion.Usage.CompletionTokens,
		"total_tokens", completion.Usage.TotalTokens,
		"finish_reason", completion.FinishReason,
	)
	return nil
}
