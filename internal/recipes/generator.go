// Package recipes renders markdown recipe documents: one chat
// completion per prompt in a YAML prompt list, written to a docs
// directory, with a system message assembled from a base file plus an
// optional fetched-context file.
package recipes

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"

	"gopkg.in/yaml.v3"

	"foundrylabs/foundryctl/internal/config"
	"foundrylabs/foundryctl/internal/llm"
)

// Recipe generation wants near-deterministic output.
const (
	genTemperature = 0.1
	genTopP        = 0.1
)

type Prompt struct {
	Name     string `yaml:"name"`
	Filename string `yaml:"filename"`
	Prompt   string `yaml:"prompt"`
}

// LoadPrompts parses the prompts file, which must contain a top-level
// list of prompt entries.
func LoadPrompts(path string) ([]Prompt, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("reading prompts file: %w", err)
	}

	var doc yaml.Node
	if err := yaml.Unmarshal(data, &doc); err != nil {
		return nil, fmt.Errorf("parsing %s: %w", path, err)
	}
	if len(doc.Content) == 0 || doc.Content[0].Kind != yaml.SequenceNode {
		return nil, fmt.Errorf("%s must contain a top-level list of prompt entries", path)
	}

	var prompts []Prompt
	if err := doc.Content[0].Decode(&prompts); err != nil {
		return nil, fmt.Errorf("decoding %s: %w", path, err)
	}
	for i, p := range prompts {
		if p.Filename == "" || p.Prompt == "" {
			return nil, fmt.Errorf("%s entry %d (%q) is missing filename or prompt", path, i, p.Name)
		}
	}
	return prompts, nil
}

type Generator struct {
	client llm.Client
	cfg    *config.Configuration
	logger *slog.Logger
}

func NewGenerator(client llm.Client, cfg *config.Configuration, logger *slog.Logger) *Generator {
	return &Generator{client: client, cfg: cfg, logger: logger}
}

// SystemMessage reads the base system message and appends the context
// file when it exists.
func (g *Generator) SystemMessage() (string, error) {
	base, err := os.ReadFile(g.cfg.Recipes.SystemMessage)
	if err != nil {
		return "", fmt.Errorf("reading system message: %w", err)
	}
	msg := string(base)

	if g.cfg.Recipes.ContextFile != "" {
		extra, err := os.ReadFile(g.cfg.Recipes.ContextFile)
		if err == nil {
			msg += "\n" + string(extra)
		} else if !os.IsNotExist(err) {
			return "", fmt.Errorf("reading context file: %w", err)
		}
	}
	return msg, nil
}

// Run renders every prompt and writes each completion to the docs
// directory under the prompt's filename.
func (g *Generator) Run(ctx context.Context) error {
	prompts, err := LoadPrompts(g.cfg.Recipes.Prompts)
	if err != nil {
		return err
	}
	system, err := g.SystemMessage()
	if err != nil {
		return err
	}
	if err := os.MkdirAll(g.cfg.Recipes.DocsDir, 0o755); err != nil {
		return fmt.Errorf("creating docs directory: %w", err)
	}

	for _, p := range prompts {
		g.logger.Info("generating recipe", "name", p.Name, "file", p.Filename)

		req := &llm.CompletionRequest{
			Deployment:  g.cfg.Model.Deployment,
			Messages:    llm.Transcript{}.System(system).User(p.Prompt),
			Temperature: genTemperature,
			TopP:        genTopP,
			MaxTokens:   g.cfg.Model.MaxTokens,
		}
		completion, err := g.client.Complete(ctx, req)
		if err != nil {
			return fmt.Errorf("generating %s: %w", p.Name, err)
		}

		path := filepath.Join(g.cfg.Recipes.DocsDir, p.Filename)
		if err := os.WriteFile(path, []byte(completion.Content), 0o644); err != nil {
			return fmt.Errorf("writing %s: %w", path, err)
		}
		g.logger.Info("wrote recipe", "path", path, "tokens", completion.Usage.TotalTokens)
	}
	return nil
}
