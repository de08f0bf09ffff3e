package eval

import (
	"bufio"
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"os"

	"foundrylabs/foundryctl/internal/llm"
)

// Judge completions are near-deterministic, matching the sampling the
// recipe generator uses.
const (
	judgeTemperature = 0.1
	judgeTopP        = 0.1
)

// LoadDataset reads one JSON record per line. Blank lines are skipped;
// a malformed line is an error, not a skip.
func LoadDataset(path string) ([]Record, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("opening dataset: %w", err)
	}
	defer f.Close()

	var records []Record
	scanner := bufio.NewScanner(f)
	scanner.Buffer(make([]byte, 0, 64*1024), 1024*1024)
	line := 0
	for scanner.Scan() {
		line++
		text := scanner.Bytes()
		if len(text) == 0 {
			continue
		}
		var r Record
		if err := json.Unmarshal(text, &r); err != nil {
			return nil, fmt.Errorf("%s line %d: %w", path, line, err)
		}
		records = append(records, r)
	}
	if err := scanner.Err(); err != nil {
		return nil, fmt.Errorf("reading %s: %w", path, err)
	}
	if len(records) == 0 {
		return nil, fmt.Errorf("%s contains no records", path)
	}
	return records, nil
}

// Score is one evaluator's verdict on one record.
type Score struct {
	Record    int
	Evaluator string
	Value     int
	Max       int
}

// Report aggregates a full evaluation pass.
type Report struct {
	Scores []Score
	Means  map[string]float64
	Usage  llm.Usage
}

type Runner struct {
	client     llm.Client
	deployment string
	logger     *slog.Logger
}

func NewRunner(client llm.Client, deployment string, logger *slog.Logger) *Runner {
	return &Runner{client: client, deployment: deployment, logger: logger}
}

// Run evaluates every record with every evaluator, strictly
// sequentially, and aggregates per-evaluator means.
func (r *Runner) Run(ctx context.Context, records []Record, evaluators []Evaluator) (*Report, error) {
	report := &Report{Means: map[string]float64{}}
	totals := map[string]int{}

	for i, rec := range records {
		for _, ev := range evaluators {
			req := &llm.CompletionRequest{
				Deployment:  r.deployment,
				Messages:    llm.Transcript{}.User(ev.Prompt(rec)),
				Temperature: judgeTemperature,
				TopP:        judgeTopP,
				MaxTokens:   16,
			}
			completion, err := r.client.Complete(ctx, req)
			if err != nil {
				return nil, fmt.Errorf("record %d, evaluator %s: %w", i, ev.Name, err)
			}
			report.Usage.PromptTokens += completion.Usage.PromptTokens
			report.Usage.CompletionTokens += completion.Usage.CompletionTokens
			report.Usage.TotalTokens += completion.Usage.TotalTokens

			score, err := ev.ParseScore(completion.Content)
			if err != nil {
				return nil, fmt.Errorf("record %d: %w", i, err)
			}
			r.logger.Debug("scored record", "record", i, "evaluator", ev.Name, "score", score)
			report.Scores = append(report.Scores, Score{Record: i, Evaluator: ev.Name, Value: score, Max: ev.Max})
			totals[ev.Name] += score
		}
	}

	for _, ev := range evaluators {
		report.Means[ev.Name] = float64(totals[ev.Name]) / float64(len(records))
	}
	return report, nil
}
