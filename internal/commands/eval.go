package commands

import (
	"context"
	"fmt"

	"foundrylabs/foundryctl/internal/core"
	"foundrylabs/foundryctl/internal/eval"
)

// Eval scores the configured dataset with the selected evaluators and
// prints per-record scores plus per-evaluator means.
func Eval(ctx context.Context, sys core.System) error {
	cfg := sys.GetConfig()

	evaluators, err := eval.Lookup(cfg.Eval.Evaluators)
	if err != nil {
		return err
	}
	records, err := eval.LoadDataset(cfg.Eval.Dataset)
	if err != nil {
		return err
	}
	sys.GetLogger().Info("evaluating", "records", len(records), "evaluators", len(evaluators))

	runner := eval.NewRunner(sys.GetClient(), cfg.Model.Deployment, sys.GetLogger())
	report, err := runner.Run(ctx, records, evaluators)
	if err != nil {
		return err
	}

	for _, score := range report.Scores {
		fmt.Printf("record %d  %-16s %d/%d\n", score.Record, score.Evaluator, score.Value, score.Max)
	}
	fmt.Println()
	for _, ev := range evaluators {
		fmt.Printf("mean %-16s %.2f\n", ev.Name, report.Means[ev.Name])
	}
	sys.GetLogger().Debug("evaluation usage", "total_tokens", report.Usage.TotalTokens)
	return nil
}
