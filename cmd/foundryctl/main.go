package main

//   __                           _                      _   _
//  / _|  ___   _   _  _ __    __| | _ __  _   _   ___ | |_| |
// | |_  / _ \ | | | || '_ \  / _` || '__|| | | | / __|| __| |
// |  _|| (_) || |_| || | | || (_| || |   | |_| || (__ | |_| |
// |_|   \___/  \__,_||_| |_| \__,_||_|    \__, | \___| \__|_|
//   . . . glue for azure ai foundry       |___/

import (
	"context"
	"fmt"
	"os"
	"strings"

	"github.com/mazznoer/colorgrad"
	"github.com/urfave/cli/v3"

	"foundrylabs/foundryctl/internal/commands"
	"foundrylabs/foundryctl/internal/config"
	"foundrylabs/foundryctl/internal/core"
)

const version = "0.3"

func main() {
	fmt.Printf("%s\n", getBanner())

	root := &cli.Command{
		Name:    "foundryctl",
		Usage:   "chat, agents, evaluation, and recipe generation against Azure AI Foundry",
		Version: version,
		Flags:   config.GetFlags(),
		Commands: []*cli.Command{
			{
				Name:      "chat",
				Usage:     "send one chat completion and print the reply",
				ArgsUsage: "<prompt>",
				Action: func(ctx context.Context, c *cli.Command) error {
					sys, err := setup(ctx, c)
					if err != nil {
						return err
					}
					return commands.Chat(ctx, sys, strings.Join(c.Args().Slice(), " "))
				},
			},
			{
				Name:      "agent",
				Usage:     "run a code-interpreter agent session over the sample CSV",
				ArgsUsage: "[prompt]",
				Action: func(ctx context.Context, c *cli.Command) error {
					sys, err := setup(ctx, c)
					if err != nil {
						return err
					}
					return commands.Agent(ctx, sys, strings.Join(c.Args().Slice(), " "))
				},
			},
			{
				Name:  "eval",
				Usage: "score a JSONL dataset with quality and safety evaluators",
				Action: func(ctx context.Context, c *cli.Command) error {
					sys, err := setup(ctx, c)
					if err != nil {
						return err
					}
					return commands.Eval(ctx, sys)
				},
			},
			{
				Name:  "generate",
				Usage: "render recipe documents from the prompts file",
				Action: func(ctx context.Context, c *cli.Command) error {
					sys, err := setup(ctx, c)
					if err != nil {
						return err
					}
					return commands.Generate(ctx, sys)
				},
			},
			{
				Name:  "fetch-context",
				Usage: "fetch source files and rebuild the system message context",
				Action: func(ctx context.Context, c *cli.Command) error {
					cfg := config.NewConfiguration(c)
					logger := core.InitLogger(cfg.Verbose)
					return commands.FetchContext(ctx, cfg, logger)
				},
			},
			{
				Name:  "showconfig",
				Usage: "print the resolved configuration",
				Action: func(ctx context.Context, c *cli.Command) error {
					config.NewConfiguration(c).PrintConfig()
					return nil
				},
			},
		},
	}

	if err := root.Run(context.Background(), os.Args); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}

// setup resolves configuration, fails fast on anything missing, and
// builds the shared System.
func setup(ctx context.Context, c *cli.Command) (core.System, error) {
	cfg := config.NewConfiguration(c)
	logger := core.InitLogger(cfg.Verbose)

	if err := cfg.Verify(); err != nil {
		return nil, err
	}
	if cfg.Verbose {
		cfg.PrintConfig()
	}

	return core.NewSystem(ctx, cfg, logger)
}

func getBanner() string {
	banner := `
  __                           _                      _   _
 / _|  ___   _   _  _ __    __| | _ __  _   _   ___ | |_| |
| |_  / _ \ | | | || '_ \  / _' || '__|| | | | / __|| __| |
|  _|| (_) || |_| || | | || (_| || |   | |_| || (__ | |_| |
|_|   \___/  \__,_||_| |_| \__,_||_|    \__, | \___| \__|_|
  . . . glue for azure ai foundry       |___/  [v` + version + `]
`
	grad, _ := colorgrad.NewGradient().
		HtmlColors("#0a84d0ff", "#fdfdfdff").
		Build()

	lines := strings.Split(banner, "\n")

	// Find max line length for gradient spread
	maxLen := 0
	for _, line := range lines {
		if len(line) > maxLen {
			maxLen = len(line)
		}
	}

	colors := grad.Colors(uint(maxLen))
	var coloredBanner strings.Builder

	for _, line := range lines {
		for i, ch := range line {
			r, g, b, _ := colors[i].RGBA255()
			coloredBanner.WriteString(fmt.Sprintf("\x1b[38;2;%d;%d;%dm%c", r, g, b, ch))
		}
		coloredBanner.WriteString("\x1b[0m\n")
	}

	return coloredBanner.String()
}
