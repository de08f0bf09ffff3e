package config

import (
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/urfave/cli/v3"
	"gopkg.in/yaml.v3"
)

type Configuration struct {
	API     *APIConfig
	Model   *ModelConfig
	Agent   *AgentConfig
	Eval    *EvalConfig
	Recipes *RecipeConfig
	Verbose bool
}

type APIConfig struct {
	Endpoint   string
	APIKey     string
	APIVersion string
	Timeout    time.Duration
}

type ModelConfig struct {
	Deployment  string
	MaxTokens   int
	Temperature float32
	TopP        float32
	Stop        []string
	Stream      bool
	Prompt      string
}

type AgentConfig struct {
	Name         string
	Instructions string
	Data         string
	OutputDir    string
	PollInterval time.Duration
	RunTimeout   time.Duration
}

type EvalConfig struct {
	Dataset    string
	Evaluators []string
}

type RecipeConfig struct {
	Prompts        string
	SystemMessage  string
	ContextFile    string
	ContextSources string
	DocsDir        string
}

// YamlSource implements cli.ValueSource for a map loaded from YAML
type YamlSource struct {
	data map[string]any
	key  string
}

func (y *YamlSource) Lookup() (string, bool) {
	if v, ok := y.data[y.key]; ok {
		// Handle slices by joining with comma
		if slice, ok := v.([]any); ok {
			var strs []string
			for _, item := range slice {
				strs = append(strs, fmt.Sprintf("%v", item))
			}
			return strings.Join(strs, ","), true
		}
		return fmt.Sprintf("%v", v), true
	}
	return "", false
}

func (y *YamlSource) String() string   { return "yaml" }
func (y *YamlSource) GoString() string { return "yaml" }

func GetFlags() []cli.Flag {
	// Pre-parse config path
	configPath := getConfigPath()
	var configData map[string]any
	if configPath != "" {
		data, err := os.ReadFile(configPath)
		if err == nil {
			_ = yaml.Unmarshal(data, &configData)
		} else {
			fmt.Fprintf(os.Stderr, "Warning: failed to read config file %s: %v\n", configPath, err)
		}
	}

	// Helper to create sources: EnvVar > YAML > Default
	src := func(key string, env ...string) cli.ValueSourceChain {
		chain := cli.ValueSourceChain{}
		for _, e := range env {
			chain.Chain = append(chain.Chain, cli.EnvVar(e))
		}
		if configData != nil {
			chain.Chain = append(chain.Chain, &YamlSource{data: configData, key: key})
		}
		return chain
	}

	return []cli.Flag{
		// Config file
		&cli.StringFlag{Name: "config", Aliases: []string{"b"}, Usage: "use the named configuration file", Sources: cli.EnvVars("FOUNDRYCTL_CONFIG")},

		// Endpoint configuration
		&cli.StringFlag{Name: "endpoint", Aliases: []string{"e"}, Usage: "Azure OpenAI resource endpoint URL", Sources: src("endpoint", "FOUNDRYCTL_ENDPOINT", "AZURE_OPENAI_ENDPOINT")},
		&cli.StringFlag{Name: "apikey", Aliases: []string{"k"}, Usage: "API key for the endpoint (omit to use ambient Azure identity)", Sources: src("apikey", "FOUNDRYCTL_APIKEY", "AZURE_OPENAI_API_KEY")},
		&cli.StringFlag{Name: "apiversion", Value: "2024-02-15-preview", Usage: "Azure OpenAI REST API version", Sources: src("apiversion", "FOUNDRYCTL_APIVERSION")},
		&cli.DurationFlag{Name: "apitimeout", Aliases: []string{"t"}, Value: time.Minute * 5, Usage: "timeout for each completion request", Sources: src("apitimeout", "FOUNDRYCTL_APITIMEOUT")},

		// Model configuration
		&cli.StringFlag{Name: "deployment", Aliases: []string{"d"}, Value: "gpt-4.1", Usage: "model deployment name to send requests to", Sources: src("deployment", "FOUNDRYCTL_DEPLOYMENT", "AZURE_OPENAI_DEPLOYMENT")},
		&cli.IntFlag{Name: "maxtokens", Value: 4096, Usage: "maximum number of tokens to generate", Sources: src("maxtokens", "FOUNDRYCTL_MAXTOKENS")},
		&cli.FloatFlag{Name: "temperature", Value: 0.7, Usage: "temperature for the completion", Sources: src("temperature", "FOUNDRYCTL_TEMPERATURE")},
		&cli.FloatFlag{Name: "top_p", Value: 1.0, Usage: "top P value for the completion", Sources: src("top_p", "FOUNDRYCTL_TOP_P")},
		&cli.StringSliceFlag{Name: "stop", Usage: "comma-separated stop sequences", Sources: src("stop", "FOUNDRYCTL_STOP")},
		&cli.BoolFlag{Name: "stream", Usage: "request a streamed response (drained to a single message)", Sources: src("stream", "FOUNDRYCTL_STREAM")},
		&cli.StringFlag{Name: "prompt", Value: "You are a helpful assistant.", Usage: "system prompt for chat completions", Sources: src("prompt", "FOUNDRYCTL_PROMPT")},

		// Agent configuration
		&cli.StringFlag{Name: "agentname", Value: "data-analysis-agent", Usage: "name for the code interpreter agent", Sources: src("agentname", "FOUNDRYCTL_AGENTNAME")},
		&cli.StringFlag{Name: "instructions", Value: "You are a helpful data analysis assistant. Use the code interpreter to analyze uploaded data and create charts when asked.", Usage: "instructions for the agent", Sources: src("instructions", "FOUNDRYCTL_INSTRUCTIONS")},
		&cli.StringFlag{Name: "data", Value: "sample_sales_data.csv", Usage: "CSV file to upload for the agent session", Sources: src("data", "FOUNDRYCTL_DATA")},
		&cli.StringFlag{Name: "outdir", Aliases: []string{"o"}, Value: ".", Usage: "directory for downloaded agent artifacts", Sources: src("outdir", "FOUNDRYCTL_OUTDIR")},
		&cli.DurationFlag{Name: "pollinterval", Value: time.Second * 2, Usage: "interval between agent run status checks", Sources: src("pollinterval", "FOUNDRYCTL_POLLINTERVAL")},
		&cli.DurationFlag{Name: "runtimeout", Value: time.Minute * 10, Usage: "give up on an agent run after this long", Sources: src("runtimeout", "FOUNDRYCTL_RUNTIMEOUT")},

		// Evaluation configuration
		&cli.StringFlag{Name: "dataset", Value: "eval_data.jsonl", Usage: "JSONL dataset of query/context/response records", Sources: src("dataset", "FOUNDRYCTL_DATASET")},
		&cli.StringSliceFlag{Name: "evaluator", Usage: "evaluators to run (default: all quality evaluators)", Sources: src("evaluator", "FOUNDRYCTL_EVALUATOR")},

		// Recipe generation
		&cli.StringFlag{Name: "prompts", Value: "prompts.yaml", Usage: "YAML file with a top-level list of recipe prompts", Sources: src("prompts", "FOUNDRYCTL_PROMPTS")},
		&cli.StringFlag{Name: "sysmsg", Value: "system_message.md", Usage: "system message file for recipe generation", Sources: src("sysmsg", "FOUNDRYCTL_SYSMSG")},
		&cli.StringFlag{Name: "contextfile", Value: "system_message_context.md", Usage: "markdown context file appended to the system message", Sources: src("contextfile", "FOUNDRYCTL_CONTEXTFILE")},
		&cli.StringFlag{Name: "contextsources", Value: "system_message_context.yml", Usage: "YAML list of {title, url} sources for fetch-context", Sources: src("contextsources", "FOUNDRYCTL_CONTEXTSOURCES")},
		&cli.StringFlag{Name: "docsdir", Value: "docs", Usage: "output directory for generated recipes", Sources: src("docsdir", "FOUNDRYCTL_DOCSDIR")},

		&cli.BoolFlag{Name: "verbose", Aliases: []string{"V"}, Usage: "enable verbose logging", Sources: src("verbose", "FOUNDRYCTL_VERBOSE")},
	}
}

func getConfigPath() string {
	// Check env first
	if v := os.Getenv("FOUNDRYCTL_CONFIG"); v != "" {
		return v
	}
	// Check args
	for i, arg := range os.Args {
		if arg == "--config" || arg == "-b" {
			if i+1 < len(os.Args) {
				return os.Args[i+1]
			}
		}
		if strings.HasPrefix(arg, "--config=") {
			return strings.TrimPrefix(arg, "--config=")
		}
	}
	return ""
}

func NewConfiguration(c *cli.Command) *Configuration {
	return &Configuration{
		API: &APIConfig{
			Endpoint:   c.String("endpoint"),
			APIKey:     c.String("apikey"),
			APIVersion: c.String("apiversion"),
			Timeout:    c.Duration("apitimeout"),
		},
		Model: &ModelConfig{
			Deployment:  c.String("deployment"),
			MaxTokens:   c.Int("maxtokens"),
			Temperature: float32(c.Float("temperature")),
			TopP:        float32(c.Float("top_p")),
			Stop:        c.StringSlice("stop"),
			Stream:      c.Bool("stream"),
			Prompt:      c.String("prompt"),
		},
		Agent: &AgentConfig{
			Name:         c.String("agentname"),
			Instructions: c.String("instructions"),
			Data:         c.String("data"),
			OutputDir:    c.String("outdir"),
			PollInterval: c.Duration("pollinterval"),
			RunTimeout:   c.Duration("runtimeout"),
		},
		Eval: &EvalConfig{
			Dataset:    c.String("dataset"),
			Evaluators: c.StringSlice("evaluator"),
		},
		Recipes: &RecipeConfig{
			Prompts:        c.String("prompts"),
			SystemMessage:  c.String("sysmsg"),
			ContextFile:    c.String("contextfile"),
			ContextSources: c.String("contextsources"),
			DocsDir:        c.String("docsdir"),
		},
		Verbose: c.Bool("verbose"),
	}
}

// Verify fails fast on missing required configuration. A missing value is
// a startup error, not something to retry or fall back from.
func (c *Configuration) Verify() error {
	if c.API.Endpoint == "" {
		return fmt.Errorf("missing required configuration: endpoint (set AZURE_OPENAI_ENDPOINT or pass --endpoint)")
	}
	if !strings.HasPrefix(c.API.Endpoint, "https://") && !strings.HasPrefix(c.API.Endpoint, "http://") {
		return fmt.Errorf("endpoint %q is not a URL", c.API.Endpoint)
	}
	if c.Model.Deployment == "" {
		return fmt.Errorf("missing required configuration: deployment (set AZURE_OPENAI_DEPLOYMENT or pass --deployment)")
	}
	return nil
}

func (c *Configuration) PrintConfig() {
	fmt.Printf("endpoint: %s\n", c.API.Endpoint)
	fmt.Printf("apikey: %s\n", MaskKey(c.API.APIKey))
	fmt.Printf("apiversion: %s\n", c.API.APIVersion)
	fmt.Printf("apitimeout: %s\n", c.API.Timeout)
	fmt.Printf("deployment: %s\n", c.Model.Deployment)
	fmt.Printf("maxtokens: %d\n", c.Model.MaxTokens)
	fmt.Printf("temperature: %f\n", c.Model.Temperature)
	fmt.Printf("top_p: %f\n", c.Model.TopP)
	fmt.Printf("stop: %v\n", c.Model.Stop)
	fmt.Printf("stream: %t\n", c.Model.Stream)
	fmt.Printf("prompt: %s\n", c.Model.Prompt)
	fmt.Printf("agentname: %s\n", c.Agent.Name)
	fmt.Printf("data: %s\n", c.Agent.Data)
	fmt.Printf("outdir: %s\n", c.Agent.OutputDir)
	fmt.Printf("pollinterval: %s\n", c.Agent.PollInterval)
	fmt.Printf("runtimeout: %s\n", c.Agent.RunTimeout)
	fmt.Printf("dataset: %s\n", c.Eval.Dataset)
	fmt.Printf("verbose: %t\n", c.Verbose)
}

// MaskKey hides all but the last three characters of a secret.
func MaskKey(key string) string {
	if len(key) > 3 {
		return strings.Repeat("*", len(key)-3) + key[len(key)-3:]
	}
	return key
}
