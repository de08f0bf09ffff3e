package llm

import (
	"context"
	"fmt"
	"log/slog"
	"net/http"

	"github.com/Azure/azure-sdk-for-go/sdk/azcore/policy"
	"github.com/Azure/azure-sdk-for-go/sdk/azidentity"
	openai "github.com/sashabaranov/go-openai"

	"foundrylabs/foundryctl/internal/config"
)

// cognitiveScope is the AAD token scope for Azure AI services.
const cognitiveScope = "https://cognitiveservices.azure.com/.default"

type chatAPI interface {
	CreateChatCompletion(ctx context.Context, request openai.ChatCompletionRequest) (openai.ChatCompletionResponse, error)
}

// AzureClient is a Client backed by an Azure OpenAI deployment.
type AzureClient struct {
	api  *openai.Client
	chat chatAPI
}

var _ Client = (*AzureClient)(nil)

// NewAzureClient builds a client for the configured endpoint. An explicit
// API key wins; without one the ambient Azure identity is resolved and
// its bearer token used instead. Token refresh is left to the identity
// library.
func NewAzureClient(ctx context.Context, cfg *config.APIConfig) (*AzureClient, error) {
	var cc openai.ClientConfig
	if cfg.APIKey != "" {
		cc = openai.DefaultAzureConfig(cfg.APIKey, cfg.Endpoint)
	} else {
		slog.Debug("no api key configured, resolving ambient azure identity")
		cred, err := azidentity.NewDefaultAzureCredential(nil)
		if err != nil {
			return nil, fmt.Errorf("resolving ambient azure identity: %w", err)
		}
		token, err := cred.GetToken(ctx, policy.TokenRequestOptions{Scopes: []string{cognitiveScope}})
		if err != nil {
			return nil, fmt.Errorf("acquiring azure token: %w", err)
		}
		cc = openai.DefaultAzureConfig(token.Token, cfg.Endpoint)
		cc.APIType = openai.APITypeAzureAD
	}
	cc.APIVersion = cfg.APIVersion
	if cfg.Timeout > 0 {
		cc.HTTPClient = &http.Client{Timeout: cfg.Timeout}
	}

	api := openai.NewClientWithConfig(cc)
	return &AzureClient{api: api, chat: api}, nil
}

// Assistants exposes the underlying SDK client for the assistants,
// threads, runs, and files surface.
func (c *AzureClient) Assistants() *openai.Client {
	return c.api
}

// Complete sends one request and waits for one response. No retry, no
// backoff; remote failures surface as wrapped SDK errors.
func (c *AzureClient) Complete(ctx context.Context, req *CompletionRequest) (*Completion, error) {
	resp, err := c.chat.CreateChatCompletion(ctx, toChatRequest(req))
	if err != nil {
		return nil, fmt.Errorf("chat completion against %s: %w", req.Deployment, err)
	}
	if len(resp.Choices) == 0 {
		return nil, fmt.Errorf("chat completion against %s returned no choices", req.Deployment)
	}

	choice := resp.Choices[0]
	return &Completion{
		Content:      choice.Message.Content,
		FinishReason: string(choice.FinishReason),
		Usage: Usage{
			PromptTokens:     resp.Usage.PromptTokens,
			CompletionTokens: resp.Usage.CompletionTokens,
			TotalTokens:      resp.Usage.TotalTokens,
		},
	}, nil
}

// toChatRequest maps a CompletionRequest onto the SDK request type,
// preserving message order. Stream is never forwarded: the synchronous
// endpoint is used even when the flag is set.
func toChatRequest(req *CompletionRequest) openai.ChatCompletionRequest {
	msgs := make([]openai.ChatCompletionMessage, 0, len(req.Messages))
	for _, m := range req.Messages {
		msgs = append(msgs, openai.ChatCompletionMessage{Role: m.Role, Content: m.Content})
	}
	return openai.ChatCompletionRequest{
		Model:       req.Deployment,
		Messages:    msgs,
		MaxTokens:   req.MaxTokens,
		Temperature: req.Temperature,
		TopP:        req.TopP,
		Stop:        req.Stop,
	}
}

// NewCompletionRequest seeds a request from model configuration.
func NewCompletionRequest(cfg *config.Configuration, messages []Message) *CompletionRequest {
	return &CompletionRequest{
		Deployment:  cfg.Model.Deployment,
		Messages:    messages,
		MaxTokens:   cfg.Model.MaxTokens,
		Temperature: cfg.Model.Temperature,
		TopP:        cfg.Model.TopP,
		Stop:        cfg.Model.Stop,
		Stream:      cfg.Model.Stream,
	}
}
