// Package llm holds the chat completion client and the request/response
// types shared by the chat, eval, and recipe components.
package llm

import "context"

const (
	MessageRoleSystem    = "system"
	MessageRoleUser      = "user"
	MessageRoleAssistant = "assistant"
)

// Message is one role-tagged entry in a conversation. Order in the
// transcript is meaningful and is preserved all the way to the wire.
type Message struct {
	Role    string
	Content string
}

// CompletionRequest carries everything one completion call needs. The
// Stream flag is accepted for callers that track it, but it is never
// forwarded: responses are always drained to a single message.
type CompletionRequest struct {
	Deployment  string
	Messages    []Message
	MaxTokens   int
	Temperature float32
	TopP        float32
	Stop        []string
	Stream      bool
}

type Usage struct {
	PromptTokens     int
	CompletionTokens int
	TotalTokens      int
}

// Completion is the first-choice result of a completion call.
type Completion struct {
	Content      string
	FinishReason string
	Usage        Usage
}

// Client is the interface command and evaluation code depends on.
type Client interface {
	Complete(ctx context.Context, req *CompletionRequest) (*Completion, error)
}

// Transcript builds an ordered message list. Append order is insertion
// order; nothing is deduplicated, validated, or reordered.
type Transcript []Message

func (t Transcript) System(content string) Transcript {
	return append(t, Message{Role: MessageRoleSystem, Content: content})
}

func (t Transcript) User(content string) Transcript {
	return append(t, Message{Role: MessageRoleUser, Content: content})
}

func (t Transcript) Assistant(content string) Transcript {
	return append(t, Message{Role: MessageRoleAssistant, Content: content})
}
