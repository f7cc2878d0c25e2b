// Package llm exposes the language-model capability the automations consume.
// The engine treats the model as opaque: prompts in, text out, with network,
// quota, and auth failures surfacing as ordinary errors.
package llm

import "context"

// Message roles.
const (
	RoleSystem    = "system"
	RoleUser      = "user"
	RoleAssistant = "assistant"
)

// Message is one entry in a chat conversation.
type Message struct {
	Role    string `json:"role"`
	Content string `json:"content"`
}

// Options tunes a single request. Zero values mean provider defaults.
type Options struct {
	Model       string  `json:"model,omitempty"`
	Temperature float64 `json:"temperature,omitempty"`
	MaxTokens   int     `json:"max_tokens,omitempty"`
}

// Usage reports token accounting from the provider.
type Usage struct {
	PromptTokens     int `json:"prompt_tokens"`
	CompletionTokens int `json:"completion_tokens"`
	TotalTokens      int `json:"total_tokens"`
}

// Choice is one completion candidate.
type Choice struct {
	Message Message `json:"message"`
}

// ChatResponse is the provider's reply to a chat completion request.
type ChatResponse struct {
	Choices []Choice `json:"choices"`
	Usage   Usage    `json:"usage"`
}

// Content returns the first choice's text, or "" when the provider returned
// no choices.
func (r *ChatResponse) Content() string {
	if r == nil || len(r.Choices) == 0 {
		return ""
	}
	return r.Choices[0].Message.Content
}

// Client is the model capability. Both methods may fail with network, quota,
// or auth errors; callers decide whether that is fatal.
type Client interface {
	// GenerateText sends a single prompt (with an optional system prompt)
	// and returns the raw completion text.
	GenerateText(ctx context.Context, prompt, systemPrompt string, opts *Options) (string, error)

	// CreateChatCompletion sends a full conversation history.
	CreateChatCompletion(ctx context.Context, messages []Message, opts *Options) (*ChatResponse, error)
}
