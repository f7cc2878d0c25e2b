package llm

import (
	"context"
	"sync"
)

// Fake is a scripted Client for tests. Each call pops the next reply; an
// exhausted script repeats the last one. Err, when set, fails every call.
type Fake struct {
	mu      sync.Mutex
	Replies []string
	Err     error

	// Calls records the conversation sent on each CreateChatCompletion call.
	Calls [][]Message
	next  int
}

var _ Client = (*Fake)(nil)

// FakeFunc is a Client whose reply is computed per call from the
// conversation so far.
type FakeFunc struct {
	Fn func(messages []Message) (string, error)
}

var _ Client = (*FakeFunc)(nil)

func (f *Fake) GenerateText(ctx context.Context, prompt, systemPrompt string, opts *Options) (string, error) {
	resp, err := f.CreateChatCompletion(ctx, []Message{
		{Role: RoleSystem, Content: systemPrompt},
		{Role: RoleUser, Content: prompt},
	}, opts)
	if err != nil {
		return "", err
	}
	return resp.Content(), nil
}

func (f *Fake) CreateChatCompletion(ctx context.Context, messages []Message, opts *Options) (*ChatResponse, error) {
	f.mu.Lock()
	defer f.mu.Unlock()

	if f.Err != nil {
		return nil, f.Err
	}

	recorded := make([]Message, len(messages))
	copy(recorded, messages)
	f.Calls = append(f.Calls, recorded)

	if len(f.Replies) == 0 {
		return &ChatResponse{Choices: []Choice{{Message: Message{Role: RoleAssistant}}}}, nil
	}
	reply := f.Replies[min(f.next, len(f.Replies)-1)]
	f.next++
	return &ChatResponse{
		Choices: []Choice{{Message: Message{Role: RoleAssistant, Content: reply}}},
		Usage:   Usage{TotalTokens: len(reply)},
	}, nil
}

// CallCount returns how many completions were requested.
func (f *Fake) CallCount() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return len(f.Calls)
}

func (f *FakeFunc) GenerateText(ctx context.Context, prompt, systemPrompt string, opts *Options) (string, error) {
	return f.Fn([]Message{
		{Role: RoleSystem, Content: systemPrompt},
		{Role: RoleUser, Content: prompt},
	})
}

func (f *FakeFunc) CreateChatCompletion(ctx context.Context, messages []Message, opts *Options) (*ChatResponse, error) {
	content, err := f.Fn(messages)
	if err != nil {
		return nil, err
	}
	return &ChatResponse{Choices: []Choice{{Message: Message{Role: RoleAssistant, Content: content}}}}, nil
}
