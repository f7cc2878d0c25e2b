package llm

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"github.com/harms-haus/memoriae/internal/config"
	"github.com/harms-haus/memoriae/internal/db"
	"github.com/harms-haus/memoriae/internal/errors"
)

// HTTPClient talks to an OpenAI-compatible chat completion endpoint.
type HTTPClient struct {
	baseURL string
	apiKey  string
	model   string
	client  *http.Client
}

var _ Client = (*HTTPClient)(nil)

// NewHTTPClient creates a client for the given endpoint.
func NewHTTPClient(baseURL, apiKey, model string) *HTTPClient {
	return &HTTPClient{
		baseURL: strings.TrimSuffix(baseURL, "/"),
		apiKey:  apiKey,
		model:   model,
		client:  &http.Client{Timeout: 120 * time.Second},
	}
}

// FromSettings builds the model capability for one user from their stored
// settings, falling back to application config defaults for endpoint and
// model. Returns UNCONFIGURED when no API key is on file; the worker treats
// that as a graceful skip, not a job failure.
func FromSettings(settings *db.UserSettings, cfg *config.Config) (Client, error) {
	if settings == nil || settings.LLMAPIKey == "" {
		return nil, errors.NewUnconfigured("no language model credential configured")
	}
	baseURL := settings.LLMBaseURL
	if baseURL == "" {
		baseURL = cfg.LLMBaseURL
	}
	model := settings.LLMModel
	if model == "" {
		model = cfg.LLMModel
	}
	return NewHTTPClient(baseURL, settings.LLMAPIKey, model), nil
}

// GenerateText implements Client.
func (c *HTTPClient) GenerateText(ctx context.Context, prompt, systemPrompt string, opts *Options) (string, error) {
	var messages []Message
	if systemPrompt != "" {
		messages = append(messages, Message{Role: RoleSystem, Content: systemPrompt})
	}
	messages = append(messages, Message{Role: RoleUser, Content: prompt})

	resp, err := c.CreateChatCompletion(ctx, messages, opts)
	if err != nil {
		return "", err
	}
	return resp.Content(), nil
}

// CreateChatCompletion implements Client.
func (c *HTTPClient) CreateChatCompletion(ctx context.Context, messages []Message, opts *Options) (*ChatResponse, error) {
	model := c.model
	var temperature float64
	var maxTokens int
	if opts != nil {
		if opts.Model != "" {
			model = opts.Model
		}
		temperature = opts.Temperature
		maxTokens = opts.MaxTokens
	}

	body := map[string]any{
		"model":    model,
		"messages": messages,
	}
	if temperature != 0 {
		body["temperature"] = temperature
	}
	if maxTokens != 0 {
		body["max_tokens"] = maxTokens
	}

	payload, err := json.Marshal(body)
	if err != nil {
		return nil, fmt.Errorf("failed to encode request: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+"/chat/completions", bytes.NewReader(payload))
	if err != nil {
		return nil, fmt.Errorf("failed to build request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Authorization", "Bearer "+c.apiKey)

	resp, err := c.client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("chat completion request failed: %w", err)
	}
	defer resp.Body.Close()

	data, err := io.ReadAll(io.LimitReader(resp.Body, 10<<20))
	if err != nil {
		return nil, fmt.Errorf("failed to read response: %w", err)
	}
	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("chat completion returned %d: %s", resp.StatusCode, truncate(string(data), 500))
	}

	var parsed ChatResponse
	if err := json.Unmarshal(data, &parsed); err != nil {
		return nil, fmt.Errorf("failed to decode response: %w", err)
	}
	return &parsed, nil
}

func truncate(s string, n int) string {
	if len(s) <= n {
		return s
	}
	return s[:n] + "..."
}
