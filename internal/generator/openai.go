package generator

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"
)

// ChatConfig configures an OpenAI-compatible chat-completions endpoint and
// HTTP behavior. Groq exposes the same wire format at a different base URL,
// so both providers share this adapter.
type ChatConfig struct {
	Name       string
	BaseURL    string
	APIKey     string
	Model      string
	HTTPClient *http.Client
}

type chatClient struct {
	cfg ChatConfig
}

// NewOpenAIClient builds a provider backed by the OpenAI chat-completions API.
// Returns nil when no API key is configured, which the chain skips.
func NewOpenAIClient(apiKey, model string, httpClient *http.Client) Provider {
	if strings.TrimSpace(apiKey) == "" {
		return nil
	}
	return &chatClient{cfg: ChatConfig{
		Name:       "openai",
		BaseURL:    "https://api.openai.com/v1",
		APIKey:     apiKey,
		Model:      model,
		HTTPClient: httpClient,
	}}
}

// NewGroqClient builds a provider backed by Groq's OpenAI-compatible API.
func NewGroqClient(apiKey, model string, httpClient *http.Client) Provider {
	if strings.TrimSpace(apiKey) == "" {
		return nil
	}
	return &chatClient{cfg: ChatConfig{
		Name:       "groq",
		BaseURL:    "https://api.groq.com/openai/v1",
		APIKey:     apiKey,
		Model:      model,
		HTTPClient: httpClient,
	}}
}

// NewChatClient builds a provider against an arbitrary OpenAI-compatible
// endpoint; tests point this at a local httptest server.
func NewChatClient(cfg ChatConfig) Provider {
	return &chatClient{cfg: cfg}
}

func (c *chatClient) Name() string {
	return c.cfg.Name
}

type chatRequest struct {
	Model       string        `json:"model"`
	Messages    []chatMessage `json:"messages"`
	Temperature float64       `json:"temperature"`
	MaxTokens   int           `json:"max_tokens"`
}

type chatMessage struct {
	Role    string `json:"role"`
	Content string `json:"content"`
}

type chatResponse struct {
	Choices []struct {
		Message struct {
			Content string `json:"content"`
		} `json:"message"`
	} `json:"choices"`
}

func (c *chatClient) Generate(ctx context.Context, req Request) (string, error) {
	payload := chatRequest{
		Model: c.cfg.Model,
		Messages: []chatMessage{
			{Role: "system", Content: buildSystemPrompt(req)},
			{Role: "user", Content: buildUserPrompt(req)},
		},
		Temperature: 0.9,
		MaxTokens:   900,
	}

	body, err := json.Marshal(payload)
	if err != nil {
		return "", fmt.Errorf("marshal request: %w", err)
	}

	httpReq, err := http.NewRequestWithContext(ctx, http.MethodPost,
		strings.TrimSuffix(c.cfg.BaseURL, "/")+"/chat/completions", bytes.NewReader(body))
	if err != nil {
		return "", err
	}
	httpReq.Header.Set("Content-Type", "application/json")
	httpReq.Header.Set("Authorization", "Bearer "+c.cfg.APIKey)

	client := c.cfg.HTTPClient
	if client == nil {
		client = http.DefaultClient
	}

	resp, err := client.Do(httpReq)
	if err != nil {
		return "", fmt.Errorf("%s request: %w", c.cfg.Name, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		detail, _ := io.ReadAll(io.LimitReader(resp.Body, 1024))
		return "", fmt.Errorf("%s http %d: %s", c.cfg.Name, resp.StatusCode, string(detail))
	}

	var parsed chatResponse
	if err := json.NewDecoder(resp.Body).Decode(&parsed); err != nil {
		return "", fmt.Errorf("%s decode: %w", c.cfg.Name, err)
	}
	if len(parsed.Choices) == 0 {
		return "", fmt.Errorf("%s: empty completion", c.cfg.Name)
	}

	return parsed.Choices[0].Message.Content, nil
}
