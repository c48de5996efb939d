package generator

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
)

// GeminiConfig configures the Google generative-language endpoint.
type GeminiConfig struct {
	BaseURL    string
	APIKey     string
	Model      string
	HTTPClient *http.Client
}

type geminiClient struct {
	cfg GeminiConfig
}

// NewGeminiClient builds a provider backed by the Gemini generateContent API.
// Returns nil when no API key is configured, which the chain skips.
func NewGeminiClient(apiKey, model string, httpClient *http.Client) Provider {
	if strings.TrimSpace(apiKey) == "" {
		return nil
	}
	return &geminiClient{cfg: GeminiConfig{
		BaseURL:    "https://generativelanguage.googleapis.com/v1beta",
		APIKey:     apiKey,
		Model:      model,
		HTTPClient: httpClient,
	}}
}

func (c *geminiClient) Name() string {
	return "gemini"
}

type geminiRequest struct {
	Contents         []geminiContent `json:"contents"`
	GenerationConfig geminiGenConfig `json:"generationConfig"`
}

type geminiContent struct {
	Parts []geminiPart `json:"parts"`
}

type geminiPart struct {
	Text string `json:"text"`
}

type geminiGenConfig struct {
	ResponseMIMEType string  `json:"response_mime_type"`
	Temperature      float64 `json:"temperature"`
}

type geminiResponse struct {
	Candidates []struct {
		Content struct {
			Parts []struct {
				Text string `json:"text"`
			} `json:"parts"`
		} `json:"content"`
	} `json:"candidates"`
}

func (c *geminiClient) Generate(ctx context.Context, req Request) (string, error) {
	payload := geminiRequest{
		Contents: []geminiContent{{
			Parts: []geminiPart{{Text: buildSystemPrompt(req) + "\n\n" + buildUserPrompt(req)}},
		}},
		GenerationConfig: geminiGenConfig{
			ResponseMIMEType: "application/json",
			Temperature:      0.9,
		},
	}

	body, err := json.Marshal(payload)
	if err != nil {
		return "", fmt.Errorf("marshal request: %w", err)
	}

	endpoint := fmt.Sprintf("%s/models/%s:generateContent?key=%s",
		strings.TrimSuffix(c.cfg.BaseURL, "/"), url.PathEscape(c.cfg.Model), url.QueryEscape(c.cfg.APIKey))

	httpReq, err := http.NewRequestWithContext(ctx, http.MethodPost, endpoint, bytes.NewReader(body))
	if err != nil {
		return "", err
	}
	httpReq.Header.Set("Content-Type", "application/json")

	client := c.cfg.HTTPClient
	if client == nil {
		client = http.DefaultClient
	}

	resp, err := client.Do(httpReq)
	if err != nil {
		return "", fmt.Errorf("gemini request: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		detail, _ := io.ReadAll(io.LimitReader(resp.Body, 1024))
		return "", fmt.Errorf("gemini http %d: %s", resp.StatusCode, string(detail))
	}

	var parsed geminiResponse
	if err := json.NewDecoder(resp.Body).Decode(&parsed); err != nil {
		return "", fmt.Errorf("gemini decode: %w", err)
	}
	if len(parsed.Candidates) == 0 || len(parsed.Candidates[0].Content.Parts) == 0 {
		return "", fmt.Errorf("gemini: empty completion")
	}

	return parsed.Candidates[0].Content.Parts[0].Text, nil
}
