package analyzer

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"
)

const (
	OpenAIBaseURL     = "https://api.openai.com/v1"
	OpenRouterBaseURL = "https://openrouter.ai/api/v1"

	maxResponseBytes = 4 << 20
)

type ChatRequest struct {
	Model       string        `json:"model"`
	Messages    []ChatMessage `json:"messages"`
	Temperature *float64      `json:"temperature,omitempty"`
}

type ChatMessage struct {
	Role    string `json:"role"`
	Content string `json:"content"`
}

type ChatResponse struct {
	Choices []struct {
		Message ChatMessage `json:"message"`
	} `json:"choices"`
	Error *apiErrorBody `json:"error,omitempty"`
}

type apiErrorBody struct {
	Message string          `json:"message"`
	Type    string          `json:"type"`
	Code    json.RawMessage `json:"code"`
}

type OpenAIConfig struct {
	Name    string
	APIKey  string
	BaseURL string
	Model   string
	Timeout time.Duration
	Headers map[string]string
}

// OpenAIProvider talks to any OpenAI-compatible chat completions endpoint.
type OpenAIProvider struct {
	cfg    OpenAIConfig
	client *http.Client
}

func NewOpenAIProvider(cfg OpenAIConfig) *OpenAIProvider {
	if cfg.Name == "" {
		cfg.Name = "OpenAI"
	}
	if cfg.BaseURL == "" {
		cfg.BaseURL = OpenAIBaseURL
	}
	cfg.BaseURL = strings.TrimRight(cfg.BaseURL, "/")
	if cfg.Timeout <= 0 {
		cfg.Timeout = 60 * time.Second
	}

	return &OpenAIProvider{
		cfg: cfg,
		client: &http.Client{
			Timeout: cfg.Timeout,
		},
	}
}

// NewOpenRouterProvider uses the OpenAI wire format against OpenRouter.
func NewOpenRouterProvider(apiKey, model string, timeout time.Duration) *OpenAIProvider {
	return NewOpenAIProvider(OpenAIConfig{
		Name:    "OpenRouter",
		APIKey:  apiKey,
		BaseURL: OpenRouterBaseURL,
		Model:   model,
		Timeout: timeout,
		Headers: map[string]string{
			"HTTP-Referer": "https://github.com/BerylCAtieno/invoice-analyzer-api",
			"X-Title":      "Invoice Analyzer",
		},
	})
}

func (p *OpenAIProvider) Name() string {
	return p.cfg.Name
}

func (p *OpenAIProvider) Complete(ctx context.Context, in CompletionRequest) (string, error) {
	temperature := in.Temperature
	reqBody := ChatRequest{
		Model: p.cfg.Model,
		Messages: []ChatMessage{
			{Role: "system", Content: in.System},
			{Role: "user", Content: in.User},
		},
		Temperature: &temperature,
	}

	jsonData, err := json.Marshal(reqBody)
	if err != nil {
		return "", fmt.Errorf("failed to marshal request: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, p.cfg.BaseURL+"/chat/completions", bytes.NewReader(jsonData))
	if err != nil {
		return "", fmt.Errorf("failed to create request: %w", err)
	}

	req.Header.Set("Authorization", "Bearer "+p.cfg.APIKey)
	req.Header.Set("Content-Type", "application/json")
	for k, v := range p.cfg.Headers {
		req.Header.Set(k, v)
	}

	resp, err := p.client.Do(req)
	if err != nil {
		return "", fmt.Errorf("failed to send request: %w", err)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(io.LimitReader(resp.Body, maxResponseBytes))
	if err != nil {
		return "", fmt.Errorf("failed to read response: %w", err)
	}

	if resp.StatusCode != http.StatusOK {
		return "", p.apiError(resp.StatusCode, body)
	}

	var chatResp ChatResponse
	if err := json.Unmarshal(body, &chatResp); err != nil {
		return "", fmt.Errorf("failed to unmarshal response: %w", err)
	}

	// Some gateways report failures inside a 200 body.
	if chatResp.Error != nil {
		return "", p.errorFromBody(resp.StatusCode, chatResp.Error)
	}

	if len(chatResp.Choices) == 0 {
		return "", ErrEmptyResponse
	}

	return chatResp.Choices[0].Message.Content, nil
}

func (p *OpenAIProvider) apiError(statusCode int, body []byte) *APIError {
	var envelope struct {
		Error *apiErrorBody `json:"error"`
	}
	if err := json.Unmarshal(body, &envelope); err == nil && envelope.Error != nil {
		return p.errorFromBody(statusCode, envelope.Error)
	}
	return &APIError{
		Provider:   p.cfg.Name,
		StatusCode: statusCode,
		Message:    strings.TrimSpace(string(body)),
	}
}

func (p *OpenAIProvider) errorFromBody(statusCode int, body *apiErrorBody) *APIError {
	apiErr := &APIError{
		Provider:   p.cfg.Name,
		StatusCode: statusCode,
		Type:       body.Type,
		Code:       rawCode(body.Code),
		Message:    body.Message,
	}
	// OpenRouter puts the HTTP status in the numeric code field.
	if statusCode == http.StatusOK {
		var numeric int
		if err := json.Unmarshal(body.Code, &numeric); err == nil && numeric >= 400 {
			apiErr.StatusCode = numeric
		}
	}
	return apiErr
}

// rawCode accepts both string and numeric error codes.
func rawCode(raw json.RawMessage) string {
	if len(raw) == 0 || string(raw) == "null" {
		return ""
	}
	var s string
	if err := json.Unmarshal(raw, &s); err == nil {
		return s
	}
	return string(raw)
}
