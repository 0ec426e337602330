package ai

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"
)

const defaultBaseURL = "https://api.anthropic.com"

// anthropicClient implements the Client interface for the Anthropic API.
type anthropicClient struct {
	httpClient  *http.Client
	apiKey      string
	model       string
	baseURL     string
	temperature float64
	maxTokens   int
}

// ClientConfig holds configuration for the external model client.
type ClientConfig struct {
	APIKey      string
	Model       string
	BaseURL     string
	Temperature float64
	MaxTokens   int
}

// NewAnthropicClient creates a new Anthropic API client. A missing API key
// is not an error here; Generate fails fast with API_KEY_MISSING instead so
// the configuration problem surfaces per call without any network traffic.
func NewAnthropicClient(cfg ClientConfig) Client {
	model := cfg.Model
	if model == "" {
		model = "claude-3-5-haiku-latest"
	}

	maxTokens := cfg.MaxTokens
	if maxTokens == 0 {
		maxTokens = 150
	}

	baseURL := cfg.BaseURL
	if baseURL == "" {
		baseURL = defaultBaseURL
	}

	return &anthropicClient{
		apiKey:      cfg.APIKey,
		model:       model,
		baseURL:     baseURL,
		temperature: cfg.Temperature,
		maxTokens:   maxTokens,
		httpClient: &http.Client{
			Timeout: 30 * time.Second,
			Transport: &http.Transport{
				MaxIdleConns:        100,
				MaxIdleConnsPerHost: 10,
				IdleConnTimeout:     90 * time.Second,
			},
		},
	}
}

// anthropicResponse represents the Anthropic API response structure.
type anthropicResponse struct {
	Content []struct {
		Type string `json:"type"`
		Text string `json:"text"`
	} `json:"content"`
	Usage struct {
		InputTokens  int `json:"input_tokens"`
		OutputTokens int `json:"output_tokens"`
	} `json:"usage"`
}

// Generate sends a single-message completion request to Anthropic.
func (c *anthropicClient) Generate(ctx context.Context, prompt string) (Generation, error) {
	if c.apiKey == "" {
		return Generation{}, newError(CodeAPIKeyMissing, "no API credential configured", nil)
	}

	requestBody := map[string]any{
		"model":       c.model,
		"max_tokens":  c.maxTokens,
		"temperature": c.temperature,
		"messages": []map[string]string{
			{
				"role":    "user",
				"content": prompt,
			},
		},
	}

	jsonBody, err := json.Marshal(requestBody)
	if err != nil {
		return Generation{}, newError(CodeAPIError, "failed to marshal request", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+"/v1/messages", strings.NewReader(string(jsonBody)))
	if err != nil {
		return Generation{}, newError(CodeAPIError, "failed to create request", err)
	}

	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("x-api-key", c.apiKey)
	req.Header.Set("anthropic-version", "2023-06-01")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return Generation{}, newError(CodeAPIError, "request failed", err)
	}
	defer func() { _ = resp.Body.Close() }()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return Generation{}, newError(CodeAPIError, "failed to read response", err)
	}

	if resp.StatusCode != http.StatusOK {
		if isCreditBalanceError(resp.StatusCode, body) {
			return Generation{}, newError(CodeInsufficientCredits,
				fmt.Sprintf("API rejected request (status %d): insufficient credits", resp.StatusCode), nil)
		}
		return Generation{}, newError(CodeAPIError,
			fmt.Sprintf("API error (status %d): %s", resp.StatusCode, string(body)), nil)
	}

	var response anthropicResponse
	if err := json.Unmarshal(body, &response); err != nil {
		return Generation{}, newError(CodeInvalidResponse, "failed to parse response body", err)
	}

	gen := Generation{
		InputTokens:  response.Usage.InputTokens,
		OutputTokens: response.Usage.OutputTokens,
	}

	for _, block := range response.Content {
		if block.Type == "text" {
			gen.Text = block.Text
			gen.HasText = true
			break
		}
	}

	return gen, nil
}

// isCreditBalanceError distinguishes billing rejections from generic API
// failures by pattern-matching the upstream error body.
func isCreditBalanceError(status int, body []byte) bool {
	if status < 400 || status >= 500 {
		return false
	}
	lower := strings.ToLower(string(body))
	return strings.Contains(lower, "credit balance") || strings.Contains(lower, "insufficient credits")
}
