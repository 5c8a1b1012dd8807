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
)

const (
	anthropicAPIURL     = "https://api.anthropic.com/v1/messages"
	anthropicAPIVersion = "2023-06-01"
	defaultClaudeModel  = "claude-sonnet-4-20250514"
	maxTokens           = 1024
)

// ClaudeAPI implements Provider using the Anthropic messages API directly.
type ClaudeAPI struct {
	apiKey   string
	model    string
	endpoint string
	client   *http.Client
}

// NewClaudeAPI creates a new Claude API provider for the given key.
func NewClaudeAPI(apiKey string) *ClaudeAPI {
	return &ClaudeAPI{
		apiKey:   apiKey,
		model:    defaultClaudeModel,
		endpoint: anthropicAPIURL,
		client:   &http.Client{},
	}
}

// WithTimeout bounds each request. Zero means no timeout.
func (c *ClaudeAPI) WithTimeout(timeout time.Duration) *ClaudeAPI {
	c.client = &http.Client{Timeout: timeout}
	return c
}

// WithBaseURL points the provider at a different API host, e.g. a proxy.
func (c *ClaudeAPI) WithBaseURL(baseURL string) *ClaudeAPI {
	if baseURL != "" {
		c.endpoint = strings.TrimRight(baseURL, "/") + "/v1/messages"
	}
	return c
}

// Name returns the provider name.
func (c *ClaudeAPI) Name() string {
	return "claude-api"
}

// Available checks if an API key is configured.
func (c *ClaudeAPI) Available() bool {
	return c.apiKey != ""
}

// Complete sends the request to the Anthropic API.
func (c *ClaudeAPI) Complete(ctx context.Context, req Request) (string, error) {
	model := req.Model
	if model == "" {
		model = c.model
	}

	reqBody := apiRequest{
		Model:     model,
		MaxTokens: maxTokens,
		Messages:  make([]apiMessage, len(req.Messages)),
	}
	for i, msg := range req.Messages {
		reqBody.Messages[i] = apiMessage{Role: msg.Role, Content: msg.Content}
	}
	if req.Temperature > 0 {
		t := req.Temperature
		reqBody.Temperature = &t
	}

	jsonBody, err := json.Marshal(reqBody)
	if err != nil {
		return "", fmt.Errorf("marshaling request: %w", err)
	}

	httpReq, err := http.NewRequestWithContext(ctx, "POST", c.endpoint, bytes.NewReader(jsonBody))
	if err != nil {
		return "", fmt.Errorf("creating request: %w", err)
	}

	httpReq.Header.Set("Content-Type", "application/json")
	httpReq.Header.Set("x-api-key", c.apiKey)
	httpReq.Header.Set("anthropic-version", anthropicAPIVersion)

	resp, err := c.client.Do(httpReq)
	if err != nil {
		return "", fmt.Errorf("API request: %w", err)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return "", fmt.Errorf("reading response: %w", err)
	}

	if resp.StatusCode != http.StatusOK {
		var apiErr apiErrorResponse
		if json.Unmarshal(body, &apiErr) == nil && apiErr.Error.Message != "" {
			return "", fmt.Errorf("API error (%d): %s", resp.StatusCode, apiErr.Error.Message)
		}
		return "", fmt.Errorf("API error (%d): %s", resp.StatusCode, string(body))
	}

	var apiResp apiResponse
	if err := json.Unmarshal(body, &apiResp); err != nil {
		return "", fmt.Errorf("parsing response: %w", err)
	}

	var sb strings.Builder
	for _, block := range apiResp.Content {
		if block.Type == "text" {
			sb.WriteString(block.Text)
		}
	}
	return sb.String(), nil
}

// API request/response types

type apiRequest struct {
	Model       string       `json:"model"`
	MaxTokens   int          `json:"max_tokens"`
	Messages    []apiMessage `json:"messages"`
	Temperature *float64     `json:"temperature,omitempty"`
}

type apiMessage struct {
	Role    string `json:"role"`
	Content string `json:"content"`
}

type apiResponse struct {
	Content []apiContentBlock `json:"content"`
}

type apiContentBlock struct {
	Type string `json:"type"`
	Text string `json:"text,omitempty"`
}

type apiErrorResponse struct {
	Error struct {
		Message string `json:"message"`
	} `json:"error"`
}
