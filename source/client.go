package source

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
)

// CompletionRequest matches the OpenAI Completion API format
type CompletionRequest struct {
	Model       string   `json:"model"`
	Prompt      string   `json:"prompt"`
	Temperature float64  `json:"temperature"`
	MaxTokens   int      `json:"max_tokens"`
	Stop        []string `json:"stop,omitempty"`
	Stream      bool     `json:"stream"`
}

// Client opens streaming completions against an OpenAI-compatible server
type Client struct {
	HTTPClient *http.Client
	URL        string
	APIKey     string
}

// NewClient creates a new OpenAI-compatible client
func NewClient(url, apiKey string) *Client {
	return &Client{
		HTTPClient: &http.Client{},
		URL:        url,
		APIKey:     apiKey,
	}
}

// StreamCompletion starts a streaming completion and returns its lines as
// they arrive. Caller must Close the returned stream.
func (c *Client) StreamCompletion(ctx context.Context, req *CompletionRequest, maxLines int) (*LineStream, error) {
	req.Stream = true

	// Marshal the request without HTML escaping
	var reqBodyBuf bytes.Buffer
	encoder := json.NewEncoder(&reqBodyBuf)
	encoder.SetEscapeHTML(false)
	if err := encoder.Encode(req); err != nil {
		return nil, fmt.Errorf("failed to marshal request: %w", err)
	}

	httpReq, err := http.NewRequestWithContext(ctx, "POST", c.URL+"/v1/completions", &reqBodyBuf)
	if err != nil {
		return nil, fmt.Errorf("failed to create request: %w", err)
	}
	httpReq.Header.Set("Content-Type", "application/json")
	httpReq.Header.Set("Accept", "text/event-stream")
	if c.APIKey != "" {
		httpReq.Header.Set("Authorization", "Bearer "+c.APIKey)
	}

	resp, err := c.HTTPClient.Do(httpReq)
	if err != nil {
		return nil, fmt.Errorf("failed to send request: %w", err)
	}
	if resp.StatusCode != http.StatusOK {
		defer resp.Body.Close()
		body, _ := io.ReadAll(resp.Body)
		return nil, fmt.Errorf("request failed with status %d: %s", resp.StatusCode, string(body))
	}

	return Lines(resp.Body, maxLines), nil
}
