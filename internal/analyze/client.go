// Package analyze calls the remote AI gateway to summarise and categorise
// announcement drafts.
package analyze

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"time"

	"github.com/resono-hq/resono/internal/shared"
)

// Typed failures the caller can distinguish; all carry KindExternalService
// when surfaced through the shared taxonomy.
var (
	ErrRateLimited   = errors.New("analyze: rate limited")
	ErrQuotaExceeded = errors.New("analyze: quota exceeded")
	ErrUnavailable   = errors.New("analyze: gateway unavailable")
)

// Categories the gateway is constrained to; also used for fallback values.
var Categories = []string{
	"Policy Updates",
	"General Info",
	"Events",
	"Technical",
	"HR Updates",
	"Operations",
}

// Result is the structured analysis of an announcement draft.
type Result struct {
	Summary  string `json:"summary"`
	Category string `json:"category"`
	Priority string `json:"priority"`
}

// Client wraps interactions with the AI gateway's chat completions API.
type Client struct {
	baseURL    string
	apiKey     string
	model      string
	httpClient *http.Client
}

// NewClient constructs a new client.
func NewClient(baseURL, apiKey, model string, timeout time.Duration) *Client {
	if timeout <= 0 {
		timeout = 20 * time.Second
	}
	return &Client{
		baseURL: baseURL,
		apiKey:  apiKey,
		model:   model,
		httpClient: &http.Client{
			Timeout: timeout,
		},
	}
}

const systemPrompt = "You are an AI assistant that analyzes announcements and provides structured metadata. Always respond with valid JSON only."

type chatRequest struct {
	Model      string         `json:"model"`
	Messages   []chatMessage  `json:"messages"`
	Tools      []toolSpec     `json:"tools"`
	ToolChoice map[string]any `json:"tool_choice"`
}

type chatMessage struct {
	Role    string `json:"role"`
	Content string `json:"content"`
}

type toolSpec struct {
	Type     string       `json:"type"`
	Function toolFunction `json:"function"`
}

type toolFunction struct {
	Name        string         `json:"name"`
	Description string         `json:"description"`
	Parameters  map[string]any `json:"parameters"`
}

type chatResponse struct {
	Choices []struct {
		Message struct {
			ToolCalls []struct {
				Function struct {
					Arguments string `json:"arguments"`
				} `json:"function"`
			} `json:"tool_calls"`
		} `json:"message"`
	} `json:"choices"`
}

// Analyze sends the draft to the gateway and returns its structured verdict.
func (c *Client) Analyze(ctx context.Context, title, content string) (Result, error) {
	if title == "" || content == "" {
		return Result{}, shared.FieldError("title", "title and content are required")
	}

	payload := chatRequest{
		Model: c.model,
		Messages: []chatMessage{
			{Role: "system", Content: systemPrompt},
			{Role: "user", Content: userPrompt(title, content)},
		},
		Tools: []toolSpec{{
			Type: "function",
			Function: toolFunction{
				Name:        "analyze_announcement",
				Description: "Analyze an announcement and extract metadata",
				Parameters: map[string]any{
					"type": "object",
					"properties": map[string]any{
						"summary": map[string]any{
							"type":        "string",
							"description": "A concise 2-3 sentence summary of the announcement",
						},
						"category": map[string]any{
							"type": "string",
							"enum": Categories,
						},
						"priority": map[string]any{
							"type": "string",
							"enum": []string{"high", "medium", "low"},
						},
					},
					"required":             []string{"summary", "category", "priority"},
					"additionalProperties": false,
				},
			},
		}},
		ToolChoice: map[string]any{
			"type":     "function",
			"function": map[string]any{"name": "analyze_announcement"},
		},
	}

	body, err := json.Marshal(payload)
	if err != nil {
		return Result{}, err
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodPost,
		fmt.Sprintf("%s/chat/completions", c.baseURL), bytes.NewReader(body))
	if err != nil {
		return Result{}, err
	}
	req.Header.Set("Content-Type", "application/json")
	if c.apiKey != "" {
		req.Header.Set("Authorization", "Bearer "+c.apiKey)
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return Result{}, fmt.Errorf("%w: %w", ErrUnavailable, err)
	}
	defer func() {
		_ = resp.Body.Close()
	}()

	switch {
	case resp.StatusCode == http.StatusTooManyRequests:
		return Result{}, ErrRateLimited
	case resp.StatusCode == http.StatusPaymentRequired:
		return Result{}, ErrQuotaExceeded
	case resp.StatusCode >= 400:
		return Result{}, fmt.Errorf("%w: status %d", ErrUnavailable, resp.StatusCode)
	}

	var parsed chatResponse
	if err := json.NewDecoder(resp.Body).Decode(&parsed); err != nil {
		return Result{}, fmt.Errorf("%w: decode response: %w", ErrUnavailable, err)
	}
	if len(parsed.Choices) == 0 || len(parsed.Choices[0].Message.ToolCalls) == 0 {
		return Result{}, fmt.Errorf("%w: no tool call in response", ErrUnavailable)
	}

	var result Result
	if err := json.Unmarshal([]byte(parsed.Choices[0].Message.ToolCalls[0].Function.Arguments), &result); err != nil {
		return Result{}, fmt.Errorf("%w: decode tool arguments: %w", ErrUnavailable, err)
	}
	return result, nil
}

func userPrompt(title, content string) string {
	return fmt.Sprintf(`Analyze this announcement and provide:
1. A concise summary (2-3 sentences)
2. A category (one of: Policy Updates, General Info, Events, Technical, HR Updates, Operations)
3. A priority level (high, medium, or low) based on urgency and impact

Title: %s
Content: %s`, title, content)
}
