// Package llm implements an OpenAI-compatible chat-completions client with
// tool calling and schema-constrained final output.
package llm

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"os"
	"strconv"
	"time"

	"webmemory/internal/domain"
)

// Client talks to a chat-completions endpoint. Sampling is pinned to
// temperature 0 for reproducibility.
type Client struct {
	baseURL    string
	apiKey     string
	model      string
	client     *http.Client
	maxRetries int
}

// Config configures the chat client.
type Config struct {
	BaseURL   string
	APIKeyEnv string
	Model     string
	Timeout   time.Duration
}

// NewClient creates a chat client using the provided configuration. The API
// key is read from the environment variable named in APIKeyEnv.
func NewClient(cfg Config) (*Client, error) {
	key := os.Getenv(cfg.APIKeyEnv)
	if key == "" {
		return nil, fmt.Errorf("missing API key in env %s", cfg.APIKeyEnv)
	}
	if cfg.BaseURL == "" {
		cfg.BaseURL = "https://api.openai.com/v1"
	}
	if cfg.Model == "" {
		cfg.Model = "gpt-4o"
	}
	t := cfg.Timeout
	if t == 0 {
		t = 60 * time.Second
	}
	return &Client{
		baseURL:    cfg.BaseURL,
		apiKey:     key,
		model:      cfg.Model,
		client:     &http.Client{Timeout: t},
		maxRetries: 5,
	}, nil
}

type wireToolCall struct {
	ID       string `json:"id"`
	Type     string `json:"type"`
	Function struct {
		Name      string `json:"name"`
		Arguments string `json:"arguments"`
	} `json:"function"`
}

type wireMessage struct {
	Role       string         `json:"role"`
	Content    string         `json:"content"`
	ToolCalls  []wireToolCall `json:"tool_calls,omitempty"`
	ToolCallID string         `json:"tool_call_id,omitempty"`
}

type wireTool struct {
	Type     string `json:"type"`
	Function struct {
		Name        string         `json:"name"`
		Description string         `json:"description"`
		Parameters  map[string]any `json:"parameters"`
	} `json:"function"`
}

type chatRequest struct {
	Model          string         `json:"model"`
	Messages       []wireMessage  `json:"messages"`
	Tools          []wireTool     `json:"tools,omitempty"`
	ToolChoice     string         `json:"tool_choice,omitempty"`
	Temperature    float64        `json:"temperature"`
	ResponseFormat map[string]any `json:"response_format,omitempty"`
}

type chatResponse struct {
	Choices []struct {
		Message      wireMessage `json:"message"`
		FinishReason string      `json:"finish_reason"`
	} `json:"choices"`
}

// answerSchema constrains the final assistant message to the structured
// answer contract.
func answerSchema() map[string]any {
	return map[string]any{
		"type": "json_schema",
		"json_schema": map[string]any{
			"name":   "history_answer",
			"strict": true,
			"schema": map[string]any{
				"type": "object",
				"properties": map[string]any{
					"answer": map[string]any{
						"type":        "string",
						"description": "Final comprehensive answer based on retrieved context.",
					},
				},
				"required":             []string{"answer"},
				"additionalProperties": false,
			},
		},
	}
}

// Complete sends the message history and tool registry to the model and
// returns its response: either a tool-call request or a final message.
// Transient failures (429, 5xx) are retried with exponential backoff,
// honoring Retry-After.
func (c *Client) Complete(ctx context.Context, messages []domain.Message, tools []domain.ToolSpec) (domain.Message, error) {
	reqBody := chatRequest{
		Model:       c.model,
		Messages:    toWire(messages),
		Temperature: 0,
	}
	if len(tools) > 0 {
		reqBody.Tools = make([]wireTool, len(tools))
		for i, spec := range tools {
			reqBody.Tools[i].Type = "function"
			reqBody.Tools[i].Function.Name = spec.Name
			reqBody.Tools[i].Function.Description = spec.Description
			reqBody.Tools[i].Function.Parameters = spec.Parameters
		}
		reqBody.ToolChoice = "auto"
	}
	reqBody.ResponseFormat = answerSchema()

	data, err := json.Marshal(reqBody)
	if err != nil {
		return domain.Message{}, err
	}
	url := fmt.Sprintf("%s/chat/completions", c.baseURL)

	for attempt := 0; attempt <= c.maxRetries; attempt++ {
		req, err := http.NewRequestWithContext(ctx, http.MethodPost, url, bytes.NewReader(data))
		if err != nil {
			return domain.Message{}, err
		}
		req.Header.Set("Content-Type", "application/json")
		req.Header.Set("Authorization", "Bearer "+c.apiKey)

		resp, err := c.client.Do(req)
		if err != nil {
			if ctx.Err() != nil {
				return domain.Message{}, ctx.Err()
			}
			if attempt < c.maxRetries {
				time.Sleep(retryDelay(attempt))
				continue
			}
			return domain.Message{}, err
		}

		if resp.StatusCode == http.StatusTooManyRequests || resp.StatusCode >= 500 {
			delay := retryDelay(attempt)
			if ra := resp.Header.Get("Retry-After"); ra != "" {
				if secs, err := strconv.Atoi(ra); err == nil {
					delay = time.Duration(secs) * time.Second
				}
			}
			_ = resp.Body.Close()
			if attempt < c.maxRetries {
				time.Sleep(delay)
				continue
			}
			return domain.Message{}, fmt.Errorf("chat completion failed: %s", resp.Status)
		}

		payload, readErr := io.ReadAll(resp.Body)
		_ = resp.Body.Close()
		if readErr != nil {
			return domain.Message{}, readErr
		}
		if resp.StatusCode >= 300 {
			return domain.Message{}, fmt.Errorf("chat completion failed: %s", resp.Status)
		}

		var out chatResponse
		if err := json.Unmarshal(payload, &out); err != nil {
			return domain.Message{}, fmt.Errorf("decode chat response: %w", err)
		}
		if len(out.Choices) == 0 {
			return domain.Message{}, errors.New("chat completion returned no choices")
		}
		return fromWire(out.Choices[0].Message), nil
	}
	return domain.Message{}, errors.New("chat completion failed after retries")
}

func toWire(messages []domain.Message) []wireMessage {
	out := make([]wireMessage, len(messages))
	for i, m := range messages {
		out[i] = wireMessage{
			Role:       m.Role,
			Content:    m.Content,
			ToolCallID: m.ToolCallID,
		}
		for _, tc := range m.ToolCalls {
			w := wireToolCall{ID: tc.ID, Type: "function"}
			w.Function.Name = tc.Name
			w.Function.Arguments = tc.Arguments
			out[i].ToolCalls = append(out[i].ToolCalls, w)
		}
	}
	return out
}

func fromWire(m wireMessage) domain.Message {
	out := domain.Message{
		Role:       m.Role,
		Content:    m.Content,
		ToolCallID: m.ToolCallID,
	}
	for _, tc := range m.ToolCalls {
		out.ToolCalls = append(out.ToolCalls, domain.ToolCall{
			ID:        tc.ID,
			Name:      tc.Function.Name,
			Arguments: tc.Function.Arguments,
		})
	}
	return out
}

func retryDelay(attempt int) time.Duration {
	if attempt < 0 {
		attempt = 0
	}
	base := 200 * time.Millisecond
	// exponential backoff capped at 5s
	d := base << attempt
	if d > 5*time.Second {
		d = 5 * time.Second
	}
	return d
}
