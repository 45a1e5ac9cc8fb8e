// Package llm is a thin client for an OpenAI compatible chat completion API.
package llm

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"time"

	"github.com/Gobusters/ectologger"
	"github.com/Ramsey-B/sage/pkg/tracing"
)

// Config contains configuration for the completion client.
type Config struct {
	BaseURL string // e.g. "https://api.openai.com/v1"
	APIKey  string
	Model   string
	Timeout time.Duration // per request; zero means 60s
}

// Client calls a chat completion endpoint and returns raw message content.
// Calls are never retried here; generation is not idempotent and the caller
// decides what a failure means.
type Client struct {
	cfg        Config
	httpClient *http.Client
	logger     ectologger.Logger
}

// NewClient creates a new completion client.
func NewClient(cfg Config, logger ectologger.Logger) *Client {
	timeout := cfg.Timeout
	if timeout == 0 {
		timeout = 60 * time.Second
	}
	return &Client{
		cfg:        cfg,
		httpClient: &http.Client{Timeout: timeout},
		logger:     logger,
	}
}

type chatMessage struct {
	Role    string `json:"role"`
	Content string `json:"content"`
}

type chatRequest struct {
	Model          string         `json:"model"`
	Messages       []chatMessage  `json:"messages"`
	Temperature    float64        `json:"temperature"`
	ResponseFormat map[string]any `json:"response_format,omitempty"`
}

type chatResponse struct {
	Choices []struct {
		Message struct {
			Content string `json:"content"`
		} `json:"message"`
	} `json:"choices"`
}

// CompleteJSON sends one system plus user exchange and asks the model for a
// JSON object reply. Temperature stays at zero so the same prompt reads the
// same way on every call.
func (c *Client) CompleteJSON(ctx context.Context, systemPrompt, userPrompt string) (string, error) {
	ctx, span := tracing.StartSpan(ctx, "llm.Client.CompleteJSON")
	defer span.End()

	payload := chatRequest{
		Model:          c.cfg.Model,
		Temperature:    0,
		ResponseFormat: map[string]any{"type": "json_object"},
		Messages: []chatMessage{
			{Role: "system", Content: systemPrompt},
			{Role: "user", Content: userPrompt},
		},
	}

	body, err := json.Marshal(payload)
	if err != nil {
		return "", err
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.cfg.BaseURL+"/chat/completions", bytes.NewReader(body))
	if err != nil {
		return "", err
	}
	req.Header.Set("Authorization", "Bearer "+c.cfg.APIKey)
	req.Header.Set("Content-Type", "application/json")
	if traceparent := tracing.GetTraceParent(ctx); traceparent != "" {
		req.Header.Set("traceparent", traceparent)
	}

	res, err := c.httpClient.Do(req)
	if err != nil {
		c.logger.WithContext(ctx).WithError(err).Error("Completion request failed")
		return "", err
	}
	defer res.Body.Close()

	resBody, _ := io.ReadAll(res.Body)
	if res.StatusCode >= 300 {
		c.logger.WithContext(ctx).WithFields(map[string]any{"status": res.StatusCode}).Error("Completion request rejected")
		return "", fmt.Errorf("completion api returned %d: %s", res.StatusCode, resBody)
	}

	var out chatResponse
	if err := json.Unmarshal(resBody, &out); err != nil {
		return "", fmt.Errorf("completion api returned invalid json: %w", err)
	}
	if len(out.Choices) == 0 {
		return "", errors.New("completion api returned no choices")
	}

	return out.Choices[0].Message.Content, nil
}
