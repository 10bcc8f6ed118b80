// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 Accelerate Contributors

// Package ai talks to an OpenAI-compatible chat-completions endpoint and
// turns freeform model output into report and workflow structures.
package ai

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"time"

	"github.com/samber/oops"
	"github.com/sethvargo/go-retry"
)

// DefaultModel is used when the configuration does not name one.
const DefaultModel = "gpt-4o"

const (
	defaultBaseURL    = "https://api.openai.com/v1"
	requestTimeout    = 60 * time.Second
	retryBaseDelay    = 500 * time.Millisecond
	maxRetryAttempts  = 3
	maxResponseLength = 1 << 20 // 1 MiB cap on response bodies
)

// Message is one chat-completion message.
type Message struct {
	Role    string `json:"role"`
	Content string `json:"content"`
}

// Completer produces a completion for a conversation.
type Completer interface {
	Complete(ctx context.Context, messages []Message) (string, error)
}

// Client is an OpenAI-compatible chat-completions client. Transient failures
// (429 and 5xx) are retried with exponential backoff.
type Client struct {
	httpClient *http.Client
	baseURL    string
	apiKey     string
	model      string
}

// ClientOption configures a Client.
type ClientOption func(*Client)

// WithBaseURL points the client at a different endpoint (useful for tests and
// self-hosted gateways).
func WithBaseURL(baseURL string) ClientOption {
	return func(c *Client) {
		if baseURL != "" {
			c.baseURL = baseURL
		}
	}
}

// WithModel overrides the completion model.
func WithModel(model string) ClientOption {
	return func(c *Client) {
		if model != "" {
			c.model = model
		}
	}
}

// WithHTTPClient overrides the HTTP client.
func WithHTTPClient(httpClient *http.Client) ClientOption {
	return func(c *Client) {
		if httpClient != nil {
			c.httpClient = httpClient
		}
	}
}

// NewClient creates a Client. The API key is required.
func NewClient(apiKey string, opts ...ClientOption) (*Client, error) {
	if apiKey == "" {
		return nil, oops.Code("AI_CONFIG_INVALID").Errorf("API key is required")
	}

	c := &Client{
		httpClient: &http.Client{Timeout: requestTimeout},
		baseURL:    defaultBaseURL,
		apiKey:     apiKey,
		model:      DefaultModel,
	}
	for _, opt := range opts {
		opt(c)
	}
	return c, nil
}

type completionRequest struct {
	Model    string    `json:"model"`
	Messages []Message `json:"messages"`
}

type completionResponse struct {
	Choices []struct {
		Message Message `json:"message"`
	} `json:"choices"`
	Error *struct {
		Message string `json:"message"`
		Type    string `json:"type"`
	} `json:"error,omitempty"`
}

// Complete sends the conversation and returns the first choice's content.
func (c *Client) Complete(ctx context.Context, messages []Message) (string, error) {
	if len(messages) == 0 {
		return "", oops.Code("AI_REQUEST_INVALID").Errorf("at least one message is required")
	}

	body, err := json.Marshal(completionRequest{Model: c.model, Messages: messages})
	if err != nil {
		return "", oops.Code("AI_REQUEST_INVALID").
			With("operation", "marshal completion request").
			Wrap(err)
	}

	var content string
	backoff := retry.WithMaxRetries(maxRetryAttempts, retry.NewExponential(retryBaseDelay))
	err = retry.Do(ctx, backoff, func(ctx context.Context) error {
		var attemptErr error
		content, attemptErr = c.complete(ctx, body)
		return attemptErr
	})
	if err != nil {
		return "", oops.Code("AI_COMPLETION_FAILED").
			With("model", c.model).
			Wrap(err)
	}
	return content, nil
}

func (c *Client) complete(ctx context.Context, body []byte) (string, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodPost,
		c.baseURL+"/chat/completions", bytes.NewReader(body))
	if err != nil {
		return "", oops.With("operation", "build completion request").Wrap(err)
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Authorization", "Bearer "+c.apiKey)

	resp, err := c.httpClient.Do(req)
	if err != nil {
		// Network errors are worth another attempt.
		return "", retry.RetryableError(err)
	}
	defer resp.Body.Close() //nolint:errcheck // read-only body

	respBody, err := io.ReadAll(io.LimitReader(resp.Body, maxResponseLength))
	if err != nil {
		return "", oops.With("operation", "read completion response").Wrap(err)
	}

	if resp.StatusCode == http.StatusTooManyRequests || resp.StatusCode >= http.StatusInternalServerError {
		return "", retry.RetryableError(fmt.Errorf("completion endpoint returned %d", resp.StatusCode))
	}
	if resp.StatusCode != http.StatusOK {
		return "", oops.With("status", resp.StatusCode).
			Errorf("completion endpoint returned %d", resp.StatusCode)
	}

	var parsed completionResponse
	if err := json.Unmarshal(respBody, &parsed); err != nil {
		return "", oops.With("operation", "decode completion response").Wrap(err)
	}
	if parsed.Error != nil {
		return "", oops.With("type", parsed.Error.Type).Errorf("%s", parsed.Error.Message)
	}
	if len(parsed.Choices) == 0 || parsed.Choices[0].Message.Content == "" {
		return "", oops.Errorf("no response content received")
	}
	return parsed.Choices[0].Message.Content, nil
}
