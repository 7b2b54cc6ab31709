// Package openai implements ai.Generator against an OpenAI-compatible
// chat-completions endpoint.
package openai

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"strings"
	"time"

	"golang.org/x/sync/semaphore"

	"github.com/gregsypek/devflow/internal/ai"
)

const systemPrompt = "You are a helpful programming Q&A assistant. " +
	"Draft a clear, technically accurate answer to the question below. " +
	"Use markdown, include code examples where they help, and keep the answer focused."

// Client calls the chat-completions API. A weighted semaphore caps the
// number of in-flight upstream calls so a burst of drafting requests
// cannot exhaust the provider quota or the server's connections.
type Client struct {
	config Config
	http   *http.Client
	sem    *semaphore.Weighted
	logger *slog.Logger
}

var _ ai.Generator = (*Client)(nil)

// New builds a Client from cfg, filling zero fields from DefaultConfig.
func New(cfg Config, logger *slog.Logger) *Client {
	def := DefaultConfig()
	if cfg.BaseURL == "" {
		cfg.BaseURL = def.BaseURL
	}
	if cfg.Model == "" {
		cfg.Model = def.Model
	}
	if cfg.Timeout <= 0 {
		cfg.Timeout = def.Timeout
	}
	if cfg.MaxConcurrent <= 0 {
		cfg.MaxConcurrent = def.MaxConcurrent
	}

	return &Client{
		config: cfg,
		http:   &http.Client{Timeout: cfg.Timeout},
		sem:    semaphore.NewWeighted(int64(cfg.MaxConcurrent)),
		logger: logger,
	}
}

type chatMessage struct {
	Role    string `json:"role"`
	Content string `json:"content"`
}

type chatRequest struct {
	Model    string        `json:"model"`
	Messages []chatMessage `json:"messages"`
}

type chatResponse struct {
	Model   string `json:"model"`
	Choices []struct {
		Message chatMessage `json:"message"`
	} `json:"choices"`
	Error *struct {
		Message string `json:"message"`
		Type    string `json:"type"`
	} `json:"error"`
}

// Draft generates one answer candidate for the question.
func (c *Client) Draft(ctx context.Context, req ai.DraftRequest) (*ai.Draft, error) {
	if c.config.APIKey == "" {
		return nil, ai.ErrUnavailable
	}

	if err := c.sem.Acquire(ctx, 1); err != nil {
		return nil, fmt.Errorf("openai: waiting for drafting slot: %w", err)
	}
	defer c.sem.Release(1)

	start := time.Now()
	draft, err := c.complete(ctx, req)
	if err != nil {
		return nil, err
	}

	c.logger.Info("answer draft generated",
		slog.String("model", draft.Model),
		slog.Duration("duration", time.Since(start)),
	)
	return draft, nil
}

func (c *Client) complete(ctx context.Context, req ai.DraftRequest) (*ai.Draft, error) {
	user := fmt.Sprintf("Question title: %s\n\nQuestion body:\n%s", req.QuestionTitle, req.QuestionContent)
	if req.Guidance != "" {
		user += "\n\nAdditional guidance from the user:\n" + req.Guidance
	}

	body, err := json.Marshal(chatRequest{
		Model: c.config.Model,
		Messages: []chatMessage{
			{Role: "system", Content: systemPrompt},
			{Role: "user", Content: user},
		},
	})
	if err != nil {
		return nil, fmt.Errorf("openai: encoding request: %w", err)
	}

	url := strings.TrimSuffix(c.config.BaseURL, "/") + "/chat/completions"
	httpReq, err := http.NewRequestWithContext(ctx, http.MethodPost, url, bytes.NewReader(body))
	if err != nil {
		return nil, fmt.Errorf("openai: building request: %w", err)
	}
	httpReq.Header.Set("Content-Type", "application/json")
	httpReq.Header.Set("Authorization", "Bearer "+c.config.APIKey)

	resp, err := c.http.Do(httpReq)
	if err != nil {
		return nil, fmt.Errorf("openai: calling chat completions: %w", err)
	}
	defer resp.Body.Close()

	// Error bodies are small; cap reads anyway.
	payload, err := io.ReadAll(io.LimitReader(resp.Body, 1<<20))
	if err != nil {
		return nil, fmt.Errorf("openai: reading response: %w", err)
	}

	var parsed chatResponse
	if err := json.Unmarshal(payload, &parsed); err != nil {
		return nil, fmt.Errorf("openai: decoding response (status %d): %w", resp.StatusCode, err)
	}
	if resp.StatusCode != http.StatusOK {
		if parsed.Error != nil {
			return nil, fmt.Errorf("openai: upstream error (status %d): %s", resp.StatusCode, parsed.Error.Message)
		}
		return nil, fmt.Errorf("openai: unexpected status %d", resp.StatusCode)
	}
	if len(parsed.Choices) == 0 || parsed.Choices[0].Message.Content == "" {
		return nil, fmt.Errorf("openai: response contained no draft")
	}

	model := parsed.Model
	if model == "" {
		model = c.config.Model
	}
	return &ai.Draft{
		Content: parsed.Choices[0].Message.Content,
		Model:   model,
	}, nil
}
