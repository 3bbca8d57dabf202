package services

import (
	"context"
	"fmt"
	"log"
	"time"

	"github.com/avast/retry-go/v4"
	"github.com/tmc/langchaingo/llms"
	"github.com/tmc/langchaingo/llms/openai"
	"github.com/tmc/langchaingo/schema"
)

// LLM is the text-generation surface used by the answer and chart
// pipelines. Kept narrow so tests can stub it.
type LLM interface {
	Generate(ctx context.Context, prompt string) (string, error)
}

// LLMClient calls an OpenAI-compatible chat completion endpoint through
// langchaingo, with bounded retries on transient failures.
type LLMClient struct {
	llm     *openai.LLM
	model   string
	retries uint
	logger  *log.Logger
}

// LLMOptions configures the chat completion client.
type LLMOptions struct {
	BaseURL string
	APIKey  string
	Model   string
	Retries int
}

// NewLLMClient creates a chat completion client. BaseURL may point at any
// OpenAI-compatible gateway.
func NewLLMClient(opts LLMOptions, logger *log.Logger) (*LLMClient, error) {
	clientOpts := []openai.Option{
		openai.WithToken(opts.APIKey),
		openai.WithModel(opts.Model),
	}
	if opts.BaseURL != "" {
		clientOpts = append(clientOpts, openai.WithBaseURL(opts.BaseURL))
	}

	llm, err := openai.New(clientOpts...)
	if err != nil {
		return nil, fmt.Errorf("failed to create LLM client: %w", err)
	}

	retries := uint(opts.Retries)
	if retries == 0 {
		retries = 2
	}

	return &LLMClient{
		llm:     llm,
		model:   opts.Model,
		retries: retries,
		logger:  logger,
	}, nil
}

// Generate sends a single-turn prompt and returns the model's text reply.
func (c *LLMClient) Generate(ctx context.Context, prompt string) (string, error) {
	messages := []llms.MessageContent{
		llms.TextParts(schema.ChatMessageTypeHuman, prompt),
	}

	var content string
	err := retry.Do(
		func() error {
			start := time.Now()
			resp, err := c.llm.GenerateContent(ctx, messages)
			if err != nil {
				c.logger.Printf("[LLM] generation failed after %v: %v", time.Since(start), err)
				return err
			}
			if len(resp.Choices) == 0 {
				return fmt.Errorf("model %s returned no choices", c.model)
			}
			content = resp.Choices[0].Content
			c.logger.Printf("[LLM] generated %d chars in %v", len(content), time.Since(start))
			return nil
		},
		retry.Attempts(c.retries+1),
		retry.Context(ctx),
		retry.LastErrorOnly(true),
	)
	if err != nil {
		return "", fmt.Errorf("LLM generation failed: %w", err)
	}
	return content, nil
}
