// Package generator calls a chat-completion model to synthesize a
// diagnostic assessment from a query and retrieved context.
package generator

import (
	"context"
	"fmt"
	"os"
	"strings"
	"time"

	openai "github.com/sashabaranov/go-openai"

	"clinicalrag/internal/domain"
)

const promptTemplate = `Answer based on context.

Context:
%s

Question: %s

Answer:`

// Config selects the generation model and its limits.
type Config struct {
	BaseURL     string
	APIKeyEnv   string
	Model       string
	MaxTokens   int
	Temperature float32
	Timeout     time.Duration
}

// Client generates answers through an OpenAI-compatible chat endpoint.
type Client struct {
	client      *openai.Client
	model       string
	maxTokens   int
	temperature float32
	timeout     time.Duration
}

// New creates a generator. The API key is read from cfg.APIKeyEnv
// (default OPENAI_API_KEY).
func New(cfg Config) (*Client, error) {
	env := cfg.APIKeyEnv
	if env == "" {
		env = "OPENAI_API_KEY"
	}
	key := os.Getenv(env)
	if key == "" {
		return nil, fmt.Errorf("%w: missing API key in env %s", domain.ErrConfiguration, env)
	}
	model := cfg.Model
	if model == "" {
		model = openai.GPT4oMini
	}
	maxTokens := cfg.MaxTokens
	if maxTokens == 0 {
		maxTokens = 512
	}
	timeout := cfg.Timeout
	if timeout == 0 {
		// generation is the slow leg of the pipeline
		timeout = 120 * time.Second
	}
	c := openai.DefaultConfig(key)
	if cfg.BaseURL != "" {
		c.BaseURL = cfg.BaseURL
	}
	return &Client{
		client:      openai.NewClientWithConfig(c),
		model:       model,
		maxTokens:   maxTokens,
		temperature: cfg.Temperature,
		timeout:     timeout,
	}, nil
}

// Generate answers query from contextStr. The caller is responsible for
// truncating contextStr to the model's budget beforehand; this function
// sends it verbatim so the evaluator can score the identical string.
// A backend failure or an empty completion is an error, never an empty
// success.
func (c *Client) Generate(ctx context.Context, query, contextStr string) (string, error) {
	ctx, cancel := context.WithTimeout(ctx, c.timeout)
	defer cancel()

	resp, err := c.client.CreateChatCompletion(ctx, openai.ChatCompletionRequest{
		Model:       c.model,
		MaxTokens:   c.maxTokens,
		Temperature: c.temperature,
		Messages: []openai.ChatCompletionMessage{
			{
				Role:    openai.ChatMessageRoleUser,
				Content: fmt.Sprintf(promptTemplate, contextStr, query),
			},
		},
	})
	if err != nil {
		return "", fmt.Errorf("%w: chat completion: %v", domain.ErrModel, err)
	}
	if len(resp.Choices) == 0 {
		return "", fmt.Errorf("%w: no completion returned", domain.ErrModel)
	}
	answer := strings.TrimSpace(resp.Choices[0].Message.Content)
	if answer == "" {
		return "", fmt.Errorf("%w: empty completion returned", domain.ErrModel)
	}
	return answer, nil
}
