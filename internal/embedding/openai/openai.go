// Package openai wraps the OpenAI embeddings API as a domain.Embedder.
package openai

import (
	"context"
	"fmt"
	"os"
	"sync"
	"time"

	openai "github.com/sashabaranov/go-openai"

	"clinicalrag/internal/domain"
	"clinicalrag/internal/vectormath"
)

// Config selects the embedding model and where the API key comes from.
type Config struct {
	BaseURL   string
	APIKeyEnv string
	Model     string
	Timeout   time.Duration
}

// Client calls the embeddings endpoint of an OpenAI-compatible server.
// Vectors are L2-normalized before being returned so dot products equal
// cosine similarities across the stores.
type Client struct {
	client  *openai.Client
	model   string
	timeout time.Duration

	// set on first successful embed; the remote model defines it.
	// Guarded by mu: the evaluator and indexer share one client across
	// concurrent Embed calls.
	mu        sync.Mutex
	dimension int
}

// New creates a remote embedder. The API key is read from cfg.APIKeyEnv
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
		model = string(openai.SmallEmbedding3)
	}
	timeout := cfg.Timeout
	if timeout == 0 {
		timeout = 30 * time.Second
	}
	c := openai.DefaultConfig(key)
	if cfg.BaseURL != "" {
		c.BaseURL = cfg.BaseURL
	}
	return &Client{client: openai.NewClientWithConfig(c), model: model, timeout: timeout}, nil
}

// Name returns the identifier of this embedder implementation.
func (c *Client) Name() string { return "openai-" + c.model }

// Dimension returns the vector dimension, or 0 before the first embed.
func (c *Client) Dimension() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.dimension
}

// Embed requests an embedding for text. Long input is truncated server-side
// to the model's token cap; callers budget for that loss at the context
// truncation layer, not here.
func (c *Client) Embed(ctx context.Context, text string) ([]float64, error) {
	if text == "" {
		return nil, fmt.Errorf("%w: cannot embed empty text", domain.ErrInvalidInput)
	}
	ctx, cancel := context.WithTimeout(ctx, c.timeout)
	defer cancel()

	resp, err := c.client.CreateEmbeddings(ctx, openai.EmbeddingRequest{
		Model: openai.EmbeddingModel(c.model),
		Input: []string{text},
	})
	if err != nil {
		return nil, fmt.Errorf("%w: embeddings request: %v", domain.ErrModel, err)
	}
	if len(resp.Data) == 0 || len(resp.Data[0].Embedding) == 0 {
		return nil, fmt.Errorf("%w: no embedding returned", domain.ErrModel)
	}
	raw := resp.Data[0].Embedding
	vec := make([]float64, len(raw))
	for i, v := range raw {
		vec[i] = float64(v)
	}
	vectormath.Normalize(vec)
	if err := c.learnDimension(len(vec)); err != nil {
		return nil, err
	}
	return vec, nil
}

func (c *Client) learnDimension(n int) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.dimension == 0 {
		c.dimension = n
		return nil
	}
	if c.dimension != n {
		return fmt.Errorf("%w: embedding dimension changed from %d to %d", domain.ErrConfiguration, c.dimension, n)
	}
	return nil
}
